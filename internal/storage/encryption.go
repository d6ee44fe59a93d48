package storage

import (
	"bytes"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"fmt"

	"golang.org/x/crypto/argon2"
)

const (
	// encryptionMagicHeader is prepended to encrypted blobs for
	// identification.
	encryptionMagicHeader = "CARDGAL1"

	// Argon2 parameters (RFC 9106 recommendations)
	defaultArgon2Time    = 1
	defaultArgon2Memory  = 64 * 1024 // 64 MB
	defaultArgon2Threads = 4
	defaultArgon2KeyLen  = 32 // 256 bits for AES-256

	saltLength = 32
)

// EncryptionConfig holds parameters for at-rest encryption of the state
// blob.
type EncryptionConfig struct {
	// Password is the encryption passphrase.
	Password string

	// Argon2Time is the number of Argon2 iterations. Default: 1
	Argon2Time uint32

	// Argon2Memory is the key-derivation memory in KB. Default: 64 MB
	Argon2Memory uint32

	// Argon2Threads is the key-derivation parallelism. Default: 4
	Argon2Threads uint8
}

// DefaultEncryptionConfig returns an encryption config with secure
// defaults.
func DefaultEncryptionConfig(password string) *EncryptionConfig {
	return &EncryptionConfig{
		Password:      password,
		Argon2Time:    defaultArgon2Time,
		Argon2Memory:  defaultArgon2Memory,
		Argon2Threads: defaultArgon2Threads,
	}
}

// deriveKey derives an encryption key from a password using Argon2id.
func deriveKey(password string, salt []byte, config *EncryptionConfig) []byte {
	if config == nil {
		config = DefaultEncryptionConfig(password)
	}

	return argon2.IDKey(
		[]byte(password),
		salt,
		config.Argon2Time,
		config.Argon2Memory,
		config.Argon2Threads,
		defaultArgon2KeyLen,
	)
}

// IsEncrypted reports whether data carries the encrypted-blob header.
func IsEncrypted(data []byte) bool {
	return bytes.HasPrefix(data, []byte(encryptionMagicHeader))
}

// EncryptData encrypts data using AES-256-GCM with password-based key
// derivation. Output layout: magic header || salt || nonce || ciphertext
// (including the auth tag).
func EncryptData(plaintext []byte, config *EncryptionConfig) ([]byte, error) {
	if config == nil || config.Password == "" {
		return nil, fmt.Errorf("encryption config with password required")
	}

	salt := make([]byte, saltLength)
	if _, err := rand.Read(salt); err != nil {
		return nil, fmt.Errorf("failed to generate salt: %w", err)
	}

	key := deriveKey(config.Password, salt, config)

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("failed to create cipher: %w", err)
	}

	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCM: %w", err)
	}

	nonce := make([]byte, gcm.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return nil, fmt.Errorf("failed to generate nonce: %w", err)
	}

	ciphertext := gcm.Seal(nil, nonce, plaintext, nil)

	result := make([]byte, 0, len(encryptionMagicHeader)+len(salt)+len(nonce)+len(ciphertext))
	result = append(result, encryptionMagicHeader...)
	result = append(result, salt...)
	result = append(result, nonce...)
	result = append(result, ciphertext...)

	return result, nil
}

// DecryptData decrypts a blob produced by EncryptData.
func DecryptData(encrypted []byte, config *EncryptionConfig) ([]byte, error) {
	if config == nil || config.Password == "" {
		return nil, fmt.Errorf("encryption config with password required")
	}
	if !IsEncrypted(encrypted) {
		return nil, fmt.Errorf("data is not encrypted")
	}
	encrypted = encrypted[len(encryptionMagicHeader):]

	// Minimum size: salt + 12-byte nonce + 16-byte auth tag
	minSize := saltLength + 12 + 16
	if len(encrypted) < minSize {
		return nil, fmt.Errorf("encrypted data too short")
	}

	salt := encrypted[:saltLength]
	encrypted = encrypted[saltLength:]

	key := deriveKey(config.Password, salt, config)

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("failed to create cipher: %w", err)
	}

	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCM: %w", err)
	}

	nonceSize := gcm.NonceSize()
	if len(encrypted) < nonceSize {
		return nil, fmt.Errorf("encrypted data too short for nonce")
	}
	nonce := encrypted[:nonceSize]
	ciphertext := encrypted[nonceSize:]

	plaintext, err := gcm.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, fmt.Errorf("decryption failed (wrong password or corrupted data): %w", err)
	}

	return plaintext, nil
}
