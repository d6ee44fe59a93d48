package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/ramonehamilton/card-gallery/internal/state"
)

// StateKey is the single fixed key the whole application state lives
// under.
const StateKey = "card-gallery:v1"

// StateStore binds the blob store to the application state: it encodes a
// snapshot to JSON (face bytes included, display handles excluded) and
// stores it under StateKey, optionally encrypting the blob at rest.
type StateStore struct {
	db  *DB
	enc *EncryptionConfig
}

// NewStateStore creates a state store. enc may be nil to store plaintext.
func NewStateStore(db *DB, enc *EncryptionConfig) *StateStore {
	return &StateStore{db: db, enc: enc}
}

// Save stores the entire state, overwriting any prior value.
func (s *StateStore) Save(ctx context.Context, st state.State) error {
	data, err := json.Marshal(st)
	if err != nil {
		return fmt.Errorf("failed to encode state: %w", err)
	}
	if s.enc != nil {
		data, err = EncryptData(data, s.enc)
		if err != nil {
			return fmt.Errorf("failed to encrypt state: %w", err)
		}
	}
	return s.db.Set(ctx, StateKey, data)
}

// Load returns the previously saved state. The second return value is
// false when nothing was ever saved.
//
// Display handles are process-local and are not part of the persisted
// form; the caller must re-materialize every card before exposing the
// loaded state for rendering.
func (s *StateStore) Load(ctx context.Context) (state.State, bool, error) {
	data, err := s.db.Get(ctx, StateKey)
	if errors.Is(err, ErrNotFound) {
		return state.State{}, false, nil
	}
	if err != nil {
		return state.State{}, false, err
	}

	if IsEncrypted(data) {
		if s.enc == nil {
			return state.State{}, false, fmt.Errorf("stored state is encrypted but no password is configured")
		}
		data, err = DecryptData(data, s.enc)
		if err != nil {
			return state.State{}, false, err
		}
	}

	loaded := state.New()
	if err := json.Unmarshal(data, &loaded); err != nil {
		return state.State{}, false, fmt.Errorf("failed to decode state: %w", err)
	}
	return loaded, true, nil
}

// Purge deletes the stored state.
func (s *StateStore) Purge(ctx context.Context) error {
	return s.db.Delete(ctx, StateKey)
}
