package storage

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// openTestDB creates a migrated database in a temp directory.
func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(DefaultConfig(filepath.Join(t.TempDir(), "state.db")))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestOpenNilConfig(t *testing.T) {
	_, err := Open(nil)
	assert.Error(t, err)
}

func TestSetGetRoundTrip(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	require.NoError(t, db.Set(ctx, "k", []byte("v1")))

	got, err := db.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, []byte("v1"), got)
}

func TestSetOverwrites(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	require.NoError(t, db.Set(ctx, "k", []byte("v1")))
	require.NoError(t, db.Set(ctx, "k", []byte("v2")))

	got, err := db.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, []byte("v2"), got)
}

func TestGetMissingKey(t *testing.T) {
	db := openTestDB(t)

	_, err := db.Get(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDelete(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	require.NoError(t, db.Set(ctx, "k", []byte("v")))
	require.NoError(t, db.Delete(ctx, "k"))

	_, err := db.Get(ctx, "k")
	assert.ErrorIs(t, err, ErrNotFound)

	// Deleting an absent key is not an error.
	assert.NoError(t, db.Delete(ctx, "k"))
}

func TestBinaryValueSurvives(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	payload := []byte{0x00, 0xff, 0x89, 'P', 'N', 'G', 0x00}
	require.NoError(t, db.Set(ctx, "bin", payload))

	got, err := db.Get(ctx, "bin")
	require.NoError(t, err)
	assert.Equal(t, payload, got)
}
