package storage

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ramonehamilton/card-gallery/internal/cards"
	"github.com/ramonehamilton/card-gallery/internal/state"
)

func sampleState(t *testing.T) state.State {
	t.Helper()
	st := state.Bootstrap()
	card := cards.Card{
		ID:    cards.NewID(),
		Name:  "a",
		Front: cards.Face{Side: cards.SideFront, Data: []byte{0x89, 'P', 'N', 'G'}, FileName: "a_front.png", Handle: "mem://transient"},
		Back:  cards.Face{Side: cards.SideBack, Data: []byte{0x01, 0x02}, FileName: "a_back.png"},
	}
	st, err := st.AddCardsToActiveDeck([]cards.Card{card})
	require.NoError(t, err)
	return st
}

func TestStateStoreSaveLoad(t *testing.T) {
	store := NewStateStore(openTestDB(t), nil)
	ctx := context.Background()
	st := sampleState(t)

	require.NoError(t, store.Save(ctx, st))

	loaded, found, err := store.Load(ctx)
	require.NoError(t, err)
	require.True(t, found)

	assert.Equal(t, st.DeckOrder, loaded.DeckOrder)
	assert.Equal(t, st.ActiveDeckID, loaded.ActiveDeckID)
	require.Len(t, loaded.Cards, 1)
	for id, card := range loaded.Cards {
		assert.Equal(t, st.Cards[id].Front.Data, card.Front.Data)
		assert.Equal(t, st.Cards[id].Back.Data, card.Back.Data)
	}
}

func TestStateStoreDropsDisplayHandles(t *testing.T) {
	store := NewStateStore(openTestDB(t), nil)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, sampleState(t)))

	loaded, found, err := store.Load(ctx)
	require.NoError(t, err)
	require.True(t, found)
	for _, card := range loaded.Cards {
		assert.Empty(t, card.Front.Handle, "display handles must not survive persistence")
		assert.Empty(t, card.Back.Handle)
	}
}

func TestStateStoreLoadNothingSaved(t *testing.T) {
	store := NewStateStore(openTestDB(t), nil)

	_, found, err := store.Load(context.Background())
	require.NoError(t, err)
	assert.False(t, found)
}

func TestStateStorePurge(t *testing.T) {
	store := NewStateStore(openTestDB(t), nil)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, sampleState(t)))
	require.NoError(t, store.Purge(ctx))

	_, found, err := store.Load(ctx)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestStateStoreEncryptedRoundTrip(t *testing.T) {
	db := openTestDB(t)
	enc := DefaultEncryptionConfig("hunter2")
	store := NewStateStore(db, enc)
	ctx := context.Background()
	st := sampleState(t)

	require.NoError(t, store.Save(ctx, st))

	// The stored blob must not be plaintext JSON.
	raw, err := db.Get(ctx, StateKey)
	require.NoError(t, err)
	assert.True(t, IsEncrypted(raw))

	loaded, found, err := store.Load(ctx)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, st.DeckOrder, loaded.DeckOrder)
}

func TestStateStoreEncryptedWrongPassword(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	require.NoError(t, NewStateStore(db, DefaultEncryptionConfig("right")).Save(ctx, sampleState(t)))

	_, _, err := NewStateStore(db, DefaultEncryptionConfig("wrong")).Load(ctx)
	assert.Error(t, err)
}

func TestStateStoreEncryptedWithoutPassword(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	require.NoError(t, NewStateStore(db, DefaultEncryptionConfig("secret")).Save(ctx, sampleState(t)))

	_, _, err := NewStateStore(db, nil).Load(ctx)
	assert.Error(t, err)
}
