package cards

import (
	"sync"

	"github.com/google/uuid"
)

const handleScheme = "mem://"

// HandleCache is the process-local registry behind display handles. It maps
// opaque handle strings to face bytes so a rendering surface can resolve a
// handle without reaching into the persisted model.
//
// Handles are valid only within the current process. After a state load,
// every card must be re-materialized before its faces can be displayed.
type HandleCache struct {
	mu    sync.RWMutex
	blobs map[string][]byte
}

// NewHandleCache creates an empty handle registry.
func NewHandleCache() *HandleCache {
	return &HandleCache{
		blobs: make(map[string][]byte),
	}
}

// Materialize assigns fresh display handles to both faces of card,
// registering their bytes. Any handles the card held before are released
// first, so repeated materialization does not accumulate entries.
func (c *HandleCache) Materialize(card *Card) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.release(card)
	card.Front.Handle = c.register(card.Front.Data)
	card.Back.Handle = c.register(card.Back.Data)
}

// Bytes resolves a display handle to its registered byte payload.
func (c *HandleCache) Bytes(handle string) ([]byte, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	data, ok := c.blobs[handle]
	return data, ok
}

// Release frees the handles held by card's faces. Called when a card is
// permanently deleted.
func (c *HandleCache) Release(card *Card) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.release(card)
}

// Reset drops every registered handle. Called on purge and teardown.
func (c *HandleCache) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.blobs = make(map[string][]byte)
}

// Len reports the number of registered handles.
func (c *HandleCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return len(c.blobs)
}

func (c *HandleCache) register(data []byte) string {
	handle := handleScheme + uuid.NewString()
	c.blobs[handle] = data
	return handle
}

func (c *HandleCache) release(card *Card) {
	if card.Front.Handle != "" {
		delete(c.blobs, card.Front.Handle)
		card.Front.Handle = ""
	}
	if card.Back.Handle != "" {
		delete(c.blobs, card.Back.Handle)
		card.Back.Handle = ""
	}
}
