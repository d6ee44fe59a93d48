// Package cards defines the card domain model: paired front/back card
// images, the filename pairing rules that build cards from uploaded files,
// and the process-local display handle registry.
package cards

import "github.com/google/uuid"

// Side identifies which face of a card an image represents.
type Side string

const (
	SideFront Side = "front"
	SideBack  Side = "back"
)

// Face is one side of a card: the raw image bytes, the original filename
// the bytes arrived under, and an optional tag set.
//
// Handle is a process-local display reference assigned by a HandleCache.
// It has no meaning outside the current process and is never persisted;
// it must be regenerated after a state load.
type Face struct {
	Side     Side     `json:"side"`
	Data     []byte   `json:"data"`
	Handle   string   `json:"-"`
	FileName string   `json:"file_name"`
	Tags     []string `json:"tags"`
}

// Card is a paired front/back image unit. A well-formed card always has
// both faces populated; the pairing engine never emits a partial card.
type Card struct {
	ID    string   `json:"id"`
	Name  string   `json:"name"`
	Front Face     `json:"front"`
	Back  Face     `json:"back"`
	Tags  []string `json:"tags"`
}

// Deck is a named, ordered collection of card references. CardIDs may
// reference cards that no longer exist; readers filter dangling ids.
type Deck struct {
	ID      string   `json:"id"`
	Name    string   `json:"name"`
	CardIDs []string `json:"card_ids"`
	Tags    []string `json:"tags"`
}

// NewID returns an opaque identifier with negligible collision probability
// at session scale.
func NewID() string {
	return uuid.NewString()
}
