// Package state holds the canonical in-memory collection model and the
// mutation operations that keep it consistent. Every operation is a pure
// function from one snapshot to the next: it never mutates the receiver,
// so a snapshot handed out before a mutation stays valid after it.
package state

import (
	"errors"
	"math/rand"

	"github.com/ramonehamilton/card-gallery/internal/cards"
)

// ErrNoActiveDeck is returned when an operation needs an active deck and
// none is set.
var ErrNoActiveDeck = errors.New("state: no active deck")

// Initial transform cascade for cards drawn into the hand.
const (
	drawBaseX    = 20
	drawBaseY    = 20
	drawOffsetX  = 24
	drawOffsetY  = 16
	rotationStep = 90
	fullTurn     = 360
)

// DefaultDeckName is the name of the deck created on first run.
const DefaultDeckName = "Main Deck"

// HandTransform is the spatial state of one card while in hand: position,
// rotation in degrees (always a multiple of 90, wrapping mod 360), which
// face is shown, and the stacking order on overlap.
type HandTransform struct {
	X       float64 `json:"x"`
	Y       float64 `json:"y"`
	Rot     int     `json:"rot"`
	Flipped bool    `json:"flipped"`
	Z       int     `json:"z"`
}

// State is the aggregate root of the collection model.
//
// DeckOrder defines deck display order and always matches the key set of
// Decks. ActiveDeckID is "" when no deck is active. Hand and HandTransforms
// are kept in sync: every id in Hand has a transform. BlobPersistence is
// reserved for a future skip-blob save mode and does not gate anything yet.
type State struct {
	Cards           map[string]cards.Card    `json:"cards"`
	Decks           map[string]cards.Deck    `json:"decks"`
	DeckOrder       []string                 `json:"deck_order"`
	SelectedCardIDs []string                 `json:"selected_card_ids"`
	ActiveDeckID    string                   `json:"active_deck_id"`
	Hand            []string                 `json:"hand"`
	HandTransforms  map[string]HandTransform `json:"hand_transforms"`
	BlobPersistence bool                     `json:"blob_persistence"`
}

// New returns an empty state with all containers allocated.
func New() State {
	return State{
		Cards:           map[string]cards.Card{},
		Decks:           map[string]cards.Deck{},
		DeckOrder:       []string{},
		SelectedCardIDs: []string{},
		Hand:            []string{},
		HandTransforms:  map[string]HandTransform{},
		BlobPersistence: true,
	}
}

// Bootstrap returns the first-run state: empty collection with one default
// deck, active.
func Bootstrap() State {
	return New().AddDeck(DefaultDeckName)
}

// ActiveDeck returns the active deck, if any.
func (s State) ActiveDeck() (cards.Deck, bool) {
	if s.ActiveDeckID == "" {
		return cards.Deck{}, false
	}
	deck, ok := s.Decks[s.ActiveDeckID]
	return deck, ok
}

// DeckCards resolves a deck's card references to cards, dropping ids that
// no longer exist in the card mapping.
func (s State) DeckCards(deckID string) []cards.Card {
	deck, ok := s.Decks[deckID]
	if !ok {
		return nil
	}
	resolved := make([]cards.Card, 0, len(deck.CardIDs))
	for _, id := range deck.CardIDs {
		if card, ok := s.Cards[id]; ok {
			resolved = append(resolved, card)
		}
	}
	return resolved
}

// IsSelected reports whether a card id is currently selected.
func (s State) IsSelected(cardID string) bool {
	for _, id := range s.SelectedCardIDs {
		if id == cardID {
			return true
		}
	}
	return false
}

// AddDeck creates a named empty deck, appends it to the deck order, and
// makes it active.
func (s State) AddDeck(name string) State {
	deck := cards.Deck{ID: cards.NewID(), Name: name, CardIDs: []string{}, Tags: []string{}}

	next := s
	next.Decks = cloneDecks(s.Decks)
	next.Decks[deck.ID] = deck
	next.DeckOrder = append(cloneIDs(s.DeckOrder), deck.ID)
	next.ActiveDeckID = deck.ID
	return next
}

// DeleteDeck removes a deck from the mapping and the order. Cards are not
// touched; cards only that deck referenced stay in the collection as
// orphans. The active deck is reassigned to the new first entry of the
// order, or cleared when no deck remains.
func (s State) DeleteDeck(deckID string) State {
	next := s
	next.Decks = cloneDecks(s.Decks)
	delete(next.Decks, deckID)
	next.DeckOrder = removeID(s.DeckOrder, deckID)
	if len(next.DeckOrder) > 0 {
		next.ActiveDeckID = next.DeckOrder[0]
	} else {
		next.ActiveDeckID = ""
	}
	return next
}

// RenameDeck replaces a deck's display name. No other field is touched.
func (s State) RenameDeck(deckID, name string) State {
	deck, ok := s.Decks[deckID]
	if !ok {
		return s
	}
	deck.Name = name

	next := s
	next.Decks = cloneDecks(s.Decks)
	next.Decks[deckID] = deck
	return next
}

// SetActiveDeck makes deckID the active deck.
func (s State) SetActiveDeck(deckID string) State {
	if _, ok := s.Decks[deckID]; !ok {
		return s
	}
	next := s
	next.ActiveDeckID = deckID
	return next
}

// MoveSelectedToDeck moves every selected card into the target deck: each
// id is removed from all decks, then appended to the target with set
// semantics, and the selection is cleared. A card id never ends up in more
// than one deck. No-op when the selection is empty or the target deck does
// not exist. Applying the operation twice yields the same state as once.
func (s State) MoveSelectedToDeck(deckID string) State {
	target, ok := s.Decks[deckID]
	if !ok || len(s.SelectedCardIDs) == 0 {
		return s
	}

	selected := idSet(s.SelectedCardIDs)
	decks := cloneDecks(s.Decks)
	for id, deck := range decks {
		deck.CardIDs = removeIDs(deck.CardIDs, selected)
		decks[id] = deck
	}

	target = decks[deckID]
	for _, id := range s.SelectedCardIDs {
		target.CardIDs = appendUnique(target.CardIDs, id)
	}
	decks[deckID] = target

	next := s
	next.Decks = decks
	next.SelectedCardIDs = []string{}
	return next
}

// AddCardsToActiveDeck inserts each card into the collection and appends
// its id to the active deck, skipping ids the deck already holds. When no
// deck is active the state is returned unchanged alongside
// ErrNoActiveDeck; nothing is partially applied.
func (s State) AddCardsToActiveDeck(newCards []cards.Card) (State, error) {
	deck, ok := s.ActiveDeck()
	if !ok {
		return s, ErrNoActiveDeck
	}

	cardsMap := cloneCards(s.Cards)
	deck.CardIDs = cloneIDs(deck.CardIDs)
	for _, card := range newCards {
		cardsMap[card.ID] = card
		deck.CardIDs = appendUnique(deck.CardIDs, card.ID)
	}

	next := s
	next.Cards = cardsMap
	next.Decks = cloneDecks(s.Decks)
	next.Decks[deck.ID] = deck
	return next, nil
}

// ToggleSelect applies click selection semantics. A plain click replaces
// the selection with the clicked card, except clicking the sole selected
// card, which clears the selection. A modifier click (additive) toggles the
// clicked card's membership and leaves the rest of the selection alone.
func (s State) ToggleSelect(cardID string, additive bool) State {
	next := s
	if additive {
		if s.IsSelected(cardID) {
			next.SelectedCardIDs = removeID(s.SelectedCardIDs, cardID)
		} else {
			next.SelectedCardIDs = append(cloneIDs(s.SelectedCardIDs), cardID)
		}
		return next
	}

	if len(s.SelectedCardIDs) == 1 && s.SelectedCardIDs[0] == cardID {
		next.SelectedCardIDs = []string{}
	} else {
		next.SelectedCardIDs = []string{cardID}
	}
	return next
}

// DeleteSelected removes every selected card from the collection and from
// every deck's reference list, then clears the selection. Stale selection
// entries pointing at missing cards are dropped harmlessly.
func (s State) DeleteSelected() State {
	if len(s.SelectedCardIDs) == 0 {
		return s
	}

	selected := idSet(s.SelectedCardIDs)
	cardsMap := cloneCards(s.Cards)
	for id := range selected {
		delete(cardsMap, id)
	}
	decks := cloneDecks(s.Decks)
	for id, deck := range decks {
		deck.CardIDs = removeIDs(deck.CardIDs, selected)
		decks[id] = deck
	}

	next := s
	next.Cards = cardsMap
	next.Decks = decks
	next.SelectedCardIDs = []string{}
	return next
}

// MoveSelectionToNewDeck atomically creates a named deck seeded with the
// current selection, removes the selected ids from every other deck,
// appends the deck to the order, makes it active, and clears the
// selection. No-op when the selection is empty.
func (s State) MoveSelectionToNewDeck(name string) State {
	if len(s.SelectedCardIDs) == 0 {
		return s
	}

	selected := idSet(s.SelectedCardIDs)
	decks := cloneDecks(s.Decks)
	for id, deck := range decks {
		deck.CardIDs = removeIDs(deck.CardIDs, selected)
		decks[id] = deck
	}

	deck := cards.Deck{
		ID:      cards.NewID(),
		Name:    name,
		CardIDs: cloneIDs(s.SelectedCardIDs),
		Tags:    []string{},
	}
	decks[deck.ID] = deck

	next := s
	next.Decks = decks
	next.DeckOrder = append(cloneIDs(s.DeckOrder), deck.ID)
	next.ActiveDeckID = deck.ID
	next.SelectedCardIDs = []string{}
	return next
}

// DrawRandom rolls a uniform card from the active deck and appends it to
// the hand with a cascade transform derived from the current hand size.
// No-op when the active deck has no resolvable cards or the rolled card is
// already in hand; the roll is not retried, repeated draws re-roll
// uniformly.
func (s State) DrawRandom(rng *rand.Rand) State {
	deck, ok := s.ActiveDeck()
	if !ok {
		return s
	}
	candidates := make([]string, 0, len(deck.CardIDs))
	for _, id := range deck.CardIDs {
		if _, ok := s.Cards[id]; ok {
			candidates = append(candidates, id)
		}
	}
	if len(candidates) == 0 {
		return s
	}

	cardID := candidates[rng.Intn(len(candidates))]
	for _, id := range s.Hand {
		if id == cardID {
			return s
		}
	}

	n := len(s.Hand)
	next := s
	next.Hand = append(cloneIDs(s.Hand), cardID)
	next.HandTransforms = cloneTransforms(s.HandTransforms)
	next.HandTransforms[cardID] = HandTransform{
		X: drawBaseX + float64(n*drawOffsetX),
		Y: drawBaseY + float64(n*drawOffsetY),
		Z: n + 1,
	}
	return next
}

// ClearHand empties the hand and its transforms together.
func (s State) ClearHand() State {
	next := s
	next.Hand = []string{}
	next.HandTransforms = map[string]HandTransform{}
	return next
}

// BringToFront raises one card above every other card in hand by setting
// its z to one past the current maximum (baseline 0 for an empty hand).
func (s State) BringToFront(cardID string) State {
	t, ok := s.HandTransforms[cardID]
	if !ok {
		return s
	}
	maxZ := 0
	for _, other := range s.HandTransforms {
		if other.Z > maxZ {
			maxZ = other.Z
		}
	}
	t.Z = maxZ + 1

	next := s
	next.HandTransforms = cloneTransforms(s.HandTransforms)
	next.HandTransforms[cardID] = t
	return next
}

// Rotate advances a hand card's rotation by 90 degrees, wrapping at 360.
func (s State) Rotate(cardID string) State {
	t, ok := s.HandTransforms[cardID]
	if !ok {
		return s
	}
	t.Rot = (t.Rot + rotationStep) % fullTurn

	next := s
	next.HandTransforms = cloneTransforms(s.HandTransforms)
	next.HandTransforms[cardID] = t
	return next
}

// Flip toggles which face of a hand card is displayed.
func (s State) Flip(cardID string) State {
	t, ok := s.HandTransforms[cardID]
	if !ok {
		return s
	}
	t.Flipped = !t.Flipped

	next := s
	next.HandTransforms = cloneTransforms(s.HandTransforms)
	next.HandTransforms[cardID] = t
	return next
}

// Reposition moves a hand card to pointer-derived coordinates. Coordinates
// are not clamped; a card may sit outside any visible surface.
func (s State) Reposition(cardID string, x, y float64) State {
	t, ok := s.HandTransforms[cardID]
	if !ok {
		return s
	}
	t.X = x
	t.Y = y

	next := s
	next.HandTransforms = cloneTransforms(s.HandTransforms)
	next.HandTransforms[cardID] = t
	return next
}

func cloneCards(m map[string]cards.Card) map[string]cards.Card {
	out := make(map[string]cards.Card, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func cloneDecks(m map[string]cards.Deck) map[string]cards.Deck {
	out := make(map[string]cards.Deck, len(m))
	for k, v := range m {
		v.CardIDs = cloneIDs(v.CardIDs)
		out[k] = v
	}
	return out
}

func cloneTransforms(m map[string]HandTransform) map[string]HandTransform {
	out := make(map[string]HandTransform, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func cloneIDs(ids []string) []string {
	out := make([]string, len(ids))
	copy(out, ids)
	return out
}

func idSet(ids []string) map[string]struct{} {
	set := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set
}

func removeID(ids []string, drop string) []string {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id != drop {
			out = append(out, id)
		}
	}
	return out
}

func removeIDs(ids []string, drop map[string]struct{}) []string {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, ok := drop[id]; !ok {
			out = append(out, id)
		}
	}
	return out
}

func appendUnique(ids []string, id string) []string {
	for _, existing := range ids {
		if existing == id {
			return ids
		}
	}
	return append(ids, id)
}
