// Package gallery wires the state store, persistence, archive codec, and
// display handle registry into the application-facing operations.
package gallery

import (
	"context"
	"io"
	"math/rand"
	"time"

	"github.com/ramonehamilton/card-gallery/internal/archive"
	"github.com/ramonehamilton/card-gallery/internal/cards"
	"github.com/ramonehamilton/card-gallery/internal/state"
	"github.com/ramonehamilton/card-gallery/internal/storage"
)

// NewDeckName is the name given to decks created by a move-to-new-deck
// action.
const NewDeckName = "Moved Selection"

// UploadReport summarizes what pairing did with one batch of files.
type UploadReport struct {
	Added        int // complete cards added to the active deck
	Rejected     int // files with a side marker but no matching opposite side
	Unrecognized int // files the naming convention could not classify
}

// ImportOptions controls archive import behavior.
type ImportOptions struct {
	// RestoreLayout rebuilds deck structure and card tags from the
	// archive manifest instead of dropping the imported cards into the
	// active deck. Ignored when the archive has no manifest.
	RestoreLayout bool
}

// Service is the application facade. All state changes funnel through its
// store, one at a time, and every change is handed to the auto-saver.
type Service struct {
	store   *state.Store
	states  *storage.StateStore
	handles *cards.HandleCache
	saver   *storage.AutoSaver
	rng     *rand.Rand
}

// New creates the service. saver may be nil; saves then happen only via
// Flush.
func New(states *storage.StateStore, handles *cards.HandleCache, saver *storage.AutoSaver) *Service {
	s := &Service{
		states:  states,
		handles: handles,
		saver:   saver,
		rng:     rand.New(rand.NewSource(time.Now().UnixNano())),
	}
	s.store = state.NewStore(state.New(), func(st state.State) {
		if s.saver != nil {
			s.saver.Notify(st)
		}
	})
	return s
}

// Start loads the persisted state, or bootstraps a fresh default deck when
// none exists. Every loaded card is re-materialized so its faces carry
// valid display handles before the state is exposed.
func (s *Service) Start(ctx context.Context) error {
	loaded, found, err := s.states.Load(ctx)
	if err != nil {
		return err
	}
	if !found {
		s.store.Replace(state.Bootstrap())
		return nil
	}

	for id, card := range loaded.Cards {
		s.handles.Materialize(&card)
		loaded.Cards[id] = card
	}
	s.store.Replace(loaded)
	return nil
}

// State returns the current snapshot.
func (s *Service) State() state.State {
	return s.store.State()
}

// Flush saves the current snapshot synchronously.
func (s *Service) Flush(ctx context.Context) error {
	return s.states.Save(ctx, s.store.State())
}

// UploadFiles pairs a batch of uploaded files and adds the complete cards
// to the active deck. The report carries the rejected and unrecognized
// counts for surfacing; matched pairs proceed regardless.
func (s *Service) UploadFiles(files []cards.File) (UploadReport, error) {
	result := cards.Pair(files)
	report := UploadReport{
		Added:        len(result.Cards),
		Rejected:     len(result.Rejected),
		Unrecognized: len(result.Unrecognized),
	}
	if err := s.AddCards(result.Cards); err != nil {
		return UploadReport{Rejected: report.Rejected, Unrecognized: report.Unrecognized}, err
	}
	return report, nil
}

// AddCards materializes cards and adds them to the active deck. Nothing is
// applied when no deck is active.
func (s *Service) AddCards(newCards []cards.Card) error {
	if len(newCards) == 0 {
		return nil
	}
	for i := range newCards {
		s.handles.Materialize(&newCards[i])
	}
	err := s.store.ApplyErr(func(st state.State) (state.State, error) {
		return st.AddCardsToActiveDeck(newCards)
	})
	if err != nil {
		for i := range newCards {
			s.handles.Release(&newCards[i])
		}
		return err
	}
	return nil
}

// ExportArchive writes the whole collection as one portable archive.
func (s *Service) ExportArchive(w io.Writer) error {
	return archive.Export(w, s.store.State())
}

// ImportArchive decodes an archive and merges its cards into the state. By
// default imported cards go to the active deck and the manifest's deck and
// tag metadata is not applied; RestoreLayout rebuilds decks, deck order,
// and card tags from the manifest instead. A corrupt archive fails
// atomically with no state change.
func (s *Service) ImportArchive(r io.ReaderAt, size int64, opts ImportOptions) (UploadReport, error) {
	imp, err := archive.Decode(r, size)
	if err != nil {
		return UploadReport{}, err
	}
	report := UploadReport{
		Added:        len(imp.Cards),
		Rejected:     len(imp.Rejected),
		Unrecognized: len(imp.Unrecognized),
	}

	if opts.RestoreLayout && imp.Manifest != nil {
		for i := range imp.Cards {
			s.handles.Materialize(&imp.Cards[i])
		}
		s.store.Apply(func(st state.State) state.State {
			return restoreLayout(st, imp)
		})
		return report, nil
	}

	if err := s.AddCards(imp.Cards); err != nil {
		return UploadReport{Rejected: report.Rejected, Unrecognized: report.Unrecognized}, err
	}
	return report, nil
}

// restoreLayout merges imported cards and rebuilds the manifest's deck
// structure with fresh deck ids. Imported cards are matched to manifest
// records by base name; manifest card tags are applied. Decks restore in
// manifest order, appended after the existing ones, and the first restored
// deck becomes active when no deck was active before.
func restoreLayout(st state.State, imp *archive.Import) state.State {
	next := st

	byName := make(map[string]string, len(imp.Cards))
	cardsMap := make(map[string]cards.Card, len(st.Cards)+len(imp.Cards))
	for id, card := range st.Cards {
		cardsMap[id] = card
	}
	for _, card := range imp.Cards {
		if meta, ok := metaByName(imp.Manifest, card.Name); ok && len(meta.Tags) > 0 {
			card.Tags = append([]string{}, meta.Tags...)
		}
		cardsMap[card.ID] = card
		byName[card.Name] = card.ID
	}
	next.Cards = cardsMap

	oldToNew := make(map[string]string, len(imp.Manifest.CardsMeta))
	for oldID, meta := range imp.Manifest.CardsMeta {
		if newID, ok := byName[meta.Name]; ok {
			oldToNew[oldID] = newID
		}
	}

	decks := make(map[string]cards.Deck, len(st.Decks)+len(imp.Manifest.Decks))
	for id, deck := range st.Decks {
		decks[id] = deck
	}
	deckOrder := append([]string{}, st.DeckOrder...)
	firstRestored := ""
	for _, oldDeckID := range imp.Manifest.DeckOrder {
		record, ok := imp.Manifest.Decks[oldDeckID]
		if !ok {
			continue
		}
		deck := cards.Deck{
			ID:      cards.NewID(),
			Name:    record.Name,
			CardIDs: []string{},
			Tags:    append([]string{}, record.Tags...),
		}
		for _, oldID := range record.CardIDs {
			if newID, ok := oldToNew[oldID]; ok {
				deck.CardIDs = append(deck.CardIDs, newID)
			}
		}
		decks[deck.ID] = deck
		deckOrder = append(deckOrder, deck.ID)
		if firstRestored == "" {
			firstRestored = deck.ID
		}
	}
	next.Decks = decks
	next.DeckOrder = deckOrder
	if next.ActiveDeckID == "" && firstRestored != "" {
		next.ActiveDeckID = firstRestored
	}
	return next
}

func metaByName(manifest *archive.Manifest, name string) (archive.CardMeta, bool) {
	for _, meta := range manifest.CardsMeta {
		if meta.Name == name {
			return meta, true
		}
	}
	return archive.CardMeta{}, false
}

// Purge deletes the stored state, drops every display handle, and resets
// the application to its bootstrap state.
func (s *Service) Purge(ctx context.Context) error {
	if err := s.states.Purge(ctx); err != nil {
		return err
	}
	s.handles.Reset()
	s.store.Replace(state.Bootstrap())
	return nil
}

// AddDeck creates a named deck and makes it active.
func (s *Service) AddDeck(name string) {
	s.store.Apply(func(st state.State) state.State { return st.AddDeck(name) })
}

// DeleteDeck removes a deck, leaving its cards in the collection.
func (s *Service) DeleteDeck(deckID string) {
	s.store.Apply(func(st state.State) state.State { return st.DeleteDeck(deckID) })
}

// RenameDeck replaces a deck's display name.
func (s *Service) RenameDeck(deckID, name string) {
	s.store.Apply(func(st state.State) state.State { return st.RenameDeck(deckID, name) })
}

// SetActiveDeck makes a deck active.
func (s *Service) SetActiveDeck(deckID string) {
	s.store.Apply(func(st state.State) state.State { return st.SetActiveDeck(deckID) })
}

// ToggleSelect applies click selection semantics to one card.
func (s *Service) ToggleSelect(cardID string, additive bool) {
	s.store.Apply(func(st state.State) state.State { return st.ToggleSelect(cardID, additive) })
}

// DeleteSelected removes the selected cards everywhere and releases their
// display handles.
func (s *Service) DeleteSelected() {
	var removed []cards.Card
	s.store.Apply(func(st state.State) state.State {
		for _, id := range st.SelectedCardIDs {
			if card, ok := st.Cards[id]; ok {
				removed = append(removed, card)
			}
		}
		return st.DeleteSelected()
	})
	for i := range removed {
		s.handles.Release(&removed[i])
	}
}

// MoveSelectedToDeck moves the selection into an existing deck.
func (s *Service) MoveSelectedToDeck(deckID string) {
	s.store.Apply(func(st state.State) state.State { return st.MoveSelectedToDeck(deckID) })
}

// MoveSelectionToNewDeck moves the selection into a freshly created deck.
func (s *Service) MoveSelectionToNewDeck() {
	s.store.Apply(func(st state.State) state.State { return st.MoveSelectionToNewDeck(NewDeckName) })
}

// Draw rolls a random card from the active deck into the hand.
func (s *Service) Draw() {
	s.store.Apply(func(st state.State) state.State { return st.DrawRandom(s.rng) })
}

// ClearHand empties the hand.
func (s *Service) ClearHand() {
	s.store.Apply(func(st state.State) state.State { return st.ClearHand() })
}

// BringToFront raises a hand card above the others.
func (s *Service) BringToFront(cardID string) {
	s.store.Apply(func(st state.State) state.State { return st.BringToFront(cardID) })
}

// Rotate advances a hand card's rotation by 90 degrees.
func (s *Service) Rotate(cardID string) {
	s.store.Apply(func(st state.State) state.State { return st.Rotate(cardID) })
}

// Flip toggles which face of a hand card is shown.
func (s *Service) Flip(cardID string) {
	s.store.Apply(func(st state.State) state.State { return st.Flip(cardID) })
}

// Reposition moves a hand card to pointer-derived coordinates.
func (s *Service) Reposition(cardID string, x, y float64) {
	s.store.Apply(func(st state.State) state.State { return st.Reposition(cardID, x, y) })
}
