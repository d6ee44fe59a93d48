package state

import (
	"errors"
	"testing"
)

func TestStoreApplyInstallsSnapshot(t *testing.T) {
	store := NewStore(Bootstrap(), nil)

	store.Apply(func(st State) State { return st.AddDeck("Second") })

	if len(store.State().DeckOrder) != 2 {
		t.Errorf("expected 2 decks, got %d", len(store.State().DeckOrder))
	}
}

func TestStoreHookSeesEveryChange(t *testing.T) {
	var snapshots []State
	store := NewStore(Bootstrap(), func(st State) { snapshots = append(snapshots, st) })

	store.Apply(func(st State) State { return st.AddDeck("A") })
	store.Apply(func(st State) State { return st.AddDeck("B") })

	if len(snapshots) != 2 {
		t.Fatalf("expected 2 hook invocations, got %d", len(snapshots))
	}
	if len(snapshots[0].DeckOrder) != 2 || len(snapshots[1].DeckOrder) != 3 {
		t.Error("hook received wrong snapshots")
	}
}

func TestStoreApplyErrKeepsStateOnFailure(t *testing.T) {
	hooked := 0
	store := NewStore(New(), func(State) { hooked++ })

	err := store.ApplyErr(func(st State) (State, error) {
		return st.AddCardsToActiveDeck(nil)
	})

	if !errors.Is(err, ErrNoActiveDeck) {
		t.Fatalf("expected ErrNoActiveDeck, got %v", err)
	}
	if hooked != 0 {
		t.Error("hook must not run for failed mutations")
	}
	if len(store.State().Decks) != 0 {
		t.Error("state changed despite failure")
	}
}

func TestStoreReplace(t *testing.T) {
	store := NewStore(New(), nil)

	store.Replace(Bootstrap())

	if len(store.State().DeckOrder) != 1 {
		t.Error("replace did not install the snapshot")
	}
}
