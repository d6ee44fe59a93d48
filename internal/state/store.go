package state

import "sync"

// SaveHook is invoked with the new snapshot after every applied mutation.
// It runs on the mutating goroutine while the store lock is held, so it
// must be quick and must not call back into the store; hand the snapshot
// off to an auto-saver rather than doing I/O inline.
type SaveHook func(State)

// Store serializes mutations of the collection state. Exactly one mutation
// is in flight at a time; each one computes a full replacement snapshot
// which becomes visible atomically. Concurrent mutations queue behind the
// lock, last-applied-wins.
type Store struct {
	mu    sync.Mutex
	state State
	hook  SaveHook
}

// NewStore creates a store holding initial. hook may be nil.
func NewStore(initial State, hook SaveHook) *Store {
	return &Store{state: initial, hook: hook}
}

// State returns the current snapshot. Mutation operations never modify a
// snapshot in place, so the returned value stays consistent even while
// further mutations are applied.
func (st *Store) State() State {
	st.mu.Lock()
	defer st.mu.Unlock()
	return st.state
}

// Apply runs one mutation against the current snapshot and installs its
// result.
func (st *Store) Apply(mutate func(State) State) {
	st.mu.Lock()
	defer st.mu.Unlock()

	st.state = mutate(st.state)
	if st.hook != nil {
		st.hook(st.state)
	}
}

// ApplyErr runs a fallible mutation. On error the current snapshot is kept
// and the hook is not invoked.
func (st *Store) ApplyErr(mutate func(State) (State, error)) error {
	st.mu.Lock()
	defer st.mu.Unlock()

	next, err := mutate(st.state)
	if err != nil {
		return err
	}
	st.state = next
	if st.hook != nil {
		st.hook(st.state)
	}
	return nil
}

// Replace installs a snapshot wholesale, bypassing the reducer operations.
// Used at startup to install a loaded or bootstrap state.
func (st *Store) Replace(next State) {
	st.mu.Lock()
	defer st.mu.Unlock()

	st.state = next
	if st.hook != nil {
		st.hook(st.state)
	}
}
