package storage

import (
	"context"
	"log"
	"time"

	"golang.org/x/time/rate"

	"github.com/ramonehamilton/card-gallery/internal/state"
)

// Saver persists one state snapshot.
type Saver interface {
	Save(ctx context.Context, st state.State) error
}

// AutoSaver persists every state change in the background, coalescing
// bursts of changes so rapid mutations (drags, repeated draws) do not each
// hit the store. Notify never blocks the mutating goroutine; when saves
// lag behind, intermediate snapshots are skipped and only the latest one
// is written.
//
// A failed save is retried once, then logged as a non-fatal warning. The
// in-memory state stays authoritative either way.
type AutoSaver struct {
	saver   Saver
	limiter *rate.Limiter
	pending chan state.State
	done    chan struct{}
}

// NewAutoSaver creates an auto-saver writing at most one save per
// minInterval.
func NewAutoSaver(saver Saver, minInterval time.Duration) *AutoSaver {
	if minInterval <= 0 {
		minInterval = 100 * time.Millisecond
	}
	return &AutoSaver{
		saver:   saver,
		limiter: rate.NewLimiter(rate.Every(minInterval), 1),
		pending: make(chan state.State, 1),
		done:    make(chan struct{}),
	}
}

// Notify queues a snapshot for saving, replacing any snapshot still
// waiting. Safe to call from a state store save hook.
func (a *AutoSaver) Notify(st state.State) {
	for {
		select {
		case a.pending <- st:
			return
		default:
			// Drop the stale pending snapshot and try again.
			select {
			case <-a.pending:
			default:
			}
		}
	}
}

// Run processes queued snapshots until ctx is canceled, then flushes any
// snapshot still pending.
func (a *AutoSaver) Run(ctx context.Context) {
	defer close(a.done)
	for {
		select {
		case st := <-a.pending:
			if err := a.limiter.Wait(ctx); err != nil {
				a.save(st)
				return
			}
			// Collapse to the newest snapshot queued while waiting.
			select {
			case st = <-a.pending:
			default:
			}
			a.save(st)
		case <-ctx.Done():
			select {
			case st := <-a.pending:
				a.save(st)
			default:
			}
			return
		}
	}
}

// Wait blocks until Run has returned.
func (a *AutoSaver) Wait() {
	<-a.done
}

func (a *AutoSaver) save(st state.State) {
	ctx := context.Background()
	err := a.saver.Save(ctx, st)
	if err == nil {
		return
	}
	if err = a.saver.Save(ctx, st); err != nil {
		log.Printf("warning: auto-save failed, in-memory state still authoritative: %v", err)
	}
}
