// Package watcher monitors an import directory and turns PNG files dropped
// into it into cards, the headless counterpart of a folder upload.
package watcher

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/ramonehamilton/card-gallery/internal/cards"
)

// DeliverFunc receives the pairing result for a settled batch of files.
type DeliverFunc func(cards.PairResult)

// Watcher collects newly written .png files in a directory, waits for the
// batch to settle, then runs the filename pairing engine over it and hands
// the result to the delivery callback. Files belonging to incomplete pairs
// stay pending, so a front dropped seconds after its back still pairs.
type Watcher struct {
	dir      string
	debounce time.Duration
	deliver  DeliverFunc
}

// New creates a watcher for dir. debounce is how long a batch must be
// quiet before it is imported.
func New(dir string, debounce time.Duration, deliver DeliverFunc) (*Watcher, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to stat watch directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("watch path %q is not a directory", dir)
	}
	if debounce <= 0 {
		debounce = 300 * time.Millisecond
	}
	return &Watcher{dir: dir, debounce: debounce, deliver: deliver}, nil
}

// Run watches the directory until ctx is canceled.
func (w *Watcher) Run(ctx context.Context) error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}
	defer func() { _ = fsw.Close() }()

	if err := fsw.Add(w.dir); err != nil {
		return fmt.Errorf("failed to watch directory: %w", err)
	}

	pending := make(map[string]struct{})
	var timer *time.Timer
	var fire <-chan time.Time

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event := <-fsw.Events:
			if event.Op&(fsnotify.Create|fsnotify.Write) == 0 {
				continue
			}
			if !strings.HasSuffix(strings.ToLower(event.Name), ".png") {
				continue
			}
			pending[event.Name] = struct{}{}
			if timer == nil {
				timer = time.NewTimer(w.debounce)
			} else {
				if !timer.Stop() {
					select {
					case <-timer.C:
					default:
					}
				}
				timer.Reset(w.debounce)
			}
			fire = timer.C
		case err := <-fsw.Errors:
			log.Printf("warning: file watcher error: %v", err)
		case <-fire:
			fire = nil
			timer = nil
			w.importPending(pending)
		}
	}
}

// importPending reads the settled batch, pairs it, and delivers complete
// cards. Files whose opposite side has not arrived yet remain pending for
// the next batch.
func (w *Watcher) importPending(pending map[string]struct{}) {
	files := make([]cards.File, 0, len(pending))
	paths := make(map[string]string, len(pending))
	for p := range pending {
		data, err := os.ReadFile(p)
		if err != nil {
			log.Printf("warning: failed to read %s: %v", p, err)
			continue
		}
		name := filepath.Base(p)
		files = append(files, cards.File{Name: name, Data: data})
		paths[name] = p
	}
	if len(files) == 0 {
		return
	}

	result := cards.Pair(files)
	if len(result.Cards) == 0 && len(result.Unrecognized) == 0 {
		return
	}

	// Consumed and unrecognized files leave the pending set; rejected
	// halves wait for their pair.
	for _, card := range result.Cards {
		delete(pending, paths[card.Front.FileName])
		delete(pending, paths[card.Back.FileName])
	}
	for _, f := range result.Unrecognized {
		delete(pending, paths[f.Name])
	}

	w.deliver(result)
}
