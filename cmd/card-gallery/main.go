// Command card-gallery manages a collection of paired front/back card
// images: upload PNGs into decks, export/import the collection as a
// portable zip, and watch a folder for new cards.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/ramonehamilton/card-gallery/internal/cards"
	"github.com/ramonehamilton/card-gallery/internal/config"
	"github.com/ramonehamilton/card-gallery/internal/gallery"
	"github.com/ramonehamilton/card-gallery/internal/storage"
	"github.com/ramonehamilton/card-gallery/internal/watcher"
)

func usage() {
	fmt.Fprintf(os.Stderr, `Usage: card-gallery <command> [arguments]

Commands:
  add <png>...          pair and add card images to the active deck
  decks                 list decks
  export [file]         export the collection as a zip archive
  import [-restore-layout] <file>
                        import a zip archive into the collection
  watch                 watch the configured folder for new card images
  purge                 delete the stored collection and start fresh
`)
}

func main() {
	log.SetFlags(0)

	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}
	command := os.Args[1]
	args := os.Args[2:]

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid config: %v", err)
	}

	storagePath := cfg.Storage.Path
	if storagePath == "" {
		storagePath, err = config.DefaultStoragePath()
		if err != nil {
			log.Fatalf("Failed to resolve storage path: %v", err)
		}
	}

	db, err := storage.Open(storage.DefaultConfig(storagePath))
	if err != nil {
		log.Fatalf("Failed to open storage: %v", err)
	}
	defer func() { _ = db.Close() }()

	var enc *storage.EncryptionConfig
	if cfg.Storage.PasswordEnv != "" {
		if password := os.Getenv(cfg.Storage.PasswordEnv); password != "" {
			enc = storage.DefaultEncryptionConfig(password)
		}
	}
	states := storage.NewStateStore(db, enc)

	autosaveInterval, err := cfg.GetAutosaveInterval()
	if err != nil {
		log.Fatalf("Invalid autosave interval: %v", err)
	}
	saver := storage.NewAutoSaver(states, autosaveInterval)

	svc := gallery.New(states, cards.NewHandleCache(), saver)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := svc.Start(ctx); err != nil {
		log.Fatalf("Failed to load state: %v", err)
	}

	switch command {
	case "add":
		runAdd(ctx, svc, args)
	case "decks":
		runDecks(svc)
	case "export":
		runExport(svc, args)
	case "import":
		runImport(ctx, svc, args)
	case "watch":
		runWatch(ctx, svc, saver, cfg)
	case "purge":
		if err := svc.Purge(ctx); err != nil {
			log.Fatalf("Failed to purge storage: %v", err)
		}
		log.Printf("Storage purged, collection reset to a fresh default deck")
	default:
		usage()
		os.Exit(2)
	}
}

func runAdd(ctx context.Context, svc *gallery.Service, paths []string) {
	if len(paths) == 0 {
		log.Fatalf("add: no files given")
	}

	files := make([]cards.File, 0, len(paths))
	for _, p := range paths {
		data, err := os.ReadFile(p)
		if err != nil {
			log.Fatalf("Failed to read %s: %v", p, err)
		}
		files = append(files, cards.File{Name: filepath.Base(p), Data: data})
	}

	report, err := svc.UploadFiles(files)
	if err != nil {
		log.Fatalf("Failed to add cards: %v", err)
	}
	printReport(report)

	if err := svc.Flush(ctx); err != nil {
		log.Fatalf("Failed to save state: %v", err)
	}
}

func runDecks(svc *gallery.Service) {
	st := svc.State()
	if len(st.DeckOrder) == 0 {
		fmt.Println("No decks.")
		return
	}
	for _, deckID := range st.DeckOrder {
		deck := st.Decks[deckID]
		marker := " "
		if deckID == st.ActiveDeckID {
			marker = "*"
		}
		fmt.Printf("%s %s (%d cards)\n", marker, deck.Name, len(st.DeckCards(deckID)))
	}
}

func runExport(svc *gallery.Service, args []string) {
	name := "card-gallery-pro.zip"
	if len(args) > 0 {
		name = args[0]
	}

	f, err := os.Create(name)
	if err != nil {
		log.Fatalf("Failed to create archive: %v", err)
	}
	defer func() { _ = f.Close() }()

	if err := svc.ExportArchive(f); err != nil {
		log.Fatalf("Failed to export archive: %v", err)
	}
	log.Printf("Exported collection to %s", name)
}

func runImport(ctx context.Context, svc *gallery.Service, args []string) {
	fs := flag.NewFlagSet("import", flag.ExitOnError)
	restore := fs.Bool("restore-layout", false, "rebuild deck structure and tags from the archive manifest")
	_ = fs.Parse(args)
	if fs.NArg() != 1 {
		log.Fatalf("import: expected exactly one archive file")
	}

	f, err := os.Open(fs.Arg(0))
	if err != nil {
		log.Fatalf("Failed to open archive: %v", err)
	}
	defer func() { _ = f.Close() }()

	info, err := f.Stat()
	if err != nil {
		log.Fatalf("Failed to stat archive: %v", err)
	}

	report, err := svc.ImportArchive(f, info.Size(), gallery.ImportOptions{RestoreLayout: *restore})
	if err != nil {
		log.Fatalf("Failed to import archive: %v", err)
	}
	printReport(report)

	if err := svc.Flush(ctx); err != nil {
		log.Fatalf("Failed to save state: %v", err)
	}
}

func runWatch(ctx context.Context, svc *gallery.Service, saver *storage.AutoSaver, cfg *config.Config) {
	if !cfg.Watch.Enabled || cfg.Watch.Dir == "" {
		log.Fatalf("watch: enable [watch] and set dir in the config first")
	}
	debounce, err := cfg.GetWatchDebounce()
	if err != nil {
		log.Fatalf("Invalid watch debounce: %v", err)
	}

	w, err := watcher.New(cfg.Watch.Dir, debounce, func(result cards.PairResult) {
		if err := svc.AddCards(result.Cards); err != nil {
			log.Printf("warning: failed to add cards: %v", err)
			return
		}
		log.Printf("Imported %d cards (%d waiting for a pair, %d unrecognized)",
			len(result.Cards), len(result.Rejected), len(result.Unrecognized))
	})
	if err != nil {
		log.Fatalf("Failed to create watcher: %v", err)
	}

	go saver.Run(ctx)

	log.Printf("Watching %s for card images", cfg.Watch.Dir)
	if err := w.Run(ctx); err != nil && ctx.Err() == nil {
		log.Fatalf("Watcher stopped: %v", err)
	}

	// Let the auto-saver flush whatever is still pending.
	saver.Wait()
}

func printReport(report gallery.UploadReport) {
	log.Printf("Added %d cards", report.Added)
	if report.Rejected > 0 {
		log.Printf("Skipped %d unmatched PNGs (need both _front and _back)", report.Rejected)
	}
	if report.Unrecognized > 0 {
		log.Printf("Ignored %d unrecognized files", report.Unrecognized)
	}
}
