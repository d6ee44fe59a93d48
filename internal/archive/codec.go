// Package archive implements the portable export format: a single zip
// bundling a JSON manifest with deck structure and card metadata, plus one
// raw image entry per card face.
package archive

import (
	"archive/zip"
	"encoding/json"
	"fmt"
	"io"
	"path"
	"sort"
	"strings"
	"time"

	"github.com/ramonehamilton/card-gallery/internal/cards"
	"github.com/ramonehamilton/card-gallery/internal/state"
)

const (
	// ManifestName is the manifest entry inside the archive.
	ManifestName = "meta.json"

	// ImageDir is the subdirectory holding the raw face images.
	ImageDir = "images"

	// FormatVersion identifies the archive layout.
	FormatVersion = 1

	// DownloadName is the fixed filename for exported archives.
	DownloadName = "card-gallery-pro.zip"

	imageExt = ".png"
)

// CardMeta is the per-card manifest record: identity and tags, no bytes,
// no display handles.
type CardMeta struct {
	ID   string   `json:"id"`
	Name string   `json:"name"`
	Tags []string `json:"tags"`
}

// Manifest is the JSON entry describing the exported collection.
type Manifest struct {
	Version    int                   `json:"version"`
	ExportedAt time.Time             `json:"exported_at"`
	DeckOrder  []string              `json:"deck_order"`
	Decks      map[string]cards.Deck `json:"decks"`
	CardsMeta  map[string]CardMeta   `json:"cards_meta"`
}

// Import is the result of decoding an archive. Cards come out of the
// filename pairing engine exactly as a fresh upload would; Rejected and
// Unrecognized carry the same meaning as in cards.PairResult. Manifest is
// nil when the archive carries none (a foreign zip of images).
type Import struct {
	Cards        []cards.Card
	Rejected     []cards.File
	Unrecognized []cards.File
	Manifest     *Manifest
}

// Export writes the state as one archive to w: the manifest, then
// {base}_front.png and {base}_back.png per card under ImageDir. Cards are
// written in name order so identical states produce identical archives.
func Export(w io.Writer, st state.State) error {
	zw := zip.NewWriter(w)

	manifest := Manifest{
		Version:    FormatVersion,
		ExportedAt: time.Now().UTC(),
		DeckOrder:  st.DeckOrder,
		Decks:      st.Decks,
		CardsMeta:  make(map[string]CardMeta, len(st.Cards)),
	}
	for id, card := range st.Cards {
		manifest.CardsMeta[id] = CardMeta{ID: card.ID, Name: card.Name, Tags: card.Tags}
	}

	meta, err := json.MarshalIndent(manifest, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode manifest: %w", err)
	}
	entry, err := zw.Create(ManifestName)
	if err != nil {
		return fmt.Errorf("failed to create manifest entry: %w", err)
	}
	if _, err := entry.Write(meta); err != nil {
		return fmt.Errorf("failed to write manifest: %w", err)
	}

	ordered := make([]cards.Card, 0, len(st.Cards))
	for _, card := range st.Cards {
		ordered = append(ordered, card)
	}
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].Name < ordered[j].Name })

	for _, card := range ordered {
		if err := writeImage(zw, card.Name+"_front"+imageExt, card.Front.Data); err != nil {
			return err
		}
		if err := writeImage(zw, card.Name+"_back"+imageExt, card.Back.Data); err != nil {
			return err
		}
	}

	if err := zw.Close(); err != nil {
		return fmt.Errorf("failed to finalize archive: %w", err)
	}
	return nil
}

func writeImage(zw *zip.Writer, name string, data []byte) error {
	entry, err := zw.Create(ImageDir + "/" + name)
	if err != nil {
		return fmt.Errorf("failed to create image entry %q: %w", name, err)
	}
	if _, err := entry.Write(data); err != nil {
		return fmt.Errorf("failed to write image entry %q: %w", name, err)
	}
	return nil
}

// Decode reads an archive and reconstructs cards by feeding every image
// entry through the filename pairing engine. Entry directories are
// stripped before pairing so re-imported cards keep the base names they
// were exported under. The manifest, when present, is decoded and returned
//; applying it is the caller's choice.
//
// A corrupt or foreign file fails the import atomically: an error is
// returned and nothing is reconstructed.
func Decode(r io.ReaderAt, size int64) (*Import, error) {
	zr, err := zip.NewReader(r, size)
	if err != nil {
		return nil, fmt.Errorf("failed to read archive: %w", err)
	}

	var files []cards.File
	var manifest *Manifest
	for _, entry := range zr.File {
		if entry.FileInfo().IsDir() {
			continue
		}
		switch {
		case entry.Name == ManifestName:
			data, err := readEntry(entry)
			if err != nil {
				return nil, err
			}
			manifest = &Manifest{}
			if err := json.Unmarshal(data, manifest); err != nil {
				return nil, fmt.Errorf("failed to decode manifest: %w", err)
			}
		case strings.HasSuffix(strings.ToLower(entry.Name), imageExt):
			data, err := readEntry(entry)
			if err != nil {
				return nil, err
			}
			files = append(files, cards.File{Name: path.Base(entry.Name), Data: data})
		}
	}

	result := cards.Pair(files)
	return &Import{
		Cards:        result.Cards,
		Rejected:     result.Rejected,
		Unrecognized: result.Unrecognized,
		Manifest:     manifest,
	}, nil
}

func readEntry(entry *zip.File) ([]byte, error) {
	rc, err := entry.Open()
	if err != nil {
		return nil, fmt.Errorf("failed to open archive entry %q: %w", entry.Name, err)
	}
	defer func() { _ = rc.Close() }()

	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("failed to read archive entry %q: %w", entry.Name, err)
	}
	return data, nil
}
