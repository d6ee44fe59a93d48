package archive

import (
	"archive/zip"
	"bytes"
	"testing"

	"github.com/ramonehamilton/card-gallery/internal/cards"
	"github.com/ramonehamilton/card-gallery/internal/state"
)

func exportedState(t *testing.T) state.State {
	t.Helper()
	st := state.Bootstrap()
	result := cards.Pair([]cards.File{
		{Name: "a_front.png", Data: []byte("a-front-bytes")},
		{Name: "a_back.png", Data: []byte("a-back-bytes")},
		{Name: "b_front.png", Data: []byte("b-front-bytes")},
		{Name: "b_back.png", Data: []byte("b-back-bytes")},
	})
	for i := range result.Cards {
		result.Cards[i].Tags = []string{"imported", result.Cards[i].Name}
	}
	st, err := st.AddCardsToActiveDeck(result.Cards)
	if err != nil {
		t.Fatalf("AddCardsToActiveDeck: %v", err)
	}
	return st
}

func exportBytes(t *testing.T, st state.State) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := Export(&buf, st); err != nil {
		t.Fatalf("Export: %v", err)
	}
	return buf.Bytes()
}

func TestExportLayout(t *testing.T) {
	data := exportBytes(t, exportedState(t))

	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		t.Fatalf("reading exported zip: %v", err)
	}

	names := map[string]bool{}
	for _, f := range zr.File {
		names[f.Name] = true
	}
	for _, want := range []string{
		ManifestName,
		"images/a_front.png", "images/a_back.png",
		"images/b_front.png", "images/b_back.png",
	} {
		if !names[want] {
			t.Errorf("archive missing entry %q (have %v)", want, names)
		}
	}
}

func TestRoundTripPreservesFaceBytes(t *testing.T) {
	st := exportedState(t)
	data := exportBytes(t, st)

	imp, err := Decode(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}

	if len(imp.Cards) != 2 {
		t.Fatalf("expected 2 cards, got %d", len(imp.Cards))
	}
	want := map[string][2]string{
		"a": {"a-front-bytes", "a-back-bytes"},
		"b": {"b-front-bytes", "b-back-bytes"},
	}
	for _, card := range imp.Cards {
		pair, ok := want[card.Name]
		if !ok {
			t.Errorf("unexpected card %q", card.Name)
			continue
		}
		if string(card.Front.Data) != pair[0] || string(card.Back.Data) != pair[1] {
			t.Errorf("card %q face bytes did not survive the round trip", card.Name)
		}
	}
}

// Export writes deck structure and card tags into the manifest, but
// decoded cards are rebuilt from filenames alone: tags and deck membership
// are not applied. The manifest is returned for callers that choose to
// restore it.
func TestRoundTripMetadataAsymmetry(t *testing.T) {
	st := exportedState(t)
	data := exportBytes(t, st)

	imp, err := Decode(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}

	for _, card := range imp.Cards {
		if len(card.Tags) != 0 {
			t.Errorf("card %q came back with tags %v; import must not apply manifest tags", card.Name, card.Tags)
		}
	}

	if imp.Manifest == nil {
		t.Fatal("manifest should be surfaced")
	}
	if imp.Manifest.Version != FormatVersion {
		t.Errorf("manifest version %d, want %d", imp.Manifest.Version, FormatVersion)
	}
	if len(imp.Manifest.Decks) != 1 || len(imp.Manifest.DeckOrder) != 1 {
		t.Error("manifest should carry the exported deck structure")
	}
	for _, meta := range imp.Manifest.CardsMeta {
		if len(meta.Tags) == 0 {
			t.Errorf("manifest lost tags for card %q", meta.Name)
		}
	}
}

func TestDecodeForeignZipWithoutManifest(t *testing.T) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for name, payload := range map[string]string{
		"x_front.png": "xf",
		"x_back.png":  "xb",
		"README.md":   "not an image",
	} {
		entry, err := zw.Create(name)
		if err != nil {
			t.Fatalf("creating entry: %v", err)
		}
		if _, err := entry.Write([]byte(payload)); err != nil {
			t.Fatalf("writing entry: %v", err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("closing zip: %v", err)
	}

	imp, err := Decode(bytes.NewReader(buf.Bytes()), int64(buf.Len()))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if imp.Manifest != nil {
		t.Error("foreign zip should have no manifest")
	}
	if len(imp.Cards) != 1 || imp.Cards[0].Name != "x" {
		t.Errorf("expected one card %q, got %+v", "x", imp.Cards)
	}
}

func TestDecodeCorruptArchive(t *testing.T) {
	if _, err := Decode(bytes.NewReader([]byte("not a zip at all")), 16); err == nil {
		t.Error("expected corrupt archive to fail")
	}
}

func TestDecodeCorruptManifest(t *testing.T) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	entry, err := zw.Create(ManifestName)
	if err != nil {
		t.Fatalf("creating entry: %v", err)
	}
	if _, err := entry.Write([]byte("{invalid json")); err != nil {
		t.Fatalf("writing entry: %v", err)
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("closing zip: %v", err)
	}

	if _, err := Decode(bytes.NewReader(buf.Bytes()), int64(buf.Len())); err == nil {
		t.Error("expected corrupt manifest to fail the import")
	}
}

func TestReExportKeepsBaseNames(t *testing.T) {
	st := exportedState(t)
	data := exportBytes(t, st)

	imp, err := Decode(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}

	// Entry names include the image directory; pairing must still yield
	// plain base names so a second export does not nest paths.
	for _, card := range imp.Cards {
		if card.Name == "" || card.Name[0] == '/' || bytes.ContainsRune([]byte(card.Name), '/') {
			t.Errorf("card name %q leaked directory structure", card.Name)
		}
	}
}
