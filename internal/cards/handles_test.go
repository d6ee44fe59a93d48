package cards

import "testing"

func testCard(name string) Card {
	return Card{
		ID:    NewID(),
		Name:  name,
		Front: Face{Side: SideFront, Data: []byte(name + "-front"), FileName: name + "_front.png"},
		Back:  Face{Side: SideBack, Data: []byte(name + "-back"), FileName: name + "_back.png"},
	}
}

func TestHandleCacheMaterialize(t *testing.T) {
	cache := NewHandleCache()
	card := testCard("a")

	cache.Materialize(&card)

	if card.Front.Handle == "" || card.Back.Handle == "" {
		t.Fatal("materialize must assign handles to both faces")
	}
	if card.Front.Handle == card.Back.Handle {
		t.Error("faces must get distinct handles")
	}

	data, ok := cache.Bytes(card.Front.Handle)
	if !ok {
		t.Fatal("front handle did not resolve")
	}
	if string(data) != "a-front" {
		t.Errorf("front handle resolved to %q", data)
	}
}

func TestHandleCacheRematerializeDoesNotLeak(t *testing.T) {
	cache := NewHandleCache()
	card := testCard("a")

	cache.Materialize(&card)
	old := card.Front.Handle
	cache.Materialize(&card)

	if cache.Len() != 2 {
		t.Errorf("expected 2 registered handles, got %d", cache.Len())
	}
	if _, ok := cache.Bytes(old); ok {
		t.Error("stale handle still resolves")
	}
}

func TestHandleCacheRelease(t *testing.T) {
	cache := NewHandleCache()
	card := testCard("a")
	cache.Materialize(&card)
	front := card.Front.Handle

	cache.Release(&card)

	if card.Front.Handle != "" || card.Back.Handle != "" {
		t.Error("release must clear the card's handles")
	}
	if _, ok := cache.Bytes(front); ok {
		t.Error("released handle still resolves")
	}
	if cache.Len() != 0 {
		t.Errorf("expected empty cache, got %d entries", cache.Len())
	}
}

func TestHandleCacheReset(t *testing.T) {
	cache := NewHandleCache()
	a, b := testCard("a"), testCard("b")
	cache.Materialize(&a)
	cache.Materialize(&b)

	cache.Reset()

	if cache.Len() != 0 {
		t.Errorf("expected empty cache after reset, got %d entries", cache.Len())
	}
}
