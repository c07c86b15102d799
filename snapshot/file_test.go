package snapshot

import (
	"context"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"dealboard/domain"
)

func TestFileSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state", "board.json")
	store := NewFile(path, nil)
	ctx := context.Background()

	doc := Document{
		Cards: []domain.Card{
			{ID: "a", GroupID: "backlog", OrderKey: 0, Fields: domain.Fields{Title: "first"}},
			{ID: "b", GroupID: "won", OrderKey: 1, Fields: domain.Fields{Value: "30k"}},
		},
		Categories: []string{"renewal"},
	}
	if err := store.Save(ctx, doc); err != nil {
		t.Fatalf("save: %v", err)
	}

	got, err := store.Load(ctx)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if !reflect.DeepEqual(got, doc) {
		t.Fatalf("round trip mismatch:\n got %#v\nwant %#v", got, doc)
	}
}

func TestFileLoadMissingIsEmpty(t *testing.T) {
	store := NewFile(filepath.Join(t.TempDir(), "nope.json"), nil)
	doc, err := store.Load(context.Background())
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(doc.Cards) != 0 || len(doc.Categories) != 0 {
		t.Fatalf("expected empty document, got %#v", doc)
	}
}

func TestFileLoadCorruptIsEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "board.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatalf("seed corrupt blob: %v", err)
	}

	doc, err := NewFile(path, nil).Load(context.Background())
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(doc.Cards) != 0 {
		t.Fatalf("expected empty document, got %#v", doc)
	}
}

func TestFileSaveOverwritesWholesale(t *testing.T) {
	path := filepath.Join(t.TempDir(), "board.json")
	store := NewFile(path, nil)
	ctx := context.Background()

	if err := store.Save(ctx, Document{Cards: []domain.Card{{ID: "a", GroupID: "g"}}}); err != nil {
		t.Fatalf("first save: %v", err)
	}
	if err := store.Save(ctx, Document{Cards: []domain.Card{{ID: "b", GroupID: "g"}}}); err != nil {
		t.Fatalf("second save: %v", err)
	}

	doc, err := store.Load(ctx)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(doc.Cards) != 1 || doc.Cards[0].ID != "b" {
		t.Fatalf("expected only the second generation, got %#v", doc.Cards)
	}
}
