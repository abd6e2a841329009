package snapshot

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestFileStoreRoundTrip(t *testing.T) {
	t.Parallel()

	store, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("new file store: %v", err)
	}
	ctx := context.Background()

	if _, err := store.Load(ctx, "cart:sid-1"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for fresh slot, got %v", err)
	}

	payload := []byte(`{"items":[{"id":"widget"}],"isOpen":true}`)
	if err := store.Save(ctx, "cart:sid-1", payload); err != nil {
		t.Fatalf("save failed: %v", err)
	}

	got, err := store.Load(ctx, "cart:sid-1")
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if string(got) != string(payload) {
		t.Fatalf("payload mismatch: %s", got)
	}
}

func TestFileStoreSaveReplacesAtomically(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	store, err := NewFileStore(dir)
	if err != nil {
		t.Fatalf("new file store: %v", err)
	}
	ctx := context.Background()

	if err := store.Save(ctx, "cart:sid", []byte(`{"v":1}`)); err != nil {
		t.Fatalf("first save: %v", err)
	}
	if err := store.Save(ctx, "cart:sid", []byte(`{"v":2}`)); err != nil {
		t.Fatalf("second save: %v", err)
	}

	got, err := store.Load(ctx, "cart:sid")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if string(got) != `{"v":2}` {
		t.Fatalf("expected latest payload, got %s", got)
	}

	// no temp files should survive a successful save
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("read dir: %v", err)
	}
	for _, e := range entries {
		if filepath.Ext(e.Name()) != ".json" {
			t.Fatalf("leftover temp file %s", e.Name())
		}
	}
}

func TestFileStoreDeleteIsIdempotent(t *testing.T) {
	t.Parallel()

	store, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("new file store: %v", err)
	}
	ctx := context.Background()

	if err := store.Delete(ctx, "cart:missing"); err != nil {
		t.Fatalf("delete of missing slot should be a no-op, got %v", err)
	}

	if err := store.Save(ctx, "cart:sid", []byte(`{}`)); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := store.Delete(ctx, "cart:sid"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := store.Load(ctx, "cart:sid"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
}

func TestFileStoreRejectsEmptySlot(t *testing.T) {
	t.Parallel()

	store, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("new file store: %v", err)
	}
	if err := store.Save(context.Background(), "  ", []byte(`{}`)); err == nil {
		t.Fatal("expected error for blank slot")
	}
}
