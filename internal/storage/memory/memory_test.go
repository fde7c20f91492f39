package memory

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"manicash/internal/storage"
)

func TestMemoryStoreGetSetRemove(t *testing.T) {
	ctx := context.Background()
	s := New()

	if _, err := s.Get(ctx, storage.KeyWallets); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err := s.Set(ctx, storage.KeyWallets, []byte(`[]`)); err != nil {
		t.Fatalf("Set: %v", err)
	}
	got, err := s.Get(ctx, storage.KeyWallets)
	if err != nil || string(got) != "[]" {
		t.Fatalf("unexpected get: %q %v", got, err)
	}
	if err := s.Remove(ctx, storage.KeyWallets); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if s.Len() != 0 {
		t.Fatalf("expected empty store, got %d keys", s.Len())
	}
}

func TestMemoryStoreSetBatch(t *testing.T) {
	ctx := context.Background()
	s := New()
	_ = s.Set(ctx, "a", []byte(`1`))

	err := s.SetBatch(ctx, []storage.Entry{
		{Key: "a"},
		{Key: "b", Value: []byte(`2`)},
	})
	if err != nil {
		t.Fatalf("SetBatch: %v", err)
	}
	if _, err := s.Get(ctx, "a"); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("a should be removed, got %v", err)
	}
	if v, _ := s.Get(ctx, "b"); string(v) != "2" {
		t.Fatalf("b = %q, want 2", v)
	}
}

func TestNewFromDirSeedsKnownKeys(t *testing.T) {
	dir := t.TempDir()
	mustWrite := func(name, content string) {
		t.Helper()
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}
	mustWrite("wallets.json", `[{"id":"w1","userId":"u1","name":"Stash","balance":2450}]`)
	mustWrite("goals.json", `{broken`)
	mustWrite("unrelated.json", `[]`)

	s := NewFromDir(dir)
	if s.Len() != 1 {
		t.Fatalf("expected only wallets seeded, got %d keys", s.Len())
	}
	if _, err := s.Get(context.Background(), storage.KeyWallets); err != nil {
		t.Fatalf("wallets missing: %v", err)
	}
}
