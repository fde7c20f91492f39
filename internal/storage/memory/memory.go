package memory

import (
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"manicash/internal/storage"
)

type Store struct {
	mu    sync.Mutex
	items map[string][]byte
}

var (
	_ storage.Store   = (*Store)(nil)
	_ storage.Batcher = (*Store)(nil)
)

func New() *Store {
	return &Store{items: make(map[string][]byte)}
}

// NewFromDir seeds the store from <base>/<key>.json for every known
// collection key. Missing or malformed files are skipped.
func NewFromDir(base string) *Store {
	s := New()
	for _, key := range storage.Keys {
		path := filepath.Join(base, key+".json")
		raw, err := os.ReadFile(path)
		if err != nil {
			continue
		}
		if !json.Valid(raw) {
			slog.Warn("Skipping malformed seed file", "path", path)
			continue
		}
		s.items[key] = raw
	}
	return s
}

func (s *Store) Get(_ context.Context, key string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.items[key]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return append([]byte(nil), v...), nil
}

func (s *Store) Set(_ context.Context, key string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items[key] = append([]byte(nil), value...)
	return nil
}

func (s *Store) Remove(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.items, key)
	return nil
}

// SetBatch applies all entries under one lock.
func (s *Store) SetBatch(_ context.Context, entries []storage.Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, e := range entries {
		if e.Value == nil {
			delete(s.items, e.Key)
			continue
		}
		s.items[e.Key] = append([]byte(nil), e.Value...)
	}
	return nil
}

// Len returns the number of stored keys.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items)
}
