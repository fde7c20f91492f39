package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
)

// Repo serializes read-modify-write cycles per collection key and commits
// each cycle as a unit.
type Repo struct {
	store Store

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func NewRepo(store Store) *Repo {
	return &Repo{
		store: store,
		locks: make(map[string]*sync.Mutex),
	}
}

// Store returns the underlying store.
func (r *Repo) Store() Store {
	return r.store
}

// Load decodes the value stored at key into dst. It reports false, with
// dst untouched, when the key is absent.
func (r *Repo) Load(ctx context.Context, key string, dst any) (bool, error) {
	raw, err := r.store.Get(ctx, key)
	if errors.Is(err, ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("read %s: %w", key, err)
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return false, fmt.Errorf("decode %s: %w", key, err)
	}
	return true, nil
}

// Update locks keys, runs fn and commits whatever fn staged with Put or
// Delete. If fn fails nothing is written. If the commit fails, the store is
// left as it was before Update.
func (r *Repo) Update(ctx context.Context, keys []string, fn func(tx *Tx) error) error {
	unlock := r.lock(keys)
	defer unlock()

	tx := &Tx{
		ctx:      ctx,
		store:    r.store,
		allowed:  make(map[string]bool, len(keys)),
		original: make(map[string][]byte),
		read:     make(map[string]bool),
		staged:   make(map[string]int),
	}
	for _, k := range keys {
		tx.allowed[k] = true
	}

	if err := fn(tx); err != nil {
		return err
	}
	if len(tx.writes) == 0 {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	return tx.commit()
}

func (r *Repo) lock(keys []string) func() {
	sorted := append([]string(nil), keys...)
	sort.Strings(sorted)

	r.mu.Lock()
	var held []*sync.Mutex
	seen := make(map[string]bool, len(sorted))
	for _, k := range sorted {
		if seen[k] {
			continue
		}
		seen[k] = true
		m, ok := r.locks[k]
		if !ok {
			m = &sync.Mutex{}
			r.locks[k] = m
		}
		held = append(held, m)
	}
	r.mu.Unlock()

	for _, m := range held {
		m.Lock()
	}
	return func() {
		for i := len(held) - 1; i >= 0; i-- {
			held[i].Unlock()
		}
	}
}

// Tx is the view of the store inside a single Update.
type Tx struct {
	ctx     context.Context
	store   Store
	allowed map[string]bool

	original map[string][]byte // raw value before the update; nil when absent
	read     map[string]bool
	writes   []Entry
	staged   map[string]int
}

// Context returns the context Update was called with.
func (tx *Tx) Context() context.Context {
	return tx.ctx
}

// Get decodes the current value of key into dst. Staged writes are
// visible. It reports false when the key is absent.
func (tx *Tx) Get(key string, dst any) (bool, error) {
	if !tx.allowed[key] {
		return false, fmt.Errorf("%w: %s", ErrKeyNotLocked, key)
	}
	if i, ok := tx.staged[key]; ok {
		v := tx.writes[i].Value
		if v == nil {
			return false, nil
		}
		return true, json.Unmarshal(v, dst)
	}
	raw, err := tx.fetch(key)
	if err != nil {
		return false, err
	}
	if raw == nil {
		return false, nil
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return false, fmt.Errorf("decode %s: %w", key, err)
	}
	return true, nil
}

// Put stages v as the new value of key. Writes are committed in the order
// keys were first staged.
func (tx *Tx) Put(key string, v any) error {
	if !tx.allowed[key] {
		return fmt.Errorf("%w: %s", ErrKeyNotLocked, key)
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	tx.stage(Entry{Key: key, Value: raw})
	return nil
}

// Delete stages the removal of key.
func (tx *Tx) Delete(key string) error {
	if !tx.allowed[key] {
		return fmt.Errorf("%w: %s", ErrKeyNotLocked, key)
	}
	tx.stage(Entry{Key: key})
	return nil
}

func (tx *Tx) stage(e Entry) {
	if i, ok := tx.staged[e.Key]; ok {
		tx.writes[i] = e
		return
	}
	tx.staged[e.Key] = len(tx.writes)
	tx.writes = append(tx.writes, e)
}

func (tx *Tx) fetch(key string) ([]byte, error) {
	if tx.read[key] {
		return tx.original[key], nil
	}
	raw, err := tx.store.Get(tx.ctx, key)
	if errors.Is(err, ErrNotFound) {
		raw, err = nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", key, err)
	}
	tx.read[key] = true
	tx.original[key] = raw
	return raw, nil
}

func (tx *Tx) commit() error {
	if b, ok := tx.store.(Batcher); ok {
		if err := b.SetBatch(tx.ctx, tx.writes); err != nil {
			return fmt.Errorf("commit batch: %w", err)
		}
		return nil
	}

	// Without atomic batches, remember what each key held so a failed
	// write can be undone.
	for _, e := range tx.writes {
		if _, err := tx.fetch(e.Key); err != nil {
			return err
		}
	}

	for i, e := range tx.writes {
		if err := apply(tx.ctx, tx.store, e); err != nil {
			err = fmt.Errorf("commit %s: %w", e.Key, err)
			return errors.Join(err, tx.restore(tx.writes[:i]))
		}
	}
	return nil
}

// restore puts back the original values of already-applied writes, newest
// first.
func (tx *Tx) restore(applied []Entry) error {
	// The caller's context may be the reason the commit failed.
	ctx := context.WithoutCancel(tx.ctx)
	var errs []error
	for i := len(applied) - 1; i >= 0; i-- {
		key := applied[i].Key
		if err := apply(ctx, tx.store, Entry{Key: key, Value: tx.original[key]}); err != nil {
			errs = append(errs, fmt.Errorf("restore %s: %w", key, err))
		}
	}
	if len(errs) > 0 {
		slog.ErrorContext(ctx, "Failed to restore store after partial commit", "errors", len(errs))
	}
	return errors.Join(errs...)
}

func apply(ctx context.Context, s Store, e Entry) error {
	if e.Value == nil {
		err := s.Remove(ctx, e.Key)
		if errors.Is(err, ErrNotFound) {
			return nil
		}
		return err
	}
	return s.Set(ctx, e.Key, e.Value)
}
