// Package storage defines the durable key-value contract the engines persist
// through, plus the Repo that gives each mutation a narrow, all-or-nothing
// commit.
package storage

import (
	"context"
	"errors"
)

// Collection keys. Every value is a whole JSON document.
const (
	KeyWallets      = "wallets"
	KeyTransactions = "transactions"
	KeyGoals        = "goals"
	KeyCategories   = "categories"
	KeyUsers        = "users"
	KeyBudgets      = "budgets"
	KeyFixedCosts   = "fixed-costs"
	KeyTheme        = "theme"
)

// Keys lists every collection key.
var Keys = []string{
	KeyWallets, KeyTransactions, KeyGoals, KeyCategories,
	KeyUsers, KeyBudgets, KeyFixedCosts, KeyTheme,
}

var (
	ErrNotFound     = errors.New("key not found")
	ErrKeyNotLocked = errors.New("key not part of update")
)

type (
	// Store reads and writes whole values by key. Get returns ErrNotFound
	// when the key is absent.
	Store interface {
		Get(ctx context.Context, key string) ([]byte, error)
		Set(ctx context.Context, key string, value []byte) error
		Remove(ctx context.Context, key string) error
	}

	// Entry is one write of a batch. A nil Value removes the key.
	Entry struct {
		Key   string
		Value []byte
	}

	// Batcher is implemented by stores able to apply several writes
	// atomically.
	Batcher interface {
		SetBatch(ctx context.Context, entries []Entry) error
	}
)

// WithPrefix scopes every key of s under prefix + "/". An empty prefix
// returns s unchanged. Batch support of s is preserved.
func WithPrefix(s Store, prefix string) Store {
	if prefix == "" {
		return s
	}
	p := prefixed{store: s, prefix: prefix + "/"}
	if b, ok := s.(Batcher); ok {
		return prefixedBatcher{prefixed: p, batcher: b}
	}
	return p
}

type prefixed struct {
	store  Store
	prefix string
}

// Unwrap returns the store beneath the namespace.
func (p prefixed) Unwrap() Store {
	return p.store
}

func (p prefixed) Get(ctx context.Context, key string) ([]byte, error) {
	return p.store.Get(ctx, p.prefix+key)
}

func (p prefixed) Set(ctx context.Context, key string, value []byte) error {
	return p.store.Set(ctx, p.prefix+key, value)
}

func (p prefixed) Remove(ctx context.Context, key string) error {
	return p.store.Remove(ctx, p.prefix+key)
}

type prefixedBatcher struct {
	prefixed
	batcher Batcher
}

func (p prefixedBatcher) SetBatch(ctx context.Context, entries []Entry) error {
	scoped := make([]Entry, len(entries))
	for i, e := range entries {
		scoped[i] = Entry{Key: p.prefix + e.Key, Value: e.Value}
	}
	return p.batcher.SetBatch(ctx, scoped)
}
