// Package postgres stores collections in a single PostgreSQL table through a
// pgx connection pool.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"manicash/internal/storage"
)

const schema = `
CREATE TABLE IF NOT EXISTS manicash_kv (
	key        TEXT PRIMARY KEY,
	value      JSONB NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
)`

// querier is the subset of pgxpool.Pool and pgx.Tx the store needs.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type Store struct {
	pool *pgxpool.Pool
}

var (
	_ storage.Store   = (*Store)(nil)
	_ storage.Batcher = (*Store)(nil)
)

func New(ctx context.Context, uri string) (*Store, error) {
	pool, err := pgxpool.New(ctx, uri)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	if _, err := pool.Exec(ctx, schema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("create kv table: %w", err)
	}
	slog.InfoContext(ctx, "Connected to PostgreSQL store")
	return &Store{pool: pool}, nil
}

func (s *Store) Close() error {
	s.pool.Close()
	return nil
}

func (s *Store) Get(ctx context.Context, key string) ([]byte, error) {
	return get(ctx, s.pool, key)
}

func (s *Store) Set(ctx context.Context, key string, value []byte) error {
	return set(ctx, s.pool, key, value)
}

func (s *Store) Remove(ctx context.Context, key string) error {
	return remove(ctx, s.pool, key)
}

// SetBatch applies entries inside one database transaction.
func (s *Store) SetBatch(ctx context.Context, entries []storage.Entry) error {
	return pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		for _, e := range entries {
			var err error
			if e.Value == nil {
				err = remove(ctx, tx, e.Key)
			} else {
				err = set(ctx, tx, e.Key, e.Value)
			}
			if err != nil {
				return err
			}
		}
		return nil
	})
}

func get(ctx context.Context, q querier, key string) ([]byte, error) {
	var value string
	err := q.QueryRow(ctx, `SELECT value::text FROM manicash_kv WHERE key = $1`, key).Scan(&value)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("select %s: %w", key, err)
	}
	return []byte(value), nil
}

func set(ctx context.Context, q querier, key string, value []byte) error {
	_, err := q.Exec(ctx,
		`INSERT INTO manicash_kv (key, value, updated_at) VALUES ($1, $2::jsonb, now())
		 ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = now()`,
		key, string(value))
	if err != nil {
		return fmt.Errorf("upsert %s: %w", key, err)
	}
	return nil
}

func remove(ctx context.Context, q querier, key string) error {
	if _, err := q.Exec(ctx, `DELETE FROM manicash_kv WHERE key = $1`, key); err != nil {
		return fmt.Errorf("delete %s: %w", key, err)
	}
	return nil
}
