// Package mongo stores each collection as one document keyed by _id.
// MongoDB offers no multi-document atomicity outside replica-set sessions,
// so this store is not a storage.Batcher; storage.Repo compensates instead.
package mongo

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"manicash/internal/storage"
)

const collectionName = "kv"

// Collection is the subset of *mongo.Collection used by the store.
type Collection interface {
	FindOne(ctx context.Context, filter interface{}, opts ...*options.FindOneOptions) *mongo.SingleResult
	ReplaceOne(ctx context.Context, filter interface{}, replacement interface{}, opts ...*options.ReplaceOptions) (*mongo.UpdateResult, error)
	DeleteOne(ctx context.Context, filter interface{}, opts ...*options.DeleteOptions) (*mongo.DeleteResult, error)
}

type document struct {
	Key   string `bson:"_id"`
	Value string `bson:"value"`
}

type Store struct {
	client *mongo.Client
	coll   Collection
}

var _ storage.Store = (*Store)(nil)

// Connect establishes a connection and returns a store over
// <database>.kv.
func Connect(ctx context.Context, uri, database string) (*Store, error) {
	slog.DebugContext(ctx, "Attempting to connect to MongoDB")

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}

	slog.InfoContext(ctx, "Successfully established connection to MongoDB", "database", database)
	return &Store{
		client: client,
		coll:   client.Database(database).Collection(collectionName),
	}, nil
}

// NewWithCollection builds a store over an existing collection.
func NewWithCollection(coll Collection) *Store {
	return &Store{coll: coll}
}

func (s *Store) Close() error {
	if s.client == nil {
		return nil
	}
	return s.client.Disconnect(context.Background())
}

func (s *Store) Get(ctx context.Context, key string) ([]byte, error) {
	var doc document
	err := s.coll.FindOne(ctx, bson.M{"_id": key}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find %s: %w", key, err)
	}
	return []byte(doc.Value), nil
}

func (s *Store) Set(ctx context.Context, key string, value []byte) error {
	_, err := s.coll.ReplaceOne(ctx,
		bson.M{"_id": key},
		document{Key: key, Value: string(value)},
		options.Replace().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("replace %s: %w", key, err)
	}
	return nil
}

func (s *Store) Remove(ctx context.Context, key string) error {
	if _, err := s.coll.DeleteOne(ctx, bson.M{"_id": key}); err != nil {
		return fmt.Errorf("delete %s: %w", key, err)
	}
	return nil
}
