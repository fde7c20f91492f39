package backend

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"manicash/internal/config"
	"manicash/internal/storage"
)

func TestFromAppConfig(t *testing.T) {
	if _, err := FromAppConfig(nil); err == nil {
		t.Fatal("expected error for nil config")
	}
	if _, err := FromAppConfig(&config.Config{StoreBackend: "sheets"}); err == nil {
		t.Fatal("expected error for unknown backend")
	}

	cfg, err := FromAppConfig(&config.Config{StoreBackend: "sqlite", SQLiteDBPath: "x.db", HouseholdID: "h1"})
	if err != nil {
		t.Fatalf("FromAppConfig: %v", err)
	}
	if cfg.Type != SQLiteBackend || cfg.SQLiteDBPath != "x.db" || cfg.Namespace != "h1" {
		t.Errorf("unexpected config %+v", cfg)
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		config  Config
		wantErr bool
	}{
		{"memory", Config{Type: MemoryBackend}, false},
		{"sqlite without path", Config{Type: SQLiteBackend}, true},
		{"postgres without uri", Config{Type: PostgresBackend}, true},
		{"postgres", Config{Type: PostgresBackend, DatabaseURI: "postgres://localhost/db"}, false},
		{"mongo without database", Config{Type: MongoBackend, MongoURI: "mongodb://localhost"}, true},
		{"unknown", Config{Type: "csv"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.config.Validate(); (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestCreateBackend_SQLiteNamespaced(t *testing.T) {
	ctx := context.Background()
	f := NewFactory(nil)

	res, err := f.CreateBackend(ctx, Config{
		Type:         SQLiteBackend,
		SQLiteDBPath: filepath.Join(t.TempDir(), "m.db"),
		Namespace:    "house",
	})
	if err != nil {
		t.Fatalf("CreateBackend: %v", err)
	}
	defer res.Close()

	if err := res.Store.Set(ctx, storage.KeyTheme, []byte(`"dark"`)); err != nil {
		t.Fatalf("Set: %v", err)
	}
	got, err := res.Store.Get(ctx, storage.KeyTheme)
	if err != nil || string(got) != `"dark"` {
		t.Fatalf("Get = %q %v", got, err)
	}
}

func TestCreateBackend_Memory(t *testing.T) {
	ctx := context.Background()
	res, err := NewFactory(nil).CreateBackend(ctx, Config{Type: MemoryBackend})
	if err != nil {
		t.Fatalf("CreateBackend: %v", err)
	}
	if err := res.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if _, err := res.Store.Get(ctx, storage.KeyWallets); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
