package ledger

import (
	"context"
	"errors"
	"testing"

	"manicash/internal/core"
	"manicash/internal/storage"
	"manicash/internal/storage/memory"
)

func TestCreateAndRenameWallet(t *testing.T) {
	ctx := context.Background()
	e := newEngine(t, memory.New())

	w, err := e.CreateWallet(ctx, "u1", "  Alex's   Stash ", core.NewMoney(2450))
	if err != nil {
		t.Fatalf("CreateWallet: %v", err)
	}
	if w.Name != "Alex's Stash" || w.Balance.Minor != 2450 {
		t.Fatalf("unexpected wallet %+v", w)
	}

	renamed, err := e.RenameWallet(ctx, w.ID, "Rainy day")
	if err != nil {
		t.Fatalf("RenameWallet: %v", err)
	}
	if renamed.Name != "Rainy day" || renamed.Balance != w.Balance {
		t.Fatalf("rename changed more than the name: %+v", renamed)
	}

	if _, err := e.RenameWallet(ctx, w.ID, "   "); !errors.Is(err, core.ErrEmptyName) {
		t.Fatalf("expected ErrEmptyName, got %v", err)
	}
	if _, err := e.RenameWallet(ctx, "missing", "x"); !errors.Is(err, core.ErrUnknownWallet) {
		t.Fatalf("expected ErrUnknownWallet, got %v", err)
	}
	if _, err := e.CreateWallet(ctx, "u1", "Neg", core.NewMoney(-1)); !errors.Is(err, core.ErrInvalidAmount) {
		t.Fatalf("expected ErrInvalidAmount, got %v", err)
	}
}

func TestResetWallets(t *testing.T) {
	ctx := context.Background()
	s := memory.New()
	seed(t, s, storage.KeyWallets, []core.Wallet{{ID: "w1", Balance: core.NewMoney(5)}})
	e := newEngine(t, s)

	err := e.ResetWallets(ctx, []core.Wallet{{ID: "a"}, {ID: "a"}})
	if !errors.Is(err, core.ErrDuplicateID) {
		t.Fatalf("expected ErrDuplicateID, got %v", err)
	}

	if err := e.ResetWallets(ctx, []core.Wallet{{ID: "w9", Balance: core.NewMoney(42)}}); err != nil {
		t.Fatalf("ResetWallets: %v", err)
	}
	wallets, _ := e.ListWallets(ctx)
	if len(wallets) != 1 || wallets[0].ID != "w9" || wallets[0].Balance.Minor != 42 {
		t.Fatalf("unexpected wallets %+v", wallets)
	}

	if err := e.ResetWallets(ctx, nil); err != nil {
		t.Fatalf("ResetWallets(nil): %v", err)
	}
	if _, err := s.Get(ctx, storage.KeyWallets); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("expected wallets removed, got %v", err)
	}
}
