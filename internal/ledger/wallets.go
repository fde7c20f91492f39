package ledger

import (
	"context"
	"fmt"
	"strings"

	"manicash/internal/core"
	"manicash/internal/storage"
)

// CreateWallet adds a wallet with an opening balance.
func (e *Engine) CreateWallet(ctx context.Context, userID, name string, opening core.Money) (core.Wallet, error) {
	name = core.NormalizeName(name)
	if name == "" {
		return core.Wallet{}, core.Invalid("name", core.ErrEmptyName)
	}
	if strings.TrimSpace(userID) == "" {
		return core.Wallet{}, core.Invalid("userId", core.ErrUnknownUser)
	}
	if opening.Minor < 0 {
		return core.Wallet{}, core.Invalid("balance", core.ErrInvalidAmount)
	}

	w := core.Wallet{ID: e.newID(), UserID: userID, Name: name, Balance: opening}
	err := e.repo.Update(ctx, []string{storage.KeyWallets}, func(tx *storage.Tx) error {
		wallets, err := WalletsIn(tx)
		if err != nil {
			return err
		}
		return tx.Put(storage.KeyWallets, append(wallets, w))
	})
	if err != nil {
		return core.Wallet{}, err
	}
	return w, nil
}

// RenameWallet changes a wallet's display name. The balance is untouched.
func (e *Engine) RenameWallet(ctx context.Context, id, name string) (core.Wallet, error) {
	name = core.NormalizeName(name)
	if name == "" {
		return core.Wallet{}, core.Invalid("name", core.ErrEmptyName)
	}

	var renamed core.Wallet
	err := e.repo.Update(ctx, []string{storage.KeyWallets}, func(tx *storage.Tx) error {
		wallets, err := WalletsIn(tx)
		if err != nil {
			return err
		}
		i := FindWallet(wallets, id)
		if i < 0 {
			return core.Invalid("walletId", fmt.Errorf("%w: %s", core.ErrUnknownWallet, id))
		}
		wallets[i].Name = name
		renamed = wallets[i]
		return tx.Put(storage.KeyWallets, wallets)
	})
	return renamed, err
}

// ResetWallets overwrites the whole wallet collection. It is the only path
// that sets balances directly and is meant for administrative resets.
func (e *Engine) ResetWallets(ctx context.Context, wallets []core.Wallet) error {
	seen := make(map[string]bool, len(wallets))
	for _, w := range wallets {
		if w.ID == "" || seen[w.ID] {
			return core.Invalid("id", fmt.Errorf("%w: %q", core.ErrDuplicateID, w.ID))
		}
		seen[w.ID] = true
	}
	return e.repo.Update(ctx, []string{storage.KeyWallets}, func(tx *storage.Tx) error {
		if wallets == nil {
			return tx.Delete(storage.KeyWallets)
		}
		return tx.Put(storage.KeyWallets, wallets)
	})
}
