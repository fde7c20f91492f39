// Package ledger owns wallets, the append-only transaction log and the
// category set. Every mutation reads the collections it touches fresh from
// the store and commits them as one unit through storage.Repo.
package ledger

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"manicash/internal/core"
	"manicash/internal/storage"
)

// Engine is safe for concurrent use.
type Engine struct {
	repo  *storage.Repo
	now   func() time.Time
	newID func() string
}

type Option func(*Engine)

// WithClock overrides the wall clock used for default dates and timestamps.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// WithIDGenerator overrides how missing ids are filled.
func WithIDGenerator(fn func() string) Option {
	return func(e *Engine) { e.newID = fn }
}

func New(repo *storage.Repo, opts ...Option) *Engine {
	e := &Engine{
		repo:  repo,
		now:   time.Now,
		newID: uuid.NewString,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Now returns the engine's current time.
func (e *Engine) Now() time.Time {
	return e.now()
}

// RecordTransaction appends t to the log and applies its effect to the
// referenced wallet. Overdraft is allowed. It returns the updated wallet and
// the stored transaction.
func (e *Engine) RecordTransaction(ctx context.Context, t core.Transaction) (core.Wallet, core.Transaction, error) {
	var (
		wallet core.Wallet
		stored core.Transaction
	)
	err := e.repo.Update(ctx, []string{storage.KeyTransactions, storage.KeyWallets}, func(tx *storage.Tx) error {
		var err error
		wallet, stored, err = e.Append(tx, t)
		return err
	})
	if err != nil {
		return core.Wallet{}, core.Transaction{}, err
	}

	slog.InfoContext(ctx, "Recorded transaction",
		"id", stored.ID,
		"type", stored.Type,
		"category", stored.Category,
		"amount", stored.Amount.Minor,
		"wallet_id", wallet.ID,
		"balance", wallet.Balance.Minor)
	return wallet, stored, nil
}

// Append validates t and stages it, together with its wallet effect, inside
// an open update holding storage.KeyTransactions and storage.KeyWallets.
// The transaction log is staged before the wallets.
func (e *Engine) Append(tx *storage.Tx, t core.Transaction) (core.Wallet, core.Transaction, error) {
	t = e.prepare(t)
	if err := t.Validate(); err != nil {
		return core.Wallet{}, core.Transaction{}, err
	}

	txs, err := TransactionsIn(tx)
	if err != nil {
		return core.Wallet{}, core.Transaction{}, err
	}
	for _, existing := range txs {
		if existing.ID == t.ID {
			return core.Wallet{}, core.Transaction{}, core.Invalid("id", fmt.Errorf("%w: %s", core.ErrDuplicateID, t.ID))
		}
	}

	wallets, err := WalletsIn(tx)
	if err != nil {
		return core.Wallet{}, core.Transaction{}, err
	}
	i := FindWallet(wallets, t.WalletID)
	if i < 0 {
		return core.Wallet{}, core.Transaction{}, core.Invalid("walletId", fmt.Errorf("%w: %s", core.ErrUnknownWallet, t.WalletID))
	}

	if t.Type == core.Transfer {
		slog.WarnContext(tx.Context(), "Transfer applied as debit-only, no destination wallet is credited",
			"id", t.ID, "wallet_id", t.WalletID)
	}
	wallets[i].Balance = wallets[i].Balance.Add(t.Effect())

	if err := tx.Put(storage.KeyTransactions, append(txs, t)); err != nil {
		return core.Wallet{}, core.Transaction{}, err
	}
	if err := tx.Put(storage.KeyWallets, wallets); err != nil {
		return core.Wallet{}, core.Transaction{}, err
	}
	return wallets[i], t, nil
}

func (e *Engine) prepare(t core.Transaction) core.Transaction {
	now := e.now()
	if t.ID == "" {
		t.ID = e.newID()
	}
	if t.Date.IsZero() {
		t.Date = now
	}
	if t.Timestamp == 0 {
		t.Timestamp = now.UnixMilli()
	}
	t.Category = core.Category(core.NormalizeName(string(t.Category))).Canonical()
	return t
}

// ListTransactions returns the log in insertion order.
func (e *Engine) ListTransactions(ctx context.Context) ([]core.Transaction, error) {
	var txs []core.Transaction
	if _, err := e.repo.Load(ctx, storage.KeyTransactions, &txs); err != nil {
		return nil, err
	}
	return txs, nil
}

func (e *Engine) ListWallets(ctx context.Context) ([]core.Wallet, error) {
	var wallets []core.Wallet
	if _, err := e.repo.Load(ctx, storage.KeyWallets, &wallets); err != nil {
		return nil, err
	}
	return wallets, nil
}

// Wallet returns the wallet with the given id.
func (e *Engine) Wallet(ctx context.Context, id string) (core.Wallet, error) {
	wallets, err := e.ListWallets(ctx)
	if err != nil {
		return core.Wallet{}, err
	}
	i := FindWallet(wallets, id)
	if i < 0 {
		return core.Wallet{}, fmt.Errorf("%w: %s", core.ErrUnknownWallet, id)
	}
	return wallets[i], nil
}

// TransactionsIn reads the transaction log inside an open update.
func TransactionsIn(tx *storage.Tx) ([]core.Transaction, error) {
	var txs []core.Transaction
	if _, err := tx.Get(storage.KeyTransactions, &txs); err != nil {
		return nil, err
	}
	return txs, nil
}

// WalletsIn reads the wallet collection inside an open update.
func WalletsIn(tx *storage.Tx) ([]core.Wallet, error) {
	var wallets []core.Wallet
	if _, err := tx.Get(storage.KeyWallets, &wallets); err != nil {
		return nil, err
	}
	return wallets, nil
}

// FindWallet returns the index of id in wallets, or -1.
func FindWallet(wallets []core.Wallet, id string) int {
	for i, w := range wallets {
		if w.ID == id {
			return i
		}
	}
	return -1
}

// MonthOverview summarizes income and expenses for the month containing at.
func (e *Engine) MonthOverview(ctx context.Context, at time.Time) (core.MonthOverview, error) {
	txs, err := e.ListTransactions(ctx)
	if err != nil {
		return core.MonthOverview{}, err
	}
	return core.Summarize(txs, at.Year(), at.Month(), at.Location()), nil
}
