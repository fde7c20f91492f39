// Package insight decides when a recorded expense deserves a reflection and
// produces best-effort commentary on ledger state.
package insight

import (
	"context"
	"log/slog"
	"time"

	"manicash/internal/budget"
	"manicash/internal/core"
	"manicash/internal/storage"
)

// Decision is the outcome of Decide. Spent includes the transaction being
// evaluated.
type Decision struct {
	Triggered bool          `json:"triggered"`
	Category  core.Category `json:"category,omitempty"`
	Spent     core.Money    `json:"spent"`
	Limit     core.Money    `json:"limit"`
	Overage   core.Money    `json:"overage"`
}

// Decide reports whether tx pushed its category over budget this month.
// txs should already contain tx; it is added when missing so a stale
// snapshot still counts it.
func Decide(tx core.Transaction, budgets []core.Budget, txs []core.Transaction, now time.Time) Decision {
	if tx.Type != core.Expense {
		return Decision{}
	}
	b, ok := budget.Find(budgets, tx.Category)
	if !ok {
		return Decision{}
	}

	if !contains(txs, tx.ID) {
		txs = append(txs[:len(txs):len(txs)], tx)
	}
	spent := budget.SpentInMonth(txs, tx.Category, now)
	d := Decision{Category: b.Category, Spent: spent, Limit: b.Limit}
	if spent.Minor > b.Limit.Minor {
		d.Triggered = true
		d.Overage = spent.Sub(b.Limit)
	}
	return d
}

func contains(txs []core.Transaction, id string) bool {
	if id == "" {
		return false
	}
	for _, t := range txs {
		if t.ID == id {
			return true
		}
	}
	return false
}

// Reflector writes the reflection message. It must not fail; an empty
// string means no message.
type Reflector interface {
	Reflect(ctx context.Context, category core.Category, overage core.Money) string
}

// Reflection is what the caller surfaces after recording an expense.
type Reflection struct {
	Decision
	Message string `json:"message"`
}

// Trigger evaluates recorded transactions against the stored budgets.
type Trigger struct {
	repo      *storage.Repo
	reflector Reflector
	now       func() time.Time
}

type Option func(*Trigger)

func WithClock(now func() time.Time) Option {
	return func(t *Trigger) { t.now = now }
}

// NewTrigger returns a trigger. reflector may be nil, in which case
// reflections carry no message.
func NewTrigger(repo *storage.Repo, reflector Reflector, opts ...Option) *Trigger {
	t := &Trigger{repo: repo, reflector: reflector, now: time.Now}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Evaluate re-reads budgets and transactions, decides, and asks the
// reflector for a message once nothing is held. It never mutates state and
// never fails: read errors are logged and reported as not triggered.
func (t *Trigger) Evaluate(ctx context.Context, tx core.Transaction) Reflection {
	if tx.Type != core.Expense {
		return Reflection{}
	}

	var (
		budgets []core.Budget
		txs     []core.Transaction
	)
	if _, err := t.repo.Load(ctx, storage.KeyBudgets, &budgets); err != nil {
		slog.WarnContext(ctx, "Insight trigger could not read budgets", "error", err)
		return Reflection{}
	}
	if _, err := t.repo.Load(ctx, storage.KeyTransactions, &txs); err != nil {
		slog.WarnContext(ctx, "Insight trigger could not read transactions", "error", err)
		return Reflection{}
	}

	d := Decide(tx, budgets, txs, t.now())
	r := Reflection{Decision: d}
	if !d.Triggered {
		return r
	}

	slog.InfoContext(ctx, "Budget exceeded",
		"category", d.Category,
		"spent", d.Spent.Minor,
		"limit", d.Limit.Minor,
		"overage", d.Overage.Minor)

	if t.reflector != nil && ctx.Err() == nil {
		r.Message = t.reflector.Reflect(ctx, d.Category, d.Overage)
	}
	return r
}
