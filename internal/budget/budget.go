// Package budget derives month-to-date spend per category from the
// transaction log and classifies it against configured limits. Spend is
// never stored.
package budget

import (
	"context"
	"time"

	"manicash/internal/core"
	"manicash/internal/storage"
)

type Evaluator struct {
	repo *storage.Repo
	now  func() time.Time
}

type Option func(*Evaluator)

func WithClock(now func() time.Time) Option {
	return func(e *Evaluator) { e.now = now }
}

func New(repo *storage.Repo, opts ...Option) *Evaluator {
	e := &Evaluator{repo: repo, now: time.Now}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Status is a budget together with its live spend.
type Status struct {
	Budget core.Budget `json:"budget"`
	Spent  core.Money  `json:"spent"`
	Classification
}

// SpentInCurrentMonth reads the transaction log and sums this month's
// expenses in category.
func (e *Evaluator) SpentInCurrentMonth(ctx context.Context, category core.Category) (core.Money, error) {
	txs, err := e.transactions(ctx)
	if err != nil {
		return core.Money{}, err
	}
	return SpentInMonth(txs, category, e.now()), nil
}

func (e *Evaluator) Budgets(ctx context.Context) ([]core.Budget, error) {
	var budgets []core.Budget
	if _, err := e.repo.Load(ctx, storage.KeyBudgets, &budgets); err != nil {
		return nil, err
	}
	return budgets, nil
}

// SetBudget creates or replaces the budget for b.Category. A replaced
// budget keeps its stored category spelling.
func (e *Evaluator) SetBudget(ctx context.Context, b core.Budget) ([]core.Budget, error) {
	b.Category = core.Category(core.NormalizeName(string(b.Category))).Canonical()
	if err := b.Validate(); err != nil {
		return nil, err
	}

	var result []core.Budget
	err := e.repo.Update(ctx, []string{storage.KeyBudgets}, func(tx *storage.Tx) error {
		var budgets []core.Budget
		if _, err := tx.Get(storage.KeyBudgets, &budgets); err != nil {
			return err
		}
		replaced := false
		for i := range budgets {
			if !replaced && budgets[i].Category.Is(b.Category) {
				budgets[i].Limit = b.Limit
				replaced = true
			}
		}
		if !replaced {
			budgets = append(budgets, b)
		}
		result = budgets
		return tx.Put(storage.KeyBudgets, budgets)
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// RemoveBudget deletes the budget for category, if any, ignoring case.
func (e *Evaluator) RemoveBudget(ctx context.Context, category core.Category) ([]core.Budget, error) {
	var result []core.Budget
	err := e.repo.Update(ctx, []string{storage.KeyBudgets}, func(tx *storage.Tx) error {
		var budgets []core.Budget
		if _, err := tx.Get(storage.KeyBudgets, &budgets); err != nil {
			return err
		}
		kept := budgets[:0]
		for _, b := range budgets {
			if !b.Category.Is(category) {
				kept = append(kept, b)
			}
		}
		if len(kept) == len(budgets) {
			result = budgets
			return nil
		}
		result = kept
		return tx.Put(storage.KeyBudgets, kept)
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// Evaluate classifies every configured budget against this month's spend.
func (e *Evaluator) Evaluate(ctx context.Context) ([]Status, error) {
	budgets, err := e.Budgets(ctx)
	if err != nil {
		return nil, err
	}
	txs, err := e.transactions(ctx)
	if err != nil {
		return nil, err
	}
	now := e.now()
	out := make([]Status, 0, len(budgets))
	for _, b := range budgets {
		spent := SpentInMonth(txs, b.Category, now)
		out = append(out, Status{Budget: b, Spent: spent, Classification: Classify(spent, b.Limit)})
	}
	return out, nil
}

func (e *Evaluator) transactions(ctx context.Context) ([]core.Transaction, error) {
	var txs []core.Transaction
	if _, err := e.repo.Load(ctx, storage.KeyTransactions, &txs); err != nil {
		return nil, err
	}
	return txs, nil
}
