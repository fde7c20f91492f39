package budget

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"manicash/internal/core"
	"manicash/internal/storage"
	"manicash/internal/storage/memory"
)

func newEvaluator(t *testing.T, now time.Time, txs []core.Transaction) (*Evaluator, *memory.Store) {
	t.Helper()
	s := memory.New()
	if txs != nil {
		raw, err := json.Marshal(txs)
		if err != nil {
			t.Fatal(err)
		}
		if err := s.Set(context.Background(), storage.KeyTransactions, raw); err != nil {
			t.Fatal(err)
		}
	}
	return New(storage.NewRepo(s), WithClock(func() time.Time { return now })), s
}

func TestSpentInCurrentMonthIsNotCached(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 2, 14, 0, 0, 0, 0, time.UTC)
	e, s := newEvaluator(t, now, []core.Transaction{
		{ID: "a", Date: now, Amount: core.NewMoney(200_000), Type: core.Expense, Category: core.Food},
	})

	spent, err := e.SpentInCurrentMonth(ctx, core.Food)
	if err != nil || spent.Minor != 200_000 {
		t.Fatalf("spent = %d %v, want 200000", spent.Minor, err)
	}

	raw, _ := json.Marshal([]core.Transaction{
		{ID: "a", Date: now, Amount: core.NewMoney(200_000), Type: core.Expense, Category: core.Food},
		{ID: "b", Date: now, Amount: core.NewMoney(5), Type: core.Expense, Category: core.Food},
	})
	if err := s.Set(ctx, storage.KeyTransactions, raw); err != nil {
		t.Fatal(err)
	}
	spent, err = e.SpentInCurrentMonth(ctx, core.Food)
	if err != nil || spent.Minor != 200_005 {
		t.Fatalf("spent = %d %v, want 200005", spent.Minor, err)
	}
}

func TestSetAndRemoveBudget(t *testing.T) {
	ctx := context.Background()
	e, _ := newEvaluator(t, time.Now(), nil)

	if _, err := e.SetBudget(ctx, core.Budget{Category: core.Food, Limit: core.NewMoney(600)}); err != nil {
		t.Fatal(err)
	}
	budgets, err := e.SetBudget(ctx, core.Budget{Category: core.Food, Limit: core.NewMoney(700)})
	if err != nil {
		t.Fatal(err)
	}
	if len(budgets) != 1 || budgets[0].Limit.Minor != 700 {
		t.Fatalf("expected a single replaced budget, got %+v", budgets)
	}

	if _, err := e.SetBudget(ctx, core.Budget{Category: core.Food}); !errors.Is(err, core.ErrInvalidAmount) {
		t.Fatalf("expected ErrInvalidAmount, got %v", err)
	}
	if _, err := e.SetBudget(ctx, core.Budget{Limit: core.NewMoney(1)}); !errors.Is(err, core.ErrEmptyCategory) {
		t.Fatalf("expected ErrEmptyCategory, got %v", err)
	}

	budgets, err = e.RemoveBudget(ctx, core.Food)
	if err != nil || len(budgets) != 0 {
		t.Fatalf("RemoveBudget = %+v %v", budgets, err)
	}
	stored, err := e.Budgets(ctx)
	if err != nil || len(stored) != 0 {
		t.Fatalf("Budgets = %+v %v", stored, err)
	}
}

func TestBudgetsIgnoreCategoryCase(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 2, 14, 0, 0, 0, 0, time.UTC)
	e, _ := newEvaluator(t, now, []core.Transaction{
		{ID: "a", Date: now, Amount: core.NewMoney(700_000), Type: core.Expense, Category: "FOOD"},
	})

	if _, err := e.SetBudget(ctx, core.Budget{Category: core.Food, Limit: core.NewMoney(600_000)}); err != nil {
		t.Fatal(err)
	}
	budgets, err := e.SetBudget(ctx, core.Budget{Category: "food", Limit: core.NewMoney(100)})
	if err != nil {
		t.Fatal(err)
	}
	if len(budgets) != 1 || budgets[0].Category != core.Food || budgets[0].Limit.Minor != 100 {
		t.Fatalf("expected one Food budget with limit 100, got %+v", budgets)
	}

	if b, ok := Find(budgets, "FOOD"); !ok || b.Category != core.Food {
		t.Fatalf("Find(FOOD) = %+v %v", b, ok)
	}
	spent, err := e.SpentInCurrentMonth(ctx, core.Food)
	if err != nil || spent.Minor != 700_000 {
		t.Fatalf("spent = %d %v, want 700000", spent.Minor, err)
	}

	budgets, err = e.RemoveBudget(ctx, "fOoD")
	if err != nil || len(budgets) != 0 {
		t.Fatalf("RemoveBudget = %+v %v", budgets, err)
	}
}

func TestEvaluate(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 2, 14, 0, 0, 0, 0, time.UTC)
	e, _ := newEvaluator(t, now, []core.Transaction{
		{ID: "a", Date: now, Amount: core.NewMoney(650), Type: core.Expense, Category: core.Food},
		{ID: "b", Date: now, Amount: core.NewMoney(250), Type: core.Expense, Category: core.Shopping},
	})
	for _, b := range []core.Budget{
		{Category: core.Food, Limit: core.NewMoney(600)},
		{Category: core.Shopping, Limit: core.NewMoney(300)},
		{Category: core.Transport, Limit: core.NewMoney(150)},
	} {
		if _, err := e.SetBudget(ctx, b); err != nil {
			t.Fatal(err)
		}
	}

	statuses, err := e.Evaluate(ctx)
	if err != nil {
		t.Fatal(err)
	}
	want := map[core.Category]State{core.Food: Exceeded, core.Shopping: Warning, core.Transport: OK}
	for _, s := range statuses {
		if s.State != want[s.Budget.Category] {
			t.Errorf("%s = %s, want %s", s.Budget.Category, s.State, want[s.Budget.Category])
		}
	}
	if statuses[0].Overage.Minor != 50 {
		t.Errorf("Food overage = %d, want 50", statuses[0].Overage.Minor)
	}
}
