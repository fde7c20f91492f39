package household

import (
	"context"
	"log/slog"

	"manicash/internal/core"
	"manicash/internal/storage"
)

func DefaultUsers() []core.User {
	return []core.User{
		{ID: "u1", Name: "Alex", Avatar: "🦊"},
		{ID: "u2", Name: "Sam", Avatar: "🐼"},
	}
}

func DefaultWallets() []core.Wallet {
	return []core.Wallet{
		{ID: "w1", UserID: "u1", Name: "Alex's Stash", Balance: core.NewMoney(2450)},
		{ID: "w2", UserID: "u2", Name: "Sam's Vault", Balance: core.NewMoney(3100)},
	}
}

func DefaultBudgets() []core.Budget {
	return []core.Budget{
		{Category: core.Food, Limit: core.NewMoney(600)},
		{Category: core.Shopping, Limit: core.NewMoney(300)},
		{Category: core.Entertainment, Limit: core.NewMoney(200)},
		{Category: core.Transport, Limit: core.NewMoney(150)},
	}
}

func DefaultGoals() []core.Goal {
	return []core.Goal{{
		ID:            "g1",
		Name:          "Dream House Downpayment",
		TargetAmount:  core.NewMoney(50000),
		CurrentAmount: core.NewMoney(12500),
		Deadline:      "2026-01-01",
		Rounds: []core.ContributionRound{
			{ID: "r1", Date: "2024-01-15", Amount: core.NewMoney(5000), ContributorID: "u1", Note: "Bonus"},
			{ID: "r2", Date: "2024-02-20", Amount: core.NewMoney(7500), ContributorID: "u2", Note: "Savings"},
		},
	}}
}

// Seed writes the default household for every collection that is still
// absent and returns the keys it wrote. Existing data is never touched.
func Seed(ctx context.Context, repo *storage.Repo) ([]string, error) {
	defaults := []struct {
		key   string
		value any
	}{
		{storage.KeyUsers, DefaultUsers()},
		{storage.KeyWallets, DefaultWallets()},
		{storage.KeyTransactions, []core.Transaction{}},
		{storage.KeyCategories, core.DefaultCategories()},
		{storage.KeyBudgets, DefaultBudgets()},
		{storage.KeyGoals, DefaultGoals()},
		{storage.KeyFixedCosts, []core.FixedCost{}},
		{storage.KeyTheme, ThemeLight},
	}
	keys := make([]string, len(defaults))
	for i, d := range defaults {
		keys[i] = d.key
	}

	var written []string
	err := repo.Update(ctx, keys, func(tx *storage.Tx) error {
		for _, d := range defaults {
			var existing any
			found, err := tx.Get(d.key, &existing)
			if err != nil {
				return err
			}
			if found {
				continue
			}
			if err := tx.Put(d.key, d.value); err != nil {
				return err
			}
			written = append(written, d.key)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	slog.InfoContext(ctx, "Seeded household defaults", "keys", written)
	return written, nil
}
