// Package goal manages savings goals and the one guarded money movement in
// the system: contributing from a wallet to a goal.
package goal

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/google/uuid"

	"manicash/internal/core"
	"manicash/internal/ledger"
	"manicash/internal/storage"
)

type ContributionStatus string

const (
	Contributed       ContributionStatus = "CONTRIBUTED"
	InsufficientFunds ContributionStatus = "INSUFFICIENT_FUNDS"
)

// Contribution is the outcome of Contribute. When Status is
// InsufficientFunds nothing was written and Shortfall holds the missing
// amount; Goal and Wallet are the unchanged snapshots.
type Contribution struct {
	Status    ContributionStatus     `json:"status"`
	Goal      core.Goal              `json:"goal"`
	Wallet    core.Wallet            `json:"wallet"`
	Round     core.ContributionRound `json:"round"`
	Shortfall core.Money             `json:"shortfall"`
}

func (c Contribution) OK() bool {
	return c.Status == Contributed
}

type Engine struct {
	repo  *storage.Repo
	now   func() time.Time
	newID func() string
}

type Option func(*Engine)

func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

func WithIDGenerator(fn func() string) Option {
	return func(e *Engine) { e.newID = fn }
}

func New(repo *storage.Repo, opts ...Option) *Engine {
	e := &Engine{repo: repo, now: time.Now, newID: uuid.NewString}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// CreateGoal adds an empty goal. The deadline accepts a calendar date or an
// RFC 3339 timestamp and is stored as a calendar date.
func (e *Engine) CreateGoal(ctx context.Context, name string, target core.Money, deadline string) (core.Goal, error) {
	name = core.NormalizeName(name)
	if name == "" {
		return core.Goal{}, core.Invalid("name", core.ErrEmptyName)
	}
	if err := target.Validate(); err != nil {
		return core.Goal{}, core.Invalid("targetAmount", err)
	}
	d, err := core.ParseDate(deadline)
	if err != nil {
		return core.Goal{}, core.Invalid("deadline", err)
	}

	g := core.Goal{
		ID:           e.newID(),
		Name:         name,
		TargetAmount: target,
		Deadline:     d.Format(core.DateLayout),
		Rounds:       []core.ContributionRound{},
	}
	err = e.repo.Update(ctx, []string{storage.KeyGoals}, func(tx *storage.Tx) error {
		var goals []core.Goal
		if _, err := tx.Get(storage.KeyGoals, &goals); err != nil {
			return err
		}
		return tx.Put(storage.KeyGoals, append(goals, g))
	})
	if err != nil {
		return core.Goal{}, err
	}
	return g, nil
}

// Contribute moves amount from walletID into goalID. Insufficient balance is
// reported through the result status with a nil error. On success the wallet
// debit, the new round and the goal total are committed together.
func (e *Engine) Contribute(ctx context.Context, goalID, walletID string, amount core.Money, note, contributorID string) (Contribution, error) {
	if err := amount.Validate(); err != nil {
		return Contribution{}, core.Invalid("amount", err)
	}

	var res Contribution
	err := e.repo.Update(ctx, []string{storage.KeyGoals, storage.KeyWallets}, func(tx *storage.Tx) error {
		wallets, err := ledger.WalletsIn(tx)
		if err != nil {
			return err
		}
		wi := ledger.FindWallet(wallets, walletID)
		if wi < 0 {
			return core.Invalid("walletId", fmt.Errorf("%w: %s", core.ErrUnknownWallet, walletID))
		}

		goals, err := goalsIn(tx)
		if err != nil {
			return err
		}
		gi := find(goals, goalID)
		if gi < 0 {
			return core.Invalid("goalId", fmt.Errorf("%w: %s", core.ErrUnknownGoal, goalID))
		}

		res.Wallet, res.Goal = wallets[wi], goals[gi]
		if wallets[wi].Balance.Minor < amount.Minor {
			res.Status = InsufficientFunds
			res.Shortfall = amount.Sub(wallets[wi].Balance)
			return nil
		}

		round := core.ContributionRound{
			ID:            e.newID(),
			Date:          e.now().Format(core.DateLayout),
			Amount:        amount,
			ContributorID: contributorID,
			Note:          core.NormalizeName(note),
		}
		wallets[wi].Balance = wallets[wi].Balance.Sub(amount)
		goals[gi].Rounds = append(goals[gi].Rounds, round)
		goals[gi].CurrentAmount = goals[gi].CurrentAmount.Add(amount)

		if err := tx.Put(storage.KeyWallets, wallets); err != nil {
			return err
		}
		if err := tx.Put(storage.KeyGoals, goals); err != nil {
			return err
		}
		res = Contribution{Status: Contributed, Goal: goals[gi], Wallet: wallets[wi], Round: round}
		return nil
	})
	if err != nil {
		return Contribution{}, err
	}

	if res.OK() {
		slog.InfoContext(ctx, "Contributed to goal",
			"goal_id", goalID, "wallet_id", walletID, "amount", amount.Minor,
			"current", res.Goal.CurrentAmount.Minor, "target", res.Goal.TargetAmount.Minor)
	} else {
		slog.InfoContext(ctx, "Goal contribution rejected for insufficient funds",
			"goal_id", goalID, "wallet_id", walletID, "shortfall", res.Shortfall.Minor)
	}
	return res, nil
}

func (e *Engine) ListGoals(ctx context.Context) ([]core.Goal, error) {
	var goals []core.Goal
	if _, err := e.repo.Load(ctx, storage.KeyGoals, &goals); err != nil {
		return nil, err
	}
	return goals, nil
}

func (e *Engine) Goal(ctx context.Context, id string) (core.Goal, error) {
	goals, err := e.ListGoals(ctx)
	if err != nil {
		return core.Goal{}, err
	}
	i := find(goals, id)
	if i < 0 {
		return core.Goal{}, fmt.Errorf("%w: %s", core.ErrUnknownGoal, id)
	}
	return goals[i], nil
}

// PercentFunded is min(100, round(current/target*100)).
func PercentFunded(g core.Goal) int {
	return core.Percent(g.CurrentAmount, g.TargetAmount)
}

// DaysRemaining is the number of days until the deadline, rounded up.
// It is negative once the deadline has passed.
func DaysRemaining(g core.Goal, now time.Time) (int, error) {
	d, err := core.ParseDate(g.Deadline)
	if err != nil {
		return 0, err
	}
	return int(math.Ceil(d.Sub(now).Hours() / 24)), nil
}

// RoundsTotal sums the contribution rounds of g.
func RoundsTotal(g core.Goal) core.Money {
	var total core.Money
	for _, r := range g.Rounds {
		total = total.Add(r.Amount)
	}
	return total
}

func goalsIn(tx *storage.Tx) ([]core.Goal, error) {
	var goals []core.Goal
	if _, err := tx.Get(storage.KeyGoals, &goals); err != nil {
		return nil, err
	}
	return goals, nil
}

func find(goals []core.Goal, id string) int {
	for i, g := range goals {
		if g.ID == id {
			return i
		}
	}
	return -1
}
