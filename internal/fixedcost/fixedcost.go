// Package fixedcost schedules recurring costs and pays them through the
// ledger.
package fixedcost

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"manicash/internal/core"
	"manicash/internal/ledger"
	"manicash/internal/storage"
)

// errNotDue reports that a cost listed as due was paid before ProcessDue
// reached it.
var errNotDue = errors.New("fixed cost no longer due")

// Scheduler is safe for concurrent use.
type Scheduler struct {
	repo   *storage.Repo
	ledger *ledger.Engine
	now    func() time.Time
	newID  func() string
}

type Option func(*Scheduler)

func WithClock(now func() time.Time) Option {
	return func(s *Scheduler) { s.now = now }
}

func WithIDGenerator(fn func() string) Option {
	return func(s *Scheduler) { s.newID = fn }
}

// New returns a scheduler writing payments through led. Both must share
// repo so the payment and the schedule update commit together.
func New(repo *storage.Repo, led *ledger.Engine, opts ...Option) *Scheduler {
	s := &Scheduler{repo: repo, ledger: led, now: time.Now, newID: uuid.NewString}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Pay records an EXPENSE in Bills for the cost amount against walletID,
// moves the due date forward by the cost frequency and clears the
// allocation. Ledger and schedule are committed as one unit; stores without
// atomic batches receive the transaction log first.
func (s *Scheduler) Pay(ctx context.Context, costID, walletID string) (core.FixedCost, core.Transaction, error) {
	return s.payAt(ctx, costID, walletID, s.now(), false)
}

// payAt pays costID dated at. With onlyDue set the cost is re-checked
// against the stored schedule and errNotDue is returned if it is not due.
func (s *Scheduler) payAt(ctx context.Context, costID, walletID string, at time.Time, onlyDue bool) (core.FixedCost, core.Transaction, error) {
	var (
		paid   core.FixedCost
		stored core.Transaction
	)
	keys := []string{storage.KeyTransactions, storage.KeyWallets, storage.KeyFixedCosts}
	err := s.repo.Update(ctx, keys, func(tx *storage.Tx) error {
		costs, err := costsIn(tx)
		if err != nil {
			return err
		}
		i := find(costs, costID)
		if i < 0 {
			return core.Invalid("fixedCostId", fmt.Errorf("%w: %s", core.ErrUnknownFixedCost, costID))
		}
		c := costs[i]
		if onlyDue {
			due, err := IsDue(c, at)
			if err != nil {
				return core.Invalid("nextDueDate", err)
			}
			if !due {
				return errNotDue
			}
		}

		next, err := Advance(c.NextDueDate, c.Frequency())
		if err != nil {
			return core.Invalid("nextDueDate", err)
		}

		_, stored, err = s.ledger.Append(tx, core.Transaction{
			Date:        at,
			Amount:      c.Amount,
			Type:        core.Expense,
			Category:    core.Bills,
			WalletID:    walletID,
			Description: c.Title,
		})
		if err != nil {
			return err
		}

		costs[i].NextDueDate = next
		costs[i].AllocatedAmount = core.Money{}
		paid = costs[i]
		return tx.Put(storage.KeyFixedCosts, costs)
	})
	if err != nil {
		return core.FixedCost{}, core.Transaction{}, err
	}

	slog.InfoContext(ctx, "Paid fixed cost",
		"fixed_cost_id", paid.ID,
		"title", paid.Title,
		"amount", paid.Amount.Minor,
		"transaction_id", stored.ID,
		"next_due_date", paid.NextDueDate)
	return paid, stored, nil
}

// Advance moves a calendar date forward by months. Days past the end of the
// target month roll into the following month.
func Advance(date string, months int) (string, error) {
	d, err := core.ParseDate(date)
	if err != nil {
		return "", err
	}
	if months <= 0 {
		months = 1
	}
	return d.AddDate(0, months, 0).Format(core.DateLayout), nil
}

// AddFixedCost stores a new recurring cost.
func (s *Scheduler) AddFixedCost(ctx context.Context, fc core.FixedCost) (core.FixedCost, error) {
	fc.Title = core.NormalizeName(fc.Title)
	if err := fc.Validate(); err != nil {
		return core.FixedCost{}, err
	}
	if fc.AllocatedAmount.Minor < 0 {
		return core.FixedCost{}, core.Invalid("allocatedAmount", core.ErrInvalidAmount)
	}
	d, _ := core.ParseDate(fc.NextDueDate)
	fc.NextDueDate = d.Format(core.DateLayout)
	if fc.ID == "" {
		fc.ID = s.newID()
	}

	err := s.repo.Update(ctx, []string{storage.KeyFixedCosts}, func(tx *storage.Tx) error {
		costs, err := costsIn(tx)
		if err != nil {
			return err
		}
		if find(costs, fc.ID) >= 0 {
			return core.Invalid("id", fmt.Errorf("%w: %s", core.ErrDuplicateID, fc.ID))
		}
		return tx.Put(storage.KeyFixedCosts, append(costs, fc))
	})
	if err != nil {
		return core.FixedCost{}, err
	}
	return fc, nil
}

func (s *Scheduler) ListFixedCosts(ctx context.Context) ([]core.FixedCost, error) {
	var costs []core.FixedCost
	if _, err := s.repo.Load(ctx, storage.KeyFixedCosts, &costs); err != nil {
		return nil, err
	}
	return costs, nil
}

// Allocate sets amount aside toward the next payment of costID. The
// allocation is bookkeeping only; no wallet is touched.
func (s *Scheduler) Allocate(ctx context.Context, costID string, amount core.Money) (core.FixedCost, error) {
	if err := amount.Validate(); err != nil {
		return core.FixedCost{}, core.Invalid("amount", err)
	}
	var updated core.FixedCost
	err := s.repo.Update(ctx, []string{storage.KeyFixedCosts}, func(tx *storage.Tx) error {
		costs, err := costsIn(tx)
		if err != nil {
			return err
		}
		i := find(costs, costID)
		if i < 0 {
			return core.Invalid("fixedCostId", fmt.Errorf("%w: %s", core.ErrUnknownFixedCost, costID))
		}
		costs[i].AllocatedAmount = costs[i].AllocatedAmount.Add(amount)
		updated = costs[i]
		return tx.Put(storage.KeyFixedCosts, costs)
	})
	return updated, err
}

// Due returns the costs whose next due date is on or before now's calendar
// day.
func (s *Scheduler) Due(ctx context.Context, now time.Time) ([]core.FixedCost, error) {
	costs, err := s.ListFixedCosts(ctx)
	if err != nil {
		return nil, err
	}
	var due []core.FixedCost
	for _, c := range costs {
		ok, err := IsDue(c, now)
		if err != nil {
			slog.WarnContext(ctx, "Skipping fixed cost with unreadable due date",
				"fixed_cost_id", c.ID, "next_due_date", c.NextDueDate, "error", err)
			continue
		}
		if ok {
			due = append(due, c)
		}
	}
	return due, nil
}

// IsDue reports whether c falls due on or before now's calendar day.
func IsDue(c core.FixedCost, now time.Time) (bool, error) {
	d, err := core.ParseDate(c.NextDueDate)
	if err != nil {
		return false, err
	}
	dueDay := time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, now.Location())
	return !dueDay.After(now), nil
}

// ProcessDue pays every cost due at now from walletID, once per call, and
// calls onPaid after each committed payment when it is not nil. Costs that
// fail are logged and skipped.
func (s *Scheduler) ProcessDue(ctx context.Context, now time.Time, walletID string, onPaid func(core.FixedCost, core.Transaction)) (int, error) {
	due, err := s.Due(ctx, now)
	if err != nil {
		return 0, fmt.Errorf("failed to list due fixed costs: %w", err)
	}

	slog.InfoContext(ctx, "Processing due fixed costs",
		"due", len(due),
		"processing_date", now.Format(core.DateLayout))

	processed := 0
	for _, c := range due {
		if err := ctx.Err(); err != nil {
			return processed, err
		}
		paid, stored, err := s.payAt(ctx, c.ID, walletID, now, true)
		if errors.Is(err, errNotDue) {
			slog.InfoContext(ctx, "Fixed cost already paid, skipping",
				"fixed_cost_id", c.ID,
				"title", c.Title)
			continue
		}
		if err != nil {
			slog.ErrorContext(ctx, "Failed to pay fixed cost",
				"fixed_cost_id", c.ID,
				"title", c.Title,
				"error", err)
			continue
		}
		processed++
		if onPaid != nil {
			onPaid(paid, stored)
		}
	}

	slog.InfoContext(ctx, "Fixed cost processing complete",
		"processed", processed,
		"total_due", len(due))
	return processed, nil
}

func costsIn(tx *storage.Tx) ([]core.FixedCost, error) {
	var costs []core.FixedCost
	if _, err := tx.Get(storage.KeyFixedCosts, &costs); err != nil {
		return nil, err
	}
	return costs, nil
}

func find(costs []core.FixedCost, id string) int {
	for i, c := range costs {
		if c.ID == id {
			return i
		}
	}
	return -1
}
