package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"manicash/internal/ai"
	"manicash/internal/amqp"
	"manicash/internal/budget"
	"manicash/internal/core"
	"manicash/internal/fixedcost"
	"manicash/internal/goal"
	"manicash/internal/household"
	"manicash/internal/insight"
	"manicash/internal/ledger"
	mlog "manicash/internal/log"
	"manicash/internal/storage"
)

// Publisher sends ledger events. *amqp.Client satisfies it.
type Publisher interface {
	Publish(ctx context.Context, event *amqp.LedgerEvent) error
}

// FinanceService turns user actions into engine mutations, runs the insight
// trigger on recorded expenses and publishes the committed results.
// Publishing and commentary never fail an action.
type FinanceService struct {
	ledger      *ledger.Engine
	budgets     *budget.Evaluator
	goals       *goal.Engine
	fixedCosts  *fixedcost.Scheduler
	directory   *household.Directory
	trigger     *insight.Trigger
	commentator *insight.Commentator
	publisher   Publisher
	householdID string
}

type options struct {
	now         func() time.Time
	newID       func() string
	householdID string
	cacheSize   int
	cacheTTL    time.Duration
}

type Option func(*options)

func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

func WithIDGenerator(fn func() string) Option {
	return func(o *options) { o.newID = fn }
}

// WithHousehold tags published events with the household id.
func WithHousehold(id string) Option {
	return func(o *options) { o.householdID = id }
}

func WithInsightCache(size int, ttl time.Duration) Option {
	return func(o *options) {
		o.cacheSize = size
		o.cacheTTL = ttl
	}
}

// NewFinanceService wires the engines over repo. gen and publisher may be
// nil.
func NewFinanceService(repo *storage.Repo, gen ai.Generator, publisher Publisher, opts ...Option) *FinanceService {
	o := options{now: time.Now, cacheSize: 64}
	for _, opt := range opts {
		opt(&o)
	}

	ledgerOpts := []ledger.Option{ledger.WithClock(o.now)}
	goalOpts := []goal.Option{goal.WithClock(o.now)}
	costOpts := []fixedcost.Option{fixedcost.WithClock(o.now)}
	if o.newID != nil {
		ledgerOpts = append(ledgerOpts, ledger.WithIDGenerator(o.newID))
		goalOpts = append(goalOpts, goal.WithIDGenerator(o.newID))
		costOpts = append(costOpts, fixedcost.WithIDGenerator(o.newID))
	}

	led := ledger.New(repo, ledgerOpts...)
	commentator := insight.NewCommentator(gen, o.cacheSize, o.cacheTTL)
	return &FinanceService{
		ledger:      led,
		budgets:     budget.New(repo, budget.WithClock(o.now)),
		goals:       goal.New(repo, goalOpts...),
		fixedCosts:  fixedcost.New(repo, led, costOpts...),
		directory:   household.NewDirectory(repo),
		trigger:     insight.NewTrigger(repo, commentator, insight.WithClock(o.now)),
		commentator: commentator,
		publisher:   publisher,
		householdID: o.householdID,
	}
}

func (s *FinanceService) Ledger() *ledger.Engine            { return s.ledger }
func (s *FinanceService) Budgets() *budget.Evaluator        { return s.budgets }
func (s *FinanceService) Goals() *goal.Engine               { return s.goals }
func (s *FinanceService) FixedCosts() *fixedcost.Scheduler  { return s.fixedCosts }
func (s *FinanceService) Directory() *household.Directory   { return s.directory }
func (s *FinanceService) Commentator() *insight.Commentator { return s.commentator }

// Recorded is the outcome of recording a transaction.
type Recorded struct {
	Wallet      core.Wallet
	Transaction core.Transaction
	Reflection  insight.Reflection
}

// RecordTransaction commits the transaction, evaluates the insight trigger
// against fresh state and publishes the result.
func (s *FinanceService) RecordTransaction(ctx context.Context, t core.Transaction) (Recorded, error) {
	w, stored, err := s.ledger.RecordTransaction(ctx, t)
	if err != nil {
		return Recorded{}, err
	}

	r := Recorded{Wallet: w, Transaction: stored}
	slog.InfoContext(ctx, "Recorded transaction", mlog.NewFields().
		WithOperation(mlog.OpRecord).
		WithHousehold(s.householdID).
		WithTransaction(stored).
		ToSlice()...)
	r.Reflection = s.trigger.Evaluate(ctx, stored)

	s.publish(ctx, amqp.NewTransactionRecorded(stored, w))
	if r.Reflection.Triggered {
		s.publish(ctx, amqp.NewBudgetExceeded(alertFor(r.Reflection.Decision), stored))
	}
	return r, nil
}

// TransactionComment is the short butler remark shown after recording.
func (s *FinanceService) TransactionComment(ctx context.Context, tx core.Transaction) string {
	return s.commentator.TransactionComment(ctx, tx)
}

// Contribute moves money from a wallet into a goal. Insufficient funds is
// reported in the result and publishes nothing.
func (s *FinanceService) Contribute(ctx context.Context, goalID, walletID string, amount core.Money, note, contributorID string) (goal.Contribution, error) {
	c, err := s.goals.Contribute(ctx, goalID, walletID, amount, note, contributorID)
	if err != nil || !c.OK() {
		return c, err
	}
	s.publish(ctx, amqp.NewGoalContributed(c.Goal, c.Wallet, c.Round))
	return c, nil
}

// FixedCostPayment is the outcome of paying a fixed cost.
type FixedCostPayment struct {
	Cost        core.FixedCost
	Transaction core.Transaction
	Reflection  insight.Reflection
}

// PayFixedCost records the payment and advances the schedule.
func (s *FinanceService) PayFixedCost(ctx context.Context, costID, walletID string) (FixedCostPayment, error) {
	paid, stored, err := s.fixedCosts.Pay(ctx, costID, walletID)
	if err != nil {
		return FixedCostPayment{}, err
	}
	p := FixedCostPayment{Cost: paid, Transaction: stored}
	p.Reflection = s.paid(ctx, paid, stored)
	return p, nil
}

func (s *FinanceService) paid(ctx context.Context, c core.FixedCost, tx core.Transaction) insight.Reflection {
	w, err := s.ledger.Wallet(ctx, tx.WalletID)
	if err != nil {
		slog.WarnContext(ctx, "Could not read wallet after payment", "wallet_id", tx.WalletID, "error", err)
	}
	s.publish(ctx, amqp.NewFixedCostPaid(c, tx, w))

	r := s.trigger.Evaluate(ctx, tx)
	if r.Triggered {
		s.publish(ctx, amqp.NewBudgetExceeded(alertFor(r.Decision), tx))
	}
	return r
}

// ProcessDueFixedCosts handles every fixed cost due at now. With autopay
// each cost is paid from walletID; otherwise a fixedcost.due event is
// published per cost. It returns how many costs were handled.
func (s *FinanceService) ProcessDueFixedCosts(ctx context.Context, now time.Time, autopay bool, walletID string) (int, error) {
	if autopay {
		if walletID == "" {
			return 0, core.Invalid("walletId", fmt.Errorf("%w: autopay needs a wallet", core.ErrUnknownWallet))
		}
		return s.fixedCosts.ProcessDue(ctx, now, walletID, func(c core.FixedCost, tx core.Transaction) {
			s.paid(ctx, c, tx)
		})
	}

	due, err := s.fixedCosts.Due(ctx, now)
	if err != nil {
		return 0, fmt.Errorf("failed to list due fixed costs: %w", err)
	}
	for _, c := range due {
		slog.InfoContext(ctx, "Fixed cost due",
			"fixed_cost_id", c.ID,
			"title", c.Title,
			"amount", c.Amount.Minor,
			"next_due_date", c.NextDueDate)
		s.publish(ctx, amqp.NewFixedCostDue(c))
	}
	return len(due), nil
}

// Digest returns the dashboard insight and badge for the current ledger.
func (s *FinanceService) Digest(ctx context.Context) (insight.Digest, error) {
	txs, err := s.ledger.ListTransactions(ctx)
	if err != nil {
		return insight.Digest{}, err
	}
	users, err := s.directory.Users(ctx)
	if err != nil {
		return insight.Digest{}, err
	}
	return s.commentator.Digest(ctx, txs, users), nil
}

// Report gathers the ledger state and asks for the comprehensive report.
func (s *FinanceService) Report(ctx context.Context) (*insight.FinancialReport, error) {
	in, err := s.reportInput(ctx)
	if err != nil {
		return nil, err
	}
	return s.commentator.Report(ctx, in)
}

func (s *FinanceService) ProsperityPlan(ctx context.Context) (*insight.ProsperityPlan, error) {
	in, err := s.reportInput(ctx)
	if err != nil {
		return nil, err
	}
	return s.commentator.ProsperityPlan(ctx, in.Transactions, in.FixedCosts, in.Goals)
}

func (s *FinanceService) IncomePlan(ctx context.Context, idea string) (*insight.IncomePlan, error) {
	return s.commentator.IncomePlan(ctx, idea)
}

func (s *FinanceService) reportInput(ctx context.Context) (insight.ReportInput, error) {
	var (
		in  insight.ReportInput
		err error
	)
	if in.Transactions, err = s.ledger.ListTransactions(ctx); err != nil {
		return in, err
	}
	if in.Goals, err = s.goals.ListGoals(ctx); err != nil {
		return in, err
	}
	if in.Budgets, err = s.budgets.Evaluate(ctx); err != nil {
		return in, err
	}
	if in.FixedCosts, err = s.fixedCosts.ListFixedCosts(ctx); err != nil {
		return in, err
	}
	return in, nil
}

func (s *FinanceService) publish(ctx context.Context, event *amqp.LedgerEvent) {
	if s.publisher == nil {
		slog.DebugContext(ctx, "Event publisher not available, skipping event", "type", event.Type)
		return
	}
	event.Household = s.householdID
	if err := s.publisher.Publish(ctx, event); err != nil {
		slog.ErrorContext(ctx, "Failed to publish ledger event",
			"type", event.Type,
			"error", err)
	}
}

func alertFor(d insight.Decision) amqp.BudgetAlert {
	return amqp.BudgetAlert{Category: d.Category, Spent: d.Spent, Limit: d.Limit, Overage: d.Overage}
}
