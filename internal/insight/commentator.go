package insight

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"manicash/internal/ai"
	"manicash/internal/budget"
	"manicash/internal/cache"
	"manicash/internal/core"
)

const (
	butlerInstruction = "You are a sarcastic but loyal financial butler. " +
		"Capitalise only the first letter of each sentence and keep every reply under 20 words."

	cfoInstruction = "You are the virtual CFO of Manicash. Analyse the data and produce a health and prosperity report. " +
		"Narrative text stays lowercase except for the first letter of each sentence. " +
		"The labels FORECAST, WARNING, ALERT and BEST SOURCE are written in capitals."
)

// Fallback texts used when generation is unavailable or fails.
const (
	ReflectionFallback = "That was your choice."
	InsightUnavailable = "The AI is watching in silence."
	InsightFailed      = "The AI is busy counting interest."
	InsightEmpty       = "Spending habits noted."
)

const (
	recentForInsight    = 15
	recentForReport     = 30
	recentForProsperity = 15

	defaultDigestCacheTTL = 6 * time.Hour
)

// DefaultBadge is returned when no badge could be generated.
var DefaultBadge = Badge{Title: "The Mystery Spender", Description: "Nobody knows where the money went."}

type Badge struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

// Digest pairs the weekly insight with the badge, both shown on the
// dashboard.
type Digest struct {
	Insight string `json:"insight"`
	Badge   Badge  `json:"badge"`
}

type FinancialReport struct {
	HealthScore      int    `json:"healthScore"`
	HealthAnalysis   string `json:"healthAnalysis"`
	IncomeEfficiency string `json:"incomeEfficiency"`
	BudgetDiscipline string `json:"budgetDiscipline"`
	WealthVelocity   string `json:"wealthVelocity"`
	CFOAdvice        string `json:"cfoAdvice"`
}

type ProsperityPlan struct {
	StatusTitle       string   `json:"statusTitle"`
	StatusEmoji       string   `json:"statusEmoji"`
	HealthScore       int      `json:"healthScore"`
	Summary           string   `json:"summary"`
	SavingsStrategies []string `json:"savingsStrategies"`
	IncomeStrategies  []string `json:"incomeStrategies"`
	BadHabitToQuit    struct {
		Habit string `json:"habit"`
		Why   string `json:"why"`
	} `json:"badHabitToQuit"`
}

type IncomePlan struct {
	Name           string     `json:"name"`
	Description    string     `json:"description"`
	ExpectedIncome core.Money `json:"expectedIncome"`
	Milestones     []struct {
		Title       string `json:"title"`
		DaysFromNow int    `json:"daysFromNow"`
	} `json:"milestones"`
}

// Commentator turns ledger state into prompts. Every method degrades to a
// fallback or a nil result; none of them touch the ledger.
type Commentator struct {
	gen     ai.Generator
	digests *cache.LRUCache[Digest]
}

var _ Reflector = (*Commentator)(nil)

// NewCommentator returns a commentator whose digests are memoised in a
// cache of the given size and TTL.
func NewCommentator(gen ai.Generator, cacheSize int, cacheTTL time.Duration) *Commentator {
	if cacheTTL <= 0 {
		cacheTTL = defaultDigestCacheTTL
	}
	return &Commentator{gen: gen, digests: cache.NewLRUCache[Digest](cacheSize, cacheTTL)}
}

// Cache exposes the digest cache so it can be registered for cleanup.
func (c *Commentator) Cache() *cache.LRUCache[Digest] {
	return c.digests
}

// TransactionComment is a one-line remark on an expense, empty on failure.
func (c *Commentator) TransactionComment(ctx context.Context, tx core.Transaction) string {
	prompt := fmt.Sprintf("One very short sarcastic sentence about spending %s on %s.", tx.Amount, tx.Category)
	return ai.BestEffort(ctx, c.gen, ai.Request{Prompt: prompt, System: butlerInstruction}, "")
}

// Reflect asks for a reflection on an overspent category. An abandoned
// request yields no message.
func (c *Commentator) Reflect(ctx context.Context, category core.Category, overage core.Money) string {
	prompt := fmt.Sprintf("The user overspent by %s in the %s category. Write one short, sarcastic sentence inviting reflection.", overage, category)
	msg := ai.BestEffort(ctx, c.gen, ai.Request{Prompt: prompt, System: butlerInstruction}, ReflectionFallback)
	if ctx.Err() != nil {
		return ""
	}
	return msg
}

// WeeklyInsight comments on the latest transactions of the household.
func (c *Commentator) WeeklyInsight(ctx context.Context, txs []core.Transaction, users []core.User) string {
	names := make([]string, len(users))
	for i, u := range users {
		names[i] = u.Name
	}
	data, _ := json.Marshal(tail(txs, recentForInsight))
	prompt := fmt.Sprintf("Analyse the recent transactions of %s. Tone: slightly sarcastic but practical. At most two sentences. Data: %s",
		strings.Join(names, " & "), data)

	if c.gen == nil {
		return InsightUnavailable
	}
	text, err := c.gen.Generate(ctx, ai.Request{Prompt: prompt})
	switch {
	case errors.Is(err, ai.ErrUnavailable):
		return InsightUnavailable
	case err != nil:
		slog.WarnContext(ctx, "Weekly insight generation failed", "error", err)
		return InsightFailed
	case strings.TrimSpace(text) == "":
		return InsightEmpty
	}
	return strings.TrimSpace(text)
}

// Badge awards a tongue-in-cheek achievement based on txs.
func (c *Commentator) Badge(ctx context.Context, txs []core.Transaction) Badge {
	data, _ := json.Marshal(txs)
	prompt := fmt.Sprintf("Create a sarcastic achievement badge based on these transactions: %s. Return JSON {title, description}.", data)
	b, err := ai.GenerateJSON[Badge](ctx, c.gen, ai.Request{Prompt: prompt})
	if err != nil || strings.TrimSpace(b.Title) == "" {
		return DefaultBadge
	}
	return *b
}

// Digest fetches the weekly insight and the badge concurrently. Results are
// memoised by transaction count, so a new transaction refreshes them.
func (c *Commentator) Digest(ctx context.Context, txs []core.Transaction, users []core.User) Digest {
	key := fmt.Sprintf("digest:%d", len(txs))
	if d, ok := c.digests.Get(key); ok {
		return d
	}

	var d Digest
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		d.Insight = c.WeeklyInsight(gctx, txs, users)
		return nil
	})
	g.Go(func() error {
		d.Badge = c.Badge(gctx, txs)
		return nil
	})
	_ = g.Wait()

	if ctx.Err() == nil {
		c.digests.Set(key, d)
	}
	return d
}

// ReportInput is the ledger state a report is written from.
type ReportInput struct {
	Transactions []core.Transaction
	Goals        []core.Goal
	Budgets      []budget.Status
	FixedCosts   []core.FixedCost
}

// Report produces the comprehensive financial report. It returns nil and
// the cause when nothing usable came back.
func (c *Commentator) Report(ctx context.Context, in ReportInput) (*FinancialReport, error) {
	type budgetLine struct {
		Cat   core.Category `json:"cat"`
		Spent core.Money    `json:"spent"`
		Lim   core.Money    `json:"lim"`
	}
	type txLine struct {
		Cat core.Category `json:"cat"`
		Amt core.Money    `json:"amt"`
	}
	type goalLine struct {
		Name string     `json:"name"`
		Cur  core.Money `json:"cur"`
		Tar  core.Money `json:"tar"`
	}
	data := struct {
		Budgets    []budgetLine     `json:"budgets"`
		Recent     []txLine         `json:"recent"`
		Goals      []goalLine       `json:"goals"`
		FixedCosts []core.FixedCost `json:"fixedCosts"`
	}{FixedCosts: in.FixedCosts}
	for _, s := range in.Budgets {
		data.Budgets = append(data.Budgets, budgetLine{Cat: s.Budget.Category, Spent: s.Spent, Lim: s.Budget.Limit})
	}
	for _, t := range tail(in.Transactions, recentForReport) {
		data.Recent = append(data.Recent, txLine{Cat: t.Category, Amt: t.Amount})
	}
	for _, g := range in.Goals {
		data.Goals = append(data.Goals, goalLine{Name: g.Name, Cur: g.CurrentAmount, Tar: g.TargetAmount})
	}
	raw, _ := json.Marshal(data)

	prompt := fmt.Sprintf("Data: %s. Return a JSON FinancialReport: healthScore, healthAnalysis, incomeEfficiency, budgetDiscipline, wealthVelocity, cfoAdvice.", raw)
	report, err := ai.GenerateJSON[FinancialReport](ctx, c.gen, ai.Request{Prompt: prompt, System: cfoInstruction, Pro: true})
	if err != nil {
		return nil, err
	}
	report.HealthScore = clampScore(report.HealthScore)
	return report, nil
}

// ProsperityPlan suggests savings and income strategies.
func (c *Commentator) ProsperityPlan(ctx context.Context, txs []core.Transaction, costs []core.FixedCost, goals []core.Goal) (*ProsperityPlan, error) {
	type line struct {
		Name string      `json:"name"`
		Val  core.Money  `json:"val"`
		Cur  *core.Money `json:"current,omitempty"`
	}
	var data struct {
		Transactions []line `json:"transactions"`
		FixedCosts   []line `json:"fixedCosts"`
		Goals        []line `json:"goals"`
	}
	for _, t := range tail(txs, recentForProsperity) {
		data.Transactions = append(data.Transactions, line{Name: string(t.Category), Val: t.Amount})
	}
	for _, fc := range costs {
		data.FixedCosts = append(data.FixedCosts, line{Name: fc.Title, Val: fc.Amount})
	}
	for _, g := range goals {
		cur := g.CurrentAmount
		data.Goals = append(data.Goals, line{Name: g.Name, Val: g.TargetAmount, Cur: &cur})
	}
	raw, _ := json.Marshal(data)

	prompt := fmt.Sprintf("Data: %s. Return a JSON ProsperityPlan: statusTitle, statusEmoji, healthScore (0-100), summary, savingsStrategies[], incomeStrategies[], badHabitToQuit{habit, why}.", raw)
	plan, err := ai.GenerateJSON[ProsperityPlan](ctx, c.gen, ai.Request{Prompt: prompt, System: cfoInstruction, Pro: true})
	if err != nil {
		return nil, err
	}
	plan.HealthScore = clampScore(plan.HealthScore)
	return plan, nil
}

// IncomePlan drafts a plan for a side-income idea.
func (c *Commentator) IncomePlan(ctx context.Context, idea string) (*IncomePlan, error) {
	idea = core.NormalizeName(idea)
	if idea == "" {
		return nil, core.Invalid("idea", core.ErrEmptyName)
	}
	prompt := fmt.Sprintf("Draft a detailed income plan for the idea %q. Return JSON {name, description, expectedIncome, milestones: [{title, daysFromNow}]}.", idea)
	return ai.GenerateJSON[IncomePlan](ctx, c.gen, ai.Request{Prompt: prompt, Pro: true})
}

func clampScore(s int) int {
	if s < 0 {
		return 0
	}
	if s > 100 {
		return 100
	}
	return s
}

func tail[T any](s []T, n int) []T {
	if len(s) <= n {
		return s
	}
	return s[len(s)-n:]
}
