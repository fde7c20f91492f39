package budget

import (
	"time"

	"github.com/shopspring/decimal"

	"manicash/internal/core"
)

type State string

const (
	OK       State = "OK"
	Warning  State = "WARNING"
	Exceeded State = "EXCEEDED"
)

// WarningPercent is the share of the limit at which a budget turns WARNING.
const WarningPercent = 70

// Classification is the state of one budget. Percent is for display and
// never exceeds 100; Overage is set only when Exceeded.
type Classification struct {
	State   State      `json:"state"`
	Percent int        `json:"percent"`
	Overage core.Money `json:"overage"`
}

// Classify compares spent against limit. The warning threshold is compared
// on the exact ratio, not the rounded display percent.
func Classify(spent, limit core.Money) Classification {
	c := Classification{State: OK, Percent: core.Percent(spent, limit)}
	switch {
	case spent.Minor > limit.Minor:
		c.State = Exceeded
		c.Overage = spent.Sub(limit)
	case limit.Minor > 0 && reachesWarning(spent, limit):
		c.State = Warning
	}
	return c
}

// reachesWarning reports spent/limit >= WarningPercent/100 without
// overflowing on large amounts.
func reachesWarning(spent, limit core.Money) bool {
	lhs := decimal.NewFromInt(spent.Minor).Mul(decimal.NewFromInt(100))
	rhs := decimal.NewFromInt(limit.Minor).Mul(decimal.NewFromInt(WarningPercent))
	return lhs.GreaterThanOrEqual(rhs)
}

// SpentInMonth sums EXPENSE amounts in category dated in the calendar month
// of now, in now's location. Categories match case-insensitively.
func SpentInMonth(txs []core.Transaction, category core.Category, now time.Time) core.Money {
	var spent core.Money
	for _, t := range txs {
		if t.Type != core.Expense || !t.Category.Is(category) {
			continue
		}
		if !core.SameMonth(t.Date, now) {
			continue
		}
		spent = spent.Add(t.Amount)
	}
	return spent
}

// Find returns the budget configured for category, ignoring case.
func Find(budgets []core.Budget, category core.Category) (core.Budget, bool) {
	for _, b := range budgets {
		if b.Category.Is(category) {
			return b, true
		}
	}
	return core.Budget{}, false
}
