package core

import (
	"sort"
	"time"
)

// CategoryAmount represents an amount aggregated by category name.
type CategoryAmount struct {
	Name   Category `json:"name"`
	Amount Money    `json:"amount"`
}

// MonthOverview is a compact summary for a specific year+month.
type MonthOverview struct {
	Year       int              `json:"year"`
	Month      int              `json:"month"` // 1-12
	Income     Money            `json:"income"`
	Expenses   Money            `json:"expenses"`
	ByCategory []CategoryAmount `json:"byCategory"`
}

// Net returns income minus expenses.
func (m MonthOverview) Net() Money {
	return m.Income.Sub(m.Expenses)
}

// Summarize builds the overview of txs dated in the given month, evaluated
// in loc. Expense categories are sorted by amount, largest first.
func Summarize(txs []Transaction, year int, month time.Month, loc *time.Location) MonthOverview {
	ref := time.Date(year, month, 1, 0, 0, 0, 0, loc)
	ov := MonthOverview{Year: year, Month: int(month)}
	byCat := make(map[Category]Money)
	for _, t := range txs {
		if !SameMonth(t.Date, ref) {
			continue
		}
		switch t.Type {
		case Income:
			ov.Income = ov.Income.Add(t.Amount)
		case Expense:
			ov.Expenses = ov.Expenses.Add(t.Amount)
			byCat[t.Category] = byCat[t.Category].Add(t.Amount)
		}
	}
	for name, amount := range byCat {
		ov.ByCategory = append(ov.ByCategory, CategoryAmount{Name: name, Amount: amount})
	}
	sort.Slice(ov.ByCategory, func(i, j int) bool {
		a, b := ov.ByCategory[i], ov.ByCategory[j]
		if a.Amount.Minor != b.Amount.Minor {
			return a.Amount.Minor > b.Amount.Minor
		}
		return a.Name < b.Name
	})
	return ov
}
