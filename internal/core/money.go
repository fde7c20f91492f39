// Package core provides money parsing and handling utilities.
//
// Amounts are whole counts of the currency's minor unit. Decoding is lenient
// so values written as decimals by older clients still load.
package core

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

type Money struct {
	Minor int64
}

// NewMoney returns an amount of minor units.
func NewMoney(minor int64) Money {
	return Money{Minor: minor}
}

func (m Money) Validate() error {
	if m.Minor <= 0 {
		return ErrInvalidAmount
	}
	return nil
}

func (m Money) Add(o Money) Money { return Money{Minor: m.Minor + o.Minor} }

func (m Money) Sub(o Money) Money { return Money{Minor: m.Minor - o.Minor} }

func (m Money) IsZero() bool { return m.Minor == 0 }

func (m Money) Decimal() decimal.Decimal {
	return decimal.NewFromInt(m.Minor)
}

func (m Money) String() string {
	return m.Decimal().String()
}

func (m Money) MarshalJSON() ([]byte, error) {
	return []byte(m.String()), nil
}

// UnmarshalJSON accepts integers, decimals and numeric strings.
func (m *Money) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*m = Money{}
		return nil
	}
	var raw string
	if len(data) > 0 && data[0] == '"' {
		if err := json.Unmarshal(data, &raw); err != nil {
			return err
		}
	} else {
		raw = string(data)
	}
	d, err := decimal.NewFromString(strings.TrimSpace(raw))
	if err != nil {
		return fmt.Errorf("decode money %q: %w", raw, err)
	}
	*m = FromDecimal(d)
	return nil
}

// FromDecimal rounds d half away from zero to a whole minor unit.
func FromDecimal(d decimal.Decimal) Money {
	return Money{Minor: d.Round(0).IntPart()}
}

// ParseAmount converts user input into a positive amount.
//
// It accepts a dot or a comma as decimal separator, ignores spaces used as
// thousands separators and rounds to a whole unit.
//
// Examples:
//
//	ParseAmount("200000")    -> 200000, nil
//	ParseAmount("1 500 000") -> 1500000, nil
//	ParseAmount("12,5")      -> 13, nil
func ParseAmount(s string) (Money, error) {
	s = strings.ReplaceAll(strings.TrimSpace(s), " ", "")
	if s == "" {
		return Money{}, ErrInvalidAmount
	}
	if strings.HasPrefix(s, "+") || strings.HasPrefix(s, "-") {
		return Money{}, ErrInvalidAmount
	}
	s = strings.ReplaceAll(s, ",", ".")
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Money{}, ErrInvalidAmount
	}
	m := FromDecimal(d)
	if err := m.Validate(); err != nil {
		return Money{}, err
	}
	return m, nil
}

// Percent returns round(part/whole*100) clamped to [0, 100].
// A non-positive whole yields 100 when part is positive, otherwise 0.
func Percent(part, whole Money) int {
	if whole.Minor <= 0 {
		if part.Minor > 0 {
			return 100
		}
		return 0
	}
	p := part.Decimal().Mul(decimal.NewFromInt(100)).Div(whole.Decimal()).Round(0).IntPart()
	if p > 100 {
		return 100
	}
	if p < 0 {
		return 0
	}
	return int(p)
}
