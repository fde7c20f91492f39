package core

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

const (
	Income   TransactionType = "INCOME"
	Expense  TransactionType = "EXPENSE"
	Transfer TransactionType = "TRANSFER"
)

// DateLayout is the calendar-date format used for deadlines and due dates.
const DateLayout = "2006-01-02"

type (
	TransactionType string

	Wallet struct {
		ID      string `json:"id"`
		UserID  string `json:"userId"`
		Name    string `json:"name"`
		Balance Money  `json:"balance"`
	}

	// Transaction is an immutable ledger entry. Amount is always a positive
	// magnitude; Type decides the sign applied to the wallet.
	Transaction struct {
		ID          string          `json:"id"`
		Date        time.Time       `json:"date"`
		Amount      Money           `json:"amount"`
		Type        TransactionType `json:"type"`
		Category    Category        `json:"category"`
		WalletID    string          `json:"walletId"`
		Description string          `json:"description"`
		Timestamp   int64           `json:"timestamp"` // unix millis at creation
	}

	Budget struct {
		Category Category `json:"category"`
		Limit    Money    `json:"limit"`
	}

	Goal struct {
		ID            string              `json:"id"`
		Name          string              `json:"name"`
		TargetAmount  Money               `json:"targetAmount"`
		CurrentAmount Money               `json:"currentAmount"`
		Deadline      string              `json:"deadline"`
		Rounds        []ContributionRound `json:"rounds"`
	}

	ContributionRound struct {
		ID            string `json:"id"`
		Date          string `json:"date"`
		Amount        Money  `json:"amount"`
		ContributorID string `json:"contributorId"`
		Note          string `json:"note"`
	}

	FixedCost struct {
		ID              string `json:"id"`
		Title           string `json:"title"`
		Amount          Money  `json:"amount"`
		NextDueDate     string `json:"nextDueDate"`
		FrequencyMonths int    `json:"frequencyMonths,omitempty"`
		AllocatedAmount Money  `json:"allocatedAmount"`
	}

	User struct {
		ID     string `json:"id"`
		Name   string `json:"name"`
		Avatar string `json:"avatar"`
	}
)

var (
	ErrInvalidAmount    = errors.New("invalid amount")
	ErrInvalidType      = errors.New("invalid transaction type")
	ErrInvalidDate      = errors.New("invalid date")
	ErrEmptyName        = errors.New("empty name")
	ErrEmptyCategory    = errors.New("empty category")
	ErrUnknownWallet    = errors.New("unknown wallet")
	ErrUnknownGoal      = errors.New("unknown goal")
	ErrUnknownFixedCost = errors.New("unknown fixed cost")
	ErrUnknownUser      = errors.New("unknown user")
	ErrDuplicateID      = errors.New("duplicate id")
)

// ValidationError reports bad input rejected before any mutation.
type ValidationError struct {
	Field string
	Err   error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed on %s: %v", e.Field, e.Err)
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

// Invalid builds a ValidationError for field.
func Invalid(field string, err error) error {
	return &ValidationError{Field: field, Err: err}
}

// IsValidation reports whether err is (or wraps) a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

func (t TransactionType) Valid() bool {
	switch t {
	case Income, Expense, Transfer:
		return true
	default:
		return false
	}
}

// Sign returns the multiplier applied to the wallet balance.
// TRANSFER only debits the source wallet.
func (t TransactionType) Sign() int64 {
	if t == Income {
		return 1
	}
	return -1
}

// Effect returns the signed amount the transaction applies to its wallet.
func (tx Transaction) Effect() Money {
	return Money{Minor: tx.Amount.Minor * tx.Type.Sign()}
}

func (tx Transaction) Validate() error {
	if err := tx.Amount.Validate(); err != nil {
		return Invalid("amount", err)
	}
	if !tx.Type.Valid() {
		return Invalid("type", fmt.Errorf("%w: %q", ErrInvalidType, tx.Type))
	}
	if strings.TrimSpace(tx.WalletID) == "" {
		return Invalid("walletId", ErrUnknownWallet)
	}
	if strings.TrimSpace(string(tx.Category)) == "" {
		return Invalid("category", ErrEmptyCategory)
	}
	if len(tx.Description) > 200 {
		return Invalid("description", errors.New("description too long (max 200 characters)"))
	}
	return nil
}

func (b Budget) Validate() error {
	if strings.TrimSpace(string(b.Category)) == "" {
		return Invalid("category", ErrEmptyCategory)
	}
	if err := b.Limit.Validate(); err != nil {
		return Invalid("limit", err)
	}
	return nil
}

func (fc FixedCost) Validate() error {
	if strings.TrimSpace(fc.Title) == "" {
		return Invalid("title", ErrEmptyName)
	}
	if err := fc.Amount.Validate(); err != nil {
		return Invalid("amount", err)
	}
	if _, err := ParseDate(fc.NextDueDate); err != nil {
		return Invalid("nextDueDate", err)
	}
	if fc.FrequencyMonths < 0 {
		return Invalid("frequencyMonths", errors.New("frequency must not be negative"))
	}
	return nil
}

// Frequency returns the number of months between payments, defaulting to 1.
func (fc FixedCost) Frequency() int {
	if fc.FrequencyMonths <= 0 {
		return 1
	}
	return fc.FrequencyMonths
}

// ParseDate accepts a calendar date (2006-01-02) or an RFC 3339 timestamp.
// Calendar dates are interpreted as midnight UTC.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, ErrInvalidDate
	}
	if t, err := time.Parse(DateLayout, s); err == nil {
		return t, nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDate, s)
}

// SameMonth reports whether a and b fall in the same calendar month and year,
// comparing in b's location.
func SameMonth(a, b time.Time) bool {
	a = a.In(b.Location())
	return a.Year() == b.Year() && a.Month() == b.Month()
}

// NormalizeName trims and collapses internal whitespace.
func NormalizeName(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
