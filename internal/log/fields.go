package log

import (
	"sort"

	"manicash/internal/core"
)

// Common field names for structured logging
const (
	FieldComponent     = "component"
	FieldHousehold     = "household"
	FieldError         = "error"
	FieldOperation     = "operation"
	FieldTransactionID = "transaction_id"
	FieldWalletID      = "wallet_id"
	FieldGoalID        = "goal_id"
	FieldFixedCostID   = "fixed_cost_id"
	FieldCategory      = "category"
	FieldAmount        = "amount"
	FieldType          = "type"
	FieldEventType     = "event_type"
	FieldSheetsRef     = "sheets_ref"
)

// Components defines standard component names
const (
	ComponentApp       = "app"
	ComponentLedger    = "ledger"
	ComponentBudget    = "budget"
	ComponentGoal      = "goal"
	ComponentFixedCost = "fixedcost"
	ComponentInsight   = "insight"
	ComponentAI        = "ai"
	ComponentStorage   = "storage"
	ComponentBackend   = "backend"
	ComponentAMQP      = "amqp"
	ComponentWorker    = "worker"
	ComponentSheets    = "sheets"
	ComponentCache     = "cache"
	ComponentHousehold = "household"
)

// Operations defines standard operation names
const (
	OpRecord     = "record"
	OpContribute = "contribute"
	OpPay        = "pay"
	OpSeed       = "seed"
	OpSync       = "sync"
	OpPublish    = "publish"
	OpStartup    = "startup"
	OpShutdown   = "shutdown"
)

// LogFields provides a builder pattern for structured log fields
type LogFields map[string]any

// NewFields creates a new LogFields instance
func NewFields() LogFields {
	return make(LogFields)
}

func (f LogFields) WithOperation(op string) LogFields {
	f[FieldOperation] = op
	return f
}

func (f LogFields) WithHousehold(id string) LogFields {
	if id != "" {
		f[FieldHousehold] = id
	}
	return f
}

// WithError adds error field
func (f LogFields) WithError(err error) LogFields {
	if err != nil {
		f[FieldError] = err.Error()
	}
	return f
}

// WithTransaction adds the identifying fields of a transaction.
func (f LogFields) WithTransaction(tx core.Transaction) LogFields {
	f[FieldTransactionID] = tx.ID
	f[FieldWalletID] = tx.WalletID
	f[FieldType] = string(tx.Type)
	f[FieldCategory] = string(tx.Category)
	f[FieldAmount] = tx.Amount.Minor
	return f
}

// ToSlice converts LogFields to a key-sorted slice for slog
func (f LogFields) ToSlice() []any {
	keys := make([]string, 0, len(f))
	for k := range f {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	slice := make([]any, 0, len(f)*2)
	for _, k := range keys {
		slice = append(slice, k, f[k])
	}
	return slice
}
