package amqp

import (
	"encoding/json"
	"fmt"
	"time"

	"manicash/internal/core"
)

type EventType string

const (
	TransactionRecorded EventType = "transaction.recorded"
	BudgetExceeded      EventType = "budget.exceeded"
	GoalContributed     EventType = "goal.contributed"
	FixedCostPaid       EventType = "fixedcost.paid"
	FixedCostDue        EventType = "fixedcost.due"
)

func (t EventType) Valid() bool {
	switch t {
	case TransactionRecorded, BudgetExceeded, GoalContributed, FixedCostPaid, FixedCostDue:
		return true
	}
	return false
}

// BudgetAlert describes a category that went over its limit.
type BudgetAlert struct {
	Category core.Category `json:"category"`
	Spent    core.Money    `json:"spent"`
	Limit    core.Money    `json:"limit"`
	Overage  core.Money    `json:"overage"`
}

// LedgerEvent is published after a mutation commits. It carries the
// committed records so consumers never read back from the store.
type LedgerEvent struct {
	Type        EventType               `json:"type"`
	Household   string                  `json:"household,omitempty"`
	Timestamp   time.Time               `json:"timestamp"`
	Transaction *core.Transaction       `json:"transaction,omitempty"`
	Wallet      *core.Wallet            `json:"wallet,omitempty"`
	Goal        *core.Goal              `json:"goal,omitempty"`
	Round       *core.ContributionRound `json:"round,omitempty"`
	FixedCost   *core.FixedCost         `json:"fixedCost,omitempty"`
	Budget      *BudgetAlert            `json:"budget,omitempty"`
}

func newEvent(t EventType) *LedgerEvent {
	return &LedgerEvent{Type: t, Timestamp: time.Now()}
}

func NewTransactionRecorded(tx core.Transaction, w core.Wallet) *LedgerEvent {
	e := newEvent(TransactionRecorded)
	e.Transaction = &tx
	e.Wallet = &w
	return e
}

func NewBudgetExceeded(alert BudgetAlert, tx core.Transaction) *LedgerEvent {
	e := newEvent(BudgetExceeded)
	e.Budget = &alert
	e.Transaction = &tx
	return e
}

func NewGoalContributed(g core.Goal, w core.Wallet, r core.ContributionRound) *LedgerEvent {
	e := newEvent(GoalContributed)
	e.Goal = &g
	e.Wallet = &w
	e.Round = &r
	return e
}

func NewFixedCostPaid(fc core.FixedCost, tx core.Transaction, w core.Wallet) *LedgerEvent {
	e := newEvent(FixedCostPaid)
	e.FixedCost = &fc
	e.Transaction = &tx
	e.Wallet = &w
	return e
}

func NewFixedCostDue(fc core.FixedCost) *LedgerEvent {
	e := newEvent(FixedCostDue)
	e.FixedCost = &fc
	return e
}

// ToJSON converts the event to JSON bytes
func (e *LedgerEvent) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

// LedgerEventFromJSON decodes an event and rejects unknown types.
func LedgerEventFromJSON(data []byte) (*LedgerEvent, error) {
	var e LedgerEvent
	if err := json.Unmarshal(data, &e); err != nil {
		return nil, err
	}
	if !e.Type.Valid() {
		return nil, fmt.Errorf("unknown event type %q", e.Type)
	}
	return &e, nil
}
