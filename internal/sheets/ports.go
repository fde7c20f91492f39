// Package sheets defines the spreadsheet mirror that recorded transactions
// are copied into.
package sheets

import (
	"context"

	"manicash/internal/core"
)

// Header is the first row of the mirror sheet.
var Header = []string{"Date", "Type", "Category", "Description", "Amount", "Wallet", "ID"}

// Row is one mirrored transaction, in Header order.
type Row struct {
	Date        string
	Type        string
	Category    string
	Description string
	Amount      string
	Wallet      string
	ID          string
}

// NewRow formats a transaction for the mirror. wallet is the display name,
// falling back to the wallet id when empty.
func NewRow(tx core.Transaction, wallet string) Row {
	if wallet == "" {
		wallet = tx.WalletID
	}
	return Row{
		Date:        tx.Date.Format(core.DateLayout),
		Type:        string(tx.Type),
		Category:    string(tx.Category),
		Description: tx.Description,
		Amount:      tx.Amount.String(),
		Wallet:      wallet,
		ID:          tx.ID,
	}
}

func (r Row) Values() []any {
	return []any{r.Date, r.Type, r.Category, r.Description, r.Amount, r.Wallet, r.ID}
}

// Ports for outbound adapters.
type (
	TransactionWriter interface {
		Append(ctx context.Context, r Row) (rowRef string, err error)
	}

	// TransactionIndex reports whether a transaction id is already mirrored,
	// so redelivered events do not add duplicate rows.
	TransactionIndex interface {
		Contains(ctx context.Context, id string) (bool, error)
	}

	Mirror interface {
		TransactionWriter
		TransactionIndex
	}
)
