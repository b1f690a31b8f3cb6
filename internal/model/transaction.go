package model

import (
	"time"

	"github.com/rootzapp/storefront/internal/money"
)

// Transaction statuses as the upstream sends them.
const (
	TransactionCompleted = "Completed"
	TransactionPending   = "Pending"
)

// Transaction is one row of the wallet ledger.
type Transaction struct {
	ID          string       `json:"_id"`
	Date        time.Time    `json:"date"`
	Description string       `json:"description"`
	Amount      money.Amount `json:"amount"` // negative for withdrawals
	Status      string       `json:"status"`
}

// TransactionPage is the paginated ledger response: the requested slice plus
// the total page count so the UI can draw its pager.
type TransactionPage struct {
	Items      []Transaction `json:"items"`
	Page       int           `json:"page"`
	TotalPages int           `json:"totalPages"`
}
