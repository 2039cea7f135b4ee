package domain

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

// Entry types.
const (
	EntryDeposit    = "deposit"
	EntryWithdrawal = "withdrawal"
	EntryTransfer   = "transfer"
	EntryPayment    = "payment"
	EntryRefund     = "refund"
	EntryCommission = "commission"
)

// Entry statuses. Completed, failed and cancelled are terminal.
const (
	EntryPending   = "pending"
	EntryCompleted = "completed"
	EntryFailed    = "failed"
	EntryCancelled = "cancelled"
)

var (
	// ErrEntryNotFound indicates that the ledger entry is not found.
	ErrEntryNotFound = errors.New("transaction not found")
	// ErrDuplicateReference indicates an insert collided with an existing
	// reference or gateway reference.
	ErrDuplicateReference = errors.New("duplicate transaction reference")
)

// Entry holds one balance change for an account. Entries are append-only:
// they are written in a terminal status and never mutated afterwards.
// ClosingBalance always equals OpeningBalance plus Amount.
type Entry struct {
	ID                  int64           `json:"id"`
	AccountID           int64           `json:"account_id"`
	Type                string          `json:"type"`
	Amount              decimal.Decimal `json:"amount"` // negative for debits
	OpeningBalance      decimal.Decimal `json:"balance_before"`
	ClosingBalance      decimal.Decimal `json:"balance_after"`
	Status              string          `json:"status"`
	Reference           string          `json:"reference_id"`
	CounterpartyName    string          `json:"counterparty_name,omitempty"`
	CounterpartyAccount string          `json:"counterparty_account,omitempty"`
	ExternalRef         string          `json:"external_ref,omitempty"`
	Metadata            EntryMetadata   `json:"metadata,omitempty"`
	CreatedAt           time.Time       `json:"created_at"`
}

// EntryMetadata is the structured audit payload attached to an entry.
// The ledger itself never reads it back.
type EntryMetadata struct {
	Direction        string `json:"direction,omitempty"` // debit or credit
	Description      string `json:"description,omitempty"`
	RelatedReference string `json:"related_reference,omitempty"`
	Gateway          string `json:"gateway,omitempty"`
	GatewayReference string `json:"gateway_reference,omitempty"`
	RequestID        int64  `json:"request_id,omitempty"`
	Device           string `json:"device,omitempty"`
	IP               string `json:"ip,omitempty"`
}

// CreateEntryParams is the input data to append one ledger entry.
type CreateEntryParams struct {
	AccountID           int64
	Type                string
	Amount              decimal.Decimal
	OpeningBalance      decimal.Decimal
	ClosingBalance      decimal.Decimal
	Status              string
	Reference           string
	CounterpartyName    string
	CounterpartyAccount string
	ExternalRef         string
	Metadata            EntryMetadata
}

// ListEntriesParams filters and paginates an account's transaction history.
type ListEntriesParams struct {
	Page   int32  `json:"page"`
	Limit  int32  `json:"limit"`
	Type   string `json:"type,omitempty"`
	Status string `json:"status,omitempty"`
}

// Pagination describes one page of a history listing.
type Pagination struct {
	Page       int32 `json:"page"`
	Limit      int32 `json:"limit"`
	Total      int64 `json:"total"`
	TotalPages int32 `json:"total_pages"`
}
