package domain

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

// Money request statuses. Only pending requests may transition.
const (
	RequestPending   = "pending"
	RequestPaid      = "paid"
	RequestDeclined  = "declined"
	RequestCancelled = "cancelled"
	RequestExpired   = "expired"
)

var (
	// ErrRequestNotFound indicates that the money request is not found.
	ErrRequestNotFound = errors.New("money request not found")
	// ErrAlreadySettled indicates the request left the pending state already.
	ErrAlreadySettled = errors.New("money request already settled")
	// ErrRequestExpired indicates the request passed its expiry.
	ErrRequestExpired = errors.New("money request expired")
)

// MoneyRequest is a pending ask from the requester to the payer. Paying it is
// the only path that creates ledger entries on its behalf, and a pending
// request transitions to paid exactly once.
type MoneyRequest struct {
	ID                   int64           `json:"id"`
	RequesterID          int64           `json:"requester_id"`
	PayerID              int64           `json:"payer_id"`
	Amount               decimal.Decimal `json:"amount"`
	Description          string          `json:"description,omitempty"`
	Status               string          `json:"status"`
	ExpiresAt            time.Time       `json:"expires_at"`
	PaidAt               *time.Time      `json:"paid_at,omitempty"`
	TransactionReference string          `json:"transaction_reference,omitempty"`
	CreatedAt            time.Time       `json:"created_at"`
}

// Expired reports whether the request passed its expiry at the given instant.
func (r MoneyRequest) Expired(now time.Time) bool {
	return now.After(r.ExpiresAt)
}

// CreateMoneyRequestParams is the input data to create a money request.
type CreateMoneyRequestParams struct {
	RequesterID int64
	PayerID     int64
	Amount      decimal.Decimal
	Description string
	ExpiresAt   time.Time
}
