package domain

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

var (
	// ErrInvalidAmount indicates a malformed amount.
	ErrInvalidAmount = errors.New("invalid amount")
	// ErrNegativeAmount indicates a zero or negative amount.
	ErrNegativeAmount = errors.New("amount must be positive")
	// ErrTierCeilingExceeded indicates the amount is over the per-transaction
	// ceiling of the authorization tier used.
	ErrTierCeilingExceeded = errors.New("amount exceeds the per-transaction limit")
	// ErrLimitExceeded indicates the daily or monthly outgoing limit would be exceeded.
	ErrLimitExceeded = errors.New("transfer limit exceeded")
	// ErrRateLimited indicates too many transfers completed in the trailing window.
	ErrRateLimited = errors.New("too many transfers, try again later")
	// ErrInvalidOwner indicates the caller does not own the resource it acts on.
	ErrInvalidOwner = errors.New("unauthorized owner")
)

// CreateTransferParams is the caller-facing input of the Transfer Engine.
type CreateTransferParams struct {
	RecipientPhone string
	Amount         string
	Description    string
	Proof          string // MPIN for the basic tier, OTP for the secure tier
	Device         string
	IP             string
}

// TransferTxParams is the input of the atomic money-movement transaction.
// All balance, status and limit checks happen inside the transaction, after
// the row locks are taken.
type TransferTxParams struct {
	FromAccountID  int64
	ToAccountID    int64
	Amount         decimal.Decimal
	Description    string
	EntryType      string // transfer or payment
	FromName       string
	FromPhone      string
	ToName         string
	ToPhone        string
	CheckLimits    bool // enforce daily/monthly limits from the ledger
	CheckVelocity  bool // enforce the trailing-window transfer count
	VelocityLimit  int
	VelocityWindow time.Duration
	RequestID      int64 // set when settling a money request
	Device         string
	IP             string
}

// TransferTxResult is the outcome of a committed transfer.
type TransferTxResult struct {
	FromEntry   Entry   `json:"from_entry"`
	ToEntry     Entry   `json:"to_entry"`
	FromAccount Account `json:"from_account"`
	ToAccount   Account `json:"to_account"`
}

// TierCeilingError reports the tier ceiling alongside the rejected amount.
func TierCeilingError(tier string, ceiling, amount decimal.Decimal) error {
	return fmt.Errorf("%w for %s transfers. Limit: %s, Requested: %s",
		ErrTierCeilingExceeded, tier, ceiling.StringFixed(2), amount.StringFixed(2))
}

// LimitExceededError reports which window was exhausted and by how much.
func LimitExceededError(window string, spent, limit decimal.Decimal) error {
	return fmt.Errorf("%w: %s limit %s, already spent %s",
		ErrLimitExceeded, window, limit.StringFixed(2), spent.StringFixed(2))
}
