// Package domain provides definitions of all entities.
package domain

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Account statuses. Transfers require both sides to be active.
const (
	AccountActive    = "active"
	AccountInactive  = "inactive"
	AccountSuspended = "suspended"
)

var (
	// ErrAccountNotFound indicates that the account is not found.
	ErrAccountNotFound = errors.New("account not found")
	// ErrAccountAlreadyExists indicates that the user already has an account.
	ErrAccountAlreadyExists = errors.New("account already exists")
	// ErrAccountInactive indicates that the account status forbids transfers.
	ErrAccountInactive = errors.New("account is not active")
	// ErrInsufficientFunds indicates that the available balance does not cover the amount.
	ErrInsufficientFunds = errors.New("insufficient balance")
	// ErrSelfTransfer indicates an attempt to transfer money to the same account.
	ErrSelfTransfer = errors.New("cannot transfer to your own account")
)

// Account holds a user's wallet balance. Balance never drops below
// FrozenBalance and FrozenBalance never drops below zero.
type Account struct {
	ID            int64           `json:"id"`
	UserID        int64           `json:"user_id"`
	Balance       decimal.Decimal `json:"balance"`
	FrozenBalance decimal.Decimal `json:"frozen_balance"`
	DailyLimit    decimal.Decimal `json:"daily_limit"`
	MonthlyLimit  decimal.Decimal `json:"monthly_limit"`
	Status        string          `json:"status"`
	CreatedAt     time.Time       `json:"created_at"`
}

// Available returns the spendable part of the balance.
func (a Account) Available() decimal.Decimal {
	return a.Balance.Sub(a.FrozenBalance)
}

// LimitUsage is the derived view of an account's outgoing spend against its
// configured limits, always recomputed from the ledger.
type LimitUsage struct {
	DailyLimit       decimal.Decimal `json:"daily_limit"`
	MonthlyLimit     decimal.Decimal `json:"monthly_limit"`
	DailySpent       decimal.Decimal `json:"daily_spent"`
	MonthlySpent     decimal.Decimal `json:"monthly_spent"`
	DailyRemaining   decimal.Decimal `json:"daily_remaining"`
	MonthlyRemaining decimal.Decimal `json:"monthly_remaining"`
}

// InsufficientFundsError reports the available and required amounts so the
// caller can resolve the rejection without another lookup.
func InsufficientFundsError(available, required decimal.Decimal) error {
	return fmt.Errorf("%w. Available: %s, Required: %s",
		ErrInsufficientFunds, available.StringFixed(2), required.StringFixed(2))
}
