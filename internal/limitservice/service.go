// Package limitservice computes transfer-limit usage from the ledger.
//
// Spend is always a derived read over completed outgoing entries, never a
// cached counter, so it stays consistent with the append-only log.
package limitservice

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/paisabook/paisabook/internal/domain"
)

// AccountService provides the account whose limits apply.
//
//go:generate mockgen -source service.go -destination service_mock.go -package limitservice
type AccountService interface {
	GetByUserID(ctx context.Context, userID int64) (domain.Account, error)
}

// Ledger aggregates completed outgoing transfer volume.
type Ledger interface {
	SumOutgoingSince(ctx context.Context, accountID int64, since time.Time) (decimal.Decimal, error)
}

// Service facilitates limit policy logic.
type Service struct {
	accounts AccountService
	ledger   Ledger
	now      func() time.Time
}

// New returns limit service struct to compute limit usage.
func New(as AccountService, ledger Ledger) *Service {
	return &Service{
		accounts: as,
		ledger:   ledger,
		now:      time.Now,
	}
}

// GetUsage returns the user's outgoing spend for the current calendar day and
// month together with the remaining headroom under each limit.
func (s *Service) GetUsage(ctx context.Context, userID int64) (domain.LimitUsage, error) {
	var usage domain.LimitUsage

	account, err := s.accounts.GetByUserID(ctx, userID)
	if err != nil {
		return usage, err
	}

	now := s.now()
	dayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())

	daySpent, err := s.ledger.SumOutgoingSince(ctx, account.ID, dayStart)
	if err != nil {
		return usage, err
	}

	monthSpent, err := s.ledger.SumOutgoingSince(ctx, account.ID, monthStart)
	if err != nil {
		return usage, err
	}

	usage = domain.LimitUsage{
		DailyLimit:       account.DailyLimit,
		MonthlyLimit:     account.MonthlyLimit,
		DailySpent:       daySpent,
		MonthlySpent:     monthSpent,
		DailyRemaining:   remaining(account.DailyLimit, daySpent),
		MonthlyRemaining: remaining(account.MonthlyLimit, monthSpent),
	}

	return usage, nil
}

func remaining(limit, spent decimal.Decimal) decimal.Decimal {
	left := limit.Sub(spent)
	if left.IsNegative() {
		return decimal.Zero
	}

	return left
}
