// Package accountservice manages business logic layer of wallet accounts.
package accountservice

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/paisabook/paisabook/internal/domain"
)

// Default outgoing limits for newly registered accounts.
var (
	DefaultDailyLimit   = decimal.NewFromInt(50_000)
	DefaultMonthlyLimit = decimal.NewFromInt(500_000)
)

// Repo provides data access layer interface needed by account service layer.
//
//go:generate mockgen -source service.go -destination service_mock.go -package accountservice
type Repo interface {
	Create(ctx context.Context, userID int64, dailyLimit, monthlyLimit decimal.Decimal) (domain.Account, error)
	Get(ctx context.Context, id int64) (domain.Account, error)
	GetByUserID(ctx context.Context, userID int64) (domain.Account, error)
	GetByPhone(ctx context.Context, phone string) (domain.Account, error)
}

// Service facilitates account service layer logic.
type Service struct {
	repo Repo
}

// New returns account service struct to manage account business logic.
func New(ar Repo) *Service {
	return &Service{repo: ar}
}

// Create creates a zero-balance active account for the user.
func (s *Service) Create(ctx context.Context, userID int64) (domain.Account, error) {
	return s.repo.Create(ctx, userID, DefaultDailyLimit, DefaultMonthlyLimit)
}

// Get returns the account with the given account id.
func (s *Service) Get(ctx context.Context, id int64) (domain.Account, error) {
	return s.repo.Get(ctx, id)
}

// GetByUserID returns the account owned by the given user.
func (s *Service) GetByUserID(ctx context.Context, userID int64) (domain.Account, error) {
	return s.repo.GetByUserID(ctx, userID)
}

// GetByPhone resolves an account by its owner's phone number.
func (s *Service) GetByPhone(ctx context.Context, phone string) (domain.Account, error) {
	return s.repo.GetByPhone(ctx, phone)
}
