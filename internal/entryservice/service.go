// Package entryservice exposes the transaction-history query surface.
package entryservice

import (
	"context"

	"github.com/paisabook/paisabook/internal/domain"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// Repo provides data access layer interface needed by entry service layer.
//
//go:generate mockgen -source service.go -destination service_mock.go -package entryservice
type Repo interface {
	List(ctx context.Context, accountID int64, arg domain.ListEntriesParams) ([]domain.Entry, domain.Pagination, error)
	GetByReference(ctx context.Context, reference string) (domain.Entry, error)
}

// AccountService resolves the caller's account.
type AccountService interface {
	GetByUserID(ctx context.Context, userID int64) (domain.Account, error)
}

// Service facilitates transaction history logic.
type Service struct {
	repo     Repo
	accounts AccountService
}

// New returns entry service struct to manage history queries.
func New(er Repo, as AccountService) *Service {
	return &Service{
		repo:     er,
		accounts: as,
	}
}

// List returns one newest-first page of the user's transaction history.
func (s *Service) List(ctx context.Context, userID int64, arg domain.ListEntriesParams) ([]domain.Entry, domain.Pagination, error) {
	if arg.Page < 1 {
		arg.Page = 1
	}

	if arg.Limit < 1 {
		arg.Limit = defaultPageSize
	}

	if arg.Limit > maxPageSize {
		arg.Limit = maxPageSize
	}

	account, err := s.accounts.GetByUserID(ctx, userID)
	if err != nil {
		return nil, domain.Pagination{}, err
	}

	return s.repo.List(ctx, account.ID, arg)
}

// GetByReference returns the caller's entry with the given reference number.
func (s *Service) GetByReference(ctx context.Context, userID int64, reference string) (domain.Entry, error) {
	account, err := s.accounts.GetByUserID(ctx, userID)
	if err != nil {
		return domain.Entry{}, err
	}

	entry, err := s.repo.GetByReference(ctx, reference)
	if err != nil {
		return domain.Entry{}, err
	}

	if entry.AccountID != account.ID {
		return domain.Entry{}, domain.ErrEntryNotFound
	}

	return entry, nil
}
