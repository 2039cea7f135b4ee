// Package userservice manages business logic layer of users.
package userservice

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/paisabook/paisabook/internal/domain"
	"github.com/paisabook/paisabook/pkg/errorspkg"
	"github.com/paisabook/paisabook/pkg/passpkg"
)

// Repo provides data access layer interface needed by user service layer.
//
//go:generate mockgen -source service.go -destination service_mock.go -package userservice
type Repo interface {
	Create(ctx context.Context, arg domain.CreateUserParams) (domain.User, error)
	Get(ctx context.Context, id int64) (domain.User, error)
	GetByPhone(ctx context.Context, phone string) (domain.User, error)
}

// AccountOpener creates the zero-balance wallet account at registration.
type AccountOpener interface {
	Create(ctx context.Context, userID int64) (domain.Account, error)
}

// Service facilitates user service layer logic.
type Service struct {
	repo     Repo
	accounts AccountOpener
}

// New returns user service struct to manage user business logic.
func New(ur Repo, ao AccountOpener) *Service {
	return &Service{
		repo:     ur,
		accounts: ao,
	}
}

// Create registers a user and opens their zero-balance wallet account.
// Both the password and the MPIN are stored hashed only.
func (s *Service) Create(ctx context.Context, phone, fullName, email, password, mpin string) (domain.User, error) {
	l := zerolog.Ctx(ctx)

	var result domain.User

	hashedPassword, err := passpkg.Hash(password)
	if err != nil {
		l.Error().Err(err).Send()
		return result, errorspkg.ErrInternal
	}

	hashedMPIN, err := passpkg.Hash(mpin)
	if err != nil {
		l.Error().Err(err).Send()
		return result, errorspkg.ErrInternal
	}

	arg := domain.CreateUserParams{
		Phone:          phone,
		FullName:       fullName,
		Email:          email,
		HashedPassword: hashedPassword,
		HashedMPIN:     hashedMPIN,
	}

	user, err := s.repo.Create(ctx, arg)
	if err != nil {
		return result, err
	}

	if _, err := s.accounts.Create(ctx, user.ID); err != nil {
		return result, err
	}

	return user, nil
}

// Get returns the user with the given id.
func (s *Service) Get(ctx context.Context, id int64) (domain.User, error) {
	return s.repo.Get(ctx, id)
}

// GetByPhone returns the user registered with the given phone number.
func (s *Service) GetByPhone(ctx context.Context, phone string) (domain.User, error) {
	return s.repo.GetByPhone(ctx, phone)
}

// CheckPassword checks if the password is valid for the given phone number.
func (s *Service) CheckPassword(ctx context.Context, phone, password string) (domain.User, error) {
	l := zerolog.Ctx(ctx)

	user, err := s.repo.GetByPhone(ctx, phone)
	if err != nil {
		return domain.User{}, err
	}

	if err := passpkg.Check(password, user.HashedPassword); err != nil {
		l.Warn().Err(err).Send()
		return domain.User{}, domain.ErrWrongPassword
	}

	return user, nil
}

// CheckMPIN checks the user's 4-digit transaction PIN.
func (s *Service) CheckMPIN(ctx context.Context, userID int64, mpin string) (domain.User, error) {
	l := zerolog.Ctx(ctx)

	user, err := s.repo.Get(ctx, userID)
	if err != nil {
		return domain.User{}, err
	}

	if err := passpkg.Check(mpin, user.HashedMPIN); err != nil {
		l.Warn().Err(err).Send()
		return domain.User{}, domain.ErrInvalidMPIN
	}

	return user, nil
}
