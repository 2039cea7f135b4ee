// Package transferservice manages business logic layer of transfers.
package transferservice

import (
	"context"
	"crypto/subtle"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/paisabook/paisabook/internal/domain"
)

// Repo provides data access layer interface needed by transfer service layer.
//
//go:generate mockgen -source service.go -destination service_mock.go -package transferservice
type Repo interface {
	Transfer(ctx context.Context, arg domain.TransferTxParams) (domain.TransferTxResult, error)
}

// AccountService resolves the accounts involved in a transfer.
type AccountService interface {
	GetByUserID(ctx context.Context, userID int64) (domain.Account, error)
	GetByPhone(ctx context.Context, phone string) (domain.Account, error)
}

// UserService verifies the sender's MPIN and resolves counterparty names.
type UserService interface {
	Get(ctx context.Context, id int64) (domain.User, error)
	CheckMPIN(ctx context.Context, userID int64, mpin string) (domain.User, error)
}

// OTPStore holds one-time codes for the secure tier. A stored code is
// consumed by GetDel, so it can authorize at most one transfer.
type OTPStore interface {
	Set(ctx context.Context, userID int64, code string) error
	GetDel(ctx context.Context, userID int64) (string, error)
}

// Sink receives best-effort notifications after a committed operation.
type Sink interface {
	Notify(ctx context.Context, userID int64, n domain.Notification) error
}

// CodeFunc generates one-time codes; swapped in tests.
type CodeFunc func() string

// Service is the Transfer Engine. The two authorization tiers run through
// the same code path, parameterized by domain.AuthTier.
type Service struct {
	repo     Repo
	accounts AccountService
	users    UserService
	otp      OTPStore
	sink     Sink
	newCode  CodeFunc
}

// New returns transfer service struct to manage transfer business logic.
func New(tr Repo, as AccountService, us UserService, otp OTPStore, sink Sink, newCode CodeFunc) *Service {
	return &Service{
		repo:     tr,
		accounts: as,
		users:    us,
		otp:      otp,
		sink:     sink,
		newCode:  newCode,
	}
}

// RequestOTP issues a one-time code for a secure-tier transfer and hands it
// to the notification sink for delivery.
func (s *Service) RequestOTP(ctx context.Context, userID int64) error {
	if _, err := s.users.Get(ctx, userID); err != nil {
		return err
	}

	code := s.newCode()

	if err := s.otp.Set(ctx, userID, code); err != nil {
		return err
	}

	s.notify(ctx, userID, domain.Notification{
		Title:   "Your one-time code",
		Message: fmt.Sprintf("Use code %s to authorize your transfer.", code),
		Kind:    domain.NotifyOTP,
	})

	return nil
}

// Transfer validates and executes one wallet-to-wallet transfer under the
// given authorization tier.
//
// Cheap checks run first: amount, authorization proof, recipient resolution,
// self-transfer, tier ceiling. Status, available balance, spend limits and
// velocity are validated by the repository inside the locked transaction.
func (s *Service) Transfer(ctx context.Context, senderUserID int64, tier domain.AuthTier, arg domain.CreateTransferParams) (domain.TransferTxResult, error) {
	l := zerolog.Ctx(ctx)

	var result domain.TransferTxResult

	amount, err := decimal.NewFromString(arg.Amount)
	if err != nil {
		l.Info().Err(err).Send()
		return result, domain.ErrInvalidAmount
	}

	if amount.LessThanOrEqual(decimal.Zero) {
		return result, domain.ErrNegativeAmount
	}

	sender, err := s.authorize(ctx, senderUserID, tier, arg.Proof)
	if err != nil {
		l.Info().Err(err).Send()
		return result, err
	}

	recipientAccount, err := s.accounts.GetByPhone(ctx, arg.RecipientPhone)
	if err != nil {
		l.Info().Err(err).Send()
		return result, err
	}

	if recipientAccount.UserID == senderUserID {
		return result, domain.ErrSelfTransfer
	}

	if amount.GreaterThan(tier.Ceiling) {
		return result, domain.TierCeilingError(tier.Name, tier.Ceiling, amount)
	}

	senderAccount, err := s.accounts.GetByUserID(ctx, senderUserID)
	if err != nil {
		l.Error().Err(err).Send()
		return result, err
	}

	recipient, err := s.users.Get(ctx, recipientAccount.UserID)
	if err != nil {
		l.Error().Err(err).Send()
		return result, err
	}

	result, err = s.repo.Transfer(ctx, domain.TransferTxParams{
		FromAccountID:  senderAccount.ID,
		ToAccountID:    recipientAccount.ID,
		Amount:         amount,
		Description:    arg.Description,
		EntryType:      domain.EntryTransfer,
		FromName:       sender.FullName,
		FromPhone:      sender.Phone,
		ToName:         recipient.FullName,
		ToPhone:        recipient.Phone,
		CheckLimits:    tier.CheckLimits,
		CheckVelocity:  tier.CheckVelocity,
		VelocityLimit:  domain.VelocityLimit,
		VelocityWindow: domain.VelocityWindow,
		Device:         arg.Device,
		IP:             arg.IP,
	})
	if err != nil {
		return result, err
	}

	// The transfer is committed; notification failures are logged only.
	s.notify(ctx, senderUserID, domain.Notification{
		Title:   "Money sent",
		Message: fmt.Sprintf("You sent %s to %s.", amount.StringFixed(2), recipient.FullName),
		Kind:    domain.NotifyTransferOut,
		Metadata: map[string]string{
			"reference": result.FromEntry.Reference,
		},
	})

	s.notify(ctx, recipient.ID, domain.Notification{
		Title:   "Money received",
		Message: fmt.Sprintf("You received %s from %s.", amount.StringFixed(2), sender.FullName),
		Kind:    domain.NotifyTransferIn,
		Metadata: map[string]string{
			"reference": result.ToEntry.Reference,
		},
	})

	return result, nil
}

// authorize verifies the tier's proof and returns the sender.
func (s *Service) authorize(ctx context.Context, senderUserID int64, tier domain.AuthTier, proof string) (domain.User, error) {
	if tier.Name != domain.TierSecure.Name {
		return s.users.CheckMPIN(ctx, senderUserID, proof)
	}

	code, err := s.otp.GetDel(ctx, senderUserID)
	if err != nil || subtle.ConstantTimeCompare([]byte(code), []byte(proof)) != 1 {
		return domain.User{}, domain.ErrInvalidOTP
	}

	return s.users.Get(ctx, senderUserID)
}

func (s *Service) notify(ctx context.Context, userID int64, n domain.Notification) {
	l := zerolog.Ctx(ctx)

	if err := s.sink.Notify(ctx, userID, n); err != nil {
		l.Warn().Err(err).Int64("user_id", userID).Msg("notification failed")
	}
}
