// Package topupservice manages business logic layer of wallet top-ups.
package topupservice

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/paisabook/paisabook/internal/domain"
)

// Repo provides data access layer interface needed by top-up service layer.
//
//go:generate mockgen -source service.go -destination service_mock.go -package topupservice
type Repo interface {
	Deposit(ctx context.Context, arg domain.DepositTxParams) (domain.DepositTxResult, error)
}

// AccountService resolves the account to credit.
type AccountService interface {
	GetByUserID(ctx context.Context, userID int64) (domain.Account, error)
}

// Sink receives best-effort notifications after a committed credit.
type Sink interface {
	Notify(ctx context.Context, userID int64, n domain.Notification) error
}

// Service is the Top-Up Engine. It runs only after the payment gateway
// confirmed the external payment; the gateway handshake itself lives in the
// delivery layer.
type Service struct {
	repo     Repo
	accounts AccountService
	sink     Sink
}

// New returns top-up service struct to manage top-up business logic.
func New(tr Repo, as AccountService, sink Sink) *Service {
	return &Service{
		repo:     tr,
		accounts: as,
		sink:     sink,
	}
}

// Confirm credits a gateway-confirmed payment into the user's wallet.
//
// Anything but a SUCCESS gateway status leaves the ledger untouched. A
// repeated gateway reference is a success no-op so webhook retries never
// double-credit.
func (s *Service) Confirm(ctx context.Context, arg domain.ConfirmTopUpParams) (domain.DepositTxResult, error) {
	l := zerolog.Ctx(ctx)

	var result domain.DepositTxResult

	if arg.GatewayStatus != domain.GatewayStatusSuccess {
		l.Info().
			Str("gateway_status", arg.GatewayStatus).
			Str("external_ref", arg.ExternalRef).
			Msg("unconfirmed top-up ignored")

		return result, nil
	}

	amount, err := decimal.NewFromString(arg.Amount)
	if err != nil {
		l.Info().Err(err).Send()
		return result, domain.ErrInvalidAmount
	}

	if amount.LessThanOrEqual(decimal.Zero) {
		return result, domain.ErrNegativeAmount
	}

	account, err := s.accounts.GetByUserID(ctx, arg.UserID)
	if err != nil {
		l.Info().Err(err).Send()
		return result, err
	}

	result, err = s.repo.Deposit(ctx, domain.DepositTxParams{
		AccountID:   account.ID,
		Amount:      amount,
		Method:      arg.Method,
		ExternalRef: arg.ExternalRef,
	})
	if err != nil {
		return result, err
	}

	if !result.Duplicate {
		if err := s.sink.Notify(ctx, arg.UserID, domain.Notification{
			Title:   "Wallet topped up",
			Message: fmt.Sprintf("%s was added to your wallet.", amount.StringFixed(2)),
			Kind:    domain.NotifyTopUp,
			Metadata: map[string]string{
				"reference":   result.Entry.Reference,
				"gateway_ref": arg.ExternalRef,
			},
		}); err != nil {
			l.Warn().Err(err).Int64("user_id", arg.UserID).Msg("notification failed")
		}
	}

	return result, nil
}
