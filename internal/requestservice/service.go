// Package requestservice manages the money-request lifecycle.
//
// A request is a pending ask from one user to another. Paying it runs the
// same atomic two-entry transfer as a direct transfer and flips the request
// to paid inside that transaction, so it settles exactly once.
package requestservice

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/paisabook/paisabook/internal/domain"
)

// DefaultExpiry is how long a new request stays payable.
const DefaultExpiry = 72 * time.Hour

// Repo provides data access layer interface needed by request service layer.
//
//go:generate mockgen -source service.go -destination service_mock.go -package requestservice
type Repo interface {
	Create(ctx context.Context, arg domain.CreateMoneyRequestParams) (domain.MoneyRequest, error)
	Get(ctx context.Context, id int64) (domain.MoneyRequest, error)
	List(ctx context.Context, userID int64, limit, offset int32) ([]domain.MoneyRequest, error)
	ExpireStale(ctx context.Context, userID int64) error
	SetStatus(ctx context.Context, id int64, status string) (domain.MoneyRequest, error)
}

// TransferRepo executes the settlement transfer.
type TransferRepo interface {
	Transfer(ctx context.Context, arg domain.TransferTxParams) (domain.TransferTxResult, error)
}

// AccountService resolves both parties' accounts.
type AccountService interface {
	GetByUserID(ctx context.Context, userID int64) (domain.Account, error)
}

// UserService verifies the payer's MPIN and resolves party names.
type UserService interface {
	Get(ctx context.Context, id int64) (domain.User, error)
	GetByPhone(ctx context.Context, phone string) (domain.User, error)
	CheckMPIN(ctx context.Context, userID int64, mpin string) (domain.User, error)
}

// Sink receives best-effort notifications.
type Sink interface {
	Notify(ctx context.Context, userID int64, n domain.Notification) error
}

// Service facilitates money request business logic.
type Service struct {
	repo      Repo
	transfers TransferRepo
	accounts  AccountService
	users     UserService
	sink      Sink
	now       func() time.Time
}

// New returns request service struct to manage money request business logic.
func New(rr Repo, tr TransferRepo, as AccountService, us UserService, sink Sink) *Service {
	return &Service{
		repo:      rr,
		transfers: tr,
		accounts:  as,
		users:     us,
		sink:      sink,
		now:       time.Now,
	}
}

// Create opens a pending request asking the payer (resolved by phone) to
// settle the given amount.
func (s *Service) Create(ctx context.Context, requesterID int64, payerPhone, amount, description string) (domain.MoneyRequest, error) {
	l := zerolog.Ctx(ctx)

	var result domain.MoneyRequest

	amountDecimal, err := decimal.NewFromString(amount)
	if err != nil {
		l.Info().Err(err).Send()
		return result, domain.ErrInvalidAmount
	}

	if amountDecimal.LessThanOrEqual(decimal.Zero) {
		return result, domain.ErrNegativeAmount
	}

	if amountDecimal.GreaterThan(domain.TierBasic.Ceiling) {
		return result, domain.TierCeilingError(domain.TierBasic.Name, domain.TierBasic.Ceiling, amountDecimal)
	}

	payer, err := s.users.GetByPhone(ctx, payerPhone)
	if err != nil {
		l.Info().Err(err).Send()
		return result, err
	}

	if payer.ID == requesterID {
		return result, domain.ErrSelfTransfer
	}

	requester, err := s.users.Get(ctx, requesterID)
	if err != nil {
		return result, err
	}

	result, err = s.repo.Create(ctx, domain.CreateMoneyRequestParams{
		RequesterID: requesterID,
		PayerID:     payer.ID,
		Amount:      amountDecimal,
		Description: description,
		ExpiresAt:   s.now().Add(DefaultExpiry),
	})
	if err != nil {
		return result, err
	}

	s.notify(ctx, payer.ID, domain.Notification{
		Title:   "Money request",
		Message: fmt.Sprintf("%s requested %s from you.", requester.FullName, amountDecimal.StringFixed(2)),
		Kind:    domain.NotifyRequest,
		Metadata: map[string]string{
			"request_id": fmt.Sprint(result.ID),
		},
	})

	return result, nil
}

// List returns the user's requests, lazily expiring overdue pending ones first.
func (s *Service) List(ctx context.Context, userID int64, pageSize, pageID int32) ([]domain.MoneyRequest, error) {
	if pageID < 1 {
		pageID = 1
	}

	if pageSize < 1 {
		pageSize = 20
	}

	if err := s.repo.ExpireStale(ctx, userID); err != nil {
		return nil, err
	}

	return s.repo.List(ctx, userID, pageSize, (pageID-1)*pageSize)
}

// Pay settles a pending request. The payer's identity and MPIN are verified,
// then the settlement transfer and the pending-to-paid transition commit as
// one transaction.
func (s *Service) Pay(ctx context.Context, requestID, payerID int64, mpin string) (domain.MoneyRequest, domain.TransferTxResult, error) {
	l := zerolog.Ctx(ctx)

	var txResult domain.TransferTxResult

	request, err := s.loadPending(ctx, requestID)
	if err != nil {
		return domain.MoneyRequest{}, txResult, err
	}

	if request.PayerID != payerID {
		return domain.MoneyRequest{}, txResult, domain.ErrInvalidOwner
	}

	payer, err := s.users.CheckMPIN(ctx, payerID, mpin)
	if err != nil {
		l.Info().Err(err).Send()
		return domain.MoneyRequest{}, txResult, err
	}

	requester, err := s.users.Get(ctx, request.RequesterID)
	if err != nil {
		return domain.MoneyRequest{}, txResult, err
	}

	payerAccount, err := s.accounts.GetByUserID(ctx, payerID)
	if err != nil {
		return domain.MoneyRequest{}, txResult, err
	}

	requesterAccount, err := s.accounts.GetByUserID(ctx, request.RequesterID)
	if err != nil {
		return domain.MoneyRequest{}, txResult, err
	}

	txResult, err = s.transfers.Transfer(ctx, domain.TransferTxParams{
		FromAccountID: payerAccount.ID,
		ToAccountID:   requesterAccount.ID,
		Amount:        request.Amount,
		Description:   request.Description,
		EntryType:     domain.EntryPayment,
		FromName:      payer.FullName,
		FromPhone:     payer.Phone,
		ToName:        requester.FullName,
		ToPhone:       requester.Phone,
		RequestID:     request.ID,
	})
	if err != nil {
		return domain.MoneyRequest{}, txResult, err
	}

	request, err = s.repo.Get(ctx, requestID)
	if err != nil {
		return domain.MoneyRequest{}, txResult, err
	}

	s.notify(ctx, request.RequesterID, domain.Notification{
		Title:   "Request paid",
		Message: fmt.Sprintf("%s paid your request of %s.", payer.FullName, request.Amount.StringFixed(2)),
		Kind:    domain.NotifyRequest,
		Metadata: map[string]string{
			"request_id": fmt.Sprint(request.ID),
			"reference":  txResult.ToEntry.Reference,
		},
	})

	return request, txResult, nil
}

// Decline refuses a pending request; only the payer may decline.
func (s *Service) Decline(ctx context.Context, requestID, payerID int64) (domain.MoneyRequest, error) {
	request, err := s.loadPending(ctx, requestID)
	if err != nil {
		return domain.MoneyRequest{}, err
	}

	if request.PayerID != payerID {
		return domain.MoneyRequest{}, domain.ErrInvalidOwner
	}

	request, err = s.repo.SetStatus(ctx, requestID, domain.RequestDeclined)
	if err != nil {
		return domain.MoneyRequest{}, err
	}

	s.notify(ctx, request.RequesterID, domain.Notification{
		Title:   "Request declined",
		Message: fmt.Sprintf("Your request of %s was declined.", request.Amount.StringFixed(2)),
		Kind:    domain.NotifyRequest,
	})

	return request, nil
}

// Cancel withdraws a pending request; only the requester may cancel.
func (s *Service) Cancel(ctx context.Context, requestID, requesterID int64) (domain.MoneyRequest, error) {
	request, err := s.loadPending(ctx, requestID)
	if err != nil {
		return domain.MoneyRequest{}, err
	}

	if request.RequesterID != requesterID {
		return domain.MoneyRequest{}, domain.ErrInvalidOwner
	}

	return s.repo.SetStatus(ctx, requestID, domain.RequestCancelled)
}

// loadPending returns the request if it is still payable, applying lazy
// expiry on the way.
func (s *Service) loadPending(ctx context.Context, requestID int64) (domain.MoneyRequest, error) {
	request, err := s.repo.Get(ctx, requestID)
	if err != nil {
		return domain.MoneyRequest{}, err
	}

	switch request.Status {
	case domain.RequestPending:
	case domain.RequestExpired:
		return domain.MoneyRequest{}, domain.ErrRequestExpired
	default:
		return domain.MoneyRequest{}, domain.ErrAlreadySettled
	}

	if request.Expired(s.now()) {
		// Best effort; a concurrent transition loses to the CAS anyway.
		if _, err := s.repo.SetStatus(ctx, requestID, domain.RequestExpired); err != nil {
			zerolog.Ctx(ctx).Warn().Err(err).Int64("request_id", requestID).Msg("lazy expiry failed")
		}

		return domain.MoneyRequest{}, domain.ErrRequestExpired
	}

	return request, nil
}

func (s *Service) notify(ctx context.Context, userID int64, n domain.Notification) {
	l := zerolog.Ctx(ctx)

	if err := s.sink.Notify(ctx, userID, n); err != nil {
		l.Warn().Err(err).Int64("user_id", userID).Msg("notification failed")
	}
}
