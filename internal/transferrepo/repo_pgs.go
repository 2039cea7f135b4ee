// Package transferrepo manages the atomic money-movement transactions.
//
// Every balance mutation in the system goes through this package: a transfer
// is two ledger entries plus two balance updates under one database
// transaction, a top-up is one entry plus one update. Row locks are taken
// before any read used for validation and held until commit.
package transferrepo

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/paisabook/paisabook/internal/accountrepo"
	"github.com/paisabook/paisabook/internal/domain"
	"github.com/paisabook/paisabook/internal/entryrepo"
	"github.com/paisabook/paisabook/internal/requestrepo"
	"github.com/paisabook/paisabook/pkg/errorspkg"
)

// RepoPGS facilitates transfer repository layer logic.
type RepoPGS struct {
	conn *sql.DB
}

// NewRepoPGS returns transfer RepoPGS with a connection to start transactions.
func NewRepoPGS(conn *sql.DB) *RepoPGS {
	return &RepoPGS{conn: conn}
}

// Transfer moves money between two accounts.
//
// It locks both account rows, validates status, available balance and, when
// requested, spend limits and transfer velocity from the ledger itself, then
// appends the debit and credit entries and writes both balances within a
// single database transaction. Business rejections come back as their own
// error kinds; infrastructure failures inside the transaction come back as
// errorspkg.ErrStorage.
func (r *RepoPGS) Transfer(ctx context.Context, arg domain.TransferTxParams) (domain.TransferTxResult, error) {
	l := zerolog.Ctx(ctx)

	var result domain.TransferTxResult

	if arg.FromAccountID == arg.ToAccountID {
		return result, domain.ErrSelfTransfer
	}

	tx, err := r.conn.BeginTx(ctx, nil)
	if err != nil {
		l.Error().Err(err).Send()
		return result, errorspkg.ErrStorage
	}

	defer func() {
		if err := tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
			l.Error().Err(err).Send()
		}
	}()

	accountRepo := accountrepo.NewRepoPGS(tx)
	entryRepo := entryrepo.NewRepoPGS(tx)

	// To avoid deadlocks between opposite-direction transfers, always take
	// the row locks in ascending account id order.
	firstID, secondID := arg.FromAccountID, arg.ToAccountID
	if secondID < firstID {
		firstID, secondID = secondID, firstID
	}

	first, err := accountRepo.GetForUpdate(ctx, firstID)
	if err != nil {
		return result, asStorage(err)
	}

	second, err := accountRepo.GetForUpdate(ctx, secondID)
	if err != nil {
		return result, asStorage(err)
	}

	from, to := first, second
	if arg.FromAccountID != firstID {
		from, to = second, first
	}

	if from.Status != domain.AccountActive || to.Status != domain.AccountActive {
		return result, domain.ErrAccountInactive
	}

	if from.Available().LessThan(arg.Amount) {
		return result, domain.InsufficientFundsError(from.Available(), arg.Amount)
	}

	now := time.Now()

	if arg.CheckLimits {
		dayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())

		daySpent, err := entryRepo.SumOutgoingSince(ctx, from.ID, dayStart)
		if err != nil {
			return result, asStorage(err)
		}

		if daySpent.Add(arg.Amount).GreaterThan(from.DailyLimit) {
			return result, domain.LimitExceededError("daily", daySpent, from.DailyLimit)
		}

		monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())

		monthSpent, err := entryRepo.SumOutgoingSince(ctx, from.ID, monthStart)
		if err != nil {
			return result, asStorage(err)
		}

		if monthSpent.Add(arg.Amount).GreaterThan(from.MonthlyLimit) {
			return result, domain.LimitExceededError("monthly", monthSpent, from.MonthlyLimit)
		}
	}

	if arg.CheckVelocity {
		count, err := entryRepo.CountOutgoingSince(ctx, from.ID, now.Add(-arg.VelocityWindow))
		if err != nil {
			return result, asStorage(err)
		}

		if count >= arg.VelocityLimit {
			return result, domain.ErrRateLimited
		}
	}

	base := newReference()
	debitRef, creditRef := base+"D", base+"C"

	fromClosing := from.Balance.Sub(arg.Amount)
	toClosing := to.Balance.Add(arg.Amount)

	result.FromEntry, err = entryRepo.Create(ctx, domain.CreateEntryParams{
		AccountID:           from.ID,
		Type:                arg.EntryType,
		Amount:              arg.Amount.Neg(),
		OpeningBalance:      from.Balance,
		ClosingBalance:      fromClosing,
		Status:              domain.EntryCompleted,
		Reference:           debitRef,
		CounterpartyName:    arg.ToName,
		CounterpartyAccount: arg.ToPhone,
		Metadata: domain.EntryMetadata{
			Direction:        "debit",
			Description:      arg.Description,
			RelatedReference: creditRef,
			RequestID:        arg.RequestID,
			Device:           arg.Device,
			IP:               arg.IP,
		},
	})
	if err != nil {
		return result, asStorage(err)
	}

	result.ToEntry, err = entryRepo.Create(ctx, domain.CreateEntryParams{
		AccountID:           to.ID,
		Type:                arg.EntryType,
		Amount:              arg.Amount,
		OpeningBalance:      to.Balance,
		ClosingBalance:      toClosing,
		Status:              domain.EntryCompleted,
		Reference:           creditRef,
		CounterpartyName:    arg.FromName,
		CounterpartyAccount: arg.FromPhone,
		Metadata: domain.EntryMetadata{
			Direction:        "credit",
			Description:      arg.Description,
			RelatedReference: debitRef,
			RequestID:        arg.RequestID,
		},
	})
	if err != nil {
		return result, asStorage(err)
	}

	result.FromAccount, err = accountRepo.SetBalance(ctx, from.ID, fromClosing)
	if err != nil {
		return result, asStorage(err)
	}

	result.ToAccount, err = accountRepo.SetBalance(ctx, to.ID, toClosing)
	if err != nil {
		return result, asStorage(err)
	}

	// A money-request settlement transitions pending to paid inside the same
	// transaction, so a concurrent settle attempt rolls the whole transfer back.
	if arg.RequestID != 0 {
		if _, err := requestrepo.NewRepoPGS(tx).MarkPaid(ctx, arg.RequestID, now, debitRef); err != nil {
			return result, asStorage(err)
		}
	}

	if err := tx.Commit(); err != nil {
		l.Error().Err(err).Send()
		return domain.TransferTxResult{}, errorspkg.ErrStorage
	}

	return result, nil
}

// Deposit credits a gateway-confirmed top-up into one account.
//
// A gateway reference is credited at most once: webhook retries get the
// original entry back with Duplicate set instead of a second credit.
func (r *RepoPGS) Deposit(ctx context.Context, arg domain.DepositTxParams) (domain.DepositTxResult, error) {
	l := zerolog.Ctx(ctx)

	var result domain.DepositTxResult

	tx, err := r.conn.BeginTx(ctx, nil)
	if err != nil {
		l.Error().Err(err).Send()
		return result, errorspkg.ErrStorage
	}

	defer func() {
		if err := tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
			l.Error().Err(err).Send()
		}
	}()

	accountRepo := accountrepo.NewRepoPGS(tx)
	entryRepo := entryrepo.NewRepoPGS(tx)

	account, err := accountRepo.GetForUpdate(ctx, arg.AccountID)
	if err != nil {
		return result, asStorage(err)
	}

	existing, err := entryRepo.GetByExternalRef(ctx, arg.ExternalRef)
	if err == nil {
		result.Entry, result.Account = existing, account
		result.Applied, result.Duplicate = true, true

		return result, nil
	}

	if !errors.Is(err, domain.ErrEntryNotFound) {
		return result, asStorage(err)
	}

	closing := account.Balance.Add(arg.Amount)

	result.Entry, err = entryRepo.Create(ctx, domain.CreateEntryParams{
		AccountID:           account.ID,
		Type:                domain.EntryDeposit,
		Amount:              arg.Amount,
		OpeningBalance:      account.Balance,
		ClosingBalance:      closing,
		Status:              domain.EntryCompleted,
		Reference:           newReference() + "T",
		CounterpartyName:    arg.Method,
		CounterpartyAccount: arg.ExternalRef,
		ExternalRef:         arg.ExternalRef,
		Metadata: domain.EntryMetadata{
			Direction:        "credit",
			Description:      arg.Description,
			Gateway:          arg.Method,
			GatewayReference: arg.ExternalRef,
		},
	})
	if err != nil {
		if errors.Is(err, domain.ErrDuplicateReference) {
			// Lost the unique-index race to a concurrent webhook delivery.
			// The transaction is aborted; read the winning credit outside it.
			return r.existingDeposit(ctx, arg)
		}

		return result, asStorage(err)
	}

	result.Account, err = accountRepo.SetBalance(ctx, account.ID, closing)
	if err != nil {
		return result, asStorage(err)
	}

	if err := tx.Commit(); err != nil {
		l.Error().Err(err).Send()
		return domain.DepositTxResult{}, errorspkg.ErrStorage
	}

	result.Applied = true

	return result, nil
}

func (r *RepoPGS) existingDeposit(ctx context.Context, arg domain.DepositTxParams) (domain.DepositTxResult, error) {
	var result domain.DepositTxResult

	entry, err := entryrepo.NewRepoPGS(r.conn).GetByExternalRef(ctx, arg.ExternalRef)
	if err != nil {
		return result, asStorage(err)
	}

	account, err := accountrepo.NewRepoPGS(r.conn).Get(ctx, arg.AccountID)
	if err != nil {
		return result, asStorage(err)
	}

	result.Entry, result.Account = entry, account
	result.Applied, result.Duplicate = true, true

	return result, nil
}

// asStorage keeps business rejections intact but surfaces infrastructure
// failures inside an open transaction as the retryable storage error.
func asStorage(err error) error {
	if errors.Is(err, errorspkg.ErrInternal) {
		return errorspkg.ErrStorage
	}

	return err
}

func newReference() string {
	return "TXN" + strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", ""))
}
