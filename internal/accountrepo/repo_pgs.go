// Package accountrepo manages repository layer of wallet accounts.
package accountrepo

import (
	"context"
	"database/sql"

	"github.com/lib/pq"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/paisabook/paisabook/internal/domain"
	"github.com/paisabook/paisabook/pkg/dbpkg"
	"github.com/paisabook/paisabook/pkg/errorspkg"
)

// RepoPGS facilitates account repository layer logic.
type RepoPGS struct {
	db dbpkg.SQLInterface
}

// NewRepoPGS returns account RepoPGS.
func NewRepoPGS(db dbpkg.SQLInterface) *RepoPGS {
	return &RepoPGS{db: db}
}

const accountColumns = `
	id, user_id, balance, frozen_balance, daily_limit, monthly_limit, status, created_at`

const createQuery = `
INSERT INTO
    accounts (user_id, balance, frozen_balance, daily_limit, monthly_limit, status)
VALUES
    ($1, 0, 0, $2, $3, 'active')
RETURNING` + accountColumns

// Create creates a zero-balance active account for the user and returns it.
func (r *RepoPGS) Create(ctx context.Context, userID int64, dailyLimit, monthlyLimit decimal.Decimal) (domain.Account, error) {
	l := zerolog.Ctx(ctx)

	row := r.db.QueryRowContext(ctx, createQuery, userID, dailyLimit, monthlyLimit)

	a, err := scanAccount(row)
	if err != nil {
		l.Error().Err(err).Send()

		if pqErr, ok := err.(*pq.Error); ok {
			switch pqErr.Constraint {
			case "accounts_user_id_fkey":
				return a, domain.ErrUserNotFound
			case "accounts_user_id_key":
				return a, domain.ErrAccountAlreadyExists
			}
		}

		return a, errorspkg.ErrInternal
	}

	return a, nil
}

const getQuery = `
SELECT` + accountColumns + `
FROM accounts
WHERE id = $1
`

// Get returns the account with the given id.
func (r *RepoPGS) Get(ctx context.Context, id int64) (domain.Account, error) {
	return r.getOne(ctx, getQuery, id)
}

const getByUserQuery = `
SELECT` + accountColumns + `
FROM accounts
WHERE user_id = $1
`

// GetByUserID returns the account owned by the given user.
func (r *RepoPGS) GetByUserID(ctx context.Context, userID int64) (domain.Account, error) {
	return r.getOne(ctx, getByUserQuery, userID)
}

const getByPhoneQuery = `
SELECT
	a.id, a.user_id, a.balance, a.frozen_balance, a.daily_limit, a.monthly_limit, a.status, a.created_at
FROM accounts a
JOIN users u ON u.id = a.user_id
WHERE u.phone = $1
`

// GetByPhone resolves an account by its owner's phone number.
func (r *RepoPGS) GetByPhone(ctx context.Context, phone string) (domain.Account, error) {
	return r.getOne(ctx, getByPhoneQuery, phone)
}

const getForUpdateQuery = `
SELECT` + accountColumns + `
FROM accounts
WHERE id = $1
FOR UPDATE
`

// GetForUpdate reads the account under a row lock. It must run inside an open
// transaction; the lock is held until that transaction commits or rolls back.
func (r *RepoPGS) GetForUpdate(ctx context.Context, id int64) (domain.Account, error) {
	return r.getOne(ctx, getForUpdateQuery, id)
}

const setBalanceQuery = `
UPDATE accounts
SET balance = $1
WHERE id = $2
RETURNING` + accountColumns

// SetBalance writes the account's new balance and returns the changed account.
// Callers compute the new balance from a row read under GetForUpdate.
func (r *RepoPGS) SetBalance(ctx context.Context, id int64, balance decimal.Decimal) (domain.Account, error) {
	l := zerolog.Ctx(ctx)

	row := r.db.QueryRowContext(ctx, setBalanceQuery, balance, id)

	a, err := scanAccount(row)
	if err != nil {
		l.Error().Err(err).Send()

		if err == sql.ErrNoRows {
			return a, domain.ErrAccountNotFound
		}

		if pqErr, ok := err.(*pq.Error); ok {
			if pqErr.Constraint == "accounts_balance_check" {
				return a, domain.ErrInsufficientFunds
			}
		}

		return a, errorspkg.ErrInternal
	}

	return a, nil
}

func (r *RepoPGS) getOne(ctx context.Context, query string, arg interface{}) (domain.Account, error) {
	l := zerolog.Ctx(ctx)

	a, err := scanAccount(r.db.QueryRowContext(ctx, query, arg))
	if err != nil {
		l.Error().Err(err).Send()

		if err == sql.ErrNoRows {
			return a, domain.ErrAccountNotFound
		}

		return a, errorspkg.ErrInternal
	}

	return a, nil
}

func scanAccount(row *sql.Row) (domain.Account, error) {
	var a domain.Account

	err := row.Scan(
		&a.ID,
		&a.UserID,
		&a.Balance,
		&a.FrozenBalance,
		&a.DailyLimit,
		&a.MonthlyLimit,
		&a.Status,
		&a.CreatedAt,
	)

	return a, err
}
