// Package requestrepo manages repository layer of money requests.
package requestrepo

import (
	"context"
	"database/sql"
	"time"

	"github.com/rs/zerolog"

	"github.com/paisabook/paisabook/internal/domain"
	"github.com/paisabook/paisabook/pkg/dbpkg"
	"github.com/paisabook/paisabook/pkg/errorspkg"
)

// RepoPGS facilitates money request repository layer logic.
type RepoPGS struct {
	db dbpkg.SQLInterface
}

// NewRepoPGS returns money request RepoPGS.
func NewRepoPGS(db dbpkg.SQLInterface) *RepoPGS {
	return &RepoPGS{db: db}
}

const requestColumns = `
	id, requester_id, payer_id, amount, description, status,
	expires_at, paid_at, transaction_reference, created_at`

const createQuery = `
INSERT INTO
    money_requests (requester_id, payer_id, amount, description, status, expires_at)
VALUES
    ($1, $2, $3, $4, 'pending', $5)
RETURNING` + requestColumns

// Create creates the money request and then returns it.
func (r *RepoPGS) Create(ctx context.Context, arg domain.CreateMoneyRequestParams) (domain.MoneyRequest, error) {
	l := zerolog.Ctx(ctx)

	row := r.db.QueryRowContext(ctx, createQuery,
		arg.RequesterID, arg.PayerID, arg.Amount, arg.Description, arg.ExpiresAt)

	req, err := scanRequest(row)
	if err != nil {
		l.Error().Err(err).Send()
		return req, errorspkg.ErrInternal
	}

	return req, nil
}

const getQuery = `
SELECT` + requestColumns + `
FROM money_requests
WHERE id = $1
`

// Get returns the money request with the given id.
func (r *RepoPGS) Get(ctx context.Context, id int64) (domain.MoneyRequest, error) {
	l := zerolog.Ctx(ctx)

	req, err := scanRequest(r.db.QueryRowContext(ctx, getQuery, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return req, domain.ErrRequestNotFound
		}

		l.Error().Err(err).Send()

		return req, errorspkg.ErrInternal
	}

	return req, nil
}

const listQuery = `
SELECT` + requestColumns + `
FROM money_requests
WHERE requester_id = $1 OR payer_id = $1
ORDER BY created_at DESC, id DESC
LIMIT $2 OFFSET $3
`

// List returns the user's money requests, both sent and received, newest first.
func (r *RepoPGS) List(ctx context.Context, userID int64, limit, offset int32) ([]domain.MoneyRequest, error) {
	l := zerolog.Ctx(ctx)

	rows, err := r.db.QueryContext(ctx, listQuery, userID, limit, offset)
	if err != nil {
		l.Error().Err(err).Send()
		return nil, errorspkg.ErrInternal
	}
	defer rows.Close()

	items := []domain.MoneyRequest{}

	for rows.Next() {
		req, err := scanRequest(rows)
		if err != nil {
			l.Error().Err(err).Send()
			return nil, errorspkg.ErrInternal
		}

		items = append(items, req)
	}

	if err := rows.Err(); err != nil {
		l.Error().Err(err).Send()
		return nil, errorspkg.ErrInternal
	}

	return items, nil
}

const expireStaleQuery = `
UPDATE money_requests
SET status = 'expired'
WHERE status = 'pending' AND expires_at < now()
  AND (requester_id = $1 OR payer_id = $1)
`

// ExpireStale lazily marks the user's overdue pending requests as expired.
func (r *RepoPGS) ExpireStale(ctx context.Context, userID int64) error {
	l := zerolog.Ctx(ctx)

	if _, err := r.db.ExecContext(ctx, expireStaleQuery, userID); err != nil {
		l.Error().Err(err).Send()
		return errorspkg.ErrInternal
	}

	return nil
}

const markPaidQuery = `
UPDATE money_requests
SET status = 'paid', paid_at = $2, transaction_reference = $3
WHERE id = $1 AND status = 'pending'
RETURNING` + requestColumns

// MarkPaid transitions a pending request to paid exactly once. A request that
// already left the pending state comes back as ErrAlreadySettled.
func (r *RepoPGS) MarkPaid(ctx context.Context, id int64, paidAt time.Time, transactionRef string) (domain.MoneyRequest, error) {
	l := zerolog.Ctx(ctx)

	req, err := scanRequest(r.db.QueryRowContext(ctx, markPaidQuery, id, paidAt, transactionRef))
	if err != nil {
		if err == sql.ErrNoRows {
			return req, r.settleConflict(ctx, id)
		}

		l.Error().Err(err).Send()

		return req, errorspkg.ErrInternal
	}

	return req, nil
}

const setStatusQuery = `
UPDATE money_requests
SET status = $2
WHERE id = $1 AND status = 'pending'
RETURNING` + requestColumns

// SetStatus transitions a pending request to the given terminal status.
func (r *RepoPGS) SetStatus(ctx context.Context, id int64, status string) (domain.MoneyRequest, error) {
	l := zerolog.Ctx(ctx)

	req, err := scanRequest(r.db.QueryRowContext(ctx, setStatusQuery, id, status))
	if err != nil {
		if err == sql.ErrNoRows {
			return req, r.settleConflict(ctx, id)
		}

		l.Error().Err(err).Send()

		return req, errorspkg.ErrInternal
	}

	return req, nil
}

// settleConflict distinguishes a missing request from one that already
// reached a terminal state.
func (r *RepoPGS) settleConflict(ctx context.Context, id int64) error {
	if _, err := r.Get(ctx, id); err != nil {
		return err
	}

	return domain.ErrAlreadySettled
}

type scannable interface {
	Scan(dest ...interface{}) error
}

func scanRequest(row scannable) (domain.MoneyRequest, error) {
	var (
		req    domain.MoneyRequest
		paidAt sql.NullTime
		txRef  sql.NullString
	)

	err := row.Scan(
		&req.ID,
		&req.RequesterID,
		&req.PayerID,
		&req.Amount,
		&req.Description,
		&req.Status,
		&req.ExpiresAt,
		&paidAt,
		&txRef,
		&req.CreatedAt,
	)
	if err != nil {
		return req, err
	}

	if paidAt.Valid {
		req.PaidAt = &paidAt.Time
	}

	req.TransactionReference = txRef.String

	return req, nil
}
