// Package entryrepo manages repository layer of ledger entries.
//
// The transactions table is append-only: entries are inserted in a terminal
// status and never updated or deleted. Spend aggregations are always derived
// from it instead of cached counters.
package entryrepo

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/lib/pq"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/paisabook/paisabook/internal/domain"
	"github.com/paisabook/paisabook/pkg/dbpkg"
	"github.com/paisabook/paisabook/pkg/errorspkg"
)

// RepoPGS facilitates entry repository layer logic.
type RepoPGS struct {
	db dbpkg.SQLInterface
}

// NewRepoPGS returns entry RepoPGS.
func NewRepoPGS(db dbpkg.SQLInterface) *RepoPGS {
	return &RepoPGS{db: db}
}

const entryColumns = `
	id, account_id, type, amount, opening_balance, closing_balance, status,
	reference, counterparty_name, counterparty_account, external_ref, metadata, created_at`

const createQuery = `
INSERT INTO
    transactions (account_id, type, amount, opening_balance, closing_balance, status,
                  reference, counterparty_name, counterparty_account, external_ref, metadata)
VALUES
    ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
RETURNING` + entryColumns

// Create appends the entry and then returns it.
func (r *RepoPGS) Create(ctx context.Context, arg domain.CreateEntryParams) (domain.Entry, error) {
	l := zerolog.Ctx(ctx)

	metadata, err := json.Marshal(arg.Metadata)
	if err != nil {
		l.Error().Err(err).Send()
		return domain.Entry{}, errorspkg.ErrInternal
	}

	var externalRef sql.NullString
	if arg.ExternalRef != "" {
		externalRef = sql.NullString{String: arg.ExternalRef, Valid: true}
	}

	row := r.db.QueryRowContext(ctx, createQuery,
		arg.AccountID,
		arg.Type,
		arg.Amount,
		arg.OpeningBalance,
		arg.ClosingBalance,
		arg.Status,
		arg.Reference,
		arg.CounterpartyName,
		arg.CounterpartyAccount,
		externalRef,
		metadata,
	)

	e, err := scanEntry(row)
	if err != nil {
		l.Error().Err(err).Msgf("Create(ctx, %+v)", arg)

		if pqErr, ok := err.(*pq.Error); ok {
			switch pqErr.Constraint {
			case "transactions_reference_key", "transactions_external_ref_key":
				return e, domain.ErrDuplicateReference
			case "transactions_account_id_fkey":
				return e, domain.ErrAccountNotFound
			}
		}

		return e, errorspkg.ErrInternal
	}

	return e, nil
}

const getQuery = `
SELECT` + entryColumns + `
FROM transactions
WHERE id = $1
`

// Get returns the entry with the given id.
func (r *RepoPGS) Get(ctx context.Context, id int64) (domain.Entry, error) {
	return r.getOne(ctx, getQuery, id)
}

const getByReferenceQuery = `
SELECT` + entryColumns + `
FROM transactions
WHERE reference = $1
`

// GetByReference returns the entry with the given reference number.
func (r *RepoPGS) GetByReference(ctx context.Context, reference string) (domain.Entry, error) {
	return r.getOne(ctx, getByReferenceQuery, reference)
}

const getByExternalRefQuery = `
SELECT` + entryColumns + `
FROM transactions
WHERE external_ref = $1
`

// GetByExternalRef returns the entry credited for the given gateway reference.
func (r *RepoPGS) GetByExternalRef(ctx context.Context, externalRef string) (domain.Entry, error) {
	return r.getOne(ctx, getByExternalRefQuery, externalRef)
}

const countQuery = `
SELECT COUNT(*)
FROM transactions
WHERE account_id = $1
  AND ($2 = '' OR type = $2)
  AND ($3 = '' OR status = $3)
`

const listQuery = `
SELECT` + entryColumns + `
FROM transactions
WHERE account_id = $1
  AND ($2 = '' OR type = $2)
  AND ($3 = '' OR status = $3)
ORDER BY created_at DESC, id DESC
LIMIT $4 OFFSET $5
`

// List returns one newest-first page of the account's history.
func (r *RepoPGS) List(ctx context.Context, accountID int64, arg domain.ListEntriesParams) ([]domain.Entry, domain.Pagination, error) {
	l := zerolog.Ctx(ctx)

	pagination := domain.Pagination{Page: arg.Page, Limit: arg.Limit}

	row := r.db.QueryRowContext(ctx, countQuery, accountID, arg.Type, arg.Status)
	if err := row.Scan(&pagination.Total); err != nil {
		l.Error().Err(err).Send()
		return nil, pagination, errorspkg.ErrInternal
	}

	pagination.TotalPages = int32((pagination.Total + int64(arg.Limit) - 1) / int64(arg.Limit))

	offset := (arg.Page - 1) * arg.Limit

	rows, err := r.db.QueryContext(ctx, listQuery, accountID, arg.Type, arg.Status, arg.Limit, offset)
	if err != nil {
		l.Error().Err(err).Send()
		return nil, pagination, errorspkg.ErrInternal
	}
	defer rows.Close()

	items := []domain.Entry{}

	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			l.Error().Err(err).Send()
			return nil, pagination, errorspkg.ErrInternal
		}

		items = append(items, e)
	}

	if err := rows.Err(); err != nil {
		l.Error().Err(err).Send()
		return nil, pagination, errorspkg.ErrInternal
	}

	return items, pagination, nil
}

const sumOutgoingQuery = `
SELECT COALESCE(SUM(-amount), 0)
FROM transactions
WHERE account_id = $1
  AND amount < 0
  AND type IN ('transfer', 'payment')
  AND status = 'completed'
  AND created_at >= $2
`

// SumOutgoingSince returns the total completed outgoing transfer volume since
// the given instant, as a positive number.
func (r *RepoPGS) SumOutgoingSince(ctx context.Context, accountID int64, since time.Time) (decimal.Decimal, error) {
	l := zerolog.Ctx(ctx)

	var sum decimal.Decimal

	row := r.db.QueryRowContext(ctx, sumOutgoingQuery, accountID, since)
	if err := row.Scan(&sum); err != nil {
		l.Error().Err(err).Send()
		return decimal.Zero, errorspkg.ErrInternal
	}

	return sum, nil
}

const countOutgoingQuery = `
SELECT COUNT(*)
FROM transactions
WHERE account_id = $1
  AND amount < 0
  AND type IN ('transfer', 'payment')
  AND status = 'completed'
  AND created_at >= $2
`

// CountOutgoingSince returns how many completed outgoing transfers the
// account made since the given instant.
func (r *RepoPGS) CountOutgoingSince(ctx context.Context, accountID int64, since time.Time) (int, error) {
	l := zerolog.Ctx(ctx)

	var count int

	row := r.db.QueryRowContext(ctx, countOutgoingQuery, accountID, since)
	if err := row.Scan(&count); err != nil {
		l.Error().Err(err).Send()
		return 0, errorspkg.ErrInternal
	}

	return count, nil
}

func (r *RepoPGS) getOne(ctx context.Context, query string, arg interface{}) (domain.Entry, error) {
	l := zerolog.Ctx(ctx)

	e, err := scanEntry(r.db.QueryRowContext(ctx, query, arg))
	if err != nil {
		if err == sql.ErrNoRows {
			return e, domain.ErrEntryNotFound
		}

		l.Error().Err(err).Send()

		return e, errorspkg.ErrInternal
	}

	return e, nil
}

type scannable interface {
	Scan(dest ...interface{}) error
}

func scanEntry(row scannable) (domain.Entry, error) {
	var (
		e           domain.Entry
		externalRef sql.NullString
		metadata    []byte
	)

	err := row.Scan(
		&e.ID,
		&e.AccountID,
		&e.Type,
		&e.Amount,
		&e.OpeningBalance,
		&e.ClosingBalance,
		&e.Status,
		&e.Reference,
		&e.CounterpartyName,
		&e.CounterpartyAccount,
		&externalRef,
		&metadata,
		&e.CreatedAt,
	)
	if err != nil {
		return e, err
	}

	e.ExternalRef = externalRef.String

	if len(metadata) > 0 {
		if err := json.Unmarshal(metadata, &e.Metadata); err != nil {
			return e, err
		}
	}

	return e, nil
}
