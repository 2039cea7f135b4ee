// Package userrepo manages repository layer of users.
package userrepo

import (
	"context"
	"database/sql"

	"github.com/lib/pq"
	"github.com/rs/zerolog"

	"github.com/paisabook/paisabook/internal/domain"
	"github.com/paisabook/paisabook/pkg/dbpkg"
	"github.com/paisabook/paisabook/pkg/errorspkg"
)

// RepoPGS facilitates user repository layer logic.
type RepoPGS struct {
	db dbpkg.SQLInterface
}

// NewRepoPGS returns user RepoPGS.
func NewRepoPGS(db dbpkg.SQLInterface) *RepoPGS {
	return &RepoPGS{db: db}
}

const createQuery = `
INSERT INTO
    users (phone, full_name, email, hashed_password, hashed_mpin)
VALUES
    ($1, $2, $3, $4, $5)
RETURNING id, phone, full_name, email, hashed_password, hashed_mpin, created_at
`

// Create creates the user and then returns it.
func (r *RepoPGS) Create(ctx context.Context, arg domain.CreateUserParams) (domain.User, error) {
	l := zerolog.Ctx(ctx)

	row := r.db.QueryRowContext(ctx, createQuery,
		arg.Phone, arg.FullName, arg.Email, arg.HashedPassword, arg.HashedMPIN)

	var u domain.User

	err := row.Scan(
		&u.ID,
		&u.Phone,
		&u.FullName,
		&u.Email,
		&u.HashedPassword,
		&u.HashedMPIN,
		&u.CreatedAt,
	)

	if err != nil {
		l.Error().Err(err).Send()

		if pqErr, ok := err.(*pq.Error); ok {
			switch pqErr.Constraint {
			case "users_phone_key":
				return u, domain.ErrPhoneAlreadyExists
			case "users_email_key":
				return u, domain.ErrEmailAlreadyExists
			}
		}

		return u, errorspkg.ErrInternal
	}

	return u, nil
}

const getQuery = `
SELECT
	id, phone, full_name, email, hashed_password, hashed_mpin, created_at
FROM users
WHERE id = $1
`

// Get returns the user with the given id.
func (r *RepoPGS) Get(ctx context.Context, id int64) (domain.User, error) {
	return r.scanOne(ctx, getQuery, id)
}

const getByPhoneQuery = `
SELECT
	id, phone, full_name, email, hashed_password, hashed_mpin, created_at
FROM users
WHERE phone = $1
`

// GetByPhone returns the user with the given phone number.
func (r *RepoPGS) GetByPhone(ctx context.Context, phone string) (domain.User, error) {
	return r.scanOne(ctx, getByPhoneQuery, phone)
}

func (r *RepoPGS) scanOne(ctx context.Context, query string, arg interface{}) (domain.User, error) {
	l := zerolog.Ctx(ctx)

	row := r.db.QueryRowContext(ctx, query, arg)

	var u domain.User

	err := row.Scan(
		&u.ID,
		&u.Phone,
		&u.FullName,
		&u.Email,
		&u.HashedPassword,
		&u.HashedMPIN,
		&u.CreatedAt,
	)

	if err != nil {
		l.Error().Err(err).Send()

		if err == sql.ErrNoRows {
			return u, domain.ErrUserNotFound
		}

		return u, errorspkg.ErrInternal
	}

	return u, nil
}
