package domain

import (
	"errors"
	"time"
)

var (
	// ErrUserNotFound indicates that the user is not found.
	ErrUserNotFound = errors.New("user not found")
	// ErrPhoneAlreadyExists indicates that the phone number is already registered.
	ErrPhoneAlreadyExists = errors.New("phone number already registered")
	// ErrEmailAlreadyExists indicates that the email is already registered.
	ErrEmailAlreadyExists = errors.New("email already registered")
	// ErrWrongPassword indicates the wrong password for the given user.
	ErrWrongPassword = errors.New("wrong password")
)

// User holds user identity data. MPIN and password are stored hashed only.
type User struct {
	ID             int64     `json:"id"`
	Phone          string    `json:"phone"`
	FullName       string    `json:"full_name"`
	Email          string    `json:"email"`
	HashedPassword string    `json:"-"`
	HashedMPIN     string    `json:"-"`
	CreatedAt      time.Time `json:"created_at"`
}

// CreateUserParams is the input data to create a user.
type CreateUserParams struct {
	Phone          string
	FullName       string
	Email          string
	HashedPassword string
	HashedMPIN     string
}
