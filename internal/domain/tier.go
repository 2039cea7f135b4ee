package domain

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

var (
	// ErrInvalidMPIN indicates the transaction PIN did not match.
	ErrInvalidMPIN = errors.New("invalid transaction PIN")
	// ErrInvalidOTP indicates the one-time code did not match or expired.
	ErrInvalidOTP = errors.New("invalid or expired one-time code")
)

// AuthTier is an authorization strength class. The ceiling is inclusive:
// a transfer of exactly the ceiling amount passes.
type AuthTier struct {
	Name          string
	Ceiling       decimal.Decimal
	CheckLimits   bool // daily/monthly spend limits apply
	CheckVelocity bool // trailing-window transfer count applies
}

var (
	// TierBasic authorizes with the 4-digit MPIN.
	TierBasic = AuthTier{
		Name:    "basic",
		Ceiling: decimal.NewFromInt(10_000),
	}

	// TierSecure authorizes with a one-time code and allows larger amounts,
	// in exchange for spend-limit and velocity checks.
	TierSecure = AuthTier{
		Name:          "secure",
		Ceiling:       decimal.NewFromInt(50_000),
		CheckLimits:   true,
		CheckVelocity: true,
	}
)

// Velocity bounds for the secure tier.
const (
	VelocityLimit  = 5
	VelocityWindow = 5 * time.Minute
)
