package domain

import "github.com/shopspring/decimal"

// GatewayStatusSuccess is the only gateway status that credits the ledger.
// Any other status is a no-op.
const GatewayStatusSuccess = "SUCCESS"

// ConfirmTopUpParams is the gateway-confirmed payment handed to the Top-Up Engine.
type ConfirmTopUpParams struct {
	UserID        int64
	Amount        string
	ExternalRef   string
	Method        string
	GatewayStatus string
}

// DepositTxParams is the input of the atomic top-up credit.
type DepositTxParams struct {
	AccountID   int64
	Amount      decimal.Decimal
	Method      string
	ExternalRef string
	Description string
}

// DepositTxResult is the outcome of a top-up. Applied is false when the
// gateway status did not confirm the payment and the ledger was left
// untouched. Duplicate is set when the gateway reference was already
// credited; the original entry is returned and no second credit happens.
type DepositTxResult struct {
	Entry     Entry   `json:"entry"`
	Account   Account `json:"account"`
	Applied   bool    `json:"applied"`
	Duplicate bool    `json:"duplicate,omitempty"`
}
