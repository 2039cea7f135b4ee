package domain

// Notification kinds.
const (
	NotifyTransferOut = "transfer_out"
	NotifyTransferIn  = "transfer_in"
	NotifyTopUp       = "topup"
	NotifyRequest     = "money_request"
	NotifyOTP         = "otp"
)

// Notification is delivered to a user after a committed financial operation.
// Delivery is best effort and never affects the operation's outcome.
type Notification struct {
	Title    string            `json:"title"`
	Message  string            `json:"message"`
	Kind     string            `json:"kind"`
	Metadata map[string]string `json:"metadata,omitempty"`
}
