package notifier

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/paisabook/paisabook/internal/domain"
)

// Sink delivers one notification to a user.
type Sink interface {
	Notify(ctx context.Context, userID int64, n domain.Notification) error
}

// LogSink writes notifications to the request logger instead of a broker.
// Used when no broker is configured, in local development and in tests.
type LogSink struct{}

// Notify logs the notification and always succeeds.
func (LogSink) Notify(ctx context.Context, userID int64, n domain.Notification) error {
	zerolog.Ctx(ctx).Info().
		Int64("user_id", userID).
		Str("kind", n.Kind).
		Str("title", n.Title).
		Str("message", n.Message).
		Msg("notification")

	return nil
}
