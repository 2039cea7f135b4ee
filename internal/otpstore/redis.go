// Package otpstore keeps one-time transfer codes in Redis.
//
// Codes live under a per-user key with a TTL and are consumed with GETDEL,
// so each issued code authorizes at most one transfer.
package otpstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/paisabook/paisabook/internal/domain"
)

// Store holds one-time codes with an expiry.
type Store struct {
	client *redis.Client
	ttl    time.Duration
}

// New returns an OTP store over the given Redis client.
func New(client *redis.Client, ttl time.Duration) *Store {
	return &Store{client: client, ttl: ttl}
}

// Set stores the user's current code, replacing any previous one.
func (s *Store) Set(ctx context.Context, userID int64, code string) error {
	if err := s.client.Set(ctx, key(userID), code, s.ttl).Err(); err != nil {
		return fmt.Errorf("otpstore: set: %w", err)
	}

	return nil
}

// GetDel returns the user's code and deletes it in the same operation. A
// missing or expired code yields domain.ErrInvalidOTP.
func (s *Store) GetDel(ctx context.Context, userID int64) (string, error) {
	code, err := s.client.GetDel(ctx, key(userID)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", domain.ErrInvalidOTP
		}

		return "", fmt.Errorf("otpstore: getdel: %w", err)
	}

	return code, nil
}

func key(userID int64) string {
	return fmt.Sprintf("otp:%d", userID)
}
