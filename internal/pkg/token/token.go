// internal/pkg/token/token.go
package token

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Purpose identifies what a one-time token is for
type Purpose string

const (
	PurposeEmailVerify   Purpose = "email_verify"
	PurposePasswordReset Purpose = "password_reset"
)

// ErrTokenNotFound is returned when a token is unknown, expired, or already used
var ErrTokenNotFound = errors.New("token not found or expired")

// Manager issues and consumes single-use tokens backed by Redis.
// Tokens are random UUIDs; the stored value is the user ID they belong to.
type Manager struct {
	client *redis.Client
}

// NewManager creates a new token manager
func NewManager(client *redis.Client) *Manager {
	return &Manager{client: client}
}

func key(purpose Purpose, token string) string {
	return fmt.Sprintf("auth_token:%s:%s", purpose, token)
}

// Create issues a new token for the given user and purpose
func (m *Manager) Create(ctx context.Context, purpose Purpose, userID uint, ttl time.Duration) (string, error) {
	token := uuid.New().String()

	if err := m.client.Set(ctx, key(purpose, token), fmt.Sprintf("%d", userID), ttl).Err(); err != nil {
		return "", fmt.Errorf("failed to store token: %w", err)
	}

	return token, nil
}

// Consume validates a token and deletes it so it cannot be reused.
// Returns the user ID the token was issued for.
func (m *Manager) Consume(ctx context.Context, purpose Purpose, token string) (uint, error) {
	k := key(purpose, token)

	val, err := m.client.Get(ctx, k).Result()
	if err == redis.Nil {
		return 0, ErrTokenNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("failed to read token: %w", err)
	}

	var userID uint
	if _, err := fmt.Sscanf(val, "%d", &userID); err != nil {
		// Stored value is unusable, drop it
		m.client.Del(ctx, k)
		return 0, ErrTokenNotFound
	}

	if err := m.client.Del(ctx, k).Err(); err != nil {
		return 0, fmt.Errorf("failed to consume token: %w", err)
	}

	return userID, nil
}
