// internal/domain/cart/local_store.go
package cart

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

const deviceCartKeyPrefix = "cart:device:"

// RedisLocalStore keeps the anonymous cart as a JSON blob in Redis, keyed by
// the device session ID. Malformed blobs are discarded and read as an empty
// cart rather than surfacing a parse error.
type RedisLocalStore struct {
	client   *redis.Client
	deviceID string
	ttl      time.Duration
	logger   *logrus.Logger
}

// NewRedisLocalStore creates a device-scoped cart store.
func NewRedisLocalStore(client *redis.Client, deviceID string, ttl time.Duration, logger *logrus.Logger) *RedisLocalStore {
	return &RedisLocalStore{
		client:   client,
		deviceID: deviceID,
		ttl:      ttl,
		logger:   logger,
	}
}

func (s *RedisLocalStore) key() string {
	return deviceCartKeyPrefix + s.deviceID
}

// Read returns the device cart, or an empty list if none exists.
func (s *RedisLocalStore) Read(ctx context.Context) ([]LineItem, error) {
	if s.deviceID == "" {
		return nil, fmt.Errorf("device ID required for local cart")
	}

	data, err := s.client.Get(ctx, s.key()).Result()
	if err == redis.Nil {
		return []LineItem{}, nil
	} else if err != nil {
		return nil, fmt.Errorf("failed to read device cart: %w", err)
	}

	var deviceCart DeviceCart
	if err := json.Unmarshal([]byte(data), &deviceCart); err != nil {
		// Corrupted blob: drop it and start over with an empty cart.
		s.logger.WithFields(logrus.Fields{
			"device_id": s.deviceID,
			"error":     err.Error(),
		}).Warn("Discarding malformed device cart")
		s.client.Del(ctx, s.key())
		return []LineItem{}, nil
	}

	if deviceCart.Items == nil {
		deviceCart.Items = []LineItem{}
	}
	return deviceCart.Items, nil
}

// Write replaces the device cart contents and refreshes its TTL.
func (s *RedisLocalStore) Write(ctx context.Context, items []LineItem) error {
	if s.deviceID == "" {
		return fmt.Errorf("device ID required for local cart")
	}

	now := time.Now().UTC()
	deviceCart := DeviceCart{
		DeviceID:  s.deviceID,
		Items:     items,
		CreatedAt: now,
		UpdatedAt: now,
	}

	data, err := json.Marshal(deviceCart)
	if err != nil {
		return fmt.Errorf("failed to marshal device cart: %w", err)
	}

	if err := s.client.Set(ctx, s.key(), data, s.ttl).Err(); err != nil {
		return fmt.Errorf("failed to write device cart: %w", err)
	}
	return nil
}

// Erase removes the device cart entirely.
func (s *RedisLocalStore) Erase(ctx context.Context) error {
	if err := s.client.Del(ctx, s.key()).Err(); err != nil {
		return fmt.Errorf("failed to erase device cart: %w", err)
	}
	return nil
}
