// internal/domain/cart/pending_store.go
package cart

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

const pendingItemKeyPrefix = "cart:pending:"

// RedisPendingStore holds the single incomplete add-to-cart attempt for a
// device. The slot survives a full-page navigation such as the login redirect.
type RedisPendingStore struct {
	client   *redis.Client
	deviceID string
	ttl      time.Duration
	logger   *logrus.Logger
}

// NewRedisPendingStore creates a device-scoped pending-item store.
func NewRedisPendingStore(client *redis.Client, deviceID string, ttl time.Duration, logger *logrus.Logger) *RedisPendingStore {
	return &RedisPendingStore{
		client:   client,
		deviceID: deviceID,
		ttl:      ttl,
		logger:   logger,
	}
}

func (s *RedisPendingStore) key() string {
	return pendingItemKeyPrefix + s.deviceID
}

// Get returns the pending item, or nil if the slot is empty.
func (s *RedisPendingStore) Get(ctx context.Context) (*PendingItem, error) {
	if s.deviceID == "" {
		return nil, fmt.Errorf("device ID required for pending item")
	}

	data, err := s.client.Get(ctx, s.key()).Result()
	if err == redis.Nil {
		return nil, nil
	} else if err != nil {
		return nil, fmt.Errorf("failed to read pending item: %w", err)
	}

	var item PendingItem
	if err := json.Unmarshal([]byte(data), &item); err != nil {
		s.logger.WithFields(logrus.Fields{
			"device_id": s.deviceID,
			"error":     err.Error(),
		}).Warn("Discarding malformed pending item")
		s.client.Del(ctx, s.key())
		return nil, nil
	}

	return &item, nil
}

// Put stores the pending item, replacing any previous one.
func (s *RedisPendingStore) Put(ctx context.Context, item PendingItem) error {
	if s.deviceID == "" {
		return fmt.Errorf("device ID required for pending item")
	}

	data, err := json.Marshal(item)
	if err != nil {
		return fmt.Errorf("failed to marshal pending item: %w", err)
	}

	if err := s.client.Set(ctx, s.key(), data, s.ttl).Err(); err != nil {
		return fmt.Errorf("failed to write pending item: %w", err)
	}
	return nil
}

// Clear empties the pending slot.
func (s *RedisPendingStore) Clear(ctx context.Context) error {
	if err := s.client.Del(ctx, s.key()).Err(); err != nil {
		return fmt.Errorf("failed to clear pending item: %w", err)
	}
	return nil
}
