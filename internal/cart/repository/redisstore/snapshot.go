// Package redisstore persists the device cart replica in Redis: the whole
// item list as one JSON value under a per-device key, expiring with the
// device session.
package redisstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/renovamx/storefront/internal/domain"
)

const keyPrefix = "cart:snapshot:"

// SnapshotStore implements repository.SnapshotStore on Redis.
type SnapshotStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewSnapshotStore creates a Redis-backed snapshot store.
func NewSnapshotStore(client *redis.Client, ttl time.Duration) *SnapshotStore {
	return &SnapshotStore{client: client, ttl: ttl}
}

// Load reads the snapshot for a device. A missing key is an empty cart.
func (s *SnapshotStore) Load(ctx context.Context, deviceID string) ([]domain.LineItem, error) {
	data, err := s.client.Get(ctx, keyPrefix+deviceID).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("redis get cart snapshot: %w", err)
	}

	var items []domain.LineItem
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, fmt.Errorf("unmarshal cart snapshot: %w", err)
	}
	return items, nil
}

// Save replaces the snapshot wholesale with the configured TTL.
func (s *SnapshotStore) Save(ctx context.Context, deviceID string, items []domain.LineItem) error {
	data, err := json.Marshal(items)
	if err != nil {
		return fmt.Errorf("marshal cart snapshot: %w", err)
	}

	if err := s.client.Set(ctx, keyPrefix+deviceID, data, s.ttl).Err(); err != nil {
		return fmt.Errorf("redis set cart snapshot: %w", err)
	}
	return nil
}

// Delete removes the snapshot.
func (s *SnapshotStore) Delete(ctx context.Context, deviceID string) error {
	if err := s.client.Del(ctx, keyPrefix+deviceID).Err(); err != nil {
		return fmt.Errorf("redis del cart snapshot: %w", err)
	}
	return nil
}
