package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Keys for cached snapshots.
const (
	KeyComplianceDeadlines = "compliance:deadlines"
	KeyComplianceRisk      = "compliance:risk_assessment"
)

// DefaultTTL bounds how stale a cached snapshot may get before the next scan refreshes it.
const DefaultTTL = 1 * time.Hour

// Cache wraps a Redis client for JSON snapshot storage
type Cache struct {
	client *redis.Client
}

// New creates a cache over an existing Redis client
func New(client *redis.Client) *Cache {
	return &Cache{client: client}
}

// SetJSON marshals the value and stores it under key with the given TTL
func (c *Cache) SetJSON(ctx context.Context, key string, value any, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal cache value: %w", err)
	}

	if err := c.client.Set(ctx, key, data, ttl).Err(); err != nil {
		return fmt.Errorf("failed to set cache key %s: %w", key, err)
	}

	return nil
}

// GetJSON unmarshals the value stored under key into dest. Returns redis.Nil
// wrapped when the key does not exist.
func (c *Cache) GetJSON(ctx context.Context, key string, dest any) error {
	data, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		return fmt.Errorf("failed to get cache key %s: %w", key, err)
	}

	if err := json.Unmarshal(data, dest); err != nil {
		return fmt.Errorf("failed to unmarshal cache value for %s: %w", key, err)
	}

	return nil
}

// Delete removes a cached key
func (c *Cache) Delete(ctx context.Context, key string) error {
	if err := c.client.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("failed to delete cache key %s: %w", key, err)
	}
	return nil
}

// Ping checks if Redis is reachable
func (c *Cache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}
