// Package cache holds Redis-backed lookups and locks shared by API and workers.
package cache

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/go-redis/redis/v8"
)

const DefaultMessageTTL = 7 * 24 * time.Hour

// MessageCache maps vendor message ids to local message ids so delivery
// callbacks can skip the database lookup.
type MessageCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewMessageCache(client *redis.Client, ttl time.Duration) *MessageCache {
	if ttl <= 0 {
		ttl = DefaultMessageTTL
	}
	return &MessageCache{client: client, ttl: ttl}
}

func messageKey(providerName, externalID string) string {
	return fmt.Sprintf("message:%s:%s", providerName, externalID)
}

// Remember stores the local id of a message sent through providerName.
func (c *MessageCache) Remember(ctx context.Context, providerName, externalID string, messageID int64) error {
	if err := c.client.Set(ctx, messageKey(providerName, externalID), messageID, c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to cache message id: %w", err)
	}
	return nil
}

// Lookup returns the cached local id, reporting false on a miss.
func (c *MessageCache) Lookup(ctx context.Context, providerName, externalID string) (int64, bool, error) {
	val, err := c.client.Get(ctx, messageKey(providerName, externalID)).Result()
	if errors.Is(err, redis.Nil) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("failed to read cached message id: %w", err)
	}

	id, err := strconv.ParseInt(val, 10, 64)
	if err != nil {
		return 0, false, fmt.Errorf("invalid cached message id %q: %w", val, err)
	}

	return id, true, nil
}

func (c *MessageCache) Forget(ctx context.Context, providerName, externalID string) error {
	if err := c.client.Del(ctx, messageKey(providerName, externalID)).Err(); err != nil {
		return fmt.Errorf("failed to evict cached message id: %w", err)
	}
	return nil
}
