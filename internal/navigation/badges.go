package navigation

import (
	"context"
	"fmt"
	"strconv"

	"github.com/redis/go-redis/v9"
)

// RedisBadges keeps badge counters in one Redis hash per owner.
type RedisBadges struct {
	client *redis.Client
}

// NewRedisBadges constructs the Redis backed badge store.
func NewRedisBadges(client *redis.Client) *RedisBadges {
	return &RedisBadges{client: client}
}

// Owner composes the counter owner for a user of a tenant.
func Owner(tenantSlug, userID string) string {
	if userID == "" {
		return ""
	}
	if tenantSlug == "" {
		tenantSlug = "_"
	}
	return tenantSlug + ":" + userID
}

// Counts returns the stored counters for keys. Missing counters are omitted.
func (b *RedisBadges) Counts(ctx context.Context, owner string, keys []string) (map[string]int, error) {
	if b == nil || b.client == nil || len(keys) == 0 {
		return nil, nil
	}
	values, err := b.client.HMGet(ctx, badgeKey(owner), keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("navigation/badges: hmget: %w", err)
	}
	counts := make(map[string]int, len(keys))
	for i, v := range values {
		raw, ok := v.(string)
		if !ok {
			continue
		}
		n, err := strconv.Atoi(raw)
		if err != nil {
			continue
		}
		counts[keys[i]] = n
	}
	return counts, nil
}

// Incr adds delta to a counter and returns the new value.
func (b *RedisBadges) Incr(ctx context.Context, owner, key string, delta int64) (int64, error) {
	n, err := b.client.HIncrBy(ctx, badgeKey(owner), key, delta).Result()
	if err != nil {
		return 0, fmt.Errorf("navigation/badges: hincrby: %w", err)
	}
	return n, nil
}

// Reset clears a counter.
func (b *RedisBadges) Reset(ctx context.Context, owner, key string) error {
	if err := b.client.HDel(ctx, badgeKey(owner), key).Err(); err != nil {
		return fmt.Errorf("navigation/badges: hdel: %w", err)
	}
	return nil
}

func badgeKey(owner string) string {
	return "badges:" + owner
}

var _ BadgeSource = (*RedisBadges)(nil)
