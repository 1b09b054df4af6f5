// Package cache stores computed statistics in Redis.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"eventparticipation/internal/domain"
)

const (
	keyPrefix        = "stats:event:"
	generationPrefix = "stats:gen:"
)

// kv is the subset of the go-redis client used by the cache.
type kv interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
	Incr(ctx context.Context, key string) *redis.IntCmd
}

// StatisticsCache is a Redis-backed domain.StatisticsCache (cache-aside).
// Entries live under stats:event:<id>:<generation>; Invalidate bumps
// stats:gen:<id> and entries of older generations expire on their TTL.
type StatisticsCache struct {
	client kv
}

// NewStatisticsCache returns a cache using client, typically a *redis.Client.
func NewStatisticsCache(client kv) *StatisticsCache {
	return &StatisticsCache{client: client}
}

func buildKey(eventID string, generation int64) string {
	return fmt.Sprintf("%s%s:%d", keyPrefix, eventID, generation)
}

func generationKey(eventID string) string {
	return generationPrefix + eventID
}

// Generation returns 0 for an event that was never invalidated.
func (c *StatisticsCache) Generation(ctx context.Context, eventID string) (int64, error) {
	gen, err := c.client.Get(ctx, generationKey(eventID)).Int64()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, nil
		}
		return 0, fmt.Errorf("redis get generation: %w", err)
	}
	return gen, nil
}

// Get returns domain.ErrNotFound on a miss. Undecodable entries are deleted and
// reported as a miss.
func (c *StatisticsCache) Get(ctx context.Context, eventID string, generation int64) (*domain.EventStatistics, error) {
	key := buildKey(eventID, generation)
	raw, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("redis get: %w", err)
	}
	var st domain.EventStatistics
	if err := json.Unmarshal(raw, &st); err != nil {
		c.client.Del(ctx, key)
		return nil, domain.ErrNotFound
	}
	return &st, nil
}

func (c *StatisticsCache) Set(ctx context.Context, st *domain.EventStatistics, generation int64, ttl time.Duration) error {
	data, err := json.Marshal(st)
	if err != nil {
		return fmt.Errorf("marshal statistics: %w", err)
	}
	if err := c.client.Set(ctx, buildKey(st.EventID, generation), data, ttl).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

func (c *StatisticsCache) Invalidate(ctx context.Context, eventID string) error {
	if err := c.client.Incr(ctx, generationKey(eventID)).Err(); err != nil {
		return fmt.Errorf("redis incr generation: %w", err)
	}
	return nil
}
