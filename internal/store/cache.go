package store

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/bytedance/sonic"
	"github.com/redis/go-redis/v9"

	"github.com/PratikDhanave/sms-webhook-inbox/internal/models"
)

// StatsCacheKey is the Redis key holding the cached Stats document.
const StatsCacheKey = "sms-inbox:stats"

// CachedStore serves Stats from Redis and drops the cached document whenever
// Insert creates a row. A Stats miss racing an Insert can repopulate a stale
// document; ttl bounds how long it survives. Redis faults never fail a
// request: they are logged and the wrapped store is used directly.
type CachedStore struct {
	MessageStore

	rdb    *redis.Client
	ttl    time.Duration
	logger *slog.Logger
}

var _ MessageStore = (*CachedStore)(nil)

func NewCachedStore(inner MessageStore, rdb *redis.Client, ttl time.Duration, logger *slog.Logger) *CachedStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &CachedStore{MessageStore: inner, rdb: rdb, ttl: ttl, logger: logger}
}

func (c *CachedStore) Insert(ctx context.Context, msg models.Message) (bool, error) {
	inserted, err := c.MessageStore.Insert(ctx, msg)
	if err != nil || !inserted {
		return inserted, err
	}

	// the row is committed, so invalidate even if the caller has gone away
	if err := c.rdb.Del(context.WithoutCancel(ctx), StatsCacheKey).Err(); err != nil {
		c.logger.Warn("stats cache invalidation failed", "error", err)
	}
	return true, nil
}

func (c *CachedStore) Stats(ctx context.Context) (models.Stats, error) {
	raw, err := c.rdb.Get(ctx, StatsCacheKey).Bytes()
	switch {
	case err == nil:
		var st models.Stats
		decodeErr := sonic.ConfigStd.Unmarshal(raw, &st)
		if decodeErr == nil {
			return st, nil
		}
		c.logger.Warn("stats cache entry unreadable", "error", decodeErr)
	case !errors.Is(err, redis.Nil):
		c.logger.Warn("stats cache read failed", "error", err)
	}

	st, err := c.MessageStore.Stats(ctx)
	if err != nil {
		return models.Stats{}, err
	}

	b, err := sonic.ConfigStd.Marshal(st)
	if err != nil {
		c.logger.Warn("stats cache encode failed", "error", err)
		return st, nil
	}
	if err := c.rdb.Set(ctx, StatsCacheKey, b, c.ttl).Err(); err != nil {
		c.logger.Warn("stats cache write failed", "error", err)
	}
	return st, nil
}

// Close closes the wrapped store and the Redis client.
func (c *CachedStore) Close() error {
	return errors.Join(c.MessageStore.Close(), c.rdb.Close())
}
