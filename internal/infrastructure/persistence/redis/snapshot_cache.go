package redis

import (
	"context"
	"errors"
	"time"

	"github.com/heron-guild/guildhall/internal/domain/guild"
	"github.com/heron-guild/guildhall/pkg/logger"
)

// SnapshotCache is a guild.SnapshotRepository that keeps the latest snapshot
// of each member in Redis in front of the durable store. Cache failures are
// logged and never fail a call.
type SnapshotCache struct {
	inner  guild.SnapshotRepository
	kv     KeyValue
	ttl    time.Duration
	logger *logger.Logger
}

// NewSnapshotCache wraps inner. A non-positive ttl uses TTLSnapshotCache.
func NewSnapshotCache(inner guild.SnapshotRepository, kv KeyValue, ttl time.Duration, log *logger.Logger) *SnapshotCache {
	if ttl <= 0 {
		ttl = TTLSnapshotCache
	}
	if log == nil {
		log = logger.Nop()
	}
	return &SnapshotCache{inner: inner, kv: kv, ttl: ttl, logger: log.With(logger.Component("snapshot_cache"))}
}

// Load implements guild.SnapshotRepository.
func (c *SnapshotCache) Load(ctx context.Context, userID string) (guild.State, error) {
	key := SnapshotKey(userID)
	data, err := c.kv.GetBytes(ctx, key)
	switch {
	case err == nil:
		s, derr := guild.Decode(data)
		if derr == nil {
			return s, nil
		}
		c.logger.Warn("dropping unreadable cached snapshot", logger.UserID(userID), logger.Err(derr))
		_ = c.kv.Delete(ctx, key)
	case !errors.Is(err, ErrCacheMiss):
		c.logger.Warn("snapshot cache read failed", logger.UserID(userID), logger.Err(err))
	}

	s, err := c.inner.Load(ctx, userID)
	if err != nil {
		return guild.State{}, err
	}
	c.put(ctx, userID, s)
	return s, nil
}

// Save implements guild.SnapshotRepository. The durable store is written
// first; the cache entry is dropped if that fails.
func (c *SnapshotCache) Save(ctx context.Context, userID string, s guild.State) error {
	if err := c.inner.Save(ctx, userID, s); err != nil {
		if derr := c.kv.Delete(ctx, SnapshotKey(userID)); derr != nil {
			c.logger.Warn("snapshot cache invalidation failed", logger.UserID(userID), logger.Err(derr))
		}
		return err
	}
	c.put(ctx, userID, s)
	return nil
}

func (c *SnapshotCache) put(ctx context.Context, userID string, s guild.State) {
	data, err := guild.Encode(s)
	if err != nil {
		c.logger.Warn("snapshot encode failed", logger.UserID(userID), logger.Err(err))
		return
	}
	if err := c.kv.SetBytes(ctx, SnapshotKey(userID), data, c.ttl); err != nil {
		c.logger.Warn("snapshot cache write failed", logger.UserID(userID), logger.Err(err))
	}
}
