package redis

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/heron-guild/guildhall/internal/application/query"
	"github.com/heron-guild/guildhall/pkg/logger"
)

// GuidanceCache memoizes successful oracle guidance answers. Failures are
// never cached so the caller's fallback applies and the next call retries.
type GuidanceCache struct {
	inner  query.Guide
	kv     KeyValue
	ttl    time.Duration
	logger *logger.Logger
}

var _ query.Guide = (*GuidanceCache)(nil)

// NewGuidanceCache wraps inner. A non-positive ttl uses TTLGuidanceCache.
func NewGuidanceCache(inner query.Guide, kv KeyValue, ttl time.Duration, log *logger.Logger) *GuidanceCache {
	if ttl <= 0 {
		ttl = TTLGuidanceCache
	}
	if log == nil {
		log = logger.Nop()
	}
	return &GuidanceCache{inner: inner, kv: kv, ttl: ttl, logger: log.With(logger.Component("guidance_cache"))}
}

// RecommendNext implements query.Guide.
func (c *GuidanceCache) RecommendNext(ctx context.Context, ownedTitles, interests []string) (string, error) {
	key := GuidanceKey("recommend", digest(ownedTitles, interests))
	return c.cached(ctx, key, func() (string, error) {
		return c.inner.RecommendNext(ctx, ownedTitles, interests)
	})
}

// SuggestRequirement implements query.Guide.
func (c *GuidanceCache) SuggestRequirement(ctx context.Context, title, description string, existing []string) (string, error) {
	key := GuidanceKey("requirement", digest([]string{title, description}, existing))
	return c.cached(ctx, key, func() (string, error) {
		return c.inner.SuggestRequirement(ctx, title, description, existing)
	})
}

// RateComplexity implements query.Guide.
func (c *GuidanceCache) RateComplexity(ctx context.Context, title, description string, requirements []string) (int, error) {
	key := GuidanceKey("complexity", digest([]string{title, description}, requirements))
	text, err := c.cached(ctx, key, func() (string, error) {
		n, err := c.inner.RateComplexity(ctx, title, description, requirements)
		if err != nil {
			return "", err
		}
		return strconv.Itoa(n), nil
	})
	if err != nil {
		return 0, err
	}
	return strconv.Atoi(text)
}

func (c *GuidanceCache) cached(ctx context.Context, key string, fetch func() (string, error)) (string, error) {
	data, err := c.kv.GetBytes(ctx, key)
	if err == nil {
		return string(data), nil
	}
	if !errors.Is(err, ErrCacheMiss) {
		c.logger.Warn("guidance cache read failed", logger.Err(err))
	}

	answer, err := fetch()
	if err != nil {
		return "", err
	}
	if err := c.kv.SetBytes(ctx, key, []byte(answer), c.ttl); err != nil {
		c.logger.Warn("guidance cache write failed", logger.Err(err))
	}
	return answer, nil
}

// digest hashes the inputs so keys stay short. Items are joined with the
// ASCII unit separator and groups end with the record separator.
func digest(parts ...[]string) string {
	h := sha256.New()
	for _, p := range parts {
		h.Write([]byte(strings.Join(p, "\x1f")))
		h.Write([]byte{0x1e})
	}
	return hex.EncodeToString(h.Sum(nil))
}
