package census

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"log/slog"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"ballotbox/internal/census/metrics"
)

const cacheKeyPrefix = "census:match:"

type cachedMatch struct {
	DocumentNumber string `json:"document_number"`
	Geozone        string `json:"geozone,omitempty"`
}

// RedisCache remembers census matches. Negative and unavailable answers are
// never stored, so a retry after a failure always reaches the census.
// Redis errors degrade to a pass-through.
type RedisCache struct {
	next    Gateway
	client  redis.Cmdable
	ttl     time.Duration
	metrics *metrics.Metrics
	logger  *slog.Logger
}

type CacheOption func(*RedisCache)

func WithCacheMetrics(m *metrics.Metrics) CacheOption {
	return func(c *RedisCache) {
		c.metrics = m
	}
}

func WithCacheLogger(l *slog.Logger) CacheOption {
	return func(c *RedisCache) {
		c.logger = l
	}
}

func NewRedisCache(next Gateway, client redis.Cmdable, ttl time.Duration, opts ...CacheOption) *RedisCache {
	c := &RedisCache{
		next:   next,
		client: client,
		ttl:    ttl,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *RedisCache) Verify(ctx context.Context, req Request) Result {
	key := CacheKey(req)

	raw, err := c.client.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		var m cachedMatch
		if jsonErr := json.Unmarshal(raw, &m); jsonErr == nil {
			c.metrics.IncCacheLookup(true)
			return Match(m.DocumentNumber, m.Geozone)
		}
		c.logger.WarnContext(ctx, "discarding corrupt census cache entry")
	case !errors.Is(err, redis.Nil):
		c.logger.WarnContext(ctx, "census cache read failed", "error", err)
	}
	c.metrics.IncCacheLookup(false)

	res := c.next.Verify(ctx, req)
	if !res.IsMatch() {
		return res
	}

	payload, err := json.Marshal(cachedMatch{DocumentNumber: res.DocumentNumber, Geozone: res.Geozone})
	if err == nil {
		err = c.client.Set(ctx, key, payload, c.ttl).Err()
	}
	if err != nil {
		c.logger.WarnContext(ctx, "census cache write failed", "error", err)
	}
	return res
}

// CacheKey hashes the identifying fields so raw document numbers never
// appear in Redis.
func CacheKey(req Request) string {
	h := sha256.New()
	for _, part := range []string{
		string(req.DocumentType),
		req.DocumentNumber,
		req.PostalCode,
		strconv.Itoa(req.YearOfBirth),
	} {
		h.Write([]byte(part))
		h.Write([]byte{0})
	}
	return cacheKeyPrefix + hex.EncodeToString(h.Sum(nil))
}
