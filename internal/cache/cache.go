package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// ResultCache is an optional Redis-backed cache for serialized catalog
// query responses. Keys embed the snapshot revision, so a catalog refresh
// implicitly invalidates every cached result; stale keys simply expire.
// All methods are nil-receiver safe: a nil *ResultCache behaves as a cache
// that never hits, so callers need no enabled/disabled branching.
type ResultCache struct {
	client *redis.Client
	ttl    time.Duration
	log    *logrus.Logger
}

// New connects to Redis at addr and returns a ResultCache, or nil when addr
// is empty (caching disabled) or the server is unreachable. An unreachable
// server is logged, not fatal: the service computes every result instead.
func New(addr string, db int, ttl time.Duration, log *logrus.Logger) *ResultCache {
	if addr == "" {
		return nil
	}
	if log == nil {
		log = logrus.StandardLogger()
	}

	client := redis.NewClient(&redis.Options{Addr: addr, DB: db})
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		log.WithError(err).Warn("redis unavailable, result caching disabled")
		_ = client.Close()
		return nil
	}

	log.WithFields(logrus.Fields{"addr": addr, "ttl": ttl}).Info("redis result cache enabled")
	return &ResultCache{client: client, ttl: ttl, log: log}
}

// Key builds a cache key from the snapshot revision and the raw query
// string. The query string is hashed so arbitrary client input never lands
// in a key verbatim.
func Key(revision uint64, rawQuery string) string {
	sum := sha256.Sum256([]byte(rawQuery))
	return fmt.Sprintf("catalog:%d:%s", revision, hex.EncodeToString(sum[:16]))
}

// Get returns the cached payload for key, or ok=false on a miss. Redis
// errors count as misses and are logged at debug level only.
func (c *ResultCache) Get(ctx context.Context, key string) ([]byte, bool) {
	if c == nil {
		return nil, false
	}
	data, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.log.WithError(err).Debug("redis get failed")
		}
		return nil, false
	}
	return data, true
}

// Set stores the payload under key with the configured TTL. Failures are
// logged and swallowed; caching is best-effort.
func (c *ResultCache) Set(ctx context.Context, key string, payload []byte) {
	if c == nil {
		return
	}
	if err := c.client.Set(ctx, key, payload, c.ttl).Err(); err != nil {
		c.log.WithError(err).Debug("redis set failed")
	}
}

// Close releases the underlying Redis connection.
func (c *ResultCache) Close() error {
	if c == nil {
		return nil
	}
	return c.client.Close()
}
