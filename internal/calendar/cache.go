package calendar

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/spec-kit/cover-rota/internal/domain"
)

// Cache stores resolved busy maps keyed by feed identity and date.
type Cache interface {
	Get(ctx context.Context, key string) (domain.BusyMap, bool)
	Set(ctx context.Context, key string, busy domain.BusyMap, ttl time.Duration)
}

// CacheKey derives a stable key from the feed source and the calendar date.
func CacheKey(source string, date time.Time) string {
	sum := sha256.Sum256([]byte(source))
	return hex.EncodeToString(sum[:8]) + ":" + date.Format("2006-01-02")
}

type memoryEntry struct {
	busy      domain.BusyMap
	expiresAt time.Time
}

// MemoryCache is an in-process TTL cache.
type MemoryCache struct {
	mu      sync.Mutex
	entries map[string]memoryEntry
	now     func() time.Time
}

// NewMemoryCache creates an empty cache. now may be nil to use the wall clock.
func NewMemoryCache(now func() time.Time) *MemoryCache {
	if now == nil {
		now = time.Now
	}
	return &MemoryCache{entries: make(map[string]memoryEntry), now: now}
}

func (c *MemoryCache) Get(_ context.Context, key string) (domain.BusyMap, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	if !c.now().Before(e.expiresAt) {
		delete(c.entries, key)
		return nil, false
	}
	return copyBusy(e.busy), true
}

func (c *MemoryCache) Set(_ context.Context, key string, busy domain.BusyMap, ttl time.Duration) {
	if ttl <= 0 {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = memoryEntry{busy: copyBusy(busy), expiresAt: c.now().Add(ttl)}
}

const redisKeyPrefix = "calendar:busy:"

// RedisCache shares busy maps between instances. Redis failures degrade to cache misses.
type RedisCache struct {
	client *redis.Client
	logger *zap.Logger
}

// NewRedisCache wraps a go-redis client.
func NewRedisCache(client *redis.Client, logger *zap.Logger) *RedisCache {
	return &RedisCache{client: client, logger: logger}
}

func (c *RedisCache) Get(ctx context.Context, key string) (domain.BusyMap, bool) {
	raw, err := c.client.Get(ctx, redisKeyPrefix+key).Bytes()
	if err != nil {
		if err != redis.Nil {
			c.logger.Warn("calendar cache read failed", zap.String("key", key), zap.Error(err))
		}
		return nil, false
	}
	var busy domain.BusyMap
	if err := json.Unmarshal(raw, &busy); err != nil {
		c.logger.Warn("calendar cache entry corrupt", zap.String("key", key), zap.Error(err))
		return nil, false
	}
	return busy, true
}

func (c *RedisCache) Set(ctx context.Context, key string, busy domain.BusyMap, ttl time.Duration) {
	if ttl <= 0 {
		return
	}
	raw, err := json.Marshal(busy)
	if err != nil {
		return
	}
	if err := c.client.Set(ctx, redisKeyPrefix+key, raw, ttl).Err(); err != nil {
		c.logger.Warn("calendar cache write failed", zap.String("key", key), zap.Error(err))
	}
}

func copyBusy(in domain.BusyMap) domain.BusyMap {
	out := make(domain.BusyMap, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
