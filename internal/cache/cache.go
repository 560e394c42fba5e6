package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/cory-salad/salad-golem-stats-sub000/internal/config"
)

// keyPrefix namespaces every snapshot key in the shared Redis.
const keyPrefix = "golemstats:snapshot:"

// ErrCacheUnavailable is returned by producers that refuse to run without a
// cache backend.
var ErrCacheUnavailable = errors.New("cache unavailable")

type Cache struct {
	enabled bool
	ttl     time.Duration
	client  *redis.Client
}

func New(cfg config.CacheConfig, redisCfg config.RedisConfig) (*Cache, error) {
	c := &Cache{
		enabled: redisCfg.Enabled,
		ttl:     time.Duration(cfg.TTLSeconds) * time.Second,
	}

	if !redisCfg.Enabled {
		return c, nil
	}

	if redisCfg.Addr == "" {
		return nil, errors.New("redis address is required when cache is enabled")
	}

	c.client = redis.NewClient(&redis.Options{
		Addr:     redisCfg.Addr,
		Password: redisCfg.Password,
		DB:       redisCfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	if err := c.client.Ping(ctx).Err(); err != nil {
		return nil, err
	}

	return c, nil
}

func (c *Cache) Close() error {
	if !c.enabled || c.client == nil {
		return nil
	}
	return c.client.Close()
}

func (c *Cache) Enabled() bool {
	return c != nil && c.enabled
}

// TTL is the configured lifetime of a cache entry.
func (c *Cache) TTL() time.Duration {
	return c.ttl
}

func (c *Cache) Ping(ctx context.Context) error {
	if !c.Enabled() {
		return nil
	}
	return c.client.Ping(ctx).Err()
}

func (c *Cache) Get(ctx context.Context, key string) ([]byte, error) {
	if !c.Enabled() {
		return nil, redis.Nil
	}
	return c.client.Get(ctx, key).Bytes()
}

// IsMiss reports whether a Get error just means the key was absent.
func IsMiss(err error) bool {
	return errors.Is(err, redis.Nil)
}

func (c *Cache) Set(ctx context.Context, key string, value []byte) error {
	if !c.Enabled() {
		return nil
	}
	return c.client.Set(ctx, key, value, c.ttl).Err()
}

func (c *Cache) Exists(ctx context.Context, key string) (bool, error) {
	if !c.Enabled() {
		return false, nil
	}
	n, err := c.client.Exists(ctx, key).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (c *Cache) Delete(ctx context.Context, key string) error {
	if !c.Enabled() {
		return nil
	}
	return c.client.Del(ctx, key).Err()
}

// Fingerprint hashes normalized query parameters into a stable cache key.
// Canonical form is JSON with sorted keys, which encoding/json guarantees
// for maps, so any producer building the same parameters lands on the same
// key regardless of insertion order.
func Fingerprint(params map[string]string) string {
	canonical, _ := json.Marshal(params)
	sum := sha256.Sum256(canonical)
	return keyPrefix + hex.EncodeToString(sum[:])
}

// SnapshotKey is the fingerprint for a period snapshot query.
func SnapshotKey(period string) string {
	return Fingerprint(map[string]string{"period": period})
}
