package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"mpvrp-verify-service/internal/domain"
	"mpvrp-verify-service/internal/platform/obs"
	"time"

	redis "github.com/redis/go-redis/v9"
)

const keyPrefix = "mpvrp:verdict:"

// RedisVerdictCache stores verdicts under the fingerprint of their inputs.
type RedisVerdictCache struct {
	Client *redis.Client
	TTL    time.Duration
}

func NewRedisVerdictCache(client *redis.Client, ttl time.Duration) *RedisVerdictCache {
	return &RedisVerdictCache{Client: client, TTL: ttl}
}

// NewRedisClient opens a client from a redis:// URL and checks it responds.
func NewRedisClient(ctx context.Context, url string) (*redis.Client, error) {
	opt, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("redis client: parse url: %w", err)
	}
	rdb := redis.NewClient(opt)
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis client: ping: %w", err)
	}
	return rdb, nil
}

func (c *RedisVerdictCache) Get(ctx context.Context, fingerprint string) (_ *domain.Verdict, _ bool, err error) {
	defer obs.Time(ctx, "verdict.cache.Get")(&err)

	if c.Client == nil {
		return nil, false, errors.New("verdict cache: client is nil")
	}

	b, err := c.Client.Get(ctx, keyPrefix+fingerprint).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("get cached verdict: %w", err)
	}

	var v domain.Verdict
	if err := json.Unmarshal(b, &v); err != nil {
		return nil, false, fmt.Errorf("get cached verdict: decode: %w", err)
	}
	return &v, true, nil
}

func (c *RedisVerdictCache) Put(ctx context.Context, fingerprint string, v domain.Verdict) (err error) {
	defer obs.Time(ctx, "verdict.cache.Put")(&err)

	if c.Client == nil {
		return errors.New("verdict cache: client is nil")
	}

	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("put cached verdict: encode: %w", err)
	}
	if err := c.Client.Set(ctx, keyPrefix+fingerprint, b, c.TTL).Err(); err != nil {
		return fmt.Errorf("put cached verdict: %w", err)
	}
	return nil
}
