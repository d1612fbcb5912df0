package broker

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/BruksfildServices01/clinic-scheduler/internal/httperr"
	"github.com/BruksfildServices01/clinic-scheduler/internal/timeutil"
)

// RedisClaimer grants a key to one caller at a time with SET NX and a TTL.
type RedisClaimer struct {
	rdb    redis.UniversalClient
	prefix string
}

func NewRedisClaimer(rdb redis.UniversalClient) *RedisClaimer {
	return &RedisClaimer{rdb: rdb, prefix: "clinic:claim:"}
}

func (c *RedisClaimer) Claim(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	ok, err := c.rdb.SetNX(ctx, c.prefix+key, 1, ttl).Result()
	if err != nil {
		return false, httperr.Unavailable(fmt.Errorf("redis claim: %w", err))
	}
	return ok, nil
}

func (c *RedisClaimer) Release(ctx context.Context, key string) error {
	if err := c.rdb.Del(ctx, c.prefix+key).Err(); err != nil {
		return httperr.Unavailable(fmt.Errorf("redis release: %w", err))
	}
	return nil
}

type MemoryClaimer struct {
	mu     sync.Mutex
	clock  timeutil.Clock
	claims map[string]time.Time
}

func NewMemoryClaimer(clock timeutil.Clock) *MemoryClaimer {
	return &MemoryClaimer{clock: clock, claims: map[string]time.Time{}}
}

func (c *MemoryClaimer) Claim(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.clock.Now()
	if exp, ok := c.claims[key]; ok && now.Before(exp) {
		return false, nil
	}
	c.claims[key] = now.Add(ttl)
	return true, nil
}

func (c *MemoryClaimer) Release(ctx context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.claims, key)
	return nil
}
