package cache

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// Tiered is a two-level cache: an in-process map in front of an optional
// Redis instance. L1 is lost on restart, L2 survives it.
type Tiered struct {
	l1     sync.Map // key -> entry
	rdb    *redis.Client
	ttl    time.Duration
	prefix string
	now    func() time.Time
}

type entry struct {
	data      []byte
	expiresAt time.Time
}

// New creates a cache with the given TTL. An empty redisURL, or one that
// cannot be reached, leaves the cache memory-only.
func New(redisURL string, ttl time.Duration) *Tiered {
	c := &Tiered{ttl: ttl, prefix: "study-planner:", now: time.Now}

	if redisURL == "" {
		return c
	}

	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		log.Printf("Warning: invalid redis URL, using memory cache only: %v", err)
		return c
	}

	rdb := redis.NewClient(opts)
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		log.Printf("Warning: redis unreachable at %s, using memory cache only: %v", opts.Addr, err)
		_ = rdb.Close()
		return c
	}

	log.Printf("Redis cache connected at %s", opts.Addr)
	c.rdb = rdb
	return c
}

// Get tries L1 first, then L2. An L2 hit is copied into L1.
func (c *Tiered) Get(ctx context.Context, key string) ([]byte, bool) {
	if v, ok := c.l1.Load(key); ok {
		e := v.(*entry)
		if c.now().Before(e.expiresAt) {
			return e.data, true
		}
		c.l1.Delete(key)
	}

	if c.rdb == nil {
		return nil, false
	}

	data, err := c.rdb.Get(ctx, c.prefix+key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			log.Printf("Warning: redis get %s failed: %v", key, err)
		}
		return nil, false
	}

	c.l1.Store(key, &entry{data: data, expiresAt: c.now().Add(c.ttl)})
	return data, true
}

// Set writes to both levels. Redis failures are logged and otherwise ignored.
func (c *Tiered) Set(ctx context.Context, key string, value []byte) {
	c.l1.Store(key, &entry{data: value, expiresAt: c.now().Add(c.ttl)})

	if c.rdb == nil {
		return
	}
	if err := c.rdb.Set(ctx, c.prefix+key, value, c.ttl).Err(); err != nil {
		log.Printf("Warning: redis set %s failed: %v", key, err)
	}
}

// Purge drops expired L1 entries.
func (c *Tiered) Purge() int {
	removed := 0
	now := c.now()
	c.l1.Range(func(k, v any) bool {
		if !now.Before(v.(*entry).expiresAt) {
			c.l1.Delete(k)
			removed++
		}
		return true
	})
	return removed
}

func (c *Tiered) Close() error {
	if c.rdb == nil {
		return nil
	}
	return c.rdb.Close()
}
