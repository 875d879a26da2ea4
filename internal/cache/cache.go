// Package cache keeps computed dashboard views in Redis. Entries are fresh for
// TTL, then served stale for up to StaleTTL while one background refresh
// replaces them. Writes to the calendar bump a generation counter so every
// older entry stops being addressable at once.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/wolfman30/salon-dashboard/pkg/logging"
)

// Cache outcomes reported to the Recorder.
const (
	ResultHit   = "hit"
	ResultStale = "stale"
	ResultMiss  = "miss"
	ResultError = "error"
)

// Recorder receives one observation per lookup.
type Recorder interface {
	ObserveCache(view, result string)
}

// Options configures a Cache.
type Options struct {
	Prefix         string
	TTL            time.Duration
	StaleTTL       time.Duration
	RefreshTimeout time.Duration
	Logger         *logging.Logger
	Recorder       Recorder
	Now            func() time.Time
}

// Cache is a generation-scoped, stale-while-revalidate JSON cache.
type Cache struct {
	rdb            *redis.Client
	prefix         string
	ttl            time.Duration
	staleTTL       time.Duration
	refreshTimeout time.Duration
	logger         *logging.Logger
	recorder       Recorder
	now            func() time.Time
	wg             sync.WaitGroup
}

type entry struct {
	Value    json.RawMessage `json:"value"`
	StoredAt time.Time       `json:"stored_at"`
}

// New creates a cache. A nil client yields a nil cache, which Fetch treats as
// "always load".
func New(rdb *redis.Client, opts Options) *Cache {
	if rdb == nil {
		return nil
	}
	if opts.Prefix == "" {
		opts.Prefix = "salon:dashboard"
	}
	if opts.TTL <= 0 {
		opts.TTL = 30 * time.Second
	}
	if opts.StaleTTL < 0 {
		opts.StaleTTL = 0
	}
	if opts.RefreshTimeout <= 0 {
		opts.RefreshTimeout = 10 * time.Second
	}
	if opts.Logger == nil {
		opts.Logger = logging.Default()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Cache{
		rdb:            rdb,
		prefix:         opts.Prefix,
		ttl:            opts.TTL,
		staleTTL:       opts.StaleTTL,
		refreshTimeout: opts.RefreshTimeout,
		logger:         opts.Logger,
		recorder:       opts.Recorder,
		now:            opts.Now,
	}
}

// Fetch returns the cached value for key or loads and stores it. view names
// the kind of value for metrics. Redis failures fall back to load.
func Fetch[T any](ctx context.Context, c *Cache, view, key string, load func(context.Context) (T, error)) (T, error) {
	if c == nil {
		return load(ctx)
	}

	full, err := c.fullKey(ctx, view, key)
	if err != nil {
		c.observe(view, ResultError)
		c.logger.Warn("cache: generation lookup failed", "view", view, "error", err)
		return load(ctx)
	}

	e, err := c.read(ctx, full)
	switch {
	case errors.Is(err, redis.Nil):
		c.observe(view, ResultMiss)
	case err != nil:
		c.observe(view, ResultError)
		c.logger.Warn("cache: read failed", "view", view, "key", full, "error", err)
	default:
		var v T
		if decodeErr := json.Unmarshal(e.Value, &v); decodeErr != nil {
			c.observe(view, ResultError)
			c.logger.Warn("cache: decode failed", "view", view, "key", full, "error", decodeErr)
			break
		}
		if c.now().Sub(e.StoredAt) <= c.ttl {
			c.observe(view, ResultHit)
			return v, nil
		}
		c.observe(view, ResultStale)
		refresh(ctx, c, view, full, load)
		return v, nil
	}

	v, err := load(ctx)
	if err != nil {
		var zero T
		return zero, err
	}
	c.write(ctx, view, full, v)
	return v, nil
}

// Invalidate retires every entry written before the call.
func (c *Cache) Invalidate(ctx context.Context) error {
	if c == nil {
		return nil
	}
	if err := c.rdb.Incr(ctx, c.generationKey()).Err(); err != nil {
		return fmt.Errorf("cache: invalidate: %w", err)
	}
	return nil
}

// Wait blocks until in-flight background refreshes finish.
func (c *Cache) Wait() {
	if c == nil {
		return
	}
	c.wg.Wait()
}

// refresh reloads full in the background unless another refresh holds the lock.
func refresh[T any](ctx context.Context, c *Cache, view, full string, load func(context.Context) (T, error)) {
	ok, err := c.rdb.SetNX(ctx, full+":refresh", 1, c.refreshTimeout).Result()
	if err != nil || !ok {
		return
	}

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		bg, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.refreshTimeout)
		defer cancel()
		defer c.rdb.Del(bg, full+":refresh")

		v, err := load(bg)
		if err != nil {
			c.logger.Warn("cache: background refresh failed", "view", view, "key", full, "error", err)
			return
		}
		c.write(bg, view, full, v)
	}()
}

func (c *Cache) read(ctx context.Context, full string) (entry, error) {
	raw, err := c.rdb.Get(ctx, full).Bytes()
	if err != nil {
		return entry{}, err
	}
	var e entry
	if err := json.Unmarshal(raw, &e); err != nil {
		return entry{}, fmt.Errorf("cache: unmarshal entry: %w", err)
	}
	return e, nil
}

func (c *Cache) write(ctx context.Context, view, full string, v any) {
	value, err := json.Marshal(v)
	if err != nil {
		c.logger.Warn("cache: encode failed", "view", view, "error", err)
		return
	}
	data, err := json.Marshal(entry{Value: value, StoredAt: c.now()})
	if err != nil {
		return
	}
	if err := c.rdb.Set(ctx, full, data, c.ttl+c.staleTTL).Err(); err != nil {
		c.logger.Warn("cache: write failed", "view", view, "key", full, "error", err)
	}
}

func (c *Cache) generationKey() string {
	return c.prefix + ":generation"
}

func (c *Cache) fullKey(ctx context.Context, view, key string) (string, error) {
	gen, err := c.rdb.Get(ctx, c.generationKey()).Int64()
	if err != nil && !errors.Is(err, redis.Nil) {
		return "", err
	}
	return fmt.Sprintf("%s:g%d:%s:%s", c.prefix, gen, view, key), nil
}

func (c *Cache) observe(view, result string) {
	if c.recorder != nil {
		c.recorder.ObserveCache(view, result)
	}
}
