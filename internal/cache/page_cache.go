// Package cache stores rendered pages in Redis. Keys embed a per-entity
// generation number, so a write bumps the generation and every older page
// key simply stops being read and ages out through its TTL.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/worldcities/worldcities-api/internal/paging"
)

// Client is the subset of *redis.Client the cache needs.
type Client interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
	Incr(ctx context.Context, key string) *redis.IntCmd
}

// PageCache is safe for concurrent use. A nil *PageCache is a valid,
// disabled cache: every lookup misses and every store is dropped.
type PageCache struct {
	client Client
	prefix string
	ttl    time.Duration
	logger zerolog.Logger
}

func New(client Client, prefix string, ttl time.Duration, logger zerolog.Logger) *PageCache {
	if prefix == "" {
		prefix = "worldcities"
	}
	return &PageCache{
		client: client,
		prefix: prefix,
		ttl:    ttl,
		logger: logger.With().Str("module", "cache").Logger(),
	}
}

// NewRedisClient builds a go-redis client from plain settings.
func NewRedisClient(addr, username, password string, db int) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     addr,
		Username: username,
		Password: password,
		DB:       db,
	})
}

func (c *PageCache) genKey(entity string) string {
	return c.prefix + ":gen:" + entity
}

func (c *PageCache) generation(ctx context.Context, entity string) (int64, error) {
	v, err := c.client.Get(ctx, c.genKey(entity)).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	return v, err
}

// Key returns the cache key for one page request of entity within scope
// (e.g. "all" or "country:7"). An empty key means the page must not be cached.
func (c *PageCache) Key(ctx context.Context, entity, scope string, req paging.Request) string {
	if c == nil {
		return ""
	}
	gen, err := c.generation(ctx, entity)
	if err != nil {
		c.logger.Warn().Err(err).Str("entity", entity).Msg("cache generation lookup failed")
		return ""
	}
	col := strings.ToLower(strings.TrimSpace(req.SortColumn))
	return strings.Join([]string{
		c.prefix, "page", entity, "g" + strconv.FormatInt(gen, 10), scope,
		strconv.Itoa(req.PageIndex), strconv.Itoa(req.PageSize),
		col, string(paging.NormalizeOrder(req.SortOrder)),
	}, ":")
}

// Invalidate retires every cached page of entity.
func (c *PageCache) Invalidate(ctx context.Context, entity string) {
	if c == nil {
		return
	}
	if err := c.client.Incr(ctx, c.genKey(entity)).Err(); err != nil {
		c.logger.Warn().Err(err).Str("entity", entity).Msg("cache invalidation failed")
	}
}

// Get looks key up. Redis or decoding failures are logged and reported as a miss.
func Get[T any](ctx context.Context, c *PageCache, key string) (paging.Page[T], bool) {
	var page paging.Page[T]
	if c == nil || key == "" {
		return page, false
	}
	raw, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.logger.Warn().Err(err).Str("key", key).Msg("cache get failed")
		}
		return page, false
	}
	if err := json.Unmarshal(raw, &page); err != nil {
		c.logger.Warn().Err(err).Str("key", key).Msg("cache entry undecodable")
		return page, false
	}
	c.logger.Debug().Str("key", key).Msg("cache hit")
	return page, true
}

// Set stores page under key; failures are logged and otherwise ignored.
func Set[T any](ctx context.Context, c *PageCache, key string, page paging.Page[T]) {
	if c == nil || key == "" {
		return
	}
	raw, err := json.Marshal(page)
	if err != nil {
		c.logger.Warn().Err(err).Str("key", key).Msg("cache encode failed")
		return
	}
	if err := c.client.Set(ctx, key, raw, c.ttl).Err(); err != nil {
		c.logger.Warn().Err(err).Str("key", key).Msg("cache set failed")
	}
}

// Scope helpers keep key layouts in one place.
func ScopeAll() string { return "all" }

func ScopeCountry(id int64) string { return fmt.Sprintf("country:%d", id) }
