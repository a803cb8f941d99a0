package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"zonuko/internal/logger"
	"zonuko/internal/models"
)

// CatalogSource lists the age-band catalog the dashboard is built from.
type CatalogSource interface {
	ListByAgeBand(ctx context.Context, band models.AgeBand) ([]models.Project, error)
}

const catalogCachePrefix = "catalog:v1:"

// CachedCatalog serves ListByAgeBand from redis, falling back to the
// underlying source on a miss or any redis failure. A nil client disables
// caching.
type CachedCatalog struct {
	source CatalogSource
	rdb    *goredis.Client
	ttl    time.Duration
	log    *logger.Logger
}

func NewCachedCatalog(source CatalogSource, rdb *goredis.Client, ttl time.Duration, log *logger.Logger) *CachedCatalog {
	if log == nil {
		log = logger.Nop()
	}
	return &CachedCatalog{
		source: source,
		rdb:    rdb,
		ttl:    ttl,
		log:    log.With("service", "CachedCatalog"),
	}
}

// NewRedisClient connects to addr and pings it. An empty addr returns a nil
// client, which CachedCatalog treats as caching disabled.
func NewRedisClient(ctx context.Context, addr string) (*goredis.Client, error) {
	if addr == "" {
		return nil, nil
	}
	rdb := goredis.NewClient(&goredis.Options{
		Addr:        addr,
		DialTimeout: 5 * time.Second,
	})

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return rdb, nil
}

func catalogKey(band models.AgeBand) string {
	return catalogCachePrefix + string(band)
}

func (c *CachedCatalog) ListByAgeBand(ctx context.Context, band models.AgeBand) ([]models.Project, error) {
	if c.rdb == nil {
		return c.source.ListByAgeBand(ctx, band)
	}

	key := catalogKey(band)
	raw, err := c.rdb.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		var projects []models.Project
		jsonErr := json.Unmarshal(raw, &projects)
		if jsonErr == nil {
			return projects, nil
		}
		c.log.Warn("Discarding unreadable catalog cache entry", "key", key, "error", jsonErr)
	case !errors.Is(err, goredis.Nil):
		c.log.Warn("Catalog cache read failed", "key", key, "error", err)
	}

	projects, err := c.source.ListByAgeBand(ctx, band)
	if err != nil {
		return nil, err
	}

	if payload, err := json.Marshal(projects); err == nil {
		if err := c.rdb.Set(ctx, key, payload, c.ttl).Err(); err != nil {
			c.log.Warn("Catalog cache write failed", "key", key, "error", err)
		}
	}
	return projects, nil
}

// Invalidate drops every cached band.
func (c *CachedCatalog) Invalidate(ctx context.Context) error {
	if c.rdb == nil {
		return nil
	}
	keys := make([]string, 0, len(models.AgeBands))
	for _, band := range models.AgeBands {
		keys = append(keys, catalogKey(band))
	}
	if err := c.rdb.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("failed to invalidate catalog cache: %w", err)
	}
	return nil
}
