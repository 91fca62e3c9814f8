package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/BaSui01/browserflow/action"
)

const templateKeyPrefix = "browserflow:template:"

// TemplateCache is a read-through redis cache in front of a TemplateStore.
// Reads hit redis first; misses fall through to the inner store and
// populate the cache. Writes and deletes invalidate the cached entry.
type TemplateCache struct {
	inner  TemplateStore
	client redis.UniversalClient
	ttl    time.Duration
	logger *zap.Logger
}

var _ TemplateStore = (*TemplateCache)(nil)

// NewTemplateCache wraps inner with a redis cache. A zero ttl means
// entries never expire.
func NewTemplateCache(inner TemplateStore, client redis.UniversalClient, ttl time.Duration, logger *zap.Logger) *TemplateCache {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TemplateCache{
		inner:  inner,
		client: client,
		ttl:    ttl,
		logger: logger.Named("template-cache"),
	}
}

// GetTemplate returns the cached records when present, otherwise loads from
// the inner store and caches the result. Cache errors degrade to the inner
// store rather than failing the lookup.
func (c *TemplateCache) GetTemplate(ctx context.Context, name string) ([]action.Record, error) {
	key := templateKeyPrefix + name

	blob, err := c.client.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		var records []action.Record
		if err := json.Unmarshal(blob, &records); err == nil {
			return records, nil
		}
		// Corrupt entry; drop it and fall through.
		c.client.Del(ctx, key)
		c.logger.Warn("dropping corrupt cache entry", zap.String("template", name))
	case errors.Is(err, redis.Nil):
		// miss
	default:
		c.logger.Warn("template cache read failed", zap.String("template", name), zap.Error(err))
	}

	records, err := c.inner.GetTemplate(ctx, name)
	if err != nil {
		return nil, err
	}
	c.fill(ctx, key, records)
	return records, nil
}

// SaveTemplate writes through to the inner store and refreshes the cache.
func (c *TemplateCache) SaveTemplate(ctx context.Context, name string, records []action.Record) error {
	if err := c.inner.SaveTemplate(ctx, name, records); err != nil {
		return err
	}
	c.fill(ctx, templateKeyPrefix+name, records)
	return nil
}

// ListTemplates delegates to the inner store.
func (c *TemplateCache) ListTemplates(ctx context.Context) ([]string, error) {
	return c.inner.ListTemplates(ctx)
}

// DeleteTemplate removes the template and its cached entry.
func (c *TemplateCache) DeleteTemplate(ctx context.Context, name string) error {
	if err := c.inner.DeleteTemplate(ctx, name); err != nil {
		return err
	}
	if err := c.client.Del(ctx, templateKeyPrefix+name).Err(); err != nil {
		c.logger.Warn("template cache invalidation failed", zap.String("template", name), zap.Error(err))
	}
	return nil
}

func (c *TemplateCache) fill(ctx context.Context, key string, records []action.Record) {
	blob, err := json.Marshal(records)
	if err != nil {
		c.logger.Warn("template cache encode failed", zap.String("key", key), zap.Error(err))
		return
	}
	if err := c.client.Set(ctx, key, blob, c.ttl).Err(); err != nil {
		c.logger.Warn("template cache write failed", zap.String("key", key), zap.Error(err))
	}
}

// NewRedisClient builds a client from addr ("host:port") and verifies
// connectivity with a short ping.
func NewRedisClient(ctx context.Context, addr, password string, db int) (redis.UniversalClient, error) {
	client := redis.NewClient(&redis.Options{Addr: addr, Password: password, DB: db})
	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("connect redis %s: %w", addr, err)
	}
	return client, nil
}
