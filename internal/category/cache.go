package category

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"webstore-be/internal/logger"
	"webstore-be/internal/metrics"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const treeCacheKey = "webstore:categories:tree"

// TreeCache stores the rendered active category tree between writes.
type TreeCache interface {
	Get(ctx context.Context) ([]*Node, bool)
	Set(ctx context.Context, tree []*Node)
	Invalidate(ctx context.Context)
}

type RedisTreeCache struct {
	client  *redis.Client
	ttl     time.Duration
	metrics *metrics.AppMetrics
}

// NewRedisTreeCache connects to redisURL and verifies the connection.
func NewRedisTreeCache(redisURL string, ttl time.Duration, m *metrics.AppMetrics) (*RedisTreeCache, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis URL: %w", err)
	}

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}

	return newRedisTreeCache(client, ttl, m), nil
}

func newRedisTreeCache(client *redis.Client, ttl time.Duration, m *metrics.AppMetrics) *RedisTreeCache {
	if m == nil {
		m = metrics.Noop()
	}
	return &RedisTreeCache{client: client, ttl: ttl, metrics: m}
}

func (c *RedisTreeCache) Close() error {
	return c.client.Close()
}

// Get treats any redis failure as a miss.
func (c *RedisTreeCache) Get(ctx context.Context) ([]*Node, bool) {
	data, err := c.client.Get(ctx, treeCacheKey).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			logger.FromCtx(ctx).Warn("category tree cache read failed", zap.Error(err))
		}
		c.metrics.RecordCache(ctx, "category_tree", false)
		return nil, false
	}

	var tree []*Node
	if err := json.Unmarshal(data, &tree); err != nil {
		logger.FromCtx(ctx).Warn("category tree cache entry is corrupt", zap.Error(err))
		c.metrics.RecordCache(ctx, "category_tree", false)
		return nil, false
	}

	c.metrics.RecordCache(ctx, "category_tree", true)
	return tree, true
}

func (c *RedisTreeCache) Set(ctx context.Context, tree []*Node) {
	data, err := json.Marshal(tree)
	if err != nil {
		logger.FromCtx(ctx).Warn("failed to encode category tree", zap.Error(err))
		return
	}
	if err := c.client.Set(ctx, treeCacheKey, data, c.ttl).Err(); err != nil {
		logger.FromCtx(ctx).Warn("category tree cache write failed", zap.Error(err))
	}
}

func (c *RedisTreeCache) Invalidate(ctx context.Context) {
	if err := c.client.Del(ctx, treeCacheKey).Err(); err != nil {
		logger.FromCtx(ctx).Warn("category tree cache invalidation failed", zap.Error(err))
	}
}

// NopTreeCache is used when no redis URL is configured.
type NopTreeCache struct{}

func (NopTreeCache) Get(context.Context) ([]*Node, bool) { return nil, false }
func (NopTreeCache) Set(context.Context, []*Node)        {}
func (NopTreeCache) Invalidate(context.Context)          {}
