package rbac

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/mindlab-health/caregrid/pkg/observability"
	"github.com/mindlab-health/caregrid/pkg/storage"
)

const (
	cacheKeyPermissions = "caregrid:rbac:perms:"
	cacheKeyModules     = "caregrid:rbac:modules:"
)

// DecisionCache holds resolved role decisions in two tiers: an in-process
// expirable LRU and an optional shared Redis tier. Values are ordered string
// slices keyed by role; both tiers are invalidated together on any matrix
// write.
type DecisionCache struct {
	l1      *expirable.LRU[string, []string]
	redis   *storage.RedisClient
	ttl     time.Duration
	metrics *observability.Metrics
}

// NewDecisionCache creates a two-tier cache. redis may be nil for
// single-replica deployments; metrics may be nil in tests.
func NewDecisionCache(size int, ttl time.Duration, redis *storage.RedisClient, metrics *observability.Metrics) *DecisionCache {
	if size <= 0 {
		size = 1024
	}
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &DecisionCache{
		l1:      expirable.NewLRU[string, []string](size, nil, ttl),
		redis:   redis,
		ttl:     ttl,
		metrics: metrics,
	}
}

// Get returns the cached value for a key, trying L1 then Redis. A Redis hit
// repopulates L1. Redis errors degrade to a miss; the resolver recomputes.
func (c *DecisionCache) Get(ctx context.Context, key string) ([]string, bool) {
	if values, ok := c.l1.Get(key); ok {
		c.hit("l1")
		return values, true
	}
	c.miss("l1")

	if c.redis == nil {
		return nil, false
	}

	data, err := c.redis.Get(ctx, key)
	if err != nil || data == nil {
		c.miss("l2")
		return nil, false
	}

	var values []string
	if err := json.Unmarshal(data, &values); err != nil {
		c.miss("l2")
		return nil, false
	}

	c.hit("l2")
	c.l1.Add(key, values)
	return values, true
}

// Set stores a value in both tiers.
func (c *DecisionCache) Set(ctx context.Context, key string, values []string) {
	c.l1.Add(key, values)

	if c.redis == nil {
		return
	}
	data, err := json.Marshal(values)
	if err != nil {
		return
	}
	// Best effort; a failed write just means a future L2 miss.
	_ = c.redis.Set(ctx, key, data, c.ttl)
}

// InvalidateRole drops both decision kinds for one role from both tiers.
func (c *DecisionCache) InvalidateRole(ctx context.Context, role Role) error {
	c.l1.Remove(cacheKeyPermissions + string(role))
	c.l1.Remove(cacheKeyModules + string(role))
	c.invalidated("role")

	if c.redis == nil {
		return nil
	}
	if err := c.redis.Del(ctx, cacheKeyPermissions+string(role), cacheKeyModules+string(role)); err != nil {
		return fmt.Errorf("failed to invalidate redis cache for %s: %w", role, err)
	}
	return nil
}

// InvalidateAll drops every cached decision from both tiers.
func (c *DecisionCache) InvalidateAll(ctx context.Context) error {
	c.l1.Purge()
	c.invalidated("all")

	if c.redis == nil {
		return nil
	}
	if err := c.redis.InvalidatePatterns(ctx, cacheKeyPermissions+"*", cacheKeyModules+"*"); err != nil {
		return fmt.Errorf("failed to invalidate redis cache: %w", err)
	}
	return nil
}

func (c *DecisionCache) hit(tier string) {
	if c.metrics != nil {
		c.metrics.CacheHitsTotal.WithLabelValues(tier).Inc()
	}
}

func (c *DecisionCache) miss(tier string) {
	if c.metrics != nil {
		c.metrics.CacheMissesTotal.WithLabelValues(tier).Inc()
	}
}

func (c *DecisionCache) invalidated(reason string) {
	if c.metrics != nil {
		c.metrics.CacheInvalidationsTotal.WithLabelValues(reason).Inc()
	}
}
