package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/mugisham37/business-management-web-sub004/internal/metrics"
	"github.com/mugisham37/business-management-web-sub004/pkg/redis"
)

// ReportCache is a read-through cache for expensive aggregate reports,
// keyed by (tenant, report type, parameters). It layers an in-process
// map over Redis and is invalidated on every balance-mutating commit.
// Reconciliation never reads through it.
type ReportCache struct {
	redis  *redis.Client
	logger *zap.Logger
	ttl    time.Duration

	mu   sync.RWMutex
	data map[string]memEntry
}

type memEntry struct {
	payload  []byte
	cachedAt time.Time
}

// NewReportCache creates a report cache. A nil redis client degrades
// to the memory layer only.
func NewReportCache(redisClient *redis.Client, ttl time.Duration, logger *zap.Logger) *ReportCache {
	return &ReportCache{
		redis:  redisClient,
		logger: logger,
		ttl:    ttl,
		data:   make(map[string]memEntry),
	}
}

// Key builds a cache key from tenant, report type and parameters.
func (c *ReportCache) Key(tenantID uuid.UUID, reportType string, params string) string {
	if params == "" {
		params = "-"
	}
	return fmt.Sprintf("report:%s:%s:%s", tenantID, reportType, params)
}

// Get loads a cached report into dest, memory layer first, then
// Redis. Returns false on miss.
func (c *ReportCache) Get(ctx context.Context, key string, dest interface{}) bool {
	c.mu.RLock()
	entry, ok := c.data[key]
	c.mu.RUnlock()
	if ok && time.Since(entry.cachedAt) <= c.ttl {
		if err := json.Unmarshal(entry.payload, dest); err == nil {
			metrics.ReportCacheHits.WithLabelValues("memory").Inc()
			return true
		}
	}

	if c.redis != nil {
		data, err := c.redis.Get(ctx, key)
		if err == nil {
			if err := json.Unmarshal([]byte(data), dest); err == nil {
				metrics.ReportCacheHits.WithLabelValues("redis").Inc()
				c.mu.Lock()
				c.data[key] = memEntry{payload: []byte(data), cachedAt: time.Now()}
				c.mu.Unlock()
				return true
			}
		}
	}

	metrics.ReportCacheMisses.Inc()
	return false
}

// Set stores a report in both layers and records the key in the
// tenant's key index so invalidation can find it.
func (c *ReportCache) Set(ctx context.Context, tenantID uuid.UUID, key string, value interface{}) {
	payload, err := json.Marshal(value)
	if err != nil {
		c.logger.Error("failed to marshal report for cache", zap.Error(err), zap.String("key", key))
		return
	}

	c.mu.Lock()
	c.data[key] = memEntry{payload: payload, cachedAt: time.Now()}
	c.mu.Unlock()

	if c.redis != nil {
		if err := c.redis.Set(ctx, key, payload, c.ttl); err != nil {
			c.logger.Warn("failed to cache report in redis", zap.Error(err), zap.String("key", key))
			return
		}
		if err := c.redis.AddToSet(ctx, c.indexKey(tenantID), key); err != nil {
			c.logger.Warn("failed to index cache key", zap.Error(err), zap.String("key", key))
		}
	}
}

// InvalidateTenant drops every cached report for the tenant from both
// layers.
func (c *ReportCache) InvalidateTenant(ctx context.Context, tenantID uuid.UUID) {
	prefix := fmt.Sprintf("report:%s:", tenantID)

	c.mu.Lock()
	for key := range c.data {
		if strings.HasPrefix(key, prefix) {
			delete(c.data, key)
		}
	}
	c.mu.Unlock()

	if c.redis != nil {
		index := c.indexKey(tenantID)
		keys, err := c.redis.SetMembers(ctx, index)
		if err != nil {
			c.logger.Warn("failed to list cache keys for invalidation", zap.Error(err))
			return
		}
		if err := c.redis.Delete(ctx, append(keys, index)...); err != nil {
			c.logger.Warn("failed to invalidate redis report cache", zap.Error(err))
		}
	}
}

func (c *ReportCache) indexKey(tenantID uuid.UUID) string {
	return fmt.Sprintf("report:keys:%s", tenantID)
}
