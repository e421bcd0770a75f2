// Package cache provides a short-lived redis-backed cache for finished
// analysis results. Concurrent computations for the same key collapse
// to a single in-flight call.
package cache

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"chanscope/internal/domain"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"
)

const defaultTTL = 5 * time.Minute

type ResultCache struct {
	client *redis.Client
	ttl    time.Duration
	group  singleflight.Group
}

func NewResultCache(client *redis.Client, ttl time.Duration) *ResultCache {
	if ttl <= 0 {
		ttl = defaultTTL
	}
	return &ResultCache{client: client, ttl: ttl}
}

// GetOrCompute returns the cached result for key, or runs compute once
// for all concurrent callers and stores its output. Cache backend
// failures degrade to computing directly.
func (c *ResultCache) GetOrCompute(ctx context.Context, key string, compute func() (*domain.AnalysisResult, error)) (*domain.AnalysisResult, error) {
	if c.client != nil {
		if cached, ok := c.lookup(ctx, key); ok {
			return cached, nil
		}
	}

	v, err, _ := c.group.Do(key, func() (any, error) {
		if c.client != nil {
			// Re-check: another flight may have stored the result while
			// this caller waited on the group.
			if cached, ok := c.lookup(ctx, key); ok {
				return cached, nil
			}
		}
		res, err := compute()
		if err != nil {
			return nil, err
		}
		c.store(ctx, key, res)
		return res, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*domain.AnalysisResult), nil
}

func (c *ResultCache) lookup(ctx context.Context, key string) (*domain.AnalysisResult, bool) {
	raw, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if err != redis.Nil {
			log.Printf("result cache get %s: %v", key, err)
		}
		return nil, false
	}
	var res domain.AnalysisResult
	if err := json.Unmarshal(raw, &res); err != nil {
		log.Printf("result cache decode %s: %v", key, err)
		return nil, false
	}
	return &res, true
}

func (c *ResultCache) store(ctx context.Context, key string, res *domain.AnalysisResult) {
	if c.client == nil {
		return
	}
	raw, err := json.Marshal(res)
	if err != nil {
		log.Printf("result cache encode %s: %v", key, err)
		return
	}
	if err := c.client.Set(ctx, key, raw, c.ttl).Err(); err != nil {
		log.Printf("result cache set %s: %v", key, err)
	}
}
