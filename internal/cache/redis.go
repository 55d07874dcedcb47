package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"bizhub_backend/internal/models"
	"bizhub_backend/pkg/utils"

	"github.com/go-redis/redis/v8"
)

// RedisCache keeps each analysis under a key that embeds the business generation. Invalidation
// increments the generation counter; superseded entries are left to expire with their TTL.
type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisCache connects to Redis and verifies the connection.
func NewRedisCache(ctx context.Context, addr, password string, db int, ttl time.Duration) (*RedisCache, error) {
	if addr == "" {
		return nil, fmt.Errorf("redis address not set")
	}
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	pong, err := client.Ping(pingCtx).Result()
	if err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	utils.LogInfo("Successfully connected to Redis", map[string]interface{}{"addr": addr, "ping": pong})

	return &RedisCache{client: client, ttl: ttl}, nil
}

// Close closes the Redis connection
func (c *RedisCache) Close() error {
	return c.client.Close()
}

func (c *RedisCache) Generation(ctx context.Context, businessID int64) (int64, error) {
	gen, err := c.client.Get(ctx, generationKey(businessID)).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to read analytics generation for business %d: %w", businessID, err)
	}
	return gen, nil
}

func (c *RedisCache) Get(ctx context.Context, key AnalysisKey) (*models.SalesAnalysis, bool, error) {
	raw, err := c.client.Get(ctx, key.String()).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to get %s from Redis: %w", key, err)
	}
	var analysis models.SalesAnalysis
	if err := json.Unmarshal(raw, &analysis); err != nil {
		return nil, false, fmt.Errorf("failed to unmarshal cached analysis %s: %w", key, err)
	}
	return &analysis, true, nil
}

func (c *RedisCache) Set(ctx context.Context, key AnalysisKey, analysis *models.SalesAnalysis) error {
	payload, err := json.Marshal(analysis)
	if err != nil {
		return fmt.Errorf("failed to marshal analysis: %w", err)
	}
	if err := c.client.Set(ctx, key.String(), payload, c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to cache analysis %s: %w", key, err)
	}
	return nil
}

func (c *RedisCache) InvalidateBusiness(ctx context.Context, businessID int64) error {
	if err := c.client.Incr(ctx, generationKey(businessID)).Err(); err != nil {
		return fmt.Errorf("failed to invalidate analytics for business %d: %w", businessID, err)
	}
	return nil
}
