package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/i474232898/weather-anomaly/internal/weather"
)

// RedisReadingCache stores live readings in Redis with a TTL. It implements
// weather.ReadingCache.
type RedisReadingCache struct {
	client *redis.Client
	ttl    time.Duration
	prefix string
}

// NewRedisClient connects to Redis and verifies the connection.
func NewRedisClient(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:       addr,
		Password:   password,
		DB:         db,
		MaxRetries: 3,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	return client, nil
}

// NewRedisReadingCache wraps an existing client.
func NewRedisReadingCache(client *redis.Client, ttl time.Duration) *RedisReadingCache {
	return &RedisReadingCache{
		client: client,
		ttl:    ttl,
		prefix: "reading:",
	}
}

func (c *RedisReadingCache) key(loc weather.Location) string {
	return c.prefix + strings.ToLower(loc.Key())
}

// Get returns the cached reading for loc. Misses and Redis failures both
// report false.
func (c *RedisReadingCache) Get(ctx context.Context, loc weather.Location) (weather.CurrentReading, bool) {
	data, err := c.client.Get(ctx, c.key(loc)).Bytes()
	if err != nil {
		return weather.CurrentReading{}, false
	}

	var reading weather.CurrentReading
	if err := json.Unmarshal(data, &reading); err != nil {
		return weather.CurrentReading{}, false
	}
	return reading, true
}

// Set stores reading for loc until the TTL expires.
func (c *RedisReadingCache) Set(ctx context.Context, loc weather.Location, reading weather.CurrentReading) error {
	data, err := json.Marshal(reading)
	if err != nil {
		return fmt.Errorf("failed to marshal reading: %w", err)
	}
	return c.client.Set(ctx, c.key(loc), data, c.ttl).Err()
}
