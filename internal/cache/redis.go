package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"tablebook/internal/config"
	"tablebook/internal/models"

	"github.com/redis/go-redis/v9"
)

// RedisDayCache keeps the per-date dashboard listing in Redis so repeated
// dashboard polls do not hit SQLite.
type RedisDayCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisClient создает новый клиент Redis на основе конфигурации
func NewRedisClient(cfg config.RedisConfig) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     cfg.Address,
		Password: cfg.Password,
		DB:       cfg.DB,
		PoolSize: cfg.PoolSize,
	})
}

func NewRedisDayCache(client *redis.Client, ttl time.Duration) *RedisDayCache {
	return &RedisDayCache{
		client: client,
		ttl:    ttl,
	}
}

func (c *RedisDayCache) GetDay(ctx context.Context, date string) ([]models.Reservation, error) {
	if c.client == nil {
		return nil, fmt.Errorf("redis client is nil")
	}
	val, err := c.client.Get(ctx, dayKey(date)).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get day listing from redis: %w", err)
	}

	var reservations []models.Reservation
	if err := json.Unmarshal([]byte(val), &reservations); err != nil {
		return nil, fmt.Errorf("failed to unmarshal day listing: %w", err)
	}

	return reservations, nil
}

func (c *RedisDayCache) SetDay(ctx context.Context, date string, reservations []models.Reservation) error {
	if c.client == nil {
		return fmt.Errorf("redis client is nil")
	}
	data, err := json.Marshal(reservations)
	if err != nil {
		return fmt.Errorf("failed to marshal day listing: %w", err)
	}

	if err := c.client.Set(ctx, dayKey(date), data, c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to set day listing in redis: %w", err)
	}

	return nil
}

func (c *RedisDayCache) InvalidateDay(ctx context.Context, date string) error {
	if c.client == nil {
		return fmt.Errorf("redis client is nil")
	}
	if err := c.client.Del(ctx, dayKey(date)).Err(); err != nil {
		return fmt.Errorf("failed to invalidate day listing in redis: %w", err)
	}
	return nil
}

func dayKey(date string) string {
	return fmt.Sprintf("reservations:day:%s", date)
}
