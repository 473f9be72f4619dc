package cache

import (
	"context"
	"encoding/json"
	"time"

	redis "github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
)

const stockKeyPrefix = "stock:"

// RedisStockCache stores derived stock maps in Redis, one key per tenant.
type RedisStockCache struct {
	client *redis.Client
}

func NewRedisStockCache(addr, password string, db int) *RedisStockCache {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	return &RedisStockCache{client: client}
}

func (c *RedisStockCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

func (c *RedisStockCache) Close() error {
	return c.client.Close()
}

func (c *RedisStockCache) Get(ctx context.Context, tenantID string) (map[string]decimal.Decimal, bool, error) {
	val, err := c.client.Get(ctx, stockKeyPrefix+tenantID).Result()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	var stock map[string]decimal.Decimal
	if err := json.Unmarshal([]byte(val), &stock); err != nil {
		return nil, false, err
	}
	return stock, true, nil
}

func (c *RedisStockCache) Set(ctx context.Context, tenantID string, stock map[string]decimal.Decimal, ttl time.Duration) error {
	if stock == nil {
		return nil
	}
	payload, err := json.Marshal(stock)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, stockKeyPrefix+tenantID, payload, ttl).Err()
}

func (c *RedisStockCache) Invalidate(ctx context.Context, tenantID string) error {
	return c.client.Del(ctx, stockKeyPrefix+tenantID).Err()
}
