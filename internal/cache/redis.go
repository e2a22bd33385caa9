package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"

	"PriceSentinel/internal/model"
)

// RedisCache stores the latest snapshot per product as JSON with a TTL.
type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
	prefix string
}

// NewRedisCache connects to Redis and verifies the connection.
func NewRedisCache(ctx context.Context, addr, password string, db int, ttl time.Duration) (*RedisCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, errors.Wrap(err, "connect to redis")
	}
	return &RedisCache{client: client, ttl: ttl, prefix: "pricesentinel"}, nil
}

func (c *RedisCache) key(productID string) string {
	return fmt.Sprintf("%s:latest:%s", c.prefix, productID)
}

func (c *RedisCache) SetLatest(ctx context.Context, snap *model.Snapshot) error {
	if snap == nil || snap.ProductID == "" {
		return errors.New("snapshot with product id is required")
	}
	data, err := json.Marshal(snap)
	if err != nil {
		return errors.Wrap(err, "marshal snapshot")
	}
	if err := c.client.Set(ctx, c.key(snap.ProductID), data, c.ttl).Err(); err != nil {
		return errors.Wrap(err, "set latest snapshot in redis")
	}
	return nil
}

func (c *RedisCache) GetLatest(ctx context.Context, productID string) (*model.Snapshot, error) {
	data, err := c.client.Get(ctx, c.key(productID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrMiss
		}
		return nil, errors.Wrap(err, "get latest snapshot from redis")
	}
	var snap model.Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, errors.Wrap(err, "unmarshal snapshot")
	}
	return &snap, nil
}

func (c *RedisCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

func (c *RedisCache) Close() error {
	return c.client.Close()
}
