package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
)

// Redis is a Store backed by a Redis server. Values are stored as decimal strings.
type Redis struct {
	client *redis.Client
	prefix string
}

// NewRedis connects to addr and verifies the connection
func NewRedis(ctx context.Context, addr, password string, db int, prefix string) (*Redis, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to redis at %s: %w", addr, err)
	}
	return &Redis{client: client, prefix: prefix}, nil
}

// Get implements Store
func (r *Redis) Get(ctx context.Context, key string) (decimal.Decimal, bool, error) {
	val, err := r.client.Get(ctx, r.prefix+key).Result()
	if errors.Is(err, redis.Nil) {
		return decimal.Zero, false, nil
	}
	if err != nil {
		return decimal.Zero, false, fmt.Errorf("redis get %s: %w", key, err)
	}
	d, err := decimal.NewFromString(val)
	if err != nil {
		return decimal.Zero, false, fmt.Errorf("redis value for %s is not a decimal: %w", key, err)
	}
	return d, true, nil
}

// Set implements Store. A ttl <= 0 stores without expiry.
func (r *Redis) Set(ctx context.Context, key string, value decimal.Decimal, ttl time.Duration) error {
	if ttl < 0 {
		ttl = 0
	}
	if err := r.client.Set(ctx, r.prefix+key, value.String(), ttl).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}

// Close closes the underlying client
func (r *Redis) Close() error {
	return r.client.Close()
}
