package persist

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-redis/redis/v8"

	"github.com/diogo/chatui/internal/config"
)

// RedisSlot stores values as plain redis strings under Prefix+key
type RedisSlot struct {
	cli    *redis.Client
	prefix string
}

// OpenRedis connects and pings the server
func OpenRedis(ctx context.Context, cfg config.RedisConfig) (*RedisSlot, error) {
	cli := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := cli.Ping(ctx).Err(); err != nil {
		cli.Close()
		return nil, fmt.Errorf("redis ping %s: %w", cfg.Addr, err)
	}
	return &RedisSlot{cli: cli, prefix: cfg.Prefix}, nil
}

func (r *RedisSlot) Get(ctx context.Context, key string) ([]byte, error) {
	v, err := r.cli.Get(ctx, r.prefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNoSnapshot
	}
	if err != nil {
		return nil, err
	}
	return v, nil
}

func (r *RedisSlot) Put(ctx context.Context, key string, value []byte) error {
	return r.cli.Set(ctx, r.prefix+key, value, 0).Err()
}

func (r *RedisSlot) Close() error { return r.cli.Close() }

func (r *RedisSlot) Name() string { return config.BackendRedis }
