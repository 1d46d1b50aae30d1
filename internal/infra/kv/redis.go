package kv

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/redis/go-redis/v9"

	domain "github.com/bryanwahyu/creative-lens/internal/domain/history"
)

// RedisKV backs the history keys with Redis. A maxmemory OOM reply is mapped
// to ErrCapacityExceeded so the degradation chain kicks in.
type RedisKV struct {
	client *redis.Client
}

func NewRedisKV(ctx context.Context, addr, password string, db int) (*RedisKV, error) {
	cli := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if err := cli.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}
	return &RedisKV{client: cli}, nil
}

func (kv *RedisKV) Get(ctx context.Context, key string) (string, bool, error) {
	v, err := kv.client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return v, true, nil
}

func (kv *RedisKV) Set(ctx context.Context, key, value string) error {
	err := kv.client.Set(ctx, key, value, 0).Err()
	if err != nil && strings.Contains(err.Error(), "OOM") {
		return fmt.Errorf("%w: %v", domain.ErrCapacityExceeded, err)
	}
	return err
}

func (kv *RedisKV) Remove(ctx context.Context, key string) error {
	return kv.client.Del(ctx, key).Err()
}

// Ping untuk health check
func (kv *RedisKV) Ping(ctx context.Context) error {
	return kv.client.Ping(ctx).Err()
}
