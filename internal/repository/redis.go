package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

// RedisBlobs BlobStore поверх строковых ключей Redis
type RedisBlobs struct {
	client *redis.Client
	prefix string
}

var _ BlobStore = (*RedisBlobs)(nil)

func NewRedisBlobs(client *redis.Client, prefix string) *RedisBlobs {
	return &RedisBlobs{client: client, prefix: prefix}
}

// OpenRedis разбирает URL и проверяет соединение
func OpenRedis(ctx context.Context, url, prefix string) (*RedisBlobs, error) {
	opt, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("invalid redis URL: %w", err)
	}
	client := redis.NewClient(opt)

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("connect to redis: %w", err)
	}
	return NewRedisBlobs(client, prefix), nil
}

func (r *RedisBlobs) key(k string) string { return r.prefix + k }

func (r *RedisBlobs) Get(ctx context.Context, key string) ([]byte, error) {
	b, err := r.client.Get(ctx, r.key(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return b, nil
}

func (r *RedisBlobs) Put(ctx context.Context, key string, value []byte) error {
	return r.client.Set(ctx, r.key(key), value, 0).Err()
}

func (r *RedisBlobs) Delete(ctx context.Context, key string) error {
	return r.client.Del(ctx, r.key(key)).Err()
}

func (r *RedisBlobs) Close() error { return r.client.Close() }
