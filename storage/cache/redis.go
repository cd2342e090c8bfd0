// Package cache implements core.Cache over redis or process memory.
package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"

	"github.com/nuvatw/nuva-club/core"
)

var ErrEmptyKey = errors.New("cache: key cannot be empty")

const dialTimeout = 5 * time.Second

type Redis struct {
	client *redis.Client
	prefix string
}

var _ core.Cache = (*Redis)(nil)

// NewRedis connects to redis and pings it.
func NewRedis(conf core.RedisConfig) (*Redis, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         conf.Address(),
		Password:     conf.Password,
		DB:           conf.DB,
		MaxRetries:   3,
		DialTimeout:  dialTimeout,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), dialTimeout)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, errors.Wrap(err, "connecting to redis")
	}
	return NewRedisFromClient(client, conf.Prefix), nil
}

// NewRedisFromClient wraps an existing client. Keys are namespaced with prefix.
func NewRedisFromClient(client *redis.Client, prefix string) *Redis {
	return &Redis{client: client, prefix: prefix}
}

func (c *Redis) key(k string) string {
	return c.prefix + k
}

func (c *Redis) Get(ctx context.Context, key string, dest interface{}) (bool, error) {
	if key == "" {
		return false, ErrEmptyKey
	}
	data, err := c.client.Get(ctx, c.key(key)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return false, nil
		}
		return false, err
	}
	if err := json.Unmarshal(data, dest); err != nil {
		return false, errors.Wrap(err, "decoding cached value")
	}
	return true, nil
}

func (c *Redis) Set(ctx context.Context, key string, val interface{}, ttl time.Duration) error {
	if key == "" {
		return ErrEmptyKey
	}
	data, err := json.Marshal(val)
	if err != nil {
		return errors.Wrap(err, "encoding cache value")
	}
	return c.client.Set(ctx, c.key(key), data, ttl).Err()
}

func (c *Redis) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	prefixed := make([]string, len(keys))
	for i, k := range keys {
		prefixed[i] = c.key(k)
	}
	return c.client.Del(ctx, prefixed...).Err()
}

func (c *Redis) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

func (c *Redis) Close() error {
	return c.client.Close()
}
