package core

import (
	"context"
	"time"
)

// Cache is a key/value cache storing JSON encoded values.
type Cache interface {
	// Get decodes the cached value into dest; found is false on a miss.
	Get(ctx context.Context, key string, dest interface{}) (found bool, err error)
	Set(ctx context.Context, key string, val interface{}, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
}

// Remember returns the cached value at key, or computes, caches and returns it.
// Cache failures are not fatal: the value is computed anyway.
func Remember[T any](ctx context.Context, c Cache, key string, ttl time.Duration, compute func() (T, error)) (T, error) {
	var val T
	if c != nil {
		if found, err := c.Get(ctx, key, &val); err == nil && found {
			return val, nil
		}
	}
	val, err := compute()
	if err != nil {
		return val, err
	}
	if c != nil {
		_ = c.Set(ctx, key, val, ttl)
	}
	return val, nil
}
