package cache

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nuvatw/nuva-club/core"
)

type catalog struct {
	Level  int      `json:"level"`
	Titles []string `json:"titles"`
}

func testCache(t *testing.T, c core.Cache) {
	ctx := context.Background()

	var got catalog
	found, err := c.Get(ctx, "courses:level:1", &got)
	require.NoError(t, err)
	assert.False(t, found)

	want := catalog{Level: 1, Titles: []string{"What is AI?", "Prompting"}}
	require.NoError(t, c.Set(ctx, "courses:level:1", want, time.Minute))
	found, err = c.Get(ctx, "courses:level:1", &got)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, want, got)

	require.NoError(t, c.Delete(ctx, "courses:level:1", "courses:level:2"))
	found, err = c.Get(ctx, "courses:level:1", &got)
	require.NoError(t, err)
	assert.False(t, found)

	_, err = c.Get(ctx, "", &got)
	assert.ErrorIs(t, err, ErrEmptyKey)

	calls := 0
	compute := func() (catalog, error) {
		calls++
		return want, nil
	}
	for i := 0; i < 3; i++ {
		v, err := core.Remember(ctx, c, "remember", time.Minute, compute)
		require.NoError(t, err)
		assert.Equal(t, want, v)
	}
	assert.Equal(t, 1, calls)
}

func TestMemory(t *testing.T) {
	testCache(t, NewMemory())
}

func TestMemoryExpiry(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, time.October, 16, 0, 0, 0, 0, time.UTC)
	c := NewMemory()
	c.now = func() time.Time { return now }

	require.NoError(t, c.Set(ctx, "stats", 42, time.Minute))
	require.NoError(t, c.Set(ctx, "forever", 1, 0))

	now = now.Add(time.Minute)
	var n int
	found, err := c.Get(ctx, "stats", &n)
	require.NoError(t, err)
	assert.False(t, found)
	assert.Equal(t, 1, c.Len())

	found, err = c.Get(ctx, "forever", &n)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, 1, n)
}

// Runs against a real server when REDIS_ADDR is set.
func TestRedis(t *testing.T) {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		t.Skip("REDIS_ADDR not set")
	}
	client := redis.NewClient(&redis.Options{Addr: addr})
	defer client.Close()
	require.NoError(t, client.Ping(context.Background()).Err())

	testCache(t, NewRedisFromClient(client, "nuva-test:"))
}
