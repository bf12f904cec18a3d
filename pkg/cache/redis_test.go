package cache

import (
	"context"
	"testing"
	"time"

	"cinebook/pkg/utils"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type payload struct {
	Title string `json:"title"`
	Count int    `json:"count"`
}

func TestCache_SetGetDelete(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	c := New(client, "test:")
	ctx := context.Background()

	var got payload
	assert.ErrorIs(t, c.Get(ctx, "k", &got), ErrCacheMiss)

	require.NoError(t, c.Set(ctx, "k", payload{Title: "Heat", Count: 2}, time.Minute))
	assert.True(t, mr.Exists("test:k"))

	require.NoError(t, c.Get(ctx, "k", &got))
	assert.Equal(t, payload{Title: "Heat", Count: 2}, got)

	mr.FastForward(2 * time.Minute)
	assert.ErrorIs(t, c.Get(ctx, "k", &got), ErrCacheMiss)

	require.NoError(t, c.Set(ctx, "k", payload{}, time.Minute))
	require.NoError(t, c.Delete(ctx, "k"))
	assert.False(t, mr.Exists("test:k"))
}

func TestCache_NilClientIsAlwaysMiss(t *testing.T) {
	c := New(nil, "x:")
	ctx := context.Background()

	assert.NoError(t, c.Set(ctx, "k", 1, time.Minute))
	var v int
	assert.ErrorIs(t, c.Get(ctx, "k", &v), ErrCacheMiss)
	assert.NoError(t, c.Delete(ctx, "k"))
}

func TestNewRedisClient(t *testing.T) {
	log := zap.NewNop()
	ctx := context.Background()

	assert.Nil(t, NewRedisClient(ctx, utils.RedisConfig{}, log))

	mr := miniredis.RunT(t)
	client := NewRedisClient(ctx, utils.RedisConfig{Addr: mr.Addr()}, log)
	require.NotNil(t, client)
	_ = client.Close()

	addr := mr.Addr()
	mr.Close()
	assert.Nil(t, NewRedisClient(ctx, utils.RedisConfig{Addr: addr}, log))
}
