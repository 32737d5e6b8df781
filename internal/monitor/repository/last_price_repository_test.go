package repository

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	redis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return mr, client
}

func TestLastPriceKey(t *testing.T) {
	assert.Equal(t, "last_price:AAPL", lastPriceKey("aapl"))
}

func TestRedisLastPriceRepositoryRecord(t *testing.T) {
	mr, client := newTestRedis(t)
	repo := NewRedisLastPriceRepository(client, time.Minute)
	ctx := context.Background()
	at := time.Unix(1714663800, 0)

	require.NoError(t, repo.Record(ctx, "aapl", 150.5, at))

	assert.Equal(t, "150.5", mr.HGet("last_price:AAPL", "price"))
	assert.Equal(t, "1714663800", mr.HGet("last_price:AAPL", "timestamp"))
	assert.Equal(t, time.Minute, mr.TTL("last_price:AAPL"))

	price, got, err := repo.Get(ctx, "AAPL")
	require.NoError(t, err)
	assert.Equal(t, 150.5, price)
	assert.True(t, at.Equal(got))

	// A later record overwrites both fields and refreshes the expiry.
	mr.FastForward(30 * time.Second)
	require.NoError(t, repo.Record(ctx, "AAPL", 151.25, at.Add(time.Minute)))
	assert.Equal(t, "151.25", mr.HGet("last_price:AAPL", "price"))
	assert.Equal(t, time.Minute, mr.TTL("last_price:AAPL"))

	mr.FastForward(2 * time.Minute)
	_, _, err = repo.Get(ctx, "AAPL")
	assert.ErrorIs(t, err, redis.Nil)
}

func TestRedisLastPriceRepositoryRecordWithoutTTL(t *testing.T) {
	mr, client := newTestRedis(t)
	repo := NewRedisLastPriceRepository(client, 0)

	require.NoError(t, repo.Record(context.Background(), "MSFT", 300, time.Unix(1714663800, 0)))
	assert.Equal(t, "300", mr.HGet("last_price:MSFT", "price"))
	assert.Equal(t, time.Duration(0), mr.TTL("last_price:MSFT"))
}

func TestRedisLastPriceRepositoryGet(t *testing.T) {
	mr, client := newTestRedis(t)
	repo := NewRedisLastPriceRepository(client, time.Minute)
	ctx := context.Background()
	mr.HSet("last_price:BAD", "price", "n/a")
	mr.HSet("last_price:BAD", "timestamp", "1714663800")

	_, _, err := repo.Get(ctx, "MSFT")
	assert.ErrorIs(t, err, redis.Nil)

	_, _, err = repo.Get(ctx, "BAD")
	assert.Error(t, err)

	mr.SetError("connection refused")
	_, _, err = repo.Get(ctx, "BAD")
	assert.Error(t, err)
	err = repo.Record(ctx, "AAPL", 1, time.Now())
	assert.Error(t, err)
}
