package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHistoryKey_RollsOverByDay(t *testing.T) {
	a := HistoryKey("BTC-USD", time.Date(2024, 5, 1, 23, 59, 0, 0, time.UTC))
	b := HistoryKey("BTC-USD", time.Date(2024, 5, 2, 0, 1, 0, 0, time.UTC))
	assert.Equal(t, "history:BTC-USD:2024-05-01", a)
	assert.NotEqual(t, a, b)
	assert.NotEqual(t, a, HistoryKey("ETH-USD", time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)))
}

func TestMemoryCache_Expiry(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	c := NewMemoryCache(10)
	c.now = func() time.Time { return now }

	require.NoError(t, c.SetBytes(ctx, "k", []byte("v"), time.Hour))
	got, ok, err := c.GetBytes(ctx, "k")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, []byte("v"), got)

	now = now.Add(time.Hour + time.Second)
	_, ok, err = c.GetBytes(ctx, "k")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, 0, c.Len())
}

func TestMemoryCache_EvictsLeastRecentlyUsed(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	c := NewMemoryCache(2)
	c.now = func() time.Time { now = now.Add(time.Second); return now }

	require.NoError(t, c.SetBytes(ctx, "a", []byte("1"), 0))
	require.NoError(t, c.SetBytes(ctx, "b", []byte("2"), 0))
	_, ok, _ := c.GetBytes(ctx, "a")
	require.True(t, ok)
	require.NoError(t, c.SetBytes(ctx, "c", []byte("3"), 0))

	_, ok, _ = c.GetBytes(ctx, "b")
	assert.False(t, ok, "b was least recently used")
	_, ok, _ = c.GetBytes(ctx, "a")
	assert.True(t, ok)
	assert.Equal(t, 2, c.Len())
}

func TestRedisCache_GetSet(t *testing.T) {
	ctx := context.Background()
	db, mock := redismock.NewClientMock()
	rc := NewRedisCacheFromClient(db, "cs:")

	mock.ExpectGet("cs:missing").RedisNil()
	_, ok, err := rc.GetBytes(ctx, "missing")
	require.NoError(t, err)
	assert.False(t, ok)

	mock.ExpectSet("cs:k", []byte("payload"), time.Hour).SetVal("OK")
	require.NoError(t, rc.SetBytes(ctx, "k", []byte("payload"), time.Hour))

	mock.ExpectGet("cs:k").SetVal("payload")
	got, ok, err := rc.GetBytes(ctx, "k")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, []byte("payload"), got)

	mock.ExpectGet("cs:down").SetErr(errors.New("connection refused"))
	_, _, err = rc.GetBytes(ctx, "down")
	assert.Error(t, err)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLayeredCache_FillsMemoryFromRemote(t *testing.T) {
	ctx := context.Background()
	db, mock := redismock.NewClientMock()
	mem := NewMemoryCache(10)
	lc := NewLayeredCache(mem, NewRedisCacheFromClient(db, ""), 10*time.Minute)

	mock.ExpectGet("k").SetVal("remote")
	got, ok, err := lc.GetBytes(ctx, "k")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, []byte("remote"), got)

	// second read is served from memory: no further redis expectation
	got, ok, err = lc.GetBytes(ctx, "k")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, []byte("remote"), got)

	mock.ExpectSet("w", []byte("x"), time.Hour).SetErr(errors.New("readonly"))
	assert.Error(t, lc.SetBytes(ctx, "w", []byte("x"), time.Hour))
	_, ok, _ = mem.GetBytes(ctx, "w")
	assert.False(t, ok, "memory must not hold what redis refused")

	assert.NoError(t, mock.ExpectationsWereMet())
}
