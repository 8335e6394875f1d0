package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redismock/v9"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nurlan6812/food-agent/internal/common/logger"
)

func setupRedis(t *testing.T) (*redis.Client, *miniredis.Miniredis) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)
	return redis.NewClient(&redis.Options{Addr: mr.Addr()}), mr
}

func TestRedisCache_RoundTripAndExpiry(t *testing.T) {
	client, mr := setupRedis(t)
	c := NewRedisCache(client, "food-agent", time.Minute)
	ctx := context.Background()

	_, ok, err := c.Get(ctx, "kakao", "강남 전집")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, c.Set(ctx, "kakao", "강남 전집", []byte(`{"documents":[]}`)))

	data, ok, err := c.Get(ctx, "kakao", "강남 전집")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.JSONEq(t, `{"documents":[]}`, string(data))

	mr.FastForward(2 * time.Minute)
	_, ok, err = c.Get(ctx, "kakao", "강남 전집")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestFetch_MissThenHit(t *testing.T) {
	client, _ := setupRedis(t)
	c := NewRedisCache(client, "food-agent", time.Minute)
	log := logger.NewTestLogger(t)

	calls := 0
	load := func(context.Context) ([]byte, error) {
		calls++
		return []byte("payload"), nil
	}

	for i := 0; i < 3; i++ {
		data, err := Fetch(context.Background(), c, log, "serper-search", "순대국밥 레시피", load)
		require.NoError(t, err)
		assert.Equal(t, "payload", string(data))
	}
	assert.Equal(t, 1, calls)
}

func TestFetch_LoadErrorIsNotCached(t *testing.T) {
	client, mock := redismock.NewClientMock()
	c := NewRedisCache(client, "food-agent", time.Minute)
	key := c.Key("serper-search", "q")

	mock.ExpectGet(key).RedisNil()

	_, err := Fetch(context.Background(), c, logger.NewNoOpLogger(), "serper-search", "q",
		func(context.Context) ([]byte, error) { return nil, errors.New("provider down") })

	assert.EqualError(t, err, "provider down")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFetch_CacheFailureFallsThrough(t *testing.T) {
	client, mock := redismock.NewClientMock()
	c := NewRedisCache(client, "food-agent", 5*time.Minute)
	key := c.Key("kakao", "교자")

	mock.ExpectGet(key).SetErr(errors.New("connection refused"))
	mock.ExpectSet(key, []byte("fresh"), 5*time.Minute).SetErr(errors.New("connection refused"))

	data, err := Fetch(context.Background(), c, logger.NewNoOpLogger(), "kakao", "교자",
		func(context.Context) ([]byte, error) { return []byte("fresh"), nil })

	require.NoError(t, err)
	assert.Equal(t, "fresh", string(data))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestNoop(t *testing.T) {
	var c Cache = Noop{}
	require.NoError(t, c.Set(context.Background(), "a", "b", []byte("c")))
	_, ok, err := c.Get(context.Background(), "a", "b")
	assert.NoError(t, err)
	assert.False(t, ok)
}
