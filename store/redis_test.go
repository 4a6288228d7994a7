package store

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

func newTestRedis(t *testing.T) (*miniredis.Miniredis, *RedisStore) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return mr, NewRedisStoreFromClient(client, "disco:")
}

func TestRedisStore_Contract(t *testing.T) {
	mr, s := newTestRedis(t)
	testStoreContract(t, s, mr.FastForward)
}

func TestRedisStore_PrefixAndTTL(t *testing.T) {
	mr, s := newTestRedis(t)
	ctx := context.Background()

	require.NoError(t, s.Put(ctx, "abc", []byte("v"), 7*24*time.Hour))

	require.True(t, mr.Exists("disco:abc"))
	require.False(t, mr.Exists("abc"))
	require.Equal(t, 7*24*time.Hour, mr.TTL("disco:abc"))
}

func TestNewRedisStore(t *testing.T) {
	mr := miniredis.RunT(t)

	s, err := NewRedisStore(context.Background(), &RedisConfig{Addr: mr.Addr()})
	require.NoError(t, err)
	defer s.Close()

	require.NoError(t, s.Put(context.Background(), "k", []byte("v"), time.Minute))
}

func TestNewRedisStore_Unreachable(t *testing.T) {
	_, err := NewRedisStore(context.Background(), &RedisConfig{Addr: "127.0.0.1:1"})
	require.Error(t, err)
}

func TestRedisStore_Unavailable(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
	defer client.Close()
	s := NewRedisStoreFromClient(client, "")
	mr.Close()

	_, _, err = s.Get(context.Background(), "k")
	require.Error(t, err)
}

func TestRedisStore_Closed(t *testing.T) {
	_, s := newTestRedis(t)
	ctx := context.Background()
	require.NoError(t, s.Close())

	_, _, err := s.Get(ctx, "k")
	require.ErrorIs(t, err, ErrClosed)
	require.ErrorIs(t, s.Put(ctx, "k", []byte("v"), time.Minute), ErrClosed)
	require.ErrorIs(t, s.Delete(ctx, "k"), ErrClosed)
}
