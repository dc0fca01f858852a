package rediskv

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/require"
)

func TestStore_GetSet(t *testing.T) {
	mr := miniredis.RunT(t)
	s := New(mr.Addr()).WithPrefix("pd:")

	ctx := context.Background()
	_, ok, err := s.Get(ctx, "users")
	require.NoError(t, err)
	require.False(t, ok)

	require.NoError(t, s.Set(ctx, "users", []byte(`[]`)))

	b, ok, err := s.Get(ctx, "users")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, []byte(`[]`), b)

	require.True(t, mr.Exists("pd:users"))
	require.Zero(t, mr.TTL("pd:users"))
	require.NoError(t, s.Ping(ctx))
}

func TestStore_Unavailable(t *testing.T) {
	mr := miniredis.RunT(t)
	s := New(mr.Addr())
	mr.Close()

	_, _, err := s.Get(context.Background(), "users")
	require.Error(t, err)
	require.Error(t, s.Set(context.Background(), "users", []byte(`[]`)))
}

func TestRateLimiter_Allow(t *testing.T) {
	mr := miniredis.RunT(t)
	rl := NewRateLimiter(mr.Addr())

	ctx := context.Background()
	ok, n, err := rl.Allow(ctx, "rl:test", 2, time.Minute)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, int64(1), n)

	ok, n, _ = rl.Allow(ctx, "rl:test", 2, time.Minute)
	require.True(t, ok)
	require.Equal(t, int64(2), n)

	ok, n, _ = rl.Allow(ctx, "rl:test", 2, time.Minute)
	require.False(t, ok)
	require.Equal(t, int64(3), n)

	// окно истекло
	mr.FastForward(time.Minute + time.Second)
	ok, n, err = rl.Allow(ctx, "rl:test", 2, time.Minute)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, int64(1), n)

	_, _, _ = rl.Allow(ctx, "rl:test", 2, time.Minute)
	require.NoError(t, rl.Reset(ctx, "rl:test"))
	require.False(t, mr.Exists("rl:test"))
}
