package ratelimit

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeCounter struct {
	counts  map[string]int64
	expires map[string]time.Duration
	err     error
}

func newFakeCounter() *fakeCounter {
	return &fakeCounter{counts: map[string]int64{}, expires: map[string]time.Duration{}}
}

func (f *fakeCounter) Incr(ctx context.Context, key string) *redis.IntCmd {
	if f.err != nil {
		return redis.NewIntResult(0, f.err)
	}
	f.counts[key]++
	return redis.NewIntResult(f.counts[key], nil)
}

func (f *fakeCounter) Expire(ctx context.Context, key string, expiration time.Duration) *redis.BoolCmd {
	f.expires[key] = expiration
	return redis.NewBoolResult(true, nil)
}

func TestAllow(t *testing.T) {
	fc := newFakeCounter()
	rl := NewRedis(fc, 2, time.Minute)
	ctx := context.Background()

	for i, want := range []bool{true, true, false, false} {
		ok, err := rl.Allow(ctx, "10.0.0.1")
		require.NoError(t, err)
		assert.Equal(t, want, ok, "hit %d", i+1)
	}

	ok, err := rl.Allow(ctx, "10.0.0.2")
	require.NoError(t, err)
	assert.True(t, ok, "keys are independent")

	assert.Equal(t, time.Minute, fc.expires["intake:rl:10.0.0.1"])
	assert.Len(t, fc.expires, 2)
}

func TestAllow_Error(t *testing.T) {
	fc := newFakeCounter()
	fc.err = errors.New("connection refused")

	ok, err := NewRedis(fc, 2, time.Minute).Allow(context.Background(), "k")
	assert.False(t, ok)
	assert.ErrorContains(t, err, "connection refused")
}
