package ratelimiter

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenBucket_AllowRefills(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	tb := newTokenBucket(2, 2, func() time.Time { return now })

	assert.True(t, tb.Allow())
	assert.True(t, tb.Allow())
	assert.False(t, tb.Allow(), "bucket should be empty after the burst")

	now = now.Add(500 * time.Millisecond)
	assert.True(t, tb.Allow(), "half a second at 2 tokens/s refills one token")
	assert.False(t, tb.Allow())

	now = now.Add(time.Hour)
	assert.True(t, tb.Allow())
	assert.True(t, tb.Allow())
	assert.False(t, tb.Allow(), "refill is capped at capacity")
}

func TestTokenBucket_Wait(t *testing.T) {
	tb := NewTokenBucket(50, 1)
	require.NoError(t, tb.Wait(context.Background()))

	start := time.Now()
	require.NoError(t, tb.Wait(context.Background()))
	assert.GreaterOrEqual(t, time.Since(start), 10*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	slow := NewTokenBucket(0.001, 1)
	require.True(t, slow.Allow())
	assert.ErrorIs(t, slow.Wait(ctx), context.Canceled)
}

func TestTokenBucket_ReserveNeverReturnsZeroWithoutToken(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	tb := newTokenBucket(1e9, 1, func() time.Time { return now })

	for i := 0; i < 1000; i++ {
		tb.tokens = 1 - 1e-10
		wait := tb.reserve()
		assert.Greater(t, wait, time.Duration(0))
		assert.InDelta(t, 1-1e-10, tb.tokens, 1e-12, "no token may be taken while waiting")
	}
}
