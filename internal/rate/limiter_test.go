package rate

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryLimiter_FixedWindow(t *testing.T) {
	now := time.Date(2024, 5, 1, 10, 0, 10, 0, time.UTC)
	l := NewMemoryLimiter(2, time.Minute)
	l.now = func() time.Time { return now }
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		res, err := l.Allow(ctx, "acc:env")
		require.NoError(t, err)
		assert.True(t, res.Allowed)
	}

	res, err := l.Allow(ctx, "acc:env")
	require.NoError(t, err)
	assert.False(t, res.Allowed)
	assert.Equal(t, int64(0), res.Remaining)
	assert.Equal(t, 50*time.Second, res.RetryAfter)

	// otra key no comparte contador
	res, err = l.Allow(ctx, "acc:other")
	require.NoError(t, err)
	assert.True(t, res.Allowed)

	// ventana nueva
	now = now.Add(time.Minute)
	res, err = l.Allow(ctx, "acc:env")
	require.NoError(t, err)
	assert.True(t, res.Allowed)
	assert.Equal(t, int64(1), res.Remaining)
}

func TestDecide_MinimumRetryAfter(t *testing.T) {
	res := decide(5, 1, 100*time.Millisecond)
	assert.False(t, res.Allowed)
	assert.Equal(t, time.Second, res.RetryAfter)
}
