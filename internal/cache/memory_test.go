package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemory_GetSetDelete(t *testing.T) {
	ctx := context.Background()
	c := NewMemory("plans", time.Minute)

	_, err := c.Get(ctx, "acc")
	assert.True(t, IsNotFound(err))

	require.NoError(t, c.Set(ctx, "acc", `{"name":"free"}`, 0))
	v, err := c.Get(ctx, "acc")
	require.NoError(t, err)
	assert.Equal(t, `{"name":"free"}`, v)

	require.NoError(t, c.Delete(ctx, "acc"))
	_, err = c.Get(ctx, "acc")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemory_Expires(t *testing.T) {
	ctx := context.Background()
	c := NewMemory("", 0)
	require.NoError(t, c.Set(ctx, "k", "v", 10*time.Millisecond))
	time.Sleep(30 * time.Millisecond)
	_, err := c.Get(ctx, "k")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestNew_DefaultsToMemory(t *testing.T) {
	c, err := New(context.Background(), Config{Driver: "", Prefix: "x"})
	require.NoError(t, err)
	require.NoError(t, c.Ping(context.Background()))
	require.NoError(t, c.Close())
}
