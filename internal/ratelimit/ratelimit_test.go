package ratelimit_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fairwaylab/swingcoach/internal/cache"
	"github.com/fairwaylab/swingcoach/internal/config"
	"github.com/fairwaylab/swingcoach/internal/ratelimit"
)

func TestWindow_Allow(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	c, err := cache.InitServer(context.Background(), config.Redis{Address: mr.Addr()})
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })

	lim := ratelimit.NewWindow(c, 3, time.Hour)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		ok, err := lim.Allow(ctx, "10.0.0.1")
		require.NoError(t, err)
		assert.True(t, ok, "request %d", i+1)
	}
	ok, err := lim.Allow(ctx, "10.0.0.1")
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = lim.Allow(ctx, "10.0.0.2")
	require.NoError(t, err)
	assert.True(t, ok, "other clients are counted separately")
}

type failingCounter struct{}

func (failingCounter) Incr(context.Context, string, time.Duration) (int64, error) {
	return 0, errors.New("redis down")
}

func TestWindow_CounterError(t *testing.T) {
	lim := ratelimit.NewWindow(failingCounter{}, 3, time.Minute)
	ok, err := lim.Allow(context.Background(), "10.0.0.1")
	assert.Error(t, err)
	assert.False(t, ok)
}

func TestLocal_Allow(t *testing.T) {
	lim := ratelimit.NewLocal(2, time.Hour)
	ctx := context.Background()

	ok, _ := lim.Allow(ctx, "a")
	assert.True(t, ok)
	ok, _ = lim.Allow(ctx, "a")
	assert.True(t, ok)
	ok, _ = lim.Allow(ctx, "a")
	assert.False(t, ok)

	ok, _ = lim.Allow(ctx, "b")
	assert.True(t, ok)
}
