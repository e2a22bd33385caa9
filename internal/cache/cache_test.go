package cache

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"PriceSentinel/internal/model"
)

func exerciseCache(t *testing.T, c Cache) {
	ctx := context.Background()
	id := "cache-test-product"

	_, err := c.GetLatest(ctx, id+"-missing")
	assert.True(t, errors.Is(err, ErrMiss))

	snap := &model.Snapshot{
		ID:        "s1",
		ProductID: id,
		TakenAt:   time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
		Stats:     &model.PriceStatistics{Min: 1, Max: 3, Mean: 2, Median: 2, Count: 3},
	}
	require.NoError(t, c.SetLatest(ctx, snap))

	got, err := c.GetLatest(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "s1", got.ID)
	assert.Equal(t, 2.0, got.Stats.Median)
	assert.True(t, snap.TakenAt.Equal(got.TakenAt))

	assert.Error(t, c.SetLatest(ctx, nil))
	assert.NoError(t, c.Ping(ctx))
}

func TestMemoryCache(t *testing.T) {
	exerciseCache(t, NewMemoryCache(time.Minute))
}

func TestMemoryCache_Expiry(t *testing.T) {
	c := NewMemoryCache(time.Minute)
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }

	require.NoError(t, c.SetLatest(context.Background(), &model.Snapshot{ProductID: "p"}))
	_, err := c.GetLatest(context.Background(), "p")
	require.NoError(t, err)

	now = now.Add(2 * time.Minute)
	_, err = c.GetLatest(context.Background(), "p")
	assert.True(t, errors.Is(err, ErrMiss))
}

func TestRedisCache(t *testing.T) {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		t.Skip("REDIS_ADDR not set")
	}
	c, err := NewRedisCache(context.Background(), addr, os.Getenv("REDIS_PASSWORD"), 0, time.Minute)
	require.NoError(t, err)
	defer c.Close()
	exerciseCache(t, c)
}
