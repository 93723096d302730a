package cache_test

import (
	"context"
	"testing"

	"github.com/benmeehan/device-locations/internal/models"
	"github.com/benmeehan/device-locations/pkg/cache"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryCache_WriteReplacesEntry(t *testing.T) {
	ctx := context.Background()
	c := cache.NewMemoryCache()

	require.NoError(t, c.Write(ctx, 1, models.CacheEntry{"latitude": "1", "start_location": "x"}))
	require.NoError(t, c.Write(ctx, 1, models.CacheEntry{"latitude": "2"}))

	entry, found, err := c.ReadAll(ctx, 1)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, models.CacheEntry{"latitude": "2"}, entry)

	_, found, err = c.ReadField(ctx, 1, "start_location")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestMemoryCache_Miss(t *testing.T) {
	ctx := context.Background()
	c := cache.NewMemoryCache()

	entry, found, err := c.ReadAll(ctx, 42)
	assert.NoError(t, err)
	assert.False(t, found)
	assert.Nil(t, entry)

	_, found, err = c.ReadField(ctx, 42, "latitude")
	assert.NoError(t, err)
	assert.False(t, found)
}

func TestMemoryCache_EntriesAreCopied(t *testing.T) {
	ctx := context.Background()
	c := cache.NewMemoryCache()
	entry := models.CacheEntry{"latitude": "1"}

	require.NoError(t, c.Write(ctx, 1, entry))
	entry["latitude"] = "changed"

	read, _, _ := c.ReadAll(ctx, 1)
	assert.Equal(t, "1", read["latitude"])

	read["latitude"] = "changed again"
	value, _, _ := c.ReadField(ctx, 1, "latitude")
	assert.Equal(t, "1", value)
	assert.Equal(t, 1, c.Len())
}

func TestMemoryCache_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	c := cache.NewMemoryCache()

	assert.ErrorIs(t, c.Write(ctx, 1, models.CacheEntry{"latitude": "1"}), context.Canceled)
	_, _, err := c.ReadAll(ctx, 1)
	assert.ErrorIs(t, err, context.Canceled)
	_, _, err = c.ReadField(ctx, 1, "latitude")
	assert.ErrorIs(t, err, context.Canceled)
}
