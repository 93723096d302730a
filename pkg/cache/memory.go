package cache

import (
	"context"
	"strconv"

	"github.com/benmeehan/device-locations/internal/models"
	cmap "github.com/orcaman/concurrent-map/v2"
)

// MemoryCache is a process-local PositionCache backed by a sharded concurrent map.
// It is meant for development and tests; entries vanish with the process.
type MemoryCache struct {
	entries cmap.ConcurrentMap[string, models.CacheEntry]
}

// NewMemoryCache creates an empty MemoryCache.
func NewMemoryCache() *MemoryCache {
	return &MemoryCache{
		entries: cmap.New[models.CacheEntry](),
	}
}

// Write stores a private copy of entry, replacing any previous fields.
func (m *MemoryCache) Write(ctx context.Context, deviceID int64, entry models.CacheEntry) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.entries.Set(memoryKey(deviceID), entry.Clone())
	return nil
}

// ReadAll returns a copy of the stored entry.
func (m *MemoryCache) ReadAll(ctx context.Context, deviceID int64) (models.CacheEntry, bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}
	entry, ok := m.entries.Get(memoryKey(deviceID))
	if !ok || len(entry) == 0 {
		return nil, false, nil
	}
	return entry.Clone(), true, nil
}

// ReadField returns one field of the stored entry.
func (m *MemoryCache) ReadField(ctx context.Context, deviceID int64, field string) (string, bool, error) {
	if err := ctx.Err(); err != nil {
		return "", false, err
	}
	entry, ok := m.entries.Get(memoryKey(deviceID))
	if !ok {
		return "", false, nil
	}
	value, ok := entry[field]
	return value, ok, nil
}

// Len returns the number of cached devices.
func (m *MemoryCache) Len() int {
	return m.entries.Count()
}

func memoryKey(deviceID int64) string {
	return strconv.FormatInt(deviceID, 10)
}
