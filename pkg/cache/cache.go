package cache

import (
	"context"

	"github.com/benmeehan/device-locations/internal/models"
)

// PositionCache stores the latest known position of each device as a field map.
// Every call is atomic on its own; nothing spans more than one key.
type PositionCache interface {
	// Write replaces the whole entry of a device.
	Write(ctx context.Context, deviceID int64, entry models.CacheEntry) error
	// ReadAll returns the entry of a device. found is false on a miss.
	ReadAll(ctx context.Context, deviceID int64) (entry models.CacheEntry, found bool, err error)
	// ReadField returns a single field of a device entry. found is false when
	// either the device or the field is missing.
	ReadField(ctx context.Context, deviceID int64, field string) (value string, found bool, err error)
}
