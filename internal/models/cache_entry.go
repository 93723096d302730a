package models

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/benmeehan/device-locations/internal/constants"
)

// CacheEntry is the field map stored in the position cache for one device.
// All values are strings.
type CacheEntry map[string]string

// NewCacheEntry serializes a LatestRecord into its cache representation.
// Floats use the shortest exact representation so the same record always
// yields the same strings.
func NewCacheEntry(rec LatestRecord) CacheEntry {
	return CacheEntry{
		constants.FieldLatitude:  formatCoordinate(rec.Latitude),
		constants.FieldLongitude: formatCoordinate(rec.Longitude),
		constants.FieldTimestamp: rec.Timestamp.String(),
	}
}

// Coordinates parses the latitude and longitude fields.
func (e CacheEntry) Coordinates() (Coordinates, error) {
	lat, err := e.float(constants.FieldLatitude)
	if err != nil {
		return Coordinates{}, err
	}
	lng, err := e.float(constants.FieldLongitude)
	if err != nil {
		return Coordinates{}, err
	}
	return Coordinates{Latitude: lat, Longitude: lng}, nil
}

func (e CacheEntry) float(field string) (float64, error) {
	raw, ok := e[field]
	if !ok {
		return 0, fmt.Errorf("cache entry has no %s field", field)
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("cache entry field %s=%q is not a number: %w", field, raw, err)
	}
	return v, nil
}

// Clone returns an independent copy of the entry.
func (e CacheEntry) Clone() CacheEntry {
	out := make(CacheEntry, len(e))
	for k, v := range e {
		out[k] = v
	}
	return out
}

// EncodeStartLocation renders coordinates for the start_location field.
func EncodeStartLocation(c Coordinates) (string, error) {
	b, err := json.Marshal(c)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// DecodeStartLocation parses a start_location field value.
func DecodeStartLocation(raw string) (Coordinates, error) {
	var c Coordinates
	if err := json.Unmarshal([]byte(raw), &c); err != nil {
		return Coordinates{}, fmt.Errorf("invalid start_location %q: %w", raw, err)
	}
	return c, nil
}

func formatCoordinate(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
