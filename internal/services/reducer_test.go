package services_test

import (
	"math/rand"
	"testing"

	"github.com/benmeehan/device-locations/internal/models"
	"github.com/benmeehan/device-locations/internal/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sample(device int64, lat, lng float64, ts string) models.LocationSample {
	return models.LocationSample{DeviceID: device, Latitude: lat, Longitude: lng, Timestamp: ts}
}

// TestReduce_LatestPerDevice tests that each device keeps its most recent sample.
func TestReduce_LatestPerDevice(t *testing.T) {
	samples := []models.LocationSample{
		sample(1, 10, 20, "2024-01-01T00:00:00Z"),
		sample(1, 11, 21, "2024-01-02T00:00:00Z"),
		sample(2, 30, 40, "2024-01-01T00:00:00Z"),
	}

	result := services.Reduce(samples)

	require.Len(t, result.Latest, 2)
	assert.Empty(t, result.Skipped)
	assert.Equal(t, models.LatestRecord{DeviceID: 1, Latitude: 11, Longitude: 21, Timestamp: "2024-01-02T00:00:00Z"}, result.Latest[1])
	assert.Equal(t, models.LatestRecord{DeviceID: 2, Latitude: 30, Longitude: 40, Timestamp: "2024-01-01T00:00:00Z"}, result.Latest[2])
}

// TestReduce_EmptyInput tests that an empty dataset reduces to an empty mapping.
func TestReduce_EmptyInput(t *testing.T) {
	result := services.Reduce(nil)

	assert.NotNil(t, result.Latest)
	assert.Empty(t, result.Latest)
	assert.Empty(t, result.Skipped)
}

// TestReduce_TieKeepsFirst tests that equal timestamps resolve to the first sample in input order.
func TestReduce_TieKeepsFirst(t *testing.T) {
	samples := []models.LocationSample{
		sample(5, 1, 1, "2024-03-01T08:00:00Z"),
		sample(5, 2, 2, "2024-03-01T09:00:00Z"),
		sample(5, 3, 3, "2024-03-01T09:00:00Z"),
	}

	result := services.Reduce(samples)

	assert.Equal(t, float64(2), result.Latest[5].Latitude)
}

// TestReduce_SkipsUnusableTimestamps tests that bad timestamps are reported, not fatal.
func TestReduce_SkipsUnusableTimestamps(t *testing.T) {
	samples := []models.LocationSample{
		sample(1, 1, 1, ""),
		sample(1, 2, 2, "2024-01-01T00:00:00Z"),
		sample(2, 3, 3, "yesterday"),
	}

	result := services.Reduce(samples)

	require.Len(t, result.Latest, 1)
	assert.Equal(t, float64(2), result.Latest[1].Latitude)
	require.Len(t, result.Skipped, 2)
	assert.Equal(t, int64(1), result.Skipped[0].Sample.DeviceID)
	assert.Equal(t, int64(2), result.Skipped[1].Sample.DeviceID)
	assert.NotEmpty(t, result.Skipped[0].Reason)
}

// TestReduce_RandomizedProperties checks that every device gets exactly one
// record and that no other sample of that device is newer.
func TestReduce_RandomizedProperties(t *testing.T) {
	rng := rand.New(rand.NewSource(42))

	for round := 0; round < 50; round++ {
		n := rng.Intn(200)
		samples := make([]models.LocationSample, 0, n)
		devices := map[int64]struct{}{}
		for i := 0; i < n; i++ {
			device := int64(rng.Intn(10))
			ts := models.TimestampFromTime(randomTime(rng)).String()
			samples = append(samples, sample(device, rng.Float64()*180-90, rng.Float64()*360-180, ts))
			devices[device] = struct{}{}
		}

		result := services.Reduce(samples)

		require.Len(t, result.Latest, len(devices))
		for _, s := range samples {
			rec, ok := result.Latest[s.DeviceID]
			require.True(t, ok)
			assert.GreaterOrEqual(t, rec.Timestamp.String(), s.Timestamp)
		}
	}
}

// TestNormalizeSamples tests coercion of mixed timestamp representations.
func TestNormalizeSamples(t *testing.T) {
	samples := []models.LocationSample{
		sample(1, 0, 0, "1704067200"),
		sample(1, 0, 0, "2024-01-01 06:30:00"),
		sample(1, 0, 0, "2024-01-01T12:00:00+02:00"),
		sample(1, 0, 0, "2024-01-02T00:00:00Z"),
		sample(1, 0, 0, "not a time"),
	}

	normalized := services.NormalizeSamples(samples)

	require.Len(t, normalized, len(samples))
	assert.Equal(t, "2024-01-01T00:00:00Z", normalized[0].Timestamp)
	assert.Equal(t, "2024-01-01T06:30:00Z", normalized[1].Timestamp)
	assert.Equal(t, "2024-01-01T10:00:00Z", normalized[2].Timestamp)
	assert.Equal(t, "2024-01-02T00:00:00Z", normalized[3].Timestamp)
	assert.Equal(t, "not a time", normalized[4].Timestamp)

	// input is left untouched
	assert.Equal(t, "1704067200", samples[0].Timestamp)
}
