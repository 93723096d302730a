package services

import (
	"github.com/benmeehan/device-locations/internal/models"
)

// SkippedSample is a sample left out of reduction and why.
type SkippedSample struct {
	Sample models.LocationSample
	Reason string
}

// ReduceResult holds one LatestRecord per device plus the samples that could
// not take part in the reduction.
type ReduceResult struct {
	Latest  map[int64]models.LatestRecord
	Skipped []SkippedSample
}

// Reduce picks the sample with the greatest timestamp for every device.
// When several samples share the greatest timestamp, the first one in input
// order wins. Samples whose timestamp is not canonical are skipped.
func Reduce(samples []models.LocationSample) ReduceResult {
	result := ReduceResult{
		Latest: make(map[int64]models.LatestRecord),
	}

	for _, sample := range samples {
		ts, err := models.ParseTimestamp(sample.Timestamp)
		if err != nil {
			result.Skipped = append(result.Skipped, SkippedSample{Sample: sample, Reason: err.Error()})
			continue
		}

		current, seen := result.Latest[sample.DeviceID]
		if seen && ts <= current.Timestamp {
			continue
		}
		result.Latest[sample.DeviceID] = models.LatestRecord{
			DeviceID:  sample.DeviceID,
			Latitude:  sample.Latitude,
			Longitude: sample.Longitude,
			Timestamp: ts,
		}
	}

	return result
}

// NormalizeSamples returns a copy of samples with every timestamp coerced to
// the canonical layout. Timestamps that cannot be coerced are left as they are
// so that downstream consumers can report them as skipped.
func NormalizeSamples(samples []models.LocationSample) []models.LocationSample {
	out := make([]models.LocationSample, len(samples))
	for i, sample := range samples {
		if ts, err := models.NormalizeTimestamp(sample.Timestamp); err == nil {
			sample.Timestamp = ts.String()
		}
		out[i] = sample
	}
	return out
}
