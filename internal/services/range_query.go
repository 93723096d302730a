package services

import (
	"sort"
	"time"

	"github.com/benmeehan/device-locations/internal/models"
)

// Request field layouts for location-points windows.
const (
	dateLayout  = "2006-01-02"
	clockLayout = "15:04:05"
)

// matchesLayout reports whether v is exactly layout-formatted, zero padding included.
func matchesLayout(v, layout string) bool {
	t, err := time.Parse(layout, v)
	return err == nil && t.Format(layout) == v
}

// FilterRange returns the samples of deviceID whose timestamp lies inside
// window, in the order they appear in samples. The result is never nil.
// Samples with a non-canonical timestamp never match.
func FilterRange(samples []models.LocationSample, deviceID int64, window models.TimeWindow) []models.RangePoint {
	points := make([]models.RangePoint, 0)
	for _, sample := range samples {
		if sample.DeviceID != deviceID {
			continue
		}
		ts, err := models.ParseTimestamp(sample.Timestamp)
		if err != nil || !window.Contains(ts) {
			continue
		}
		points = append(points, models.RangePoint{
			Latitude:  sample.Latitude,
			Longitude: sample.Longitude,
			Timestamp: ts,
		})
	}
	return points
}

// EarliestSample returns the sample of deviceID with the smallest timestamp.
// Ties keep input order. ok is false when the device has no valid sample.
func EarliestSample(samples []models.LocationSample, deviceID int64) (models.LocationSample, bool) {
	var deviceSamples []models.LocationSample
	for _, sample := range samples {
		if sample.DeviceID != deviceID {
			continue
		}
		if _, err := models.ParseTimestamp(sample.Timestamp); err != nil {
			continue
		}
		deviceSamples = append(deviceSamples, sample)
	}
	if len(deviceSamples) == 0 {
		return models.LocationSample{}, false
	}

	sort.SliceStable(deviceSamples, func(i, j int) bool {
		return deviceSamples[i].Timestamp < deviceSamples[j].Timestamp
	})
	return deviceSamples[0], true
}
