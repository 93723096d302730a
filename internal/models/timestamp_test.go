package models_test

import (
	"testing"
	"time"

	"github.com/benmeehan/device-locations/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTimestamp(t *testing.T) {
	ts, err := models.ParseTimestamp("2024-01-02T03:04:05Z")
	require.NoError(t, err)
	assert.Equal(t, "2024-01-02T03:04:05Z", ts.String())

	for _, bad := range []string{
		"",
		"2024-1-02T03:04:05Z",
		"2024-01-02T03:04:05",
		"2024-01-02 03:04:05Z",
		"2024-01-02T03:04:05.5Z",
		"2024-01-02T03:04:05+00:00",
		"2024-13-02T03:04:05Z",
	} {
		_, err := models.ParseTimestamp(bad)
		assert.Error(t, err, bad)
	}
}

func TestTimestamp_LexicalOrderIsChronological(t *testing.T) {
	times := []time.Time{
		time.Date(2023, 12, 31, 23, 59, 59, 0, time.UTC),
		time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC),
		time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC),
		time.Date(2024, 10, 1, 0, 0, 0, 0, time.UTC),
	}
	for i := 1; i < len(times); i++ {
		assert.Less(t, models.TimestampFromTime(times[i-1]), models.TimestampFromTime(times[i]))
	}
}

func TestNewTimestamp(t *testing.T) {
	ts, err := models.NewTimestamp("2024-01-01", "12:00:00")
	require.NoError(t, err)
	assert.Equal(t, models.Timestamp("2024-01-01T12:00:00Z"), ts)

	_, err = models.NewTimestamp("2024-01-01", "12:00")
	assert.Error(t, err)
}

func TestNormalizeTimestamp(t *testing.T) {
	tests := []struct {
		raw      string
		expected models.Timestamp
	}{
		{"2024-01-01T00:00:00Z", "2024-01-01T00:00:00Z"},
		{" 2024-01-01T00:00:00Z ", "2024-01-01T00:00:00Z"},
		{"1704067200", "2024-01-01T00:00:00Z"},
		{"1704067200.0", "2024-01-01T00:00:00Z"},
		{"2024-01-01 05:30:00", "2024-01-01T05:30:00Z"},
		{"2024-01-01T05:30:00", "2024-01-01T05:30:00Z"},
		{"2024-01-01T05:30:00+05:30", "2024-01-01T00:00:00Z"},
		{"2024-01-01T05:30:00.250Z", "2024-01-01T05:30:00Z"},
	}
	for _, tt := range tests {
		ts, err := models.NormalizeTimestamp(tt.raw)
		require.NoError(t, err, tt.raw)
		assert.Equal(t, tt.expected, ts, tt.raw)
	}

	for _, bad := range []string{"", "   ", "tomorrow", "NaN", "Inf"} {
		_, err := models.NormalizeTimestamp(bad)
		assert.Error(t, err, bad)
	}
}

func TestTimeWindow_Contains(t *testing.T) {
	w := models.TimeWindow{Start: "2024-01-01T00:00:00Z", End: "2024-01-01T12:00:00Z"}

	assert.True(t, w.Contains("2024-01-01T00:00:00Z"))
	assert.True(t, w.Contains("2024-01-01T06:00:00Z"))
	assert.True(t, w.Contains("2024-01-01T12:00:00Z"))
	assert.False(t, w.Contains("2024-01-01T12:00:01Z"))
	assert.False(t, w.Contains("2023-12-31T23:59:59Z"))
}
