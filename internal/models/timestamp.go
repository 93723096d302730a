package models

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// TimestampLayout is the fixed-width, zero-padded UTC layout used for every
// timestamp stored in the cache or compared by the query engine. Because every
// field is zero padded and fixed width, lexical order equals chronological order.
const TimestampLayout = "2006-01-02T15:04:05Z"

// Timestamp is a location timestamp in TimestampLayout form.
// Values are only produced by ParseTimestamp and NormalizeTimestamp, so two
// Timestamps can be compared with the ordinary string operators.
type Timestamp string

// ParseTimestamp validates s against TimestampLayout.
// Anything that is not byte-for-byte canonical (missing padding, offsets,
// fractional seconds) is rejected.
func ParseTimestamp(s string) (Timestamp, error) {
	if len(s) != len(TimestampLayout) {
		return "", fmt.Errorf("timestamp %q is not in %s format", s, TimestampLayout)
	}
	t, err := time.Parse(TimestampLayout, s)
	if err != nil {
		return "", fmt.Errorf("timestamp %q is not in %s format: %w", s, TimestampLayout, err)
	}
	if t.Format(TimestampLayout) != s {
		return "", fmt.Errorf("timestamp %q is not canonical", s)
	}
	return Timestamp(s), nil
}

// TimestampFromTime formats t in UTC.
func TimestampFromTime(t time.Time) Timestamp {
	return Timestamp(t.UTC().Format(TimestampLayout))
}

// NewTimestamp combines a date (YYYY-MM-DD) and a time (HH:MM:SS) into a Timestamp.
func NewTimestamp(date, clock string) (Timestamp, error) {
	return ParseTimestamp(date + "T" + clock + "Z")
}

// alternate layouts seen in exported datasets
var normalizeLayouts = []string{
	time.RFC3339,
	time.RFC3339Nano,
	"2006-01-02 15:04:05",
	"2006-01-02 15:04:05Z07:00",
	"2006-01-02 15:04:05-07:00",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05.999999999",
}

// NormalizeTimestamp coerces the textual forms a dataset may carry (canonical
// strings, other ISO-8601 variants and numeric epoch seconds) into a Timestamp.
func NormalizeTimestamp(raw string) (Timestamp, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return "", fmt.Errorf("timestamp is empty")
	}

	if ts, err := ParseTimestamp(s); err == nil {
		return ts, nil
	}

	if secs, err := strconv.ParseFloat(s, 64); err == nil {
		if math.IsNaN(secs) || math.IsInf(secs, 0) {
			return "", fmt.Errorf("timestamp %q is not a finite number", raw)
		}
		whole, frac := math.Modf(secs)
		return TimestampFromTime(time.Unix(int64(whole), int64(frac*1e9))), nil
	}

	for _, layout := range normalizeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return TimestampFromTime(t), nil
		}
	}

	return "", fmt.Errorf("timestamp %q has an unrecognised format", raw)
}

// String returns the canonical text.
func (t Timestamp) String() string {
	return string(t)
}

// Time converts the timestamp back to a time.Time in UTC.
func (t Timestamp) Time() (time.Time, error) {
	return time.Parse(TimestampLayout, string(t))
}
