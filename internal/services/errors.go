package services

import (
	"errors"
	"strings"
)

var (
	// ErrSourceUnavailable means the location dataset could not be read.
	ErrSourceUnavailable = errors.New("location dataset unavailable")

	// ErrNotFound means the position cache has no entry for the device.
	ErrNotFound = errors.New("device data not found")

	// ErrStartLocationNotFound means the device is cached but has no samples
	// left in the dataset to derive a start position from.
	ErrStartLocationNotFound = errors.New("start location not found")
)

// ValidationError reports request fields that are missing or malformed.
// Fields lists every offending field, not just the first.
type ValidationError struct {
	Reason string
	Fields []string
}

func (e *ValidationError) Error() string {
	return e.Reason + ": " + strings.Join(e.Fields, ", ")
}

// fieldErrors collects field names in the order they are reported.
type fieldErrors struct {
	missing []string
	invalid []string
}

func (f *fieldErrors) addMissing(field string) { f.missing = append(f.missing, field) }
func (f *fieldErrors) addInvalid(field string) { f.invalid = append(f.invalid, field) }

// err returns the missing-field error if any field is absent, otherwise the
// invalid-field error, otherwise nil.
func (f *fieldErrors) err() error {
	if len(f.missing) > 0 {
		return &ValidationError{Reason: "missing required fields", Fields: f.missing}
	}
	if len(f.invalid) > 0 {
		return &ValidationError{Reason: "invalid fields", Fields: f.invalid}
	}
	return nil
}
