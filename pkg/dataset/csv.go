package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/benmeehan/device-locations/internal/models"
)

// Column names accepted in the dataset header, first match wins.
var (
	deviceColumns    = []string{"device_fk_id", "device_id"}
	latitudeColumns  = []string{"latitude", "lat"}
	longitudeColumns = []string{"longitude", "lng", "lon"}
	timestampColumns = []string{"time_stamp", "timestamp"}
)

// RowError describes a dataset row that could not be turned into a sample.
type RowError struct {
	Line int
	Err  error
}

func (e RowError) Error() string {
	return fmt.Sprintf("line %d: %v", e.Line, e.Err)
}

type columnIndex struct {
	device, latitude, longitude, timestamp int
}

// DecodeCSV reads location samples from CSV with a header row.
// Rows whose device id, latitude or longitude cannot be parsed are returned as
// RowErrors and left out. Timestamps are kept verbatim; they are validated later
// by the consumers. A missing header column is a hard error.
func DecodeCSV(r io.Reader) ([]models.LocationSample, []RowError, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true
	reader.ReuseRecord = true

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return []models.LocationSample{}, nil, nil
	}
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read dataset header: %w", err)
	}

	cols, err := indexColumns(header)
	if err != nil {
		return nil, nil, err
	}

	samples := make([]models.LocationSample, 0, 1024)
	var rowErrors []RowError
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			var parseErr *csv.ParseError
			if errors.As(err, &parseErr) {
				rowErrors = append(rowErrors, RowError{Line: parseErr.Line, Err: parseErr.Err})
				continue
			}
			return nil, nil, fmt.Errorf("failed to read dataset: %w", err)
		}

		line, _ := reader.FieldPos(0)
		sample, err := parseRecord(record, cols)
		if err != nil {
			rowErrors = append(rowErrors, RowError{Line: line, Err: err})
			continue
		}
		samples = append(samples, sample)
	}

	return samples, rowErrors, nil
}

func indexColumns(header []string) (columnIndex, error) {
	positions := make(map[string]int, len(header))
	for i, name := range header {
		name = strings.ToLower(strings.TrimSpace(strings.TrimPrefix(name, "\ufeff")))
		if _, seen := positions[name]; !seen {
			positions[name] = i
		}
	}

	find := func(aliases []string) (int, error) {
		for _, alias := range aliases {
			if i, ok := positions[alias]; ok {
				return i, nil
			}
		}
		return 0, fmt.Errorf("dataset header has no %s column", aliases[0])
	}

	var cols columnIndex
	var err error
	if cols.device, err = find(deviceColumns); err != nil {
		return cols, err
	}
	if cols.latitude, err = find(latitudeColumns); err != nil {
		return cols, err
	}
	if cols.longitude, err = find(longitudeColumns); err != nil {
		return cols, err
	}
	if cols.timestamp, err = find(timestampColumns); err != nil {
		return cols, err
	}
	return cols, nil
}

func parseRecord(record []string, cols columnIndex) (models.LocationSample, error) {
	field := func(i int) string {
		if i < len(record) {
			return strings.TrimSpace(record[i])
		}
		return ""
	}

	deviceID, err := parseDeviceID(field(cols.device))
	if err != nil {
		return models.LocationSample{}, err
	}
	lat, err := parseCoordinate("latitude", field(cols.latitude), 90)
	if err != nil {
		return models.LocationSample{}, err
	}
	lng, err := parseCoordinate("longitude", field(cols.longitude), 180)
	if err != nil {
		return models.LocationSample{}, err
	}

	return models.LocationSample{
		DeviceID:  deviceID,
		Latitude:  lat,
		Longitude: lng,
		Timestamp: field(cols.timestamp),
	}, nil
}

// parseDeviceID accepts integers and integral floats ("12.0"), which is how
// some exporters write integer columns that contained blanks.
func parseDeviceID(raw string) (int64, error) {
	if raw == "" {
		return 0, errors.New("device id is empty")
	}
	if id, err := strconv.ParseInt(raw, 10, 64); err == nil {
		return id, nil
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil || f != math.Trunc(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("device id %q is not an integer", raw)
	}
	return int64(f), nil
}

func parseCoordinate(name, raw string, limit float64) (float64, error) {
	if raw == "" {
		return 0, fmt.Errorf("%s is empty", name)
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("%s %q is not a number", name, raw)
	}
	if math.IsNaN(v) || v < -limit || v > limit {
		return 0, fmt.Errorf("%s %q is out of range", name, raw)
	}
	return v, nil
}
