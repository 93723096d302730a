package models

// LocationSample is a single row of the location dataset.
// Timestamp holds the text read from the dataset; it is only guaranteed to be
// in TimestampLayout form after normalization.
type LocationSample struct {
	DeviceID  int64   `json:"device_id"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Timestamp string  `json:"time_stamp"`
}

// LatestRecord is the most recent sample of a device.
type LatestRecord struct {
	DeviceID  int64     `json:"device_id"`
	Latitude  float64   `json:"latitude"`
	Longitude float64   `json:"longitude"`
	Timestamp Timestamp `json:"time_stamp"`
}

// Coordinates is a bare latitude/longitude pair.
type Coordinates struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// RangePoint is the projection returned by range queries.
type RangePoint struct {
	Latitude  float64   `json:"latitude"`
	Longitude float64   `json:"longitude"`
	Timestamp Timestamp `json:"time_stamp"`
}

// StartEndLocation pairs the first and last known position of a device.
type StartEndLocation struct {
	DeviceID      int64       `json:"device_id"`
	StartLocation Coordinates `json:"start_location"`
	EndLocation   Coordinates `json:"end_location"`
}

// TimeWindow is an inclusive [Start, End] interval.
type TimeWindow struct {
	Start Timestamp `json:"start"`
	End   Timestamp `json:"end"`
}

// Contains reports whether ts lies inside the window, bounds included.
func (w TimeWindow) Contains(ts Timestamp) bool {
	return w.Start <= ts && ts <= w.End
}

// LocationPointsRequest is the body accepted by the location-points endpoint.
// Every field is optional at decode time so that all missing fields can be
// reported together.
type LocationPointsRequest struct {
	StartDate *string `json:"start_date"`
	StartTime *string `json:"start_time"`
	EndDate   *string `json:"end_date"`
	EndTime   *string `json:"end_time"`
}
