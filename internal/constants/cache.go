package constants

// Position cache field names. Existing cache contents written by the legacy
// populate job use the same names.
const (
	// FieldLatitude holds the latitude of the latest sample
	FieldLatitude = "latitude"
	// FieldLongitude holds the longitude of the latest sample
	FieldLongitude = "longitude"
	// FieldTimestamp holds the timestamp of the latest sample
	FieldTimestamp = "time_stamp"
	// FieldStartLocation optionally holds the first known position as JSON
	FieldStartLocation = "start_location"
	// FieldDeviceID is added to latest-info responses, never stored
	FieldDeviceID = "device_id"
)
