package constants

// ServiceName identifies the service in logs and the info endpoint.
const ServiceName = "device-locations"

// Version is the release of this build. It must be a valid semantic version.
var Version = "1.0.0"
