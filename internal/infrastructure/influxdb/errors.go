package influxdb

import "errors"

// Errors returned by the telemetry client. Check with errors.Is.
var (
	// ErrNotConnected is returned after Close or before a successful Connect.
	ErrNotConnected = errors.New("influxdb: not connected")

	// ErrConnectionFailed is returned when the server cannot be pinged.
	ErrConnectionFailed = errors.New("influxdb: connection failed")

	// ErrDisabled is returned by Connect when influxdb.enabled is false.
	ErrDisabled = errors.New("influxdb: disabled in configuration")
)
