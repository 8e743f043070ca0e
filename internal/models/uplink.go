// Package models contains domain types for the livestock telemetry backend.
package models

import "time"

// PayloadShape identifies which wire format an uplink arrived in.
type PayloadShape string

const (
	ShapeTTNv3 PayloadShape = "ttn_v3"
	ShapeFlat  PayloadShape = "flat"
)

// AccelSummary carries the accelerometer-derived magnitudes reported by the
// tag. All fields are optional; MaxSpeed/MeanSpeed are pass-throughs not used
// for classification.
type AccelSummary struct {
	MaxSpeed  *float64 `json:"v_max_ms"`
	MeanSpeed *float64 `json:"v_mean_ms"`
	ODBA      any      `json:"ODBA_g"`
	VeDBA     any      `json:"VeDBA_g"`
}

// GPSInput is the location portion of an uplink. Lat and Lon are each either
// a scalar or a parallel slice (a trajectory carried inside one uplink);
// Times, when present, is parallel to the slices and holds numeric epochs or
// ISO-8601 strings. Values are kept raw here: the GPS engine owns coercion
// and validation.
type GPSInput struct {
	Lat   any
	Lon   any
	Times []any
}

// CanonicalUplink is the normalized representation of one uplink, produced by
// the normalizer regardless of inbound shape. Every field is independently
// optional except Humidity, which always holds a value after normalization
// (default 65.0).
type CanonicalUplink struct {
	DeviceKey string
	SubjectID string

	BodyTemp    *float64 // °C, dorsal sensor
	AmbientTemp *float64 // °C
	Humidity    float64  // %, defaulted to 65 when the payload omits it

	Accel AccelSummary
	GPS   GPSInput

	// GPSApprox marks a location taken from gateway metadata rather than
	// the tag's own fix. Gateway position is a coarse substitute for the
	// animal's true position.
	GPSApprox bool

	// EventEpoch is the device-reported time in seconds since epoch. No
	// fallback exists: when absent, time-series ordering is unavailable
	// for this record.
	EventEpoch *float64

	// ReceivedLocal is the network server's receive time converted to the
	// configured local zone, or the processing wall-clock time when the
	// server supplied none.
	ReceivedLocal time.Time

	Shape PayloadShape
}
