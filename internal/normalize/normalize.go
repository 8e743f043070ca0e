// Package normalize reconciles the two inbound uplink shapes (the TTN v3
// network-server envelope and the flat key-value form) into one canonical
// record the processing engines consume.
package normalize

import (
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/relvacode/iso8601"

	"github.com/iot-ganaderia/backend/internal/models"
	"github.com/iot-ganaderia/backend/internal/numeric"
)

// DefaultHumidity substitutes a missing relative-humidity reading; the tags
// in the field rarely carry a hygrometer.
const DefaultHumidity = 65.0

// Normalizer maps raw uplink bodies to models.CanonicalUplink. It is
// stateless apart from the configured local zone and safe for concurrent use.
type Normalizer struct {
	loc    *time.Location
	logger *slog.Logger
	now    func() time.Time
}

// New creates a Normalizer resolving receive times into loc.
func New(loc *time.Location, logger *slog.Logger) *Normalizer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Normalizer{loc: loc, logger: logger, now: time.Now}
}

// Normalize detects the payload shape, extracts the canonical field set and
// resolves the receive timestamp. The wall-clock fallback for the receive
// time is applied here, exactly once per uplink, never inside the shape
// parsers, so both shapes share identical timestamp semantics.
func (n *Normalizer) Normalize(body map[string]any) models.CanonicalUplink {
	var up models.CanonicalUplink
	var receivedAt string

	if isEnvelope(body) {
		up, receivedAt = n.parseTTNv3(body)
	} else {
		up = parseFlat(body)
	}

	up.ReceivedLocal = n.resolveReceiveTime(receivedAt)
	return up
}

// isEnvelope reports whether body carries the TTN v3 nested markers.
func isEnvelope(body map[string]any) bool {
	if _, ok := body["uplink_message"]; ok {
		return true
	}
	_, ok := body["end_device_ids"]
	return ok
}

// parseTTNv3 extracts the canonical fields from a network-server envelope.
// Returns the raw received_at string for central resolution.
func (n *Normalizer) parseTTNv3(body map[string]any) (models.CanonicalUplink, string) {
	endIDs := subMap(body, "end_device_ids")
	uplink := subMap(body, "uplink_message")
	dec := subMap(uplink, "decoded_payload")

	up := models.CanonicalUplink{Shape: models.ShapeTTNv3}

	// Prefer the stable hardware identifier over the network-assigned one.
	up.DeviceKey = asString(endIDs["dev_eui"])
	if up.DeviceKey == "" {
		up.DeviceKey = asString(endIDs["device_id"])
	}
	up.SubjectID = asString(dec["cow_id"])

	up.BodyTemp = numeric.FinitePtr(first(dec, "To_c", "temp_body_c", "temp_dorsal"))
	up.AmbientTemp = numeric.FinitePtr(first(dec, "Ta_c", "temp_amb_c", "temp_amb"))
	up.Humidity = humidityOrDefault(first(dec, "humedad", "humidity"))

	up.Accel = accelSummary(dec)
	up.EventEpoch = numeric.FinitePtr(dec["epoch_s"])

	lat := first(dec, "latitude", "lat")
	lon := first(dec, "longitude", "lon")

	// Payload without its own fix: fall back to the first gateway's
	// reported location. That is where the receiving antenna stands, not
	// the animal — a coarse, approximate substitute.
	if lat == nil || lon == nil {
		if gwLat, gwLon, ok := gatewayLocation(uplink); ok {
			if lat == nil {
				lat = gwLat
			}
			if lon == nil {
				lon = gwLon
			}
			up.GPSApprox = true
		}
	}

	up.GPS = models.GPSInput{Lat: lat, Lon: lon, Times: anySlice(first(dec, "timestamp", "timestamps"))}

	receivedAt := asString(body["received_at"])
	if receivedAt == "" {
		receivedAt = asString(uplink["received_at"])
	}
	return up, receivedAt
}

// parseFlat extracts the canonical fields from a flat key-value body, as sent
// by direct/test clients.
func parseFlat(body map[string]any) models.CanonicalUplink {
	up := models.CanonicalUplink{Shape: models.ShapeFlat}

	up.DeviceKey = asString(body["dev_id"])
	up.SubjectID = asString(body["cow_id"])

	up.BodyTemp = numeric.FinitePtr(first(body, "temp_body_c", "temp_dorsal"))
	up.AmbientTemp = numeric.FinitePtr(first(body, "temp_amb_c", "temp_amb"))
	up.Humidity = humidityOrDefault(body["humedad"])

	up.Accel = accelSummary(body)
	up.EventEpoch = numeric.FinitePtr(body["ts_epoch"])

	up.GPS = models.GPSInput{
		Lat:   body["lat"],
		Lon:   body["lon"],
		Times: anySlice(first(body, "timestamp", "timestamps")),
	}
	return up
}

// resolveReceiveTime converts the network server's ISO-8601 receive time
// (UTC) to the local zone, falling back to the processing wall clock when the
// field is absent or unparseable.
func (n *Normalizer) resolveReceiveTime(receivedAt string) time.Time {
	if receivedAt != "" {
		t, err := iso8601.ParseString(receivedAt)
		if err == nil {
			return t.In(n.loc)
		}
		n.logger.Warn("unparseable received_at, using wall clock", "received_at", receivedAt, "error", err)
	}
	return n.now().In(n.loc)
}

func accelSummary(m map[string]any) models.AccelSummary {
	return models.AccelSummary{
		MaxSpeed:  numeric.FinitePtr(m["v_max_ms"]),
		MeanSpeed: numeric.FinitePtr(m["v_mean_ms"]),
		ODBA:      first(m, "ODBA_g", "ODBA"),
		VeDBA:     first(m, "VeDBA_g", "VeDBA"),
	}
}

// gatewayLocation returns the first gateway's reported location from
// rx_metadata, if any.
func gatewayLocation(uplink map[string]any) (lat, lon any, ok bool) {
	rxm, _ := uplink["rx_metadata"].([]any)
	if len(rxm) == 0 {
		return nil, nil, false
	}
	gw, _ := rxm[0].(map[string]any)
	loc := subMap(gw, "location")
	if loc == nil {
		return nil, nil, false
	}
	return loc["latitude"], loc["longitude"], true
}

func humidityOrDefault(v any) float64 {
	if h, ok := numeric.Finite(v); ok {
		return h
	}
	return DefaultHumidity
}

// first returns the first non-nil value among the given keys.
func first(m map[string]any, keys ...string) any {
	for _, k := range keys {
		if v, ok := m[k]; ok && v != nil {
			return v
		}
	}
	return nil
}

func subMap(m map[string]any, key string) map[string]any {
	if m == nil {
		return nil
	}
	sub, _ := m[key].(map[string]any)
	return sub
}

func anySlice(v any) []any {
	s, _ := v.([]any)
	return s
}

// asString renders an identifier value; numeric ids are common in decoded
// payloads and are rendered without an exponent.
func asString(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case int:
		return strconv.Itoa(x)
	default:
		return fmt.Sprintf("%v", x)
	}
}
