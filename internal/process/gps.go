package process

import (
	"log/slog"
	"math"

	"github.com/relvacode/iso8601"

	"github.com/iot-ganaderia/backend/internal/models"
	"github.com/iot-ganaderia/backend/internal/numeric"
)

const (
	// earthRadiusM is the mean Earth radius used for great-circle math.
	earthRadiusM = 6371000.0

	// maxPlausibleSpeedMS is above any plausible cattle movement (~72
	// km/h); mean speeds beyond it are discarded as artifacts.
	maxPlausibleSpeedMS = 20.0

	// noFixEpsilon: a point with both coordinates this close to zero is
	// the receiver's no-satellite-lock sentinel, not a real position.
	noFixEpsilon = 1e-9
)

// GPSEngine computes distance, mean speed and path straightness from one or
// many location samples. Malformed structure degrades to the all-absent
// default response; the engine never propagates a failure to its caller.
type GPSEngine struct {
	logger *slog.Logger
}

// NewGPSEngine creates the engine.
func NewGPSEngine(logger *slog.Logger) *GPSEngine {
	if logger == nil {
		logger = slog.Default()
	}
	return &GPSEngine{logger: logger}
}

// Process handles a single fix or an in-uplink trajectory.
func (e *GPSEngine) Process(in models.GPSInput) (res models.GpsResult) {
	defer func() {
		if r := recover(); r != nil {
			e.logger.Error("gps computation failed, degrading to empty result", "panic", r)
			res = emptyGpsResult()
		}
	}()

	latList, latIsList := in.Lat.([]any)
	lonList, lonIsList := in.Lon.([]any)
	if latIsList || lonIsList {
		return e.processTrack(latList, lonList, in.Times)
	}

	lat, okLat := numeric.Finite(in.Lat)
	lon, okLon := numeric.Finite(in.Lon)
	if !okLat || !okLon || !validPoint(lat, lon) {
		return emptyGpsResult()
	}
	// A single fix defines no path.
	return models.GpsResult{Lat: &lat, Lon: &lon, Distancia: 0, Velocidad: 0, Rectitud: 1}
}

type trackPoint struct {
	lat, lon float64
	time     float64
	hasTime  bool
}

func (e *GPSEngine) processTrack(lats, lons, times []any) models.GpsResult {
	n := len(lats)
	if len(lons) < n {
		n = len(lons)
	}

	points := make([]trackPoint, 0, n)
	for i := 0; i < n; i++ {
		lat, okLat := numeric.Finite(lats[i])
		lon, okLon := numeric.Finite(lons[i])
		if !okLat || !okLon || !validPoint(lat, lon) {
			continue
		}
		p := trackPoint{lat: lat, lon: lon}
		if i < len(times) {
			p.time, p.hasTime = parseTimeValue(times[i])
		}
		points = append(points, p)
	}

	if len(points) == 0 {
		return emptyGpsResult()
	}

	repairTimes(points)

	var distance float64
	for i := 1; i < len(points); i++ {
		distance += haversine(points[i-1].lat, points[i-1].lon, points[i].lat, points[i].lon)
	}

	first, last := points[0], points[len(points)-1]

	duration := last.time - first.time
	if duration < 0 {
		duration = 0
	}
	var speed float64
	if duration > 0 {
		speed = distance / duration
	}
	if speed > maxPlausibleSpeedMS {
		speed = 0
	}

	straightness := 1.0
	if distance > 0 {
		net := haversine(first.lat, first.lon, last.lat, last.lon)
		straightness = numeric.Clamp(net/distance, 0, 1)
	}

	return models.GpsResult{
		Lat:       &last.lat,
		Lon:       &last.lon,
		Distancia: numeric.Round(distance, 2),
		Velocidad: numeric.Round(speed, 2),
		Rectitud:  numeric.Round(straightness, 2),
	}
}

// repairTimes guarantees a non-decreasing time sequence without discarding
// points. When no point carries a parseable time, the point index stands in
// as synthetic monotonic time. Otherwise missing times are forward-filled
// from the previous point (0 for the first), then a backward scan clamps any
// time that exceeds its successor down to the successor's value.
func repairTimes(points []trackPoint) {
	anyTime := false
	for _, p := range points {
		if p.hasTime {
			anyTime = true
			break
		}
	}

	if !anyTime {
		for i := range points {
			points[i].time = float64(i)
		}
		return
	}

	for i := range points {
		if !points[i].hasTime {
			if i == 0 {
				points[i].time = 0
			} else {
				points[i].time = points[i-1].time
			}
		}
	}
	for i := len(points) - 2; i >= 0; i-- {
		if points[i].time > points[i+1].time {
			points[i].time = points[i+1].time
		}
	}
}

// parseTimeValue accepts a numeric epoch (seconds) or an ISO-8601 string.
func parseTimeValue(v any) (float64, bool) {
	if f, ok := numeric.Finite(v); ok {
		return f, true
	}
	s, isString := v.(string)
	if !isString {
		return 0, false
	}
	t, err := iso8601.ParseString(s)
	if err != nil {
		return 0, false
	}
	return float64(t.UnixMilli()) / 1000.0, true
}

func validPoint(lat, lon float64) bool {
	if math.Abs(lat) < noFixEpsilon && math.Abs(lon) < noFixEpsilon {
		return false
	}
	return lat >= -90 && lat <= 90 && lon >= -180 && lon <= 180
}

// haversine returns the great-circle distance in meters between two points.
func haversine(lat1, lon1, lat2, lon2 float64) float64 {
	rlat1 := lat1 * math.Pi / 180
	rlat2 := lat2 * math.Pi / 180
	dlat := rlat2 - rlat1
	dlon := (lon2 - lon1) * math.Pi / 180

	a := math.Sin(dlat/2)*math.Sin(dlat/2) +
		math.Cos(rlat1)*math.Cos(rlat2)*math.Sin(dlon/2)*math.Sin(dlon/2)
	return 2 * earthRadiusM * math.Asin(math.Sqrt(a))
}

func emptyGpsResult() models.GpsResult {
	return models.GpsResult{Distancia: 0, Velocidad: 0, Rectitud: 1}
}
