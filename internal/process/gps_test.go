package process

import (
	"testing"

	"github.com/iot-ganaderia/backend/internal/models"
)

func TestGPSSinglePoint(t *testing.T) {
	e := NewGPSEngine(nil)

	res := e.Process(models.GPSInput{Lat: 4.6097, Lon: -74.0817})
	if res.Lat == nil || *res.Lat != 4.6097 || res.Lon == nil || *res.Lon != -74.0817 {
		t.Fatalf("single point coordinates lost: %+v", res)
	}
	if res.Distancia != 0 || res.Velocidad != 0 || res.Rectitud != 1 {
		t.Errorf("single fix defines no path, got dist=%v speed=%v straight=%v",
			res.Distancia, res.Velocidad, res.Rectitud)
	}
}

func TestGPSInvalidSinglePoint(t *testing.T) {
	e := NewGPSEngine(nil)

	for _, in := range []models.GPSInput{
		{Lat: nil, Lon: nil},
		{Lat: 95.0, Lon: 10.0},
		{Lat: 10.0, Lon: 200.0},
		{Lat: 0.0, Lon: 0.0}, // no-fix sentinel
		{Lat: "not a number", Lon: 4.0},
	} {
		res := e.Process(in)
		if res.Lat != nil || res.Lon != nil {
			t.Errorf("invalid point %+v must yield absent coordinates", in)
		}
		if res.Distancia != 0 || res.Velocidad != 0 || res.Rectitud != 1 {
			t.Errorf("invalid point %+v must yield zero/one defaults, got %+v", in, res)
		}
	}
}

func TestGPSIdenticalPoints(t *testing.T) {
	e := NewGPSEngine(nil)

	res := e.Process(models.GPSInput{
		Lat:   []any{4.6, 4.6},
		Lon:   []any{-74.08, -74.08},
		Times: []any{0.0, 60.0},
	})
	if res.Distancia != 0 {
		t.Errorf("identical points: distance = %v, want 0", res.Distancia)
	}
	if res.Rectitud != 1 {
		t.Errorf("identical points: straightness = %v, want 1 (0/0 defined as 1)", res.Rectitud)
	}
}

func TestGPSStraightLine(t *testing.T) {
	e := NewGPSEngine(nil)

	// Collinear points along a meridian, 0.001° of latitude apart
	// (~111.2 m per step).
	res := e.Process(models.GPSInput{
		Lat:   []any{4.600, 4.601, 4.602},
		Lon:   []any{-74.08, -74.08, -74.08},
		Times: []any{0.0, 60.0, 120.0},
	})
	if res.Distancia < 220 || res.Distancia > 224 {
		t.Errorf("distance = %v, want ≈222.4", res.Distancia)
	}
	if res.Rectitud < 0.99 || res.Rectitud > 1.0 {
		t.Errorf("collinear straightness = %v, want ≈1", res.Rectitud)
	}
	// ~222.4 m over 120 s ≈ 1.85 m/s
	if res.Velocidad < 1.8 || res.Velocidad > 1.9 {
		t.Errorf("speed = %v, want ≈1.85", res.Velocidad)
	}
	if res.Lat == nil || *res.Lat != 4.602 {
		t.Errorf("last point latitude = %v, want 4.602", res.Lat)
	}
}

func TestGPSRoundTrip(t *testing.T) {
	e := NewGPSEngine(nil)

	res := e.Process(models.GPSInput{
		Lat:   []any{4.600, 4.601, 4.600},
		Lon:   []any{-74.08, -74.08, -74.08},
		Times: []any{0.0, 60.0, 120.0},
	})
	if res.Rectitud != 0 {
		t.Errorf("round trip straightness = %v, want 0", res.Rectitud)
	}
}

func TestGPSNoFixSentinelDiscarded(t *testing.T) {
	e := NewGPSEngine(nil)

	// The (0,0) sample in the middle is a no-lock sentinel and must not
	// contribute distance.
	res := e.Process(models.GPSInput{
		Lat:   []any{4.600, 0.0, 4.601},
		Lon:   []any{-74.08, 0.0, -74.08},
		Times: []any{0.0, 30.0, 60.0},
	})
	if res.Distancia < 110 || res.Distancia > 113 {
		t.Errorf("distance = %v, want ≈111.2 (sentinel discarded)", res.Distancia)
	}
}

func TestGPSTimeRegressionRepair(t *testing.T) {
	e := NewGPSEngine(nil)

	// Second point reports an earlier time; the backward scan clamps the
	// first down, so duration is 0 and speed stays 0 without dropping
	// either point.
	res := e.Process(models.GPSInput{
		Lat:   []any{4.600, 4.601},
		Lon:   []any{-74.08, -74.08},
		Times: []any{100.0, 50.0},
	})
	if res.Distancia < 110 || res.Distancia > 113 {
		t.Errorf("distance = %v, want ≈111.2", res.Distancia)
	}
	if res.Velocidad != 0 {
		t.Errorf("regressed times: speed = %v, want 0", res.Velocidad)
	}
}

func TestGPSMissingTimesForwardFill(t *testing.T) {
	e := NewGPSEngine(nil)

	res := e.Process(models.GPSInput{
		Lat:   []any{4.600, 4.601},
		Lon:   []any{-74.08, -74.08},
		Times: []any{nil, 100.0},
	})
	// First time forward-fills to 0, duration 100 s → ≈1.11 m/s.
	if res.Velocidad < 1.0 || res.Velocidad > 1.2 {
		t.Errorf("speed = %v, want ≈1.11", res.Velocidad)
	}
}

func TestGPSSyntheticIndexTimes(t *testing.T) {
	e := NewGPSEngine(nil)

	// No time parses anywhere: point index is the synthetic clock, so two
	// points ~111 m apart give 111 m/s, which the plausibility cap
	// resets to 0.
	res := e.Process(models.GPSInput{
		Lat:   []any{4.600, 4.601},
		Lon:   []any{-74.08, -74.08},
		Times: []any{"bogus", nil},
	})
	if res.Velocidad != 0 {
		t.Errorf("implausible mean speed must reset to 0, got %v", res.Velocidad)
	}
	if res.Distancia < 110 || res.Distancia > 113 {
		t.Errorf("distance = %v, want ≈111.2", res.Distancia)
	}
}

func TestGPSISOTimes(t *testing.T) {
	e := NewGPSEngine(nil)

	res := e.Process(models.GPSInput{
		Lat:   []any{4.600, 4.601},
		Lon:   []any{-74.08, -74.08},
		Times: []any{"2023-11-14T22:13:20Z", "2023-11-14T22:15:00Z"},
	})
	// 111.2 m over 100 s ≈ 1.11 m/s.
	if res.Velocidad < 1.0 || res.Velocidad > 1.2 {
		t.Errorf("ISO times: speed = %v, want ≈1.11", res.Velocidad)
	}
}

func TestGPSAllPointsInvalid(t *testing.T) {
	e := NewGPSEngine(nil)

	res := e.Process(models.GPSInput{
		Lat:   []any{0.0, 95.0, "x"},
		Lon:   []any{0.0, 10.0, 4.0},
		Times: []any{0.0, 1.0, 2.0},
	})
	if res.Lat != nil || res.Lon != nil || res.Distancia != 0 || res.Rectitud != 1 {
		t.Errorf("all-invalid trajectory must degrade to defaults, got %+v", res)
	}
}

func TestGPSMalformedStructure(t *testing.T) {
	e := NewGPSEngine(nil)

	// Mismatched shapes degrade, never panic past the boundary.
	res := e.Process(models.GPSInput{Lat: []any{4.6}, Lon: "oops"})
	if res.Lat != nil || res.Distancia != 0 {
		t.Errorf("malformed structure must degrade to defaults, got %+v", res)
	}
}
