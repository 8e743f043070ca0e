package process

import (
	"github.com/iot-ganaderia/backend/internal/models"
	"github.com/iot-ganaderia/backend/internal/numeric"
)

// maxPlausibleDBA is the largest dynamic-body-acceleration magnitude this
// accelerometer class can produce; anything above is treated as noise and
// reset to zero.
const maxPlausibleDBA = 10.0

// Activity classification thresholds on VeDBA (strict greater-than).
const (
	vedbaHighThreshold   = 1.5
	vedbaMediumThreshold = 0.3
)

// AccelEngine classifies activity level from dynamic-body-acceleration
// magnitudes. It is a pure function wrapped in a type for symmetry with the
// other engines.
type AccelEngine struct{}

// NewAccelEngine creates the engine.
func NewAccelEngine() *AccelEngine {
	return &AccelEngine{}
}

// Process classifies one accelerometer summary. Absent or invalid magnitudes
// become 0.0; classification uses VeDBA only.
func (e *AccelEngine) Process(in models.AccelSummary) models.AccelResult {
	odba := sanitizeDBA(in.ODBA)
	vedba := sanitizeDBA(in.VeDBA)

	var actividad string
	switch {
	case vedba > vedbaHighThreshold:
		actividad = models.ActividadAlta
	case vedba > vedbaMediumThreshold:
		actividad = models.ActividadMedia
	default:
		actividad = models.ActividadBaja
	}

	return models.AccelResult{
		ODBA:      numeric.Round(odba, 3),
		VeDBA:     numeric.Round(vedba, 3),
		Actividad: actividad,
	}
}

func sanitizeDBA(v any) float64 {
	f, ok := numeric.Finite(v)
	if !ok {
		return 0.0
	}
	if f < -maxPlausibleDBA || f > maxPlausibleDBA {
		return 0.0
	}
	return f
}
