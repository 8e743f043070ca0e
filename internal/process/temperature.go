package process

import (
	"log/slog"

	"github.com/iot-ganaderia/backend/internal/models"
	"github.com/iot-ganaderia/backend/internal/numeric"
)

// Physical plausibility ranges. Readings outside are sensor noise, not
// animal data.
const (
	ambientMinC = -20.0
	ambientMaxC = 60.0
	bodyMinC    = 20.0
	bodyMaxC    = 45.0

	// defaultAmbientC substitutes a missing ambient reading for baseline
	// and heat-index purposes.
	defaultAmbientC = 25.0

	// deltaThresholdC is the deviation from baseline that flags possible
	// estrus (positive) or cooling (negative).
	deltaThresholdC = 1.5

	defaultHumidityPct = 65.0
)

// TemperatureEngine classifies thermal state from dorsal/ambient temperature
// and humidity. It degrades every invalid input to the "sin_lectura" branch
// and never returns an error past its boundary.
type TemperatureEngine struct {
	model  BaselinePredictor
	logger *slog.Logger
}

// NewTemperatureEngine creates the engine. model may be nil, in which case
// the deterministic linear fallback is always used.
func NewTemperatureEngine(model BaselinePredictor, logger *slog.Logger) *TemperatureEngine {
	if logger == nil {
		logger = slog.Default()
	}
	return &TemperatureEngine{model: model, logger: logger}
}

// Process classifies one reading. body and ambient are °C or nil; humidity is
// % or nil (defaulted to 65); hour is the local hour of day fed to the
// baseline predictor.
func (e *TemperatureEngine) Process(body, ambient, humidity *float64, hour float64) models.TemperatureResult {
	body = sanitizeTemp(body, bodyMinC, bodyMaxC)
	ambient = sanitizeTemp(ambient, ambientMinC, ambientMaxC)

	hum := defaultHumidityPct
	if humidity != nil {
		if h, ok := numeric.Finite(*humidity); ok {
			hum = numeric.Clamp(h, 0, 100)
		}
	}

	amb := defaultAmbientC
	if ambient != nil {
		amb = *ambient
	}

	baseline := e.baseline(amb, hum, hour)
	roundedBase := numeric.Round(baseline, 2)

	res := models.TemperatureResult{
		TempDorsal:    numeric.RoundPtr(body, 2),
		TempAmb:       numeric.RoundPtr(ambient, 2),
		Humedad:       numeric.Round(hum, 2),
		TempBase:      &roundedBase,
		IndiceTermico: numeric.Round(amb+0.1*hum, 2),
	}

	if body == nil {
		res.Estado = models.EstadoSinLectura
		return res
	}

	delta := *body - baseline
	res.DeltaTemp = numeric.RoundPtr(&delta, 2)
	if baseline != 0 {
		pct := 100 * delta / baseline
		res.DeltaPct = numeric.RoundPtr(&pct, 2)
	}

	switch {
	case delta >= deltaThresholdC:
		res.Estado = models.EstadoPosibleCelo
	case delta <= -deltaThresholdC:
		res.Estado = models.EstadoEnfriamiento
	default:
		res.Estado = models.EstadoNormal
	}
	return res
}

// baseline runs the injected predictor, falling back to the deterministic
// linear estimate when the model is unavailable or fails.
func (e *TemperatureEngine) baseline(ambient, humidity, hour float64) float64 {
	if e.model != nil {
		b, err := e.model.Predict(ambient, humidity, hour)
		if err == nil {
			return b
		}
		e.logger.Warn("baseline prediction failed, using linear fallback", "error", err)
	}
	return ambient + 0.02*humidity
}

// sanitizeTemp coerces a temperature reading, treating an exact zero as "no
// reading" (a known sensor dropout signature) and rejecting values outside
// the plausible range.
func sanitizeTemp(p *float64, lo, hi float64) *float64 {
	if p == nil {
		return nil
	}
	v, ok := numeric.Finite(*p)
	if !ok || v == 0 {
		return nil
	}
	if v < lo || v > hi {
		return nil
	}
	return &v
}
