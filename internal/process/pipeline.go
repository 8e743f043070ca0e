package process

import (
	"log/slog"
	"time"

	"github.com/iot-ganaderia/backend/internal/models"
	"github.com/iot-ganaderia/backend/internal/normalize"
)

// Pipeline runs one raw uplink body through normalization, the three engines
// and the assembler. It is the single processing entry point shared by the
// HTTP and MQTT ingress paths. All members are read-only after construction,
// so concurrent uplinks may interleave freely.
type Pipeline struct {
	norm  *normalize.Normalizer
	temp  *TemperatureEngine
	accel *AccelEngine
	gps   *GPSEngine
}

// NewPipeline wires the engines. model may be nil (linear fallback only).
func NewPipeline(loc *time.Location, model BaselinePredictor, logger *slog.Logger) *Pipeline {
	return &Pipeline{
		norm:  normalize.New(loc, logger),
		temp:  NewTemperatureEngine(model, logger),
		accel: NewAccelEngine(),
		gps:   NewGPSEngine(logger),
	}
}

// Handle processes one uplink body into an outbound record. The engines are
// independent and share no state, failure of one degrades only its own field
// group.
func (p *Pipeline) Handle(body map[string]any) models.Record {
	up := p.norm.Normalize(body)

	hour := float64(up.ReceivedLocal.Hour())
	temp := p.temp.Process(up.BodyTemp, up.AmbientTemp, &up.Humidity, hour)
	accel := p.accel.Process(up.Accel)
	gps := p.gps.Process(up.GPS)

	return Assemble(up, temp, accel, gps)
}
