package process

import (
	"time"

	"github.com/iot-ganaderia/backend/internal/models"
)

// Assemble merges the three engine outputs and the uplink identifiers into
// the flat outbound record and derives the composite alert flag.
func Assemble(up models.CanonicalUplink, temp models.TemperatureResult, accel models.AccelResult, gps models.GpsResult) models.Record {
	rec := models.Record{
		TimestampLocal:    up.ReceivedLocal.Format(time.RFC3339),
		DevID:             up.DeviceKey,
		CowID:             up.SubjectID,
		TsEpoch:           up.EventEpoch,
		TemperatureResult: temp,
		AccelResult:       accel,
		GpsResult:         gps,
		GPSApprox:         up.GPSApprox,
	}
	rec.EstadoGeneral = compositeState(temp.Estado, accel.Actividad)
	return rec
}

// compositeState raises the estrus alert only when the thermal signal is
// confirmed by high activity; otherwise the thermal state passes through
// verbatim.
func compositeState(estado, actividad string) string {
	if estado == models.EstadoPosibleCelo && actividad == models.ActividadAlta {
		return models.EstadoAlertaCelo
	}
	if estado == "" {
		return models.EstadoDesconocido
	}
	return estado
}
