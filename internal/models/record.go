package models

// Thermal states emitted by the temperature engine.
const (
	EstadoSinLectura   = "sin_lectura"
	EstadoPosibleCelo  = "posible_celo"
	EstadoEnfriamiento = "enfriamiento"
	EstadoNormal       = "normal"
	EstadoDesconocido  = "desconocido"

	// EstadoAlertaCelo is the composite alert: possible estrus confirmed
	// by high activity.
	EstadoAlertaCelo = "alerta_celo"
)

// Activity levels emitted by the accelerometer engine.
const (
	ActividadAlta  = "alta"
	ActividadMedia = "media"
	ActividadBaja  = "baja"
)

// TemperatureResult is the temperature engine's output. Pointer fields are
// null in JSON when the corresponding reading was absent or rejected.
type TemperatureResult struct {
	TempDorsal    *float64 `json:"temp_dorsal" msgpack:"temp_dorsal"`
	TempAmb       *float64 `json:"temp_amb" msgpack:"temp_amb"`
	Humedad       float64  `json:"humedad" msgpack:"humedad"`
	TempBase      *float64 `json:"temp_base" msgpack:"temp_base"`
	DeltaTemp     *float64 `json:"delta_temp" msgpack:"delta_temp"`
	DeltaPct      *float64 `json:"delta_pct" msgpack:"delta_pct"`
	IndiceTermico float64  `json:"indice_termico" msgpack:"indice_termico"`
	Estado        string   `json:"estado" msgpack:"estado"`
}

// AccelResult is the accelerometer engine's output.
type AccelResult struct {
	ODBA      float64 `json:"ODBA" msgpack:"ODBA"`
	VeDBA     float64 `json:"VeDBA" msgpack:"VeDBA"`
	Actividad string  `json:"actividad" msgpack:"actividad"`
}

// GpsResult is the GPS engine's output. Lat/Lon are the last valid point of
// the uplink, null when no valid fix was present.
type GpsResult struct {
	Lat       *float64 `json:"lat" msgpack:"lat"`
	Lon       *float64 `json:"lon" msgpack:"lon"`
	Distancia float64  `json:"distancia" msgpack:"distancia"`
	Velocidad float64  `json:"velocidad" msgpack:"velocidad"`
	Rectitud  float64  `json:"rectitud" msgpack:"rectitud"`
}

// Record is the flat outbound telemetry record handed to the publisher. The
// three engine groups are embedded so their disjoint keys flatten into one
// object; a key collision between groups is a schema bug, not a merge rule.
type Record struct {
	TimestampLocal string   `json:"timestamp_local" msgpack:"timestamp_local"`
	DevID          string   `json:"dev_id" msgpack:"dev_id"`
	CowID          string   `json:"cow_id,omitempty" msgpack:"cow_id,omitempty"`
	TsEpoch        *float64 `json:"ts_epoch" msgpack:"ts_epoch"`

	TemperatureResult
	AccelResult
	GpsResult

	GPSApprox bool `json:"gps_aproximado,omitempty" msgpack:"gps_aproximado,omitempty"`

	EstadoGeneral string `json:"estado_general" msgpack:"estado_general"`
}
