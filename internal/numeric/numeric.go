// Package numeric provides defensive coercion of raw sensor values. Field
// LoRaWAN tags routinely deliver partial, zero, or corrupted frames, so every
// numeric field in the pipeline passes through here before it is trusted.
package numeric

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// Finite coerces v to a finite float64. It accepts the scalar types a decoded
// JSON body can produce (float64, json.Number, numeric strings) plus the
// integer and float families for values built in code. It reports false for
// nil, NaN, ±Inf and anything non-numeric.
func Finite(v any) (float64, bool) {
	var f float64
	switch x := v.(type) {
	case nil:
		return 0, false
	case float64:
		f = x
	case float32:
		f = float64(x)
	case int:
		f = float64(x)
	case int8:
		f = float64(x)
	case int16:
		f = float64(x)
	case int32:
		f = float64(x)
	case int64:
		f = float64(x)
	case uint:
		f = float64(x)
	case uint8:
		f = float64(x)
	case uint16:
		f = float64(x)
	case uint32:
		f = float64(x)
	case uint64:
		f = float64(x)
	case json.Number:
		parsed, err := x.Float64()
		if err != nil {
			return 0, false
		}
		f = parsed
	case string:
		s := strings.TrimSpace(x)
		if s == "" {
			return 0, false
		}
		parsed, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, false
		}
		f = parsed
	default:
		return 0, false
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// FinitePtr is Finite returning a pointer, nil for "no value".
func FinitePtr(v any) *float64 {
	f, ok := Finite(v)
	if !ok {
		return nil
	}
	return &f
}

// Clamp constrains x to [lo, hi].
func Clamp(x, lo, hi float64) float64 {
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}

// Round rounds x half-away-from-zero to the given number of decimals. Output
// fields in telemetry records carry 2 decimals (3 for accelerometer
// magnitudes).
func Round(x float64, decimals int) float64 {
	pow := math.Pow(10, float64(decimals))
	return math.Round(x*pow) / pow
}

// RoundPtr rounds through a pointer, passing nil through.
func RoundPtr(p *float64, decimals int) *float64 {
	if p == nil {
		return nil
	}
	r := Round(*p, decimals)
	return &r
}
