// Package process holds the derived-metrics engines: temperature state,
// accelerometer activity and GPS trajectory, plus the pipeline that runs one
// uplink through all three and assembles the outbound record.
package process

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// BaselinePredictor estimates the expected dorsal temperature for the given
// ambient conditions. Implementations are loaded once at startup and must be
// safe for concurrent reads; the engines never mutate them.
type BaselinePredictor interface {
	Predict(ambient, humidity, hour float64) (float64, error)
}

// LinearBaseline is the default predictor: a linear model over ambient
// temperature, relative humidity and hour of day. The default coefficients
// reproduce the relationship the original regression training was seeded
// with.
type LinearBaseline struct {
	Intercept float64 `yaml:"intercept"`
	Ambient   float64 `yaml:"ambient"`
	Humidity  float64 `yaml:"humidity"`
	Hour      float64 `yaml:"hour"`
}

// DefaultBaseline returns the stock coefficient set.
func DefaultBaseline() *LinearBaseline {
	return &LinearBaseline{Intercept: 34.0, Ambient: 0.1, Humidity: 0.02, Hour: 0.05}
}

// LoadBaseline reads predictor coefficients from a YAML file.
func LoadBaseline(path string) (*LinearBaseline, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read baseline model: %w", err)
	}
	m := DefaultBaseline()
	if err := yaml.Unmarshal(data, m); err != nil {
		return nil, fmt.Errorf("failed to parse baseline model: %w", err)
	}
	return m, nil
}

// Predict implements BaselinePredictor.
func (m *LinearBaseline) Predict(ambient, humidity, hour float64) (float64, error) {
	return m.Intercept + m.Ambient*ambient + m.Humidity*humidity + m.Hour*hour, nil
}
