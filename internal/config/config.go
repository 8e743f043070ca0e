// Package config resolves the service configuration from the environment,
// once at process start.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds every runtime setting. Resolved once in Load and read-only
// afterwards.
type Config struct {
	// Server
	Port        int
	BodyLimit   string
	LogRequests bool

	// Outbound dashboard
	ThingsBoardBase string
	DefaultToken    string
	TokensFile      string
	PublishTimeout  time.Duration

	// Processing
	LocalTZ   string
	ModelFile string

	// Optional MQTT ingress (TTN MQTT integration). Disabled when Broker
	// is empty.
	MQTTBroker   string
	MQTTTopic    string
	MQTTClientID string
	MQTTUsername string
	MQTTPassword string
}

// Load reads the environment.
func Load() (*Config, error) {
	cfg := &Config{
		Port:            5000,
		BodyLimit:       getEnv("BODY_LIMIT", "1M"),
		LogRequests:     getBool("LOG_REQUESTS", true),
		ThingsBoardBase: getEnv("THINGSBOARD_BASE", "https://thingsboard.cloud"),
		DefaultToken:    os.Getenv("THINGSBOARD_TOKEN"),
		TokensFile:      os.Getenv("DEVICE_TOKENS_FILE"),
		PublishTimeout:  time.Duration(getInt("PUBLISH_TIMEOUT_SECONDS", 5)) * time.Second,
		LocalTZ:         getEnv("LOCAL_TZ", "America/Bogota"),
		ModelFile:       os.Getenv("BASELINE_MODEL_FILE"),
		MQTTBroker:      os.Getenv("MQTT_BROKER"),
		MQTTTopic:       getEnv("MQTT_TOPIC", "v3/+/devices/+/up"),
		MQTTClientID:    getEnv("MQTT_CLIENT_ID", "iot-ganaderia-backend"),
		MQTTUsername:    os.Getenv("MQTT_USERNAME"),
		MQTTPassword:    os.Getenv("MQTT_PASSWORD"),
	}

	if port := os.Getenv("PORT"); port != "" {
		p, err := strconv.Atoi(port)
		if err != nil || p <= 0 || p > 65535 {
			return nil, fmt.Errorf("invalid PORT %q", port)
		}
		cfg.Port = p
	}
	return cfg, nil
}

// Addr returns the HTTP listen address.
func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.Port)
}

// MQTTEnabled reports whether the MQTT ingress should start.
func (c *Config) MQTTEnabled() bool {
	return c.MQTTBroker != ""
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func getBool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return b
}
