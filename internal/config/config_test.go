package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Port != 5000 {
		t.Errorf("Port = %d, want 5000", cfg.Port)
	}
	if cfg.ThingsBoardBase != "https://thingsboard.cloud" {
		t.Errorf("ThingsBoardBase = %q", cfg.ThingsBoardBase)
	}
	if cfg.LocalTZ != "America/Bogota" {
		t.Errorf("LocalTZ = %q", cfg.LocalTZ)
	}
	if cfg.PublishTimeout != 5*time.Second {
		t.Errorf("PublishTimeout = %v, want 5s", cfg.PublishTimeout)
	}
	if cfg.MQTTEnabled() {
		t.Error("MQTT must be disabled without MQTT_BROKER")
	}
	if cfg.Addr() != ":5000" {
		t.Errorf("Addr = %q", cfg.Addr())
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("PORT", "8080")
	t.Setenv("THINGSBOARD_BASE", "http://tb.local")
	t.Setenv("THINGSBOARD_TOKEN", "tok-1")
	t.Setenv("PUBLISH_TIMEOUT_SECONDS", "2")
	t.Setenv("MQTT_BROKER", "tcp://eu1.cloud.thethings.network:1883")

	cfg, err := Load()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Port != 8080 {
		t.Errorf("Port = %d, want 8080", cfg.Port)
	}
	if cfg.ThingsBoardBase != "http://tb.local" || cfg.DefaultToken != "tok-1" {
		t.Errorf("dashboard config not applied: %+v", cfg)
	}
	if cfg.PublishTimeout != 2*time.Second {
		t.Errorf("PublishTimeout = %v, want 2s", cfg.PublishTimeout)
	}
	if !cfg.MQTTEnabled() {
		t.Error("MQTT must be enabled with MQTT_BROKER set")
	}
	if cfg.MQTTTopic != "v3/+/devices/+/up" {
		t.Errorf("MQTTTopic = %q", cfg.MQTTTopic)
	}
}

func TestLoadInvalidPort(t *testing.T) {
	t.Setenv("PORT", "nope")
	if _, err := Load(); err == nil {
		t.Error("invalid PORT must error")
	}
}
