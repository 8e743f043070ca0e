// Package publish delivers finished telemetry records to a ThingsBoard
// dashboard backend, best-effort and decoupled from the inbound
// request/response cycle.
package publish

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/iot-ganaderia/backend/internal/models"
)

// ErrNoToken means no publish credentials exist for a device: neither a
// per-device mapping nor a global default token. The caller must reject the
// uplink rather than silently dropping its telemetry.
var ErrNoToken = errors.New("no publish token configured for device")

// DefaultTimeout bounds one delivery attempt.
const DefaultTimeout = 5 * time.Second

// TokenTable maps device keys to ThingsBoard device tokens. Loaded once at
// startup and read-only afterwards.
type TokenTable struct {
	// Default is the global token used when a device has no entry.
	Default string `yaml:"default"`
	// Devices maps device key to its own token (multi-tenant setups).
	Devices map[string]string `yaml:"devices"`
}

// LoadTokenTable reads a device-token YAML file.
func LoadTokenTable(path string) (TokenTable, error) {
	var t TokenTable
	data, err := os.ReadFile(path)
	if err != nil {
		return t, fmt.Errorf("failed to read token table: %w", err)
	}
	if err := yaml.Unmarshal(data, &t); err != nil {
		return t, fmt.Errorf("failed to parse token table: %w", err)
	}
	return t, nil
}

// TokenFor resolves the publish token for a device key.
func (t TokenTable) TokenFor(deviceKey string) (string, error) {
	if tok, ok := t.Devices[deviceKey]; ok && tok != "" {
		return tok, nil
	}
	if t.Default != "" {
		return t.Default, nil
	}
	return "", fmt.Errorf("%w: %q", ErrNoToken, deviceKey)
}

// Publisher POSTs records to {base}/api/v1/{token}/telemetry.
type Publisher struct {
	base   string
	tokens TokenTable
	client *http.Client
	logger *slog.Logger
}

// New creates a Publisher. timeout <= 0 selects DefaultTimeout.
func New(base string, tokens TokenTable, timeout time.Duration, logger *slog.Logger) *Publisher {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Publisher{
		base:   base,
		tokens: tokens,
		client: &http.Client{Timeout: timeout},
		logger: logger,
	}
}

// BaseURL returns the configured dashboard base URL.
func (p *Publisher) BaseURL() string { return p.base }

// TokenFor exposes token resolution so the ingest boundary can reject
// uplinks with no credentials before processing completes.
func (p *Publisher) TokenFor(deviceKey string) (string, error) {
	return p.tokens.TokenFor(deviceKey)
}

// Publish delivers one record synchronously.
func (p *Publisher) Publish(token string, rec models.Record) error {
	body, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to encode record: %w", err)
	}

	url := fmt.Sprintf("%s/api/v1/%s/telemetry", p.base, token)
	resp, err := p.client.Post(url, "application/json", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to deliver telemetry: %w", err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("dashboard rejected telemetry: status %d", resp.StatusCode)
	}
	return nil
}

// PublishAsync delivers one record in a detached goroutine. Failures are
// logged and never affect the response already computed for the inbound
// request.
func (p *Publisher) PublishAsync(token string, rec models.Record) {
	go func() {
		if err := p.Publish(token, rec); err != nil {
			p.logger.Warn("telemetry publish failed", "dev_id", rec.DevID, "error", err)
			return
		}
		p.logger.Debug("telemetry published", "dev_id", rec.DevID)
	}()
}
