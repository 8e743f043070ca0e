// Package ingest provides the optional MQTT ingress: the TTN MQTT
// integration delivers the same JSON envelopes as the webhook, so messages
// feed the same pipeline and publisher as the HTTP path.
package ingest

import (
	"encoding/json"
	"fmt"
	"log/slog"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/iot-ganaderia/backend/internal/process"
	"github.com/iot-ganaderia/backend/internal/publish"
)

// Subscriber consumes TTN uplinks from an MQTT broker.
type Subscriber struct {
	client    mqtt.Client
	topic     string
	pipeline  *process.Pipeline
	publisher *publish.Publisher
	logger    *slog.Logger
}

// Options configures the broker connection.
type Options struct {
	Broker   string
	ClientID string
	Topic    string
	Username string
	Password string
}

// NewSubscriber connects to the broker. The returned Subscriber is not yet
// subscribed; call Start.
func NewSubscriber(opts Options, pipeline *process.Pipeline, publisher *publish.Publisher, logger *slog.Logger) (*Subscriber, error) {
	if logger == nil {
		logger = slog.Default()
	}

	clientOpts := mqtt.NewClientOptions().
		AddBroker(opts.Broker).
		SetClientID(opts.ClientID).
		SetAutoReconnect(true)
	if opts.Username != "" {
		clientOpts.SetUsername(opts.Username)
		clientOpts.SetPassword(opts.Password)
	}

	client := mqtt.NewClient(clientOpts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return nil, fmt.Errorf("failed to connect to MQTT broker: %w", token.Error())
	}

	return &Subscriber{
		client:    client,
		topic:     opts.Topic,
		pipeline:  pipeline,
		publisher: publisher,
		logger:    logger,
	}, nil
}

// Start subscribes to the uplink topic.
func (s *Subscriber) Start() error {
	if token := s.client.Subscribe(s.topic, 1, s.handleMessage); token.Wait() && token.Error() != nil {
		return fmt.Errorf("failed to subscribe to %s: %w", s.topic, token.Error())
	}
	s.logger.Info("MQTT ingress subscribed", "topic", s.topic)
	return nil
}

// handleMessage runs one uplink through the pipeline. Malformed messages are
// logged and dropped; this loop must never die on bad input.
func (s *Subscriber) handleMessage(_ mqtt.Client, msg mqtt.Message) {
	var body map[string]any
	if err := json.Unmarshal(msg.Payload(), &body); err != nil {
		s.logger.Warn("dropping malformed MQTT uplink", "topic", msg.Topic(), "error", err)
		return
	}

	rec := s.pipeline.Handle(body)

	token, err := s.publisher.TokenFor(rec.DevID)
	if err != nil {
		s.logger.Warn("MQTT uplink rejected", "topic", msg.Topic(), "dev_id", rec.DevID, "error", err)
		return
	}

	s.logger.Info("MQTT uplink processed", "dev_id", rec.DevID, "estado_general", rec.EstadoGeneral)
	s.publisher.PublishAsync(token, rec)
}

// Close disconnects from the broker, allowing in-flight handlers to finish.
func (s *Subscriber) Close() {
	s.client.Disconnect(250)
}
