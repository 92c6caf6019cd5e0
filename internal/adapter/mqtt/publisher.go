package mqtt

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"

	"github.com/couchcryptid/aqi-monitor/internal/config"
	"github.com/couchcryptid/aqi-monitor/internal/domain"
)

const (
	qosAtMostOnce  byte = 0
	connectTimeout      = 10 * time.Second
	disconnectWait uint = 250 // ms
)

// client is the subset of paho.Client used by Publisher.
type client interface {
	Publish(topic string, qos byte, retained bool, payload interface{}) paho.Token
	Disconnect(quiesce uint)
}

// Publisher sends readings to an MQTT topic.
// It implements pipeline.Loader.
type Publisher struct {
	client client
	topic  string
	logger *slog.Logger
}

// Connect dials the configured broker and returns a Publisher for the readings topic.
// The client reconnects on its own after the initial connection succeeds.
func Connect(cfg *config.Config, logger *slog.Logger) (*Publisher, error) {
	opts := paho.NewClientOptions().
		AddBroker(cfg.MQTTBrokerURL).
		SetClientID(cfg.MQTTClientID).
		SetAutoReconnect(true).
		SetConnectTimeout(connectTimeout).
		SetOnConnectHandler(func(paho.Client) {
			logger.Info("mqtt connected", "broker", cfg.MQTTBrokerURL)
		}).
		SetConnectionLostHandler(func(_ paho.Client, err error) {
			logger.Warn("mqtt connection lost", "error", err)
		})

	c := paho.NewClient(opts)
	token := c.Connect()
	if !token.WaitTimeout(connectTimeout) {
		return nil, fmt.Errorf("mqtt connect to %s: timed out", cfg.MQTTBrokerURL)
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("mqtt connect to %s: %w", cfg.MQTTBrokerURL, err)
	}
	return NewPublisher(c, cfg.MQTTTopic, logger), nil
}

// NewPublisher wraps an already-connected client.
func NewPublisher(c client, topic string, logger *slog.Logger) *Publisher {
	return &Publisher{client: c, topic: topic, logger: logger}
}

// Load publishes the reading as JSON, retained so new subscribers receive the
// latest reading immediately.
func (p *Publisher) Load(ctx context.Context, reading domain.Reading) error {
	msg, err := domain.SerializeReading(reading)
	if err != nil {
		return err
	}

	token := p.client.Publish(p.topic, qosAtMostOnce, true, msg.Value)
	select {
	case <-token.Done():
	case <-ctx.Done():
		return ctx.Err()
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("mqtt publish to %s: %w", p.topic, err)
	}

	p.logger.Debug("reading published", "topic", p.topic, "reading_id", reading.ID)
	return nil
}

// Close disconnects from the broker.
func (p *Publisher) Close() error {
	p.client.Disconnect(disconnectWait)
	return nil
}
