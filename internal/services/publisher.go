package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/benmeehan/device-locations/internal/models"
	"github.com/benmeehan/device-locations/pkg/mqtt"
	"github.com/rs/zerolog"
)

// LatestPublisher announces refreshed latest positions.
type LatestPublisher interface {
	PublishLatest(ctx context.Context, rec models.LatestRecord) error
}

// MQTTLatestPublisher publishes each LatestRecord as JSON to <topic>/<device_id>.
type MQTTLatestPublisher struct {
	topic   string
	qos     int
	timeout time.Duration

	mqttClient mqtt.MQTTClient
	logger     zerolog.Logger
}

// NewMQTTLatestPublisher creates a publisher rooted at topic.
func NewMQTTLatestPublisher(topic string, qos int, timeout time.Duration, mqttClient mqtt.MQTTClient, logger zerolog.Logger) *MQTTLatestPublisher {
	return &MQTTLatestPublisher{
		topic:      topic,
		qos:        qos,
		timeout:    timeout,
		mqttClient: mqttClient,
		logger:     logger,
	}
}

// PublishLatest serializes rec and waits for the broker to acknowledge it.
func (p *MQTTLatestPublisher) PublishLatest(ctx context.Context, rec models.LatestRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	payload, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to serialize latest record: %w", err)
	}

	topic := p.topic + "/" + strconv.FormatInt(rec.DeviceID, 10)
	token := p.mqttClient.Publish(topic, byte(p.qos), false, payload)
	if !token.WaitTimeout(p.timeout) {
		return fmt.Errorf("timed out publishing to %s", topic)
	}
	if err := token.Error(); err != nil {
		p.logger.Error().Err(err).Str("topic", topic).Msg("Failed to publish latest position")
		return err
	}

	p.logger.Debug().Str("topic", topic).Msg("Latest position published")
	return nil
}
