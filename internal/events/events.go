// Package events publishes fuel record changes to MQTT.
package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/sirupsen/logrus"
	"github.com/ukydev/fuel-tracker/internal/models"
)

// Actions carried by a models.FuelRecordEvent.
const (
	ActionCreated = "created"
	ActionUpdated = "updated"
	ActionDeleted = "deleted"
)

const publishTimeout = 5 * time.Second

// Publisher delivers change events.
type Publisher interface {
	Publish(ctx context.Context, event models.FuelRecordEvent) error
	Close()
}

// Topic is the MQTT topic of a vehicle's fuel record events.
func Topic(vehicleID string) string {
	return fmt.Sprintf("fuel-tracker/vehicles/%s/fuel-records", vehicleID)
}

// mqttPublisher is the subset of mqtt.Client used here.
type mqttPublisher interface {
	Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token
	Disconnect(quiesce uint)
}

// MQTTPublisher publishes events with QoS 1.
type MQTTPublisher struct {
	client mqttPublisher
	log    logrus.FieldLogger
}

// NewMQTTPublisher connects to broker, e.g. "tcp://localhost:1883".
func NewMQTTPublisher(broker, clientID string, log logrus.FieldLogger) (*MQTTPublisher, error) {
	if log == nil {
		log = logrus.StandardLogger()
	}
	opts := mqtt.NewClientOptions().
		AddBroker(broker).
		SetClientID(clientID).
		SetAutoReconnect(true).
		SetConnectTimeout(10 * time.Second).
		SetConnectionLostHandler(func(_ mqtt.Client, err error) {
			log.WithError(err).Warn("MQTT connection lost")
		})

	client := mqtt.NewClient(opts)
	token := client.Connect()
	if !token.WaitTimeout(10 * time.Second) {
		return nil, fmt.Errorf("mqtt connect to %s timed out", broker)
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("mqtt connect to %s: %w", broker, err)
	}
	log.WithField("broker", broker).Info("Connected to MQTT broker")
	return newMQTTPublisher(client, log), nil
}

func newMQTTPublisher(client mqttPublisher, log logrus.FieldLogger) *MQTTPublisher {
	return &MQTTPublisher{client: client, log: log}
}

// Publish sends event to its vehicle topic and waits for the broker's ack,
// the publish timeout or ctx, whichever comes first.
func (p *MQTTPublisher) Publish(ctx context.Context, event models.FuelRecordEvent) error {
	if event.VehicleID == "" {
		return errors.New("event has no vehicle id")
	}
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	token := p.client.Publish(Topic(event.VehicleID), 1, false, payload)
	timer := time.NewTimer(publishTimeout)
	defer timer.Stop()
	select {
	case <-token.Done():
		if err := token.Error(); err != nil {
			return fmt.Errorf("mqtt publish: %w", err)
		}
	case <-timer.C:
		return errors.New("mqtt publish timed out")
	case <-ctx.Done():
		return ctx.Err()
	}

	p.log.WithFields(logrus.Fields{
		"vehicle_id": event.VehicleID,
		"record_id":  event.RecordID,
		"action":     event.Action,
	}).Debug("Published fuel record event")
	return nil
}

// Close disconnects, allowing in-flight messages a short grace period.
func (p *MQTTPublisher) Close() {
	p.client.Disconnect(250)
}

// NopPublisher drops every event. It is used when no broker is configured.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, models.FuelRecordEvent) error { return nil }
func (NopPublisher) Close()                                                {}
