package transmission

import (
	"encoding/json"
	"fmt"

	"enbw-hass/internal/station"

	"github.com/sirupsen/logrus"
)

// Publisher is the slice of the MQTT client the transmitter needs:
// raw publishes plus the topic layout. *mqtt.Client satisfies it.
type Publisher interface {
	Publish(topic string, payload []byte, retained bool) error
	PublishAvailability(online bool) error
	IsConnected() bool
	GetDiscoveryTopic(prefix, component, entityID string) string
	GetStateTopic(entityID string) string
	GetAttributesTopic(entityID string) string
	GetAvailabilityTopic() string
}

// MQTTTransmitter publishes entity states to Home Assistant via MQTT
// discovery. Discovery configs are published once per entity; state and
// attribute payloads are skipped when unchanged since the last transmit.
type MQTTTransmitter struct {
	client          Publisher
	discoveryPrefix string
	logger          *logrus.Logger

	publishedDiscovery map[string]bool
	lastState          map[string]string
	lastAttributes     map[string]string
}

// HADiscoveryConfig represents Home Assistant MQTT discovery configuration.
type HADiscoveryConfig struct {
	Name                string   `json:"name"`
	UniqueID            string   `json:"unique_id"`
	StateTopic          string   `json:"state_topic"`
	JSONAttributesTopic string   `json:"json_attributes_topic,omitempty"`
	AvailabilityTopic   string   `json:"availability_topic"`
	Icon                string   `json:"icon,omitempty"`
	StateClass          string   `json:"state_class,omitempty"`
	Device              HADevice `json:"device"`
}

// HADevice represents the device information for Home Assistant.
type HADevice struct {
	Identifiers  []string `json:"identifiers"`
	Name         string   `json:"name"`
	Model        string   `json:"model"`
	Manufacturer string   `json:"manufacturer"`
}

// NewMQTTTransmitter creates a new MQTT transmitter.
func NewMQTTTransmitter(client Publisher, discoveryPrefix string, logger *logrus.Logger) *MQTTTransmitter {
	return &MQTTTransmitter{
		client:             client,
		discoveryPrefix:    discoveryPrefix,
		logger:             logger,
		publishedDiscovery: make(map[string]bool),
		lastState:          make(map[string]string),
		lastAttributes:     make(map[string]string),
	}
}

// IsConnected reports whether the underlying MQTT connection is up.
func (t *MQTTTransmitter) IsConnected() bool {
	return t.client.IsConnected()
}

// Transmit publishes discovery (once), state and attributes for every entity,
// then marks the device available. Individual publish failures abort the
// batch so the next transmit retries the whole set.
func (t *MQTTTransmitter) Transmit(device DeviceInfo, states []station.EntityState) error {
	haDevice := HADevice{
		Identifiers:  []string{device.UniqueID},
		Name:         device.Name,
		Model:        "Charge Station",
		Manufacturer: "EnBW Energie Baden-Württemberg",
	}

	for _, state := range states {
		if err := t.publishDiscovery(state, haDevice); err != nil {
			return err
		}
		if err := t.publishState(state); err != nil {
			return err
		}
	}

	if err := t.client.PublishAvailability(true); err != nil {
		return fmt.Errorf("failed to publish availability: %w", err)
	}

	return nil
}

// publishDiscovery publishes the discovery config for a single entity unless
// it was already announced.
func (t *MQTTTransmitter) publishDiscovery(state station.EntityState, device HADevice) error {
	if t.publishedDiscovery[state.EntityID] {
		return nil
	}

	config := HADiscoveryConfig{
		Name:                state.Name,
		UniqueID:            state.EntityID,
		StateTopic:          t.client.GetStateTopic(state.EntityID),
		JSONAttributesTopic: t.client.GetAttributesTopic(state.EntityID),
		AvailabilityTopic:   t.client.GetAvailabilityTopic(),
		Icon:                state.Icon,
		Device:              device,
	}
	if state.Component == station.ComponentSensor {
		config.StateClass = "measurement"
	}

	payload, err := json.Marshal(config)
	if err != nil {
		return fmt.Errorf("failed to marshal discovery config: %w", err)
	}

	topic := t.client.GetDiscoveryTopic(t.discoveryPrefix, state.Component, state.EntityID)
	if err := t.client.Publish(topic, payload, true); err != nil {
		return fmt.Errorf("failed to publish %s discovery config: %w", state.Name, err)
	}

	t.logger.WithFields(logrus.Fields{
		"entity_id": state.EntityID,
		"topic":     topic,
	}).Info("Published entity discovery config")

	t.publishedDiscovery[state.EntityID] = true
	return nil
}

// publishState publishes state and attributes, skipping whatever is unchanged
// since the previous transmit.
func (t *MQTTTransmitter) publishState(state station.EntityState) error {
	if t.lastState[state.EntityID] != state.State {
		topic := t.client.GetStateTopic(state.EntityID)
		if err := t.client.Publish(topic, []byte(state.State), true); err != nil {
			return fmt.Errorf("failed to publish %s state: %w", state.EntityID, err)
		}
		t.lastState[state.EntityID] = state.State
	}

	if len(state.Attributes) == 0 {
		return nil
	}
	attrs, err := json.Marshal(state.Attributes)
	if err != nil {
		return fmt.Errorf("failed to marshal %s attributes: %w", state.EntityID, err)
	}
	if t.lastAttributes[state.EntityID] != string(attrs) {
		topic := t.client.GetAttributesTopic(state.EntityID)
		if err := t.client.Publish(topic, attrs, true); err != nil {
			return fmt.Errorf("failed to publish %s attributes: %w", state.EntityID, err)
		}
		t.lastAttributes[state.EntityID] = string(attrs)
	}

	return nil
}
