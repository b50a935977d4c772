// Package mqtt publishes climate readings and daemon lifecycle events.
package mqtt

import (
	"encoding/json"
	"time"

	"github.com/sweeney/dht-sensor/internal/logic"
)

// Topic is the MQTT topic for readings and sensor health events.
const Topic = "climate/dht/sensor/readings"

// TopicSystem is the MQTT topic for system lifecycle events.
const TopicSystem = "climate/dht/sensor/system"

// Publisher publishes events to MQTT.
type Publisher interface {
	// Publish sends a reading or sensor health event to the broker.
	// Returns error if publishing fails (should not crash the process).
	Publish(event logic.Event) error

	// PublishSystem sends a system lifecycle event to the broker.
	PublishSystem(event SystemEvent) error

	// Close disconnects from the broker.
	Close() error
}

// ConnectionStatus reports whether the MQTT connection is active.
type ConnectionStatus interface {
	IsConnected() bool
}

// SystemEvent represents a system lifecycle event (e.g., startup, shutdown, heartbeat).
type SystemEvent struct {
	Timestamp  time.Time
	Event      string // e.g., "STARTUP", "SHUTDOWN", "HEARTBEAT"
	Reason     string // e.g., "SIGTERM", "SIGINT" (shutdown only)
	RawPayload []byte // pre-formatted JSON; returned as-is by FormatSystemPayload
	Retained   bool
}

// Payload represents the MQTT message payload structure.
type Payload struct {
	Reading ReadingPayload `json:"reading"`
}

// ReadingPayload contains the event details.
type ReadingPayload struct {
	Timestamp   string   `json:"timestamp"`
	Event       string   `json:"event"`
	Temperature *float32 `json:"temperature_c,omitempty"`
	Humidity    *float32 `json:"humidity_pct,omitempty"`
	Outcome     string   `json:"outcome"`
	ErrorKind   string   `json:"error_kind,omitempty"`
	Error       string   `json:"error,omitempty"`
}

// FormatPayload creates the JSON payload for an event. SENSOR_ERROR events
// carry no values.
func FormatPayload(event logic.Event) ([]byte, error) {
	p := ReadingPayload{
		Timestamp: event.Timestamp.UTC().Format(time.RFC3339),
		Event:     string(event.Type),
		Outcome:   string(event.Outcome),
		ErrorKind: event.ErrKind,
		Error:     event.Err,
	}
	if event.Type != logic.EventSensorError {
		temp, hum := event.Temperature, event.Humidity
		p.Temperature = &temp
		p.Humidity = &hum
	}
	return json.Marshal(Payload{Reading: p})
}

// SystemPayload is the payload for simple system events (LWT, RECONNECTED)
// that don't carry a full status snapshot.
type SystemPayload struct {
	System SystemPayloadInner `json:"system"`
}

// SystemPayloadInner contains the system event details.
type SystemPayloadInner struct {
	Timestamp string `json:"timestamp"`
	Event     string `json:"event"`
	Reason    string `json:"reason,omitempty"`
}

// FormatSystemPayload creates the JSON payload for a system event.
// If event.RawPayload is set, it is returned directly (used for full status snapshots).
func FormatSystemPayload(event SystemEvent) ([]byte, error) {
	if event.RawPayload != nil {
		return event.RawPayload, nil
	}

	payload := SystemPayload{
		System: SystemPayloadInner{
			Timestamp: event.Timestamp.UTC().Format(time.RFC3339),
			Event:     event.Event,
			Reason:    event.Reason,
		},
	}
	return json.Marshal(payload)
}
