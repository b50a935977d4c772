// Package logic contains pure business logic for deciding what to report about
// a climate sensor. It does no I/O of its own (no GPIO, MQTT, OS, or
// time.Sleep); sensors are reached through the Reader interface and time is
// always injectable via time.Time parameters.
package logic

import "time"

// Outcome mirrors how the driver satisfied a read.
type Outcome string

const (
	OutcomeFresh    Outcome = "FRESH"
	OutcomeCached   Outcome = "CACHED"
	OutcomeFallback Outcome = "FALLBACK"
	OutcomeFailed   Outcome = "FAILED"
)

// EventType identifies an event to be published.
type EventType string

const (
	EventReading         EventType = "READING"
	EventSensorError     EventType = "SENSOR_ERROR"
	EventSensorRecovered EventType = "SENSOR_RECOVERED"
)

// Sample is the result of one read of the sensor.
type Sample struct {
	Time        time.Time
	Temperature float32 // °C
	Humidity    float32 // %RH
	Outcome     Outcome
	ErrKind     string // set when Outcome is FAILED, e.g. "TIMEOUT"
	Err         string
}

// Event represents something to be published.
type Event struct {
	Timestamp   time.Time
	Type        EventType
	Temperature float32
	Humidity    float32
	Outcome     Outcome
	ErrKind     string
	Err         string
}

// Thresholds are the minimum changes that cause a new READING event.
// Zero publishes every fresh reading.
type Thresholds struct {
	Temperature float32
	Humidity    float32
}

// OutcomeCounts tracks how reads were satisfied since startup.
type OutcomeCounts struct {
	Fresh    int
	Cached   int
	Fallback int
	Failed   int
}

// HeartbeatData contains information for a heartbeat event.
type HeartbeatData struct {
	Timestamp time.Time
	Uptime    time.Duration
	Counts    OutcomeCounts
}
