// Package status provides a thread-safe status tracker for the dht-sensor daemon.
// It is read by the HTTP handlers and the heartbeat publisher.
package status

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/sweeney/dht-sensor/internal/logic"
)

// NetworkInfo contains network state as reported by the host.
type NetworkInfo struct {
	Type       string
	IP         string
	Status     string
	Gateway    string
	WifiStatus string
	SSID       string
}

// Config contains daemon configuration for display.
type Config struct {
	Family      string
	Engine      string
	Chip        string
	Pin         int
	PollMs      int64
	HeartbeatMs int64
	Broker      string
	HTTPPort    string
	WSBroker    string // websocket broker URL for browser MQTT (empty = disabled)
}

// Snapshot is a point-in-time view of daemon state.
// It is a value type, safe to use after the lock is released.
type Snapshot struct {
	InstanceID    string
	HasReading    bool
	Temperature   float32 // °C, valid when HasReading
	Humidity      float32 // %RH, valid when HasReading
	ReadAt        time.Time
	LastOutcome   logic.Outcome
	LastErrorKind string
	LastError     string
	Counts        logic.OutcomeCounts
	StartTime     time.Time
	Now           time.Time
	MQTTConnected bool
	Network       *NetworkInfo
	Config        Config
}

// Uptime returns the duration since the daemon started.
func (s Snapshot) Uptime() time.Duration {
	return s.Now.Sub(s.StartTime)
}

// ReadingAge returns how long ago the reading was acquired from the sensor.
// Cached and fallback reads do not make a reading younger.
func (s Snapshot) ReadingAge() time.Duration {
	if !s.HasReading {
		return 0
	}
	return s.Now.Sub(s.ReadAt)
}

// Stale reports whether the reading on offer is older than the daemon should
// be serving: the last read fell back to it, or no fresh acquisition happened
// within two poll intervals.
func (s Snapshot) Stale() bool {
	if !s.HasReading {
		return false
	}
	if s.LastOutcome == logic.OutcomeFallback {
		return true
	}
	poll := time.Duration(s.Config.PollMs) * time.Millisecond
	return poll > 0 && s.ReadingAge() > 2*poll
}

// Tracker holds mutable daemon state behind an RWMutex.
type Tracker struct {
	mu   sync.RWMutex
	snap Snapshot
}

// NewTracker creates a Tracker with the given start time and config.
func NewTracker(startTime time.Time, cfg Config) *Tracker {
	return &Tracker{
		snap: Snapshot{
			InstanceID: uuid.NewString(),
			StartTime:  startTime,
			Config:     cfg,
		},
	}
}

// Update records the outcome of one sensor read and the running counters.
// Called from runLoop on every tick. Failed samples keep the previous values.
func (t *Tracker) Update(s logic.Sample, counts logic.OutcomeCounts) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.snap.LastOutcome = s.Outcome
	t.snap.Counts = counts
	if s.Outcome == logic.OutcomeFailed {
		t.snap.LastErrorKind = s.ErrKind
		t.snap.LastError = s.Err
		return
	}
	if s.Outcome == logic.OutcomeFresh {
		t.snap.ReadAt = s.Time
		t.snap.LastErrorKind = ""
		t.snap.LastError = ""
	}
	t.snap.HasReading = true
	t.snap.Temperature = s.Temperature
	t.snap.Humidity = s.Humidity
}

// SetMQTTConnected sets the MQTT connection status.
func (t *Tracker) SetMQTTConnected(connected bool) {
	t.mu.Lock()
	t.snap.MQTTConnected = connected
	t.mu.Unlock()
}

// SetNetwork sets the network info.
func (t *Tracker) SetNetwork(info *NetworkInfo) {
	t.mu.Lock()
	t.snap.Network = info
	t.mu.Unlock()
}

// Snapshot returns a point-in-time copy of the daemon state.
// The Now field is set to the current time at the moment of the call.
func (t *Tracker) Snapshot() Snapshot {
	t.mu.RLock()
	s := t.snap
	t.mu.RUnlock()
	s.Now = time.Now()
	return s
}
