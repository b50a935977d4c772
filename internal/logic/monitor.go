package logic

import "time"

// Monitor tracks sensor samples and decides which events to emit.
type Monitor struct {
	thresholds    Thresholds
	startTime     time.Time
	lastHeartbeat time.Time
	counts        OutcomeCounts

	hasReading  bool
	current     Sample // last fresh sample
	published   Sample // last sample published as a READING
	failing     bool
	failingKind string
}

// NewMonitor creates a monitor with the given change thresholds.
// The startTime is used for calculating uptime in heartbeat events.
func NewMonitor(thresholds Thresholds, startTime time.Time) *Monitor {
	return &Monitor{
		thresholds:    thresholds,
		startTime:     startTime,
		lastHeartbeat: startTime,
	}
}

// Process takes a new sample and returns any events that should be emitted.
func (m *Monitor) Process(s Sample) []Event {
	switch s.Outcome {
	case OutcomeCached:
		m.counts.Cached++
		return nil
	case OutcomeFallback:
		m.counts.Fallback++
		return nil
	case OutcomeFailed:
		m.counts.Failed++
		return m.processFailure(s)
	case OutcomeFresh:
		m.counts.Fresh++
		return m.processFresh(s)
	}
	return nil
}

// processFailure emits SENSOR_ERROR once per streak, or again when the kind
// of failure changes.
func (m *Monitor) processFailure(s Sample) []Event {
	if m.failing && m.failingKind == s.ErrKind {
		return nil
	}
	m.failing = true
	m.failingKind = s.ErrKind
	return []Event{{
		Timestamp: s.Time,
		Type:      EventSensorError,
		Outcome:   s.Outcome,
		ErrKind:   s.ErrKind,
		Err:       s.Err,
	}}
}

func (m *Monitor) processFresh(s Sample) []Event {
	var events []Event

	if m.failing {
		m.failing = false
		m.failingKind = ""
		events = append(events, Event{
			Timestamp:   s.Time,
			Type:        EventSensorRecovered,
			Temperature: s.Temperature,
			Humidity:    s.Humidity,
			Outcome:     s.Outcome,
		})
	}

	m.current = s
	if !m.hasReading || m.changed(s) {
		m.hasReading = true
		m.published = s
		events = append(events, Event{
			Timestamp:   s.Time,
			Type:        EventReading,
			Temperature: s.Temperature,
			Humidity:    s.Humidity,
			Outcome:     s.Outcome,
		})
	}
	return events
}

func (m *Monitor) changed(s Sample) bool {
	return abs(s.Temperature-m.published.Temperature) >= m.thresholds.Temperature ||
		abs(s.Humidity-m.published.Humidity) >= m.thresholds.Humidity
}

func abs(v float32) float32 {
	if v < 0 {
		return -v
	}
	return v
}

// HasReading returns whether at least one fresh reading has been seen.
func (m *Monitor) HasReading() bool {
	return m.hasReading
}

// Failing returns whether the most recent acquisition attempt failed with
// nothing cached.
func (m *Monitor) Failing() bool {
	return m.failing
}

// Current returns the last fresh sample.
func (m *Monitor) Current() Sample {
	return m.current
}

// CountsSnapshot returns a copy of the outcome counters.
func (m *Monitor) CountsSnapshot() OutcomeCounts {
	return m.counts
}

// CheckHeartbeat returns heartbeat data if the interval has elapsed since the
// last heartbeat (or startup). Returns nil if no reading has been seen yet, if
// the interval has not elapsed, or if interval is <= 0 (disabled).
func (m *Monitor) CheckHeartbeat(now time.Time, interval time.Duration) *HeartbeatData {
	if interval <= 0 {
		return nil
	}

	if !m.hasReading {
		return nil
	}

	if now.Sub(m.lastHeartbeat) < interval {
		return nil
	}

	m.lastHeartbeat = now
	return &HeartbeatData{
		Timestamp: now,
		Uptime:    now.Sub(m.startTime),
		Counts:    m.counts,
	}
}
