package logic

import (
	"testing"
	"time"
)

var testThresholds = Thresholds{Temperature: 0.5, Humidity: 2.0}

func fresh(at time.Time, temp, hum float32) Sample {
	return Sample{Time: at, Temperature: temp, Humidity: hum, Outcome: OutcomeFresh}
}

func failed(at time.Time, kind string) Sample {
	return Sample{Time: at, Outcome: OutcomeFailed, ErrKind: kind, Err: "dht: " + kind}
}

// setupMonitorWithReading returns a monitor that has published one reading.
func setupMonitorWithReading(t *testing.T, temp, hum float32) *Monitor {
	t.Helper()
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	m := NewMonitor(testThresholds, now)

	events := m.Process(fresh(now, temp, hum))
	if len(events) != 1 || events[0].Type != EventReading {
		t.Fatalf("expected initial READING event, got %+v", events)
	}
	if !m.HasReading() {
		t.Fatal("monitor should have a reading")
	}

	return m
}

func TestNewMonitor(t *testing.T) {
	startTime := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	m := NewMonitor(testThresholds, startTime)
	if m == nil {
		t.Fatal("NewMonitor returned nil")
	}
	if m.HasReading() {
		t.Error("new monitor should not have a reading")
	}
	if !m.startTime.Equal(startTime) {
		t.Errorf("expected startTime %v, got %v", startTime, m.startTime)
	}
	if !m.lastHeartbeat.Equal(startTime) {
		t.Errorf("expected lastHeartbeat %v, got %v", startTime, m.lastHeartbeat)
	}
}

func TestFirstReadingPublished(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	m := NewMonitor(testThresholds, now)

	events := m.Process(fresh(now, 21.3, 45.0))
	if len(events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(events))
	}

	e := events[0]
	if e.Type != EventReading {
		t.Errorf("expected READING, got %s", e.Type)
	}
	if e.Temperature != 21.3 || e.Humidity != 45.0 {
		t.Errorf("unexpected values: %v°C %v%%", e.Temperature, e.Humidity)
	}
	if !e.Timestamp.Equal(now) {
		t.Errorf("unexpected timestamp: %v", e.Timestamp)
	}
	if e.Outcome != OutcomeFresh {
		t.Errorf("expected FRESH outcome, got %s", e.Outcome)
	}
}

func TestSmallChangeNotPublished(t *testing.T) {
	m := setupMonitorWithReading(t, 21.0, 45.0)
	now := time.Date(2026, 1, 1, 12, 1, 0, 0, time.UTC)

	for i := 0; i < 5; i++ {
		events := m.Process(fresh(now.Add(time.Duration(i)*2*time.Second), 21.2, 46.0))
		if len(events) != 0 {
			t.Errorf("iteration %d: expected no events, got %d", i, len(events))
		}
	}

	if got := m.Current(); got.Temperature != 21.2 {
		t.Errorf("current temperature: got %v, want 21.2", got.Temperature)
	}
}

func TestThresholdChangePublished(t *testing.T) {
	tests := []struct {
		name string
		temp float32
		hum  float32
	}{
		{"temperature up", 21.5, 45.0},
		{"temperature down", 20.5, 45.0},
		{"humidity up", 21.0, 47.0},
		{"humidity down", 21.0, 42.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := setupMonitorWithReading(t, 21.0, 45.0)
			now := time.Date(2026, 1, 1, 12, 1, 0, 0, time.UTC)

			events := m.Process(fresh(now, tt.temp, tt.hum))
			if len(events) != 1 {
				t.Fatalf("expected 1 event, got %d", len(events))
			}
			if events[0].Type != EventReading {
				t.Errorf("expected READING, got %s", events[0].Type)
			}
		})
	}
}

func TestDriftMeasuredFromLastPublished(t *testing.T) {
	m := setupMonitorWithReading(t, 21.0, 45.0)
	now := time.Date(2026, 1, 1, 12, 1, 0, 0, time.UTC)

	// Each step is below the threshold, but the total drift is not.
	m.Process(fresh(now, 21.25, 45.0))
	events := m.Process(fresh(now.Add(2*time.Second), 21.5, 45.0))
	if len(events) != 1 {
		t.Fatalf("expected 1 event after cumulative drift, got %d", len(events))
	}
}

func TestZeroThresholdsPublishEveryReading(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	m := NewMonitor(Thresholds{}, now)

	for i := 0; i < 3; i++ {
		events := m.Process(fresh(now.Add(time.Duration(i)*2*time.Second), 21.0, 45.0))
		if len(events) != 1 {
			t.Errorf("iteration %d: expected 1 event, got %d", i, len(events))
		}
	}
}

func TestCachedAndFallbackNotPublished(t *testing.T) {
	m := setupMonitorWithReading(t, 21.0, 45.0)
	now := time.Date(2026, 1, 1, 12, 1, 0, 0, time.UTC)

	for _, o := range []Outcome{OutcomeCached, OutcomeFallback} {
		events := m.Process(Sample{Time: now, Temperature: 30.0, Humidity: 80.0, Outcome: o})
		if len(events) != 0 {
			t.Errorf("%s: expected no events, got %d", o, len(events))
		}
	}
}

func TestSensorErrorOncePerStreak(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	m := NewMonitor(testThresholds, now)

	events := m.Process(failed(now, "NO_DATA"))
	if len(events) != 1 || events[0].Type != EventSensorError {
		t.Fatalf("expected SENSOR_ERROR, got %+v", events)
	}
	if events[0].ErrKind != "NO_DATA" {
		t.Errorf("expected NO_DATA kind, got %q", events[0].ErrKind)
	}
	if !m.Failing() {
		t.Error("monitor should be failing")
	}

	events = m.Process(failed(now.Add(time.Second), "NO_DATA"))
	if len(events) != 0 {
		t.Errorf("repeated failure: expected no events, got %d", len(events))
	}

	events = m.Process(failed(now.Add(2*time.Second), "TIMEOUT"))
	if len(events) != 1 || events[0].ErrKind != "TIMEOUT" {
		t.Errorf("new failure kind: expected SENSOR_ERROR(TIMEOUT), got %+v", events)
	}
}

func TestRecoveryAfterError(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	m := NewMonitor(testThresholds, now)

	m.Process(failed(now, "TIMEOUT"))
	events := m.Process(fresh(now.Add(2*time.Second), 19.0, 50.0))

	if len(events) != 2 {
		t.Fatalf("expected 2 events, got %d", len(events))
	}
	if events[0].Type != EventSensorRecovered {
		t.Errorf("event 0: expected SENSOR_RECOVERED, got %s", events[0].Type)
	}
	if events[1].Type != EventReading {
		t.Errorf("event 1: expected READING, got %s", events[1].Type)
	}
	if m.Failing() {
		t.Error("monitor should not be failing after recovery")
	}

	// A new failure after recovery is reported again.
	events = m.Process(failed(now.Add(4*time.Second), "TIMEOUT"))
	if len(events) != 1 {
		t.Errorf("expected SENSOR_ERROR after recovery, got %d events", len(events))
	}
}

func TestOutcomeCounts(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	m := NewMonitor(testThresholds, now)

	m.Process(failed(now, "NO_DATA"))
	m.Process(fresh(now, 21.0, 45.0))
	m.Process(Sample{Time: now, Outcome: OutcomeCached})
	m.Process(Sample{Time: now, Outcome: OutcomeCached})
	m.Process(Sample{Time: now, Outcome: OutcomeFallback})
	m.Process(Sample{Time: now, Outcome: "BOGUS"})

	want := OutcomeCounts{Fresh: 1, Cached: 2, Fallback: 1, Failed: 1}
	if got := m.CountsSnapshot(); got != want {
		t.Errorf("counts: got %+v, want %+v", got, want)
	}
}

func TestCheckHeartbeatDisabledWithZeroInterval(t *testing.T) {
	startTime := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	m := setupMonitorWithReading(t, 21.0, 45.0)

	hb := m.CheckHeartbeat(startTime.Add(15*time.Minute), 0)
	if hb != nil {
		t.Error("should not return heartbeat when interval is 0 (disabled)")
	}

	hb = m.CheckHeartbeat(startTime.Add(15*time.Minute), -1*time.Minute)
	if hb != nil {
		t.Error("should not return heartbeat when interval is negative")
	}
}

func TestCheckHeartbeatBeforeFirstReading(t *testing.T) {
	startTime := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	m := NewMonitor(testThresholds, startTime)
	m.Process(failed(startTime, "NO_DATA"))

	hb := m.CheckHeartbeat(startTime.Add(15*time.Minute), 15*time.Minute)
	if hb != nil {
		t.Error("should not return heartbeat before first reading")
	}
}

func TestCheckHeartbeatBeforeInterval(t *testing.T) {
	startTime := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	m := setupMonitorWithReading(t, 21.0, 45.0)

	hb := m.CheckHeartbeat(startTime.Add(14*time.Minute), 15*time.Minute)
	if hb != nil {
		t.Error("should not return heartbeat before interval")
	}
}

func TestCheckHeartbeatAtInterval(t *testing.T) {
	startTime := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	m := setupMonitorWithReading(t, 21.0, 45.0)
	m.Process(Sample{Time: startTime, Outcome: OutcomeCached})

	checkTime := startTime.Add(15 * time.Minute)
	hb := m.CheckHeartbeat(checkTime, 15*time.Minute)
	if hb == nil {
		t.Fatal("should return heartbeat at interval")
	}
	if !hb.Timestamp.Equal(checkTime) {
		t.Errorf("timestamp: got %v, want %v", hb.Timestamp, checkTime)
	}
	if hb.Uptime != 15*time.Minute {
		t.Errorf("uptime: got %v, want 15m", hb.Uptime)
	}
	if hb.Counts.Fresh != 1 || hb.Counts.Cached != 1 {
		t.Errorf("counts: got %+v", hb.Counts)
	}
}

func TestCheckHeartbeatUpdatesLastTime(t *testing.T) {
	startTime := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	m := setupMonitorWithReading(t, 21.0, 45.0)

	if hb := m.CheckHeartbeat(startTime.Add(15*time.Minute), 15*time.Minute); hb == nil {
		t.Fatal("expected first heartbeat")
	}
	if hb := m.CheckHeartbeat(startTime.Add(20*time.Minute), 15*time.Minute); hb != nil {
		t.Error("should not return heartbeat 5m after the previous one")
	}
	hb := m.CheckHeartbeat(startTime.Add(30*time.Minute), 15*time.Minute)
	if hb == nil {
		t.Fatal("expected second heartbeat")
	}
	if hb.Uptime != 30*time.Minute {
		t.Errorf("uptime: got %v, want 30m", hb.Uptime)
	}
}
