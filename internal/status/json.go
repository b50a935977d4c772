package status

import (
	"encoding/json"
	"math"
	"time"

	"github.com/sweeney/dht-sensor/internal/dht"
)

// StatusJSON is the top-level JSON envelope for status output.
type StatusJSON struct {
	Status StatusInner `json:"status"`
}

// StatusInner contains the status details.
type StatusInner struct {
	Event         string       `json:"event,omitempty"`
	Reason        string       `json:"reason,omitempty"`
	InstanceID    string       `json:"instance_id"`
	Ready         bool         `json:"ready"`
	Reading       *ReadingJSON `json:"reading,omitempty"`
	LastOutcome   string       `json:"last_outcome,omitempty"`
	LastErrorKind string       `json:"last_error_kind,omitempty"`
	LastError     string       `json:"last_error,omitempty"`
	UptimeSeconds int64        `json:"uptime_seconds"`
	StartTime     string       `json:"start_time"`
	Timestamp     string       `json:"timestamp"`
	MQTT          MQTTStatus   `json:"mqtt"`
	Counts        CountsJSON   `json:"read_counts"`
	Network       *NetworkJSON `json:"network,omitempty"`
	Config        ConfigJSON   `json:"config"`
}

// ReadingJSON is the last good reading.
type ReadingJSON struct {
	TemperatureC float32 `json:"temperature_c"`
	TemperatureF float64 `json:"temperature_f"`
	HumidityPct  float32 `json:"humidity_pct"`
	ReadAt       string  `json:"read_at"`
}

// MQTTStatus reports MQTT connection state.
type MQTTStatus struct {
	Connected bool   `json:"connected"`
	Broker    string `json:"broker"`
}

// CountsJSON is the JSON representation of read outcome counts.
type CountsJSON struct {
	Fresh    int `json:"fresh"`
	Cached   int `json:"cached"`
	Fallback int `json:"fallback"`
	Failed   int `json:"failed"`
}

// NetworkJSON is the JSON representation of network info.
type NetworkJSON struct {
	Type       string `json:"type"`
	IP         string `json:"ip"`
	Status     string `json:"status"`
	Gateway    string `json:"gateway"`
	WifiStatus string `json:"wifi_status"`
	SSID       string `json:"ssid"`
}

// ConfigJSON is the JSON representation of daemon config.
type ConfigJSON struct {
	Family      string `json:"family"`
	Engine      string `json:"engine"`
	Chip        string `json:"chip,omitempty"`
	Pin         int    `json:"pin"`
	PollMs      int64  `json:"poll_ms"`
	HeartbeatMs int64  `json:"heartbeat_ms"`
	Broker      string `json:"broker"`
	HTTPPort    string `json:"http_port"`
	WSBroker    string `json:"ws_broker,omitempty"`
}

func buildInner(snap Snapshot) StatusInner {
	inner := StatusInner{
		InstanceID:    snap.InstanceID,
		Ready:         snap.HasReading,
		LastOutcome:   string(snap.LastOutcome),
		LastErrorKind: snap.LastErrorKind,
		LastError:     snap.LastError,
		UptimeSeconds: int64(snap.Uptime().Truncate(time.Second).Seconds()),
		StartTime:     snap.StartTime.UTC().Format(time.RFC3339),
		Timestamp:     snap.Now.UTC().Format(time.RFC3339),
		MQTT:          MQTTStatus{Connected: snap.MQTTConnected, Broker: snap.Config.Broker},
		Counts: CountsJSON{
			Fresh:    snap.Counts.Fresh,
			Cached:   snap.Counts.Cached,
			Fallback: snap.Counts.Fallback,
			Failed:   snap.Counts.Failed,
		},
		Config: ConfigJSON{
			Family:      snap.Config.Family,
			Engine:      snap.Config.Engine,
			Chip:        snap.Config.Chip,
			Pin:         snap.Config.Pin,
			PollMs:      snap.Config.PollMs,
			HeartbeatMs: snap.Config.HeartbeatMs,
			Broker:      snap.Config.Broker,
			HTTPPort:    snap.Config.HTTPPort,
			WSBroker:    snap.Config.WSBroker,
		},
	}

	inner.Reading = readingJSON(snap)

	if snap.Network != nil {
		inner.Network = &NetworkJSON{
			Type:       snap.Network.Type,
			IP:         snap.Network.IP,
			Status:     snap.Network.Status,
			Gateway:    snap.Network.Gateway,
			WifiStatus: snap.Network.WifiStatus,
			SSID:       snap.Network.SSID,
		}
	}
	return inner
}

func readingJSON(snap Snapshot) *ReadingJSON {
	if !snap.HasReading {
		return nil
	}
	r := dht.Reading{Temperature: snap.Temperature, Humidity: snap.Humidity}
	return &ReadingJSON{
		TemperatureC: snap.Temperature,
		TemperatureF: math.Round(r.Fahrenheit()*10) / 10,
		HumidityPct:  snap.Humidity,
		ReadAt:       snap.ReadAt.UTC().Format(time.RFC3339),
	}
}

// CurrentJSON answers "what is the reading right now, and can I trust it".
type CurrentJSON struct {
	Ready         bool         `json:"ready"`
	Reading       *ReadingJSON `json:"reading,omitempty"`
	AgeSeconds    float64      `json:"age_seconds"`
	Stale         bool         `json:"stale"`
	Outcome       string       `json:"outcome,omitempty"`
	LastErrorKind string       `json:"last_error_kind,omitempty"`
	LastError     string       `json:"last_error,omitempty"`
}

// FormatCurrent returns the current reading with its age and staleness. ok is
// false until the first good reading exists.
func FormatCurrent(snap Snapshot) (data []byte, ok bool) {
	cur := CurrentJSON{
		Ready:         snap.HasReading,
		Reading:       readingJSON(snap),
		AgeSeconds:    math.Round(snap.ReadingAge().Seconds()*10) / 10,
		Stale:         snap.Stale(),
		Outcome:       string(snap.LastOutcome),
		LastErrorKind: snap.LastErrorKind,
		LastError:     snap.LastError,
	}
	data, _ = json.Marshal(cur)
	return data, snap.HasReading
}

// FormatJSON returns the JSON status for the web endpoint (no event/reason).
func FormatJSON(snap Snapshot) []byte {
	data, _ := json.MarshalIndent(StatusJSON{Status: buildInner(snap)}, "", "  ")
	return data
}

// FormatStatusEvent returns the JSON status for an MQTT system event.
func FormatStatusEvent(snap Snapshot, event, reason string) []byte {
	inner := buildInner(snap)
	inner.Event = event
	inner.Reason = reason

	data, _ := json.Marshal(StatusJSON{Status: inner})
	return data
}
