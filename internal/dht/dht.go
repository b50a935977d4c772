// Package dht reads DHT11 and DHT22/AM2302 single-wire humidity/temperature sensors.
//
// The package turns the two packed words delivered by a TimingEngine into a
// validated Reading. It owns rate limiting (a sensor must not be sampled more
// often than its family allows), checksum validation, unit conversion and
// stale-data fallback: once a good reading exists, transient acquisition
// failures return that reading instead of an error.
//
// A Sensor has exactly one owner. Read blocks while the engine captures a
// frame and cannot be cancelled half way; callers sharing a sensor must
// serialise access themselves.
package dht

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Errors returned by the driver.
var (
	ErrTimeout       = errors.New("dht: timeout")
	ErrNoData        = errors.New("dht: no data")
	ErrChecksum      = errors.New("dht: checksum mismatch")
	ErrInvalidData   = errors.New("dht: invalid data")
	ErrConfiguration = errors.New("dht: configuration error")
)

// Kind returns a short upper-case name for the driver error wrapped by err,
// suitable for metrics and event payloads. Unknown errors map to "OTHER".
func Kind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrTimeout):
		return "TIMEOUT"
	case errors.Is(err, ErrNoData):
		return "NO_DATA"
	case errors.Is(err, ErrChecksum):
		return "CHECKSUM"
	case errors.Is(err, ErrInvalidData):
		return "INVALID_DATA"
	case errors.Is(err, ErrConfiguration):
		return "CONFIGURATION"
	}
	return "OTHER"
}

// Family selects the bit layout and conversion formulas of a sensor.
// It is a bit set so that an ambiguous selection can be detected and rejected.
type Family uint8

const (
	// FamilyDHT11 covers DHT11 style sensors (integer + tenths byte pairs).
	FamilyDHT11 Family = 1 << iota
	// FamilyDHT22 covers DHT22/AM2302 style sensors (tenths-scaled words).
	FamilyDHT22
)

// FamilyAM2302 is the same protocol as the DHT22.
const FamilyAM2302 = FamilyDHT22

// String implements fmt.Stringer.
func (f Family) String() string {
	switch f {
	case FamilyDHT11:
		return "DHT11"
	case FamilyDHT22:
		return "DHT22"
	case 0:
		return "NONE"
	}
	return fmt.Sprintf("Family(%#02x)", uint8(f))
}

// Validate reports ErrConfiguration unless exactly one family is selected.
func (f Family) Validate() error {
	switch f {
	case FamilyDHT11, FamilyDHT22:
		return nil
	case 0:
		return fmt.Errorf("%w: no sensor family selected", ErrConfiguration)
	}
	return fmt.Errorf("%w: more than one sensor family selected (%s)", ErrConfiguration, f)
}

// ParseFamily maps a sensor name to its family. Names are case-insensitive.
func ParseFamily(name string) (Family, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "dht11":
		return FamilyDHT11, nil
	case "dht22", "am2302":
		return FamilyDHT22, nil
	}
	return 0, fmt.Errorf("%w: unknown sensor family %q", ErrConfiguration, name)
}

// Per-family protocol timing.
type timing struct {
	minInterval time.Duration // minimum time between two acquisitions
	startLow    time.Duration // width of the host start pulse
}

var timings = map[Family]timing{
	FamilyDHT11: {minInterval: 1 * time.Second, startLow: 18 * time.Millisecond},
	FamilyDHT22: {minInterval: 2 * time.Second, startLow: 1100 * time.Microsecond},
}

// MinRequestInterval returns how long a reading from this family stays current.
func (f Family) MinRequestInterval() time.Duration {
	return timings[f].minInterval
}

// StartPulse returns the width of the low pulse that triggers a measurement.
func (f Family) StartPulse() time.Duration {
	return timings[f].startLow
}

// Reading is one validated measurement.
type Reading struct {
	Humidity    float32 // %RH, within [0, 100]
	Temperature float32 // °C
}

// String implements fmt.Stringer.
func (r Reading) String() string {
	return fmt.Sprintf("%.1f°C %.1f%%RH", r.Temperature, r.Humidity)
}

// RawSample is the pair of words delivered by the engine for one frame.
type RawSample struct {
	Combined uint32 // humidity field in the high half, temperature in the low half
	Checksum uint8
}
