package dht

import (
	"fmt"
	"time"

	"github.com/benbjohnson/clock"
	log "github.com/sirupsen/logrus"
)

// Config controls a Sensor. Only Family is required.
type Config struct {
	// Family must name exactly one sensor family.
	Family Family

	// Engine defaults to DefaultEngineConfig().
	Engine EngineConfig

	// Clock defaults to the system clock.
	Clock clock.Clock

	// WarmUp is how long after construction acquisitions fail with ErrNoData.
	// Zero means the family's minimum request interval; negative disables it.
	WarmUp time.Duration
}

// State is the lifecycle state of a Sensor.
type State int

const (
	StateUninitialized State = iota
	StateReady
	StateAcquiring
)

func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "UNINITIALIZED"
	case StateReady:
		return "READY"
	case StateAcquiring:
		return "ACQUIRING"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// Outcome records how the most recent Read was satisfied.
type Outcome string

const (
	OutcomeNone     Outcome = ""
	OutcomeFresh    Outcome = "FRESH"    // new acquisition decoded and stored
	OutcomeCached   Outcome = "CACHED"   // within the minimum interval, no hardware access
	OutcomeFallback Outcome = "FALLBACK" // acquisition failed, last good reading returned
	OutcomeFailed   Outcome = "FAILED"   // acquisition failed with nothing cached
)

// Sensor is a rate-limited, caching driver for one physical sensor.
type Sensor struct {
	family      Family
	clock       clock.Clock
	acq         *acquirer
	minInterval time.Duration

	state      State
	last       Reading
	lastReadAt time.Time
	hasLast    bool
	outcome    Outcome
}

// New creates a Sensor reading from engine on the given data pin. The engine
// is not touched until the first acquisition.
func New(engine TimingEngine, pin int, cfg Config) (*Sensor, error) {
	if err := cfg.Family.Validate(); err != nil {
		return nil, err
	}
	if engine == nil {
		return nil, fmt.Errorf("%w: no timing engine", ErrConfiguration)
	}
	if cfg.Engine == (EngineConfig{}) {
		cfg.Engine = DefaultEngineConfig()
	}
	if cfg.Clock == nil {
		cfg.Clock = clock.New()
	}
	warmUp := cfg.WarmUp
	if warmUp == 0 {
		warmUp = cfg.Family.MinRequestInterval()
	}

	return &Sensor{
		family:      cfg.Family,
		clock:       cfg.Clock,
		acq:         newAcquirer(engine, pin, cfg.Family, cfg.Engine, cfg.Clock, warmUp),
		minInterval: cfg.Family.MinRequestInterval(),
	}, nil
}

// Family returns the sensor family selected at construction.
func (s *Sensor) Family() Family { return s.family }

// State returns the current lifecycle state.
func (s *Sensor) State() State { return s.state }

// LastOutcome reports how the most recent Read was satisfied.
func (s *Sensor) LastOutcome() Outcome { return s.outcome }

// Last returns the last good reading and when it was acquired.
func (s *Sensor) Last() (Reading, time.Time, bool) {
	return s.last, s.lastReadAt, s.hasLast
}

// Read returns a current reading. Within the family's minimum request
// interval the cached reading is returned without touching the hardware.
// Failures are masked by the last good reading when there is one; only a
// failure with nothing cached is returned to the caller.
func (s *Sensor) Read() (Reading, error) {
	if s.hasLast && s.clock.Since(s.lastReadAt) < s.minInterval {
		s.outcome = OutcomeCached
		return s.last, nil
	}

	prev := s.state
	s.state = StateAcquiring
	raw, err := s.acq.acquire()
	if s.acq.initialized {
		s.state = StateReady
	} else {
		s.state = prev
	}
	if err != nil {
		return s.fallback(err)
	}

	r, err := Decode(s.family, raw)
	if err != nil {
		return s.fallback(err)
	}
	if r.Humidity < 0 || r.Humidity > 100 {
		return s.fallback(fmt.Errorf("%w: humidity %.1f%% out of range", ErrInvalidData, r.Humidity))
	}

	s.last = r
	s.lastReadAt = s.clock.Now()
	s.hasLast = true
	s.outcome = OutcomeFresh
	return r, nil
}

func (s *Sensor) fallback(err error) (Reading, error) {
	if s.hasLast {
		log.Debugf("dht: read failed, using reading from %v: %v", s.lastReadAt, err)
		s.outcome = OutcomeFallback
		return s.last, nil
	}
	s.outcome = OutcomeFailed
	return Reading{}, err
}
