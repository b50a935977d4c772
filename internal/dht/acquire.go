package dht

import (
	"fmt"
	"time"

	"github.com/benbjohnson/clock"
	log "github.com/sirupsen/logrus"
)

// acquirer runs one request/response cycle against the engine.
type acquirer struct {
	engine  TimingEngine
	pin     int
	family  Family
	cfg     EngineConfig
	clock   clock.Clock
	created time.Time
	warmUp  time.Duration

	initialized bool
}

func newAcquirer(engine TimingEngine, pin int, family Family, cfg EngineConfig, clk clock.Clock, warmUp time.Duration) *acquirer {
	return &acquirer{
		engine:  engine,
		pin:     pin,
		family:  family,
		cfg:     cfg,
		clock:   clk,
		created: clk.Now(),
		warmUp:  warmUp,
	}
}

// acquire triggers a measurement and returns the captured frame. Once the
// start pulse has been pushed it always runs to completion: the engine is
// left mid-protocol otherwise.
func (a *acquirer) acquire() (s RawSample, err error) {
	if a.warmUp > 0 {
		if up := a.clock.Since(a.created); up < a.warmUp {
			return RawSample{}, fmt.Errorf("%w: sensor warming up (%v of %v)", ErrNoData, up, a.warmUp)
		}
	}

	if !a.initialized {
		if err := a.engine.Configure(a.pin, a.cfg); err != nil {
			return RawSample{}, fmt.Errorf("configure engine: %w", err)
		}
		a.initialized = true
		log.Debugf("dht: engine configured pin=%d family=%s tick=%v", a.pin, a.family, a.cfg.Tick())
	}

	if err := a.engine.SetEnabled(true); err != nil {
		return RawSample{}, fmt.Errorf("enable engine: %w", err)
	}
	defer func() {
		if derr := a.engine.SetEnabled(false); derr != nil && err == nil {
			err = fmt.Errorf("disable engine: %w", derr)
		}
	}()

	if err := a.engine.Push(a.cfg.Ticks(a.family.StartPulse())); err != nil {
		return RawSample{}, fmt.Errorf("start pulse: %w", err)
	}
	data, err := a.engine.WaitPull()
	if err != nil {
		return RawSample{}, fmt.Errorf("pull data word: %w", err)
	}
	sum, err := a.engine.WaitPull()
	if err != nil {
		return RawSample{}, fmt.Errorf("pull checksum word: %w", err)
	}
	return RawSample{Combined: data, Checksum: uint8(sum)}, nil
}
