package dht

import (
	"errors"
	"fmt"
)

// FakeEngine is a scripted TimingEngine. Each Push queues the next scripted
// frame into a FIFO that WaitPull drains, the way a capture unit would.
type FakeEngine struct {
	// Frames contains the scripted responses, one per Push.
	// Once exhausted, the last frame is repeated.
	Frames []Frame

	// ConfigureError, if set, is returned by Configure.
	ConfigureError error

	// Configured counts Configure calls; Pin and Config record the last one.
	Configured int
	Pin        int
	Config     EngineConfig

	// Enabled is the current armed state.
	Enabled bool

	// Pushes records every pushed start pulse width.
	Pushes []uint32

	// Pulls counts successful WaitPull calls.
	Pulls int

	index   int
	fifo    []uint32
	pending error
}

// Frame is one scripted response. If Err is set the frame produces no words
// and WaitPull fails with Err.
type Frame struct {
	Sample RawSample
	Err    error
}

// NewFakeEngine creates a FakeEngine with the given frames.
func NewFakeEngine(frames ...Frame) *FakeEngine {
	return &FakeEngine{Frames: frames}
}

// Good returns a frame carrying a valid sample for the given raw fields.
func Good(humidity, temperature uint16) Frame {
	return Frame{Sample: Pack(humidity, temperature)}
}

// Failing returns a frame that fails with err.
func Failing(err error) Frame {
	return Frame{Err: err}
}

// Configure records the configuration.
func (f *FakeEngine) Configure(pin int, cfg EngineConfig) error {
	if f.ConfigureError != nil {
		return f.ConfigureError
	}
	f.Configured++
	f.Pin = pin
	f.Config = cfg
	return nil
}

// SetEnabled arms or disarms the engine. Disarming clears the FIFO.
func (f *FakeEngine) SetEnabled(enabled bool) error {
	f.Enabled = enabled
	if !enabled {
		f.fifo = f.fifo[:0]
		f.pending = nil
	}
	return nil
}

// Push queues the next scripted frame.
func (f *FakeEngine) Push(v uint32) error {
	if !f.Enabled {
		return errors.New("fake engine: push while disabled")
	}
	f.Pushes = append(f.Pushes, v)
	if len(f.Frames) == 0 {
		return nil
	}
	fr := f.Frames[f.index]
	if f.index < len(f.Frames)-1 {
		f.index++
	}
	if fr.Err == nil {
		f.fifo = append(f.fifo, fr.Sample.Combined, uint32(fr.Sample.Checksum))
	} else {
		f.pending = fr.Err
	}
	return nil
}

// WaitPull pops the next queued word.
func (f *FakeEngine) WaitPull() (uint32, error) {
	if f.pending != nil {
		err := f.pending
		f.pending = nil
		return 0, err
	}
	if len(f.fifo) == 0 {
		return 0, fmt.Errorf("%w: fake engine fifo empty", ErrTimeout)
	}
	v := f.fifo[0]
	f.fifo = f.fifo[1:]
	f.Pulls++
	return v, nil
}

// Acquisitions returns how many start pulses were pushed.
func (f *FakeEngine) Acquisitions() int {
	return len(f.Pushes)
}
