package dht

import "time"

// TimingEngine generates the start pulse and captures the sensor's response
// as packed words. Implementations own the data line while enabled.
type TimingEngine interface {
	// Configure performs one-time setup of the line and the capture unit.
	Configure(pin int, cfg EngineConfig) error

	// SetEnabled arms or disarms active sampling.
	SetEnabled(enabled bool) error

	// Push sends the start pulse width, in engine clock ticks.
	Push(v uint32) error

	// WaitPull blocks until the next 32-bit word is available. It returns
	// ErrTimeout once the engine's own bound is exceeded.
	WaitPull() (uint32, error)
}

// ShiftDirection is the order in which captured bits enter a word.
type ShiftDirection int

const (
	ShiftLeft  ShiftDirection = iota // first bit ends up most significant
	ShiftRight                       // first bit ends up least significant
)

// ShiftConfig controls how captured bits are packed into words.
type ShiftConfig struct {
	Threshold int // bits per word before it is pushed to the FIFO
	Direction ShiftDirection
	AutoFill  bool
}

// EngineConfig is passed to TimingEngine.Configure.
type EngineConfig struct {
	SystemClockHz uint32
	ClockDivisor  float32
	Shift         ShiftConfig
}

// Engine clock defaults: a 125 MHz system clock divided down to 300 kHz,
// one tick every 3.33µs.
const (
	DefaultSystemClockHz = 125_000_000
	DefaultClockDivisor  = 416.666667
)

// DefaultEngineConfig returns the configuration used for both families.
func DefaultEngineConfig() EngineConfig {
	return EngineConfig{
		SystemClockHz: DefaultSystemClockHz,
		ClockDivisor:  DefaultClockDivisor,
		Shift: ShiftConfig{
			Threshold: 32,
			Direction: ShiftLeft,
			AutoFill:  true,
		},
	}
}

// Tick returns the duration of one engine clock cycle.
func (c EngineConfig) Tick() time.Duration {
	if c.SystemClockHz == 0 {
		return 0
	}
	return time.Duration(float64(c.ClockDivisor) / float64(c.SystemClockHz) * float64(time.Second))
}

// Ticks converts d to a whole number of engine clock cycles.
func (c EngineConfig) Ticks(d time.Duration) uint32 {
	tick := c.Tick()
	if tick <= 0 {
		return 0
	}
	return uint32(d / tick)
}
