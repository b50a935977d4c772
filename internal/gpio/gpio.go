// Package gpio provides a bit-banged dht.TimingEngine over a single GPIO line.
// The real implementation uses the Linux GPIO character device: it drives the
// start pulse, timestamps every edge of the sensor's reply and packs the
// decoded frame into the words the dht package expects.
package gpio

import (
	"errors"
	"fmt"
	"time"

	"github.com/sweeney/dht-sensor/internal/dht"
)

// Defaults for a Raspberry Pi.
const (
	DefaultChip = "gpiochip0"
	DefaultPin  = 4 // BCM numbering
)

// Frame timing.
const (
	frameBits = 40

	// A high pulse longer than this is a 1 bit (26-28µs for 0, 70µs for 1).
	bitThreshold = 50 * time.Microsecond

	// Capture window after the start pulse; a full frame takes about 5ms.
	captureWindow = 10 * time.Millisecond

	// DefaultPullTimeout bounds WaitPull.
	DefaultPullTimeout = 200 * time.Millisecond
)

// Edge is one captured line transition.
type Edge struct {
	Rising bool
	At     time.Duration // monotonic event timestamp
}

var errShortFrame = errors.New("gpio: short frame")

// DecodeEdges turns the edges of one reply into the data and checksum words.
// Only the last 40 high pulses are used; the sensor's 80µs response pulse
// and any glitches before it are skipped.
func DecodeEdges(edges []Edge) (data, checksum uint32, err error) {
	widths := highWidths(edges)
	if len(widths) < frameBits {
		return 0, 0, fmt.Errorf("%w: %d of %d bits", errShortFrame, len(widths), frameBits)
	}
	widths = widths[len(widths)-frameBits:]

	for i, w := range widths {
		var bit uint32
		if w > bitThreshold {
			bit = 1
		}
		if i < 32 {
			data = data<<1 | bit
		} else {
			checksum = checksum<<1 | bit
		}
	}
	return data, checksum, nil
}

func highWidths(edges []Edge) []time.Duration {
	var widths []time.Duration
	var rise time.Duration
	high := false
	for _, e := range edges {
		switch {
		case e.Rising:
			rise = e.At
			high = true
		case high:
			widths = append(widths, e.At-rise)
			high = false
		}
	}
	return widths
}

func checkConfig(cfg dht.EngineConfig) error {
	if cfg.Shift.Direction != dht.ShiftLeft || cfg.Shift.Threshold != 32 {
		return fmt.Errorf("%w: bit-banged engine packs 32-bit words msb first", dht.ErrConfiguration)
	}
	if cfg.Tick() <= 0 {
		return fmt.Errorf("%w: engine clock not set", dht.ErrConfiguration)
	}
	return nil
}
