//go:build !linux

package gpio

import (
	"errors"

	"github.com/sweeney/dht-sensor/internal/dht"
)

// BitBangEngine is not available on non-Linux platforms.
type BitBangEngine struct{}

var errUnsupported = errors.New("gpio: not supported on this platform (requires Linux)")

// NewBitBangEngine returns an error on non-Linux platforms.
func NewBitBangEngine(chip string) (*BitBangEngine, error) {
	return nil, errUnsupported
}

// Configure is not implemented on non-Linux platforms.
func (e *BitBangEngine) Configure(pin int, cfg dht.EngineConfig) error {
	return errUnsupported
}

// SetEnabled is not implemented on non-Linux platforms.
func (e *BitBangEngine) SetEnabled(enabled bool) error {
	return errUnsupported
}

// Push is not implemented on non-Linux platforms.
func (e *BitBangEngine) Push(v uint32) error {
	return errUnsupported
}

// WaitPull is not implemented on non-Linux platforms.
func (e *BitBangEngine) WaitPull() (uint32, error) {
	return 0, errUnsupported
}

// Close is not implemented on non-Linux platforms.
func (e *BitBangEngine) Close() error {
	return nil
}
