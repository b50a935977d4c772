package reefpi

import (
	"fmt"
	"sync"

	"github.com/reef-pi/hal"
	log "github.com/sirupsen/logrus"

	"github.com/sweeney/dht-sensor/internal/dht"
	"github.com/sweeney/dht-sensor/internal/gpio"
)

// Channel numbers.
const (
	TemperatureChannel = 0
	HumidityChannel    = 1
)

// Driver serves both channels from one sensor. reef-pi polls pins from
// several goroutines; the sensor has a single owner, so reads go through mu.
type Driver struct {
	mu     sync.Mutex
	sensor *dht.Sensor
	owned  *gpio.BitBangEngine // closed with the driver; nil if supplied by the caller

	meta hal.Metadata
	pins []*channel
}

var _ hal.AnalogInputDriver = (*Driver)(nil)

func newDriver(meta hal.Metadata, sensor *dht.Sensor, owned *gpio.BitBangEngine) *Driver {
	d := &Driver{sensor: sensor, owned: owned, meta: meta}
	d.pins = []*channel{
		{d: d, n: TemperatureChannel, name: "temperature", pick: func(r dht.Reading) float64 { return float64(r.Temperature) }},
		{d: d, n: HumidityChannel, name: "humidity", pick: func(r dht.Reading) float64 { return float64(r.Humidity) }},
	}
	return d
}

func (d *Driver) read() (dht.Reading, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.sensor.Read()
}

func (d *Driver) Name() string           { return driverName }
func (d *Driver) Metadata() hal.Metadata { return d.meta }

// Close releases the GPIO line if the driver opened it.
func (d *Driver) Close() error {
	if d.owned == nil {
		return nil
	}
	return d.owned.Close()
}

func (d *Driver) AnalogInputPin(n int) (hal.AnalogInputPin, error) {
	if n < 0 || n >= len(d.pins) {
		return nil, fmt.Errorf("%s: no channel %d (0 = temperature, 1 = humidity)", driverName, n)
	}
	return d.pins[n], nil
}

func (d *Driver) AnalogInputPins() []hal.AnalogInputPin {
	pins := make([]hal.AnalogInputPin, len(d.pins))
	for i, p := range d.pins {
		pins[i] = p
	}
	return pins
}

func (d *Driver) Pins(cap hal.Capability) ([]hal.Pin, error) {
	if cap != hal.AnalogInput {
		return nil, fmt.Errorf("unsupported capability: %s", cap.String())
	}
	pins := make([]hal.Pin, len(d.pins))
	for i, p := range d.pins {
		pins[i] = p
	}
	return pins, nil
}

var _ hal.AnalogInputPin = (*channel)(nil)

type channel struct {
	d    *Driver
	n    int
	name string
	pick func(dht.Reading) float64

	mu     sync.Mutex
	offset float64
}

func (c *channel) Name() string { return driverName + " (" + c.name + ")" }
func (c *channel) Number() int  { return c.n }
func (c *channel) Close() error { return nil }

func (c *channel) Measure() (float64, error) { return c.Read() }

// Read reads the sensor and returns this channel's value plus the
// calibration offset.
func (c *channel) Read() (float64, error) {
	r, err := c.d.read()
	if err != nil {
		log.Debugf("reefpi: %s read failed: %v", c.name, err)
		return 0, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.pick(r) + c.offset, nil
}

// Calibrate sets a fixed offset, the mean of Expected-Observed over ms.
// An empty slice clears it.
func (c *channel) Calibrate(ms []hal.Measurement) error {
	var sum float64
	for _, m := range ms {
		sum += m.Expected - m.Observed
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.offset = 0
	if len(ms) > 0 {
		c.offset = sum / float64(len(ms))
	}
	return nil
}
