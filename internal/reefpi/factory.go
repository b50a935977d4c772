// Package reefpi exposes a DHT sensor as a reef-pi HAL driver with two analog
// inputs: temperature on channel 0 and relative humidity on channel 1.
//
// The hardware resource passed to NewDriver may be a dht.TimingEngine; when it
// is anything else a GPIO bit-banged engine is opened on the configured chip.
package reefpi

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/reef-pi/hal"
	log "github.com/sirupsen/logrus"

	"github.com/sweeney/dht-sensor/internal/dht"
	"github.com/sweeney/dht-sensor/internal/gpio"
)

const driverName = "DHT Humidity/Temperature"

const (
	familyParam = "Family"
	chipParam   = "Chip"
	pinParam    = "Pin"
	warmUpParam = "Warm up (ms)" // 0 = family interval, -1 = disabled
)

type factory struct {
	meta       hal.Metadata
	parameters []hal.ConfigParameter
}

var f *factory
var once sync.Once

// Factory returns the singleton driver factory.
func Factory() hal.DriverFactory {
	once.Do(func() {
		f = &factory{
			meta: hal.Metadata{
				Name:         driverName,
				Description:  "DHT11 / DHT22 / AM2302 single-wire sensor. Channel 0 is temperature (°C), channel 1 is humidity (%RH).",
				Capabilities: []hal.Capability{hal.AnalogInput},
			},
			parameters: []hal.ConfigParameter{
				{Name: familyParam, Type: hal.String, Order: 0, Default: "DHT22"},
				{Name: chipParam, Type: hal.String, Order: 1, Default: gpio.DefaultChip},
				{Name: pinParam, Type: hal.Integer, Order: 2, Default: gpio.DefaultPin},
				{Name: warmUpParam, Type: hal.Integer, Order: 3, Default: 0},
			},
		}
	})
	return f
}

func (f *factory) Metadata() hal.Metadata { return f.meta }

func (f *factory) GetParameters() []hal.ConfigParameter { return f.parameters }

// ValidateParameters checks the family name, the line offset and the warm-up.
func (f *factory) ValidateParameters(parameters map[string]interface{}) (bool, map[string][]string) {
	failures := map[string][]string{}

	name, ok := parameters[familyParam].(string)
	if !ok {
		failures[familyParam] = append(failures[familyParam], "Family is required")
	} else if _, err := dht.ParseFamily(name); err != nil {
		failures[familyParam] = append(failures[familyParam], "Family must be one of DHT11, DHT22, AM2302")
	}

	if v, ok := parameters[pinParam]; !ok {
		failures[pinParam] = append(failures[pinParam], "Pin is required")
	} else if pin, ok := toInt(v); !ok || pin < 0 {
		failures[pinParam] = append(failures[pinParam], "Pin must be a non-negative integer")
	}

	if v, ok := parameters[warmUpParam]; ok {
		if ms, ok := toInt(v); !ok || ms < -1 {
			failures[warmUpParam] = append(failures[warmUpParam], "Warm up must be -1, 0 or a positive number of milliseconds")
		}
	}

	return len(failures) == 0, failures
}

// NewDriver builds a Driver. The sensor is not touched until the first read.
func (f *factory) NewDriver(parameters map[string]interface{}, hardwareResources interface{}) (hal.Driver, error) {
	if valid, failures := f.ValidateParameters(parameters); !valid {
		return nil, errors.New(hal.ToErrorString(failures))
	}

	family, _ := dht.ParseFamily(parameters[familyParam].(string))
	pin, _ := toInt(parameters[pinParam])
	chip := gpio.DefaultChip
	if s, ok := parameters[chipParam].(string); ok && strings.TrimSpace(s) != "" {
		chip = strings.TrimSpace(s)
	}
	cfg := dht.Config{Family: family}
	if v, ok := parameters[warmUpParam]; ok {
		ms, _ := toInt(v)
		cfg.WarmUp = time.Duration(ms) * time.Millisecond
	}

	var owned *gpio.BitBangEngine
	engine, ok := hardwareResources.(dht.TimingEngine)
	if !ok {
		e, err := gpio.NewBitBangEngine(chip)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", driverName, err)
		}
		owned, engine = e, e
	}

	sensor, err := dht.New(engine, pin, cfg)
	if err != nil {
		if owned != nil {
			owned.Close()
		}
		return nil, err
	}

	log.Infof("reefpi: %s on %s line %d", family, chip, pin)
	return newDriver(f.meta, sensor, owned), nil
}

// toInt normalizes a parameter value. reef-pi passes JSON numbers as float64.
func toInt(v interface{}) (int, bool) {
	switch t := v.(type) {
	case int:
		return t, true
	case int64:
		return int(t), true
	case float64:
		if t != float64(int(t)) {
			return 0, false
		}
		return int(t), true
	case string:
		i, err := strconv.Atoi(strings.TrimSpace(t))
		return i, err == nil
	}
	return 0, false
}
