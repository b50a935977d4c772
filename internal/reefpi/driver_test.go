package reefpi

import (
	"errors"
	"strings"
	"testing"

	"github.com/reef-pi/hal"

	"github.com/sweeney/dht-sensor/internal/dht"
)

func params(family string, pin interface{}) map[string]interface{} {
	return map[string]interface{}{
		familyParam: family,
		chipParam:   "gpiochip0",
		pinParam:    pin,
		warmUpParam: -1,
	}
}

func newTestDriver(t *testing.T, frames ...dht.Frame) (*Driver, *dht.FakeEngine) {
	t.Helper()
	eng := dht.NewFakeEngine(frames...)
	drv, err := Factory().NewDriver(params("DHT22", 4.0), eng)
	if err != nil {
		t.Fatalf("NewDriver: %v", err)
	}
	return drv.(*Driver), eng
}

func TestFactoryMetadata(t *testing.T) {
	if Factory() != Factory() {
		t.Error("Factory should return a singleton")
	}
	meta := Factory().Metadata()
	if meta.Name != driverName {
		t.Errorf("name: got %q", meta.Name)
	}
	if len(meta.Capabilities) != 1 || meta.Capabilities[0] != hal.AnalogInput {
		t.Errorf("capabilities: got %v", meta.Capabilities)
	}
	if n := len(Factory().GetParameters()); n != 4 {
		t.Errorf("parameters: got %d, want 4", n)
	}
}

func TestValidateParameters(t *testing.T) {
	tests := []struct {
		name   string
		params map[string]interface{}
		failed string
	}{
		{"valid float pin", params("DHT22", 4.0), ""},
		{"valid string pin", params("dht11", "17"), ""},
		{"unknown family", params("BME280", 4.0), familyParam},
		{"missing family", map[string]interface{}{pinParam: 4}, familyParam},
		{"negative pin", params("DHT22", -1), pinParam},
		{"fractional pin", params("DHT22", 4.5), pinParam},
		{"missing pin", map[string]interface{}{familyParam: "DHT22"}, pinParam},
		{"bad warm up", map[string]interface{}{familyParam: "DHT22", pinParam: 4, warmUpParam: -5}, warmUpParam},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ok, failures := Factory().ValidateParameters(tt.params)
			if tt.failed == "" {
				if !ok {
					t.Errorf("expected valid, got %v", failures)
				}
				return
			}
			if ok {
				t.Fatal("expected validation failure")
			}
			if _, found := failures[tt.failed]; !found {
				t.Errorf("expected failure for %s, got %v", tt.failed, failures)
			}
		})
	}
}

func TestNewDriverRejectsInvalid(t *testing.T) {
	_, err := Factory().NewDriver(params("BME280", 4.0), dht.NewFakeEngine())
	if err == nil {
		t.Error("expected error for unknown family")
	}
}

func TestChannelsShareOneAcquisition(t *testing.T) {
	d, eng := newTestDriver(t, dht.Good(0x01F4, 0x00C8))

	temp, err := d.AnalogInputPin(TemperatureChannel)
	if err != nil {
		t.Fatalf("temperature pin: %v", err)
	}
	hum, err := d.AnalogInputPin(HumidityChannel)
	if err != nil {
		t.Fatalf("humidity pin: %v", err)
	}

	tv, err := temp.Read()
	if err != nil || tv != 20.0 {
		t.Errorf("temperature: got %v, %v; want 20", tv, err)
	}
	hv, err := hum.Measure()
	if err != nil || hv != 50.0 {
		t.Errorf("humidity: got %v, %v; want 50", hv, err)
	}

	if n := eng.Acquisitions(); n != 1 {
		t.Errorf("acquisitions: got %d, want 1", n)
	}
	if eng.Pin != 4 {
		t.Errorf("engine pin: got %d, want 4", eng.Pin)
	}
}

func TestReadErrorWithoutCache(t *testing.T) {
	d, _ := newTestDriver(t, dht.Failing(dht.ErrTimeout))

	pin, _ := d.AnalogInputPin(TemperatureChannel)
	if _, err := pin.Read(); !errors.Is(err, dht.ErrTimeout) {
		t.Errorf("expected ErrTimeout, got %v", err)
	}
}

func TestChannelsImplementAnalogInputPin(t *testing.T) {
	d, _ := newTestDriver(t, dht.Good(0x01F4, 0x00C8))

	var driver hal.AnalogInputDriver = d
	for _, pin := range driver.AnalogInputPins() {
		if _, err := pin.Read(); err != nil {
			t.Errorf("%s: read: %v", pin.Name(), err)
		}
	}
}

func TestPins(t *testing.T) {
	d, _ := newTestDriver(t, dht.Good(0x01F4, 0x00C8))

	pins, err := d.Pins(hal.AnalogInput)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(pins) != 2 || pins[0].Number() != 0 || pins[1].Number() != 1 {
		t.Errorf("unexpected pins: %v", pins)
	}
	if !strings.Contains(pins[1].Name(), "humidity") {
		t.Errorf("pin 1 name: %q", pins[1].Name())
	}
	if len(d.AnalogInputPins()) != 2 {
		t.Error("expected two analog input pins")
	}

	if _, err := d.Pins(hal.DigitalOutput); err == nil {
		t.Error("expected error for unsupported capability")
	}
	if _, err := d.AnalogInputPin(2); err == nil {
		t.Error("expected error for channel 2")
	}
	if err := d.Close(); err != nil {
		t.Errorf("close with caller-owned engine: %v", err)
	}
}

func TestCalibrateOffset(t *testing.T) {
	d, _ := newTestDriver(t, dht.Good(0x01F4, 0x00C8))
	pin, _ := d.AnalogInputPin(TemperatureChannel)

	err := pin.Calibrate([]hal.Measurement{
		{Expected: 21.0, Observed: 20.0},
		{Expected: 21.5, Observed: 20.5},
	})
	if err != nil {
		t.Fatalf("calibrate: %v", err)
	}
	if v, _ := pin.Read(); v != 21.0 {
		t.Errorf("calibrated temperature: got %v, want 21", v)
	}

	pin.Calibrate(nil)
	if v, _ := pin.Read(); v != 20.0 {
		t.Errorf("after reset: got %v, want 20", v)
	}
}
