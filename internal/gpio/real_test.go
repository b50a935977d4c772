//go:build linux

package gpio

import (
	"errors"
	"testing"
	"time"

	"github.com/warthog618/go-gpiocdev"
	"github.com/warthog618/go-gpiosim"

	"github.com/sweeney/dht-sensor/internal/dht"
)

const simPin = 1

// newSimEngine returns an engine configured on a gpio-sim line. Tests are
// skipped where the simulator is not available (it needs configfs and root).
func newSimEngine(t *testing.T) (*BitBangEngine, *gpiosim.Simpleton) {
	t.Helper()
	sim, err := gpiosim.NewSimpleton(2)
	if err != nil {
		if sim != nil {
			sim.Close()
		}
		t.Skipf("gpio-sim not available: %v", err)
	}
	t.Cleanup(sim.Close)
	if err := sim.Pullup(simPin); err != nil {
		t.Fatalf("pull up: %v", err)
	}

	e, err := NewBitBangEngine(sim.ChipName())
	if err != nil {
		t.Fatalf("NewBitBangEngine: %v", err)
	}
	e.PullTimeout = 50 * time.Millisecond
	t.Cleanup(func() { e.Close() })

	if err := e.Configure(simPin, dht.DefaultEngineConfig()); err != nil {
		t.Fatalf("Configure: %v", err)
	}
	return e, sim
}

// reply feeds the edges of a sensor transmitting s into the engine, as the
// kernel would deliver them.
func reply(e *BitBangEngine, s dht.RawSample) {
	for _, edge := range FakeEdges(s, time.Second) {
		typ := gpiocdev.LineEventFallingEdge
		if edge.Rising {
			typ = gpiocdev.LineEventRisingEdge
		}
		e.handleEvent(gpiocdev.LineEvent{Offset: simPin, Type: typ, Timestamp: edge.At})
	}
}

func startPulse(e *BitBangEngine) error {
	return e.Push(dht.DefaultEngineConfig().Ticks(100 * time.Microsecond))
}

func TestBitBangRejectsUnsupportedShift(t *testing.T) {
	e, err := NewBitBangEngine("")
	if err != nil {
		t.Fatalf("NewBitBangEngine: %v", err)
	}
	cfg := dht.DefaultEngineConfig()
	cfg.Shift.Direction = dht.ShiftRight
	if err := e.Configure(simPin, cfg); !errors.Is(err, dht.ErrConfiguration) {
		t.Errorf("got %v, want ErrConfiguration", err)
	}
}

func TestBitBangRequiresConfigureAndEnable(t *testing.T) {
	e, err := NewBitBangEngine("")
	if err != nil {
		t.Fatalf("NewBitBangEngine: %v", err)
	}
	if err := e.SetEnabled(true); err == nil {
		t.Error("expected error enabling an unconfigured engine")
	}
	if err := startPulse(e); err == nil {
		t.Error("expected error pushing while disabled")
	}
}

func TestBitBangConfigureIdlesHigh(t *testing.T) {
	_, sim := newSimEngine(t)

	if v, err := sim.Level(simPin); err != nil || v != 1 {
		t.Errorf("idle level: got %d, %v; want 1", v, err)
	}
}

func TestBitBangCapturesFrame(t *testing.T) {
	e, sim := newSimEngine(t)
	want := dht.Pack(0x028C, 0x8065)

	if err := e.SetEnabled(true); err != nil {
		t.Fatalf("enable: %v", err)
	}
	if err := startPulse(e); err != nil {
		t.Fatalf("push: %v", err)
	}
	time.Sleep(time.Millisecond)
	reply(e, want)

	data, err := e.WaitPull()
	if err != nil {
		t.Fatalf("pull data: %v", err)
	}
	sum, err := e.WaitPull()
	if err != nil {
		t.Fatalf("pull checksum: %v", err)
	}
	if data != want.Combined || uint8(sum) != want.Checksum {
		t.Errorf("got %08x/%02x, want %08x/%02x", data, sum, want.Combined, want.Checksum)
	}

	if err := e.SetEnabled(false); err != nil {
		t.Fatalf("disable: %v", err)
	}
	if v, err := sim.Level(simPin); err != nil || v != 1 {
		t.Errorf("level after disable: got %d, %v; want 1", v, err)
	}
}

func TestBitBangNoReplyTimesOut(t *testing.T) {
	e, _ := newSimEngine(t)

	if err := e.SetEnabled(true); err != nil {
		t.Fatalf("enable: %v", err)
	}
	if err := startPulse(e); err != nil {
		t.Fatalf("push: %v", err)
	}
	if _, err := e.WaitPull(); !errors.Is(err, dht.ErrTimeout) {
		t.Errorf("got %v, want ErrTimeout", err)
	}
	e.SetEnabled(false)
}

// A frame captured for a start pulse that was cancelled by disarming the
// engine must not reach the next acquisition.
func TestBitBangDropsSupersededFrame(t *testing.T) {
	e, _ := newSimEngine(t)

	if err := e.SetEnabled(true); err != nil {
		t.Fatalf("enable: %v", err)
	}
	if err := startPulse(e); err != nil {
		t.Fatalf("push: %v", err)
	}
	if err := e.SetEnabled(false); err != nil {
		t.Fatalf("disable: %v", err)
	}
	if err := e.SetEnabled(true); err != nil {
		t.Fatalf("re-enable: %v", err)
	}
	reply(e, dht.Pack(0x01F4, 0x00C8))

	if v, err := e.WaitPull(); !errors.Is(err, dht.ErrTimeout) {
		t.Errorf("got word %08x, %v; want ErrTimeout", v, err)
	}
	e.SetEnabled(false)
}

func TestBitBangDisableDrainsFIFO(t *testing.T) {
	e, _ := newSimEngine(t)

	if err := e.SetEnabled(true); err != nil {
		t.Fatalf("enable: %v", err)
	}
	if err := startPulse(e); err != nil {
		t.Fatalf("push: %v", err)
	}
	time.Sleep(time.Millisecond)
	reply(e, dht.Pack(0x01F4, 0x00C8))
	time.Sleep(3 * captureWindow)

	if err := e.SetEnabled(false); err != nil {
		t.Fatalf("disable: %v", err)
	}
	if n := len(e.fifo); n != 0 {
		t.Errorf("fifo: %d words left after disable", n)
	}
}
