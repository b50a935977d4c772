//go:build linux

package gpio

import (
	"errors"
	"fmt"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/warthog618/go-gpiocdev"

	"github.com/sweeney/dht-sensor/internal/dht"
)

// BitBangEngine captures DHT frames on a GPIO line using kernel edge events.
type BitBangEngine struct {
	chipName string

	// PullTimeout bounds WaitPull. Defaults to DefaultPullTimeout.
	PullTimeout time.Duration

	chip *gpiocdev.Chip
	line *gpiocdev.Line
	tick time.Duration

	mu      sync.Mutex
	enabled bool
	gen     int
	edges   []Edge

	fifo chan uint32
}

// NewBitBangEngine creates an engine on the named chip. Nothing is opened
// until Configure.
func NewBitBangEngine(chip string) (*BitBangEngine, error) {
	if chip == "" {
		chip = DefaultChip
	}
	return &BitBangEngine{
		chipName:    chip,
		PullTimeout: DefaultPullTimeout,
		fifo:        make(chan uint32, 4),
	}, nil
}

// Configure requests the line as an output idling high.
func (e *BitBangEngine) Configure(pin int, cfg dht.EngineConfig) error {
	if err := checkConfig(cfg); err != nil {
		return err
	}

	chip, err := gpiocdev.NewChip(e.chipName)
	if err != nil {
		return fmt.Errorf("open gpio chip: %w", err)
	}

	line, err := chip.RequestLine(pin,
		gpiocdev.AsOutput(1),
		gpiocdev.WithPullUp,
		gpiocdev.WithEventHandler(e.handleEvent))
	if err != nil {
		chip.Close()
		return fmt.Errorf("request data pin %d: %w", pin, err)
	}

	e.chip = chip
	e.line = line
	e.tick = cfg.Tick()
	return nil
}

// SetEnabled arms or disarms capture. Disarming returns the line to an idle
// high output and drops any unread words.
func (e *BitBangEngine) SetEnabled(enabled bool) error {
	if e.line == nil {
		return errors.New("gpio: engine not configured")
	}

	e.mu.Lock()
	e.enabled = enabled
	e.gen++
	e.edges = e.edges[:0]
	e.mu.Unlock()

	if enabled {
		return nil
	}
	e.drain()
	if err := e.line.Reconfigure(gpiocdev.WithoutEdges, gpiocdev.AsOutput(1)); err != nil {
		return fmt.Errorf("release data pin: %w", err)
	}
	return nil
}

// Push holds the line low for v engine ticks, then releases it and starts
// capturing the reply.
func (e *BitBangEngine) Push(v uint32) error {
	e.mu.Lock()
	enabled, gen := e.enabled, e.gen
	e.mu.Unlock()
	if !enabled {
		return errors.New("gpio: push while disabled")
	}

	if err := e.line.SetValue(0); err != nil {
		return fmt.Errorf("start pulse: %w", err)
	}
	time.Sleep(time.Duration(v) * e.tick)
	if err := e.line.Reconfigure(gpiocdev.AsInput, gpiocdev.WithPullUp, gpiocdev.WithBothEdges); err != nil {
		return fmt.Errorf("switch data pin to input: %w", err)
	}

	go e.collect(gen)
	return nil
}

// WaitPull returns the next decoded word.
func (e *BitBangEngine) WaitPull() (uint32, error) {
	timeout := e.PullTimeout
	if timeout <= 0 {
		timeout = DefaultPullTimeout
	}
	select {
	case v := <-e.fifo:
		return v, nil
	case <-time.After(timeout):
		return 0, fmt.Errorf("%w: no frame within %v", dht.ErrTimeout, timeout)
	}
}

// Close releases the line, leaving it as an input with pull-up.
func (e *BitBangEngine) Close() error {
	var errs []error

	if e.line != nil {
		if err := e.line.Reconfigure(gpiocdev.WithoutEdges, gpiocdev.AsInput, gpiocdev.WithPullUp); err != nil {
			errs = append(errs, fmt.Errorf("reconfigure data pin: %w", err))
		}
		if err := e.line.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close data pin: %w", err))
		}
	}
	if e.chip != nil {
		if err := e.chip.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close chip: %w", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("close errors: %v", errs)
	}
	return nil
}

func (e *BitBangEngine) handleEvent(evt gpiocdev.LineEvent) {
	e.mu.Lock()
	if e.enabled {
		e.edges = append(e.edges, Edge{
			Rising: evt.Type == gpiocdev.LineEventRisingEdge,
			At:     evt.Timestamp,
		})
	}
	e.mu.Unlock()
}

// collect waits for the capture window, decodes the edges seen and queues the
// two words. A frame from a superseded Push is discarded.
func (e *BitBangEngine) collect(gen int) {
	time.Sleep(captureWindow)

	e.mu.Lock()
	if gen != e.gen || !e.enabled {
		e.mu.Unlock()
		return
	}
	edges := append([]Edge(nil), e.edges...)
	e.mu.Unlock()

	data, sum, err := DecodeEdges(edges)
	if err != nil {
		log.Debugf("gpio: discarding frame: %v (%d edges)", err, len(edges))
		return
	}
	e.fifo <- data
	e.fifo <- sum
}

func (e *BitBangEngine) drain() {
	for {
		select {
		case <-e.fifo:
		default:
			return
		}
	}
}
