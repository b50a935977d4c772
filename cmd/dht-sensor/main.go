// Command dht-sensor reads a DHT11/DHT22 humidity and temperature sensor and
// publishes readings to MQTT.
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"syscall"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/sweeney/dht-sensor/internal/dht"
	"github.com/sweeney/dht-sensor/internal/gpio"
	"github.com/sweeney/dht-sensor/internal/logging"
	"github.com/sweeney/dht-sensor/internal/logic"
	"github.com/sweeney/dht-sensor/internal/mdns"
	"github.com/sweeney/dht-sensor/internal/mqtt"
	"github.com/sweeney/dht-sensor/internal/status"
	"github.com/sweeney/dht-sensor/internal/web"
)

type options struct {
	family       string
	engine       string
	chip         string
	pin          int
	poll         time.Duration
	broker       string
	heartbeat    time.Duration
	httpAddr     string
	wsBroker     string
	mdnsName     string
	thresholds   logic.Thresholds
	printReading bool
}

func main() {
	var o options
	var tempDelta, humDelta float64
	flag.StringVar(&o.family, "family", "dht22", "Sensor family: dht11, dht22 or am2302")
	flag.StringVar(&o.engine, "engine", "gpio", `Timing engine: "gpio" (bit-banged line) or "sim" (scripted readings)`)
	flag.StringVar(&o.chip, "chip", gpio.DefaultChip, "GPIO character device")
	flag.IntVar(&o.pin, "pin", gpio.DefaultPin, "GPIO line offset of the data pin")
	flag.DurationVar(&o.poll, "poll", 2*time.Second, "Sensor polling interval")
	flag.StringVar(&o.broker, "broker", "tcp://192.168.1.200:1883", "MQTT broker address")
	flag.DurationVar(&o.heartbeat, "heartbeat", 15*time.Minute, "Heartbeat interval (0 to disable)")
	flag.StringVar(&o.httpAddr, "http", ":80", "HTTP status address (empty to disable)")
	wsBroker := flag.String("ws-broker", "=broker", `MQTT websocket URL for live UI ("=broker" derives from --broker, "off" disables)`)
	flag.StringVar(&o.mdnsName, "mdns", "dht-sensor", "mDNS instance name for the status page (empty to disable)")
	flag.Float64Var(&tempDelta, "temp-delta", 0.2, "Temperature change (°C) that triggers a new reading event")
	flag.Float64Var(&humDelta, "humidity-delta", 1.0, "Humidity change (%RH) that triggers a new reading event")
	logLevel := flag.String("log-level", "info", "Log level: debug, info, warn, error")
	flag.BoolVar(&o.printReading, "print-reading", false, "Print one reading and exit")

	flag.Parse()

	if err := logging.Setup(*logLevel); err != nil {
		log.Fatalf("fatal: %v", err)
	}
	o.wsBroker = resolveWSBroker(*wsBroker, o.broker)
	o.thresholds = logic.Thresholds{Temperature: float32(tempDelta), Humidity: float32(humDelta)}

	if err := run(o); err != nil {
		log.Fatalf("fatal: %v", err)
	}
}

func run(o options) error {
	family, err := dht.ParseFamily(o.family)
	if err != nil {
		return err
	}

	engine, closeEngine, err := newEngine(o.engine, o.chip, family)
	if err != nil {
		return fmt.Errorf("init engine: %w", err)
	}
	defer closeEngine()

	sensor, err := dht.New(engine, o.pin, dht.Config{Family: family})
	if err != nil {
		return fmt.Errorf("init sensor: %w", err)
	}

	if o.printReading {
		r, err := printReading(sensor, 5, time.Sleep)
		if err != nil {
			return fmt.Errorf("read sensor: %w", err)
		}
		fmt.Printf("%s: %s (%.1f°F)\n", family, r, r.Fahrenheit())
		return nil
	}

	publisher, err := mqtt.NewRealPublisher(o.broker)
	if err != nil {
		return fmt.Errorf("init mqtt: %w", err)
	}
	defer publisher.Close()

	// Tracker first so the STARTUP snapshot is available.
	tracker := status.NewTracker(time.Now(), status.Config{
		Family:      family.String(),
		Engine:      o.engine,
		Chip:        o.chip,
		Pin:         o.pin,
		PollMs:      o.poll.Milliseconds(),
		HeartbeatMs: o.heartbeat.Milliseconds(),
		Broker:      o.broker,
		HTTPPort:    o.httpAddr,
		WSBroker:    o.wsBroker,
	})
	if net := readNetworkInfo(); net != nil {
		tracker.SetNetwork(net)
	}
	tracker.SetMQTTConnected(publisher.IsConnected())

	snap := tracker.Snapshot()
	startupEvent := mqtt.SystemEvent{
		Timestamp:  snap.Now,
		Event:      "STARTUP",
		Retained:   true,
		RawPayload: status.FormatStatusEvent(snap, "STARTUP", ""),
	}
	if err := publisher.PublishSystem(startupEvent); err != nil {
		log.Printf("failed to publish startup event: %v", err)
	} else {
		log.Printf("published startup event")
	}

	if o.httpAddr != "" {
		srv := web.New(o.httpAddr, tracker)
		go func() {
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Printf("http server error: %v", err)
			}
		}()
		defer srv.Shutdown(context.Background())
		log.Printf("http status server listening on %s", o.httpAddr)

		if o.mdnsName != "" {
			txt := mdns.TXT("family", family.String(), "path", "/index.json", "id", snap.InstanceID)
			adv, err := mdns.Advertise(o.mdnsName, o.httpAddr, txt)
			if err != nil {
				log.Warnf("mdns disabled: %v", err)
			} else {
				defer adv.Close()
			}
		}
	}

	log.Printf("started: family=%s engine=%s pin=%d poll=%v broker=%s heartbeat=%v",
		family, o.engine, o.pin, o.poll, o.broker, o.heartbeat)

	ticker := time.NewTicker(o.poll)
	defer ticker.Stop()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	return runLoop(sensor, publisher, publisher, tracker, o.thresholds, o.heartbeat, time.Now, ticker.C, sigCh)
}

func runLoop(sensor logic.Reader, publisher mqtt.Publisher, mqttStatus mqtt.ConnectionStatus, tracker *status.Tracker, thresholds logic.Thresholds, heartbeat time.Duration, now func() time.Time, tick <-chan time.Time, sig <-chan os.Signal) error {
	startTime := now()
	monitor := logic.NewMonitor(thresholds, startTime)

	for {
		select {
		case s := <-sig:
			log.Printf("received %v, shutting down", s)
			if monitor.HasReading() {
				last := monitor.Current()
				log.Printf("last fresh reading: %.1f°C %.1f%% at %s", last.Temperature, last.Humidity, last.Time.Format(time.RFC3339))
			}
			if monitor.Failing() {
				log.Warnf("sensor was failing at shutdown")
			}
			signalName := "UNKNOWN"
			if s == syscall.SIGINT {
				signalName = "SIGINT"
			} else if s == syscall.SIGTERM {
				signalName = "SIGTERM"
			}
			event := mqtt.SystemEvent{
				Timestamp: now(),
				Event:     "SHUTDOWN",
				Reason:    signalName,
				Retained:  true,
			}
			if tracker != nil {
				if mqttStatus != nil {
					tracker.SetMQTTConnected(mqttStatus.IsConnected())
				}
				event.RawPayload = status.FormatStatusEvent(tracker.Snapshot(), "SHUTDOWN", signalName)
			}
			if err := publisher.PublishSystem(event); err != nil {
				log.Printf("failed to publish shutdown event: %v", err)
			} else {
				log.Printf("published shutdown event")
			}
			return nil

		case <-tick:
			t := now()
			sample := logic.ReadSample(sensor, t)
			if sample.Outcome == logic.OutcomeFailed {
				log.Debugf("sensor read error: %s", sample.Err)
			}

			for _, event := range monitor.Process(sample) {
				log.Printf("event: %s %.1f°C %.1f%% outcome=%s %s", event.Type, event.Temperature, event.Humidity, event.Outcome, event.ErrKind)
				if err := publisher.Publish(event); err != nil {
					// Publish failures must not stop the loop.
					log.Printf("publish error: %v", err)
				}
			}

			if tracker != nil {
				tracker.Update(sample, monitor.CountsSnapshot())
				if mqttStatus != nil {
					tracker.SetMQTTConnected(mqttStatus.IsConnected())
				}
			}

			hbData := monitor.CheckHeartbeat(t, heartbeat)
			if hbData == nil {
				continue
			}
			log.Printf("heartbeat: uptime=%v failing=%v fresh=%d cached=%d fallback=%d failed=%d",
				hbData.Uptime, monitor.Failing(), hbData.Counts.Fresh, hbData.Counts.Cached, hbData.Counts.Fallback, hbData.Counts.Failed)

			hbEvent := mqtt.SystemEvent{
				Timestamp: hbData.Timestamp,
				Event:     "HEARTBEAT",
			}
			if tracker != nil {
				if net := readNetworkInfo(); net != nil {
					tracker.SetNetwork(net)
				}
				hbEvent.RawPayload = status.FormatStatusEvent(tracker.Snapshot(), "HEARTBEAT", "")
			}
			if err := publisher.PublishSystem(hbEvent); err != nil {
				log.Printf("heartbeat publish error: %v", err)
			}
		}
	}
}

// printReading retries until the sensor returns a reading. The first reads
// after power-up fail while the sensor settles.
func printReading(sensor *dht.Sensor, attempts int, sleep func(time.Duration)) (dht.Reading, error) {
	var err error
	for i := 0; i < attempts; i++ {
		var r dht.Reading
		if r, err = sensor.Read(); err == nil {
			return r, nil
		}
		log.Debugf("attempt %d: %v", i+1, err)
		sleep(sensor.Family().MinRequestInterval())
	}
	return dht.Reading{}, err
}

// newEngine opens the timing engine named by kind.
func newEngine(kind, chip string, family dht.Family) (dht.TimingEngine, func() error, error) {
	switch kind {
	case "gpio":
		e, err := gpio.NewBitBangEngine(chip)
		if err != nil {
			return nil, nil, err
		}
		return e, e.Close, nil
	case "sim":
		return dht.NewFakeEngine(simFrames(family)...), func() error { return nil }, nil
	}
	return nil, nil, fmt.Errorf("%w: unknown engine %q", dht.ErrConfiguration, kind)
}

// simFrames scripts a slow warm-up of a room with one corrupted frame in the
// middle. The engine repeats the last frame once the script runs out.
func simFrames(family dht.Family) []dht.Frame {
	var frames []dht.Frame
	for i := 0; i < 12; i++ {
		tenthsC, tenthsRH := 195+uint16(i)*3, 520-uint16(i)*5
		if family == dht.FamilyDHT11 {
			frames = append(frames, dht.Good(tenthsRH/10<<8|tenthsRH%10, tenthsC/10<<8|tenthsC%10))
		} else {
			frames = append(frames, dht.Good(tenthsRH, tenthsC))
		}
		if i == 6 {
			bad := frames[len(frames)-1]
			bad.Sample.Checksum++
			frames = append(frames, bad)
		}
	}
	return frames
}

// pi-helper env var names (written to /run/pi-helper.env).
const (
	envNetworkType       = "NETWORK_TYPE"
	envNetworkIP         = "NETWORK_IP"
	envNetworkStatus     = "NETWORK_STATUS"
	envNetworkGateway    = "NETWORK_GATEWAY"
	envNetworkWifiStatus = "NETWORK_WIFI_STATUS"
	envNetworkWifiSSID   = "NETWORK_WIFI_SSID"
)

func readNetworkInfo() *status.NetworkInfo {
	s := os.Getenv(envNetworkStatus)
	if s == "" {
		return nil
	}
	return &status.NetworkInfo{
		Type:       os.Getenv(envNetworkType),
		IP:         os.Getenv(envNetworkIP),
		Status:     s,
		Gateway:    os.Getenv(envNetworkGateway),
		WifiStatus: os.Getenv(envNetworkWifiStatus),
		SSID:       os.Getenv(envNetworkWifiSSID),
	}
}

// resolveWSBroker converts the --ws-broker flag value into a concrete URL.
// "=broker" derives ws://host:9001 from the TCP broker address; "off" disables.
func resolveWSBroker(ws, broker string) string {
	if ws == "off" {
		return ""
	}
	if ws != "=broker" {
		return ws
	}
	u, err := url.Parse(broker)
	if err != nil {
		log.Printf("ws-broker: cannot parse --broker %q: %v", broker, err)
		return ""
	}
	u.Scheme = "ws"
	u.Host = u.Hostname() + ":9001"
	return u.String()
}
