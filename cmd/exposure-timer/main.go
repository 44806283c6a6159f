// Command exposure-timer drives a darkroom enlarger timer panel and publishes
// exposure events to MQTT.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/host/v3"

	"github.com/sweeney/exposure-timer/internal/config"
	"github.com/sweeney/exposure-timer/internal/display"
	"github.com/sweeney/exposure-timer/internal/gpio"
	"github.com/sweeney/exposure-timer/internal/input"
	"github.com/sweeney/exposure-timer/internal/logger"
	"github.com/sweeney/exposure-timer/internal/logic"
	"github.com/sweeney/exposure-timer/internal/mqtt"
	"github.com/sweeney/exposure-timer/internal/softtimer"
	"github.com/sweeney/exposure-timer/internal/status"
	"github.com/sweeney/exposure-timer/internal/store"
	"github.com/sweeney/exposure-timer/internal/web"
)

func main() {
	configPath := flag.String("config", "/etc/exposure-timer/config.yaml", "Path to YAML config file")
	broker := flag.String("broker", "", "MQTT broker address (overrides config, empty disables)")
	httpAddr := flag.String("http", "", "HTTP status address (overrides config, empty disables)")
	logLevel := flag.String("log-level", "", "Log level: debug, info, warn, error")
	tick := flag.Duration("tick", 0, "Control loop interval (overrides config)")
	basic := flag.Bool("basic", false, "Buzzer-less board: drop the alert menu items")
	printState := flag.Bool("print-state", false, "Print current panel inputs and exit")

	flag.Parse()

	// The configured logger needs the config; until then log at info.
	boot := logger.New(logger.InfoLevel)

	cfg, err := loadConfig(*configPath, func(cfg *config.Config) {
		// Only flags given on the command line override the file.
		flag.Visit(func(f *flag.Flag) {
			switch f.Name {
			case "broker":
				cfg.MQTT.Broker = *broker
			case "http":
				cfg.HTTP.Addr = *httpAddr
			case "log-level":
				cfg.LogLevel = *logLevel
			case "tick":
				cfg.Tick = *tick
			case "basic":
				if *basic {
					cfg.Menu.Items = config.Basic().Menu.Items
				}
			}
		})
	})
	if err != nil {
		boot.Fatalw("config", "path", *configPath, "error", err)
	}

	if err := run(cfg, *printState); err != nil {
		boot.Fatalw("fatal", "error", err)
	}
}

// loadConfig reads path, applies override and validates the result.
func loadConfig(path string, override func(*config.Config)) (*config.Config, error) {
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	if override != nil {
		override(cfg)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func run(cfg *config.Config, printState bool) error {
	lg := logger.New(cfg.LogLevel)
	defer lg.Sync()

	board, err := gpio.NewRealBoard(cfg.GPIOPins(), gpio.Options{
		StepsPerDetent: cfg.Encoder.StepsPerDetent,
		ToneHz:         cfg.Tone.FrequencyHz,
	}, lg)
	if err != nil {
		return fmt.Errorf("init gpio: %w", err)
	}
	defer board.Close()

	// Print state mode
	if printState {
		s, err := board.Read()
		if err != nil {
			return fmt.Errorf("read gpio: %w", err)
		}
		fmt.Printf("PRIMARY: %s, SECONDARY: %s\n", pressString(s.Primary), pressString(s.Secondary))
		return nil
	}

	buses := newBusSet()
	defer buses.Close()

	panel, err := openDisplay(cfg, buses, lg)
	if err != nil {
		return err
	}
	defer panel.Close()

	st, err := openStore(cfg, buses, lg)
	if err != nil {
		return err
	}
	defer st.Close()

	mcfg, err := cfg.MachineConfig()
	if err != nil {
		return err
	}
	machine, err := logic.NewMachine(mcfg, logic.Hardware{
		Display: panel,
		Output:  relay{board: board, log: lg},
		Tone:    buzzer{board: board, log: lg},
	}, logic.NewSettings(st))
	if err != nil {
		return fmt.Errorf("load settings: %w", err)
	}

	bootID := uuid.NewString()

	var publisher interface {
		mqtt.Publisher
		mqtt.ConnectionStatus
	} = mqtt.Nop{}
	if cfg.MQTT.Broker != "" {
		publisher = mqtt.NewRealPublisher(cfg.MQTT.Broker, cfg.MQTT.ClientID, bootID, lg)
	} else {
		lg.Infow("mqtt disabled")
	}
	defer publisher.Close()

	// Initialize status tracker (before STARTUP so snapshot is available)
	tracker := status.NewTracker(time.Now(), bootID, statusConfig(cfg))
	if net := readNetworkInfo(); net != nil {
		tracker.SetNetwork(net)
	}
	tracker.Update(machine.Status(time.Now()))

	// Publish startup event with full status snapshot
	snap := tracker.Snapshot()
	startupEvent := mqtt.SystemEvent{
		Timestamp:  snap.Now,
		Event:      "STARTUP",
		Retained:   true,
		RawPayload: status.FormatStatusEvent(snap, "STARTUP", ""),
	}
	if err := publisher.PublishSystem(startupEvent); err != nil {
		lg.Warnw("failed to publish startup event", "error", err)
	} else {
		lg.Infow("published startup event")
	}

	// Start HTTP status server
	if cfg.HTTP.Addr != "" {
		srv := web.New(cfg.HTTP.Addr, tracker)
		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				lg.Errorw("http server error", "error", err)
			}
		}()
		defer srv.Shutdown(context.Background())
		lg.Infow("http status server listening", "addr", cfg.HTTP.Addr)
	}

	lg.Infow("started",
		"boot_id", bootID,
		"tick", cfg.Tick,
		"debounce", cfg.Button.Debounce,
		"long_press", cfg.Button.LongPress,
		"broker", cfg.MQTT.Broker,
		"heartbeat", cfg.MQTT.Heartbeat,
		"display", cfg.Display.Backend,
		"storage", cfg.Storage.Backend)

	ticker := time.NewTicker(cfg.Tick)
	defer ticker.Stop()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	c := newController(cfg, board, machine, panel, publisher, publisher, tracker, lg, time.Now)
	return c.runLoop(ticker.C, sigCh)
}

// panel is the display as the control loop sees it: the machine draws into
// it and the loop flushes once per tick.
type panel interface {
	logic.Display
	Flush() error
	Close() error
}

// headless backs a panel-less install. Nothing is drawn.
type headless struct{ *display.Fake }

func (headless) Close() error { return nil }

func openDisplay(cfg *config.Config, buses *busSet, lg *logger.Logger) (panel, error) {
	if cfg.Display.Backend == config.DisplayNone {
		lg.Infow("display disabled")
		return headless{display.NewFake()}, nil
	}
	bus, err := buses.Open(cfg.Display.Bus)
	if err != nil {
		return nil, err
	}
	d, err := display.Open(bus, cfg.Display.Address, lg)
	if err != nil {
		return nil, fmt.Errorf("init display: %w", err)
	}
	return d, nil
}

func openStore(cfg *config.Config, buses *busSet, lg *logger.Logger) (store.Store, error) {
	switch cfg.Storage.Backend {
	case config.StorageMemory:
		lg.Warnw("settings are not persisted", "storage", cfg.Storage.Backend)
		return store.NewMem(store.FileSize), nil
	case config.StorageEEPROM:
		bus, err := buses.Open(cfg.Storage.Bus)
		if err != nil {
			return nil, err
		}
		opts := store.EEPROMOptionsForSize(cfg.Storage.Size)
		e, err := store.OpenEEPROM(bus, cfg.Storage.Address, opts, lg)
		if err != nil {
			return nil, fmt.Errorf("init eeprom: %w", err)
		}
		return e, nil
	default:
		f, err := store.OpenFile(cfg.Storage.Path, lg)
		if err != nil {
			return nil, fmt.Errorf("open settings: %w", err)
		}
		return f, nil
	}
}

// busSet opens each I2C bus once, however many devices share it.
type busSet struct {
	initDone bool
	buses    map[string]i2c.BusCloser
}

func newBusSet() *busSet {
	return &busSet{buses: map[string]i2c.BusCloser{}}
}

func (b *busSet) Open(name string) (i2c.Bus, error) {
	if bus, ok := b.buses[name]; ok {
		return bus, nil
	}
	if !b.initDone {
		if _, err := host.Init(); err != nil {
			return nil, fmt.Errorf("init periph host: %w", err)
		}
		b.initDone = true
	}
	bus, err := i2creg.Open(name)
	if err != nil {
		return nil, fmt.Errorf("open i2c bus %q: %w", name, err)
	}
	b.buses[name] = bus
	return bus, nil
}

func (b *busSet) Close() {
	for _, bus := range b.buses {
		bus.Close()
	}
}

// relay adapts the board's relay line for the machine. A failed write is
// logged; the machine's view of the output stays authoritative.
type relay struct {
	board gpio.Board
	log   *logger.Logger
}

func (r relay) Set(on bool) {
	if err := r.board.SetRelay(on); err != nil {
		r.log.Errorw("relay write failed", "on", on, "error", err)
	}
}

type buzzer struct {
	board gpio.Board
	log   *logger.Logger
}

func (b buzzer) On()  { b.set(true) }
func (b buzzer) Off() { b.set(false) }

func (b buzzer) set(on bool) {
	if err := b.board.SetBuzzer(on); err != nil {
		b.log.Errorw("buzzer write failed", "on", on, "error", err)
	}
}

func statusConfig(cfg *config.Config) status.Config {
	return status.Config{
		TickMs:      cfg.Tick.Milliseconds(),
		DebounceMs:  cfg.Button.Debounce.Milliseconds(),
		LongPressMs: cfg.Button.LongPress.Milliseconds(),
		HeartbeatMs: cfg.MQTT.Heartbeat.Milliseconds(),
		Broker:      cfg.MQTT.Broker,
		HTTPAddr:    cfg.HTTP.Addr,
		Storage:     cfg.Storage.Backend,
		Display:     cfg.Display.Backend,
		MenuItems:   append([]string(nil), cfg.Menu.Items...),
	}
}

// controller owns one tick of the daemon: sample the panel, classify the
// buttons, advance the machine, then fan the results out.
type controller struct {
	board      gpio.Board
	primary    *input.Button
	secondary  *input.Button
	machine    *logic.Machine
	display    interface{ Flush() error }
	publisher  mqtt.Publisher
	mqttStatus mqtt.ConnectionStatus
	tracker    *status.Tracker
	log        *logger.Logger
	now        func() time.Time

	heartbeat     *softtimer.Timer
	heartbeatEach time.Duration
	flushFailing  bool
}

func newController(cfg *config.Config, board gpio.Board, machine *logic.Machine, disp interface{ Flush() error },
	publisher mqtt.Publisher, mqttStatus mqtt.ConnectionStatus, tracker *status.Tracker, lg *logger.Logger, now func() time.Time) *controller {
	return &controller{
		board:         board,
		primary:       input.NewButton(cfg.Button.Debounce, cfg.Button.LongPress),
		secondary:     input.NewButton(cfg.Button.Debounce, cfg.Button.LongPress),
		machine:       machine,
		display:       disp,
		publisher:     publisher,
		mqttStatus:    mqttStatus,
		tracker:       tracker,
		log:           lg,
		now:           now,
		heartbeat:     softtimer.New(cfg.MQTT.Heartbeat),
		heartbeatEach: cfg.MQTT.Heartbeat,
	}
}

func (c *controller) runLoop(tick <-chan time.Time, sig <-chan os.Signal) error {
	if c.heartbeatEach > 0 {
		c.heartbeat.Start(c.now(), softtimer.Loop)
	}

	for {
		select {
		case s := <-sig:
			c.log.Infow("shutting down", "signal", s.String())
			c.shutdown(signalName(s))
			return nil

		case <-tick:
			c.step(c.now())
		}
	}
}

func (c *controller) step(t time.Time) {
	sample, err := c.board.Read()
	if err != nil {
		c.log.Errorw("gpio read error", "error", err)
		return
	}

	events, err := c.machine.Process(logic.Input{
		Primary:   c.primary.Update(sample.Primary, t),
		Secondary: c.secondary.Update(sample.Secondary, t),
		Step:      sample.Step,
		Time:      t,
	})
	if err != nil {
		c.log.Errorw("settings store error", "error", err)
	}

	for _, event := range events {
		c.log.Infow("event",
			"type", event.Type,
			"state", event.State,
			"setting", event.Setting.String(),
			"remaining", event.Remaining.String(),
			"slot", event.Slot,
			"detail", event.Detail)
		if err := c.publisher.Publish(event); err != nil {
			// Don't crash on publish failure
			c.log.Warnw("publish error", "event", event.Type, "error", err)
		}
	}

	if err := c.display.Flush(); err != nil {
		if !c.flushFailing {
			c.log.Errorw("display flush failed", "error", err)
		}
		c.flushFailing = true
	} else if c.flushFailing {
		c.log.Infow("display recovered")
		c.flushFailing = false
	}

	// Update status tracker for HTTP consumers
	c.tracker.Update(c.machine.Status(t))
	c.tracker.SetMQTTConnected(c.mqttStatus.IsConnected())

	if c.heartbeat.Update(t) {
		c.sendHeartbeat(t)
	}
}

func (c *controller) sendHeartbeat(t time.Time) {
	// Refresh network info for heartbeat
	if net := readNetworkInfo(); net != nil {
		c.tracker.SetNetwork(net)
	}
	snap := c.tracker.Snapshot()
	counts := snap.Timer.Counts
	c.log.Infow("heartbeat",
		"uptime", snap.Uptime().Truncate(time.Second),
		"started", counts.Started,
		"completed", counts.Completed,
		"aborted", counts.Aborted,
		"alerts", counts.Alerts)

	event := mqtt.SystemEvent{
		Timestamp:  t,
		Event:      "HEARTBEAT",
		RawPayload: status.FormatStatusEvent(snap, "HEARTBEAT", ""),
	}
	if err := c.publisher.PublishSystem(event); err != nil {
		c.log.Warnw("heartbeat publish error", "error", err)
	}
}

func (c *controller) shutdown(reason string) {
	c.tracker.Update(c.machine.Status(c.now()))
	c.tracker.SetMQTTConnected(c.mqttStatus.IsConnected())
	snap := c.tracker.Snapshot()

	event := mqtt.SystemEvent{
		Timestamp:  c.now(),
		Event:      "SHUTDOWN",
		Reason:     reason,
		Retained:   true,
		RawPayload: status.FormatStatusEvent(snap, "SHUTDOWN", reason),
	}
	if err := c.publisher.PublishSystem(event); err != nil {
		c.log.Warnw("failed to publish shutdown event", "error", err)
	} else {
		c.log.Infow("published shutdown event")
	}
}

func signalName(s os.Signal) string {
	switch s {
	case syscall.SIGINT:
		return "SIGINT"
	case syscall.SIGTERM:
		return "SIGTERM"
	default:
		return "UNKNOWN"
	}
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

func pressString(down bool) string {
	if down {
		return "DOWN"
	}
	return "UP"
}
