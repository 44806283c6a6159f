// Package config loads the daemon configuration from YAML.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/sweeney/exposure-timer/internal/display"
	"github.com/sweeney/exposure-timer/internal/gpio"
	"github.com/sweeney/exposure-timer/internal/input"
	"github.com/sweeney/exposure-timer/internal/logger"
	"github.com/sweeney/exposure-timer/internal/logic"
	"github.com/sweeney/exposure-timer/internal/store"
)

// Validation errors.
var (
	ErrInvalidPin      = errors.New("invalid pin assignment")
	ErrUnknownMenuItem = logic.ErrUnknownMenuItem
	ErrInvalidBackend  = errors.New("invalid backend")
	ErrInvalidDuration = errors.New("invalid duration")
)

// Storage backends.
const (
	StorageFile   = "file"
	StorageEEPROM = "eeprom"
	StorageMemory = "memory"
)

// Display backends.
const (
	DisplayHT16K33 = "ht16k33"
	DisplayNone    = "none"
)

// Config represents the daemon configuration.
type Config struct {
	Tick     time.Duration `yaml:"tick"`
	LogLevel string        `yaml:"log_level"`
	Pins     PinsConfig    `yaml:"pins"`
	Button   ButtonConfig  `yaml:"button"`
	Encoder  EncoderConfig `yaml:"encoder"`
	Tone     ToneConfig    `yaml:"tone"`
	Display  DisplayConfig `yaml:"display"`
	Storage  StorageConfig `yaml:"storage"`
	Menu     MenuConfig    `yaml:"menu"`
	Blink    BlinkConfig   `yaml:"blink"`
	MQTT     MQTTConfig    `yaml:"mqtt"`
	HTTP     HTTPConfig    `yaml:"http"`
}

// PinsConfig is the GPIO line assignment (BCM numbering).
type PinsConfig struct {
	Chip      string `yaml:"chip"`
	Primary   int    `yaml:"primary"`
	Secondary int    `yaml:"secondary"`
	EncoderA  int    `yaml:"encoder_a"`
	EncoderB  int    `yaml:"encoder_b"`
	Relay     int    `yaml:"relay"`
	Buzzer    int    `yaml:"buzzer"`
}

// ButtonConfig contains button timing.
type ButtonConfig struct {
	Debounce  time.Duration `yaml:"debounce"`
	LongPress time.Duration `yaml:"long_press"`
}

// EncoderConfig describes the rotary encoder.
type EncoderConfig struct {
	StepsPerDetent int `yaml:"steps_per_detent"`
}

// ToneConfig describes the buzzer drive.
type ToneConfig struct {
	FrequencyHz int `yaml:"frequency_hz"`
}

// DisplayConfig selects and addresses the display.
type DisplayConfig struct {
	Backend string `yaml:"backend"` // ht16k33 or none
	Bus     string `yaml:"bus"`
	Address uint16 `yaml:"address"`
}

// StorageConfig selects the settings backend.
type StorageConfig struct {
	Backend string `yaml:"backend"` // file, eeprom or memory
	Path    string `yaml:"path"`    // file backend
	Bus     string `yaml:"bus"`     // eeprom backend
	Address uint16 `yaml:"address"` // eeprom backend
	Size    int    `yaml:"size"`    // eeprom backend, bytes
}

// MenuConfig lists the enabled menu items in order.
type MenuConfig struct {
	Items []string `yaml:"items"`
}

// BlinkConfig contains the display blink periods.
type BlinkConfig struct {
	Run   time.Duration `yaml:"run"`
	Pause time.Duration `yaml:"pause"`
}

// MQTTConfig contains broker settings. An empty broker disables MQTT.
type MQTTConfig struct {
	Broker    string        `yaml:"broker"`
	ClientID  string        `yaml:"client_id"`
	Heartbeat time.Duration `yaml:"heartbeat"` // 0 disables
}

// HTTPConfig contains the status server settings. An empty addr disables it.
type HTTPConfig struct {
	Addr string `yaml:"addr"`
}

// Default returns the standard board configuration.
func Default() *Config {
	pins := gpio.DefaultPins()
	items := logic.DefaultMenuItems()
	names := make([]string, len(items))
	for i, it := range items {
		names[i] = it.String()
	}

	return &Config{
		Tick:     10 * time.Millisecond,
		LogLevel: logger.InfoLevel,
		Pins: PinsConfig{
			Chip:      pins.Chip,
			Primary:   pins.Primary,
			Secondary: pins.Secondary,
			EncoderA:  pins.EncoderA,
			EncoderB:  pins.EncoderB,
			Relay:     pins.Relay,
			Buzzer:    pins.Buzzer,
		},
		Button: ButtonConfig{
			Debounce:  input.DefaultDebounce,
			LongPress: input.DefaultLongPress,
		},
		Encoder: EncoderConfig{StepsPerDetent: input.DefaultStepsPerDetent},
		Tone:    ToneConfig{FrequencyHz: gpio.DefaultToneHz},
		Display: DisplayConfig{
			Backend: DisplayHT16K33,
			Bus:     "1",
			Address: display.DefaultAddress,
		},
		Storage: StorageConfig{
			Backend: StorageFile,
			Path:    "/var/lib/exposure-timer/settings.bin",
			Bus:     "1",
			Address: store.DefaultEEPROMAddress,
			Size:    store.DefaultEEPROMOptions().Size,
		},
		Menu: MenuConfig{Items: names},
		Blink: BlinkConfig{
			Run:   logic.DefaultRunBlink,
			Pause: logic.DefaultPauseBlink,
		},
		MQTT: MQTTConfig{
			ClientID:  "exposure-timer",
			Heartbeat: 15 * time.Minute,
		},
		HTTP: HTTPConfig{Addr: ":80"},
	}
}

// Basic returns the configuration of the buzzer-less board variant.
func Basic() *Config {
	cfg := Default()
	items := logic.BasicMenuItems()
	cfg.Menu.Items = make([]string, len(items))
	for i, it := range items {
		cfg.Menu.Items[i] = it.String()
	}
	return cfg
}

// Load loads configuration from a YAML file. If the file doesn't exist or
// fields are missing, it uses default values.
func Load(filename string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(filename)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	cfg.ensureDefaults()

	return cfg, nil
}

// Save saves the configuration to a YAML file.
func (c *Config) Save(filename string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(filename, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// ensureDefaults back-fills zero values that YAML left unset or zeroed.
func (c *Config) ensureDefaults() {
	def := Default()

	if c.Tick <= 0 {
		c.Tick = def.Tick
	}
	if c.LogLevel == "" {
		c.LogLevel = def.LogLevel
	}
	if c.Pins.Chip == "" {
		c.Pins.Chip = def.Pins.Chip
	}
	if c.Button.Debounce <= 0 {
		c.Button.Debounce = def.Button.Debounce
	}
	if c.Button.LongPress <= 0 {
		c.Button.LongPress = def.Button.LongPress
	}
	if c.Encoder.StepsPerDetent <= 0 {
		c.Encoder.StepsPerDetent = def.Encoder.StepsPerDetent
	}
	if c.Tone.FrequencyHz <= 0 {
		c.Tone.FrequencyHz = def.Tone.FrequencyHz
	}
	if c.Display.Backend == "" {
		c.Display.Backend = def.Display.Backend
	}
	if c.Display.Bus == "" {
		c.Display.Bus = def.Display.Bus
	}
	if c.Display.Address == 0 {
		c.Display.Address = def.Display.Address
	}
	if c.Storage.Backend == "" {
		c.Storage.Backend = def.Storage.Backend
	}
	if c.Storage.Path == "" {
		c.Storage.Path = def.Storage.Path
	}
	if c.Storage.Bus == "" {
		c.Storage.Bus = def.Storage.Bus
	}
	if c.Storage.Address == 0 {
		c.Storage.Address = def.Storage.Address
	}
	if c.Storage.Size <= 0 {
		c.Storage.Size = def.Storage.Size
	}
	if c.Menu.Items == nil {
		c.Menu.Items = def.Menu.Items
	}
	if c.Blink.Run <= 0 {
		c.Blink.Run = def.Blink.Run
	}
	if c.Blink.Pause <= 0 {
		c.Blink.Pause = def.Blink.Pause
	}
	if c.MQTT.ClientID == "" {
		c.MQTT.ClientID = def.MQTT.ClientID
	}
}

// Validate checks the configuration for values the daemon cannot run with.
func (c *Config) Validate() error {
	seen := map[int]string{}
	for _, p := range []struct {
		name string
		pin  int
	}{
		{"primary", c.Pins.Primary},
		{"secondary", c.Pins.Secondary},
		{"encoder_a", c.Pins.EncoderA},
		{"encoder_b", c.Pins.EncoderB},
		{"relay", c.Pins.Relay},
		{"buzzer", c.Pins.Buzzer},
	} {
		if p.pin < 0 {
			return fmt.Errorf("%w: %s pin %d", ErrInvalidPin, p.name, p.pin)
		}
		if other, ok := seen[p.pin]; ok {
			return fmt.Errorf("%w: %s and %s share pin %d", ErrInvalidPin, other, p.name, p.pin)
		}
		seen[p.pin] = p.name
	}

	if _, err := c.MenuItems(); err != nil {
		return err
	}

	switch c.Storage.Backend {
	case StorageFile, StorageEEPROM, StorageMemory:
	default:
		return fmt.Errorf("%w: storage %q", ErrInvalidBackend, c.Storage.Backend)
	}
	if c.Storage.Backend == StorageEEPROM && c.Storage.Size < logic.ImageSize {
		return fmt.Errorf("%w: eeprom size %d below %d", ErrInvalidBackend, c.Storage.Size, logic.ImageSize)
	}
	switch c.Display.Backend {
	case DisplayHT16K33, DisplayNone:
	default:
		return fmt.Errorf("%w: display %q", ErrInvalidBackend, c.Display.Backend)
	}

	for name, d := range map[string]time.Duration{
		"tick":        c.Tick,
		"blink.run":   c.Blink.Run,
		"blink.pause": c.Blink.Pause,
	} {
		if d <= 0 {
			return fmt.Errorf("%w: %s must be positive", ErrInvalidDuration, name)
		}
	}
	if c.Button.LongPress <= c.Button.Debounce {
		return fmt.Errorf("%w: long_press must exceed debounce", ErrInvalidDuration)
	}
	return nil
}

// MenuItems parses the configured menu item names.
func (c *Config) MenuItems() ([]logic.MenuItem, error) {
	items := make([]logic.MenuItem, 0, len(c.Menu.Items))
	for _, name := range c.Menu.Items {
		it, err := logic.ParseMenuItem(name)
		if err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	return items, nil
}

// GPIOPins returns the pin assignment in gpio form.
func (c *Config) GPIOPins() gpio.Pins {
	return gpio.Pins{
		Chip:      c.Pins.Chip,
		Primary:   c.Pins.Primary,
		Secondary: c.Pins.Secondary,
		EncoderA:  c.Pins.EncoderA,
		EncoderB:  c.Pins.EncoderB,
		Relay:     c.Pins.Relay,
		Buzzer:    c.Pins.Buzzer,
	}
}

// MachineConfig returns the controller settings.
func (c *Config) MachineConfig() (logic.Config, error) {
	items, err := c.MenuItems()
	if err != nil {
		return logic.Config{}, err
	}
	return logic.Config{
		RunBlink:   c.Blink.Run,
		PauseBlink: c.Blink.Pause,
		MenuItems:  items,
	}, nil
}
