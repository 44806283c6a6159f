package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sweeney/exposure-timer/internal/logic"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.Equal(t, 10*time.Millisecond, cfg.Tick)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "gpiochip0", cfg.Pins.Chip)
	assert.Equal(t, 30*time.Millisecond, cfg.Button.Debounce)
	assert.Equal(t, 800*time.Millisecond, cfg.Button.LongPress)
	assert.Equal(t, 4, cfg.Encoder.StepsPerDetent)
	assert.Equal(t, uint16(0x70), cfg.Display.Address)
	assert.Equal(t, uint16(0x50), cfg.Storage.Address)
	assert.Equal(t, StorageFile, cfg.Storage.Backend)
	assert.Equal(t, []string{"recall", "store", "brightness", "alert_type", "alert_length"}, cfg.Menu.Items)
	assert.Empty(t, cfg.MQTT.Broker)
	assert.NoError(t, cfg.Validate())
}

func TestBasicOmitsAlertItems(t *testing.T) {
	cfg := Basic()
	assert.Equal(t, []string{"recall", "store", "brightness"}, cfg.Menu.Items)
	require.NoError(t, cfg.Validate())

	items, err := cfg.MenuItems()
	require.NoError(t, err)
	assert.Equal(t, logic.BasicMenuItems(), items)
}

func TestLoad_FileNotExists(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nonexistent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoad_ValidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	yamlContent := `
tick: 5ms
log_level: debug
pins:
  primary: 5
  secondary: 6
button:
  long_press: 1s
display:
  backend: none
storage:
  backend: eeprom
  address: 0x57
menu:
  items: [recall, store]
blink:
  pause: 250ms
mqtt:
  broker: tcp://darkroom.local:1883
`
	require.NoError(t, os.WriteFile(path, []byte(yamlContent), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 5*time.Millisecond, cfg.Tick)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, 5, cfg.Pins.Primary)
	assert.Equal(t, 6, cfg.Pins.Secondary)
	assert.Equal(t, 22, cfg.Pins.EncoderA, "unset pins keep defaults")
	assert.Equal(t, time.Second, cfg.Button.LongPress)
	assert.Equal(t, 30*time.Millisecond, cfg.Button.Debounce)
	assert.Equal(t, DisplayNone, cfg.Display.Backend)
	assert.Equal(t, StorageEEPROM, cfg.Storage.Backend)
	assert.Equal(t, uint16(0x57), cfg.Storage.Address)
	assert.Equal(t, []string{"recall", "store"}, cfg.Menu.Items)
	assert.Equal(t, 500*time.Millisecond, cfg.Blink.Run)
	assert.Equal(t, 250*time.Millisecond, cfg.Blink.Pause)
	assert.Equal(t, "tcp://darkroom.local:1883", cfg.MQTT.Broker)
	assert.NoError(t, cfg.Validate())
}

func TestLoad_ZeroValuesBackfilled(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("tick: 0s\nblink:\n  run: 0s\nencoder:\n  steps_per_detent: 0\n"), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, Default().Tick, cfg.Tick)
	assert.Equal(t, Default().Blink.Run, cfg.Blink.Run)
	assert.Equal(t, Default().Encoder.StepsPerDetent, cfg.Encoder.StepsPerDetent)
}

func TestLoad_InvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("tick: [unterminated"), 0644))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	cfg := Basic()
	cfg.MQTT.Broker = "tcp://10.0.0.2:1883"
	cfg.Blink.Pause = 300 * time.Millisecond
	require.NoError(t, cfg.Save(path))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		want   error
	}{
		{"shared pin", func(c *Config) { c.Pins.Relay = c.Pins.Primary }, ErrInvalidPin},
		{"negative pin", func(c *Config) { c.Pins.Buzzer = -1 }, ErrInvalidPin},
		{"unknown menu item", func(c *Config) { c.Menu.Items = []string{"recall", "contrast"} }, ErrUnknownMenuItem},
		{"unknown storage", func(c *Config) { c.Storage.Backend = "sdcard" }, ErrInvalidBackend},
		{"small eeprom", func(c *Config) { c.Storage.Backend = StorageEEPROM; c.Storage.Size = 128 }, ErrInvalidBackend},
		{"unknown display", func(c *Config) { c.Display.Backend = "oled" }, ErrInvalidBackend},
		{"zero blink", func(c *Config) { c.Blink.Run = 0 }, ErrInvalidDuration},
		{"long press under debounce", func(c *Config) { c.Button.LongPress = 10 * time.Millisecond }, ErrInvalidDuration},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			assert.ErrorIs(t, cfg.Validate(), tt.want)
		})
	}
}

func TestMachineConfig(t *testing.T) {
	cfg := Default()
	cfg.Blink.Run = 400 * time.Millisecond

	mc, err := cfg.MachineConfig()
	require.NoError(t, err)
	assert.Equal(t, 400*time.Millisecond, mc.RunBlink)
	assert.Equal(t, logic.DefaultMenuItems(), mc.MenuItems)

	pins := cfg.GPIOPins()
	assert.Equal(t, cfg.Pins.Relay, pins.Relay)
	assert.Equal(t, "gpiochip0", pins.Chip)
}
