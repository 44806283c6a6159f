// Package display drives the 4-digit 7-segment panel.
//
// The HT16K33 driver targets the common 4-digit backpack layout: digits
// live at RAM rows 0, 2, 6 and 8 and the centre colon at row 4. All calls
// only update a shadow buffer; Flush sends what changed.
package display

import (
	"fmt"

	"periph.io/x/conn/v3/i2c"

	"github.com/sweeney/exposure-timer/internal/logger"
)

// HT16K33 commands.
const (
	cmdOscillatorOn = 0x21
	cmdDisplayOff   = 0x80
	cmdDisplayOn    = 0x81
	cmdBrightness   = 0xE0
)

// DefaultAddress is the backpack address with no jumpers bridged.
const DefaultAddress = 0x70

// MaxIntensity is the highest brightness level.
const MaxIntensity = 15

// Digits is the number of character positions.
const Digits = 4

var digitRows = [Digits]int{0, 2, 6, 8}

const (
	colonRow  = 4
	colonBits = 0x02
)

// Conn is the part of an I2C device the driver needs; *i2c.Dev satisfies it.
type Conn interface {
	Tx(w, r []byte) error
}

// HT16K33 is a buffered 4-digit display. It implements the controller's
// display collaborator. Not safe for concurrent use.
type HT16K33 struct {
	conn Conn

	minutes, seconds int
	text             string
	textMode         bool
	dots             bool
	enabled          bool
	intensity        int

	// last state sent to the chip
	sent       [16]byte
	sentOn     bool
	sentLevel  int
	needsFlush bool
}

// New initialises the controller on conn: oscillator on, RAM blank,
// display on at full brightness.
func New(conn Conn) (*HT16K33, error) {
	d := &HT16K33{
		conn:      conn,
		enabled:   true,
		intensity: MaxIntensity,
		textMode:  true,
	}
	if err := conn.Tx([]byte{cmdOscillatorOn}, nil); err != nil {
		return nil, fmt.Errorf("ht16k33 oscillator on: %w", err)
	}
	if err := d.writeRAM(d.sent); err != nil {
		return nil, err
	}
	if err := d.writeIntensity(d.intensity); err != nil {
		return nil, err
	}
	if err := d.writeEnable(true); err != nil {
		return nil, err
	}
	return d, nil
}

// Open attaches to the display at addr on bus.
func Open(bus i2c.Bus, addr uint16, log *logger.Logger) (*HT16K33, error) {
	d, err := New(&i2c.Dev{Bus: bus, Addr: addr})
	if err != nil {
		return nil, err
	}
	log.Infow("display ready", "addr", fmt.Sprintf("0x%02x", addr))
	return d, nil
}

// SetMinutes shows m in the left pair of digits.
func (d *HT16K33) SetMinutes(m int) {
	d.minutes = m
	d.textMode = false
}

// SetSeconds shows s in the right pair of digits.
func (d *HT16K33) SetSeconds(s int) {
	d.seconds = s
	d.textMode = false
}

// SetDots lights or clears the colon.
func (d *HT16K33) SetDots(on bool) {
	d.dots = on
}

// Enable turns the whole display on or off without losing its content.
func (d *HT16K33) Enable(on bool) {
	d.enabled = on
}

// SetText shows up to four characters, left aligned.
func (d *HT16K33) SetText(s string) {
	d.text = s
	d.textMode = true
}

// SetIntensity sets the brightness, clamped to 0..MaxIntensity.
func (d *HT16K33) SetIntensity(level int) {
	if level < 0 {
		level = 0
	}
	if level > MaxIntensity {
		level = MaxIntensity
	}
	d.intensity = level
}

// Clear blanks every digit and the colon.
func (d *HT16K33) Clear() {
	d.text = ""
	d.textMode = true
	d.dots = false
}

// Render returns the display RAM image for the current state.
func (d *HT16K33) Render() [16]byte {
	var ram [16]byte
	var cells [Digits]byte

	if d.textMode {
		i := 0
		for _, r := range d.text {
			if i == Digits {
				break
			}
			cells[i] = glyph(r)
			i++
		}
	} else {
		s := fmt.Sprintf("%02d%02d", clampPair(d.minutes), clampPair(d.seconds))
		for i, r := range s {
			cells[i] = glyph(r)
		}
	}

	for i, row := range digitRows {
		ram[row] = cells[i]
	}
	if d.dots {
		ram[colonRow] = colonBits
	}
	return ram
}

// Flush sends the pending changes to the chip. Nothing is written when the
// chip already shows the current state.
func (d *HT16K33) Flush() error {
	if ram := d.Render(); ram != d.sent || d.needsFlush {
		if err := d.writeRAM(ram); err != nil {
			d.needsFlush = true
			return err
		}
		d.needsFlush = false
	}
	if d.intensity != d.sentLevel {
		if err := d.writeIntensity(d.intensity); err != nil {
			return err
		}
	}
	if d.enabled != d.sentOn {
		if err := d.writeEnable(d.enabled); err != nil {
			return err
		}
	}
	return nil
}

// Close blanks the display and switches it off.
func (d *HT16K33) Close() error {
	d.Clear()
	if err := d.writeRAM(d.Render()); err != nil {
		return err
	}
	return d.writeEnable(false)
}

func (d *HT16K33) writeRAM(ram [16]byte) error {
	buf := make([]byte, 0, len(ram)+1)
	buf = append(buf, 0x00) // RAM address pointer
	buf = append(buf, ram[:]...)
	if err := d.conn.Tx(buf, nil); err != nil {
		return fmt.Errorf("ht16k33 write ram: %w", err)
	}
	d.sent = ram
	return nil
}

func (d *HT16K33) writeIntensity(level int) error {
	if err := d.conn.Tx([]byte{cmdBrightness | byte(level)}, nil); err != nil {
		return fmt.Errorf("ht16k33 set brightness: %w", err)
	}
	d.sentLevel = level
	return nil
}

func (d *HT16K33) writeEnable(on bool) error {
	cmd := byte(cmdDisplayOff)
	if on {
		cmd = cmdDisplayOn
	}
	if err := d.conn.Tx([]byte{cmd}, nil); err != nil {
		return fmt.Errorf("ht16k33 display on/off: %w", err)
	}
	d.sentOn = on
	return nil
}

func clampPair(v int) int {
	if v < 0 {
		return 0
	}
	if v > 99 {
		return 99
	}
	return v
}
