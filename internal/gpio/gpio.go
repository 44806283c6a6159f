// Package gpio provides the control-panel I/O with hardware abstraction.
// The real implementation uses the Linux GPIO character device.
// The fake implementation allows testing without hardware.
package gpio

// Sample is one poll of the panel inputs, already in logical form.
type Sample struct {
	Primary   bool // true = pressed
	Secondary bool // true = pressed
	Step      int  // encoder detents since the previous Read, + = clockwise
}

// Board reads the panel inputs and drives the exposure relay and buzzer.
type Board interface {
	// Read returns the button levels and the encoder movement since the
	// previous call. Buttons are wired active-low; Read inverts them.
	Read() (Sample, error)

	// SetRelay switches the enlarger relay.
	SetRelay(on bool) error

	// SetBuzzer arms or silences the buzzer.
	SetBuzzer(on bool) error

	// Close releases GPIO resources and leaves the outputs off.
	Close() error
}

// Pins is the line assignment of a board (BCM numbering).
type Pins struct {
	Chip      string
	Primary   int
	Secondary int
	EncoderA  int
	EncoderB  int
	Relay     int
	Buzzer    int
}

// Default pin assignment.
const (
	DefaultChip   = "gpiochip0"
	PinPrimary    = 17 // start / pause
	PinSecondary  = 27 // menu / cancel
	PinEncoderA   = 22
	PinEncoderB   = 23
	PinRelay      = 24
	PinBuzzer     = 18
	DefaultToneHz = 2000
)

// DefaultPins returns the standard wiring.
func DefaultPins() Pins {
	return Pins{
		Chip:      DefaultChip,
		Primary:   PinPrimary,
		Secondary: PinSecondary,
		EncoderA:  PinEncoderA,
		EncoderB:  PinEncoderB,
		Relay:     PinRelay,
		Buzzer:    PinBuzzer,
	}
}

// Offsets lists every line in the assignment.
func (p Pins) Offsets() []int {
	return []int{p.Primary, p.Secondary, p.EncoderA, p.EncoderB, p.Relay, p.Buzzer}
}
