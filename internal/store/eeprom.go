package store

import (
	"fmt"
	"time"

	"periph.io/x/conn/v3/i2c"

	"github.com/sweeney/exposure-timer/internal/logger"
)

// DefaultEEPROMAddress is the 24Cxx base address.
const DefaultEEPROMAddress = 0x50

// Conn is the part of an I2C device the EEPROM needs; *i2c.Dev satisfies it.
type Conn interface {
	Tx(w, r []byte) error
}

// EEPROMOptions describes the part.
type EEPROMOptions struct {
	Size        int           // bytes; 4096 for a 24C32
	WideAddress bool          // 16-bit word address (24C32 and up)
	WriteCycle  time.Duration // time to wait after each byte write
}

// DefaultEEPROMOptions matches a 24C32.
func DefaultEEPROMOptions() EEPROMOptions {
	return EEPROMOptions{Size: 4096, WideAddress: true, WriteCycle: 5 * time.Millisecond}
}

// narrowAddressLimit is the largest part (24C16) that takes a single word
// address byte. Bigger parts take two.
const narrowAddressLimit = 2048

// EEPROMOptionsForSize returns the options for a 24Cxx part of size bytes.
// Parts up to 24C16 use a one-byte word address; the settings image fits in
// their first 256-byte block.
func EEPROMOptionsForSize(size int) EEPROMOptions {
	opts := DefaultEEPROMOptions()
	if size > 0 {
		opts.Size = size
	}
	opts.WideAddress = opts.Size > narrowAddressLimit
	return opts
}

// EEPROM is a 24Cxx serial EEPROM on I2C, accessed one byte at a time.
type EEPROM struct {
	conn  Conn
	opts  EEPROMOptions
	sleep func(time.Duration)
}

// NewEEPROM wraps conn.
func NewEEPROM(conn Conn, opts EEPROMOptions) *EEPROM {
	if opts.Size <= 0 {
		opts.Size = DefaultEEPROMOptions().Size
	}
	return &EEPROM{conn: conn, opts: opts, sleep: time.Sleep}
}

// OpenEEPROM attaches to the EEPROM at addr on bus and checks that it
// answers.
func OpenEEPROM(bus i2c.Bus, addr uint16, opts EEPROMOptions, log *logger.Logger) (*EEPROM, error) {
	e := NewEEPROM(&i2c.Dev{Bus: bus, Addr: addr}, opts)
	if _, err := e.Byte(0); err != nil {
		return nil, fmt.Errorf("probe eeprom at 0x%02x: %w", addr, err)
	}
	log.Infow("eeprom ready", "addr", fmt.Sprintf("0x%02x", addr), "size", e.opts.Size)
	return e, nil
}

func (e *EEPROM) word(offset int) []byte {
	if e.opts.WideAddress {
		return []byte{byte(offset >> 8), byte(offset)}
	}
	return []byte{byte(offset)}
}

// Byte reads the byte at offset.
func (e *EEPROM) Byte(offset int) (byte, error) {
	if err := checkOffset(offset, e.opts.Size); err != nil {
		return 0, err
	}
	r := make([]byte, 1)
	if err := e.conn.Tx(e.word(offset), r); err != nil {
		return 0, fmt.Errorf("eeprom read offset %d: %w", offset, err)
	}
	return r[0], nil
}

// SetByte writes v at offset and waits out the write cycle.
// Callers skip unchanged bytes; the part has finite write endurance.
func (e *EEPROM) SetByte(offset int, v byte) error {
	if err := checkOffset(offset, e.opts.Size); err != nil {
		return err
	}
	if err := e.conn.Tx(append(e.word(offset), v), nil); err != nil {
		return fmt.Errorf("eeprom write offset %d: %w", offset, err)
	}
	e.sleep(e.opts.WriteCycle)
	return nil
}

// Close is a no-op; the bus is owned by the caller.
func (e *EEPROM) Close() error { return nil }
