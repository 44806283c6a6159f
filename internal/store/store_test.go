package store

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sweeney/exposure-timer/internal/logger"
)

func TestMem(t *testing.T) {
	m := NewMem(4)
	require.NoError(t, m.SetByte(2, 9))
	b, err := m.Byte(2)
	require.NoError(t, err)
	assert.Equal(t, byte(9), b)
	assert.Equal(t, 1, m.Writes)
	assert.Equal(t, []byte{0, 0, 9, 0}, m.Bytes())

	_, err = m.Byte(4)
	assert.ErrorIs(t, err, ErrOutOfRange)
	assert.ErrorIs(t, m.SetByte(-1, 0), ErrOutOfRange)
}

func TestFileCreatesPaddedImage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state", "settings.bin")
	s, err := OpenFile(path, logger.Nop())
	require.NoError(t, err)
	defer s.Close()

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, int64(FileSize), info.Size())

	b, err := s.Byte(FileSize - 1)
	require.NoError(t, err)
	assert.Equal(t, byte(0), b)
	_, err = s.Byte(FileSize)
	assert.ErrorIs(t, err, ErrOutOfRange)
}

func TestFilePersistsAcrossOpen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.bin")
	s, err := OpenFile(path, logger.Nop())
	require.NoError(t, err)
	require.NoError(t, s.SetByte(7, 2))
	require.NoError(t, s.SetByte(8, 30))
	require.NoError(t, s.Close())

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, byte(2), raw[7])
	assert.Equal(t, byte(30), raw[8])

	s, err = OpenFile(path, logger.Nop())
	require.NoError(t, err)
	defer s.Close()
	b, err := s.Byte(8)
	require.NoError(t, err)
	assert.Equal(t, byte(30), b)
}

func TestFilePadsShortImage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.bin")
	require.NoError(t, os.WriteFile(path, []byte{5, 1, 10}, 0o644))

	s, err := OpenFile(path, logger.Nop())
	require.NoError(t, err)
	defer s.Close()

	b, err := s.Byte(0)
	require.NoError(t, err)
	assert.Equal(t, byte(5), b)

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, int64(FileSize), info.Size())
}

func TestFileSkipsUnchangedByte(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.bin")
	s, err := OpenFile(path, logger.Nop())
	require.NoError(t, err)
	require.NoError(t, s.SetByte(0, 4))

	// With the file closed underneath, only a real write can fail.
	require.NoError(t, s.f.Close())
	assert.NoError(t, s.SetByte(0, 4))
	assert.Error(t, s.SetByte(0, 5))

	b, err := s.Byte(0)
	require.NoError(t, err)
	assert.Equal(t, byte(4), b, "failed write leaves the cached byte")
}

// fakeBus is a 24Cxx stand-in that decodes word addresses.
type fakeBus struct {
	wide   bool
	mem    map[int]byte
	writes int
	err    error
}

func (b *fakeBus) Tx(w, r []byte) error {
	if b.err != nil {
		return b.err
	}
	n := 1
	addr := int(w[0])
	if b.wide {
		n = 2
		addr = int(w[0])<<8 | int(w[1])
	}
	if len(w) > n {
		b.mem[addr] = w[n]
		b.writes++
	}
	if len(r) > 0 {
		r[0] = b.mem[addr]
	}
	return nil
}

func TestEEPROMWideAddressing(t *testing.T) {
	bus := &fakeBus{wide: true, mem: map[int]byte{}}
	e := NewEEPROM(bus, DefaultEEPROMOptions())
	var slept time.Duration
	e.sleep = func(d time.Duration) { slept += d }

	require.NoError(t, e.SetByte(300, 42))
	assert.Equal(t, byte(42), bus.mem[300])
	assert.Equal(t, 5*time.Millisecond, slept)

	b, err := e.Byte(300)
	require.NoError(t, err)
	assert.Equal(t, byte(42), b)

	_, err = e.Byte(4096)
	assert.ErrorIs(t, err, ErrOutOfRange)
}

func TestEEPROMNarrowAddressing(t *testing.T) {
	bus := &fakeBus{mem: map[int]byte{}}
	e := NewEEPROM(bus, EEPROMOptions{Size: 256})
	e.sleep = func(time.Duration) {}

	require.NoError(t, e.SetByte(131, 7))
	assert.Equal(t, byte(7), bus.mem[131])
	assert.ErrorIs(t, e.SetByte(256, 1), ErrOutOfRange)
	assert.Equal(t, 1, bus.writes)
}

func TestEEPROMOptionsForSize(t *testing.T) {
	tests := []struct {
		part string
		size int
		wide bool
	}{
		{"24C02", 256, false},
		{"24C16", 2048, false},
		{"24C32", 4096, true},
		{"24C256", 32768, true},
	}
	for _, tc := range tests {
		t.Run(tc.part, func(t *testing.T) {
			opts := EEPROMOptionsForSize(tc.size)
			assert.Equal(t, tc.size, opts.Size)
			assert.Equal(t, tc.wide, opts.WideAddress)
			assert.Equal(t, 5*time.Millisecond, opts.WriteCycle)
		})
	}

	assert.Equal(t, DefaultEEPROMOptions(), EEPROMOptionsForSize(0))
}

func TestEEPROMSmallPartUsesOneAddressByte(t *testing.T) {
	bus := &fakeBus{mem: map[int]byte{}}
	e := NewEEPROM(bus, EEPROMOptionsForSize(256))
	e.sleep = func(time.Duration) {}

	require.NoError(t, e.SetByte(7, 2))
	assert.Equal(t, byte(2), bus.mem[7])
	b, err := e.Byte(7)
	require.NoError(t, err)
	assert.Equal(t, byte(2), b)
}

func TestEEPROMBusError(t *testing.T) {
	boom := errors.New("nack")
	e := NewEEPROM(&fakeBus{err: boom}, DefaultEEPROMOptions())
	_, err := e.Byte(0)
	assert.ErrorIs(t, err, boom)
	assert.ErrorIs(t, e.SetByte(0, 1), boom)
}

func TestBackendsImplementStore(t *testing.T) {
	var _ Store = (*Mem)(nil)
	var _ Store = (*File)(nil)
	var _ Store = (*EEPROM)(nil)
}
