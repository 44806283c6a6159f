// Package store provides byte-addressed persistent storage backends for the
// controller settings.
package store

import (
	"errors"
	"fmt"
)

// ErrOutOfRange is returned for an offset outside the backend's size.
var ErrOutOfRange = errors.New("store: offset out of range")

// Store is byte-addressed persistent storage.
type Store interface {
	Byte(offset int) (byte, error)
	SetByte(offset int, v byte) error
	Close() error
}

func checkOffset(offset, size int) error {
	if offset < 0 || offset >= size {
		return fmt.Errorf("%w: %d (size %d)", ErrOutOfRange, offset, size)
	}
	return nil
}

// Mem is an in-memory store. The zero value is not usable; use NewMem.
type Mem struct {
	data   []byte
	Writes int
}

// NewMem returns a zeroed store of size bytes.
func NewMem(size int) *Mem {
	return &Mem{data: make([]byte, size)}
}

// Byte returns the byte at offset.
func (m *Mem) Byte(offset int) (byte, error) {
	if err := checkOffset(offset, len(m.data)); err != nil {
		return 0, err
	}
	return m.data[offset], nil
}

// SetByte stores v at offset.
func (m *Mem) SetByte(offset int, v byte) error {
	if err := checkOffset(offset, len(m.data)); err != nil {
		return err
	}
	m.data[offset] = v
	m.Writes++
	return nil
}

// Close is a no-op.
func (m *Mem) Close() error { return nil }

// Bytes returns a copy of the image.
func (m *Mem) Bytes() []byte {
	return append([]byte(nil), m.data...)
}
