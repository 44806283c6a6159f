//go:build !linux

package gpio

import (
	"errors"

	"github.com/sweeney/exposure-timer/internal/logger"
)

// RealBoard is not available on non-Linux platforms.
type RealBoard struct{}

// Options tunes a RealBoard.
type Options struct {
	StepsPerDetent int
	ToneHz         int
}

// NewRealBoard returns an error on non-Linux platforms.
func NewRealBoard(pins Pins, opts Options, log *logger.Logger) (*RealBoard, error) {
	return nil, errors.New("gpio: not supported on this platform (requires Linux)")
}

// Read is not implemented on non-Linux platforms.
func (r *RealBoard) Read() (Sample, error) {
	return Sample{}, errors.New("gpio: not supported")
}

// SetRelay is not implemented on non-Linux platforms.
func (r *RealBoard) SetRelay(on bool) error {
	return errors.New("gpio: not supported")
}

// SetBuzzer is not implemented on non-Linux platforms.
func (r *RealBoard) SetBuzzer(on bool) error {
	return errors.New("gpio: not supported")
}

// Close is not implemented on non-Linux platforms.
func (r *RealBoard) Close() error {
	return nil
}
