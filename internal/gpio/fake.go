package gpio

import "errors"

// FakeBoard is a test double that returns scripted samples and records
// the outputs it is asked to drive.
type FakeBoard struct {
	// Samples contains scripted panel readings.
	// Each call to Read() consumes the next sample.
	Samples []Sample

	// index tracks current position in Samples
	index int

	// Relay and Buzzer hold the last written output levels.
	Relay  bool
	Buzzer bool

	// RelayWrites records every SetRelay value in order.
	RelayWrites []bool

	// Closed tracks if Close was called
	Closed bool

	// ReadError, if set, will be returned by Read()
	ReadError error

	// WriteError, if set, will be returned by SetRelay and SetBuzzer.
	WriteError error
}

// NewFakeBoard creates a FakeBoard with the given samples.
func NewFakeBoard(samples []Sample) *FakeBoard {
	return &FakeBoard{Samples: samples}
}

// Read returns the next scripted sample.
// Once samples are exhausted, the last button levels repeat with no
// encoder movement.
func (f *FakeBoard) Read() (Sample, error) {
	if f.ReadError != nil {
		return Sample{}, f.ReadError
	}

	if len(f.Samples) == 0 {
		return Sample{}, errors.New("no samples configured")
	}

	if f.index >= len(f.Samples) {
		last := f.Samples[len(f.Samples)-1]
		last.Step = 0
		return last, nil
	}
	sample := f.Samples[f.index]
	f.index++
	return sample, nil
}

// SetRelay records the relay level.
func (f *FakeBoard) SetRelay(on bool) error {
	if f.WriteError != nil {
		return f.WriteError
	}
	f.Relay = on
	f.RelayWrites = append(f.RelayWrites, on)
	return nil
}

// SetBuzzer records the buzzer level.
func (f *FakeBoard) SetBuzzer(on bool) error {
	if f.WriteError != nil {
		return f.WriteError
	}
	f.Buzzer = on
	return nil
}

// Close marks the board as closed and clears the outputs.
func (f *FakeBoard) Close() error {
	f.Closed = true
	f.Relay = false
	f.Buzzer = false
	return nil
}

// Reset rewinds the board to the beginning of samples.
func (f *FakeBoard) Reset() {
	f.index = 0
	f.Closed = false
}

// Remaining returns the number of unread scripted samples.
func (f *FakeBoard) Remaining() int {
	if f.index >= len(f.Samples) {
		return 0
	}
	return len(f.Samples) - f.index
}
