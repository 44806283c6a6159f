package logic

// Store is byte-addressed persistent storage.
type Store interface {
	Byte(offset int) (byte, error)
	SetByte(offset int, v byte) error
}

// Persistent layout. Changing any offset breaks existing stored data.
const (
	OffsetBrightness  = 0
	OffsetAlertType   = 1
	OffsetAlertLength = 2
	OffsetSlots       = 3

	SlotCount = 64
	SlotSize  = 2 // minutes, seconds

	ImageSize = OffsetSlots + SlotCount*SlotSize
)

// MaxBrightness is the highest display intensity.
const MaxBrightness = 15

// ClampSlot pins a memory slot index to 1..SlotCount.
func ClampSlot(n int) int {
	return clamp(n, 1, SlotCount)
}

// SlotOffset returns the byte offset of slot n (clamped).
func SlotOffset(n int) int {
	return OffsetSlots + (ClampSlot(n)-1)*SlotSize
}

// Settings maps the persistent layout onto typed, clamped values.
// Every write first reads the stored byte and skips unchanged values,
// since storage write cycles are finite.
type Settings struct {
	store Store
}

// NewSettings wraps store.
func NewSettings(store Store) *Settings {
	return &Settings{store: store}
}

func (s *Settings) read(offset, max int) (int, error) {
	b, err := s.store.Byte(offset)
	if err != nil {
		return 0, err
	}
	return clamp(int(b), 0, max), nil
}

func (s *Settings) write(offset int, v byte) error {
	cur, err := s.store.Byte(offset)
	if err == nil && cur == v {
		return nil
	}
	return s.store.SetByte(offset, v)
}

// Brightness returns the stored display intensity.
func (s *Settings) Brightness() (int, error) {
	return s.read(OffsetBrightness, MaxBrightness)
}

// SetBrightness stores the display intensity (clamped).
func (s *Settings) SetBrightness(v int) error {
	return s.write(OffsetBrightness, byte(clamp(v, 0, MaxBrightness)))
}

// AlertType returns the stored alert type.
func (s *Settings) AlertType() (int, error) {
	return s.read(OffsetAlertType, MaxAlertType)
}

// SetAlertType stores the alert type (clamped).
func (s *Settings) SetAlertType(v int) error {
	return s.write(OffsetAlertType, byte(clamp(v, 0, MaxAlertType)))
}

// AlertLength returns the stored alert length in seconds.
func (s *Settings) AlertLength() (int, error) {
	return s.read(OffsetAlertLength, MaxAlertLength)
}

// SetAlertLength stores the alert length (clamped).
func (s *Settings) SetAlertLength(v int) error {
	return s.write(OffsetAlertLength, byte(clamp(v, 0, MaxAlertLength)))
}

// Alert returns the stored alert parameters, derived.
func (s *Settings) Alert() (AlertConfig, error) {
	typ, err := s.AlertType()
	if err != nil {
		return AlertConfig{}, err
	}
	length, err := s.AlertLength()
	if err != nil {
		return AlertConfig{}, err
	}
	return NewAlertConfig(typ, length), nil
}

// Slot reads memory slot n (clamped to 1..64).
func (s *Settings) Slot(n int) (Duration, error) {
	off := SlotOffset(n)
	m, err := s.read(off, MaxMinutes)
	if err != nil {
		return Duration{}, err
	}
	sec, err := s.read(off+1, MaxSeconds)
	if err != nil {
		return Duration{}, err
	}
	return Duration{Minutes: m, Seconds: sec}, nil
}

// StoreSlot writes d into memory slot n (clamped to 1..64).
func (s *Settings) StoreSlot(n int, d Duration) error {
	off := SlotOffset(n)
	d = d.Clamp()
	if err := s.write(off, byte(d.Minutes)); err != nil {
		return err
	}
	return s.write(off+1, byte(d.Seconds))
}
