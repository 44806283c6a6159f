package logic

import (
	"time"

	"github.com/sweeney/exposure-timer/internal/softtimer"
)

// Alert parameter bounds.
const (
	MaxAlertType   = 8
	MaxAlertLength = 90 // seconds of total ring time
)

// alertCadence is the pulse period (onDelay) and the pulse hold (offDelay)
// for one alert type.
type alertCadence struct {
	on  time.Duration
	off time.Duration
}

// cadences is indexed by alert type. Each hold is shorter than its period.
var cadences = [MaxAlertType + 1]alertCadence{
	{on: 500 * time.Millisecond, off: 250 * time.Millisecond},
	{on: 1000 * time.Millisecond, off: 500 * time.Millisecond},
	{on: 1500 * time.Millisecond, off: 750 * time.Millisecond},
	{on: 2000 * time.Millisecond, off: 1000 * time.Millisecond},
	{on: 500 * time.Millisecond, off: 100 * time.Millisecond},
	{on: 1000 * time.Millisecond, off: 100 * time.Millisecond},
	{on: 2000 * time.Millisecond, off: 100 * time.Millisecond},
	{on: 1000 * time.Millisecond, off: 900 * time.Millisecond},
	{on: 2000 * time.Millisecond, off: 1900 * time.Millisecond},
}

// AlertConfig holds the user alert parameters and the values derived from them.
// Use NewAlertConfig, SetType and SetLength so the derived values never go stale.
type AlertConfig struct {
	Type   int
	Length int

	onDelay     time.Duration
	offDelay    time.Duration
	repeatCount int
	total       time.Duration
}

// NewAlertConfig clamps the parameters and derives the pulse train.
func NewAlertConfig(typ, length int) AlertConfig {
	c := AlertConfig{Type: typ, Length: length}
	c.derive()
	return c
}

// SetType changes the cadence and re-derives.
func (c *AlertConfig) SetType(typ int) {
	c.Type = typ
	c.derive()
}

// SetLength changes the total ring time and re-derives.
func (c *AlertConfig) SetLength(length int) {
	c.Length = length
	c.derive()
}

func (c *AlertConfig) derive() {
	c.Type = clamp(c.Type, 0, MaxAlertType)
	c.Length = clamp(c.Length, 0, MaxAlertLength)

	cad := cadences[c.Type]
	c.onDelay = cad.on
	c.offDelay = cad.off
	c.repeatCount = int(int64(c.Length) * 1000 / cad.on.Milliseconds())
	c.total = time.Duration(c.repeatCount) * c.onDelay
}

// OnDelay is the pulse period.
func (c AlertConfig) OnDelay() time.Duration { return c.onDelay }

// OffDelay is how long each pulse sounds.
func (c AlertConfig) OffDelay() time.Duration { return c.offDelay }

// RepeatCount is floor(length*1000 / onDelay).
func (c AlertConfig) RepeatCount() int { return c.repeatCount }

// TotalDuration bounds the whole sequence to whole pulses.
func (c AlertConfig) TotalDuration() time.Duration { return c.total }

// Enabled reports whether any pulse would sound.
func (c AlertConfig) Enabled() bool { return c.repeatCount > 0 }

// AlertEvent is a step of the pulse train, emitted by the sequencer's timers
// and consumed by its own transition table.
type AlertEvent uint8

const (
	AlertPulseStart AlertEvent = iota + 1
	AlertPulseEnd
	AlertFinished
)

// String returns a human-readable event name.
func (e AlertEvent) String() string {
	switch e {
	case AlertPulseStart:
		return "PULSE_START"
	case AlertPulseEnd:
		return "PULSE_END"
	case AlertFinished:
		return "FINISHED"
	default:
		return "UNKNOWN"
	}
}

// Sequencer produces a bounded pulse train from three soft timers:
// pace fires every onDelay and starts a pulse, hold silences each pulse after
// offDelay, and bound ends the whole sequence after TotalDuration regardless
// of how the other two have drifted.
type Sequencer struct {
	tone   Tone
	pace   softtimer.Timer
	hold   softtimer.Timer
	bound  softtimer.Timer
	active bool
	pulses int
}

// NewSequencer creates an idle sequencer driving tone.
func NewSequencer(tone Tone) *Sequencer {
	return &Sequencer{tone: tone}
}

// Start arms the sequence for cfg and sounds the first pulse.
// It returns false, and stays idle, when the alert is disabled.
func (s *Sequencer) Start(cfg AlertConfig, now time.Time) bool {
	s.stopTimers()
	s.pulses = 0
	if !cfg.Enabled() {
		s.active = false
		return false
	}

	s.pace.SetDelay(cfg.OnDelay())
	s.hold.SetDelay(cfg.OffDelay())
	s.bound.SetDelay(cfg.TotalDuration())

	s.active = true
	s.pace.Start(now, softtimer.Count(cfg.RepeatCount()))
	s.bound.Start(now, softtimer.Once)
	s.apply(AlertPulseStart, now)
	return true
}

// Update polls the timers and applies the resulting events. The returned
// events are for observation only; the sequencer has already acted on them.
func (s *Sequencer) Update(now time.Time) []AlertEvent {
	if !s.active {
		return nil
	}

	if s.bound.Update(now) {
		s.apply(AlertFinished, now)
		return []AlertEvent{AlertFinished}
	}

	var events []AlertEvent
	if s.hold.Update(now) {
		events = append(events, AlertPulseEnd)
	}
	// The last pace expiry lands on the bound; it marks the end of the
	// train rather than a new pulse.
	if s.pace.Update(now) && s.pace.IsRunning() {
		events = append(events, AlertPulseStart)
	}

	for _, e := range events {
		s.apply(e, now)
	}
	return events
}

func (s *Sequencer) apply(e AlertEvent, now time.Time) {
	switch e {
	case AlertPulseStart:
		s.pulses++
		s.tone.On()
		s.hold.Start(now, softtimer.Once)
	case AlertPulseEnd:
		s.tone.Off()
	case AlertFinished:
		s.stopTimers()
		s.tone.Off()
		s.active = false
	}
}

// Cancel silences the tone and stops every timer.
func (s *Sequencer) Cancel() {
	s.stopTimers()
	s.tone.Off()
	s.active = false
}

func (s *Sequencer) stopTimers() {
	s.pace.Stop()
	s.hold.Stop()
	s.bound.Stop()
}

// Active reports whether a sequence is in progress.
func (s *Sequencer) Active() bool {
	return s.active
}

// Pulses returns the number of pulses sounded by the current or last sequence.
func (s *Sequencer) Pulses() int {
	return s.pulses
}
