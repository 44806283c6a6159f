// Package input turns raw GPIO samples into user-input edges.
// This package has NO external dependencies (no GPIO, OS, or time.Sleep).
// Time is always injectable via time.Time parameters.
package input

import "time"

// Press is an edge reported by a Button.
type Press uint8

const (
	PressNone Press = iota
	PressShort
	PressLong
)

// String returns a human-readable press name.
func (p Press) String() string {
	switch p {
	case PressNone:
		return "NONE"
	case PressShort:
		return "SHORT"
	case PressLong:
		return "LONG"
	default:
		return "UNKNOWN"
	}
}

// Default button timings.
const (
	DefaultDebounce  = 30 * time.Millisecond
	DefaultLongPress = 800 * time.Millisecond
)

// Button debounces a single push-button level and classifies presses.
// A short press is reported on release; a long press is reported once,
// while still held, as soon as the hold reaches the long-press threshold.
// The release that follows a long press reports nothing.
type Button struct {
	debounce  time.Duration
	longPress time.Duration

	// Current stable (debounced) level
	stable bool
	// Pending level during debounce
	pending    bool
	hasPending bool
	// Time when pending level was first observed
	pendingSince time.Time

	pressedAt  time.Time
	longFired  bool
	lastPress  Press
	justPushed bool
}

// NewButton creates a button with the given debounce and long-press durations.
// Zero values select the defaults.
func NewButton(debounce, longPress time.Duration) *Button {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	if longPress <= 0 {
		longPress = DefaultLongPress
	}
	return &Button{debounce: debounce, longPress: longPress}
}

// Update feeds the logical level (true = pressed) sampled at now and
// returns the edge produced by this sample, if any.
func (b *Button) Update(pressed bool, now time.Time) Press {
	b.lastPress = PressNone
	b.justPushed = false

	if b.settle(pressed, now) {
		if b.stable {
			b.pressedAt = now
			b.longFired = false
			b.justPushed = true
		} else if !b.longFired {
			b.lastPress = PressShort
		}
		return b.lastPress
	}

	if b.stable && !b.longFired && now.Sub(b.pressedAt) >= b.longPress {
		b.longFired = true
		b.lastPress = PressLong
	}
	return b.lastPress
}

// settle applies the debounce window and reports whether the stable
// level changed on this sample.
func (b *Button) settle(level bool, now time.Time) bool {
	if level == b.stable {
		// No change from stable level, clear any pending
		b.hasPending = false
		return false
	}

	if !b.hasPending || b.pending != level {
		b.pending = level
		b.hasPending = true
		b.pendingSince = now
		return false
	}

	if now.Sub(b.pendingSince) >= b.debounce {
		b.stable = level
		b.hasPending = false
		return true
	}
	return false
}

// JustPressed reports whether the last Update saw the button go down.
func (b *Button) JustPressed() bool {
	return b.justPushed
}

// IsLongPressed reports whether the last Update produced a long press.
func (b *Button) IsLongPressed() bool {
	return b.lastPress == PressLong
}

// IsDown reports the debounced level.
func (b *Button) IsDown() bool {
	return b.stable
}
