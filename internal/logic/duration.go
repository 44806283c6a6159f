package logic

import (
	"fmt"
	"time"
)

// Duration bounds.
const (
	MaxMinutes      = 99
	MaxSeconds      = 59
	MaxTotalSeconds = MaxMinutes*60 + MaxSeconds
)

// Duration is an exposure length as shown on the display.
type Duration struct {
	Minutes int
	Seconds int
}

// FromSeconds converts total seconds into a Duration, clamped to 00:00..99:59.
func FromSeconds(total int) Duration {
	total = clamp(total, 0, MaxTotalSeconds)
	return Duration{Minutes: total / 60, Seconds: total % 60}
}

// Clamp pins each field to its range independently.
func (d Duration) Clamp() Duration {
	return Duration{
		Minutes: clamp(d.Minutes, 0, MaxMinutes),
		Seconds: clamp(d.Seconds, 0, MaxSeconds),
	}
}

// TotalSeconds returns minutes*60 + seconds.
func (d Duration) TotalSeconds() int {
	return d.Minutes*60 + d.Seconds
}

// Std converts to a time.Duration.
func (d Duration) Std() time.Duration {
	return time.Duration(d.TotalSeconds()) * time.Second
}

// IsZero reports whether the duration is 00:00.
func (d Duration) IsZero() bool {
	return d.TotalSeconds() == 0
}

// String formats as MM:SS.
func (d Duration) String() string {
	return fmt.Sprintf("%02d:%02d", d.Minutes, d.Seconds)
}

// Multiplier returns the encoder step scale for the given total seconds.
// Long exposures move in coarse steps, short ones stay fine-grained.
func Multiplier(totalSeconds int) int {
	switch {
	case totalSeconds >= 600:
		return 30
	case totalSeconds >= 300:
		return 15
	case totalSeconds >= 120:
		return 10
	case totalSeconds >= 30:
		return 5
	default:
		return 1
	}
}

// Accumulator owns the canonical duration setting and applies encoder steps.
type Accumulator struct {
	d     Duration
	total int // cached d.TotalSeconds(), drives the next multiplier
}

// NewAccumulator creates an accumulator holding d (clamped).
func NewAccumulator(d Duration) *Accumulator {
	a := &Accumulator{}
	a.Set(d)
	return a
}

// Set replaces the setting.
func (a *Accumulator) Set(d Duration) {
	a.d = d.Clamp()
	a.total = a.d.TotalSeconds()
}

// Duration returns the current setting.
func (a *Accumulator) Duration() Duration {
	return a.d
}

// TotalSeconds returns the cached total of the current setting.
func (a *Accumulator) TotalSeconds() int {
	return a.total
}

// ApplyStep adds step detents, scaled by the current total, to the seconds
// field. Each overflow or underflow of 0..59 carries one minute; when the
// minutes are already at a bound the seconds saturate instead of wrapping.
func (a *Accumulator) ApplyStep(step int) Duration {
	if step == 0 {
		return a.d
	}

	minutes := a.d.Minutes
	seconds := a.d.Seconds + step*Multiplier(a.total)

	for seconds > MaxSeconds {
		if minutes >= MaxMinutes {
			seconds = MaxSeconds
			break
		}
		minutes++
		seconds -= 60
	}
	for seconds < 0 {
		if minutes <= 0 {
			seconds = 0
			break
		}
		minutes--
		seconds += 60
	}

	a.Set(Duration{Minutes: minutes, Seconds: seconds})
	return a.d
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
