// Package softtimer provides a cooperative, poll-driven countdown timer.
// Timers never fire on their own: the owner calls Update once per scheduler
// tick with the current time and acts on the returned edge.
// Time is always injected; the package never reads the wall clock.
package softtimer

import "time"

// State is the run state of a Timer.
type State uint8

const (
	Stopped State = iota
	Running
	Paused
)

// String returns a human-readable state name.
func (s State) String() string {
	switch s {
	case Stopped:
		return "STOPPED"
	case Running:
		return "RUNNING"
	case Paused:
		return "PAUSED"
	default:
		return "UNKNOWN"
	}
}

type repeatMode uint8

const (
	modeOnce repeatMode = iota
	modeLoop
	modeCount
)

// Repeat selects what a Timer does when its delay elapses.
type Repeat struct {
	mode  repeatMode
	count int
}

var (
	// Once fires a single time and stops.
	Once = Repeat{mode: modeOnce}
	// Loop fires every delay until stopped.
	Loop = Repeat{mode: modeLoop}
)

// Count fires n times and then stops. n < 1 behaves like Once.
func Count(n int) Repeat {
	if n < 1 {
		n = 1
	}
	return Repeat{mode: modeCount, count: n}
}

// Timer is a single soft timer. The zero value is a stopped timer with no delay.
// A Timer is owned by one component and is not safe for concurrent use.
type Timer struct {
	state  State
	delay  time.Duration
	repeat Repeat
	runs   int // expiries left in Count mode

	// startTick is the origin of the current period: while Running,
	// elapsed = now - startTick. Resume moves it forward by the paused span.
	startTick time.Time

	// elapsedAtPause is only meaningful while Paused.
	elapsedAtPause time.Duration
}

// New returns a stopped timer with the given delay.
func New(delay time.Duration) *Timer {
	return &Timer{delay: delay}
}

// Init resets the timer to Stopped, keeping its delay.
func (t *Timer) Init() {
	t.Stop()
}

// SetDelay changes the delay used by the next Start.
// A running period keeps counting against the new delay.
func (t *Timer) SetDelay(d time.Duration) {
	if d < 0 {
		d = 0
	}
	t.delay = d
}

// Delay returns the configured delay.
func (t *Timer) Delay() time.Duration {
	return t.delay
}

// Start begins counting from now, discarding any previous progress.
func (t *Timer) Start(now time.Time, r Repeat) {
	t.state = Running
	t.repeat = r
	t.runs = r.count
	t.startTick = now
	t.elapsedAtPause = 0
}

// Update performs the expiry check. It returns true exactly once per expiry.
// In Loop mode the next period starts from the previous deadline, not from
// now, so late polling never accumulates drift. In Count mode the final
// expiry still returns true and leaves the timer Stopped.
func (t *Timer) Update(now time.Time) bool {
	if t.state != Running {
		return false
	}
	if now.Sub(t.startTick) < t.delay {
		return false
	}

	switch t.repeat.mode {
	case modeLoop:
		t.startTick = t.startTick.Add(t.delay)
	case modeCount:
		t.runs--
		if t.runs > 0 {
			t.startTick = t.startTick.Add(t.delay)
		} else {
			t.Stop()
		}
	default:
		t.Stop()
	}
	return true
}

// Pause freezes the elapsed time. It is a no-op unless Running.
func (t *Timer) Pause(now time.Time) {
	if t.state != Running {
		return
	}
	t.elapsedAtPause = clampElapsed(now.Sub(t.startTick))
	t.state = Paused
}

// Resume continues a paused timer from the banked elapsed time, keeping the
// phase it had when paused. It is a no-op unless Paused.
func (t *Timer) Resume(now time.Time) {
	if t.state != Paused {
		return
	}
	t.startTick = now.Add(-t.elapsedAtPause)
	t.elapsedAtPause = 0
	t.state = Running
}

// Stop resets the timer to Stopped and discards elapsed time.
func (t *Timer) Stop() {
	t.state = Stopped
	t.runs = 0
	t.startTick = time.Time{}
	t.elapsedAtPause = 0
}

// State returns the current run state.
func (t *Timer) State() State {
	return t.state
}

// IsRunning reports whether the timer is counting.
func (t *Timer) IsRunning() bool {
	return t.state == Running
}

// IsPaused reports whether the timer is frozen.
func (t *Timer) IsPaused() bool {
	return t.state == Paused
}

// Elapsed returns the time counted in the current period.
// A stopped timer has no elapsed time.
func (t *Timer) Elapsed(now time.Time) time.Duration {
	switch t.state {
	case Running:
		return clampElapsed(now.Sub(t.startTick))
	case Paused:
		return t.elapsedAtPause
	default:
		return 0
	}
}

// Remaining returns the time left in the current period, never negative.
// A stopped timer has nothing remaining.
func (t *Timer) Remaining(now time.Time) time.Duration {
	if t.state == Stopped {
		return 0
	}
	r := t.delay - t.Elapsed(now)
	if r < 0 {
		return 0
	}
	return r
}

// ElapsedSeconds returns whole elapsed seconds, truncated.
func (t *Timer) ElapsedSeconds(now time.Time) int {
	return int(t.Elapsed(now) / time.Second)
}

// ElapsedMinutes returns whole elapsed minutes, truncated.
func (t *Timer) ElapsedMinutes(now time.Time) int {
	return t.ElapsedSeconds(now) / 60
}

// ElapsedSecondsMod60 returns the seconds part of the elapsed time.
func (t *Timer) ElapsedSecondsMod60(now time.Time) int {
	return t.ElapsedSeconds(now) % 60
}

func clampElapsed(d time.Duration) time.Duration {
	if d < 0 {
		return 0
	}
	return d
}
