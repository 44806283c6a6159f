package logic

import (
	"time"

	"github.com/sweeney/exposure-timer/internal/input"
	"github.com/sweeney/exposure-timer/internal/softtimer"
)

// Default blink periods.
const (
	DefaultRunBlink   = 500 * time.Millisecond
	DefaultPauseBlink = 500 * time.Millisecond
)

// End reasons carried in Event.Detail.
const (
	ReasonLongPress    = "long_press"
	ReasonAbortButton  = "abort_button"
	ReasonAcknowledged = "acknowledged"
	ReasonFinished     = "finished"
)

// Config configures a Machine.
type Config struct {
	RunBlink   time.Duration // colon blink period while running
	PauseBlink time.Duration // whole-display blink period while paused
	MenuItems  []MenuItem    // nil selects DefaultMenuItems
	Initial    Duration      // duration shown at power-up
}

// Status is a point-in-time view of the machine for status consumers.
type Status struct {
	State      State
	Setting    Duration
	Remaining  Duration
	Output     bool
	Alert      AlertConfig
	Brightness int
	MenuItem   string // empty outside the menu
	Editing    bool
	Counts     EventCounts
}

// Machine is the exposure controller automaton. It owns the countdown and
// both blink timers, the alert sequencer and the menu, and is the single
// context every state handler works on. Not safe for concurrent use: all
// calls come from the control loop.
type Machine struct {
	hw       Hardware
	settings *Settings

	state      State
	acc        *Accumulator
	alert      AlertConfig
	brightness int
	exposure   Duration // snapshot of the setting taken at start
	output     bool

	countdown softtimer.Timer

	// Separate blink timers: entering Paused starts a fresh phase while
	// Running's blink resumes on its own.
	runBlink   softtimer.Timer
	pauseBlink softtimer.Timer
	dots       bool
	visible    bool

	sequencer *Sequencer
	menu      *Menu
	counts    EventCounts

	now    time.Time
	events []Event
	err    error
}

// NewMachine loads persisted settings, drives the collaborators to their
// idle state and returns a machine in Setting.
func NewMachine(cfg Config, hw Hardware, settings *Settings) (*Machine, error) {
	if cfg.RunBlink <= 0 {
		cfg.RunBlink = DefaultRunBlink
	}
	if cfg.PauseBlink <= 0 {
		cfg.PauseBlink = DefaultPauseBlink
	}
	if cfg.MenuItems == nil {
		cfg.MenuItems = DefaultMenuItems()
	}

	brightness, err := settings.Brightness()
	if err != nil {
		return nil, err
	}
	alert, err := settings.Alert()
	if err != nil {
		return nil, err
	}

	m := &Machine{
		hw:         hw,
		settings:   settings,
		state:      StateSetting,
		acc:        NewAccumulator(cfg.Initial),
		alert:      alert,
		brightness: brightness,
		sequencer:  NewSequencer(hw.Tone),
		menu:       newMenu(cfg.MenuItems),
	}
	m.runBlink.SetDelay(cfg.RunBlink)
	m.pauseBlink.SetDelay(cfg.PauseBlink)

	m.setOutput(false)
	hw.Tone.Off()
	hw.Display.SetIntensity(brightness)
	m.restoreDisplay()
	return m, nil
}

// Process dispatches one tick of input to the active state.
// It returns the events produced by any transitions, and the first storage
// error hit on the way; the state has advanced either way.
func (m *Machine) Process(in Input) ([]Event, error) {
	m.now = in.Time
	m.events = nil
	m.err = nil

	switch m.state {
	case StateSetting:
		m.handleSetting(in)
	case StateRunning:
		m.handleRunning(in)
	case StatePaused:
		m.handlePaused(in)
	case StateAlerting:
		m.handleAlerting(in)
	case StateMenu:
		m.menu.handle(m, in)
	}

	return m.events, m.err
}

func (m *Machine) handleSetting(in Input) {
	switch {
	case in.Secondary == input.PressShort:
		m.enterMenu()
	case in.Primary == input.PressShort:
		m.start()
	case in.Step != 0:
		m.showDuration(m.acc.ApplyStep(in.Step))
	}
}

func (m *Machine) handleRunning(in Input) {
	switch {
	case in.Primary == input.PressLong:
		m.abort(ReasonLongPress)
	case in.Secondary == input.PressLong:
		m.abort(ReasonAbortButton)
	case m.countdown.Update(m.now):
		// Expiry wins over a pause on the same tick.
		m.complete()
	case in.Primary == input.PressShort:
		m.pause()
	default:
		if m.runBlink.Update(m.now) {
			m.dots = !m.dots
		}
		m.showRemaining()
	}
}

func (m *Machine) handlePaused(in Input) {
	switch {
	case in.Primary == input.PressLong:
		m.abort(ReasonLongPress)
	case in.Secondary == input.PressLong:
		m.abort(ReasonAbortButton)
	case in.Primary == input.PressShort:
		m.resume()
	default:
		if m.pauseBlink.Update(m.now) {
			m.visible = !m.visible
			m.hw.Display.Enable(m.visible)
		}
	}
}

func (m *Machine) handleAlerting(in Input) {
	// Acknowledgement wins over everything else on this tick.
	if in.anyPress() {
		m.sequencer.Cancel()
		m.endAlert(ReasonAcknowledged)
		return
	}
	for _, e := range m.sequencer.Update(m.now) {
		if e == AlertFinished {
			m.endAlert(ReasonFinished)
		}
	}
}

func (m *Machine) start() {
	d := m.acc.Duration()
	if d.IsZero() {
		return
	}

	m.exposure = d
	m.countdown.SetDelay(d.Std())
	m.countdown.Start(m.now, softtimer.Once)
	m.runBlink.Start(m.now, softtimer.Loop)
	m.dots = true
	m.visible = true

	m.state = StateRunning
	m.counts.Started++
	m.setOutput(true)
	m.showRemaining()
	m.emit(EventExposureStart, 0, "")
}

func (m *Machine) pause() {
	m.countdown.Pause(m.now)
	m.runBlink.Pause(m.now)
	m.pauseBlink.Start(m.now, softtimer.Loop)
	m.setOutput(false)

	m.state = StatePaused
	m.visible = false
	m.hw.Display.Enable(false)
	m.emit(EventExposurePause, 0, "")
}

func (m *Machine) resume() {
	m.countdown.Resume(m.now)
	m.runBlink.Resume(m.now)
	m.pauseBlink.Stop()
	m.setOutput(true)

	m.state = StateRunning
	m.visible = true
	m.hw.Display.Enable(true)
	m.showRemaining()
	m.emit(EventExposureResume, 0, "")
}

func (m *Machine) complete() {
	m.stopExposure()
	m.counts.Completed++

	alerting := m.sequencer.Start(m.alert, m.now)
	if alerting {
		m.state = StateAlerting
		m.counts.Alerts++
	} else {
		m.state = StateSetting
	}
	m.restoreDisplay()
	m.emit(EventExposureComplete, 0, "")
	if alerting {
		m.emit(EventAlertStart, 0, "")
	}
}

func (m *Machine) abort(reason string) {
	m.stopExposure()
	m.counts.Aborted++
	m.state = StateSetting
	m.restoreDisplay()
	m.emit(EventExposureAbort, 0, reason)
}

func (m *Machine) stopExposure() {
	m.countdown.Stop()
	m.runBlink.Stop()
	m.pauseBlink.Stop()
	m.setOutput(false)
}

func (m *Machine) endAlert(reason string) {
	m.state = StateSetting
	m.restoreDisplay()
	m.emit(EventAlertEnd, 0, reason)
}

func (m *Machine) enterMenu() {
	if !m.menu.enter(m) {
		return
	}
	m.state = StateMenu
	m.emit(EventMenuEnter, 0, "")
}

func (m *Machine) exitMenu() {
	m.state = StateSetting
	m.restoreDisplay()
	m.emit(EventMenuExit, 0, "")
}

func (m *Machine) setOutput(on bool) {
	m.output = on
	m.hw.Output.Set(on)
}

// restoreDisplay shows the set duration steadily.
func (m *Machine) restoreDisplay() {
	m.dots = true
	m.visible = true
	m.hw.Display.Enable(true)
	m.showDuration(m.acc.Duration())
}

func (m *Machine) showDuration(d Duration) {
	m.hw.Display.SetDots(m.dots)
	m.hw.Display.SetMinutes(d.Minutes)
	m.hw.Display.SetSeconds(d.Seconds)
}

func (m *Machine) showRemaining() {
	m.showDuration(m.remaining(m.now))
}

// remaining subtracts truncated elapsed seconds from the exposure, so the
// full setting shows for the first second and 00:01 for the last.
func (m *Machine) remaining(now time.Time) Duration {
	if m.state != StateRunning && m.state != StatePaused {
		return Duration{}
	}
	return FromSeconds(m.exposure.TotalSeconds() - m.countdown.ElapsedSeconds(now))
}

func (m *Machine) emit(t EventType, slot int, detail string) {
	m.events = append(m.events, Event{
		Timestamp: m.now,
		Type:      t,
		State:     m.state,
		Setting:   m.acc.Duration(),
		Remaining: m.remaining(m.now),
		Slot:      slot,
		Detail:    detail,
	})
}

func (m *Machine) fail(err error) {
	if m.err == nil {
		m.err = err
	}
}

// State returns the active state.
func (m *Machine) State() State {
	return m.state
}

// Setting returns the active duration setting.
func (m *Machine) Setting() Duration {
	return m.acc.Duration()
}

// Alert returns the active alert configuration.
func (m *Machine) Alert() AlertConfig {
	return m.alert
}

// Brightness returns the active display intensity.
func (m *Machine) Brightness() int {
	return m.brightness
}

// Output reports whether the relay is asserted.
func (m *Machine) Output() bool {
	return m.output
}

// Counts returns a copy of the exposure statistics.
func (m *Machine) Counts() EventCounts {
	return m.counts
}

// Status returns a snapshot of the machine evaluated at now.
func (m *Machine) Status(now time.Time) Status {
	s := Status{
		State:      m.state,
		Setting:    m.acc.Duration(),
		Remaining:  m.remaining(now),
		Output:     m.output,
		Alert:      m.alert,
		Brightness: m.brightness,
		Counts:     m.counts,
	}
	if m.state == StateMenu {
		s.MenuItem = m.menu.Item().String()
		s.Editing = m.menu.Editing()
	}
	return s
}
