// Package logic contains the exposure-timer control engine.
// This package has NO external dependencies (no GPIO, MQTT, OS, or time.Sleep).
// Time is always injectable via time.Time parameters, and every collaborator
// (display, relay, tone, storage) is reached through an interface.
package logic

import (
	"time"

	"github.com/sweeney/exposure-timer/internal/input"
)

// State is the active state of the exposure controller.
type State string

const (
	StateSetting  State = "SETTING"
	StateRunning  State = "RUNNING"
	StatePaused   State = "PAUSED"
	StateAlerting State = "ALERTING"
	StateMenu     State = "MENU"
)

// EventType represents a controller transition to be published.
type EventType string

const (
	EventExposureStart    EventType = "EXPOSURE_START"
	EventExposurePause    EventType = "EXPOSURE_PAUSE"
	EventExposureResume   EventType = "EXPOSURE_RESUME"
	EventExposureComplete EventType = "EXPOSURE_COMPLETE"
	EventExposureAbort    EventType = "EXPOSURE_ABORT"
	EventAlertStart       EventType = "ALERT_START"
	EventAlertEnd         EventType = "ALERT_END"
	EventMenuEnter        EventType = "MENU_ENTER"
	EventMenuExit         EventType = "MENU_EXIT"
	EventSlotStored       EventType = "SLOT_STORED"
	EventSlotRecalled     EventType = "SLOT_RECALLED"
	EventSettingChanged   EventType = "SETTING_CHANGED"
)

// Event represents a state transition to be published.
type Event struct {
	Timestamp time.Time
	Type      EventType
	State     State    // state after the transition
	Setting   Duration // active duration setting
	Remaining Duration // countdown remaining (zero outside Running/Paused)
	Slot      int      // memory slot for SLOT_* events
	Detail    string   // setting name or end reason
}

// Input is one scheduler tick's worth of user input.
type Input struct {
	Primary   input.Press // encoder push button: start/pause/confirm
	Secondary input.Press // menu/abort button
	Step      int         // net encoder detents since the previous tick
	Time      time.Time
}

// anyPress reports whether either button produced an edge.
func (in Input) anyPress() bool {
	return in.Primary != input.PressNone || in.Secondary != input.PressNone
}

// EventCounts tracks exposure statistics since startup.
type EventCounts struct {
	Started   int
	Completed int
	Aborted   int
	Alerts    int
}

// Display is the presentation sink. No state is read back.
type Display interface {
	SetMinutes(m int)
	SetSeconds(s int)
	SetDots(on bool)
	Enable(on bool)
	SetText(s string)
	SetIntensity(level int)
	Clear()
}

// Output gates the exposure relay.
type Output interface {
	Set(on bool)
}

// Tone switches the pre-configured alert oscillator.
type Tone interface {
	On()
	Off()
}

// Hardware bundles the collaborators the machine drives.
type Hardware struct {
	Display Display
	Output  Output
	Tone    Tone
}
