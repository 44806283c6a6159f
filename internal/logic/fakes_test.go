package logic

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/sweeney/exposure-timer/internal/input"
)

var t0 = time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

func at(ms int) time.Time {
	return t0.Add(time.Duration(ms) * time.Millisecond)
}

// fakeDisplay records the latest presentation state.
type fakeDisplay struct {
	minutes, seconds int
	dots             bool
	enabled          bool
	text             string
	intensity        int
	clears           int
	enableCalls      []bool
}

func (d *fakeDisplay) SetMinutes(m int) { d.minutes = m; d.text = "" }
func (d *fakeDisplay) SetSeconds(s int) { d.seconds = s; d.text = "" }
func (d *fakeDisplay) SetDots(on bool)  { d.dots = on }
func (d *fakeDisplay) Enable(on bool) {
	d.enabled = on
	d.enableCalls = append(d.enableCalls, on)
}
func (d *fakeDisplay) SetText(s string)       { d.text = s }
func (d *fakeDisplay) SetIntensity(level int) { d.intensity = level }
func (d *fakeDisplay) Clear()                 { d.clears++; d.text = "" }

func (d *fakeDisplay) shows() Duration {
	return Duration{Minutes: d.minutes, Seconds: d.seconds}
}

type fakeOutput struct {
	on      bool
	changes int
}

func (o *fakeOutput) Set(on bool) {
	if on != o.on {
		o.changes++
	}
	o.on = on
}

type fakeTone struct {
	on  bool
	ons int
}

func (t *fakeTone) On() {
	if !t.on {
		t.ons++
	}
	t.on = true
}
func (t *fakeTone) Off() { t.on = false }

// memStore is a byte image that counts writes.
type memStore struct {
	data   [ImageSize]byte
	writes int
	err    error
}

func (s *memStore) Byte(offset int) (byte, error) {
	if s.err != nil {
		return 0, s.err
	}
	if offset < 0 || offset >= len(s.data) {
		return 0, errors.New("offset out of range")
	}
	return s.data[offset], nil
}

func (s *memStore) SetByte(offset int, v byte) error {
	if s.err != nil {
		return s.err
	}
	if offset < 0 || offset >= len(s.data) {
		return errors.New("offset out of range")
	}
	s.data[offset] = v
	s.writes++
	return nil
}

// rig is a machine wired to fakes with a manual clock.
type rig struct {
	t       *testing.T
	m       *Machine
	display *fakeDisplay
	output  *fakeOutput
	tone    *fakeTone
	store   *memStore
	now     int // ms since t0
	events  []Event
}

func newRig(t *testing.T, cfg Config, store *memStore) *rig {
	t.Helper()
	if store == nil {
		store = &memStore{}
	}
	r := &rig{
		t:       t,
		display: &fakeDisplay{},
		output:  &fakeOutput{},
		tone:    &fakeTone{},
		store:   store,
	}
	m, err := NewMachine(cfg, Hardware{Display: r.display, Output: r.output, Tone: r.tone}, NewSettings(store))
	require.NoError(t, err)
	r.m = m
	return r
}

// send processes one input at the current time.
func (r *rig) send(in Input) []Event {
	r.t.Helper()
	in.Time = at(r.now)
	events, err := r.m.Process(in)
	require.NoError(r.t, err)
	r.events = append(r.events, events...)
	return events
}

func (r *rig) primary(p input.Press) []Event   { return r.send(Input{Primary: p}) }
func (r *rig) secondary(p input.Press) []Event { return r.send(Input{Secondary: p}) }
func (r *rig) step(n int) []Event              { return r.send(Input{Step: n}) }

// advance ticks the machine every tickMs until ms have passed.
func (r *rig) advance(ms, tickMs int) []Event {
	r.t.Helper()
	var out []Event
	end := r.now + ms
	for r.now < end {
		r.now += tickMs
		if r.now > end {
			r.now = end
		}
		out = append(out, r.send(Input{})...)
	}
	return out
}

func types(events []Event) []EventType {
	out := make([]EventType, len(events))
	for i, e := range events {
		out[i] = e.Type
	}
	return out
}
