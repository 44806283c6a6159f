package display

import "fmt"

// Fake is a display test double. It records the presentation state and
// renders it as text.
type Fake struct {
	Minutes, Seconds int
	Text             string
	TextMode         bool
	Dots             bool
	Enabled          bool
	Intensity        int
	Flushes          int

	// FlushError, if set, will be returned by Flush.
	FlushError error
}

// NewFake returns an enabled, blank fake at full brightness.
func NewFake() *Fake {
	return &Fake{Enabled: true, TextMode: true, Intensity: MaxIntensity}
}

func (f *Fake) SetMinutes(m int) { f.Minutes = m; f.TextMode = false }
func (f *Fake) SetSeconds(s int) { f.Seconds = s; f.TextMode = false }
func (f *Fake) SetDots(on bool)  { f.Dots = on }
func (f *Fake) Enable(on bool)   { f.Enabled = on }
func (f *Fake) SetText(s string) { f.Text = s; f.TextMode = true }
func (f *Fake) Clear()           { f.Text = ""; f.TextMode = true; f.Dots = false }

func (f *Fake) SetIntensity(level int) {
	if level < 0 {
		level = 0
	}
	if level > MaxIntensity {
		level = MaxIntensity
	}
	f.Intensity = level
}

// Flush counts calls.
func (f *Fake) Flush() error {
	if f.FlushError != nil {
		return f.FlushError
	}
	f.Flushes++
	return nil
}

// String renders what a viewer would see: "" when disabled, the text in
// text mode, otherwise "MM:SS" (or "MM SS" with the colon off).
func (f *Fake) String() string {
	if !f.Enabled {
		return ""
	}
	if f.TextMode {
		return f.Text
	}
	sep := " "
	if f.Dots {
		sep = ":"
	}
	return fmt.Sprintf("%02d%s%02d", f.Minutes, sep, f.Seconds)
}
