//go:build linux

package gpio

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/warthog618/go-gpiocdev"

	"github.com/sweeney/exposure-timer/internal/input"
	"github.com/sweeney/exposure-timer/internal/logger"
)

// RealBoard drives the panel through the Linux GPIO character device.
type RealBoard struct {
	log *logger.Logger

	chip      *gpiocdev.Chip
	primary   *gpiocdev.Line
	secondary *gpiocdev.Line
	encA      *gpiocdev.Line
	encB      *gpiocdev.Line
	relay     *gpiocdev.Line
	buzzer    *gpiocdev.Line

	// Encoder edges arrive on the gpiocdev event goroutine.
	mu     sync.Mutex
	a, b   bool
	decode *input.Quadrature

	armed atomic.Bool
	done  chan struct{}
	wg    sync.WaitGroup
}

// Options tunes a RealBoard.
type Options struct {
	StepsPerDetent int
	ToneHz         int
}

// NewRealBoard requests every line of pins and starts the tone generator.
func NewRealBoard(pins Pins, opts Options, log *logger.Logger) (*RealBoard, error) {
	if opts.ToneHz <= 0 {
		opts.ToneHz = DefaultToneHz
	}
	chip, err := gpiocdev.NewChip(pins.Chip)
	if err != nil {
		return nil, fmt.Errorf("open gpio chip %s: %w", pins.Chip, err)
	}

	r := &RealBoard{
		log:    log,
		chip:   chip,
		decode: input.NewQuadrature(opts.StepsPerDetent),
		done:   make(chan struct{}),
	}

	// Buttons pull up and short to ground when pressed.
	if r.primary, err = chip.RequestLine(pins.Primary, gpiocdev.AsInput, gpiocdev.WithPullUp, gpiocdev.AsActiveLow); err != nil {
		r.Close()
		return nil, fmt.Errorf("request primary button pin %d: %w", pins.Primary, err)
	}
	if r.secondary, err = chip.RequestLine(pins.Secondary, gpiocdev.AsInput, gpiocdev.WithPullUp, gpiocdev.AsActiveLow); err != nil {
		r.Close()
		return nil, fmt.Errorf("request secondary button pin %d: %w", pins.Secondary, err)
	}

	r.mu.Lock()
	if r.encA, err = chip.RequestLine(pins.EncoderA, gpiocdev.AsInput, gpiocdev.WithPullUp,
		gpiocdev.WithBothEdges, gpiocdev.WithEventHandler(r.onEncoderEdge(pins.EncoderA))); err != nil {
		r.mu.Unlock()
		r.Close()
		return nil, fmt.Errorf("request encoder A pin %d: %w", pins.EncoderA, err)
	}
	if r.encB, err = chip.RequestLine(pins.EncoderB, gpiocdev.AsInput, gpiocdev.WithPullUp,
		gpiocdev.WithBothEdges, gpiocdev.WithEventHandler(r.onEncoderEdge(pins.EncoderA))); err != nil {
		r.mu.Unlock()
		r.Close()
		return nil, fmt.Errorf("request encoder B pin %d: %w", pins.EncoderB, err)
	}
	a, errA := r.encA.Value()
	b, errB := r.encB.Value()
	if errA == nil && errB == nil {
		r.a, r.b = a == 1, b == 1
	}
	r.decode.Reset(r.a, r.b)
	r.mu.Unlock()

	if r.relay, err = chip.RequestLine(pins.Relay, gpiocdev.AsOutput(0)); err != nil {
		r.Close()
		return nil, fmt.Errorf("request relay pin %d: %w", pins.Relay, err)
	}
	if r.buzzer, err = chip.RequestLine(pins.Buzzer, gpiocdev.AsOutput(0)); err != nil {
		r.Close()
		return nil, fmt.Errorf("request buzzer pin %d: %w", pins.Buzzer, err)
	}

	r.wg.Add(1)
	go r.toneLoop(time.Second / time.Duration(2*opts.ToneHz))

	log.Infow("gpio board ready", "chip", pins.Chip, "pins", pins.Offsets(), "tone_hz", opts.ToneHz)
	return r, nil
}

// onEncoderEdge returns the event handler for one encoder line. aOffset
// tells the handler which phase an event belongs to.
func (r *RealBoard) onEncoderEdge(aOffset int) func(gpiocdev.LineEvent) {
	return func(evt gpiocdev.LineEvent) {
		level := evt.Type == gpiocdev.LineEventRisingEdge
		r.mu.Lock()
		defer r.mu.Unlock()
		if evt.Offset == aOffset {
			r.a = level
		} else {
			r.b = level
		}
		r.decode.Feed(r.a, r.b)
	}
}

// toneLoop square-waves the buzzer line while armed.
func (r *RealBoard) toneLoop(half time.Duration) {
	defer r.wg.Done()
	ticker := time.NewTicker(half)
	defer ticker.Stop()

	level := 0
	for {
		select {
		case <-r.done:
			return
		case <-ticker.C:
			next := 0
			if r.armed.Load() {
				next = 1 - level
			}
			if next == level {
				continue
			}
			if err := r.buzzer.SetValue(next); err != nil {
				r.log.Warnw("buzzer write failed", "error", err)
				continue
			}
			level = next
		}
	}
}

// Read returns the button levels and the detents turned since the last Read.
func (r *RealBoard) Read() (Sample, error) {
	p, err := r.primary.Value()
	if err != nil {
		return Sample{}, fmt.Errorf("read primary button: %w", err)
	}
	s, err := r.secondary.Value()
	if err != nil {
		return Sample{}, fmt.Errorf("read secondary button: %w", err)
	}

	r.mu.Lock()
	step := r.decode.Step()
	r.mu.Unlock()

	// Lines are requested active-low, so 1 = pressed.
	return Sample{Primary: p == 1, Secondary: s == 1, Step: step}, nil
}

// SetRelay switches the relay line.
func (r *RealBoard) SetRelay(on bool) error {
	if err := r.relay.SetValue(boolToValue(on)); err != nil {
		return fmt.Errorf("write relay pin: %w", err)
	}
	return nil
}

// SetBuzzer arms or disarms the tone generator.
func (r *RealBoard) SetBuzzer(on bool) error {
	r.armed.Store(on)
	return nil
}

// Close stops the tone generator, drives both outputs low, and releases
// every line.
func (r *RealBoard) Close() error {
	var errs []error

	if r.done != nil {
		select {
		case <-r.done:
		default:
			close(r.done)
		}
		r.wg.Wait()
	}

	for _, out := range []*gpiocdev.Line{r.relay, r.buzzer} {
		if out == nil {
			continue
		}
		if err := out.SetValue(0); err != nil {
			errs = append(errs, fmt.Errorf("clear output pin: %w", err))
		}
	}
	for _, l := range []*gpiocdev.Line{r.primary, r.secondary, r.encA, r.encB, r.relay, r.buzzer} {
		if l == nil {
			continue
		}
		if err := l.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close line %d: %w", l.Offset(), err))
		}
	}
	if r.chip != nil {
		if err := r.chip.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close chip: %w", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("close errors: %v", errs)
	}
	return nil
}

func boolToValue(on bool) int {
	if on {
		return 1
	}
	return 0
}
