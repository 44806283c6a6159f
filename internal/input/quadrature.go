package input

// DefaultStepsPerDetent matches the common 24-detent mechanical encoders,
// which run one full Gray-code cycle per detent.
const DefaultStepsPerDetent = 4

// transitions maps (previous AB << 2 | current AB) to a signed quarter step.
// Invalid double transitions (a missed sample) count as zero.
var transitions = [16]int8{
	0, -1, +1, 0,
	+1, 0, 0, -1,
	-1, 0, 0, +1,
	0, +1, -1, 0,
}

// Quadrature decodes the two phase signals of a rotary encoder.
// Not safe for concurrent use; callers feeding it from an edge handler
// must synchronize with the goroutine calling Step.
type Quadrature struct {
	stepsPerDetent int
	state          uint8
	acc            int
}

// NewQuadrature creates a decoder. stepsPerDetent < 1 selects the default.
func NewQuadrature(stepsPerDetent int) *Quadrature {
	if stepsPerDetent < 1 {
		stepsPerDetent = DefaultStepsPerDetent
	}
	return &Quadrature{stepsPerDetent: stepsPerDetent}
}

// Reset sets the reference phase without counting a step.
func (q *Quadrature) Reset(a, b bool) {
	q.state = phase(a, b)
	q.acc = 0
}

// Feed records the current phase levels.
func (q *Quadrature) Feed(a, b bool) {
	next := phase(a, b)
	q.acc += int(transitions[q.state<<2|next])
	q.state = next
}

// Step returns the whole detents turned since the last call, positive for
// clockwise (A leads B). Partial detents are kept for the next call.
func (q *Quadrature) Step() int {
	n := q.acc / q.stepsPerDetent
	q.acc -= n * q.stepsPerDetent
	return n
}

func phase(a, b bool) uint8 {
	var p uint8
	if a {
		p |= 2
	}
	if b {
		p |= 1
	}
	return p
}
