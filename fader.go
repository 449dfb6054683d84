package aural

import (
	"math"
)

const halfPi = math.Pi / 2

// Fader owns a replaceable upstream node reference and performs a
// timed equal-power blend when the reference is swapped, so downstream
// nodes never see a discontinuity. While a fade is active the old
// input is still pulled every block; it is dropped exactly when the
// ramp completes.
type Fader struct {
	clk      *Clock
	buf      []float64
	computed uint64
	cur      Node
	old      Node // frozen blend when a fade was interrupted
	theta    float64
	step     float64
	fading   bool
}

// NewFader wraps the initial upstream reference.
func NewFader(clk *Clock, input Node) (*Fader, error) {
	if input == nil {
		return nil, NewConfigError("fader", "nil input")
	}
	return &Fader{
		clk: clk,
		buf: make([]float64, clk.BlockSize()),
		cur: input,
	}, nil
}

// SetInput replaces the upstream reference with an equal-power
// cos²/sin² ramp over fade seconds. fade 0 performs a hard switch. A
// call while a fade is in progress restarts the ramp from the current
// blended state, not from the original old input.
func (f *Fader) SetInput(input Node, fade float64) {
	if input == nil {
		f.clk.Logger().Warn("fader: ignoring nil input")
		return
	}
	f.clk.Mutate(func() {
		if fade <= 0 {
			f.cur = input
			f.old = nil
			f.fading = false
			return
		}
		if f.fading {
			f.old = newFrozenBlend(f.clk, f.old, f.cur, f.theta)
		} else {
			f.old = f.cur
		}
		f.cur = input
		f.theta = 0
		f.step = halfPi / (fade * float64(f.clk.SampleRate()))
		f.fading = true
	})
}

// Input returns the active upstream reference.
func (f *Fader) Input() Node { return f.cur }

// Block implements Node.
func (f *Fader) Block(tick uint64) []float64 {
	if f.computed == tick {
		return f.buf
	}
	f.computed = tick
	cur := f.cur.Block(tick)
	if !f.fading {
		copy(f.buf, cur)
		return f.buf
	}
	old := f.old.Block(tick)
	for i := range f.buf {
		c := math.Cos(f.theta)
		s := math.Sin(f.theta)
		f.buf[i] = old[i]*c*c + cur[i]*s*s
		if f.theta += f.step; f.theta > halfPi {
			f.theta = halfPi
		}
	}
	if f.theta >= halfPi {
		f.fading = false
		f.old = nil
	}
	return f.buf
}

// frozenBlend holds the constant mix captured when a fade is
// interrupted. Both legs keep being pulled until the restarted ramp
// completes and the whole blend is dropped.
type frozenBlend struct {
	a, b     Node
	ga, gb   float64
	buf      []float64
	computed uint64
}

func newFrozenBlend(clk *Clock, a, b Node, theta float64) *frozenBlend {
	c := math.Cos(theta)
	s := math.Sin(theta)
	return &frozenBlend{
		a:   a,
		b:   b,
		ga:  c * c,
		gb:  s * s,
		buf: make([]float64, clk.BlockSize()),
	}
}

func (fb *frozenBlend) Block(tick uint64) []float64 {
	if fb.computed == tick {
		return fb.buf
	}
	fb.computed = tick
	a := fb.a.Block(tick)
	b := fb.b.Block(tick)
	for i := range fb.buf {
		fb.buf[i] = a[i]*fb.ga + b[i]*fb.gb
	}
	return fb.buf
}
