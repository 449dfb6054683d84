// Package mock provides deterministic signal sources for tests.
package mock

import (
	"math"

	"github.com/ormeille/aural"
)

// Const produces a constant-valued block.
type Const struct {
	aural.Unit
	value float64
}

// NewConst creates a constant source.
func NewConst(clk *aural.Clock, value float64) *Const {
	return &Const{Unit: aural.NewUnit(clk), value: value}
}

// Block implements aural.Node.
func (c *Const) Block(tick uint64) []float64 {
	return c.Render(tick, c)
}

// Process implements aural.Processor.
func (c *Const) Process(_ uint64, out []float64) {
	for i := range out {
		out[i] = c.value
	}
}

// Sine produces a fixed-frequency sine wave.
type Sine struct {
	aural.Unit
	freq  float64
	amp   float64
	phase float64
}

// NewSine creates a sine source.
func NewSine(clk *aural.Clock, freq, amp float64) *Sine {
	return &Sine{Unit: aural.NewUnit(clk), freq: freq, amp: amp}
}

// Block implements aural.Node.
func (s *Sine) Block(tick uint64) []float64 {
	return s.Render(tick, s)
}

// Process implements aural.Processor.
func (s *Sine) Process(_ uint64, out []float64) {
	inc := 2 * math.Pi * s.freq / float64(s.Clock().SampleRate())
	for i := range out {
		out[i] = s.amp * math.Sin(s.phase)
		s.phase += inc
		if s.phase >= 2*math.Pi {
			s.phase -= 2 * math.Pi
		}
	}
}

// Ramp counts samples since creation, one unit per sample. Handy for
// asserting sample-accurate timing.
type Ramp struct {
	aural.Unit
	n float64
}

// NewRamp creates a ramp source.
func NewRamp(clk *aural.Clock) *Ramp {
	return &Ramp{Unit: aural.NewUnit(clk)}
}

// Block implements aural.Node.
func (r *Ramp) Block(tick uint64) []float64 {
	return r.Render(tick, r)
}

// Process implements aural.Processor.
func (r *Ramp) Process(_ uint64, out []float64) {
	for i := range out {
		out[i] = r.n
		r.n++
	}
}
