package pan

import (
	"github.com/ormeille/aural"
)

type config struct {
	muls []aural.Param
	adds []aural.Param
}

// Option provides a way to set functional parameters to a component.
type Option func(*config)

// WithMul sets the per-voice post-processing gains, cycled across
// voices.
func WithMul(muls ...aural.Param) Option {
	return func(c *config) {
		c.muls = muls
	}
}

// WithAdd sets the per-voice post-processing offsets, cycled across
// voices.
func WithAdd(adds ...aural.Param) Option {
	return func(c *config) {
		c.adds = adds
	}
}

func newConfig(options []Option) config {
	c := config{
		muls: []aural.Param{aural.Scalar(1)},
		adds: []aural.Param{aural.Scalar(0)},
	}
	for _, option := range options {
		option(&c)
	}
	return c
}

// clampScalar clamps a scalar parameter to its documented range,
// logging a warning when the value was out of range. Modulated
// parameters pass through; they are clamped sample by sample during
// rendering.
func clampScalar(clk *aural.Clock, name string, p aural.Param, lo, hi float64) aural.Param {
	if p.IsStream() {
		return p
	}
	v := p.Once(0)
	if v < lo || v > hi {
		clk.Logger().Warnf("pan: %s %.4f out of [%g, %g], clamped", name, v, lo, hi)
		return aural.Scalar(clamp(v, lo, hi))
	}
	return p
}
