/*
Package pan routes and blends input streams across an output channel
set using a continuous position parameter.

Four components are provided. Pan places the input on an N-channel
circle with a cosine gain window whose width is controlled by a spread
parameter. SPan is a sharper equal-power panner that fades only
between the adjacent channel pair bracketing the position. Switch
distributes one input across N outputs with a triangular kernel
centered on a voice pointer. Selector is the inverse: it crossfades a
list of sources down to a single output.

All four expand their parameters with the wrap rule, crossfade input
swaps through an input fader and share the channel-group lifecycle:
Play, Stop, Out bus routing and deterministic Release.
*/
package pan

import (
	"math"
	"math/rand"

	vecmath "github.com/cwbudde/algo-vecmath"

	"github.com/ormeille/aural"
)

// rowSource computes one block of per-channel rows per tick.
type rowSource interface {
	rows(tick uint64) [][]float64
}

// chanNode exposes a single row of a splitter as a group member.
type chanNode struct {
	aural.Unit
	src rowSource
	ch  int
}

func newChanNode(clk *aural.Clock, src rowSource, ch int, mul, add aural.Param) *chanNode {
	n := &chanNode{Unit: aural.NewUnit(clk), src: src, ch: ch}
	n.SetMul(mul)
	n.SetAdd(add)
	return n
}

// Block implements aural.Node.
func (n *chanNode) Block(tick uint64) []float64 {
	return n.Render(tick, n)
}

// Process implements aural.Processor.
func (n *chanNode) Process(tick uint64, out []float64) {
	copy(out, n.src.rows(tick)[n.ch])
}

// clamp restricts v to [lo, hi]. Out-of-range scalar parameters are
// clamped at set time with a warning; modulated parameters are clamped
// here sample by sample, processing continues.
func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// component carries what Pan, SPan and Switch share: the per-voice
// input faders, the channel group and the lifecycle surface.
type component struct {
	clk    *aural.Clock
	faders []*aural.Fader
	group  *aural.Group
	outs   int
}

// Group returns the component's channel group. Member(j) is the j-th
// output stream of the first voice.
func (c *component) Group() *aural.Group { return c.group }

// Play activates every channel node, delay seconds ahead, auto-stop
// after dur seconds (0 = indefinite).
func (c *component) Play(dur, delay float64) { c.group.Play(dur, delay) }

// Stop deactivates immediately.
func (c *component) Stop() { c.group.Stop() }

// Out activates the component and routes its channel-group members to
// physical buses. See aural.Group.Out for the channel < 0 diffusion
// contract.
func (c *component) Out(channel, increment int, dur, delay float64, rng *rand.Rand) error {
	return c.group.Out(channel, increment, dur, delay, rng)
}

// Release tears down the channel group deterministically.
func (c *component) Release() { c.group.Release() }

// SetInput replaces the input references, crossfading over fadetime
// seconds. Input lists shorter than the voice count are cycled.
func (c *component) SetInput(inputs []aural.Node, fadetime float64) {
	if len(inputs) == 0 {
		c.clk.Logger().Warn("pan: ignoring empty input list")
		return
	}
	for i, f := range c.faders {
		f.SetInput(aural.Wrap(inputs, i), fadetime)
	}
}

// expand computes the voice count for a component from its input list
// and parameter lists.
func expand(component string, inputs []aural.Node, lists ...[]aural.Param) (int, error) {
	if len(inputs) == 0 {
		return 0, aural.NewConfigError(component, "empty input list")
	}
	lmax, err := aural.Expand(lists...)
	if err != nil {
		return 0, err
	}
	if len(inputs) > lmax {
		lmax = len(inputs)
	}
	return lmax, nil
}

// Pan is a cosine panner with control over the spread factor. The
// position parameter moves the sound around an N-channel circle; the
// spread parameter widens the cosine gain window from hard-panned to
// the nearest channel (spread 0) up to equal gain on every channel
// (spread 1). Gains are power-normalized so the summed square is one
// at any position.
type Pan struct {
	component
	splitters []*panSplitter
}

// NewPan creates an outs-channel cosine panner. The voice count is the
// longest of the input, pan and spread lists; shorter lists cycle.
func NewPan(clk *aural.Clock, inputs []aural.Node, outs int, pans, spreads []aural.Param, options ...Option) (*Pan, error) {
	if outs < 1 {
		return nil, aural.NewConfigError("pan", "outs must be at least 1, got %d", outs)
	}
	cfg := newConfig(options)
	lmax, err := expand("pan", inputs, pans, spreads, cfg.muls, cfg.adds)
	if err != nil {
		return nil, err
	}
	p := &Pan{
		component: component{clk: clk, outs: outs},
		splitters: make([]*panSplitter, lmax),
	}
	p.faders = make([]*aural.Fader, lmax)
	members := make([]aural.GroupNode, 0, lmax*outs)
	for i := 0; i < lmax; i++ {
		f, err := aural.NewFader(clk, aural.Wrap(inputs, i))
		if err != nil {
			return nil, err
		}
		p.faders[i] = f
		p.splitters[i] = newPanSplitter(clk, f, outs,
			clampScalar(clk, "pan", aural.Wrap(pans, i), 0, 1),
			clampScalar(clk, "spread", aural.Wrap(spreads, i), 0, 1))
		for j := 0; j < outs; j++ {
			members = append(members, newChanNode(clk, p.splitters[i], j,
				aural.Wrap(cfg.muls, i), aural.Wrap(cfg.adds, i)))
		}
	}
	p.group = aural.NewGroup(clk, members)
	return p, nil
}

// SetPan replaces the pan positions, cycled across voices.
func (p *Pan) SetPan(pans ...aural.Param) {
	p.clk.Mutate(func() {
		for i, s := range p.splitters {
			s.pan = clampScalar(p.clk, "pan", aural.Wrap(pans, i), 0, 1)
		}
	})
}

// SetSpread replaces the spread factors, cycled across voices.
func (p *Pan) SetSpread(spreads ...aural.Param) {
	p.clk.Mutate(func() {
		for i, s := range p.splitters {
			s.spread = clampScalar(p.clk, "spread", aural.Wrap(spreads, i), 0, 1)
		}
	})
}

// Ctrls implements aural.Controllable.
func (p *Pan) Ctrls() []aural.CtrlMap {
	return []aural.CtrlMap{
		{Name: "pan", Min: 0, Max: 1, Curve: "lin"},
		{Name: "spread", Min: 0, Max: 1, Curve: "lin"},
		{Name: "mul", Min: 0, Max: 1, Curve: "lin"},
	}
}

// panSplitter computes the per-channel rows for one voice.
type panSplitter struct {
	clk      *aural.Clock
	in       *aural.Fader
	outs     int
	pan      aural.Param
	spread   aural.Param
	buf      [][]float64
	gains    []float64
	computed uint64
}

func newPanSplitter(clk *aural.Clock, in *aural.Fader, outs int, pan, spread aural.Param) *panSplitter {
	s := &panSplitter{
		clk:    clk,
		in:     in,
		outs:   outs,
		pan:    pan,
		spread: spread,
		buf:    make([][]float64, outs),
		gains:  make([]float64, outs),
	}
	for j := range s.buf {
		s.buf[j] = make([]float64, clk.BlockSize())
	}
	return s
}

func (s *panSplitter) rows(tick uint64) [][]float64 {
	if s.computed == tick {
		return s.buf
	}
	s.computed = tick
	in := s.in.Block(tick)
	if !s.pan.IsStream() && !s.spread.IsStream() {
		s.gainsAt(s.pan.At(tick, 0), s.spread.At(tick, 0))
		for j := range s.buf {
			vecmath.ScaleBlock(s.buf[j], in, s.gains[j])
		}
		return s.buf
	}
	for i := range in {
		s.gainsAt(clamp(s.pan.At(tick, i), 0, 1), clamp(s.spread.At(tick, i), 0, 1))
		for j := range s.buf {
			s.buf[j][i] = in[i] * s.gains[j]
		}
	}
	return s.buf
}

// spreadEps keeps the sharpening exponent finite as spread approaches
// zero; below it the pan degenerates to winner-take-all.
const spreadEps = 1e-3

// gainsAt fills s.gains for one position/spread pair. The gain of
// channel j is ((1+cos(2πd))/2)^k with d the circular distance between
// the position and the channel center j/outs, and k = (1-spread)/spread.
// Spread 1 therefore gives every channel identical gain, spread 0 a
// hard pan to the nearest channel. Gains are normalized to unit power.
func (s *panSplitter) gainsAt(pan, spread float64) {
	if spread < spreadEps {
		nearest := int(math.Round(pan*float64(s.outs))) % s.outs
		for j := range s.gains {
			s.gains[j] = 0
		}
		s.gains[nearest] = 1
		return
	}
	k := (1 - spread) / spread
	sum := 0.0
	for j := range s.gains {
		d := pan - float64(j)/float64(s.outs)
		if d < -0.5 {
			d++
		} else if d > 0.5 {
			d--
		}
		g := math.Pow(0.5+0.5*math.Cos(2*math.Pi*d), k)
		s.gains[j] = g
		sum += g * g
	}
	if sum > 0 {
		norm := 1 / math.Sqrt(sum)
		for j := range s.gains {
			s.gains[j] *= norm
		}
	}
}
