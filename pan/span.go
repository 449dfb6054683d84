package pan

import (
	"math"

	vecmath "github.com/cwbudde/algo-vecmath"

	"github.com/ormeille/aural"
)

// SPan is a simple equal-power panner. The position p in [0,1] is
// mapped onto p*(N-1); only the adjacent channel pair bracketing that
// point receives signal, faded with the cos/sin equal-power law. All
// other channels stay silent, which gives a sharper, power-preserving
// transition than Pan.
type SPan struct {
	component
	splitters []*spanSplitter
}

// NewSPan creates an outs-channel equal-power panner.
func NewSPan(clk *aural.Clock, inputs []aural.Node, outs int, pans []aural.Param, options ...Option) (*SPan, error) {
	if outs < 1 {
		return nil, aural.NewConfigError("span", "outs must be at least 1, got %d", outs)
	}
	cfg := newConfig(options)
	lmax, err := expand("span", inputs, pans, cfg.muls, cfg.adds)
	if err != nil {
		return nil, err
	}
	p := &SPan{
		component: component{clk: clk, outs: outs},
		splitters: make([]*spanSplitter, lmax),
	}
	p.faders = make([]*aural.Fader, lmax)
	members := make([]aural.GroupNode, 0, lmax*outs)
	for i := 0; i < lmax; i++ {
		f, err := aural.NewFader(clk, aural.Wrap(inputs, i))
		if err != nil {
			return nil, err
		}
		p.faders[i] = f
		p.splitters[i] = &spanSplitter{
			in:   f,
			outs: outs,
			pan:  clampScalar(clk, "pan", aural.Wrap(pans, i), 0, 1),
			buf:  newRows(outs, clk.BlockSize()),
		}
		for j := 0; j < outs; j++ {
			members = append(members, newChanNode(clk, p.splitters[i], j,
				aural.Wrap(cfg.muls, i), aural.Wrap(cfg.adds, i)))
		}
	}
	p.group = aural.NewGroup(clk, members)
	return p, nil
}

// SetPan replaces the pan positions, cycled across voices.
func (p *SPan) SetPan(pans ...aural.Param) {
	p.clk.Mutate(func() {
		for i, s := range p.splitters {
			s.pan = clampScalar(p.clk, "pan", aural.Wrap(pans, i), 0, 1)
		}
	})
}

// Ctrls implements aural.Controllable.
func (p *SPan) Ctrls() []aural.CtrlMap {
	return []aural.CtrlMap{
		{Name: "pan", Min: 0, Max: 1, Curve: "lin"},
		{Name: "mul", Min: 0, Max: 1, Curve: "lin"},
	}
}

type spanSplitter struct {
	in       *aural.Fader
	outs     int
	pan      aural.Param
	buf      [][]float64
	computed uint64
}

func newRows(outs, blockSize int) [][]float64 {
	rows := make([][]float64, outs)
	for j := range rows {
		rows[j] = make([]float64, blockSize)
	}
	return rows
}

func (s *spanSplitter) rows(tick uint64) [][]float64 {
	if s.computed == tick {
		return s.buf
	}
	s.computed = tick
	in := s.in.Block(tick)
	if s.outs == 1 {
		copy(s.buf[0], in)
		return s.buf
	}
	if !s.pan.IsStream() {
		left, frac := s.bracket(s.pan.At(tick, 0))
		for j := range s.buf {
			zeroRow(s.buf[j])
		}
		vecmath.ScaleBlock(s.buf[left], in, math.Cos(frac*halfPi))
		vecmath.ScaleBlock(s.buf[left+1], in, math.Sin(frac*halfPi))
		return s.buf
	}
	for j := range s.buf {
		zeroRow(s.buf[j])
	}
	for i := range in {
		left, frac := s.bracket(clamp(s.pan.At(tick, i), 0, 1))
		s.buf[left][i] = in[i] * math.Cos(frac*halfPi)
		s.buf[left+1][i] = in[i] * math.Sin(frac*halfPi)
	}
	return s.buf
}

// bracket maps a position to the adjacent channel pair containing it.
func (s *spanSplitter) bracket(pan float64) (left int, frac float64) {
	pos := pan * float64(s.outs-1)
	left = int(pos)
	if left > s.outs-2 {
		left = s.outs - 2
	}
	return left, pos - float64(left)
}

const halfPi = math.Pi / 2

func zeroRow(row []float64) {
	for i := range row {
		row[i] = 0
	}
}
