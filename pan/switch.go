package pan

import (
	"github.com/ormeille/aural"
)

// Switch distributes one input across N outputs. Output j carries the
// input attenuated by a triangular kernel centered on the continuous
// voice pointer in [0, N-1]; at integer positions exactly one output
// carries the full signal. Individual outputs are retrieved through
// Group().Member(j) and typically feed different effect chains.
type Switch struct {
	component
	splitters []*switchSplitter
}

// NewSwitch creates a switcher with outs outputs.
func NewSwitch(clk *aural.Clock, inputs []aural.Node, outs int, voices []aural.Param, options ...Option) (*Switch, error) {
	if outs < 1 {
		return nil, aural.NewConfigError("switch", "outs must be at least 1, got %d", outs)
	}
	cfg := newConfig(options)
	lmax, err := expand("switch", inputs, voices, cfg.muls, cfg.adds)
	if err != nil {
		return nil, err
	}
	sw := &Switch{
		component: component{clk: clk, outs: outs},
		splitters: make([]*switchSplitter, lmax),
	}
	sw.faders = make([]*aural.Fader, lmax)
	members := make([]aural.GroupNode, 0, lmax*outs)
	for i := 0; i < lmax; i++ {
		f, err := aural.NewFader(clk, aural.Wrap(inputs, i))
		if err != nil {
			return nil, err
		}
		sw.faders[i] = f
		sw.splitters[i] = &switchSplitter{
			in:    f,
			outs:  outs,
			voice: clampScalar(clk, "voice", aural.Wrap(voices, i), 0, float64(outs-1)),
			buf:   newRows(outs, clk.BlockSize()),
		}
		for j := 0; j < outs; j++ {
			members = append(members, newChanNode(clk, sw.splitters[i], j,
				aural.Wrap(cfg.muls, i), aural.Wrap(cfg.adds, i)))
		}
	}
	sw.group = aural.NewGroup(clk, members)
	return sw, nil
}

// SetVoice replaces the voice pointers, cycled across voices.
func (sw *Switch) SetVoice(voices ...aural.Param) {
	sw.clk.Mutate(func() {
		for i, s := range sw.splitters {
			s.voice = clampScalar(sw.clk, "voice", aural.Wrap(voices, i), 0, float64(sw.outs-1))
		}
	})
}

// Ctrls implements aural.Controllable.
func (sw *Switch) Ctrls() []aural.CtrlMap {
	return []aural.CtrlMap{
		{Name: "voice", Min: 0, Max: float64(sw.outs - 1), Curve: "lin"},
		{Name: "mul", Min: 0, Max: 1, Curve: "lin"},
	}
}

type switchSplitter struct {
	in       *aural.Fader
	outs     int
	voice    aural.Param
	buf      [][]float64
	computed uint64
}

func (s *switchSplitter) rows(tick uint64) [][]float64 {
	if s.computed == tick {
		return s.buf
	}
	s.computed = tick
	in := s.in.Block(tick)
	max := float64(s.outs - 1)
	if !s.voice.IsStream() {
		v := clamp(s.voice.At(tick, 0), 0, max)
		for j := range s.buf {
			g := triangle(v, j)
			if g == 0 {
				zeroRow(s.buf[j])
				continue
			}
			for i := range in {
				s.buf[j][i] = in[i] * g
			}
		}
		return s.buf
	}
	for i := range in {
		v := clamp(s.voice.At(tick, i), 0, max)
		for j := range s.buf {
			s.buf[j][i] = in[i] * triangle(v, j)
		}
	}
	return s.buf
}

// triangle is the interpolation kernel: unity at the channel center,
// linear falloff, zero beyond one channel of distance.
func triangle(voice float64, j int) float64 {
	d := voice - float64(j)
	if d < 0 {
		d = -d
	}
	if d >= 1 {
		return 0
	}
	return 1 - d
}
