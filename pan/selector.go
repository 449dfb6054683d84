package pan

import (
	"math"
	"math/rand"

	"github.com/ormeille/aural"
)

// Source is one selectable input stream set. Multichannel sources list
// one node per channel; sources with fewer channels than the selector
// member count are cycled by the wrap rule.
type Source []aural.Node

// Selector crossfades between multiple sources to generate a single
// output per member channel. The continuous voice pointer in
// [0, M-1] selects the bracketing source pair (floor(voice),
// floor(voice)+1) and blends it with the equal-power cos/sin law; the
// last pair behaves exactly like the two-source case. Sources outside
// the bracketing pair are still pulled but contribute no signal.
type Selector struct {
	clk     *aural.Clock
	group   *aural.Group
	members []*selNode
	length  int
	sources int
}

// NewSelector creates a selector over the given sources. The member
// count is the largest source channel count; the voice list expands
// the component into parallel voices.
func NewSelector(clk *aural.Clock, sources []Source, voices []aural.Param, options ...Option) (*Selector, error) {
	if len(sources) == 0 {
		return nil, aural.NewConfigError("selector", "empty source list")
	}
	length := 1
	for k, src := range sources {
		if len(src) == 0 {
			return nil, aural.NewConfigError("selector", "source %d has no channels", k)
		}
		if len(src) > length {
			length = len(src)
		}
	}
	cfg := newConfig(options)
	lmax, err := aural.Expand(voices, cfg.muls, cfg.adds)
	if err != nil {
		return nil, err
	}
	sel := &Selector{
		clk:     clk,
		length:  length,
		sources: len(sources),
	}
	max := float64(len(sources) - 1)
	members := make([]aural.GroupNode, 0, lmax*length)
	for i := 0; i < lmax; i++ {
		for j := 0; j < length; j++ {
			choices := make([]aural.Node, len(sources))
			for k, src := range sources {
				choices[k] = aural.Wrap(src, j)
			}
			n := &selNode{
				Unit:    aural.NewUnit(clk),
				choices: choices,
				blocks:  make([][]float64, len(sources)),
				voice:   clampScalar(clk, "voice", aural.Wrap(voices, i), 0, max),
			}
			n.SetMul(aural.Wrap(cfg.muls, i))
			n.SetAdd(aural.Wrap(cfg.adds, i))
			sel.members = append(sel.members, n)
			members = append(members, n)
		}
	}
	sel.group = aural.NewGroup(clk, members)
	return sel, nil
}

// Group returns the selector's channel group.
func (sel *Selector) Group() *aural.Group { return sel.group }

// Play activates every member.
func (sel *Selector) Play(dur, delay float64) { sel.group.Play(dur, delay) }

// Stop deactivates immediately.
func (sel *Selector) Stop() { sel.group.Stop() }

// Out routes the members to physical buses, see aural.Group.Out.
func (sel *Selector) Out(channel, increment int, dur, delay float64, rng *rand.Rand) error {
	return sel.group.Out(channel, increment, dur, delay, rng)
}

// Release tears down the channel group deterministically.
func (sel *Selector) Release() { sel.group.Release() }

// SetInputs replaces the source list. The new list must have the same
// source count; selectors are sized once at construction.
func (sel *Selector) SetInputs(sources []Source) error {
	if len(sources) != sel.sources {
		return aural.NewConfigError("selector", "source count is immutable, want %d, got %d", sel.sources, len(sources))
	}
	for k, src := range sources {
		if len(src) == 0 {
			return aural.NewConfigError("selector", "source %d has no channels", k)
		}
	}
	sel.clk.Mutate(func() {
		for m, n := range sel.members {
			j := m % sel.length
			for k, src := range sources {
				n.choices[k] = aural.Wrap(src, j)
			}
		}
	})
	return nil
}

// SetVoice replaces the voice pointers, cycled across voices.
func (sel *Selector) SetVoice(voices ...aural.Param) {
	max := float64(sel.sources - 1)
	sel.clk.Mutate(func() {
		for m, n := range sel.members {
			n.voice = clampScalar(sel.clk, "voice", aural.Wrap(voices, m/sel.length), 0, max)
		}
	})
}

// Ctrls implements aural.Controllable.
func (sel *Selector) Ctrls() []aural.CtrlMap {
	return []aural.CtrlMap{
		{Name: "voice", Min: 0, Max: float64(sel.sources - 1), Curve: "lin"},
		{Name: "mul", Min: 0, Max: 1, Curve: "lin"},
	}
}

type selNode struct {
	aural.Unit
	choices []aural.Node
	blocks  [][]float64
	voice   aural.Param
}

// Block implements aural.Node.
func (n *selNode) Block(tick uint64) []float64 {
	return n.Render(tick, n)
}

// Process implements aural.Processor. Every choice is pulled even when
// it falls outside the bracketing pair, so sources keep running while
// deselected.
func (n *selNode) Process(tick uint64, out []float64) {
	for k, c := range n.choices {
		n.blocks[k] = c.Block(tick)
	}
	if len(n.choices) == 1 {
		copy(out, n.blocks[0])
		return
	}
	max := float64(len(n.choices) - 1)
	if !n.voice.IsStream() {
		left, frac := bracketVoice(n.voice.At(tick, 0), len(n.choices))
		ga := math.Cos(frac * halfPi)
		gb := math.Sin(frac * halfPi)
		a, b := n.blocks[left], n.blocks[left+1]
		for i := range out {
			out[i] = a[i]*ga + b[i]*gb
		}
		return
	}
	for i := range out {
		left, frac := bracketVoice(clamp(n.voice.At(tick, i), 0, max), len(n.choices))
		out[i] = n.blocks[left][i]*math.Cos(frac*halfPi) + n.blocks[left+1][i]*math.Sin(frac*halfPi)
	}
}

// bracketVoice returns the source pair containing the voice pointer.
func bracketVoice(voice float64, count int) (left int, frac float64) {
	left = int(voice)
	if left > count-2 {
		left = count - 2
	}
	return left, voice - float64(left)
}
