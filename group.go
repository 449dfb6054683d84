package aural

import (
	"math/rand"
)

// GroupNode is a channel-group member: an audio node with a lifecycle
// and an explicit release step.
type GroupNode interface {
	Node
	Controller
	Release()
}

// Group is an ordered, fixed-length sequence of member nodes created
// once at component construction. The length never changes; a
// different channel count requires constructing a new component.
type Group struct {
	clk     *Clock
	members []GroupNode
}

// NewGroup builds a channel group over the given members.
func NewGroup(clk *Clock, members []GroupNode) *Group {
	return &Group{clk: clk, members: members}
}

// Len returns the immutable member count.
func (g *Group) Len() int { return len(g.members) }

// Member returns the i-th output stream of the group.
func (g *Group) Member(i int) Node { return g.members[i] }

// Play activates every member: delay seconds ahead, auto-stop after
// dur seconds (0 = indefinite).
func (g *Group) Play(dur, delay float64) {
	for _, m := range g.members {
		m.Play(dur, delay)
	}
}

// Stop deactivates every member immediately.
func (g *Group) Stop() {
	for _, m := range g.members {
		m.Stop()
	}
}

// Out activates the group and routes successive members to successive
// physical buses starting at channel, stepping by increment. A
// negative channel requests a random, non-repeating permutation of the
// buses drawn from rng, for decorrelated diffusion. Routing takes
// effect at the next block boundary.
func (g *Group) Out(channel, increment int, dur, delay float64, rng *rand.Rand) error {
	if channel < 0 && rng == nil {
		return NewConfigError("group", "random bus routing requires a rand source")
	}
	if increment == 0 {
		increment = 1
	}
	g.Play(dur, delay)
	g.clk.Mutate(func() {
		for _, m := range g.members {
			g.clk.detach(m)
		}
		if channel < 0 {
			for i, j := range rng.Perm(len(g.members)) {
				g.clk.attach(g.members[j], i*increment)
			}
			return
		}
		for i, m := range g.members {
			g.clk.attach(m, channel+i*increment)
		}
	})
	return nil
}

// Release tears the group down deterministically: every member is
// detached from its buses and released child-before-parent, then the
// member list is dropped. Runs at the next block boundary, after the
// render thread finished consuming the members' streams.
func (g *Group) Release() {
	g.clk.Mutate(func() {
		for _, m := range g.members {
			g.clk.detach(m)
		}
		for _, m := range g.members {
			m.Release()
		}
		g.members = nil
	})
}
