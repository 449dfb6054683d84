package aural

import (
	"github.com/rs/xid"
)

// Unit carries the state shared by every leaf node: identity, the
// per-tick memo buffer, the lifecycle state machine and the mul/add
// post-processing parameters. Concrete nodes embed a Unit and call
// Render from their Block method.
type Unit struct {
	clk      *Clock
	id       string
	buf      []float64
	computed uint64
	playing  bool
	delay    int64 // samples until activation
	remain   int64 // samples until auto-stop, -1 when indefinite
	mul      Param
	add      Param
}

// NewUnit returns a Unit bound to the clock, playing indefinitely.
func NewUnit(clk *Clock) Unit {
	return Unit{
		clk:     clk,
		id:      xid.New().String(),
		buf:     make([]float64, clk.BlockSize()),
		playing: true,
		remain:  -1,
		mul:     Scalar(1),
		add:     Scalar(0),
	}
}

// ID returns the unit's unique id.
func (u *Unit) ID() string { return u.id }

// Clock returns the render clock the unit is bound to.
func (u *Unit) Clock() *Clock { return u.clk }

// Processor fills one block for the embedding node. Implementations
// pull their own inputs first, which makes the graph pull transitive.
type Processor interface {
	Process(tick uint64, out []float64)
}

// Render memoizes one block per tick. p fills the unit's buffer;
// lifecycle gating and mul/add post-processing are applied on top.
func (u *Unit) Render(tick uint64, p Processor) []float64 {
	if u.computed == tick {
		return u.buf
	}
	u.computed = tick
	if !u.playing {
		zero(u.buf)
		return u.buf
	}
	p.Process(tick, u.buf)
	u.post(tick)
	return u.buf
}

// post applies sample-accurate activation gating and the mul/add
// modifiers.
func (u *Unit) post(tick uint64) {
	for i := range u.buf {
		if u.delay > 0 {
			u.buf[i] = 0
			u.delay--
			continue
		}
		if u.remain == 0 {
			u.playing = false
		}
		if !u.playing {
			u.buf[i] = 0
			continue
		}
		if u.remain > 0 {
			u.remain--
		}
		u.buf[i] = u.buf[i]*u.mul.At(tick, i) + u.add.At(tick, i)
	}
}

// Play schedules activation delay seconds ahead and auto-deactivation
// after dur seconds. dur 0 keeps the unit playing indefinitely.
func (u *Unit) Play(dur, delay float64) {
	u.clk.Mutate(func() {
		u.playing = true
		u.delay = u.clk.Samples(delay)
		if dur > 0 {
			u.remain = u.clk.Samples(dur)
		} else {
			u.remain = -1
		}
	})
}

// Stop silences the unit at the next block boundary.
func (u *Unit) Stop() {
	u.clk.Mutate(func() {
		u.playing = false
		u.delay = 0
	})
}

// SetMul replaces the post-processing gain.
func (u *Unit) SetMul(p Param) {
	u.clk.Mutate(func() {
		u.mul = p
	})
}

// SetAdd replaces the post-processing offset.
func (u *Unit) SetAdd(p Param) {
	u.clk.Mutate(func() {
		u.add = p
	})
}

// Release drops the unit's stream buffer. Must run in mutation
// context, strictly after the render thread finished the current
// block and after the unit was detached from every bus.
func (u *Unit) Release() {
	u.playing = false
	u.buf = nil
}
