/*
Package sched provides the periodic callback scheduler: control-rate
logic fired at sample-accurate intervals of audio-clock time, inside
the render loop and strictly before the block's audio nodes are
pulled.

A Sched has no audio output and no gain modifiers; it is a
control-only component. Callbacks run synchronously on the render
goroutine and must not block; callbacks that need to do real work hand
off through Async.
*/
package sched

import (
	"github.com/rs/xid"

	"github.com/ormeille/aural"
)

// minInterval is the shortest accepted firing interval in seconds.
const minInterval = 1e-4

// Sched invokes a callback every interval seconds of audio-clock
// time. The elapsed-sample accumulator resets to the remainder on each
// firing, preserving phase over arbitrarily long runs. The interval
// may itself be a modulated stream; the value used for the next firing
// is the most recently observed one, sampled once per block.
//
// A callback error is wrapped in aural.CallbackError and propagates
// out of Clock.Tick; the scheduler never swallows it.
type Sched struct {
	clk     *aural.Clock
	id      string
	fn      func() error
	time    aural.Param
	elapsed int64
	delay   int64
	remain  int64
	running bool
}

// New creates a scheduler for the callback, stopped. The scheduler
// registers with the clock immediately; call Play to start it and
// Release to unregister.
func New(clk *aural.Clock, fn func() error, time aural.Param) (*Sched, error) {
	if fn == nil {
		return nil, aural.NewConfigError("sched", "nil callback")
	}
	s := &Sched{
		clk:    clk,
		id:     xid.New().String(),
		fn:     fn,
		time:   checkTime(clk, time),
		remain: -1,
	}
	clk.AddTicker(s)
	return s, nil
}

// ID returns the scheduler's unique id, carried by callback errors.
func (s *Sched) ID() string { return s.id }

// SetTime replaces the firing interval in seconds.
func (s *Sched) SetTime(time aural.Param) {
	s.clk.Mutate(func() {
		s.time = checkTime(s.clk, time)
	})
}

// Play starts firing, delay seconds ahead, auto-stopping after dur
// seconds (0 = run until Stop).
func (s *Sched) Play(dur, delay float64) {
	s.clk.Mutate(func() {
		s.running = true
		s.elapsed = 0
		s.delay = s.clk.Samples(delay)
		if dur > 0 {
			s.remain = s.clk.Samples(dur)
		} else {
			s.remain = -1
		}
	})
}

// Stop halts firing at the next block boundary.
func (s *Sched) Stop() {
	s.clk.Mutate(func() {
		s.running = false
	})
}

// Release stops the scheduler and unregisters it from the clock.
func (s *Sched) Release() {
	s.Stop()
	s.clk.RemoveTicker(s)
}

// Ctrls implements aural.Controllable.
func (s *Sched) Ctrls() []aural.CtrlMap {
	return []aural.CtrlMap{
		{Name: "time", Min: 0.125, Max: 4, Curve: "lin"},
	}
}

// Advance implements aural.Ticker. It walks the block sample by
// sample so firings stay sample-accurate regardless of block size.
func (s *Sched) Advance(tick uint64) error {
	if !s.running {
		return nil
	}
	interval := s.time.Once(tick)
	if interval < minInterval {
		interval = minInterval
	}
	samples := s.clk.Samples(interval)
	if samples < 1 {
		// Intervals under one sample period fire every sample; the
		// accumulator must still reset or firings backlog.
		samples = 1
	}
	for i := 0; i < s.clk.BlockSize(); i++ {
		if s.delay > 0 {
			s.delay--
			continue
		}
		if s.remain == 0 {
			s.running = false
			return nil
		}
		if s.remain > 0 {
			s.remain--
		}
		s.elapsed++
		if s.elapsed >= samples {
			s.elapsed -= samples
			if err := s.fn(); err != nil {
				return &aural.CallbackError{ID: s.id, Err: err}
			}
		}
	}
	return nil
}

// checkTime clamps scalar intervals to the documented minimum with a
// warning. Modulated intervals are clamped on observation.
func checkTime(clk *aural.Clock, time aural.Param) aural.Param {
	if time.IsStream() {
		return time
	}
	if v := time.Once(0); v < minInterval {
		clk.Logger().Warnf("sched: interval %g below minimum %g, clamped", v, minInterval)
		return aural.Scalar(minInterval)
	}
	return time
}
