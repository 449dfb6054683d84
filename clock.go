package aural

import (
	"sync"

	vecmath "github.com/cwbudde/algo-vecmath"
	"github.com/sirupsen/logrus"

	"github.com/ormeille/aural/log"
)

// Ticker is a control-rate component advanced once per block, strictly
// before any audio node is pulled. An error returned by a Ticker
// aborts the tick and propagates to the host loop.
type Ticker interface {
	Advance(tick uint64) error
}

// tap routes a node's block onto a physical output bus.
type tap struct {
	node Node
	bus  int
}

// Clock owns the render loop state: the per-block tick counter, the
// output buses, the control-rate tickers and the mutation queue
// through which non-render goroutines publish parameter changes.
//
// Exactly one goroutine may call Tick. All graph mutations - bus
// assignments, parameter swaps, lifecycle changes - are funneled
// through Mutate and applied between blocks, so the render side never
// observes a half-published value.
type Clock struct {
	sampleRate int
	blockSize  int
	tick       uint64

	m       sync.Mutex
	pending []func()

	tickers []Ticker
	buses   [][]float64
	taps    []tap

	log *logrus.Logger
}

// ClockOption provides a way to set functional parameters to a Clock.
type ClockOption func(*Clock)

// WithLogger overrides the default logger.
func WithLogger(l *logrus.Logger) ClockOption {
	return func(c *Clock) {
		c.log = l
	}
}

// NewClock creates a render clock for the given sample rate, block
// size and number of physical output channels.
func NewClock(sampleRate, blockSize, channels int, options ...ClockOption) (*Clock, error) {
	if sampleRate <= 0 || blockSize <= 0 || channels <= 0 {
		return nil, NewConfigError("clock", "sample rate, block size and channels must be positive, got %d/%d/%d", sampleRate, blockSize, channels)
	}
	c := &Clock{
		sampleRate: sampleRate,
		blockSize:  blockSize,
		buses:      make([][]float64, channels),
		log:        log.Default(),
	}
	for i := range c.buses {
		c.buses[i] = make([]float64, blockSize)
	}
	for _, option := range options {
		option(c)
	}
	return c, nil
}

// SampleRate returns the clock's sample rate in Hz.
func (c *Clock) SampleRate() int { return c.sampleRate }

// BlockSize returns the number of samples per render block.
func (c *Clock) BlockSize() int { return c.blockSize }

// Channels returns the number of physical output buses.
func (c *Clock) Channels() int { return len(c.buses) }

// Now returns the tick of the block rendered last.
func (c *Clock) Now() uint64 { return c.tick }

// Samples converts seconds of audio-clock time to a sample count.
func (c *Clock) Samples(seconds float64) int64 {
	return int64(seconds*float64(c.sampleRate) + 0.5)
}

// Logger exposes the clock's logger to components that report
// range-clamp warnings.
func (c *Clock) Logger() *logrus.Logger { return c.log }

// Mutate enqueues a graph mutation. The closure runs on the render
// goroutine at the start of the next Tick, before any audio node is
// pulled. Safe to call from any goroutine.
func (c *Clock) Mutate(fn func()) {
	c.m.Lock()
	c.pending = append(c.pending, fn)
	c.m.Unlock()
}

// AddTicker registers a control-rate ticker at the next block
// boundary.
func (c *Clock) AddTicker(t Ticker) {
	c.Mutate(func() {
		c.tickers = append(c.tickers, t)
	})
}

// RemoveTicker unregisters a ticker at the next block boundary.
func (c *Clock) RemoveTicker(t Ticker) {
	c.Mutate(func() {
		for i := range c.tickers {
			if c.tickers[i] == t {
				c.tickers = append(c.tickers[:i], c.tickers[i+1:]...)
				return
			}
		}
	})
}

// Tick renders one block: pending mutations are applied, tickers are
// advanced, then every bus-assigned node is pulled and mixed onto its
// bus. The first error from a ticker aborts the tick.
func (c *Clock) Tick() error {
	c.tick++
	c.applyMutations()
	for _, t := range c.tickers {
		if err := t.Advance(c.tick); err != nil {
			return err
		}
	}
	for i := range c.buses {
		zero(c.buses[i])
	}
	for _, tp := range c.taps {
		vecmath.AddBlockInPlace(c.buses[tp.bus], tp.node.Block(c.tick))
	}
	return nil
}

// Bus returns the mix of the given physical output channel for the
// block rendered last. The slice is owned by the clock.
func (c *Clock) Bus(i int) []float64 {
	return c.buses[i]
}

// Buses returns the per-channel mix table for the block rendered
// last. The slices are owned by the clock.
func (c *Clock) Buses() [][]float64 {
	return c.buses
}

func (c *Clock) applyMutations() {
	c.m.Lock()
	fns := c.pending
	c.pending = nil
	c.m.Unlock()
	for _, fn := range fns {
		fn()
	}
}

// attach must run in mutation context. The bus index wraps on the
// physical channel count.
func (c *Clock) attach(n Node, bus int) {
	if bus < 0 {
		bus = 0
	}
	c.taps = append(c.taps, tap{node: n, bus: bus % len(c.buses)})
}

// detach removes every tap of the node. Must run in mutation context.
func (c *Clock) detach(n Node) {
	taps := c.taps[:0]
	for _, tp := range c.taps {
		if tp.node != n {
			taps = append(taps, tp)
		}
	}
	c.taps = taps
}
