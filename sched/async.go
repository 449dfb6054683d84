package sched

import (
	"sync"
	"sync/atomic"

	"github.com/ormeille/aural"
	"github.com/ormeille/aural/log"
)

// Async hands scheduler callbacks off to a worker goroutine through a
// bounded queue, for control logic that must not run on the render
// thread. Call never blocks: when the queue is full the invocation is
// dropped and counted instead of stalling the audio callback.
type Async struct {
	fn      func()
	queue   chan struct{}
	done    chan struct{}
	closer  sync.Once
	dropped uint64
}

// NewAsync starts the worker. depth bounds the number of invocations
// that may be pending at once.
func NewAsync(fn func(), depth int) (*Async, error) {
	if fn == nil {
		return nil, aural.NewConfigError("async", "nil callback")
	}
	if depth < 1 {
		depth = 1
	}
	a := &Async{
		fn:    fn,
		queue: make(chan struct{}, depth),
		done:  make(chan struct{}),
	}
	go a.loop()
	return a, nil
}

// Call enqueues one invocation. It is the callback to hand to New.
func (a *Async) Call() error {
	select {
	case a.queue <- struct{}{}:
	default:
		atomic.AddUint64(&a.dropped, 1)
	}
	return nil
}

// Dropped returns the number of invocations discarded because the
// worker fell behind.
func (a *Async) Dropped() uint64 {
	return atomic.LoadUint64(&a.dropped)
}

// Close stops the worker after draining pending invocations. Drops
// accumulated over the worker's lifetime are reported here, off the
// render thread. Closing more than once is a no-op.
func (a *Async) Close() {
	a.closer.Do(func() {
		close(a.queue)
		<-a.done
		if n := a.Dropped(); n > 0 {
			log.Default().Warnf("async: dropped %d invocations", n)
		}
	})
}

func (a *Async) loop() {
	for range a.queue {
		a.fn()
	}
	close(a.done)
}
