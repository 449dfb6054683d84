/*
Package aural implements the signal routing core of a real-time audio
graph: streaming nodes pulled block by block, multichannel fan-out and
fan-in with smooth interpolation, and a sample-accurate control-rate
scheduler driven by the audio clock.

Concept

The graph is pulled, not pushed. A Clock drives the render loop: every
Tick it applies pending parameter mutations, advances control-rate
tickers, then pulls one block from every node assigned to an output
bus. Pulling is transitive - a node computing its block first pulls its
own inputs. Blocks are memoized per tick, so shared upstreams compute
exactly once no matter how many consumers read them.

Parameters

Every audio parameter is a Param: either a fixed scalar or a live
stream followed at audio rate. Components reconcile scalar, per-voice
and modulated parameters to a uniform channel count with the Expand and
Wrap rules.

Threading

A single goroutine owns the render loop. Setters may be called from any
other goroutine; they publish through the Clock mutation queue and take
effect at the next block boundary. Nodes never allocate or block inside
block production.
*/
package aural

// Node is a producer of audio-rate blocks. Block returns the node's
// output for the given tick, computing it on first request within the
// tick and returning the memoized block afterwards. The returned slice
// is owned by the node; consumers must treat it as read-only.
type Node interface {
	Block(tick uint64) []float64
}

// Controller is the lifecycle surface shared by all leaf nodes and
// component groups. Play schedules activation delay seconds ahead and
// auto-deactivation after dur seconds (0 keeps the node playing
// indefinitely). Stop silences immediately.
type Controller interface {
	Play(dur, delay float64)
	Stop()
}

// zero silences a block in place.
func zero(out []float64) {
	for i := range out {
		out[i] = 0
	}
}
