/*
Package spectral implements the frequency-domain processing chain: an
analysis stage converting a time-domain stream into per-hop spectral
frames of (magnitude, true frequency) pairs, transform stages
operating on those frames, and two resynthesis strategies converting
back to time domain - windowed overlap-add and an additive oscillator
bank.

Stages are chained through the PVNode interface. Frame geometry (FFT
size, overlap factor) is validated when stages are attached, never
deferred to the first frame; run-time geometry changes on the analysis
stage propagate downstream at the next hop boundary.
*/
package spectral

import (
	"github.com/cwbudde/algo-dsp/dsp/window"

	"github.com/ormeille/aural"
)

// Window selects the envelope shape applied to analysis and synthesis
// frames.
type Window int

const (
	Rectangular Window = iota
	Hamming
	Hanning
	Bartlett
	Blackman
	BlackmanHarris4
	BlackmanHarris7
	Tukey
	Sine
)

// tukeyAlpha is the taper ratio of the Tukey window shape.
const tukeyAlpha = 0.66

// coefficients generates the window table through the algo-dsp window
// generator, in periodic form as required for FFT framing.
func (w Window) coefficients(size int) ([]float64, error) {
	switch w {
	case Rectangular:
		return window.Generate(window.TypeRectangular, size, window.WithPeriodic()), nil
	case Hamming:
		return window.Generate(window.TypeHamming, size, window.WithPeriodic()), nil
	case Hanning:
		return window.Generate(window.TypeHann, size, window.WithPeriodic()), nil
	case Bartlett:
		return window.Generate(window.TypeTriangle, size, window.WithBartlett(), window.WithPeriodic()), nil
	case Blackman:
		return window.Generate(window.TypeBlackman, size, window.WithPeriodic()), nil
	case BlackmanHarris4:
		return window.Generate(window.TypeBlackmanHarris4Term, size, window.WithPeriodic()), nil
	case BlackmanHarris7:
		return window.Generate(window.TypeAlbrecht7Term, size, window.WithPeriodic()), nil
	case Tukey:
		return window.Generate(window.TypeTukey, size, window.WithAlpha(tukeyAlpha), window.WithPeriodic()), nil
	case Sine:
		return window.Generate(window.TypeCosine, size, window.WithPeriodic()), nil
	}
	return nil, aural.NewConfigError("window", "unknown window type %d", w)
}

// PVStream carries spectral frames between phase vocoder stages. For
// each of the olaps in-flight frames it holds a magnitude and a
// true-frequency array of size/2+1 bins, plus a per-sample count ramp
// that marks where within the block a hop completed. The stream is
// owned by the producing stage; the consuming stage reads it and
// writes its own stream.
type PVStream struct {
	size  int
	olaps int
	magn  [][]float64
	freq  [][]float64
	count []int
}

func newPVStream(blockSize, size, olaps int) *PVStream {
	s := &PVStream{count: make([]int, blockSize)}
	s.resize(size, olaps)
	return s
}

// resize reallocates the frame slots for a new geometry, dropping any
// in-flight frames.
func (s *PVStream) resize(size, olaps int) {
	s.size = size
	s.olaps = olaps
	bins := size/2 + 1
	s.magn = make([][]float64, olaps)
	s.freq = make([][]float64, olaps)
	for i := 0; i < olaps; i++ {
		s.magn[i] = make([]float64, bins)
		s.freq[i] = make([]float64, bins)
	}
}

// Size returns the FFT size of the frames in flight.
func (s *PVStream) Size() int { return s.size }

// Overlaps returns the overlap factor.
func (s *PVStream) Overlaps() int { return s.olaps }

// Bins returns the spectral frame length, size/2+1.
func (s *PVStream) Bins() int { return s.size/2 + 1 }

// Magn returns the magnitude slot of one in-flight frame.
func (s *PVStream) Magn(slot int) []float64 { return s.magn[slot] }

// Freq returns the true-frequency slot of one in-flight frame.
func (s *PVStream) Freq(slot int) []float64 { return s.freq[slot] }

// Count returns the per-sample hop phase ramp for the current block.
func (s *PVStream) Count() []int { return s.count }

// PVNode is a stage producing a spectral frame stream: the analysis
// stage or any transform. PV follows the same pull-and-memoize
// contract as aural.Node.Block.
type PVNode interface {
	PV(tick uint64) *PVStream
	Size() int
	Overlaps() int
}

// validSize reports whether n is a power of two usable as FFT size.
func validSize(n int) bool {
	return n > 4 && n&(n-1) == 0
}

// validOlaps reports whether n is a power-of-two overlap factor.
func validOlaps(n int) bool {
	return n >= 1 && n&(n-1) == 0
}

// checkAttach validates frame geometry when a downstream stage is
// attached to a producer.
func checkAttach(component string, in PVNode, size int) error {
	if in == nil {
		return aural.NewConfigError(component, "nil input stage")
	}
	if in.Size() != size {
		return aural.NewConfigError(component, "FFT size mismatch: input stage produces %d, this stage expects %d", in.Size(), size)
	}
	return nil
}
