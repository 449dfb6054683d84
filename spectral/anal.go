package spectral

import (
	"math"

	algofft "github.com/MeKo-Christian/algo-fft"

	"github.com/ormeille/aural"
)

// Anal performs the phase vocoder analysis: it consumes a time-domain
// stream and produces one spectral frame every size/overlaps samples.
// Each frame holds the per-bin magnitude and the true frequency
// derived from the inter-hop phase difference.
//
// The input reference crossfades through an input fader; size,
// overlaps and window shape can change at run time, re-deriving the
// hop size and dropping in-flight frames.
type Anal struct {
	clk   *aural.Clock
	fader *aural.Fader
	win   Window

	size         int
	olaps        int
	hopsize      int
	inputLatency int
	incount      int
	overcount    int
	factor       float64
	scale        float64

	plan        *algofft.Plan[complex128]
	coeffs      []float64
	inputBuffer []float64
	frame       []complex128
	lastPhase   []float64

	stream   *PVStream
	computed uint64
}

// NewAnal creates the analysis stage. size must be a power of two
// greater than 4, overlaps a power of two.
func NewAnal(clk *aural.Clock, input aural.Node, size, overlaps int, win Window) (*Anal, error) {
	if !validSize(size) {
		return nil, aural.NewConfigError("anal", "size must be a power of two > 4, got %d", size)
	}
	if !validOlaps(overlaps) || overlaps > size {
		return nil, aural.NewConfigError("anal", "overlaps must be a power of two not exceeding size, got %d", overlaps)
	}
	fader, err := aural.NewFader(clk, input)
	if err != nil {
		return nil, err
	}
	a := &Anal{
		clk:    clk,
		fader:  fader,
		win:    win,
		size:   size,
		olaps:  overlaps,
		stream: newPVStream(clk.BlockSize(), size, overlaps),
	}
	if err := a.realloc(); err != nil {
		return nil, err
	}
	return a, nil
}

// realloc derives the hop geometry and rebuilds all analysis state.
// Runs at construction and whenever size or overlaps change.
func (a *Anal) realloc() error {
	coeffs, err := a.win.coefficients(a.size)
	if err != nil {
		return err
	}
	plan, err := algofft.NewPlan64(a.size)
	if err != nil {
		return aural.NewConfigError("anal", "fft plan: %v", err)
	}
	a.coeffs = coeffs
	a.plan = plan
	a.hopsize = a.size / a.olaps
	a.inputLatency = a.size - a.hopsize
	a.incount = a.inputLatency
	a.overcount = 0
	a.factor = float64(a.clk.SampleRate()) / (float64(a.hopsize) * 2 * math.Pi)
	a.scale = 2 * math.Pi * float64(a.hopsize) / float64(a.size)
	a.inputBuffer = make([]float64, a.size)
	a.frame = make([]complex128, a.size)
	a.lastPhase = make([]float64, a.size/2+1)
	a.stream.resize(a.size, a.olaps)
	return nil
}

// Size implements PVNode.
func (a *Anal) Size() int { return a.size }

// Overlaps implements PVNode.
func (a *Anal) Overlaps() int { return a.olaps }

// SetInput replaces the time-domain input, crossfading over fadetime
// seconds.
func (a *Anal) SetInput(input aural.Node, fadetime float64) {
	a.fader.SetInput(input, fadetime)
}

// SetSize replaces the FFT size at the next block boundary. Invalid
// values are rejected with a warning; in-flight frames are dropped.
func (a *Anal) SetSize(size int) {
	a.clk.Mutate(func() {
		if !validSize(size) || a.olaps > size {
			a.clk.Logger().Warnf("anal: rejecting size %d", size)
			return
		}
		a.size = size
		if err := a.realloc(); err != nil {
			a.clk.Logger().Warnf("anal: %v", err)
		}
	})
}

// SetOverlaps replaces the overlap factor at the next block boundary.
func (a *Anal) SetOverlaps(overlaps int) {
	a.clk.Mutate(func() {
		if !validOlaps(overlaps) || overlaps > a.size {
			a.clk.Logger().Warnf("anal: rejecting overlaps %d", overlaps)
			return
		}
		a.olaps = overlaps
		if err := a.realloc(); err != nil {
			a.clk.Logger().Warnf("anal: %v", err)
		}
	})
}

// SetWinType replaces the analysis window shape. Takes effect at the
// next hop boundary.
func (a *Anal) SetWinType(win Window) {
	a.clk.Mutate(func() {
		coeffs, err := win.coefficients(a.size)
		if err != nil {
			a.clk.Logger().Warnf("anal: %v", err)
			return
		}
		a.win = win
		a.coeffs = coeffs
	})
}

// PV implements PVNode. The block is folded into the input ring; every
// time the ring fills, one hop is analyzed into the next frame slot.
func (a *Anal) PV(tick uint64) *PVStream {
	if a.computed == tick {
		return a.stream
	}
	a.computed = tick
	in := a.fader.Block(tick)
	for i := range in {
		a.inputBuffer[a.incount] = in[i]
		a.stream.count[i] = a.incount
		a.incount++
		if a.incount >= a.size {
			a.incount = a.inputLatency
			a.analyze()
		}
	}
	return a.stream
}

// analyze runs one hop: circular-rotated windowed frame, forward FFT,
// magnitude and phase-difference true frequency per bin.
func (a *Anal) analyze() {
	mod := a.hopsize * a.overcount
	for k := 0; k < a.size; k++ {
		a.frame[(k+mod)%a.size] = complex(a.inputBuffer[k]*a.coeffs[k], 0)
	}
	// In-place transform keeps the stage allocation-free per hop.
	if err := a.plan.Forward(a.frame, a.frame); err != nil {
		a.clk.Logger().Errorf("anal: forward fft: %v", err)
		return
	}
	magn := a.stream.magn[a.overcount]
	freq := a.stream.freq[a.overcount]
	for k := range magn {
		re := real(a.frame[k])
		im := imag(a.frame[k])
		magn[k] = math.Hypot(re, im)
		phase := math.Atan2(im, re)
		tmp := phase - a.lastPhase[k]
		a.lastPhase[k] = phase
		for tmp > math.Pi {
			tmp -= 2 * math.Pi
		}
		for tmp < -math.Pi {
			tmp += 2 * math.Pi
		}
		freq[k] = (tmp + float64(k)*a.scale) * a.factor
	}
	copy(a.inputBuffer, a.inputBuffer[a.hopsize:])
	a.overcount++
	if a.overcount >= a.olaps {
		a.overcount = 0
	}
}
