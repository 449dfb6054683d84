package spectral_test

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ormeille/aural"
	"github.com/ormeille/aural/mock"
	"github.com/ormeille/aural/spectral"
)

const (
	testRate  = 44100
	testBlock = 256
	testSize  = 1024
	testOlaps = 4
)

func newTestClock(t *testing.T) *aural.Clock {
	t.Helper()
	clk, err := aural.NewClock(testRate, testBlock, 1)
	require.NoError(t, err)
	return clk
}

// binFreq returns the center frequency of a bin in Hz.
func binFreq(bin int) float64 {
	return float64(bin) * testRate / testSize
}

// projectedAmp measures the amplitude of the sinusoidal component at
// freq by projection, independent of its phase. The sample count must
// span an integer number of cycles.
func projectedAmp(samples []float64, freq float64) float64 {
	var a, b float64
	for i, y := range samples {
		t := 2 * math.Pi * freq * float64(i) / testRate
		a += y * math.Sin(t)
		b += y * math.Cos(t)
	}
	n := float64(len(samples))
	return 2 * math.Hypot(a, b) / n
}

// collect pulls blocks from a node, discarding warmup samples first.
func collect(t *testing.T, clk *aural.Clock, n aural.Node, warmup, count int) []float64 {
	t.Helper()
	out := make([]float64, 0, count)
	for len(out) < count {
		require.NoError(t, clk.Tick())
		block := n.Block(clk.Now())
		if warmup > 0 {
			warmup -= len(block)
			continue
		}
		out = append(out, block...)
	}
	return out[:count]
}

func TestNewAnalInvalidGeometry(t *testing.T) {
	clk := newTestClock(t)
	in := mock.NewConst(clk, 0)

	tests := []struct {
		description string
		size        int
		olaps       int
	}{
		{"size not a power of two", 1000, 4},
		{"size too small", 4, 4},
		{"overlaps not a power of two", 1024, 3},
		{"overlaps exceed size", 8, 16},
		{"zero overlaps", 1024, 0},
	}
	for _, test := range tests {
		_, err := spectral.NewAnal(clk, in, test.size, test.olaps, spectral.Hanning)
		assert.True(t, errors.Is(err, aural.ErrConfiguration), test.description)
	}

	_, err := spectral.NewAnal(clk, nil, 1024, 4, spectral.Hanning)
	assert.Error(t, err)
}

func TestAnalWindowShapes(t *testing.T) {
	clk := newTestClock(t)
	in := mock.NewConst(clk, 0)

	for _, win := range []spectral.Window{
		spectral.Rectangular,
		spectral.Hamming,
		spectral.Hanning,
		spectral.Bartlett,
		spectral.Blackman,
		spectral.BlackmanHarris4,
		spectral.BlackmanHarris7,
		spectral.Tukey,
		spectral.Sine,
	} {
		_, err := spectral.NewAnal(clk, in, 1024, 4, win)
		assert.NoError(t, err, "window %d", win)
	}
}

func TestAnalStreamGeometry(t *testing.T) {
	clk := newTestClock(t)

	a, err := spectral.NewAnal(clk, mock.NewConst(clk, 0), testSize, testOlaps, spectral.Hanning)
	require.NoError(t, err)
	assert.Equal(t, testSize, a.Size())
	assert.Equal(t, testOlaps, a.Overlaps())

	require.NoError(t, clk.Tick())
	s := a.PV(clk.Now())
	assert.Equal(t, testSize, s.Size())
	assert.Equal(t, testOlaps, s.Overlaps())
	assert.Equal(t, testSize/2+1, s.Bins())

	// The hop ramp starts at the input latency: size - hopsize.
	latency := testSize - testSize/testOlaps
	count := s.Count()
	assert.Equal(t, latency, count[0])
	assert.Equal(t, latency+testBlock-1, count[testBlock-1])
}

func TestAnalDetectsSineFrequency(t *testing.T) {
	clk := newTestClock(t)

	const bin = 32
	a, err := spectral.NewAnal(clk, mock.NewSine(clk, binFreq(bin), 1), testSize, testOlaps, spectral.Hanning)
	require.NoError(t, err)

	var s *spectral.PVStream
	for b := 0; b < 20; b++ {
		require.NoError(t, clk.Tick())
		s = a.PV(clk.Now())
	}
	for slot := 0; slot < testOlaps; slot++ {
		magn := s.Magn(slot)
		peak := 0
		for k := range magn {
			if magn[k] > magn[peak] {
				peak = k
			}
		}
		assert.Equal(t, bin, peak, "slot %d", slot)
		assert.InDelta(t, binFreq(bin), s.Freq(slot)[bin], 0.5, "slot %d", slot)
	}
}

// An analysis-resynthesis chain with matching windows passes a signal
// through at unit gain once the overlap-add accumulator is primed.
func TestRoundTripUnitGain(t *testing.T) {
	clk := newTestClock(t)

	const bin = 32
	a, err := spectral.NewAnal(clk, mock.NewSine(clk, binFreq(bin), 1), testSize, testOlaps, spectral.Hanning)
	require.NoError(t, err)
	s, err := spectral.NewSynth(clk, a, spectral.Hanning)
	require.NoError(t, err)

	got := collect(t, clk, s, 3*testSize, testSize)
	assert.InDelta(t, 1, projectedAmp(got, binFreq(bin)), 0.01)
	assert.InDelta(t, 0, projectedAmp(got, binFreq(20)), 0.01)
}

func TestSynthAttachSizeMismatch(t *testing.T) {
	clk := newTestClock(t)

	a, err := spectral.NewAnal(clk, mock.NewConst(clk, 0), 1024, 4, spectral.Hanning)
	require.NoError(t, err)
	s, err := spectral.NewSynth(clk, a, spectral.Hanning)
	require.NoError(t, err)

	other, err := spectral.NewAnal(clk, mock.NewConst(clk, 0), 512, 4, spectral.Hanning)
	require.NoError(t, err)

	err = s.SetInput(other)
	require.Error(t, err)
	assert.True(t, errors.Is(err, aural.ErrConfiguration))

	var ce *aural.ConfigurationError
	require.True(t, errors.As(err, &ce))
	assert.Equal(t, "synth", ce.Component)

	require.NoError(t, s.SetInput(a))
}

func TestSynthFollowsRuntimeResize(t *testing.T) {
	clk := newTestClock(t)

	const bin = 16
	a, err := spectral.NewAnal(clk, mock.NewSine(clk, binFreq(bin), 1), testSize, testOlaps, spectral.Hanning)
	require.NoError(t, err)
	s, err := spectral.NewSynth(clk, a, spectral.Hanning)
	require.NoError(t, err)

	collect(t, clk, s, 0, 2*testSize)
	a.SetSize(512)
	got := collect(t, clk, s, 3*testSize, testSize)
	// binFreq is relative to the original size; with half the size the
	// same frequency sits on bin 8 and still reconstructs cleanly.
	assert.InDelta(t, 1, projectedAmp(got, binFreq(bin)), 0.05)
}
