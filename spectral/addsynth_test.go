package spectral_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ormeille/aural"
	"github.com/ormeille/aural/mock"
	"github.com/ormeille/aural/spectral"
)

func TestNewAddSynthValidation(t *testing.T) {
	clk := newTestClock(t)

	a, err := spectral.NewAnal(clk, mock.NewConst(clk, 0), 1024, 4, spectral.Hanning)
	require.NoError(t, err)

	_, err = spectral.NewAddSynth(clk, nil, aural.Scalar(1), 10, 0, 1)
	assert.True(t, errors.Is(err, aural.ErrConfiguration))

	_, err = spectral.NewAddSynth(clk, a, aural.Scalar(1), 0, 0, 1)
	assert.True(t, errors.Is(err, aural.ErrConfiguration))

	_, err = spectral.NewAddSynth(clk, a, aural.Scalar(1), 10, -1, 1)
	assert.True(t, errors.Is(err, aural.ErrConfiguration))

	_, err = spectral.NewAddSynth(clk, a, aural.Scalar(1), 10, 0, 0)
	assert.True(t, errors.Is(err, aural.ErrConfiguration))
}

func TestAddSynthTracksSine(t *testing.T) {
	clk := newTestClock(t)

	const bin = 32
	a, err := spectral.NewAnal(clk, mock.NewSine(clk, binFreq(bin), 1), testSize, testOlaps, spectral.Hanning)
	require.NoError(t, err)
	s, err := spectral.NewAddSynth(clk, a, aural.Scalar(1), 100, 0, 1)
	require.NoError(t, err)

	got := collect(t, clk, s, 4*testSize, testSize)
	// The peak-bin oscillator carries half the source amplitude. The
	// two neighbor oscillators also settle on the source frequency but
	// in mutual antiphase, so they cancel and only the peak remains.
	assert.InDelta(t, 0.5, projectedAmp(got, binFreq(bin)), 0.1)
	assert.InDelta(t, 0, projectedAmp(got, binFreq(20)), 0.05)
}

// A single oscillator pinned to the peak bin transposes cleanly: no
// coherent neighbor can interfere with it.
func TestAddSynthPitchScalesFrequencies(t *testing.T) {
	clk := newTestClock(t)

	const bin = 32
	a, err := spectral.NewAnal(clk, mock.NewSine(clk, binFreq(bin), 1), testSize, testOlaps, spectral.Hanning)
	require.NoError(t, err)
	s, err := spectral.NewAddSynth(clk, a, aural.Scalar(2), 1, bin, 1)
	require.NoError(t, err)

	got := collect(t, clk, s, 4*testSize, testSize)
	assert.InDelta(t, 0.5, projectedAmp(got, 2*binFreq(bin)), 0.1)
	assert.InDelta(t, 0, projectedAmp(got, binFreq(bin)), 0.05)
}

// Oscillators whose bin selection lands beyond the available bin count
// stay silent instead of failing.
func TestAddSynthBinSelection(t *testing.T) {
	clk := newTestClock(t)

	const bin = 32
	a, err := spectral.NewAnal(clk, mock.NewSine(clk, binFreq(bin), 1), testSize, testOlaps, spectral.Hanning)
	require.NoError(t, err)

	// first=600 with inc=2 selects bins 600, 602, ... all beyond the
	// 513 available bins.
	s, err := spectral.NewAddSynth(clk, a, aural.Scalar(1), 50, 600, 2)
	require.NoError(t, err)

	got := collect(t, clk, s, 2*testSize, testSize)
	for _, v := range got {
		assert.Zero(t, v)
	}
}

// Odd bins only around an even-bin sine: the peak is never selected,
// and the two leakage-bin oscillators both converge to the source
// frequency in antiphase, so the bank goes silent instead of keeping
// a quarter of the amplitude on each side.
func TestAddSynthCoherentNeighborsCancel(t *testing.T) {
	clk := newTestClock(t)

	const bin = 32
	a, err := spectral.NewAnal(clk, mock.NewSine(clk, binFreq(bin), 1), testSize, testOlaps, spectral.Hanning)
	require.NoError(t, err)

	s, err := spectral.NewAddSynth(clk, a, aural.Scalar(1), 100, 1, 2)
	require.NoError(t, err)

	got := collect(t, clk, s, 4*testSize, testSize)
	for _, f := range []float64{binFreq(bin - 1), binFreq(bin), binFreq(bin + 1)} {
		assert.Less(t, projectedAmp(got, f), 0.05)
	}
}

func TestAddSynthAttachSizeMismatch(t *testing.T) {
	clk := newTestClock(t)

	a, err := spectral.NewAnal(clk, mock.NewConst(clk, 0), 1024, 4, spectral.Hanning)
	require.NoError(t, err)
	s, err := spectral.NewAddSynth(clk, a, aural.Scalar(1), 10, 0, 1)
	require.NoError(t, err)

	other, err := spectral.NewAnal(clk, mock.NewConst(clk, 0), 512, 4, spectral.Hanning)
	require.NoError(t, err)
	assert.True(t, errors.Is(s.SetInput(other), aural.ErrConfiguration))
}
