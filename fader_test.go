package aural_test

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ormeille/aural"
	"github.com/ormeille/aural/mock"
)

func TestNewFaderNilInput(t *testing.T) {
	clk, err := aural.NewClock(100, 5, 1)
	require.NoError(t, err)

	_, err = aural.NewFader(clk, nil)
	assert.True(t, errors.Is(err, aural.ErrConfiguration))
}

func TestFaderHardSwitch(t *testing.T) {
	clk, err := aural.NewClock(100, 5, 1)
	require.NoError(t, err)

	f, err := aural.NewFader(clk, mock.NewConst(clk, 1))
	require.NoError(t, err)

	require.NoError(t, clk.Tick())
	assert.Equal(t, 1.0, f.Block(clk.Now())[0])

	f.SetInput(mock.NewConst(clk, 2), 0)
	require.NoError(t, clk.Tick())
	for _, v := range f.Block(clk.Now()) {
		assert.Equal(t, 2.0, v)
	}
}

// A crossfade between identical constant signals is transparent: the
// cos²/sin² gains sum to one at every sample.
func TestFaderComplementaryGains(t *testing.T) {
	clk, err := aural.NewClock(100, 5, 1)
	require.NoError(t, err)

	f, err := aural.NewFader(clk, mock.NewConst(clk, 1))
	require.NoError(t, err)

	f.SetInput(mock.NewConst(clk, 1), 0.1)
	for b := 0; b < 4; b++ {
		require.NoError(t, clk.Tick())
		for _, v := range f.Block(clk.Now()) {
			assert.InDelta(t, 1, v, 1e-12)
		}
	}
}

func TestFaderRamp(t *testing.T) {
	clk, err := aural.NewClock(100, 5, 1)
	require.NoError(t, err)

	f, err := aural.NewFader(clk, mock.NewConst(clk, 1))
	require.NoError(t, err)

	// 10-sample ramp from 1 to 0: sample n carries cos²(n·π/20).
	f.SetInput(mock.NewConst(clk, 0), 0.1)

	require.NoError(t, clk.Tick())
	got := append([]float64(nil), f.Block(clk.Now())...)
	require.NoError(t, clk.Tick())
	got = append(got, f.Block(clk.Now())...)

	for n, v := range got {
		c := math.Cos(float64(n) * math.Pi / 20)
		assert.InDelta(t, c*c, v, 1e-12, "sample %d", n)
	}
	assert.InDelta(t, 0.5, got[5], 1e-12)

	require.NoError(t, clk.Tick())
	for _, v := range f.Block(clk.Now()) {
		assert.Zero(t, v)
	}
	assert.NotNil(t, f.Input())
}

// Swapping again mid-fade freezes the running blend and restarts the
// ramp toward the newest input, with no discontinuity.
func TestFaderInterruptedFade(t *testing.T) {
	clk, err := aural.NewClock(100, 5, 1)
	require.NoError(t, err)

	f, err := aural.NewFader(clk, mock.NewConst(clk, 1))
	require.NoError(t, err)

	f.SetInput(mock.NewConst(clk, 2), 0.12)
	require.NoError(t, clk.Tick())
	f.Block(clk.Now())

	f.SetInput(mock.NewConst(clk, 3), 0.12)
	for b := 0; b < 4; b++ {
		require.NoError(t, clk.Tick())
		for _, v := range f.Block(clk.Now()) {
			assert.GreaterOrEqual(t, v, 1.0)
			assert.LessOrEqual(t, v, 3.0)
		}
	}
	require.NoError(t, clk.Tick())
	for _, v := range f.Block(clk.Now()) {
		assert.InDelta(t, 3, v, 1e-12)
	}
}
