package aural_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ormeille/aural"
	"github.com/ormeille/aural/mock"
)

func TestNewClock(t *testing.T) {
	tests := []struct {
		description string
		sampleRate  int
		blockSize   int
		channels    int
		negative    bool
	}{
		{
			description: "regular",
			sampleRate:  44100,
			blockSize:   256,
			channels:    2,
		},
		{
			description: "zero sample rate",
			blockSize:   256,
			channels:    2,
			negative:    true,
		},
		{
			description: "zero block size",
			sampleRate:  44100,
			channels:    2,
			negative:    true,
		},
		{
			description: "zero channels",
			sampleRate:  44100,
			blockSize:   256,
			negative:    true,
		},
	}
	for _, test := range tests {
		clk, err := aural.NewClock(test.sampleRate, test.blockSize, test.channels)
		if test.negative {
			assert.True(t, errors.Is(err, aural.ErrConfiguration), test.description)
			continue
		}
		require.NoError(t, err, test.description)
		assert.Equal(t, test.sampleRate, clk.SampleRate(), test.description)
		assert.Equal(t, test.blockSize, clk.BlockSize(), test.description)
		assert.Equal(t, test.channels, clk.Channels(), test.description)
	}
}

func TestClockMutationsApplyBetweenBlocks(t *testing.T) {
	clk, err := aural.NewClock(44100, 64, 1)
	require.NoError(t, err)

	applied := false
	clk.Mutate(func() { applied = true })
	assert.False(t, applied)

	require.NoError(t, clk.Tick())
	assert.True(t, applied)
}

func TestClockBusMix(t *testing.T) {
	clk, err := aural.NewClock(44100, 8, 2)
	require.NoError(t, err)

	a := aural.NewGroup(clk, []aural.GroupNode{mock.NewConst(clk, 0.25)})
	b := aural.NewGroup(clk, []aural.GroupNode{mock.NewConst(clk, 0.5)})
	require.NoError(t, a.Out(0, 1, 0, 0, nil))
	require.NoError(t, b.Out(0, 1, 0, 0, nil))

	require.NoError(t, clk.Tick())
	for _, v := range clk.Bus(0) {
		assert.InDelta(t, 0.75, v, 1e-12)
	}
	for _, v := range clk.Bus(1) {
		assert.Zero(t, v)
	}
}

func TestClockTickerErrorAbortsTick(t *testing.T) {
	clk, err := aural.NewClock(44100, 8, 1)
	require.NoError(t, err)

	boom := errors.New("boom")
	clk.AddTicker(tickerFunc(func(uint64) error { return boom }))

	assert.ErrorIs(t, clk.Tick(), boom)
}

func TestClockSamples(t *testing.T) {
	clk, err := aural.NewClock(44100, 64, 1)
	require.NoError(t, err)

	assert.Equal(t, int64(44100), clk.Samples(1))
	assert.Equal(t, int64(11025), clk.Samples(0.25))
	assert.Equal(t, int64(0), clk.Samples(0))
}

type tickerFunc func(uint64) error

func (f tickerFunc) Advance(tick uint64) error { return f(tick) }
