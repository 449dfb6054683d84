package aural_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ormeille/aural"
)

func TestConfigurationError(t *testing.T) {
	err := aural.NewConfigError("anal", "fft size %d is not a power of two", 100)
	assert.EqualError(t, err, "anal: fft size 100 is not a power of two")
	assert.ErrorIs(t, err, aural.ErrConfiguration)

	wrapped := fmt.Errorf("building graph: %w", err)
	assert.ErrorIs(t, wrapped, aural.ErrConfiguration)

	var ce *aural.ConfigurationError
	assert.True(t, errors.As(wrapped, &ce))
	assert.Equal(t, "anal", ce.Component)
}

func TestCallbackError(t *testing.T) {
	cause := errors.New("metro handler failed")
	err := &aural.CallbackError{ID: "c3po", Err: cause}
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "c3po")
}
