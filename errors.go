package aural

import (
	"errors"
	"fmt"
)

// ErrConfiguration is the sentinel matched by every configuration
// error raised at construction or attach time.
var ErrConfiguration = errors.New("invalid configuration")

// ConfigurationError reports an invalid construction or attach
// argument: an empty operand list, a non-power-of-two FFT size or a
// size mismatch between pipeline stages. It is never deferred to the
// first block.
type ConfigurationError struct {
	Component string
	Reason    string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Component, e.Reason)
}

// Is matches ErrConfiguration.
func (e *ConfigurationError) Is(err error) bool {
	return err == ErrConfiguration
}

// NewConfigError formats a ConfigurationError for a component.
func NewConfigError(component, format string, args ...interface{}) error {
	return &ConfigurationError{
		Component: component,
		Reason:    fmt.Sprintf(format, args...),
	}
}

// CallbackError wraps an error returned by a periodic callback. The
// scheduler never swallows it; the host render loop decides whether to
// stop the instance or abort the session.
type CallbackError struct {
	ID  string
	Err error
}

func (e *CallbackError) Error() string {
	return fmt.Sprintf("callback %s: %v", e.ID, e.Err)
}

func (e *CallbackError) Unwrap() error {
	return e.Err
}
