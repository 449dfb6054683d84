// Package log configures the loggers used across aural components.
package log

import (
	"os"
	"strconv"

	"github.com/sirupsen/logrus"
)

var debug bool

func init() {
	var err error
	debug, err = strconv.ParseBool(os.Getenv("AURAL_DEBUG"))
	if err != nil {
		debug = false
	}
}

// Default returns a new logger instance. Debug level is enabled with
// the AURAL_DEBUG environment variable.
func Default() *logrus.Logger {
	l := logrus.New()
	if debug {
		l.SetLevel(logrus.DebugLevel)
	}
	return l
}
