// Package console renders tracker state on a terminal, either redrawn in
// place or as log lines.
package console

import (
	"io"
	"os"
	"time"
)

// NewMonitor returns an in-place monitor writing to out (stdout if nil)
// when interactive, and a logrus backed one otherwise.
func NewMonitor(echoInterval time.Duration, interactive bool, out io.Writer) Monitor {
	if interactive {
		if out == nil {
			out = os.Stdout
		}

		return newInteractiveMonitor(echoInterval, out)
	}

	return &LoggingMonitor{}
}
