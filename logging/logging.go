// Package logging constructs the process-wide zerolog logger.
package logging

import (
	"os"
	"time"

	"github.com/rs/zerolog"
)

// New builds a console-friendly zerolog logger. Pretty-printing is cheap
// enough for a proxy of this size and matches what you want staring at a
// terminal while sessions attach and detach.
func New() zerolog.Logger {
	output := zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}
	return zerolog.New(output).With().Timestamp().Logger()
}
