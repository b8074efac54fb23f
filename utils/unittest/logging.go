package unittest

import (
	"flag"
	"io"
	"os"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

var verbose = flag.Bool("vv", false, "print debugging logs")

var timestampOnce sync.Once

// Logger returns a zerolog
// use -vv flag to print debugging logs for tests
func Logger() zerolog.Logger {
	writer := io.Discard
	if *verbose {
		writer = os.Stderr
	}
	return LoggerWithWriter(writer)
}

// LoggerWithWriter returns a debug level logger writing to w.
func LoggerWithWriter(w io.Writer) zerolog.Logger {
	timestampOnce.Do(func() {
		zerolog.TimestampFunc = func() time.Time { return time.Now().UTC() }
	})
	return zerolog.New(w).Level(zerolog.DebugLevel).With().Timestamp().Logger()
}
