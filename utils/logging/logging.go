// Package logging builds the process loggers and holds the field names shared by
// all components.
package logging

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

const (
	FormatJSON    = "json"
	FormatConsole = "console"
)

// Common log field names.
const (
	KeyComponent = "component"
	KeyNodeName  = "node_name"
	KeyHost      = "host"
	KeyTarget    = "target"
	KeyVersion   = "version"
	KeyCommit    = "commit"
)

func init() {
	zerolog.TimestampFunc = func() time.Time { return time.Now().UTC() }
}

// Config selects the level and output format of a process logger.
type Config struct {
	Level  string `mapstructure:"log-level"`
	Format string `mapstructure:"log-format"`
}

// NewWithWriter builds the process logger writing to w. The level is applied
// globally so it can be changed at runtime. Timestamps are UTC.
func NewWithWriter(w io.Writer, config Config, binary string, version string) (zerolog.Logger, error) {
	lvl, err := zerolog.ParseLevel(strings.ToLower(config.Level))
	if err != nil {
		return zerolog.Nop(), fmt.Errorf("invalid log level %q: %w", config.Level, err)
	}
	if lvl == zerolog.NoLevel {
		return zerolog.Nop(), fmt.Errorf("log level must not be empty")
	}

	switch strings.ToLower(config.Format) {
	case FormatJSON, "":
	case FormatConsole:
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}
	default:
		return zerolog.Nop(), fmt.Errorf("invalid log format %q, expected %s or %s", config.Format, FormatJSON, FormatConsole)
	}

	zerolog.SetGlobalLevel(lvl)

	return zerolog.New(w).With().
		Timestamp().
		Str("binary", binary).
		Str(KeyVersion, version).
		Logger(), nil
}
