package logging

import (
	"fmt"
	"io"
	"time"

	"github.com/rs/zerolog"

	"racing-telemetry/ingestion/internal/domain"
)

const (
	FormatConsole = "console"
	FormatJSON    = "json"
)

// New builds the process logger. Console output is meant for a terminal next to the game.
func New(w io.Writer, level, format string) (zerolog.Logger, error) {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		return zerolog.Nop(), fmt.Errorf("%w: log level %q", domain.ErrConfiguration, level)
	}
	if lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}

	switch format {
	case "", FormatConsole:
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}
	case FormatJSON:
	default:
		return zerolog.Nop(), fmt.Errorf("%w: log format %q", domain.ErrConfiguration, format)
	}

	return zerolog.New(w).Level(lvl).With().Timestamp().Logger(), nil
}
