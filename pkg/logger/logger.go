package logger

import (
	"fmt"
	"io"
	"strings"

	"github.com/rs/zerolog"
)

// KeyWidth is the column width used by KV.
var KeyWidth = 60

// New returns a console logger writing to w at the given level
// (trace, debug, info, warn, error; empty means info).
func New(w io.Writer, level string) (zerolog.Logger, error) {
	lvl := zerolog.InfoLevel
	if level != "" {
		var err error
		lvl, err = zerolog.ParseLevel(strings.ToLower(level))
		if err != nil {
			return zerolog.Nop(), fmt.Errorf("invalid log level %q: %w", level, err)
		}
	}
	out := zerolog.ConsoleWriter{
		Out:        w,
		TimeFormat: "15:04:05",
	}
	return zerolog.New(out).Level(lvl).With().Timestamp().Logger(), nil
}

// NewJSON returns a logger emitting one JSON object per line.
func NewJSON(w io.Writer) zerolog.Logger {
	return zerolog.New(w).With().Timestamp().Logger()
}

// Title logs a section heading followed by an underline.
func Title(l zerolog.Logger, msg string) {
	l.Info().Msg("")
	l.Info().Msg(msg)
	l.Info().Msg(strings.Repeat("-", len(msg)))
}

// KV logs a key padded to KeyWidth followed by its value.
func KV(l zerolog.Logger, key string, value interface{}) {
	l.Info().Msgf("%-*s %v", KeyWidth, key, value)
}

// Count formats "n (from total)".
func Count(n, total int) string {
	return fmt.Sprintf("%d (from %d)", n, total)
}
