package cmd

import (
	"fmt"
	"io"
	"strings"

	"cosmossdk.io/log"
	"github.com/rs/zerolog"
)

const (
	logFormatPlain = "plain"
	logFormatJSON  = "json"
)

// newLogger builds the command logger from the configured level and format.
func newLogger(w io.Writer, level, format string) (log.Logger, error) {
	lvl, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", level, err)
	}

	opts := []log.Option{log.LevelOption(lvl), log.ColorOption(false)}
	switch strings.ToLower(format) {
	case "", logFormatPlain:
	case logFormatJSON:
		opts = append(opts, log.OutputJSONOption())
	default:
		return nil, fmt.Errorf("invalid log format %q: expected %s or %s", format, logFormatPlain, logFormatJSON)
	}
	return log.NewLogger(w, opts...), nil
}
