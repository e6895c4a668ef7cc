package main

import (
	"log/slog"
	"os"

	"github.com/mattn/go-isatty"
	"github.com/nasermirzaei89/bazaar"
)

// initLogger installs the default logger. The auto format writes text to a terminal and
// JSON everywhere else.
func initLogger(w *os.File, level slog.Level, format string) {
	opts := &slog.HandlerOptions{
		Level: level,
	}

	if format == bazaar.LogFormatAuto {
		format = bazaar.LogFormatJSON
		if isatty.IsTerminal(w.Fd()) || isatty.IsCygwinTerminal(w.Fd()) {
			format = bazaar.LogFormatText
		}
	}

	var handler slog.Handler
	if format == bazaar.LogFormatText {
		handler = slog.NewTextHandler(w, opts)
	} else {
		handler = slog.NewJSONHandler(w, opts)
	}

	slog.SetDefault(slog.New(handler))
}
