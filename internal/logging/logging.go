package logging

import (
	"context"
	"io"

	"golang.org/x/exp/slog"
)

var nop slog.Handler = nopHandler{}

// NopLogger returns a logger that discards every record.
func NopLogger() *slog.Logger {
	return slog.New(nop)
}

// NewCLIHandler returns the text handler used by the command line. Debug records
// are only emitted when verbose is set.
func NewCLIHandler(w io.Writer, verbose bool) slog.Handler {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	return slog.HandlerOptions{Level: level}.NewTextHandler(w)
}

type nopHandler struct{}

func (nopHandler) Enabled(context.Context, slog.Level) bool { return false }

func (nopHandler) Handle(context.Context, slog.Record) error { return nil }

func (nopHandler) WithAttrs([]slog.Attr) slog.Handler { return nop }

func (nopHandler) WithGroup(string) slog.Handler { return nop }
