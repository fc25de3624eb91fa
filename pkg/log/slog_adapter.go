package log

import (
	"context"
	"log/slog"
)

// SlogAdapter writes diagnostic events to an slog.Logger.
type SlogAdapter struct {
	logger *slog.Logger
}

// NewSlogAdapter creates a new SlogAdapter that writes to the given slog.Logger.
func NewSlogAdapter(logger *slog.Logger) *SlogAdapter {
	return &SlogAdapter{logger: logger}
}

// Log writes the event at the slog level matching its severity.
func (a *SlogAdapter) Log(event Event) {
	attrs := []slog.Attr{
		slog.String("layer", event.Layer.String()),
	}

	if event.LoadID != "" {
		attrs = append(attrs, slog.String("load_id", event.LoadID))
	}
	if event.Source != "" {
		attrs = append(attrs, slog.String("source", event.Source))
	}
	if event.Component != "" {
		attrs = append(attrs, slog.String("component", event.Component))
	}
	if event.ParameterID != "" {
		attrs = append(attrs, slog.String("parameter", event.ParameterID))
	}
	if len(event.Data) > 0 {
		attrs = append(attrs, slog.Int("data_len", len(event.Data)))
	}

	a.logger.LogAttrs(context.Background(), slogLevel(event.Level), event.Message, attrs...)
}

func slogLevel(l Level) slog.Level {
	switch l {
	case LevelDebug:
		return slog.LevelDebug
	case LevelInfo:
		return slog.LevelInfo
	case LevelWarning:
		return slog.LevelWarn
	default:
		return slog.LevelError
	}
}

// Compile-time interface satisfaction check.
var _ Logger = (*SlogAdapter)(nil)
