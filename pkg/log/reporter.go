package log

import (
	"fmt"
	"time"
)

// Reporter stamps events with the context of one load or conversion
// before forwarding them to a Logger. The zero value discards events.
type Reporter struct {
	Logger Logger
	LoadID string
	Source string
	Layer  Layer
}

// WithLayer returns a copy of r reporting on a different layer.
func (r Reporter) WithLayer(layer Layer) Reporter {
	r.Layer = layer
	return r
}

// WithLogger returns a copy of r sending to a different logger.
func (r Reporter) WithLogger(l Logger) Reporter {
	r.Logger = l
	return r
}

// Report sends a fully formed event, filling in the context fields that are
// not already set.
func (r Reporter) Report(e Event) {
	if r.Logger == nil {
		return
	}
	if e.Timestamp.IsZero() {
		e.Timestamp = time.Now()
	}
	if e.LoadID == "" {
		e.LoadID = r.LoadID
	}
	if e.Source == "" {
		e.Source = r.Source
	}
	if e.Layer == LayerSchema {
		e.Layer = r.Layer
	}
	r.Logger.Log(e)
}

// Warningf reports a warning about component.
func (r Reporter) Warningf(component, format string, args ...any) {
	r.Report(Event{Level: LevelWarning, Component: component, Message: fmt.Sprintf(format, args...)})
}

// Errorf reports an error about component.
func (r Reporter) Errorf(component, format string, args ...any) {
	r.Report(Event{Level: LevelError, Component: component, Message: fmt.Sprintf(format, args...)})
}

// Parameter reports an event about a single parameter.
func (r Reporter) Parameter(level Level, id string, data []byte, format string, args ...any) {
	r.Report(Event{
		Level:       level,
		Component:   "parameter",
		ParameterID: id,
		Data:        data,
		Message:     fmt.Sprintf(format, args...),
	})
}
