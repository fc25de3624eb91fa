package log

// Logger is the interface applications implement to receive diagnostics.
// Pass nil or NoopLogger to disable reporting.
type Logger interface {
	// Log records a diagnostic event. Implementations must be thread-safe:
	// a loaded description is decoded from many goroutines at once.
	Log(event Event)
}

// NoopLogger discards all events. Use when diagnostics are disabled.
// NoopLogger is safe for concurrent use and usable as a zero value.
type NoopLogger struct{}

// Log discards the event.
func (NoopLogger) Log(Event) {}

// OrNoop returns l, or NoopLogger when l is nil.
func OrNoop(l Logger) Logger {
	if l == nil {
		return NoopLogger{}
	}
	return l
}

// Compile-time interface satisfaction check.
var _ Logger = NoopLogger{}
