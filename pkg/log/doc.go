// Package log provides structured diagnostics for device description loading
// and packet conversion.
//
// The description engine never fails a call because of malformed schema
// content or unexpected packet data. Instead every problem is reported as an
// Event to a Logger supplied by the application:
//
//	// For development: log to console via slog
//	opts.Logger = log.NewSlogAdapter(slog.Default())
//
//	// For services already using zap
//	opts.Logger = log.NewZapAdapter(zapLogger)
//
//	// Capture to a binary file for later inspection with "devdesc log"
//	opts.Logger, _ = log.NewFileLogger("/var/log/devdesc/load.dlog")
//
//	// Both: use MultiLogger
//	opts.Logger = log.NewMultiLogger(console, capture)
//
// Tests and callers that want diagnostics alongside a result use a Collector.
//
// # Event Layers
//
// Events are tagged with the layer that produced them:
//   - Schema: document parsing and post-load linking
//   - Conversion: packet encode/decode at the parameter boundary
//   - Registry: directory scans and device identification
//
// # File Format
//
// Capture files hold a stream of CBOR encoded events with the .dlog extension.
package log
