package log

import (
	"fmt"
	"strings"
	"time"
)

// Event represents a single diagnostic reported while loading a description
// or converting a packet. CBOR encoding uses integer keys for compactness.
type Event struct {
	// Timestamp when the event occurred (nanosecond precision).
	Timestamp time.Time `cbor:"1,keyasint"`

	// LoadID identifies the description load that produced the event (UUID).
	LoadID string `cbor:"2,keyasint,omitempty"`

	// Level is the severity.
	Level Level `cbor:"3,keyasint"`

	// Layer where the event was produced.
	Layer Layer `cbor:"4,keyasint"`

	// Source is the description file path, if known.
	Source string `cbor:"5,keyasint,omitempty"`

	// Component names the schema element involved ("parameter", "frame", ...).
	Component string `cbor:"6,keyasint,omitempty"`

	// Message is the human readable description.
	Message string `cbor:"7,keyasint"`

	// ParameterID is the affected parameter, if any.
	ParameterID string `cbor:"8,keyasint,omitempty"`

	// Data holds the raw packet bytes for conversion events.
	Data []byte `cbor:"9,keyasint,omitempty"`
}

// Level is the severity of an event.
type Level uint8

const (
	// LevelDebug is verbose tracing output.
	LevelDebug Level = 0
	// LevelInfo is informational.
	LevelInfo Level = 1
	// LevelWarning flags unexpected but tolerated content.
	LevelWarning Level = 2
	// LevelError flags content that was skipped or replaced by a default.
	LevelError Level = 3
	// LevelException flags a failure caught at the parameter boundary.
	LevelException Level = 4
)

// String returns the level name.
func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarning:
		return "WARNING"
	case LevelError:
		return "ERROR"
	case LevelException:
		return "EXCEPTION"
	default:
		return "UNKNOWN"
	}
}

// ParseLevel parses a level name as produced by String, case-insensitively.
func ParseLevel(s string) (Level, error) {
	for l := LevelDebug; l <= LevelException; l++ {
		if strings.EqualFold(l.String(), s) {
			return l, nil
		}
	}
	if strings.EqualFold(s, "warn") {
		return LevelWarning, nil
	}
	return LevelDebug, fmt.Errorf("unknown level %q", s)
}

// Layer indicates which part of the engine produced the event.
type Layer uint8

const (
	// LayerSchema covers document parsing and post-load linking.
	LayerSchema Layer = 0
	// LayerConversion covers packet encode and decode.
	LayerConversion Layer = 1
	// LayerRegistry covers directory scans and identification.
	LayerRegistry Layer = 2
)

// String returns the layer name.
func (l Layer) String() string {
	switch l {
	case LayerSchema:
		return "SCHEMA"
	case LayerConversion:
		return "CONVERSION"
	case LayerRegistry:
		return "REGISTRY"
	default:
		return "UNKNOWN"
	}
}
