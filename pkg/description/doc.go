// Package description loads device descriptions and converts parameter
// values between packet bytes and logical values.
//
// A description is a declarative document (XML or YAML, see package markup)
// that lays out one device variant's wire protocol:
//
//	device
//	├── supported_types/type      identification rules
//	├── paramset                  device level master parameters
//	├── paramset_defs/paramset    named templates referenced by subset
//	├── channels/channel          parameter sets per channel index
//	│   └── paramset/parameter    logical + physical + conversion
//	└── frames/frame              packet templates
//
// # Loading
//
// Load never fails hard. Malformed content is reported to the configured
// log.Logger and skipped; callers check Device.Loaded before using the
// result. After parsing, Load links the description: subset templates are
// cloned into the channels that reference them, channel 0 always carries a
// master set, frames learn which value parameters they carry and the
// sysinfo channel count is applied.
//
// # Conversion
//
// Parameter.ConvertFromPacket turns raw packet bytes into a variant.Variant:
//
//	bytes ─► endian fix ─► big-endian int / raw string ─► sign extension
//	      ─► conversions (last to first) ─► logical value
//
// Parameter.ConvertToPacket runs the same path backwards. Conversion steps
// are a closed set of types implementing Conversion. Runtime failures are
// reported and the best partial value is returned; Decode and Encode also
// return the diagnostics produced by the call.
//
// A loaded Device is read-only. Any number of goroutines may decode and
// encode through it concurrently.
package description
