// Package rpc implements the binary RPC value encoding used by the
// "rpc_binary" conversion step.
//
// Some devices carry complete structured values (arrays, structs) in a
// parameter payload. The payload is a CBOR (RFC 8949) envelope with integer
// keys:
//
//	{1: version, 2: value}
//
// # Value Mapping
//
// Variant kinds map onto CBOR major types:
//   - void: null
//   - boolean: true/false
//   - integer: unsigned/negative integer
//   - float: float64
//   - string: text string
//   - binary: byte string
//   - array: array
//   - struct: map with text keys
//
// A BinaryCodec holds no mutable state and is safe for concurrent use, so a
// loaded description shares one instance across all parameters.
package rpc
