package rpc

import (
	"errors"
	"fmt"
	"reflect"

	"github.com/fxamacker/cbor/v2"

	"github.com/devdesc/devdesc-go/pkg/variant"
)

// EnvelopeVersion is the envelope version written by this package.
const EnvelopeVersion uint8 = 1

// Envelope errors.
var (
	ErrEmptyPayload       = errors.New("empty rpc payload")
	ErrUnsupportedVersion = errors.New("unsupported rpc envelope version")
)

// Encoder encodes a value into a binary RPC payload.
type Encoder interface {
	Encode(v variant.Variant) ([]byte, error)
}

// Decoder decodes a binary RPC payload into a value.
type Decoder interface {
	Decode(data []byte) (variant.Variant, error)
}

// Codec is both an Encoder and a Decoder.
type Codec interface {
	Encoder
	Decoder
}

// encMode is the CBOR encoder mode for rpc payloads.
// Configured for deterministic encoding so equal values give equal bytes.
var encMode cbor.EncMode

// decMode is the CBOR decoder mode for rpc payloads.
var decMode cbor.DecMode

func init() {
	var err error

	encOpts := cbor.EncOptions{
		Sort:          cbor.SortCanonical,
		IndefLength:   cbor.IndefLengthForbidden,
		NilContainers: cbor.NilContainerAsNull,
		ShortestFloat: cbor.ShortestFloatNone,
	}
	encMode, err = encOpts.EncMode()
	if err != nil {
		panic(fmt.Sprintf("failed to create rpc CBOR encoder mode: %v", err))
	}

	// Lenient decoding: devices may send indefinite-length items
	decOpts := cbor.DecOptions{
		DupMapKey:         cbor.DupMapKeyQuiet,
		IndefLength:       cbor.IndefLengthAllowed,
		ExtraReturnErrors: cbor.ExtraDecErrorNone,
		DefaultMapType:    reflect.TypeOf(map[string]any(nil)),
		IntDec:            cbor.IntDecConvertSigned,
	}
	decMode, err = decOpts.DecMode()
	if err != nil {
		panic(fmt.Sprintf("failed to create rpc CBOR decoder mode: %v", err))
	}
}

type envelope struct {
	Version uint8 `cbor:"1,keyasint"`
	Value   any   `cbor:"2,keyasint"`
}

// BinaryCodec is the default Codec.
type BinaryCodec struct{}

// NewBinaryCodec returns a BinaryCodec.
func NewBinaryCodec() *BinaryCodec {
	return &BinaryCodec{}
}

// Encode encodes v into an envelope.
func (BinaryCodec) Encode(v variant.Variant) ([]byte, error) {
	data, err := encMode.Marshal(envelope{Version: EnvelopeVersion, Value: toNative(v)})
	if err != nil {
		return nil, fmt.Errorf("failed to encode rpc value: %w", err)
	}
	return data, nil
}

// Decode decodes an envelope.
func (BinaryCodec) Decode(data []byte) (variant.Variant, error) {
	if len(data) == 0 {
		return variant.Void(), ErrEmptyPayload
	}
	var env envelope
	if err := decMode.Unmarshal(data, &env); err != nil {
		return variant.Void(), fmt.Errorf("failed to decode rpc value: %w", err)
	}
	if env.Version != EnvelopeVersion {
		return variant.Void(), fmt.Errorf("%w: %d", ErrUnsupportedVersion, env.Version)
	}
	return fromNative(env.Value)
}

// Compile-time interface satisfaction check.
var _ Codec = BinaryCodec{}
