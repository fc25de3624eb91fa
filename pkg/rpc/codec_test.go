package rpc

import (
	"bytes"
	"errors"
	"testing"

	"github.com/devdesc/devdesc-go/pkg/variant"
)

func TestCodecRoundTrip(t *testing.T) {
	tests := []struct {
		name  string
		value variant.Variant
	}{
		{"void", variant.Void()},
		{"bool", variant.Bool(true)},
		{"int", variant.Int(-1234567)},
		{"float", variant.Float(21.5)},
		{"string", variant.String("MANU_MODE")},
		{"binary", variant.Binary([]byte{0x00, 0xFF, 0x10})},
		{"empty array", variant.Array()},
		{"array", variant.Array(variant.Int(1), variant.String("x"), variant.Float(0.25))},
		{
			name: "struct",
			value: variant.Struct(map[string]variant.Variant{
				"TEMPERATURE": variant.Float(20.5),
				"DAYS":        variant.Array(variant.Int(1), variant.Int(2)),
				"ENABLED":     variant.Bool(false),
			}),
		},
	}

	codec := NewBinaryCodec()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := codec.Encode(tt.value)
			if err != nil {
				t.Fatalf("Encode failed: %v", err)
			}
			got, err := codec.Decode(data)
			if err != nil {
				t.Fatalf("Decode failed: %v", err)
			}
			if !got.Equal(tt.value) {
				t.Errorf("round trip: got %v, want %v", got, tt.value)
			}
		})
	}
}

func TestEncodeDeterministic(t *testing.T) {
	value := variant.Struct(map[string]variant.Variant{
		"b": variant.Int(2),
		"a": variant.Int(1),
		"c": variant.Int(3),
	})

	first, err := BinaryCodec{}.Encode(value)
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}
	for i := 0; i < 10; i++ {
		again, err := BinaryCodec{}.Encode(value.Clone())
		if err != nil {
			t.Fatalf("Encode failed: %v", err)
		}
		if !bytes.Equal(first, again) {
			t.Fatal("encoding is not deterministic")
		}
	}
}

func TestDecodeErrors(t *testing.T) {
	codec := BinaryCodec{}

	if _, err := codec.Decode(nil); !errors.Is(err, ErrEmptyPayload) {
		t.Errorf("Decode(nil) error = %v, want ErrEmptyPayload", err)
	}

	if _, err := codec.Decode([]byte{0xFF, 0x00}); err == nil {
		t.Error("Decode(garbage) should fail")
	}

	future, err := encMode.Marshal(envelope{Version: 9, Value: int64(1)})
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}
	if _, err := codec.Decode(future); !errors.Is(err, ErrUnsupportedVersion) {
		t.Errorf("Decode(v9) error = %v, want ErrUnsupportedVersion", err)
	}
}

func TestDecodeForeignTypes(t *testing.T) {
	// A float32 written by another encoder still decodes.
	data, err := encMode.Marshal(envelope{Version: EnvelopeVersion, Value: float32(1.5)})
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}
	got, err := BinaryCodec{}.Decode(data)
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if got.Kind() != variant.KindFloat || got.FloatValue() != 1.5 {
		t.Errorf("got %v, want float 1.5", got)
	}
}
