// Package variant provides the tagged value type exchanged between device
// packets and applications.
//
// A Variant carries exactly one of the supported kinds. Conversion steps
// move a Variant between its packet form (usually an integer, string or
// byte sequence) and its logical form (the kind a parameter declares).
package variant

import (
	"bytes"
	"fmt"
	"maps"
	"math"
	"slices"
	"strconv"
	"strings"
)

// Kind identifies the value held by a Variant.
type Kind uint8

const (
	// KindVoid is the empty value.
	KindVoid Kind = iota

	// KindBoolean holds a bool.
	KindBoolean

	// KindInteger holds a signed integer.
	KindInteger

	// KindFloat holds a float64.
	KindFloat

	// KindString holds a string.
	KindString

	// KindBinary holds raw bytes.
	KindBinary

	// KindArray holds an ordered list of variants.
	KindArray

	// KindStruct holds a string-keyed map of variants.
	KindStruct
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case KindVoid:
		return "void"
	case KindBoolean:
		return "boolean"
	case KindInteger:
		return "integer"
	case KindFloat:
		return "float"
	case KindString:
		return "string"
	case KindBinary:
		return "binary"
	case KindArray:
		return "array"
	case KindStruct:
		return "struct"
	default:
		return fmt.Sprintf("Kind(%d)", k)
	}
}

// Variant is a tagged value. Only the field matching Kind is meaningful.
// The zero value is a void Variant.
type Variant struct {
	kind   Kind
	b      bool
	i      int64
	f      float64
	s      string
	bin    []byte
	array  []Variant
	fields map[string]Variant
}

// Void returns the empty value.
func Void() Variant { return Variant{} }

// Bool returns a boolean variant.
func Bool(b bool) Variant { return Variant{kind: KindBoolean, b: b} }

// Int returns an integer variant.
func Int(i int64) Variant { return Variant{kind: KindInteger, i: i} }

// Float returns a float variant.
func Float(f float64) Variant { return Variant{kind: KindFloat, f: f} }

// String returns a string variant.
func String(s string) Variant { return Variant{kind: KindString, s: s} }

// Binary returns a binary variant. The slice is not copied.
func Binary(b []byte) Variant { return Variant{kind: KindBinary, bin: b} }

// Array returns an array variant.
func Array(items ...Variant) Variant {
	if items == nil {
		items = []Variant{}
	}
	return Variant{kind: KindArray, array: items}
}

// Struct returns a struct variant. The map is not copied.
func Struct(fields map[string]Variant) Variant {
	if fields == nil {
		fields = map[string]Variant{}
	}
	return Variant{kind: KindStruct, fields: fields}
}

// Kind returns the kind of the value.
func (v Variant) Kind() Kind { return v.kind }

// IsVoid reports whether v is the empty value.
func (v Variant) IsVoid() bool { return v.kind == KindVoid }

// BoolValue returns the boolean payload.
func (v Variant) BoolValue() bool { return v.b }

// IntValue returns the integer payload.
func (v Variant) IntValue() int64 { return v.i }

// FloatValue returns the float payload.
func (v Variant) FloatValue() float64 { return v.f }

// StringValue returns the string payload.
func (v Variant) StringValue() string { return v.s }

// BinaryValue returns the binary payload.
func (v Variant) BinaryValue() []byte { return v.bin }

// Items returns the array payload.
func (v Variant) Items() []Variant { return v.array }

// Fields returns the struct payload.
func (v Variant) Fields() map[string]Variant { return v.fields }

// Field returns a struct member and whether it exists.
func (v Variant) Field(name string) (Variant, bool) {
	f, ok := v.fields[name]
	return f, ok
}

// AsInt coerces the value to an integer. Floats are truncated, strings are
// parsed tolerantly and booleans become 0 or 1.
func (v Variant) AsInt() int64 {
	switch v.kind {
	case KindBoolean:
		if v.b {
			return 1
		}
		return 0
	case KindInteger:
		return v.i
	case KindFloat:
		return int64(v.f)
	case KindString:
		return Number(v.s)
	case KindBinary:
		var n int64
		for _, b := range v.bin {
			n = n<<8 | int64(b)
		}
		return n
	default:
		return 0
	}
}

// AsFloat coerces the value to a float.
func (v Variant) AsFloat() float64 {
	switch v.kind {
	case KindFloat:
		return v.f
	case KindString:
		return Double(v.s)
	default:
		return float64(v.AsInt())
	}
}

// AsBool coerces the value to a boolean. Strings are true only when they
// equal "true".
func (v Variant) AsBool() bool {
	switch v.kind {
	case KindBoolean:
		return v.b
	case KindString:
		return v.s == "true"
	case KindFloat:
		return v.f != 0
	default:
		return v.AsInt() != 0
	}
}

// AsString renders the value as the literal FromString would accept.
func (v Variant) AsString() string {
	switch v.kind {
	case KindVoid:
		return ""
	case KindBoolean:
		return strconv.FormatBool(v.b)
	case KindInteger:
		return strconv.FormatInt(v.i, 10)
	case KindFloat:
		return strconv.FormatFloat(v.f, 'f', -1, 64)
	case KindString:
		return v.s
	case KindBinary:
		return HexString(v.bin)
	case KindArray:
		parts := make([]string, len(v.array))
		for i, item := range v.array {
			parts[i] = item.AsString()
		}
		return "[" + strings.Join(parts, ",") + "]"
	case KindStruct:
		keys := slices.Sorted(maps.Keys(v.fields))
		parts := make([]string, len(keys))
		for i, k := range keys {
			parts[i] = k + "=" + v.fields[k].AsString()
		}
		return "{" + strings.Join(parts, ",") + "}"
	default:
		return ""
	}
}

// String implements fmt.Stringer.
func (v Variant) String() string {
	if v.kind == KindString {
		return strconv.Quote(v.s)
	}
	if v.kind == KindVoid {
		return "void"
	}
	return v.AsString()
}

// Clone returns a deep copy of v.
func (v Variant) Clone() Variant {
	c := v
	if v.bin != nil {
		c.bin = bytes.Clone(v.bin)
	}
	if v.array != nil {
		c.array = make([]Variant, len(v.array))
		for i, item := range v.array {
			c.array[i] = item.Clone()
		}
	}
	if v.fields != nil {
		c.fields = make(map[string]Variant, len(v.fields))
		for k, f := range v.fields {
			c.fields[k] = f.Clone()
		}
	}
	return c
}

// Equal reports whether two variants hold the same kind and payload.
func (v Variant) Equal(o Variant) bool {
	if v.kind != o.kind {
		return false
	}
	switch v.kind {
	case KindVoid:
		return true
	case KindBoolean:
		return v.b == o.b
	case KindInteger:
		return v.i == o.i
	case KindFloat:
		return v.f == o.f || (math.IsNaN(v.f) && math.IsNaN(o.f))
	case KindString:
		return v.s == o.s
	case KindBinary:
		return bytes.Equal(v.bin, o.bin)
	case KindArray:
		return slices.EqualFunc(v.array, o.array, Variant.Equal)
	case KindStruct:
		return maps.EqualFunc(v.fields, o.fields, Variant.Equal)
	default:
		return false
	}
}

// FromString parses a literal into a Variant of the given kind. Malformed
// numbers yield 0; use FromStringChecked to detect them.
func FromString(kind Kind, literal string) Variant {
	v, _ := FromStringChecked(kind, literal)
	return v
}

// FromStringChecked is FromString that also reports whether the literal
// parsed cleanly.
func FromStringChecked(kind Kind, literal string) (Variant, bool) {
	literal = strings.TrimSpace(literal)
	switch kind {
	case KindBoolean:
		lower := strings.ToLower(literal)
		if lower == "true" || lower == "false" {
			return Bool(lower == "true"), true
		}
		n, ok := Tolerant.Int(literal)
		return Bool(n != 0), ok
	case KindInteger:
		n, ok := Tolerant.Int(literal)
		return Int(n), ok
	case KindFloat:
		f, ok := Tolerant.Float(literal)
		return Float(f), ok
	case KindString:
		return String(literal), true
	case KindBinary:
		return Binary(BinaryString(literal)), true
	case KindVoid:
		return Void(), literal == ""
	default:
		return String(literal), false
	}
}
