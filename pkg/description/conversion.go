package description

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/devdesc/devdesc-go/pkg/log"
	"github.com/devdesc/devdesc-go/pkg/rpc"
	"github.com/devdesc/devdesc-go/pkg/variant"
)

// ConversionKind identifies a conversion step.
type ConversionKind uint8

const (
	ConversionFloatIntegerScale ConversionKind = iota + 1
	ConversionIntegerIntegerScale
	ConversionIntegerIntegerMap
	ConversionBooleanInteger
	ConversionBooleanString
	ConversionFloatUint8StringScale
	ConversionFloatConfigTime
	ConversionOptionInteger
	ConversionIntegerTinyFloat
	ConversionToggle
	ConversionStringUnsignedInteger
	ConversionBlindTest
	ConversionCFM
	ConversionCCRTDNParty
	ConversionRPCBinary
	ConversionOptionString
	ConversionStringJSONArrayFloat
	ConversionHexStringByteArray
)

var conversionNames = map[ConversionKind]string{
	ConversionFloatIntegerScale:     "float_integer_scale",
	ConversionIntegerIntegerScale:   "integer_integer_scale",
	ConversionIntegerIntegerMap:     "integer_integer_map",
	ConversionBooleanInteger:        "boolean_integer",
	ConversionBooleanString:         "boolean_string",
	ConversionFloatUint8StringScale: "float_uint8_string_scale",
	ConversionFloatConfigTime:       "float_configtime",
	ConversionOptionInteger:         "option_integer",
	ConversionIntegerTinyFloat:      "integer_tinyfloat",
	ConversionToggle:                "toggle",
	ConversionStringUnsignedInteger: "string_unsigned_integer",
	ConversionBlindTest:             "blind_test",
	ConversionCFM:                   "cfm",
	ConversionCCRTDNParty:           "ccrtdn_party",
	ConversionRPCBinary:             "rpc_binary",
	ConversionOptionString:          "option_string",
	ConversionStringJSONArrayFloat:  "string_json_array_float",
	ConversionHexStringByteArray:    "hexstring_bytearray",
}

// String returns the schema name of the kind.
func (k ConversionKind) String() string {
	if s, ok := conversionNames[k]; ok {
		return s
	}
	return "unknown"
}

// ErrConversion is wrapped by every error a conversion step returns.
var ErrConversion = errors.New("conversion failed")

// Context is what a conversion step may consult besides the value.
type Context struct {
	// Logical is the logical side of the parameter being converted.
	Logical Logical

	// RPC is the binary RPC codec used by rpc_binary steps.
	RPC rpc.Codec

	// Raw holds the packet bytes (after byte order correction) while
	// decoding.
	Raw []byte

	// Reporter receives warnings. Errors are returned instead.
	Reporter log.Reporter

	// ParameterID names the parameter in diagnostics.
	ParameterID string
}

func (c Context) warn(format string, args ...any) {
	c.Reporter.Parameter(log.LevelWarning, c.ParameterID, nil, format, args...)
}

// Conversion is one reversible step between packet and logical value.
// FromPacket moves a value towards the logical side, ToPacket towards the
// packet. Steps do not modify their input.
type Conversion interface {
	Kind() ConversionKind
	FromPacket(ctx Context, v variant.Variant) (variant.Variant, error)
	ToPacket(ctx Context, v variant.Variant) (variant.Variant, error)
	isConversion()
}

// FloatIntegerScale maps a float to round((f + Offset) * Factor).
type FloatIntegerScale struct {
	Factor float64
	Offset float64
}

func (*FloatIntegerScale) Kind() ConversionKind { return ConversionFloatIntegerScale }
func (*FloatIntegerScale) isConversion()        {}

func (c *FloatIntegerScale) FromPacket(_ Context, v variant.Variant) (variant.Variant, error) {
	return variant.Float(float64(v.AsInt())/c.Factor - c.Offset), nil
}

func (c *FloatIntegerScale) ToPacket(_ Context, v variant.Variant) (variant.Variant, error) {
	return variant.Int(int64(math.Round((v.AsFloat() + c.Offset) * c.Factor))), nil
}

// IntegerIntegerScale multiplies by Mul and divides by Div on the way to the
// packet and the reverse on the way back. Either may be zero (unused).
// Offset and Factor are only recorded for sint4_sintx descriptions.
type IntegerIntegerScale struct {
	Mul, Div       int64
	Offset, Factor float64
	SignedRange    bool
}

func (*IntegerIntegerScale) Kind() ConversionKind { return ConversionIntegerIntegerScale }
func (*IntegerIntegerScale) isConversion()        {}

func (c *IntegerIntegerScale) FromPacket(_ Context, v variant.Variant) (variant.Variant, error) {
	i := v.AsInt()
	if c.Div > 0 {
		i *= c.Div
	}
	if c.Mul > 0 {
		i /= c.Mul
	}
	return variant.Int(i), nil
}

func (c *IntegerIntegerScale) ToPacket(_ Context, v variant.Variant) (variant.Variant, error) {
	i := v.AsInt()
	if c.Mul > 0 {
		i *= c.Mul
	}
	if c.Div > 0 {
		i /= c.Div
	}
	return variant.Int(i), nil
}

// IntegerMap translates integers through a table. Values missing from the
// table pass unchanged. Option is set for option_integer steps.
type IntegerMap struct {
	Option            bool
	FromDevice        bool
	ToDevice          bool
	DeviceToParameter map[int64]int64
	ParameterToDevice map[int64]int64
}

func (c *IntegerMap) Kind() ConversionKind {
	if c.Option {
		return ConversionOptionInteger
	}
	return ConversionIntegerIntegerMap
}

func (*IntegerMap) isConversion() {}

func (c *IntegerMap) FromPacket(_ Context, v variant.Variant) (variant.Variant, error) {
	i := v.AsInt()
	if mapped, ok := c.DeviceToParameter[i]; ok && c.FromDevice {
		return variant.Int(mapped), nil
	}
	return variant.Int(i), nil
}

func (c *IntegerMap) ToPacket(_ Context, v variant.Variant) (variant.Variant, error) {
	i := v.AsInt()
	if mapped, ok := c.ParameterToDevice[i]; ok && c.ToDevice {
		return variant.Int(mapped), nil
	}
	return variant.Int(i), nil
}

// BooleanInteger maps a boolean to an integer. Without True/False codes the
// packet value is compared against Threshold and booleans encode as 0/1.
type BooleanInteger struct {
	Threshold int64
	True      int64
	False     int64
	Invert    bool
}

func (*BooleanInteger) Kind() ConversionKind { return ConversionBooleanInteger }
func (*BooleanInteger) isConversion()        {}

func (c *BooleanInteger) FromPacket(_ Context, v variant.Variant) (variant.Variant, error) {
	i := v.AsInt()
	var b bool
	if c.True == 0 && c.False == 0 {
		b = i >= c.Threshold
	} else {
		b = i == c.True || (i != c.False && i >= c.Threshold)
	}
	if c.Invert {
		b = !b
	}
	return variant.Bool(b), nil
}

func (c *BooleanInteger) ToPacket(_ Context, v variant.Variant) (variant.Variant, error) {
	b := v.AsBool()
	if c.Invert {
		b = !b
	}
	switch {
	case c.True == 0 && c.False == 0:
		return variant.Int(boolInt(b)), nil
	case b:
		return variant.Int(c.True), nil
	default:
		return variant.Int(c.False), nil
	}
}

// BooleanString maps a boolean to one of two literals.
type BooleanString struct {
	True   string
	False  string
	Invert bool
}

func (*BooleanString) Kind() ConversionKind { return ConversionBooleanString }
func (*BooleanString) isConversion()        {}

func (c *BooleanString) FromPacket(_ Context, v variant.Variant) (variant.Variant, error) {
	b := v.AsString() == c.True
	if c.Invert {
		b = !b
	}
	return variant.Bool(b), nil
}

func (c *BooleanString) ToPacket(_ Context, v variant.Variant) (variant.Variant, error) {
	b := v.AsBool()
	if c.Invert {
		b = !b
	}
	if b {
		return variant.String(c.True), nil
	}
	return variant.String(c.False), nil
}

// FloatUint8StringScale is accepted for compatibility. It does not change
// the value.
type FloatUint8StringScale struct {
	Factor float64
	Offset float64
}

func (*FloatUint8StringScale) Kind() ConversionKind { return ConversionFloatUint8StringScale }
func (*FloatUint8StringScale) isConversion()        {}

func (*FloatUint8StringScale) FromPacket(_ Context, v variant.Variant) (variant.Variant, error) {
	return v, nil
}

func (*FloatUint8StringScale) ToPacket(_ Context, v variant.Variant) (variant.Variant, error) {
	return v, nil
}

// Toggle passes values through. On and Off are the packet values a caller
// sends to switch.
type Toggle struct {
	On, Off int64
}

func (*Toggle) Kind() ConversionKind { return ConversionToggle }
func (*Toggle) isConversion()        {}

func (*Toggle) FromPacket(_ Context, v variant.Variant) (variant.Variant, error) { return v, nil }
func (*Toggle) ToPacket(_ Context, v variant.Variant) (variant.Variant, error)   { return v, nil }

// StringUnsignedInteger carries decimal text as an unsigned 32-bit integer.
type StringUnsignedInteger struct{}

func (*StringUnsignedInteger) Kind() ConversionKind { return ConversionStringUnsignedInteger }
func (*StringUnsignedInteger) isConversion()        {}

func (*StringUnsignedInteger) FromPacket(_ Context, v variant.Variant) (variant.Variant, error) {
	return variant.String(strconv.FormatUint(uint64(uint32(v.AsInt())), 10)), nil
}

func (*StringUnsignedInteger) ToPacket(_ Context, v variant.Variant) (variant.Variant, error) {
	return variant.Int(int64(variant.Unsigned(v.AsString()))), nil
}

// BlindTest always produces the configured constant.
type BlindTest struct {
	Value string
}

func (*BlindTest) Kind() ConversionKind { return ConversionBlindTest }
func (*BlindTest) isConversion()        {}

func (c *BlindTest) FromPacket(_ Context, _ variant.Variant) (variant.Variant, error) {
	return variant.Int(variant.Number(c.Value)), nil
}

func (c *BlindTest) ToPacket(_ Context, _ variant.Variant) (variant.Variant, error) {
	return variant.Int(variant.Number(c.Value)), nil
}

// OptionString carries an enum option as its id string on the packet side.
type OptionString struct{}

func (*OptionString) Kind() ConversionKind { return ConversionOptionString }
func (*OptionString) isConversion()        {}

func (*OptionString) FromPacket(ctx Context, v variant.Variant) (variant.Variant, error) {
	e, ok := ctx.Logical.(*EnumLogical)
	if !ok {
		ctx.warn("option_string needs an option logical, have %s", ctx.Logical.Kind())
		return v, nil
	}
	id := v.AsString()
	if o, found := e.Option(id); found {
		return variant.Int(o.Index), nil
	}
	ctx.warn("no option %q, using index 0", id)
	return variant.Int(0), nil
}

func (*OptionString) ToPacket(ctx Context, v variant.Variant) (variant.Variant, error) {
	e, ok := ctx.Logical.(*EnumLogical)
	if !ok {
		return v, nil
	}
	if o, found := e.OptionAt(v.AsInt()); found {
		return variant.String(o.ID), nil
	}
	ctx.warn("enum index %d is not valid", v.AsInt())
	return variant.String(""), nil
}

// StringJSONArrayFloat carries a ";" separated list of floats as an array.
// It is only valid for string logicals and is normally followed by an
// rpc_binary step.
type StringJSONArrayFloat struct{}

func (*StringJSONArrayFloat) Kind() ConversionKind { return ConversionStringJSONArrayFloat }
func (*StringJSONArrayFloat) isConversion()        {}

func (*StringJSONArrayFloat) FromPacket(ctx Context, v variant.Variant) (variant.Variant, error) {
	if ctx.Logical.Kind() != LogicalString {
		ctx.warn("only strings can be created from float arrays")
		return v, nil
	}
	parts := make([]string, len(v.Items()))
	for i, item := range v.Items() {
		parts[i] = strconv.FormatFloat(item.AsFloat(), 'f', -1, 64)
	}
	return variant.String(strings.Join(parts, ";")), nil
}

func (*StringJSONArrayFloat) ToPacket(ctx Context, v variant.Variant) (variant.Variant, error) {
	if ctx.Logical.Kind() != LogicalString {
		ctx.warn("only strings can be converted to float arrays")
		return v, nil
	}
	s := v.AsString()
	if s == "" {
		return variant.Array(), nil
	}
	elements := strings.Split(s, ";")
	items := make([]variant.Variant, len(elements))
	for i, e := range elements {
		items[i] = variant.Float(variant.Double(e))
	}
	return variant.Array(items...), nil
}

// HexStringByteArray carries a hex string as the bytes it spells.
type HexStringByteArray struct{}

func (*HexStringByteArray) Kind() ConversionKind { return ConversionHexStringByteArray }
func (*HexStringByteArray) isConversion()        {}

func (*HexStringByteArray) FromPacket(_ Context, v variant.Variant) (variant.Variant, error) {
	return variant.String(variant.HexString(rawBytes(v))), nil
}

func (*HexStringByteArray) ToPacket(ctx Context, v variant.Variant) (variant.Variant, error) {
	if ctx.Logical.Kind() != LogicalString {
		ctx.warn("only strings can be converted to byte arrays")
		return v, nil
	}
	return variant.String(string(variant.BinaryString(v.AsString()))), nil
}

// RPCBinary hands the whole value to the binary RPC codec. When encoding no
// further steps run after it.
type RPCBinary struct{}

func (*RPCBinary) Kind() ConversionKind { return ConversionRPCBinary }
func (*RPCBinary) isConversion()        {}

// FromPacket decodes ctx.Raw; the incoming value is ignored.
func (*RPCBinary) FromPacket(ctx Context, _ variant.Variant) (variant.Variant, error) {
	if ctx.RPC == nil {
		return variant.Void(), fmt.Errorf("%w: no rpc codec", ErrConversion)
	}
	v, err := ctx.RPC.Decode(ctx.Raw)
	if err != nil {
		return variant.Void(), fmt.Errorf("%w: %w", ErrConversion, err)
	}
	return v, nil
}

// ToPacket returns the encoding as a binary variant.
func (*RPCBinary) ToPacket(ctx Context, v variant.Variant) (variant.Variant, error) {
	if ctx.RPC == nil {
		return v, fmt.Errorf("%w: no rpc codec", ErrConversion)
	}
	data, err := ctx.RPC.Encode(v)
	if err != nil {
		return v, fmt.Errorf("%w: %w", ErrConversion, err)
	}
	return variant.Binary(data), nil
}

// Packing marks a parameter whose packet form is produced by a dedicated
// multi-field packer (cfm or ccrtdn_party) instead of the step pipeline.
// As a step it passes values through.
type Packing struct {
	Format ConversionKind
}

func (c *Packing) Kind() ConversionKind { return c.Format }
func (*Packing) isConversion()          {}

func (*Packing) FromPacket(_ Context, v variant.Variant) (variant.Variant, error) { return v, nil }
func (*Packing) ToPacket(_ Context, v variant.Variant) (variant.Variant, error)   { return v, nil }

func boolInt(b bool) int64 {
	if b {
		return 1
	}
	return 0
}

func rawBytes(v variant.Variant) []byte {
	if v.Kind() == variant.KindBinary {
		return v.BinaryValue()
	}
	return []byte(v.AsString())
}

// Compile-time interface satisfaction checks.
var (
	_ Conversion = (*FloatIntegerScale)(nil)
	_ Conversion = (*IntegerIntegerScale)(nil)
	_ Conversion = (*IntegerMap)(nil)
	_ Conversion = (*BooleanInteger)(nil)
	_ Conversion = (*BooleanString)(nil)
	_ Conversion = (*FloatUint8StringScale)(nil)
	_ Conversion = (*ConfigTime)(nil)
	_ Conversion = (*TinyFloat)(nil)
	_ Conversion = (*Toggle)(nil)
	_ Conversion = (*StringUnsignedInteger)(nil)
	_ Conversion = (*BlindTest)(nil)
	_ Conversion = (*OptionString)(nil)
	_ Conversion = (*StringJSONArrayFloat)(nil)
	_ Conversion = (*HexStringByteArray)(nil)
	_ Conversion = (*RPCBinary)(nil)
	_ Conversion = (*Packing)(nil)
)
