package description

import (
	"errors"
	"testing"

	"github.com/devdesc/devdesc-go/pkg/log"
	"github.com/devdesc/devdesc-go/pkg/variant"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigTimeDefaultLadder(t *testing.T) {
	c := &ConfigTime{}

	tests := []struct {
		seconds float64
		want    int64
	}{
		{0, 0x00},
		{1.5, 0x0F},  // 15 * 0.1
		{65, 0x4D},   // 13 * 5
		{300, 0x7E},  // 30 * 10
		{1800, 0x9E}, // 30 * 60
		{-4, 0x00},
	}
	for _, tt := range tests {
		packed, err := c.ToPacket(Context{}, variant.Float(tt.seconds))
		require.NoError(t, err)
		assert.Equal(t, tt.want, packed.IntValue(), "encoding %v", tt.seconds)
	}

	decoded, err := c.FromPacket(Context{}, variant.Int(0x81))
	require.NoError(t, err)
	assert.InDelta(t, 60.0, decoded.FloatValue(), 1e-9)

	decoded, err = c.FromPacket(Context{}, variant.Int(0x4D))
	require.NoError(t, err)
	assert.InDelta(t, 65.0, decoded.FloatValue(), 1e-9)
}

func TestConfigTimeExplicitFactors(t *testing.T) {
	c := &ConfigTime{ValueSize: 0.6, Factors: []float64{1, 60}}

	packed, err := c.ToPacket(Context{}, variant.Float(40))
	require.NoError(t, err)
	assert.Equal(t, int64(40), packed.IntValue())

	packed, err = c.ToPacket(Context{}, variant.Float(100))
	require.NoError(t, err)
	assert.Equal(t, int64(1<<6|2), packed.IntValue())

	decoded, err := c.FromPacket(Context{}, packed)
	require.NoError(t, err)
	assert.InDelta(t, 120.0, decoded.FloatValue(), 1e-9)

	_, err = c.ToPacket(Context{}, variant.Float(60*64))
	assert.True(t, errors.Is(err, ErrConversion))

	_, err = c.FromPacket(Context{}, variant.Int(3<<6))
	assert.True(t, errors.Is(err, ErrConversion))
}

func TestTinyFloat(t *testing.T) {
	c := &TinyFloat{MantissaStart: 0, MantissaSize: 4, ExponentStart: 4, ExponentSize: 3}

	packed, err := c.ToPacket(Context{}, variant.Int(200))
	require.NoError(t, err)
	assert.Equal(t, int64(0x4C), packed.IntValue())

	decoded, err := c.FromPacket(Context{}, packed)
	require.NoError(t, err)
	assert.Equal(t, int64(192), decoded.IntValue())
	assert.LessOrEqual(t, 200-decoded.IntValue(), int64(1<<4-1))

	// Exponent saturates at 7.
	packed, err = c.ToPacket(Context{}, variant.Int(1<<20))
	require.NoError(t, err)
	assert.Equal(t, int64(0x7F), packed.IntValue())

	// Negative values pack as zero instead of spilling into the exponent.
	for _, v := range []int64{-1, -5, -1 << 20} {
		packed, err = c.ToPacket(Context{}, variant.Int(v))
		require.NoError(t, err)
		assert.Equal(t, int64(0), packed.IntValue(), "packing %d", v)
	}
}

func TestTinyFloatDefaultLayout(t *testing.T) {
	c := NewTinyFloat()
	packed, err := c.ToPacket(Context{}, variant.Int(25))
	require.NoError(t, err)
	assert.Equal(t, int64(25<<5), packed.IntValue())

	decoded, err := c.FromPacket(Context{}, packed)
	require.NoError(t, err)
	assert.Equal(t, int64(25), decoded.IntValue())
}

func TestIntegerIntegerScale(t *testing.T) {
	c := &IntegerIntegerScale{Mul: 10, Div: 2}

	packed, err := c.ToPacket(Context{}, variant.Int(7))
	require.NoError(t, err)
	assert.Equal(t, int64(35), packed.IntValue())

	decoded, err := c.FromPacket(Context{}, packed)
	require.NoError(t, err)
	assert.Equal(t, int64(7), decoded.IntValue())

	unused := &IntegerIntegerScale{}
	packed, _ = unused.ToPacket(Context{}, variant.Int(7))
	assert.Equal(t, int64(7), packed.IntValue())
}

func TestIntegerMap(t *testing.T) {
	c := &IntegerMap{
		FromDevice:        true,
		ToDevice:          true,
		DeviceToParameter: map[int64]int64{0xC8: 1},
		ParameterToDevice: map[int64]int64{1: 0xC8},
	}

	v, _ := c.FromPacket(Context{}, variant.Int(0xC8))
	assert.Equal(t, int64(1), v.IntValue())
	v, _ = c.FromPacket(Context{}, variant.Int(5))
	assert.Equal(t, int64(5), v.IntValue(), "a miss passes the value")
	v, _ = c.ToPacket(Context{}, variant.Int(1))
	assert.Equal(t, int64(0xC8), v.IntValue())

	c.ToDevice = false
	v, _ = c.ToPacket(Context{}, variant.Int(1))
	assert.Equal(t, int64(1), v.IntValue())
	assert.Equal(t, ConversionIntegerIntegerMap, c.Kind())
}

func TestBooleanInteger(t *testing.T) {
	threshold := &BooleanInteger{Threshold: 100}
	v, _ := threshold.FromPacket(Context{}, variant.Int(99))
	assert.False(t, v.BoolValue())
	v, _ = threshold.FromPacket(Context{}, variant.Int(100))
	assert.True(t, v.BoolValue())
	v, _ = threshold.ToPacket(Context{}, variant.Bool(true))
	assert.Equal(t, int64(1), v.IntValue())

	codes := &BooleanInteger{Threshold: 1, True: 200, False: 0}
	v, _ = codes.FromPacket(Context{}, variant.Int(200))
	assert.True(t, v.BoolValue())
	v, _ = codes.FromPacket(Context{}, variant.Int(0))
	assert.False(t, v.BoolValue())
	v, _ = codes.ToPacket(Context{}, variant.Bool(true))
	assert.Equal(t, int64(200), v.IntValue())

	inverted := &BooleanInteger{Threshold: 1, Invert: true}
	v, _ = inverted.FromPacket(Context{}, variant.Int(1))
	assert.False(t, v.BoolValue())
	v, _ = inverted.ToPacket(Context{}, variant.Bool(false))
	assert.Equal(t, int64(1), v.IntValue())
}

func TestBooleanString(t *testing.T) {
	c := &BooleanString{True: "on", False: "off"}
	v, _ := c.FromPacket(Context{}, variant.String("on"))
	assert.True(t, v.BoolValue())
	v, _ = c.ToPacket(Context{}, variant.Bool(false))
	assert.Equal(t, "off", v.StringValue())

	c.Invert = true
	v, _ = c.FromPacket(Context{}, variant.String("on"))
	assert.False(t, v.BoolValue())
}

func TestStringUnsignedInteger(t *testing.T) {
	c := &StringUnsignedInteger{}
	v, _ := c.FromPacket(Context{}, variant.Int(-1))
	assert.Equal(t, variant.String("4294967295"), v)
	v, _ = c.ToPacket(Context{}, variant.String("42"))
	assert.Equal(t, variant.Int(42), v)
	v, _ = c.ToPacket(Context{}, variant.String("-3"))
	assert.Equal(t, variant.Int(0), v)
}

func TestBlindTest(t *testing.T) {
	c := &BlindTest{Value: "0x10"}
	v, _ := c.ToPacket(Context{}, variant.Int(99))
	assert.Equal(t, variant.Int(16), v)
}

func TestOptionString(t *testing.T) {
	collector := log.NewCollector()
	ctx := Context{
		Logical:     &EnumLogical{Options: []EnumOption{{ID: "LOW", Index: 0}, {ID: "HIGH", Index: 1}}},
		Reporter:    log.Reporter{Logger: collector},
		ParameterID: "MODE",
	}
	c := &OptionString{}

	v, _ := c.FromPacket(ctx, variant.String("HIGH"))
	assert.Equal(t, variant.Int(1), v)
	v, _ = c.ToPacket(ctx, variant.Int(1))
	assert.Equal(t, variant.String("HIGH"), v)
	assert.Zero(t, collector.Count(log.LevelWarning))

	v, _ = c.FromPacket(ctx, variant.String("MEDIUM"))
	assert.Equal(t, variant.Int(0), v)
	v, _ = c.ToPacket(ctx, variant.Int(5))
	assert.Equal(t, variant.String(""), v)
	assert.Equal(t, 2, collector.Count(log.LevelWarning))
}

func TestStringJSONArrayFloat(t *testing.T) {
	ctx := Context{Logical: &StringLogical{}}
	c := &StringJSONArrayFloat{}

	v, _ := c.ToPacket(ctx, variant.String("1.5;2;-0.25"))
	require.Equal(t, variant.KindArray, v.Kind())
	require.Len(t, v.Items(), 3)
	assert.Equal(t, 1.5, v.Items()[0].FloatValue())

	back, _ := c.FromPacket(ctx, v)
	assert.Equal(t, variant.String("1.5;2;-0.25"), back)

	empty, _ := c.ToPacket(ctx, variant.String(""))
	assert.Empty(t, empty.Items())

	// Non string logicals pass through.
	passed, _ := c.ToPacket(Context{Logical: NewIntegerLogical()}, variant.Int(3))
	assert.Equal(t, variant.Int(3), passed)
}

func TestHexStringByteArray(t *testing.T) {
	ctx := Context{Logical: &StringLogical{}}
	c := &HexStringByteArray{}

	v, _ := c.ToPacket(ctx, variant.String("c0ffee"))
	assert.Equal(t, []byte{0xC0, 0xFF, 0xEE}, rawBytes(v))

	back, _ := c.FromPacket(ctx, variant.Binary([]byte{0xC0, 0xFF, 0xEE}))
	assert.Equal(t, variant.String("C0FFEE"), back)
}

func TestPassThroughSteps(t *testing.T) {
	in := variant.Int(42)
	for _, c := range []Conversion{&Toggle{On: 200}, &FloatUint8StringScale{Factor: 2}, &Packing{Format: ConversionCFM}} {
		t.Run(c.Kind().String(), func(t *testing.T) {
			out, err := c.ToPacket(Context{}, in)
			require.NoError(t, err)
			assert.Equal(t, in, out)
			out, err = c.FromPacket(Context{}, in)
			require.NoError(t, err)
			assert.Equal(t, in, out)
		})
	}
}
