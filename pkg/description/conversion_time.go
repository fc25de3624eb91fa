package description

import (
	"fmt"
	"math"

	"github.com/devdesc/devdesc-go/pkg/variant"
)

// configTimeLadder holds the factors of the default config time encoding.
// The factor index sits in the top 3 bits of the byte.
var configTimeLadder = [8]float64{0.1, 1, 5, 10, 60, 300, 600, 3600}

// configTimeLimits is the largest value, in seconds, each ladder step is
// used for when encoding.
var configTimeLimits = [7]float64{3.1, 31, 155, 310, 1860, 9300, 18600}

// ConfigTime encodes a duration as a factor index plus a magnitude. Without
// ValueSize and Factors the default one byte ladder is used.
type ConfigTime struct {
	// ValueSize is the magnitude width in byte.bit notation.
	ValueSize float64
	Factors   []float64
}

func (*ConfigTime) Kind() ConversionKind { return ConversionFloatConfigTime }
func (*ConfigTime) isConversion()        {}

func (c *ConfigTime) explicit() bool {
	return c.ValueSize > 0 && len(c.Factors) > 0
}

// bits returns the magnitude width for explicit factor lists.
func (c *ConfigTime) bits() uint {
	return uint(math.Floor(c.ValueSize))*8 + uint(math.Round(c.ValueSize*10))%10
}

func (c *ConfigTime) FromPacket(_ Context, v variant.Variant) (variant.Variant, error) {
	i := v.AsInt()
	if !c.explicit() {
		index := (i & 0xFF) >> 5
		return variant.Float(float64(i&0x1F) * configTimeLadder[index]), nil
	}
	bits := c.bits()
	index := uint64(i) >> bits
	if index >= uint64(len(c.Factors)) {
		return variant.Float(0), fmt.Errorf("%w: config time factor index %d out of range", ErrConversion, index)
	}
	mask := int64(math.MaxUint32)
	if bits < 32 {
		mask >>= 32 - bits
	}
	return variant.Float(float64(i&mask) * c.Factors[index]), nil
}

// ToPacket picks the smallest factor the value fits with, which keeps the
// quantization error lowest. Negative durations encode as 0.
func (c *ConfigTime) ToPacket(_ Context, v variant.Variant) (variant.Variant, error) {
	f := max(v.AsFloat(), 0)
	if !c.explicit() {
		index := len(configTimeLimits)
		for i, limit := range configTimeLimits {
			if f <= limit {
				index = i
				break
			}
		}
		magnitude := int64(math.Round(f / configTimeLadder[index]))
		return variant.Int((int64(index)<<5 | magnitude) & 0xFF), nil
	}
	bits := c.bits()
	maxMagnitude := float64(int64(1)<<bits - 1)
	index := 0
	for index < len(c.Factors) && f/c.Factors[index] > maxMagnitude {
		index++
	}
	if index == len(c.Factors) {
		return v, fmt.Errorf("%w: %v exceeds the largest config time factor", ErrConversion, f)
	}
	magnitude := int64(math.Round(f / c.Factors[index]))
	return variant.Int(int64(index)<<bits | magnitude), nil
}

// TinyFloat packs an integer as mantissa * 2^exponent into one word. The
// start fields are bit offsets, the size fields bit widths.
type TinyFloat struct {
	MantissaStart int64
	MantissaSize  int64
	ExponentStart int64
	ExponentSize  int64
}

// NewTinyFloat returns the common 11 bit mantissa, 5 bit exponent layout.
func NewTinyFloat() *TinyFloat {
	return &TinyFloat{MantissaStart: 5, MantissaSize: 11, ExponentStart: 0, ExponentSize: 5}
}

func (*TinyFloat) Kind() ConversionKind { return ConversionIntegerTinyFloat }
func (*TinyFloat) isConversion()        {}

func (c *TinyFloat) FromPacket(_ Context, v variant.Variant) (variant.Variant, error) {
	i := v.AsInt()
	mantissa := (i >> c.MantissaStart) & (int64(1)<<c.MantissaSize - 1)
	if c.MantissaSize == 0 {
		mantissa = 1
	}
	exponent := (i >> c.ExponentStart) & (int64(1)<<c.ExponentSize - 1)
	return variant.Int(mantissa << exponent), nil
}

func (c *TinyFloat) ToPacket(_ Context, v variant.Variant) (variant.Variant, error) {
	return variant.Int(c.pack(v.AsInt())), nil
}

// pack shifts value right until it fits the mantissa, counting the shifts
// as exponent. Values beyond the largest exponent saturate both fields and
// negative values pack as zero.
func (c *TinyFloat) pack(value int64) int64 {
	maxMantissa := int64(1)<<c.MantissaSize - 1
	maxExponent := int64(1)<<c.ExponentSize - 1
	mantissa := max(value, 0)
	var exponent int64
	if maxMantissa > 0 {
		for mantissa > maxMantissa {
			mantissa >>= 1
			exponent++
		}
	}
	mantissa = min(mantissa, maxMantissa)
	if exponent > maxExponent {
		mantissa, exponent = maxMantissa, maxExponent
	}
	return mantissa<<c.MantissaStart | exponent<<c.ExponentStart
}
