package description

import (
	"math"
	"strings"

	"github.com/devdesc/devdesc-go/pkg/log"
	"github.com/devdesc/devdesc-go/pkg/variant"
)

// rssiDeviceID is decoded as a negated integer on every device.
const rssiDeviceID = "RSSI_DEVICE"

// ConvertFromPacket decodes the bytes a frame carries for p into a logical
// value. It never fails: problems are reported and the best value obtained
// so far is returned.
func (p *Parameter) ConvertFromPacket(data []byte, isEvent bool) variant.Variant {
	ph := p.Physical
	if ph.Endian == LittleEndian {
		data = fromLittleEndian(data, ph.ByteSize())
	}
	ctx := p.context(data)
	kind := p.Logical.Kind()

	if len(p.Conversions) == 0 {
		switch kind {
		case LogicalEnum:
			return variant.Int(bigEndianInt(data))
		case LogicalBoolean:
			return variant.Bool(bigEndianInt(data) != 0)
		case LogicalString:
			if len(data) == 0 || data[0] == 0 {
				return variant.String("")
			}
			return variant.String(string(trimTerminator(data)))
		}
	}
	if kind == LogicalAction {
		return variant.Bool(isEvent)
	}
	if p.ID == rssiDeviceID {
		return variant.Int(-bigEndianInt(data))
	}

	var v variant.Variant
	if ph.Type == PhysicalString || len(data) > 4 {
		v = variant.String(string(data))
	} else {
		v = variant.Int(bigEndianInt(data))
		if p.Signed {
			v = variant.Int(p.signExtend(data, v.IntValue()))
		}
	}

	for i := len(p.Conversions) - 1; i >= 0; i-- {
		next, err := p.Conversions[i].FromPacket(ctx, v)
		if err != nil {
			p.rep.Parameter(log.LevelError, p.ID, data, "%s: %v", p.Conversions[i].Kind(), err)
			break
		}
		v = next
	}

	if v.IsVoid() {
		p.rep.Parameter(log.LevelError, p.ID, data, "conversion produced no value")
		return variant.Int(0)
	}
	if kind == LogicalFloat && v.Kind() == variant.KindInteger {
		v = variant.Float(float64(v.IntValue()))
	}
	return v
}

// signExtend interprets i as a two's complement number of the physical bit
// width. Widths of 32 bits and more are left alone.
func (p *Parameter) signExtend(data []byte, i int64) int64 {
	size := p.Physical.Size
	byteIndex := len(data) - int(math.Ceil(size))
	if len(data) == 0 || byteIndex < 0 || byteIndex >= len(data) {
		return i
	}
	bitSize := int(math.Round(size*10)) % 10
	signBit := 7
	if bitSize != 0 {
		signBit = bitSize - 1
	}
	if data[byteIndex]&(1<<signBit) == 0 {
		return i
	}
	bits := int(math.Floor(size))*8 + bitSize
	if bits >= 32 {
		return i
	}
	return i - int64(1)<<bits
}

// ConvertToPacket encodes a logical value into the bytes a frame carries
// for p. Like ConvertFromPacket it reports problems instead of failing.
func (p *Parameter) ConvertToPacket(value variant.Variant) []byte {
	ph := p.Physical
	v := p.coerce(value.Clone())

	if p.Logical.Kind() == LogicalString && len(p.Conversions) == 0 {
		out := []byte(v.AsString())
		if len(out) < int(math.Round(ph.Size)) {
			out = append(out, 0)
		}
		return out
	}

	if len(p.Conversions) > 0 {
		if pack, ok := p.Conversions[0].(*Packing); ok {
			var out []byte
			if pack.Format == ConversionCFM {
				out = packCFM(v.AsString())
				if ph.Endian == LittleEndian {
					out = reverseBytes(out, len(out))
				}
			} else {
				out = packParty(v.AsString())
			}
			return out
		}
	}

	ctx := p.context(nil)
	for _, c := range p.Conversions {
		next, err := c.ToPacket(ctx, v)
		if err != nil {
			p.rep.Parameter(log.LevelError, p.ID, nil, "%s: %v", c.Kind(), err)
			break
		}
		v = next
		if c.Kind() == ConversionRPCBinary {
			return v.BinaryValue()
		}
	}

	var out []byte
	if ph.Type == PhysicalString {
		out = rawBytes(v)
	} else {
		i := v.AsInt()
		if ph.SizeDefined {
			i &= int64(valueMask(ph.Size))
		}
		out = minimalBigEndian(i)
		if ph.SizeDefined {
			out = padLeft(out, ph.ByteSize())
		}
	}
	if ph.Endian == LittleEndian {
		out = reverseBytes(out, ph.ByteSize())
	}
	return out
}

// coerce applies the range and type rules of the logical before the
// pipeline runs.
func (p *Parameter) coerce(v variant.Variant) variant.Variant {
	empty := len(p.Conversions) == 0
	switch l := p.Logical.(type) {
	case *EnumLogical:
		if v.Kind() == variant.KindString && !variant.IsNumber(v.StringValue()) {
			resolved, ok := l.FromString(v.StringValue())
			if !ok {
				p.rep.Parameter(log.LevelWarning, p.ID, nil, "unknown option %q, using index 0", v.StringValue())
			}
			v = resolved
		}
		if empty {
			v = variant.Int(min(max(v.AsInt(), l.Min), l.Max))
		}
	case *ActionLogical:
		if empty {
			v = variant.Int(boolInt(v.AsBool()))
		}
	case *FloatLogical:
		f := v.AsFloat()
		if !l.special(f) {
			f = min(max(f, l.Min), l.Max)
		}
		v = variant.Float(f)
	case *IntegerLogical:
		i := v.AsInt()
		if !l.special(i) {
			i = min(max(i, l.Min), l.Max)
		}
		v = variant.Int(i)
	case *BooleanLogical:
		v = variant.Bool(v.AsBool())
		if empty {
			v = variant.Int(boolInt(v.BoolValue()))
		}
	}
	return v
}

// ConvertToPacketString parses literal according to the logical kind and
// encodes it like ConvertToPacket. It returns nil when the kind has no
// literal form.
func (p *Parameter) ConvertToPacketString(literal string) []byte {
	var v variant.Variant
	switch l := p.Logical.(type) {
	case *IntegerLogical:
		v = variant.Int(variant.Number(literal))
	case *EnumLogical:
		resolved, ok := l.FromString(literal)
		if !ok {
			p.rep.Parameter(log.LevelWarning, p.ID, nil, "unknown option %q, using index 0", literal)
		}
		v = resolved
	case *BooleanLogical, *ActionLogical:
		v = variant.Bool(strings.ToLower(literal) == "true")
	case *FloatLogical:
		v = variant.Float(variant.Double(literal))
	case *StringLogical:
		v = variant.String(literal)
	default:
		p.rep.Parameter(log.LevelWarning, p.ID, nil, "cannot convert %s parameter from a literal", p.Logical.Kind())
		return nil
	}
	return p.ConvertToPacket(v)
}

// AdjustBitPosition moves an encoded sub-byte value to its bit offset
// inside the byte and left-pads the result to the physical size.
func (p *Parameter) AdjustBitPosition(data []byte) []byte {
	ph := p.Physical
	if len(data) > 4 || len(data) == 0 || p.Logical.Kind() == LogicalString {
		return data
	}
	if ph.Size < 0 {
		p.rep.Parameter(log.LevelError, p.ID, data, "negative size")
		return data
	}
	value := bigEndianInt(data)
	fraction := ph.Index - math.Floor(ph.Index)
	out := data
	if fraction != 0 || ph.Size < 0.8 {
		if ph.Size > 1 {
			p.rep.Parameter(log.LevelError, p.ID, data, "cannot shift values wider than one byte")
			return data
		}
		out = []byte{byte(value << (int(math.Round(fraction*10)) % 10))}
	}
	return padLeft(out, int(ph.Size))
}

// Decode is ConvertFromPacket plus the diagnostics the call produced. The
// events are also forwarded to the logger the description was loaded with.
func (p *Parameter) Decode(data []byte, isEvent bool) (variant.Variant, []log.Event) {
	c := log.NewCollector()
	v := p.collecting(c).ConvertFromPacket(data, isEvent)
	return v, c.Events()
}

// Encode is ConvertToPacket plus the diagnostics the call produced.
func (p *Parameter) Encode(v variant.Variant) ([]byte, []log.Event) {
	c := log.NewCollector()
	out := p.collecting(c).ConvertToPacket(v)
	return out, c.Events()
}

// collecting returns a shallow copy of p that also reports to c.
func (p *Parameter) collecting(c *log.Collector) *Parameter {
	q := *p
	q.rep = p.rep.WithLogger(log.NewMultiLogger(p.rep.Logger, c))
	return &q
}

func (p *Parameter) context(raw []byte) Context {
	return Context{
		Logical:     p.Logical,
		RPC:         p.codec,
		Raw:         raw,
		Reporter:    p.rep,
		ParameterID: p.ID,
	}
}

// bigEndianInt reads up to the first four bytes of data as a signed 32-bit
// big-endian integer. Shorter input is right aligned.
func bigEndianInt(data []byte) int64 {
	var u uint32
	for _, b := range data[:min(len(data), 4)] {
		u = u<<8 | uint32(b)
	}
	if len(data) >= 4 {
		return int64(int32(u))
	}
	return int64(u)
}

// minimalBigEndian writes i with as few bytes as it needs. Negative values
// always take four bytes.
func minimalBigEndian(i int64) []byte {
	u := uint32(i)
	var n int
	switch {
	case i < 0:
		n = 4
	case i < 1<<8:
		n = 1
	case i < 1<<16:
		n = 2
	case i < 1<<24:
		n = 3
	default:
		n = 4
	}
	out := make([]byte, n)
	for k := n - 1; k >= 0; k-- {
		out[k] = byte(u)
		u >>= 8
	}
	return out
}

// reverseBytes returns the last size bytes of data in reverse order, zero
// padded when data is shorter.
func reverseBytes(data []byte, size int) []byte {
	if size <= 0 {
		size = 1
	}
	out := make([]byte, size)
	j := len(data) - 1
	for k := range out {
		if j >= 0 {
			out[k] = data[j]
		}
		j--
	}
	return out
}

// fromLittleEndian turns little-endian packet bytes into a big-endian
// buffer of size bytes. Missing high bytes are zero, extra high bytes are
// dropped.
func fromLittleEndian(data []byte, size int) []byte {
	if size <= 0 {
		size = 1
	}
	if len(data) > size {
		data = data[:size]
	}
	return padLeft(reverseBytes(data, len(data)), size)
}

// padLeft prepends zero bytes until data is size bytes long.
func padLeft(data []byte, size int) []byte {
	if len(data) >= size {
		return data
	}
	out := make([]byte, size)
	copy(out[size-len(data):], data)
	return out
}

// valueMask keeps the bits of a byte.bit size. Sizes of four bytes and more
// keep all 32 bits.
func valueMask(size float64) uint32 {
	byteSize := uint(math.Floor(size))
	bitSize := uint(math.Round(size*10)) % 10
	if byteSize >= 4 {
		byteSize, bitSize = 4, 0
	}
	shift := (4-byteSize)*8 - bitSize
	return math.MaxUint32 >> shift
}

func trimTerminator(data []byte) []byte {
	if n := len(data); n > 0 && data[n-1] == 0 {
		return data[:n-1]
	}
	return data
}
