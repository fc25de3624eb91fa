package description

import (
	"strings"

	"github.com/devdesc/devdesc-go/pkg/markup"
)

// conversionAttrs collects every conversion attribute before the concrete
// step is built, so attribute order in the document does not matter.
type conversionAttrs struct {
	typ           string
	factor        float64
	factors       []float64
	valueSize     float64
	threshold     int64
	valueTrue     int64
	valueFalse    int64
	stringTrue    string
	stringFalse   string
	div, mul      int64
	offset        float64
	value         string
	tiny          TinyFloat
	on, off       int64
	invert        bool
	fromDevice    bool
	toDevice      bool
	deviceToParam map[int64]int64
	paramToDevice map[int64]int64
}

// noopConversions need no transform and are dropped from the pipeline.
var noopConversions = map[string]bool{
	"action_key_counter":      true,
	"action_key_same_counter": true,
	"rc19display":             true,
}

// parseConversion reads a <conversion> element. It returns nil for steps
// that are dropped: unknown types (reported) and no-op types.
func (p *parser) parseConversion(n *markup.Node, logical Logical) Conversion {
	const component = "conversion"
	a := conversionAttrs{
		factor:        1,
		threshold:     1,
		tiny:          *NewTinyFloat(),
		on:            200,
		fromDevice:    true,
		toDevice:      true,
		deviceToParam: map[int64]int64{},
		paramToDevice: map[int64]int64{},
	}
	for _, attr := range n.Attrs {
		v := attr.Value
		switch attr.Name {
		case "type":
			a.typ = v
		case "factor":
			a.factor = p.float(component, attr.Name, v)
		case "factors":
			a.factors = a.factors[:0]
			for _, f := range strings.Split(v, ",") {
				a.factors = append(a.factors, p.float(component, attr.Name, f))
			}
		case "value_size":
			a.valueSize = p.float(component, attr.Name, v)
		case "threshold":
			a.threshold = p.int(component, attr.Name, v)
		case "true":
			a.valueTrue = p.int(component, attr.Name, v)
		case "false":
			a.valueFalse = p.int(component, attr.Name, v)
		case "string_true":
			a.stringTrue = v
		case "string_false":
			a.stringFalse = v
		case "div":
			a.div = p.int(component, attr.Name, v)
		case "mul":
			a.mul = p.int(component, attr.Name, v)
		case "offset":
			a.offset = p.float(component, attr.Name, v)
		case "value":
			a.value = v
		case "mantissa_start":
			a.tiny.MantissaStart = p.bitField(attr.Name, v, a.tiny.MantissaStart)
		case "mantissa_size":
			a.tiny.MantissaSize = p.bitField(attr.Name, v, a.tiny.MantissaSize)
		case "exponent_start":
			a.tiny.ExponentStart = p.bitField(attr.Name, v, a.tiny.ExponentStart)
		case "exponent_size":
			a.tiny.ExponentSize = p.bitField(attr.Name, v, a.tiny.ExponentSize)
		case "on":
			a.on = p.int(component, attr.Name, v)
		case "off":
			a.off = p.int(component, attr.Name, v)
		case "invert":
			a.invert = v == "true"
		case "physical_bytes":
			if count := p.int(component, attr.Name, v); count != 1 {
				p.rep.Warningf(component, "unsupported physical_bytes %d", count)
			}
		case "sim_counter", "counter_size":
		default:
			p.unknownAttr(component, attr.Name)
		}
	}

	mapped := a.typ == "integer_integer_map" || a.typ == "option_integer"
	for _, c := range n.Children {
		if c.Name != "value_map" || !mapped {
			p.unknownNode(component, c.Name)
			continue
		}
		var device, param int64
		for _, attr := range c.Attrs {
			switch attr.Name {
			case "device_value":
				device = p.int("value_map", attr.Name, attr.Value)
			case "parameter_value":
				param = p.int("value_map", attr.Name, attr.Value)
			case "from_device":
				if attr.Value == "false" {
					a.fromDevice = false
				}
			case "to_device":
				if attr.Value == "false" {
					a.toDevice = false
				}
			case "mask":
			default:
				p.unknownAttr("value_map", attr.Name)
			}
		}
		a.deviceToParam[device] = param
		a.paramToDevice[param] = device
	}

	return p.buildConversion(a, logical)
}

func (p *parser) buildConversion(a conversionAttrs, logical Logical) Conversion {
	switch a.typ {
	case "float_integer_scale":
		return &FloatIntegerScale{Factor: a.factor, Offset: a.offset}
	case "integer_integer_scale":
		return &IntegerIntegerScale{Mul: a.mul, Div: a.div}
	case "sint4_sintx":
		c := &IntegerIntegerScale{Mul: a.mul, Div: a.div, SignedRange: true}
		if l, ok := logical.(*IntegerLogical); ok {
			c.Offset = float64(-l.Min)
			if c.Offset < 0 {
				p.rep.Warningf("conversion", "sint4_sintx needs a negative min, have %d", l.Min)
			}
			if span := float64(l.Max) + c.Offset; span != 0 {
				c.Factor = 255 / span
			}
		} else {
			p.rep.Warningf("conversion", "sint4_sintx needs an integer logical")
		}
		return c
	case "integer_integer_map", "option_integer":
		return &IntegerMap{
			Option:            a.typ == "option_integer",
			FromDevice:        a.fromDevice,
			ToDevice:          a.toDevice,
			DeviceToParameter: a.deviceToParam,
			ParameterToDevice: a.paramToDevice,
		}
	case "boolean_integer":
		return &BooleanInteger{Threshold: a.threshold, True: a.valueTrue, False: a.valueFalse, Invert: a.invert}
	case "boolean_string":
		return &BooleanString{True: a.stringTrue, False: a.stringFalse, Invert: a.invert}
	case "float_uint8_string_scale":
		return &FloatUint8StringScale{Factor: a.factor, Offset: a.offset}
	case "float_configtime":
		return &ConfigTime{ValueSize: a.valueSize, Factors: a.factors}
	case "integer_tinyfloat":
		t := a.tiny
		return &t
	case "toggle":
		return &Toggle{On: a.on, Off: a.off}
	case "string_unsigned_integer":
		return &StringUnsignedInteger{}
	case "blind_test":
		return &BlindTest{Value: a.value}
	case "cfm":
		return &Packing{Format: ConversionCFM}
	case "ccrtdn_party":
		return &Packing{Format: ConversionCCRTDNParty}
	case "rpc_binary":
		return &RPCBinary{}
	case "option_string":
		return &OptionString{}
	case "string_json_array_float":
		return &StringJSONArrayFloat{}
	case "hexstring_bytearray":
		return &HexStringByteArray{}
	default:
		if !noopConversions[a.typ] {
			p.rep.Warningf("conversion", "unknown conversion type %q", a.typ)
		}
		return nil
	}
}

// bitField parses a tiny float bit position. Values outside 0..63 are
// reported and the current value is kept.
func (p *parser) bitField(name, value string, current int64) int64 {
	n := p.int("conversion", name, value)
	if n < 0 || n > 63 {
		p.rep.Warningf("conversion", "%s %d out of range", name, n)
		return current
	}
	return n
}
