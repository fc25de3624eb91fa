package description

import (
	"strings"

	"github.com/devdesc/devdesc-go/pkg/log"
	"github.com/devdesc/devdesc-go/pkg/markup"
	"github.com/devdesc/devdesc-go/pkg/rpc"
)

// UIFlags control how a parameter or channel is presented.
type UIFlags uint8

const (
	UIVisible UIFlags = 1 << iota
	UIInternal
	UITransform
	UIService
	UISticky
	UIInvisible
	UIDontDelete
)

var uiFlagNames = []struct {
	flag UIFlags
	name string
}{
	{UIVisible, "visible"},
	{UIInternal, "internal"},
	{UITransform, "transform"},
	{UIService, "service"},
	{UISticky, "sticky"},
	{UIInvisible, "invisible"},
	{UIDontDelete, "dontdelete"},
}

// Has reports whether all bits of f2 are set.
func (f UIFlags) Has(f2 UIFlags) bool { return f&f2 == f2 }

// String lists the set flags, comma separated.
func (f UIFlags) String() string {
	var names []string
	for _, n := range uiFlagNames {
		if f.Has(n.flag) {
			names = append(names, n.name)
		}
	}
	return strings.Join(names, ",")
}

// Operations is the set of operations a parameter supports.
type Operations uint8

const (
	OpRead Operations = 1 << iota
	OpWrite
	OpEvent
	OpAddonWrite
)

// Has reports whether all bits of o2 are set.
func (o Operations) Has(o2 Operations) bool { return o&o2 == o2 }

// String lists the set operations, comma separated.
func (o Operations) String() string {
	var names []string
	for _, n := range []struct {
		op   Operations
		name string
	}{{OpRead, "read"}, {OpWrite, "write"}, {OpEvent, "event"}, {OpAddonWrite, "addon_write"}} {
		if o.Has(n.op) {
			names = append(names, n.name)
		}
	}
	return strings.Join(names, ",")
}

// CondOp compares a packet value against a constant.
type CondOp uint8

const (
	CondNone CondOp = iota
	CondEqual
	CondGreater
	CondLess
	CondGreaterEqual
	CondLessEqual
)

func parseCondOp(s string) (CondOp, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "e", "eq":
		return CondEqual, true
	case "g":
		return CondGreater, true
	case "l":
		return CondLess, true
	case "ge":
		return CondGreaterEqual, true
	case "le":
		return CondLessEqual, true
	default:
		return CondNone, false
	}
}

// String returns the schema name of the operator.
func (c CondOp) String() string {
	switch c {
	case CondEqual:
		return "e"
	case CondGreater:
		return "g"
	case CondLess:
		return "l"
	case CondGreaterEqual:
		return "ge"
	case CondLessEqual:
		return "le"
	default:
		return "none"
	}
}

// Eval compares value against ref. ok is false for CondNone.
func (c CondOp) Eval(value, ref int64) (result, ok bool) {
	switch c {
	case CondEqual:
		return value == ref, true
	case CondGreater:
		return value > ref, true
	case CondLess:
		return value < ref, true
	case CondGreaterEqual:
		return value >= ref, true
	case CondLessEqual:
		return value <= ref, true
	default:
		return false, false
	}
}

// DescriptionField is a free form id/value pair attached to a parameter.
type DescriptionField struct {
	ID    string
	Value string
}

// Parameter binds an id to a logical value, its physical placement and the
// conversions between them. Parameters inside frames and device types also
// use the field attributes (FieldType, Index, Size, ConstValue, CondOp).
type Parameter struct {
	ID                  string
	AdditionalParameter string
	Param               string
	Signed              bool
	Control             string
	Loopback            bool
	Hidden              bool
	HasDominoEvents     bool
	UIFlags             UIFlags
	Operations          Operations

	FieldType        PhysicalType
	Index            float64
	Size             float64
	Index2           float64
	Size2            float64
	Index2Offset     int64
	CondOp           CondOp
	ConstValue       int64
	ConstValueString string
	OmitIf           int64
	OmitIfSet        bool
	Mask             int64
	Field            string
	Subfield         string
	Description      []DescriptionField

	Logical     Logical
	Physical    *Physical
	Conversions []Conversion

	set   *ParameterSet
	codec rpc.Codec
	rep   log.Reporter
}

// NewParameter returns a visible integer parameter with a one byte physical.
func NewParameter(id string) *Parameter {
	return &Parameter{
		ID:         id,
		UIFlags:    UIVisible,
		Operations: OpRead | OpWrite | OpEvent,
		Mask:       -1,
		Logical:    NewIntegerLogical(),
		Physical:   NewPhysical(),
	}
}

// Set returns the parameter set the parameter belongs to, or nil.
func (p *Parameter) Set() *ParameterSet { return p.set }

// CheckCondition evaluates CondOp against ConstValue. A parameter without
// an operator never matches.
func (p *Parameter) CheckCondition(value int64) bool {
	ok, valid := p.CondOp.Eval(value, p.ConstValue)
	if !valid {
		p.rep.Parameter(log.LevelWarning, p.ID, nil, "no condition operator")
	}
	return ok
}

// bind attaches the runtime collaborators.
func (p *Parameter) bind(codec rpc.Codec, rep log.Reporter) {
	p.codec = codec
	p.rep = rep.WithLayer(log.LayerConversion)
}

// clone copies p for use in another parameter set.
func (p *Parameter) clone() *Parameter {
	c := *p
	c.Logical = cloneLogical(p.Logical)
	c.Physical = p.Physical.clone()
	c.Conversions = append([]Conversion(nil), p.Conversions...)
	c.Description = append([]DescriptionField(nil), p.Description...)
	return &c
}

// parseParameter reads a <parameter> element. requireID reports parameters
// without an id; frame fields and type rules may omit it.
func (p *parser) parseParameter(n *markup.Node, requireID bool) *Parameter {
	const component = "parameter"
	param := NewParameter("")
	var constValue string
	var hasConstValue bool
	var omitIf string
	var hasOmitIf bool

	for _, a := range n.Attrs {
		v := a.Value
		switch a.Name {
		case "id":
			param.ID = v
		case "index":
			param.Index = p.float(component, a.Name, v)
		case "size":
			param.Size = p.float(component, a.Name, v)
		case "index2":
			param.Index2 = p.float(component, a.Name, v)
		case "size2":
			param.Size2 = p.float(component, a.Name, v)
		case "index2_offset":
			param.Index2Offset = p.int(component, a.Name, v)
		case "signed":
			param.Signed = v == "true"
		case "cond_op":
			op, ok := parseCondOp(v)
			if !ok {
				p.rep.Warningf(component, "unknown cond_op %q", v)
			}
			param.CondOp = op
		case "const_value":
			constValue, hasConstValue = v, true
		case "const_value_string":
			param.ConstValueString = v
		case "param":
			param.Param = v
		case "PARAM":
			param.AdditionalParameter = v
		case "control":
			param.Control = v
		case "loopback":
			param.Loopback = v == "true"
		case "hidden":
			param.Hidden = v == "true"
		case "burst_suppression":
			if v != "0" {
				p.rep.Warningf(component, "unsupported burst_suppression %q", v)
			}
		case "type":
			t, ok := parsePhysicalType(v)
			if !ok {
				p.rep.Warningf(component, "unknown type %q", v)
			}
			param.FieldType = t
		case "omit_if":
			omitIf, hasOmitIf = v, true
		case "operations":
			param.Operations = 0
			for _, op := range splitList(v) {
				switch op {
				case "read":
					param.Operations |= OpRead
				case "write":
					param.Operations |= OpWrite
				case "event":
					param.Operations |= OpEvent
				case "addon_write":
					param.Operations |= OpAddonWrite
				}
			}
		case "ui_flags":
			param.UIFlags = 0
			for _, flag := range splitList(v) {
				found := false
				for _, n := range uiFlagNames[:6] {
					if n.name == flag {
						param.UIFlags |= n.flag
						found = true
					}
				}
				if !found {
					p.rep.Warningf(component, "unknown ui flag %q", flag)
				}
			}
		case "mask":
			param.Mask = p.int(component, a.Name, v)
		case "field":
			param.Field = v
		case "subfield":
			param.Subfield = v
		case "default", "has_write_dependencies":
		default:
			p.unknownAttr(component, a.Name)
		}
	}

	if hasConstValue {
		if param.FieldType == PhysicalString {
			param.ConstValueString = constValue
		} else {
			param.ConstValue = p.int(component, "const_value", constValue)
		}
	}
	if hasOmitIf {
		if param.FieldType == PhysicalInteger {
			param.OmitIf, param.OmitIfSet = p.int(component, "omit_if", omitIf), true
		} else {
			p.rep.Warningf(component, "omit_if is only supported for integer fields")
		}
	}
	if requireID && param.ID == "" {
		p.rep.Errorf(component, "parameter without id at index %v", param.Index)
	}

	// Conversions may depend on the logical, so they are built after all
	// other children regardless of document order.
	var conversions []*markup.Node
	for _, c := range n.Children {
		switch c.Name {
		case "logical":
			if l := p.parseLogical(c); l != nil {
				param.Logical = l
			}
		case "physical":
			param.Physical = p.parsePhysical(c)
			for _, e := range param.Physical.EventFrames {
				if e.DominoEvent {
					param.HasDominoEvents = true
				}
			}
		case "conversion":
			conversions = append(conversions, c)
		case "description":
			param.Description = append(param.Description, p.parseDescription(c)...)
		case "write_dependencies":
		default:
			p.unknownNode(component, c.Name)
		}
	}
	for _, c := range conversions {
		if conv := p.parseConversion(c, param.Logical); conv != nil {
			param.Conversions = append(param.Conversions, conv)
		}
	}

	switch l := param.Logical.(type) {
	case *FloatLogical:
		if l.Min < 0 && l.Min != NewFloatLogical().Min {
			param.Signed = true
		}
	case *IntegerLogical:
		if l.Min < 0 && l.Min != NewIntegerLogical().Min {
			param.Signed = true
		}
	}
	return param
}

func (p *parser) parseDescription(n *markup.Node) []DescriptionField {
	var fields []DescriptionField
	for _, c := range n.Children {
		if c.Name != "field" {
			p.unknownNode("description", c.Name)
			continue
		}
		f := DescriptionField{}
		for _, a := range c.Attrs {
			switch a.Name {
			case "id":
				f.ID = a.Value
			case "value":
				f.Value = a.Value
			default:
				p.unknownAttr("field", a.Name)
			}
		}
		fields = append(fields, f)
	}
	return fields
}
