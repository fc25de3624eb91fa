package description

import (
	"math"
	"strings"

	"github.com/devdesc/devdesc-go/pkg/markup"
	"github.com/devdesc/devdesc-go/pkg/variant"
)

// LogicalKind is the semantic type of a parameter value.
type LogicalKind uint8

const (
	LogicalNone LogicalKind = iota
	LogicalInteger
	LogicalFloat
	LogicalBoolean
	LogicalString
	LogicalEnum
	LogicalAction
)

// String returns the schema name of the kind.
func (k LogicalKind) String() string {
	switch k {
	case LogicalInteger:
		return "integer"
	case LogicalFloat:
		return "float"
	case LogicalBoolean:
		return "boolean"
	case LogicalString:
		return "string"
	case LogicalEnum:
		return "option"
	case LogicalAction:
		return "action"
	default:
		return "none"
	}
}

// VariantKind returns the variant kind values of k are carried in.
func (k LogicalKind) VariantKind() variant.Kind {
	switch k {
	case LogicalInteger, LogicalEnum:
		return variant.KindInteger
	case LogicalFloat:
		return variant.KindFloat
	case LogicalBoolean, LogicalAction:
		return variant.KindBoolean
	default:
		return variant.KindString
	}
}

// Logical describes the semantic type and domain of a parameter value.
// The concrete types are IntegerLogical, FloatLogical, BooleanLogical,
// StringLogical, EnumLogical, ActionLogical and NoneLogical.
type Logical interface {
	Kind() LogicalKind

	// FromString parses a literal into the value type of the kind. ok is
	// false when the literal did not parse cleanly; v is then the zero value.
	FromString(literal string) (v variant.Variant, ok bool)

	// String renders v as a literal FromString accepts.
	String(v variant.Variant) string

	isLogical()
}

// SpecialValue is a named value exempt from range clamping.
type SpecialValue struct {
	ID    string
	Value float64
}

// IntegerLogical is a bounded integer.
type IntegerLogical struct {
	Min, Max       int64
	Default        int64
	DefaultDefined bool
	SpecialValues  []SpecialValue
	Unit           string
	Enforce        bool
	EnforceValue   int64
}

// NewIntegerLogical returns an integer spanning the int32 range.
func NewIntegerLogical() *IntegerLogical {
	return &IntegerLogical{Min: math.MinInt32, Max: math.MaxInt32}
}

func (*IntegerLogical) Kind() LogicalKind { return LogicalInteger }
func (*IntegerLogical) isLogical()        {}

func (*IntegerLogical) FromString(literal string) (variant.Variant, bool) {
	return variant.FromStringChecked(variant.KindInteger, literal)
}

func (*IntegerLogical) String(v variant.Variant) string {
	return variant.Int(v.AsInt()).AsString()
}

// special reports whether i is the configured default or a special value.
func (l *IntegerLogical) special(i int64) bool {
	if l.DefaultDefined && i == l.Default {
		return true
	}
	for _, s := range l.SpecialValues {
		if s.Value == float64(i) {
			return true
		}
	}
	return false
}

// FloatLogical is a bounded float.
type FloatLogical struct {
	Min, Max       float64
	Default        float64
	DefaultDefined bool
	SpecialValues  []SpecialValue
	Unit           string
	Enforce        bool
	EnforceValue   float64
}

// NewFloatLogical returns an unbounded float.
func NewFloatLogical() *FloatLogical {
	return &FloatLogical{Min: -math.MaxFloat64, Max: math.MaxFloat64}
}

func (*FloatLogical) Kind() LogicalKind { return LogicalFloat }
func (*FloatLogical) isLogical()        {}

func (*FloatLogical) FromString(literal string) (variant.Variant, bool) {
	return variant.FromStringChecked(variant.KindFloat, literal)
}

func (*FloatLogical) String(v variant.Variant) string {
	return variant.Float(v.AsFloat()).AsString()
}

func (l *FloatLogical) special(f float64) bool {
	if l.DefaultDefined && f == l.Default {
		return true
	}
	for _, s := range l.SpecialValues {
		if s.Value == f {
			return true
		}
	}
	return false
}

// BooleanLogical is a true/false value.
type BooleanLogical struct {
	Default        bool
	DefaultDefined bool
	Unit           string
	Enforce        bool
	EnforceValue   bool
}

func (*BooleanLogical) Kind() LogicalKind { return LogicalBoolean }
func (*BooleanLogical) isLogical()        {}

func (*BooleanLogical) FromString(literal string) (variant.Variant, bool) {
	return variant.Bool(strings.EqualFold(strings.TrimSpace(literal), "true")), true
}

func (*BooleanLogical) String(v variant.Variant) string {
	return variant.Bool(v.AsBool()).AsString()
}

// StringLogical is free text.
type StringLogical struct {
	Default        string
	DefaultDefined bool
	Unit           string
	Enforce        bool
	EnforceValue   string
}

func (*StringLogical) Kind() LogicalKind { return LogicalString }
func (*StringLogical) isLogical()        {}

func (*StringLogical) FromString(literal string) (variant.Variant, bool) {
	return variant.String(literal), true
}

func (*StringLogical) String(v variant.Variant) string { return v.AsString() }

// EnumOption is one enum member. Index is the value on the wire, ID the
// symbolic name.
type EnumOption struct {
	ID      string
	Index   int64
	Default bool
}

// EnumLogical is a list of named options.
type EnumLogical struct {
	Min, Max       int64
	Default        int64
	DefaultDefined bool
	Options        []EnumOption
	Unit           string
	Enforce        bool
	EnforceValue   int64
}

func (*EnumLogical) Kind() LogicalKind { return LogicalEnum }
func (*EnumLogical) isLogical()        {}

// FromString accepts a numeric index or an option id. An unknown id yields
// index 0 and ok == false.
func (l *EnumLogical) FromString(literal string) (variant.Variant, bool) {
	literal = strings.TrimSpace(literal)
	if variant.IsNumber(literal) {
		return variant.Int(variant.Number(literal)), true
	}
	if o, ok := l.Option(literal); ok {
		return variant.Int(o.Index), true
	}
	return variant.Int(0), false
}

// String returns the option id for the index in v, or the bare index when
// no option carries it.
func (l *EnumLogical) String(v variant.Variant) string {
	i := v.AsInt()
	if o, ok := l.OptionAt(i); ok {
		return o.ID
	}
	return variant.Int(i).AsString()
}

// Option looks up an option by id.
func (l *EnumLogical) Option(id string) (EnumOption, bool) {
	for _, o := range l.Options {
		if o.ID == id {
			return o, true
		}
	}
	return EnumOption{}, false
}

// OptionAt looks up an option by wire index.
func (l *EnumLogical) OptionAt(index int64) (EnumOption, bool) {
	for _, o := range l.Options {
		if o.Index == index {
			return o, true
		}
	}
	return EnumOption{}, false
}

// ActionLogical is a write-only trigger. Decoded actions report whether the
// packet was an event.
type ActionLogical struct {
	Default        bool
	DefaultDefined bool
	Unit           string
	Enforce        bool
	EnforceValue   bool
}

func (*ActionLogical) Kind() LogicalKind { return LogicalAction }
func (*ActionLogical) isLogical()        {}

func (*ActionLogical) FromString(literal string) (variant.Variant, bool) {
	return variant.Bool(strings.EqualFold(strings.TrimSpace(literal), "true")), true
}

func (*ActionLogical) String(v variant.Variant) string {
	return variant.Bool(v.AsBool()).AsString()
}

// NoneLogical carries no value type. Literals pass through as strings.
type NoneLogical struct{}

func (NoneLogical) Kind() LogicalKind { return LogicalNone }
func (NoneLogical) isLogical()        {}

func (NoneLogical) FromString(literal string) (variant.Variant, bool) {
	return variant.String(literal), true
}

func (NoneLogical) String(v variant.Variant) string { return v.AsString() }

// Enforced returns the pinned value of l, if any.
func Enforced(l Logical) (variant.Variant, bool) {
	switch t := l.(type) {
	case *IntegerLogical:
		return variant.Int(t.EnforceValue), t.Enforce
	case *FloatLogical:
		return variant.Float(t.EnforceValue), t.Enforce
	case *BooleanLogical:
		return variant.Bool(t.EnforceValue), t.Enforce
	case *StringLogical:
		return variant.String(t.EnforceValue), t.Enforce
	case *EnumLogical:
		return variant.Int(t.EnforceValue), t.Enforce
	case *ActionLogical:
		return variant.Bool(t.EnforceValue), t.Enforce
	default:
		return variant.Void(), false
	}
}

// DefaultValue returns the declared default of l, if any.
func DefaultValue(l Logical) (variant.Variant, bool) {
	switch t := l.(type) {
	case *IntegerLogical:
		return variant.Int(t.Default), t.DefaultDefined
	case *FloatLogical:
		return variant.Float(t.Default), t.DefaultDefined
	case *BooleanLogical:
		return variant.Bool(t.Default), t.DefaultDefined
	case *StringLogical:
		return variant.String(t.Default), t.DefaultDefined
	case *EnumLogical:
		return variant.Int(t.Default), t.DefaultDefined
	case *ActionLogical:
		return variant.Bool(t.Default), t.DefaultDefined
	default:
		return variant.Void(), false
	}
}

// Unit returns the unit string of l.
func Unit(l Logical) string {
	switch t := l.(type) {
	case *IntegerLogical:
		return t.Unit
	case *FloatLogical:
		return t.Unit
	case *BooleanLogical:
		return t.Unit
	case *StringLogical:
		return t.Unit
	case *EnumLogical:
		return t.Unit
	case *ActionLogical:
		return t.Unit
	default:
		return ""
	}
}

// enforce pins l to the value in literal. Unparsable numbers pin 0.
func enforce(l Logical, literal string) (ok bool) {
	v, ok := l.FromString(literal)
	switch t := l.(type) {
	case *IntegerLogical:
		t.Enforce, t.EnforceValue = true, v.AsInt()
	case *FloatLogical:
		t.Enforce, t.EnforceValue = true, v.AsFloat()
	case *BooleanLogical:
		t.Enforce, t.EnforceValue = true, v.AsBool()
	case *StringLogical:
		t.Enforce, t.EnforceValue = true, literal
	case *EnumLogical:
		t.Enforce, t.EnforceValue = true, v.AsInt()
	case *ActionLogical:
		t.Enforce, t.EnforceValue = true, v.AsBool()
	}
	return ok
}

// cloneLogical copies l so the copy can be modified independently.
func cloneLogical(l Logical) Logical {
	switch t := l.(type) {
	case *IntegerLogical:
		c := *t
		c.SpecialValues = append([]SpecialValue(nil), t.SpecialValues...)
		return &c
	case *FloatLogical:
		c := *t
		c.SpecialValues = append([]SpecialValue(nil), t.SpecialValues...)
		return &c
	case *BooleanLogical:
		c := *t
		return &c
	case *StringLogical:
		c := *t
		return &c
	case *EnumLogical:
		c := *t
		c.Options = append([]EnumOption(nil), t.Options...)
		return &c
	case *ActionLogical:
		c := *t
		return &c
	default:
		return NoneLogical{}
	}
}

// parseLogical reads a <logical> element. An unknown type is reported and
// yields nil so the caller keeps its current logical.
func (p *parser) parseLogical(n *markup.Node) Logical {
	const component = "logical"
	typ := strings.ToLower(strings.TrimSpace(n.AttrOr("type", "")))
	var l Logical
	switch typ {
	case "integer", "int":
		l = NewIntegerLogical()
	case "float":
		l = NewFloatLogical()
	case "boolean":
		l = &BooleanLogical{}
	case "string", "address":
		l = &StringLogical{}
	case "option", "enum":
		l = &EnumLogical{}
	case "action":
		l = &ActionLogical{}
	default:
		p.rep.Warningf(component, "unknown logical type %q", typ)
		return nil
	}

	var defaultLiteral string
	var hasDefault bool
	for _, a := range n.Attrs {
		switch a.Name {
		case "type":
		case "min":
			switch t := l.(type) {
			case *IntegerLogical:
				t.Min = p.int(component, a.Name, a.Value)
			case *FloatLogical:
				t.Min = p.float(component, a.Name, a.Value)
			default:
				p.unknownAttr(component, a.Name)
			}
		case "max":
			switch t := l.(type) {
			case *IntegerLogical:
				t.Max = p.int(component, a.Name, a.Value)
			case *FloatLogical:
				t.Max = p.float(component, a.Name, a.Value)
			default:
				p.unknownAttr(component, a.Name)
			}
		case "default":
			defaultLiteral, hasDefault = a.Value, true
		case "unit":
			setUnit(l, a.Value)
		case "use_default_on_failure", "value_size":
		default:
			p.unknownAttr(component, a.Name)
		}
	}

	var nextIndex int64
	for _, c := range n.Children {
		switch c.Name {
		case "special_value":
			id := c.AttrOr("id", "")
			value := p.float(component, "value", c.AttrOr("value", ""))
			switch t := l.(type) {
			case *IntegerLogical:
				t.SpecialValues = append(t.SpecialValues, SpecialValue{ID: id, Value: math.Trunc(value)})
			case *FloatLogical:
				t.SpecialValues = append(t.SpecialValues, SpecialValue{ID: id, Value: value})
			default:
				p.rep.Warningf(component, "special_value is only valid for numeric types")
			}
		case "option":
			e, ok := l.(*EnumLogical)
			if !ok {
				p.rep.Warningf(component, "option is only valid for type option")
				continue
			}
			o := EnumOption{ID: c.AttrOr("id", ""), Index: nextIndex}
			for _, a := range c.Attrs {
				switch a.Name {
				case "id":
				case "index":
					o.Index = p.int("option", a.Name, a.Value)
				case "default":
					o.Default = a.Value == "true"
				default:
					p.unknownAttr("option", a.Name)
				}
			}
			if o.ID == "" {
				p.rep.Warningf("option", "option without id at index %d", o.Index)
			}
			nextIndex = o.Index + 1
			if o.Default {
				e.Default, e.DefaultDefined = o.Index, true
			}
			e.Options = append(e.Options, o)
		default:
			p.unknownNode(component, c.Name)
		}
	}

	if e, ok := l.(*EnumLogical); ok && len(e.Options) > 0 {
		e.Min, e.Max = e.Options[0].Index, e.Options[0].Index
		for _, o := range e.Options[1:] {
			e.Min = min(e.Min, o.Index)
			e.Max = max(e.Max, o.Index)
		}
	}
	// Enum defaults may name an option, so they are applied last.
	if hasDefault {
		p.parseLogicalDefault(l, defaultLiteral)
	}
	return l
}

func (p *parser) parseLogicalDefault(l Logical, literal string) {
	v, ok := l.FromString(literal)
	if !ok {
		p.rep.Warningf("logical", "invalid default %q for type %s", literal, l.Kind())
	}
	switch t := l.(type) {
	case *IntegerLogical:
		t.Default, t.DefaultDefined = v.AsInt(), true
	case *FloatLogical:
		t.Default, t.DefaultDefined = v.AsFloat(), true
	case *BooleanLogical:
		t.Default, t.DefaultDefined = v.AsBool(), true
	case *StringLogical:
		t.Default, t.DefaultDefined = literal, true
	case *EnumLogical:
		t.Default, t.DefaultDefined = v.AsInt(), true
	case *ActionLogical:
		t.Default, t.DefaultDefined = v.AsBool(), true
	}
}

func setUnit(l Logical, unit string) {
	switch t := l.(type) {
	case *IntegerLogical:
		t.Unit = unit
	case *FloatLogical:
		t.Unit = unit
	case *BooleanLogical:
		t.Unit = unit
	case *StringLogical:
		t.Unit = unit
	case *EnumLogical:
		t.Unit = unit
	case *ActionLogical:
		t.Unit = unit
	}
}
