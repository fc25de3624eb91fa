package description

import (
	"math"

	"github.com/devdesc/devdesc-go/pkg/markup"
	"github.com/devdesc/devdesc-go/pkg/variant"
)

// Direction is the link direction of a channel.
type Direction uint8

const (
	DirectionSender Direction = 1 << iota
	DirectionReceiver
)

// String returns sender, receiver, both or none.
func (d Direction) String() string {
	switch d {
	case DirectionSender:
		return "sender"
	case DirectionReceiver:
		return "receiver"
	case DirectionSender | DirectionReceiver:
		return "sender,receiver"
	default:
		return "none"
	}
}

// LinkRole lists the link role names a channel can take.
type LinkRole struct {
	Targets []string
	Sources []string
}

// EnforceLink pins a link parameter to a value whenever a link is created.
type EnforceLink struct {
	ID    string
	Value string
}

// Variant parses the pinned literal as the variant type of kind.
func (e *EnforceLink) Variant(kind LogicalKind) variant.Variant {
	switch kind {
	case LogicalEnum, LogicalInteger:
		return variant.FromString(variant.KindInteger, e.Value)
	case LogicalAction, LogicalBoolean:
		return variant.FromString(variant.KindBoolean, e.Value)
	case LogicalFloat:
		return variant.FromString(variant.KindFloat, e.Value)
	default:
		return variant.String(e.Value)
	}
}

// Channel describes Count consecutive channels starting at Index.
type Channel struct {
	Index               int64
	PhysicalIndexOffset int64
	UIFlags             UIFlags
	Direction           Direction
	Class               string
	Type                string
	Hidden              bool
	Autoregister        bool
	Count               int64
	HasTeam             bool
	AESDefault          bool
	AESAlways           bool
	AESCBC              bool
	TeamTag             string
	Paired              bool
	Function            string
	PairFunction1       string
	PairFunction2       string

	// CountFromSysinfo is the pairing info byte holding the real channel
	// count, or -1.
	CountFromSysinfo     float64
	CountFromSysinfoSize float64
	CountFromVariable    string

	ParameterSets    map[ParamsetType]*ParameterSet
	LinkRoles        *LinkRole
	EnforceLinks     []EnforceLink
	Subconfigs       []*Channel
	SpecialParameter *Parameter
}

// Master returns the master parameter set. Every loaded channel has one.
func (c *Channel) Master() *ParameterSet { return c.ParameterSets[ParamsetMaster] }

// Values returns the values parameter set, or nil.
func (c *Channel) Values() *ParameterSet { return c.ParameterSets[ParamsetValues] }

// Link returns the link parameter set, or nil.
func (c *Channel) Link() *ParameterSet { return c.ParameterSets[ParamsetLink] }

// sets calls fn for c's parameter sets and those of its subconfigs.
func (c *Channel) sets(fn func(*ParameterSet)) {
	for _, s := range c.ParameterSets {
		fn(s)
	}
	for _, sub := range c.Subconfigs {
		sub.sets(fn)
	}
}

func (p *parser) parseChannel(n *markup.Node) *Channel {
	const component = "channel"
	ch := &Channel{
		UIFlags:          UIVisible,
		Count:            1,
		CountFromSysinfo: -1,
		ParameterSets:    map[ParamsetType]*ParameterSet{},
	}
	for _, a := range n.Attrs {
		v := a.Value
		switch a.Name {
		case "index":
			ch.Index = p.int(component, a.Name, v)
		case "physical_index_offset":
			ch.PhysicalIndexOffset = p.int(component, a.Name, v)
		case "ui_flags":
			switch v {
			case "visible":
				ch.UIFlags |= UIVisible
			case "internal":
				ch.UIFlags |= UIInternal
			case "dontdelete":
				ch.UIFlags |= UIDontDelete
			default:
				p.rep.Warningf(component, "unknown ui flag %q", v)
			}
		case "direction":
			switch v {
			case "sender":
				ch.Direction |= DirectionSender
			case "receiver":
				ch.Direction |= DirectionReceiver
			default:
				p.rep.Warningf(component, "unknown direction %q", v)
			}
		case "class":
			ch.Class = v
		case "type":
			ch.Type = v
		case "hidden":
			ch.Hidden = v == "true"
		case "autoregister":
			ch.Autoregister = v == "true"
		case "count":
			ch.Count = p.int(component, a.Name, v)
		case "has_team":
			ch.HasTeam = v == "true"
		case "aes_default":
			ch.AESDefault = v == "true"
		case "aes_always":
			if v == "true" {
				ch.AESDefault, ch.AESAlways = true, true
			}
		case "aes_cbc":
			ch.AESCBC = v == "true"
		case "team_tag":
			ch.TeamTag = v
		case "paired":
			ch.Paired = v == "true"
		case "function":
			ch.Function = v
		case "pair_function":
			if len(v) != 2 {
				p.rep.Warningf(component, "pair_function %q does not name two functions", v)
				continue
			}
			ch.PairFunction1, ch.PairFunction2 = v[:1], v[1:]
		case "count_from_sysinfo":
			index, size := splitLast(v, ':')
			if index != "" {
				ch.CountFromSysinfo = p.float(component, a.Name, index)
				if ch.CountFromSysinfo < 9 {
					p.rep.Errorf(component, "count_from_sysinfo index must be at least 9, have %v", ch.CountFromSysinfo)
					ch.CountFromSysinfo = -1
				}
			}
			if size != "" {
				ch.CountFromSysinfoSize = p.float(component, a.Name, size)
				if ch.CountFromSysinfoSize > 1 {
					p.rep.Errorf(component, "count_from_sysinfo size must be at most 1, have %v", ch.CountFromSysinfoSize)
					ch.CountFromSysinfoSize = 1
				}
			}
		case "count_from_variable":
			ch.CountFromVariable = v
		default:
			p.unknownAttr(component, a.Name)
		}
	}

	for _, c := range n.Children {
		switch c.Name {
		case "parameters", "paramset":
			s := p.parseParameterSet(c)
			if _, dup := ch.ParameterSets[s.Type]; dup {
				p.rep.Errorf(component, "channel %d declares parameter set type %s twice", ch.Index, s.Type)
				continue
			}
			ch.ParameterSets[s.Type] = s
		case "link_roles":
			if ch.LinkRoles != nil {
				p.rep.Warningf(component, "channel %d declares link roles twice", ch.Index)
			}
			ch.LinkRoles = p.parseLinkRoles(c)
		case "enforce_link":
			for _, v := range c.ChildrenNamed("value") {
				ch.EnforceLinks = append(ch.EnforceLinks, p.parseEnforceLink(v))
			}
		case "special_parameter":
			ch.SpecialParameter = p.parseParameter(c, true)
		case "subconfig":
			ch.Subconfigs = append(ch.Subconfigs, p.parseChannel(c))
		default:
			p.unknownNode(component, c.Name)
		}
	}

	if ch.SpecialParameter != nil {
		ch.applySpecial(ch.SpecialParameter)
	}
	if ch.ParameterSets[ParamsetMaster] == nil {
		ch.ParameterSets[ParamsetMaster] = NewParameterSet(ParamsetMaster)
	}
	return ch
}

// applySpecial copies the physical and conversions of special onto the
// master parameter of the same id, here and in every subconfig. The
// target keeps its value id.
func (c *Channel) applySpecial(special *Parameter) {
	if master := c.ParameterSets[ParamsetMaster]; master != nil {
		if target := master.GetParameter(special.ID); target != nil {
			valueID := target.Physical.ValueID
			target.Physical = special.Physical.clone()
			target.Physical.ValueID = valueID
			if len(special.Conversions) > 0 {
				target.Conversions = append([]Conversion(nil), special.Conversions...)
			}
		}
	}
	for _, sub := range c.Subconfigs {
		sub.applySpecial(special)
	}
}

// sysinfoIndexIntegral reports whether the sysinfo byte index is whole.
func (c *Channel) sysinfoIndexIntegral() bool {
	return c.CountFromSysinfo == math.Floor(c.CountFromSysinfo)
}

func (p *parser) parseLinkRoles(n *markup.Node) *LinkRole {
	const component = "link_roles"
	for _, a := range n.Attrs {
		p.unknownAttr(component, a.Name)
	}
	r := &LinkRole{}
	for _, c := range n.Children {
		switch c.Name {
		case "target":
			if name, ok := c.Attr("name"); ok {
				r.Targets = append(r.Targets, name)
			}
		case "source":
			if name, ok := c.Attr("name"); ok {
				r.Sources = append(r.Sources, name)
			}
		default:
			p.unknownNode(component, c.Name)
		}
	}
	return r
}

func (p *parser) parseEnforceLink(n *markup.Node) EnforceLink {
	const component = "enforce_link"
	e := EnforceLink{}
	for _, a := range n.Attrs {
		switch a.Name {
		case "id":
			e.ID = a.Value
		case "value":
			e.Value = a.Value
		default:
			p.unknownAttr(component, a.Name)
		}
	}
	for _, c := range n.Children {
		p.unknownNode(component, c.Name)
	}
	return e
}
