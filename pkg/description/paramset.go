package description

import (
	"strings"

	"github.com/devdesc/devdesc-go/pkg/markup"
	"github.com/devdesc/devdesc-go/pkg/variant"
)

// ParamsetType is the role of a parameter set within a channel.
type ParamsetType uint8

const (
	ParamsetNone ParamsetType = iota
	ParamsetMaster
	ParamsetValues
	ParamsetLink
)

// String returns the upper case name used by device families.
func (t ParamsetType) String() string {
	switch t {
	case ParamsetMaster:
		return "MASTER"
	case ParamsetValues:
		return "VALUES"
	case ParamsetLink:
		return "LINK"
	default:
		return ""
	}
}

// ParseParamsetType accepts master/config, values/variables and link.
func ParseParamsetType(s string) ParamsetType {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "master", "config":
		return ParamsetMaster
	case "values", "variables":
		return ParamsetValues
	case "link":
		return ParamsetLink
	default:
		return ParamsetNone
	}
}

// LinkDefault is one id/value pair of a default_values group.
type LinkDefault struct {
	ID    string
	Value string
}

// ParameterSet is a typed group of parameters, addressable as a list page.
type ParameterSet struct {
	ID   string
	Type ParamsetType

	AddressStart      int64
	AddressStep       int64
	Count             int64
	ChannelOffset     int64
	PeerAddressOffset int64
	PeerChannelOffset int64
	PeerParam         string
	ChannelParam      string

	// SubsetReference names a paramset_defs template merged in after load.
	SubsetReference string

	// DefaultValues maps a link function to its default values.
	DefaultValues map[string][]LinkDefault

	// Lists holds every list number a parameter uses, except DefaultList.
	Lists map[int64]bool

	Parameters []*Parameter
}

// NewParameterSet returns an empty set of the given type.
func NewParameterSet(typ ParamsetType) *ParameterSet {
	return &ParameterSet{
		Type:          typ,
		DefaultValues: map[string][]LinkDefault{},
		Lists:         map[int64]bool{},
	}
}

// TypeString returns MASTER, VALUES, LINK or "".
func (s *ParameterSet) TypeString() string { return s.Type.String() }

// GetParameter returns the parameter with the given id, or nil.
func (s *ParameterSet) GetParameter(id string) *Parameter {
	for _, p := range s.Parameters {
		if p.ID == id {
			return p
		}
	}
	return nil
}

// GetIndex returns the first parameter whose physical index is exactly
// index, or nil.
func (s *ParameterSet) GetIndex(index float64) *Parameter {
	for _, p := range s.Parameters {
		if p.Physical.Index == index {
			return p
		}
	}
	return nil
}

// GetList returns the parameters stored on list page list.
func (s *ParameterSet) GetList(list int) []*Parameter {
	if list < 0 {
		return nil
	}
	var out []*Parameter
	for _, p := range s.Parameters {
		if p.Physical.List == int64(list) {
			out = append(out, p)
		}
	}
	return out
}

// GetIndices returns the parameters on list that overlap the byte range
// [start, end].
func (s *ParameterSet) GetIndices(start, end uint32, list int) []*Parameter {
	if list < 0 {
		return nil
	}
	var out []*Parameter
	for _, p := range s.Parameters {
		ph := p.Physical
		if ph.List != int64(list) {
			continue
		}
		if ph.EndIndex() >= start && ph.StartIndex() <= end {
			out = append(out, p)
		}
	}
	return out
}

// add appends p and points it back at s.
func (s *ParameterSet) add(p *Parameter) {
	p.set = s
	s.Parameters = append(s.Parameters, p)
	if p.Physical.List < DefaultList {
		s.Lists[p.Physical.List] = true
	}
}

// clone deep-copies s, re-pointing the copied parameters at the copy.
func (s *ParameterSet) clone() *ParameterSet {
	c := *s
	c.Parameters = nil
	c.Lists = map[int64]bool{}
	c.DefaultValues = make(map[string][]LinkDefault, len(s.DefaultValues))
	for fn, values := range s.DefaultValues {
		c.DefaultValues[fn] = append([]LinkDefault(nil), values...)
	}
	for _, p := range s.Parameters {
		c.add(p.clone())
	}
	return &c
}

type enforcement struct {
	id, value string
}

// parseParameterSet reads a <paramset> element.
func (p *parser) parseParameterSet(n *markup.Node) *ParameterSet {
	const component = "paramset"
	s := NewParameterSet(ParamsetNone)
	for _, a := range n.Attrs {
		v := a.Value
		switch a.Name {
		case "id":
			s.ID = v
		case "type":
			s.Type = ParseParamsetType(v)
			if s.Type == ParamsetNone {
				p.rep.Warningf(component, "unknown parameter set type %q", v)
			}
		case "address_start":
			s.AddressStart = p.int(component, a.Name, v)
		case "address_step":
			s.AddressStep = p.int(component, a.Name, v)
		case "count":
			s.Count = p.int(component, a.Name, v)
		case "channel_offset":
			s.ChannelOffset = p.int(component, a.Name, v)
		case "peer_address_offset":
			s.PeerAddressOffset = p.int(component, a.Name, v)
		case "peer_channel_offset":
			s.PeerChannelOffset = p.int(component, a.Name, v)
		case "peer_param":
			s.PeerParam = v
		case "channel_param":
			s.ChannelParam = v
		case "link":
		default:
			p.unknownAttr(component, a.Name)
		}
	}

	var pins []enforcement
	for _, c := range n.Children {
		switch c.Name {
		case "parameter":
			if id, ok := c.Attr("id"); ok && (s.PeerParam != "" || s.ChannelParam != "") {
				if id == s.PeerParam {
					p.splicePeerParam(s, c)
					continue
				}
				if id == s.ChannelParam {
					p.spliceChannelParam(s, c)
					continue
				}
			}
			s.add(p.parseParameter(c, true))
		case "enforce":
			id, okID := c.Attr("id")
			value, okValue := c.Attr("value")
			if !okID || !okValue {
				p.rep.Warningf(component, "enforce without id or value")
				continue
			}
			pins = append(pins, enforcement{id, value})
		case "subset":
			ref, ok := c.Attr("ref")
			if !ok {
				p.rep.Warningf(component, "subset without ref")
				continue
			}
			s.SubsetReference = ref
		case "default_values":
			p.parseDefaultValues(s, c)
		default:
			p.unknownNode(component, c.Name)
		}
	}

	for _, pin := range pins {
		if pin.id == "" || pin.value == "" {
			continue
		}
		param := s.GetParameter(pin.id)
		if param == nil {
			continue
		}
		if !enforce(param.Logical, pin.value) {
			p.rep.Warningf(component, "enforce value %q of %q does not parse", pin.value, pin.id)
		}
	}
	return s
}

func (p *parser) parseDefaultValues(s *ParameterSet, n *markup.Node) {
	const component = "default_values"
	fn, ok := n.Attr("function")
	if !ok {
		p.rep.Warningf(component, "default_values without function")
		return
	}
	if fn == "" {
		return
	}
	for _, c := range n.Children {
		if c.Name != "value" {
			p.unknownNode(component, c.Name)
			continue
		}
		id, okID := c.Attr("id")
		value, okValue := c.Attr("value")
		if !okID || !okValue {
			p.rep.Warningf(component, "value without id or value")
			continue
		}
		s.DefaultValues[fn] = append(s.DefaultValues[fn], LinkDefault{ID: id, Value: value})
	}
}

// arrayPhysical checks one element of a legacy array physical and returns
// the index of its address, or "" after reporting what is wrong.
func (p *parser) arrayPhysical(n *markup.Node, size float64) string {
	const component = "paramset"
	typ, okType := n.Attr("type")
	sz, okSize := n.Attr("size")
	if !okType || !okSize {
		p.rep.Warningf(component, "size or type missing on linked parameter")
		return ""
	}
	if typ != "integer" || variant.Double(sz) != size {
		p.rep.Warningf(component, "size or type of linked parameter must be integer/%v", size)
		return ""
	}
	address := n.Child("address")
	if address == nil {
		p.rep.Warningf(component, "address missing on linked parameter")
		return ""
	}
	index, ok := address.Attr("index")
	if !ok {
		p.rep.Warningf(component, "address index missing on linked parameter")
		return ""
	}
	return index
}

// splicePeerParam turns the peer address parameter of a link set into the
// peer address and peer channel offsets.
func (p *parser) splicePeerParam(s *ParameterSet, n *markup.Node) {
	const component = "paramset"
	outer := n.Child("physical")
	if outer == nil {
		p.rep.Warningf(component, "physical missing on peer_param")
		return
	}
	elements := outer.ChildrenNamed("physical")
	if len(elements) == 0 {
		p.rep.Warningf(component, "array physical missing on peer_param")
		return
	}
	switch index := p.arrayPhysical(elements[0], 4); index {
	case "":
	case "+1":
		s.PeerAddressOffset = 1
	case "+0":
		s.PeerAddressOffset = 0
	default:
		p.rep.Warningf(component, "unknown peer address index %q", index)
	}
	if len(elements) < 2 {
		p.rep.Warningf(component, "second array physical missing on peer_param")
		return
	}
	switch index := p.arrayPhysical(elements[1], 1); index {
	case "":
	case "+5":
		s.PeerChannelOffset, s.PeerParam = 5, ""
	case "+4":
		s.PeerChannelOffset, s.PeerParam = 4, ""
	default:
		p.rep.Warningf(component, "unknown peer channel index %q", index)
	}
}

// spliceChannelParam turns the channel parameter of a link set into the
// channel offset.
func (p *parser) spliceChannelParam(s *ParameterSet, n *markup.Node) {
	ph := n.Child("physical")
	if ph == nil {
		p.rep.Warningf("paramset", "physical missing on channel_param")
		return
	}
	switch index := p.arrayPhysical(ph, 1); index {
	case "":
	case "+0":
		s.ChannelOffset, s.ChannelParam = 0, ""
	case "+5":
		s.ChannelOffset, s.ChannelParam = 5, ""
	default:
		p.rep.Warningf("paramset", "unknown channel index %q", index)
	}
}
