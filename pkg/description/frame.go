package description

import (
	"github.com/devdesc/devdesc-go/pkg/markup"
)

// FrameDirection tells whether a frame is sent by or to the device.
type FrameDirection uint8

const (
	FrameDirectionNone FrameDirection = iota
	FromDevice
	ToDevice
)

// String returns the schema name of the direction.
func (d FrameDirection) String() string {
	switch d {
	case FromDevice:
		return "from_device"
	case ToDevice:
		return "to_device"
	default:
		return "none"
	}
}

// Receivers is the set of peers a frame may be addressed to.
type Receivers uint8

const (
	ReceiverBroadcast Receivers = 1 << iota
	ReceiverCentral
	ReceiverOther
)

// Has reports whether all bits of r2 are set.
func (r Receivers) Has(r2 Receivers) bool { return r&r2 == r2 }

// FixedChannelAny is the FixedChannel value of frames valid for every
// channel ("*").
const FixedChannelAny = -2

// Frame is a packet layout. Parameters describe the fields, AssociatedValues
// lists the channel parameters carried by the frame once the description is
// loaded.
type Frame struct {
	ID               string
	Direction        FrameDirection
	AllowedReceivers Receivers
	IsEvent          bool

	// Type is the message type. "#X" in the document means the character
	// code of X.
	Type             int64
	Subtype          int64
	SubtypeIndex     int64
	SubtypeFieldSize float64
	ResponseType     int64
	ResponseSubtype  int64
	ChannelField     int64
	ChannelFieldSize float64
	FixedChannel     int64

	Size        int64
	DoubleSend  bool
	MaxPackets  int64
	SplitAfter  int64
	Function1   string
	Function2   string
	MetaString1 string
	MetaString2 string

	// ChannelIndexOffset is copied from the channel of an event parameter.
	ChannelIndexOffset int64

	Parameters       []*Parameter
	AssociatedValues []*Parameter
}

func newFrame() *Frame {
	return &Frame{
		Subtype:          -1,
		SubtypeIndex:     -1,
		SubtypeFieldSize: 1,
		ResponseType:     -1,
		ResponseSubtype:  -1,
		ChannelField:     -1,
		ChannelFieldSize: 1,
		FixedChannel:     -1,
		MaxPackets:       1,
	}
}

// Field returns the frame field that carries the parameter id, matching
// either its param or its PARAM alias.
func (f *Frame) Field(id string) *Parameter {
	for _, p := range f.Parameters {
		if p.Param == id || p.AdditionalParameter == id {
			return p
		}
	}
	return nil
}

func (p *parser) parseFrame(n *markup.Node) *Frame {
	const component = "frame"
	f := newFrame()
	receiverChannelField := false
	for _, a := range n.Attrs {
		v := a.Value
		switch a.Name {
		case "direction":
			switch v {
			case "from_device":
				f.Direction = FromDevice
			case "to_device":
				f.Direction = ToDevice
			default:
				p.rep.Warningf(component, "unknown direction %q", v)
			}
		case "allowed_receivers":
			for _, r := range splitList(v) {
				switch r {
				case "broadcast":
					f.AllowedReceivers |= ReceiverBroadcast
				case "central":
					f.AllowedReceivers |= ReceiverCentral
				case "other":
					f.AllowedReceivers |= ReceiverOther
				}
			}
		case "id":
			f.ID = v
		case "event":
			f.IsEvent = v == "true"
		case "type":
			if len(v) == 2 && v[0] == '#' {
				f.Type = int64(v[1])
			} else {
				f.Type = p.int(component, a.Name, v)
			}
		case "subtype":
			f.Subtype = p.int(component, a.Name, v)
		case "subtype_index":
			index, size := splitLast(v, ':')
			f.SubtypeIndex = p.int(component, a.Name, index)
			if size != "" {
				f.SubtypeFieldSize = p.float(component, a.Name, size)
			}
		case "response_type":
			f.ResponseType = p.int(component, a.Name, v)
		case "response_subtype":
			f.ResponseSubtype = p.int(component, a.Name, v)
		case "channel_field":
			// receiver_channel_field wins when both are present.
			if receiverChannelField {
				continue
			}
			p.channelField(f, v)
		case "receiver_channel_field":
			receiverChannelField = true
			p.channelField(f, v)
		case "fixed_channel":
			if v == "*" {
				f.FixedChannel = FixedChannelAny
			} else {
				f.FixedChannel = p.int(component, a.Name, v)
			}
		case "size":
			f.Size = p.int(component, a.Name, v)
		case "double_send":
			f.DoubleSend = v == "true"
		case "max_packets":
			f.MaxPackets = p.int(component, a.Name, v)
		case "split_after":
			f.SplitAfter = p.int(component, a.Name, v)
		case "function1":
			f.Function1 = v
		case "function2":
			f.Function2 = v
		case "metastring1":
			f.MetaString1 = v
		case "metastring2":
			f.MetaString2 = v
		default:
			p.unknownAttr(component, a.Name)
		}
	}
	for _, c := range n.Children {
		if c.Name != "parameter" {
			p.unknownNode(component, c.Name)
			continue
		}
		f.Parameters = append(f.Parameters, p.parseParameter(c, false))
	}
	return f
}

func (p *parser) channelField(f *Frame, v string) {
	index, size := splitLast(v, ':')
	f.ChannelField = p.int("frame", "channel_field", index)
	if size != "" {
		f.ChannelFieldSize = p.float("frame", "channel_field", size)
	}
}
