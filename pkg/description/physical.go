package description

import (
	"math"
	"strings"

	"github.com/devdesc/devdesc-go/pkg/markup"
)

// PhysicalType is how a value is laid out in a packet.
type PhysicalType uint8

const (
	PhysicalNone PhysicalType = iota
	PhysicalInteger
	PhysicalBoolean
	PhysicalString
)

// String returns the schema name of the type.
func (t PhysicalType) String() string {
	switch t {
	case PhysicalInteger:
		return "integer"
	case PhysicalBoolean:
		return "boolean"
	case PhysicalString:
		return "string"
	default:
		return "none"
	}
}

func parsePhysicalType(s string) (PhysicalType, bool) {
	switch s {
	case "integer":
		return PhysicalInteger, true
	case "boolean":
		return PhysicalBoolean, true
	case "string":
		return PhysicalString, true
	default:
		return PhysicalNone, false
	}
}

// Endian is the byte order of a multi-byte value.
type Endian uint8

const (
	BigEndian Endian = iota
	LittleEndian
)

// String returns the schema name of the byte order.
func (e Endian) String() string {
	if e == LittleEndian {
		return "little"
	}
	return "big"
}

// Interface is where a physical value lives on the device.
type Interface uint8

const (
	InterfaceNone Interface = iota
	InterfaceCommand
	InterfaceCentralAddress
	InterfaceInternal
	InterfaceConfig
	InterfaceConfigString
	InterfaceStore
	InterfaceEEPROM
)

var interfaceNames = map[Interface]string{
	InterfaceNone:           "none",
	InterfaceCommand:        "command",
	InterfaceCentralAddress: "central_address",
	InterfaceInternal:       "internal",
	InterfaceConfig:         "config",
	InterfaceConfigString:   "config_string",
	InterfaceStore:          "store",
	InterfaceEEPROM:         "eeprom",
}

// String returns the schema name of the interface.
func (i Interface) String() string {
	if s, ok := interfaceNames[i]; ok {
		return s
	}
	return "unknown"
}

// EventFrame references a frame that reports the value.
type EventFrame struct {
	Frame             string
	AuthViolatePolicy string
	DominoEvent       bool
	DominoValue       int64
	DominoDelayID     string
}

// DefaultList is the list number of physicals that declare none.
const DefaultList = 9999

// Physical places a value inside a packet. Index and Size use the
// fractional byte.bit notation: 2.4 is byte 2, bit 4.
type Physical struct {
	ID        string
	Type      PhysicalType
	Interface Interface
	ValueID   string

	Index        float64
	Size         float64
	SizeDefined  bool
	Index2       float64
	Size2        float64
	Index2Offset int64
	List         int64
	Endian       Endian
	Mask         int64

	Counter  string
	Volatile bool
	NoInit   bool

	MemoryIndex       float64
	MemoryChannelStep float64

	GetRequest     string
	GetResponse    string
	SetRequest     string
	EventFrames    []EventFrame
	ResetAfterSend []string
}

// NewPhysical returns an integer physical of one byte on the default list.
func NewPhysical() *Physical {
	return &Physical{Type: PhysicalInteger, Size: 1, List: DefaultList, Mask: -1}
}

// StartIndex is the first byte the value touches.
func (p *Physical) StartIndex() uint32 {
	return uint32(math.Floor(p.Index))
}

// EndIndex is the last byte the value touches.
func (p *Physical) EndIndex() uint32 {
	if !p.SizeDefined {
		return p.StartIndex()
	}
	return uint32(math.Floor(p.Index + p.Size))
}

// ByteSize is the number of whole bytes the value occupies, at least one.
func (p *Physical) ByteSize() int {
	n := int(math.Ceil(p.Size))
	if n <= 0 {
		return 1
	}
	return n
}

// BitSize is the sub-byte part of Size in bits.
func (p *Physical) BitSize() int {
	return int(math.Round(p.Size*10)) % 10
}

// StringLike reports whether the value is handled as raw bytes.
func (p *Physical) StringLike() bool {
	return p.Type == PhysicalString || p.Size > 4
}

func (p *Physical) clone() *Physical {
	c := *p
	c.EventFrames = append([]EventFrame(nil), p.EventFrames...)
	c.ResetAfterSend = append([]string(nil), p.ResetAfterSend...)
	return &c
}

func (p *parser) parsePhysical(n *markup.Node) *Physical {
	const component = "physical"
	ph := NewPhysical()
	for _, a := range n.Attrs {
		switch a.Name {
		case "id":
			ph.ID = a.Value
		case "type":
			if t, ok := parsePhysicalType(a.Value); ok {
				ph.Type = t
			} else if a.Value != "array" {
				p.rep.Warningf(component, "unknown physical type %q", a.Value)
			}
		case "interface":
			found := false
			for i, name := range interfaceNames {
				if name == a.Value {
					ph.Interface, found = i, true
					break
				}
			}
			if !found {
				p.rep.Warningf(component, "unknown interface %q", a.Value)
			}
		case "value_id":
			ph.ValueID = a.Value
		case "index":
			ph.Index = p.float(component, a.Name, a.Value)
		case "size":
			size := p.float(component, a.Name, a.Value)
			if size < 0 {
				p.rep.Errorf(component, "negative size %v for %q", size, ph.ValueID)
				continue
			}
			ph.Size, ph.SizeDefined = size, true
		case "index2":
			ph.Index2 = p.float(component, a.Name, a.Value)
		case "size2":
			ph.Size2 = p.float(component, a.Name, a.Value)
		case "index2_offset":
			ph.Index2Offset = p.int(component, a.Name, a.Value)
		case "list":
			ph.List = p.int(component, a.Name, a.Value)
		case "endian":
			switch strings.ToLower(a.Value) {
			case "little":
				ph.Endian = LittleEndian
			case "big":
				ph.Endian = BigEndian
			default:
				p.rep.Warningf(component, "unknown endian %q", a.Value)
			}
		case "mask":
			ph.Mask = p.int(component, a.Name, a.Value)
		case "counter":
			ph.Counter = a.Value
		case "volatile":
			ph.Volatile = a.Value == "true"
		case "no_init":
			ph.NoInit = a.Value == "true"
		case "memory_index":
			ph.MemoryIndex = p.float(component, a.Name, a.Value)
		case "memory_channel_step":
			ph.MemoryChannelStep = p.float(component, a.Name, a.Value)
		case "save_on_change", "read_size":
		default:
			p.unknownAttr(component, a.Name)
		}
	}

	for _, c := range n.Children {
		switch c.Name {
		case "get":
			ph.GetRequest = c.AttrOr("request", "")
			ph.GetResponse = c.AttrOr("response", "")
		case "set":
			ph.SetRequest = c.AttrOr("request", "")
		case "event":
			ph.EventFrames = append(ph.EventFrames, p.parseEventFrame(c))
		case "reset_after_send":
			ph.ResetAfterSend = append(ph.ResetAfterSend, c.AttrOr("param", ""))
		case "address", "physical":
			// Array layouts are only meaningful to peer_param splicing.
		default:
			p.unknownNode(component, c.Name)
		}
	}
	return ph
}

func (p *parser) parseEventFrame(n *markup.Node) EventFrame {
	const component = "event"
	e := EventFrame{}
	for _, a := range n.Attrs {
		switch a.Name {
		case "frame":
			e.Frame = a.Value
		case "auth_violate_policy":
			e.AuthViolatePolicy = a.Value
		default:
			p.unknownAttr(component, a.Name)
		}
	}
	for _, c := range n.Children {
		if c.Name != "domino_event" {
			p.unknownNode(component, c.Name)
			continue
		}
		e.DominoEvent = true
		for _, a := range c.Attrs {
			switch a.Name {
			case "value":
				e.DominoValue = p.int("domino_event", a.Name, a.Value)
			case "delay_id":
				e.DominoDelayID = a.Value
			default:
				p.unknownAttr("domino_event", a.Name)
			}
		}
	}
	return e
}
