package description

import (
	"maps"
	"slices"

	"github.com/devdesc/devdesc-go/pkg/markup"
)

// RXModes are the ways a device can be reached.
type RXModes uint8

const (
	RXAlways RXModes = 1 << iota
	RXBurst
	RXConfig
	RXWakeUp
	RXLazyConfig
	RXWakeUp2
)

// Has reports whether all bits of m2 are set.
func (m RXModes) Has(m2 RXModes) bool { return m&m2 == m2 }

// Device is a loaded description. It is read-only once Load returns.
type Device struct {
	Family                      int64
	Version                     int64
	RXModes                     RXModes
	HasBattery                  bool
	Class                       string
	EEPSize                     int64
	UIFlags                     UIFlags
	CyclicTimeout               int64
	SupportsAES                 bool
	PeeringSysinfoExpectChannel bool
	NeedsTime                   bool

	// Channels maps every channel index to its descriptor. Indices created
	// by count or sysinfo expansion share one *Channel.
	Channels map[int64]*Channel

	Frames            map[string]*Frame
	FramesByType      map[int64][]*Frame
	FramesByFunction1 map[string][]*Frame
	FramesByFunction2 map[string][]*Frame

	// ValueRequestFrames maps a channel index to the frames that request
	// its values, keyed by frame id.
	ValueRequestFrames map[int64]map[string]*Frame

	SupportedTypes []*DeviceType
	Team           *Device
	RunProgram     *Program

	// CountFromSysinfoIndex is the pairing info byte holding the channel
	// count, or -1.
	CountFromSysinfoIndex int64
	CountFromSysinfoSize  float64

	Path        string
	Fingerprint string
	LoadID      string

	root   *ParameterSet
	loaded bool
	err    error
}

func newDevice(family int64) *Device {
	return &Device{
		Family:                      family,
		RXModes:                     RXAlways,
		UIFlags:                     UIVisible,
		PeeringSysinfoExpectChannel: true,
		Channels:                    map[int64]*Channel{},
		Frames:                      map[string]*Frame{},
		FramesByType:                map[int64][]*Frame{},
		FramesByFunction1:           map[string][]*Frame{},
		FramesByFunction2:           map[string][]*Frame{},
		ValueRequestFrames:          map[int64]map[string]*Frame{},
		CountFromSysinfoIndex:       -1,
		root:                        NewParameterSet(ParamsetNone),
	}
}

// Loaded reports whether the document was read and had a device root.
func (d *Device) Loaded() bool { return d.loaded }

// Channel returns the descriptor of channel index, or nil.
func (d *Device) Channel(index int64) *Channel { return d.Channels[index] }

// ChannelIndices returns the channel indices in ascending order.
func (d *Device) ChannelIndices() []int64 {
	return slices.Sorted(maps.Keys(d.Channels))
}

// Frame returns the frame with the given id, or nil.
func (d *Device) Frame(id string) *Frame { return d.Frames[id] }

// Parameter looks up a parameter by channel, set type and id.
func (d *Device) Parameter(channel int64, typ ParamsetType, id string) *Parameter {
	ch := d.Channels[channel]
	if ch == nil {
		return nil
	}
	s := ch.ParameterSets[typ]
	if s == nil {
		return nil
	}
	return s.GetParameter(id)
}

// GetType returns the first supported type matching typeNumber and
// firmware, or nil.
func (d *Device) GetType(typeNumber, firmware int64) *DeviceType {
	for _, t := range d.SupportedTypes {
		if t.Matches(typeNumber, firmware) {
			return t
		}
	}
	return nil
}

// TypeByID returns the supported type with the given id, or nil.
func (d *Device) TypeByID(id string) *DeviceType {
	for _, t := range d.SupportedTypes {
		if t.MatchesID(d.Family, id) {
			return t
		}
	}
	return nil
}

// parseDevice fills d from a device element. templates collects the
// paramset_defs for linking.
func (p *parser) parseDevice(d *Device, n *markup.Node, fileName string, templates map[string]*ParameterSet) {
	const component = "device"
	for _, a := range n.Attrs {
		v := a.Value
		switch a.Name {
		case "version":
			d.Version = p.int(component, a.Name, v)
		case "rx_modes":
			d.RXModes = 0
			for _, mode := range splitList(v) {
				switch mode {
				case "wakeup":
					d.RXModes |= RXWakeUp
				case "wakeup2":
					d.RXModes |= RXWakeUp2
				case "config":
					d.RXModes |= RXConfig
				case "burst", "triple_burst":
					d.RXModes |= RXBurst
				case "always":
					d.RXModes |= RXAlways
				case "lazy_config":
					d.RXModes |= RXLazyConfig
				default:
					p.rep.Warningf(component, "unknown rx mode %q", mode)
				}
			}
			if d.RXModes == 0 {
				d.RXModes = RXAlways
			}
			d.HasBattery = d.RXModes != RXAlways
		case "class":
			d.Class = v
		case "eep_size":
			d.EEPSize = p.int(component, a.Name, v)
		case "ui_flags":
			switch v {
			case "visible":
				d.UIFlags |= UIVisible
			case "internal":
				d.UIFlags |= UIInternal
			case "dontdelete":
				d.UIFlags |= UIDontDelete
			default:
				p.rep.Warningf(component, "unknown ui flag %q", v)
			}
		case "cyclic_timeout":
			d.CyclicTimeout = p.int(component, a.Name, v)
		case "supports_aes":
			d.SupportsAES = v == "true"
		case "peering_sysinfo_expect_channel":
			if v == "false" {
				d.PeeringSysinfoExpectChannel = false
			}
		case "needs_time":
			d.NeedsTime = v == "true"
		case "rx_default", "default":
		default:
			p.unknownAttr(component, a.Name)
		}
	}

	for _, c := range n.Children {
		switch c.Name {
		case "types", "supported_types":
			for _, t := range c.ChildrenNamed("type") {
				d.SupportedTypes = append(d.SupportedTypes, p.parseDeviceType(t, d))
			}
		case "paramset", "parameters":
			s := p.parseParameterSet(c)
			if s.Type != ParamsetMaster {
				p.rep.Errorf(component, "device level parameter set must be master, have %q", c.AttrOr("type", ""))
				s.Type = ParamsetNone
			}
			d.root = s
		case "paramset_defs":
			for _, a := range c.Attrs {
				p.unknownAttr(c.Name, a.Name)
			}
			for _, def := range c.Children {
				if def.Name != "paramset" && def.Name != "parameters" {
					p.unknownNode(c.Name, def.Name)
					continue
				}
				s := p.parseParameterSet(def)
				templates[s.ID] = s
			}
		case "channels":
			for _, ch := range c.ChildrenNamed("channel") {
				p.addChannel(d, p.parseChannel(ch))
			}
		case "frames", "packets":
			for _, f := range c.Children {
				if f.Name != "frame" && f.Name != "packet" {
					p.unknownNode(c.Name, f.Name)
					continue
				}
				p.addFrame(d, p.parseFrame(f), fileName)
			}
		case "run_program":
			d.RunProgram = p.parseProgram(c)
		case "team":
			team := newDevice(d.Family)
			team.Path, team.LoadID = d.Path, d.LoadID
			teamTemplates := map[string]*ParameterSet{}
			p.parseDevice(team, c, fileName, teamTemplates)
			p.link(team, teamTemplates)
			team.loaded = true
			d.Team = team
		default:
			p.unknownNode(component, c.Name)
		}
	}
}

func (p *parser) addChannel(d *Device, ch *Channel) {
	for i := ch.Index; i < ch.Index+ch.Count; i++ {
		if _, dup := d.Channels[i]; dup {
			p.rep.Errorf("channel", "channel index %d declared twice", i)
			continue
		}
		d.Channels[i] = ch
	}
	if ch.CountFromSysinfo < 0 {
		return
	}
	if d.CountFromSysinfoIndex > -1 {
		p.rep.Errorf("channel", "count_from_sysinfo is declared on more than one channel")
	}
	if !ch.sysinfoIndexIntegral() {
		p.rep.Errorf("channel", "count_from_sysinfo must start at bit 0 of a byte, have %v", ch.CountFromSysinfo)
		return
	}
	d.CountFromSysinfoIndex = int64(ch.CountFromSysinfo)
	d.CountFromSysinfoSize = ch.CountFromSysinfoSize
	if d.CountFromSysinfoSize <= 0 {
		d.CountFromSysinfoSize = 1
	}
}

// measureEventChannels renames the four MEASURE_EVENT frames of the
// wds30_ot2 sensor, which only differ in their channel field.
var measureEventChannels = map[int64]string{
	10: "MEASURE_EVENT1",
	13: "MEASURE_EVENT2",
	16: "MEASURE_EVENT3",
	19: "MEASURE_EVENT4",
}

func (p *parser) addFrame(d *Device, f *Frame, fileName string) {
	d.FramesByType[f.Type] = append(d.FramesByType[f.Type], f)
	if f.Function1 != "" {
		d.FramesByFunction1[f.Function1] = append(d.FramesByFunction1[f.Function1], f)
	}
	if f.Function2 != "" {
		d.FramesByFunction2[f.Function2] = append(d.FramesByFunction2[f.Function2], f)
	}
	if fileName == "rf_wds30_ot2.xml" && f.ID == "MEASURE_EVENT" {
		if id, ok := measureEventChannels[f.ChannelField]; ok {
			f.ID = id
		}
	}
	d.Frames[f.ID] = f
}
