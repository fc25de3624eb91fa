package inspect

import (
	"errors"
	"fmt"
	"slices"

	"github.com/devdesc/devdesc-go/pkg/description"
	"github.com/devdesc/devdesc-go/pkg/log"
	"github.com/devdesc/devdesc-go/pkg/variant"
)

// Inspector errors.
var (
	ErrChannelNotFound   = errors.New("channel not found")
	ErrParamsetNotFound  = errors.New("paramset not found")
	ErrParameterNotFound = errors.New("parameter not found")
	ErrFrameNotFound     = errors.New("frame not found")
	ErrPartialPath       = errors.New("path does not name a parameter")
)

// Inspector provides inspection and codec capabilities for a loaded
// description.
type Inspector struct {
	device *description.Device
}

// NewInspector creates a new Inspector for the given description.
func NewInspector(device *description.Device) *Inspector {
	return &Inspector{device: device}
}

// Device returns the underlying description.
func (i *Inspector) Device() *description.Device {
	return i.device
}

// DeviceTree represents the complete description structure for display.
type DeviceTree struct {
	Path        string
	Fingerprint string
	Family      int64
	Version     int64
	Types       []TypeInfo
	Channels    []ChannelInfo
	Frames      []FrameInfo
}

// TypeInfo represents a supported device type for display.
type TypeInfo struct {
	ID       string
	Name     string
	Priority int64
	TypeID   int64
}

// ChannelInfo represents channel information for display.
type ChannelInfo struct {
	Index     int64
	Count     int64
	Type      string
	Direction description.Direction
	Paramsets []ParamsetInfo
}

// ParamsetInfo represents a parameter set for display.
type ParamsetInfo struct {
	ID         string
	Type       description.ParamsetType
	Parameters []ParameterInfo
}

// ParameterInfo represents parameter information for display.
type ParameterInfo struct {
	ID          string
	Logical     description.LogicalKind
	Min, Max    string
	Default     string
	Unit        string
	Operations  description.Operations
	Physical    PhysicalInfo
	Conversions []description.ConversionKind
}

// PhysicalInfo summarizes where a parameter lives in a packet.
type PhysicalInfo struct {
	Type      description.PhysicalType
	Interface description.Interface
	Index     float64
	Size      float64
	List      int64
}

// FrameInfo represents a frame for display.
type FrameInfo struct {
	ID        string
	Direction description.FrameDirection
	Type      int64
	Subtype   int64
	Fields    []string
}

// Tree returns a complete tree of the description structure. Channels
// created by count or sysinfo expansion appear once, with their count.
func (i *Inspector) Tree() *DeviceTree {
	d := i.device
	tree := &DeviceTree{
		Path:        d.Path,
		Fingerprint: d.Fingerprint,
		Family:      d.Family,
		Version:     d.Version,
	}

	for _, t := range d.SupportedTypes {
		tree.Types = append(tree.Types, TypeInfo{ID: t.ID, Name: t.Name, Priority: t.Priority, TypeID: t.TypeID})
	}

	seen := map[*description.Channel]bool{}
	for _, idx := range d.ChannelIndices() {
		ch := d.Channel(idx)
		if seen[ch] {
			continue
		}
		seen[ch] = true
		tree.Channels = append(tree.Channels, inspectChannelInternal(ch))
	}

	ids := make([]string, 0, len(d.Frames))
	for id := range d.Frames {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	for _, id := range ids {
		tree.Frames = append(tree.Frames, inspectFrameInternal(d.Frames[id]))
	}

	return tree
}

// InspectChannel returns information about a specific channel.
func (i *Inspector) InspectChannel(index int64) (*ChannelInfo, error) {
	ch := i.device.Channel(index)
	if ch == nil {
		return nil, fmt.Errorf("%w: channel %d", ErrChannelNotFound, index)
	}
	info := inspectChannelInternal(ch)
	return &info, nil
}

// inspectChannelInternal extracts channel info without error handling.
func inspectChannelInternal(ch *description.Channel) ChannelInfo {
	info := ChannelInfo{
		Index:     ch.Index,
		Count:     ch.Count,
		Type:      ch.Type,
		Direction: ch.Direction,
	}
	for _, typ := range paramsetOrder {
		if set := ch.ParameterSets[typ]; set != nil {
			info.Paramsets = append(info.Paramsets, inspectParamsetInternal(set))
		}
	}
	return info
}

// InspectParamset returns the parameters of one set of a channel.
func (i *Inspector) InspectParamset(channel int64, typ description.ParamsetType) (*ParamsetInfo, error) {
	set, err := i.paramset(channel, typ)
	if err != nil {
		return nil, err
	}
	info := inspectParamsetInternal(set)
	return &info, nil
}

func inspectParamsetInternal(set *description.ParameterSet) ParamsetInfo {
	info := ParamsetInfo{ID: set.ID, Type: set.Type}
	for _, p := range set.Parameters {
		info.Parameters = append(info.Parameters, inspectParameterInternal(p))
	}
	return info
}

func inspectParameterInternal(p *description.Parameter) ParameterInfo {
	info := ParameterInfo{
		ID:         p.ID,
		Logical:    p.Logical.Kind(),
		Operations: p.Operations,
		Physical: PhysicalInfo{
			Type:      p.Physical.Type,
			Interface: p.Physical.Interface,
			Index:     p.Physical.Index,
			Size:      p.Physical.Size,
			List:      p.Physical.List,
		},
	}
	info.Min, info.Max, info.Unit = logicalBounds(p.Logical)
	if v, ok := description.DefaultValue(p.Logical); ok {
		info.Default = p.Logical.String(v)
	}
	for _, c := range p.Conversions {
		info.Conversions = append(info.Conversions, c.Kind())
	}
	return info
}

// logicalBounds renders the range and unit of bounded logicals.
func logicalBounds(l description.Logical) (lo, hi, unit string) {
	switch t := l.(type) {
	case *description.IntegerLogical:
		return variant.Int(t.Min).AsString(), variant.Int(t.Max).AsString(), t.Unit
	case *description.FloatLogical:
		return variant.Float(t.Min).AsString(), variant.Float(t.Max).AsString(), t.Unit
	case *description.EnumLogical:
		if opt, ok := t.OptionAt(t.Min); ok {
			lo = opt.ID
		}
		if opt, ok := t.OptionAt(t.Max); ok {
			hi = opt.ID
		}
		return lo, hi, t.Unit
	case *description.BooleanLogical:
		return "", "", t.Unit
	case *description.StringLogical:
		return "", "", t.Unit
	case *description.ActionLogical:
		return "", "", t.Unit
	default:
		return "", "", ""
	}
}

// InspectFrame returns information about a frame.
func (i *Inspector) InspectFrame(id string) (*FrameInfo, error) {
	f, ok := ResolveFrameName(i.device, id)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrFrameNotFound, id)
	}
	info := inspectFrameInternal(f)
	return &info, nil
}

func inspectFrameInternal(f *description.Frame) FrameInfo {
	info := FrameInfo{ID: f.ID, Direction: f.Direction, Type: f.Type, Subtype: f.Subtype}
	for _, p := range f.Parameters {
		name := p.Param
		if name == "" {
			name = fmt.Sprintf("const %d", p.ConstValue)
		}
		info.Fields = append(info.Fields, fmt.Sprintf("%s@%s", name, variant.Float(p.Index).AsString()))
	}
	return info
}

// Parameter returns the parameter a full path names.
func (i *Inspector) Parameter(path *Path) (*description.Parameter, error) {
	if path.IsPartial || path.IsFrame {
		return nil, fmt.Errorf("%w: %s", ErrPartialPath, path.Raw)
	}
	set, err := i.paramset(path.Channel, path.Paramset)
	if err != nil {
		return nil, err
	}
	p, ok := ResolveParameterName(set, path.Parameter)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrParameterNotFound, path.Parameter)
	}
	return p, nil
}

// Decode converts packet bytes into the logical value of the parameter at
// path. The diagnostics of the conversion are returned alongside.
func (i *Inspector) Decode(path *Path, data []byte, isEvent bool) (variant.Variant, []log.Event, error) {
	p, err := i.Parameter(path)
	if err != nil {
		return variant.Void(), nil, err
	}
	v, events := p.Decode(data, isEvent)
	return v, events, nil
}

// Encode parses literal with the parameter's logical type and converts it
// to packet bytes.
func (i *Inspector) Encode(path *Path, literal string) ([]byte, []log.Event, error) {
	p, err := i.Parameter(path)
	if err != nil {
		return nil, nil, err
	}
	v, ok := p.Logical.FromString(literal)
	if !ok {
		// The parameter coerces what the logical could not parse and
		// reports unknown enum ids.
		v = variant.String(literal)
	}
	data, events := p.Encode(v)
	return data, events, nil
}

func (i *Inspector) paramset(channel int64, typ description.ParamsetType) (*description.ParameterSet, error) {
	ch := i.device.Channel(channel)
	if ch == nil {
		return nil, fmt.Errorf("%w: channel %d", ErrChannelNotFound, channel)
	}
	set := ch.ParameterSets[typ]
	if set == nil {
		return nil, fmt.Errorf("%w: %d/%s", ErrParamsetNotFound, channel, GetParamsetName(typ))
	}
	return set, nil
}
