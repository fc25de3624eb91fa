package description

import (
	"github.com/devdesc/devdesc-go/pkg/log"
	"github.com/devdesc/devdesc-go/pkg/rpc"
)

// aesActiveID is the master parameter injected into AES capable rf_
// descriptions.
const aesActiveID = "AES_ACTIVE"

// link runs the post-parse steps every device and team goes through.
func (p *parser) link(d *Device, templates map[string]*ParameterSet) {
	p.resolveSubsets(d, templates)
	p.promoteRootSet(d)
	p.associateFrames(d)
}

// uniqueChannels returns the channels of d in index order, each once even
// when it is aliased to several indices.
func uniqueChannels(d *Device) []*Channel {
	seen := map[*Channel]bool{}
	var out []*Channel
	for _, i := range d.ChannelIndices() {
		ch := d.Channels[i]
		if ch == nil || seen[ch] {
			continue
		}
		seen[ch] = true
		out = append(out, ch)
	}
	return out
}

// resolveSubsets replaces every set that references a paramset_defs
// template with a copy of the template plus the set's own parameters.
func (p *parser) resolveSubsets(d *Device, templates map[string]*ParameterSet) {
	if len(templates) == 0 {
		return
	}
	var resolve func(ch *Channel)
	resolve = func(ch *Channel) {
		for typ, s := range ch.ParameterSets {
			def, ok := templates[s.SubsetReference]
			if s.SubsetReference == "" || !ok {
				continue
			}
			merged := def.clone()
			merged.Type = s.Type
			merged.ID = s.ID
			for _, param := range s.Parameters {
				merged.add(param)
			}
			ch.ParameterSets[typ] = merged
		}
		for _, sub := range ch.Subconfigs {
			resolve(sub)
		}
	}
	for _, ch := range uniqueChannels(d) {
		resolve(ch)
	}
}

// promoteRootSet makes sure channel 0 exists with a master set and moves a
// non-empty device level master set into it.
func (p *parser) promoteRootSet(d *Device) {
	ch0 := d.Channels[0]
	if ch0 == nil {
		ch0 = &Channel{
			UIFlags:          UIVisible,
			Count:            1,
			CountFromSysinfo: -1,
			ParameterSets:    map[ParamsetType]*ParameterSet{},
		}
		d.Channels[0] = ch0
	}
	if ch0.ParameterSets[ParamsetMaster] == nil {
		ch0.ParameterSets[ParamsetMaster] = NewParameterSet(ParamsetMaster)
	}
	if d.root.Type != ParamsetMaster || len(d.root.Parameters) == 0 {
		return
	}
	if len(ch0.Master().Parameters) > 0 {
		p.rep.Errorf("device", "master set of channel 0 must be empty when the device declares one")
	}
	ch0.ParameterSets[ParamsetMaster] = d.root
}

// associateFrames records which frames carry each value parameter and
// applies the field overrides of event frames.
func (p *parser) associateFrames(d *Device) {
	seen := map[*Channel]bool{}
	for _, index := range d.ChannelIndices() {
		ch := d.Channels[index]
		values := ch.Values()
		if values == nil {
			continue
		}
		first := !seen[ch]
		seen[ch] = true
		for _, param := range values.Parameters {
			ph := param.Physical
			if f := d.Frames[ph.GetRequest]; ph.GetRequest != "" && f != nil {
				if first {
					f.AssociatedValues = append(f.AssociatedValues, param)
				}
				d.addValueRequest(index, f)
			}
			if !first {
				continue
			}
			if f := d.Frames[ph.SetRequest]; ph.SetRequest != "" && f != nil {
				f.AssociatedValues = append(f.AssociatedValues, param)
			}
			for _, e := range ph.EventFrames {
				f := d.Frames[e.Frame]
				if f == nil {
					continue
				}
				f.AssociatedValues = append(f.AssociatedValues, param)
				f.ChannelIndexOffset = ch.PhysicalIndexOffset
				for _, field := range f.Parameters {
					if field.Param != param.ID && field.AdditionalParameter != param.ID {
						continue
					}
					if field.Signed {
						param.Signed = true
					}
					if field.Size > 0 {
						ph.Size = field.Size
					}
				}
			}
		}
	}
}

func (d *Device) addValueRequest(index int64, f *Frame) {
	frames := d.ValueRequestFrames[index]
	if frames == nil {
		frames = map[string]*Frame{}
		d.ValueRequestFrames[index] = frames
	}
	frames[f.ID] = f
}

// expandSysinfo aliases the sysinfo channel to the count-1 indices after
// it, as announced by the device during pairing.
func (p *parser) expandSysinfo(d *Device, count int64) {
	var index int64
	var ch *Channel
	for _, i := range d.ChannelIndices() {
		if c := d.Channels[i]; c.CountFromSysinfo > -1 {
			index, ch = i, c
			break
		}
	}
	if ch == nil {
		p.rep.Warningf("device", "sysinfo channel count given but no channel reads it")
		return
	}
	values := ch.Values()
	for i := index + 1; i < index+count; i++ {
		if _, dup := d.Channels[i]; dup {
			p.rep.Errorf("channel", "channel index %d declared twice", i)
			continue
		}
		d.Channels[i] = ch
		if values == nil {
			continue
		}
		for _, param := range values.Parameters {
			if f := d.Frames[param.Physical.GetRequest]; param.Physical.GetRequest != "" && f != nil {
				d.addValueRequest(i, f)
			}
		}
	}
}

// injectAESActive adds an internal AES_ACTIVE switch to the master set of
// every channel but 0. It defaults to false so pairing always sets a new
// key.
func (p *parser) injectAESActive(d *Device) {
	seen := map[*ParameterSet]bool{}
	for _, index := range d.ChannelIndices() {
		if index == 0 {
			continue
		}
		master := d.Channels[index].Master()
		if master == nil || seen[master] {
			continue
		}
		seen[master] = true
		param := master.GetParameter(aesActiveID)
		if param == nil {
			param = NewParameter(aesActiveID)
			master.add(param)
		}
		param.UIFlags = UIInternal
		param.Conversions = []Conversion{&BooleanInteger{Threshold: 1}}
		param.Logical = &BooleanLogical{DefaultDefined: true}
		param.Physical.Interface = InterfaceConfig
		param.Physical.Type = PhysicalInteger
		param.Physical.ValueID = aesActiveID
		param.Physical.List = 1
		param.Physical.Index = 8
		master.Lists[1] = true
	}
}

// bindAll hands the codec and the conversion reporter to every parameter
// of d and its team.
func bindAll(d *Device, codec rpc.Codec, rep log.Reporter) {
	bindSet := func(s *ParameterSet) {
		for _, param := range s.Parameters {
			param.bind(codec, rep)
		}
	}
	for _, ch := range uniqueChannels(d) {
		ch.sets(bindSet)
		if ch.SpecialParameter != nil {
			ch.SpecialParameter.bind(codec, rep)
		}
	}
	bindSet(d.root)
	for _, frames := range d.FramesByType {
		for _, f := range frames {
			for _, param := range f.Parameters {
				param.bind(codec, rep)
			}
		}
	}
	for _, t := range d.SupportedTypes {
		t.rep = rep.WithLayer(log.LayerSchema)
		for _, param := range t.Parameters {
			param.bind(codec, rep)
		}
	}
	if d.Team != nil {
		bindAll(d.Team, codec, rep)
	}
}
