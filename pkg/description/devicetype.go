package description

import (
	"github.com/devdesc/devdesc-go/pkg/log"
	"github.com/devdesc/devdesc-go/pkg/markup"
)

// Byte positions of the pairing packet fields a composite type rule can
// test.
const (
	fieldTypeHigh      = 0
	fieldTypeLow       = 1
	fieldFirmware      = 2
	fieldFirmwareExt   = 9
	fieldTypeComposite = 10
)

// DeviceType is one model a description supports. It matches either by an
// explicit TypeID with an optional firmware condition, or by field rules
// checked against the pairing packet.
type DeviceType struct {
	Name      string
	ID        string
	Priority  int64
	Updatable bool

	// TypeID is -1 when the type matches by Parameters instead.
	TypeID     int64
	Firmware   int64
	FirmwareOp CondOp

	Parameters []*Parameter

	device *Device
	rep    log.Reporter
}

// Device returns the description the type belongs to.
func (t *DeviceType) Device() *Device { return t.device }

// Matches reports whether a device announcing typeNumber and firmware is
// this type.
func (t *DeviceType) Matches(typeNumber, firmware int64) bool {
	if t.device == nil {
		return false
	}
	if t.TypeID != -1 {
		return typeNumber == t.TypeID && (t.Firmware == -1 || t.checkFirmware(firmware))
	}
	if len(t.Parameters) == 0 {
		return false
	}
	for _, p := range t.Parameters {
		var ok bool
		switch p.Index {
		case fieldTypeComposite:
			ok = p.ConstValue == typeNumber
		case fieldFirmwareExt, fieldFirmware:
			ok = p.CheckCondition(firmware)
		case fieldTypeHigh:
			ok = typeNumber>>8 == p.ConstValue
		case fieldTypeLow:
			ok = typeNumber&0xFF == p.ConstValue
		}
		if !ok {
			return false
		}
	}
	return true
}

// MatchesFamily is Matches restricted to one device family.
func (t *DeviceType) MatchesFamily(family, typeNumber, firmware int64) bool {
	if t.device == nil || t.device.Family != family {
		return false
	}
	return t.Matches(typeNumber, firmware)
}

// MatchesID reports whether the type has the given id within family.
func (t *DeviceType) MatchesID(family int64, id string) bool {
	if t.device != nil && t.device.Family != family {
		return false
	}
	return t.ID == id
}

func (t *DeviceType) checkFirmware(version int64) bool {
	ok, valid := t.FirmwareOp.Eval(version, t.Firmware)
	if !valid {
		t.rep.Warningf("type", "type %q has a firmware but no operator", t.ID)
	}
	return ok
}

func (p *parser) parseDeviceType(n *markup.Node, device *Device) *DeviceType {
	const component = "type"
	t := &DeviceType{TypeID: -1, Firmware: -1, device: device, rep: p.rep}
	for _, a := range n.Attrs {
		switch a.Name {
		case "name":
			t.Name = a.Value
		case "id":
			t.ID = a.Value
		case "priority":
			t.Priority = p.int(component, a.Name, a.Value)
		case "updatable":
			t.Updatable = a.Value == "true"
		default:
			p.unknownAttr(component, a.Name)
		}
	}
	for _, c := range n.Children {
		switch c.Name {
		case "parameter":
			param := p.parseParameter(c, false)
			param.rep = p.rep
			t.Parameters = append(t.Parameters, param)
		case "type_id":
			if v := text(c); v != "" {
				t.TypeID = p.int(component, c.Name, v)
			}
		case "firmware":
			for _, a := range c.Attrs {
				if a.Name != "cond_op" {
					p.unknownAttr("firmware", a.Name)
					continue
				}
				op, ok := parseCondOp(a.Value)
				if !ok {
					p.rep.Warningf("firmware", "unknown cond_op %q", a.Value)
				}
				t.FirmwareOp = op
			}
			if v := text(c); v != "" {
				t.Firmware = p.int(component, c.Name, v)
			}
		default:
			p.unknownNode(component, c.Name)
		}
	}
	return t
}
