package inspect

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/devdesc/devdesc-go/pkg/description"
	"github.com/devdesc/devdesc-go/pkg/log"
	"github.com/devdesc/devdesc-go/pkg/variant"
)

const dimmerXML = `<device version="2">
  <supported_types>
    <type name="Dimmer" id="HM-LC-Dim1T-FM" priority="1">
      <parameter index="10.0" size="2.0" const_value="0x0059"/>
    </type>
  </supported_types>
  <channels>
    <channel index="0" type="MAINTENANCE">
      <paramset type="VALUES" id="maint_values">
        <parameter id="UNREACH" operations="read,event">
          <logical type="boolean"/>
          <physical type="integer" interface="internal" value_id="UNREACH"/>
        </parameter>
      </paramset>
    </channel>
    <channel index="1" type="DIMMER" count="2" direction="receiver">
      <paramset type="VALUES" id="dimmer_values">
        <parameter id="STATE" operations="read,write,event">
          <logical type="boolean" default="false"/>
          <physical type="integer" interface="command" value_id="STATE">
            <set request="LEVEL_SET"/>
          </physical>
          <conversion type="boolean_integer" threshold="1" false="0" true="200"/>
        </parameter>
        <parameter id="LEVEL" operations="read,write,event">
          <logical type="float" min="0.0" max="1.0" default="0.0" unit="100%"/>
          <physical type="integer" interface="command" value_id="LEVEL">
            <set request="LEVEL_SET"/>
          </physical>
          <conversion type="float_integer_scale" factor="200"/>
        </parameter>
      </paramset>
      <paramset type="LINK" id="dimmer_link">
        <parameter id="SHORT_ON_TIME">
          <logical type="float" min="0.0" max="111600.0" default="111600.0" unit="s"/>
          <physical type="integer" interface="config" list="1" index="3" size="1.0"/>
          <conversion type="float_configtime"/>
        </parameter>
        <parameter id="SHORT_ACTION_TYPE">
          <logical type="option">
            <option id="INACTIVE"/>
            <option id="ACTIVE" default="true"/>
          </logical>
          <physical type="integer" interface="config" list="1" index="10.0" size="0.2"/>
        </parameter>
      </paramset>
    </channel>
  </channels>
  <frames>
    <frame id="LEVEL_SET" direction="to_device" type="0x11" subtype="0x02" subtype_index="9" channel_field="10">
      <parameter type="integer" index="11.0" size="1.0" param="LEVEL"/>
    </frame>
  </frames>
</device>`

// loadTestDevice loads the dimmer fixture.
func loadTestDevice(t *testing.T) *description.Device {
	t.Helper()
	path := filepath.Join(t.TempDir(), "hm_dimmer.xml")
	if err := os.WriteFile(path, []byte(dimmerXML), 0o644); err != nil {
		t.Fatal(err)
	}
	collector := log.NewCollector()
	d := description.Load(path, description.Options{Logger: collector})
	if !d.Loaded() {
		t.Fatalf("load failed: %v", d.Err())
	}
	if n := collector.Count(log.LevelWarning); n != 0 {
		t.Fatalf("load reported %d problems: %v", n, collector.Events())
	}
	return d
}

func mustParsePath(t *testing.T, s string) *Path {
	t.Helper()
	p, err := ParsePath(s)
	if err != nil {
		t.Fatalf("ParsePath(%q): %v", s, err)
	}
	return p
}

func TestNewInspector(t *testing.T) {
	device := loadTestDevice(t)
	insp := NewInspector(device)

	if insp == nil {
		t.Fatal("NewInspector returned nil")
	}
	if insp.Device() != device {
		t.Error("Device() should return the underlying description")
	}
}

func TestInspectorTree(t *testing.T) {
	insp := NewInspector(loadTestDevice(t))

	tree := insp.Tree()

	if tree.Version != 2 {
		t.Errorf("Version = %d, want 2", tree.Version)
	}
	if tree.Fingerprint == "" {
		t.Error("Fingerprint should be set")
	}
	if len(tree.Types) != 1 || tree.Types[0].ID != "HM-LC-Dim1T-FM" {
		t.Errorf("Types = %+v", tree.Types)
	}

	// Channels 1 and 2 share a descriptor and appear once.
	if len(tree.Channels) != 2 {
		t.Fatalf("Expected 2 channel entries, got %d", len(tree.Channels))
	}
	dimmer := tree.Channels[1]
	if dimmer.Index != 1 || dimmer.Count != 2 || dimmer.Type != "DIMMER" {
		t.Errorf("dimmer channel = %+v", dimmer)
	}
	if dimmer.Direction != description.DirectionReceiver {
		t.Errorf("Direction = %v, want receiver", dimmer.Direction)
	}

	var order []description.ParamsetType
	for _, ps := range dimmer.Paramsets {
		order = append(order, ps.Type)
	}
	want := []description.ParamsetType{description.ParamsetMaster, description.ParamsetValues, description.ParamsetLink}
	if len(order) != len(want) {
		t.Fatalf("paramsets = %v, want %v", order, want)
	}
	for i := range want {
		if order[i] != want[i] {
			t.Errorf("paramset %d = %v, want %v", i, order[i], want[i])
		}
	}

	if len(tree.Frames) != 1 || tree.Frames[0].ID != "LEVEL_SET" {
		t.Errorf("Frames = %+v", tree.Frames)
	}
}

func TestInspectorInspectChannel(t *testing.T) {
	insp := NewInspector(loadTestDevice(t))

	info, err := insp.InspectChannel(2)
	if err != nil {
		t.Fatalf("InspectChannel(2): %v", err)
	}
	if info.Index != 1 {
		t.Errorf("aliased channel 2 should report index 1, got %d", info.Index)
	}

	_, err = insp.InspectChannel(9)
	if !errors.Is(err, ErrChannelNotFound) {
		t.Errorf("InspectChannel(9) error = %v, want ErrChannelNotFound", err)
	}
}

func TestInspectorInspectParamset(t *testing.T) {
	insp := NewInspector(loadTestDevice(t))

	info, err := insp.InspectParamset(1, description.ParamsetValues)
	if err != nil {
		t.Fatalf("InspectParamset: %v", err)
	}
	if info.ID != "dimmer_values" || len(info.Parameters) != 2 {
		t.Fatalf("paramset = %+v", info)
	}

	level := info.Parameters[1]
	if level.ID != "LEVEL" || level.Logical != description.LogicalFloat {
		t.Errorf("LEVEL = %+v", level)
	}
	if level.Min != "0" || level.Max != "1" || level.Unit != "100%" {
		t.Errorf("LEVEL range = [%s..%s] %s", level.Min, level.Max, level.Unit)
	}
	if level.Default != "0" {
		t.Errorf("LEVEL default = %q, want 0", level.Default)
	}
	if len(level.Conversions) != 1 || level.Conversions[0] != description.ConversionFloatIntegerScale {
		t.Errorf("LEVEL conversions = %v", level.Conversions)
	}
	if level.Physical.Interface != description.InterfaceCommand {
		t.Errorf("LEVEL interface = %v", level.Physical.Interface)
	}

	_, err = insp.InspectParamset(0, description.ParamsetLink)
	if !errors.Is(err, ErrParamsetNotFound) {
		t.Errorf("error = %v, want ErrParamsetNotFound", err)
	}
}

func TestInspectorInspectFrame(t *testing.T) {
	insp := NewInspector(loadTestDevice(t))

	info, err := insp.InspectFrame("level_set")
	if err != nil {
		t.Fatalf("InspectFrame: %v", err)
	}
	if info.Type != 0x11 || info.Subtype != 0x02 {
		t.Errorf("frame = %+v", info)
	}
	if len(info.Fields) != 1 || info.Fields[0] != "LEVEL@11" {
		t.Errorf("Fields = %v", info.Fields)
	}

	if _, err := insp.InspectFrame("NOPE"); !errors.Is(err, ErrFrameNotFound) {
		t.Errorf("error = %v, want ErrFrameNotFound", err)
	}
}

func TestInspectorDecode(t *testing.T) {
	insp := NewInspector(loadTestDevice(t))

	tests := []struct {
		path string
		data []byte
		want variant.Variant
	}{
		{"1/values/STATE", []byte{0xC8}, variant.Bool(true)},
		{"2/values/state", []byte{0x00}, variant.Bool(false)},
		{"1/values/LEVEL", []byte{0x64}, variant.Float(0.5)},
		{"1/link/SHORT_ACTION_TYPE", []byte{0x01}, variant.Int(1)},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			got, events, err := insp.Decode(mustParsePath(t, tt.path), tt.data, false)
			if err != nil {
				t.Fatalf("Decode: %v", err)
			}
			if !got.Equal(tt.want) {
				t.Errorf("Decode = %v, want %v", got, tt.want)
			}
			if len(events) != 0 {
				t.Errorf("unexpected events: %v", events)
			}
		})
	}
}

func TestInspectorEncode(t *testing.T) {
	insp := NewInspector(loadTestDevice(t))

	tests := []struct {
		path    string
		literal string
		want    []byte
	}{
		{"1/values/STATE", "true", []byte{0xC8}},
		{"1/values/LEVEL", "0.5", []byte{0x64}},
		{"1/link/SHORT_ON_TIME", "65", []byte{0x4D}},
		{"1/link/SHORT_ACTION_TYPE", "ACTIVE", []byte{0x01}},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			got, events, err := insp.Encode(mustParsePath(t, tt.path), tt.literal)
			if err != nil {
				t.Fatalf("Encode: %v", err)
			}
			if !bytes.Equal(got, tt.want) {
				t.Errorf("Encode(%q) = % X, want % X", tt.literal, got, tt.want)
			}
			if len(events) != 0 {
				t.Errorf("unexpected events: %v", events)
			}
		})
	}
}

func TestInspectorEncodeUnknownOption(t *testing.T) {
	insp := NewInspector(loadTestDevice(t))

	got, events, err := insp.Encode(mustParsePath(t, "1/link/SHORT_ACTION_TYPE"), "BOGUS")
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if !bytes.Equal(got, []byte{0x00}) {
		t.Errorf("Encode(BOGUS) = % X, want 00", got)
	}
	if len(events) != 1 || events[0].Level != log.LevelWarning {
		t.Errorf("events = %v, want one warning", events)
	}
}

func TestInspectorParameterErrors(t *testing.T) {
	insp := NewInspector(loadTestDevice(t))

	tests := []struct {
		path string
		want error
	}{
		{"1/values", ErrPartialPath},
		{"frame/LEVEL_SET", ErrPartialPath},
		{"7/values/STATE", ErrChannelNotFound},
		{"0/link/STATE", ErrParamsetNotFound},
		{"1/values/MISSING", ErrParameterNotFound},
	}

	for _, tt := range tests {
		_, err := insp.Parameter(mustParsePath(t, tt.path))
		if !errors.Is(err, tt.want) {
			t.Errorf("Parameter(%q) error = %v, want %v", tt.path, err, tt.want)
		}
	}
}
