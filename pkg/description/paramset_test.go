package description

import (
	"testing"

	"github.com/devdesc/devdesc-go/pkg/log"
	"github.com/devdesc/devdesc-go/pkg/markup"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func parseSet(t *testing.T, doc string) (*ParameterSet, *log.Collector) {
	t.Helper()
	root, err := markup.ParseXML([]byte(doc))
	require.NoError(t, err)
	collector := log.NewCollector()
	p := newParser(log.Reporter{Logger: collector}, nil)
	return p.parseParameterSet(root), collector
}

const masterSetXML = `<paramset type="config" id="dimmer_master">
  <parameter id="RAMP_TIME">
    <logical type="integer" min="0" max="255"/>
    <physical type="integer" interface="config" list="1" index="1.0" size="1.0"/>
  </parameter>
  <parameter id="LEVEL_LIMIT">
    <logical type="integer" min="0" max="1000"/>
    <physical type="integer" interface="config" list="1" index="3.0" size="2.0"/>
  </parameter>
  <parameter id="LOCAL_RESET_DISABLE">
    <logical type="boolean"/>
    <physical type="integer" interface="config" list="0" index="7.4" size="0.1"/>
  </parameter>
  <parameter id="DISPLAY_MODE">
    <logical type="integer"/>
    <physical type="integer" interface="store" value_id="DISPLAY_MODE"/>
  </parameter>
  <enforce id="RAMP_TIME" value="5"/>
  <default_values function="ON">
    <value id="RAMP_TIME" value="10"/>
  </default_values>
</paramset>`

func TestParameterSetQueries(t *testing.T) {
	s, collector := parseSet(t, masterSetXML)
	assert.Zero(t, collector.Count(log.LevelWarning), "events: %v", collector.Events())

	assert.Equal(t, ParamsetMaster, s.Type)
	assert.Equal(t, "MASTER", s.TypeString())
	assert.Equal(t, "dimmer_master", s.ID)
	require.Len(t, s.Parameters, 4)

	ramp := s.GetParameter("RAMP_TIME")
	limit := s.GetParameter("LEVEL_LIMIT")
	reset := s.GetParameter("LOCAL_RESET_DISABLE")
	require.NotNil(t, ramp)
	require.NotNil(t, limit)
	require.NotNil(t, reset)
	assert.Nil(t, s.GetParameter("MISSING"))

	assert.Same(t, limit, s.GetIndex(3.0))
	assert.Nil(t, s.GetIndex(3.5))

	assert.Equal(t, []*Parameter{ramp, limit}, s.GetList(1))
	assert.Equal(t, []*Parameter{reset}, s.GetList(0))
	assert.Nil(t, s.GetList(-1))

	assert.Equal(t, []*Parameter{ramp}, s.GetIndices(2, 2, 1))
	assert.Equal(t, []*Parameter{limit}, s.GetIndices(4, 4, 1))
	assert.Equal(t, []*Parameter{ramp, limit}, s.GetIndices(0, 10, 1))
	assert.Empty(t, s.GetIndices(6, 10, 1))

	assert.Equal(t, map[int64]bool{0: true, 1: true}, s.Lists)
	assert.Equal(t, []LinkDefault{{ID: "RAMP_TIME", Value: "10"}}, s.DefaultValues["ON"])

	pinned, ok := Enforced(ramp.Logical)
	assert.True(t, ok)
	assert.Equal(t, int64(5), pinned.IntValue())
}

func TestPhysicalIndices(t *testing.T) {
	ph := NewPhysical()
	ph.Index = 7.4
	assert.Equal(t, uint32(7), ph.StartIndex())
	assert.Equal(t, uint32(7), ph.EndIndex(), "undefined size ends at the start")

	ph.Size, ph.SizeDefined = 0.1, true
	assert.Equal(t, uint32(7), ph.EndIndex())

	ph.Index, ph.Size = 3, 2
	assert.Equal(t, uint32(5), ph.EndIndex())
	assert.Equal(t, 2, ph.ByteSize())
	assert.Equal(t, 0, ph.BitSize())

	ph.Size = 0.4
	assert.Equal(t, 1, ph.ByteSize())
	assert.Equal(t, 4, ph.BitSize())
}

func TestParameterSetTypeAliases(t *testing.T) {
	tests := map[string]ParamsetType{
		"master":    ParamsetMaster,
		"CONFIG":    ParamsetMaster,
		"values":    ParamsetValues,
		"variables": ParamsetValues,
		"link":      ParamsetLink,
		"other":     ParamsetNone,
	}
	for in, want := range tests {
		assert.Equal(t, want, ParseParamsetType(in), in)
	}
}

func TestParameterSetPeerParamSplicing(t *testing.T) {
	s, collector := parseSet(t, `<paramset type="LINK" id="remote_link" peer_param="PEER" channel_param="CHANNEL">
  <parameter id="PEER">
    <logical type="address"/>
    <physical type="array">
      <physical type="integer" size="4.0"><address index="+1"/></physical>
      <physical type="integer" size="1.0"><address index="+5"/></physical>
    </physical>
  </parameter>
  <parameter id="CHANNEL">
    <logical type="integer"/>
    <physical type="integer" size="1.0"><address index="+0"/></physical>
  </parameter>
  <parameter id="LONG_MULTIEXECUTE">
    <logical type="boolean"/>
    <physical type="integer" interface="config" list="1" index="2.0" size="0.1"/>
  </parameter>
</paramset>`)
	assert.Zero(t, collector.Count(log.LevelWarning), "events: %v", collector.Events())

	assert.Equal(t, int64(1), s.PeerAddressOffset)
	assert.Equal(t, int64(5), s.PeerChannelOffset)
	assert.Equal(t, int64(0), s.ChannelOffset)
	assert.Empty(t, s.PeerParam)
	assert.Empty(t, s.ChannelParam)

	require.Len(t, s.Parameters, 1)
	assert.Equal(t, "LONG_MULTIEXECUTE", s.Parameters[0].ID)
}

func TestParameterSetPeerParamWrongLayout(t *testing.T) {
	s, collector := parseSet(t, `<paramset type="LINK" id="remote_link" peer_param="PEER">
  <parameter id="PEER">
    <physical type="array">
      <physical type="integer" size="2.0"><address index="+1"/></physical>
    </physical>
  </parameter>
</paramset>`)

	assert.Equal(t, "PEER", s.PeerParam)
	assert.Empty(t, s.Parameters)
	assert.Equal(t, 2, collector.Count(log.LevelWarning))
}

func TestParameterSetClone(t *testing.T) {
	s, _ := parseSet(t, masterSetXML)
	c := s.clone()

	require.Len(t, c.Parameters, len(s.Parameters))
	for i, p := range c.Parameters {
		assert.NotSame(t, s.Parameters[i], p)
		assert.Same(t, c, p.Set())
		assert.NotSame(t, s.Parameters[i].Physical, p.Physical)
	}

	c.GetParameter("RAMP_TIME").Physical.Index = 99
	assert.Equal(t, 1.0, s.GetParameter("RAMP_TIME").Physical.Index)

	c.DefaultValues["ON"][0].Value = "20"
	assert.Equal(t, "10", s.DefaultValues["ON"][0].Value)
}

func TestParseParameterAttributes(t *testing.T) {
	root, err := markup.ParseXML([]byte(`<parameter id="TEMPERATURE" operations="read,event" ui_flags="visible,service" control="HEATING.TEMP" PARAM="TEMP">
  <logical type="float" min="-40.0" max="80.0" unit="°C">
    <special_value id="NOT_USED" value="-50.0"/>
  </logical>
  <conversion type="float_integer_scale" factor="10"/>
  <physical type="integer" interface="command" value_id="TEMPERATURE" size="1.6">
    <event frame="WEATHER_EVENT">
      <domino_event value="0" delay_id="DELAY"/>
    </event>
  </physical>
  <description>
    <field id="AutoconfRoles" value="WEATHER"/>
  </description>
</parameter>`))
	require.NoError(t, err)
	collector := log.NewCollector()
	p := newParser(log.Reporter{Logger: collector}, nil).parseParameter(root, true)
	assert.Zero(t, collector.Count(log.LevelWarning), "events: %v", collector.Events())

	assert.Equal(t, "TEMPERATURE", p.ID)
	assert.Equal(t, "TEMP", p.AdditionalParameter)
	assert.Equal(t, OpRead|OpEvent, p.Operations)
	assert.Equal(t, "read,event", p.Operations.String())
	assert.Equal(t, UIVisible|UIService, p.UIFlags)
	assert.Equal(t, "HEATING.TEMP", p.Control)
	assert.True(t, p.Signed, "a negative minimum makes the value signed")
	assert.True(t, p.HasDominoEvents)
	assert.Equal(t, []DescriptionField{{ID: "AutoconfRoles", Value: "WEATHER"}}, p.Description)

	l, ok := p.Logical.(*FloatLogical)
	require.True(t, ok)
	assert.Equal(t, "°C", l.Unit)
	assert.Equal(t, []SpecialValue{{ID: "NOT_USED", Value: -50}}, l.SpecialValues)

	// The conversion comes first in the document but still sees the float
	// logical.
	require.Len(t, p.Conversions, 1)
	assert.Equal(t, ConversionFloatIntegerScale, p.Conversions[0].Kind())

	ev := p.Physical.EventFrames[0]
	assert.Equal(t, EventFrame{Frame: "WEATHER_EVENT", DominoEvent: true, DominoDelayID: "DELAY"}, ev)
}

func TestParseConversionTypes(t *testing.T) {
	tests := []struct {
		xml  string
		want ConversionKind
	}{
		{`<conversion type="integer_integer_scale" div="10"/>`, ConversionIntegerIntegerScale},
		{`<conversion type="sint4_sintx"/>`, ConversionIntegerIntegerScale},
		{`<conversion type="integer_integer_map"><value_map device_value="0xC8" parameter_value="1"/></conversion>`, ConversionIntegerIntegerMap},
		{`<conversion type="option_integer"><value_map device_value="1" parameter_value="0"/></conversion>`, ConversionOptionInteger},
		{`<conversion type="boolean_string" string_true="on" string_false="off"/>`, ConversionBooleanString},
		{`<conversion type="float_configtime" factors="0.1,1,60" value_size="1.6"/>`, ConversionFloatConfigTime},
		{`<conversion type="integer_tinyfloat" mantissa_start="4" mantissa_size="12" exponent_start="0" exponent_size="4"/>`, ConversionIntegerTinyFloat},
		{`<conversion type="toggle" on="200" off="0"/>`, ConversionToggle},
		{`<conversion type="blind_test" value="1"/>`, ConversionBlindTest},
		{`<conversion type="cfm"/>`, ConversionCFM},
		{`<conversion type="ccrtdn_party"/>`, ConversionCCRTDNParty},
		{`<conversion type="rpc_binary"/>`, ConversionRPCBinary},
		{`<conversion type="hexstring_bytearray"/>`, ConversionHexStringByteArray},
	}
	for _, tt := range tests {
		t.Run(tt.want.String(), func(t *testing.T) {
			root, err := markup.ParseXML([]byte(tt.xml))
			require.NoError(t, err)
			collector := log.NewCollector()
			p := newParser(log.Reporter{Logger: collector}, nil)

			c := p.parseConversion(root, &IntegerLogical{Min: -8, Max: 7})
			require.NotNil(t, c)
			assert.Equal(t, tt.want, c.Kind())
			assert.Zero(t, collector.Count(log.LevelWarning), "events: %v", collector.Events())
		})
	}
}

func TestParseConversionDetails(t *testing.T) {
	p := newParser(log.Reporter{}, nil)
	parse := func(doc string, l Logical) Conversion {
		root, err := markup.ParseXML([]byte(doc))
		require.NoError(t, err)
		return p.parseConversion(root, l)
	}

	ct := parse(`<conversion value_size="1.6" type="float_configtime" factors="0.1,1,60"/>`, NewFloatLogical()).(*ConfigTime)
	assert.Equal(t, 1.6, ct.ValueSize)
	assert.Equal(t, []float64{0.1, 1, 60}, ct.Factors)
	assert.Equal(t, uint(14), ct.bits())

	m := parse(`<conversion type="integer_integer_map">
  <value_map device_value="0xC8" parameter_value="1" to_device="false"/>
</conversion>`, NewIntegerLogical()).(*IntegerMap)
	assert.Equal(t, map[int64]int64{0xC8: 1}, m.DeviceToParameter)
	assert.Equal(t, map[int64]int64{1: 0xC8}, m.ParameterToDevice)
	assert.True(t, m.FromDevice)
	assert.False(t, m.ToDevice)

	s := parse(`<conversion type="sint4_sintx"/>`, &IntegerLogical{Min: -8, Max: 7}).(*IntegerIntegerScale)
	assert.True(t, s.SignedRange)
	assert.Equal(t, 8.0, s.Offset)
	assert.InDelta(t, 17.0, s.Factor, 1e-9)

	tf := parse(`<conversion type="integer_tinyfloat" mantissa_size="99"/>`, NewIntegerLogical()).(*TinyFloat)
	assert.Equal(t, int64(11), tf.MantissaSize, "out of range bit fields keep the default")
}

func TestParseConversionDroppedSteps(t *testing.T) {
	collector := log.NewCollector()
	p := newParser(log.Reporter{Logger: collector}, nil)

	for _, typ := range []string{"action_key_counter", "action_key_same_counter", "rc19display"} {
		root, err := markup.ParseXML([]byte(`<conversion type="` + typ + `"/>`))
		require.NoError(t, err)
		assert.Nil(t, p.parseConversion(root, NewIntegerLogical()), typ)
	}
	assert.Zero(t, collector.Count(log.LevelWarning))

	root, err := markup.ParseXML([]byte(`<conversion type="warp_drive"/>`))
	require.NoError(t, err)
	assert.Nil(t, p.parseConversion(root, NewIntegerLogical()))
	assert.Equal(t, 1, collector.Count(log.LevelWarning))
}

func TestParameterPipelineSkipsUnknownSteps(t *testing.T) {
	root, err := markup.ParseXML([]byte(`<parameter id="LEVEL" operations="read,write">
  <logical type="float" min="0.0" max="1.0"/>
  <physical type="integer" interface="command" value_id="LEVEL" size="1.0"/>
  <conversion type="warp_drive"/>
  <conversion type="float_integer_scale" factor="200"/>
  <conversion type="rc19display"/>
</parameter>`))
	require.NoError(t, err)
	collector := log.NewCollector()
	param := newParser(log.Reporter{Logger: collector}, nil).parseParameter(root, true)

	require.Len(t, param.Conversions, 1)
	assert.Equal(t, ConversionFloatIntegerScale, param.Conversions[0].Kind())
	assert.Equal(t, 1, collector.Count(log.LevelWarning))
}

func TestSpecialParameterOverridesPhysical(t *testing.T) {
	root, err := markup.ParseXML([]byte(`<channel index="1" type="BLIND">
  <paramset type="MASTER" id="blind_master">
    <parameter id="REFERENCE_RUNNING_TIME">
      <logical type="float" min="0.1" max="6000.0"/>
      <physical type="integer" interface="config" value_id="OLD" list="1" index="11" size="2"/>
    </parameter>
  </paramset>
  <special_parameter id="REFERENCE_RUNNING_TIME">
    <logical type="float"/>
    <physical type="integer" interface="config" value_id="NEW" list="1" index="13" size="1"/>
    <conversion type="float_configtime"/>
  </special_parameter>
</channel>`))
	require.NoError(t, err)

	ch := newParser(log.Reporter{}, nil).parseChannel(root)
	param := ch.Master().GetParameter("REFERENCE_RUNNING_TIME")
	require.NotNil(t, param)
	assert.Equal(t, "OLD", param.Physical.ValueID)
	assert.Equal(t, 13.0, param.Physical.Index)
	assert.Equal(t, 1.0, param.Physical.Size)
	require.Len(t, param.Conversions, 1)
	assert.Equal(t, ConversionFloatConfigTime, param.Conversions[0].Kind())
}

func TestEnforceLinkVariant(t *testing.T) {
	e := &EnforceLink{ID: "SHORT_ACTION_TYPE", Value: "1"}
	assert.Equal(t, int64(1), e.Variant(LogicalEnum).IntValue())
	assert.True(t, (&EnforceLink{Value: "true"}).Variant(LogicalBoolean).BoolValue())
	assert.Equal(t, 0.5, (&EnforceLink{Value: "0.5"}).Variant(LogicalFloat).FloatValue())
	assert.Equal(t, "x", (&EnforceLink{Value: "x"}).Variant(LogicalString).StringValue())
}
