package commands

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/devdesc/devdesc-go/pkg/inspect"
	"github.com/devdesc/devdesc-go/pkg/log"
	"github.com/devdesc/devdesc-go/pkg/registry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const switchXML = `<device version="3">
  <supported_types>
    <type name="Switch actuator" id="HM-LC-Sw1-FM" priority="2">
      <type_id>0x0069</type_id>
    </type>
  </supported_types>
  <channels>
    <channel index="0" type="MAINTENANCE"/>
    <channel index="1" type="SWITCH" direction="receiver">
      <paramset type="VALUES" id="switch_values">
        <parameter id="STATE" operations="read,write,event">
          <logical type="boolean" default="false"/>
          <physical type="integer" interface="command" value_id="STATE">
            <set request="LEVEL_SET"/>
          </physical>
          <conversion type="boolean_integer" threshold="1" false="0" true="200"/>
        </parameter>
      </paramset>
      <paramset type="LINK" id="switch_link">
        <parameter id="SHORT_ON_TIME">
          <logical type="float" min="0.0" max="111600.0" default="111600.0" unit="s"/>
          <physical type="integer" interface="config" list="1" index="3" size="1.0"/>
          <conversion type="float_configtime"/>
        </parameter>
      </paramset>
    </channel>
  </channels>
  <frames>
    <frame id="LEVEL_SET" direction="to_device" type="0x11" subtype="0x02" subtype_index="9" channel_field="10">
      <parameter type="integer" index="11.0" size="1.0" param="STATE"/>
    </frame>
  </frames>
</device>`

// newTestRegistry loads a directory holding the switch fixture.
func newTestRegistry(t *testing.T) (*registry.Registry, string) {
	t.Helper()
	root := t.TempDir()
	path := filepath.Join(root, "rf_switch.xml")
	require.NoError(t, os.WriteFile(path, []byte(switchXML), 0o644))

	reg := registry.New(registry.Options{SearchPaths: []string{root}})
	require.NoError(t, reg.Load(context.Background()))
	return reg, path
}

func newTestResolver(t *testing.T) *inspect.Resolver {
	t.Helper()
	reg, _ := newTestRegistry(t)
	d, err := Open(reg, "HM-LC-Sw1-FM")
	require.NoError(t, err)
	return inspect.NewResolver(reg, d)
}

func TestOpen(t *testing.T) {
	reg, path := newTestRegistry(t)

	t.Run("by type id", func(t *testing.T) {
		d, err := Open(reg, "HM-LC-Sw1-FM")
		require.NoError(t, err)
		assert.Equal(t, path, d.Path)
	})

	t.Run("by file", func(t *testing.T) {
		d, err := Open(reg, path)
		require.NoError(t, err)
		assert.Same(t, reg.ByID("HM-LC-Sw1-FM"), d)
	})

	t.Run("unknown type", func(t *testing.T) {
		_, err := Open(reg, "HM-NOPE")
		assert.ErrorIs(t, err, inspect.ErrTypeNotFound)
	})

	t.Run("broken file", func(t *testing.T) {
		broken := filepath.Join(t.TempDir(), "broken.xml")
		require.NoError(t, os.WriteFile(broken, []byte("<paramset/>"), 0o644))
		_, err := Open(reg, broken)
		assert.ErrorIs(t, err, ErrNotLoaded)
	})
}

func TestParseHex(t *testing.T) {
	tests := []struct {
		input string
		want  []byte
	}{
		{"C8", []byte{0xC8}},
		{"0xc8", []byte{0xC8}},
		{"0x4D 00", []byte{0x4D, 0x00}},
		{"01:02:03", []byte{0x01, 0x02, 0x03}},
		{"abc", []byte{0x0A, 0xBC}},
		{"", []byte{}},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseHex(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := ParseHex("zz")
	assert.Error(t, err)
}

func TestParseLayerFlag(t *testing.T) {
	layer, err := ParseLayerFlag("Conversion")
	require.NoError(t, err)
	assert.Equal(t, log.LayerConversion, layer)

	layer, err = ParseLayerFlag("registry")
	require.NoError(t, err)
	assert.Equal(t, log.LayerRegistry, layer)

	_, err = ParseLayerFlag("transport")
	assert.Error(t, err)
}

func TestParseLevelFlag(t *testing.T) {
	level, err := ParseLevelFlag("warn")
	require.NoError(t, err)
	assert.Equal(t, log.LevelWarning, level)
}

func TestRunInspect(t *testing.T) {
	r := newTestResolver(t)
	f := inspect.NewFormatter()

	t.Run("tree", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, RunInspect(r, "", f, &buf))
		out := buf.String()
		assert.Contains(t, out, "HM-LC-Sw1-FM")
		assert.Contains(t, out, "SWITCH")
		assert.Contains(t, out, "LEVEL_SET")
	})

	t.Run("parameter", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, RunInspect(r, "1/link/SHORT_ON_TIME", f, &buf))
		assert.Contains(t, buf.String(), "SHORT_ON_TIME")
	})

	t.Run("paramset", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, RunInspect(r, "1/values", f, &buf))
		assert.Contains(t, buf.String(), "STATE")
	})

	t.Run("frame", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, RunInspect(r, "frame/level_set", f, &buf))
		assert.Contains(t, buf.String(), "LEVEL_SET")
	})

	t.Run("missing channel", func(t *testing.T) {
		var buf bytes.Buffer
		err := RunInspect(r, "7/values", f, &buf)
		assert.ErrorIs(t, err, inspect.ErrChannelNotFound)
	})

	t.Run("no description selected", func(t *testing.T) {
		reg, _ := newTestRegistry(t)
		var buf bytes.Buffer
		assert.Error(t, RunInspect(inspect.NewResolver(reg, nil), "", f, &buf))
	})
}

func TestRunDecode(t *testing.T) {
	r := newTestResolver(t)
	f := inspect.NewFormatter()

	var buf bytes.Buffer
	require.NoError(t, RunDecode(r, "1/values/STATE", "C8", false, f, &buf))
	assert.Equal(t, "1/values/STATE = true\n", buf.String())

	buf.Reset()
	require.NoError(t, RunDecode(r, "HM-LC-Sw1-FM/1/v/STATE", "00", false, f, &buf))
	assert.Equal(t, "HM-LC-Sw1-FM/1/values/STATE = false\n", buf.String())

	buf.Reset()
	assert.Error(t, RunDecode(r, "1/values/STATE", "xyz", false, f, &buf))
	assert.ErrorIs(t, RunDecode(r, "1/values", "C8", false, f, &buf), inspect.ErrPartialPath)
}

func TestRunEncode(t *testing.T) {
	r := newTestResolver(t)

	var buf bytes.Buffer
	require.NoError(t, RunEncode(r, "1/link/SHORT_ON_TIME", "65", &buf))
	assert.Equal(t, "1/link/SHORT_ON_TIME <- 0x4D\n", buf.String())

	buf.Reset()
	require.NoError(t, RunEncode(r, "1/values/STATE", "true", &buf))
	assert.Equal(t, "1/values/STATE <- 0xC8\n", buf.String())

	buf.Reset()
	assert.ErrorIs(t, RunEncode(r, "1/values/NOPE", "1", &buf), inspect.ErrParameterNotFound)
}

func TestRunIdentify(t *testing.T) {
	reg, path := newTestRegistry(t)

	var buf bytes.Buffer
	require.NoError(t, RunIdentify(reg, 0, 0x0069, 0x12, &buf))
	out := buf.String()
	assert.Contains(t, out, "HM-LC-Sw1-FM")
	assert.Contains(t, out, "Switch actuator")
	assert.Contains(t, out, path)
	assert.Contains(t, out, "Channels:    2")

	buf.Reset()
	err := RunIdentify(reg, 0, 0x0070, 0x12, &buf)
	assert.ErrorIs(t, err, ErrNotIdentified)
	assert.Empty(t, buf.String())
}

func TestRunLog(t *testing.T) {
	capture := filepath.Join(t.TempDir(), "devdesc.cbor")
	fl, err := log.NewFileLogger(capture)
	require.NoError(t, err)

	ts := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	fl.Log(log.Event{
		Timestamp: ts, LoadID: "0123456789abcdef", Level: log.LevelInfo, Layer: log.LayerRegistry,
		Source: "/descriptions/rf_switch.xml", Component: "registry", Message: "loaded",
	})
	fl.Log(log.Event{
		Timestamp: ts, LoadID: "0123456789abcdef", Level: log.LevelError, Layer: log.LayerConversion,
		Component: "float_configtime", ParameterID: "SHORT_ON_TIME", Message: "value out of range", Data: []byte{0xFF},
	})
	require.NoError(t, fl.Close())

	t.Run("all", func(t *testing.T) {
		var buf bytes.Buffer
		n, err := RunLog(capture, log.Filter{}, &buf)
		require.NoError(t, err)
		assert.Equal(t, 2, n)
		out := buf.String()
		assert.Contains(t, out, "2026-01-02T03:04:05.000000Z [load:01234567]")
		assert.Contains(t, out, "  Source: /descriptions/rf_switch.xml")
		assert.Contains(t, out, "ERROR [float_configtime] SHORT_ON_TIME: value out of range (0xFF)")
	})

	t.Run("filtered by layer", func(t *testing.T) {
		layer := log.LayerConversion
		var buf bytes.Buffer
		n, err := RunLog(capture, log.Filter{Layer: &layer}, &buf)
		require.NoError(t, err)
		assert.Equal(t, 1, n)
		assert.NotContains(t, buf.String(), "loaded")
	})

	t.Run("missing file", func(t *testing.T) {
		var buf bytes.Buffer
		_, err := RunLog(filepath.Join(t.TempDir(), "none.cbor"), log.Filter{}, &buf)
		assert.Error(t, err)
	})
}

func TestShortenLoadID(t *testing.T) {
	assert.Equal(t, "01234567", shortenLoadID("0123456789"))
	assert.Equal(t, "abc", shortenLoadID("abc"))
}
