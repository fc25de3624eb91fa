package registry

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/devdesc/devdesc-go/pkg/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func typeXML(id string, priority int) string {
	return fmt.Sprintf(`<device version="1">
  <supported_types>
    <type name="%[1]s" id="%[1]s" priority="%[2]d">
      <type_id>0x0069</type_id>
    </type>
  </supported_types>
  <channels>
    <channel index="1" type="SWITCH"/>
  </channels>
</device>`, id, priority)
}

// writeTree writes files relative to a fresh directory and returns it.
func writeTree(t *testing.T, files map[string]string) string {
	t.Helper()
	root := t.TempDir()
	for name, content := range files {
		path := filepath.Join(root, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
	return root
}

func newTestRegistry(t *testing.T) (*Registry, string, *log.Collector) {
	t.Helper()
	root := writeTree(t, map[string]string{
		"a/hm_low.xml":   typeXML("HM-LOW", 1),
		"b/hm_high.xml":  typeXML("HM-HIGH", 5),
		"c/copy.xml":     typeXML("HM-LOW", 1),
		"broken.xml":     `<paramset/>`,
		"notes/info.txt": "not a description",
	})
	collector := log.NewCollector()
	r := New(Options{SearchPaths: []string{root}, Logger: collector, Concurrency: 2})
	require.NoError(t, r.Load(context.Background()))
	return r, root, collector
}

func TestRegistryLoad(t *testing.T) {
	r, root, collector := newTestRegistry(t)

	assert.Equal(t, 2, r.Len(), "duplicate and broken files are not listed")
	devices := r.Devices()
	require.Len(t, devices, 2)
	assert.Equal(t, filepath.Join(root, "a/hm_low.xml"), devices[0].Path)
	assert.Equal(t, filepath.Join(root, "b/hm_high.xml"), devices[1].Path)

	var skipped int
	for _, e := range collector.Events() {
		if e.Layer == log.LayerRegistry && e.Level == log.LevelError {
			skipped++
			assert.Equal(t, filepath.Join(root, "broken.xml"), e.Source)
		}
	}
	assert.Equal(t, 1, skipped)
}

func TestRegistryDeduplicatesByFingerprint(t *testing.T) {
	r, root, _ := newTestRegistry(t)

	original := r.Get(filepath.Join(root, "a/hm_low.xml"))
	copied := r.Get(filepath.Join(root, "c/copy.xml"))
	assert.Same(t, original, copied)
}

func TestRegistryIdentifyByPriority(t *testing.T) {
	r, _, _ := newTestRegistry(t)

	typ := r.Identify(0, 0x0069, 0x10)
	require.NotNil(t, typ)
	assert.Equal(t, "HM-HIGH", typ.ID)

	assert.Nil(t, r.Identify(0, 0x0070, 0x10))
	assert.Nil(t, r.Identify(1, 0x0069, 0x10), "family must match")
}

func TestRegistryByID(t *testing.T) {
	r, root, _ := newTestRegistry(t)

	d := r.ByID("HM-LOW")
	require.NotNil(t, d)
	assert.Equal(t, filepath.Join(root, "a/hm_low.xml"), d.Path)

	typ := r.TypeByID("HM-HIGH")
	require.NotNil(t, typ)
	assert.Equal(t, int64(5), typ.Priority)

	assert.Nil(t, r.ByID("HM-NONE"))
	assert.Nil(t, r.TypeByID("HM-NONE"))
}

func TestRegistryCachesByPath(t *testing.T) {
	r, root, _ := newTestRegistry(t)
	low := filepath.Join(root, "a/hm_low.xml")
	before := r.Get(low)

	require.NoError(t, r.Load(context.Background()))
	assert.Same(t, before, r.Get(low), "a second Load keeps cached descriptions")

	r.Invalidate(low)
	assert.Equal(t, 1, r.Len())

	require.NoError(t, r.Load(context.Background()))
	assert.Equal(t, 2, r.Len())
	assert.NotSame(t, before, r.Get(low))
}

func TestRegistryGetLoadsOnDemand(t *testing.T) {
	root := writeTree(t, map[string]string{"x.xml": typeXML("HM-X", 0)})
	r := New(Options{})

	d := r.Get(filepath.Join(root, "x.xml"))
	require.True(t, d.Loaded())
	assert.Equal(t, 1, r.Len())
	assert.Same(t, d, r.ByID("HM-X"))

	missing := r.Get(filepath.Join(root, "missing.xml"))
	assert.False(t, missing.Loaded())
	assert.Equal(t, 1, r.Len())
}

func TestRegistryLoadErrors(t *testing.T) {
	r := New(Options{})
	assert.True(t, errors.Is(r.Load(context.Background()), ErrNoSearchPaths))

	r = New(Options{SearchPaths: []string{filepath.Join(t.TempDir(), "missing")}})
	assert.Error(t, r.Load(context.Background()))
}

func TestRegistryLoadCancelled(t *testing.T) {
	root := writeTree(t, map[string]string{"x.xml": typeXML("HM-X", 0)})
	r := New(Options{SearchPaths: []string{root}})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.True(t, errors.Is(r.Load(ctx), context.Canceled))
	assert.Equal(t, 0, r.Len())
}
