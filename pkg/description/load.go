package description

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/devdesc/devdesc-go/pkg/log"
	"github.com/devdesc/devdesc-go/pkg/markup"
	"github.com/devdesc/devdesc-go/pkg/rpc"
	"github.com/devdesc/devdesc-go/pkg/variant"
	"github.com/google/uuid"
)

// ErrNotDeviceRoot is recorded when a document's root element is not
// "device".
var ErrNotDeviceRoot = errors.New("root element is not a device")

// Options are the collaborators used by Load. The zero value is usable:
// diagnostics are discarded, numbers are parsed tolerantly and rpc_binary
// steps use the CBOR binary codec.
type Options struct {
	// Logger receives schema and conversion diagnostics.
	Logger log.Logger

	Numbers variant.NumberParser
	RPC     rpc.Codec

	// Family is the device family id the description belongs to.
	Family int64

	// SysinfoCount is the channel count a paired device announced. When
	// positive, the channel reading count_from_sysinfo is repeated that
	// many times.
	SysinfoCount int64
}

// Load reads and links the description at path. It never panics or
// returns an error; check Loaded and Err on the result.
func Load(path string, opts Options) *Device {
	d, rep := start(path, opts)
	doc, err := markup.LoadFile(path)
	if err != nil {
		d.err = err
		rep.Errorf("device", "%v", err)
		return d
	}
	d.Fingerprint = doc.Fingerprint
	finish(d, doc.Root, opts, rep)
	return d
}

// LoadDocument links an already parsed document. doc.Path decides the
// family specific rules, like for Load.
func LoadDocument(doc *markup.Document, opts Options) *Device {
	d, rep := start(doc.Path, opts)
	d.Fingerprint = doc.Fingerprint
	finish(d, doc.Root, opts, rep)
	return d
}

func start(path string, opts Options) (*Device, log.Reporter) {
	d := newDevice(opts.Family)
	d.Path = path
	d.LoadID = uuid.NewString()
	rep := log.Reporter{Logger: log.OrNoop(opts.Logger), LoadID: d.LoadID, Source: path}
	return d, rep
}

func finish(d *Device, root *markup.Node, opts Options, rep log.Reporter) {
	p := newParser(rep, opts.Numbers)
	if root == nil || root.Name != "device" {
		d.err = fmt.Errorf("%s: %w", d.Path, ErrNotDeviceRoot)
		p.rep.Errorf("device", "%v", d.err)
		return
	}

	fileName := filepath.Base(d.Path)
	templates := map[string]*ParameterSet{}
	p.parseDevice(d, root, fileName, templates)
	p.link(d, templates)
	if opts.SysinfoCount > 0 {
		p.expandSysinfo(d, opts.SysinfoCount)
	}
	if strings.HasPrefix(fileName, "rf_") && d.SupportsAES {
		p.injectAESActive(d)
	}

	codec := opts.RPC
	if codec == nil {
		codec = rpc.NewBinaryCodec()
	}
	bindAll(d, codec, rep)
	d.loaded = true
}

// Err returns the reason the description could not be loaded, or nil.
// Schema problems inside a loaded description are only reported.
func (d *Device) Err() error { return d.err }
