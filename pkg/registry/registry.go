// Package registry loads a directory tree of device descriptions and
// identifies devices against them.
//
// Descriptions are loaded concurrently, cached by path and deduplicated by
// content fingerprint. Identification picks the supported type with the
// highest priority across all loaded descriptions.
package registry

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"runtime"
	"slices"
	"sync"

	"github.com/devdesc/devdesc-go/pkg/description"
	"github.com/devdesc/devdesc-go/pkg/log"
	"github.com/devdesc/devdesc-go/pkg/markup"
	"golang.org/x/sync/errgroup"
)

// ErrNoSearchPaths is returned by Load when no search path is configured.
var ErrNoSearchPaths = errors.New("no search paths configured")

const component = "registry"

// Options configure a Registry.
type Options struct {
	// SearchPaths are files or directories. Directories are walked
	// recursively.
	SearchPaths []string

	// Family is passed to every loaded description.
	Family int64

	// Logger receives registry, schema and conversion diagnostics.
	Logger log.Logger

	// Concurrency bounds the number of parallel loads. Zero means
	// GOMAXPROCS.
	Concurrency int
}

// Registry is a thread-safe cache of loaded descriptions.
type Registry struct {
	opts Options
	rep  log.Reporter

	mu            sync.RWMutex
	byPath        map[string]*description.Device
	byFingerprint map[string]*description.Device
	order         []*description.Device // unique descriptions, by path
}

// New creates an empty registry.
func New(opts Options) *Registry {
	return &Registry{
		opts:          opts,
		rep:           log.Reporter{Logger: log.OrNoop(opts.Logger), Layer: log.LayerRegistry},
		byPath:        make(map[string]*description.Device),
		byFingerprint: make(map[string]*description.Device),
	}
}

// Load scans the search paths and loads every description not yet cached.
// Descriptions that fail to load are reported and skipped. The returned
// error covers unreadable search paths and cancellation only.
func (r *Registry) Load(ctx context.Context) error {
	if len(r.opts.SearchPaths) == 0 {
		return ErrNoSearchPaths
	}

	var files []string
	for _, root := range r.opts.SearchPaths {
		found, err := scan(root)
		if err != nil {
			return err
		}
		files = append(files, found...)
	}
	slices.Sort(files)
	files = slices.Compact(files)

	r.mu.RLock()
	pending := slices.DeleteFunc(files, func(path string) bool {
		_, cached := r.byPath[path]
		return cached
	})
	r.mu.RUnlock()

	loaded := make([]*description.Device, len(pending))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(r.concurrency())
	for i, path := range pending {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			loaded[i] = description.Load(path, description.Options{
				Logger: r.opts.Logger,
				Family: r.opts.Family,
			})
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	for _, d := range loaded {
		r.addLocked(d)
	}
	r.rep.Report(log.Event{
		Level:     log.LevelInfo,
		Component: component,
		Message:   fmt.Sprintf("%d descriptions cached, %d new files", len(r.order), len(pending)),
	})
	return nil
}

// Get returns the description at path, loading it on first use. The result
// may not be Loaded; check its Err.
func (r *Registry) Get(path string) *description.Device {
	r.mu.RLock()
	d, ok := r.byPath[path]
	r.mu.RUnlock()
	if ok {
		return d
	}

	d = description.Load(path, description.Options{Logger: r.opts.Logger, Family: r.opts.Family})

	r.mu.Lock()
	defer r.mu.Unlock()
	if cached, ok := r.byPath[path]; ok {
		return cached
	}
	return r.addLocked(d)
}

// addLocked caches d and returns the description now stored for its path.
// Callers must hold mu.
func (r *Registry) addLocked(d *description.Device) *description.Device {
	if !d.Loaded() {
		r.rep.Report(log.Event{Level: log.LevelError, Component: component, Source: d.Path, Message: fmt.Sprintf("skipped: %v", d.Err())})
		r.byPath[d.Path] = d
		return d
	}
	if first, dup := r.byFingerprint[d.Fingerprint]; dup {
		r.rep.Report(log.Event{
			Level:     log.LevelInfo,
			Component: component,
			Source:    d.Path,
			Message:   fmt.Sprintf("same content as %s", first.Path),
		})
		r.byPath[d.Path] = first
		return first
	}
	r.byPath[d.Path] = d
	r.byFingerprint[d.Fingerprint] = d
	i, _ := slices.BinarySearchFunc(r.order, d.Path, func(e *description.Device, path string) int {
		switch {
		case e.Path < path:
			return -1
		case e.Path > path:
			return 1
		default:
			return 0
		}
	})
	r.order = slices.Insert(r.order, i, d)
	return d
}

// Invalidate drops the cached description at path. The next Load or Get
// reads it again.
func (r *Registry) Invalidate(path string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	d, ok := r.byPath[path]
	if !ok {
		return
	}
	delete(r.byPath, path)
	if d.Path != path {
		// Alias of a duplicate; the original stays.
		return
	}
	delete(r.byFingerprint, d.Fingerprint)
	r.order = slices.DeleteFunc(r.order, func(e *description.Device) bool { return e == d })
	for p, alias := range r.byPath {
		if alias == d {
			delete(r.byPath, p)
		}
	}
}

// Devices returns the unique loaded descriptions ordered by path.
func (r *Registry) Devices() []*description.Device {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Clone(r.order)
}

// Len returns the number of unique loaded descriptions.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.order)
}

// Identify returns the supported type matching a pairing announcement with
// the highest priority, or nil. Ties go to the description with the lowest
// path.
func (r *Registry) Identify(family, typeNumber, firmware int64) *description.DeviceType {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var best *description.DeviceType
	for _, d := range r.order {
		for _, t := range d.SupportedTypes {
			if !t.MatchesFamily(family, typeNumber, firmware) {
				continue
			}
			if best == nil || t.Priority > best.Priority {
				best = t
			}
		}
	}
	if best == nil {
		r.rep.Report(log.Event{
			Level:     log.LevelDebug,
			Component: component,
			Message:   fmt.Sprintf("no type for family %d, type 0x%04X, firmware 0x%02X", family, typeNumber, firmware),
		})
	}
	return best
}

// TypeByID returns the supported type with the given id, or nil.
func (r *Registry) TypeByID(id string) *description.DeviceType {
	if d := r.ByID(id); d != nil {
		return d.TypeByID(id)
	}
	return nil
}

// ByID returns the description supporting the type id, or nil.
func (r *Registry) ByID(id string) *description.Device {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, d := range r.order {
		if d.TypeByID(id) != nil {
			return d
		}
	}
	return nil
}

func (r *Registry) concurrency() int {
	if r.opts.Concurrency > 0 {
		return r.opts.Concurrency
	}
	return runtime.GOMAXPROCS(0)
}

// scan lists the description files below root. A root naming a file is
// returned as is.
func scan(root string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(root, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if entry.IsDir() {
			return nil
		}
		if _, err := markup.FormatForPath(path); err == nil {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scanning %s: %w", root, err)
	}
	return files, nil
}
