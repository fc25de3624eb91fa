package inspect

import (
	"errors"
	"fmt"

	"github.com/devdesc/devdesc-go/pkg/description"
)

// ErrTypeNotFound is returned when no description supports a path's type id.
var ErrTypeNotFound = errors.New("device type not found")

// Source looks descriptions up by supported type id.
// This is implemented by registry.Registry.
type Source interface {
	ByID(id string) *description.Device
}

// Resolver picks the inspector a path refers to: the description named by
// its type prefix, or the current one.
type Resolver struct {
	source  Source
	current *Inspector
}

// NewResolver creates a resolver over source. current may be nil.
func NewResolver(source Source, current *description.Device) *Resolver {
	r := &Resolver{source: source}
	if current != nil {
		r.current = NewInspector(current)
	}
	return r
}

// Current returns the inspector of the current description, or nil.
func (r *Resolver) Current() *Inspector {
	return r.current
}

// Use makes the description with the given type id current.
func (r *Resolver) Use(typeID string) (*Inspector, error) {
	insp, err := r.lookup(typeID)
	if err != nil {
		return nil, err
	}
	r.current = insp
	return insp, nil
}

// Resolve returns the inspector for path.
func (r *Resolver) Resolve(path *Path) (*Inspector, error) {
	if path == nil {
		return nil, errors.New("path is nil")
	}
	if path.TypeID != "" {
		return r.lookup(path.TypeID)
	}
	if r.current == nil {
		return nil, errors.New("no description selected")
	}
	return r.current, nil
}

func (r *Resolver) lookup(typeID string) (*Inspector, error) {
	if r.source == nil {
		return nil, fmt.Errorf("%w: %s", ErrTypeNotFound, typeID)
	}
	d := r.source.ByID(typeID)
	if d == nil {
		return nil, fmt.Errorf("%w: %s", ErrTypeNotFound, typeID)
	}
	return NewInspector(d), nil
}
