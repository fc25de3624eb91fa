// Package commands implements the devdesc CLI commands.
package commands

import (
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/devdesc/devdesc-go/pkg/description"
	"github.com/devdesc/devdesc-go/pkg/inspect"
	"github.com/devdesc/devdesc-go/pkg/log"
	"github.com/devdesc/devdesc-go/pkg/markup"
	"github.com/devdesc/devdesc-go/pkg/registry"
)

// ErrNotLoaded is returned when a description file could not be loaded.
var ErrNotLoaded = errors.New("description not loaded")

// Open returns the description named by arg: a description file when arg
// has a document extension and exists, a supported type id otherwise.
func Open(reg *registry.Registry, arg string) (*description.Device, error) {
	if _, err := markup.FormatForPath(arg); err == nil {
		if _, err := os.Stat(arg); err == nil {
			d := reg.Get(arg)
			if !d.Loaded() {
				return nil, fmt.Errorf("%w: %v", ErrNotLoaded, d.Err())
			}
			return d, nil
		}
	}
	d := reg.ByID(arg)
	if d == nil {
		return nil, fmt.Errorf("%w: %s", inspect.ErrTypeNotFound, arg)
	}
	return d, nil
}

// ParseHex parses packet bytes given as hex, with an optional 0x prefix and
// optional spaces or colons between bytes.
func ParseHex(s string) ([]byte, error) {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(strings.TrimPrefix(s, "0x"), "0X")
	s = strings.NewReplacer(" ", "", ":", "").Replace(s)
	if len(s)%2 == 1 {
		s = "0" + s
	}
	data, err := hex.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("invalid hex data: %w", err)
	}
	return data, nil
}

// ParseLevelFlag parses a level flag value.
func ParseLevelFlag(s string) (log.Level, error) {
	return log.ParseLevel(s)
}

// ParseLayerFlag parses a layer flag value.
func ParseLayerFlag(s string) (log.Layer, error) {
	switch strings.ToLower(s) {
	case "schema":
		return log.LayerSchema, nil
	case "conversion":
		return log.LayerConversion, nil
	case "registry":
		return log.LayerRegistry, nil
	default:
		return 0, fmt.Errorf("invalid layer %q: must be schema, conversion, or registry", s)
	}
}
