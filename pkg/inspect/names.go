package inspect

import (
	"strings"

	"github.com/devdesc/devdesc-go/pkg/description"
)

// Name table for resolving paramset names to types. Besides the schema
// aliases it accepts the one letter forms used in the shell.
var paramsetNames = map[string]description.ParamsetType{
	"master":    description.ParamsetMaster,
	"config":    description.ParamsetMaster,
	"m":         description.ParamsetMaster,
	"values":    description.ParamsetValues,
	"variables": description.ParamsetValues,
	"v":         description.ParamsetValues,
	"link":      description.ParamsetLink,
	"l":         description.ParamsetLink,
}

// paramsetOrder is the display order of parameter sets.
var paramsetOrder = []description.ParamsetType{
	description.ParamsetMaster,
	description.ParamsetValues,
	description.ParamsetLink,
}

// ResolveParamsetName resolves a paramset name to its type (case-insensitive).
func ResolveParamsetName(name string) (description.ParamsetType, bool) {
	typ, ok := paramsetNames[strings.ToLower(name)]
	return typ, ok
}

// GetParamsetName returns the path name for a paramset type.
func GetParamsetName(typ description.ParamsetType) string {
	return strings.ToLower(typ.String())
}

// ResolveParameterName resolves a parameter id within a set
// (case-insensitive). An exact match wins over a folded one.
func ResolveParameterName(set *description.ParameterSet, name string) (*description.Parameter, bool) {
	if set == nil {
		return nil, false
	}
	if p := set.GetParameter(name); p != nil {
		return p, true
	}
	for _, p := range set.Parameters {
		if strings.EqualFold(p.ID, name) {
			return p, true
		}
	}
	return nil, false
}

// ResolveFrameName resolves a frame id (case-insensitive).
func ResolveFrameName(d *description.Device, name string) (*description.Frame, bool) {
	if f := d.Frame(name); f != nil {
		return f, true
	}
	for id, f := range d.Frames {
		if strings.EqualFold(id, name) {
			return f, true
		}
	}
	return nil, false
}

// ParameterNames returns the ids of a set in declaration order, for
// completion.
func ParameterNames(set *description.ParameterSet) []string {
	if set == nil {
		return nil
	}
	names := make([]string, 0, len(set.Parameters))
	for _, p := range set.Parameters {
		names = append(names, p.ID)
	}
	return names
}
