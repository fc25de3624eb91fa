package inspect

import (
	"testing"

	"github.com/devdesc/devdesc-go/pkg/description"
)

func TestResolveParamsetName(t *testing.T) {
	tests := []struct {
		name string
		want description.ParamsetType
	}{
		{"master", description.ParamsetMaster},
		{"CONFIG", description.ParamsetMaster},
		{"Values", description.ParamsetValues},
		{"variables", description.ParamsetValues},
		{"v", description.ParamsetValues},
		{"LINK", description.ParamsetLink},
	}

	for _, tt := range tests {
		got, ok := ResolveParamsetName(tt.name)
		if !ok {
			t.Errorf("ResolveParamsetName(%q) not found", tt.name)
			continue
		}
		if got != tt.want {
			t.Errorf("ResolveParamsetName(%q) = %v, want %v", tt.name, got, tt.want)
		}
	}

	if _, ok := ResolveParamsetName("none"); ok {
		t.Error("none should not resolve")
	}
}

func TestGetParamsetName(t *testing.T) {
	if got := GetParamsetName(description.ParamsetLink); got != "link" {
		t.Errorf("GetParamsetName(link) = %q", got)
	}
	if got := GetParamsetName(description.ParamsetNone); got != "" {
		t.Errorf("GetParamsetName(none) = %q, want empty", got)
	}
}

func TestResolveParameterName(t *testing.T) {
	set := description.NewParameterSet(description.ParamsetValues)
	exact := description.NewParameter("state")
	upper := description.NewParameter("STATE")
	level := description.NewParameter("LEVEL")
	set.Parameters = []*description.Parameter{exact, upper, level}

	if p, ok := ResolveParameterName(set, "STATE"); !ok || p != upper {
		t.Error("exact match should win over case folding")
	}
	if p, ok := ResolveParameterName(set, "level"); !ok || p != level {
		t.Error("lower case name should resolve to LEVEL")
	}
	if _, ok := ResolveParameterName(set, "MISSING"); ok {
		t.Error("MISSING should not resolve")
	}
	if _, ok := ResolveParameterName(nil, "STATE"); ok {
		t.Error("nil set should not resolve")
	}

	names := ParameterNames(set)
	if len(names) != 3 || names[2] != "LEVEL" {
		t.Errorf("ParameterNames() = %v", names)
	}
}
