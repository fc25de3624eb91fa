package inspect

import (
	"fmt"
	"strings"

	"github.com/devdesc/devdesc-go/pkg/description"
	"github.com/devdesc/devdesc-go/pkg/log"
	"github.com/devdesc/devdesc-go/pkg/variant"
)

// Formatter formats inspection output.
type Formatter struct {
	// ShowMetadata includes range, default, and operation information
	ShowMetadata bool

	// ShowPhysical includes the packet placement of parameters
	ShowPhysical bool

	// IndentWidth is the number of spaces per indent level
	IndentWidth int
}

// NewFormatter creates a new Formatter with default settings.
func NewFormatter() *Formatter {
	return &Formatter{
		ShowMetadata: true,
		ShowPhysical: false,
		IndentWidth:  2,
	}
}

// Indent returns the content with indentation.
func (f *Formatter) Indent(depth int, content string) string {
	width := f.IndentWidth
	if width == 0 {
		width = 2
	}
	indent := strings.Repeat(" ", depth*width)
	return indent + content
}

// FormatValue formats a decoded value for display, with its unit.
func (f *Formatter) FormatValue(value variant.Variant, unit string) string {
	var s string
	switch value.Kind() {
	case variant.KindVoid:
		return "void"
	case variant.KindString:
		s = fmt.Sprintf("%q", value.StringValue())
	case variant.KindFloat:
		s = fmt.Sprintf("%.2f", value.FloatValue())
	case variant.KindBinary:
		s = FormatBytes(value.BinaryValue())
	default:
		s = value.AsString()
	}
	if unit != "" {
		return s + " " + unit
	}
	return s
}

// FormatBytes formats packet bytes as upper case hex with a 0x prefix.
func FormatBytes(data []byte) string {
	if len(data) == 0 {
		return "(empty)"
	}
	return "0x" + variant.HexString(data)
}

// FormatIndex formats a byte.bit position like the description documents.
func FormatIndex(index float64) string {
	return fmt.Sprintf("%.1f", index)
}

// FormatPhysical formats the packet placement of a parameter.
func FormatPhysical(p PhysicalInfo) string {
	s := fmt.Sprintf("%s %s@%s+%s", p.Interface, p.Type, FormatIndex(p.Index), FormatIndex(p.Size))
	if p.List != description.DefaultList && p.Interface == description.InterfaceConfig {
		s += fmt.Sprintf(" list %d", p.List)
	}
	return s
}

// FormatConversions formats a conversion pipeline in to-packet order.
func FormatConversions(kinds []description.ConversionKind) string {
	if len(kinds) == 0 {
		return "none"
	}
	names := make([]string, len(kinds))
	for i, k := range kinds {
		names[i] = k.String()
	}
	return strings.Join(names, " > ")
}

// FormatEvent formats a diagnostic for display.
func FormatEvent(e log.Event) string {
	var sb strings.Builder
	sb.WriteString(e.Level.String())
	if e.Component != "" {
		sb.WriteString(" [")
		sb.WriteString(e.Component)
		sb.WriteString("]")
	}
	if e.ParameterID != "" {
		sb.WriteString(" ")
		sb.WriteString(e.ParameterID)
	}
	sb.WriteString(": ")
	sb.WriteString(e.Message)
	if len(e.Data) > 0 {
		sb.WriteString(" (")
		sb.WriteString(FormatBytes(e.Data))
		sb.WriteString(")")
	}
	return sb.String()
}

// FormatParameter formats one parameter row.
func (f *Formatter) FormatParameter(p ParameterInfo) string {
	var sb strings.Builder
	sb.WriteString(p.ID)
	sb.WriteString(": ")
	sb.WriteString(p.Logical.String())

	if f.ShowMetadata {
		if p.Min != "" || p.Max != "" {
			fmt.Fprintf(&sb, " [%s..%s]", p.Min, p.Max)
		}
		if p.Unit != "" {
			fmt.Fprintf(&sb, " %s", p.Unit)
		}
		if p.Default != "" {
			fmt.Fprintf(&sb, " default=%s", p.Default)
		}
		if ops := p.Operations.String(); ops != "" {
			fmt.Fprintf(&sb, " (%s)", ops)
		}
	}
	if f.ShowPhysical {
		fmt.Fprintf(&sb, " {%s; %s}", FormatPhysical(p.Physical), FormatConversions(p.Conversions))
	}
	return sb.String()
}

// FormatParamset formats a parameter set with one line per parameter.
func (f *Formatter) FormatParamset(set *ParamsetInfo, depth int) string {
	var sb strings.Builder
	header := GetParamsetName(set.Type)
	if set.ID != "" {
		header += fmt.Sprintf(" (%s)", set.ID)
	}
	sb.WriteString(f.Indent(depth, header) + "\n")
	if len(set.Parameters) == 0 {
		sb.WriteString(f.Indent(depth+1, "(no parameters)") + "\n")
		return sb.String()
	}
	for _, p := range set.Parameters {
		sb.WriteString(f.Indent(depth+1, f.FormatParameter(p)) + "\n")
	}
	return sb.String()
}

// FormatChannel formats a channel and its parameter sets.
func (f *Formatter) FormatChannel(ch *ChannelInfo, depth int) string {
	var sb strings.Builder
	header := fmt.Sprintf("Channel %d", ch.Index)
	if ch.Count > 1 {
		header = fmt.Sprintf("Channels %d-%d", ch.Index, ch.Index+ch.Count-1)
	}
	if ch.Type != "" {
		header += ": " + ch.Type
	}
	if ch.Direction != 0 {
		header += fmt.Sprintf(" (%s)", ch.Direction)
	}
	sb.WriteString(f.Indent(depth, header) + "\n")
	for i := range ch.Paramsets {
		sb.WriteString(f.FormatParamset(&ch.Paramsets[i], depth+1))
	}
	return sb.String()
}

// FormatFrame formats a frame on one line.
func (f *Formatter) FormatFrame(fr *FrameInfo) string {
	s := fmt.Sprintf("%s %s type=0x%02X", fr.ID, fr.Direction, fr.Type)
	if fr.Subtype >= 0 {
		s += fmt.Sprintf(" subtype=0x%02X", fr.Subtype)
	}
	if len(fr.Fields) > 0 {
		s += " [" + strings.Join(fr.Fields, ", ") + "]"
	}
	return s
}

// FormatTree formats the description tree for display.
func (f *Formatter) FormatTree(tree *DeviceTree) string {
	var sb strings.Builder

	// Header
	fmt.Fprintf(&sb, "Description: %s\n", tree.Path)
	fmt.Fprintf(&sb, "Family: %d  Version: %d\n", tree.Family, tree.Version)
	if tree.Fingerprint != "" {
		fmt.Fprintf(&sb, "Fingerprint: %s\n", tree.Fingerprint)
	}
	for _, t := range tree.Types {
		line := fmt.Sprintf("Type %s", t.ID)
		if t.Name != "" {
			line += fmt.Sprintf(" %q", t.Name)
		}
		if t.TypeID >= 0 {
			line += fmt.Sprintf(" id=0x%04X", t.TypeID)
		}
		line += fmt.Sprintf(" priority=%d", t.Priority)
		sb.WriteString(line + "\n")
	}
	sb.WriteString("---\n")

	for i := range tree.Channels {
		sb.WriteString(f.FormatChannel(&tree.Channels[i], 0))
	}

	if len(tree.Frames) > 0 {
		sb.WriteString("Frames\n")
		for i := range tree.Frames {
			sb.WriteString(f.Indent(1, f.FormatFrame(&tree.Frames[i])) + "\n")
		}
	}

	return sb.String()
}
