package description

import (
	"strings"

	"github.com/devdesc/devdesc-go/pkg/log"
	"github.com/devdesc/devdesc-go/pkg/markup"
	"github.com/devdesc/devdesc-go/pkg/variant"
)

// parser carries the collaborators used while turning a markup tree into a
// description. All schema problems go through rep; nothing is returned as
// an error.
type parser struct {
	rep     log.Reporter
	numbers variant.NumberParser
}

func newParser(rep log.Reporter, numbers variant.NumberParser) *parser {
	if numbers == nil {
		numbers = variant.Tolerant
	}
	return &parser{rep: rep.WithLayer(log.LayerSchema), numbers: numbers}
}

// int parses an integer attribute. Garbage is reported and yields the
// numeric prefix or 0.
func (p *parser) int(component, name, value string) int64 {
	n, ok := p.numbers.Int(value)
	if !ok {
		p.rep.Warningf(component, "invalid integer %q for attribute %q", value, name)
	}
	return n
}

func (p *parser) float(component, name, value string) float64 {
	f, ok := p.numbers.Float(value)
	if !ok {
		p.rep.Warningf(component, "invalid number %q for attribute %q", value, name)
	}
	return f
}

func (p *parser) unknownAttr(component, name string) {
	p.rep.Warningf(component, "unknown attribute %q", name)
}

func (p *parser) unknownNode(component, name string) {
	p.rep.Warningf(component, "unknown node %q", name)
}

// splitList splits a comma separated attribute, trimming and lower casing
// each element.
func splitList(value string) []string {
	parts := strings.Split(value, ",")
	out := parts[:0]
	for _, part := range parts {
		part = strings.ToLower(strings.TrimSpace(part))
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}

// splitLast splits "a:b" at the last separator. Without a separator the
// whole value is returned as the first part.
func splitLast(value string, sep byte) (string, string) {
	i := strings.LastIndexByte(value, sep)
	if i < 0 {
		return value, ""
	}
	return value[:i], value[i+1:]
}

// text returns the trimmed character data of n.
func text(n *markup.Node) string {
	return strings.TrimSpace(n.Text)
}
