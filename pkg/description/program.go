package description

import (
	"strings"

	"github.com/devdesc/devdesc-go/pkg/markup"
	"github.com/devdesc/devdesc-go/pkg/variant"
)

// StartType says when a device program is started.
type StartType uint8

const (
	StartNone StartType = iota
	StartOnce
	StartInterval
	StartPermanent
)

// String returns the schema name of the start type.
func (s StartType) String() string {
	switch s {
	case StartOnce:
		return "once"
	case StartInterval:
		return "interval"
	case StartPermanent:
		return "permanent"
	default:
		return "none"
	}
}

// Program is an external program a device family runs for the device.
type Program struct {
	Path      string
	Arguments []string
	StartType StartType

	// Interval is in seconds and only used with StartInterval.
	Interval uint32
}

func (p *parser) parseProgram(n *markup.Node) *Program {
	const component = "run_program"
	for _, a := range n.Attrs {
		p.unknownAttr(component, a.Name)
	}
	prog := &Program{}
	for _, c := range n.Children {
		for _, a := range c.Attrs {
			p.unknownAttr(c.Name, a.Name)
		}
		switch c.Name {
		case "path":
			prog.Path = text(c)
		case "arguments":
			for _, arg := range c.Children {
				if arg.Name != "argument" {
					p.unknownNode(c.Name, arg.Name)
					continue
				}
				prog.Arguments = append(prog.Arguments, text(arg))
			}
		case "start_type":
			switch v := strings.ToLower(text(c)); v {
			case "once":
				prog.StartType = StartOnce
			case "interval":
				prog.StartType = StartInterval
			case "permanent":
				prog.StartType = StartPermanent
			default:
				p.rep.Warningf(component, "unknown start_type %q", v)
			}
		case "interval":
			prog.Interval = variant.Unsigned(text(c))
		default:
			p.unknownNode(component, c.Name)
		}
	}
	return prog
}
