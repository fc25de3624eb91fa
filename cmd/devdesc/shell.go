package main

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/chzyer/readline"
	"github.com/devdesc/devdesc-go/cmd/devdesc/commands"
	"github.com/devdesc/devdesc-go/pkg/inspect"
	"github.com/devdesc/devdesc-go/pkg/registry"
	"github.com/devdesc/devdesc-go/pkg/variant"
)

// Shell is the interactive codec console.
type Shell struct {
	reg       *registry.Registry
	family    int64
	resolver  *inspect.Resolver
	formatter *inspect.Formatter
	rl        *readline.Instance
}

// NewShell creates a shell over the registry. historyFile may be empty.
func NewShell(reg *registry.Registry, family int64, historyFile string) (*Shell, error) {
	completer := readline.NewPrefixCompleter(
		readline.PcItem("use"),
		readline.PcItem("types"),
		readline.PcItem("inspect"),
		readline.PcItem("decode"),
		readline.PcItem("encode"),
		readline.PcItem("identify"),
		readline.PcItem("physical"),
		readline.PcItem("help"),
		readline.PcItem("quit"),
	)
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "devdesc> ",
		HistoryFile:     historyFile,
		AutoComplete:    completer,
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create readline: %w", err)
	}

	return &Shell{
		reg:       reg,
		family:    family,
		resolver:  inspect.NewResolver(reg, nil),
		formatter: inspect.NewFormatter(),
		rl:        rl,
	}, nil
}

// Stdout returns a writer that properly coordinates with the readline input.
// Use this for log output to avoid interfering with the command prompt.
func (s *Shell) Stdout() io.Writer {
	return s.rl.Stdout()
}

// Use selects the current description by type id or file.
func (s *Shell) Use(arg string) error {
	d, err := commands.Open(s.reg, arg)
	if err != nil {
		return err
	}
	s.resolver = inspect.NewResolver(s.reg, d)
	s.setPrompt(arg)
	return nil
}

func (s *Shell) setPrompt(name string) {
	s.rl.SetPrompt(fmt.Sprintf("devdesc %s> ", name))
}

// Run starts the interactive command loop.
func (s *Shell) Run(ctx context.Context) {
	defer s.rl.Close()

	out := s.rl.Stdout()
	s.printHelp()

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		line, err := s.rl.Readline()
		if err != nil {
			// EOF or interrupt
			if err == readline.ErrInterrupt {
				continue
			}
			fmt.Fprintln(out, "Exiting...")
			return
		}

		input := strings.TrimSpace(line)
		if input == "" {
			continue
		}

		parts := strings.Fields(input)
		cmd := strings.ToLower(parts[0])
		args := parts[1:]

		switch cmd {
		case "help", "?":
			s.printHelp()

		case "use", "u":
			s.cmdUse(args)

		case "types", "t":
			s.cmdTypes()

		case "inspect", "i":
			s.cmdInspect(args)

		case "decode", "d":
			s.cmdDecode(args)

		case "encode", "e":
			s.cmdEncode(args)

		case "identify", "id":
			s.cmdIdentify(args)

		case "physical":
			s.formatter.ShowPhysical = !s.formatter.ShowPhysical
			fmt.Fprintf(out, "Physical layout display: %v\n", s.formatter.ShowPhysical)

		case "quit", "exit", "q":
			fmt.Fprintln(out, "Exiting...")
			return

		default:
			fmt.Fprintf(out, "Unknown command: %s (type 'help' for commands)\n", cmd)
		}
	}
}

func (s *Shell) printHelp() {
	fmt.Fprintln(s.rl.Stdout(), `
Device Description Commands:
  Selection:
    use <type-id|file>          - Select the current description
    types                       - List loaded descriptions and their types
    identify <type> <firmware>  - Find the type for a pairing announcement

  Inspection:
    inspect [path]              - Inspect the description (or a channel/set/parameter)
    physical                    - Toggle packet layout display

  Codec:
    decode <path> <hex> [event] - Decode packet bytes
    encode <path> <value>       - Encode a value

  General:
    help                        - Show this help
    quit                        - Exit shell

  Path Format:
    [type/]channel/paramset/parameter - e.g., 1/values/STATE
    [type/]frame/frame-id             - e.g., frame/LEVEL_SET`)
}

func (s *Shell) cmdUse(args []string) {
	out := s.rl.Stdout()
	if len(args) != 1 {
		fmt.Fprintln(out, "Usage: use <type-id|file>")
		return
	}
	if err := s.Use(args[0]); err != nil {
		fmt.Fprintf(out, "Error: %v\n", err)
	}
}

func (s *Shell) cmdTypes() {
	out := s.rl.Stdout()
	devices := s.reg.Devices()
	if len(devices) == 0 {
		fmt.Fprintln(out, "No descriptions loaded")
		return
	}
	for _, d := range devices {
		fmt.Fprintln(out, d.Path)
		for _, t := range d.SupportedTypes {
			fmt.Fprintf(out, "  %-24s priority=%d\n", t.ID, t.Priority)
		}
	}
}

func (s *Shell) cmdInspect(args []string) {
	path := ""
	if len(args) > 0 {
		path = args[0]
	}
	if err := commands.RunInspect(s.resolver, path, s.formatter, s.rl.Stdout()); err != nil {
		fmt.Fprintf(s.rl.Stdout(), "Error: %v\n", err)
	}
}

func (s *Shell) cmdDecode(args []string) {
	out := s.rl.Stdout()
	if len(args) < 2 {
		fmt.Fprintln(out, "Usage: decode <path> <hex> [event]")
		return
	}
	isEvent := len(args) > 2 && args[2] == "event"
	if err := commands.RunDecode(s.resolver, args[0], args[1], isEvent, s.formatter, out); err != nil {
		fmt.Fprintf(out, "Error: %v\n", err)
	}
}

func (s *Shell) cmdEncode(args []string) {
	out := s.rl.Stdout()
	if len(args) < 2 {
		fmt.Fprintln(out, "Usage: encode <path> <value>")
		return
	}
	// Values may contain spaces (strings, packed lists).
	literal := strings.Join(args[1:], " ")
	if err := commands.RunEncode(s.resolver, args[0], literal, out); err != nil {
		fmt.Fprintf(out, "Error: %v\n", err)
	}
}

func (s *Shell) cmdIdentify(args []string) {
	out := s.rl.Stdout()
	if len(args) != 2 {
		fmt.Fprintln(out, "Usage: identify <type> <firmware>")
		return
	}
	typeNumber, ok1 := parseNumber(args[0])
	firmware, ok2 := parseNumber(args[1])
	if !ok1 || !ok2 {
		fmt.Fprintln(out, "Error: type and firmware must be numbers (decimal or 0x hex)")
		return
	}
	if err := commands.RunIdentify(s.reg, s.family, typeNumber, firmware, out); err != nil {
		fmt.Fprintf(out, "Error: %v\n", err)
	}
}

// parseNumber accepts decimal and 0x-prefixed hex.
func parseNumber(s string) (int64, bool) {
	if !variant.IsNumber(s) {
		return 0, false
	}
	return variant.Number(s), true
}
