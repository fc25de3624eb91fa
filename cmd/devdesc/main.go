// Command devdesc inspects device descriptions and converts single
// parameters between packet bytes and values.
//
// Descriptions are read from the search paths of the configuration file
// (or DEVDESC_DESCRIPTIONS_SEARCH_PATHS). Commands that take a description
// accept either a supported type id or a description file.
//
// Usage:
//
//	devdesc <command> [flags] <args>
//
// Commands:
//
//	inspect   Show a description, channel, paramset or parameter
//	identify  Find the device type for a pairing announcement
//	decode    Decode packet bytes with one parameter
//	encode    Encode a value with one parameter
//	shell     Interactive codec console
//	log       View a CBOR diagnostics capture
//
// Examples:
//
//	# Show the whole description of a type
//	devdesc inspect HM-LC-Sw1-FM
//
//	# Show one parameter with its packet layout
//	devdesc inspect -physical rf_switch.xml 1/values/STATE
//
//	# Identify a device announcing type 0x0069, firmware 0x12
//	devdesc identify 0x0069 0x12
//
//	# Decode and encode a value
//	devdesc decode HM-LC-Sw1-FM 1/values/STATE C8
//	devdesc encode HM-LC-Sw1-FM 1/link/SHORT_ON_TIME 65
//
//	# View only conversion errors of a capture
//	devdesc log -layer conversion -level error devdesc.cbor
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/devdesc/devdesc-go/cmd/devdesc/commands"
	"github.com/devdesc/devdesc-go/internal/config"
	"github.com/devdesc/devdesc-go/pkg/inspect"
	"github.com/devdesc/devdesc-go/pkg/log"
	"github.com/devdesc/devdesc-go/pkg/registry"
	"go.uber.org/zap"
)

const usage = `devdesc - Device Description Tool

Usage:
  devdesc <command> [flags] <args>

Commands:
  inspect   Show a description, channel, paramset or parameter
  identify  Find the device type for a pairing announcement
  decode    Decode packet bytes with one parameter
  encode    Encode a value with one parameter
  shell     Interactive codec console
  log       View a CBOR diagnostics capture

Use "devdesc <command> -help" for more information about a command.
`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(1)
	}

	cmd := os.Args[1]
	args := os.Args[2:]

	switch cmd {
	case "inspect":
		runInspect(args)
	case "identify":
		runIdentify(args)
	case "decode":
		runDecode(args)
	case "encode":
		runEncode(args)
	case "shell":
		runShell(args)
	case "log":
		runLog(args)
	case "-h", "-help", "--help", "help":
		fmt.Print(usage)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", cmd)
		fmt.Fprint(os.Stderr, usage)
		os.Exit(1)
	}
}

// globalFlags are shared by every command that loads descriptions.
type globalFlags struct {
	configPath  *string
	searchPaths *string
}

func addGlobalFlags(fs *flag.FlagSet) globalFlags {
	return globalFlags{
		configPath:  fs.String("config", "", "Config file (default: defaults and DEVDESC_* environment)"),
		searchPaths: fs.String("paths", "", "Comma separated description search paths (overrides config)"),
	}
}

// app holds the loaded configuration, loggers and registry of one run.
type app struct {
	cfg     *config.Config
	zap     *zap.Logger
	capture *log.FileLogger
	reg     *registry.Registry
}

func newApp(ctx context.Context, g globalFlags) (*app, error) {
	cfg, err := config.Load(*g.configPath)
	if err != nil {
		return nil, err
	}
	if *g.searchPaths != "" {
		cfg.Descriptions.SearchPaths = strings.Split(*g.searchPaths, ",")
	}

	zl, err := newZapLogger(cfg.Log)
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}

	a := &app{cfg: cfg, zap: zl}
	var capture log.Logger
	if cfg.Log.CaptureFile != "" {
		a.capture, err = log.NewFileLogger(cfg.Log.CaptureFile)
		if err != nil {
			zl.Warn("Capture disabled", zap.String("path", cfg.Log.CaptureFile), zap.Error(err))
		} else {
			a.capture.SetMinLevel(cfg.Log.MinLevel())
			capture = a.capture
		}
	}

	a.reg = registry.New(registry.Options{
		SearchPaths: cfg.Descriptions.SearchPaths,
		Family:      cfg.Descriptions.Family,
		Logger:      log.NewMultiLogger(log.NewZapAdapter(zl), capture),
		Concurrency: cfg.Descriptions.Concurrency,
	})
	if err := a.reg.Load(ctx); err != nil {
		// Single files given on the command line still load on demand.
		zl.Warn("Search paths not loaded", zap.Strings("paths", cfg.Descriptions.SearchPaths), zap.Error(err))
	}
	return a, nil
}

func (a *app) Close() {
	if a.capture != nil {
		a.capture.Close()
	}
	_ = a.zap.Sync()
}

// newZapLogger builds the console or JSON logger the configuration asks for.
func newZapLogger(cfg config.LogConfig) (*zap.Logger, error) {
	zc := zap.NewProductionConfig()
	if cfg.Format == "console" {
		zc.Encoding = "console"
		zc.EncoderConfig = zap.NewDevelopmentEncoderConfig()
	}
	zc.Level = zap.NewAtomicLevelAt(log.ZapLevel(cfg.MinLevel()))
	zc.OutputPaths = []string{"stderr"}
	zc.Sampling = nil
	return zc.Build()
}

func fatal(err error) {
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	os.Exit(1)
}

// mustApp parses args, loads the app and checks the argument count.
func mustApp(fs *flag.FlagSet, g globalFlags, args []string, minArgs int, what string) *app {
	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}
	if fs.NArg() < minArgs {
		fmt.Fprintf(os.Stderr, "Error: %s required\n", what)
		fs.Usage()
		os.Exit(1)
	}
	a, err := newApp(context.Background(), g)
	if err != nil {
		fatal(err)
	}
	return a
}

// resolver opens the description argument and wraps it for path lookups.
func (a *app) resolver(arg string) *inspect.Resolver {
	d, err := commands.Open(a.reg, arg)
	if err != nil {
		a.Close()
		fatal(err)
	}
	return inspect.NewResolver(a.reg, d)
}

func commandUsage(fs *flag.FlagSet, text string) {
	fs.Usage = func() {
		fmt.Fprint(os.Stderr, text)
		fmt.Fprintln(os.Stderr, "\nFlags:")
		fs.PrintDefaults()
	}
}

func runInspect(args []string) {
	fs := flag.NewFlagSet("inspect", flag.ExitOnError)
	commandUsage(fs, `devdesc inspect - Show a description, channel, paramset or parameter

Usage:
  devdesc inspect [flags] <type-id|file> [path]
`)
	g := addGlobalFlags(fs)
	physical := fs.Bool("physical", false, "Show packet layout and conversions")
	brief := fs.Bool("brief", false, "Hide ranges, defaults and operations")

	a := mustApp(fs, g, args, 1, "description")
	defer a.Close()

	f := inspect.NewFormatter()
	f.ShowPhysical = *physical
	f.ShowMetadata = !*brief

	if err := commands.RunInspect(a.resolver(fs.Arg(0)), fs.Arg(1), f, os.Stdout); err != nil {
		a.Close()
		fatal(err)
	}
}

func runIdentify(args []string) {
	fs := flag.NewFlagSet("identify", flag.ExitOnError)
	commandUsage(fs, `devdesc identify - Find the device type for a pairing announcement

Usage:
  devdesc identify [flags] <type> <firmware>
`)
	g := addGlobalFlags(fs)
	family := fs.Int64("family", -1, "Device family (default: descriptions.family)")

	a := mustApp(fs, g, args, 2, "type and firmware")
	defer a.Close()

	typeNumber, ok1 := parseNumber(fs.Arg(0))
	firmware, ok2 := parseNumber(fs.Arg(1))
	if !ok1 || !ok2 {
		a.Close()
		fatal(fmt.Errorf("type and firmware must be numbers (decimal or 0x hex)"))
	}
	fam := *family
	if fam < 0 {
		fam = a.cfg.Descriptions.Family
	}

	if err := commands.RunIdentify(a.reg, fam, typeNumber, firmware, os.Stdout); err != nil {
		a.Close()
		fatal(err)
	}
}

func runDecode(args []string) {
	fs := flag.NewFlagSet("decode", flag.ExitOnError)
	commandUsage(fs, `devdesc decode - Decode packet bytes with one parameter

Usage:
  devdesc decode [flags] <type-id|file> <path> <hex>
`)
	g := addGlobalFlags(fs)
	event := fs.Bool("event", false, "Treat the bytes as an event packet")

	a := mustApp(fs, g, args, 3, "description, path and data")
	defer a.Close()

	err := commands.RunDecode(a.resolver(fs.Arg(0)), fs.Arg(1), fs.Arg(2), *event, inspect.NewFormatter(), os.Stdout)
	if err != nil {
		a.Close()
		fatal(err)
	}
}

func runEncode(args []string) {
	fs := flag.NewFlagSet("encode", flag.ExitOnError)
	commandUsage(fs, `devdesc encode - Encode a value with one parameter

Usage:
  devdesc encode [flags] <type-id|file> <path> <value>
`)
	g := addGlobalFlags(fs)

	a := mustApp(fs, g, args, 3, "description, path and value")
	defer a.Close()

	literal := strings.Join(fs.Args()[2:], " ")
	if err := commands.RunEncode(a.resolver(fs.Arg(0)), fs.Arg(1), literal, os.Stdout); err != nil {
		a.Close()
		fatal(err)
	}
}

func runShell(args []string) {
	fs := flag.NewFlagSet("shell", flag.ExitOnError)
	commandUsage(fs, `devdesc shell - Interactive codec console

Usage:
  devdesc shell [flags] [type-id|file]
`)
	g := addGlobalFlags(fs)

	a := mustApp(fs, g, args, 0, "")
	defer a.Close()

	history := a.cfg.Shell.HistoryFile
	if history == "" {
		if home, err := os.UserHomeDir(); err == nil {
			history = filepath.Join(home, ".devdesc_history")
		}
	}

	shell, err := NewShell(a.reg, a.cfg.Descriptions.Family, history)
	if err != nil {
		a.Close()
		fatal(err)
	}
	if fs.NArg() > 0 {
		if err := shell.Use(fs.Arg(0)); err != nil {
			fmt.Fprintf(shell.Stdout(), "Error: %v\n", err)
		}
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()
	shell.Run(ctx)
}

func runLog(args []string) {
	fs := flag.NewFlagSet("log", flag.ExitOnError)
	commandUsage(fs, `devdesc log - View a CBOR diagnostics capture

Usage:
  devdesc log [flags] <capture.cbor>
`)
	level := fs.String("level", "", "Minimum level (debug, info, warning, error, exception)")
	layer := fs.String("layer", "", "Filter by layer (schema, conversion, registry)")
	loadID := fs.String("load-id", "", "Filter by load ID")
	source := fs.String("source", "", "Filter by description file")
	param := fs.String("param", "", "Filter by parameter id")

	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}
	if fs.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "Error: capture file path required")
		fs.Usage()
		os.Exit(1)
	}

	filter := log.Filter{LoadID: *loadID, Source: *source, ParameterID: *param}
	if *level != "" {
		l, err := commands.ParseLevelFlag(*level)
		if err != nil {
			fatal(err)
		}
		filter.MinLevel = &l
	}
	if *layer != "" {
		l, err := commands.ParseLayerFlag(*layer)
		if err != nil {
			fatal(err)
		}
		filter.Layer = &l
	}

	count, err := commands.RunLog(fs.Arg(0), filter, os.Stdout)
	if err != nil {
		fatal(err)
	}
	fmt.Fprintf(os.Stderr, "%d events\n", count)
}

// Compile-time check that the registry can back path resolution.
var _ inspect.Source = (*registry.Registry)(nil)
