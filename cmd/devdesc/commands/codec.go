package commands

import (
	"fmt"
	"io"

	"github.com/devdesc/devdesc-go/pkg/description"
	"github.com/devdesc/devdesc-go/pkg/inspect"
	"github.com/devdesc/devdesc-go/pkg/log"
)

// RunDecode decodes hex packet bytes with the parameter at pathArg and
// writes the value followed by any diagnostics.
func RunDecode(r *inspect.Resolver, pathArg, hexData string, isEvent bool, f *inspect.Formatter, w io.Writer) error {
	path, insp, err := resolveParameter(r, pathArg)
	if err != nil {
		return err
	}
	data, err := ParseHex(hexData)
	if err != nil {
		return err
	}

	v, events, err := insp.Decode(path, data, isEvent)
	if err != nil {
		return err
	}
	p, _ := insp.Parameter(path)
	unit := ""
	if p != nil {
		unit = description.Unit(p.Logical)
	}

	fmt.Fprintf(w, "%s = %s\n", path, f.FormatValue(v, unit))
	writeEvents(w, events)
	return nil
}

// RunEncode encodes a literal with the parameter at pathArg and writes the
// packet bytes followed by any diagnostics.
func RunEncode(r *inspect.Resolver, pathArg, literal string, w io.Writer) error {
	path, insp, err := resolveParameter(r, pathArg)
	if err != nil {
		return err
	}

	data, events, err := insp.Encode(path, literal)
	if err != nil {
		return err
	}

	fmt.Fprintf(w, "%s <- %s\n", path, inspect.FormatBytes(data))
	writeEvents(w, events)
	return nil
}

func resolveParameter(r *inspect.Resolver, pathArg string) (*inspect.Path, *inspect.Inspector, error) {
	path, err := inspect.ParsePath(pathArg)
	if err != nil {
		return nil, nil, err
	}
	insp, err := r.Resolve(path)
	if err != nil {
		return nil, nil, err
	}
	return path, insp, nil
}

func writeEvents(w io.Writer, events []log.Event) {
	for _, e := range events {
		fmt.Fprintf(w, "  %s\n", inspect.FormatEvent(e))
	}
}
