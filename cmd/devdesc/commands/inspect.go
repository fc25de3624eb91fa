package commands

import (
	"fmt"
	"io"

	"github.com/devdesc/devdesc-go/pkg/description"
	"github.com/devdesc/devdesc-go/pkg/inspect"
)

// RunInspect writes the part of a description a path names. An empty path
// writes the whole tree.
func RunInspect(r *inspect.Resolver, pathArg string, f *inspect.Formatter, w io.Writer) error {
	if pathArg == "" {
		insp := r.Current()
		if insp == nil {
			return fmt.Errorf("no description selected")
		}
		fmt.Fprint(w, f.FormatTree(insp.Tree()))
		return nil
	}

	path, err := inspect.ParsePath(pathArg)
	if err != nil {
		return err
	}
	insp, err := r.Resolve(path)
	if err != nil {
		return err
	}

	switch {
	case path.IsFrame:
		info, err := insp.InspectFrame(path.Frame)
		if err != nil {
			return err
		}
		fmt.Fprintln(w, f.FormatFrame(info))

	case path.IsPartial && path.Paramset == description.ParamsetNone:
		info, err := insp.InspectChannel(path.Channel)
		if err != nil {
			return err
		}
		fmt.Fprint(w, f.FormatChannel(info, 0))

	case path.IsPartial:
		info, err := insp.InspectParamset(path.Channel, path.Paramset)
		if err != nil {
			return err
		}
		fmt.Fprint(w, f.FormatParamset(info, 0))

	default:
		info, err := insp.InspectParamset(path.Channel, path.Paramset)
		if err != nil {
			return err
		}
		p, err := insp.Parameter(path)
		if err != nil {
			return err
		}
		for _, row := range info.Parameters {
			if row.ID == p.ID {
				fmt.Fprintln(w, f.FormatParameter(row))
			}
		}
	}
	return nil
}
