package commands

import (
	"errors"
	"fmt"
	"io"

	"github.com/devdesc/devdesc-go/pkg/registry"
)

// ErrNotIdentified is returned when no loaded description supports a device.
var ErrNotIdentified = errors.New("no matching device type")

// RunIdentify looks up the supported type for a pairing announcement and
// writes its id, name, priority and description file.
func RunIdentify(reg *registry.Registry, family, typeNumber, firmware int64, w io.Writer) error {
	t := reg.Identify(family, typeNumber, firmware)
	if t == nil {
		return fmt.Errorf("%w: family %d, type 0x%04X, firmware 0x%02X", ErrNotIdentified, family, typeNumber, firmware)
	}

	fmt.Fprintf(w, "%s\n", t.ID)
	if t.Name != "" {
		fmt.Fprintf(w, "  Name:        %s\n", t.Name)
	}
	fmt.Fprintf(w, "  Priority:    %d\n", t.Priority)
	if d := t.Device(); d != nil {
		fmt.Fprintf(w, "  Description: %s\n", d.Path)
		fmt.Fprintf(w, "  Channels:    %d\n", len(d.Channels))
	}
	return nil
}
