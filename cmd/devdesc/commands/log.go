package commands

import (
	"errors"
	"fmt"
	"io"

	"github.com/devdesc/devdesc-go/pkg/inspect"
	"github.com/devdesc/devdesc-go/pkg/log"
)

// RunLog reads a CBOR capture file and writes the matching events, one per
// line. It returns the number of events written.
func RunLog(path string, filter log.Filter, w io.Writer) (int, error) {
	reader, err := log.NewFilteredReader(path, filter)
	if err != nil {
		return 0, fmt.Errorf("opening capture: %w", err)
	}
	defer reader.Close()

	count := 0
	for {
		event, err := reader.Next()
		if errors.Is(err, io.EOF) {
			return count, nil
		}
		if err != nil {
			return count, fmt.Errorf("reading event: %w", err)
		}
		formatEvent(w, event)
		count++
	}
}

// formatEvent writes a human-readable representation of the event to w.
func formatEvent(w io.Writer, event log.Event) {
	// Header: timestamp [load:id] LAYER
	ts := event.Timestamp.UTC().Format("2006-01-02T15:04:05.000000Z")
	fmt.Fprintf(w, "%s [load:%s] %-10s %s\n", ts, shortenLoadID(event.LoadID), event.Layer, inspect.FormatEvent(event))
	if event.Source != "" {
		fmt.Fprintf(w, "  Source: %s\n", event.Source)
	}
}

// shortenLoadID returns the first 8 characters of the load ID.
func shortenLoadID(id string) string {
	if len(id) >= 8 {
		return id[:8]
	}
	return id
}
