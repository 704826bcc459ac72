package output

import (
	"fmt"
	"io"

	"github.com/goccy/go-json"

	"github.com/ccollicutt/sensorlog/pkg/event"
)

// WriteEvents lists events in the given format ("text" or "json"). Text
// output separates records with a blank line.
func WriteEvents(w io.Writer, events []*event.Event, format string) error {
	switch format {
	case "json":
		if events == nil {
			events = []*event.Event{}
		}
		encoder := json.NewEncoder(w)
		encoder.SetIndent("", "  ")
		return encoder.Encode(events)
	case "text", "":
		for i, ev := range events {
			if i > 0 {
				if _, err := io.WriteString(w, "\n"); err != nil {
					return err
				}
			}
			if _, err := io.WriteString(w, ev.String()); err != nil {
				return err
			}
		}
		return nil
	default:
		return fmt.Errorf("unknown output format %q (must be text or json)", format)
	}
}
