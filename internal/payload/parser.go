package payload

import (
	"fmt"
	"strings"

	"github.com/wearlab/sensorsync/internal/model"
)

// Payload line layout: field 1 is the packet number, field 3 the type tag,
// fields 6 onward the sample values. Seven fields is the minimum for a line
// to carry at least one sample slot.
const (
	minFields    = 7
	packetField  = 1
	tagField     = 3
	payloadStart = 6
)

// LineError describes a malformed payload line with fewer than the minimum
// seven fields. Line is 1-based within the payload blob, counting blank
// lines, so it matches what an editor shows.
type LineError struct {
	Line    int
	Fields  int
	Content string
}

func (e *LineError) Error() string {
	return fmt.Sprintf("payload line %d has %d fields (fewer than %d expected): %q",
		e.Line, e.Fields, minFields, e.Content)
}

// Line is one parsed payload line before the row timestamps are attached:
// the coerced packet number, the type tag, and the trimmed non-empty sample
// values, kept as verbatim strings.
type Line struct {
	Packet  model.Scalar
	TypeTag string
	Values  []string
}

// ParseBlock splits a payload cell into its constituent lines. Blank lines
// are skipped. A line with fewer than seven comma-separated fields aborts
// the whole artifact with a *LineError; a single malformed line means the
// recording cannot be trusted.
func ParseBlock(blob string) ([]Line, error) {
	var lines []Line
	for i, raw := range strings.Split(blob, "\n") {
		trimmed := strings.TrimSpace(raw)
		if trimmed == "" {
			continue
		}
		parts := strings.Split(trimmed, ",")
		if len(parts) < minFields {
			return nil, &LineError{Line: i + 1, Fields: len(parts), Content: trimmed}
		}
		for j, p := range parts {
			parts[j] = strings.TrimSpace(p)
		}
		var values []string
		for _, v := range parts[payloadStart:] {
			if v != "" {
				values = append(values, v)
			}
		}
		lines = append(lines, Line{
			Packet:  Coerce(parts[packetField]),
			TypeTag: parts[tagField],
			Values:  values,
		})
	}
	return lines, nil
}
