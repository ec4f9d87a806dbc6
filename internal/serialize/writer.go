// Package serialize renders parsed and expanded records in the fixed output
// schema shared by every naming convention.
package serialize

import (
	"encoding/csv"
	"encoding/json"
	"io"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/wearlab/sensorsync/internal/model"
)

// Format selects the output serialization.
type Format string

const (
	FormatCSV   Format = "csv"
	FormatJSONL Format = "jsonl"
)

// ParseFormat validates a format name from config or a flag.
func ParseFormat(s string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimSpace(s))) {
	case FormatCSV:
		return FormatCSV, nil
	case FormatJSONL:
		return FormatJSONL, nil
	default:
		return "", eris.Errorf("serialize: unknown format %q (want csv or jsonl)", s)
	}
}

// Ext returns the file extension for the format, without the dot.
func (f Format) Ext() string { return string(f) }

// ContentType returns the MIME type uploads are tagged with.
func (f Format) ContentType() string {
	if f == FormatJSONL {
		return "application/x-ndjson"
	}
	return "text/csv"
}

// header is the fixed column set. Type tags are a grouping concern and are
// never emitted.
var header = []string{"timestamp_iso8601", "timestamp_epoch_ms", "packet", "payload"}

// WriteParsed writes un-expanded records. The payload column renders as a
// compact JSON array of the verbatim sample strings, so multi-sample lines
// survive in a single cell.
func WriteParsed(w io.Writer, format Format, records []model.ParsedRecord) error {
	switch format {
	case FormatCSV:
		return writeParsedCSV(w, records)
	case FormatJSONL:
		return writeParsedJSONL(w, records)
	default:
		return eris.Errorf("serialize: unknown format %q", format)
	}
}

// WriteExpanded writes per-sample records. The payload column renders as the
// bare sample value.
func WriteExpanded(w io.Writer, format Format, records []model.ExpandedRecord) error {
	switch format {
	case FormatCSV:
		return writeExpandedCSV(w, records)
	case FormatJSONL:
		return writeExpandedJSONL(w, records)
	default:
		return eris.Errorf("serialize: unknown format %q", format)
	}
}

func writeParsedCSV(w io.Writer, records []model.ParsedRecord) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(header); err != nil {
		return eris.Wrap(err, "serialize: write header")
	}
	for _, rec := range records {
		cell, err := payloadArray(rec.Payload)
		if err != nil {
			return err
		}
		row := []string{rec.TimestampISO, rec.TimestampEpochMS.String(), rec.Packet.String(), cell}
		if err := cw.Write(row); err != nil {
			return eris.Wrap(err, "serialize: write row")
		}
	}
	cw.Flush()
	return eris.Wrap(cw.Error(), "serialize: flush")
}

func writeExpandedCSV(w io.Writer, records []model.ExpandedRecord) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(header); err != nil {
		return eris.Wrap(err, "serialize: write header")
	}
	for _, rec := range records {
		row := []string{rec.TimestampISO, rec.TimestampEpochMS.String(), rec.Packet.String(), rec.Value}
		if err := cw.Write(row); err != nil {
			return eris.Wrap(err, "serialize: write row")
		}
	}
	cw.Flush()
	return eris.Wrap(cw.Error(), "serialize: flush")
}

func writeParsedJSONL(w io.Writer, records []model.ParsedRecord) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	for _, rec := range records {
		if rec.Payload == nil {
			rec.Payload = []string{}
		}
		if err := enc.Encode(rec); err != nil {
			return eris.Wrap(err, "serialize: encode record")
		}
	}
	return nil
}

func writeExpandedJSONL(w io.Writer, records []model.ExpandedRecord) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	for _, rec := range records {
		if err := enc.Encode(rec); err != nil {
			return eris.Wrap(err, "serialize: encode record")
		}
	}
	return nil
}

// payloadArray renders sample values as a compact JSON string array, [] when
// there are none.
func payloadArray(values []string) (string, error) {
	if values == nil {
		values = []string{}
	}
	b, err := json.Marshal(values)
	if err != nil {
		return "", eris.Wrap(err, "serialize: marshal payload")
	}
	return string(b), nil
}
