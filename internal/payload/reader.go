package payload

import (
	"encoding/csv"
	"io"
	"strings"

	"github.com/rotisserie/eris"
	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	"github.com/wearlab/sensorsync/internal/model"
)

// Column names of the recording CSV envelope. Only payload is mandatory;
// recordings from older firmware may lack one or both timestamp columns.
const (
	colTimestampISO   = "timestamp_iso8601"
	colTimestampEpoch = "timestamp_epoch_ms"
	colPayload        = "payload"
)

// ReaderOptions configures the recording reader.
type ReaderOptions struct {
	Encoding string // IANA charset name of the input; empty means UTF-8
}

// ParseRecording reads one raw recording CSV and returns the parsed records
// in file order. Each data row contributes one record per payload line; rows
// with an empty payload cell contribute nothing. The first malformed payload
// line fails the whole recording.
func ParseRecording(r io.Reader, opts ReaderOptions) ([]model.ParsedRecord, error) {
	dec, err := decodeReader(r, opts.Encoding)
	if err != nil {
		return nil, err
	}

	reader := csv.NewReader(dec)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err == io.EOF {
		return nil, eris.New("payload: recording is empty")
	}
	if err != nil {
		return nil, eris.Wrap(err, "payload: read header")
	}

	cols := make(map[string]int, len(header))
	for i, name := range header {
		cols[strings.TrimSpace(name)] = i
	}
	payloadIdx, ok := cols[colPayload]
	if !ok {
		return nil, eris.Errorf("payload: recording has no %q column", colPayload)
	}
	isoIdx, hasISO := cols[colTimestampISO]
	epochIdx, hasEpoch := cols[colTimestampEpoch]

	var records []model.ParsedRecord
	for rowNum := 2; ; rowNum++ {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, eris.Wrapf(err, "payload: read row %d", rowNum)
		}

		blob := col(row, payloadIdx)
		if strings.TrimSpace(blob) == "" {
			continue
		}
		lines, err := ParseBlock(blob)
		if err != nil {
			return nil, eris.Wrapf(err, "payload: row %d", rowNum)
		}

		iso := ""
		if hasISO {
			iso = strings.TrimSpace(col(row, isoIdx))
		}
		epoch := model.Null()
		if hasEpoch {
			epoch = Coerce(col(row, epochIdx))
		}

		for _, line := range lines {
			records = append(records, model.ParsedRecord{
				TimestampISO:     iso,
				TimestampEpochMS: epoch,
				Packet:           line.Packet,
				TypeTag:          line.TypeTag,
				Payload:          line.Values,
			})
		}
	}
	return records, nil
}

// col returns row[idx], tolerating ragged rows.
func col(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return row[idx]
}

// decodeReader wraps r to decode the named charset into UTF-8 and strip a
// leading byte-order mark. An empty name means the input is already UTF-8.
func decodeReader(r io.Reader, encoding string) (io.Reader, error) {
	if encoding != "" {
		enc, err := htmlindex.Get(encoding)
		if err != nil {
			return nil, eris.Wrapf(err, "payload: unsupported charset %q", encoding)
		}
		r = enc.NewDecoder().Reader(r)
	}
	return transform.NewReader(r, unicode.BOMOverride(transform.Nop)), nil
}
