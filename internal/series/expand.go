// Package series turns parsed payload records into per-signal sample series:
// grouping records by type tag and fanning multi-sample records out into
// individually timestamped samples.
package series

import (
	"math"
	"time"

	"github.com/wearlab/sensorsync/internal/model"
)

// DefaultIntervalMS is the fallback spacing between samples when no next
// record is available to interpolate against. 8 ms matches the 125 Hz
// nominal burst rate of the recording firmware.
const DefaultIntervalMS = 8.0

const isoMillis = "2006-01-02T15:04:05.000Z"

// Expander fans multi-sample records out into per-sample records by linear
// timestamp interpolation. Input records must already be sorted ascending by
// epoch timestamp within their type-tag group; the interpolation window for
// a record runs to the next record in the slice.
type Expander struct {
	defaultInterval float64
}

// NewExpander returns an Expander using the given fallback sample spacing in
// milliseconds. Zero or negative means DefaultIntervalMS.
func NewExpander(defaultIntervalMS float64) *Expander {
	if defaultIntervalMS <= 0 {
		defaultIntervalMS = DefaultIntervalMS
	}
	return &Expander{defaultInterval: defaultIntervalMS}
}

// Expand converts each record's payload values into individual records. A
// record with k values yields k records: the first keeps the record's own
// timestamps verbatim, the rest get base + j*interval with the ISO string
// recomputed from the interpolated epoch. Records with no payload values
// disappear. Records without a numeric base timestamp fan out with their
// ISO string reused verbatim and their epoch left as is.
func (e *Expander) Expand(records []model.ParsedRecord) []model.ExpandedRecord {
	total := 0
	for _, rec := range records {
		total += len(rec.Payload)
	}
	out := make([]model.ExpandedRecord, 0, total)

	for i, rec := range records {
		k := len(rec.Payload)
		if k == 0 {
			continue
		}

		base, numeric := rec.TimestampEpochMS.Float64()
		if !numeric {
			for _, v := range rec.Payload {
				out = append(out, model.ExpandedRecord{
					TimestampISO:     rec.TimestampISO,
					TimestampEpochMS: rec.TimestampEpochMS,
					Packet:           rec.Packet,
					Value:            v,
				})
			}
			continue
		}

		interval := e.defaultInterval
		if k > 1 {
			if next, ok := nextEpoch(records, i); ok {
				interval = (next - base) / float64(k)
			}
		}

		for j, v := range rec.Payload {
			r := model.ExpandedRecord{Packet: rec.Packet, Value: v}
			if j == 0 {
				r.TimestampISO = rec.TimestampISO
				r.TimestampEpochMS = rec.TimestampEpochMS
			} else {
				ts := base + float64(j)*interval
				r.TimestampISO = isoFromEpochMS(ts)
				r.TimestampEpochMS = model.Float(ts)
			}
			out = append(out, r)
		}
	}
	return out
}

// nextEpoch returns the numeric epoch of the record after index i, if any.
func nextEpoch(records []model.ParsedRecord, i int) (float64, bool) {
	if i+1 >= len(records) {
		return 0, false
	}
	return records[i+1].TimestampEpochMS.Float64()
}

// isoFromEpochMS formats an epoch-milliseconds value as ISO 8601 UTC with
// millisecond precision, rounding sub-millisecond remainders.
func isoFromEpochMS(ms float64) string {
	return time.UnixMilli(int64(math.Round(ms))).UTC().Format(isoMillis)
}
