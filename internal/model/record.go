package model

// ParsedRecord is one payload line after parsing: the row timestamps, the
// coerced packet number, the type tag used for grouping, and the raw payload
// sample strings. Payload values are never coerced; they stay verbatim.
type ParsedRecord struct {
	TimestampISO     string   `json:"timestamp_iso8601"`
	TimestampEpochMS Scalar   `json:"timestamp_epoch_ms"`
	Packet           Scalar   `json:"packet"`
	TypeTag          string   `json:"-"`
	Payload          []string `json:"payload"`
}

// ExpandedRecord is one individual sample after timestamp interpolation
// fanned a multi-sample ParsedRecord out into per-sample rows.
type ExpandedRecord struct {
	TimestampISO     string `json:"timestamp_iso8601"`
	TimestampEpochMS Scalar `json:"timestamp_epoch_ms"`
	Packet           Scalar `json:"packet"`
	Value            string `json:"payload"`
}
