package series

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wearlab/sensorsync/internal/model"
)

func rec(iso string, epoch model.Scalar, packet int64, values ...string) model.ParsedRecord {
	return model.ParsedRecord{
		TimestampISO:     iso,
		TimestampEpochMS: epoch,
		Packet:           model.Int(packet),
		Payload:          values,
	}
}

func TestExpandSingleValueIsIdentity(t *testing.T) {
	t.Parallel()

	in := []model.ParsedRecord{rec("2024-01-01T00:00:00+00:00", model.Int(1000), 42, "72.5")}
	out := NewExpander(0).Expand(in)

	require.Len(t, out, 1)
	assert.Equal(t, "2024-01-01T00:00:00+00:00", out[0].TimestampISO)
	assert.Equal(t, model.Int(1000), out[0].TimestampEpochMS)
	assert.Equal(t, model.Int(42), out[0].Packet)
	assert.Equal(t, "72.5", out[0].Value)
}

func TestExpandInterpolatesAgainstNextRecord(t *testing.T) {
	t.Parallel()

	in := []model.ParsedRecord{
		rec("1970-01-01T00:00:01.000Z", model.Int(1000), 42, "98.6", "99.1", "99.4"),
		rec("1970-01-01T00:00:01.024Z", model.Int(1024), 43, "99.7"),
	}
	out := NewExpander(0).Expand(in)

	require.Len(t, out, 4)

	assert.Equal(t, model.Int(1000), out[0].TimestampEpochMS)
	assert.Equal(t, "1970-01-01T00:00:01.000Z", out[0].TimestampISO)
	assert.Equal(t, "98.6", out[0].Value)

	assert.Equal(t, model.Float(1008), out[1].TimestampEpochMS)
	assert.Equal(t, "1970-01-01T00:00:01.008Z", out[1].TimestampISO)
	assert.Equal(t, "99.1", out[1].Value)

	assert.Equal(t, model.Float(1016), out[2].TimestampEpochMS)
	assert.Equal(t, "1970-01-01T00:00:01.016Z", out[2].TimestampISO)
	assert.Equal(t, "99.4", out[2].Value)

	assert.Equal(t, model.Int(1024), out[3].TimestampEpochMS)
}

func TestExpandLastRecordUsesDefaultInterval(t *testing.T) {
	t.Parallel()

	in := []model.ParsedRecord{rec("1970-01-01T00:00:01.000Z", model.Int(1000), 1, "a", "b", "c")}
	out := NewExpander(0).Expand(in)

	require.Len(t, out, 3)
	assert.Equal(t, model.Int(1000), out[0].TimestampEpochMS)
	assert.Equal(t, model.Float(1008), out[1].TimestampEpochMS)
	assert.Equal(t, model.Float(1016), out[2].TimestampEpochMS)
}

func TestExpandCustomDefaultInterval(t *testing.T) {
	t.Parallel()

	in := []model.ParsedRecord{rec("x", model.Int(0), 1, "a", "b")}
	out := NewExpander(40).Expand(in)

	require.Len(t, out, 2)
	assert.Equal(t, model.Float(40), out[1].TimestampEpochMS)
}

func TestExpandNextWithoutNumericEpochFallsBack(t *testing.T) {
	t.Parallel()

	in := []model.ParsedRecord{
		rec("x", model.Int(1000), 1, "a", "b"),
		rec("y", model.Null(), 2, "c"),
	}
	out := NewExpander(0).Expand(in)

	require.Len(t, out, 3)
	assert.Equal(t, model.Float(1008), out[1].TimestampEpochMS)
}

func TestExpandFractionalInterval(t *testing.T) {
	t.Parallel()

	in := []model.ParsedRecord{
		rec("x", model.Int(1000), 1, "a", "b", "c"),
		rec("y", model.Int(1010), 2, "d"),
	}
	out := NewExpander(0).Expand(in)

	require.Len(t, out, 4)
	v, ok := out[1].TimestampEpochMS.Float64()
	require.True(t, ok)
	assert.InDelta(t, 1003.3333, v, 0.001)
	v, ok = out[2].TimestampEpochMS.Float64()
	require.True(t, ok)
	assert.InDelta(t, 1006.6667, v, 0.001)
	assert.Equal(t, "1970-01-01T00:00:01.003Z", out[1].TimestampISO)
	assert.Equal(t, "1970-01-01T00:00:01.007Z", out[2].TimestampISO)
}

func TestExpandEmptyPayloadDropsRecord(t *testing.T) {
	t.Parallel()

	in := []model.ParsedRecord{
		rec("x", model.Int(1000), 1),
		rec("y", model.Int(1008), 2, "kept"),
	}
	out := NewExpander(0).Expand(in)

	require.Len(t, out, 1)
	assert.Equal(t, "kept", out[0].Value)
}

func TestExpandNullBaseTimestamp(t *testing.T) {
	t.Parallel()

	in := []model.ParsedRecord{rec("2024-01-01T00:00:00+00:00", model.Null(), 1, "a", "b", "c")}
	out := NewExpander(0).Expand(in)

	require.Len(t, out, 3)
	for _, r := range out {
		assert.Equal(t, "2024-01-01T00:00:00+00:00", r.TimestampISO)
		assert.True(t, r.TimestampEpochMS.IsNull())
	}
}

func TestExpandCountInvariant(t *testing.T) {
	t.Parallel()

	in := []model.ParsedRecord{
		rec("a", model.Int(0), 1, "1", "2", "3"),
		rec("b", model.Int(24), 2),
		rec("c", model.Int(24), 3, "4"),
		rec("d", model.Null(), 4, "5", "6"),
	}
	out := NewExpander(0).Expand(in)

	want := 0
	for _, r := range in {
		want += len(r.Payload)
	}
	assert.Len(t, out, want)
}

func TestExpandMonotonicWithinRecord(t *testing.T) {
	t.Parallel()

	in := []model.ParsedRecord{
		rec("x", model.Int(1000), 1, "a", "b", "c", "d"),
		rec("y", model.Int(1032), 2, "e"),
	}
	out := NewExpander(0).Expand(in)

	prev := -1.0
	for _, r := range out {
		v, ok := r.TimestampEpochMS.Float64()
		require.True(t, ok)
		assert.GreaterOrEqual(t, v, prev)
		prev = v
	}
}
