package naming

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wearlab/sensorsync/internal/model"
)

func TestParseRawName(t *testing.T) {
	t.Parallel()

	t.Run("plain recording", func(t *testing.T) {
		t.Parallel()
		ref, ok := ParseRawName("raw/u1/u1-20240101.csv", "raw/")
		require.True(t, ok)
		assert.Equal(t, "u1", ref.Subject)
		assert.Equal(t, "20240101", ref.Date)
		assert.Empty(t, ref.Suffix)
		assert.False(t, ref.Location())
		assert.Equal(t, "raw/u1/u1-20240101.csv", ref.Name)
	})

	t.Run("location suffix", func(t *testing.T) {
		t.Parallel()
		ref, ok := ParseRawName("raw/u1/u1-20240101-location.csv", "raw/")
		require.True(t, ok)
		assert.Equal(t, "location", ref.Suffix)
		assert.True(t, ref.Location())
		assert.Equal(t, model.LocationTag, ref.Key().Tag)
	})

	t.Run("other suffixes are not location", func(t *testing.T) {
		t.Parallel()
		ref, ok := ParseRawName("raw/u1/u1-20240101-retry-2.csv", "raw/")
		require.True(t, ok)
		assert.Equal(t, "retry-2", ref.Suffix)
		assert.False(t, ref.Location())
	})

	t.Run("dashed subject", func(t *testing.T) {
		t.Parallel()
		ref, ok := ParseRawName("raw/pilot-07/pilot-07-20231224.csv", "raw/")
		require.True(t, ok)
		assert.Equal(t, "pilot-07", ref.Subject)
		assert.Equal(t, "20231224", ref.Date)
	})

	t.Run("empty prefix", func(t *testing.T) {
		t.Parallel()
		ref, ok := ParseRawName("u1/u1-20240101.csv", "")
		require.True(t, ok)
		assert.Equal(t, "u1", ref.Subject)
	})

	t.Run("rejects non-recordings", func(t *testing.T) {
		t.Parallel()
		for _, name := range []string{
			"raw/u1/",                      // pseudo-directory
			"raw/u1/u1-20240101.json",      // not csv
			"raw/u1/u1-20240101",           // no extension
			"raw/u1/u2-20240101.csv",       // file does not repeat folder subject
			"raw/u1/u1-2024.csv",           // bad date
			"raw/u1/u1-202401o1.csv",       // non-digit date
			"parsed/u1/u1-20240101.csv",    // wrong prefix
			"raw/u1-20240101.csv",          // missing subject folder
			"raw/u1/sub/u1-20240101.csv",   // too deep
			"raw/u1/notes.csv",             // free-form name
		} {
			_, ok := ParseRawName(name, "raw/")
			assert.False(t, ok, "name %q", name)
		}
	})
}
