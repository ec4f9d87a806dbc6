package report

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tealeg/xlsx/v2"

	"github.com/wearlab/sensorsync/internal/signals"
)

func writeFile(t *testing.T, root string, parts []string, content string) {
	t.Helper()
	path := filepath.Join(append([]string{root}, parts...)...)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func seedTree(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	writeFile(t, root, []string{"s01", "PI", "20240301.csv"},
		"timestamp_iso8601,timestamp_epoch_ms,packet,payload\n"+
			"a,1000,1,98.6\na,1040,2,98.7\na,1080,3,98.8\n")
	writeFile(t, root, []string{"s01", "PI", "20240302.csv"},
		"timestamp_iso8601,timestamp_epoch_ms,packet,payload\n"+
			"a,2000,4,99.0\na,2050,5,99.1\n")
	writeFile(t, root, []string{"s01", "HR", "20240301.csv"},
		"timestamp_iso8601,timestamp_epoch_ms,packet,payload\na,1000,1,72\n")
	writeFile(t, root, []string{"s01", "location", "20240301.csv"},
		"lat,lon\n40.1,-74.2\n")
	writeFile(t, root, []string{"s02", "TH", "20240301.csv"},
		"timestamp_iso8601,timestamp_epoch_ms,packet,payload\n"+
			"a,100,1,36.5\na,108,2,36.6\n")
	writeFile(t, root, []string{"s01", "PI", "readme.txt"}, "not a recording\n")
	writeFile(t, root, []string{"notes.txt"}, "ignored\n")
	return root
}

func statsFor(t *testing.T, r *Report, tag string) TagStats {
	t.Helper()
	for _, s := range r.Stats {
		if s.Tag == tag {
			return s
		}
	}
	t.Fatalf("tag %s not in report", tag)
	return TagStats{}
}

func TestAnalyze(t *testing.T) {
	t.Parallel()

	root := seedTree(t)
	r, err := Analyze(root, "", signals.Defaults())
	require.NoError(t, err)

	var tags []string
	for _, s := range r.Stats {
		tags = append(tags, s.Tag)
	}
	assert.Equal(t, []string{"HR", "PI", "TH", "location"}, tags)
	assert.Equal(t, 5, r.TotalFiles())
	assert.False(t, r.Empty())

	pi := statsFor(t, r, "PI")
	assert.Equal(t, 2, pi.Files)
	assert.Equal(t, 5, pi.Samples)
	require.True(t, pi.HasIntervals)
	// pooled per-file intervals: 40, 40, 50
	assert.InDelta(t, 43.3333, pi.MeanIntervalMS, 1e-3)
	assert.Equal(t, 40.0, pi.MedianIntervalMS)
	assert.InDelta(t, 5.7735, pi.StdevIntervalMS, 1e-3)
	assert.InDelta(t, 23.0769, pi.EstimatedHz, 1e-3)
	assert.Equal(t, 25.0, pi.NominalHz)

	hr := statsFor(t, r, "HR")
	assert.Equal(t, 1, hr.Files)
	assert.Equal(t, 1, hr.Samples)
	assert.False(t, hr.HasIntervals)
	assert.Zero(t, hr.NominalHz)

	// location files have no epoch column; they count as files only
	loc := statsFor(t, r, "location")
	assert.Equal(t, 1, loc.Files)
	assert.Equal(t, 0, loc.Samples)
	assert.False(t, loc.HasIntervals)
}

func TestAnalyzeSubjectFilter(t *testing.T) {
	t.Parallel()

	root := seedTree(t)
	r, err := Analyze(root, "s01", signals.Defaults())
	require.NoError(t, err)

	for _, s := range r.Stats {
		assert.NotEqual(t, "TH", s.Tag)
	}
	assert.Equal(t, 4, r.TotalFiles())
}

func TestAnalyzeMissingRoot(t *testing.T) {
	t.Parallel()

	_, err := Analyze(filepath.Join(t.TempDir(), "nope"), "", nil)
	require.Error(t, err)
}

func TestAnalyzeDropsZeroGaps(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	writeFile(t, root, []string{"s01", "EA", "20240301.csv"},
		"timestamp_iso8601,timestamp_epoch_ms,packet,payload\n"+
			"a,1040,2,1.0\na,1000,1,1.1\na,1000,3,1.2\n")

	r, err := Analyze(root, "", nil)
	require.NoError(t, err)

	ea := statsFor(t, r, "EA")
	assert.Equal(t, 3, ea.Samples)
	require.True(t, ea.HasIntervals)
	// timestamps sort to 1000,1000,1040; the zero gap is dropped
	assert.Equal(t, 40.0, ea.MeanIntervalMS)
	assert.Equal(t, 0.0, ea.StdevIntervalMS)
	assert.Equal(t, 25.0, ea.EstimatedHz)
}

func TestTable(t *testing.T) {
	t.Parallel()

	r := &Report{Stats: []TagStats{
		{
			Tag: "PI", Files: 2, Samples: 5, HasIntervals: true,
			MeanIntervalMS: 40, MedianIntervalMS: 40, StdevIntervalMS: 0,
			EstimatedHz: 25, NominalHz: 25,
		},
		{Tag: "HR", Files: 1, Samples: 1},
	}}

	table := r.Table()
	assert.Contains(t, table, "Type Tag")
	assert.Contains(t, table, "Nominal Hz")
	assert.Contains(t, table, "40.00")
	assert.Contains(t, table, "25.00")
	assert.Contains(t, table, "N/A")
}

func TestWriteXLSX(t *testing.T) {
	t.Parallel()

	root := seedTree(t)
	r, err := Analyze(root, "s01", signals.Defaults())
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "report.xlsx")
	require.NoError(t, r.WriteXLSX(path))

	f, err := xlsx.OpenFile(path)
	require.NoError(t, err)
	require.Len(t, f.Sheets, 1)
	sheet := f.Sheets[0]
	assert.Equal(t, "Sampling Rates", sheet.Name)
	require.Len(t, sheet.Rows, 1+len(r.Stats))

	assert.Equal(t, "Type Tag", sheet.Rows[0].Cells[0].String())
	assert.Equal(t, "HR", sheet.Rows[1].Cells[0].String())
	assert.Equal(t, "PI", sheet.Rows[2].Cells[0].String())
	assert.Equal(t, "", sheet.Rows[1].Cells[3].String(), "no intervals leaves the cell empty")
}
