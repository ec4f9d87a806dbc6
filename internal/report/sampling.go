// Package report computes sampling-rate statistics over a downloaded parsed
// tree laid out as <root>/<subject>/<tag>/<date>.csv. Rates are estimated
// from the spacing of consecutive timestamps within each file; intervals
// never span file boundaries.
package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/wearlab/sensorsync/internal/signals"
)

const epochColumn = "timestamp_epoch_ms"

// TagStats holds the aggregated sampling statistics of one type tag.
type TagStats struct {
	Tag              string
	Files            int
	Samples          int
	MeanIntervalMS   float64
	MedianIntervalMS float64
	StdevIntervalMS  float64
	EstimatedHz      float64
	NominalHz        float64
	// HasIntervals is false when no file held two ordered timestamps; the
	// interval columns are meaningless then.
	HasIntervals bool
}

// Report is one sampling analysis pass.
type Report struct {
	Root  string
	Stats []TagStats // sorted by tag
}

// Analyze scans the parsed tree under root and aggregates per-tag sampling
// statistics. subject restricts the scan to one subject directory when
// non-empty. The registry supplies nominal rates; nil means no nominals.
func Analyze(root, subject string, reg *signals.Registry) (*Report, error) {
	if _, err := os.Stat(root); err != nil {
		return nil, eris.Wrapf(err, "report: input directory %s", root)
	}

	type agg struct {
		files     int
		samples   int
		intervals []float64
	}
	byTag := make(map[string]*agg)

	subjects, err := os.ReadDir(root)
	if err != nil {
		return nil, eris.Wrapf(err, "report: read %s", root)
	}
	for _, subjDir := range subjects {
		if !subjDir.IsDir() {
			continue
		}
		if subject != "" && subjDir.Name() != subject {
			continue
		}
		tagDirs, err := os.ReadDir(filepath.Join(root, subjDir.Name()))
		if err != nil {
			return nil, eris.Wrapf(err, "report: read subject %s", subjDir.Name())
		}
		for _, tagDir := range tagDirs {
			if !tagDir.IsDir() {
				continue
			}
			tag := tagDir.Name()
			files, err := os.ReadDir(filepath.Join(root, subjDir.Name(), tag))
			if err != nil {
				return nil, eris.Wrapf(err, "report: read tag %s/%s", subjDir.Name(), tag)
			}
			for _, file := range files {
				if file.IsDir() || !strings.HasSuffix(file.Name(), ".csv") {
					continue
				}
				path := filepath.Join(root, subjDir.Name(), tag, file.Name())
				timestamps, err := readTimestamps(path)
				if err != nil {
					return nil, err
				}

				a := byTag[tag]
				if a == nil {
					a = &agg{}
					byTag[tag] = a
				}
				a.files++
				a.samples += len(timestamps)
				a.intervals = append(a.intervals, fileIntervals(timestamps)...)
			}
		}
	}

	report := &Report{Root: root}
	for tag, a := range byTag {
		stats := TagStats{Tag: tag, Files: a.files, Samples: a.samples}
		if len(a.intervals) > 0 {
			stats.HasIntervals = true
			stats.MeanIntervalMS = meanOf(a.intervals)
			stats.MedianIntervalMS = medianOf(a.intervals)
			stats.StdevIntervalMS = stdevOf(a.intervals, stats.MeanIntervalMS)
			stats.EstimatedHz = 1000.0 / stats.MeanIntervalMS
		}
		if reg != nil {
			if sig, ok := reg.Lookup(tag); ok {
				stats.NominalHz = sig.NominalHz
			}
		}
		report.Stats = append(report.Stats, stats)
	}
	sort.Slice(report.Stats, func(i, j int) bool {
		return report.Stats[i].Tag < report.Stats[j].Tag
	})
	return report, nil
}

// Empty reports whether the scan found no files at all.
func (r *Report) Empty() bool { return len(r.Stats) == 0 }

// TotalFiles returns the number of CSV files scanned.
func (r *Report) TotalFiles() int {
	n := 0
	for _, s := range r.Stats {
		n += s.Files
	}
	return n
}

// readTimestamps extracts the epoch column of one parsed CSV as floats.
// Cells that do not parse are skipped; a file without the column, or without
// any rows, contributes no timestamps.
func readTimestamps(path string) ([]float64, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, eris.Wrapf(err, "report: open %s", path)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err == io.EOF {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrapf(err, "report: read header %s", path)
	}
	epochIdx := -1
	for i, name := range header {
		if strings.TrimSpace(name) == epochColumn {
			epochIdx = i
			break
		}
	}
	if epochIdx < 0 {
		return nil, nil
	}

	var timestamps []float64
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, eris.Wrapf(err, "report: read %s", path)
		}
		if epochIdx >= len(row) {
			continue
		}
		ts, err := strconv.ParseFloat(strings.TrimSpace(row[epochIdx]), 64)
		if err != nil {
			continue
		}
		timestamps = append(timestamps, ts)
	}
	return timestamps, nil
}

// fileIntervals returns the positive gaps between consecutive sorted
// timestamps of one file.
func fileIntervals(timestamps []float64) []float64 {
	if len(timestamps) < 2 {
		return nil
	}
	sorted := append([]float64(nil), timestamps...)
	sort.Float64s(sorted)

	var intervals []float64
	for i := 1; i < len(sorted); i++ {
		if gap := sorted[i] - sorted[i-1]; gap > 0 {
			intervals = append(intervals, gap)
		}
	}
	return intervals
}

func meanOf(values []float64) float64 {
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

func medianOf(values []float64) float64 {
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)
	mid := len(sorted) / 2
	if len(sorted)%2 == 0 {
		return (sorted[mid-1] + sorted[mid]) / 2
	}
	return sorted[mid]
}

// stdevOf is the sample standard deviation; a single interval has none.
func stdevOf(values []float64, mean float64) float64 {
	if len(values) < 2 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		d := v - mean
		sum += d * d
	}
	return math.Sqrt(sum / float64(len(values)-1))
}

// Table renders the report as a fixed-width text table.
func (r *Report) Table() string {
	var b strings.Builder

	head := fmt.Sprintf("%-15s %-8s %-12s %-12s %-12s %-12s %-10s %-10s",
		"Type Tag", "Files", "Samples", "Mean (ms)", "Median (ms)", "StdDev (ms)", "Est. Hz", "Nominal Hz")
	rule := strings.Repeat("=", len(head))

	b.WriteString(rule + "\n")
	b.WriteString(head + "\n")
	b.WriteString(rule + "\n")
	for _, s := range r.Stats {
		fmt.Fprintf(&b, "%-15s %-8d %-12d %-12s %-12s %-12s %-10s %-10s\n",
			s.Tag, s.Files, s.Samples,
			fmtMS(s.MeanIntervalMS, s.HasIntervals),
			fmtMS(s.MedianIntervalMS, s.HasIntervals),
			fmtMS(s.StdevIntervalMS, s.HasIntervals),
			fmtMS(s.EstimatedHz, s.HasIntervals),
			fmtMS(s.NominalHz, s.NominalHz > 0))
	}
	b.WriteString(rule + "\n")
	return b.String()
}

func fmtMS(v float64, ok bool) string {
	if !ok {
		return "N/A"
	}
	return strconv.FormatFloat(v, 'f', 2, 64)
}
