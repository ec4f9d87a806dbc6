package report

import (
	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"
)

// WriteXLSX exports the report as a single-sheet workbook. Interval columns
// of tags without measurable intervals are left empty, as is the nominal
// column of unregistered tags.
func (r *Report) WriteXLSX(path string) error {
	f := xlsx.NewFile()
	sheet, err := f.AddSheet("Sampling Rates")
	if err != nil {
		return eris.Wrap(err, "report: add sheet")
	}

	head := sheet.AddRow()
	for _, name := range []string{
		"Type Tag", "Files", "Samples",
		"Mean Interval (ms)", "Median Interval (ms)", "StdDev Interval (ms)",
		"Estimated Hz", "Nominal Hz",
	} {
		head.AddCell().SetString(name)
	}

	for _, s := range r.Stats {
		row := sheet.AddRow()
		row.AddCell().SetString(s.Tag)
		row.AddCell().SetInt(s.Files)
		row.AddCell().SetInt(s.Samples)
		addFloat(row, s.MeanIntervalMS, s.HasIntervals)
		addFloat(row, s.MedianIntervalMS, s.HasIntervals)
		addFloat(row, s.StdevIntervalMS, s.HasIntervals)
		addFloat(row, s.EstimatedHz, s.HasIntervals)
		addFloat(row, s.NominalHz, s.NominalHz > 0)
	}

	if err := f.Save(path); err != nil {
		return eris.Wrapf(err, "report: save %s", path)
	}
	return nil
}

func addFloat(row *xlsx.Row, v float64, ok bool) {
	cell := row.AddCell()
	if ok {
		cell.SetFloat(v)
	}
}
