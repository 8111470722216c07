package report

import (
	"fmt"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"

	"github.com/jointuse/polecompare/internal/model"
)

var xlsxHeader = []string{
	"SCID",
	"SPIDA Pole #", "Katapult Pole #",
	"SPIDA Spec", "Katapult Spec",
	"SPIDA Existing %", "Katapult Existing %",
	"SPIDA Final %", "Katapult Final %",
	"Match Method", "Distance (m)",
	"Mismatched Fields",
}

// WriteXLSX writes the report as a spreadsheet, one row per pole.
func WriteXLSX(r *Report, path string) error {
	f := xlsx.NewFile()
	sheet, err := f.AddSheet("Comparison")
	if err != nil {
		return eris.Wrap(err, "report: add sheet")
	}

	head := sheet.AddRow()
	for _, h := range xlsxHeader {
		head.AddCell().Value = h
	}

	for i := range r.Rows {
		addXLSXRow(sheet, &r.Rows[i])
	}

	if err := f.Save(path); err != nil {
		return eris.Wrapf(err, "report: save %s", path)
	}
	return nil
}

func addXLSXRow(sheet *xlsx.Sheet, row *Row) {
	out := sheet.AddRow()
	out.AddCell().Value = row.SCID
	out.AddCell().Value = row.SpidaPoleNum
	out.AddCell().Value = row.KatapultPoleNum
	out.AddCell().Value = row.SpidaSpec
	out.AddCell().Value = row.KatapultSpec
	out.AddCell().Value = row.SpidaExisting
	out.AddCell().Value = row.KatapultExisting
	out.AddCell().Value = row.SpidaFinal
	out.AddCell().Value = row.KatapultFinal
	out.AddCell().Value = string(row.Method)
	if row.DistanceM != nil {
		out.AddCell().Value = fmt.Sprintf("%.2f", *row.DistanceM)
	} else {
		out.AddCell()
	}
	out.AddCell().Value = mismatchSummary(row.Diffs)
}

func mismatchSummary(diffs []model.FieldDiff) string {
	var fields string
	for _, fd := range diffs {
		if fd.Status == model.StatusMatch {
			continue
		}
		if fields != "" {
			fields += ", "
		}
		fields += fmt.Sprintf("%s (%s)", fd.FieldName, fd.Status)
	}
	return fields
}
