package export

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/cenvi-org/geodash/engine"
)

// ============================================================================
// WORKBOOK EXPORT — Pivot + Source Dataset
// ============================================================================
// Two logical tables in one workbook: the pivot matrix with row/column
// totals, and the full source dataset. Cell values are the display
// (2-decimal) form; totals are computed from unrounded values first and
// rounded last.
// ============================================================================

// Sheet names in the exported workbook.
const (
	PivotSheet  = "Pivot Analysis"
	SourceSheet = "Source Dataset"
)

// Workbook builds the two-sheet export for one pivot over the current
// dataset. labels resolves display names for source columns.
func Workbook(pivot *engine.PivotResult, cfg engine.PivotConfig, ds *engine.Dataset, labels *engine.ColumnConfig) (*excelize.File, error) {
	if pivot == nil {
		return nil, fmt.Errorf("pivot is not configured")
	}

	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", PivotSheet); err != nil {
		return nil, err
	}
	if err := writePivotSheet(f, pivot, cfg, labels); err != nil {
		return nil, err
	}

	if _, err := f.NewSheet(SourceSheet); err != nil {
		return nil, err
	}
	if err := writeSourceSheet(f, ds, labels); err != nil {
		return nil, err
	}

	return f, nil
}

func writePivotSheet(f *excelize.File, pivot *engine.PivotResult, cfg engine.PivotConfig, labels *engine.ColumnConfig) error {
	header := make([]any, 0, len(pivot.ColKeys)+2)
	header = append(header, labels.Label(cfg.RowField))
	for _, ck := range pivot.ColKeys {
		header = append(header, ck)
	}
	header = append(header, "Total")
	if err := setRow(f, PivotSheet, 1, header); err != nil {
		return err
	}

	for i, rk := range pivot.RowKeys {
		row := make([]any, 0, len(header))
		row = append(row, rk)
		for _, ck := range pivot.ColKeys {
			row = append(row, pivot.Display(rk, ck))
		}
		row = append(row, engine.RoundTo2(pivot.RowTotal(rk)))
		if err := setRow(f, PivotSheet, i+2, row); err != nil {
			return err
		}
	}

	totals := make([]any, 0, len(header))
	totals = append(totals, "Total")
	for _, ck := range pivot.ColKeys {
		totals = append(totals, engine.RoundTo2(pivot.ColTotal(ck)))
	}
	totals = append(totals, engine.RoundTo2(pivot.GrandTotal()))
	return setRow(f, PivotSheet, len(pivot.RowKeys)+2, totals)
}

func writeSourceSheet(f *excelize.File, ds *engine.Dataset, labels *engine.ColumnConfig) error {
	header := make([]any, 0, len(ds.Columns))
	for _, col := range ds.Columns {
		header = append(header, labels.Label(col))
	}
	if err := setRow(f, SourceSheet, 1, header); err != nil {
		return err
	}

	for i, row := range ds.Rows {
		rec := make([]any, 0, len(ds.Columns))
		for _, col := range ds.Columns {
			rec = append(rec, exportCell(row.Cell(col)))
		}
		if err := setRow(f, SourceSheet, i+2, rec); err != nil {
			return err
		}
	}
	return nil
}

// exportCell keeps numbers as numbers in the sheet and blanks the
// missing-text sentinel.
func exportCell(v engine.Value) any {
	if v.Numeric && v.Parsed {
		return v.Num
	}
	if v.Missing() {
		return ""
	}
	return v.Raw
}

func setRow(f *excelize.File, sheet string, rowNum int, values []any) error {
	cell, err := excelize.CoordinatesToCellName(1, rowNum)
	if err != nil {
		return err
	}
	return f.SetSheetRow(sheet, cell, &values)
}
