package ingest

import (
	"bytes"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/cenvi-org/geodash/engine"
)

// ============================================================================
// XLSX INGESTION — First Sheet + Optional Child-Record Join
// ============================================================================
// The first sheet's tabular range is the dataset. When a second sheet
// carries a parent-index/parent-table reference pair (household surveys
// keep member records this way), its rows are joined onto the dataset as
// children keyed by parent row sequence id.
// ============================================================================

// XLSX parses a workbook blob.
func XLSX(source string, data []byte) (*engine.Dataset, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, failf(source, KindUnparsable, "open workbook: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, &Error{Kind: KindEmptyFile, Source: source}
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, failf(source, KindUnparsable, "read sheet %q: %w", sheets[0], err)
	}
	if len(rows) == 0 {
		return nil, &Error{Kind: KindEmptyFile, Source: source}
	}

	ds, err := buildDataset(source, rows[0], rows[1:])
	if err != nil {
		return nil, err
	}

	if len(sheets) > 1 {
		// Best-effort: a broken child sheet never fails the ingestion.
		if children, ok := parseChildSheet(f, sheets[1], sheets[0]); ok {
			ds.Children = children
		}
	}

	return ds, nil
}

// Reference columns linking a child sheet row to its parent row.
const (
	parentIndexColumn = "_parent_index"
	parentTableColumn = "_parent_table_name"
)

// parseChildSheet reads child records and groups them by parent row
// index. Rows whose parent-table reference names a different sheet are
// skipped.
func parseChildSheet(f *excelize.File, sheet, parentSheet string) (map[int][]engine.Row, bool) {
	rows, err := f.GetRows(sheet)
	if err != nil || len(rows) < 2 {
		return nil, false
	}

	header := rows[0]
	idxCol := findHeader(header, parentIndexColumn, "parent", "index")
	if idxCol < 0 {
		return nil, false
	}
	tableCol := findHeader(header, parentTableColumn, "parent", "table")

	child, err := buildDataset(sheet, header, rows[1:])
	if err != nil {
		return nil, false
	}

	children := make(map[int][]engine.Row)
	for _, row := range child.Rows {
		ref := row.Cell(strings.TrimSpace(header[idxCol]))
		parent, err := strconv.Atoi(strings.TrimSpace(ref.String()))
		if err != nil {
			parent = int(ref.Coerce())
		}
		if parent <= 0 {
			continue
		}
		if tableCol >= 0 {
			table := row.Cell(strings.TrimSpace(header[tableCol])).Raw
			if table != "" && !strings.EqualFold(table, parentSheet) {
				continue
			}
		}
		children[parent] = append(children[parent], row)
	}

	if len(children) == 0 {
		return nil, false
	}
	return children, true
}

// findHeader locates a reference column: exact name first, then any
// header containing both substrings.
func findHeader(header []string, exact string, subA, subB string) int {
	for i, h := range header {
		if strings.EqualFold(strings.TrimSpace(h), exact) {
			return i
		}
	}
	for i, h := range header {
		l := strings.ToLower(h)
		if strings.Contains(l, subA) && strings.Contains(l, subB) {
			return i
		}
	}
	return -1
}
