package ingest

import (
	"strconv"
	"strings"

	"github.com/cenvi-org/geodash/engine"
)

// ============================================================================
// CLEANING + FIELD AUTO-DETECTION
// ============================================================================
// Column typing rule: the first non-empty observed value decides. If it
// parses as a number the whole column is numeric — every later value is
// coerced, unparsable entries to zero. Text columns use the "null"
// sentinel for missing data. The zero/sentinel asymmetry is intentional:
// numeric pivots need numbers, text summaries need a visible bucket.
//
// Lat/lng/name detection is best-effort substring matching over column
// names; a dataset without coordinates is still usable for summaries and
// pivots, it just yields no geo points.
// ============================================================================

var (
	latTerms  = []string{"latitude", "lat", "_lat"}
	lngTerms  = []string{"longitude", "lng", "lon", "_lon"}
	nameTerms = []string{"last name", "surname", "household head", "name"}
)

// buildDataset turns a raw header + records table into a cleaned Dataset.
// Headers are trimmed; duplicate-after-trim names collapse to one key
// with the last column winning. Seq ids are 1-based in parse order.
func buildDataset(source string, header []string, records [][]string) (*engine.Dataset, error) {
	type column struct {
		name string
		idx  int // source column index; later duplicates overwrite
	}

	var columns []column
	pos := make(map[string]int)
	for i, h := range header {
		name := strings.TrimSpace(h)
		if name == "" {
			continue
		}
		if at, dup := pos[name]; dup {
			columns[at].idx = i // last write wins
			continue
		}
		pos[name] = len(columns)
		columns = append(columns, column{name: name, idx: i})
	}
	if len(columns) == 0 {
		return nil, failf(source, KindNoHeader, "no usable column names in header row")
	}

	rows := dropEmpty(records)
	if len(rows) == 0 {
		return nil, failf(source, KindEmptyFile, "no data rows")
	}

	// First non-empty observed value per column decides numeric-ness.
	numeric := make(map[string]bool, len(columns))
	for _, col := range columns {
		for _, rec := range rows {
			v := strings.TrimSpace(cellAt(rec, col.idx))
			if v == "" {
				continue
			}
			_, err := strconv.ParseFloat(v, 64)
			numeric[col.name] = err == nil
			break
		}
	}

	names := make([]string, len(columns))
	for i, col := range columns {
		names[i] = col.name
	}

	cleaned := make([]engine.Row, 0, len(rows))
	for i, rec := range rows {
		cells := make(map[string]engine.Value, len(columns))
		for _, col := range columns {
			raw := strings.TrimSpace(cellAt(rec, col.idx))
			if numeric[col.name] {
				cells[col.name] = engine.NumValue(raw)
			} else {
				cells[col.name] = engine.TextValue(raw)
			}
		}
		cleaned = append(cleaned, engine.Row{Seq: i + 1, Cells: cells})
	}

	ds := &engine.Dataset{
		SourceName: source,
		Columns:    names,
		Rows:       cleaned,
		Numeric:    numeric,
	}
	ds.LatColumn = detectColumn(names, latTerms, "")
	ds.LngColumn = detectColumn(names, lngTerms, ds.LatColumn)
	ds.NameColumn = detectName(names)
	return ds, nil
}

func cellAt(rec []string, i int) string {
	if i < 0 || i >= len(rec) {
		return ""
	}
	return rec[i]
}

func dropEmpty(records [][]string) [][]string {
	kept := make([][]string, 0, len(records))
	for _, rec := range records {
		empty := true
		for _, v := range rec {
			if strings.TrimSpace(v) != "" {
				empty = false
				break
			}
		}
		if !empty {
			kept = append(kept, rec)
		}
	}
	return kept
}

// detectColumn scans terms in priority order and returns the first column
// whose lowercased name contains the term. skip excludes a column already
// claimed (keeps "lat" from matching the longitude pick and vice versa).
func detectColumn(columns []string, terms []string, skip string) string {
	for _, term := range terms {
		for _, col := range columns {
			if col == skip {
				continue
			}
			if strings.Contains(strings.ToLower(col), term) {
				return col
			}
		}
	}
	return ""
}

// detectName picks the label column for map popups: prioritized human
// name substrings, falling back to the first column.
func detectName(columns []string) string {
	if col := detectColumn(columns, nameTerms, ""); col != "" {
		return col
	}
	if len(columns) > 0 {
		return columns[0]
	}
	return ""
}
