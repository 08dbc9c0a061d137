package engine

import (
	"math"
	"sort"
	"strconv"
	"strings"
)

// ============================================================================
// PIVOT ENGINE — 2-D Aggregation Matrix
// ============================================================================
// Pipeline: bucket rows by (rowField, colField) → reduce each bucket with
// the configured aggregation → sort row keys. Pivots are views, never
// materialized snapshots: each one is recomputed from the current
// filtered row set, so it always reflects live filter/dataset changes.
//
// Matrix cells are kept unrounded; Display rounds to 2 decimal places so
// row/column totals never compound rounding error.
// ============================================================================

// TotalColumn is the synthetic column key used when no colField is set.
const TotalColumn = "Total"

// PivotResult is the computed aggregation matrix. Cells is keyed
// rowKey → colKey → unrounded value. Absent cells mean no rows fell into
// that bucket.
type PivotResult struct {
	RowKeys []string                      `json:"rowKeys"`
	ColKeys []string                      `json:"colKeys"`
	Cells   map[string]map[string]float64 `json:"cells"`

	Aggregation Aggregation `json:"aggregation"`
	SourceRows  int         `json:"sourceRows"`
}

// ComputePivot aggregates a view per the config. An unconfigured pivot
// renders no matrix and returns nil.
func ComputePivot(view RowView, cfg PivotConfig) *PivotResult {
	if !cfg.Configured() {
		return nil
	}

	type bucket struct {
		count int
		sum   float64
		min   float64
		max   float64
	}

	cells := make(map[string]map[string]bucket)
	var rowKeys, colKeys []string
	seenRow := make(map[string]bool)
	seenCol := make(map[string]bool)

	for i := 0; i < view.Len(); i++ {
		row := view.At(i)
		rk := bucketLabel(row.Cell(cfg.RowField))
		ck := TotalColumn
		if cfg.ColField != "" {
			ck = bucketLabel(row.Cell(cfg.ColField))
		}

		if !seenRow[rk] {
			seenRow[rk] = true
			rowKeys = append(rowKeys, rk)
		}
		if !seenCol[ck] {
			seenCol[ck] = true
			colKeys = append(colKeys, ck)
		}

		var val float64
		if cfg.Aggregation != AggCount {
			val = row.Cell(cfg.ValueField).Coerce()
		}

		if cells[rk] == nil {
			cells[rk] = make(map[string]bucket)
		}
		b, exists := cells[rk][ck]
		if !exists {
			b = bucket{min: val, max: val}
		}
		b.count++
		b.sum += val
		if val < b.min {
			b.min = val
		}
		if val > b.max {
			b.max = val
		}
		cells[rk][ck] = b
	}

	result := &PivotResult{
		RowKeys:     rowKeys,
		ColKeys:     colKeys,
		Cells:       make(map[string]map[string]float64, len(cells)),
		Aggregation: cfg.Aggregation,
		SourceRows:  view.Len(),
	}

	for rk, cols := range cells {
		result.Cells[rk] = make(map[string]float64, len(cols))
		for ck, b := range cols {
			var v float64
			switch cfg.Aggregation {
			case AggCount:
				v = float64(b.count)
			case AggSum:
				v = b.sum
			case AggAvg:
				v = b.sum / float64(b.count)
			case AggMin:
				v = b.min
			case AggMax:
				v = b.max
			default:
				v = float64(b.count)
			}
			result.Cells[rk][ck] = v
		}
	}

	// Default presentation order: row-field label ascending. A sort
	// request from the surface overrides this via Sort.
	result.Sort(PivotSort{Field: SortByLabel})

	return result
}

// Value returns the unrounded cell value; ok is false when no rows fell
// into that bucket.
func (p *PivotResult) Value(rowKey, colKey string) (float64, bool) {
	cols, ok := p.Cells[rowKey]
	if !ok {
		return 0, false
	}
	v, ok := cols[colKey]
	return v, ok
}

// Display returns the cell rounded to 2 decimal places for presentation.
// Empty buckets display as zero.
func (p *PivotResult) Display(rowKey, colKey string) float64 {
	v, _ := p.Value(rowKey, colKey)
	return RoundTo2(v)
}

// RowTotal sums a pivot row across all column keys. Unrounded.
func (p *PivotResult) RowTotal(rowKey string) float64 {
	var total float64
	for _, v := range p.Cells[rowKey] {
		total += v
	}
	return total
}

// ColTotal sums a pivot column across all row keys. Unrounded.
func (p *PivotResult) ColTotal(colKey string) float64 {
	var total float64
	for _, cols := range p.Cells {
		total += cols[colKey]
	}
	return total
}

// GrandTotal sums the whole matrix. For count aggregation this equals the
// filtered row count.
func (p *PivotResult) GrandTotal() float64 {
	var total float64
	for rk := range p.Cells {
		total += p.RowTotal(rk)
	}
	return total
}

// ============================================================================
// SORTING
// ============================================================================

// PivotSortField selects what a pivot row sort compares.
type PivotSortField string

const (
	SortByLabel  PivotSortField = "label"  // row-field label
	SortByColumn PivotSortField = "column" // one column key's value
	SortByTotal  PivotSortField = "total"  // row total
)

// PivotSort describes the current row ordering of a pivot table.
type PivotSort struct {
	Field      PivotSortField `json:"field"`
	Column     string         `json:"column,omitempty"` // for SortByColumn
	Descending bool           `json:"descending"`
}

// NextSort implements the toggle convention: re-selecting the current
// field flips direction; selecting a new field starts descending.
func NextSort(current PivotSort, field PivotSortField, column string) PivotSort {
	if current.Field == field && current.Column == column {
		current.Descending = !current.Descending
		return current
	}
	return PivotSort{Field: field, Column: column, Descending: true}
}

// Sort reorders RowKeys in place. Label comparison is numeric-aware when
// both keys parse as numbers, case-insensitive lexicographic otherwise.
func (p *PivotResult) Sort(s PivotSort) {
	less := func(a, b string) bool {
		switch s.Field {
		case SortByColumn:
			av, _ := p.Value(a, s.Column)
			bv, _ := p.Value(b, s.Column)
			if av != bv {
				return av < bv
			}
			return compareLabels(a, b) < 0
		case SortByTotal:
			at, bt := p.RowTotal(a), p.RowTotal(b)
			if at != bt {
				return at < bt
			}
			return compareLabels(a, b) < 0
		default:
			return compareLabels(a, b) < 0
		}
	}
	sort.SliceStable(p.RowKeys, func(i, j int) bool {
		if s.Descending {
			return less(p.RowKeys[j], p.RowKeys[i])
		}
		return less(p.RowKeys[i], p.RowKeys[j])
	})
}

// compareLabels orders labels numerically when both parse as numbers,
// else case-insensitively.
func compareLabels(a, b string) int {
	af, aok := parseFinite(a)
	bf, bok := parseFinite(b)
	if aok && bok {
		switch {
		case af < bf:
			return -1
		case af > bf:
			return 1
		default:
			return 0
		}
	}
	return strings.Compare(strings.ToLower(a), strings.ToLower(b))
}

func parseFinite(s string) (float64, bool) {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}
