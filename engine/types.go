package engine

import (
	"math"
	"strconv"
	"strings"
)

// ============================================================================
// ENGINE TYPES — Tabular Analysis Core
// ============================================================================
// A Dataset is created wholesale at ingestion and replaced wholesale on
// re-ingestion. Rows are never mutated after cleaning; every derived view
// (filtered, projected, pivoted) is computed fresh from the current state.
// ============================================================================

// MissingText is the canonical stand-in for a missing value in a text
// column. It is a literal sentinel string, not a language nil — numeric
// columns use zero instead. The asymmetry keeps numeric pivots correct.
const MissingText = "null"

// NoDataLabel is the bucket label used by summaries and pivots for cells
// with no usable value.
const NoDataLabel = "No Data"

// ============================================================================
// VALUE — one cell
// ============================================================================

// Value is a single cell. Cells in numeric columns carry the coerced
// number in Num; Raw always preserves the original text so that
// coordinate validation can reject unparsable entries instead of treating
// the zero substitute as a real position.
type Value struct {
	Raw     string  `json:"raw,omitempty"`
	Num     float64 `json:"num,omitempty"`
	Numeric bool    `json:"numeric,omitempty"`
	Parsed  bool    `json:"parsed,omitempty"`
}

// TextValue builds a cell for a text column. Empty input becomes the
// MissingText sentinel.
func TextValue(raw string) Value {
	if raw == "" {
		raw = MissingText
	}
	return Value{Raw: raw}
}

// NumValue builds a cell for a numeric column. Unparsable input coerces
// to zero with Parsed left false.
func NumValue(raw string) Value {
	v := Value{Raw: raw, Numeric: true}
	if f, err := strconv.ParseFloat(strings.TrimSpace(raw), 64); err == nil && !math.IsNaN(f) && !math.IsInf(f, 0) {
		v.Num = f
		v.Parsed = true
	}
	return v
}

// String returns the cell's display text. Parsed numeric cells format the
// coerced number so "5.0" and "5" compare equal downstream.
func (v Value) String() string {
	if v.Numeric && v.Parsed {
		return strconv.FormatFloat(v.Num, 'f', -1, 64)
	}
	return v.Raw
}

// Float returns the cell as a finite number. Text cells that happen to
// hold numeric text parse successfully — upstream coercion can leave
// mixed representations, and comparisons must treat "5" and 5 as equal.
func (v Value) Float() (float64, bool) {
	if v.Numeric {
		return v.Num, v.Parsed
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(v.Raw), 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// Coerce returns the cell as a number, with unparsable cells as zero.
func (v Value) Coerce() float64 {
	f, ok := v.Float()
	if !ok {
		return 0
	}
	return f
}

// Missing reports whether the cell holds no usable value.
func (v Value) Missing() bool {
	if v.Numeric {
		return strings.TrimSpace(v.Raw) == ""
	}
	return v.Raw == "" || v.Raw == MissingText
}

// ============================================================================
// ROW — one data record
// ============================================================================

// Row is one record from the ingested file, keyed by original column
// name. Seq is the 1-based sequence id assigned at ingestion; it is
// immutable and scoped to a single ingestion.
type Row struct {
	Seq   int              `json:"seq"`
	Cells map[string]Value `json:"cells"`
}

// Cell returns the value for a column, zero Value if absent.
func (r Row) Cell(column string) Value {
	return r.Cells[column]
}

// ============================================================================
// DATASET — the single active dataset
// ============================================================================

// Dataset is the result of one ingestion: ordered rows, the discovered
// column set, per-column numeric flags, and best-effort detected fields.
// Children carries the optional child-record join from multi-sheet
// workbooks, keyed by parent row sequence id.
type Dataset struct {
	SourceName string          `json:"sourceName"`
	Columns    []string        `json:"columns"`
	Rows       []Row           `json:"rows"`
	Numeric    map[string]bool `json:"numeric"`

	LatColumn  string `json:"latColumn,omitempty"`
	LngColumn  string `json:"lngColumn,omitempty"`
	NameColumn string `json:"nameColumn,omitempty"`

	Children map[int][]Row `json:"children,omitempty"`
}

// View wraps the dataset's rows as a RowView.
func (d *Dataset) View() RowView {
	return NewSliceView(d.Rows)
}

// HasColumn reports whether the column exists in the discovered set.
func (d *Dataset) HasColumn(name string) bool {
	for _, c := range d.Columns {
		if c == name {
			return true
		}
	}
	return false
}

// Preview returns the first n rows for configuration surfaces.
func (d *Dataset) Preview(n int) []Row {
	if n > len(d.Rows) {
		n = len(d.Rows)
	}
	return d.Rows[:n]
}

// ChildrenOf returns the joined child rows for a parent row, if any.
func (d *Dataset) ChildrenOf(seq int) []Row {
	return d.Children[seq]
}

// ============================================================================
// FILTER — one conjunctive predicate
// ============================================================================

// FilterOp is a filter comparison operator.
type FilterOp string

const (
	FilterEquals     FilterOp = "equals"
	FilterContains   FilterOp = "contains"
	FilterStartsWith FilterOp = "starts_with"
)

// Filter is one (column, operator, value) predicate. A filter with a
// blank value is pending and always passes — a filter row is not a
// constraint until a value is typed.
type Filter struct {
	Column string   `json:"column"`
	Op     FilterOp `json:"op"`
	Value  string   `json:"value"`
}

// Pending reports whether the filter has no effective value yet.
func (f Filter) Pending() bool {
	return strings.TrimSpace(f.Value) == ""
}

// Matches evaluates the filter against a single cell.
// Comparison is case-insensitive over the cell's display text.
func (f Filter) Matches(v Value) bool {
	if f.Pending() {
		return true
	}
	cell := strings.ToLower(v.String())
	want := strings.ToLower(f.Value)
	switch f.Op {
	case FilterEquals:
		return cell == want
	case FilterContains:
		return strings.Contains(cell, want)
	case FilterStartsWith:
		return strings.HasPrefix(cell, want)
	default:
		return false
	}
}

// ============================================================================
// PIVOT CONFIG
// ============================================================================

// Aggregation selects the reduction applied to each pivot bucket.
type Aggregation string

const (
	AggCount Aggregation = "count"
	AggSum   Aggregation = "sum"
	AggAvg   Aggregation = "avg"
	AggMin   Aggregation = "min"
	AggMax   Aggregation = "max"
)

// PivotConfig defines one pivot table. ColField empty collapses all rows
// into a single synthetic "Total" column. ValueField is required for
// every aggregation except count.
type PivotConfig struct {
	ID          string      `json:"id"`
	RowField    string      `json:"rowField"`
	ColField    string      `json:"colField,omitempty"`
	ValueField  string      `json:"valueField,omitempty"`
	Aggregation Aggregation `json:"aggregation"`
}

// Configured reports whether the pivot can produce a matrix.
func (c PivotConfig) Configured() bool {
	if c.RowField == "" {
		return false
	}
	if c.Aggregation != AggCount && c.ValueField == "" {
		return false
	}
	return true
}

// ============================================================================
// SUMMARY + GEO OUTPUT
// ============================================================================

// SummaryEntry is one bucket of a frequency summary. Percentage is the
// share of the total filtered row count, rounded to 2 decimal places.
type SummaryEntry struct {
	Value      string  `json:"value"`
	Frequency  int     `json:"frequency"`
	Percentage float64 `json:"percentage"`
}

// GeoPoint is a row resolved to a valid coordinate pair. Derived, never
// stored — recomputed whenever the filtered rows or the chosen lat/lng
// columns change.
type GeoPoint struct {
	Row Row     `json:"row"`
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// BoundingBox frames a set of geo points for an initial map view.
type BoundingBox struct {
	MinLat float64 `json:"minLat"`
	MinLng float64 `json:"minLng"`
	MaxLat float64 `json:"maxLat"`
	MaxLng float64 `json:"maxLng"`
}

// RoundTo2 rounds to 2 decimal places for presentation. Engines keep the
// unrounded value internally so totals don't compound rounding error.
func RoundTo2(v float64) float64 {
	return math.Round(v*100) / 100
}
