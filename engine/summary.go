package engine

import "sort"

// ============================================================================
// SUMMARY ENGINE — Value Frequency Distribution
// ============================================================================
// Groups rows by a single column's value over the filtered view. Ordering
// is descending by frequency; ties keep first-encountered order (stable
// sort over insertion order).
// ============================================================================

// Summarize computes the value→count distribution for a column.
// Cells with no usable value fall into the NoDataLabel bucket.
// Percentage is frequency over the total row count of the view, rounded
// to 2 decimal places.
func Summarize(view RowView, column string) []SummaryEntry {
	total := view.Len()
	if total == 0 {
		return nil
	}

	counts := make(map[string]int)
	order := make([]string, 0)

	for i := 0; i < total; i++ {
		label := bucketLabel(view.At(i).Cell(column))
		if _, seen := counts[label]; !seen {
			order = append(order, label)
		}
		counts[label]++
	}

	entries := make([]SummaryEntry, 0, len(order))
	for _, label := range order {
		freq := counts[label]
		entries = append(entries, SummaryEntry{
			Value:      label,
			Frequency:  freq,
			Percentage: RoundTo2(float64(freq) / float64(total) * 100),
		})
	}

	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Frequency > entries[j].Frequency
	})

	return entries
}

// RowsForValue is the drill-down companion to Summarize: all rows whose
// cell equals the given value. Equality is numeric-aware when both sides
// parse as numbers, so "5" and 5 match; otherwise it falls back to exact
// string equality on the display text.
func RowsForValue(view RowView, column, value string) []Row {
	var indices []int
	for i := 0; i < view.Len(); i++ {
		if cellEquals(view.At(i).Cell(column), value) {
			indices = append(indices, i)
		}
	}
	return Materialize(newSubView(view, indices))
}

func cellEquals(v Value, value string) bool {
	// The bucket covers both missing cells and cells whose literal text
	// is the label itself, so drill-down must accept both.
	if value == NoDataLabel {
		return v.Missing() || v.String() == value
	}
	if cf, ok := v.Float(); ok {
		if qf, ok := parseFinite(value); ok {
			return cf == qf
		}
	}
	return v.String() == value
}

func bucketLabel(v Value) string {
	if v.Missing() {
		return NoDataLabel
	}
	return v.String()
}
