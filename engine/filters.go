package engine

// ============================================================================
// FILTER ENGINE — Conjunctive Row Filtering
// ============================================================================
// Single pass: a row passes iff it passes EVERY filter (logical AND).
// There is no per-filter OR grouping. Pending filters (blank value) are
// skipped up front, so an all-pending filter list is the identity.
// Returns a SubView (index list into parent) — zero data copy.
// ============================================================================

// ApplyFilters returns the view of rows matching all filters, preserving
// order. O(rows × filters); fine for client-side datasets up to low tens
// of thousands of rows.
func ApplyFilters(view RowView, filters []Filter) RowView {
	active := make([]Filter, 0, len(filters))
	for _, f := range filters {
		if !f.Pending() {
			active = append(active, f)
		}
	}
	if len(active) == 0 {
		return view
	}

	n := view.Len()
	indices := make([]int, 0, n)
	for i := 0; i < n; i++ {
		row := view.At(i)
		pass := true
		for _, f := range active {
			if !f.Matches(row.Cell(f.Column)) {
				pass = false
				break
			}
		}
		if pass {
			indices = append(indices, i)
		}
	}

	return newSubView(view, indices)
}
