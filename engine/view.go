package engine

// ============================================================================
// ROW VIEW — Zero-Copy Data Access
// ============================================================================
// Derived collections (filtered rows, pivot buckets) are index lists into
// the parent view — row data is never copied. A view is always a pure
// function of the dataset plus configuration, so it can be recomputed
// cheaply whenever either changes.
// ============================================================================

// RowView provides indexed access to an ordered set of rows.
type RowView interface {
	Len() int
	At(i int) Row
}

// SliceView wraps a []Row as a RowView.
type SliceView struct {
	rows []Row
}

// NewSliceView creates a RowView backed by the given slice.
func NewSliceView(rows []Row) RowView {
	return &SliceView{rows: rows}
}

func (v *SliceView) Len() int { return len(v.rows) }

func (v *SliceView) At(i int) Row {
	if i < 0 || i >= len(v.rows) {
		return Row{}
	}
	return v.rows[i]
}

// SubView is an order-preserving subset of a parent view.
// Holds indices into the parent — no data copy.
type SubView struct {
	parent  RowView
	indices []int
}

func newSubView(parent RowView, indices []int) RowView {
	return &SubView{parent: parent, indices: indices}
}

func (v *SubView) Len() int { return len(v.indices) }

func (v *SubView) At(i int) Row {
	if i < 0 || i >= len(v.indices) {
		return Row{}
	}
	return v.parent.At(v.indices[i])
}

// Materialize copies a view out into a fresh slice.
func Materialize(v RowView) []Row {
	rows := make([]Row, 0, v.Len())
	for i := 0; i < v.Len(); i++ {
		rows = append(rows, v.At(i))
	}
	return rows
}
