package engine

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func surveyRows(t *testing.T) RowView {
	t.Helper()
	rows := rowsFrom(t,
		[]string{"Type", "Barangay", "Damage"},
		map[string]bool{"Damage": true},
		[][]string{
			{"Fire", "Lahug", "100"},
			{"Flood", "Talamban", "40"},
			{"Fire", "Talamban", "60"},
			{"Fire", "Lahug", "bad"},
			{"Flood", "Lahug", "10"},
		})
	return NewSliceView(rows)
}

func TestComputePivot(t *testing.T) {
	view := surveyRows(t)

	t.Run("count with no column field uses synthetic Total column", func(t *testing.T) {
		p := ComputePivot(view, PivotConfig{RowField: "Type", Aggregation: AggCount})
		require.NotNil(t, p)
		require.Equal(t, []string{TotalColumn}, p.ColKeys)

		fire, ok := p.Value("Fire", TotalColumn)
		require.True(t, ok)
		require.Equal(t, 3.0, fire)
		require.Equal(t, 3.0, p.RowTotal("Fire"))

		flood, ok := p.Value("Flood", TotalColumn)
		require.True(t, ok)
		require.Equal(t, 2.0, flood)
	})

	t.Run("count grand total equals source row count", func(t *testing.T) {
		p := ComputePivot(view, PivotConfig{
			RowField:    "Type",
			ColField:    "Barangay",
			Aggregation: AggCount,
		})
		require.Equal(t, float64(view.Len()), p.GrandTotal())
		require.Equal(t, view.Len(), p.SourceRows)
	})

	t.Run("sum coerces unparsable values to zero", func(t *testing.T) {
		p := ComputePivot(view, PivotConfig{
			RowField:    "Type",
			ValueField:  "Damage",
			Aggregation: AggSum,
		})
		// Fire damage: 100 + 60 + 0 (unparsable "bad")
		require.Equal(t, 160.0, p.Display("Fire", TotalColumn))
		require.Equal(t, 50.0, p.Display("Flood", TotalColumn))
	})

	t.Run("avg divides by bucket size", func(t *testing.T) {
		p := ComputePivot(view, PivotConfig{
			RowField:    "Type",
			ValueField:  "Damage",
			Aggregation: AggAvg,
		})
		require.InDelta(t, 160.0/3, mustValue(t, p, "Fire", TotalColumn), 1e-9)
		require.Equal(t, 53.33, p.Display("Fire", TotalColumn))
	})

	t.Run("min and max over coerced values", func(t *testing.T) {
		p := ComputePivot(view, PivotConfig{
			RowField:    "Type",
			ValueField:  "Damage",
			Aggregation: AggMin,
		})
		require.Equal(t, 0.0, mustValue(t, p, "Fire", TotalColumn))
		require.Equal(t, 10.0, mustValue(t, p, "Flood", TotalColumn))

		p = ComputePivot(view, PivotConfig{
			RowField:    "Type",
			ValueField:  "Damage",
			Aggregation: AggMax,
		})
		require.Equal(t, 100.0, mustValue(t, p, "Fire", TotalColumn))
	})

	t.Run("row and column totals cross-check", func(t *testing.T) {
		p := ComputePivot(view, PivotConfig{
			RowField:    "Type",
			ColField:    "Barangay",
			Aggregation: AggCount,
		})
		var rowSum, colSum float64
		for _, rk := range p.RowKeys {
			rowSum += p.RowTotal(rk)
		}
		for _, ck := range p.ColKeys {
			colSum += p.ColTotal(ck)
		}
		require.Equal(t, rowSum, colSum)
		require.Equal(t, p.GrandTotal(), rowSum)
	})

	t.Run("empty bucket reads as absent", func(t *testing.T) {
		p := ComputePivot(view, PivotConfig{
			RowField:    "Type",
			ColField:    "Barangay",
			Aggregation: AggCount,
		})
		// No landslides anywhere.
		_, ok := p.Value("Landslide", "Lahug")
		require.False(t, ok)
		require.Equal(t, 0.0, p.Display("Landslide", "Lahug"))
	})

	t.Run("unconfigured pivot renders no matrix", func(t *testing.T) {
		require.Nil(t, ComputePivot(view, PivotConfig{Aggregation: AggCount}))
		require.Nil(t, ComputePivot(view, PivotConfig{RowField: "Type", Aggregation: AggSum}))
	})
}

func mustValue(t *testing.T, p *PivotResult, rk, ck string) float64 {
	t.Helper()
	v, ok := p.Value(rk, ck)
	require.True(t, ok, "missing cell %s/%s", rk, ck)
	return v
}

func TestPivotSort(t *testing.T) {
	view := surveyRows(t)
	p := ComputePivot(view, PivotConfig{
		RowField:    "Type",
		ValueField:  "Damage",
		Aggregation: AggSum,
	})

	t.Run("default order is label ascending", func(t *testing.T) {
		require.Equal(t, []string{"Fire", "Flood"}, p.RowKeys)
	})

	t.Run("sort by total descending", func(t *testing.T) {
		p.Sort(PivotSort{Field: SortByTotal, Descending: true})
		require.Equal(t, []string{"Fire", "Flood"}, p.RowKeys)

		p.Sort(PivotSort{Field: SortByTotal})
		require.Equal(t, []string{"Flood", "Fire"}, p.RowKeys)
	})

	t.Run("sort by a column key's value", func(t *testing.T) {
		p.Sort(PivotSort{Field: SortByColumn, Column: TotalColumn, Descending: true})
		require.Equal(t, []string{"Fire", "Flood"}, p.RowKeys)
	})

	t.Run("numeric-aware label compare", func(t *testing.T) {
		rows := rowsFrom(t,
			[]string{"Zone"},
			nil,
			[][]string{{"10"}, {"2"}, {"1"}})
		np := ComputePivot(NewSliceView(rows), PivotConfig{RowField: "Zone", Aggregation: AggCount})
		require.Equal(t, []string{"1", "2", "10"}, np.RowKeys)
	})

	t.Run("toggle convention", func(t *testing.T) {
		s := PivotSort{Field: SortByLabel}
		s = NextSort(s, SortByTotal, "")
		require.Equal(t, PivotSort{Field: SortByTotal, Descending: true}, s)

		s = NextSort(s, SortByTotal, "")
		require.False(t, s.Descending)

		s = NextSort(s, SortByColumn, TotalColumn)
		require.Equal(t, PivotSort{Field: SortByColumn, Column: TotalColumn, Descending: true}, s)
	})
}
