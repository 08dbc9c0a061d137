package export

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/cenvi-org/geodash/engine"
	"github.com/cenvi-org/geodash/ingest"
)

var sampleCSV = []byte(`Name,Type,Damage
A,Fire,100
B,Flood,40
C,Fire,60
`)

func sampleDataset(t *testing.T) (*engine.Dataset, *engine.ColumnConfig) {
	t.Helper()
	ds, err := ingest.CSV("sample.csv", sampleCSV)
	require.NoError(t, err)
	return ds, engine.NewColumnConfig(ds.Columns)
}

func TestWorkbook(t *testing.T) {
	ds, labels := sampleDataset(t)
	cfg := engine.PivotConfig{RowField: "Type", Aggregation: engine.AggCount}
	pivot := engine.ComputePivot(ds.View(), cfg)

	f, err := Workbook(pivot, cfg, ds, labels)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, f.Write(&buf))

	re, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer re.Close()

	require.Equal(t, []string{PivotSheet, SourceSheet}, re.GetSheetList())

	t.Run("pivot sheet carries matrix and totals", func(t *testing.T) {
		rows, err := re.GetRows(PivotSheet)
		require.NoError(t, err)
		require.Equal(t, []string{"Type", "Total", "Total"}, rows[0])
		require.Equal(t, []string{"Fire", "2", "2"}, rows[1])
		require.Equal(t, []string{"Flood", "1", "1"}, rows[2])
		require.Equal(t, []string{"Total", "3", "3"}, rows[3])
	})

	t.Run("source sheet carries the full dataset", func(t *testing.T) {
		rows, err := re.GetRows(SourceSheet)
		require.NoError(t, err)
		require.Len(t, rows, 1+len(ds.Rows))
		require.Equal(t, []string{"Name", "Type", "Damage"}, rows[0])
		require.Equal(t, []string{"A", "Fire", "100"}, rows[1])
	})

	t.Run("unconfigured pivot is rejected", func(t *testing.T) {
		_, err := Workbook(nil, cfg, ds, labels)
		require.Error(t, err)
	})
}

func TestCSVExport(t *testing.T) {
	ds, labels := sampleDataset(t)
	require.NoError(t, labels.SelectColumns([]string{"Type", "Name"}))
	labels.Rename("Name", "Incident")

	out, err := CSV(ds.View(), labels)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(string(out)), "\n")
	require.Equal(t, "Type,Incident", lines[0])
	require.Equal(t, "Fire,A", lines[1])
	require.Len(t, lines, 4)
}

func TestHTMLTable(t *testing.T) {
	ds, labels := sampleDataset(t)
	labels.Rename("Damage", "Damage (PHP)")

	out, err := HTMLTable("sample.csv", ds.View(), labels)
	require.NoError(t, err)

	html := string(out)
	require.Contains(t, html, "<title>sample.csv</title>")
	require.Contains(t, html, "<th>Damage (PHP)</th>")
	require.Contains(t, html, "<td>Flood</td>")
}
