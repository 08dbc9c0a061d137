package ingest

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

// buildWorkbook writes sheets of string rows into an in-memory workbook.
func buildWorkbook(t *testing.T, sheets map[string][][]string, order []string) []byte {
	t.Helper()
	f := excelize.NewFile()
	for i, name := range order {
		if i == 0 {
			require.NoError(t, f.SetSheetName("Sheet1", name))
		} else {
			_, err := f.NewSheet(name)
			require.NoError(t, err)
		}
		for r, row := range sheets[name] {
			cell, err := excelize.CoordinatesToCellName(1, r+1)
			require.NoError(t, err)
			require.NoError(t, f.SetSheetRow(name, cell, &row))
		}
	}
	var buf bytes.Buffer
	require.NoError(t, f.Write(&buf))
	return buf.Bytes()
}

func TestXLSX(t *testing.T) {
	t.Run("parses first sheet like CSV", func(t *testing.T) {
		data := buildWorkbook(t, map[string][][]string{
			"households": {
				{"household head", "barangay", "hh_lat", "hh_lon"},
				{"Reyes", "Lahug", "10.1", "123.9"},
				{"Tan", "Busay", "10.35", "123.87"},
			},
		}, []string{"households"})

		ds, err := XLSX("survey.xlsx", data)
		require.NoError(t, err)
		require.Equal(t, []string{"household head", "barangay", "hh_lat", "hh_lon"}, ds.Columns)
		require.Len(t, ds.Rows, 2)
		require.Equal(t, "hh_lat", ds.LatColumn)
		require.Equal(t, "hh_lon", ds.LngColumn)
		require.Equal(t, "household head", ds.NameColumn)
		require.Equal(t, 10.35, ds.Rows[1].Cell("hh_lat").Coerce())
	})

	t.Run("joins child sheet rows by parent index", func(t *testing.T) {
		data := buildWorkbook(t, map[string][][]string{
			"households": {
				{"household head", "barangay"},
				{"Reyes", "Lahug"},
				{"Tan", "Busay"},
			},
			"members": {
				{"member name", "age", "_parent_index", "_parent_table_name"},
				{"Ana", "34", "1", "households"},
				{"Ben", "9", "1", "households"},
				{"Carla", "41", "2", "households"},
				{"Dodo", "3", "2", "elsewhere"},
			},
		}, []string{"households", "members"})

		ds, err := XLSX("survey.xlsx", data)
		require.NoError(t, err)
		require.Len(t, ds.ChildrenOf(1), 2)
		require.Len(t, ds.ChildrenOf(2), 1)
		require.Equal(t, "Ana", ds.ChildrenOf(1)[0].Cell("member name").String())
		require.Equal(t, 34.0, ds.ChildrenOf(1)[0].Cell("age").Coerce())
	})

	t.Run("second sheet without parent reference is ignored", func(t *testing.T) {
		data := buildWorkbook(t, map[string][][]string{
			"main":  {{"a"}, {"1"}},
			"notes": {{"text"}, {"hello"}},
		}, []string{"main", "notes"})

		ds, err := XLSX("book.xlsx", data)
		require.NoError(t, err)
		require.Nil(t, ds.Children)
	})

	t.Run("garbage bytes are unparsable", func(t *testing.T) {
		_, err := XLSX("bad.xlsx", []byte("not a zip archive"))
		require.True(t, IsKind(err, KindUnparsable))
	})

	t.Run("empty first sheet", func(t *testing.T) {
		data := buildWorkbook(t, map[string][][]string{"empty": nil}, []string{"empty"})
		_, err := XLSX("empty.xlsx", data)
		require.True(t, IsKind(err, KindEmptyFile))
	})
}
