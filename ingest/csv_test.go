package ingest

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/cenvi-org/geodash/engine"
)

var incidentCSV = []byte(`Name,Type,Lat,Lng,Damage
A,Fire,10.1,123.9,100
B,Flood,bad,123.8,40
C,Fire,10.3,123.95,sixty
`)

func TestCSV(t *testing.T) {
	t.Run("parses header and rows in order", func(t *testing.T) {
		ds, err := CSV("incidents.csv", incidentCSV)
		require.NoError(t, err)
		require.Equal(t, []string{"Name", "Type", "Lat", "Lng", "Damage"}, ds.Columns)
		require.Len(t, ds.Rows, 3)
		require.Equal(t, 1, ds.Rows[0].Seq)
		require.Equal(t, 3, ds.Rows[2].Seq)
		require.Equal(t, "Fire", ds.Rows[0].Cell("Type").String())
	})

	t.Run("is deterministic", func(t *testing.T) {
		a, err := CSV("incidents.csv", incidentCSV)
		require.NoError(t, err)
		b, err := CSV("incidents.csv", incidentCSV)
		require.NoError(t, err)
		require.Equal(t, a.Columns, b.Columns)
		require.Equal(t, a.Rows, b.Rows)
		require.Equal(t, a.Numeric, b.Numeric)
	})

	t.Run("numeric columns coerce unparsable to zero", func(t *testing.T) {
		ds, err := CSV("incidents.csv", incidentCSV)
		require.NoError(t, err)
		require.True(t, ds.Numeric["Lat"])
		require.True(t, ds.Numeric["Damage"])
		require.False(t, ds.Numeric["Type"])

		bad := ds.Rows[1].Cell("Lat")
		require.Equal(t, 0.0, bad.Coerce())
		_, ok := bad.Float()
		require.False(t, ok)

		require.Equal(t, 0.0, ds.Rows[2].Cell("Damage").Coerce())
		require.Equal(t, 100.0, ds.Rows[0].Cell("Damage").Coerce())
	})

	t.Run("missing text becomes the null sentinel", func(t *testing.T) {
		ds, err := CSV("x.csv", []byte("Name,Type\nA,\nB,Flood\n"))
		require.NoError(t, err)
		require.Equal(t, engine.MissingText, ds.Rows[0].Cell("Type").Raw)
		require.True(t, ds.Rows[0].Cell("Type").Missing())
	})

	t.Run("headers are trimmed and duplicates collapse last-write-wins", func(t *testing.T) {
		ds, err := CSV("x.csv", []byte("  Name , Score,Name\nfirst,5,second\n"))
		require.NoError(t, err)
		require.Equal(t, []string{"Name", "Score"}, ds.Columns)
		require.Equal(t, "second", ds.Rows[0].Cell("Name").String())
	})

	t.Run("skips blank lines and keeps ragged rows", func(t *testing.T) {
		ds, err := CSV("x.csv", []byte("Name,Type\nA,Fire\n,\nB\n"))
		require.NoError(t, err)
		require.Len(t, ds.Rows, 2)
		require.True(t, ds.Rows[1].Cell("Type").Missing())
	})

	t.Run("detects lat lng and name columns", func(t *testing.T) {
		ds, err := CSV("incidents.csv", incidentCSV)
		require.NoError(t, err)
		require.Equal(t, "Lat", ds.LatColumn)
		require.Equal(t, "Lng", ds.LngColumn)
		require.Equal(t, "Name", ds.NameColumn)
	})

	t.Run("prioritized name detection", func(t *testing.T) {
		ds, err := CSV("x.csv", []byte("nickname,household head surname\nx,y\n"))
		require.NoError(t, err)
		require.Equal(t, "household head surname", ds.NameColumn)
	})

	t.Run("name falls back to first column", func(t *testing.T) {
		ds, err := CSV("x.csv", []byte("barangay,population\nLahug,5\n"))
		require.NoError(t, err)
		require.Equal(t, "barangay", ds.NameColumn)
		require.Empty(t, ds.LngColumn)
	})

	t.Run("missing coordinates are not fatal", func(t *testing.T) {
		ds, err := CSV("x.csv", []byte("Species,Count\nMolave,12\n"))
		require.NoError(t, err)
		require.Empty(t, ds.LatColumn)
		require.Empty(t, ds.LngColumn)
	})
}

func TestCSVErrors(t *testing.T) {
	t.Run("empty blob", func(t *testing.T) {
		_, err := File("x.csv", nil)
		require.True(t, IsKind(err, KindEmptyFile))
	})

	t.Run("header only", func(t *testing.T) {
		_, err := CSV("x.csv", []byte("Name,Type\n"))
		require.True(t, IsKind(err, KindEmptyFile))
	})

	t.Run("blank header row", func(t *testing.T) {
		_, err := CSV("x.csv", []byte(" , ,\nA,B,C\n"))
		require.True(t, IsKind(err, KindNoHeader))
	})

	t.Run("unsupported extension", func(t *testing.T) {
		_, err := File("notes.pdf", []byte("%PDF-1.4"))
		require.True(t, IsKind(err, KindUnparsable))
	})
}
