package export

import (
	"bytes"
	"html/template"

	"github.com/cenvi-org/geodash/engine"
)

// Printable table view: a detached, self-contained HTML page of the
// active-column data, same shape the dashboard's "View Full Table"
// window shows.

var tableTemplate = template.Must(template.New("table").Parse(`<!DOCTYPE html>
<html>
<head>
<title>{{.Title}}</title>
<style>
body { font-family: Arial, sans-serif; margin: 20px; }
h2 { color: #3a5a40; }
table { border-collapse: collapse; width: 100%; table-layout: fixed; word-wrap: break-word; }
th, td { border: 1px solid #ccc; padding: 6px; text-align: left; vertical-align: top; }
th { background-color: #f2f2f2; }
</style>
</head>
<body>
<h2>{{.Title}}</h2>
<table>
<thead><tr>{{range .Header}}<th>{{.}}</th>{{end}}</tr></thead>
<tbody>
{{range .Rows}}<tr>{{range .}}<td>{{.}}</td>{{end}}</tr>
{{end}}</tbody>
</table>
</body>
</html>
`))

// HTMLTable renders a printable table of the view through the
// active-column configuration.
func HTMLTable(title string, view engine.RowView, labels *engine.ColumnConfig) ([]byte, error) {
	active := labels.Active()

	header := make([]string, len(active))
	for i, col := range active {
		header[i] = labels.Label(col)
	}

	rows := make([][]string, 0, view.Len())
	for i := 0; i < view.Len(); i++ {
		row := view.At(i)
		rec := make([]string, len(active))
		for j, col := range active {
			rec[j] = displayCell(row.Cell(col))
		}
		rows = append(rows, rec)
	}

	var buf bytes.Buffer
	err := tableTemplate.Execute(&buf, struct {
		Title  string
		Header []string
		Rows   [][]string
	}{Title: title, Header: header, Rows: rows})
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
