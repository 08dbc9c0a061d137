package export

import (
	"bytes"
	"encoding/csv"

	"github.com/cenvi-org/geodash/engine"
)

// CSV renders a view through the active-column configuration: only
// active columns, display labels as the header, the missing-text
// sentinel blanked.
func CSV(view engine.RowView, labels *engine.ColumnConfig) ([]byte, error) {
	active := labels.Active()

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	header := make([]string, len(active))
	for i, col := range active {
		header[i] = labels.Label(col)
	}
	if err := w.Write(header); err != nil {
		return nil, err
	}

	rec := make([]string, len(active))
	for i := 0; i < view.Len(); i++ {
		row := view.At(i)
		for j, col := range active {
			rec[j] = displayCell(row.Cell(col))
		}
		if err := w.Write(rec); err != nil {
			return nil, err
		}
	}

	w.Flush()
	return buf.Bytes(), w.Error()
}

func displayCell(v engine.Value) string {
	if v.Missing() {
		return ""
	}
	return v.String()
}
