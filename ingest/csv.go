package ingest

import (
	"bytes"
	"encoding/csv"
	"io"

	"github.com/cenvi-org/geodash/engine"
)

// CSV parses delimited text with a required header row.
func CSV(source string, data []byte) (*engine.Dataset, error) {
	reader := csv.NewReader(bytes.NewReader(data))
	reader.FieldsPerRecord = -1 // ragged rows are normalized during cleaning
	reader.LazyQuotes = true

	header, err := reader.Read()
	if err == io.EOF {
		return nil, &Error{Kind: KindEmptyFile, Source: source}
	}
	if err != nil {
		return nil, failf(source, KindUnparsable, "read header: %w", err)
	}

	var records [][]string
	for {
		rec, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			continue // skip malformed rows
		}
		records = append(records, rec)
	}

	return buildDataset(source, header, records)
}
