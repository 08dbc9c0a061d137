package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/cenvi-org/geodash/ingest"
)

var inspectPreview int

var inspectCmd = &cobra.Command{
	Use:   "inspect <file>",
	Short: "Ingest a dataset and print its inferred schema",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := os.ReadFile(args[0])
		if err != nil {
			return fmt.Errorf("read file: %w", err)
		}
		ds, err := ingest.File(args[0], data)
		if err != nil {
			return err
		}
		log.Debug("dataset ingested", "rows", len(ds.Rows), "columns", len(ds.Columns))

		w, err := outputWriter()
		if err != nil {
			return err
		}
		defer closeOutput(w)

		if format == "text" {
			fmt.Fprintf(w, "%s: %d rows, %d columns\n", ds.SourceName, len(ds.Rows), len(ds.Columns))
			for _, col := range ds.Columns {
				kind := "text"
				if ds.Numeric[col] {
					kind = "numeric"
				}
				note := ""
				switch col {
				case ds.LatColumn:
					note = " (latitude)"
				case ds.LngColumn:
					note = " (longitude)"
				case ds.NameColumn:
					note = " (name)"
				}
				fmt.Fprintf(w, "  %-24s %s%s\n", col, kind, note)
			}
			return nil
		}

		return writeJSON(w, map[string]any{
			"sourceName": ds.SourceName,
			"rowCount":   len(ds.Rows),
			"columns":    ds.Columns,
			"numeric":    ds.Numeric,
			"latColumn":  ds.LatColumn,
			"lngColumn":  ds.LngColumn,
			"nameColumn": ds.NameColumn,
			"preview":    ds.Preview(inspectPreview),
		})
	},
}

func init() {
	inspectCmd.Flags().IntVar(&inspectPreview, "preview", 5, "number of preview rows to include")
	rootCmd.AddCommand(inspectCmd)
}
