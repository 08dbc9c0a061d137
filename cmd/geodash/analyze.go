package main

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/cenvi-org/geodash/engine"
	"github.com/cenvi-org/geodash/ingest"
)

var (
	analyzeFilters []string
	summaryColumn  string

	pivotRowField   string
	pivotColField   string
	pivotValueField string
	pivotAgg        string
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze <file>",
	Short: "Run a summary or pivot over a dataset",
	Long: `Analyze ingests a dataset, applies any --filter predicates, and runs
either a frequency summary (--summary) or a pivot aggregation
(--row-field with optional --col-field/--value-field/--agg).

Filters take the form column=op:value, for example:
  geodash analyze storms.csv --summary Type --filter "Region=equals:Visayas"
  geodash analyze storms.csv --row-field Type --value-field Damage --agg sum --format csv`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := os.ReadFile(args[0])
		if err != nil {
			return fmt.Errorf("read file: %w", err)
		}
		ds, err := ingest.File(args[0], data)
		if err != nil {
			return err
		}

		filters, err := parseFilters(analyzeFilters)
		if err != nil {
			return err
		}
		view := engine.ApplyFilters(ds.View(), filters)
		log.Debug("filters applied", "total", len(ds.Rows), "matched", view.Len())

		w, err := outputWriter()
		if err != nil {
			return err
		}
		defer closeOutput(w)

		switch {
		case summaryColumn != "":
			if !ds.HasColumn(summaryColumn) {
				return fmt.Errorf("unknown column %q", summaryColumn)
			}
			return renderSummary(w, engine.Summarize(view, summaryColumn))
		case pivotRowField != "":
			cfg := engine.PivotConfig{
				RowField:    pivotRowField,
				ColField:    pivotColField,
				ValueField:  pivotValueField,
				Aggregation: engine.Aggregation(pivotAgg),
			}
			result := engine.ComputePivot(view, cfg)
			if result == nil {
				return fmt.Errorf("pivot needs a value field for aggregation %q", pivotAgg)
			}
			return renderPivot(w, result, cfg)
		default:
			return fmt.Errorf("specify either --summary or --row-field")
		}
	},
}

func init() {
	analyzeCmd.Flags().StringArrayVar(&analyzeFilters, "filter", nil, "filter predicate column=op:value (repeatable)")
	analyzeCmd.Flags().StringVar(&summaryColumn, "summary", "", "column to summarize by frequency")
	analyzeCmd.Flags().StringVar(&pivotRowField, "row-field", "", "pivot row field")
	analyzeCmd.Flags().StringVar(&pivotColField, "col-field", "", "pivot column field")
	analyzeCmd.Flags().StringVar(&pivotValueField, "value-field", "", "pivot value field (required unless --agg count)")
	analyzeCmd.Flags().StringVar(&pivotAgg, "agg", "count", "aggregation: count, sum, avg, min, max")
	rootCmd.AddCommand(analyzeCmd)
}

// parseFilters parses repeated column=op:value flags. The op defaults to
// equals when omitted.
func parseFilters(raw []string) ([]engine.Filter, error) {
	var filters []engine.Filter
	for _, spec := range raw {
		column, rest, ok := strings.Cut(spec, "=")
		if !ok || column == "" {
			return nil, fmt.Errorf("invalid filter %q: want column=op:value", spec)
		}
		op, value, ok := strings.Cut(rest, ":")
		if !ok {
			op, value = string(engine.FilterEquals), rest
		}
		switch engine.FilterOp(op) {
		case engine.FilterEquals, engine.FilterContains, engine.FilterStartsWith:
		default:
			return nil, fmt.Errorf("invalid filter op %q", op)
		}
		filters = append(filters, engine.Filter{
			Column: column,
			Op:     engine.FilterOp(op),
			Value:  value,
		})
	}
	return filters, nil
}

func renderSummary(w io.Writer, entries []engine.SummaryEntry) error {
	switch format {
	case "csv":
		cw := csv.NewWriter(w)
		defer cw.Flush()
		if err := cw.Write([]string{"Value", "Frequency", "Percentage"}); err != nil {
			return err
		}
		for _, e := range entries {
			if err := cw.Write([]string{e.Value, strconv.Itoa(e.Frequency), fmtNum(e.Percentage)}); err != nil {
				return err
			}
		}
		return nil
	case "text":
		for _, e := range entries {
			fmt.Fprintf(w, "%-24s %6d  %6.2f%%\n", e.Value, e.Frequency, e.Percentage)
		}
		return nil
	default:
		return writeJSON(w, entries)
	}
}

func renderPivot(w io.Writer, result *engine.PivotResult, cfg engine.PivotConfig) error {
	switch format {
	case "csv", "text":
		cw := csv.NewWriter(w)
		if format == "text" {
			cw.Comma = '\t'
		}
		defer cw.Flush()

		header := append([]string{cfg.RowField}, result.ColKeys...)
		header = append(header, engine.TotalColumn)
		if err := cw.Write(header); err != nil {
			return err
		}
		for _, rk := range result.RowKeys {
			row := []string{rk}
			for _, ck := range result.ColKeys {
				row = append(row, fmtNum(result.Display(rk, ck)))
			}
			row = append(row, fmtNum(engine.RoundTo2(result.RowTotal(rk))))
			if err := cw.Write(row); err != nil {
				return err
			}
		}
		totals := []string{engine.TotalColumn}
		for _, ck := range result.ColKeys {
			totals = append(totals, fmtNum(engine.RoundTo2(result.ColTotal(ck))))
		}
		totals = append(totals, fmtNum(engine.RoundTo2(result.GrandTotal())))
		return cw.Write(totals)
	default:
		return writeJSON(w, result)
	}
}

// fmtNum renders whole numbers without decimals, fractional to 2 places.
func fmtNum(v float64) string {
	if v == float64(int64(v)) {
		return strconv.FormatInt(int64(v), 10)
	}
	return strconv.FormatFloat(v, 'f', 2, 64)
}
