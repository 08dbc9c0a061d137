package main

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	cfgpkg "github.com/cenvi-org/geodash/config"
	"github.com/cenvi-org/geodash/logger"
)

const version = "0.3.0"

var (
	cfgFile string
	verbose bool

	outFile string
	format  string

	cfg *cfgpkg.Config
	log *slog.Logger
)

var rootCmd = &cobra.Command{
	Use:     "geodash",
	Short:   "Geodash: tabular analysis for spreadsheet datasets",
	Long:    `Geodash ingests CSV and XLSX datasets, infers a column schema, and runs frequency summaries, pivot aggregations, and geospatial projection over them — from the terminal or as an HTTP dashboard backend.`,
	Version: version,
}

// Execute is the entry point called by main.main().
func Execute() {
	cobra.OnInitialize(initRuntime)
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ~/.geodash/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	rootCmd.PersistentFlags().StringVar(&outFile, "out", "", "write output to file instead of stdout")
	rootCmd.PersistentFlags().StringVarP(&format, "format", "f", "json", "output format: json, pretty, text, csv")
}

func initRuntime() {
	c, err := cfgpkg.Load(cfgFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: failed to load config: %v\n", err)
		c = &cfgpkg.Config{}
	}
	cfg = c
	if verbose {
		cfg.Verbose = true
	}
	log = logger.New(cfg.Verbose)
}

// outputWriter resolves --out, defaulting to stdout.
func outputWriter() (io.WriteCloser, error) {
	if outFile == "" {
		return os.Stdout, nil
	}
	return os.Create(outFile)
}

func closeOutput(w io.WriteCloser) {
	if w != os.Stdout {
		_ = w.Close()
	}
}

func writeJSON(w io.Writer, v any) error {
	var out []byte
	var err error
	if format == "pretty" {
		out, err = json.MarshalIndent(v, "", "  ")
	} else {
		out, err = json.Marshal(v)
	}
	if err != nil {
		return fmt.Errorf("marshal output: %w", err)
	}
	_, err = fmt.Fprintln(w, string(out))
	return err
}
