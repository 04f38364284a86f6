package main

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var (
	extractPDF      string
	extractOut      string
	extractPages    string
	extractStrategy string
	extractXLSX     string
)

var extractCmd = &cobra.Command{
	Use:   "extract",
	Short: "Extract directory tables from the PDF into CSV",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		applyExtractFlags()
		if err := cfg.Validate("extract"); err != nil {
			return err
		}

		rec := newRecorder(cfg)
		defer flushMetrics(cfg, rec)

		res, err := runExtract(ctx, cfg, rec)
		if err != nil {
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Saved %d records from %d tables to %s\n", res.Rows, res.Tables, res.CSVPath)
		return nil
	},
}

// applyExtractFlags copies non-empty flag values over the loaded config.
func applyExtractFlags() {
	if extractPDF != "" {
		cfg.Input.PDF = extractPDF
	}
	if extractOut != "" {
		cfg.Extract.CSVPath = extractOut
	}
	if extractPages != "" {
		cfg.Extract.Pages = extractPages
	}
	if extractStrategy != "" {
		cfg.Extract.Strategy = extractStrategy
	}
	if extractXLSX != "" {
		cfg.Export.XLSXPath = extractXLSX
	}
}

func init() {
	extractCmd.Flags().StringVar(&extractPDF, "pdf", "", "source PDF path or http(s)/ftp URL (default from config)")
	extractCmd.Flags().StringVar(&extractOut, "out", "", "CSV output path (default from config)")
	extractCmd.Flags().StringVar(&extractPages, "pages", "", `page selection, e.g. "all" or "1-3,5"`)
	extractCmd.Flags().StringVar(&extractStrategy, "strategy", "", "table detection strategy: auto, lattice, stream")
	extractCmd.Flags().StringVar(&extractXLSX, "xlsx", "", "also write the records to this XLSX file")
	rootCmd.AddCommand(extractCmd)
}
