package main

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var (
	mapCSV       string
	mapOut       string
	mapGeoJSON   string
	mapShapefile string
	mapReport    string
	mapCache     bool
)

var mapCmd = &cobra.Command{
	Use:   "map",
	Short: "Geocode the extracted CSV and render the map",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		applyMapFlags(cmd)
		if err := cfg.Validate("map"); err != nil {
			return err
		}

		rec := newRecorder(cfg)
		defer flushMetrics(cfg, rec)

		res, err := runMap(ctx, cfg, rec)
		if err != nil {
			return err
		}

		printMapResult(cmd, res.Mapped, res.Records, res.HTMLPath)
		return nil
	},
}

// applyMapFlags copies set flag values over the loaded config.
func applyMapFlags(cmd *cobra.Command) {
	if mapCSV != "" {
		cfg.Extract.CSVPath = mapCSV
	}
	if mapOut != "" {
		cfg.Map.HTMLPath = mapOut
	}
	if mapGeoJSON != "" {
		cfg.Map.GeoJSONPath = mapGeoJSON
	}
	if mapShapefile != "" {
		cfg.Map.ShapefilePath = mapShapefile
	}
	if mapReport != "" {
		cfg.Map.ReportPath = mapReport
	}
	if cmd.Flags().Changed("cache") {
		cfg.Cache.Enabled = mapCache
	}
}

func printMapResult(cmd *cobra.Command, mapped, total int, path string) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Total geocoded successfully: %d of %d rows\n", mapped, total)
	fmt.Fprintf(out, "Map saved to %s\n", path)
}

func init() {
	mapCmd.Flags().StringVar(&mapCSV, "csv", "", "input CSV path (default from config)")
	mapCmd.Flags().StringVar(&mapOut, "out", "", "HTML output path (default from config)")
	mapCmd.Flags().StringVar(&mapGeoJSON, "geojson", "", "also write the markers as GeoJSON")
	mapCmd.Flags().StringVar(&mapShapefile, "shapefile", "", "also write the markers as an ESRI shapefile")
	mapCmd.Flags().StringVar(&mapReport, "report", "", "write a per-record geocode report CSV")
	mapCmd.Flags().BoolVar(&mapCache, "cache", false, "cache geocode results in SQLite")
	rootCmd.AddCommand(mapCmd)
}
