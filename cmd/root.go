package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/praxis-map/internal/config"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "praxis-map",
	Short: "Extract a doctors directory from PDF and map it",
	Long:  "Extracts practice listings from a PDF directory into CSV, geocodes each address with the Google Geocoding API and renders the results on a Leaflet map.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = c

		if err := config.InitLogger(cfg.Log); err != nil {
			return fmt.Errorf("init logger: %w", err)
		}

		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = zap.L().Sync()
	},
	SilenceUsage: true,
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
