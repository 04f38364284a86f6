package main

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run extract then map with the configured paths",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		if err := cfg.Validate("run"); err != nil {
			return err
		}

		rec := newRecorder(cfg)
		defer flushMetrics(cfg, rec)

		ex, err := runExtract(ctx, cfg, rec)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Saved %d records from %d tables to %s\n", ex.Rows, ex.Tables, ex.CSVPath)

		res, err := runMap(ctx, cfg, rec)
		if err != nil {
			return err
		}
		printMapResult(cmd, res.Mapped, res.Records, res.HTMLPath)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(runCmd)
}
