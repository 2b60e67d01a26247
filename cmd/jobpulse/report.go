package main

import (
	"context"
	"os"

	"github.com/spf13/cobra"

	"github.com/amishk599/jobpulse/internal/report"
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Run report subcommands",
}

var reportTestCmd = &cobra.Command{
	Use:   "test",
	Short: "Send a test run report",
	Long:  "Sends a sample run report through the configured reporter (log, slack or nats).",
	RunE:  runReportTest,
}

func init() {
	rootCmd.AddCommand(reportCmd)
	reportCmd.AddCommand(reportTestCmd)
}

func runReportTest(cmd *cobra.Command, args []string) error {
	logger := setupLogger(debug, logFormat)
	cfg := mustLoad(logger)

	r, closeFn, err := setupReporter(cfg, logger)
	if err != nil {
		logger.Error("failed to set up reporter", "error", err)
		os.Exit(1)
	}
	defer closeFn()

	if err := report.SendTest(context.Background(), r); err != nil {
		logger.Error("test report failed", "error", err)
		os.Exit(1)
	}
	logger.Info("test report sent successfully", "type", cfg.Reporting.Type)
	return nil
}
