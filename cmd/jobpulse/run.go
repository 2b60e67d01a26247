package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os/signal"
	"syscall"

	"github.com/cheggaaa/pb/v3"
	"github.com/spf13/cobra"
)

var (
	runDryRun      bool
	runSourceNames []string
	runProgress    bool
	runJSON        bool
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the pipeline once and exit",
	Long:  "One-shot run: scrape, normalize, load and snapshot, then print the run report. With --dry-run nothing is written to the warehouse or checkpoints.",
	RunE:  runOnce,
}

func init() {
	runCmd.Flags().BoolVar(&runDryRun, "dry-run", false, "stage into a scratch dir with in-memory checkpoints and skip all warehouse writes")
	runCmd.Flags().StringSliceVar(&runSourceNames, "source", nil, "only run the named source (repeatable)")
	runCmd.Flags().BoolVar(&runProgress, "progress", false, "show a progress bar while loading")
	runCmd.Flags().BoolVar(&runJSON, "json", false, "print the run report as JSON")
	rootCmd.AddCommand(runCmd)
}

func runOnce(cmd *cobra.Command, args []string) error {
	logger := setupLogger(debug, logFormat)
	cfg := mustLoad(logger)
	logger.Debug("starting run", "version", buildVersion())

	if runDryRun {
		logger.Info("dry-run mode: nothing will be written to the warehouse or checkpoints")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	opts := runOptions{DryRun: runDryRun, Sources: runSourceNames}
	var bar *pb.ProgressBar
	if runProgress && !runDryRun {
		opts.Progress = func(done, total int) {
			if bar == nil || bar.Total() != int64(total) {
				if bar != nil {
					bar.Finish()
				}
				bar = pb.Full.Start(total)
			}
			bar.SetCurrent(int64(done))
		}
	}

	p, cleanup, err := buildPipeline(ctx, cfg, opts, logger)
	if err != nil {
		return err
	}
	defer cleanup.run()

	rep := p.Run(ctx)
	if bar != nil {
		bar.Finish()
	}

	if runJSON {
		return writeJSON(cmd.OutOrStdout(), rep)
	}
	if !rep.Healthy() {
		return fmt.Errorf("run %s finished with failures", rep.RunID)
	}
	return nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
