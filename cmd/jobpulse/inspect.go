package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/amishk599/jobpulse/internal/inspect"
	"github.com/amishk599/jobpulse/internal/model"
	"github.com/amishk599/jobpulse/internal/normalize"
	"github.com/amishk599/jobpulse/internal/staging"
	"github.com/amishk599/jobpulse/internal/warehouse"
)

var inspectLimit int

var inspectCmd = &cobra.Command{
	Use:   "inspect",
	Short: "Browse staged postings and their normalized form (TUI)",
	Long:  "Shows the source picker TUI, then a split-pane view of staged records next to the ones normalization rejected or degraded.",
	RunE:  runInspectCmd,
}

func init() {
	inspectCmd.Flags().IntVar(&inspectLimit, "limit", 500, "most recent staged postings to load per source (0 for all)")
	rootCmd.AddCommand(inspectCmd)
}

func runInspectCmd(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cfgPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Log output before the alt-screen starts corrupts the display.
	silentLogger := slog.New(slog.NewTextHandler(io.Discard, nil))
	ctx := context.Background()

	var store *warehouse.Store
	if cfg.Checkpoints.Backend == "warehouse" {
		if store, err = openWarehouse(ctx, cfg); err != nil {
			return err
		}
		defer store.Close()
	}
	checkpoints, err := openCheckpoints(cfg, store)
	if err != nil {
		return err
	}

	stager := staging.NewStore(cfg.StagingDir())
	tagger := setupTagger(cfg, silentLogger)
	runInspect(ctx, stager, checkpoints, buildNormalizer(cfg, nil, silentLogger), tagger)
	return nil
}

func runInspect(ctx context.Context, stager *staging.Store, checkpoints model.CheckpointStore, n *normalize.Normalizer, tagger normalize.TermExtractor) {
	for {
		names, err := stager.Sources()
		if err != nil {
			fmt.Printf("Error listing staged sources: %v\n", err)
			return
		}
		if len(names) == 0 {
			fmt.Println("Nothing staged yet. Run `jobpulse run` first.")
			return
		}

		items := make([]inspect.SourceItem, len(names))
		for i, name := range names {
			items[i] = inspect.SourceItem{Name: name}
			if info, err := os.Stat(stager.Path(name)); err == nil {
				items[i].StagedBytes = info.Size()
			}
			if cp, err := checkpoints.Get(ctx, name); err == nil {
				items[i].LoadedOffset = cp.LoadedOffset
			}
		}

		choice, err := inspect.RunSourcePicker(items)
		if err != nil {
			fmt.Printf("Picker error: %v\n", err)
			return
		}
		if choice < 0 {
			return
		}
		source := names[choice]

		records, err := inspect.RunLoader(source, func(ctx context.Context) ([]inspect.Record, error) {
			batch, err := stager.ReadFrom(source, 0)
			if err != nil {
				return nil, err
			}
			return inspect.BuildRecords(ctx, n, batch.Postings, inspectLimit)
		})
		if err != nil {
			fmt.Printf("Error loading staged postings: %v\n", err)
			continue
		}

		wantQuit, err := inspect.RunInspectTUI(source, records, tagger)
		if err != nil {
			fmt.Printf("TUI error: %v\n", err)
		}
		if wantQuit {
			return
		}
	}
}
