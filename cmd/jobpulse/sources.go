package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/amishk599/jobpulse/internal/config"
	"github.com/amishk599/jobpulse/internal/model"
	"github.com/amishk599/jobpulse/internal/staging"
	"github.com/amishk599/jobpulse/internal/warehouse"
)

var sourcesCmd = &cobra.Command{
	Use:   "sources",
	Short: "List configured sources with checkpoint status",
	Long:  "Reads the config and checkpoint store and prints a table of sources, how far each has been ingested and how much staged data awaits loading.",
	RunE:  runSources,
}

func init() {
	rootCmd.AddCommand(sourcesCmd)
}

func runSources(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cfgPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
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

	data := pterm.TableData{{"Source", "Type", "Status", "Last ID", "Last Posted", "Updated", "Pending Load"}}
	enabled, disabled := 0, 0
	for _, sc := range cfg.Sources {
		if sc.Enabled {
			enabled++
		} else {
			disabled++
		}
		cp, err := checkpoints.Get(ctx, sc.Name)
		if err != nil {
			return fmt.Errorf("reading checkpoint for %s: %w", sc.Name, err)
		}
		data = append(data, sourceRow(sc, cp, stagedBytes(cfg, sc.Name), time.Now()))
	}

	if err := pterm.DefaultTable.WithHasHeader().WithData(data).Render(); err != nil {
		return err
	}
	fmt.Printf("\nTotal: %d sources (%d enabled, %d disabled)\n", len(cfg.Sources), enabled, disabled)
	return nil
}

func sourceRow(sc config.SourceConfig, cp model.Checkpoint, staged int64, now time.Time) []string {
	status := "enabled"
	if !sc.Enabled {
		status = "disabled"
	}
	lastID, posted, updated := "-", "-", "never"
	if !cp.IsZero() {
		lastID = cp.LastExternalID
		updated = humanize.RelTime(cp.UpdatedAt, now, "ago", "from now")
	}
	if cp.LastPostedAt != nil {
		posted = cp.LastPostedAt.UTC().Format("2006-01-02")
	}
	pending := humanize.Bytes(uint64(max(staged-cp.LoadedOffset, 0)))
	return []string{sc.Name, sc.Type, status, lastID, posted, updated, pending}
}

func stagedBytes(cfg *config.Config, source string) int64 {
	info, err := os.Stat(staging.NewStore(cfg.StagingDir()).Path(source))
	if err != nil {
		return 0
	}
	return info.Size()
}
