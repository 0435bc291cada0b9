package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"followgraph/pkg/cache"
	"followgraph/pkg/logger"
	"followgraph/pkg/ui"
)

var targetsCmd = &cobra.Command{
	Use:   "targets",
	Short: "List cached targets and when they were last fetched",
	Long: `List every target in the refresh registry with the time it was last fetched
and whether the next collect run will refresh it.`,
	RunE: runTargets,
}

func init() {
	rootCmd.AddCommand(targetsCmd)
}

func runTargets(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(nil)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	store, err := cache.NewFileStore(cfg.Cache.Directory)
	if err != nil {
		return err
	}
	refreshCache, err := cache.Open(store, logger.GetLogger())
	if err != nil {
		return err
	}

	registry := refreshCache.Registry()
	if len(registry) == 0 {
		ui.PrintInfo("No cached targets", cfg.Cache.Directory)
		return nil
	}

	now := time.Now()
	windowMs := cfg.RefreshWindow().Milliseconds()
	rows := make([][]string, 0, len(registry))
	for _, id := range registry.IDs() {
		rec := registry[id]
		fetched := time.UnixMilli(rec.LastFetchedAtEpochMs)
		status := "fresh"
		if registry.NeedsRefresh(id, now.UnixMilli(), windowMs) {
			status = "stale"
		}
		rows = append(rows, []string{
			id,
			"@" + rec.Handle,
			fetched.Local().Format(time.RFC3339),
			now.Sub(fetched).Truncate(time.Minute).String(),
			status,
		})
	}
	return ui.PrintTable([]string{"ID", "Handle", "Last fetched", "Age", "Status"}, rows)
}
