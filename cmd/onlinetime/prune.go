package main

import (
	"context"
	"fmt"
	"os"

	"github.com/goodtune/onlinetime/internal/config"
	"github.com/goodtune/onlinetime/internal/onlinetime"
	"github.com/goodtune/onlinetime/internal/retention"
	"github.com/spf13/cobra"
)

var pruneDays int

var pruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Delete activity logs older than the retention window",
	Long: `Run the retention pruner once. The window defaults to
retention.log_retention_days and can be overridden with --days.`,
	RunE: runPrune,
}

func init() {
	pruneCmd.Flags().IntVar(&pruneDays, "days", 0, "Retention window in days (overrides configuration)")
	rootCmd.AddCommand(pruneCmd)
}

func runPrune(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	days := cfg.Retention.LogRetentionDays
	if pruneDays > 0 {
		days = pruneDays
	}
	if days <= 0 {
		return fmt.Errorf("log retention is disabled; set retention.log_retention_days or pass --days")
	}

	store, err := openStorage(cfg.Storage)
	if err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}
	defer store.Close()

	pruner, err := retention.NewPruner(store.Logs(), days, cfg.Retention.PruneTime, onlinetime.RealClock{}, quietLogger())
	if err != nil {
		return err
	}

	deleted, err := pruner.RunOnce(context.Background())
	if err != nil {
		return err
	}

	_, _ = fmt.Fprintf(os.Stdout, "Pruned %d activity log(s) older than %d day(s)\n", deleted, days)
	return nil
}
