package main

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/goodtune/onlinetime/internal/config"
	"github.com/goodtune/onlinetime/internal/storage"
	"github.com/spf13/cobra"
)

var (
	recordUser  int64
	recordEvent string
)

var recordCmd = &cobra.Command{
	Use:   "record [flags] [TIMESTAMP...]",
	Short: "Record activity log entries",
	Long: `Append activity log entries for an internal user. Timestamps are RFC3339 or
Unix seconds; without any, a single entry is recorded at the current time.`,
	Example: `  onlinetime record --user 4200
  onlinetime record --user 4200 --event course_viewed 2024-05-01T09:00:00Z 2024-05-01T09:00:40Z`,
	RunE: runRecord,
}

func init() {
	recordCmd.Flags().Int64Var(&recordUser, "user", 0, "Internal user identifier (required)")
	recordCmd.Flags().StringVar(&recordEvent, "event", "activity", "Event name")
	_ = recordCmd.MarkFlagRequired("user")
	rootCmd.AddCommand(recordCmd)
}

func runRecord(cmd *cobra.Command, args []string) error {
	timestamps := make([]time.Time, 0, len(args))
	for _, arg := range args {
		ts, err := parseTimestamp(arg)
		if err != nil {
			return err
		}
		timestamps = append(timestamps, ts)
	}
	if len(timestamps) == 0 {
		timestamps = append(timestamps, time.Now())
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	store, err := openStorage(cfg.Storage)
	if err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}
	defer store.Close()

	ctx := context.Background()
	for _, ts := range timestamps {
		if err := store.Logs().AddLog(ctx, storage.ActivityLog{
			UserID:    recordUser,
			EventName: recordEvent,
			Timestamp: ts,
		}); err != nil {
			return fmt.Errorf("failed to record event: %w", err)
		}
	}

	_, _ = fmt.Fprintf(os.Stdout, "Recorded %d event(s) for user %d\n", len(timestamps), recordUser)
	return nil
}

func parseTimestamp(value string) (time.Time, error) {
	if secs, err := strconv.ParseInt(value, 10, 64); err == nil {
		return time.Unix(secs, 0), nil
	}
	ts, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid timestamp %q (RFC3339 or Unix seconds)", value)
	}
	return ts, nil
}
