package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	"github.com/fatih/color"
	"github.com/goodtune/onlinetime/internal/api"
	"github.com/goodtune/onlinetime/internal/config"
	"github.com/goodtune/onlinetime/internal/onlinetime"
	"github.com/spf13/cobra"
)

var (
	computeSubject   int64
	computeThreshold int64
	computeStart     string
	computeEnd       string
	computeNow       string
	computeSessions  bool
	computeFormat    string
)

var computeCmd = &cobra.Command{
	Use:   "compute",
	Short: "Compute per-day online time for a subject",
	Long:  `Compute the estimated online time of one subject for every day of a date range.`,
	Example: `  onlinetime compute --subject 42 --start 01-05-2024 --end 07-05-2024
  onlinetime compute --subject 42 --start 2024-05-01 --end 2024-05-01 --threshold 120 --sessions
  onlinetime compute --subject 42 --start 2024-05-01 --end 2024-05-07 --format json`,
	RunE: runCompute,
}

func init() {
	computeCmd.Flags().Int64Var(&computeSubject, "subject", 0, "External subject identifier (required)")
	computeCmd.Flags().Int64Var(&computeThreshold, "threshold", 0, "Gap threshold in seconds (defaults to online_time.default_gap_threshold)")
	computeCmd.Flags().StringVar(&computeStart, "start", "", "Start date (YYYY-MM-DD, DD-MM-YYYY or Unix seconds) - defaults to today")
	computeCmd.Flags().StringVar(&computeEnd, "end", "", "End date - defaults to start plus online_time.default_range_days")
	computeCmd.Flags().StringVar(&computeNow, "now", "", "Evaluate as if the current time were this RFC3339 instant")
	computeCmd.Flags().BoolVar(&computeSessions, "sessions", false, "Also list the reconstructed sessions of each day")
	computeCmd.Flags().StringVar(&computeFormat, "format", "table", "Output format (table or json)")
	_ = computeCmd.MarkFlagRequired("subject")
	rootCmd.AddCommand(computeCmd)
}

// daySessions lists the sessions found on one day.
type daySessions struct {
	Date     string               `json:"date"`
	Sessions []onlinetime.Session `json:"sessions"`
}

type computeOutput struct {
	api.OnlineTimeResponse
	Sessions []daySessions `json:"sessions,omitempty"`
}

func runCompute(cmd *cobra.Command, args []string) error {
	if computeFormat != "table" && computeFormat != "json" {
		return fmt.Errorf("invalid format: %s (table or json)", computeFormat)
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	loc, err := cfg.OnlineTime.Location()
	if err != nil {
		return fmt.Errorf("failed to load timezone: %w", err)
	}

	var clock onlinetime.Clock = onlinetime.RealClock{}
	if computeNow != "" {
		now, err := time.Parse(time.RFC3339, computeNow)
		if err != nil {
			return fmt.Errorf("invalid --now: %w", err)
		}
		clock = &onlinetime.FixedClock{CurrentTime: now}
	}

	req, err := buildRequest(cfg, loc, clock)
	if err != nil {
		return err
	}

	store, err := openStorage(cfg.Storage)
	if err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}
	defer store.Close()

	service, _, err := newService(cfg, store, clock, quietLogger())
	if err != nil {
		return err
	}

	ctx := context.Background()
	summary, err := service.ComputeOnlineTime(ctx, req)
	if err != nil {
		return err
	}

	out := computeOutput{OnlineTimeResponse: api.NewOnlineTimeResponse(summary, cfg.OnlineTime.DateLayout)}
	if computeSessions {
		source := onlinetime.NewStoreLogSource(store.Logs())
		windows := req.Range().Days()
		for i := range summary.Items {
			w := windows[i]
			label := w.Start.Format(cfg.OnlineTime.DateLayout)
			events, err := source.FetchEvents(ctx, summary.ID, w.Start, w.End)
			if err != nil {
				return fmt.Errorf("failed to load events for %s: %w", label, err)
			}
			bucket := onlinetime.DayBucket{Window: w, Events: events}
			out.Sessions = append(out.Sessions, daySessions{
				Date:     label,
				Sessions: bucket.Sessions(req.GapThreshold),
			})
		}
	}

	if computeFormat == "json" {
		body, err := sonic.ConfigStd.MarshalIndent(out, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to encode result: %w", err)
		}
		_, _ = fmt.Fprintln(os.Stdout, string(body))
		return nil
	}

	printSummary(os.Stdout, out, loc)
	return nil
}

// buildRequest resolves flag values against the configured defaults.
func buildRequest(cfg *config.Config, loc *time.Location, clock onlinetime.Clock) (onlinetime.Request, error) {
	req := onlinetime.Request{
		GapThreshold: cfg.OnlineTime.DefaultGapThreshold,
		SubjectID:    computeSubject,
		Start:        onlinetime.StartOfDay(clock.Now(), loc),
	}
	if computeThreshold != 0 {
		req.GapThreshold = computeThreshold
	}

	if computeStart != "" {
		start, err := api.ParseDate(computeStart, loc)
		if err != nil {
			return req, fmt.Errorf("invalid --start: %w", err)
		}
		req.Start = start
	}

	req.End = req.Start.AddDate(0, 0, cfg.OnlineTime.DefaultRangeDays)
	if computeEnd != "" {
		end, err := api.ParseDate(computeEnd, loc)
		if err != nil {
			return req, fmt.Errorf("invalid --end: %w", err)
		}
		req.End = end
	}

	return req, nil
}

func printSummary(w io.Writer, out computeOutput, loc *time.Location) {
	cyan := color.New(color.FgCyan, color.Bold)
	green := color.New(color.FgGreen, color.Bold)
	dim := color.New(color.Faint)
	yellow := color.New(color.FgYellow, color.Bold)

	_, _ = cyan.Fprintf(w, "%s (user %d)\n", out.FullName, out.ID)
	_, _ = fmt.Fprintln(w, strings.Repeat("-", 40))

	var total int64
	for _, item := range out.Items {
		total += item.OnlineTime
		line := fmt.Sprintf("%-12s %10s\n", item.Date, formatSeconds(item.OnlineTime))
		if item.OnlineTime == 0 {
			_, _ = dim.Fprint(w, line)
		} else {
			_, _ = fmt.Fprint(w, line)
		}
	}

	_, _ = fmt.Fprintln(w, strings.Repeat("-", 40))
	_, _ = green.Fprintf(w, "%-12s %10s\n", "total", formatSeconds(total))

	for _, day := range out.Sessions {
		if len(day.Sessions) == 0 {
			continue
		}
		_, _ = cyan.Fprintf(w, "\n%s\n", day.Date)
		for _, s := range day.Sessions {
			_, _ = fmt.Fprintf(w, "  %s - %s  %s\n",
				time.Unix(s.Start, 0).In(loc).Format("15:04:05"),
				time.Unix(s.End, 0).In(loc).Format("15:04:05"),
				formatSeconds(s.Seconds()),
			)
		}
	}

	if out.Partial {
		_, _ = yellow.Fprintf(w, "\nPartial result: %s\n", out.Error)
	}
}

func formatSeconds(secs int64) string {
	return (time.Duration(secs) * time.Second).String()
}
