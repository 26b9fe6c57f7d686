package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/fatih/color"
	"github.com/goodtune/onlinetime/internal/api"
	"github.com/goodtune/onlinetime/internal/config"
	"github.com/goodtune/onlinetime/internal/onlinetime"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDuration(t *testing.T) {
	assert.Equal(t, 5*time.Minute, parseDuration("5m", time.Second))
	assert.Equal(t, time.Second, parseDuration("soon", time.Second))
}

func TestParseTimestamp(t *testing.T) {
	ts, err := parseTimestamp("1714521600")
	require.NoError(t, err)
	assert.Equal(t, int64(1714521600), ts.Unix())

	ts, err = parseTimestamp("2024-05-01T00:00:40Z")
	require.NoError(t, err)
	assert.Equal(t, int64(1714521640), ts.Unix())

	_, err = parseTimestamp("yesterday")
	assert.Error(t, err)
}

func TestOpenStorageBackends(t *testing.T) {
	dir := t.TempDir()

	for _, typ := range []string{"bolt", "sqlite"} {
		store, err := openStorage(config.StorageConfig{Type: typ, Path: filepath.Join(dir, typ, "onlinetime.db")})
		require.NoError(t, err, typ)
		require.NoError(t, store.Close(), typ)
	}

	_, err := openStorage(config.StorageConfig{Type: "etcd"})
	assert.Error(t, err)
}

func TestBuildRequestDefaults(t *testing.T) {
	cfg := &config.Config{OnlineTime: config.OnlineTimeConfig{DefaultGapThreshold: 60, DefaultRangeDays: 7}}
	clock := &onlinetime.FixedClock{CurrentTime: time.Date(2024, 6, 1, 15, 0, 0, 0, time.UTC)}

	computeSubject, computeThreshold, computeStart, computeEnd = 42, 0, "", ""
	t.Cleanup(func() { computeSubject, computeThreshold, computeStart, computeEnd = 0, 0, "", "" })

	req, err := buildRequest(cfg, time.UTC, clock)
	require.NoError(t, err)
	assert.Equal(t, int64(60), req.GapThreshold)
	assert.Equal(t, time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC), req.Start)
	assert.Equal(t, time.Date(2024, 6, 8, 0, 0, 0, 0, time.UTC), req.End)

	// The default range reaches into the future and is rejected
	assert.ErrorIs(t, onlinetime.Validate(req.GapThreshold, req.Start, req.End, clock.Now()), onlinetime.ErrFutureEndDate)

	computeThreshold, computeStart, computeEnd = 120, "01-05-2024", "2024-05-03"
	req, err = buildRequest(cfg, time.UTC, clock)
	require.NoError(t, err)
	assert.Equal(t, int64(120), req.GapThreshold)
	assert.Equal(t, time.Date(2024, 5, 3, 0, 0, 0, 0, time.UTC), req.End)

	computeStart = "May"
	_, err = buildRequest(cfg, time.UTC, clock)
	assert.Error(t, err)
}

func TestPrintSummary(t *testing.T) {
	color.NoColor = true

	var buf bytes.Buffer
	printSummary(&buf, computeOutput{
		OnlineTimeResponse: api.OnlineTimeResponse{
			ID:       4200,
			FullName: "Ada Lovelace",
			Items: []api.OnlineTimeItem{
				{OnlineTime: 30, Date: "01-05-2024"},
				{OnlineTime: 0, Date: "02-05-2024"},
			},
			Partial: true,
			Error:   "log_source failed",
		},
		Sessions: []daySessions{{Date: "01-05-2024", Sessions: []onlinetime.Session{{Start: 1714521600, End: 1714521630}}}},
	}, time.UTC)

	out := buf.String()
	assert.Contains(t, out, "Ada Lovelace (user 4200)")
	assert.Contains(t, out, "30s")
	assert.Contains(t, out, "00:00:00 - 00:00:30")
	assert.Contains(t, out, "Partial result: log_source failed")
}

func TestFindUnknownKeys(t *testing.T) {
	path := filepath.Join(t.TempDir(), "onlinetime.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
server:
  api_port: 8081
online_time:
  default_gap_treshold: 90
`), 0644))

	unknown, err := findUnknownKeys(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"online_time.default_gap_treshold"}, unknown)
}

func TestDumpConfigHighlightsChanges(t *testing.T) {
	color.NoColor = true

	cfg := getDefaultConfig()
	cfg.Storage.Redis.Password = "hunter2"
	cfg.OnlineTime.Workers = 4

	var buf bytes.Buffer
	dumpConfig(&buf, cfg, getDefaultConfig(), nil)

	out := buf.String()
	assert.Contains(t, out, "workers = 4  (modified from default: 1)")
	assert.Contains(t, out, "***REDACTED***")
	assert.NotContains(t, out, "hunter2")
}
