package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/goodtune/onlinetime/internal/api"
	"github.com/goodtune/onlinetime/internal/config"
	"github.com/goodtune/onlinetime/internal/metrics"
	"github.com/goodtune/onlinetime/internal/onlinetime"
	"github.com/goodtune/onlinetime/internal/retention"
	"github.com/goodtune/onlinetime/internal/systemd"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:     "serve",
	Aliases: []string{"server"},
	Short:   "Start the online-time API server",
	Long:    `Start the HTTP API, the metrics endpoint and, when configured, the daily log retention pruner.`,
	RunE:    runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	logger := setupLogger(cfg.Logging)
	log.Logger = logger

	logger.Info().
		Str("version", version).
		Str("config", configPath).
		Msg("Starting onlinetime")

	// Check for systemd socket activation
	sdListeners, err := systemd.GetListeners()
	if err != nil {
		return fmt.Errorf("failed to get systemd listeners: %w", err)
	}
	if sdListeners.Activated {
		logger.Info().Msg("Running with systemd socket activation")
	}

	store, err := openStorage(cfg.Storage)
	if err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}
	defer func() {
		if err := store.Close(); err != nil {
			logger.Error().Err(err).Msg("Failed to close storage")
		}
	}()

	logger.Info().
		Str("type", cfg.Storage.Type).
		Str("path", cfg.Storage.Path).
		Msg("Storage initialized")

	loc, err := cfg.OnlineTime.Location()
	if err != nil {
		return fmt.Errorf("failed to load timezone: %w", err)
	}

	clock := onlinetime.RealClock{}
	service, resolver, err := newService(cfg, store, clock, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize online time service: %w", err)
	}

	logger.Info().
		Str("failure_policy", service.Policy().String()).
		Int("workers", cfg.OnlineTime.Workers).
		Str("timezone", loc.String()).
		Msg("Online time service initialized")

	// Retention pruner
	var pruner *retention.Pruner
	if cfg.Retention.LogRetentionDays > 0 {
		pruner, err = retention.NewPruner(store.Logs(), cfg.Retention.LogRetentionDays, cfg.Retention.PruneTime, clock, logger)
		if err != nil {
			return fmt.Errorf("failed to initialize retention pruner: %w", err)
		}
		pruner.Start()
	}

	// API server
	apiAddr := fmt.Sprintf("%s:%d", cfg.Server.BindAddress, cfg.Server.APIPort)
	apiServer := api.NewServer(api.Config{
		ListenAddr:          apiAddr,
		DefaultGapThreshold: cfg.OnlineTime.DefaultGapThreshold,
		DefaultRangeDays:    cfg.OnlineTime.DefaultRangeDays,
		Location:            loc,
		DateLayout:          cfg.OnlineTime.DateLayout,
		Clock:               clock,
	}, service, store.Subjects(), logger)

	if sdListeners.Activated && sdListeners.API != nil {
		apiServer.SetListener(sdListeners.API)
	}

	if err := apiServer.Start(); err != nil {
		return fmt.Errorf("failed to start API server: %w", err)
	}

	// Metrics server
	metricsAddr := fmt.Sprintf("%s:%d", cfg.Server.BindAddress, cfg.Server.MetricsPort)
	metricsServer := metrics.NewServer(metricsAddr, logger)

	if sdListeners.Activated && sdListeners.Metrics != nil {
		metricsServer.SetListener(sdListeners.Metrics)
	}

	if err := metricsServer.Start(); err != nil {
		return fmt.Errorf("failed to start Metrics Server: %w", err)
	}

	logger.Info().Msg("onlinetime startup complete")
	logger.Info().Msgf("API: http://%s/api/v1/online-time", apiAddr)
	logger.Info().Msgf("Metrics: http://%s/metrics", metricsAddr)

	if err := systemd.NotifyReady(); err != nil {
		logger.Warn().Err(err).Msg("Failed to send systemd ready notification")
	} else {
		logger.Debug().Msg("Sent systemd ready notification")
	}

	watchdogCtx, stopWatchdog := context.WithCancel(context.Background())
	defer stopWatchdog()
	go systemd.RunWatchdog(watchdogCtx, logger)

	// Wait for signals (shutdown or reload)
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM, syscall.SIGHUP)

	for sig := range sigChan {
		if sig != syscall.SIGHUP {
			logger.Info().Msg("Shutdown signal received, gracefully stopping...")
			break
		}

		logger.Info().Msg("SIGHUP received, purging identity cache...")
		_ = systemd.NotifyReloading()
		resolver.Purge()
		_ = systemd.NotifyReady()
	}

	if err := systemd.NotifyStopping(); err != nil {
		logger.Warn().Err(err).Msg("Failed to send systemd stopping notification")
	}

	stopWatchdog()

	if pruner != nil {
		pruner.Stop()
	}

	if err := apiServer.Stop(); err != nil {
		logger.Error().Err(err).Msg("Error stopping API server")
	}

	if err := metricsServer.Stop(); err != nil {
		logger.Error().Err(err).Msg("Error stopping Metrics Server")
	}

	logger.Info().Msg("onlinetime stopped")

	return nil
}
