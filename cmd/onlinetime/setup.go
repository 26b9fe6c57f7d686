package main

import (
	"fmt"
	"os"
	"time"

	"github.com/goodtune/onlinetime/internal/config"
	"github.com/goodtune/onlinetime/internal/identity"
	"github.com/goodtune/onlinetime/internal/onlinetime"
	"github.com/goodtune/onlinetime/internal/storage"
	"github.com/goodtune/onlinetime/internal/storage/bolt"
	"github.com/goodtune/onlinetime/internal/storage/redis"
	"github.com/goodtune/onlinetime/internal/storage/sqlite"
	"github.com/rs/zerolog"
)

func openStorage(cfg config.StorageConfig) (storage.Store, error) {
	storageType := cfg.Type
	if storageType == "" {
		storageType = "bolt"
	}

	switch storageType {
	case "bolt":
		return bolt.Open(cfg.Path)
	case "sqlite":
		return sqlite.Open(cfg.Path)
	case "redis":
		return redis.Open(cfg.Redis)
	default:
		return nil, fmt.Errorf("unsupported storage type: %s (bolt, sqlite or redis)", storageType)
	}
}

// newService wires the online-time service to the store.
func newService(cfg *config.Config, store storage.Store, clock onlinetime.Clock, logger zerolog.Logger) (*onlinetime.Service, *identity.Resolver, error) {
	policy, err := onlinetime.ParseFailurePolicy(cfg.OnlineTime.FailurePolicy)
	if err != nil {
		return nil, nil, err
	}

	resolver := identity.NewResolver(
		store.Subjects(),
		cfg.Identity.CacheSize,
		parseDuration(cfg.Identity.CacheTTL, 10*time.Minute),
		logger,
	)

	service := onlinetime.NewService(
		onlinetime.NewStoreLogSource(store.Logs()),
		resolver,
		onlinetime.Config{
			FailurePolicy: policy,
			Workers:       cfg.OnlineTime.Workers,
			Clock:         clock,
		},
		logger,
	)

	return service, resolver, nil
}

// quietLogger is used by the one-shot commands.
func quietLogger() zerolog.Logger {
	return zerolog.New(os.Stderr).Level(zerolog.ErrorLevel).With().Timestamp().Logger()
}

// setupLogger configures the logger based on configuration
func setupLogger(cfg config.LoggingConfig) zerolog.Logger {
	level := zerolog.InfoLevel
	switch cfg.Level {
	case "debug":
		level = zerolog.DebugLevel
	case "info":
		level = zerolog.InfoLevel
	case "warn":
		level = zerolog.WarnLevel
	case "error":
		level = zerolog.ErrorLevel
	}

	zerolog.SetGlobalLevel(level)

	if cfg.Format == "text" {
		return zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).With().Timestamp().Logger()
	}

	// Default to JSON
	return zerolog.New(os.Stdout).With().Timestamp().Logger()
}

// parseDuration parses a duration string with a fallback
func parseDuration(s string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil {
		return fallback
	}
	return d
}
