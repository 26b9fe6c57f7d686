package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds the complete application configuration
type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	Storage    StorageConfig    `mapstructure:"storage"`
	Logging    LoggingConfig    `mapstructure:"logging"`
	OnlineTime OnlineTimeConfig `mapstructure:"online_time"`
	Identity   IdentityConfig   `mapstructure:"identity"`
	Retention  RetentionConfig  `mapstructure:"retention"`
}

// ServerConfig defines server ports and addresses
type ServerConfig struct {
	BindAddress string `mapstructure:"bind_address"`
	APIPort     int    `mapstructure:"api_port"`
	MetricsPort int    `mapstructure:"metrics_port"`
}

// StorageConfig defines storage backend settings
type StorageConfig struct {
	Type  string      `mapstructure:"type"` // "bolt", "redis" or "sqlite"
	Path  string      `mapstructure:"path"`
	Redis RedisConfig `mapstructure:"redis"`
}

// RedisConfig defines Redis connection settings
type RedisConfig struct {
	Host         string `mapstructure:"host"`
	Port         int    `mapstructure:"port"`
	Password     string `mapstructure:"password"`
	DB           int    `mapstructure:"db"`
	PoolSize     int    `mapstructure:"pool_size"`
	MinIdleConns int    `mapstructure:"min_idle_conns"`
	DialTimeout  string `mapstructure:"dial_timeout"`
	ReadTimeout  string `mapstructure:"read_timeout"`
	WriteTimeout string `mapstructure:"write_timeout"`
}

// LoggingConfig defines logging behavior
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// OnlineTimeConfig defines estimation defaults
type OnlineTimeConfig struct {
	DefaultGapThreshold int64  `mapstructure:"default_gap_threshold"` // seconds
	Timezone            string `mapstructure:"timezone"`
	FailurePolicy       string `mapstructure:"failure_policy"` // "propagate" or "partial"
	Workers             int    `mapstructure:"workers"`
	DefaultRangeDays    int    `mapstructure:"default_range_days"`
	DateLayout          string `mapstructure:"date_layout"`
}

// Location resolves the configured timezone.
func (c OnlineTimeConfig) Location() (*time.Location, error) {
	if c.Timezone == "" || strings.EqualFold(c.Timezone, "local") {
		return time.Local, nil
	}
	return time.LoadLocation(c.Timezone)
}

// IdentityConfig defines subject lookup caching
type IdentityConfig struct {
	CacheSize int    `mapstructure:"cache_size"`
	CacheTTL  string `mapstructure:"cache_ttl"`
}

// RetentionConfig defines activity log pruning
type RetentionConfig struct {
	LogRetentionDays int    `mapstructure:"log_retention_days"` // 0 disables pruning
	PruneTime        string `mapstructure:"prune_time"`         // HH:MM
}

// Load loads configuration from file and environment variables
func Load(configPath string) (*Config, error) {
	v := viper.New()

	// A .env beside the config file (or in the working directory) seeds the environment
	loadDotEnv(configPath)

	setDefaults(v)

	v.SetConfigFile(configPath)
	v.SetEnvPrefix("ONLINETIME")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// Config file not found, use defaults and environment variables
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := validate(&config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

func loadDotEnv(configPath string) {
	paths := []string{".env"}
	if configPath != "" {
		paths = append([]string{filepath.Join(filepath.Dir(configPath), ".env")}, paths...)
	}
	for _, path := range paths {
		if _, err := os.Stat(path); err == nil {
			_ = godotenv.Load(path)
			return
		}
	}
}

// Defaults returns a viper instance populated with default values only.
func Defaults() *viper.Viper {
	v := viper.New()
	setDefaults(v)
	return v
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.bind_address", "0.0.0.0")
	v.SetDefault("server.api_port", 8080)
	v.SetDefault("server.metrics_port", 9090)

	// Storage defaults
	v.SetDefault("storage.type", "bolt")
	v.SetDefault("storage.path", "/var/lib/onlinetime/onlinetime.bolt")
	v.SetDefault("storage.redis.host", "localhost")
	v.SetDefault("storage.redis.port", 6379)
	v.SetDefault("storage.redis.password", "")
	v.SetDefault("storage.redis.db", 0)
	v.SetDefault("storage.redis.pool_size", 10)
	v.SetDefault("storage.redis.min_idle_conns", 2)
	v.SetDefault("storage.redis.dial_timeout", "5s")
	v.SetDefault("storage.redis.read_timeout", "3s")
	v.SetDefault("storage.redis.write_timeout", "3s")

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")

	// Online time defaults
	v.SetDefault("online_time.default_gap_threshold", 60)
	v.SetDefault("online_time.timezone", "Local")
	v.SetDefault("online_time.failure_policy", "propagate")
	v.SetDefault("online_time.workers", 1)
	v.SetDefault("online_time.default_range_days", 7)
	v.SetDefault("online_time.date_layout", "02-01-2006")

	// Identity defaults
	v.SetDefault("identity.cache_size", 512)
	v.SetDefault("identity.cache_ttl", "10m")

	// Retention defaults
	v.SetDefault("retention.log_retention_days", 0)
	v.SetDefault("retention.prune_time", "03:00")
}

// validate validates the configuration
func validate(cfg *Config) error {
	if cfg.Server.APIPort <= 0 || cfg.Server.APIPort > 65535 {
		return fmt.Errorf("invalid API port: %d", cfg.Server.APIPort)
	}
	if cfg.Server.MetricsPort <= 0 || cfg.Server.MetricsPort > 65535 {
		return fmt.Errorf("invalid metrics port: %d", cfg.Server.MetricsPort)
	}

	if cfg.Storage.Type == "" {
		cfg.Storage.Type = "bolt"
	}
	switch cfg.Storage.Type {
	case "bolt", "sqlite":
		if cfg.Storage.Path == "" {
			return fmt.Errorf("storage path is required")
		}
		// Ensure storage directory exists
		storageDir := filepath.Dir(cfg.Storage.Path)
		if err := os.MkdirAll(storageDir, 0755); err != nil {
			return fmt.Errorf("failed to create storage directory: %w", err)
		}
	case "redis":
		if cfg.Storage.Redis.Host == "" {
			return fmt.Errorf("redis host is required")
		}
	default:
		return fmt.Errorf("unknown storage type: %s", cfg.Storage.Type)
	}

	if cfg.OnlineTime.DefaultGapThreshold <= 0 {
		return fmt.Errorf("default_gap_threshold must be positive: %d", cfg.OnlineTime.DefaultGapThreshold)
	}
	if _, err := cfg.OnlineTime.Location(); err != nil {
		return fmt.Errorf("invalid timezone %q: %w", cfg.OnlineTime.Timezone, err)
	}
	switch strings.ToLower(cfg.OnlineTime.FailurePolicy) {
	case "", "propagate", "debug", "partial", "production":
	default:
		return fmt.Errorf("invalid failure_policy: %s", cfg.OnlineTime.FailurePolicy)
	}
	if cfg.OnlineTime.Workers < 1 {
		cfg.OnlineTime.Workers = 1
	}
	if cfg.OnlineTime.DefaultRangeDays < 1 {
		return fmt.Errorf("default_range_days must be at least 1: %d", cfg.OnlineTime.DefaultRangeDays)
	}
	if cfg.OnlineTime.DateLayout == "" {
		cfg.OnlineTime.DateLayout = "02-01-2006"
	}

	if cfg.Identity.CacheSize < 0 {
		return fmt.Errorf("identity cache_size cannot be negative: %d", cfg.Identity.CacheSize)
	}
	if _, err := time.ParseDuration(cfg.Identity.CacheTTL); err != nil {
		return fmt.Errorf("invalid identity cache_ttl %q: %w", cfg.Identity.CacheTTL, err)
	}

	if cfg.Retention.LogRetentionDays < 0 {
		return fmt.Errorf("log_retention_days cannot be negative: %d", cfg.Retention.LogRetentionDays)
	}
	if _, err := time.Parse("15:04", cfg.Retention.PruneTime); err != nil {
		return fmt.Errorf("invalid prune_time %q: %w", cfg.Retention.PruneTime, err)
	}

	return nil
}
