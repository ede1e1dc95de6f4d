// Package config loads CLI configuration from a YAML file, .env files and
// QUERYKIT_* environment variables.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/mitchellh/go-homedir"
	"github.com/spf13/afero"
	"github.com/spf13/viper"

	"github.com/satishbabariya/querykit/internal/debug"
	"github.com/satishbabariya/querykit/runtime/pool"
)

// AppFs is the filesystem config and .env files are read from.
var AppFs = afero.NewOsFs()

// ErrNoDatabaseURL is returned when no database URL is configured.
var ErrNoDatabaseURL = errors.New("no database URL configured (set QUERYKIT_DATABASE_URL or DATABASE_URL)")

// Config holds the application configuration
type Config struct {
	DatabaseURL string
	Driver      string
	Pool        PoolConfig
	Retry       RetryConfig
	Sweep       SweepConfig
	Log         LogConfig
}

// PoolConfig holds database/sql pool limits
type PoolConfig struct {
	MaxOpen         int
	MaxIdle         int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
}

// RetryConfig holds connection acquisition retry settings
type RetryConfig struct {
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
	Jitter      bool
}

// SweepConfig holds idle lease reclamation settings
type SweepConfig struct {
	Interval      time.Duration
	IdleThreshold time.Duration
}

// LogConfig holds logger settings
type LogConfig struct {
	Level  string
	Format string
}

func setDefaults(v *viper.Viper) {
	poolDefaults := pool.DefaultConfig()
	retryDefaults := pool.DefaultRetryConfig()

	v.SetDefault("driver", "")
	v.SetDefault("pool.max_open", poolDefaults.MaxOpenConns)
	v.SetDefault("pool.max_idle", poolDefaults.MaxIdleConns)
	v.SetDefault("pool.conn_max_lifetime", poolDefaults.ConnMaxLifetime)
	v.SetDefault("pool.conn_max_idle_time", poolDefaults.ConnMaxIdleTime)
	v.SetDefault("retry.max_attempts", retryDefaults.MaxAttempts)
	v.SetDefault("retry.base_delay", retryDefaults.BaseDelay)
	v.SetDefault("retry.max_delay", retryDefaults.MaxDelay)
	v.SetDefault("retry.jitter", retryDefaults.Jitter)
	v.SetDefault("sweep.interval", time.Minute)
	v.SetDefault("sweep.idle_threshold", 5*time.Minute)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
}

// LoadConfig loads configuration from various sources. configFile, when
// set, replaces the search for .querykit.yaml.
func LoadConfig(configFile string) (*Config, error) {
	v := viper.New()
	v.SetFs(AppFs)

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		// Find home directory
		home, err := homedir.Dir()
		if err != nil {
			return nil, err
		}

		v.SetConfigName(".querykit")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath(home)
		v.AddConfigPath(filepath.Join(home, ".config", "querykit"))
	}

	// Set environment variable prefix
	v.SetEnvPrefix("QUERYKIT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	// Load .env, then .env.local (higher priority)
	if err := loadEnvFile(".env", false); err != nil {
		return nil, err
	}
	if err := loadEnvFile(".env.local", true); err != nil {
		return nil, err
	}

	cfg := &Config{
		DatabaseURL: v.GetString("database_url"),
		Driver:      v.GetString("driver"),
		Pool: PoolConfig{
			MaxOpen:         v.GetInt("pool.max_open"),
			MaxIdle:         v.GetInt("pool.max_idle"),
			ConnMaxLifetime: v.GetDuration("pool.conn_max_lifetime"),
			ConnMaxIdleTime: v.GetDuration("pool.conn_max_idle_time"),
		},
		Retry: RetryConfig{
			MaxAttempts: v.GetInt("retry.max_attempts"),
			BaseDelay:   v.GetDuration("retry.base_delay"),
			MaxDelay:    v.GetDuration("retry.max_delay"),
			Jitter:      v.GetBool("retry.jitter"),
		},
		Sweep: SweepConfig{
			Interval:      v.GetDuration("sweep.interval"),
			IdleThreshold: v.GetDuration("sweep.idle_threshold"),
		},
		Log: LogConfig{
			Level:  v.GetString("log.level"),
			Format: v.GetString("log.format"),
		},
	}

	if cfg.DatabaseURL == "" {
		cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	}
	if cfg.Driver == "" {
		cfg.Driver = DetectDriver(cfg.DatabaseURL)
	}

	return cfg, nil
}

// loadEnvFile reads a dotenv file from AppFs. Without overload, variables
// already present in the environment win. A missing file is not an error.
func loadEnvFile(name string, overload bool) error {
	data, err := afero.ReadFile(AppFs, name)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("failed to read %s: %w", name, err)
	}

	env, err := godotenv.Parse(bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("failed to parse %s: %w", name, err)
	}
	for key, value := range env {
		if _, exists := os.LookupEnv(key); exists && !overload {
			continue
		}
		if err := os.Setenv(key, value); err != nil {
			return err
		}
	}
	return nil
}

// SaveConfig writes cfg as YAML to path
func SaveConfig(cfg *Config, path string) error {
	v := viper.New()
	v.SetFs(AppFs)

	v.Set("driver", cfg.Driver)
	v.Set("pool.max_open", cfg.Pool.MaxOpen)
	v.Set("pool.max_idle", cfg.Pool.MaxIdle)
	v.Set("pool.conn_max_lifetime", cfg.Pool.ConnMaxLifetime.String())
	v.Set("pool.conn_max_idle_time", cfg.Pool.ConnMaxIdleTime.String())
	v.Set("retry.max_attempts", cfg.Retry.MaxAttempts)
	v.Set("retry.base_delay", cfg.Retry.BaseDelay.String())
	v.Set("retry.max_delay", cfg.Retry.MaxDelay.String())
	v.Set("retry.jitter", cfg.Retry.Jitter)
	v.Set("sweep.interval", cfg.Sweep.Interval.String())
	v.Set("sweep.idle_threshold", cfg.Sweep.IdleThreshold.String())
	v.Set("log.level", cfg.Log.Level)
	v.Set("log.format", cfg.Log.Format)

	if err := AppFs.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	return v.WriteConfigAs(path)
}

// DefaultConfigPath returns ~/.config/querykit/.querykit.yaml
func DefaultConfigPath() (string, error) {
	home, err := homedir.Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "querykit", ".querykit.yaml"), nil
}

// DetectDriver guesses the database/sql driver from a connection string.
func DetectDriver(url string) string {
	switch {
	case strings.HasPrefix(url, "postgres://"), strings.HasPrefix(url, "postgresql://"):
		return "postgres"
	case strings.HasPrefix(url, "file:"), strings.HasSuffix(url, ".db"),
		strings.HasSuffix(url, ".sqlite"), strings.HasSuffix(url, ".sqlite3"), url == ":memory:":
		return "sqlite3"
	case strings.Contains(url, "@tcp("), strings.Contains(url, "@unix("):
		return "mysql"
	default:
		return "postgres"
	}
}

// PoolOptions converts the pool section
func (c *Config) PoolOptions() pool.Config {
	return pool.Config{
		MaxOpenConns:    c.Pool.MaxOpen,
		MaxIdleConns:    c.Pool.MaxIdle,
		ConnMaxLifetime: c.Pool.ConnMaxLifetime,
		ConnMaxIdleTime: c.Pool.ConnMaxIdleTime,
	}
}

// AcquirerOptions converts the retry section
func (c *Config) AcquirerOptions(logger pool.Logger) []pool.Option {
	return []pool.Option{
		pool.WithRetryConfig(pool.RetryConfig{
			MaxAttempts: c.Retry.MaxAttempts,
			BaseDelay:   c.Retry.BaseDelay,
			MaxDelay:    c.Retry.MaxDelay,
			Jitter:      c.Retry.Jitter,
		}),
		pool.WithLogger(logger),
	}
}

// LoggerConfig converts the log section
func (c *Config) LoggerConfig(out io.Writer) debug.Config {
	return debug.Config{
		Level:  c.Log.Level,
		Format: c.Log.Format,
		Output: out,
	}
}
