package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all configuration for the application.
type Config struct {
	API      API      `mapstructure:"api"`
	Refresh  Refresh  `mapstructure:"refresh"`
	Analysis Analysis `mapstructure:"analysis"`
	Table    Table    `mapstructure:"table"`
	Logger   Logger   `mapstructure:"logger"`
	Server   Server   `mapstructure:"server"`
	Database Database `mapstructure:"database"`
}

// API holds the configuration for the remote analytics API.
type API struct {
	BaseURL        string        `mapstructure:"base_url"`
	Timeout        time.Duration `mapstructure:"timeout"`
	RateLimit      float64       `mapstructure:"rate_limit"`
	RateLimitBurst int           `mapstructure:"rate_limit_burst"`
	MaxRetries     int           `mapstructure:"max_retries"`
	// HealthRecheck lets scheduled refresh cycles probe /health while the API is
	// unreachable. Off by default.
	HealthRecheck bool `mapstructure:"health_recheck"`
}

// Refresh holds the initial auto-refresh settings.
type Refresh struct {
	Enabled    bool `mapstructure:"enabled"`
	IntervalMs int  `mapstructure:"interval_ms"`
}

// Analysis holds optional parameters forwarded to the historical-analysis endpoint.
// Zero values are not sent.
type Analysis struct {
	ProfitTarget float64 `mapstructure:"profit_target"`
	MaxDays      int     `mapstructure:"max_days"`
}

// Table holds presentation settings for the trade table.
type Table struct {
	Locale string `mapstructure:"locale"`
}

// Server holds the configuration for the web server.
type Server struct {
	Port           int      `mapstructure:"port"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// Database holds the configuration for the preferences store.
// An empty DSN disables it.
type Database struct {
	DSN     string `mapstructure:"dsn"`
	Profile string `mapstructure:"profile"`
}

// Logger holds the configuration for the logger.
type Logger struct {
	Level       string   `mapstructure:"level"`
	Format      string   `mapstructure:"format"`
	OutputPaths []string `mapstructure:"output_paths"`
}

// LoadConfig reads configuration from file or environment variables.
// A missing config file is not an error; defaults and the environment apply.
func LoadConfig(path string) (Config, error) {
	var cfg Config

	// Values from .env become regular environment variables for viper to pick up.
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return cfg, fmt.Errorf("failed to load .env file: %w", err)
	}

	v := viper.New()
	v.AddConfigPath(path)
	v.SetConfigName("config")
	v.SetConfigType("yml")

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return cfg, fmt.Errorf("failed to read config: %w", err)
		}
	}

	if err := v.Unmarshal(&cfg); err != nil {
		return cfg, fmt.Errorf("failed to decode config: %w", err)
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("api.base_url", "http://127.0.0.1:8000")
	v.SetDefault("api.timeout", 30*time.Second)
	v.SetDefault("api.rate_limit", 5) // requests per second
	v.SetDefault("api.rate_limit_burst", 5)
	v.SetDefault("api.max_retries", 1)
	v.SetDefault("api.health_recheck", false)

	v.SetDefault("refresh.enabled", true)
	v.SetDefault("refresh.interval_ms", 30000)

	v.SetDefault("analysis.profit_target", 0)
	v.SetDefault("analysis.max_days", 0)

	v.SetDefault("table.locale", "es-AR")

	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "console")
	v.SetDefault("logger.output_paths", []string{"stderr"})

	v.SetDefault("server.port", 8080)
	v.SetDefault("server.allowed_origins", []string{"http://localhost:3000"})

	v.SetDefault("database.dsn", "")
	v.SetDefault("database.profile", "default")
}
