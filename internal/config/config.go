package config

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	Server    ServerConfig
	Dataset   DatasetConfig
	Logger    LoggerConfig
	Security  SecurityConfig
	Dashboard DashboardConfig
}

type ServerConfig struct {
	Host            string        `envconfig:"host" default:"localhost"`
	Port            int           `envconfig:"port" default:"8084"`
	ReadTimeout     time.Duration `envconfig:"read_timeout" default:"10s"`
	WriteTimeout    time.Duration `envconfig:"write_timeout" default:"30s"`
	IdleTimeout     time.Duration `envconfig:"idle_timeout" default:"60s"`
	ShutdownTimeout time.Duration `envconfig:"shutdown_timeout" default:"30s"`
}

type DatasetConfig struct {
	CSVFile     string        `envconfig:"csv_file" default:"data/all_df.csv"`
	CacheDir    string        `envconfig:"cache_dir" default:".cache"`
	LoadTimeout time.Duration `envconfig:"load_timeout" default:"2m"`
}

type LoggerConfig struct {
	Level  string `envconfig:"level" default:"info"`
	Format string `envconfig:"format" default:"json"`
}

type SecurityConfig struct {
	EnableRateLimit bool     `envconfig:"rate_limit_enabled" default:"true"`
	RateLimitRPS    int      `envconfig:"rate_limit_rps" default:"100"`
	RateLimitBurst  int      `envconfig:"rate_limit_burst" default:"20"`
	AllowedOrigins  []string `envconfig:"allowed_origins" default:"http://localhost:8084"`
	TrustedProxies  []string `envconfig:"trusted_proxies" default:"127.0.0.1"`
}

type DashboardConfig struct {
	Currency      string `envconfig:"currency" default:"AUD"`
	Locale        string `envconfig:"locale" default:"es-CO"`
	ViewCacheSize int    `envconfig:"view_cache_size" default:"64"`
	TopN          int    `envconfig:"top_n" default:"5"`
}

// Load reads the configuration from the environment. Each section has its
// own prefix, so the port is SERVER_PORT and the extract is DATASET_CSV_FILE.
func Load() (*Config, error) {
	cfg := &Config{}

	sections := []struct {
		prefix string
		spec   any
	}{
		{"server", &cfg.Server},
		{"dataset", &cfg.Dataset},
		{"log", &cfg.Logger},
		{"security", &cfg.Security},
		{"dashboard", &cfg.Dashboard},
	}
	for _, s := range sections {
		if err := envconfig.Process(s.prefix, s.spec); err != nil {
			return nil, fmt.Errorf("read %s config: %w", s.prefix, err)
		}
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

func (c *Config) validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server port must be between 1 and 65535, got %d", c.Server.Port)
	}

	if c.Server.ReadTimeout <= 0 || c.Server.WriteTimeout <= 0 {
		return fmt.Errorf("server read and write timeouts must be positive")
	}

	if c.Dataset.CSVFile == "" {
		return fmt.Errorf("CSV file path cannot be empty")
	}

	if c.Dataset.LoadTimeout <= 0 {
		return fmt.Errorf("dataset load timeout must be positive")
	}

	validLogLevels := []string{"debug", "info", "warn", "error"}
	if !slices.Contains(validLogLevels, c.Logger.Level) {
		return fmt.Errorf("invalid log level %q, must be one of: %s", c.Logger.Level, strings.Join(validLogLevels, ", "))
	}

	validLogFormats := []string{"json", "text"}
	if !slices.Contains(validLogFormats, c.Logger.Format) {
		return fmt.Errorf("invalid log format %q, must be one of: %s", c.Logger.Format, strings.Join(validLogFormats, ", "))
	}

	if c.Security.RateLimitRPS <= 0 || c.Security.RateLimitBurst <= 0 {
		return fmt.Errorf("rate limit RPS and burst must be positive")
	}

	if c.Dashboard.ViewCacheSize < 0 {
		return fmt.Errorf("view cache size cannot be negative, got %d", c.Dashboard.ViewCacheSize)
	}

	if c.Dashboard.TopN < 1 {
		return fmt.Errorf("top N must be at least 1, got %d", c.Dashboard.TopN)
	}

	return nil
}

func (c *Config) Address() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}
