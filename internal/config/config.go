package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Config represents the complete application configuration
type Config struct {
	Ingest  IngestConfig  `mapstructure:"ingest"`
	Series  SeriesConfig  `mapstructure:"series"`
	Server  ServerConfig  `mapstructure:"server"`
	Chart   ChartConfig   `mapstructure:"chart"`
	Logging LoggingConfig `mapstructure:"logging"`
}

// IngestConfig holds CSV ingestion configuration
type IngestConfig struct {
	SymptomCategory string `mapstructure:"symptom_category"`
	SourcePath      string `mapstructure:"source_path"`
}

// SeriesConfig holds the default query window, as YYYY-MM-DD dates
type SeriesConfig struct {
	DefaultStart string `mapstructure:"default_start"`
	DefaultEnd   string `mapstructure:"default_end"`
}

// ServerConfig holds HTTP API configuration
type ServerConfig struct {
	Addr         string        `mapstructure:"addr"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	MaxUploadMB  int           `mapstructure:"max_upload_mb"`
}

// ChartConfig holds chart rendering configuration
type ChartConfig struct {
	Width  int `mapstructure:"width"`
	Height int `mapstructure:"height"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

const dateLayout = "2006-01-02"

// Load reads configuration from file and environment variables
func Load(path string) (*Config, error) {
	v := newViper()

	// Set config file
	v.SetConfigFile(path)

	// Read config file
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	return unmarshal(v)
}

// Default returns the configuration built from defaults and environment
// variables only, for running without a config file.
func Default() (*Config, error) {
	return unmarshal(newViper())
}

func newViper() *viper.Viper {
	v := viper.New()

	// Set defaults
	setDefaults(v)

	// Enable environment variable override
	v.SetEnvPrefix("SYMPTOMSCOPE")
	v.AutomaticEnv()

	return v
}

func unmarshal(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	return &cfg, nil
}

// setDefaults configures default values for all configuration options
func setDefaults(v *viper.Viper) {
	// Ingest defaults
	v.SetDefault("ingest.symptom_category", "Symptom")
	v.SetDefault("ingest.source_path", "")

	// Series defaults
	v.SetDefault("series.default_start", "2021-11-19")
	v.SetDefault("series.default_end", "2021-11-25")

	// Server defaults
	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.read_timeout", "10s")
	v.SetDefault("server.write_timeout", "30s")
	v.SetDefault("server.max_upload_mb", 10)

	// Chart defaults
	v.SetDefault("chart.width", 960)
	v.SetDefault("chart.height", 500)

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "text")
}

// Validate checks that all configuration values are valid
func (c *Config) Validate() error {
	// Validate Ingest config
	if c.Ingest.SymptomCategory == "" {
		return fmt.Errorf("ingest.symptom_category is required")
	}

	// Validate Series config
	start, end, err := c.Series.Window()
	if err != nil {
		return err
	}
	if end.Before(start) {
		return fmt.Errorf("series.default_end must not be before series.default_start")
	}

	// Validate Server config
	if c.Server.Addr == "" {
		return fmt.Errorf("server.addr is required")
	}
	if c.Server.ReadTimeout < time.Second {
		return fmt.Errorf("server.read_timeout must be at least 1 second")
	}
	if c.Server.WriteTimeout < time.Second {
		return fmt.Errorf("server.write_timeout must be at least 1 second")
	}
	if c.Server.MaxUploadMB < 1 {
		return fmt.Errorf("server.max_upload_mb must be at least 1")
	}

	// Validate Chart config
	if c.Chart.Width < 100 || c.Chart.Height < 100 {
		return fmt.Errorf("chart.width and chart.height must be at least 100")
	}

	// Validate Logging config
	validLogLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLogLevels[c.Logging.Level] {
		return fmt.Errorf("logging.level must be one of: debug, info, warn, error")
	}
	validFormats := map[string]bool{"json": true, "text": true}
	if !validFormats[c.Logging.Format] {
		return fmt.Errorf("logging.format must be one of: json, text")
	}

	return nil
}

// Window parses the default window dates.
func (s SeriesConfig) Window() (time.Time, time.Time, error) {
	start, err := time.Parse(dateLayout, s.DefaultStart)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("series.default_start must be a YYYY-MM-DD date: %w", err)
	}
	end, err := time.Parse(dateLayout, s.DefaultEnd)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("series.default_end must be a YYYY-MM-DD date: %w", err)
	}
	return start, end, nil
}
