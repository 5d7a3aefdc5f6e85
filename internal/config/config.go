package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/mr1hm/go-seismic-sources/internal/compiler"
)

type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Compiler CompilerConfig `yaml:"compiler"`
	Fetch    FetchConfig    `yaml:"fetch"`
	DB       DatabaseConfig `yaml:"db"`
	Logging  LoggingConfig  `yaml:"logging"`
}

type ServerConfig struct {
	Host          string        `yaml:"host"`
	Port          int           `yaml:"port"`
	RateLimit     float64       `yaml:"rate_limit"` // requests per second per client
	RateBurst     int           `yaml:"rate_burst"`
	MaxUploadSize int64         `yaml:"max_upload_size"`
	ShutdownGrace time.Duration `yaml:"shutdown_grace"`
}

type CompilerConfig struct {
	LabelPrefix           string  `yaml:"label_prefix"`
	MinMagnitude          float64 `yaml:"min_magnitude"`
	BinWidth              float64 `yaml:"bin_width"`
	Strategy              string  `yaml:"strategy"`
	Workers               int     `yaml:"workers"`
	FailFast              bool    `yaml:"fail_fast"`
	LabelRecordsCarryData bool    `yaml:"label_records_carry_data"`
}

// Options converts the section into compiler options.
func (c CompilerConfig) Options() compiler.Options {
	return compiler.Options{
		LabelPrefix:           c.LabelPrefix,
		MinMagnitude:          c.MinMagnitude,
		BinWidth:              c.BinWidth,
		Strategy:              c.Strategy,
		Workers:               c.Workers,
		FailFast:              c.FailFast,
		LabelRecordsCarryData: c.LabelRecordsCarryData,
	}
}

// FetchConfig controls downloading catalogs over HTTP. When URL and
// Interval are both set the server recompiles the catalog periodically.
type FetchConfig struct {
	URL      string        `yaml:"url"`
	Interval time.Duration `yaml:"interval"`
	Timeout  time.Duration `yaml:"timeout"`
}

type DatabaseConfig struct {
	Path string `yaml:"path"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // json or text
}

// Default returns the built-in configuration.
func Default() *Config {
	opts := compiler.DefaultOptions()
	return &Config{
		Server: ServerConfig{
			Host:          "localhost",
			Port:          8080,
			RateLimit:     10,
			RateBurst:     20,
			MaxUploadSize: 32 << 20,
			ShutdownGrace: 5 * time.Second,
		},
		Compiler: CompilerConfig{
			LabelPrefix:           opts.LabelPrefix,
			MinMagnitude:          opts.MinMagnitude,
			BinWidth:              opts.BinWidth,
			Strategy:              opts.Strategy,
			Workers:               opts.Workers,
			FailFast:              opts.FailFast,
			LabelRecordsCarryData: opts.LabelRecordsCarryData,
		},
		Fetch: FetchConfig{
			Timeout: 15 * time.Second,
		},
		DB: DatabaseConfig{
			Path: "./data/seismic-sources.db",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// Load builds the configuration from defaults, the optional YAML file at
// path and then environment variables, in that order of precedence.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config file: %w", err)
		}
	}

	cfg.applyEnv()

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) applyEnv() {
	c.Server.Host = getEnv("SERVER_HOST", c.Server.Host)
	c.Server.Port = getEnvInt("SERVER_PORT", c.Server.Port)
	c.Server.RateLimit = getEnvFloat("RATE_LIMIT", c.Server.RateLimit)
	c.Server.RateBurst = getEnvInt("RATE_BURST", c.Server.RateBurst)
	c.Server.ShutdownGrace = getEnvDuration("SHUTDOWN_GRACE", c.Server.ShutdownGrace)

	c.Compiler.LabelPrefix = getEnv("LABEL_PREFIX", c.Compiler.LabelPrefix)
	c.Compiler.MinMagnitude = getEnvFloat("MIN_MAGNITUDE", c.Compiler.MinMagnitude)
	c.Compiler.BinWidth = getEnvFloat("BIN_WIDTH", c.Compiler.BinWidth)
	c.Compiler.Strategy = getEnv("MFD_STRATEGY", c.Compiler.Strategy)
	c.Compiler.Workers = getEnvInt("WORKER_COUNT", c.Compiler.Workers)
	c.Compiler.FailFast = getEnvBool("FAIL_FAST", c.Compiler.FailFast)
	c.Compiler.LabelRecordsCarryData = getEnvBool("LABEL_RECORDS_CARRY_DATA", c.Compiler.LabelRecordsCarryData)

	c.Fetch.URL = getEnv("CATALOG_URL", c.Fetch.URL)
	c.Fetch.Interval = getEnvDuration("CATALOG_POLL_INTERVAL", c.Fetch.Interval)
	c.Fetch.Timeout = getEnvDuration("FETCH_TIMEOUT", c.Fetch.Timeout)
	c.DB.Path = getEnv("DB_PATH", c.DB.Path)
	c.Logging.Level = getEnv("LOG_LEVEL", c.Logging.Level)
	c.Logging.Format = getEnv("LOG_FORMAT", c.Logging.Format)
}

func (c *Config) validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}
	if c.Server.RateLimit <= 0 || c.Server.RateBurst < 1 {
		return fmt.Errorf("invalid rate limit: %g/s burst %d", c.Server.RateLimit, c.Server.RateBurst)
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[c.Logging.Level] {
		return fmt.Errorf("invalid log level: %s", c.Logging.Level)
	}
	if c.Logging.Format != "json" && c.Logging.Format != "text" {
		return fmt.Errorf("invalid log format: %s", c.Logging.Format)
	}

	if c.Compiler.LabelPrefix == "" {
		return errors.New("label prefix must not be empty")
	}
	if c.Compiler.BinWidth <= 0 {
		return fmt.Errorf("bin width must be positive: %g", c.Compiler.BinWidth)
	}
	if c.Compiler.Workers < 1 {
		return fmt.Errorf("worker count must be at least 1: %d", c.Compiler.Workers)
	}
	switch strings.ToLower(c.Compiler.Strategy) {
	case "gr", "empirical":
	default:
		return fmt.Errorf("unknown MFD strategy: %s", c.Compiler.Strategy)
	}

	if c.Fetch.Timeout < time.Second {
		return fmt.Errorf("fetch timeout must be at least 1 second")
	}
	if c.Fetch.Interval != 0 && c.Fetch.Interval < time.Minute {
		return fmt.Errorf("catalog poll interval must be at least 1 minute")
	}

	return nil
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if val := os.Getenv(key); val != "" {
		if f, err := strconv.ParseFloat(val, 64); err == nil {
			return f
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if val := os.Getenv(key); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			return b
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			return d
		}
	}
	return fallback
}
