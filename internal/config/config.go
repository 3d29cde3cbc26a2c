// Package config provides unified configuration loading for the enrichment
// engine. Supports YAML files, environment variables, and programmatic
// overrides.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the enrichment engine.
type Config struct {
	Server        ServerConfig        `yaml:"server"`
	Search        SearchConfig        `yaml:"search"`
	LLM           LLMConfig           `yaml:"llm"`
	Crawler       CrawlerConfig       `yaml:"crawler"`
	Storage       StorageConfig       `yaml:"storage"`
	Observability ObservabilityConfig `yaml:"observability"`
}

// ServerConfig holds HTTP server settings for the RPC surface.
type ServerConfig struct {
	Host             string        `yaml:"host"`
	Port             int           `yaml:"port"`
	ReadTimeout      time.Duration `yaml:"read_timeout"`
	WriteTimeout     time.Duration `yaml:"write_timeout"`
	GracefulShutdown time.Duration `yaml:"graceful_shutdown"`
}

// SearchConfig holds the web-search backend settings.
type SearchConfig struct {
	Endpoint       string  `yaml:"endpoint"`
	APIKey         string  `yaml:"api_key"`
	ResultCount    int     `yaml:"result_count"`
	RatePerSecond  float64 `yaml:"rate_per_second"`
	BurstAllowance int     `yaml:"burst_allowance"`
}

// LLMConfig holds the generative-text backend settings.
type LLMConfig struct {
	Endpoint       string  `yaml:"endpoint"`
	APIKey         string  `yaml:"api_key"`
	Model          string  `yaml:"model"`
	RatePerSecond  float64 `yaml:"rate_per_second"`
	BurstAllowance int     `yaml:"burst_allowance"`
}

// CrawlerConfig holds fetch and headless-browser settings.
type CrawlerConfig struct {
	FetchTimeout    time.Duration `yaml:"fetch_timeout"`
	FetchAttempts   int           `yaml:"fetch_attempts"`
	BrowserTimeout  time.Duration `yaml:"browser_timeout"`
	UserAgent       string        `yaml:"user_agent"`
	HeadlessEnabled bool          `yaml:"headless_enabled"`
}

// StorageConfig holds the local cache layout settings.
type StorageConfig struct {
	DataDir string `yaml:"data_dir"`
	Tenant  string `yaml:"tenant"`
}

// ObservabilityConfig holds logging settings.
type ObservabilityConfig struct {
	LogLevel  string `yaml:"log_level"`
	LogFormat string `yaml:"log_format"`
}

// Load reads configuration from a YAML file and applies environment overrides.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}

		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config file: %w", err)
		}
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return cfg, nil
}

// DefaultConfig returns a configuration with sensible defaults for development.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:             "0.0.0.0",
			Port:             8090,
			ReadTimeout:      30 * time.Second,
			WriteTimeout:     120 * time.Second,
			GracefulShutdown: 10 * time.Second,
		},
		Search: SearchConfig{
			Endpoint:       "https://google.serper.dev/search",
			ResultCount:    10,
			RatePerSecond:  2,
			BurstAllowance: 2,
		},
		LLM: LLMConfig{
			Endpoint:       "https://generativelanguage.googleapis.com/v1beta/models",
			Model:          "gemini-2.0-flash",
			RatePerSecond:  1,
			BurstAllowance: 1,
		},
		Crawler: CrawlerConfig{
			FetchTimeout:    10 * time.Second,
			FetchAttempts:   2,
			BrowserTimeout:  20 * time.Second,
			UserAgent:       "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36",
			HeadlessEnabled: true,
		},
		Storage: StorageConfig{
			DataDir: "data",
			Tenant:  "default",
		},
		Observability: ObservabilityConfig{
			LogLevel:  "info",
			LogFormat: "json",
		},
	}
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}

	if c.Search.ResultCount < 1 || c.Search.ResultCount > 20 {
		return fmt.Errorf("search result_count must be between 1 and 20")
	}

	if c.Crawler.FetchAttempts < 1 {
		return fmt.Errorf("crawler fetch_attempts must be at least 1")
	}

	if c.Crawler.FetchTimeout <= 0 || c.Crawler.BrowserTimeout <= 0 {
		return fmt.Errorf("crawler timeouts must be positive")
	}

	if c.Storage.Tenant == "" {
		return fmt.Errorf("storage tenant must not be empty")
	}

	return nil
}

// applyEnvOverrides applies environment variable overrides to config.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("SERVER_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}

	if v := os.Getenv("SEARCH_API_KEY"); v != "" {
		cfg.Search.APIKey = v
	}

	if v := os.Getenv("SEARCH_ENDPOINT"); v != "" {
		cfg.Search.Endpoint = v
	}

	if v := os.Getenv("LLM_API_KEY"); v != "" {
		cfg.LLM.APIKey = v
	}

	if v := os.Getenv("LLM_MODEL"); v != "" {
		cfg.LLM.Model = v
	}

	if v := os.Getenv("LLM_ENDPOINT"); v != "" {
		cfg.LLM.Endpoint = v
	}

	if v := os.Getenv("DATA_DIR"); v != "" {
		cfg.Storage.DataDir = v
	}

	if v := os.Getenv("TENANT"); v != "" {
		cfg.Storage.Tenant = v
	}

	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Observability.LogLevel = v
	}

	if v := os.Getenv("LOG_FORMAT"); v != "" {
		cfg.Observability.LogFormat = v
	}
}
