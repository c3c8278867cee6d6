// Package config provides configuration management for the memory service.
// Settings are layered: built-in defaults, then an optional YAML file, then
// environment variables with the PACTWISE_ prefix. Environment variables win.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all configuration settings for the memory service.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Storage   StorageConfig   `yaml:"storage"`
	Security  SecurityConfig  `yaml:"security"`
	Sweep     SweepConfig     `yaml:"sweep"`
	Embedding EmbeddingConfig `yaml:"embedding"`
}

// ServerConfig contains HTTP server configuration.
type ServerConfig struct {
	Port int    `yaml:"port"` // Server port (default: 7070)
	Host string `yaml:"host"` // Server host (default: 127.0.0.1)
}

// StorageConfig contains database and storage configuration.
type StorageConfig struct {
	Engine      string `yaml:"engine"`       // Storage engine: sqlite, postgres (default: sqlite)
	DataPath    string `yaml:"data_path"`    // Path to the sqlite data directory (default: ./data)
	PostgresDSN string `yaml:"postgres_dsn"` // Connection string when engine is postgres
}

// SecurityConfig contains authentication and rate-limit settings.
type SecurityConfig struct {
	APIToken       string  `yaml:"api_token"`        // Bearer token required on API calls; empty disables auth
	RateLimitRPS   float64 `yaml:"rate_limit_rps"`   // Sustained requests per second per client (default: 20)
	RateLimitBurst int     `yaml:"rate_limit_burst"` // Burst allowance (default: 40)
}

// SweepConfig controls the background maintenance loops.
type SweepConfig struct {
	ExpiryInterval        time.Duration `yaml:"expiry_interval"`        // How often expired session memories are removed (default: 5m)
	DecayInterval         time.Duration `yaml:"decay_interval"`         // How often the strength decay pass runs (default: 1h)
	ConsolidationInterval time.Duration `yaml:"consolidation_interval"` // How often pending memories are promoted (default: 15m)
	ConsolidationBatch    int           `yaml:"consolidation_batch"`    // Max promotions per pass (default: 100)
}

// EmbeddingConfig configures the optional external embedding service. When
// disabled the merge path uses lexical similarity only.
type EmbeddingConfig struct {
	Enabled bool          `yaml:"enabled"` // Enable embedding-based similarity (default: false)
	URL     string        `yaml:"url"`     // Embedding endpoint URL
	Model   string        `yaml:"model"`   // Encoder model name sent with each request
	Timeout time.Duration `yaml:"timeout"` // Per-request timeout (default: 30s)
}

// LoadConfig loads configuration from defaults, then the YAML file named by
// PACTWISE_CONFIG_FILE (if set), then PACTWISE_-prefixed environment
// variables. Later layers override earlier ones.
func LoadConfig() (*Config, error) {
	cfg := defaultConfig()

	if path := os.Getenv("PACTWISE_CONFIG_FILE"); path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
	}

	cfg.applyEnv()
	return cfg, cfg.validate()
}

// LoadConfigFile loads configuration from defaults and the given YAML file,
// then applies environment overrides. Used when the file path comes from a
// command-line flag rather than the environment.
func LoadConfigFile(path string) (*Config, error) {
	cfg := defaultConfig()
	if err := cfg.loadFile(path); err != nil {
		return nil, err
	}
	cfg.applyEnv()
	return cfg, cfg.validate()
}

func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port: 7070,
			Host: "127.0.0.1",
		},
		Storage: StorageConfig{
			Engine:   "sqlite",
			DataPath: "./data",
		},
		Security: SecurityConfig{
			RateLimitRPS:   20,
			RateLimitBurst: 40,
		},
		Sweep: SweepConfig{
			ExpiryInterval:        5 * time.Minute,
			DecayInterval:         time.Hour,
			ConsolidationInterval: 15 * time.Minute,
			ConsolidationBatch:    100,
		},
		Embedding: EmbeddingConfig{
			Timeout: 30 * time.Second,
		},
	}
}

func (c *Config) loadFile(path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("config: failed to read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(raw, c); err != nil {
		return fmt.Errorf("config: failed to parse %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv() {
	c.Server.Port = getEnvInt("PACTWISE_PORT", c.Server.Port)
	c.Server.Host = getEnv("PACTWISE_HOST", c.Server.Host)

	c.Storage.Engine = getEnv("PACTWISE_STORAGE_ENGINE", c.Storage.Engine)
	c.Storage.DataPath = getEnv("PACTWISE_DATA_PATH", c.Storage.DataPath)
	c.Storage.PostgresDSN = getEnv("PACTWISE_POSTGRES_DSN", c.Storage.PostgresDSN)

	c.Security.APIToken = getEnv("PACTWISE_API_TOKEN", c.Security.APIToken)
	c.Security.RateLimitRPS = getEnvFloat("PACTWISE_RATE_LIMIT_RPS", c.Security.RateLimitRPS)
	c.Security.RateLimitBurst = getEnvInt("PACTWISE_RATE_LIMIT_BURST", c.Security.RateLimitBurst)

	c.Sweep.ExpiryInterval = getEnvDuration("PACTWISE_EXPIRY_INTERVAL", c.Sweep.ExpiryInterval)
	c.Sweep.DecayInterval = getEnvDuration("PACTWISE_DECAY_INTERVAL", c.Sweep.DecayInterval)
	c.Sweep.ConsolidationInterval = getEnvDuration("PACTWISE_CONSOLIDATION_INTERVAL", c.Sweep.ConsolidationInterval)
	c.Sweep.ConsolidationBatch = getEnvInt("PACTWISE_CONSOLIDATION_BATCH", c.Sweep.ConsolidationBatch)

	c.Embedding.Enabled = getEnvBool("PACTWISE_EMBEDDING_ENABLED", c.Embedding.Enabled)
	c.Embedding.URL = getEnv("PACTWISE_EMBEDDING_URL", c.Embedding.URL)
	c.Embedding.Model = getEnv("PACTWISE_EMBEDDING_MODEL", c.Embedding.Model)
	c.Embedding.Timeout = getEnvDuration("PACTWISE_EMBEDDING_TIMEOUT", c.Embedding.Timeout)
}

func (c *Config) validate() error {
	switch c.Storage.Engine {
	case "sqlite", "postgres":
	default:
		return fmt.Errorf("config: unknown storage engine %q", c.Storage.Engine)
	}
	if c.Storage.Engine == "postgres" && c.Storage.PostgresDSN == "" {
		return fmt.Errorf("config: postgres engine requires PACTWISE_POSTGRES_DSN")
	}
	if c.Embedding.Enabled && c.Embedding.URL == "" {
		return fmt.Errorf("config: embedding enabled but no URL configured")
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("config: invalid port %d", c.Server.Port)
	}
	return nil
}

// getEnv retrieves a string environment variable or returns a default value.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt retrieves an integer environment variable or returns a default
// value. Unparseable values fall back to the default.
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

// getEnvBool retrieves a boolean environment variable or returns a default
// value. It recognizes "true", "1", "yes" as true and "false", "0", "no" as
// false (case-insensitive).
func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		switch value {
		case "true", "1", "yes", "True", "TRUE", "Yes", "YES":
			return true
		case "false", "0", "no", "False", "FALSE", "No", "NO":
			return false
		}
	}
	return defaultValue
}
