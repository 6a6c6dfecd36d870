// Package config provides centralized configuration management.
//
// Configuration can be loaded from:
//  1. YAML file (config.yaml)
//  2. Environment variables (fallback)
//
// Example usage:
//
//	cfg := config.LoadOrEnv("config.yaml")
//	store, err := sqlite.New(cfg.Storage.DatabasePath)
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/mmynk/receiptsplit/internal/calculator"
)

// Config represents the entire application configuration.
type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Storage    StorageConfig    `yaml:"storage"`
	Share      ShareConfig      `yaml:"share"`
	OpenAI     OpenAIConfig     `yaml:"openai"`
	Allocation AllocationConfig `yaml:"allocation"`
	Logging    LoggingConfig    `yaml:"logging"`
}

// ServerConfig holds HTTP listener settings.
type ServerConfig struct {
	Port       int    `yaml:"port"`
	StaticPath string `yaml:"static_path"`
}

// StorageConfig holds database configuration.
type StorageConfig struct {
	DatabasePath string `yaml:"database_path"`
}

// ShareConfig holds share link signing settings.
type ShareConfig struct {
	Secret string        `yaml:"secret"`
	TTL    time.Duration `yaml:"ttl"`
}

// OpenAIConfig holds receipt extraction settings. Extraction is disabled
// when APIKey is empty.
type OpenAIConfig struct {
	APIKey  string `yaml:"api_key"`
	Model   string `yaml:"model"`
	BaseURL string `yaml:"base_url"`
}

// AllocationConfig controls calculator input policy.
type AllocationConfig struct {
	ClampNegative *bool `yaml:"clamp_negative"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level string `yaml:"level"`
}

const (
	defaultPort       = 8080
	defaultDBPath     = "./data/bills.db"
	defaultStaticPath = "../frontend/static"
	defaultModel      = "gpt-4o-mini"
	defaultShareTTL   = 30 * 24 * time.Hour
	devShareSecret    = "receiptsplit-dev-secret-change-me"
)

// Policy returns the calculator policy this config selects.
func (c *Config) Policy() calculator.Policy {
	p := calculator.DefaultPolicy()
	if c.Allocation.ClampNegative != nil {
		p.ClampNegativeToZero = *c.Allocation.ClampNegative
	}
	return p
}

// Addr returns the listen address.
func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.Server.Port)
}

// Validate reports settings that cannot be used.
func (c *Config) Validate() error {
	var errs []error
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("server.port out of range: %d", c.Server.Port))
	}
	if c.Storage.DatabasePath == "" {
		errs = append(errs, errors.New("storage.database_path is required"))
	}
	if c.Share.Secret == "" {
		errs = append(errs, errors.New("share.secret is required"))
	}
	if c.Share.TTL < 0 {
		errs = append(errs, fmt.Errorf("share.ttl cannot be negative: %s", c.Share.TTL))
	}
	return errors.Join(errs...)
}

// Load reads and parses the config file. Missing values take defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	// Expand environment variables (e.g., ${OPENAI_API_KEY})
	expanded := os.ExpandEnv(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	cfg.applyDefaults()

	return &cfg, nil
}

// LoadFromEnv loads configuration from environment variables only.
func LoadFromEnv() *Config {
	cfg := &Config{
		Server: ServerConfig{
			Port:       getEnvInt("PORT", defaultPort),
			StaticPath: getEnv("STATIC_PATH", defaultStaticPath),
		},
		Storage: StorageConfig{
			DatabasePath: getEnv("DB_PATH", defaultDBPath),
		},
		Share: ShareConfig{
			Secret: getEnv("SHARE_SECRET", devShareSecret),
			TTL:    getEnvDuration("SHARE_TTL", defaultShareTTL),
		},
		OpenAI: OpenAIConfig{
			APIKey:  os.Getenv("OPENAI_API_KEY"),
			Model:   getEnv("OPENAI_MODEL", defaultModel),
			BaseURL: os.Getenv("OPENAI_BASE_URL"),
		},
		Logging: LoggingConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
	}
	if v, err := strconv.ParseBool(os.Getenv("CLAMP_NEGATIVE")); err == nil {
		cfg.Allocation.ClampNegative = &v
	}
	return cfg
}

// LoadOrEnv tries to load from path, falls back to environment variables.
// A file that exists but cannot be parsed is logged before falling back.
func LoadOrEnv(path string) *Config {
	cfg, err := Load(path)
	if err == nil {
		return cfg
	}
	if !errors.Is(err, os.ErrNotExist) {
		slog.Warn("Failed to load config file, using environment", "path", path, "error", err)
	}
	return LoadFromEnv()
}

// UsesDevSecret reports whether share links are signed with the built-in
// development secret.
func (c *Config) UsesDevSecret() bool {
	return c.Share.Secret == devShareSecret
}

func (c *Config) applyDefaults() {
	if c.Server.Port == 0 {
		c.Server.Port = defaultPort
	}
	if c.Server.StaticPath == "" {
		c.Server.StaticPath = defaultStaticPath
	}
	if c.Storage.DatabasePath == "" {
		c.Storage.DatabasePath = defaultDBPath
	}
	if c.Share.Secret == "" {
		c.Share.Secret = devShareSecret
	}
	if c.Share.TTL == 0 {
		c.Share.TTL = defaultShareTTL
	}
	if c.OpenAI.Model == "" {
		c.OpenAI.Model = defaultModel
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
}

// getEnv retrieves an environment variable with a fallback default
func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		if n, err := strconv.Atoi(val); err == nil {
			return n
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
