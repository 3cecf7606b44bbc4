package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the application configuration
type Config struct {
	Server    ServerConfig     `yaml:"server"`
	Database  DatabaseConfig   `yaml:"database"`
	Logging   LoggingConfig    `yaml:"logging"`
	Upstream  UpstreamConfig   `yaml:"upstream"`
	Cache     CacheConfig      `yaml:"cache"`
	Endpoints []EndpointConfig `yaml:"endpoints"`
	Watchlist []string         `yaml:"watchlist"`
}

// ServerConfig represents server configuration
type ServerConfig struct {
	Port string `yaml:"port"`
	Host string `yaml:"host"`
}

// DatabaseConfig represents database configuration
type DatabaseConfig struct {
	Driver string `yaml:"driver"`
	DSN    string `yaml:"dsn"`
}

// LoggingConfig represents logging configuration
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// UpstreamConfig represents the third-party inventory API configuration
type UpstreamConfig struct {
	BaseURL               string `yaml:"base_url"`
	Username              string `yaml:"username"`
	Password              string `yaml:"password"`
	LoginPath             string `yaml:"login_path"`
	ListPrimaryPath       string `yaml:"list_primary_path"`
	ListSecondaryPath     string `yaml:"list_secondary_path"`
	DetailPath            string `yaml:"detail_path"`
	SessionTTLMinutes     int    `yaml:"session_ttl_minutes"`
	RequestTimeoutSeconds int    `yaml:"request_timeout_seconds"`
	MaxConcurrent         int    `yaml:"max_concurrent"`
	RetryAttempts         int    `yaml:"retry_attempts"`
}

// SessionTTL returns the configured session lifetime
func (c UpstreamConfig) SessionTTL() time.Duration {
	return time.Duration(c.SessionTTLMinutes) * time.Minute
}

// RequestTimeout returns the configured per-request timeout
func (c UpstreamConfig) RequestTimeout() time.Duration {
	return time.Duration(c.RequestTimeoutSeconds) * time.Second
}

// CacheConfig represents the optional read-cache configuration
type CacheConfig struct {
	Enabled       bool   `yaml:"enabled"`
	Backend       string `yaml:"backend"` // memory, redis
	RedisAddr     string `yaml:"redis_addr"`
	RedisPassword string `yaml:"redis_password"`
	RedisDB       int    `yaml:"redis_db"`
	TTLSeconds    int    `yaml:"ttl_seconds"`
}

// TTL returns the configured cache entry lifetime
func (c CacheConfig) TTL() time.Duration {
	return time.Duration(c.TTLSeconds) * time.Second
}

// EndpointConfig represents a downstream notification endpoint configuration
type EndpointConfig struct {
	Name     string `yaml:"name"`
	Type     string `yaml:"type"` // telegram, webhook
	URL      string `yaml:"url"`
	Token    string `yaml:"token,omitempty"`
	ChatID   string `yaml:"chat_id,omitempty"`
	IsActive bool   `yaml:"is_active"`
}

// LoadConfig loads configuration from a YAML file
func LoadConfig(filename string) (*Config, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	config.applyDefaults()
	return &config, nil
}

// SaveConfig saves configuration to a YAML file
func SaveConfig(config *Config, filename string) error {
	data, err := yaml.Marshal(config)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(filename, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

func (c *Config) applyDefaults() {
	if c.Server.Host == "" {
		c.Server.Host = "localhost"
	}
	if c.Server.Port == "" {
		c.Server.Port = "8080"
	}
	if c.Database.Driver == "" {
		c.Database.Driver = "sqlite"
	}
	if c.Database.DSN == "" {
		c.Database.DSN = "stocksentry.db"
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Upstream.LoginPath == "" {
		c.Upstream.LoginPath = "/api/auth/login"
	}
	if c.Upstream.SessionTTLMinutes <= 0 {
		c.Upstream.SessionTTLMinutes = 60
	}
	if c.Upstream.RequestTimeoutSeconds <= 0 {
		c.Upstream.RequestTimeoutSeconds = 30
	}
	if c.Upstream.MaxConcurrent <= 0 {
		c.Upstream.MaxConcurrent = 10
	}
	if c.Upstream.RetryAttempts <= 0 {
		c.Upstream.RetryAttempts = 1
	}
	if c.Cache.Backend == "" {
		c.Cache.Backend = "memory"
	}
	if c.Cache.TTLSeconds <= 0 {
		c.Cache.TTLSeconds = 60
	}
}
