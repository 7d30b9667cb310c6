// Package config loads the CLI configuration: defaults, then an optional YAML
// file, then EAGLEBANK_* environment variables. Flags are applied by the
// caller on top of the result.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	StoreFile   = "file"
	StoreRedis  = "redis"
	StoreMemory = "memory"
)

type Config struct {
	API     APIConfig     `yaml:"api"`
	Session SessionConfig `yaml:"session"`
	Redis   RedisConfig   `yaml:"redis"`
	Logging LoggingConfig `yaml:"logging"`
	// DeleteUserPolicy is "strict" or "lenient".
	DeleteUserPolicy string `yaml:"delete_user_policy"`
}

type APIConfig struct {
	URL      string `yaml:"url"`
	BasePath string `yaml:"base_path"` // empty means the client default, /v1
	Timeout  string `yaml:"timeout"`
}

type SessionConfig struct {
	Store string `yaml:"store"` // file, redis, memory
	File  string `yaml:"file"`
}

type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	Prefix   string `yaml:"prefix"`
	TTL      string `yaml:"ttl"`
}

type LoggingConfig struct {
	Level       string `yaml:"level"` // debug, info, warn, error
	Development bool   `yaml:"development"`
}

func DefaultConfig() *Config {
	return &Config{
		API: APIConfig{
			URL:     "http://localhost:8080",
			Timeout: "15s",
		},
		Session: SessionConfig{
			Store: StoreFile,
		},
		Redis: RedisConfig{
			Addr:   "localhost:6379",
			Prefix: "eaglebank:session:",
			TTL:    "50m",
		},
		Logging: LoggingConfig{
			Level: "warn",
		},
		DeleteUserPolicy: "strict",
	}
}

// DefaultPath is $XDG_CONFIG_HOME/eaglebank/config.yaml or the platform
// equivalent.
func DefaultPath() string {
	base, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(base, "eaglebank", "config.yaml")
}

// Load reads path over the defaults. A missing file is not an error; an
// empty path skips the file entirely.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case os.IsNotExist(err):
		case err != nil:
			return nil, fmt.Errorf("failed to read config: %w", err)
		default:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("failed to parse config: %w", err)
			}
		}
	}

	cfg.applyEnvOverrides()
	return cfg, nil
}

func (c *Config) applyEnvOverrides() {
	c.API.URL = getEnv("EAGLEBANK_API_URL", c.API.URL)
	c.API.BasePath = getEnv("EAGLEBANK_BASE_PATH", c.API.BasePath)
	c.API.Timeout = getEnv("EAGLEBANK_TIMEOUT", c.API.Timeout)
	c.Session.Store = getEnv("EAGLEBANK_STORE", c.Session.Store)
	c.Session.File = getEnv("EAGLEBANK_SESSION_FILE", c.Session.File)
	c.Redis.Addr = getEnv("EAGLEBANK_REDIS_ADDR", c.Redis.Addr)
	c.Redis.Password = getEnv("EAGLEBANK_REDIS_PASSWORD", c.Redis.Password)
	if db, err := strconv.Atoi(getEnv("EAGLEBANK_REDIS_DB", "")); err == nil {
		c.Redis.DB = db
	}
	c.Logging.Level = getEnv("EAGLEBANK_LOG_LEVEL", c.Logging.Level)
	c.DeleteUserPolicy = getEnv("EAGLEBANK_DELETE_USER_POLICY", c.DeleteUserPolicy)
}

// Timeout parses API.Timeout; an empty value means no override.
func (c *Config) Timeout() (time.Duration, error) {
	if c.API.Timeout == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(c.API.Timeout)
	if err != nil {
		return 0, fmt.Errorf("invalid api timeout %q: %w", c.API.Timeout, err)
	}
	if d < 0 {
		return 0, fmt.Errorf("invalid api timeout %q: must not be negative", c.API.Timeout)
	}
	return d, nil
}

// RedisTTL parses Redis.TTL; zero keeps the key until logout.
func (c *Config) RedisTTL() (time.Duration, error) {
	if c.Redis.TTL == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(c.Redis.TTL)
	if err != nil {
		return 0, fmt.Errorf("invalid redis ttl %q: %w", c.Redis.TTL, err)
	}
	return d, nil
}

func (c *Config) Validate() error {
	if c.API.URL == "" {
		return fmt.Errorf("api url is required")
	}
	if _, err := c.Timeout(); err != nil {
		return err
	}
	switch c.Session.Store {
	case StoreFile, StoreMemory:
	case StoreRedis:
		if c.Redis.Addr == "" {
			return fmt.Errorf("redis addr is required for the redis store")
		}
		if _, err := c.RedisTTL(); err != nil {
			return err
		}
	default:
		return fmt.Errorf("unknown session store %q", c.Session.Store)
	}
	switch strings.ToLower(c.DeleteUserPolicy) {
	case "", "strict", "lenient":
	default:
		return fmt.Errorf("unknown delete-user policy %q", c.DeleteUserPolicy)
	}
	return nil
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
