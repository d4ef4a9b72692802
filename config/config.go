// Package config resolves service configuration from the environment, with
// an optional YAML file overlay. Credential resolution (.env files, secret
// vaults) is the deployment's job; this package only reads what is already
// in the process environment.
package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Backend names accepted by the store factory.
const (
	BackendJSON   = "json"
	BackendRedis  = "redis"
	BackendSQLite = "sqlite"
	BackendMemory = "memory"
)

// Config holds everything the process needs to start.
type Config struct {
	Env  string `yaml:"env"`
	Host string `yaml:"host"`
	Port string `yaml:"port"`

	Backend string `yaml:"backend"`
	DataDir string `yaml:"data_dir"`

	RedisAddr     string `yaml:"redis_addr"`
	RedisPassword string `yaml:"redis_password"`
	RedisDB       int    `yaml:"redis_db"`

	CORSOrigins string `yaml:"cors_origins"`
	LogLevel    string `yaml:"log_level"`
	LogJSON     bool   `yaml:"log_json"`
}

func env(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func boolEnv(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	switch strings.ToLower(v) {
	case "true", "1", "yes", "on":
		return true
	}
	return false
}

// FromEnv builds a Config from environment variables.
func FromEnv() *Config {
	cfg := &Config{
		Env:           env("ENV_NAME", "development"),
		Host:          env("HOST", "0.0.0.0"),
		Port:          env("PORT", "8000"),
		Backend:       os.Getenv("STORE_BACKEND"),
		DataDir:       env("DATA_DIR", "data"),
		RedisAddr:     os.Getenv("REDIS_ADDR"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),
		CORSOrigins:   env("ALLOWED_ORIGINS", "*"),
		LogLevel:      env("LOG_LEVEL", "info"),
		LogJSON:       boolEnv("LOG_JSON", false),
	}
	if v := os.Getenv("REDIS_DB"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.RedisDB = n
		}
	}
	if cfg.Backend == "" {
		// Legacy selector from the first deployment: USE_LOCAL_FILES=false
		// means the document store.
		if boolEnv("USE_LOCAL_FILES", true) {
			cfg.Backend = BackendJSON
		} else {
			cfg.Backend = BackendRedis
		}
	}
	return cfg
}

// MergeFile overlays values from a YAML file. Keys absent from the file keep
// their environment-derived values.
func (c *Config) MergeFile(path string) error {
	b, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := yaml.Unmarshal(b, c); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	return nil
}

// Validate rejects configurations the process must not start with. A redis
// backend without an address is a startup failure, not a degraded mode.
func (c *Config) Validate() error {
	switch c.Backend {
	case BackendJSON, BackendSQLite, BackendMemory:
	case BackendRedis:
		if c.RedisAddr == "" {
			return errors.New("redis backend selected but REDIS_ADDR is not set")
		}
	default:
		return fmt.Errorf("unknown store backend: %q", c.Backend)
	}
	return nil
}

// Addr returns the host:port the HTTP server binds to.
func (c *Config) Addr() string {
	return net.JoinHostPort(c.Host, c.Port)
}
