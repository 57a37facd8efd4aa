// Package config loads railnet settings.
//
// Config file locations (priority order):
//  1. $RAILNET_CONFIG
//  2. ./railnet.yaml
//
// Environment variables override file values; defaults fill whatever is left.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/rushhourgame/railnet/internal/clients/redis"
	"github.com/rushhourgame/railnet/internal/data/db"
	"github.com/rushhourgame/railnet/internal/observability"
	"github.com/rushhourgame/railnet/internal/platform/envutil"
	"github.com/rushhourgame/railnet/internal/platform/neo4jdb"
)

const (
	EnvConfigPath  = "RAILNET_CONFIG"
	ConfigFileName = "railnet.yaml"
)

type Config struct {
	Log      LogConfig      `yaml:"log"`
	Database DatabaseConfig `yaml:"database"`
	Redis    redis.Config   `yaml:"redis"`
	Neo4j    neo4jdb.Config `yaml:"neo4j"`
	Otel     OtelConfig     `yaml:"otel"`
	Metrics  MetricsConfig  `yaml:"metrics"`
}

type LogConfig struct {
	// Mode is prod, test or development.
	Mode  string `yaml:"mode"`
	Level string `yaml:"level"`
}

type DatabaseConfig struct {
	Driver          string        `yaml:"driver"`
	DSN             string        `yaml:"dsn"`
	MaxOpenConns    int           `yaml:"max_open_conns"`
	MaxIdleConns    int           `yaml:"max_idle_conns"`
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime"`
	SlowThreshold   time.Duration `yaml:"slow_threshold"`
	LogLevel        string        `yaml:"log_level"`
}

type OtelConfig struct {
	Enabled     bool    `yaml:"enabled"`
	ServiceName string  `yaml:"service_name"`
	Environment string  `yaml:"environment"`
	Endpoint    string  `yaml:"endpoint"`
	Headers     string  `yaml:"headers"`
	Insecure    bool    `yaml:"insecure"`
	SampleRatio float64 `yaml:"sample_ratio"`
}

type MetricsConfig struct {
	Namespace string `yaml:"namespace"`
}

// Load finds the config file, applies env overrides and defaults. The returned path is empty
// when no file was found.
func Load() (*Config, string, error) {
	path := FindConfigPath()
	if path == "" {
		cfg := &Config{}
		cfg.applyEnv()
		cfg.applyDefaults()
		return cfg, "", nil
	}
	return LoadFromPath(path)
}

func LoadFromPath(path string) (*Config, string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, path, fmt.Errorf("read config: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, path, fmt.Errorf("parse config: %w", err)
	}
	cfg.applyEnv()
	cfg.applyDefaults()
	return &cfg, path, nil
}

func DefaultConfig() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

func FindConfigPath() string {
	if path := strings.TrimSpace(os.Getenv(EnvConfigPath)); path != "" && fileExists(path) {
		return path
	}
	if fileExists(ConfigFileName) {
		return ConfigFileName
	}
	return ""
}

func (c *Config) applyEnv() {
	c.Log.Mode = envutil.String("LOG_MODE", c.Log.Mode)
	c.Log.Level = envutil.String("LOG_LEVEL", c.Log.Level)

	c.Database.Driver = envutil.String("RAILNET_DB_DRIVER", c.Database.Driver)
	c.Database.DSN = envutil.String("RAILNET_DB_DSN", c.Database.DSN)
	c.Database.MaxOpenConns = envutil.Int("RAILNET_DB_MAX_OPEN_CONNS", c.Database.MaxOpenConns)
	c.Database.LogLevel = envutil.String("RAILNET_DB_LOG_LEVEL", c.Database.LogLevel)

	c.Redis.Addr = envutil.String("REDIS_ADDR", c.Redis.Addr)
	c.Redis.Password = envutil.String("REDIS_PASSWORD", c.Redis.Password)
	c.Redis.TTL = envutil.Duration("REDIS_EDGE_TTL", c.Redis.TTL)

	c.Neo4j.URI = envutil.String("NEO4J_URI", c.Neo4j.URI)
	c.Neo4j.User = envutil.String("NEO4J_USER", c.Neo4j.User)
	c.Neo4j.Password = envutil.String("NEO4J_PASSWORD", c.Neo4j.Password)
	c.Neo4j.Database = envutil.String("NEO4J_DATABASE", c.Neo4j.Database)
	c.Neo4j.Timeout = envutil.Duration("NEO4J_TIMEOUT_SECONDS", c.Neo4j.Timeout)
	c.Neo4j.MaxPoolSize = envutil.Int("NEO4J_MAX_POOL_SIZE", c.Neo4j.MaxPoolSize)

	c.Otel.Enabled = envutil.Bool("OTEL_ENABLED", c.Otel.Enabled)
	c.Otel.ServiceName = envutil.String("OTEL_SERVICE_NAME", c.Otel.ServiceName)
	c.Otel.Endpoint = envutil.String("OTEL_EXPORTER_OTLP_ENDPOINT", c.Otel.Endpoint)
	c.Otel.Headers = envutil.String("OTEL_EXPORTER_OTLP_HEADERS", c.Otel.Headers)
	c.Otel.Insecure = envutil.Bool("OTEL_EXPORTER_OTLP_INSECURE", c.Otel.Insecure)
}

func (c *Config) applyDefaults() {
	if c.Log.Mode == "" {
		c.Log.Mode = "development"
	}
	if c.Database.Driver == "" {
		c.Database.Driver = db.DriverSQLite
	}
	if c.Database.DSN == "" && c.Database.Driver == db.DriverSQLite {
		c.Database.DSN = "file:railnet.db?_foreign_keys=on"
	}
	if c.Database.LogLevel == "" {
		c.Database.LogLevel = "warn"
	}
	if c.Otel.ServiceName == "" {
		c.Otel.ServiceName = "railnet"
	}
	if c.Otel.SampleRatio == 0 {
		c.Otel.SampleRatio = 1
	}
	if c.Metrics.Namespace == "" {
		c.Metrics.Namespace = "railnet"
	}
}

func (c *Config) DBOptions() db.Options {
	return db.Options{
		Driver:          c.Database.Driver,
		DSN:             c.Database.DSN,
		MaxOpenConns:    c.Database.MaxOpenConns,
		MaxIdleConns:    c.Database.MaxIdleConns,
		ConnMaxLifetime: c.Database.ConnMaxLifetime,
		SlowThreshold:   c.Database.SlowThreshold,
		LogLevel:        c.Database.LogLevel,
	}
}

func (c *Config) OtelOptions() observability.OtelConfig {
	return observability.OtelConfig{
		Enabled:     c.Otel.Enabled,
		ServiceName: c.Otel.ServiceName,
		Environment: c.Otel.Environment,
		Endpoint:    c.Otel.Endpoint,
		Headers:     observability.ParseHeaders(c.Otel.Headers),
		Insecure:    c.Otel.Insecure,
		SampleRatio: c.Otel.SampleRatio,
	}
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
