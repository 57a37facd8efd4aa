package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		EnvConfigPath, "LOG_MODE", "LOG_LEVEL", "RAILNET_DB_DRIVER", "RAILNET_DB_DSN",
		"REDIS_ADDR", "REDIS_EDGE_TTL", "NEO4J_URI", "OTEL_ENABLED", "OTEL_EXPORTER_OTLP_HEADERS",
	} {
		t.Setenv(k, "")
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.Database.Driver != "sqlite" || cfg.Database.DSN == "" {
		t.Fatalf("unexpected database defaults: %+v", cfg.Database)
	}
	if cfg.Log.Mode != "development" || cfg.Metrics.Namespace != "railnet" || cfg.Otel.SampleRatio != 1 {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
	if cfg.Redis.Addr != "" || cfg.Neo4j.URI != "" {
		t.Fatalf("optional backends must default to disabled")
	}
}

func TestLoadFromPathAppliesEnvOverDefaults(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	path := filepath.Join(dir, "railnet.yaml")
	body := `
log:
  level: info
database:
  driver: postgres
  dsn: postgres://file
redis:
  addr: cache:6379
  ttl: 90s
otel:
  headers: "a=1,b=2"
`
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("RAILNET_DB_DSN", "postgres://env")

	cfg, got, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("LoadFromPath: %v", err)
	}
	if got != path {
		t.Fatalf("path: want %s got %s", path, got)
	}
	if cfg.Database.Driver != "postgres" || cfg.Database.DSN != "postgres://env" {
		t.Fatalf("database: %+v", cfg.Database)
	}
	if cfg.Redis.Addr != "cache:6379" || cfg.Redis.TTL != 90*time.Second {
		t.Fatalf("redis: %+v", cfg.Redis)
	}
	if cfg.Log.Level != "info" || cfg.Log.Mode != "development" {
		t.Fatalf("log: %+v", cfg.Log)
	}
	if h := cfg.OtelOptions().Headers; len(h) != 2 || h["b"] != "2" {
		t.Fatalf("otel headers: %+v", h)
	}
	if opts := cfg.DBOptions(); opts.Driver != "postgres" || opts.DSN != "postgres://env" {
		t.Fatalf("db options: %+v", opts)
	}
}

func TestLoadUsesEnvPath(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	path := filepath.Join(dir, "custom.yaml")
	if err := os.WriteFile(path, []byte("neo4j:\n  uri: bolt://graph:7687\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv(EnvConfigPath, path)

	cfg, got, err := Load()
	if err != nil || got != path {
		t.Fatalf("Load: path=%s err=%v", got, err)
	}
	if cfg.Neo4j.URI != "bolt://graph:7687" {
		t.Fatalf("neo4j uri: %+v", cfg.Neo4j)
	}
}

func TestLoadFromPathRejectsBadYAML(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(path, []byte("database: [unterminated"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, _, err := LoadFromPath(path); err == nil {
		t.Fatalf("expected parse error")
	}
}
