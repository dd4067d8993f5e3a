package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadAppliesDefaults(t *testing.T) {
	path := writeConfig(t, `
collector:
  qlib_dir: /tmp/qlib
  cache_dir: /tmp/qlib/cache
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Environment != "development" {
		t.Fatalf("environment = %q", cfg.Environment)
	}
	if cfg.Log.Level != "info" || cfg.Log.Format != "console" {
		t.Fatalf("log defaults = %+v", cfg.Log)
	}
	if cfg.Collector.RosterCacheTTL != 4*time.Hour {
		t.Fatalf("roster ttl = %v", cfg.Collector.RosterCacheTTL)
	}
	if cfg.Collector.RetryMax != 5 || cfg.Collector.RetryBackoff != time.Second {
		t.Fatalf("retry defaults = %d %v", cfg.Collector.RetryMax, cfg.Collector.RetryBackoff)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("validate: %v", err)
	}
}

func TestValidateCollectorRequiresQlibDir(t *testing.T) {
	cfg := Default()
	if err := cfg.ValidateCollector(); err == nil {
		t.Fatalf("expected error without qlib_dir")
	}
	cfg.Collector.QlibDir = "/tmp/qlib"
	cfg.Collector.CacheDir = "/tmp/qlib/cache"
	if err := cfg.ValidateCollector(); err != nil {
		t.Fatalf("validate: %v", err)
	}
}

func TestValidateWithoutCollectorDirs(t *testing.T) {
	// The health check method runs off a CSV directory alone, so the
	// base validation must pass with no collector directories set.
	cfg := Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("validate: %v", err)
	}
}

func TestValidateConditionalBackends(t *testing.T) {
	cfg := Default()
	cfg.Collector.QlibDir = "/tmp/qlib"
	cfg.Collector.CacheDir = "/tmp/qlib/cache"

	cfg.Kafka.Brokers = []string{"localhost:9092"}
	if err := cfg.Validate(); err == nil {
		t.Fatalf("expected error for brokers without topic")
	}
	cfg.Kafka.Topic = "tw.index.changes"
	if err := cfg.Validate(); err != nil {
		t.Fatalf("validate kafka: %v", err)
	}
	if !cfg.KafkaEnabled() {
		t.Fatalf("kafka should be enabled")
	}

	cfg.ClickHouse.Host = "localhost"
	if err := cfg.Validate(); err == nil {
		t.Fatalf("expected error for clickhouse host without database")
	}
	cfg.ClickHouse.Database = "twpull"
	if err := cfg.Validate(); err != nil {
		t.Fatalf("validate clickhouse: %v", err)
	}
	if !cfg.ClickHouseEnabled() {
		t.Fatalf("clickhouse should be enabled")
	}
}

func TestLoadWithEnvOverrides(t *testing.T) {
	path := writeConfig(t, `
collector:
  qlib_dir: /tmp/qlib
  cache_dir: /tmp/qlib/cache
`)
	t.Setenv("QLIB_DIR", "/data/qlib")
	t.Setenv("KAFKA_BROKERS", "k1:9092,k2:9092")
	t.Setenv("REDIS_ADDR", "redis:6380")

	cfg, err := LoadWithEnv(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Collector.QlibDir != "/data/qlib" {
		t.Fatalf("qlib_dir = %q", cfg.Collector.QlibDir)
	}
	if len(cfg.Kafka.Brokers) != 2 || cfg.Kafka.Brokers[1] != "k2:9092" {
		t.Fatalf("brokers = %v", cfg.Kafka.Brokers)
	}
	if cfg.Redis.Host != "redis" || cfg.Redis.Port != 6380 {
		t.Fatalf("redis = %s:%d", cfg.Redis.Host, cfg.Redis.Port)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatalf("expected error for missing file")
	}
}
