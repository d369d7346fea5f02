package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	cfg := Default()

	if cfg.Exporter.ListenAddr != ":9090" {
		t.Errorf("expected default metrics addr :9090, got %s", cfg.Exporter.ListenAddr)
	}

	if cfg.Observability.LogLevel != "info" {
		t.Errorf("expected default log level info, got %s", cfg.Observability.LogLevel)
	}

	if cfg.ObjectStore.Region != "us-east-1" {
		t.Errorf("expected default region us-east-1, got %s", cfg.ObjectStore.Region)
	}

	if cfg.Queue.ClientID != "bindl" {
		t.Errorf("expected default client id bindl, got %s", cfg.Queue.ClientID)
	}
}

func TestLoadFromPath(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bindl.yaml")
	data := `
exporter:
  listenAddr: ":8081"
cache:
  inMemory: true
queue:
  brokers: ["kafka-1:9092", "kafka-2:9092"]
objectStore:
  bucket: artifacts
observability:
  logLevel: debug
`
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("LoadFromPath failed: %v", err)
	}

	if cfg.Exporter.ListenAddr != ":8081" {
		t.Errorf("listen addr = %s, want :8081", cfg.Exporter.ListenAddr)
	}
	if !cfg.Cache.InMemory {
		t.Error("expected inMemory cache")
	}
	if len(cfg.Queue.Brokers) != 2 || cfg.Queue.Brokers[0] != "kafka-1:9092" {
		t.Errorf("brokers = %v", cfg.Queue.Brokers)
	}
	if cfg.ObjectStore.Bucket != "artifacts" {
		t.Errorf("bucket = %s, want artifacts", cfg.ObjectStore.Bucket)
	}
	if cfg.Observability.LogLevel != "debug" {
		t.Errorf("log level = %s, want debug", cfg.Observability.LogLevel)
	}

	// Unset fields keep defaults.
	if cfg.ObjectStore.Region != "us-east-1" {
		t.Errorf("region = %s, want default us-east-1", cfg.ObjectStore.Region)
	}
}

func TestLoadFromPathMissingFile(t *testing.T) {
	if _, err := LoadFromPath(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("BINDL_METRICS_ADDR", ":7070")
	t.Setenv("BINDL_QUEUE_BROKERS", "a:9092, b:9092")
	t.Setenv("BINDL_CACHE_IN_MEMORY", "true")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Exporter.ListenAddr != ":7070" {
		t.Errorf("listen addr = %s, want :7070", cfg.Exporter.ListenAddr)
	}
	if len(cfg.Queue.Brokers) != 2 || cfg.Queue.Brokers[1] != "b:9092" {
		t.Errorf("brokers = %v", cfg.Queue.Brokers)
	}
	if !cfg.Cache.InMemory {
		t.Error("expected inMemory cache from env")
	}
}
