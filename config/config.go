// Package config provides configuration loading for the bindl packages.
// Supports YAML files with environment variable overrides.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config holds configuration for the whole bundle. Each wrapper reads its own
// section; unused sections can stay at their zero value.
type Config struct {
	Exporter      ExporterConfig      `yaml:"exporter"`
	Cache         CacheConfig         `yaml:"cache"`
	Queue         QueueConfig         `yaml:"queue"`
	ObjectStore   ObjectStoreConfig   `yaml:"objectStore"`
	Observability ObservabilityConfig `yaml:"observability"`
}

// ExporterConfig configures the metrics exporter.
type ExporterConfig struct {
	// ListenAddr is the scrape endpoint address. Empty disables the server.
	ListenAddr string `yaml:"listenAddr" env:"BINDL_METRICS_ADDR"`
}

// CacheConfig configures the embedded cache.
type CacheConfig struct {
	Dir        string `yaml:"dir" env:"BINDL_CACHE_DIR"`
	InMemory   bool   `yaml:"inMemory" env:"BINDL_CACHE_IN_MEMORY"`
	SyncWrites bool   `yaml:"syncWrites" env:"BINDL_CACHE_SYNC_WRITES"`
}

// QueueConfig configures the queue publisher and consumer.
type QueueConfig struct {
	Brokers  []string `yaml:"brokers" env:"BINDL_QUEUE_BROKERS"`
	ClientID string   `yaml:"clientId" env:"BINDL_QUEUE_CLIENT_ID"`
	Group    string   `yaml:"group" env:"BINDL_QUEUE_GROUP"`
}

// ObjectStoreConfig configures the S3-compatible object store.
type ObjectStoreConfig struct {
	Endpoint     string `yaml:"endpoint" env:"BINDL_S3_ENDPOINT"`
	Bucket       string `yaml:"bucket" env:"BINDL_S3_BUCKET"`
	Region       string `yaml:"region" env:"BINDL_S3_REGION"`
	AccessKey    string `yaml:"accessKey" env:"BINDL_S3_ACCESS_KEY"`
	SecretKey    string `yaml:"secretKey" env:"BINDL_S3_SECRET_KEY"`
	UsePathStyle bool   `yaml:"usePathStyle" env:"BINDL_S3_PATH_STYLE"`
}

// ObservabilityConfig configures logging.
type ObservabilityConfig struct {
	LogLevel  string `yaml:"logLevel" env:"BINDL_LOG_LEVEL"`
	LogFormat string `yaml:"logFormat" env:"BINDL_LOG_FORMAT"`
}

// Default returns a Config with sensible defaults.
func Default() *Config {
	return &Config{
		Exporter: ExporterConfig{
			ListenAddr: ":9090",
		},
		Cache: CacheConfig{
			Dir: "/var/lib/bindl/cache",
		},
		Queue: QueueConfig{
			ClientID: "bindl",
			Group:    "bindl",
		},
		ObjectStore: ObjectStoreConfig{
			Region: "us-east-1",
		},
		Observability: ObservabilityConfig{
			LogLevel:  "info",
			LogFormat: "json",
		},
	}
}

// Load returns the default configuration with environment overrides applied.
func Load() (*Config, error) {
	cfg := Default()
	cfg.applyEnv()
	return cfg, nil
}

// LoadFromPath reads a YAML configuration file, layers it over the defaults
// and applies environment overrides on top.
func LoadFromPath(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}
	cfg.applyEnv()
	return cfg, nil
}

// applyEnv overrides fields from the BINDL_* environment variables declared in
// the struct tags above. Precedence: env > file > defaults.
func (c *Config) applyEnv() {
	envString("BINDL_METRICS_ADDR", &c.Exporter.ListenAddr)
	envString("BINDL_CACHE_DIR", &c.Cache.Dir)
	envBool("BINDL_CACHE_IN_MEMORY", &c.Cache.InMemory)
	envBool("BINDL_CACHE_SYNC_WRITES", &c.Cache.SyncWrites)
	envStrings("BINDL_QUEUE_BROKERS", &c.Queue.Brokers)
	envString("BINDL_QUEUE_CLIENT_ID", &c.Queue.ClientID)
	envString("BINDL_QUEUE_GROUP", &c.Queue.Group)
	envString("BINDL_S3_ENDPOINT", &c.ObjectStore.Endpoint)
	envString("BINDL_S3_BUCKET", &c.ObjectStore.Bucket)
	envString("BINDL_S3_REGION", &c.ObjectStore.Region)
	envString("BINDL_S3_ACCESS_KEY", &c.ObjectStore.AccessKey)
	envString("BINDL_S3_SECRET_KEY", &c.ObjectStore.SecretKey)
	envBool("BINDL_S3_PATH_STYLE", &c.ObjectStore.UsePathStyle)
	envString("BINDL_LOG_LEVEL", &c.Observability.LogLevel)
	envString("BINDL_LOG_FORMAT", &c.Observability.LogFormat)
}

func envString(key string, dst *string) {
	if v, ok := os.LookupEnv(key); ok {
		*dst = v
	}
}

func envBool(key string, dst *bool) {
	if v, ok := os.LookupEnv(key); ok {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}

func envStrings(key string, dst *[]string) {
	if v, ok := os.LookupEnv(key); ok {
		parts := strings.Split(v, ",")
		out := parts[:0]
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				out = append(out, p)
			}
		}
		*dst = out
	}
}
