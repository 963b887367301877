package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/knadh/koanf"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
)

const (
	EnvPrefix       = "CASEFLOW_"
	EnvDelimiter    = "__"
	ConfigDelimiter = "."
)

type Config struct {
	Log       LogConfig       `koanf:"log"`
	Server    ServerConfig    `koanf:"server"`
	Store     StoreConfig     `koanf:"store"`
	Engine    EngineConfig    `koanf:"engine"`
	Templates TemplatesConfig `koanf:"templates"`
	RateLimit RateLimitConfig `koanf:"rate_limit"`
	Telemetry TelemetryConfig `koanf:"telemetry"`
}

type LogConfig struct {
	Level  string `koanf:"level"`
	Pretty bool   `koanf:"pretty"`
}

type ServerConfig struct {
	Addr            string        `koanf:"addr"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
}

type StoreConfig struct {
	// Driver is one of memory, sqlite, postgres, badger.
	Driver    string        `koanf:"driver"`
	DSN       string        `koanf:"dsn"`
	Schema    string        `koanf:"schema"`
	Dir       string        `koanf:"dir"`
	CacheSize int64         `koanf:"cache_size"`
	CacheTTL  time.Duration `koanf:"cache_ttl"`
}

type EngineConfig struct {
	MaxParallelSteps int           `koanf:"max_parallel_steps"`
	Retention        time.Duration `koanf:"retention"`
	CleanupInterval  time.Duration `koanf:"cleanup_interval"`
}

type TemplatesConfig struct {
	Path string `koanf:"path"`
}

type RateLimitConfig struct {
	PerSecond float64 `koanf:"per_second"`
	Burst     int     `koanf:"burst"`
	Wait      bool    `koanf:"wait"`
}

type TelemetryConfig struct {
	Endpoint    string `koanf:"endpoint"`
	Insecure    bool   `koanf:"insecure"`
	ServiceName string `koanf:"service_name"`
}

func defaults() map[string]any {
	return map[string]any{
		"log.level":                 "info",
		"log.pretty":                false,
		"server.addr":               ":8080",
		"server.shutdown_timeout":   "30s",
		"store.driver":              "memory",
		"store.schema":              "caseflow",
		"store.cache_size":          10000,
		"store.cache_ttl":           "10m",
		"engine.max_parallel_steps": 10,
		"engine.retention":          "1h",
		"engine.cleanup_interval":   "1m",
		"rate_limit.burst":          1,
		"telemetry.service_name":    "caseflow",
	}
}

// LoadConfig merges defaults, the optional YAML file at path and CASEFLOW_*
// environment variables, in that order. Nested keys in env use "__", for
// example CASEFLOW_STORE__DRIVER=postgres.
func LoadConfig(path string) (*Config, error) {
	k := koanf.New(ConfigDelimiter)

	if err := k.Load(confmap.Provider(defaults(), ConfigDelimiter), nil); err != nil {
		return nil, fmt.Errorf("load defaults: %w", err)
	}

	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("load config file %s: %w", path, err)
		}
	}

	err := k.Load(env.Provider(EnvPrefix, ConfigDelimiter, func(key string) string {
		key = strings.ToLower(strings.TrimPrefix(key, EnvPrefix))

		return strings.ReplaceAll(key, strings.ToLower(EnvDelimiter), ConfigDelimiter)
	}), nil)
	if err != nil {
		return nil, fmt.Errorf("load env: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) validate() error {
	switch c.Store.Driver {
	case "memory", "sqlite", "badger":
	case "postgres":
		if c.Store.DSN == "" {
			return fmt.Errorf("store.dsn is required for the postgres driver")
		}
	default:
		return fmt.Errorf("unknown store driver %q", c.Store.Driver)
	}

	if c.Engine.MaxParallelSteps < 1 {
		return fmt.Errorf("engine.max_parallel_steps must be positive")
	}

	return nil
}
