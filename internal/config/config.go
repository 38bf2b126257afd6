package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds every setting of the CLI and the server. Values come from
// defaults, then an optional YAML file, then the environment.
type Config struct {
	Tolerance float64 `yaml:"tolerance"`
	Workers   int     `yaml:"workers"`
	LogLevel  string  `yaml:"log_level"`

	HTTP  HTTPConfig  `yaml:"http"`
	Store StoreConfig `yaml:"store"`
}

type HTTPConfig struct {
	Addr         string        `yaml:"addr"`
	MaxBodyBytes int64         `yaml:"max_body_bytes"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
}

type StoreConfig struct {
	DatabaseURL string        `yaml:"database_url"`
	RedisURL    string        `yaml:"redis_url"`
	CacheTTL    time.Duration `yaml:"cache_ttl"`
}

func Default() Config {
	return Config{
		Tolerance: 0.01,
		Workers:   4,
		LogLevel:  "info",
		HTTP: HTTPConfig{
			Addr:         ":8080",
			MaxBodyBytes: 16 << 20,
			WriteTimeout: 60 * time.Second,
		},
		Store: StoreConfig{CacheTTL: 24 * time.Hour},
	}
}

// Get returns the environment value of key, or fallback when unset.
func Get(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

// Load builds the configuration. path may be empty.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("load config: read %q: %w", path, err)
		}
		if err := yaml.Unmarshal(b, &cfg); err != nil {
			return cfg, fmt.Errorf("load config: parse %q: %w", path, err)
		}
	}

	if err := applyEnv(&cfg); err != nil {
		return cfg, fmt.Errorf("load config: %w", err)
	}
	if cfg.Tolerance <= 0 {
		return cfg, fmt.Errorf("load config: tolerance must be positive, got %v", cfg.Tolerance)
	}
	if cfg.Workers < 0 {
		return cfg, fmt.Errorf("load config: workers must not be negative, got %d", cfg.Workers)
	}
	return cfg, nil
}

func applyEnv(cfg *Config) error {
	if v := Get("MPVRP_TOLERANCE", ""); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("MPVRP_TOLERANCE: %w", err)
		}
		cfg.Tolerance = f
	}
	if v := Get("MPVRP_WORKERS", ""); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("MPVRP_WORKERS: %w", err)
		}
		cfg.Workers = n
	}
	if v := Get("PORT", ""); v != "" {
		cfg.HTTP.Addr = ":" + v
	}
	if v := Get("CACHE_TTL", ""); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("CACHE_TTL: %w", err)
		}
		cfg.Store.CacheTTL = d
	}
	cfg.LogLevel = Get("LOG_LEVEL", cfg.LogLevel)
	cfg.Store.DatabaseURL = Get("DATABASE_URL", cfg.Store.DatabaseURL)
	cfg.Store.RedisURL = Get("REDIS_URL", cfg.Store.RedisURL)
	return nil
}
