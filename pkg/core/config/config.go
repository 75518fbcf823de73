// Package config loads server and CLI settings: .env, then config/server.yaml,
// then environment overrides.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v2"
)

// DefaultPath is used when neither an explicit path nor DCF_CONFIG is set.
const DefaultPath = "config/server.yaml"

type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Engine     EngineConfig     `yaml:"engine"`
	Store      StoreConfig      `yaml:"store"`
	Log        LogConfig        `yaml:"log"`
	RateLimit  RateLimitConfig  `yaml:"rateLimit"`
	Cache      CacheConfig      `yaml:"cache"`
	MonteCarlo MonteCarloConfig `yaml:"monteCarlo"`
}

type ServerConfig struct {
	Port           string        `yaml:"port"`
	RequestTimeout time.Duration `yaml:"requestTimeout"`
	MaxBodyBytes   int64         `yaml:"maxBodyBytes"`
}

type EngineConfig struct {
	// Kind is "fast" or "exact".
	Kind          string `yaml:"kind"`
	AllowFallback bool   `yaml:"allowFallback"`
	SkipSelfCheck bool   `yaml:"skipSelfCheck"`
}

type StoreConfig struct {
	DatabaseURL string `yaml:"databaseUrl"`
	CaseDir     string `yaml:"caseDir"`
}

type LogConfig struct {
	Level   string `yaml:"level"`
	Console bool   `yaml:"console"`
}

type RateLimitConfig struct {
	RequestsPerSecond float64 `yaml:"requestsPerSecond"`
	Burst             int     `yaml:"burst"`
}

type CacheConfig struct {
	TTL     time.Duration `yaml:"ttl"`
	Cleanup time.Duration `yaml:"cleanup"`
}

type MonteCarloConfig struct {
	// Workers <= 0 means GOMAXPROCS.
	Workers int `yaml:"workers"`
}

// Default returns the built-in settings.
func Default() Config {
	return Config{
		Server: ServerConfig{
			Port:           "8080",
			RequestTimeout: 60 * time.Second,
			MaxBodyBytes:   10 << 20,
		},
		Engine:    EngineConfig{Kind: "fast", AllowFallback: true},
		Store:     StoreConfig{CaseDir: ".cache/cases"},
		Log:       LogConfig{Level: "info"},
		RateLimit: RateLimitConfig{RequestsPerSecond: 10, Burst: 30},
		Cache:     CacheConfig{TTL: 15 * time.Minute, Cleanup: 30 * time.Minute},
	}
}

// Load reads .env (if present) and the YAML file at path, then applies
// environment overrides. An empty path means DCF_CONFIG or DefaultPath; a
// missing file is not an error.
func Load(path string) (Config, error) {
	godotenv.Load()

	if path == "" {
		path = os.Getenv("DCF_CONFIG")
	}
	if path == "" {
		path = DefaultPath
	}

	cfg := Default()
	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		return Config{}, fmt.Errorf("read config %s: %w", path, err)
	default:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	if err := cfg.applyEnv(os.Getenv); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) applyEnv(getenv func(string) string) error {
	if v := getenv("PORT"); v != "" {
		c.Server.Port = v
	}
	if v := getenv("DATABASE_URL"); v != "" {
		c.Store.DatabaseURL = v
	}
	if v := getenv("DCF_CASE_DIR"); v != "" {
		c.Store.CaseDir = v
	}
	if v := getenv("DCF_ENGINE"); v != "" {
		c.Engine.Kind = v
	}
	if v := getenv("LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
	if getenv("ENV") == "development" {
		c.Log.Console = true
	}
	if v := getenv("DCF_MC_WORKERS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid DCF_MC_WORKERS %q: %w", v, err)
		}
		c.MonteCarlo.Workers = n
	}
	return nil
}
