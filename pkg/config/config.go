// Package config loads depweight settings.
//
// Settings come from three layers, later layers overriding earlier ones:
//
//  1. Built-in defaults ([Default])
//  2. A TOML file, depweight.toml by default ([Load])
//  3. Environment variables, with a .env file in the working directory
//     loaded first ([Config.ApplyEnv])
//
// Command-line flags override all three; the CLI applies them last.
//
// Example file:
//
//	cache_dir = "/var/cache/depweight"
//	cache_ttl = "720h"
//
//	[analysis]
//	concurrency = 8
//	scanner_timeout = "10m"
//
//	[redis]
//	addr = "localhost:6379"
//
//	[store]
//	uri = "mongodb://localhost:27017"
//	database = "depweight"
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"

	"github.com/matzehuels/depweight/pkg/errors"
)

// DefaultFile is the configuration file looked up in the working directory.
const DefaultFile = "depweight.toml"

// Environment variables read by ApplyEnv.
const (
	EnvCacheDir    = "DEPWEIGHT_CACHE_DIR"
	EnvRedisAddr   = "DEPWEIGHT_REDIS_ADDR"
	EnvStore       = "DEPWEIGHT_STORE"
	EnvConcurrency = "DEPWEIGHT_CONCURRENCY"
	EnvServerAddr  = "DEPWEIGHT_ADDR"
)

// Config holds every setting.
type Config struct {
	// CacheDir holds the persistent line-count cache and, unless
	// Store.URI says otherwise, stored runs. Empty selects the XDG cache dir.
	CacheDir string         `toml:"cache_dir"`
	// CacheTTL bounds how long persisted line counts are trusted. Zero
	// selects the cache package default.
	CacheTTL Duration       `toml:"cache_ttl"`
	Analysis AnalysisConfig `toml:"analysis"`
	Redis    RedisConfig    `toml:"redis"`
	Store    StoreConfig    `toml:"store"`
	Server   ServerConfig   `toml:"server"`
}

// AnalysisConfig holds analysis defaults.
type AnalysisConfig struct {
	Concurrency     int      `toml:"concurrency"`
	AllDependencies bool     `toml:"all_dependencies"`
	SkipUnsafe      bool     `toml:"skip_unsafe"`
	ScannerTimeout  Duration `toml:"scanner_timeout"`
}

// RedisConfig selects a shared Redis line-count cache. Empty Addr disables it.
type RedisConfig struct {
	Addr   string `toml:"addr"`
	Prefix string `toml:"prefix"`
}

// StoreConfig selects where analysis runs are stored.
type StoreConfig struct {
	// URI is a directory path or a mongodb:// URI. Empty selects
	// <cache dir>/runs.
	URI      string `toml:"uri"`
	Database string `toml:"database"`
}

// IsMongo reports whether the store URI names a MongoDB deployment.
func (s StoreConfig) IsMongo() bool {
	return strings.HasPrefix(s.URI, "mongodb://") || strings.HasPrefix(s.URI, "mongodb+srv://")
}

// ServerConfig holds API server settings.
type ServerConfig struct {
	Addr string `toml:"addr"`
	// RunCacheSize bounds how many decoded runs the server keeps in memory.
	RunCacheSize int `toml:"run_cache_size"`
}

// Duration is a time.Duration written as a string ("90s", "10m") in TOML.
type Duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Store:  StoreConfig{Database: "depweight"},
		Server: ServerConfig{Addr: ":8080", RunCacheSize: 128},
	}
}

// Load reads path over the defaults. An empty path reads DefaultFile if it
// exists; an explicit path must exist.
func Load(path string) (Config, error) {
	cfg := Default()
	explicit := path != ""
	if !explicit {
		path = DefaultFile
	}

	md, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		if !explicit && os.IsNotExist(err) {
			return cfg, nil
		}
		return Config{}, errors.Wrap(errors.ErrCodeInvalidConfig, err, "load %s", path)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return Config{}, errors.New(errors.ErrCodeInvalidConfig, "%s: unknown key %q", path, undecoded[0].String())
	}
	return cfg, cfg.Validate()
}

// ApplyEnv loads .env from the working directory, if present, and
// overrides settings from the environment.
func (c *Config) ApplyEnv() error {
	_ = godotenv.Load()

	if v := os.Getenv(EnvCacheDir); v != "" {
		c.CacheDir = v
	}
	if v := os.Getenv(EnvRedisAddr); v != "" {
		c.Redis.Addr = v
	}
	if v := os.Getenv(EnvStore); v != "" {
		c.Store.URI = v
	}
	if v := os.Getenv(EnvServerAddr); v != "" {
		c.Server.Addr = v
	}
	if v := os.Getenv(EnvConcurrency); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return errors.Wrap(errors.ErrCodeInvalidConfig, err, "%s", EnvConcurrency)
		}
		c.Analysis.Concurrency = n
	}
	return c.Validate()
}

// Validate checks value ranges.
func (c Config) Validate() error {
	if c.Analysis.Concurrency < 0 {
		return errors.New(errors.ErrCodeInvalidConfig, "analysis.concurrency must not be negative")
	}
	if c.Analysis.ScannerTimeout.Duration < 0 {
		return errors.New(errors.ErrCodeInvalidConfig, "analysis.scanner_timeout must not be negative")
	}
	if c.CacheTTL.Duration < 0 {
		return errors.New(errors.ErrCodeInvalidConfig, "cache_ttl must not be negative")
	}
	if c.Server.RunCacheSize < 0 {
		return errors.New(errors.ErrCodeInvalidConfig, "server.run_cache_size must not be negative")
	}
	return nil
}

// String renders the configuration as TOML.
func (c Config) String() string {
	var b strings.Builder
	if err := toml.NewEncoder(&b).Encode(c); err != nil {
		return fmt.Sprintf("config: %v", err)
	}
	return b.String()
}
