package cli

import (
	"context"
	"io"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/depweight/pkg/buildinfo"
	"github.com/matzehuels/depweight/pkg/cache"
	"github.com/matzehuels/depweight/pkg/config"
	"github.com/matzehuels/depweight/pkg/errors"
	"github.com/matzehuels/depweight/pkg/reportstore"
)

// =============================================================================
// Constants
// =============================================================================

const (
	// appName is the application name used for directories and display.
	appName = "depweight"

	// runsDir is the FileStore directory under the cache dir.
	runsDir = "runs"
)

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger

	// configPath is bound to the persistent --config flag.
	configPath string
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{Logger: newLogger(w, level)}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:          appName,
		Short:        "depweight measures what each Rust dependency costs",
		Long:         `depweight reports, for every direct dependency of a Cargo workspace, its own size, its unsafe-code usage, and the weight of the transitive dependencies it brings in alone.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
	}

	root.SetVersionTemplate(buildinfo.Template())
	root.PersistentFlags().StringVar(&c.configPath, "config", "", "config file (default ./"+config.DefaultFile+" if present)")

	root.AddCommand(c.analyzeCommand())
	root.AddCommand(c.runsCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// =============================================================================
// Configuration
// =============================================================================

// loadConfig reads the config file and applies the environment on top.
// Flags are applied by each command afterwards.
func (c *CLI) loadConfig() (config.Config, error) {
	cfg, err := config.Load(c.configPath)
	if err != nil {
		return config.Config{}, err
	}
	if err := cfg.ApplyEnv(); err != nil {
		return config.Config{}, err
	}
	c.Logger.Debug("loaded config", "file", c.configPath, "cache_dir", cfg.CacheDir, "redis", cfg.Redis.Addr)
	return cfg, nil
}

// =============================================================================
// Backends
// =============================================================================

// newCache selects the persistent line-count cache: none, Redis when an
// address is configured, or files under the cache dir.
func (c *CLI) newCache(ctx context.Context, cfg config.Config, noCache bool) (cache.Cache, error) {
	if noCache {
		return cache.NewNullCache(), nil
	}
	if cfg.Redis.Addr != "" {
		rc, err := cache.NewRedisCache(ctx, cfg.Redis.Addr, cfg.Redis.Prefix)
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeIO, err, "connect to redis at %s", cfg.Redis.Addr)
		}
		c.Logger.Debug("using redis cache", "addr", cfg.Redis.Addr)
		return rc, nil
	}
	dir, err := cacheDir(cfg)
	if err != nil {
		c.Logger.Warn("no cache directory, caching disabled", "err", err)
		return cache.NewNullCache(), nil
	}
	return cache.NewFileCache(filepath.Join(dir, "loc"))
}

// openStore opens the report store named by the config.
func (c *CLI) openStore(ctx context.Context, cfg config.Config) (reportstore.Store, error) {
	if cfg.Store.IsMongo() {
		c.Logger.Debug("using mongo store", "database", cfg.Store.Database)
		return reportstore.NewMongoStore(ctx, cfg.Store.URI, cfg.Store.Database)
	}
	dir := cfg.Store.URI
	if dir == "" {
		base, err := cacheDir(cfg)
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeIO, err, "locate run store")
		}
		dir = filepath.Join(base, runsDir)
	}
	return reportstore.NewFileStore(dir)
}

// =============================================================================
// Paths
// =============================================================================

// cacheDir returns the configured cache dir, or the XDG default
// (~/.cache/depweight/).
func cacheDir(cfg config.Config) (string, error) {
	if cfg.CacheDir != "" {
		return cfg.CacheDir, nil
	}
	if cacheHome := os.Getenv("XDG_CACHE_HOME"); cacheHome != "" {
		return filepath.Join(cacheHome, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".cache", appName), nil
}
