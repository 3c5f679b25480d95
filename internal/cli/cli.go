// Package cli implements the gauzecut command-line interface.
//
// # Commands
//
//   - run: segment a pattern, search orderings and pins, store both records
//   - segment: print the notches and segments of a pattern
//   - report: export a stored experiment as xlsx and HTML charts
//   - serve: run the HTTP API
//   - config: print the default configuration as TOML
//   - cache: manage the trial cache
//
// # Configuration
//
// Every command that runs trials reads pipeline options from --config (a
// TOML file) when given. Flags override the file. Records go to --store,
// a directory or a mongodb:// URL; trial outcomes are cached on disk or in
// Redis with --cache-url.
//
// # Logging
//
// All commands support --verbose (-v) for debug-level logging, which also
// registers logging observability hooks.
package cli

import (
	"context"
	"io"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/gauzecut/pkg/buildinfo"
	"github.com/matzehuels/gauzecut/pkg/cache"
	"github.com/matzehuels/gauzecut/pkg/experiment"
	"github.com/matzehuels/gauzecut/pkg/pipeline"
)

// =============================================================================
// Constants
// =============================================================================

const (
	// appName is the application name used for directories and display.
	appName = "gauzecut"

	// redisKeyPrefix scopes trial keys in a shared Redis instance.
	redisKeyPrefix = appName + ":"
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

	configPath string
	storeURL   string
	cacheURL   string
	noCache    bool
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{Logger: newLogger(w, level)}
}

// SetLogLevel updates the logger's level. Debug level also turns on the
// logging observability hooks.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
	if level <= log.DebugLevel {
		registerLogHooks(c.Logger)
	}
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   appName,
		Short: "gauzecut finds the cutting order that separates a shape from gauze best",
		Long: `gauzecut simulates cutting a target shape out of a pinned cloth sheet.
It splits the shape's boundary into segments, searches the order in which to cut
them, and searches where to pin the sheet so the shape separates cleanly.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
	}
	root.SetVersionTemplate(buildinfo.Template())

	pf := root.PersistentFlags()
	pf.StringVar(&c.configPath, "config", "", "TOML config file with pipeline options")
	pf.StringVar(&c.storeURL, "store", "", "record store: directory or mongodb:// URL (default ~/.local/share/gauzecut/experiments)")
	pf.StringVar(&c.cacheURL, "cache-url", "", "redis:// URL for the trial cache (default: file cache)")
	pf.BoolVar(&c.noCache, "no-cache", false, "disable the trial cache")

	root.AddCommand(c.runCommand())
	root.AddCommand(c.segmentCommand())
	root.AddCommand(c.reportCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.configCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// =============================================================================
// Runner Factory
// =============================================================================

// newRunner creates a pipeline runner with the configured cache and store.
// The caller must Close it.
func (c *CLI) newRunner(ctx context.Context) (*pipeline.Runner, error) {
	cc, keyer, err := c.newCache(ctx)
	if err != nil {
		return nil, err
	}
	store, err := experiment.Open(ctx, c.storeURL)
	if err != nil {
		cc.Close()
		return nil, err
	}
	return pipeline.NewRunner(cc, keyer, store, c.Logger), nil
}

// newCache opens the Redis cache when --cache-url is set and the file cache
// otherwise. A file cache that cannot be created degrades to no caching.
func (c *CLI) newCache(ctx context.Context) (cache.Cache, cache.Keyer, error) {
	if c.noCache {
		return cache.NewNullCache(), nil, nil
	}
	if c.cacheURL != "" {
		rc, err := cache.NewRedisCache(ctx, c.cacheURL)
		if err != nil {
			return nil, nil, err
		}
		return rc, cache.NewScopedKeyer(nil, redisKeyPrefix), nil
	}
	dir, err := cacheDir()
	if err != nil {
		return c.cacheDisabled(err), nil, nil
	}
	fc, err := cache.NewFileCache(dir)
	if err != nil {
		return c.cacheDisabled(err), nil, nil
	}
	return fc, nil, nil
}

func (c *CLI) cacheDisabled(err error) cache.Cache {
	printWarning("Trial cache disabled: %v", err)
	c.Logger.Debug("trial cache disabled", "error", err)
	return cache.NewNullCache()
}

// loadOptions returns the --config options, or the defaults without one.
func (c *CLI) loadOptions() (pipeline.Options, error) {
	if c.configPath == "" {
		return pipeline.DefaultOptions(), nil
	}
	c.Logger.Debug("loading config", "path", c.configPath)
	return pipeline.LoadOptions(c.configPath)
}

// =============================================================================
// Paths
// =============================================================================

// cacheDir returns the cache directory using XDG standard (~/.cache/gauzecut/).
func cacheDir() (string, error) {
	if cacheHome := os.Getenv("XDG_CACHE_HOME"); cacheHome != "" {
		return filepath.Join(cacheHome, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".cache", appName), nil
}
