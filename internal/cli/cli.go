// Package cli implements the definekit command-line interface.
//
// The commands bind Define-XML documents, import metadata workbooks,
// convert between the two, report diagnostics, draw analysis results
// lineage and run the HTTP API. They all go through [pipeline.Runner], so
// the CLI and the server produce the same bytes for the same input.
//
// # Commands
//
//   - bind: Define-XML to workbook
//   - import: workbook to Define-XML
//   - convert: either direction, with optional archiving
//   - check: diagnostics only, with an interactive browser (-i)
//   - lineage: analysis results lineage as DOT or SVG
//   - archive: list, fetch and remove archived defines
//   - serve: the HTTP API
//   - cache: clear or locate the result cache
//   - version, completion
//
// # Configuration
//
// Settings come from definekit.toml in the working directory, or from the
// file named by --config. Flags override the file.
//
// # Logging
//
// All commands support --verbose (-v) for debug-level logging. The logger
// is attached to the command context and retrieved with loggerFromContext.
package cli

import (
	"context"
	"io"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/definekit/internal/config"
	"github.com/matzehuels/definekit/pkg/archive"
	"github.com/matzehuels/definekit/pkg/cache"
	"github.com/matzehuels/definekit/pkg/errors"
	"github.com/matzehuels/definekit/pkg/pipeline"
	"github.com/matzehuels/definekit/pkg/source"
)

// =============================================================================
// Constants
// =============================================================================

// appName is the application name used for directories and display.
const appName = "definekit"

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
	Config *config.Config

	// Out receives command output; logs and spinners go to the logger's writer.
	Out io.Writer

	configPath string
}

// New creates a new CLI instance with a default logger and configuration.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{
		Logger: newLogger(w, level),
		Config: config.Default(),
		Out:    os.Stdout,
	}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// loadConfig reads the configuration named by --config, or definekit.toml.
func (c *CLI) loadConfig() error {
	cfg, err := config.Load(c.configPath)
	if err != nil {
		return err
	}
	c.Config = cfg
	if cfg.Path != "" {
		c.Logger.Debug("loaded config", "path", cfg.Path)
	}
	return nil
}

// =============================================================================
// Factories
// =============================================================================

// newRunner creates a pipeline runner for CLI use.
func (c *CLI) newRunner(ctx context.Context, noCache bool) (*pipeline.Runner, error) {
	cc, err := c.newCache(ctx, noCache)
	if err != nil {
		return nil, err
	}
	r := pipeline.NewRunner(cc, c.newKeyer(), c.Logger)
	r.ArtifactTTL = c.Config.Cache.TTL
	return r, nil
}

// newKeyer derives cache keys, scoped when cache.scope is set.
func (c *CLI) newKeyer() cache.Keyer {
	if scope := c.Config.Cache.Scope; scope != "" {
		return cache.NewScopedKeyer(cache.NewDefaultKeyer(), scope+":")
	}
	return cache.NewDefaultKeyer()
}

// newCache builds the configured cache backend. A file cache that cannot be
// created degrades to no caching.
func (c *CLI) newCache(ctx context.Context, noCache bool) (cache.Cache, error) {
	cfg := c.Config.Cache
	if noCache || cfg.Backend == config.BackendNone {
		return cache.NewNullCache(), nil
	}
	if cfg.Backend == config.BackendRedis {
		return cache.NewRedisCache(ctx, cache.RedisOptions{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
			Prefix:   cfg.Prefix,
		})
	}
	dir := cfg.Dir
	if dir == "" {
		var err error
		if dir, err = cacheDir(); err != nil {
			c.Logger.Debug("no cache directory; caching disabled", "err", err)
			return cache.NewNullCache(), nil
		}
	}
	fc, err := cache.NewFileCache(dir)
	if err != nil {
		c.Logger.Warn("cannot create cache directory; caching disabled", "dir", dir, "err", err)
		return cache.NewNullCache(), nil
	}
	return fc, nil
}

// newLoader creates an input loader. S3 inputs are enabled when a region
// or an endpoint is configured.
func (c *CLI) newLoader(ctx context.Context, cc cache.Cache, keyer cache.Keyer) (*source.Loader, error) {
	opts := source.Options{Cache: cc, Keyer: keyer, Logger: c.Logger}
	if s3 := c.Config.S3; s3.Region != "" || s3.Endpoint != "" {
		f, err := source.NewS3Fetcher(ctx, source.S3Config{
			Region:    s3.Region,
			Endpoint:  s3.Endpoint,
			PathStyle: s3.PathStyle,
		})
		if err != nil {
			return nil, err
		}
		opts.S3 = f
	}
	return source.NewLoader(opts), nil
}

// openArchive connects to the configured archive.
func (c *CLI) openArchive(ctx context.Context) (archive.Store, error) {
	a := c.Config.Archive
	if a.MongoURI == "" {
		return nil, errors.New(errors.ErrCodeUnsupported, "no archive configured (set archive.mongo_uri in %s)", config.FileName)
	}
	return archive.NewMongo(ctx, archive.MongoOptions{
		URI:        a.MongoURI,
		Database:   a.Database,
		Collection: a.Collection,
	})
}

// =============================================================================
// Paths
// =============================================================================

// cacheDir returns the cache directory using XDG standard (~/.cache/definekit/).
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
