// Package cli implements the mindmap command-line interface.
package cli

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/mindmap/pkg/buildinfo"
	"github.com/matzehuels/mindmap/pkg/cache"
	"github.com/matzehuels/mindmap/pkg/editor"
	"github.com/matzehuels/mindmap/pkg/mindmap"
	"github.com/matzehuels/mindmap/pkg/store"
)

// =============================================================================
// Constants
// =============================================================================

// appName is the application name used for directories and display.
const appName = "mindmap"

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

	// ConfigPath overrides the default config file location.
	ConfigPath string

	cfgOnce sync.Once
	cfg     *Config
	cfgErr  error
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
		Use:   appName,
		Short: "Mindmap edits radial mind maps from the terminal",
		Long: `Mindmap creates, edits, lays out and exports mind maps: trees of short
labelled nodes that fan out to the left and right of a central root.

Maps live in a store (a directory of JSON files by default, or SQLite, Redis
or MongoDB) and can be edited node by node, interactively with 'mindmap edit',
or over HTTP with 'mindmap serve'.`,
		Version:       buildinfo.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if c.Logger.GetLevel() <= log.DebugLevel {
				c.instrument()
			}
			return nil
		},
	}

	root.SetVersionTemplate(buildinfo.Template())
	root.PersistentFlags().StringVar(&c.ConfigPath, "config", "", "config file (default: $XDG_CONFIG_HOME/mindmap/config.toml)")

	// Maps
	root.AddCommand(c.newCommand())
	root.AddCommand(c.listCommand())
	root.AddCommand(c.showCommand())
	root.AddCommand(c.renameCommand())
	root.AddCommand(c.removeCommand())

	// Editing
	root.AddCommand(c.nodeCommand())
	root.AddCommand(c.editCommand())

	// Interchange
	root.AddCommand(c.layoutCommand())
	root.AddCommand(c.exportCommand())
	root.AddCommand(c.importCommand())
	root.AddCommand(c.validateCommand())

	root.AddCommand(c.serveCommand())
	root.AddCommand(c.configCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.completionCommand())
	c.registerCompletions(root)

	return root
}

// =============================================================================
// Config and Store
// =============================================================================

func (c *CLI) configFile() (string, error) {
	if c.ConfigPath != "" {
		return c.ConfigPath, nil
	}
	return configPath()
}

// config loads the configuration once per run.
func (c *CLI) config() (*Config, error) {
	c.cfgOnce.Do(func() {
		path, err := c.configFile()
		if err != nil {
			c.cfgErr = err
			return
		}
		c.cfg, c.cfgErr = loadConfig(path, c.Logger)
	})
	return c.cfg, c.cfgErr
}

// openStore opens the configured map store. The caller closes it.
func (c *CLI) openStore(ctx context.Context) (store.Store, error) {
	cfg, err := c.config()
	if err != nil {
		return nil, err
	}
	return store.Open(ctx, cfg.Store, c.Logger)
}

// loadMap reads one map from the configured store.
func (c *CLI) loadMap(ctx context.Context, id string) (*mindmap.Map, error) {
	st, err := c.openStore(ctx)
	if err != nil {
		return nil, err
	}
	defer st.Close()
	return st.Get(ctx, id)
}

// editMap loads a map into an editing session, runs fn and saves the result.
// When fn fails nothing is written.
func (c *CLI) editMap(ctx context.Context, id string, fn func(s *editor.Session) error) error {
	st, err := c.openStore(ctx)
	if err != nil {
		return err
	}
	defer st.Close()

	m, err := st.Get(ctx, id)
	if err != nil {
		return err
	}
	sess := editor.New(m, editor.Options{
		Logger: c.Logger.With("map", id),
		Saver:  st,
		// One-shot commands flush explicitly on Close.
		AutosaveDelay: time.Hour,
	})
	if err := fn(sess); err != nil {
		sess.Discard()
		sess.Close(ctx)
		return err
	}
	return sess.Close(ctx)
}

// =============================================================================
// Cache
// =============================================================================

func newCache(noCache bool) (cache.Cache, error) {
	if noCache {
		return cache.NewNullCache(), nil
	}
	dir, err := cacheDir()
	if err != nil {
		return cache.NewNullCache(), nil
	}
	return cache.NewFileCache(dir)
}

// cacheKeyer scopes cache keys to the configured store so that two stores
// never share a clipboard.
func (c *CLI) cacheKeyer() cache.Keyer {
	cfg, err := c.config()
	if err != nil {
		return cache.NewDefaultKeyer()
	}
	scope := cfg.Store.Driver
	if scope == "" {
		scope = store.DriverFile
	}
	return cache.NewScopedKeyer(cache.NewDefaultKeyer(), scope+":"+cfg.Store.Path+cfg.Store.Addr+":")
}

// =============================================================================
// Paths
// =============================================================================

// cacheDir returns the cache directory using XDG standard (~/.cache/mindmap/).
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
