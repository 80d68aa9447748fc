package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	merrors "github.com/matzehuels/mindmap/pkg/errors"
	"github.com/matzehuels/mindmap/pkg/mindmap"
	"github.com/matzehuels/mindmap/pkg/server"
	"github.com/matzehuels/mindmap/pkg/store"
)

// Environment variables that take precedence over the config file.
const (
	envStoreDriver = "MINDMAP_STORE_DRIVER"
	envDBPath      = "MINDMAP_DB_PATH"
)

// Config is the contents of config.toml.
type Config struct {
	// Settings are given to maps created by `mindmap new`.
	Settings mindmap.Settings `toml:"settings"`
	Store    store.Config     `toml:"store"`
	Server   server.Config    `toml:"server"`
}

func defaultConfig() *Config {
	return &Config{Settings: mindmap.DefaultSettings()}
}

// configPath returns the config file location using the XDG standard
// (~/.config/mindmap/config.toml).
func configPath() (string, error) {
	dir := os.Getenv("XDG_CONFIG_HOME")
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		dir = filepath.Join(home, ".config")
	}
	return filepath.Join(dir, appName, "config.toml"), nil
}

// loadConfig reads the config file at path and applies environment
// overrides. A missing file yields the defaults. Unknown keys are logged
// and otherwise ignored.
func loadConfig(path string, logger *log.Logger) (*Config, error) {
	cfg := defaultConfig()
	md, err := toml.DecodeFile(path, cfg)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		logger.Debug("No config file", "path", path)
	case err != nil:
		return nil, merrors.Wrap(merrors.ErrCodeInvalidInput, err, "read config %s", path)
	default:
		for _, key := range md.Undecoded() {
			logger.Warn("Unknown config key", "key", key.String(), "path", path)
		}
	}

	if v := os.Getenv(envStoreDriver); v != "" {
		cfg.Store.Driver = v
	}
	if v := os.Getenv(envDBPath); v != "" {
		cfg.Store.Path = v
	}
	cfg.Settings = cfg.Settings.Normalize()
	return cfg, nil
}

// writeConfig encodes cfg as TOML.
func writeConfig(w io.Writer, cfg *Config) error {
	return toml.NewEncoder(w).Encode(cfg)
}

// configCommand creates the config management command.
func (c *CLI) configCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect and create the configuration file",
	}

	cmd.AddCommand(c.configPathCommand())
	cmd.AddCommand(c.configShowCommand())
	cmd.AddCommand(c.configInitCommand())
	cmd.AddCommand(c.configHashPasswordCommand())

	return cmd
}

func (c *CLI) configPathCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Print the config file path",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := c.configFile()
			if err != nil {
				return fmt.Errorf("get config path: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), path)
			return nil
		},
	}
}

func (c *CLI) configShowCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration",
		Long: `Print the effective configuration: the config file merged over the
defaults, with environment overrides (MINDMAP_STORE_DRIVER, MINDMAP_DB_PATH)
applied.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.config()
			if err != nil {
				return err
			}
			return writeConfig(cmd.OutOrStdout(), cfg)
		},
	}
}

func (c *CLI) configInitCommand() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a config file with the default values",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := c.configFile()
			if err != nil {
				return fmt.Errorf("get config path: %w", err)
			}
			if _, err := os.Stat(path); err == nil && !force {
				return merrors.New(merrors.ErrCodeRejected, "%s already exists (use --force to overwrite)", path)
			}
			if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
				return fmt.Errorf("create config dir: %w", err)
			}
			f, err := os.Create(path)
			if err != nil {
				return err
			}
			defer f.Close()

			cfg := defaultConfig()
			cfg.Store.Driver = store.DriverFile
			cfg.Server.Addr = server.DefaultAddr
			cfg.Server.Username = server.DefaultUsername
			if err := writeConfig(f, cfg); err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			printSuccess(out, "Wrote default configuration")
			printFile(out, path)
			return nil
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "overwrite an existing file")

	return cmd
}

func (c *CLI) configHashPasswordCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "hash-password [password]",
		Short: "Hash a password for server.password_hash",
		Long: `Hash a password with bcrypt for the password_hash key of the [server]
section. Without an argument the password is read from the first line of
standard input.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var password string
			if len(args) == 1 {
				password = args[0]
			} else {
				line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
				if err != nil && !errors.Is(err, io.EOF) {
					return err
				}
				password = strings.TrimRight(line, "\r\n")
			}
			if password == "" {
				return merrors.New(merrors.ErrCodeInvalidInput, "empty password")
			}
			hash, err := server.HashPassword(password)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), hash)
			return nil
		},
	}
}
