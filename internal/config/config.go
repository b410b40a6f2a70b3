// Package config loads plantmanager settings from a YAML file with
// PLANTMANAGER_* environment overrides.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"

	"github.com/julianstephens/plantmanager/internal/constants"
	apperrors "github.com/julianstephens/plantmanager/internal/errors"
	"github.com/julianstephens/plantmanager/internal/utils"
	"github.com/julianstephens/plantmanager/internal/validation"
)

const EnvPrefix = "PLANTMANAGER"

const (
	SenderTray = "tray"
	SenderLog  = "log"
)

// Environment variables are derived from field names: Catalog.PageSize is
// PLANTMANAGER_CATALOG_PAGE_SIZE. Fields carry no envconfig tags because a
// tag also makes envconfig fall back to the bare, unprefixed name.
type Config struct {
	Store         StoreConfig         `yaml:"store" split_words:"true"`
	Catalog       CatalogConfig       `yaml:"catalog" split_words:"true"`
	Notifications NotificationsConfig `yaml:"notifications" split_words:"true"`
	Log           LogConfig           `yaml:"log" split_words:"true"`

	// Timezone is an IANA name or "Local".
	Timezone string `yaml:"timezone" split_words:"true"`
	Debug    bool   `yaml:"debug" split_words:"true"`

	path string
}

type StoreConfig struct {
	Backend string `yaml:"backend" split_words:"true" validate:"oneof=sqlite postgres badger"`
	// Path is the SQLite file or the Badger directory.
	Path string `yaml:"path" split_words:"true"`
	// DSN is a password-free PostgreSQL connection string. When empty the
	// keyring entry is used.
	DSN string `yaml:"dsn,omitempty" split_words:"true"`
}

type CatalogConfig struct {
	URL      string        `yaml:"url" split_words:"true" validate:"required,url"`
	PageSize int           `yaml:"page_size" split_words:"true" validate:"gt=0"`
	Timeout  time.Duration `yaml:"timeout" split_words:"true"`
}

type NotificationsConfig struct {
	Enabled          bool          `yaml:"enabled" split_words:"true"`
	GracePeriod      time.Duration `yaml:"grace_period" split_words:"true"`
	DispatchInterval time.Duration `yaml:"dispatch_interval" split_words:"true"`
	Sender           string        `yaml:"sender" split_words:"true" validate:"oneof=tray log"`
}

type LogConfig struct {
	// File is the rotating log file. Empty means logs/plantmanager.log
	// next to the config file.
	File      string `yaml:"file,omitempty" split_words:"true"`
	Level     string `yaml:"level" split_words:"true" validate:"oneof=debug info warn error"`
	Format    string `yaml:"format" split_words:"true" validate:"oneof=text json"`
	MaxSizeMB int    `yaml:"max_size_mb" split_words:"true" validate:"gt=0"`
}

// Default returns the configuration used when no file exists.
func Default() *Config {
	dir := ExpandPath(constants.DefaultConfigDir)
	return &Config{
		Store: StoreConfig{
			Backend: constants.BackendSQLite,
			Path:    filepath.Join(dir, constants.DefaultDBFile),
		},
		Catalog: CatalogConfig{
			URL:      constants.DefaultCatalogURL,
			PageSize: constants.DefaultCatalogLimit,
			Timeout:  constants.DefaultCatalogTimeout,
		},
		Notifications: NotificationsConfig{
			Enabled:          constants.DefaultNotificationsEnable,
			GracePeriod:      constants.DefaultNotificationGrace,
			DispatchInterval: constants.DefaultDispatchInterval,
			Sender:           SenderTray,
		},
		Log: LogConfig{
			Level:     "warn",
			Format:    "text",
			MaxSizeMB: 10,
		},
		Timezone: "Local",
		path:     filepath.Join(dir, constants.DefaultConfigFile),
	}
}

// DefaultPath is where Load looks when no path is given.
func DefaultPath() string {
	return filepath.Join(ExpandPath(constants.DefaultConfigDir), constants.DefaultConfigFile)
}

// Load reads path over the defaults, then applies environment overrides.
// A missing file is not an error.
func Load(path string) (*Config, error) {
	if path == "" {
		path = DefaultPath()
	}
	path = ExpandPath(path)

	cfg := Default()
	cfg.path = path

	raw, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(raw, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
		}
	case errors.Is(err, os.ErrNotExist):
	default:
		return nil, fmt.Errorf("failed to read config %s: %w", path, err)
	}

	if err := envconfig.Process(EnvPrefix, cfg); err != nil {
		return nil, fmt.Errorf("failed to process environment variables: %w", err)
	}

	cfg.Store.Path = ExpandPath(cfg.Store.Path)
	if cfg.Log.File != "" {
		cfg.Log.File = ExpandPath(cfg.Log.File)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes the configuration as YAML, creating the directory if needed.
func (c *Config) Save() error {
	if c.path == "" {
		c.path = DefaultPath()
	}
	if err := os.MkdirAll(filepath.Dir(c.path), 0o700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	raw, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	if err := os.WriteFile(c.path, raw, 0o600); err != nil {
		return fmt.Errorf("failed to write config %s: %w", c.path, err)
	}
	return nil
}

// Path is the file the configuration was loaded from or will be saved to.
func (c *Config) Path() string { return c.path }

// Dir is the directory holding the config file.
func (c *Config) Dir() string { return filepath.Dir(c.path) }

// LogPath is the file the logger writes to.
func (c *Config) LogPath() string {
	if c.Log.File != "" {
		return c.Log.File
	}
	return filepath.Join(c.Dir(), "logs", constants.AppName+".log")
}

func (c *Config) Validate() error {
	if err := validation.New().Validate(c); err != nil {
		return err
	}
	if c.Store.Backend != constants.BackendPostgres && strings.TrimSpace(c.Store.Path) == "" {
		return apperrors.InvalidInput("store.path is required for the %s backend", c.Store.Backend)
	}
	if c.Catalog.Timeout <= 0 {
		return apperrors.InvalidInput("catalog.timeout must be positive")
	}
	if c.Notifications.GracePeriod < 0 {
		return apperrors.InvalidInput("notifications.grace_period cannot be negative")
	}
	if c.Notifications.DispatchInterval <= 0 {
		return apperrors.InvalidInput("notifications.dispatch_interval must be positive")
	}
	if !utils.ValidateTimezone(c.Timezone) {
		return apperrors.InvalidInput("unknown timezone %q", c.Timezone)
	}
	return nil
}

// Location resolves Timezone.
func (c *Config) Location() (*time.Location, error) {
	return utils.LoadLocation(c.Timezone)
}

// ExpandPath replaces a leading ~ with the user's home directory.
func ExpandPath(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~"))
}
