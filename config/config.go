// Package config loads the dbm-sheets settings from a YAML file with environment variable
// overrides. Secrets are only ever read from the environment.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

// File is the default configuration file name, resolved relative to the workdir.
const File = "dbm-sheets.yaml"

type Config struct {
	Workdir     string `yaml:"workdir" env:"DBM_SHEETS_WORKDIR"`
	Credentials string `yaml:"credentials" env:"DBM_SHEETS_CREDENTIALS"`

	// User is the account the OAuth token and user properties belong to.
	User string `yaml:"user" env:"DBM_SHEETS_USER"`

	Store        StoreConfig        `yaml:"store"`
	DBM          DBMConfig          `yaml:"dbm"`
	Notification NotificationConfig `yaml:"notification"`
	Daemon       DaemonConfig       `yaml:"daemon"`
}

type StoreConfig struct {
	Driver string `yaml:"driver" env:"DBM_SHEETS_STORE" env-default:"sqlite"`
	SQLite string `yaml:"sqlite" env:"DBM_SHEETS_SQLITE"`
	Redis  string `yaml:"redis" env:"REDIS_URL" env-default:"redis://localhost:6379/0"`
}

type DBMConfig struct {
	BaseURL  string `yaml:"base_url" env:"DBM_BASE_URL" env-default:"https://www.googleapis.com/doubleclickbidmanager/v1"`
	V2Bucket string `yaml:"v2_bucket" env:"DBM_V2_BUCKET" env-default:"ddm-xbid"`
}

type NotificationConfig struct {
	Host     string `yaml:"smtp_host" env:"SMTP_HOST"`
	Port     int    `yaml:"smtp_port" env:"SMTP_PORT" env-default:"587"`
	Username string `yaml:"smtp_username" env:"SMTP_USERNAME"`
	Password string `yaml:"-" env:"SMTP_PASSWORD"`
	From     string `yaml:"from" env:"SMTP_FROM"`
}

// Enabled is true if an SMTP server has been configured.
func (n NotificationConfig) Enabled() bool {
	return n.Host != ""
}

type DaemonConfig struct {
	Interval time.Duration `yaml:"interval" env:"DBM_SHEETS_RECONCILE_INTERVAL" env-default:"1m"`
}

// Paths are the working directory and credentials file locations.
type Paths struct {
	Workdir     string
	Credentials string
}

// Load reads the configuration file, falling back to the environment and defaults if the
// file does not exist. Non-empty overrides replace the configured paths and empty settings
// are replaced by the defaults. Paths derived from the working directory use the final
// working directory.
func Load(file string, defaults Paths, overrides Paths) (*Config, error) {
	cfg := Config{}

	if _, err := os.Stat(file); err != nil && errors.Is(err, fs.ErrNotExist) {
		if err := cleanenv.ReadEnv(&cfg); err != nil {
			return nil, fmt.Errorf("error reading configuration from environment (%w)", err)
		}
	} else if err := cleanenv.ReadConfig(file, &cfg); err != nil {
		return nil, fmt.Errorf("error reading configuration file %v (%w)", file, err)
	}

	if overrides.Workdir != "" {
		cfg.Workdir = overrides.Workdir
	} else if cfg.Workdir == "" {
		cfg.Workdir = defaults.Workdir
	}

	if overrides.Credentials != "" {
		cfg.Credentials = overrides.Credentials
	} else if cfg.Credentials == "" {
		cfg.Credentials = defaults.Credentials
	}

	if cfg.Store.SQLite == "" {
		cfg.Store.SQLite = filepath.Join(cfg.Workdir, "dbm-sheets.db")
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) validate() error {
	switch c.Store.Driver {
	case "memory", "sqlite", "redis":
	default:
		return fmt.Errorf("invalid property store driver '%v'", c.Store.Driver)
	}

	if c.Daemon.Interval <= 0 {
		return fmt.Errorf("invalid daemon reconcile interval %v", c.Daemon.Interval)
	}

	if c.Notification.Enabled() && c.Notification.From == "" {
		return fmt.Errorf("missing 'from' address for SMTP notifications")
	}

	return nil
}
