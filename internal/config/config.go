// Package config provides YAML-based configuration loading for proxydepot.
package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config is the top-level proxydepot configuration, loaded from config.yaml.
type Config struct {
	Admins            []string        `yaml:"admins"`
	TicketQuota       int             `yaml:"ticket_quota"`
	PoolDir           string          `yaml:"pool_dir"`
	MaxFeedbackLength int             `yaml:"max_feedback_length"`
	Storage           StorageConfig   `yaml:"storage"`
	Pools             []PoolConfig    `yaml:"pools"`
	Platform          PlatformConfig  `yaml:"platform"`
	Dashboard         DashboardConfig `yaml:"dashboard"`
	DigestCron        string          `yaml:"digest_cron"`
}

// StorageConfig selects and parameterizes the persistence backend.
type StorageConfig struct {
	Backend  string `yaml:"backend"` // "sqlite" (default) or "mysql"
	Path     string `yaml:"path"`    // sqlite database file
	Host     string `yaml:"host"`    // mysql
	Port     int    `yaml:"port"`    // mysql
	Database string `yaml:"database"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
}

// PoolConfig declares a pool to seed at migration time.
type PoolConfig struct {
	Name        string `yaml:"name"`
	Label       string `yaml:"label"`
	Description string `yaml:"description"`
}

// PlatformConfig holds chat platform credentials. Exactly one platform is
// active per process, selected by Kind.
type PlatformConfig struct {
	Kind           string `yaml:"kind"` // "discord" or "slack"
	BotToken       string `yaml:"bot_token"`
	AppToken       string `yaml:"app_token"` // slack socket mode only
	ChannelID      string `yaml:"channel_id"`
	AdminChannelID string `yaml:"admin_channel_id"`
}

// DashboardConfig holds settings for the JSON stats dashboard.
type DashboardConfig struct {
	Enabled bool `yaml:"enabled"`
	Port    int  `yaml:"port"`
}

// Load reads a YAML config file from path and returns a validated Config.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	return Parse(data)
}

// Parse unmarshals YAML bytes into a validated Config.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("config: parse: %w", err)
	}
	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// IsAdmin reports whether the given platform user ID is a configured admin.
func (c *Config) IsAdmin(userID string) bool {
	for _, a := range c.Admins {
		if a == userID {
			return true
		}
	}
	return false
}

// applyDefaults fills in derived and default values.
func (c *Config) applyDefaults() {
	if c.TicketQuota == 0 {
		c.TicketQuota = 5
	}
	if c.PoolDir == "" {
		c.PoolDir = "pools"
	}
	if c.MaxFeedbackLength == 0 {
		c.MaxFeedbackLength = 4000
	}
	if c.Storage.Backend == "" {
		c.Storage.Backend = "sqlite"
	}
	if c.Storage.Backend == "sqlite" && c.Storage.Path == "" {
		c.Storage.Path = "proxydepot.db"
	}
	if c.Storage.Backend == "mysql" {
		if c.Storage.Host == "" {
			c.Storage.Host = "127.0.0.1"
		}
		if c.Storage.Port == 0 {
			c.Storage.Port = 3306
		}
		if c.Storage.User == "" {
			c.Storage.User = "root"
		}
	}
	if c.Platform.AdminChannelID == "" {
		c.Platform.AdminChannelID = c.Platform.ChannelID
	}
	if c.Dashboard.Enabled && c.Dashboard.Port == 0 {
		c.Dashboard.Port = 8080
	}
}

// validate checks that all required fields are present and consistent.
func (c *Config) validate() error {
	var errs []string
	if len(c.Admins) == 0 {
		errs = append(errs, "at least one admin is required")
	}
	if c.TicketQuota < 0 {
		errs = append(errs, "ticket_quota must be non-negative")
	}
	switch c.Storage.Backend {
	case "sqlite":
	case "mysql":
		if c.Storage.Database == "" {
			errs = append(errs, "storage.database is required for mysql")
		}
	default:
		errs = append(errs, fmt.Sprintf("unknown storage backend %q", c.Storage.Backend))
	}
	switch c.Platform.Kind {
	case "", "discord":
	case "slack":
		if c.Platform.AppToken == "" {
			errs = append(errs, "platform.app_token is required for slack")
		}
	default:
		errs = append(errs, fmt.Sprintf("unknown platform %q", c.Platform.Kind))
	}
	for i, p := range c.Pools {
		if p.Name == "" {
			errs = append(errs, fmt.Sprintf("pools[%d].name is required", i))
		}
		if p.Label == "" {
			errs = append(errs, fmt.Sprintf("pools[%d].label is required", i))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("config: validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}
