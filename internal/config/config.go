// Package config handles cmisq configuration.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// Log formats.
const (
	LogFormatText = "text"
	LogFormatJSON = "json"
)

// Default file names, relative to the config directory.
const (
	DefaultRepositoryFile = "repository.yaml"
	DefaultSchemaFile     = "schema.yaml"
	DefaultIndexFile      = "index.db"
	DefaultAuditFile      = "changes.log"
)

// Config represents the cmisq configuration.
type Config struct {
	// Repository is the YAML file holding the folder/document tree.
	Repository string `toml:"repository"`

	// Schema is the YAML file declaring user types.
	Schema string `toml:"schema"`

	// Index is the SQLite full-text index. Empty keeps the index in memory
	// and rebuilds it on every run.
	Index string `toml:"index"`

	// Audit is the change log mutations are appended to. Empty disables it.
	Audit string `toml:"audit"`

	// User is recorded as cmis:createdBy and cmis:lastModifiedBy.
	User string `toml:"user"`

	Query QueryConfig `toml:"query"`
	Log   LogConfig   `toml:"log"`
}

// QueryConfig holds query defaults.
type QueryConfig struct {
	// MaxItems caps the rows returned when --max-items is not given.
	// 0 means no limit.
	MaxItems int `toml:"max_items"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if err := validation.ValidateStruct(c,
		validation.Field(&c.Repository, validation.Required),
		validation.Field(&c.Schema, validation.Required),
	); err != nil {
		return err
	}
	if err := c.Query.Validate(); err != nil {
		return fmt.Errorf("query: %w", err)
	}
	if err := c.Log.Validate(); err != nil {
		return fmt.Errorf("log: %w", err)
	}
	return nil
}

// Validate validates the query configuration.
func (c *QueryConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.MaxItems, validation.Min(0)),
	)
}

// Validate validates the log configuration.
func (c *LogConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Level, validation.In("debug", "info", "warn", "error")),
		validation.Field(&c.Format, validation.In(LogFormatText, LogFormatJSON)),
	)
}

// SlogLevel returns the configured level, defaulting to warn.
func (c *LogConfig) SlogLevel() slog.Level {
	var l slog.Level
	if err := l.UnmarshalText([]byte(c.Level)); err != nil {
		return slog.LevelWarn
	}
	return l
}

// NewDefault returns a config whose files live in dir.
func NewDefault(dir string) *Config {
	return &Config{
		Repository: filepath.Join(dir, DefaultRepositoryFile),
		Schema:     filepath.Join(dir, DefaultSchemaFile),
		Index:      filepath.Join(dir, DefaultIndexFile),
		Audit:      filepath.Join(dir, DefaultAuditFile),
		Log:        LogConfig{Level: "warn", Format: LogFormatText},
	}
}

// Load loads the configuration from the default location.
// Returns a default config if the file doesn't exist.
func Load() (*Config, error) {
	configPath := DefaultPath()

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return NewDefault(filepath.Dir(configPath)), nil
	}

	return LoadFrom(configPath)
}

// LoadFrom loads the configuration from a specific path. Settings missing
// from the file keep their defaults, and relative paths are resolved
// against the file's directory.
func LoadFrom(path string) (*Config, error) {
	dir := filepath.Dir(path)
	config := NewDefault(dir)
	if _, err := toml.DecodeFile(path, config); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}

	config.Repository = resolvePath(dir, config.Repository)
	config.Schema = resolvePath(dir, config.Schema)
	config.Index = resolvePath(dir, config.Index)
	config.Audit = resolvePath(dir, config.Audit)
	config.Log.Level = strings.ToLower(strings.TrimSpace(config.Log.Level))
	config.Log.Format = strings.ToLower(strings.TrimSpace(config.Log.Format))

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return config, nil
}

func resolvePath(dir, p string) string {
	p = strings.TrimSpace(p)
	if p == "" || p == ":memory:" {
		return p
	}
	if strings.HasPrefix(p, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, p[2:])
		}
	}
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(dir, p)
}

// DefaultPath returns the default config file path.
// Checks ~/.config/cmisq/config.toml first (XDG style),
// then falls back to OS-specific location.
func DefaultPath() string {
	if home, err := os.UserHomeDir(); err == nil {
		xdgPath := filepath.Join(home, ".config", "cmisq", "config.toml")
		if _, err := os.Stat(xdgPath); err == nil {
			return xdgPath
		}
	}

	if configDir, err := os.UserConfigDir(); err == nil {
		return filepath.Join(configDir, "cmisq", "config.toml")
	}

	return filepath.Join(".", "config.toml")
}
