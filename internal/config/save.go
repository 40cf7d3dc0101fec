package config

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/aidanlsb/cmisq/internal/atomicfile"
)

// header is written above the settings by SaveTo.
const header = `# cmisq configuration
#
# Relative paths are resolved against this file's directory.
# index = "" keeps the full-text index in memory.
# audit = "" disables the change log.
#
# [log]
# level: debug, info, warn, error
# format: text, json

`

// SaveTo writes cfg to path atomically. Paths inside the config directory
// are written relative to it.
func SaveTo(path string, cfg *Config) error {
	if strings.TrimSpace(path) == "" {
		return fmt.Errorf("config path is required")
	}
	if cfg == nil {
		cfg = NewDefault(filepath.Dir(path))
	}

	dir := filepath.Dir(path)
	out := *cfg
	out.Repository = relativePath(dir, cfg.Repository)
	out.Schema = relativePath(dir, cfg.Schema)
	out.Index = relativePath(dir, cfg.Index)
	out.Audit = relativePath(dir, cfg.Audit)

	var buf bytes.Buffer
	buf.WriteString(header)
	if err := toml.NewEncoder(&buf).Encode(out); err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if err := atomicfile.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("failed to write config %s: %w", path, err)
	}
	return nil
}

// CreateDefault writes a default config to path unless a file already
// exists there, and returns the config in effect.
func CreateDefault(path string) (*Config, bool, error) {
	if _, err := os.Stat(path); err == nil {
		cfg, err := LoadFrom(path)
		return cfg, false, err
	}
	cfg := NewDefault(filepath.Dir(path))
	if err := SaveTo(path, cfg); err != nil {
		return nil, false, err
	}
	return cfg, true, nil
}

func relativePath(dir, p string) string {
	if p == "" || !filepath.IsAbs(p) {
		return p
	}
	rel, err := filepath.Rel(dir, p)
	if err != nil || strings.HasPrefix(rel, "..") {
		return p
	}
	return rel
}
