package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
	return path
}

func TestLoadFrom(t *testing.T) {
	t.Run("full config", func(t *testing.T) {
		path := writeConfig(t, `
repository = "data/repo.yaml"
schema = "/etc/cmisq/schema.yaml"
index = ""
audit = "logs/changes.log"
user = "alice"

[query]
max_items = 50

[log]
level = "DEBUG"
format = "json"
`)
		cfg, err := LoadFrom(path)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		dir := filepath.Dir(path)
		if want := filepath.Join(dir, "data", "repo.yaml"); cfg.Repository != want {
			t.Errorf("repository = %q, want %q", cfg.Repository, want)
		}
		if cfg.Schema != "/etc/cmisq/schema.yaml" {
			t.Errorf("schema = %q", cfg.Schema)
		}
		if cfg.Index != "" {
			t.Errorf("index = %q, want in-memory", cfg.Index)
		}
		if want := filepath.Join(dir, "logs", "changes.log"); cfg.Audit != want {
			t.Errorf("audit = %q, want %q", cfg.Audit, want)
		}
		if cfg.User != "alice" {
			t.Errorf("user = %q", cfg.User)
		}
		if cfg.Query.MaxItems != 50 {
			t.Errorf("max_items = %d", cfg.Query.MaxItems)
		}
		if cfg.Log.SlogLevel() != slog.LevelDebug {
			t.Errorf("level = %v", cfg.Log.SlogLevel())
		}
		if cfg.Log.Format != LogFormatJSON {
			t.Errorf("format = %q", cfg.Log.Format)
		}
	})

	t.Run("missing keys keep defaults", func(t *testing.T) {
		path := writeConfig(t, `user = "bob"`)
		cfg, err := LoadFrom(path)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		dir := filepath.Dir(path)
		if cfg.Repository != filepath.Join(dir, DefaultRepositoryFile) {
			t.Errorf("repository = %q", cfg.Repository)
		}
		if cfg.Index != filepath.Join(dir, DefaultIndexFile) {
			t.Errorf("index = %q", cfg.Index)
		}
		if cfg.Audit != filepath.Join(dir, DefaultAuditFile) {
			t.Errorf("audit = %q", cfg.Audit)
		}
		if cfg.Log.SlogLevel() != slog.LevelWarn {
			t.Errorf("level = %v", cfg.Log.SlogLevel())
		}
	})

	t.Run("invalid values", func(t *testing.T) {
		tests := []struct {
			name    string
			content string
			want    string
		}{
			{"bad level", "[log]\nlevel = \"loud\"\n", "level"},
			{"bad format", "[log]\nformat = \"xml\"\n", "format"},
			{"negative max items", "[query]\nmax_items = -1\n", "maxitems"},
			{"empty repository", "repository = \"\"\n", "repository"},
			{"not toml", "repository = \n", "failed to parse config"},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				_, err := LoadFrom(writeConfig(t, tt.content))
				if err == nil {
					t.Fatal("expected an error")
				}
				if !strings.Contains(strings.ToLower(err.Error()), tt.want) {
					t.Errorf("error %q does not mention %q", err, tt.want)
				}
			})
		}
	})
}

func TestSaveToRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "cmisq", "config.toml")

	cfg, created, err := CreateDefault(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !created {
		t.Fatal("expected the config to be created")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), `repository = "repository.yaml"`) {
		t.Errorf("paths inside the config directory should be relative:\n%s", data)
	}

	cfg.User = "carol"
	cfg.Query.MaxItems = 10
	if err := SaveTo(path, cfg); err != nil {
		t.Fatalf("save failed: %v", err)
	}

	again, created, err := CreateDefault(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if created {
		t.Error("existing config should not be replaced")
	}
	if again.User != "carol" || again.Query.MaxItems != 10 {
		t.Errorf("round trip lost settings: %+v", again)
	}
	if again.Repository != cfg.Repository {
		t.Errorf("repository = %q, want %q", again.Repository, cfg.Repository)
	}
}
