package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestDefaultConfig(t *testing.T) {
	cfg := Default("/tmp/tickit.db")
	if cfg.Database.Path != "/tmp/tickit.db" {
		t.Fatalf("unexpected db path %q", cfg.Database.Path)
	}
	if cfg.UI.Theme != ThemeDark || cfg.UI.CompactWidth != 40 {
		t.Fatalf("unexpected ui defaults %#v", cfg.UI)
	}
	if cfg.Auth.MinPasswordLength != 6 || !cfg.FederatedEnabled() {
		t.Fatalf("unexpected auth defaults %#v", cfg.Auth)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
	ttl, err := cfg.SessionTTL()
	if err != nil || ttl != 720*time.Hour {
		t.Fatalf("SessionTTL() = %v, %v", ttl, err)
	}
	poll, err := cfg.PollInterval()
	if err != nil || poll != time.Second {
		t.Fatalf("PollInterval() = %v, %v", poll, err)
	}
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	defaults := Default("/tmp/tickit.db")
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.toml"), defaults)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Database.Path != defaults.Database.Path {
		t.Fatalf("expected default db path, got %q", cfg.Database.Path)
	}
}

func TestLoadFileOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	content := `
[database]
path = "/custom/tickit.db"

[logging]
level = "debug"

[auth]
min_password_length = 10
session_ttl = "1h"
federated_provider = ""

[sync]
poll_interval = "0"

[ui]
theme = "light"
compact_width = 60

[server]
http_bind = "0.0.0.0:9090"
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	cfg, err := Load(path, Default("/tmp/default.db"))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Database.Path != "/custom/tickit.db" {
		t.Fatalf("unexpected db path %q", cfg.Database.Path)
	}
	if cfg.Logging.Level != "debug" || !cfg.Logging.DevFile.Enabled {
		t.Fatalf("unexpected logging %#v", cfg.Logging)
	}
	if cfg.Auth.MinPasswordLength != 10 || cfg.FederatedEnabled() {
		t.Fatalf("unexpected auth %#v", cfg.Auth)
	}
	if poll, _ := cfg.PollInterval(); poll != 0 {
		t.Fatalf("PollInterval() = %v, want 0", poll)
	}
	if cfg.UI.Theme != ThemeLight || cfg.UI.CompactWidth != 60 {
		t.Fatalf("unexpected ui %#v", cfg.UI)
	}
	if cfg.Server.HTTPBind != "0.0.0.0:9090" || cfg.Server.APIEndpoint != "/api/v1" {
		t.Fatalf("unexpected server %#v", cfg.Server)
	}
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	cases := map[string]string{
		"level":        "[logging]\nlevel = \"loud\"\n",
		"ttl":          "[auth]\nsession_ttl = \"forever\"\n",
		"ttl negative": "[auth]\nsession_ttl = \"-1h\"\n",
		"min length":   "[auth]\nmin_password_length = 0\n",
		"provider":     "[auth]\nfederated_provider = \"google\"\n",
		"poll":         "[sync]\npoll_interval = \"soon\"\n",
		"theme":        "[ui]\ntheme = \"neon\"\n",
		"width":        "[ui]\ncompact_width = -1\n",
		"bind":         "[server]\nhttp_bind = \"nope\"\n",
		"endpoint":     "[server]\nmcp_endpoint = \"mcp\"\n",
		"db":           "[database]\npath = \"  \"\n",
		"dev file":     "[logging.dev_file]\nenabled = true\ndir = \"\"\n",
	}
	for name, content := range cases {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "config.toml")
			if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
				t.Fatalf("WriteFile() error = %v", err)
			}
			if _, err := Load(path, Default("/tmp/tickit.db")); err == nil {
				t.Fatalf("expected error for %s", strings.TrimSpace(content))
			}
		})
	}
}

func TestLoadRejectsMalformedTOML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte("[database\n"), 0o644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	if _, err := Load(path, Default("/tmp/tickit.db")); err == nil {
		t.Fatal("expected decode error")
	}
}

func TestEnsureConfigDir(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.toml")
	if err := EnsureConfigDir(path); err != nil {
		t.Fatalf("EnsureConfigDir() error = %v", err)
	}
	if _, err := os.Stat(filepath.Dir(path)); err != nil {
		t.Fatalf("expected config dir, got %v", err)
	}
}
