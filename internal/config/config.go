package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	toml "github.com/pelletier/go-toml/v2"
)

// Theme names the color scheme of the terminal client.
type Theme string

// Theme values.
const (
	ThemeDark  Theme = "dark"
	ThemeLight Theme = "light"
)

// FederatedProviderSystem enables sign-in as the local OS account.
const FederatedProviderSystem = "system"

type Config struct {
	Database DatabaseConfig `toml:"database"`
	Logging  LoggingConfig  `toml:"logging"`
	Auth     AuthConfig     `toml:"auth"`
	Sync     SyncConfig     `toml:"sync"`
	UI       UIConfig       `toml:"ui"`
	Server   ServerConfig   `toml:"server"`
}

type DatabaseConfig struct {
	Path string `toml:"path"`
}

type LoggingConfig struct {
	Level   string        `toml:"level"`
	DevFile DevFileConfig `toml:"dev_file"`
}

type DevFileConfig struct {
	Enabled bool   `toml:"enabled"`
	Dir     string `toml:"dir"`
}

type AuthConfig struct {
	MinPasswordLength int    `toml:"min_password_length"`
	SessionTTL        string `toml:"session_ttl"`
	// KeyPath locates the token signing key; empty uses the data directory.
	KeyPath           string `toml:"key_path"`
	FederatedProvider string `toml:"federated_provider"` // "" | system
}

type SyncConfig struct {
	PollInterval string `toml:"poll_interval"`
}

type UIConfig struct {
	Theme        Theme `toml:"theme"`
	CompactWidth int   `toml:"compact_width"`
}

type ServerConfig struct {
	HTTPBind    string `toml:"http_bind"`
	APIEndpoint string `toml:"api_endpoint"`
	MCPEndpoint string `toml:"mcp_endpoint"`
}

func Default(dbPath string) Config {
	return Config{
		Database: DatabaseConfig{
			Path: dbPath,
		},
		Logging: LoggingConfig{
			Level: "info",
			DevFile: DevFileConfig{
				Enabled: true,
				Dir:     ".tickit/log",
			},
		},
		Auth: AuthConfig{
			MinPasswordLength: 6,
			SessionTTL:        "720h",
			FederatedProvider: FederatedProviderSystem,
		},
		Sync: SyncConfig{
			PollInterval: "1s",
		},
		UI: UIConfig{
			Theme:        ThemeDark,
			CompactWidth: 40,
		},
		Server: ServerConfig{
			HTTPBind:    "127.0.0.1:8080",
			APIEndpoint: "/api/v1",
			MCPEndpoint: "/mcp",
		},
	}
}

func Load(path string, defaults Config) (Config, error) {
	cfg := defaults
	if strings.TrimSpace(path) == "" {
		return cfg, nil
	}

	content, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	if len(content) == 0 {
		return cfg, nil
	}

	if err := toml.Unmarshal(content, &cfg); err != nil {
		return Config{}, fmt.Errorf("decode toml: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func (c Config) Validate() error {
	if strings.TrimSpace(c.Database.Path) == "" {
		return errors.New("database path is required")
	}

	if _, err := log.ParseLevel(strings.ToLower(strings.TrimSpace(c.Logging.Level))); err != nil {
		return fmt.Errorf("invalid logging.level: %q", c.Logging.Level)
	}
	if c.Logging.DevFile.Enabled && strings.TrimSpace(c.Logging.DevFile.Dir) == "" {
		return errors.New("logging.dev_file.dir is required when logging.dev_file.enabled = true")
	}

	if c.Auth.MinPasswordLength < 1 {
		return fmt.Errorf("auth.min_password_length must be >= 1")
	}
	if _, err := c.SessionTTL(); err != nil {
		return err
	}
	switch strings.TrimSpace(strings.ToLower(c.Auth.FederatedProvider)) {
	case "", FederatedProviderSystem:
	default:
		return fmt.Errorf("invalid auth.federated_provider: %q", c.Auth.FederatedProvider)
	}

	if _, err := c.PollInterval(); err != nil {
		return err
	}

	switch c.UI.Theme {
	case ThemeDark, ThemeLight:
	default:
		return fmt.Errorf("invalid ui.theme: %q", c.UI.Theme)
	}
	if c.UI.CompactWidth < 0 {
		return fmt.Errorf("ui.compact_width must be >= 0")
	}

	if _, _, err := net.SplitHostPort(strings.TrimSpace(c.Server.HTTPBind)); err != nil {
		return fmt.Errorf("invalid server.http_bind %q: %w", c.Server.HTTPBind, err)
	}
	for name, endpoint := range map[string]string{
		"server.api_endpoint": c.Server.APIEndpoint,
		"server.mcp_endpoint": c.Server.MCPEndpoint,
	} {
		if !strings.HasPrefix(strings.TrimSpace(endpoint), "/") {
			return fmt.Errorf("%s must start with '/': %q", name, endpoint)
		}
	}

	return nil
}

// SessionTTL parses auth.session_ttl.
func (c Config) SessionTTL() (time.Duration, error) {
	ttl, err := time.ParseDuration(strings.TrimSpace(c.Auth.SessionTTL))
	if err != nil {
		return 0, fmt.Errorf("invalid auth.session_ttl %q: %w", c.Auth.SessionTTL, err)
	}
	if ttl <= 0 {
		return 0, fmt.Errorf("auth.session_ttl must be positive")
	}
	return ttl, nil
}

// PollInterval parses sync.poll_interval. Zero disables cross-process polling.
func (c Config) PollInterval() (time.Duration, error) {
	raw := strings.TrimSpace(c.Sync.PollInterval)
	if raw == "" || raw == "0" {
		return 0, nil
	}
	interval, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid sync.poll_interval %q: %w", c.Sync.PollInterval, err)
	}
	if interval < 0 {
		return 0, fmt.Errorf("sync.poll_interval must be >= 0")
	}
	return interval, nil
}

// FederatedEnabled reports whether a federated provider is configured.
func (c Config) FederatedEnabled() bool {
	return strings.TrimSpace(strings.ToLower(c.Auth.FederatedProvider)) == FederatedProviderSystem
}

func EnsureConfigDir(path string) error {
	dir := filepath.Dir(path)
	if dir == "." || dir == "" {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}
