package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	toml "github.com/pelletier/go-toml/v2"
)

// Config is the partdesk configuration. A configured server base URL selects
// the hosted backend; otherwise orders live in the local sqlite workspace.
type Config struct {
	Server   ServerConfig   `toml:"server"`
	Database DatabaseConfig `toml:"database"`
	Tracking TrackingConfig `toml:"tracking"`
	Board    BoardConfig    `toml:"board"`
	Keys     KeyConfig      `toml:"keys"`
}

type ServerConfig struct {
	BaseURL      string `toml:"base_url"`
	SessionToken string `toml:"session_token"`
}

type DatabaseConfig struct {
	Path string `toml:"path"`
}

type TrackingConfig struct {
	PollMinutes int `toml:"poll_minutes"`
}

type BoardConfig struct {
	ShowVendor   bool `toml:"show_vendor"`
	ShowStudent  bool `toml:"show_student"`
	ShowTracking bool `toml:"show_tracking"`
	ShowCosts    bool `toml:"show_costs"`
}

type KeyConfig struct {
	Select     string `toml:"select"`
	SelectAll  string `toml:"select_all"`
	SameVendor string `toml:"same_vendor"`
	Group      string `toml:"group"`
	AddToOrder string `toml:"add_to_order"`
	Delete     string `toml:"delete"`
	Undo       string `toml:"undo"`
	Refresh    string `toml:"refresh"`
}

// Default returns the configuration used when no config file exists.
func Default(dbPath string) Config {
	return Config{
		Database: DatabaseConfig{
			Path: dbPath,
		},
		Tracking: TrackingConfig{
			PollMinutes: 30,
		},
		Board: BoardConfig{
			ShowVendor:   true,
			ShowStudent:  true,
			ShowTracking: true,
			ShowCosts:    false,
		},
		Keys: KeyConfig{
			Select:     " ",
			SelectAll:  "a",
			SameVendor: "v",
			Group:      "g",
			AddToOrder: "o",
			Delete:     "x",
			Undo:       "z",
			Refresh:    "r",
		},
	}
}

// Load reads the TOML file at path over the defaults. A missing file is not
// an error.
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

// Validate checks cross-field constraints.
func (c Config) Validate() error {
	base := strings.TrimSpace(c.Server.BaseURL)
	if base != "" {
		parsed, err := url.Parse(base)
		if err != nil || parsed.Scheme == "" || parsed.Host == "" {
			return fmt.Errorf("invalid server.base_url: %q", c.Server.BaseURL)
		}
	}

	if base == "" && strings.TrimSpace(c.Database.Path) == "" {
		return errors.New("database path is required without a server base_url")
	}

	if c.Tracking.PollMinutes < 0 {
		return fmt.Errorf("tracking.poll_minutes must be >= 0, got %d", c.Tracking.PollMinutes)
	}

	return nil
}

// UseRemote reports whether the hosted backend is configured.
func (c Config) UseRemote() bool {
	return strings.TrimSpace(c.Server.BaseURL) != ""
}

// EnsureConfigDir creates the directory holding the config file.
func EnsureConfigDir(path string) error {
	dir := filepath.Dir(path)
	if dir == "." || dir == "" {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}
