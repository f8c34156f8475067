package config

import (
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"
)

// Settings holds server-level options read from a TOML file. Match rules
// live in match config files, not here.
type Settings struct {
	Server  ServerSettings  `toml:"server"`
	Logging LoggingSettings `toml:"logging"`
	Matches MatchSettings   `toml:"matches"`
	Ngrok   NgrokSettings   `toml:"ngrok"`
}

type ServerSettings struct {
	Host      string `toml:"host"`
	Port      int    `toml:"port"`
	ConfigDir string `toml:"config_dir"`
}

type LoggingSettings struct {
	Level  string `toml:"level"`
	Format string `toml:"format"` // "json" or "console"
}

type MatchSettings struct {
	IdleTimeout     time.Duration `toml:"idle_timeout"`
	CleanupInterval time.Duration `toml:"cleanup_interval"`
}

type NgrokSettings struct {
	Enabled bool   `toml:"enabled"`
	Domain  string `toml:"domain"`
}

// Addr returns the listen address for the HTTP server
func (s ServerSettings) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// LoadSettings reads a TOML settings file over the defaults. An empty path
// returns the defaults unchanged.
func LoadSettings(path string) (*Settings, error) {
	cfg := DefaultSettings()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read settings %s: %w", path, err)
	}
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse settings %s: %w", path, err)
	}
	return cfg, nil
}

// DefaultSettings returns the settings used when no file is given
func DefaultSettings() *Settings {
	return &Settings{
		Server: ServerSettings{
			Host:      "",
			Port:      8080,
			ConfigDir: "configs",
		},
		Logging: LoggingSettings{
			Level:  "info",
			Format: "console",
		},
		Matches: MatchSettings{
			IdleTimeout:     24 * time.Hour,
			CleanupInterval: time.Hour,
		},
	}
}
