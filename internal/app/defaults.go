package app

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/caarlos0/env/v11"
)

// Defaults are the application paths and settings resolved from the
// environment before any config file is read.
//
// Environment variables:
//   - DSL_CONFIG_PATH: config file location (default: ~/.config/dsl.toml)
//   - DSL_HOME: base directory for dsl data (default: ~/.local/share/dsl)
//   - DSL_PROFILE: profile id written by 'dsl config init' (default: "default")
//   - DSL_LOG_LEVEL: minimum level written to the log file (default: INFO)
type Defaults struct {
	ConfigPath string     `env:"DSL_CONFIG_PATH"`
	BaseDir    string     `env:"DSL_HOME"`
	ProfileID  string     `env:"DSL_PROFILE" envDefault:"default"`
	LogLevel   slog.Level `env:"DSL_LOG_LEVEL" envDefault:"INFO"`
	LogDir     string
}

// GetDefaults returns application defaults, checking environment variables first.
func GetDefaults() (*Defaults, error) {
	var d Defaults
	if err := env.Parse(&d); err != nil {
		return nil, fmt.Errorf("parsing environment: %w", err)
	}

	if d.ConfigPath == "" || d.BaseDir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("cannot determine home directory: %w", err)
		}
		if d.ConfigPath == "" {
			d.ConfigPath = filepath.Join(homeDir, ".config", "dsl.toml")
		}
		if d.BaseDir == "" {
			d.BaseDir = filepath.Join(homeDir, ".local", "share", "dsl")
		}
	}
	d.LogDir = filepath.Join(d.BaseDir, "log")

	return &d, nil
}
