package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/cockroachdb/errors"
	"github.com/lazypower/binder/internal/engine"
)

// Config holds all binder configuration.
type Config struct {
	Server   ServerConfig     `toml:"server"`
	Database DatabaseConfig   `toml:"database"`
	Caps     engine.CapConfig `toml:"caps"`
	Scoring  ScoringConfig    `toml:"scoring"`
	Log      LogConfig        `toml:"log"`
}

type ServerConfig struct {
	Bind string `toml:"bind"`
	Port int    `toml:"port"`
}

type DatabaseConfig struct {
	Path string `toml:"path"`
}

type ScoringConfig struct {
	Workers int `toml:"workers"` // 0 or 1 scores sequentially
}

type LogConfig struct {
	Level string `toml:"level"` // debug, info, warn, error
	File  string `toml:"file"`  // JSON log file; empty logs to stderr only
}

// Default returns a Config with sensible defaults.
func Default() Config {
	return Config{
		Server: ServerConfig{
			Bind: "127.0.0.1",
			Port: 37778,
		},
		Database: DatabaseConfig{
			Path: "", // resolved at runtime via store.DefaultDBPath()
		},
		Caps: engine.DefaultCaps(),
		Log: LogConfig{
			Level: "info",
		},
	}
}

// DefaultPath returns the default config file path: ~/.binder/config.toml
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", errors.Wrap(err, "get home dir")
	}
	return filepath.Join(home, ".binder", "config.toml"), nil
}

// Load reads a TOML config file over the defaults, then applies env
// overrides. A missing file is not an error.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		if _, err := toml.DecodeFile(path, &cfg); err != nil && !errors.Is(err, os.ErrNotExist) {
			return cfg, errors.Wrapf(err, "load config %s", path)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return cfg, err
	}
	if err := cfg.Caps.Validate(); err != nil {
		return cfg, errors.Wrap(err, "config caps")
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	if v := os.Getenv("BINDER_DB"); v != "" {
		c.Database.Path = v
	}
	if v := os.Getenv("BINDER_LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
	if v := os.Getenv("BINDER_LOG_FILE"); v != "" {
		c.Log.File = v
	}
	if v := os.Getenv("BINDER_WORKERS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return errors.Wrapf(err, "BINDER_WORKERS=%q", v)
		}
		c.Scoring.Workers = n
	}
	return nil
}

// ListenAddr returns the bind:port address string.
func (c *Config) ListenAddr() string {
	return fmt.Sprintf("%s:%d", c.Server.Bind, c.Server.Port)
}

// LogLevel parses Log.Level, defaulting to info.
func (c *Config) LogLevel() slog.Level {
	switch strings.ToUpper(c.Log.Level) {
	case "DEBUG":
		return slog.LevelDebug
	case "WARN", "WARNING":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
