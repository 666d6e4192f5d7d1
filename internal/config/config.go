package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	toml "github.com/pelletier/go-toml/v2"
)

// Config holds listsync settings.
type Config struct {
	Width      int
	Workers    int
	MaxPending int
	// Journal is the SQLite journal path, or "" for no journal.
	Journal string
	Theme   string
}

const (
	defaultConfigPath = "~/.config/listsync/config.toml"
	defaultWidth      = 40
	defaultTheme      = "Dracula"
)

// Default returns the settings used when no file is present.
func Default() Config {
	return Config{Width: defaultWidth, Theme: defaultTheme}
}

// Load locates and parses the settings file, falling back to defaults when
// it is missing.
func Load(path string) (Config, error) {
	resolved, err := resolvePath(path)
	if err != nil {
		return Config{}, err
	}

	cfg := Default()

	file, err := os.Open(resolved)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return Config{}, fmt.Errorf("open config: %w", err)
	}
	defer file.Close()

	bytes, err := io.ReadAll(file)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}

	var raw struct {
		Width      *int   `toml:"width"`
		Workers    int    `toml:"workers"`
		MaxPending int    `toml:"max_pending"`
		Journal    string `toml:"journal"`
		Theme      string `toml:"theme"`
	}
	if err := toml.Unmarshal(bytes, &raw); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}

	if raw.Width != nil {
		if *raw.Width < 0 {
			return Config{}, fmt.Errorf("parse config: width must be >= 0, got %d", *raw.Width)
		}
		cfg.Width = *raw.Width
	}
	if raw.Workers < 0 {
		return Config{}, fmt.Errorf("parse config: workers must be >= 0, got %d", raw.Workers)
	}
	cfg.Workers = raw.Workers
	if raw.MaxPending < 0 {
		return Config{}, fmt.Errorf("parse config: max_pending must be >= 0, got %d", raw.MaxPending)
	}
	cfg.MaxPending = raw.MaxPending

	if theme := strings.TrimSpace(raw.Theme); theme != "" {
		cfg.Theme = theme
	}
	if journal := strings.TrimSpace(raw.Journal); journal != "" {
		cfg.Journal = mustExpand(journal)
	}
	return cfg, nil
}

func resolvePath(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return expandPath(defaultConfigPath)
	}
	return expandPath(path)
}

func mustExpand(path string) string {
	expanded, err := expandPath(path)
	if err != nil {
		return path
	}
	return expanded
}

func expandPath(path string) (string, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return "", fmt.Errorf("path is empty")
	}
	if strings.HasPrefix(trimmed, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		trimmed = filepath.Join(home, strings.TrimPrefix(trimmed, "~"))
	}
	return filepath.Abs(trimmed)
}
