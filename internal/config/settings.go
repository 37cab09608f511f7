package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Settings are the process level options of the runner.
type Settings struct {
	RouteDir     string // Root of the route versions
	RouteVersion string // Sub directory holding map_*.json
	ConfigPath   string // Key/value store file
	AssetsDir    string // Root the template paths are relative to
	LogLevel     string
	Display      int
	DayResetHour int // Hour at which a new game day starts
}

// DefaultSettings returns the built-in defaults.
func DefaultSettings() Settings {
	return Settings{
		RouteDir:     "map",
		RouteVersion: "default",
		ConfigPath:   "config.yaml",
		AssetsDir:    ".",
		LogLevel:     "info",
		Display:      0,
		DayResetHour: 4,
	}
}

// LoadSettings layers defaults, the optional env file and the process
// environment, later layers winning. Variables already present in the
// environment are not overridden by the file.
func LoadSettings(envFile string) (Settings, error) {
	s := DefaultSettings()

	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return s, fmt.Errorf("load %s: %w", envFile, err)
		}
	}

	if v := os.Getenv("ROUTE_DIR"); v != "" {
		s.RouteDir = v
	}
	if v := os.Getenv("ROUTE_VERSION"); v != "" {
		s.RouteVersion = v
	}
	if v := os.Getenv("ROUTE_CONFIG"); v != "" {
		s.ConfigPath = v
	}
	if v := os.Getenv("ROUTE_ASSETS"); v != "" {
		s.AssetsDir = v
	}
	if v := os.Getenv("ROUTE_LOG_LEVEL"); v != "" {
		s.LogLevel = v
	}
	if v := os.Getenv("ROUTE_DISPLAY"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return s, fmt.Errorf("ROUTE_DISPLAY: %w", err)
		}
		s.Display = n
	}
	if v := os.Getenv("ROUTE_DAY_RESET_HOUR"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 || n > 23 {
			return s, fmt.Errorf("ROUTE_DAY_RESET_HOUR must be an hour 0-23, got %q", v)
		}
		s.DayResetHour = n
	}
	return s, nil
}
