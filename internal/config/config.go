package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	homedir "github.com/mitchellh/go-homedir"
	toml "github.com/pelletier/go-toml/v2"
)

// Config holds everything cargodash reads from config.toml.
type Config struct {
	APIBase        string
	UserID         string
	LogFile        string
	LogLevel       string
	MetricsBind    string
	ExportDir      string
	ClockInterval  time.Duration
	HealthInterval time.Duration
}

const (
	// DefaultPath is where Load looks when no path is given.
	DefaultPath = "~/.config/cargodash/config.toml"

	defaultAPIBase        = "http://localhost:8000"
	defaultUserID         = "astronaut1"
	defaultLogFile        = "~/.local/state/cargodash/cargodash.log"
	defaultLogLevel       = "info"
	defaultExportDir      = "."
	defaultClockSeconds   = 60
	defaultHealthSeconds  = 5
	minimumIntervalSecond = 1
)

// Default returns the configuration used when no file exists.
func Default() Config {
	return Config{
		APIBase:        defaultAPIBase,
		UserID:         defaultUserID,
		LogFile:        mustExpand(defaultLogFile),
		LogLevel:       defaultLogLevel,
		ExportDir:      mustExpand(defaultExportDir),
		ClockInterval:  defaultClockSeconds * time.Second,
		HealthInterval: defaultHealthSeconds * time.Second,
	}
}

// Load locates and parses the config, falling back to defaults when missing.
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
		APIBase               string  `toml:"api_base"`
		UserID                string  `toml:"user_id"`
		LogFile               *string `toml:"log_file"`
		LogLevel              string  `toml:"log_level"`
		MetricsBind           string  `toml:"metrics_bind"`
		ExportDir             string  `toml:"export_dir"`
		ClockIntervalSeconds  int     `toml:"clock_interval_seconds"`
		HealthIntervalSeconds int     `toml:"health_interval_seconds"`
	}
	if err := toml.Unmarshal(bytes, &raw); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}

	if v := strings.TrimSpace(raw.APIBase); v != "" {
		cfg.APIBase = v
	}
	if v := strings.TrimSpace(raw.UserID); v != "" {
		cfg.UserID = v
	}
	// An explicit empty log_file turns logging off.
	if raw.LogFile != nil {
		cfg.LogFile = ""
		if v := strings.TrimSpace(*raw.LogFile); v != "" {
			cfg.LogFile = mustExpand(v)
		}
	}
	if v := strings.TrimSpace(raw.LogLevel); v != "" {
		cfg.LogLevel = strings.ToLower(v)
	}
	cfg.MetricsBind = strings.TrimSpace(raw.MetricsBind)
	if v := strings.TrimSpace(raw.ExportDir); v != "" {
		cfg.ExportDir = mustExpand(v)
	}
	if raw.ClockIntervalSeconds >= minimumIntervalSecond {
		cfg.ClockInterval = time.Duration(raw.ClockIntervalSeconds) * time.Second
	}
	if raw.HealthIntervalSeconds >= minimumIntervalSecond {
		cfg.HealthInterval = time.Duration(raw.HealthIntervalSeconds) * time.Second
	}

	return cfg, nil
}

// ExportPath returns where an arrangement export named filename lands.
func (c Config) ExportPath(filename string) string {
	dir := strings.TrimSpace(c.ExportDir)
	if dir == "" {
		dir = mustExpand(defaultExportDir)
	}
	return filepath.Join(dir, filename)
}

func resolvePath(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return ExpandPath(DefaultPath)
	}
	return ExpandPath(path)
}

func mustExpand(path string) string {
	expanded, err := ExpandPath(path)
	if err != nil {
		return path
	}
	return expanded
}

// ExpandPath resolves a leading ~ and returns an absolute path.
func ExpandPath(path string) (string, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return "", fmt.Errorf("path is empty")
	}
	expanded, err := homedir.Expand(trimmed)
	if err != nil {
		return "", fmt.Errorf("resolve home dir: %w", err)
	}
	return filepath.Abs(expanded)
}
