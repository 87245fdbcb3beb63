// Package config loads mmd2img configuration from YAML files.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/lbreton/go-mmd2img/internal/yamlutil"
)

// Sentinel errors for config operations.
var (
	ErrConfigNotFound  = errors.New("config file not found")
	ErrEmptyConfigName = errors.New("config name cannot be empty")
	ErrConfigParse     = errors.New("failed to parse config")
)

// Config holds all file-based configuration. Command-line flags take
// precedence over values loaded here.
type Config struct {
	Render RenderConfig `yaml:"render"`
	Cache  CacheConfig  `yaml:"cache"`
	Watch  WatchConfig  `yaml:"watch"`
	Input  InputConfig  `yaml:"input"`
	Output OutputConfig `yaml:"output"`
}

// RenderConfig defines rendering defaults.
type RenderConfig struct {
	Format     string  `yaml:"format"`     // "png", "svg", "pdf", "webp" (default: "png")
	Theme      string  `yaml:"theme"`      // "default", "dark", "forest", "neutral"
	Look       string  `yaml:"look"`       // "classic", "handDrawn"
	Background string  `yaml:"background"` // "white", "transparent", or CSS color
	Scale      float64 `yaml:"scale"`      // device scale factor
	Width      int     `yaml:"width"`      // viewport width in pixels
	Height     int     `yaml:"height"`     // viewport height in pixels
	Timeout    string  `yaml:"timeout"`    // per-render timeout, e.g. "10s"
	Pages      int     `yaml:"pages"`      // browser page pool size
}

// CacheConfig defines incremental-render cache options.
type CacheConfig struct {
	Disabled bool   `yaml:"disabled"`
	Dir      string `yaml:"dir"` // cache directory (default: ".mmd2img-cache")
}

// WatchConfig defines watch mode options.
type WatchConfig struct {
	Debounce string `yaml:"debounce"` // e.g. "1s"
}

// InputConfig defines input source options.
type InputConfig struct {
	Pattern string `yaml:"pattern"` // document glob (default: "*.md")
}

// OutputConfig defines output destination options.
type OutputConfig struct {
	DefaultDir string `yaml:"defaultDir"` // default output directory
}

// DefaultConfig returns a neutral configuration; empty fields fall back
// to library defaults.
func DefaultConfig() *Config {
	return &Config{
		Cache: CacheConfig{Dir: ".mmd2img-cache"},
	}
}

// LoadConfig loads configuration from a file path or config name.
// If nameOrPath contains a path separator, it's treated as a file path.
// Otherwise, it's treated as a config name and searched in standard locations.
// Returns error if the file is not found (no silent fallback).
func LoadConfig(nameOrPath string) (*Config, error) {
	if nameOrPath == "" {
		return nil, ErrEmptyConfigName
	}

	var configPath string
	var err error

	if isFilePath(nameOrPath) {
		configPath = nameOrPath
	} else {
		configPath, err = resolveConfigPath(nameOrPath)
		if err != nil {
			return nil, err
		}
	}

	data, err := os.ReadFile(configPath) // #nosec G304 -- config path is user-provided
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrConfigNotFound, configPath)
		}
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	cfg := DefaultConfig()
	if err := yamlutil.UnmarshalStrict(data, cfg); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConfigParse, err)
	}

	return cfg, nil
}

// isFilePath returns true if the string looks like a file path.
func isFilePath(s string) bool {
	return strings.ContainsAny(s, "/\\")
}

// resolveConfigPath searches for a config file by name in standard locations.
// Tries extensions in order: .yaml, .yml
// Tries locations in order: current directory, ~/.config/mmd2img/
func resolveConfigPath(name string) (string, error) {
	extensions := []string{".yaml", ".yml"}
	triedPaths := make([]string, 0, len(extensions)*2)

	for _, ext := range extensions {
		localPath := name + ext
		if fileExists(localPath) {
			return localPath, nil
		}
		triedPaths = append(triedPaths, localPath)
	}

	userConfigDir, err := os.UserConfigDir()
	if err == nil {
		for _, ext := range extensions {
			userPath := filepath.Join(userConfigDir, "mmd2img", name+ext)
			if fileExists(userPath) {
				return userPath, nil
			}
			triedPaths = append(triedPaths, userPath)
		}
	}

	return "", fmt.Errorf("%w: tried %s", ErrConfigNotFound, strings.Join(triedPaths, ", "))
}

// fileExists returns true if the path exists and is a regular file.
func fileExists(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return !info.IsDir()
}
