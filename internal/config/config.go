package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Player configures the mpv backend.
type Player struct {
	Binary string   `toml:"binary"`
	Args   []string `toml:"args"`
	// number of synchronized instances, extra ones are muted
	Instances      int    `toml:"instances"`
	PollIntervalMS int    `toml:"poll_interval_ms"`
	SocketDir      string `toml:"socket_dir"`
	Autoplay       bool   `toml:"autoplay"`
}

// Editor configures caption editing and the display.
type Editor struct {
	DefaultDurationMS int  `toml:"default_duration_ms"`
	Window            int  `toml:"window"`
	BarWidth          int  `toml:"bar_width"`
	SeekSmallMS       int  `toml:"seek_small_ms"`
	SeekLargeMS       int  `toml:"seek_large_ms"`
	SingleStep        bool `toml:"single_step"`
}

// Log configures the editor's log file.
type Log struct {
	File string `toml:"file"`
}

// Translate configures AI caption translation.
type Translate struct {
	Provider    string `toml:"provider"`
	Model       string `toml:"model"`
	APIKey      string `toml:"api_key"`
	BatchSize   int    `toml:"batch_size"`
	Concurrency int    `toml:"concurrency"`
}

// Config encapsulates all configuration values for subscrub.
type Config struct {
	Player    Player    `toml:"player"`
	Editor    Editor    `toml:"editor"`
	Log       Log       `toml:"log"`
	Translate Translate `toml:"translate"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath(defaultConfigPath)
}

// Load locates, parses, and validates a configuration file. A missing file
// yields the defaults.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		decoder.DisallowUnknownFields()
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config %s: %w", resolvedPath, err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path == "" {
		path = os.Getenv("SUBSCRUB_CONFIG")
	}
	if path == "" {
		path = defaultConfigPath
	}

	expanded, err := expandPath(path)
	if err != nil {
		return "", false, err
	}
	info, err := os.Stat(expanded)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return expanded, false, nil
		}
		return "", false, fmt.Errorf("stat config: %w", err)
	}
	if info.IsDir() {
		return "", false, fmt.Errorf("config path %s is a directory", expanded)
	}
	return expanded, true, nil
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	absolute, err := filepath.Abs(filepath.Clean(pathValue))
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", pathValue, err)
	}
	return absolute, nil
}

// CreateSample writes a sample configuration file to the specified location.
// An existing file is left alone.
func CreateSample(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config already exists: %s", path)
	}

	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}

func (c *Config) PollInterval() time.Duration {
	return time.Duration(c.Player.PollIntervalMS) * time.Millisecond
}

func (c *Config) DefaultDuration() time.Duration {
	return time.Duration(c.Editor.DefaultDurationMS) * time.Millisecond
}

func (c *Config) SeekSmall() time.Duration {
	return time.Duration(c.Editor.SeekSmallMS) * time.Millisecond
}

func (c *Config) SeekLarge() time.Duration {
	return time.Duration(c.Editor.SeekLargeMS) * time.Millisecond
}
