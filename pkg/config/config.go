// Package config loads and persists scrapbook session configuration.
// Configuration lives in a YAML file, defaulting to
// ~/.scrapbook/config.yaml; a missing file yields the defaults.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Defaults for a fresh session.
const (
	DefaultLinkPrefix  = "result"
	DefaultImagePrefix = "img"
	DefaultPadWidth    = 5
)

// Config holds everything a capture session needs to start.
type Config struct {
	// OutputDir is the root of the artifact tree (links/, images/).
	OutputDir string `yaml:"output_dir"`

	// StartURL is opened in the first tab when the session starts.
	StartURL string `yaml:"start_url,omitempty"`

	// Headless controls the browser launch mode. Capture sessions are
	// interactive, so headed is the default.
	Headless bool `yaml:"headless"`

	// LinkPrefix and ImagePrefix name the numbered artifact files,
	// e.g. result-00042.txt and img-00042.jpg.
	LinkPrefix  string `yaml:"link_prefix"`
	ImagePrefix string `yaml:"image_prefix"`

	// PadWidth is the zero-padded width of artifact sequence numbers.
	PadWidth int `yaml:"pad_width"`
}

// Default returns the default configuration, rooted in the current
// working directory.
func Default() Config {
	return Config{
		OutputDir:   "scrapbook-out",
		Headless:    false,
		LinkPrefix:  DefaultLinkPrefix,
		ImagePrefix: DefaultImagePrefix,
		PadWidth:    DefaultPadWidth,
	}
}

// DefaultPath returns ~/.scrapbook/config.yaml.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, ".scrapbook", "config.yaml"), nil
}

// Load reads the configuration at path. A missing file is not an error;
// the defaults are returned. Fields absent from the file keep their
// default values.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("failed to read config %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("failed to parse config %s: %w", path, err)
	}

	cfg.normalize()
	return cfg, nil
}

// Save writes the configuration to path, creating parent directories.
func Save(path string, cfg Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0750); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config %s: %w", path, err)
	}
	return nil
}

func (c *Config) normalize() {
	if c.LinkPrefix == "" {
		c.LinkPrefix = DefaultLinkPrefix
	}
	if c.ImagePrefix == "" {
		c.ImagePrefix = DefaultImagePrefix
	}
	if c.PadWidth <= 0 {
		c.PadWidth = DefaultPadWidth
	}
	if c.OutputDir == "" {
		c.OutputDir = Default().OutputDir
	}
}
