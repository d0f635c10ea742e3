// Package config loads the optional .unstar.toml file.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

// FileName is the config file looked up in the analyzed root.
const FileName = ".unstar.toml"

const (
	defaultLineLength = 79
	defaultDebounce   = 300 * time.Millisecond
)

// DefaultExcludedDirs are skipped when the config names no directories.
var DefaultExcludedDirs = []string{".git", "__pycache__", ".venv", "venv", "node_modules", ".tox", "build"}

type Config struct {
	SearchPath []string `toml:"search_path"`
	LineLength int      `toml:"line_length"`
	Exclude    Exclude  `toml:"exclude"`
	Watch      Watch    `toml:"watch"`
}

type Exclude struct {
	Dirs  []string `toml:"dirs"`
	Files []string `toml:"files"`
}

type Watch struct {
	Debounce time.Duration `toml:"debounce"`
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	meta, err := toml.Decode(string(data), &cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, key := range undecoded {
			keys[i] = key.String()
		}
		return nil, fmt.Errorf("unknown keys in %s: %s", path, strings.Join(keys, ", "))
	}
	if cfg.LineLength < 0 {
		return nil, fmt.Errorf("line_length in %s must be positive, got %d", path, cfg.LineLength)
	}

	cfg.applyDefaults()
	return &cfg, nil
}

// LoadOrDefault loads explicit when it is set. Otherwise it loads
// FileName from root if present and falls back to Default.
func LoadOrDefault(root, explicit string) (*Config, error) {
	if explicit != "" {
		return Load(explicit)
	}

	cfg, err := Load(filepath.Join(root, FileName))
	if errors.Is(err, fs.ErrNotExist) {
		return Default(), nil
	}
	return cfg, err
}

func (c *Config) applyDefaults() {
	if c.LineLength == 0 {
		c.LineLength = defaultLineLength
	}
	if c.Watch.Debounce == 0 {
		c.Watch.Debounce = defaultDebounce
	}
	if len(c.Exclude.Dirs) == 0 {
		c.Exclude.Dirs = append([]string(nil), DefaultExcludedDirs...)
	}
}

// ModuleSearchPath orders the directories searched for modules: root,
// then extra (from flags), then the configured search_path relative to
// root, then $PYTHONPATH.
func (c *Config) ModuleSearchPath(root string, extra []string) []string {
	dirs := []string{root}
	dirs = append(dirs, extra...)
	for _, dir := range c.SearchPath {
		if !filepath.IsAbs(dir) {
			dir = filepath.Join(root, dir)
		}
		dirs = append(dirs, dir)
	}
	if pythonPath := os.Getenv("PYTHONPATH"); pythonPath != "" {
		dirs = append(dirs, filepath.SplitList(pythonPath)...)
	}
	return dirs
}
