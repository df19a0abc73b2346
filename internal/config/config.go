// Package config manages cw user configuration.
//
// Configuration lives in a YAML file at $CW_CONFIG_PATH, or
// $XDG_CONFIG_HOME/cw/config.yaml (~/.config/cw/config.yaml by default).
// A missing file yields the defaults.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Config is the user configuration
type Config struct {
	BackupsDir string   `yaml:"backups_dir,omitempty"`
	Remote     string   `yaml:"remote,omitempty"`
	LogFile    string   `yaml:"log_file,omitempty"`
	PR         PRConfig `yaml:"pr,omitempty"`
}

// PRConfig holds defaults for pull request creation
type PRConfig struct {
	Draft      bool   `yaml:"draft,omitempty"`
	BaseRemote string `yaml:"base_remote,omitempty"`
}

// DefaultConfig returns the configuration used when no file exists
func DefaultConfig() Config {
	dir := Dir()
	return Config{
		BackupsDir: filepath.Join(dir, "backups"),
		Remote:     "origin",
		LogFile:    filepath.Join(dir, "cw.log"),
	}
}

// Dir returns the cw configuration directory
func Dir() string {
	if xdgConfig := os.Getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
		return filepath.Join(xdgConfig, "cw")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".config", "cw")
	}
	return filepath.Join(home, ".config", "cw")
}

// Path returns the location of the configuration file
func Path() string {
	if p := os.Getenv("CW_CONFIG_PATH"); p != "" {
		return p
	}
	return filepath.Join(Dir(), "config.yaml")
}

// Load reads the configuration from Path
func Load() (Config, error) {
	return LoadFrom(Path())
}

// LoadFrom reads the configuration at configPath, filling unset fields with defaults
func LoadFrom(configPath string) (Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(configPath)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("failed to read config %s: %w", configPath, err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return DefaultConfig(), fmt.Errorf("failed to parse config %s: %w", configPath, err)
	}

	defaults := DefaultConfig()
	if cfg.BackupsDir == "" {
		cfg.BackupsDir = defaults.BackupsDir
	}
	if cfg.Remote == "" {
		cfg.Remote = defaults.Remote
	}
	if cfg.LogFile == "" {
		cfg.LogFile = defaults.LogFile
	}
	cfg.BackupsDir = expandHome(cfg.BackupsDir)
	cfg.LogFile = expandHome(cfg.LogFile)
	return cfg, nil
}

// SaveTo writes cfg as YAML to configPath
func SaveTo(configPath string, cfg Config) error {
	if err := os.MkdirAll(filepath.Dir(configPath), 0750); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	data, err := yaml.Marshal(&cfg)
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	if err := os.WriteFile(configPath, data, 0600); err != nil {
		return fmt.Errorf("failed to write config %s: %w", configPath, err)
	}
	return nil
}

type field struct {
	get func(*Config) string
	set func(*Config, string) error
}

var fields = map[string]field{
	"backups_dir": {
		get: func(c *Config) string { return c.BackupsDir },
		set: func(c *Config, v string) error { c.BackupsDir = v; return nil },
	},
	"remote": {
		get: func(c *Config) string { return c.Remote },
		set: func(c *Config, v string) error { c.Remote = v; return nil },
	},
	"log_file": {
		get: func(c *Config) string { return c.LogFile },
		set: func(c *Config, v string) error { c.LogFile = v; return nil },
	},
	"pr.draft": {
		get: func(c *Config) string { return strconv.FormatBool(c.PR.Draft) },
		set: func(c *Config, v string) error {
			b, err := strconv.ParseBool(v)
			if err != nil {
				return fmt.Errorf("pr.draft must be true or false, got %q", v)
			}
			c.PR.Draft = b
			return nil
		},
	},
	"pr.base_remote": {
		get: func(c *Config) string { return c.PR.BaseRemote },
		set: func(c *Config, v string) error { c.PR.BaseRemote = v; return nil },
	},
}

// Keys lists the settable configuration keys
func Keys() []string {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Get returns the value of a dotted configuration key
func (c *Config) Get(key string) (string, error) {
	f, ok := fields[key]
	if !ok {
		return "", fmt.Errorf("unknown config key %q (valid keys: %v)", key, Keys())
	}
	return f.get(c), nil
}

// Set assigns a dotted configuration key
func (c *Config) Set(key, value string) error {
	f, ok := fields[key]
	if !ok {
		return fmt.Errorf("unknown config key %q (valid keys: %v)", key, Keys())
	}
	return f.set(c, value)
}

func expandHome(p string) string {
	if len(p) >= 2 && p[:2] == "~/" {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, p[2:])
		}
	}
	return p
}
