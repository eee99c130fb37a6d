// Package config handles application configuration
package config

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

//go:embed config.sample.yaml
var sampleConfig string

// GetSampleConfig returns the embedded sample configuration content
func GetSampleConfig() string {
	return sampleConfig
}

// Network modes
const (
	NetworkAuto    = "auto"
	NetworkOnline  = "online"
	NetworkOffline = "offline"
)

// StorageConfig selects the key-value store holding the task list
type StorageConfig struct {
	Backend string `yaml:"backend" toml:"backend"` // sqlite, file, memory
	Path    string `yaml:"path" toml:"path"`
}

// NetworkConfig controls where the connectivity signal comes from
type NetworkConfig struct {
	Mode       string `yaml:"mode" toml:"mode"`               // auto, online, offline
	StatusFile string `yaml:"status_file" toml:"status_file"` // offline flag file watched in auto mode
	DebounceMs int    `yaml:"debounce_ms" toml:"debounce_ms"`
}

// UIConfig holds user interface settings
type UIConfig struct {
	DrawerBreakpoint int `yaml:"drawer_breakpoint" toml:"drawer_breakpoint"`
}

// LoggingConfig holds logging settings
type LoggingConfig struct {
	BackgroundEnabled *bool `yaml:"background_enabled" toml:"background_enabled"` // Controls background log file creation (default: true)
}

// Config represents the application configuration
type Config struct {
	Storage      StorageConfig `yaml:"storage" toml:"storage"`
	Network      NetworkConfig `yaml:"network" toml:"network"`
	UI           UIConfig      `yaml:"ui" toml:"ui"`
	Logging      LoggingConfig `yaml:"logging" toml:"logging"`
	OutputFormat string        `yaml:"output_format" toml:"output_format"`
	NoPrompt     bool          `yaml:"no_prompt" toml:"no_prompt"`
}

// DefaultConfig returns a config with sensible defaults
func DefaultConfig() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

// applyDefaults fills unset fields
func (c *Config) applyDefaults() {
	if c.Storage.Backend == "" {
		c.Storage.Backend = "sqlite"
	}
	if c.Storage.Path == "" {
		switch c.Storage.Backend {
		case "sqlite":
			c.Storage.Path = filepath.Join(GetDataDir(), "thingsish.db")
		case "file":
			c.Storage.Path = filepath.Join(GetDataDir(), "store")
		}
	}
	c.Storage.Path = ExpandPath(c.Storage.Path)

	if c.Network.Mode == "" {
		c.Network.Mode = NetworkAuto
	}
	if c.Network.StatusFile == "" {
		c.Network.StatusFile = filepath.Join(GetStateDir(), "offline")
	}
	c.Network.StatusFile = ExpandPath(c.Network.StatusFile)

	if c.OutputFormat == "" {
		c.OutputFormat = "text"
	}
}

// Load loads configuration from the specified path, or the default XDG path if empty.
// If the config file doesn't exist, it creates one from the embedded sample.
// Files ending in .toml are read as TOML, everything else as YAML.
func Load(configPath string) (*Config, error) {
	if configPath == "" {
		configPath = filepath.Join(GetConfigDir(), "config.yaml")
	}
	isTOML := strings.EqualFold(filepath.Ext(configPath), ".toml")

	// Check if config file exists
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		cfg := DefaultConfig()
		if err := cfg.save(configPath, isTOML); err != nil {
			return nil, fmt.Errorf("failed to create default config: %w", err)
		}
		return cfg, nil
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if isTOML {
		return ParseTOML(data)
	}
	return Parse(data)
}

// Parse decodes YAML bytes and applies defaults for unset fields.
func Parse(data []byte) (*Config, error) {
	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("invalid YAML in config file: %w", err)
	}
	cfg.applyDefaults()
	return cfg, nil
}

// ParseTOML decodes TOML bytes and applies defaults for unset fields.
func ParseTOML(data []byte) (*Config, error) {
	cfg := &Config{}
	if _, err := toml.Decode(string(data), cfg); err != nil {
		return nil, fmt.Errorf("invalid TOML in config file: %w", err)
	}
	cfg.applyDefaults()
	return cfg, nil
}

// save writes the configuration to the specified path
func (c *Config) save(path string, asTOML bool) error {
	// Ensure directory exists
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if asTOML {
		f, err := os.Create(path)
		if err != nil {
			return fmt.Errorf("failed to write config file: %w", err)
		}
		defer func() { _ = f.Close() }()
		if err := toml.NewEncoder(f).Encode(c); err != nil {
			return fmt.Errorf("failed to write config file: %w", err)
		}
		return nil
	}

	// Use the embedded sample config which includes all documentation and comments
	if err := os.WriteFile(path, []byte(sampleConfig), 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.OutputFormat != "text" && c.OutputFormat != "json" {
		return fmt.Errorf("invalid output_format: %q (must be 'text' or 'json')", c.OutputFormat)
	}

	validBackends := map[string]bool{"sqlite": true, "file": true, "memory": true}
	if !validBackends[c.Storage.Backend] {
		return fmt.Errorf("unknown storage.backend: %q", c.Storage.Backend)
	}

	switch c.Network.Mode {
	case NetworkAuto, NetworkOnline, NetworkOffline:
	default:
		return fmt.Errorf("invalid network.mode: %q (must be 'auto', 'online' or 'offline')", c.Network.Mode)
	}

	if c.Network.DebounceMs < 0 {
		return fmt.Errorf("network.debounce_ms must not be negative, got %d", c.Network.DebounceMs)
	}
	if c.UI.DrawerBreakpoint < 0 {
		return fmt.Errorf("ui.drawer_breakpoint must not be negative, got %d", c.UI.DrawerBreakpoint)
	}

	return nil
}

// ApplyFlags applies CLI flag overrides to the configuration
func (c *Config) ApplyFlags(noPrompt bool, outputFormat string) {
	if noPrompt {
		c.NoPrompt = true
	}
	if outputFormat != "" {
		c.OutputFormat = outputFormat
	}
}

// GetNetworkDebounce returns the flag file debounce window.
// Returns 100ms if not configured.
func (c *Config) GetNetworkDebounce() time.Duration {
	if c.Network.DebounceMs <= 0 {
		return 100 * time.Millisecond
	}
	return time.Duration(c.Network.DebounceMs) * time.Millisecond
}

// GetDrawerBreakpoint returns the terminal width at or below which the
// projects pane becomes a drawer. Returns 86 if not configured.
func (c *Config) GetDrawerBreakpoint() int {
	if c.UI.DrawerBreakpoint <= 0 {
		return 86
	}
	return c.UI.DrawerBreakpoint
}

// IsBackgroundLoggingEnabled returns true if background logging is enabled.
// Returns true (default) if not configured.
func (c *Config) IsBackgroundLoggingEnabled() bool {
	if c.Logging.BackgroundEnabled == nil {
		return true
	}
	return *c.Logging.BackgroundEnabled
}

// getXDGDir returns a directory path following XDG spec.
// envVar is the XDG environment variable (e.g., "XDG_CONFIG_HOME").
// fallbackPath is the relative path from home (e.g., ".config").
func getXDGDir(envVar, fallbackPath string) string {
	if xdgDir := os.Getenv(envVar); xdgDir != "" {
		return filepath.Join(xdgDir, "thingsish")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", fallbackPath, "thingsish")
	}
	return filepath.Join(home, fallbackPath, "thingsish")
}

// GetConfigDir returns the configuration directory following XDG spec
func GetConfigDir() string {
	return getXDGDir("XDG_CONFIG_HOME", ".config")
}

// GetDataDir returns the data directory following XDG spec
func GetDataDir() string {
	return getXDGDir("XDG_DATA_HOME", filepath.Join(".local", "share"))
}

// GetStateDir returns the state directory following XDG spec
func GetStateDir() string {
	return getXDGDir("XDG_STATE_HOME", filepath.Join(".local", "state"))
}

// ExpandPath expands ~ and environment variables in a path
func ExpandPath(path string) string {
	if path == "" {
		return path
	}

	// Expand ~ to home directory
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err == nil {
			path = filepath.Join(home, path[2:])
		}
	}

	return os.ExpandEnv(path)
}
