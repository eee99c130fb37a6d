package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

// =============================================================================
// Configuration System Tests
// =============================================================================

// TestConfigAutoCreate verifies first run creates config file at XDG path with defaults
func TestConfigAutoCreate(t *testing.T) {
	tmpDir := t.TempDir()
	configDir := filepath.Join(tmpDir, "config")
	dataDir := filepath.Join(tmpDir, "data")
	stateDir := filepath.Join(tmpDir, "state")

	t.Setenv("XDG_CONFIG_HOME", configDir)
	t.Setenv("XDG_DATA_HOME", dataDir)
	t.Setenv("XDG_STATE_HOME", stateDir)
	t.Setenv("HOME", tmpDir)

	// Load config (should auto-create)
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	configPath := filepath.Join(configDir, "thingsish", "config.yaml")
	data, err := os.ReadFile(configPath)
	if err != nil {
		t.Fatalf("config file not created at %s: %v", configPath, err)
	}
	if string(data) != GetSampleConfig() {
		t.Error("created config should be the embedded sample")
	}

	if cfg.Storage.Backend != "sqlite" {
		t.Errorf("expected Storage.Backend = 'sqlite', got %q", cfg.Storage.Backend)
	}
	if want := filepath.Join(dataDir, "thingsish", "thingsish.db"); cfg.Storage.Path != want {
		t.Errorf("expected Storage.Path = %q, got %q", want, cfg.Storage.Path)
	}
	if want := filepath.Join(stateDir, "thingsish", "offline"); cfg.Network.StatusFile != want {
		t.Errorf("expected Network.StatusFile = %q, got %q", want, cfg.Network.StatusFile)
	}
	if cfg.Network.Mode != NetworkAuto {
		t.Errorf("expected Network.Mode = 'auto', got %q", cfg.Network.Mode)
	}
	if cfg.OutputFormat != "text" {
		t.Errorf("expected OutputFormat = 'text', got %q", cfg.OutputFormat)
	}
}

// TestSampleConfigParses verifies the embedded sample is a valid configuration
func TestSampleConfigParses(t *testing.T) {
	t.Setenv("XDG_DATA_HOME", t.TempDir())

	cfg, err := Parse([]byte(GetSampleConfig()))
	if err != nil {
		t.Fatalf("Parse(sample) error = %v", err)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("sample config should validate: %v", err)
	}
	if cfg.GetDrawerBreakpoint() != 86 {
		t.Errorf("GetDrawerBreakpoint() = %d, want 86", cfg.GetDrawerBreakpoint())
	}
	if cfg.GetNetworkDebounce() != 100*time.Millisecond {
		t.Errorf("GetNetworkDebounce() = %v, want 100ms", cfg.GetNetworkDebounce())
	}
	if !cfg.IsBackgroundLoggingEnabled() {
		t.Error("sample config should enable background logging")
	}
}

// TestConfigCustomPath verifies --config /path/to/config.yaml uses specified config
func TestConfigCustomPath(t *testing.T) {
	tmpDir := t.TempDir()

	customConfigPath := filepath.Join(tmpDir, "custom-config.yaml")
	customConfig := `
storage:
  backend: file
  path: "/custom/path/store"
network:
  mode: offline
  status_file: "/custom/offline"
ui:
  drawer_breakpoint: 120
logging:
  background_enabled: false
no_prompt: true
output_format: json
`
	if err := os.WriteFile(customConfigPath, []byte(customConfig), 0644); err != nil {
		t.Fatalf("failed to write custom config: %v", err)
	}

	cfg, err := Load(customConfigPath)
	if err != nil {
		t.Fatalf("Load(%q) error = %v", customConfigPath, err)
	}

	if cfg.Storage.Backend != "file" {
		t.Errorf("expected Storage.Backend = 'file', got %q", cfg.Storage.Backend)
	}
	if cfg.Storage.Path != "/custom/path/store" {
		t.Errorf("expected Storage.Path = '/custom/path/store', got %q", cfg.Storage.Path)
	}
	if cfg.Network.Mode != NetworkOffline {
		t.Errorf("expected Network.Mode = 'offline', got %q", cfg.Network.Mode)
	}
	if cfg.Network.StatusFile != "/custom/offline" {
		t.Errorf("expected Network.StatusFile = '/custom/offline', got %q", cfg.Network.StatusFile)
	}
	if cfg.GetDrawerBreakpoint() != 120 {
		t.Errorf("expected drawer breakpoint 120, got %d", cfg.GetDrawerBreakpoint())
	}
	if cfg.IsBackgroundLoggingEnabled() {
		t.Error("expected background logging to be disabled")
	}
	if !cfg.NoPrompt {
		t.Errorf("expected NoPrompt = true, got %v", cfg.NoPrompt)
	}
	if cfg.OutputFormat != "json" {
		t.Errorf("expected OutputFormat = 'json', got %q", cfg.OutputFormat)
	}
}

// TestConfigMemoryBackendHasNoPath verifies the memory store needs no path
func TestConfigMemoryBackendHasNoPath(t *testing.T) {
	cfg, err := Parse([]byte("storage:\n  backend: memory\n"))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if cfg.Storage.Path != "" {
		t.Errorf("expected empty path for memory backend, got %q", cfg.Storage.Path)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate() error = %v", err)
	}
}

// TestConfigFlagOverride verifies CLI flags override config values
func TestConfigFlagOverride(t *testing.T) {
	cfg, err := Parse([]byte("no_prompt: false\noutput_format: text\n"))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	cfg.ApplyFlags(true, "json")

	if !cfg.NoPrompt {
		t.Errorf("expected NoPrompt = true after flag override, got %v", cfg.NoPrompt)
	}
	if cfg.OutputFormat != "json" {
		t.Errorf("expected OutputFormat = 'json' after flag override, got %q", cfg.OutputFormat)
	}

	// Unset flags leave config values alone
	cfg.ApplyFlags(false, "")
	if !cfg.NoPrompt || cfg.OutputFormat != "json" {
		t.Error("ApplyFlags with zero values should not reset config")
	}
}

// TestConfigInvalid verifies invalid YAML returns clear error message
func TestConfigInvalid(t *testing.T) {
	tmpDir := t.TempDir()

	invalidConfig := `
storage:
  backend: [invalid yaml structure
`
	configPath := filepath.Join(tmpDir, "config.yaml")
	if err := os.WriteFile(configPath, []byte(invalidConfig), 0644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	_, err := Load(configPath)
	if err == nil {
		t.Fatal("expected error for invalid YAML, got nil")
	}
	if !strings.Contains(err.Error(), "invalid YAML") {
		t.Errorf("error should mention invalid YAML, got: %v", err)
	}
}

// TestConfigTOML verifies a .toml config path is decoded as TOML
func TestConfigTOML(t *testing.T) {
	tmpDir := t.TempDir()

	configPath := filepath.Join(tmpDir, "config.toml")
	body := `
output_format = "json"
no_prompt = true

[storage]
backend = "file"
path = "/custom/store"

[network]
mode = "online"
debounce_ms = 250

[ui]
drawer_breakpoint = 100
`
	if err := os.WriteFile(configPath, []byte(body), 0644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Load(%q) error = %v", configPath, err)
	}
	if cfg.Storage.Backend != "file" || cfg.Storage.Path != "/custom/store" {
		t.Errorf("unexpected storage: %+v", cfg.Storage)
	}
	if cfg.Network.Mode != NetworkOnline {
		t.Errorf("expected Network.Mode = 'online', got %q", cfg.Network.Mode)
	}
	if cfg.GetNetworkDebounce() != 250*time.Millisecond {
		t.Errorf("GetNetworkDebounce() = %v, want 250ms", cfg.GetNetworkDebounce())
	}
	if cfg.GetDrawerBreakpoint() != 100 {
		t.Errorf("GetDrawerBreakpoint() = %d, want 100", cfg.GetDrawerBreakpoint())
	}
	if !cfg.NoPrompt || cfg.OutputFormat != "json" {
		t.Errorf("top-level keys not applied: %+v", cfg)
	}
}

// TestConfigTOMLAutoCreate verifies a missing .toml config is written as TOML
func TestConfigTOMLAutoCreate(t *testing.T) {
	tmpDir := t.TempDir()
	t.Setenv("XDG_DATA_HOME", filepath.Join(tmpDir, "data"))
	t.Setenv("XDG_STATE_HOME", filepath.Join(tmpDir, "state"))

	configPath := filepath.Join(tmpDir, "nested", "config.toml")
	created, err := Load(configPath)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		t.Fatalf("config file not created: %v", err)
	}
	if !strings.Contains(string(data), "[storage]") {
		t.Errorf("expected TOML table headers, got:\n%s", data)
	}

	reloaded, err := Load(configPath)
	if err != nil {
		t.Fatalf("reload error = %v", err)
	}
	if reloaded.Storage != created.Storage || reloaded.Network != created.Network {
		t.Errorf("round trip mismatch: %+v != %+v", reloaded, created)
	}
}

// TestConfigInvalidTOML verifies malformed TOML returns a clear error message
func TestConfigInvalidTOML(t *testing.T) {
	_, err := ParseTOML([]byte("[storage\nbackend = 1"))
	if err == nil {
		t.Fatal("expected error for invalid TOML, got nil")
	}
	if !strings.Contains(err.Error(), "invalid TOML") {
		t.Errorf("error should mention invalid TOML, got: %v", err)
	}
}

// TestConfigValidation verifies config validation catches invalid values
func TestConfigValidation(t *testing.T) {
	valid := func() *Config {
		return &Config{
			Storage:      StorageConfig{Backend: "sqlite", Path: "/path/to/db"},
			Network:      NetworkConfig{Mode: NetworkAuto},
			OutputFormat: "text",
		}
	}

	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr bool
	}{
		{"valid config", func(c *Config) {}, false},
		{"invalid output format", func(c *Config) { c.OutputFormat = "invalid" }, true},
		{"unknown storage backend", func(c *Config) { c.Storage.Backend = "redis" }, true},
		{"invalid network mode", func(c *Config) { c.Network.Mode = "sometimes" }, true},
		{"negative debounce", func(c *Config) { c.Network.DebounceMs = -1 }, true},
		{"negative breakpoint", func(c *Config) { c.UI.DrawerBreakpoint = -5 }, true},
		{"forced offline", func(c *Config) { c.Network.Mode = NetworkOffline }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

// TestDefaultConfig verifies default config values
func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Storage.Backend != "sqlite" {
		t.Errorf("Storage.Backend = %q, want 'sqlite'", cfg.Storage.Backend)
	}
	if cfg.NoPrompt {
		t.Errorf("NoPrompt = %v, want false", cfg.NoPrompt)
	}
	if cfg.OutputFormat != "text" {
		t.Errorf("OutputFormat = %q, want 'text'", cfg.OutputFormat)
	}
	if cfg.GetDrawerBreakpoint() != 86 {
		t.Errorf("GetDrawerBreakpoint() = %d, want 86", cfg.GetDrawerBreakpoint())
	}
	if cfg.GetNetworkDebounce() != 100*time.Millisecond {
		t.Errorf("GetNetworkDebounce() = %v, want 100ms", cfg.GetNetworkDebounce())
	}
	if !cfg.IsBackgroundLoggingEnabled() {
		t.Error("background logging should be enabled by default")
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should validate: %v", err)
	}
}

// =============================================================================
// Unit Tests for XDG Path Handling
// =============================================================================

// TestXDGPathExpansion verifies XDG directories honour their environment variables
func TestXDGPathExpansion(t *testing.T) {
	tmpDir := t.TempDir()

	tests := []struct {
		name   string
		envVar string
		get    func() string
	}{
		{"XDG_CONFIG_HOME set", "XDG_CONFIG_HOME", GetConfigDir},
		{"XDG_DATA_HOME set", "XDG_DATA_HOME", GetDataDir},
		{"XDG_STATE_HOME set", "XDG_STATE_HOME", GetStateDir},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			base := filepath.Join(tmpDir, strings.ToLower(tt.envVar))
			t.Setenv(tt.envVar, base)

			got := tt.get()
			if want := filepath.Join(base, "thingsish"); got != want {
				t.Errorf("got %q, want %q", got, want)
			}
		})
	}
}

// TestXDGFallbackToHome verifies unset XDG variables fall back under $HOME
func TestXDGFallbackToHome(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("XDG_STATE_HOME", "")

	if got, want := GetStateDir(), filepath.Join(home, ".local", "state", "thingsish"); got != want {
		t.Errorf("GetStateDir() = %q, want %q", got, want)
	}
}

// TestPathExpansionTilde verifies ~ expansion to home directory
func TestPathExpansionTilde(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skipf("could not get home directory: %v", err)
	}

	tests := []struct {
		input string
		want  string
	}{
		{"~/foo/bar", filepath.Join(home, "foo", "bar")},
		{"~/.config/thingsish", filepath.Join(home, ".config", "thingsish")},
		{"/absolute/path", "/absolute/path"},
		{"relative/path", "relative/path"},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got := ExpandPath(tt.input)
			if got != tt.want {
				t.Errorf("ExpandPath(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

// TestPathExpansionEnvVars verifies $HOME and $XDG_* expansion
func TestPathExpansionEnvVars(t *testing.T) {
	tmpDir := t.TempDir()
	t.Setenv("HOME", tmpDir)
	t.Setenv("XDG_DATA_HOME", filepath.Join(tmpDir, "xdg-data"))

	tests := []struct {
		input string
		want  string
	}{
		{"$HOME/foo", filepath.Join(tmpDir, "foo")},
		{"$XDG_DATA_HOME/thingsish", filepath.Join(tmpDir, "xdg-data", "thingsish")},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got := ExpandPath(tt.input)
			if got != tt.want {
				t.Errorf("ExpandPath(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}
