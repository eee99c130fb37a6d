// Package testutil provides shared test utilities for CLI testing across packages.
// This enables co-located CLI tests while maintaining consistent test infrastructure.
package testutil

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"thingsish/cmd/thingsish/cmd"
	"thingsish/internal/network"
)

// testConfigTemplate keeps every path inside the test's temp dir.
const testConfigTemplate = `storage:
  backend: %BACKEND%
  path: %STORE%
network:
  mode: auto
  status_file: %STATUS%
  debounce_ms: 10
logging:
  background_enabled: false
`

// CLITest provides a test helper for running CLI commands in isolation.
type CLITest struct {
	t          *testing.T
	cfg        *cmd.Config
	tmpDir     string
	configPath string
	statusFile string
}

// NewCLITest creates a new CLI test helper backed by a sqlite store in a temp dir.
func NewCLITest(t *testing.T) *CLITest {
	t.Helper()
	return newCLITest(t, "sqlite", "state.db")
}

// NewCLITestWithBackend creates a CLI test helper for the named store. The file
// store gets a directory, sqlite a database file, memory no path.
func NewCLITestWithBackend(t *testing.T, name string) *CLITest {
	t.Helper()
	switch name {
	case "file":
		return newCLITest(t, name, "store")
	case "memory":
		return newCLITest(t, name, "")
	default:
		return newCLITest(t, name, "state.db")
	}
}

func newCLITest(t *testing.T, backendName, storeName string) *CLITest {
	t.Helper()

	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")
	statusFile := filepath.Join(tmpDir, "state", "offline")

	storePath := `""`
	if storeName != "" {
		storePath = filepath.Join(tmpDir, storeName)
	}

	content := strings.NewReplacer(
		"%BACKEND%", backendName,
		"%STORE%", storePath,
		"%STATUS%", statusFile,
	).Replace(testConfigTemplate)
	if err := os.WriteFile(configPath, []byte(content), 0644); err != nil {
		t.Fatalf("failed to create config file: %v", err)
	}

	return &CLITest{
		t: t,
		cfg: &cmd.Config{
			NoPrompt:   true,
			ConfigPath: configPath,
		},
		tmpDir:     tmpDir,
		configPath: configPath,
		statusFile: statusFile,
	}
}

// Config returns the test configuration.
func (c *CLITest) Config() *cmd.Config {
	return c.cfg
}

// TmpDir returns the temporary directory for the test.
func (c *CLITest) TmpDir() string {
	return c.tmpDir
}

// ConfigPath returns the path to the config file.
func (c *CLITest) ConfigPath() string {
	return c.configPath
}

// StatusFile returns the offline flag file the test config points at.
func (c *CLITest) StatusFile() string {
	return c.statusFile
}

// SetFullConfig replaces the entire config file with the given YAML content.
func (c *CLITest) SetFullConfig(yamlContent string) {
	c.t.Helper()
	if err := os.WriteFile(c.configPath, []byte(yamlContent), 0644); err != nil {
		c.t.Fatalf("failed to write config file: %v", err)
	}
}

// SetOffline creates or removes the offline flag file.
func (c *CLITest) SetOffline(offline bool) {
	c.t.Helper()
	if err := network.SetOffline(c.statusFile, offline); err != nil {
		c.t.Fatalf("failed to set offline flag: %v", err)
	}
}

// SetInteractive turns prompts back on and answers them from input.
func (c *CLITest) SetInteractive(input string) {
	c.cfg.NoPrompt = false
	c.cfg.Stdin = strings.NewReader(input)
}

// Execute runs a CLI command with the given arguments and returns stdout, stderr, and exit code.
func (c *CLITest) Execute(args ...string) (stdout, stderr string, exitCode int) {
	c.t.Helper()

	// Execute copies flags into the config; start every run from the same baseline
	cfg := *c.cfg
	var stdoutBuf, stderrBuf bytes.Buffer
	exitCode = cmd.Execute(args, &stdoutBuf, &stderrBuf, &cfg)
	return stdoutBuf.String(), stderrBuf.String(), exitCode
}

// MustExecute runs a CLI command and fails the test if exit code is non-zero.
func (c *CLITest) MustExecute(args ...string) string {
	c.t.Helper()

	stdout, stderr, exitCode := c.Execute(args...)
	if exitCode != 0 {
		c.t.Fatalf("expected exit code 0, got %d: stdout=%s stderr=%s", exitCode, stdout, stderr)
	}
	return stdout
}

// ExecuteAndFail runs a CLI command and fails the test if exit code is zero.
func (c *CLITest) ExecuteAndFail(args ...string) (stdout, stderr string) {
	c.t.Helper()

	stdout, stderr, exitCode := c.Execute(args...)
	if exitCode == 0 {
		c.t.Fatalf("expected non-zero exit code, got 0: stdout=%s", stdout)
	}
	return stdout, stderr
}

// AssertContains fails the test if output doesn't contain expected string.
func AssertContains(t *testing.T, output, expected string) {
	t.Helper()
	if !strings.Contains(output, expected) {
		t.Errorf("expected output to contain %q, got:\n%s", expected, output)
	}
}

// AssertNotContains fails the test if output contains unexpected string.
func AssertNotContains(t *testing.T, output, unexpected string) {
	t.Helper()
	if strings.Contains(output, unexpected) {
		t.Errorf("expected output NOT to contain %q, got:\n%s", unexpected, output)
	}
}

// AssertExitCode fails the test if exit code doesn't match expected.
func AssertExitCode(t *testing.T, got, want int) {
	t.Helper()
	if got != want {
		t.Errorf("expected exit code %d, got %d", want, got)
	}
}

// AssertResultCode verifies that the output ends with the expected result code.
func AssertResultCode(t *testing.T, output, expectedCode string) {
	t.Helper()
	lines := strings.Split(strings.TrimSpace(output), "\n")
	if len(lines) == 0 {
		t.Errorf("expected result code %q but output is empty", expectedCode)
		return
	}
	lastLine := strings.TrimSpace(lines[len(lines)-1])
	if lastLine != expectedCode {
		t.Errorf("expected result code %q, got %q\nFull output:\n%s", expectedCode, lastLine, output)
	}
}

// Result code constants for convenience.
const (
	ResultActionCompleted = cmd.ResultActionCompleted
	ResultInfoOnly        = cmd.ResultInfoOnly
	ResultError           = cmd.ResultError
)
