//go:build integration
// +build integration

package integration

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"testing"
	"time"
)

// TestConfig holds configuration for integration tests
type TestConfig struct {
	APIEndpoint string
	APIKey      string
	Username    string
	Password    string
	RtapiPath   string
	Verbose     bool
}

// LoadTestConfig loads configuration from environment variables
func LoadTestConfig() *TestConfig {
	return &TestConfig{
		APIEndpoint: os.Getenv("RTAPI_TEST_ENDPOINT"),
		APIKey:      os.Getenv("RTAPI_TEST_API_KEY"),
		Username:    os.Getenv("RTAPI_TEST_USERNAME"),
		Password:    os.Getenv("RTAPI_TEST_PASSWORD"),
		RtapiPath:   getRtapiPath(),
		Verbose:     os.Getenv("RTAPI_TEST_VERBOSE") == "true",
	}
}

// getRtapiPath determines the path to the rtapi binary
func getRtapiPath() string {
	if path := os.Getenv("RTAPI_BINARY_PATH"); path != "" {
		return path
	}

	// Try common locations
	candidates := []string{
		"../../rtapi",
		"./rtapi",
		"../rtapi",
	}

	for _, candidate := range candidates {
		if _, err := os.Stat(candidate); err == nil {
			return candidate
		}
	}

	return "rtapi" // Fallback to PATH
}

// SkipIfMissingConfig skips test if required config is missing
func (config *TestConfig) SkipIfMissingConfig(t *testing.T) {
	if config.APIEndpoint == "" {
		t.Skip("RTAPI_TEST_ENDPOINT not set, skipping integration test")
	}

	if _, err := exec.LookPath(config.RtapiPath); err != nil {
		if _, statErr := os.Stat(config.RtapiPath); os.IsNotExist(statErr) {
			t.Skipf("rtapi binary not found at %s, skipping integration test", config.RtapiPath)
		}
	}
}

// CommandRunner provides utilities for running rtapi commands
type CommandRunner struct {
	config  *TestConfig
	t       *testing.T
	homeDir string
}

// NewCommandRunner creates a new command runner. Each runner gets its
// own HOME so test logins never touch the developer's real config.
func NewCommandRunner(config *TestConfig, t *testing.T) *CommandRunner {
	return &CommandRunner{
		config:  config,
		t:       t,
		homeDir: t.TempDir(),
	}
}

// Run executes an rtapi command and returns output
func (runner *CommandRunner) Run(args ...string) (stdout, stderr string, err error) {
	cmd := exec.Command(runner.config.RtapiPath, args...)
	cmd.Env = append(os.Environ(), "HOME="+runner.homeDir)

	var stdoutBuf, stderrBuf bytes.Buffer
	cmd.Stdout = &stdoutBuf
	cmd.Stderr = &stderrBuf

	if runner.config.Verbose {
		runner.t.Logf("Running: %s %s", runner.config.RtapiPath, strings.Join(args, " "))
	}

	err = cmd.Run()
	stdout = stdoutBuf.String()
	stderr = stderrBuf.String()

	if runner.config.Verbose && err != nil {
		runner.t.Logf("Command failed: %v\nStdout: %s\nStderr: %s", err, stdout, stderr)
	}

	return stdout, stderr, err
}

// RunWithInput executes an rtapi command with stdin input
func (runner *CommandRunner) RunWithInput(input string, args ...string) (stdout, stderr string, err error) {
	cmd := exec.Command(runner.config.RtapiPath, args...)
	cmd.Env = append(os.Environ(), "HOME="+runner.homeDir)
	cmd.Stdin = strings.NewReader(input)

	var stdoutBuf, stderrBuf bytes.Buffer
	cmd.Stdout = &stdoutBuf
	cmd.Stderr = &stderrBuf

	if runner.config.Verbose {
		runner.t.Logf("Running with input: %s %s", runner.config.RtapiPath, strings.Join(args, " "))
	}

	err = cmd.Run()
	stdout = stdoutBuf.String()
	stderr = stderrBuf.String()

	if runner.config.Verbose && err != nil {
		runner.t.Logf("Command failed: %v\nStdout: %s\nStderr: %s", err, stdout, stderr)
	}

	return stdout, stderr, err
}

// Login authenticates against the configured endpoint using whatever
// credentials the environment provides
func (runner *CommandRunner) Login() error {
	args := []string{"login", "--api", runner.config.APIEndpoint}

	switch {
	case runner.config.APIKey != "":
		args = append(args, "--api-key", runner.config.APIKey)
	case runner.config.Username != "" && runner.config.Password != "":
		args = append(args, "--username", runner.config.Username, "--password", runner.config.Password)
	default:
		return fmt.Errorf("no authentication credentials provided")
	}

	_, stderr, err := runner.Run(args...)
	if err != nil {
		return fmt.Errorf("failed to log in: %s", stderr)
	}

	return nil
}

// GenerateTestName creates a unique test resource name
func GenerateTestName(prefix string) string {
	return fmt.Sprintf("%s-%d", prefix, time.Now().Unix())
}

// CleanupResource attempts to delete a test resource
func (runner *CommandRunner) CleanupResource(resourceType, id string) {
	var args []string
	switch resourceType {
	case "booking":
		args = []string{"bookings", "delete", id, "--force"}
	case "customer":
		args = []string{"customers", "delete", id, "--force"}
	default:
		runner.t.Logf("Unknown resource type for cleanup: %s", resourceType)
		return
	}

	stdout, stderr, err := runner.Run(args...)
	if err != nil && runner.config.Verbose {
		runner.t.Logf("Cleanup warning for %s %s: %s\nStderr: %s", resourceType, id, stdout, stderr)
	}
}

// WaitForCondition waits for a condition to be met with timeout
func WaitForCondition(t *testing.T, condition func() bool, timeout time.Duration, message string) {
	ticker := time.NewTicker(500 * time.Millisecond)
	defer ticker.Stop()

	timeoutChan := time.After(timeout)

	for {
		select {
		case <-ticker.C:
			if condition() {
				return
			}
		case <-timeoutChan:
			t.Fatalf("Timeout waiting for condition: %s", message)
		}
	}
}

// AssertJSONOutput verifies command output is valid JSON
func AssertJSONOutput(t *testing.T, output string) {
	output = strings.TrimSpace(output)
	if !json.Valid([]byte(output)) {
		t.Errorf("Output is not valid JSON: %s", output)
	}
}

// AssertYAMLOutput verifies command output is valid YAML
func AssertYAMLOutput(t *testing.T, output string) {
	// Basic YAML validation
	output = strings.TrimSpace(output)
	if strings.Contains(output, "---") || strings.Contains(output, ":") {
		return // Looks like YAML
	}
	t.Errorf("Output does not appear to be YAML: %s", output)
}

// ExtractID parses a JSON document and returns its top level "id" field
func ExtractID(t *testing.T, jsonOutput string) string {
	var doc struct {
		ID string `json:"id"`
	}

	err := json.Unmarshal([]byte(strings.TrimSpace(jsonOutput)), &doc)
	if err != nil {
		t.Fatalf("Failed to parse JSON output: %v\nOutput: %s", err, jsonOutput)
	}

	if doc.ID == "" {
		t.Fatalf("JSON output has no id field: %s", jsonOutput)
	}

	return doc.ID
}
