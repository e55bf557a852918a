package main

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRun_PanicRecovery(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	// A settings file with a syntax error is guaranteed to cause a panic
	// during the loading phase inside app.NewApp().
	invalidConfig := `
		section "default" {
	` // Missing closing brace.
	tempDir := t.TempDir()
	filePath := filepath.Join(tempDir, "main.coafile.hcl")
	err := os.WriteFile(filePath, []byte(invalidConfig), 0o600)
	require.NoError(t, err, "failed to set up test file")

	args := []string{filePath}
	out := &bytes.Buffer{}

	// --- Act ---
	runErr := run(out, args)

	// --- Assert ---
	require.Error(t, runErr, "run() should have returned an error after recovering from a panic")

	errStr := runErr.Error()
	require.True(t, strings.Contains(errStr, "application startup panicked"), "The error message should indicate that a panic was recovered.")
	require.True(t, strings.Contains(errStr, "failed to parse"), "The error message should contain the underlying reason for the panic.")
}

func TestRun_ShouldExit(t *testing.T) {
	t.Parallel()

	args := []string{"-h"}
	out := &bytes.Buffer{}

	err := run(out, args)

	require.NoError(t, err, "run() should return a nil error when shouldExit is true")
	require.Contains(t, out.String(), "Usage:", "Expected help text to be printed to the output buffer")
}

func TestRun_ParseError(t *testing.T) {
	t.Parallel()

	args := []string{"--this-is-not-a-valid-flag"}
	out := &bytes.Buffer{}

	err := run(out, args)

	require.Error(t, err, "run() should return an error when argument parsing fails")
	require.Contains(t, err.Error(), "flag provided but not defined: -this-is-not-a-valid-flag")
}

func TestRun_EndToEnd(t *testing.T) {
	t.Parallel()

	tempDir := t.TempDir()
	target := filepath.Join(tempDir, "long.txt")
	require.NoError(t, os.WriteFile(target, []byte(strings.Repeat("y", 120)+"\n"), 0o600))

	config := fmt.Sprintf(`
section "default" {
  bears           = ["LineLengthBear"]
  files           = [%q]
  max_line_length = 80
}
`, target)
	require.NoError(t, os.WriteFile(filepath.Join(tempDir, "main.coafile.hcl"), []byte(config), 0o600))

	out := &bytes.Buffer{}
	err := run(out, []string{tempDir})

	require.NoError(t, err)
	require.Contains(t, out.String(), "Run finished.")
	require.Contains(t, out.String(), "results=1")
}

func TestRun_YAMLFormat(t *testing.T) {
	t.Parallel()

	tempDir := t.TempDir()
	config := `
sections:
  default:
    bears: []
`
	require.NoError(t, os.WriteFile(filepath.Join(tempDir, "main.coafile.yaml"), []byte(config), 0o600))

	out := &bytes.Buffer{}
	err := run(out, []string{"--config-format", "yaml", tempDir})

	require.NoError(t, err)
	require.Contains(t, out.String(), "Run finished.")
}
