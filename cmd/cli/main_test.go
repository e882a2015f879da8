package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRun_PanicRecovery(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	// A config file with a syntax error is guaranteed to panic inside
	// app.NewApp() during the loading phase.
	invalidHCL := `
		cache {
			enabled = true
	`
	tempDir := t.TempDir()
	cfgPath := filepath.Join(tempDir, "build.hcl")
	require.NoError(t, os.WriteFile(cfgPath, []byte(invalidHCL), 0o600))

	srcPath := filepath.Join(tempDir, "script.py")
	require.NoError(t, os.WriteFile(srcPath, []byte("print('hi')\n"), 0o600))

	args := []string{"-config", cfgPath, srcPath}
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

	// The "-h" (help) flag should cause cli.Parse to return `shouldExit=true`.
	args := []string{"-h"}
	out := &bytes.Buffer{}

	err := run(out, args)

	require.NoError(t, err, "run() should return a nil error when shouldExit is true")
	require.Contains(t, out.String(), "Usage:", "Expected help text to be printed to the output buffer")
}

func TestRun_ParseError(t *testing.T) {
	t.Parallel()

	// Providing an unknown flag will cause cli.Parse to return an error.
	args := []string{"--this-is-not-a-valid-flag"}
	out := &bytes.Buffer{}

	err := run(out, args)

	require.Error(t, err, "run() should return an error when argument parsing fails")
	require.Contains(t, err.Error(), "flag provided but not defined: -this-is-not-a-valid-flag")
}

func TestRun_MissingSourceFailsTheBuild(t *testing.T) {
	t.Parallel()

	// A recognized extension forms a lane; the missing file then fails
	// that lane before any command is spawned.
	tempDir := t.TempDir()
	args := []string{"-cache-dir", filepath.Join(tempDir, ".cache"), filepath.Join(tempDir, "ghost.py")}
	out := &bytes.Buffer{}

	err := run(out, args)

	require.Error(t, err)
	require.Contains(t, err.Error(), "build failed")
}

func TestRun_NoRecognizedSources(t *testing.T) {
	t.Parallel()

	tempDir := t.TempDir()
	notes := filepath.Join(tempDir, "notes.txt")
	require.NoError(t, os.WriteFile(notes, []byte("hello"), 0o600))

	err := run(&bytes.Buffer{}, []string{"-cache-dir", filepath.Join(tempDir, ".cache"), notes})

	require.Error(t, err)
	require.Contains(t, err.Error(), "no input file matches a registered toolchain")
}
