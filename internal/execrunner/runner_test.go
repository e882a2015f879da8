package execrunner

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func requireShell(t *testing.T) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("tests drive a POSIX sh")
	}
}

func TestRunSuccess(t *testing.T) {
	requireShell(t)
	r := New(0)

	res := r.Run(context.Background(), "echo hello", t.TempDir())
	assert.Equal(t, 0, res.ExitCode)
	assert.True(t, res.Success())
	assert.Contains(t, res.Stdout, "hello")
	assert.False(t, res.TimedOut)
}

func TestRunPropagatesExitCode(t *testing.T) {
	requireShell(t)
	r := New(0)

	res := r.Run(context.Background(), "exit 3", t.TempDir())
	if res.ExitCode != 3 {
		t.Fatalf("expected exit code 3, got %d", res.ExitCode)
	}
	if res.Success() {
		t.Fatal("exit 3 must not count as success")
	}
}

func TestRunCapturesStderr(t *testing.T) {
	requireShell(t)
	r := New(0)

	res := r.Run(context.Background(), "echo oops 1>&2; exit 1", t.TempDir())
	assert.Equal(t, 1, res.ExitCode)
	assert.Contains(t, res.Stderr, "oops")
	assert.Empty(t, res.Stdout)
}

func TestRunMissingCommand(t *testing.T) {
	requireShell(t)
	r := New(0)

	res := r.Run(context.Background(), "definitely-not-a-real-binary-xyz", t.TempDir())
	assert.NotEqual(t, 0, res.ExitCode, "shell reports the missing binary as a failed exit")
	assert.False(t, res.TimedOut)
}

func TestRunSpawnFailureIsStructured(t *testing.T) {
	requireShell(t)
	r := New(0)

	// A nonexistent working directory fails before the process starts; the
	// failure must still come back as a Result, not an error or panic.
	res := r.Run(context.Background(), "echo hi", filepath.Join(t.TempDir(), "missing"))
	assert.NotEqual(t, 0, res.ExitCode)
	assert.NotEmpty(t, res.Stderr)
	assert.False(t, res.TimedOut)
}

func TestRunTimeout(t *testing.T) {
	requireShell(t)
	r := New(100 * time.Millisecond)

	start := time.Now()
	res := r.Run(context.Background(), "sleep 10", t.TempDir())
	elapsed := time.Since(start)

	assert.True(t, res.TimedOut)
	assert.NotEqual(t, 0, res.ExitCode)
	assert.Contains(t, res.Stderr, "timeout")
	if elapsed > 5*time.Second {
		t.Fatalf("timed-out command held the caller for %s", elapsed)
	}
}

func TestRunTimeoutKillsShellChildren(t *testing.T) {
	requireShell(t)
	r := New(100 * time.Millisecond)

	dir := t.TempDir()
	marker := filepath.Join(dir, "leaked")
	// The background sleep survives the shell unless the whole process
	// group is killed; if it lives on it drops a marker file.
	r.Run(context.Background(), "(sleep 1 && echo alive > leaked) & wait", dir)

	time.Sleep(1500 * time.Millisecond)
	if _, err := os.Stat(marker); err == nil {
		t.Fatal("background child outlived the timeout")
	}
}

func TestRunCanceledContext(t *testing.T) {
	requireShell(t)
	r := New(0)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	res := r.Run(ctx, "echo hi", t.TempDir())
	assert.NotEqual(t, 0, res.ExitCode)
	assert.False(t, res.TimedOut, "cancellation is not a timeout")
}

func TestRunExplicitWorkingDirectory(t *testing.T) {
	requireShell(t)
	r := New(0)

	// Concurrent runs in different directories must each see their own
	// files; a process-wide chdir would bleed between them.
	const lanes = 4
	dirs := make([]string, lanes)
	for i := range dirs {
		dirs[i] = t.TempDir()
		content := []byte(filepath.Base(dirs[i]) + "\n")
		require.NoError(t, os.WriteFile(filepath.Join(dirs[i], "marker.txt"), content, 0o644))
	}

	var wg sync.WaitGroup
	results := make([]Result, lanes)
	for i := 0; i < lanes; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = r.Run(context.Background(), "cat marker.txt", dirs[i])
		}(i)
	}
	wg.Wait()

	for i, res := range results {
		require.Equal(t, 0, res.ExitCode)
		want := filepath.Base(dirs[i])
		if got := strings.TrimSpace(res.Stdout); got != want {
			t.Fatalf("lane %d read %q, want its own marker %q", i, got, want)
		}
	}
}
