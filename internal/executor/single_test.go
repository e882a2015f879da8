package executor_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vk/buildgridgo/internal/buildcache"
	"github.com/vk/buildgridgo/internal/config"
	"github.com/vk/buildgridgo/internal/execrunner"
	"github.com/vk/buildgridgo/internal/executor"
	"github.com/vk/buildgridgo/internal/registry"
	"github.com/vk/buildgridgo/internal/testutil"
)

// newTestExecutor wires an executor around a fake runner, a real cache in
// a temp dir, and the given stub toolchains.
func newTestExecutor(t *testing.T, runner execrunner.CommandRunner, cfg *config.Model, tcs ...*registry.Toolchain) (*executor.Executor, *buildcache.Cache, string) {
	t.Helper()
	dir := t.TempDir()
	reg := registry.New()
	for _, tc := range tcs {
		reg.RegisterToolchain(tc)
	}
	if cfg == nil {
		cfg = config.Default()
	}
	cfg.Cache.Dir = filepath.Join(dir, ".cache")
	cache := buildcache.New(context.Background(), cfg.Cache.Dir, cfg.Cache.Enabled)
	return executor.New(reg, cache, runner, cfg), cache, dir
}

func writeSource(t *testing.T, dir, name string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte("source of "+name+"\n"), 0o644))
	return path
}

func TestBuildSingleCompileThenRun(t *testing.T) {
	runner := testutil.NewFakeRunner()
	exec, cache, dir := newTestExecutor(t, runner, nil, testutil.Toolchain("t1", ".ext1"))

	src := writeSource(t, dir, "a.ext1")
	// The fake runner does not create files, so stand in for the compiler.
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.out"), []byte("bin"), 0o755))

	out := exec.BuildSingle(context.Background(), executor.LaneRequest{Tag: "t1", Files: []string{src}})

	require.True(t, out.Success, "unexpected failure: %s", out.Err)
	assert.False(t, out.Cached)
	assert.Equal(t, filepath.Join(dir, "a.out"), out.Artifact)

	calls := runner.Calls()
	require.Len(t, calls, 2)
	assert.Contains(t, calls[0].Command, "compile")
	assert.Contains(t, calls[1].Command, "run")
	assert.Equal(t, dir, calls[0].Dir)

	key := buildcache.NewKey("a.out", []string{src})
	assert.True(t, cache.IsValid(context.Background(), key), "successful run must record the artifact")
}

func TestBuildSingleEmptyFileList(t *testing.T) {
	exec, _, _ := newTestExecutor(t, testutil.NewFakeRunner(), nil, testutil.Toolchain("t1", ".ext1"))

	out := exec.BuildSingle(context.Background(), executor.LaneRequest{Tag: "t1"})
	assert.False(t, out.Success)
	assert.Contains(t, out.Err, "no input files")
}

func TestBuildSingleMissingSourceFile(t *testing.T) {
	runner := testutil.NewFakeRunner()
	exec, _, dir := newTestExecutor(t, runner, nil, testutil.Toolchain("t1", ".ext1"))

	out := exec.BuildSingle(context.Background(), executor.LaneRequest{
		Tag:   "t1",
		Files: []string{filepath.Join(dir, "ghost.ext1")},
	})
	assert.False(t, out.Success)
	assert.Contains(t, out.Err, "source file not found")
	assert.Empty(t, runner.Calls(), "nothing may run when validation fails")
}

func TestBuildSingleUnknownToolchain(t *testing.T) {
	exec, _, dir := newTestExecutor(t, testutil.NewFakeRunner(), nil)
	src := writeSource(t, dir, "a.ext1")

	out := exec.BuildSingle(context.Background(), executor.LaneRequest{Tag: "t1", Files: []string{src}})
	assert.False(t, out.Success)
	assert.Contains(t, out.Err, "unknown toolchain")
}

func TestBuildSingleResolverFailure(t *testing.T) {
	resolverErr := registry.Unavailable("t1", "compiler not installed")
	exec, _, dir := newTestExecutor(t, testutil.NewFakeRunner(), nil,
		testutil.BrokenToolchain("t1", resolverErr, ".ext1"))
	src := writeSource(t, dir, "a.ext1")

	out := exec.BuildSingle(context.Background(), executor.LaneRequest{Tag: "t1", Files: []string{src}})
	assert.False(t, out.Success)
	assert.Contains(t, out.Err, "unavailable")
	assert.Contains(t, out.Err, "compiler not installed")
}

func TestBuildSingleCompileFailureStopsLane(t *testing.T) {
	runner := testutil.NewFakeRunner().
		Stub("t1 compile", execrunner.Result{ExitCode: 2, Stderr: "syntax error"})
	exec, cache, dir := newTestExecutor(t, runner, nil, testutil.Toolchain("t1", ".ext1"))
	src := writeSource(t, dir, "a.ext1")

	out := exec.BuildSingle(context.Background(), executor.LaneRequest{Tag: "t1", Files: []string{src}})

	assert.False(t, out.Success)
	assert.Contains(t, out.Err, "compile failed")
	assert.Contains(t, out.Err, "syntax error")
	assert.Equal(t, 0, runner.CallsContaining("t1 run"), "run must not happen after a failed compile")
	assert.Equal(t, 0, cache.Stats().Count)
}

func TestBuildSingleFailedRunIsNotRecorded(t *testing.T) {
	runner := testutil.NewFakeRunner().
		Stub("t1 run", execrunner.Result{ExitCode: 1, Stderr: "segfault"})
	exec, cache, dir := newTestExecutor(t, runner, nil, testutil.Toolchain("t1", ".ext1"))
	src := writeSource(t, dir, "a.ext1")
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.out"), []byte("bin"), 0o755))

	out := exec.BuildSingle(context.Background(), executor.LaneRequest{Tag: "t1", Files: []string{src}})

	assert.False(t, out.Success)
	assert.Contains(t, out.Err, "run failed")
	key := buildcache.NewKey("a.out", []string{src})
	assert.False(t, cache.IsValid(context.Background(), key),
		"a compile-but-failed-run must never enter the cache")
}

func TestBuildSingleCacheHitSkipsCompile(t *testing.T) {
	runner := testutil.NewFakeRunner()
	exec, _, dir := newTestExecutor(t, runner, nil, testutil.Toolchain("t1", ".ext1"))
	src := writeSource(t, dir, "a.ext1")
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.out"), []byte("bin"), 0o755))

	first := exec.BuildSingle(context.Background(), executor.LaneRequest{Tag: "t1", Files: []string{src}})
	require.True(t, first.Success)
	require.False(t, first.Cached)

	second := exec.BuildSingle(context.Background(), executor.LaneRequest{Tag: "t1", Files: []string{src}})
	require.True(t, second.Success)
	assert.True(t, second.Cached)

	assert.Equal(t, 1, runner.CallsContaining("t1 compile"), "unchanged sources must not recompile")
	assert.Equal(t, 2, runner.CallsContaining("t1 run"), "the cached artifact is still executed")
}

func TestBuildSingleChangedSourceRecompiles(t *testing.T) {
	runner := testutil.NewFakeRunner()
	exec, _, dir := newTestExecutor(t, runner, nil, testutil.Toolchain("t1", ".ext1"))
	src := writeSource(t, dir, "a.ext1")
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.out"), []byte("bin"), 0o755))

	require.True(t, exec.BuildSingle(context.Background(), executor.LaneRequest{Tag: "t1", Files: []string{src}}).Success)

	require.NoError(t, os.WriteFile(src, []byte("edited\n"), 0o644))
	out := exec.BuildSingle(context.Background(), executor.LaneRequest{Tag: "t1", Files: []string{src}})

	require.True(t, out.Success)
	assert.False(t, out.Cached)
	assert.Equal(t, 2, runner.CallsContaining("t1 compile"))
}

func TestBuildSingleCompileOnlyRecordsAfterCompile(t *testing.T) {
	runner := testutil.NewFakeRunner()
	exec, cache, dir := newTestExecutor(t, runner, nil, testutil.CompileOnlyToolchain("ext", ".extmod"))
	src := writeSource(t, dir, "mod.extmod")
	require.NoError(t, os.WriteFile(filepath.Join(dir, "mod.out"), []byte("so"), 0o755))

	out := exec.BuildSingle(context.Background(), executor.LaneRequest{
		Tag: "ext", Files: []string{src}, Mode: registry.ModeExtension,
	})

	require.True(t, out.Success, "unexpected failure: %s", out.Err)
	assert.Equal(t, 0, runner.CallsContaining("run"), "compile-only plans have no run step")
	assert.Equal(t, 1, cache.Stats().Count, "with no run to gate on, record follows the compile")

	second := exec.BuildSingle(context.Background(), executor.LaneRequest{
		Tag: "ext", Files: []string{src}, Mode: registry.ModeExtension,
	})
	require.True(t, second.Success)
	assert.True(t, second.Cached)
	assert.Equal(t, 1, runner.CallsContaining("compile"))
}

func TestBuildSingleRunOnlyNeverCaches(t *testing.T) {
	runner := testutil.NewFakeRunner()
	exec, cache, dir := newTestExecutor(t, runner, nil, testutil.RunOnlyToolchain("py", ".py"))
	src := writeSource(t, dir, "script.py")

	out := exec.BuildSingle(context.Background(), executor.LaneRequest{Tag: "py", Files: []string{src}})

	require.True(t, out.Success)
	assert.Empty(t, out.Artifact)
	assert.Equal(t, 0, runner.CallsContaining("compile"))
	assert.Equal(t, 0, cache.Stats().Count, "artifact-less lanes never touch the cache")
}

func TestBuildSingleTimeoutIsClassified(t *testing.T) {
	runner := testutil.NewFakeRunner().
		Stub("t1 run", execrunner.Result{ExitCode: 1, Stderr: "timeout: command exceeded 300s", TimedOut: true})
	exec, _, dir := newTestExecutor(t, runner, nil, testutil.Toolchain("t1", ".ext1"))
	src := writeSource(t, dir, "a.ext1")

	out := exec.BuildSingle(context.Background(), executor.LaneRequest{Tag: "t1", Files: []string{src}})
	assert.False(t, out.Success)
	assert.Contains(t, out.Err, "timed out")
}

func TestBuildSingleDisabledCacheAlwaysBuilds(t *testing.T) {
	cfg := config.Default()
	cfg.Cache.Enabled = false
	runner := testutil.NewFakeRunner()
	exec, _, dir := newTestExecutor(t, runner, cfg, testutil.Toolchain("t1", ".ext1"))
	src := writeSource(t, dir, "a.ext1")
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.out"), []byte("bin"), 0o755))

	require.True(t, exec.BuildSingle(context.Background(), executor.LaneRequest{Tag: "t1", Files: []string{src}}).Success)
	second := exec.BuildSingle(context.Background(), executor.LaneRequest{Tag: "t1", Files: []string{src}})

	require.True(t, second.Success)
	assert.False(t, second.Cached)
	assert.Equal(t, 2, runner.CallsContaining("t1 compile"))
}
