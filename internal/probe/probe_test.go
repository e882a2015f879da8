package probe_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vk/buildgridgo/internal/execrunner"
	"github.com/vk/buildgridgo/internal/probe"
	"github.com/vk/buildgridgo/internal/registry"
	"github.com/vk/buildgridgo/internal/testutil"
)

func probedToolchain(tag registry.Tag, command string, exts ...string) *registry.Toolchain {
	tc := testutil.RunOnlyToolchain(tag, exts...)
	tc.Probe = registry.ProbeCommand(tag, command)
	return tc
}

func TestAllReportsEveryToolchainInTagOrder(t *testing.T) {
	r := registry.New()
	r.RegisterToolchain(probedToolchain("zig", "zig version", ".zig"))
	r.RegisterToolchain(probedToolchain("ada", "gnat --version", ".adb"))
	r.RegisterToolchain(testutil.RunOnlyToolchain("lua", ".lua"))

	runner := testutil.NewFakeRunner().
		Stub("zig version", execrunner.Result{Stdout: "0.13.0\n"}).
		Stub("gnat --version", execrunner.Result{ExitCode: 127, Stderr: "gnat: command not found"})

	results := probe.All(context.Background(), r, runner)
	require.Len(t, results, 3)

	assert.Equal(t, registry.Tag("ada"), results[0].Tag)
	assert.False(t, results[0].Available)
	assert.Contains(t, results[0].Detail, "not found")

	assert.Equal(t, registry.Tag("lua"), results[1].Tag)
	assert.True(t, results[1].Available, "no probe means assumed available")
	assert.Empty(t, results[1].Version)

	assert.Equal(t, registry.Tag("zig"), results[2].Tag)
	assert.True(t, results[2].Available)
	assert.Equal(t, "0.13.0", results[2].Version)
}

func TestAllProbesConcurrently(t *testing.T) {
	r := registry.New()
	r.RegisterToolchain(probedToolchain("t1", "t1 --version", ".ext1"))
	r.RegisterToolchain(probedToolchain("t2", "t2 --version", ".ext2"))

	runner := testutil.NewFakeRunner().
		StubSlow("--version", execrunner.Result{Stdout: "ok\n"}, 150*time.Millisecond)

	results := probe.All(context.Background(), r, runner)
	require.Len(t, results, 2)

	calls := runner.Calls()
	require.Len(t, calls, 2)
	overlap := calls[0].Start.Before(calls[1].End) && calls[1].Start.Before(calls[0].End)
	assert.True(t, overlap, "probes must not run one after another")
}

func TestAllEmptyRegistry(t *testing.T) {
	results := probe.All(context.Background(), registry.New(), testutil.NewFakeRunner())
	assert.Empty(t, results)
}
