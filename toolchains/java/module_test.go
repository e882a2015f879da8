package java

import (
	"context"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vk/buildgridgo/internal/config"
	"github.com/vk/buildgridgo/internal/execrunner"
	"github.com/vk/buildgridgo/internal/registry"
	"github.com/vk/buildgridgo/internal/testutil"
)

func request(files ...string) registry.ResolveRequest {
	return registry.ResolveRequest{Files: files, Mode: registry.ModeExecutable, Settings: &config.Toolchain{}}
}

func TestResolveSingleFile(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("expected artifact paths are unix-shaped")
	}
	plan, err := resolve(context.Background(), request("/proj/Main.java"))
	require.NoError(t, err)

	assert.Equal(t, `javac "Main.java"`, plan.Compile)
	assert.Equal(t, "java Main", plan.Run)
	assert.Equal(t, "/proj/Main.class", plan.Artifact)
	assert.Equal(t, "/proj", plan.Dir)
}

func TestResolveMultiFileUsesFirstStemAsMainClass(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("expected artifact paths are unix-shaped")
	}
	plan, err := resolve(context.Background(), request("/proj/App.java", "/proj/Helper.java"))
	require.NoError(t, err)

	assert.Equal(t, `javac "App.java" "Helper.java"`, plan.Compile)
	assert.Equal(t, "java App", plan.Run)
	assert.Equal(t, "/proj/App.class", plan.Artifact)
}

func TestResolveTargetOverridesMainClass(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("expected artifact paths are unix-shaped")
	}
	req := request("/proj/App.java", "/proj/Entry.java")
	req.Target = "Entry"
	plan, err := resolve(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, "java Entry", plan.Run)
	assert.Equal(t, "/proj/Entry.class", plan.Artifact)
}

func TestResolveCompilerAndFlagsOverride(t *testing.T) {
	req := request("/proj/Main.java")
	req.Settings = &config.Toolchain{Compiler: "ecj", Flags: []string{"-nowarn"}}
	plan, err := resolve(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, `ecj -nowarn "Main.java"`, plan.Compile)
}

func TestResolveRejectsExtensionMode(t *testing.T) {
	req := request("/proj/Main.java")
	req.Mode = registry.ModeExtension
	_, err := resolve(context.Background(), req)
	require.Error(t, err)
	assert.Contains(t, err.Error(), registry.ReasonUnsupported)
}

func TestProbeReadsVersionFromStderr(t *testing.T) {
	// javac historically prints its version line to stderr.
	runner := testutil.NewFakeRunner().
		Stub("javac -version", execrunner.Result{Stderr: "javac 21.0.2\n"})

	avail := registry.ProbeCommand(Tag, "javac -version")(context.Background(), runner)
	assert.True(t, avail.Available)
	assert.Equal(t, "javac 21.0.2", avail.Version)
}
