// Package rust registers the Rust toolchain. Single .rs files compile
// with rustc; a directory holding a Cargo.toml builds as a Cargo
// project.
package rust

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/vk/buildgridgo/internal/config"
	"github.com/vk/buildgridgo/internal/execrunner"
	"github.com/vk/buildgridgo/internal/registry"
)

// Tag is the registry tag this package registers under.
const Tag = registry.Tag("rust")

// Module implements the registry.Module interface for this package.
type Module struct{}

// Register registers the toolchain with the dispatch registry.
func (m *Module) Register(r *registry.Registry) {
	r.RegisterToolchain(&registry.Toolchain{
		Tag:        Tag,
		Extensions: []string{".rs"},
		Resolve:    resolve,
		Probe:      probe,
	})
}

func resolve(ctx context.Context, req registry.ResolveRequest) (*registry.BuildPlan, error) {
	if req.Mode == registry.ModeExtension {
		return nil, registry.Unsupported(Tag, "rust sources cannot build a Python extension module")
	}

	first := req.Files[0]
	if info, err := os.Stat(first); err == nil && info.IsDir() {
		return cargoPlan(first, req.Settings)
	}
	return rustcPlan(req, runtime.GOOS), nil
}

// cargoPlan builds a whole Cargo project in place. Cargo owns the
// artifact layout under target/, so the plan is compile-only and
// uncached.
func cargoPlan(dir string, settings *config.Toolchain) (*registry.BuildPlan, error) {
	if _, err := os.Stat(filepath.Join(dir, "Cargo.toml")); err != nil {
		return nil, fmt.Errorf("Cargo.toml not found in %s", dir)
	}

	var releaseFlag string
	if optimization(settings) == "release" {
		releaseFlag = "--release"
	}
	return &registry.BuildPlan{
		Compile: execrunner.Command("cargo", "build", releaseFlag),
		Dir:     dir,
	}, nil
}

// rustcPlan compiles one source file to an executable and runs it.
// rustc chases `mod` declarations itself, so only the first file is
// named on the command line.
func rustcPlan(req registry.ResolveRequest, goos string) *registry.BuildPlan {
	src := req.Files[0]
	dir := filepath.Dir(src)
	base := filepath.Base(src)

	exe := req.Target
	if exe == "" {
		exe = strings.TrimSuffix(base, filepath.Ext(base))
	}

	compiler := req.Settings.Compiler
	if compiler == "" {
		compiler = "rustc"
	}
	flags := strings.Join(req.Settings.Flags, " ")
	if flags == "" && optimization(req.Settings) == "release" {
		flags = "-C opt-level=3"
	}

	run := "./" + exe
	if goos == "windows" {
		run = `.\` + exe
	}

	return &registry.BuildPlan{
		Compile:  execrunner.Command(compiler, flags, execrunner.Quote(base), "-o", execrunner.Quote(exe)),
		Run:      run,
		Artifact: filepath.Join(dir, exe),
		Dir:      dir,
	}
}

// optimization defaults to a release build when unset.
func optimization(settings *config.Toolchain) string {
	if settings.Optimization == "" {
		return "release"
	}
	return settings.Optimization
}

func probe(ctx context.Context, run execrunner.CommandRunner) registry.Availability {
	avail := registry.ProbeCommand(Tag, "rustc --version")(ctx, run)
	if !avail.Available {
		return avail
	}
	// Cargo availability rides along in the version string.
	if res := run.Run(ctx, "cargo --version", ""); res.Success() {
		avail.Version += ", " + registry.FirstLine(res.Stdout, res.Stderr)
	}
	return avail
}
