// Package cpp registers the C++ toolchain. Executables compile with g++
// (MSVC behind vcvars64 on Windows); extension mode compiles a Python
// native module with pybind11.
package cpp

import (
	"context"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/vk/buildgridgo/internal/execrunner"
	"github.com/vk/buildgridgo/internal/registry"
)

// Tag is the registry tag this package registers under.
const Tag = registry.Tag("cpp")

// Default flag sets, matching what the compilers expect on each platform.
const (
	gccFlags        = "-O3 -Wall -std=c++14"
	msvcFlags       = "/O2 /MD /std:c++14 /EHsc"
	gccPybindFlags  = "-O3 -Wall -shared -std=c++14 -fPIC"
	msvcPybindFlags = "/O2 /MD /std:c++14 /EHsc /LD"
)

// Module implements the registry.Module interface for this package.
type Module struct{}

// Register registers the toolchain with the dispatch registry.
func (m *Module) Register(r *registry.Registry) {
	r.RegisterToolchain(&registry.Toolchain{
		Tag:        Tag,
		Extensions: []string{".cpp", ".cc", ".cxx"},
		Resolve:    resolve,
		Probe:      probe,
	})
}

func resolve(ctx context.Context, req registry.ResolveRequest) (*registry.BuildPlan, error) {
	if req.Mode == registry.ModeExtension {
		return resolveExtension(ctx, req, runtime.GOOS, vcvarsRoots())
	}
	return resolveExecutable(req, runtime.GOOS, vcvarsRoots())
}

func probe(ctx context.Context, run execrunner.CommandRunner) registry.Availability {
	if runtime.GOOS == "windows" {
		vcvars, err := findVCVars(vcvarsRoots())
		if err != nil {
			return registry.Availability{Tag: Tag, Detail: err.Error()}
		}
		return registry.Availability{Tag: Tag, Available: true, Version: "MSVC (" + vcvars + ")"}
	}
	return registry.ProbeCommand(Tag, "g++ --version")(ctx, run)
}

func flagString(override []string, fallback string) string {
	if len(override) > 0 {
		return strings.Join(override, " ")
	}
	return fallback
}

func baseNames(files []string) []string {
	names := make([]string, len(files))
	for i, f := range files {
		names[i] = filepath.Base(f)
	}
	return names
}

func stem(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
