// Package python registers the Python toolchain. Scripts are
// interpreted in place, so every plan is run-only and never cached.
package python

import (
	"context"
	"path/filepath"
	"runtime"

	"github.com/vk/buildgridgo/internal/execrunner"
	"github.com/vk/buildgridgo/internal/pyenv"
	"github.com/vk/buildgridgo/internal/registry"
)

// Tag is the registry tag this package registers under.
const Tag = registry.Tag("python")

// Module implements the registry.Module interface for this package.
type Module struct{}

// Register registers the toolchain with the dispatch registry.
func (m *Module) Register(r *registry.Registry) {
	r.RegisterToolchain(&registry.Toolchain{
		Tag:        Tag,
		Extensions: []string{".py"},
		Resolve:    resolve,
		Probe:      probe,
	})
}

// resolve runs the first file through the configured interpreter.
// Companion files just need to sit in the same directory for imports to
// work, so only the entry script appears on the command line.
func resolve(ctx context.Context, req registry.ResolveRequest) (*registry.BuildPlan, error) {
	if req.Mode == registry.ModeExtension {
		return nil, registry.Unsupported(Tag, "python sources are loadable already; extension builds need C++ sources")
	}

	main := req.Files[0]
	interp := pyenv.Interpreter(req.Settings.Venv, req.Settings.Interpreter, runtime.GOOS)

	return &registry.BuildPlan{
		Run: execrunner.Quote(interp) + " " + execrunner.Quote(filepath.Base(main)),
		Dir: filepath.Dir(main),
	}, nil
}

func probe(ctx context.Context, run execrunner.CommandRunner) registry.Availability {
	return registry.ProbeCommand(Tag, pyenv.Default(runtime.GOOS)+" --version")(ctx, run)
}
