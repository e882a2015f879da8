// Package java registers the Java toolchain: javac over all sources,
// then `java <MainClass>` where the main class comes from the first
// file's stem.
package java

import (
	"context"
	"path/filepath"
	"strings"

	"github.com/vk/buildgridgo/internal/execrunner"
	"github.com/vk/buildgridgo/internal/registry"
)

// Tag is the registry tag this package registers under.
const Tag = registry.Tag("java")

// Module implements the registry.Module interface for this package.
type Module struct{}

// Register registers the toolchain with the dispatch registry.
func (m *Module) Register(r *registry.Registry) {
	r.RegisterToolchain(&registry.Toolchain{
		Tag:        Tag,
		Extensions: []string{".java"},
		Resolve:    resolve,
		Probe:      registry.ProbeCommand(Tag, "javac -version"),
	})
}

func resolve(ctx context.Context, req registry.ResolveRequest) (*registry.BuildPlan, error) {
	if req.Mode == registry.ModeExtension {
		return nil, registry.Unsupported(Tag, "java sources cannot build a Python extension module")
	}

	dir := filepath.Dir(req.Files[0])
	mainClass := req.Target
	if mainClass == "" {
		base := filepath.Base(req.Files[0])
		mainClass = strings.TrimSuffix(base, filepath.Ext(base))
	}

	compiler := req.Settings.Compiler
	if compiler == "" {
		compiler = "javac"
	}

	return &registry.BuildPlan{
		Compile:  execrunner.Command(compiler, strings.Join(req.Settings.Flags, " "), execrunner.QuoteAll(baseNames(req.Files))),
		Run:      "java " + mainClass,
		Artifact: filepath.Join(dir, mainClass+".class"),
		Dir:      dir,
	}, nil
}

func baseNames(files []string) []string {
	names := make([]string, len(files))
	for i, f := range files {
		names[i] = filepath.Base(f)
	}
	return names
}
