package testutil

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/vk/buildgridgo/internal/registry"
)

// Toolchain returns a minimal compile-and-run toolchain for dispatcher
// tests. Its resolver emits "<tag> compile <target>" and "<tag> run
// <target>" command lines anchored in the first file's directory, with
// "<stem>.out" as the artifact, so a FakeRunner can match stages by
// substring.
func Toolchain(tag registry.Tag, exts ...string) *registry.Toolchain {
	return &registry.Toolchain{
		Tag:        tag,
		Extensions: exts,
		Resolve: func(ctx context.Context, req registry.ResolveRequest) (*registry.BuildPlan, error) {
			dir := filepath.Dir(req.Files[0])
			target := stubTarget(req)
			return &registry.BuildPlan{
				Compile:  fmt.Sprintf("%s compile %s", tag, target),
				Run:      fmt.Sprintf("%s run %s", tag, target),
				Artifact: filepath.Join(dir, target),
				Dir:      dir,
			}, nil
		},
	}
}

// RunOnlyToolchain returns a toolchain whose plans have no compile step
// and no artifact, like an interpreted language.
func RunOnlyToolchain(tag registry.Tag, exts ...string) *registry.Toolchain {
	return &registry.Toolchain{
		Tag:        tag,
		Extensions: exts,
		Resolve: func(ctx context.Context, req registry.ResolveRequest) (*registry.BuildPlan, error) {
			return &registry.BuildPlan{
				Run: fmt.Sprintf("%s run %s", tag, stubTarget(req)),
				Dir: filepath.Dir(req.Files[0]),
			}, nil
		},
	}
}

// CompileOnlyToolchain returns a toolchain whose plans produce an artifact
// without a run step, like a native extension module.
func CompileOnlyToolchain(tag registry.Tag, exts ...string) *registry.Toolchain {
	return &registry.Toolchain{
		Tag:        tag,
		Extensions: exts,
		Resolve: func(ctx context.Context, req registry.ResolveRequest) (*registry.BuildPlan, error) {
			dir := filepath.Dir(req.Files[0])
			target := stubTarget(req)
			return &registry.BuildPlan{
				Compile:  fmt.Sprintf("%s compile %s", tag, target),
				Artifact: filepath.Join(dir, target),
				Dir:      dir,
			}, nil
		},
	}
}

// BrokenToolchain returns a toolchain whose resolver always fails with
// err, exercising the command-resolution failure path.
func BrokenToolchain(tag registry.Tag, err error, exts ...string) *registry.Toolchain {
	return &registry.Toolchain{
		Tag:        tag,
		Extensions: exts,
		Resolve: func(ctx context.Context, req registry.ResolveRequest) (*registry.BuildPlan, error) {
			return nil, err
		},
	}
}

// PanickingToolchain returns a toolchain whose resolver panics, for fault
// isolation tests.
func PanickingToolchain(tag registry.Tag, exts ...string) *registry.Toolchain {
	return &registry.Toolchain{
		Tag:        tag,
		Extensions: exts,
		Resolve: func(ctx context.Context, req registry.ResolveRequest) (*registry.BuildPlan, error) {
			panic(fmt.Sprintf("toolchain %s exploded", tag))
		},
	}
}

func stubTarget(req registry.ResolveRequest) string {
	if req.Target != "" {
		return req.Target
	}
	base := filepath.Base(req.Files[0])
	return strings.TrimSuffix(base, filepath.Ext(base)) + ".out"
}
