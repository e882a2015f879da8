package executor

import (
	"github.com/vk/buildgridgo/internal/buildcache"
	"github.com/vk/buildgridgo/internal/config"
	"github.com/vk/buildgridgo/internal/execrunner"
	"github.com/vk/buildgridgo/internal/registry"
)

// Executor orchestrates build lanes against a toolchain registry, a build
// cache and a command runner.
type Executor struct {
	registry *registry.Registry
	cache    *buildcache.Cache
	runner   execrunner.CommandRunner
	cfg      *config.Model
}

// New wires an Executor from its collaborators.
func New(reg *registry.Registry, cache *buildcache.Cache, runner execrunner.CommandRunner, cfg *config.Model) *Executor {
	return &Executor{
		registry: reg,
		cache:    cache,
		runner:   runner,
		cfg:      cfg,
	}
}

// LaneRequest describes one single-toolchain build: which toolchain, which
// source files, what to name the artifact and what kind of artifact to
// produce.
type LaneRequest struct {
	Tag    registry.Tag
	Files  []string
	Target string
	Mode   registry.Mode
}
