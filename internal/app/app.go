package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/vk/buildgridgo/internal/buildcache"
	"github.com/vk/buildgridgo/internal/config"
	"github.com/vk/buildgridgo/internal/ctxlog"
	"github.com/vk/buildgridgo/internal/execrunner"
	"github.com/vk/buildgridgo/internal/executor"
	"github.com/vk/buildgridgo/internal/registry"
)

// App encapsulates the application's dependencies, configuration, and
// lifecycle.
type App struct {
	outW     io.Writer
	logger   *slog.Logger
	registry *registry.Registry
	model    *config.Model
	cache    *buildcache.Cache
	runner   execrunner.CommandRunner
	executor *executor.Executor
}

// NewApp is the constructor for the main application. It returns a fully
// initialized App instance, including its own isolated logger and
// registry.
func NewApp(outW io.Writer, appConfig *Config, loader config.Loader, modules ...registry.Module) *App {
	logger := newLogger(appConfig.LogLevel, appConfig.LogFormat, outW)
	ctx := ctxlog.WithLogger(context.Background(), logger)
	logger.Debug("Logger configured successfully.")

	// Load the format-agnostic model, then let CLI flags override it.
	model, err := loader.Load(ctx, appConfig.ConfigPath)
	if err != nil {
		// A failure to load config is a fatal startup error.
		panic(fmt.Errorf("failed to load configuration: %w", err))
	}
	applyFlags(model, appConfig)
	logger.Debug("Configuration loaded into unified model.", "cache_dir", model.Cache.Dir, "workers", model.Build.WorkerCount())

	// Create and populate the registry with compiled-in toolchains.
	reg := registry.New()
	if len(modules) == 0 {
		modules = coreModules
	}
	for _, mod := range modules {
		mod.Register(reg)
	}
	logger.Debug("All toolchain modules registered.", "count", len(modules))

	// Validate the integrity of the registry.
	if err := reg.Validate(ctx); err != nil {
		// A broken registration is a programmer error, so we panic.
		panic(err)
	}
	logger.Debug("Registry validation passed.")

	cache := buildcache.New(ctx, model.Cache.Dir, model.Cache.Enabled)
	runner := execrunner.New(model.Build.CommandTimeout)

	return &App{
		outW:     outW,
		logger:   logger,
		registry: reg,
		model:    model,
		cache:    cache,
		runner:   runner,
		executor: executor.New(reg, cache, runner, model),
	}
}

// Registry returns the application's registry. This is primarily for
// testing.
func (a *App) Registry() *registry.Registry {
	return a.registry
}

// Cache returns the application's build cache. This is primarily for
// testing.
func (a *App) Cache() *buildcache.Cache {
	return a.cache
}
