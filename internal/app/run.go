package app

import (
	"context"
	"fmt"
	"sort"

	"github.com/vk/buildgridgo/internal/ctxlog"
	"github.com/vk/buildgridgo/internal/executor"
	"github.com/vk/buildgridgo/internal/fsutil"
	"github.com/vk/buildgridgo/internal/probe"
	"github.com/vk/buildgridgo/internal/registry"
)

// Run executes the main application logic based on the provided
// configuration.
func (a *App) Run(ctx context.Context, appConfig *Config) error {
	ctx = ctxlog.WithLogger(ctx, a.logger)
	a.logger.Debug("App.Run method started.")

	switch {
	case appConfig.Probe:
		return a.probeToolchains(ctx)
	case appConfig.ClearCache:
		return a.clearCache(ctx)
	case appConfig.CacheStats:
		return a.cacheStats()
	}

	if appConfig.Toolchain != "" {
		// Forced dispatch takes the inputs verbatim, so project
		// directories (a Cargo project, say) reach the toolchain intact.
		return a.buildSingle(ctx, appConfig, appConfig.Inputs)
	}

	files, err := fsutil.ExpandInputs(appConfig.Inputs, func(ext string) bool {
		_, ok := a.registry.TagForExtension(ext)
		return ok
	})
	if err != nil {
		return fmt.Errorf("failed to collect sources: %w", err)
	}
	return a.buildMixed(ctx, files)
}

// buildSingle runs one lane for the explicitly selected toolchain.
func (a *App) buildSingle(ctx context.Context, appConfig *Config, files []string) error {
	mode := registry.ModeExecutable
	if appConfig.ExtensionModule {
		mode = registry.ModeExtension
	}

	out := a.executor.BuildSingle(ctx, executor.LaneRequest{
		Tag:    registry.Tag(appConfig.Toolchain),
		Files:  files,
		Target: appConfig.Target,
		Mode:   mode,
	})
	if !out.Success {
		a.logger.Error("❌ Build failed.", "tag", out.Tag, "error", out.Err, "elapsed", out.Elapsed)
		return fmt.Errorf("build failed: %s", out.Err)
	}

	a.logger.Info("🏁 Build finished.", "tag", out.Tag, "cached", out.Cached, "elapsed", out.Elapsed)
	a.printProgramOutput(out)
	return nil
}

// buildMixed dispatches the files across all registered toolchains.
func (a *App) buildMixed(ctx context.Context, files []string) error {
	report, err := a.executor.BuildMixed(ctx, files)
	if err != nil {
		return err
	}

	for _, tag := range sortedOutcomeTags(report.Outcomes) {
		a.printProgramOutput(report.Outcomes[tag])
	}

	if !report.OverallSuccess {
		failed := 0
		for _, out := range report.Outcomes {
			if !out.Success {
				failed++
			}
		}
		return fmt.Errorf("build failed for %d of %d toolchain lane(s)", failed, len(report.Outcomes))
	}
	return nil
}

// printProgramOutput relays a lane's captured run output to the user.
func (a *App) printProgramOutput(out executor.Outcome) {
	if out.Detail != "" {
		fmt.Fprintln(a.outW, out.Detail)
	}
}

// probeToolchains reports which registered toolchains this host can run.
func (a *App) probeToolchains(ctx context.Context) error {
	a.logger.Info("🔍 Probing toolchains.", "count", len(a.registry.Tags()))

	fmt.Fprintln(a.outW, "=== Toolchain Check ===")
	for _, res := range probe.All(ctx, a.registry, a.runner) {
		switch {
		case res.Available && res.Version != "":
			fmt.Fprintf(a.outW, "- %s: ✅ available (%s)\n", res.Tag, res.Version)
		case res.Available:
			fmt.Fprintf(a.outW, "- %s: ✅ available\n", res.Tag)
		default:
			fmt.Fprintf(a.outW, "- %s: ❌ not available (%s)\n", res.Tag, res.Detail)
		}
	}
	return nil
}

func (a *App) clearCache(ctx context.Context) error {
	if !a.cache.Enabled() {
		a.logger.Warn("⚠️ Cache is disabled, nothing to clear.")
		return nil
	}
	if err := a.cache.InvalidateAll(ctx); err != nil {
		return fmt.Errorf("failed to clear cache: %w", err)
	}
	a.logger.Info("✅ Cache cleared.", "dir", a.cache.Dir())
	return nil
}

func (a *App) cacheStats() error {
	if !a.cache.Enabled() {
		fmt.Fprintln(a.outW, "Cache is disabled.")
		return nil
	}

	stats := a.cache.Stats()
	fmt.Fprintf(a.outW, "Cache directory: %s\n", a.cache.Dir())
	fmt.Fprintf(a.outW, "Cached builds:   %d\n", stats.Count)
	fmt.Fprintf(a.outW, "Cache size:      %.2f MB\n", float64(stats.TotalSizeBytes)/1024/1024)
	return nil
}

func sortedOutcomeTags(outcomes map[registry.Tag]executor.Outcome) []registry.Tag {
	tags := make([]registry.Tag, 0, len(outcomes))
	for tag := range outcomes {
		tags = append(tags, tag)
	}
	sort.Slice(tags, func(i, j int) bool { return tags[i] < tags[j] })
	return tags
}
