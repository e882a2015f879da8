package executor

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/vk/buildgridgo/internal/buildcache"
	"github.com/vk/buildgridgo/internal/ctxlog"
	"github.com/vk/buildgridgo/internal/execrunner"
	"github.com/vk/buildgridgo/internal/registry"
)

// BuildSingle runs one lane end to end: validate inputs, consult the
// cache, resolve commands, compile, run, record. Mixed-mode dispatch goes
// through this same routine per group, so single and mixed builds cannot
// drift apart.
//
// A cache hit skips the compile step entirely and executes the recorded
// artifact. A miss compiles, runs, and records only after the run
// succeeded; a compile-only plan records after its compile since no run
// exists to gate on.
func (e *Executor) BuildSingle(ctx context.Context, req LaneRequest) Outcome {
	start := time.Now()
	if req.Mode == "" {
		req.Mode = registry.ModeExecutable
	}
	logger := ctxlog.FromContext(ctx).With("tag", req.Tag)

	if len(req.Files) == 0 {
		return e.fail(req, start, "no input files")
	}

	files, err := absolutePaths(req.Files)
	if err != nil {
		logger.Error("❌ Input validation failed.", "error", err)
		return e.fail(req, start, err.Error())
	}

	tc, ok := e.registry.Lookup(req.Tag)
	if !ok {
		return e.fail(req, start, fmt.Sprintf("unknown toolchain '%s'", req.Tag))
	}

	plan, err := tc.Resolve(ctx, registry.ResolveRequest{
		Files:    files,
		Target:   req.Target,
		Mode:     req.Mode,
		Settings: e.cfg.ToolchainFor(string(req.Tag)),
		Runner:   e.runner,
	})
	if err != nil {
		logger.Error("❌ Command resolution failed.", "error", err)
		return e.fail(req, start, err.Error())
	}
	if plan.Compile == "" && plan.Run == "" {
		return e.fail(req, start, fmt.Sprintf("toolchain '%s' produced an empty plan", req.Tag))
	}

	cacheable := plan.Artifact != ""
	var key buildcache.Key
	if cacheable {
		key = buildcache.NewKey(filepath.Base(plan.Artifact), files)
		if e.cache.IsValid(ctx, key) {
			return e.runCached(ctx, req, key, plan, start)
		}
	}

	if plan.Compile != "" {
		logger.Info("🔨 Compiling.", "files", fileNames(files), "target", filepath.Base(plan.Artifact))
		res := e.runner.Run(ctx, plan.Compile, plan.Dir)
		if !res.Success() {
			logger.Error("❌ Compilation failed.", "target", filepath.Base(plan.Artifact))
			return e.fail(req, start, failureText("compile", res))
		}

		if plan.Run == "" {
			if cacheable {
				e.cache.Record(ctx, key, plan.Artifact)
			}
			logger.Info("✅ Compilation succeeded.", "artifact", filepath.Base(plan.Artifact))
			out := e.succeed(req, start, plan.Artifact, strings.TrimSpace(res.Stdout))
			return out
		}
		logger.Info("✅ Compilation succeeded, running artifact.", "target", filepath.Base(plan.Artifact))
	}

	res := e.runner.Run(ctx, plan.Run, plan.Dir)
	if !res.Success() {
		logger.Error("❌ Execution failed.", "exit_code", res.ExitCode, "timed_out", res.TimedOut)
		return e.fail(req, start, failureText("run", res))
	}

	if cacheable {
		// The run proved the artifact works; only now does it enter the cache.
		e.cache.Record(ctx, key, plan.Artifact)
	}
	return e.succeed(req, start, plan.Artifact, strings.TrimSpace(res.Stdout))
}

// runCached executes the recorded artifact without compiling. Compile-only
// plans return the artifact directly.
func (e *Executor) runCached(ctx context.Context, req LaneRequest, key buildcache.Key, plan *registry.BuildPlan, start time.Time) Outcome {
	logger := ctxlog.FromContext(ctx).With("tag", req.Tag)
	artifact := e.cache.Artifact(key)
	logger.Info("⚡ Using cached artifact.", "artifact", filepath.Base(artifact))

	if plan.Run == "" {
		out := e.succeed(req, start, artifact, "")
		out.Cached = true
		return out
	}

	res := e.runner.Run(ctx, plan.Run, plan.Dir)
	if !res.Success() {
		logger.Error("❌ Cached artifact execution failed.", "exit_code", res.ExitCode, "timed_out", res.TimedOut)
		out := e.fail(req, start, failureText("run", res))
		out.Cached = true
		out.Artifact = artifact
		return out
	}

	out := e.succeed(req, start, artifact, strings.TrimSpace(res.Stdout))
	out.Cached = true
	return out
}

func (e *Executor) fail(req LaneRequest, start time.Time, errText string) Outcome {
	return Outcome{
		Tag:     req.Tag,
		Mode:    req.Mode,
		Err:     errText,
		Elapsed: time.Since(start),
	}
}

func (e *Executor) succeed(req LaneRequest, start time.Time, artifact, detail string) Outcome {
	return Outcome{
		Tag:      req.Tag,
		Mode:     req.Mode,
		Success:  true,
		Artifact: artifact,
		Detail:   detail,
		Elapsed:  time.Since(start),
	}
}

// absolutePaths resolves every input to an absolute path and verifies it
// exists on disk.
func absolutePaths(files []string) ([]string, error) {
	resolved := make([]string, 0, len(files))
	for _, f := range files {
		abs, err := filepath.Abs(f)
		if err != nil {
			return nil, fmt.Errorf("resolving %s: %w", f, err)
		}
		if _, err := os.Stat(abs); err != nil {
			return nil, fmt.Errorf("source file not found: %s", abs)
		}
		resolved = append(resolved, abs)
	}
	return resolved, nil
}

func fileNames(files []string) string {
	names := make([]string, len(files))
	for i, f := range files {
		names[i] = filepath.Base(f)
	}
	return strings.Join(names, ", ")
}

// failureText summarizes a failed command for an Outcome's Err field,
// keeping the timeout classification visible.
func failureText(stage string, res execrunner.Result) string {
	detail := strings.TrimSpace(res.Stderr)
	if detail == "" {
		detail = strings.TrimSpace(res.Stdout)
	}
	if res.TimedOut {
		if detail == "" {
			return fmt.Sprintf("%s timed out", stage)
		}
		return fmt.Sprintf("%s timed out: %s", stage, detail)
	}
	if detail == "" {
		return fmt.Sprintf("%s failed with exit code %d", stage, res.ExitCode)
	}
	return fmt.Sprintf("%s failed with exit code %d: %s", stage, res.ExitCode, detail)
}
