package executor

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"time"

	"github.com/vk/buildgridgo/internal/config"
	"github.com/vk/buildgridgo/internal/ctxlog"
	"github.com/vk/buildgridgo/internal/registry"
)

// BuildMixed builds and runs files of different toolchains in one call.
// Files are partitioned by extension into per-toolchain groups; each group
// becomes one lane executed through BuildSingle. With more than one group
// and concurrency enabled, lanes run on a bounded worker pool; otherwise
// they run in sequence.
//
// The returned report carries exactly one Outcome per dispatched group.
// Only configuration-level misuse (an empty input list, or inputs that
// match no registered toolchain at all) is reported as an error; every
// other failure is data inside the report.
func (e *Executor) BuildMixed(ctx context.Context, files []string) (*Report, error) {
	start := time.Now()
	logger := ctxlog.FromContext(ctx)

	if len(files) == 0 {
		return nil, fmt.Errorf("no input files provided")
	}

	groups := e.groupByToolchain(ctx, files)
	if len(groups) == 0 {
		return nil, fmt.Errorf("no input file matches a registered toolchain")
	}

	report := newReport()
	logger.Info("📋 Multi-toolchain build.",
		"run_id", report.ID,
		"files", len(files),
		"toolchains", tagNames(groups),
	)

	if e.cfg.Build.Sequential || len(groups) == 1 {
		logger.Info("⏳ Running lanes sequentially.", "lanes", len(groups))
		e.runSequential(ctx, groups, report)
	} else {
		e.runConcurrent(ctx, groups, report)
	}

	report.finish(start)
	if report.OverallSuccess {
		logger.Info("📊 Build succeeded.", "run_id", report.ID, "lanes", len(report.Outcomes), "elapsed", report.Elapsed)
	} else {
		logger.Error("📊 Build failed.", "run_id", report.ID, "lanes", len(report.Outcomes), "elapsed", report.Elapsed)
	}
	return report, nil
}

// groupByToolchain partitions files by the toolchain owning their
// extension. Unrecognized extensions drop the file with a warning; they
// never abort the call.
func (e *Executor) groupByToolchain(ctx context.Context, files []string) map[registry.Tag][]string {
	logger := ctxlog.FromContext(ctx)
	groups := make(map[registry.Tag][]string)
	for _, f := range files {
		ext := filepath.Ext(f)
		tag, ok := e.registry.TagForExtension(ext)
		if !ok {
			logger.Warn("⚠️ Unrecognized extension, skipping file.", "extension", ext, "file", filepath.Base(f))
			continue
		}
		groups[tag] = append(groups[tag], f)
	}
	return groups
}

func (e *Executor) runSequential(ctx context.Context, groups map[registry.Tag][]string, report *Report) {
	for _, tag := range sortedGroupTags(groups) {
		req := LaneRequest{Tag: tag, Files: groups[tag], Mode: registry.ModeExecutable}
		report.Outcomes[tag] = e.runIsolated(ctx, req)
	}
}

// runConcurrent submits one lane per group to a bounded worker pool and
// joins with a global timeout. Lanes still pending when the timeout fires
// are reported as failed; their subprocesses are left to the per-command
// timeout rather than killed here.
func (e *Executor) runConcurrent(ctx context.Context, groups map[registry.Tag][]string, report *Report) {
	logger := ctxlog.FromContext(ctx)

	lanes := make(chan LaneRequest, len(groups))
	results := make(chan Outcome, len(groups))

	workers := e.cfg.Build.WorkerCount()
	if workers > len(groups) {
		workers = len(groups)
	}
	logger.Info("🚀 Running lanes concurrently.", "workers", workers, "lanes", len(groups))

	for i := 0; i < workers; i++ {
		go e.worker(ctx, i, lanes, results)
	}
	for _, tag := range sortedGroupTags(groups) {
		logger.Debug("📨 Lane submitted.", "tag", tag)
		lanes <- LaneRequest{Tag: tag, Files: groups[tag], Mode: registry.ModeExecutable}
	}
	close(lanes)

	joinTimeout := e.cfg.Build.JoinTimeout
	if joinTimeout <= 0 {
		joinTimeout = config.DefaultJoinTimeout
	}
	timer := time.NewTimer(joinTimeout)
	defer timer.Stop()

	pending := len(groups)
	for pending > 0 {
		select {
		case out := <-results:
			report.Outcomes[out.Tag] = out
			pending--
			if out.Success {
				logger.Info("✅ Lane completed.", "tag", out.Tag, "cached", out.Cached, "elapsed", out.Elapsed)
			} else {
				logger.Error("❌ Lane failed.", "tag", out.Tag, "error", out.Err)
			}
		case <-timer.C:
			logger.Error("⏰ Join timeout elapsed, abandoning unfinished lanes.", "timeout", joinTimeout, "unfinished", pending)
			for _, tag := range sortedGroupTags(groups) {
				if _, done := report.Outcomes[tag]; !done {
					report.Outcomes[tag] = Outcome{
						Tag:     tag,
						Mode:    registry.ModeExecutable,
						Err:     fmt.Sprintf("lane did not finish within the %s join timeout", joinTimeout),
						Elapsed: joinTimeout,
					}
				}
			}
			return
		}
	}
}

func sortedGroupTags(groups map[registry.Tag][]string) []registry.Tag {
	tags := make([]registry.Tag, 0, len(groups))
	for tag := range groups {
		tags = append(tags, tag)
	}
	sort.Slice(tags, func(i, j int) bool { return tags[i] < tags[j] })
	return tags
}

func tagNames(groups map[registry.Tag][]string) []string {
	names := make([]string, 0, len(groups))
	for _, tag := range sortedGroupTags(groups) {
		names = append(names, string(tag))
	}
	return names
}
