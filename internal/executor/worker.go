package executor

import (
	"context"
	"fmt"
	"time"

	"github.com/vk/buildgridgo/internal/ctxlog"
)

// worker is the core processing loop for a single concurrent worker. It
// drains lane requests until the channel closes, converting each request
// into exactly one outcome on results.
func (e *Executor) worker(ctx context.Context, workerID int, lanes <-chan LaneRequest, results chan<- Outcome) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("Worker started.", "workerID", workerID)

	for req := range lanes {
		workerLogger := logger.With("workerID", workerID, "tag", req.Tag)
		workerLogger.Debug("Worker picked up lane.")
		results <- e.runIsolated(ctx, req)
		workerLogger.Debug("Worker finished lane.")
	}
	logger.Debug("Worker finished.", "workerID", workerID)
}

// runIsolated converts a panicking lane into a failed outcome so one
// toolchain's crash never takes down a sibling lane.
func (e *Executor) runIsolated(ctx context.Context, req LaneRequest) (out Outcome) {
	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			ctxlog.FromContext(ctx).Error("❌ Lane panicked.", "tag", req.Tag, "panic", r)
			out = Outcome{
				Tag:     req.Tag,
				Mode:    req.Mode,
				Err:     fmt.Sprintf("lane panicked: %v", r),
				Elapsed: time.Since(start),
			}
		}
	}()
	return e.BuildSingle(ctx, req)
}
