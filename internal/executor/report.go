package executor

import (
	"time"

	"github.com/google/uuid"

	"github.com/vk/buildgridgo/internal/registry"
)

// Outcome is the result of one build lane, success or failure. Failures
// are data here; nothing a lane does propagates as an error or panic.
type Outcome struct {
	Tag     registry.Tag
	Mode    registry.Mode
	Success bool

	// Cached is true when the artifact came from the build cache and the
	// compile step never ran.
	Cached bool

	// Artifact is the produced (or reused) artifact path, empty for
	// run-only lanes.
	Artifact string

	// Detail carries the captured output of the lane's run step.
	Detail string

	// Err describes the failure, empty on success.
	Err string

	Elapsed time.Duration
}

// Report aggregates every lane of one orchestration call. Every dispatched
// toolchain group appears in Outcomes exactly once, whatever happened to
// its lane.
type Report struct {
	ID             uuid.UUID
	Outcomes       map[registry.Tag]Outcome
	OverallSuccess bool
	Elapsed        time.Duration
}

func newReport() *Report {
	return &Report{
		ID:       uuid.New(),
		Outcomes: make(map[registry.Tag]Outcome),
	}
}

// finish seals the report: overall success is the logical AND across all
// lanes.
func (r *Report) finish(start time.Time) {
	r.OverallSuccess = len(r.Outcomes) > 0
	for _, out := range r.Outcomes {
		if !out.Success {
			r.OverallSuccess = false
			break
		}
	}
	r.Elapsed = time.Since(start)
}
