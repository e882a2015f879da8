package registry

import (
	"context"
	"fmt"

	"github.com/vk/buildgridgo/internal/config"
	"github.com/vk/buildgridgo/internal/execrunner"
)

// Tag identifies one registered toolchain (e.g. "cpp", "python").
type Tag string

// Mode selects what kind of artifact a build request produces.
type Mode string

const (
	// ModeExecutable builds (or interprets) a runnable program.
	ModeExecutable Mode = "executable"
	// ModeExtension builds a native extension module loadable from Python.
	ModeExtension Mode = "extension"
)

// ResolveRequest carries everything a toolchain needs to produce commands
// for one build lane.
type ResolveRequest struct {
	// Files are the absolute source paths; the first file anchors the
	// working directory and default artifact name.
	Files []string

	// Target overrides the artifact name. Empty derives it from the
	// first file's stem.
	Target string

	Mode Mode

	// Settings are the user's per-toolchain overrides, never nil.
	Settings *config.Toolchain

	// Runner lets a resolver interrogate the host (e.g. ask an
	// interpreter for its include paths). Resolvers must not use it to
	// build anything.
	Runner execrunner.CommandRunner
}

// BuildPlan is a toolchain's answer to a ResolveRequest: opaque
// shell-executable command lines plus the directory they run in. The
// resolver decides the shape; the dispatcher only sequences it.
type BuildPlan struct {
	// Compile builds the artifact. Empty means there is nothing to
	// compile (interpreted sources).
	Compile string

	// Run executes the artifact. Empty means the lane is compile-only
	// (extension modules).
	Run string

	// Artifact is the produced file's path. Empty opts the lane out of
	// caching.
	Artifact string

	// Dir is the working directory for every command in the plan.
	Dir string
}

// Toolchain is one registered command resolver.
type Toolchain struct {
	Tag Tag

	// Extensions lists the file extensions this toolchain claims,
	// leading dot optional.
	Extensions []string

	// Resolve produces the build plan for a request. It must not write
	// to the filesystem or start subprocesses beyond host introspection
	// through req.Runner.
	Resolve func(ctx context.Context, req ResolveRequest) (*BuildPlan, error)

	// Probe checks host availability, usually by running a version
	// command. Optional.
	Probe func(ctx context.Context, run execrunner.CommandRunner) Availability
}

// Availability is the result of probing one toolchain on this host.
type Availability struct {
	Tag       Tag
	Available bool
	Version   string // first line of the probe output when available
	Detail    string // failure explanation when unavailable
}

// Failure classes for CommandError.
const (
	// ReasonUnavailable: the toolchain is not installed or not found on
	// this host; the request could work elsewhere.
	ReasonUnavailable = "unavailable"
	// ReasonUnsupported: the toolchain can never serve this request
	// (e.g. an unsupported build mode).
	ReasonUnsupported = "unsupported"
)

// CommandError reports that a toolchain cannot produce a command for a
// request. It surfaces as a failed lane outcome and is never retried.
type CommandError struct {
	Tag    Tag
	Reason string
	Detail string
}

func (e *CommandError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("toolchain %s %s", e.Tag, e.Reason)
	}
	return fmt.Sprintf("toolchain %s %s: %s", e.Tag, e.Reason, e.Detail)
}

// Unavailable builds the CommandError for a missing toolchain.
func Unavailable(tag Tag, detail string) *CommandError {
	return &CommandError{Tag: tag, Reason: ReasonUnavailable, Detail: detail}
}

// Unsupported builds the CommandError for a request the toolchain can
// never serve.
func Unsupported(tag Tag, detail string) *CommandError {
	return &CommandError{Tag: tag, Reason: ReasonUnsupported, Detail: detail}
}
