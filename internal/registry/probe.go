package registry

import (
	"context"
	"fmt"
	"strings"

	"github.com/vk/buildgridgo/internal/execrunner"
)

// ProbeCommand builds a Probe that runs a single version command and
// reports availability from its exit code. Compilers disagree on which
// stream the version line lands on (javac writes to stderr), so both are
// consulted.
func ProbeCommand(tag Tag, command string) func(context.Context, execrunner.CommandRunner) Availability {
	return func(ctx context.Context, run execrunner.CommandRunner) Availability {
		res := run.Run(ctx, command, "")
		if !res.Success() {
			detail := strings.TrimSpace(res.Stderr)
			if detail == "" {
				detail = fmt.Sprintf("'%s' exited with code %d", command, res.ExitCode)
			}
			return Availability{Tag: tag, Detail: detail}
		}
		return Availability{Tag: tag, Available: true, Version: FirstLine(res.Stdout, res.Stderr)}
	}
}

// FirstLine returns the first non-blank line across the given texts.
func FirstLine(texts ...string) string {
	for _, text := range texts {
		for _, line := range strings.Split(text, "\n") {
			if trimmed := strings.TrimSpace(line); trimmed != "" {
				return trimmed
			}
		}
	}
	return ""
}
