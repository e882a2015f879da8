package registry

import (
	"context"
	"fmt"
	"strings"

	"github.com/vk/buildgridgo/internal/ctxlog"
)

// Validate performs a strict startup check over all registered toolchains:
// every toolchain must carry a resolver and claim at least one extension.
// Extension uniqueness is already enforced at registration time.
func (r *Registry) Validate(ctx context.Context) error {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("Validating registry.", "toolchains", len(r.toolchains))

	var errs []string
	for _, tag := range r.Tags() {
		tc := r.toolchains[tag]
		if tc.Resolve == nil {
			errs = append(errs, fmt.Sprintf("toolchain '%s': no resolve function registered", tag))
		}
		if len(tc.Extensions) == 0 {
			errs = append(errs, fmt.Sprintf("toolchain '%s': claims no file extensions, it can never be dispatched", tag))
		}
		if tc.Probe == nil {
			logger.Debug("Toolchain has no availability probe.", "tag", tag)
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("registry validation failed:\n- %s", strings.Join(errs, "\n- "))
	}
	return nil
}
