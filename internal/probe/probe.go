// Package probe checks which registered toolchains are usable on the
// current host.
package probe

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/vk/buildgridgo/internal/ctxlog"
	"github.com/vk/buildgridgo/internal/execrunner"
	"github.com/vk/buildgridgo/internal/registry"
)

// Timeout bounds each individual probe command. Version commands answer
// in milliseconds; anything slower is as good as missing.
const Timeout = 10 * time.Second

// All probes every registered toolchain concurrently and returns one
// Availability per tag, in tag order. A toolchain without a probe
// function counts as available.
func All(ctx context.Context, reg *registry.Registry, run execrunner.CommandRunner) []registry.Availability {
	tags := reg.Tags()
	results := make([]registry.Availability, len(tags))

	g, gctx := errgroup.WithContext(ctx)
	for i, tag := range tags {
		i := i
		tc, ok := reg.Lookup(tag)
		if !ok {
			continue
		}
		g.Go(func() error {
			results[i] = one(gctx, tc, run)
			return nil
		})
	}
	_ = g.Wait()
	return results
}

func one(ctx context.Context, tc *registry.Toolchain, run execrunner.CommandRunner) registry.Availability {
	logger := ctxlog.FromContext(ctx).With("tag", tc.Tag)
	if tc.Probe == nil {
		logger.Debug("Toolchain has no probe, assuming available.")
		return registry.Availability{Tag: tc.Tag, Available: true}
	}

	ctx, cancel := context.WithTimeout(ctx, Timeout)
	defer cancel()

	avail := tc.Probe(ctx, run)
	if avail.Available {
		logger.Info("✅ Toolchain available.", "version", avail.Version)
	} else {
		logger.Warn("❌ Toolchain unavailable.", "detail", avail.Detail)
	}
	return avail
}
