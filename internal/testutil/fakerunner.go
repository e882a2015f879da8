package testutil

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/vk/buildgridgo/internal/execrunner"
)

// FakeCall records one command a FakeRunner received, with its execution
// window so concurrency tests can check for overlap.
type FakeCall struct {
	Command string
	Dir     string
	Start   time.Time
	End     time.Time
}

// FakeRunner is a scripted execrunner.CommandRunner for tests. Rules match
// commands by substring in registration order; a command with no matching
// rule succeeds with empty output.
type FakeRunner struct {
	mu    sync.Mutex
	rules []fakeRule
	calls []FakeCall
}

type fakeRule struct {
	substr string
	result execrunner.Result
	delay  time.Duration
}

// NewFakeRunner creates an empty FakeRunner.
func NewFakeRunner() *FakeRunner {
	return &FakeRunner{}
}

// Stub makes every command containing substr return res. Returns the
// runner for chaining.
func (f *FakeRunner) Stub(substr string, res execrunner.Result) *FakeRunner {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rules = append(f.rules, fakeRule{substr: substr, result: res})
	return f
}

// StubSlow is Stub with an execution delay, for tests that need lanes to
// genuinely overlap or outlast a timeout.
func (f *FakeRunner) StubSlow(substr string, res execrunner.Result, delay time.Duration) *FakeRunner {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rules = append(f.rules, fakeRule{substr: substr, result: res, delay: delay})
	return f
}

// Run implements execrunner.CommandRunner.
func (f *FakeRunner) Run(ctx context.Context, command, dir string) execrunner.Result {
	f.mu.Lock()
	var rule fakeRule
	for _, candidate := range f.rules {
		if strings.Contains(command, candidate.substr) {
			rule = candidate
			break
		}
	}
	f.mu.Unlock()

	start := time.Now()
	if rule.delay > 0 {
		select {
		case <-time.After(rule.delay):
		case <-ctx.Done():
		}
	}

	f.mu.Lock()
	f.calls = append(f.calls, FakeCall{Command: command, Dir: dir, Start: start, End: time.Now()})
	f.mu.Unlock()
	return rule.result
}

// Calls returns a copy of every recorded call in arrival order.
func (f *FakeRunner) Calls() []FakeCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]FakeCall, len(f.calls))
	copy(out, f.calls)
	return out
}

// CallsContaining counts recorded commands containing substr.
func (f *FakeRunner) CallsContaining(substr string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, call := range f.calls {
		if strings.Contains(call.Command, substr) {
			n++
		}
	}
	return n
}
