package app

import (
	"bytes"
	"os"
	"sync"
	"testing"

	"github.com/vk/buildgridgo/internal/execrunner"
	"github.com/vk/buildgridgo/internal/executor"
	"github.com/vk/buildgridgo/internal/hclcfg"
	"github.com/vk/buildgridgo/internal/registry"
)

// SafeBuffer is a thread-safe buffer for capturing log output in tests.
type SafeBuffer struct {
	b  bytes.Buffer
	mu sync.Mutex
}

func (b *SafeBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.b.Write(p)
}

func (b *SafeBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.b.String()
}

// SetupAppTest creates a new app instance for system testing. A non-nil
// runner replaces the real process runner, so build flows can be
// exercised without any compiler installed.
func SetupAppTest(t *testing.T, appConfig *Config, runner execrunner.CommandRunner, modules ...registry.Module) (*App, *SafeBuffer) {
	t.Helper()

	logBuffer := &SafeBuffer{}
	appConfig.LogLevel = "debug"
	testApp := NewApp(logBuffer, appConfig, hclcfg.NewLoader(), modules...)

	if runner != nil {
		testApp.runner = runner
		testApp.executor = executor.New(testApp.registry, testApp.cache, runner, testApp.model)
	}

	t.Cleanup(func() {
		if os.Getenv("BUILDGRID_TEST_LOGS") == "true" {
			t.Logf("--- Full Log Output for %s ---\n%s", t.Name(), logBuffer.String())
		}
	})

	return testApp, logBuffer
}
