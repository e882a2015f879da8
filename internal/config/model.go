package config

import (
	"runtime"
	"time"
)

// Default values applied before any file or flag overrides.
const (
	DefaultCacheDir       = ".builder_cache"
	DefaultCommandTimeout = 300 * time.Second
	DefaultJoinTimeout    = 600 * time.Second
)

// Model is the unified, format-agnostic representation of the entire
// application configuration.
type Model struct {
	Cache      Cache
	Build      Build
	Toolchains map[string]*Toolchain
}

// Cache configures the on-disk artifact cache.
type Cache struct {
	Enabled bool
	Dir     string
}

// Build configures dispatch concurrency and timeouts.
type Build struct {
	// Workers bounds the pool for concurrent lanes. Zero or negative
	// means host parallelism.
	Workers int

	// Sequential forces lanes to run one after another even when several
	// toolchain groups are present.
	Sequential bool

	// CommandTimeout is the ceiling for one spawned command.
	CommandTimeout time.Duration

	// JoinTimeout is the ceiling for waiting on all lanes of one call.
	JoinTimeout time.Duration
}

// Toolchain holds the per-toolchain settings; every field is optional and
// the owning toolchain module supplies its platform default.
type Toolchain struct {
	Compiler       string   // compiler or launcher binary override
	Flags          []string // extra compile flags
	ExtensionFlags []string // extra flags for native-extension builds
	Optimization   string   // optimization selector, e.g. "release"
	Interpreter    string   // interpreter binary, for interpreted toolchains
	Venv           string   // virtualenv root or interpreter path
}

// Default returns the model with every setting at its built-in default.
func Default() *Model {
	return &Model{
		Cache: Cache{
			Enabled: true,
			Dir:     DefaultCacheDir,
		},
		Build: Build{
			Workers:        runtime.NumCPU(),
			CommandTimeout: DefaultCommandTimeout,
			JoinTimeout:    DefaultJoinTimeout,
		},
		Toolchains: map[string]*Toolchain{},
	}
}

// ToolchainFor returns the settings for tag, falling back to an empty
// block so callers never nil-check.
func (m *Model) ToolchainFor(tag string) *Toolchain {
	if tc, ok := m.Toolchains[tag]; ok && tc != nil {
		return tc
	}
	return &Toolchain{}
}

// WorkerCount resolves the effective pool size.
func (b Build) WorkerCount() int {
	if b.Workers > 0 {
		return b.Workers
	}
	return runtime.NumCPU()
}
