package config

import "context"

// Loader is the interface for a format-specific configuration loader.
type Loader interface {
	// Load reads configuration from the given path and merges it over the
	// defaults. An empty or nonexistent path yields the defaults
	// unchanged; a malformed file is an error.
	Load(ctx context.Context, path string) (*Model, error)
}
