package registry

import (
	"fmt"
	"log/slog"
	"sort"
	"strings"
)

// Module is the interface that all toolchain modules must implement to be
// registered.
type Module interface {
	Register(r *Registry)
}

// Registry holds all registered toolchains for a single application
// instance, indexed by tag and by claimed file extension.
type Registry struct {
	toolchains map[Tag]*Toolchain
	extensions map[string]Tag
}

// New creates and initializes a new Registry instance.
func New() *Registry {
	return &Registry{
		toolchains: make(map[Tag]*Toolchain),
		extensions: make(map[string]Tag),
	}
}

// RegisterToolchain adds a toolchain to the registry. Registering the same
// tag twice, or claiming an extension another toolchain already owns, is a
// programming error and panics.
func (r *Registry) RegisterToolchain(tc *Toolchain) {
	if tc == nil || tc.Tag == "" {
		panic("registry: toolchain with empty tag")
	}
	if _, exists := r.toolchains[tc.Tag]; exists {
		panic(fmt.Sprintf("toolchain with tag '%s' already registered", tc.Tag))
	}
	slog.Debug("Registering toolchain.", "tag", tc.Tag, "extensions", tc.Extensions)
	r.toolchains[tc.Tag] = tc

	for _, ext := range tc.Extensions {
		normalized := normalizeExt(ext)
		if owner, claimed := r.extensions[normalized]; claimed {
			panic(fmt.Sprintf("extension '%s' already claimed by toolchain '%s'", normalized, owner))
		}
		r.extensions[normalized] = tc.Tag
	}
}

// Lookup returns the toolchain registered under tag.
func (r *Registry) Lookup(tag Tag) (*Toolchain, bool) {
	tc, ok := r.toolchains[tag]
	return tc, ok
}

// TagForExtension maps a file extension (with or without the leading dot,
// any case) to the owning toolchain's tag.
func (r *Registry) TagForExtension(ext string) (Tag, bool) {
	tag, ok := r.extensions[normalizeExt(ext)]
	return tag, ok
}

// Tags returns all registered tags in sorted order.
func (r *Registry) Tags() []Tag {
	tags := make([]Tag, 0, len(r.toolchains))
	for tag := range r.toolchains {
		tags = append(tags, tag)
	}
	sort.Slice(tags, func(i, j int) bool { return tags[i] < tags[j] })
	return tags
}

func normalizeExt(ext string) string {
	ext = strings.ToLower(strings.TrimSpace(ext))
	if ext == "" {
		return ext
	}
	if !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	return ext
}
