// Package registry provides the central "glue" for the toolchain system.
//
// The Registry stores the mapping between toolchain tags (e.g. "cpp"),
// the file extensions they claim, and the compiled Go resolvers that turn
// a build request into concrete command lines. Toolchain modules register
// themselves at startup; the registry is then validated so that every tag
// resolves and no extension is claimed twice, preventing a class of
// dispatch errors before any build runs.
package registry
