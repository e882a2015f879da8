// Package app wires the build system together. It defines the main App
// struct, its configuration, and the run lifecycle (build, probe, cache
// maintenance), decoupled from any specific entrypoint like a CLI.
package app
