// Package config defines the format-agnostic configuration model for the
// application, along with the Loader interface for reading it from
// concrete sources.
//
// The `config.Model` is the single source of truth for the `executor` and
// toolchain packages. Concrete implementations of Loader, such as for HCL,
// are provided in separate packages.
package config
