package app

import (
	"github.com/vk/buildgridgo/internal/registry"
	"github.com/vk/buildgridgo/toolchains/cpp"
	"github.com/vk/buildgridgo/toolchains/java"
	"github.com/vk/buildgridgo/toolchains/python"
	"github.com/vk/buildgridgo/toolchains/rust"
)

// coreModules is the definitive list of all toolchains that are compiled
// into the buildgridgo binary.
var coreModules = []registry.Module{
	&cpp.Module{},
	&java.Module{},
	&rust.Module{},
	&python.Module{},
}
