package cpp

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/vk/buildgridgo/internal/execrunner"
	"github.com/vk/buildgridgo/internal/pyenv"
	"github.com/vk/buildgridgo/internal/registry"
)

// resolveExtension builds the compile-only plan for a pybind11 native
// module. The configured Python interpreter is interrogated for its
// include directories and extension suffix, so the module lands with the
// exact name the interpreter will import (e.g. "mod.cpython-312-x86_64-linux-gnu.so").
func resolveExtension(ctx context.Context, req registry.ResolveRequest, goos string, roots []string) (*registry.BuildPlan, error) {
	dir := filepath.Dir(req.Files[0])
	moduleName := req.Target
	if moduleName == "" {
		moduleName = stem(req.Files[0])
	}

	interp := pyenv.Interpreter(req.Settings.Venv, req.Settings.Interpreter, goos)
	intro := introspector{run: req.Runner, interpreter: interp}

	moduleFile := moduleFileName(moduleName, intro.extSuffix(ctx, goos))

	pyInclude, err := intro.pythonInclude(ctx)
	if err != nil {
		return nil, registry.Unavailable(Tag, err.Error())
	}
	pbIncludes, err := intro.pybindIncludes(ctx)
	if err != nil {
		return nil, registry.Unavailable(Tag, err.Error())
	}

	srcs := execrunner.QuoteAll(baseNames(req.Files))

	var compile string
	if goos == "windows" {
		vcvars, err := findVCVars(roots)
		if err != nil {
			return nil, registry.Unavailable(Tag, err.Error())
		}
		includes := fmt.Sprintf("/I%s %s",
			execrunner.Quote(pyInclude), strings.ReplaceAll(pbIncludes, "-I", "/I"))
		compile = fmt.Sprintf("call %s && cl %s %s %s /Fe%s",
			execrunner.Quote(vcvars), flagString(req.Settings.ExtensionFlags, msvcPybindFlags),
			includes, srcs, execrunner.Quote(moduleFile))
	} else {
		includes := fmt.Sprintf("-I%s %s", execrunner.Quote(pyInclude), pbIncludes)
		compile = fmt.Sprintf("g++ %s %s %s -o %s",
			flagString(req.Settings.ExtensionFlags, gccPybindFlags),
			includes, srcs, execrunner.Quote(moduleFile))
	}

	// No Run command: an extension module is imported, not executed.
	return &registry.BuildPlan{
		Compile:  compile,
		Artifact: filepath.Join(dir, moduleFile),
		Dir:      dir,
	}, nil
}

// moduleFileName combines the module name with the interpreter's
// extension suffix. Some interpreters report a suffix that already
// carries the module name.
func moduleFileName(moduleName, suffix string) string {
	if strings.HasPrefix(suffix, "."+moduleName) {
		return suffix[1:]
	}
	return moduleName + suffix
}

// introspector asks a Python interpreter about its build environment.
type introspector struct {
	run         execrunner.CommandRunner
	interpreter string
}

func (in introspector) extSuffix(ctx context.Context, goos string) string {
	res := in.run.Run(ctx, in.command(`-c "import sysconfig; print(sysconfig.get_config_var('EXT_SUFFIX'))"`), "")
	suffix := strings.TrimSpace(res.Stdout)
	if !res.Success() || suffix == "" || suffix == "None" {
		if goos == "windows" {
			return ".pyd"
		}
		return ".so"
	}
	return suffix
}

func (in introspector) pythonInclude(ctx context.Context) (string, error) {
	res := in.run.Run(ctx, in.command(`-c "import sysconfig; print(sysconfig.get_path('include'))"`), "")
	if !res.Success() {
		return "", fmt.Errorf("failed to query Python include path via %s: %s", in.interpreter, registry.FirstLine(res.Stderr, res.Stdout))
	}
	return strings.TrimSpace(res.Stdout), nil
}

func (in introspector) pybindIncludes(ctx context.Context) (string, error) {
	res := in.run.Run(ctx, in.command("-m pybind11 --includes"), "")
	if !res.Success() {
		return "", fmt.Errorf("pybind11 is not installed for %s (pip install pybind11)", in.interpreter)
	}
	return strings.TrimSpace(res.Stdout), nil
}

func (in introspector) command(args string) string {
	return execrunner.Quote(in.interpreter) + " " + args
}
