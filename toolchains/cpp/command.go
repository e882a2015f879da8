package cpp

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/vk/buildgridgo/internal/execrunner"
	"github.com/vk/buildgridgo/internal/registry"
)

// resolveExecutable builds the compile-and-run plan for a standard C++
// executable. All commands reference base names and run inside the first
// source file's directory.
func resolveExecutable(req registry.ResolveRequest, goos string, roots []string) (*registry.BuildPlan, error) {
	dir := filepath.Dir(req.Files[0])
	exe := executableName(req.Target, req.Files[0], goos)
	srcs := execrunner.QuoteAll(baseNames(req.Files))

	var compile string
	if goos == "windows" {
		vcvars, err := findVCVars(roots)
		if err != nil {
			return nil, registry.Unavailable(Tag, err.Error())
		}
		compile = fmt.Sprintf("call %s && cl %s %s /Fe%s",
			execrunner.Quote(vcvars), flagString(req.Settings.Flags, msvcFlags), srcs, execrunner.Quote(exe))
	} else {
		compiler := req.Settings.Compiler
		if compiler == "" {
			compiler = "g++"
		}
		compile = fmt.Sprintf("%s %s %s -o %s",
			compiler, flagString(req.Settings.Flags, gccFlags), srcs, execrunner.Quote(exe))
	}

	return &registry.BuildPlan{
		Compile:  compile,
		Run:      runCommand(exe, goos),
		Artifact: filepath.Join(dir, exe),
		Dir:      dir,
	}, nil
}

// executableName derives the artifact name: an explicit target wins,
// otherwise the first file's stem, with ".exe" appended on Windows.
func executableName(target, firstFile, goos string) string {
	if target != "" {
		return target
	}
	exe := stem(firstFile)
	if goos == "windows" {
		exe += ".exe"
	}
	return exe
}

func runCommand(exe, goos string) string {
	if goos == "windows" {
		return `.\` + exe
	}
	return "./" + exe
}

// vcvarsRoots lists the Visual Studio install roots probed for
// vcvars64.bat.
func vcvarsRoots() []string {
	return []string{
		`C:\Program Files\Microsoft Visual Studio`,
		`C:\Program Files (x86)\Microsoft Visual Studio`,
	}
}

// findVCVars walks the known install layout, newest version and leanest
// edition first, and returns the first vcvars64.bat that exists.
func findVCVars(roots []string) (string, error) {
	versions := []string{"2022", "2019", "2017"}
	editions := []string{"BuildTools", "Community", "Professional", "Enterprise"}

	for _, root := range roots {
		for _, version := range versions {
			for _, edition := range editions {
				candidate := filepath.Join(root, version, edition, "VC", "Auxiliary", "Build", "vcvars64.bat")
				if _, err := os.Stat(candidate); err == nil {
					return candidate, nil
				}
			}
		}
	}
	return "", errors.New("vcvars64.bat not found; install Visual Studio Build Tools or Community")
}
