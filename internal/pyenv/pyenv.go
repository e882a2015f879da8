// Package pyenv resolves which Python interpreter a build should use,
// honoring an optional virtualenv.
package pyenv

import (
	"log/slog"
	"os"
	"path/filepath"
)

// Interpreter picks the Python executable for the given settings.
//
// A virtualenv path wins when it resolves: a directory is probed for the
// venv-layout executable, a plain file is taken as the interpreter
// itself. A venv that does not resolve is ignored with a warning. Next
// comes the explicitly configured interpreter, then the platform
// default.
func Interpreter(venv, explicit, goos string) string {
	if venv != "" {
		if exe := fromVenv(venv, goos); exe != "" {
			return exe
		}
		slog.Warn("⚠️ Python venv not found, falling back to default interpreter.", "venv", venv)
	}
	if explicit != "" {
		return explicit
	}
	return Default(goos)
}

// Default returns the bare interpreter command for a platform.
func Default(goos string) string {
	if goos == "windows" {
		return "python"
	}
	return "python3"
}

func fromVenv(venv, goos string) string {
	info, err := os.Stat(venv)
	if err != nil {
		return ""
	}
	exe := venv
	if info.IsDir() {
		if goos == "windows" {
			exe = filepath.Join(venv, "Scripts", "python.exe")
		} else {
			exe = filepath.Join(venv, "bin", "python")
		}
	}
	if _, err := os.Stat(exe); err != nil {
		return ""
	}
	return exe
}
