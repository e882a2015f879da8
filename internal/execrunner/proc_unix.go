//go:build !windows

package execrunner

import (
	"os/exec"
	"syscall"
)

func shellCommand(command string) (string, []string) {
	return "sh", []string{"-c", command}
}

// configureProcess places the child in its own process group so a timeout
// can take down the shell together with everything it spawned.
func configureProcess(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
}

func terminateProcess(cmd *exec.Cmd) {
	if cmd == nil || cmd.Process == nil {
		return
	}
	pid := cmd.Process.Pid
	if pid <= 0 {
		return
	}
	if pgid, err := syscall.Getpgid(pid); err == nil && pgid > 0 {
		// A negative PGID signals the whole group, not just the shell.
		_ = syscall.Kill(-pgid, syscall.SIGKILL)
		return
	}
	_ = cmd.Process.Kill()
}
