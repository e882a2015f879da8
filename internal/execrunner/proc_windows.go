//go:build windows

package execrunner

import "os/exec"

func shellCommand(command string) (string, []string) {
	return "cmd", []string{"/C", command}
}

func configureProcess(cmd *exec.Cmd) {}

func terminateProcess(cmd *exec.Cmd) {
	if cmd == nil || cmd.Process == nil {
		return
	}
	_ = cmd.Process.Kill()
}
