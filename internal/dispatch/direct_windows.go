//go:build windows

package dispatch

import (
	"os/exec"
	"strings"
	"syscall"
)

// directCommand hands the raw command line to CreateProcess unchanged.
func directCommand(command string) *exec.Cmd {
	name := strings.TrimSpace(command)
	if fields := strings.Fields(name); len(fields) > 0 {
		name = strings.Trim(fields[0], `"`)
	}
	cmd := exec.Command(name)
	cmd.SysProcAttr = &syscall.SysProcAttr{CmdLine: command}
	return cmd
}
