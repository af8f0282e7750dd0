//go:build !windows

package dispatch

import (
	"os"
	"os/exec"

	"mvdan.cc/sh/v3/shell"
)

// directCommand splits the command line into argv without starting a shell.
// A line that cannot be split is executed as a single program name.
func directCommand(command string) *exec.Cmd {
	argv, err := shell.Fields(command, os.Getenv)
	if err != nil || len(argv) == 0 {
		return exec.Command(command)
	}
	return exec.Command(argv[0], argv[1:]...)
}
