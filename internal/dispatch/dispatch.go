// Package dispatch launches atomic test commands as blocking child
// processes.
package dispatch

import (
	"io"
	"os"
	"os/exec"
)

const (
	Sh            = "sh"
	Bash          = "bash"
	PowerShell    = "powershell"
	CommandPrompt = "command_prompt"
)

// Dispatcher runs a command under the named executor and reports whether it
// exited with status 0.
type Dispatcher interface {
	Execute(command, executor string) bool
}

// SupportedExecutors returns the executor names Command knows how to launch.
func SupportedExecutors() []string {
	return []string{Sh, Bash, CommandPrompt, PowerShell}
}

// Command builds the process invocation for an executor. It returns nil for
// an executor outside the table; callers are expected to have rejected those
// already.
func Command(command, executor string) *exec.Cmd {
	switch executor {
	case Sh:
		return exec.Command("sh", "-c", command)
	case Bash:
		return exec.Command("bash", "-c", command)
	case PowerShell:
		return exec.Command("powershell", "-Command", command)
	case CommandPrompt:
		return directCommand(command)
	default:
		return nil
	}
}

// ProcessDispatcher runs commands on the local host. There is no timeout:
// Execute returns only once the child has exited.
type ProcessDispatcher struct {
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
	Dir    string
}

// NewProcessDispatcher wires child output to the current process.
func NewProcessDispatcher() *ProcessDispatcher {
	return &ProcessDispatcher{
		Stdout: os.Stdout,
		Stderr: os.Stderr,
	}
}

func (d *ProcessDispatcher) Execute(command, executor string) bool {
	cmd := Command(command, executor)
	if cmd == nil {
		return false
	}
	cmd.Stdin = d.Stdin
	cmd.Stdout = d.Stdout
	cmd.Stderr = d.Stderr
	cmd.Dir = d.Dir

	return cmd.Run() == nil
}
