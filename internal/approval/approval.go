// Package approval gates a run behind an operator confirmation.
package approval

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"
)

type Result struct {
	Approved   bool
	UserAction string
}

type Prompt struct {
	Techniques []string
	TestCount  int
	Elevated   bool
}

func IsInteractive() bool {
	return term.IsTerminal(int(os.Stdin.Fd()))
}

// Ask confirms a run on the controlling terminal. Without a terminal the run
// is denied.
func Ask(p Prompt) Result {
	if !IsInteractive() {
		return Result{
			Approved:   false,
			UserAction: "auto_deny_non_interactive",
		}
	}
	return Confirm(p, os.Stdin, os.Stderr)
}

// Confirm prints the prompt to out and reads answers from in until it gets
// a yes or a no.
func Confirm(p Prompt, in io.Reader, out io.Writer) Result {
	fmt.Fprintln(out, "")
	fmt.Fprintln(out, "╔══════════════════════════════════════════════════════════════╗")
	fmt.Fprintln(out, "║              ⚠️  LIVE ATTACK SIMULATION                       ║")
	fmt.Fprintln(out, "╚══════════════════════════════════════════════════════════════╝")
	fmt.Fprintln(out, "")
	fmt.Fprintf(out, "About to execute %d atomic test(s) from %d technique(s) on this host.\n", p.TestCount, len(p.Techniques))
	if p.Elevated {
		fmt.Fprintln(out, "The process is running with elevated privileges.")
	}

	if len(p.Techniques) > 0 {
		shown := p.Techniques
		if len(shown) > 20 {
			shown = shown[:20]
		}
		fmt.Fprintf(out, "Techniques: %s", strings.Join(shown, ", "))
		if len(p.Techniques) > len(shown) {
			fmt.Fprintf(out, " (+%d more)", len(p.Techniques)-len(shown))
		}
		fmt.Fprintln(out)
	}

	fmt.Fprintln(out, "")
	fmt.Fprintln(out, "Options:")
	fmt.Fprintln(out, "  [y] Run the tests")
	fmt.Fprintln(out, "  [n] Abort")
	fmt.Fprintln(out, "")

	reader := bufio.NewReader(in)

	for {
		fmt.Fprint(out, "Your choice [y/n]: ")
		input, err := reader.ReadString('\n')
		if err != nil && input == "" {
			return Result{
				Approved:   false,
				UserAction: "error_reading_input",
			}
		}

		input = strings.TrimSpace(strings.ToLower(input))

		switch input {
		case "y", "yes", "a", "approve":
			return Result{
				Approved:   true,
				UserAction: "approve",
			}
		case "n", "no", "d", "deny":
			return Result{
				Approved:   false,
				UserAction: "deny",
			}
		default:
			if err != nil {
				return Result{
					Approved:   false,
					UserAction: "error_reading_input",
				}
			}
			fmt.Fprintln(out, "Invalid input. Please enter 'y' to run or 'n' to abort.")
		}
	}
}
