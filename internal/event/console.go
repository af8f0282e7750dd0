// Package event prints run progress to the operator's terminal.
package event

import (
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/fatih/color"

	"github.com/smnkrgr/AtomicActions/internal/engine"
)

var (
	infoColor    = color.New(color.FgCyan)
	successColor = color.New(color.FgGreen)
	warnColor    = color.New(color.FgYellow)
	errorColor   = color.New(color.FgRed, color.Bold)
	headerColor  = color.New(color.FgMagenta, color.Bold)
)

const banner = `------------------------------------------------
|    / _ \ / ___|  _ \                         |
|   | | | | |   | | | |     Atomic Testing     |
|   | |_| | |___| |_| |     Framework          |
|    \___/ \____|____/                         |
------------------------------------------------`

// Console writes one line per event. It implements engine.Sink.
type Console struct {
	mu  sync.Mutex
	out io.Writer
}

func NewConsole(out io.Writer) *Console {
	return &Console{out: out}
}

func (c *Console) Header() {
	c.mu.Lock()
	defer c.mu.Unlock()
	headerColor.Fprintln(c.out, banner)
}

func (c *Console) Info(format string, args ...interface{}) {
	c.line(infoColor, "[*]", format, args...)
}

func (c *Console) Success(format string, args ...interface{}) {
	c.line(successColor, "[+]", format, args...)
}

func (c *Console) Warn(format string, args ...interface{}) {
	c.line(warnColor, "[!]", format, args...)
}

func (c *Console) Error(format string, args ...interface{}) {
	c.line(errorColor, "[-]", format, args...)
}

// Report prints the outcome of one atomic test.
func (c *Console) Report(o engine.Outcome) {
	label := fmt.Sprintf("%s %q (%s)", o.TechniqueID, o.TestName, o.GUID)
	switch {
	case o.Executed && o.Success:
		c.Success("%s: executed successfully with %s in %s", label, o.Executor, o.Duration.Round(time.Millisecond))
	case o.Executed:
		c.Error("%s: %s", label, o.Reason)
	default:
		c.Warn("%s: skipped, %s", label, o.Reason)
	}
}

// Summary prints the run totals.
func (c *Console) Summary(s engine.Summary) {
	c.Info("%d technique(s), %d atomic test(s): %d succeeded, %d failed, %d skipped",
		s.Techniques, s.Tests, s.Succeeded, s.Failed, s.Skipped)
}

func (c *Console) line(col *color.Color, tag, format string, args ...interface{}) {
	c.mu.Lock()
	defer c.mu.Unlock()
	col.Fprint(c.out, tag)
	fmt.Fprintf(c.out, " %s\n", fmt.Sprintf(format, args...))
}
