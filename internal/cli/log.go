package cli

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/smnkrgr/AtomicActions/internal/config"
	"github.com/smnkrgr/AtomicActions/internal/logger"
)

var (
	logFilterTechnique string
	logFilterRun       string
	logFilterFailed    bool
	logLast            int
	logSummary         bool
)

var logCmd = &cobra.Command{
	Use:   "log",
	Short: "View and filter the execution log",
	Long: `View the AtomicActions execution log with filtering and summary options.

Examples:
  atomicactions log                        # Show all entries
  atomicactions log --last 20              # Show last 20 entries
  atomicactions log --technique T1003      # Show one technique
  atomicactions log --failed               # Show failed and skipped tests
  atomicactions log --summary              # Show summary stats`,
	RunE: logCommand,
}

func init() {
	logCmd.Flags().StringVar(&logFilterTechnique, "technique", "", "Filter by technique ID")
	logCmd.Flags().StringVar(&logFilterRun, "run", "", "Filter by run ID")
	logCmd.Flags().BoolVar(&logFilterFailed, "failed", false, "Show only tests that did not succeed")
	logCmd.Flags().IntVar(&logLast, "last", 0, "Show last N entries")
	logCmd.Flags().BoolVar(&logSummary, "summary", false, "Show summary statistics")
	rootCmd.AddCommand(logCmd)
}

type logFilter struct {
	technique string
	run       string
	failed    bool
}

func logCommand(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(workDir, logPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	events, err := logger.ReadEvents(cfg.LogPath)
	if err != nil {
		return fmt.Errorf("failed to read execution log: %w", err)
	}

	out := cmd.OutOrStdout()
	if len(events) == 0 {
		fmt.Fprintln(out, "No execution log entries found.")
		return nil
	}

	filtered := filterEvents(events, logFilter{
		technique: logFilterTechnique,
		run:       logFilterRun,
		failed:    logFilterFailed,
	})

	if logLast > 0 && logLast < len(filtered) {
		filtered = filtered[len(filtered)-logLast:]
	}

	if logSummary {
		printSummary(out, events)
		return nil
	}

	printEvents(out, filtered)
	return nil
}

func filterEvents(events []logger.ExecutionEvent, f logFilter) []logger.ExecutionEvent {
	if f.technique == "" && f.run == "" && !f.failed {
		return events
	}

	var filtered []logger.ExecutionEvent
	for _, e := range events {
		if f.technique != "" && !strings.EqualFold(e.Technique, f.technique) {
			continue
		}
		if f.run != "" && e.RunID != f.run {
			continue
		}
		if f.failed && e.Success {
			continue
		}
		filtered = append(filtered, e)
	}
	return filtered
}

func printEvents(w io.Writer, events []logger.ExecutionEvent) {
	for _, e := range events {
		fmt.Fprintf(w, "%s %s %s %q (%s)\n", outcomeIcon(e), formatTimestamp(e.Timestamp), e.Technique, e.Test, e.GUID)

		if e.Command != "" {
			fmt.Fprintf(w, "     Command: [%s] %s\n", e.Executor, e.Command)
		}
		if e.Reason != "" {
			fmt.Fprintf(w, "     Reason: %s\n", e.Reason)
		}
		if e.Executed {
			fmt.Fprintf(w, "     Duration: %s\n", (time.Duration(e.DurationMs) * time.Millisecond).String())
		}
		fmt.Fprintf(w, "     Run: %s\n", e.RunID)
		fmt.Fprintln(w)
	}
}

func printSummary(w io.Writer, all []logger.ExecutionEvent) {
	runs := map[string]bool{}
	succeeded, failed, skipped := 0, 0, 0
	for _, e := range all {
		runs[e.RunID] = true
		switch {
		case e.Executed && e.Success:
			succeeded++
		case e.Executed:
			failed++
		default:
			skipped++
		}
	}

	fmt.Fprintln(w, "═══════════════════════════════════════════")
	fmt.Fprintln(w, "  AtomicActions Execution Summary")
	fmt.Fprintln(w, "═══════════════════════════════════════════")
	fmt.Fprintf(w, "  Runs:            %d\n", len(runs))
	fmt.Fprintf(w, "  Atomic tests:    %d\n", len(all))
	fmt.Fprintf(w, "  Succeeded:       %d\n", succeeded)
	fmt.Fprintf(w, "  Failed:          %d\n", failed)
	fmt.Fprintf(w, "  Skipped:         %d\n", skipped)
	fmt.Fprintln(w, "═══════════════════════════════════════════")

	if len(all) > 0 {
		fmt.Fprintf(w, "  First event:     %s\n", formatTimestamp(all[0].Timestamp))
		fmt.Fprintf(w, "  Last event:      %s\n", formatTimestamp(all[len(all)-1].Timestamp))
	}

	failures := []logger.ExecutionEvent{}
	for _, e := range all {
		if e.Executed && !e.Success {
			failures = append(failures, e)
		}
	}
	if len(failures) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, "  Failed atomic tests:")
		limit := len(failures)
		if limit > 10 {
			limit = 10
		}
		for _, e := range failures[len(failures)-limit:] {
			fmt.Fprintf(w, "    %s %s %q\n", formatTimestamp(e.Timestamp), e.Technique, e.Test)
		}
	}

	fmt.Fprintln(w)
}

func outcomeIcon(e logger.ExecutionEvent) string {
	switch {
	case e.Executed && e.Success:
		return "\xe2\x9c\x85" // check mark
	case e.Executed:
		return "\xe2\x9d\x8c" // cross mark
	default:
		return "\xe2\x8f\xad" // skip
	}
}

func formatTimestamp(ts string) string {
	t, err := time.Parse(time.RFC3339, ts)
	if err != nil {
		return ts
	}
	return t.Local().Format("2006-01-02 15:04:05")
}
