package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/smnkrgr/AtomicActions/internal/atomic"
	"github.com/smnkrgr/AtomicActions/internal/command"
	"github.com/smnkrgr/AtomicActions/internal/config"
	"github.com/smnkrgr/AtomicActions/internal/dispatch"
	"github.com/smnkrgr/AtomicActions/internal/engine"
	"github.com/smnkrgr/AtomicActions/internal/event"
	"github.com/smnkrgr/AtomicActions/internal/host"
	"github.com/smnkrgr/AtomicActions/internal/unicode"
)

var checkList string

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Dry run - show which atomic tests would run on this host",
	Long: `Evaluate the preconditions of every selected atomic test against this
host and the exclusion list, without running any dependency or test command.
Rendered commands are also checked for unresolved placeholders, hidden
characters and, for sh and bash, shell syntax errors.

  atomicactions check
  atomicactions check --test_list T1059.004,T1082`,
	RunE: checkCommand,
}

func init() {
	checkCmd.Flags().StringVar(&checkList, "test_list", "", "Comma separated technique IDs or a CSV file (default: every installed technique)")
	rootCmd.AddCommand(checkCmd)
}

type planRow struct {
	technique string
	test      string
	executor  string
	runnable  bool
	notes     []string
}

func checkCommand(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(workDir, logPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	var ids []string
	onError := atomic.SkipOnError
	if checkList != "" {
		if ids, err = parseTestList(checkList); err != nil {
			return err
		}
		onError = atomic.AbortOnError
	}

	exclusions, err := atomic.LoadExclusions(cfg.ExclusionsPath)
	if err != nil {
		return fmt.Errorf("failed to load exclusions: %w", err)
	}
	cat, err := atomic.LoadCatalog(cfg.TestDirs(), ids, onError)
	if err != nil {
		return fmt.Errorf("failed to load techniques: %w", err)
	}

	console := event.NewConsole(cmd.ErrOrStderr())
	for _, loadErr := range cat.Errors {
		console.Warn("%v", loadErr)
	}

	facts := host.Detect(dispatch.SupportedExecutors())
	eng := engine.New(facts, exclusions, dispatch.NewProcessDispatcher(), nil)

	rows := planRows(eng, cat)
	renderPlan(cmd.OutOrStdout(), rows)

	runnable := 0
	for _, r := range rows {
		if r.runnable {
			runnable++
		}
	}
	console.Info("%d of %d atomic test(s) would run on %s (elevated: %v).", runnable, len(rows), facts.OS, facts.Elevated)
	return nil
}

func planRows(eng *engine.Engine, cat *atomic.Catalog) []planRow {
	var rows []planRow
	for _, t := range cat.Techniques() {
		for _, o := range eng.Plan(t) {
			row := planRow{
				technique: o.TechniqueID,
				test:      o.TestName,
				executor:  o.Executor,
				runnable:  o.Success,
			}
			if !o.Success {
				row.notes = append(row.notes, o.Reason)
			} else {
				row.notes = append(row.notes, commandWarnings(o.Command, o.Executor)...)
			}
			rows = append(rows, row)
		}
	}
	return rows
}

// commandWarnings flags a rendered command that is unlikely to work as is.
func commandWarnings(rendered, executor string) []string {
	var warnings []string
	if names := command.Placeholders(rendered); len(names) > 0 {
		warnings = append(warnings, "unresolved placeholders: "+strings.Join(names, ", "))
	}
	if err := command.CheckSyntax(rendered, executor); err != nil {
		warnings = append(warnings, err.Error())
	}
	for _, f := range unicode.Hidden(rendered) {
		warnings = append(warnings, "hidden character: "+f.String())
	}
	return warnings
}

func renderPlan(w io.Writer, rows []planRow) {
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Technique", "Atomic test", "Executor", "Verdict", "Notes"})
	table.SetAutoWrapText(false)

	for _, r := range rows {
		verdict := "run"
		if !r.runnable {
			verdict = "skip"
		}
		table.Append([]string{r.technique, r.test, r.executor, verdict, strings.Join(r.notes, "; ")})
	}
	table.Render()
}
