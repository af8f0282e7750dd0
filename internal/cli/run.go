package cli

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/smnkrgr/AtomicActions/internal/approval"
	"github.com/smnkrgr/AtomicActions/internal/atomic"
	"github.com/smnkrgr/AtomicActions/internal/config"
	"github.com/smnkrgr/AtomicActions/internal/dispatch"
	"github.com/smnkrgr/AtomicActions/internal/engine"
	"github.com/smnkrgr/AtomicActions/internal/event"
	"github.com/smnkrgr/AtomicActions/internal/host"
	"github.com/smnkrgr/AtomicActions/internal/logger"
	"github.com/smnkrgr/AtomicActions/internal/redact"
)

const (
	RunTypeManual  = "manual"
	RunTypeInclude = "include"
	RunTypeExclude = "exclude"
)

type runOptions struct {
	runType   string
	testList  string
	assumeYes bool
}

func runTests(cmd *cobra.Command, console *event.Console, opts runOptions) error {
	switch opts.runType {
	case RunTypeManual, RunTypeInclude, RunTypeExclude:
	default:
		return fmt.Errorf("invalid --runtype %q (must be manual, include or exclude)", opts.runType)
	}

	cfg, err := config.Load(workDir, logPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	ids, err := parseTestList(opts.testList)
	if err != nil {
		return err
	}

	exclusions, err := atomic.LoadExclusions(cfg.ExclusionsPath)
	if err != nil {
		return fmt.Errorf("failed to load exclusions: %w", err)
	}

	cat, err := selectTechniques(cfg, opts.runType, ids)
	if err != nil {
		return err
	}
	for _, loadErr := range cat.Errors {
		console.Warn("%v", loadErr)
	}
	if cat.Len() == 0 {
		console.Warn("No techniques selected, nothing to run.")
		return nil
	}
	console.Info("Loaded %d technique(s) with %d atomic test(s), %d excluded by config.",
		cat.Len(), cat.TestCount(), len(exclusions))

	facts := host.Detect(dispatch.SupportedExecutors())

	if !opts.assumeYes {
		prompt := approval.Prompt{
			Techniques: techniqueIDs(cat),
			TestCount:  cat.TestCount(),
			Elevated:   facts.Elevated,
		}
		result := approval.Ask(prompt)
		if !result.Approved {
			return fmt.Errorf("run not confirmed (%s); pass --yes to skip the prompt", result.UserAction)
		}
	}

	execLog, err := logger.New(cfg.LogPath)
	if err != nil {
		return fmt.Errorf("failed to initialize execution log: %w", err)
	}
	defer execLog.Close()

	rep := &reporter{
		console: console,
		log:     execLog,
		catalog: cat,
		facts:   facts,
		runID:   uuid.NewString(),
		now:     time.Now,
	}

	dispatcher := dispatch.NewProcessDispatcher()
	dispatcher.Stdout = cmd.OutOrStdout()
	dispatcher.Stderr = cmd.ErrOrStderr()

	console.Info("Run %s started on %s (elevated: %v).", rep.runID, facts.OS, facts.Elevated)
	summary := engine.New(facts, exclusions, dispatcher, rep).Run(cat.Techniques())
	console.Summary(summary)
	return nil
}

// parseTestList reads technique IDs either from a CSV file or from a comma
// separated list.
func parseTestList(arg string) ([]string, error) {
	var ids []string
	if atomic.IsCSVPath(arg) {
		if _, err := os.Stat(arg); err != nil {
			return nil, fmt.Errorf("supplied CSV file does not exist: %s", arg)
		}
		loaded, err := atomic.LoadTechniqueIDs(arg)
		if err != nil {
			return nil, fmt.Errorf("failed to read test list: %w", err)
		}
		ids = loaded
	} else {
		ids = atomic.ParseTechniqueIDs(arg)
	}

	if len(ids) == 0 {
		return nil, fmt.Errorf("could not parse any technique IDs from input: %s", arg)
	}
	return ids, nil
}

// selectTechniques builds the catalog for a run type. Listed techniques
// must all load; a discovery run skips the ones that fail.
func selectTechniques(cfg *config.Config, runType string, ids []string) (*atomic.Catalog, error) {
	if runType == RunTypeExclude {
		all, err := atomic.LoadCatalog(cfg.TestDirs(), nil, atomic.SkipOnError)
		if err != nil {
			return nil, fmt.Errorf("failed to load techniques: %w", err)
		}
		return all.Without(ids), nil
	}

	cat, err := atomic.LoadCatalog(cfg.TestDirs(), ids, atomic.AbortOnError)
	if err != nil {
		if errors.Is(err, atomic.ErrTechniqueNotFound) {
			return nil, fmt.Errorf("%w (run --install first?)", err)
		}
		return nil, fmt.Errorf("failed to load techniques: %w", err)
	}
	return cat, nil
}

func techniqueIDs(cat *atomic.Catalog) []string {
	ids := make([]string, 0, cat.Len())
	for _, t := range cat.Techniques() {
		ids = append(ids, t.ID)
	}
	return ids
}

// reporter fans each outcome out to the console and the execution log.
type reporter struct {
	console *event.Console
	log     *logger.ExecutionLogger
	catalog *atomic.Catalog
	facts   host.Facts
	runID   string
	now     func() time.Time
}

func (r *reporter) Report(o engine.Outcome) {
	r.console.Report(o)

	ev := logger.ExecutionEvent{
		Timestamp:  r.now().UTC().Format(time.RFC3339),
		RunID:      r.runID,
		Technique:  o.TechniqueID,
		Test:       o.TestName,
		GUID:       o.GUID,
		Executor:   o.Executor,
		Command:    o.Command,
		Executed:   o.Executed,
		Success:    o.Success,
		Reason:     o.Reason,
		DurationMs: o.Duration.Milliseconds(),
		Host:       r.facts.OS,
		Elevated:   r.facts.Elevated,
		Secrets:    r.secrets(o.GUID),
	}
	if o.Err != nil {
		ev.Error = o.Err.Error()
	}
	if err := r.log.Log(ev); err != nil {
		r.console.Warn("failed to write execution log: %v", err)
	}
}

// secrets returns the values of credential-like input arguments of the test.
func (r *reporter) secrets(guid string) []string {
	_, test, ok := r.catalog.ByGUID(guid)
	if !ok {
		return nil
	}
	var values []string
	for _, arg := range test.InputArguments {
		if redact.IsSensitiveName(arg.Name) && arg.Default != "" {
			values = append(values, arg.Default)
		}
	}
	return values
}
