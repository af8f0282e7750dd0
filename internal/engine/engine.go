// Package engine runs atomic tests: preconditions, dependencies, command
// templating and dispatch, one test at a time.
package engine

import (
	"errors"
	"time"

	"github.com/smnkrgr/AtomicActions/internal/atomic"
	"github.com/smnkrgr/AtomicActions/internal/command"
	"github.com/smnkrgr/AtomicActions/internal/dependency"
	"github.com/smnkrgr/AtomicActions/internal/dispatch"
	"github.com/smnkrgr/AtomicActions/internal/host"
	"github.com/smnkrgr/AtomicActions/internal/precondition"
)

// Classification of a test that did not succeed. They are carried on
// Outcome.Err and never stop a run.
var (
	ErrPrecondition = errors.New("precondition not met")
	ErrDependency   = errors.New("dependency not satisfied")
	ErrExecution    = errors.New("command returned non-zero exit status")
)

const reasonExecutionFailed = "Atomic test command failed"

// Outcome is the result of one atomic test.
type Outcome struct {
	TechniqueID string
	TestName    string
	GUID        string
	Executor    string
	// Command is the rendered command line, set once dispatched.
	Command  string
	Executed bool
	Success  bool
	// Reason is empty for a successful run.
	Reason   string
	Err      error
	Duration time.Duration
}

// Sink receives one Outcome per atomic test, in execution order.
type Sink interface {
	Report(Outcome)
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(Outcome)

func (f SinkFunc) Report(o Outcome) { f(o) }

// Summary totals a run.
type Summary struct {
	Techniques int
	Tests      int
	Executed   int
	Succeeded  int
	Failed     int
	Skipped    int
}

func (s *Summary) add(o Outcome) {
	s.Tests++
	switch {
	case o.Executed && o.Success:
		s.Executed++
		s.Succeeded++
	case o.Executed:
		s.Executed++
		s.Failed++
	default:
		s.Skipped++
	}
}

type Engine struct {
	evaluator  *precondition.Evaluator
	resolver   *dependency.Resolver
	dispatcher dispatch.Dispatcher
	sink       Sink
	now        func() time.Time
}

// New builds an engine. sink may be nil.
func New(facts host.Facts, exclusions atomic.ExclusionList, d dispatch.Dispatcher, sink Sink) *Engine {
	if sink == nil {
		sink = SinkFunc(func(Outcome) {})
	}
	return &Engine{
		evaluator:  precondition.NewEvaluator(facts, exclusions),
		resolver:   dependency.NewResolver(d),
		dispatcher: d,
		sink:       sink,
		now:        time.Now,
	}
}

// RunAtomic takes one test through precondition check, dependency
// resolution and dispatch, and reports the outcome.
func (e *Engine) RunAtomic(techniqueID string, test atomic.AtomicTest) Outcome {
	start := e.now()
	out := Outcome{
		TechniqueID: techniqueID,
		TestName:    test.Name,
		GUID:        test.GUID,
		Executor:    test.Executor.Name,
	}
	defer func() {
		out.Duration = e.now().Sub(start)
		e.sink.Report(out)
	}()

	if res := e.evaluator.Evaluate(test); !res.CanRun {
		out.Reason = res.Reason
		out.Err = ErrPrecondition
		return out
	}

	if ok, status := e.resolver.Resolve(test.DependencyDescriptor(), test.InputArguments); !ok {
		out.Reason = dependencyReason(status)
		out.Err = ErrDependency
		return out
	}

	out.Command = command.Substitute(test.Executor.Command, test.InputArguments)
	out.Executed = true
	out.Success = e.dispatcher.Execute(out.Command, test.Executor.Name)
	if !out.Success {
		out.Reason = reasonExecutionFailed
		out.Err = ErrExecution
	}
	return out
}

// RunTechnique runs every atomic test of t in file order. A failing test
// does not stop the ones after it.
func (e *Engine) RunTechnique(t *atomic.Technique) []Outcome {
	outcomes := make([]Outcome, 0, len(t.AtomicTests))
	for _, test := range t.AtomicTests {
		outcomes = append(outcomes, e.RunAtomic(t.ID, test))
	}
	return outcomes
}

// Run executes the techniques in order and totals the outcomes.
func (e *Engine) Run(techniques []*atomic.Technique) Summary {
	var s Summary
	for _, t := range techniques {
		s.Techniques++
		for _, o := range e.RunTechnique(t) {
			s.add(o)
		}
	}
	return s
}

// Plan evaluates preconditions for every test of t without dispatching
// anything or reporting to the sink. Success is the precondition verdict and
// Reason its explanation; Executed is always false.
func (e *Engine) Plan(t *atomic.Technique) []Outcome {
	outcomes := make([]Outcome, 0, len(t.AtomicTests))
	for _, test := range t.AtomicTests {
		res := e.evaluator.Evaluate(test)
		o := Outcome{
			TechniqueID: t.ID,
			TestName:    test.Name,
			GUID:        test.GUID,
			Executor:    test.Executor.Name,
			Command:     command.Substitute(test.Executor.Command, test.InputArguments),
			Reason:      res.Reason,
			Success:     res.CanRun,
		}
		if !res.CanRun {
			o.Err = ErrPrecondition
		}
		outcomes = append(outcomes, o)
	}
	return outcomes
}

func dependencyReason(status string) string {
	if status == "" {
		return "Dependency not satisfied"
	}
	return "Dependency not satisfied: " + status
}
