// Package precondition decides whether an atomic test can run on this host.
package precondition

import (
	"github.com/smnkrgr/AtomicActions/internal/atomic"
	"github.com/smnkrgr/AtomicActions/internal/host"
)

const (
	ReasonOSMismatch = "Required operating system not present"
	ReasonExcluded   = "Test is excluded by config"
	ReasonExecutor   = "Required executor is not present"
	ReasonPrivilege  = "Required privileges not present"
	ReasonClear      = "All preconditions met"
)

type Result struct {
	CanRun bool
	Reason string
}

// Evaluator holds the host facts and exclusion set for a run.
type Evaluator struct {
	facts      host.Facts
	exclusions atomic.ExclusionList
}

func NewEvaluator(facts host.Facts, exclusions atomic.ExclusionList) *Evaluator {
	if exclusions == nil {
		exclusions = atomic.ExclusionList{}
	}
	return &Evaluator{facts: facts, exclusions: exclusions}
}

// Evaluate applies the checks in a fixed order; the first failing check
// determines the reason.
func (e *Evaluator) Evaluate(test atomic.AtomicTest) Result {
	return Evaluate(test, e.facts, e.exclusions)
}

// Evaluate is the stateless form of Evaluator.Evaluate.
func Evaluate(test atomic.AtomicTest, facts host.Facts, exclusions atomic.ExclusionList) Result {
	if !test.SupportsPlatform(facts.OS) {
		return Result{Reason: ReasonOSMismatch}
	}

	if exclusions.Contains(test.GUID) {
		return Result{Reason: ReasonExcluded}
	}

	if !facts.SupportsExecutor(test.Executor.Name) {
		return Result{Reason: ReasonExecutor}
	}
	if test.DependencyExecutorName != "" && !facts.SupportsExecutor(test.DependencyExecutorName) {
		return Result{Reason: ReasonExecutor}
	}

	if test.Executor.ElevationRequired && !facts.Elevated {
		return Result{Reason: ReasonPrivilege}
	}

	return Result{CanRun: true, Reason: ReasonClear}
}
