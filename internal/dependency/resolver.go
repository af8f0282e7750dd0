// Package dependency satisfies an atomic test's prerequisites before the
// test command runs.
package dependency

import (
	"strings"

	"github.com/smnkrgr/AtomicActions/internal/atomic"
	"github.com/smnkrgr/AtomicActions/internal/command"
	"github.com/smnkrgr/AtomicActions/internal/dispatch"
)

type Resolver struct {
	dispatcher dispatch.Dispatcher
}

func NewResolver(d dispatch.Dispatcher) *Resolver {
	return &Resolver{dispatcher: d}
}

// Resolve runs each dependency in order. The remediation command
// (get_prereq_command) always runs first and its result is ignored; the
// check command (prereq_command) decides whether the dependency holds. A
// dependency with neither command is satisfied. Resolution stops at the
// first unsatisfied dependency.
//
// status is empty when there is nothing to run. Otherwise it is the
// description of the dependency that failed, or all descriptions joined when
// every dependency holds.
func (r *Resolver) Resolve(desc atomic.DependencyDescriptor, args atomic.InputArguments) (bool, string) {
	if desc.IsEmpty() {
		return true, ""
	}

	for _, dep := range desc.Dependencies {
		if strings.TrimSpace(dep.GetPrereqCommand) != "" {
			r.dispatcher.Execute(command.Substitute(dep.GetPrereqCommand, args), desc.Executor)
		}
		if strings.TrimSpace(dep.PrereqCommand) != "" {
			if !r.dispatcher.Execute(command.Substitute(dep.PrereqCommand, args), desc.Executor) {
				return false, dep.Description
			}
		}
	}

	return true, describe(desc.Dependencies)
}

func describe(deps atomic.Dependencies) string {
	parts := make([]string, 0, len(deps))
	for _, dep := range deps {
		if d := strings.TrimSpace(dep.Description); d != "" {
			parts = append(parts, d)
		}
	}
	return strings.Join(parts, "; ")
}
