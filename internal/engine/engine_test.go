package engine

import (
	"errors"
	"testing"

	"github.com/smnkrgr/AtomicActions/internal/atomic"
	"github.com/smnkrgr/AtomicActions/internal/host"
	"github.com/smnkrgr/AtomicActions/internal/precondition"
)

type dispatched struct {
	command  string
	executor string
}

// recordingDispatcher fails any command listed in fail and records calls.
type recordingDispatcher struct {
	fail  map[string]bool
	calls []dispatched
}

func (d *recordingDispatcher) Execute(command, executor string) bool {
	d.calls = append(d.calls, dispatched{command, executor})
	return !d.fail[command]
}

func linuxHost() host.Facts {
	return host.Facts{OS: "linux", Executors: []string{"sh", "bash", "command_prompt", "powershell"}}
}

func collect(outcomes *[]Outcome) Sink {
	return SinkFunc(func(o Outcome) { *outcomes = append(*outcomes, o) })
}

func TestRunTechnique_OSMismatchSkipsWithoutDispatch(t *testing.T) {
	d := &recordingDispatcher{}
	var reported []Outcome
	e := New(linuxHost(), nil, d, collect(&reported))

	tech := &atomic.Technique{
		ID: "T1059.001",
		AtomicTests: []atomic.AtomicTest{{
			Name:               "PowerShell download cradle",
			GUID:               "f3132740-55bc-48c4-bcc0-758a459cd027",
			SupportedPlatforms: []string{"windows"},
			Dependencies:       atomic.Dependencies{{Description: "d", PrereqCommand: "check"}},
			Executor:           atomic.Executor{Name: "powershell", Command: "IEX foo"},
		}},
	}

	s := e.Run([]*atomic.Technique{tech})
	if s.Skipped != 1 || s.Executed != 0 {
		t.Errorf("expected 1 skipped and 0 executed, got %+v", s)
	}
	if len(d.calls) != 0 {
		t.Errorf("expected zero dispatched processes, got %v", d.calls)
	}
	if len(reported) != 1 {
		t.Fatalf("expected one reported outcome, got %d", len(reported))
	}
	if reported[0].Reason != precondition.ReasonOSMismatch {
		t.Errorf("unexpected reason %q", reported[0].Reason)
	}
	if !errors.Is(reported[0].Err, ErrPrecondition) {
		t.Errorf("expected ErrPrecondition, got %v", reported[0].Err)
	}
}

func TestRunAtomic_NonZeroExit(t *testing.T) {
	d := &recordingDispatcher{fail: map[string]bool{"exit 1": true}}
	e := New(linuxHost(), nil, d, nil)

	out := e.RunAtomic("T1059.004", atomic.AtomicTest{
		Name:               "fails",
		GUID:               "aaaaaaaa-bbbb-cccc-dddd-eeeeeeeeeeee",
		SupportedPlatforms: []string{"linux"},
		Executor:           atomic.Executor{Name: "bash", Command: "exit 1"},
	})

	if !out.Executed || out.Success {
		t.Errorf("expected executed and unsuccessful, got %+v", out)
	}
	if !errors.Is(out.Err, ErrExecution) {
		t.Errorf("expected ErrExecution, got %v", out.Err)
	}
	if len(d.calls) != 1 || d.calls[0] != (dispatched{"exit 1", "bash"}) {
		t.Errorf("expected exactly one bash invocation, got %v", d.calls)
	}
}

func TestRunAtomic_Success(t *testing.T) {
	d := &recordingDispatcher{}
	var reported []Outcome
	e := New(linuxHost(), nil, d, collect(&reported))

	out := e.RunAtomic("T1082", atomic.AtomicTest{
		Name:               "uname",
		GUID:               "aaaaaaaa-bbbb-cccc-dddd-eeeeeeeeeeee",
		SupportedPlatforms: []string{"linux"},
		InputArguments:     atomic.InputArguments{{Name: "flags", Default: "-a"}},
		Executor:           atomic.Executor{Name: "sh", Command: "uname #{flags}\n"},
	})

	if !out.Executed || !out.Success || out.Reason != "" || out.Err != nil {
		t.Errorf("expected clean success, got %+v", out)
	}
	if out.Command != "uname -a" {
		t.Errorf("expected rendered command 'uname -a', got %q", out.Command)
	}
	if len(reported) != 1 || reported[0].Command != "uname -a" {
		t.Errorf("sink should receive the final outcome, got %+v", reported)
	}
}

func TestRunAtomic_DependencyFailureBlocksCommand(t *testing.T) {
	d := &recordingDispatcher{fail: map[string]bool{"which nmap": true}}
	e := New(linuxHost(), nil, d, nil)

	out := e.RunAtomic("T1046", atomic.AtomicTest{
		Name:                   "port scan",
		GUID:                   "aaaaaaaa-bbbb-cccc-dddd-eeeeeeeeeeee",
		SupportedPlatforms:     []string{"linux"},
		DependencyExecutorName: "sh",
		Dependencies: atomic.Dependencies{{
			Description:      "nmap must be installed",
			PrereqCommand:    "which nmap",
			GetPrereqCommand: "apt-get install -y nmap",
		}},
		Executor: atomic.Executor{Name: "bash", Command: "nmap localhost"},
	})

	if out.Executed {
		t.Error("main command must not run when dependency fails")
	}
	if !errors.Is(out.Err, ErrDependency) {
		t.Errorf("expected ErrDependency, got %v", out.Err)
	}
	if out.Reason != "Dependency not satisfied: nmap must be installed" {
		t.Errorf("unexpected reason %q", out.Reason)
	}
	want := []dispatched{{"apt-get install -y nmap", "sh"}, {"which nmap", "sh"}}
	if len(d.calls) != 2 || d.calls[0] != want[0] || d.calls[1] != want[1] {
		t.Errorf("expected remediation then check under sh, got %v", d.calls)
	}
}

func TestRunAtomic_DependenciesWithoutExecutorAreSatisfied(t *testing.T) {
	d := &recordingDispatcher{fail: map[string]bool{"which nmap": true}}
	e := New(linuxHost(), nil, d, nil)

	out := e.RunAtomic("T1046", atomic.AtomicTest{
		Name:               "port scan",
		GUID:               "aaaaaaaa-bbbb-cccc-dddd-eeeeeeeeeeee",
		SupportedPlatforms: []string{"linux"},
		Dependencies: atomic.Dependencies{{
			Description:      "nmap",
			PrereqCommand:    "which nmap",
			GetPrereqCommand: "apt-get install -y nmap",
		}},
		Executor: atomic.Executor{Name: "bash", Command: "nmap localhost"},
	})

	if !out.Executed || !out.Success || out.Err != nil {
		t.Errorf("expected the main command to run, got %+v", out)
	}
	if len(d.calls) != 1 || d.calls[0] != (dispatched{"nmap localhost", "bash"}) {
		t.Errorf("expected only the main command to be dispatched, got %v", d.calls)
	}
}

func TestRunTechnique_NoFailFastAndOrder(t *testing.T) {
	d := &recordingDispatcher{fail: map[string]bool{"second": true}}
	var reported []Outcome
	e := New(linuxHost(), atomic.ExclusionList{"cccccccc-0000-0000-0000-000000000003": "skip"}, d, collect(&reported))

	mk := func(name, guid string) atomic.AtomicTest {
		return atomic.AtomicTest{
			Name:               name,
			GUID:               guid,
			SupportedPlatforms: []string{"linux"},
			Executor:           atomic.Executor{Name: "sh", Command: name},
		}
	}
	tech := &atomic.Technique{ID: "T1005", AtomicTests: []atomic.AtomicTest{
		mk("first", "cccccccc-0000-0000-0000-000000000001"),
		mk("second", "cccccccc-0000-0000-0000-000000000002"),
		mk("third", "cccccccc-0000-0000-0000-000000000003"),
		mk("fourth", "cccccccc-0000-0000-0000-000000000004"),
	}}

	s := e.Run([]*atomic.Technique{tech, {ID: "T1006"}})

	if s.Techniques != 2 || s.Tests != 4 || s.Succeeded != 2 || s.Failed != 1 || s.Skipped != 1 {
		t.Errorf("unexpected summary %+v", s)
	}
	gotOrder := make([]string, 0, len(reported))
	for _, o := range reported {
		gotOrder = append(gotOrder, o.TestName)
	}
	wantOrder := []string{"first", "second", "third", "fourth"}
	for i := range wantOrder {
		if gotOrder[i] != wantOrder[i] {
			t.Fatalf("expected order %v, got %v", wantOrder, gotOrder)
		}
	}
	if reported[2].Reason != precondition.ReasonExcluded {
		t.Errorf("third test should be excluded, got %q", reported[2].Reason)
	}
	if len(d.calls) != 3 {
		t.Errorf("expected 3 dispatches, got %d", len(d.calls))
	}
}

func TestPlan_DoesNotDispatch(t *testing.T) {
	d := &recordingDispatcher{}
	var reported []Outcome
	e := New(linuxHost(), nil, d, collect(&reported))

	tech := &atomic.Technique{ID: "T1070", AtomicTests: []atomic.AtomicTest{
		{
			Name: "runs", GUID: "dddddddd-0000-0000-0000-000000000001",
			SupportedPlatforms: []string{"linux"},
			Dependencies:       atomic.Dependencies{{Description: "x", PrereqCommand: "check"}},
			Executor:           atomic.Executor{Name: "sh", Command: "rm -f #{log}"},
			InputArguments:     atomic.InputArguments{{Name: "log", Default: "/tmp/log"}},
		},
		{
			Name: "wrong os", GUID: "dddddddd-0000-0000-0000-000000000002",
			SupportedPlatforms: []string{"windows"},
			Executor:           atomic.Executor{Name: "command_prompt", Command: "wevtutil cl System"},
		},
	}}

	plan := e.Plan(tech)
	if len(d.calls) != 0 || len(reported) != 0 {
		t.Fatalf("Plan must not dispatch or report, got %v / %v", d.calls, reported)
	}
	if !plan[0].Success || plan[0].Command != "rm -f /tmp/log" {
		t.Errorf("unexpected first plan entry %+v", plan[0])
	}
	if plan[1].Success || plan[1].Reason != precondition.ReasonOSMismatch {
		t.Errorf("unexpected second plan entry %+v", plan[1])
	}
}
