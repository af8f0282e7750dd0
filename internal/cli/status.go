package cli

import (
	"fmt"
	"io"
	"os"
	"os/exec"

	"github.com/spf13/cobra"

	"github.com/smnkrgr/AtomicActions/internal/atomic"
	"github.com/smnkrgr/AtomicActions/internal/config"
	"github.com/smnkrgr/AtomicActions/internal/dispatch"
	"github.com/smnkrgr/AtomicActions/internal/host"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show AtomicActions status: workspace, installed tests, host facts",
	Long: `Check whether the workspace is set up: test folders, exclusion list and
execution log, plus the host facts the precondition checks use.

  atomicactions status`,
	RunE: statusCommand,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func statusCommand(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(workDir, logPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	w := cmd.OutOrStdout()

	fmt.Fprintln(w, "═══════════════════════════════════════════════════════")
	fmt.Fprintln(w, "  AtomicActions Status")
	fmt.Fprintln(w, "═══════════════════════════════════════════════════════")
	fmt.Fprintln(w)

	binPath, err := os.Executable()
	if err != nil {
		binPath = "unknown"
	}
	fmt.Fprintf(w, "  Binary:    %s (%s)\n", binPath, Version)
	fmt.Fprintf(w, "  Workspace: %s\n", cfg.WorkDir)
	fmt.Fprintln(w)

	fmt.Fprintln(w, "─── Tests ─────────────────────────────────────────────")
	checkTestsDir(w, "Official tests", cfg.OfficialTestsPath)
	checkTestsDir(w, "Custom tests", cfg.CustomTestsPath)
	checkExclusions(w, cfg.ExclusionsPath)
	fmt.Fprintln(w)

	fmt.Fprintln(w, "─── Host ──────────────────────────────────────────────")
	facts := host.Detect(dispatch.SupportedExecutors())
	fmt.Fprintf(w, "  OS:        %s\n", facts.OS)
	fmt.Fprintf(w, "  Elevated:  %v\n", facts.Elevated)
	for _, name := range facts.Executors {
		checkExecutor(w, name)
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "─── Execution Log ─────────────────────────────────────")
	checkExecutionLog(w, cfg.LogPath)
	fmt.Fprintln(w)

	return nil
}

func checkTestsDir(w io.Writer, name, path string) {
	if _, err := os.Stat(path); err != nil {
		fmt.Fprintf(w, "  ⬚  %s: %s (missing, run --setup)\n", name, path)
		return
	}
	ids, err := atomic.DiscoverTechniqueIDs([]string{path})
	if err != nil {
		fmt.Fprintf(w, "  ⚠  %s: %v\n", name, err)
		return
	}
	fmt.Fprintf(w, "  ✅ %s: %d technique(s) in %s\n", name, len(ids), path)
}

func checkExclusions(w io.Writer, path string) {
	if _, err := os.Stat(path); err != nil {
		fmt.Fprintf(w, "  ⬚  Exclusions: %s (none)\n", path)
		return
	}
	list, err := atomic.LoadExclusions(path)
	if err != nil {
		fmt.Fprintf(w, "  ⚠  Exclusions: %v\n", err)
		return
	}
	fmt.Fprintf(w, "  ✅ Exclusions: %d atomic test(s) excluded (%s)\n", len(list), path)
}

// checkExecutor reports whether the interpreter behind an executor can be
// found on PATH.
func checkExecutor(w io.Writer, name string) {
	binary := ""
	switch name {
	case dispatch.Sh:
		binary = "sh"
	case dispatch.Bash:
		binary = "bash"
	case dispatch.PowerShell:
		binary = "powershell"
	default:
		fmt.Fprintf(w, "  ✅ Executor %s: direct invocation\n", name)
		return
	}
	if path, err := exec.LookPath(binary); err == nil {
		fmt.Fprintf(w, "  ✅ Executor %s: %s\n", name, path)
	} else {
		fmt.Fprintf(w, "  ⬚  Executor %s: %s not found on PATH\n", name, binary)
	}
}

func checkExecutionLog(w io.Writer, path string) {
	info, err := os.Stat(path)
	if err != nil {
		fmt.Fprintf(w, "  ⬚  %s (not yet created, starts on first run)\n", path)
		return
	}

	sizeKB := info.Size() / 1024
	if sizeKB == 0 {
		fmt.Fprintf(w, "  ✅ %s (<1 KB)\n", path)
	} else {
		fmt.Fprintf(w, "  ✅ %s (%d KB)\n", path, sizeKB)
	}
}
