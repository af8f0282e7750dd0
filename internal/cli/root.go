package cli

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/smnkrgr/AtomicActions/internal/event"
)

var (
	workDir string
	logPath string
	noColor bool

	setupFlag   bool
	installFlag bool
	runType     string
	testList    string
	assumeYes   bool
)

var rootCmd = &cobra.Command{
	Use:   "atomicactions",
	Short: "AtomicActions - Atomic Red Team test execution framework",
	Long: `AtomicActions executes Atomic Red Team style attack technique tests
on the local host. It loads technique definitions from the official and
custom test folders, checks whether each atomic test can run here, resolves
its dependencies and runs its command through the requested executor.

Examples:
  atomicactions --setup
  atomicactions --install
  atomicactions --runtype manual --test_list T1059.001,T1003
  atomicactions --runtype include --test_list config/selection.csv
  atomicactions --runtype exclude --test_list config/noisy.csv`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		configureColor()
	},
	RunE: rootCommand,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&workDir, "workdir", "", "Workspace holding tests/, config/ and logs/ (default: current directory)")
	rootCmd.PersistentFlags().StringVar(&logPath, "log", "", "Path to execution log file (default: <workdir>/logs/atomicactions.jsonl)")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "Disable colored output")

	rootCmd.Flags().BoolVar(&setupFlag, "setup", false, "Set up the workspace and install the official atomic tests")
	rootCmd.Flags().BoolVar(&installFlag, "install", false, "Install or update the official atomic tests")
	rootCmd.Flags().StringVar(&runType, "runtype", "", "Run type: 'manual' runs the techniques listed in --test_list, "+
		"'include' runs only the listed techniques, 'exclude' runs every installed technique except the listed ones")
	rootCmd.Flags().StringVar(&testList, "test_list", "", "Comma separated technique IDs, or a CSV file with one technique ID per line")
	rootCmd.Flags().BoolVarP(&assumeYes, "yes", "y", false, "Run without asking for confirmation")
}

func Execute() error {
	return rootCmd.Execute()
}

func rootCommand(cmd *cobra.Command, args []string) error {
	console := event.NewConsole(cmd.OutOrStdout())
	console.Header()

	switch {
	case setupFlag:
		return setupWorkspace(cmd.Context(), console)
	case installFlag:
		return installAtomics(cmd.Context(), console)
	case runType != "" && testList != "":
		return runTests(cmd, console, runOptions{
			runType:   runType,
			testList:  testList,
			assumeYes: assumeYes,
		})
	case runType != "" || testList != "":
		return fmt.Errorf("--runtype and --test_list must be given together")
	default:
		return cmd.Help()
	}
}

// configureColor turns color off when asked to or when stdout is not a
// terminal.
func configureColor() {
	if noColor || os.Getenv("NO_COLOR") != "" || !term.IsTerminal(int(os.Stdout.Fd())) {
		color.NoColor = true
	}
}
