package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// Set through -ldflags at release time.
var (
	Version   = "0.1.0-dev"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print AtomicActions version",
	Run: func(cmd *cobra.Command, args []string) {
		w := cmd.OutOrStdout()
		fmt.Fprintf(w, "AtomicActions %s\n", Version)
		fmt.Fprintf(w, "  Commit: %s\n", GitCommit)
		fmt.Fprintf(w, "  Built:  %s\n", BuildDate)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
