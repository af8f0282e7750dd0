package cli

import (
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/smnkrgr/AtomicActions/internal/atomic"
	"github.com/smnkrgr/AtomicActions/internal/config"
	"github.com/smnkrgr/AtomicActions/internal/event"
)

var listPlatform string

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List the installed techniques",
	Long: `List every technique found in the official and custom test folders.

  atomicactions list
  atomicactions list --platform linux`,
	RunE: listCommand,
}

func init() {
	listCmd.Flags().StringVar(&listPlatform, "platform", "", "Only count atomic tests supporting this platform (windows, linux, macos)")
	rootCmd.AddCommand(listCmd)
}

func listCommand(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(workDir, logPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	cat, err := atomic.LoadCatalog(cfg.TestDirs(), nil, atomic.SkipOnError)
	if err != nil {
		return fmt.Errorf("failed to load techniques: %w", err)
	}

	console := event.NewConsole(cmd.ErrOrStderr())
	for _, loadErr := range cat.Errors {
		console.Warn("%v", loadErr)
	}
	if cat.Len() == 0 {
		console.Warn("No techniques installed. Run 'atomicactions --install' first.")
		return nil
	}

	shown := renderTechniques(cmd.OutOrStdout(), cat, listPlatform)
	console.Info("%d of %d technique(s) listed.", shown, cat.Len())
	return nil
}

// renderTechniques writes one row per technique with at least one test for
// platform (all techniques when platform is empty) and returns the row count.
func renderTechniques(w io.Writer, cat *atomic.Catalog, platform string) int {
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Technique", "Name", "Tests", "Platforms", "Executors"})
	table.SetAutoWrapText(false)

	rows := 0
	for _, t := range cat.Techniques() {
		count := 0
		platforms := make(map[string]bool)
		executors := make(map[string]bool)
		for _, test := range t.AtomicTests {
			if platform != "" && !test.SupportsPlatform(platform) {
				continue
			}
			count++
			for _, p := range test.SupportedPlatforms {
				platforms[strings.ToLower(p)] = true
			}
			executors[test.Executor.Name] = true
		}
		if count == 0 && platform != "" {
			continue
		}

		table.Append([]string{
			t.ID,
			t.DisplayName,
			strconv.Itoa(count),
			strings.Join(keys(platforms), ", "),
			strings.Join(keys(executors), ", "),
		})
		rows++
	}
	table.Render()
	return rows
}

func keys(m map[string]bool) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
