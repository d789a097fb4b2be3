package cmd

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/naka-gawa/bench-history/cmd/flags"
	"github.com/naka-gawa/bench-history/internal/domain"
	"github.com/naka-gawa/bench-history/internal/store"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "Lists the recorded runs of a suite",
	RunE: func(cmd *cobra.Command, args []string) error {
		logger := newLogger()
		all, _ := cmd.Flags().GetBool("all")

		dataFile := flags.DataFile()
		logger.Printf("Loading %s\n", dataFile)
		snapshot, err := store.Load(dataFile)
		if err != nil {
			return err
		}

		suites := []string{flags.Suite()}
		if all {
			suites = snapshot.Suites()
		}

		table := pterm.TableData{{"Suite", "Commit", "Date", "Tool", "Benches", "Message"}}
		for _, suite := range suites {
			for _, run := range snapshot.Runs(suite) {
				table = append(table, runRow(suite, run))
			}
		}
		if len(table) == 1 {
			return fmt.Errorf("no runs recorded for %s in %s", strings.Join(suites, ", "), dataFile)
		}
		return pterm.DefaultTable.WithHasHeader().WithWriter(cmd.OutOrStdout()).WithData(table).Render()
	},
}

func runRow(suite string, run domain.BenchmarkRun) []string {
	message, _, _ := strings.Cut(run.Commit.Message, "\n")
	return []string{
		suite,
		run.Commit.ShortID(),
		run.Time().UTC().Format(time.RFC3339),
		run.Tool,
		strconv.Itoa(len(run.Benches)),
		message,
	}
}

func init() {
	rootCmd.AddCommand(listCmd)
	listCmd.Flags().Bool("all", false, "List runs of every suite")
}
