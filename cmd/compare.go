package cmd

import (
	"fmt"
	"strconv"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/naka-gawa/bench-history/cmd/flags"
	"github.com/naka-gawa/bench-history/internal/store"
	"github.com/naka-gawa/bench-history/internal/usecase"
)

var compareCmd = &cobra.Command{
	Use:   "compare",
	Short: "Compares the latest run of a suite with the previous one",
	RunE: func(cmd *cobra.Command, args []string) error {
		logger := newLogger()
		thresholdStr, _ := cmd.Flags().GetString("threshold")
		failOnAlert, _ := cmd.Flags().GetBool("fail-on-alert")

		threshold, err := usecase.ParseThreshold(thresholdStr)
		if err != nil {
			return err
		}

		snapshot, err := store.Load(flags.DataFile())
		if err != nil {
			return err
		}
		suite := flags.Suite()
		latest, ok := snapshot.Latest(suite)
		prev, hasPrev := snapshot.Previous(suite)
		if !ok || !hasPrev {
			return fmt.Errorf("suite %q needs at least 2 runs to compare (have %d)", suite, len(snapshot.Runs(suite)))
		}
		logger.Printf("Comparing %s against %s\n", latest.Commit.ShortID(), prev.Commit.ShortID())

		comparer := usecase.NewComparer(threshold)
		table := pterm.TableData{{"Benchmark", "Unit", prev.Commit.ShortID(), latest.Commit.ShortID(), "Ratio", ""}}
		alerts := 0
		for _, d := range usecase.Diff(prev, latest) {
			status := ""
			if d.Ratio > comparer.Threshold() {
				status = "ALERT"
				alerts++
			}
			table = append(table, []string{
				d.Name,
				d.Unit,
				strconv.FormatFloat(d.Previous, 'g', 6, 64),
				strconv.FormatFloat(d.Current, 'g', 6, 64),
				strconv.FormatFloat(d.Ratio, 'f', 2, 64),
				status,
			})
		}
		if err := pterm.DefaultTable.WithHasHeader().WithWriter(cmd.OutOrStdout()).WithData(table).Render(); err != nil {
			return err
		}

		if failOnAlert && alerts > 0 {
			return fmt.Errorf("%w: %d benchmark(s) over %s", usecase.ErrRegression, alerts, thresholdStr)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(compareCmd)
	compareCmd.Flags().String("threshold", "200%", "Ratio against the previous run that raises an alert")
	compareCmd.Flags().Bool("fail-on-alert", false, "Exit with an error when an alert is raised")
}
