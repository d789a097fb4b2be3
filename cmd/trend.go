package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/naka-gawa/bench-history/cmd/flags"
	"github.com/naka-gawa/bench-history/internal/store"
	"github.com/naka-gawa/bench-history/internal/usecase"
)

var trendCmd = &cobra.Command{
	Use:   "trend",
	Short: "Summarises the history of each benchmark and outputs it as JSON",
	RunE: func(cmd *cobra.Command, args []string) error {
		bench, _ := cmd.Flags().GetString("bench")

		snapshot, err := store.Load(flags.DataFile())
		if err != nil {
			return err
		}
		trends, err := usecase.Trend(snapshot.Runs(flags.Suite()), bench)
		if err != nil {
			return err
		}

		jsonData, err := json.MarshalIndent(trends, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal trends to JSON: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(jsonData))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(trendCmd)
	trendCmd.Flags().StringP("bench", "b", "", "Only summarise this benchmark")
}
