package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/naka-gawa/bench-history/internal/domain"
	"github.com/naka-gawa/bench-history/internal/store"
)

var validateCmd = &cobra.Command{
	Use:   "validate <file>...",
	Short: "Validates snapshot files",
	Long: `Checks that each file is a well-formed benchmark snapshot. With --superset-of,
also checks that each file still holds every run of the older snapshot unchanged.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		logger := newLogger()
		olderPath, _ := cmd.Flags().GetString("superset-of")

		var older *domain.BenchmarkData
		if olderPath != "" {
			var err error
			if older, err = store.Load(olderPath); err != nil {
				return err
			}
		}

		for _, path := range args {
			logger.Printf("Validating %s\n", path)
			if older == nil {
				if err := store.Validate(path); err != nil {
					return err
				}
			} else {
				data, err := store.Load(path)
				if err != nil {
					return err
				}
				if err := data.IsSupersetOf(older); err != nil {
					return fmt.Errorf("%s is not an append-only update of %s: %w", path, olderPath, err)
				}
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: ok\n", path)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
	validateCmd.Flags().String("superset-of", "", "Older snapshot every file must extend")
}
