package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/naka-gawa/bench-history/cmd/flags"
	"github.com/naka-gawa/bench-history/internal/domain"
	"github.com/naka-gawa/bench-history/internal/gateway"
	"github.com/naka-gawa/bench-history/internal/parser"
	"github.com/naka-gawa/bench-history/internal/usecase"
)

var recordCmd = &cobra.Command{
	Use:   "record",
	Short: "Appends a benchmark run to the history and outputs it as JSON",
	Long: `Parses benchmark tool output, resolves the commit it was measured on and appends
the run to the snapshot. The commit comes from the GitHub Actions event payload
(GITHUB_EVENT_PATH) when present, otherwise from the GitHub API (GITHUB_TOKEN) using
--commit or GITHUB_SHA. The run is compared with the previous run of the suite.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		logger := newLogger()

		tool, _ := cmd.Flags().GetString("tool")
		outputFiles, _ := cmd.Flags().GetStringArray("output-file")
		commit, _ := cmd.Flags().GetString("commit")
		thresholdStr, _ := cmd.Flags().GetString("alert-threshold")
		failOnAlert, _ := cmd.Flags().GetBool("fail-on-alert")
		dryRun, _ := cmd.Flags().GetBool("dry-run")
		noEvent, _ := cmd.Flags().GetBool("skip-event")

		threshold, err := usecase.ParseThreshold(thresholdStr)
		if err != nil {
			return err
		}
		if commit == "" {
			commit = flags.CommitSHA()
		}
		eventPath := flags.EventPath()
		if noEvent {
			eventPath = ""
		}

		// Inject dependencies and run the main business logic.
		var fetcher gateway.Fetcher
		if token := flags.GitHubToken(); token != "" {
			fetcher, err = gateway.NewGitHubGateway(token, logger)
			if err != nil {
				return fmt.Errorf("failed to create GitHub gateway: %w", err)
			}
		}
		recorder := usecase.NewRecorder(fetcher, logger)

		repo := flags.Repository()
		req := usecase.RecordRequest{
			DataFile:       flags.DataFile(),
			Suite:          flags.Suite(),
			Tool:           tool,
			OutputFiles:    outputFiles,
			Repository:     repo,
			Commit:         commit,
			EventPath:      eventPath,
			AlertThreshold: threshold,
			FailOnAlert:    failOnAlert,
			DryRun:         dryRun,
		}
		if repo != "" {
			req.RepoURL = strings.TrimSuffix(flags.ServerURL(), "/") + "/" + repo
		}

		result, err := recorder.Record(cmd.Context(), req)
		if err != nil && !errors.Is(err, usecase.ErrRegression) {
			return fmt.Errorf("failed to record benchmark run: %w", err)
		}

		out := struct {
			Run    domain.BenchmarkRun `json:"run"`
			Alerts []usecase.Alert     `json:"alerts"`
		}{Run: result.Run, Alerts: result.Alerts}
		jsonData, mErr := json.MarshalIndent(out, "", "  ")
		if mErr != nil {
			return fmt.Errorf("failed to marshal result to JSON: %w", mErr)
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(jsonData))
		return err
	},
}

func init() {
	rootCmd.AddCommand(recordCmd)
	recordCmd.Flags().StringP("tool", "t", parser.ToolPytest, "Benchmark tool that produced the output ("+strings.Join(parser.Tools(), ", ")+")")
	recordCmd.Flags().StringArrayP("output-file", "o", nil, "Benchmark output file (repeatable, required)")
	recordCmd.MarkFlagRequired("output-file")
	recordCmd.Flags().String("commit", "", "Commit hash or ref to record (defaults to GITHUB_SHA)")
	recordCmd.Flags().String("alert-threshold", "200%", "Ratio against the previous run that raises an alert")
	recordCmd.Flags().Bool("fail-on-alert", false, "Exit with an error when an alert is raised")
	recordCmd.Flags().Bool("dry-run", false, "Do not write the snapshot")
	recordCmd.Flags().Bool("skip-event", false, "Ignore GITHUB_EVENT_PATH and look the commit up through the API")
}
