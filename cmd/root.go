// Package cmd contains all the CLI commands for the application,
// built using the Cobra library.
package cmd

import (
	"io"
	"log"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/naka-gawa/bench-history/cmd/flags"
)

var rootCmd = &cobra.Command{
	Use:   "bench-history",
	Short: "A CLI tool to keep a continuous benchmark history.",
	Long: `bench-history records benchmark results per commit into an append-only
snapshot (dev/bench/data.js by default) and reads that history back:
list runs, compare the latest runs for regressions and summarise trends.`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	// Add a persistent flag for verbose output, available to all commands.
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose/debug logging")
	rootCmd.PersistentFlags().StringP("data-file", "f", "dev/bench/data.js", "Snapshot file holding the benchmark history (.js or .json)")
	rootCmd.PersistentFlags().StringP("name", "n", "Benchmark", "Name of the benchmark suite")

	viper.SetEnvPrefix("BENCH_HISTORY")
	viper.AutomaticEnv()
	viper.BindPFlag("VERBOSE", rootCmd.PersistentFlags().Lookup("verbose"))
	viper.BindPFlag("DATA_FILE", rootCmd.PersistentFlags().Lookup("data-file"))
	viper.BindPFlag("NAME", rootCmd.PersistentFlags().Lookup("name"))

	// GitHub Actions variables are read without the prefix.
	for _, key := range []string{"GITHUB_TOKEN", "GITHUB_REPOSITORY", "GITHUB_SHA", "GITHUB_EVENT_PATH", "GITHUB_SERVER_URL"} {
		viper.BindEnv(key, key)
	}
	viper.SetDefault("GITHUB_SERVER_URL", "https://github.com")
}

// newLogger discards all logs unless --verbose is set, in which case it logs to stderr.
func newLogger() *log.Logger {
	logger := log.New(io.Discard, "", log.LstdFlags)
	if flags.Verbose() {
		logger.SetOutput(os.Stderr)
	}
	return logger
}
