// Package flags exposes settings resolved from command-line flags and the environment.
package flags

import (
	"github.com/spf13/viper"
)

func DataFile() string {
	return viper.GetString("DATA_FILE")
}

func Suite() string {
	return viper.GetString("NAME")
}

func Verbose() bool {
	return viper.GetBool("VERBOSE")
}

// GitHubToken is read from GITHUB_TOKEN, as set by GitHub Actions.
func GitHubToken() string {
	return viper.GetString("GITHUB_TOKEN")
}

func Repository() string {
	return viper.GetString("GITHUB_REPOSITORY")
}

func CommitSHA() string {
	return viper.GetString("GITHUB_SHA")
}

func EventPath() string {
	return viper.GetString("GITHUB_EVENT_PATH")
}

func ServerURL() string {
	return viper.GetString("GITHUB_SERVER_URL")
}
