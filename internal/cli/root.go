package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var (
	appVersion = "dev"
	appCommit  = "none"
	appDate    = "unknown"
)

// SetVersionInfo sets the version information injected via ldflags.
func SetVersionInfo(version, commit, date string) {
	appVersion = version
	appCommit = commit
	appDate = date
}

var rootCmd = &cobra.Command{
	Use:   "yishu",
	Short: "yishu - guided life-story interviews and biography generation",
	Long: `yishu walks a person through a guided interview about their life, one
stage at a time (childhood, education, career, relationships, reflection),
and turns the answers into a written biography.

The interview can be driven one command at a time (start, question, answer,
next, advance), through the interactive "interview" screen, or by an AI
assistant over MCP ("mcp serve"). Progress is saved after every step.`,
	SilenceUsage: true,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("yishu %s\ncommit: %s\nbuilt:  %s\n", appVersion, appCommit, appDate)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
