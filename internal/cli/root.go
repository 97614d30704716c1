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
	Use:   "tareas",
	Short: "tareas - personal task, project, and habit engine",
	Long: `tareas is a personal productivity engine built around a scored kanban
board. Every task carries a multi-criteria score with frog, rock, and
pareto multipliers, projects derive their progress and next action from
their tasks, and habits track compliance and streaks.

All state lives in plain YAML files under a base directory, with an
append-only event log feeding metrics and alerts.`,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("tareas %s\ncommit: %s\nbuilt:  %s\n", appVersion, appCommit, appDate)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
