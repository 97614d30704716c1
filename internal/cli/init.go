package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
)

const starterConfig = `# tareas workspace configuration.
defaults:
  area: personal
  context: ""
  moscow: should
  horizon: week

alerts:
  blocked_threshold_hours: 48
  stale_threshold_days: 7
  max_backlog_size: 100
  metrics_window_days: 30
`

var initCmd = &cobra.Command{
	Use:   "init [path]",
	Short: "Initialize a tareas workspace",
	Long: `Initialize a directory as a tareas workspace: a starter .tareasconfig
plus empty task, project, and habit files.

Safe to run on an existing workspace -- files that already exist are
skipped and not overwritten.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		basePath := "."
		if len(args) > 0 {
			basePath = args[0]
		}
		absPath, err := filepath.Abs(basePath)
		if err != nil {
			return fmt.Errorf("resolving path: %w", err)
		}
		if err := os.MkdirAll(absPath, 0o755); err != nil {
			return fmt.Errorf("creating workspace directory: %w", err)
		}

		files := []struct {
			name    string
			content string
		}{
			{".tareasconfig", starterConfig},
			{"tasks.yaml", "version: \"1.0\"\ntasks: {}\n"},
			{"projects.yaml", "version: \"1.0\"\nprojects: {}\n"},
			{"habits.yaml", "version: \"1.0\"\nhabits: {}\n"},
		}

		var created, skipped []string
		for _, f := range files {
			path := filepath.Join(absPath, f.name)
			if _, err := os.Stat(path); err == nil {
				skipped = append(skipped, f.name)
				continue
			}
			if err := os.WriteFile(path, []byte(f.content), 0o644); err != nil {
				return fmt.Errorf("writing %s: %w", f.name, err)
			}
			created = append(created, f.name)
		}

		if len(created) > 0 {
			fmt.Println("Created:")
			for _, name := range created {
				fmt.Printf("  %s\n", name)
			}
		}
		if len(skipped) > 0 {
			fmt.Println("Skipped (already exist):")
			for _, name := range skipped {
				fmt.Printf("  %s\n", name)
			}
		}
		fmt.Printf("\nWorkspace ready at %s\n", absPath)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
}
