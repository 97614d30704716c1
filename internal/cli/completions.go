package cli

import (
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/gacsesystems/tareas/internal/core"
	"github.com/gacsesystems/tareas/pkg/models"
)

// completeTaskIDs returns a completion function that lists task IDs,
// optionally excluding certain states.
func completeTaskIDs(excludeStates ...models.TaskState) func(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
	return func(_ *cobra.Command, _ []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		if TaskMgr == nil {
			return nil, cobra.ShellCompDirectiveNoFileComp
		}

		tasks, err := TaskMgr.ListTasks(core.TaskFilter{})
		if err != nil {
			return nil, cobra.ShellCompDirectiveNoFileComp
		}

		exclude := make(map[models.TaskState]bool)
		for _, s := range excludeStates {
			exclude[s] = true
		}

		var ids []string
		for _, task := range tasks {
			if exclude[task.State] {
				continue
			}
			id := strconv.FormatInt(task.ID, 10)
			if toComplete == "" || strings.HasPrefix(id, toComplete) {
				ids = append(ids, id+"\t"+string(task.State)+": "+task.Title)
			}
		}

		return ids, cobra.ShellCompDirectiveNoFileComp
	}
}

// completeProjectIDs returns a completion function that lists project IDs.
func completeProjectIDs(_ *cobra.Command, _ []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	if ProjectMgr == nil {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}

	projects, err := ProjectMgr.ListProjects()
	if err != nil {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}

	var ids []string
	for _, p := range projects {
		id := strconv.FormatInt(p.ID, 10)
		if toComplete == "" || strings.HasPrefix(id, toComplete) {
			ids = append(ids, id+"\t"+string(p.Status)+": "+p.Name)
		}
	}

	return ids, cobra.ShellCompDirectiveNoFileComp
}

// completeHabitIDs returns a completion function that lists habit IDs.
func completeHabitIDs(_ *cobra.Command, _ []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	if HabitMgr == nil {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}

	habits, err := HabitMgr.ListHabits()
	if err != nil {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}

	var ids []string
	for _, h := range habits {
		id := strconv.FormatInt(h.ID, 10)
		if toComplete == "" || strings.HasPrefix(id, toComplete) {
			ids = append(ids, id+"\t"+string(h.Kind)+": "+h.Name)
		}
	}

	return ids, cobra.ShellCompDirectiveNoFileComp
}

// completeStates returns a completion function for kanban state values.
func completeStates(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
	return []string{
		"backlog\tQueued for future work",
		"next\tUp next",
		"today\tPlanned for today",
		"in_progress\tActively being worked on",
		"in_review\tWaiting on review or confirmation",
		"done\tCompleted",
		"blocked\tWaiting on dependency",
	}, cobra.ShellCompDirectiveNoFileComp
}

// completeMoscow returns a completion function for MoSCoW values.
func completeMoscow(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
	return []string{
		"must\tNon-negotiable",
		"should\tImportant but deferrable",
		"could\tNice to have",
		"wont\tExplicitly out for now",
	}, cobra.ShellCompDirectiveNoFileComp
}

// completeHorizons returns a completion function for planning horizons.
func completeHorizons(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
	return []string{
		"week\tThis week",
		"month\tThis month",
		"quarter\tThis quarter",
		"year\tThis year",
		"someday\tSomeday / maybe",
	}, cobra.ShellCompDirectiveNoFileComp
}
