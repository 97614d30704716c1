package core

import (
	"sort"

	"github.com/gacsesystems/tareas/pkg/models"
)

// nextActionStates are the task states eligible as a project's next action.
var nextActionStates = map[models.TaskState]bool{
	models.StateNext:       true,
	models.StateToday:      true,
	models.StateInProgress: true,
}

// NextActionResolver selects the single most relevant open task for a
// project. Pure: the manager applies the result and stamps the timestamp.
type NextActionResolver interface {
	Resolve(p models.Project, tasks []models.Task) *int64
}

type nextActionResolver struct{}

// NewNextActionResolver creates a NextActionResolver.
func NewNextActionResolver() NextActionResolver {
	return nextActionResolver{}
}

// Resolve returns the ID of the first candidate ordered by frog, rock,
// ranking, then score, or nil when the project has no eligible task.
// Callers must skip the call entirely when the project is in manual mode.
func (nextActionResolver) Resolve(p models.Project, tasks []models.Task) *int64 {
	var candidates []models.Task
	for _, t := range tasks {
		if t.Deleted || t.Blocked || t.ProjectID != p.ID {
			continue
		}
		if !nextActionStates[t.State] {
			continue
		}
		candidates = append(candidates, t)
	}
	if len(candidates) == 0 {
		return nil
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		a, b := candidates[i], candidates[j]
		if a.IsFrog != b.IsFrog {
			return a.IsFrog
		}
		if a.IsRock != b.IsRock {
			return a.IsRock
		}
		if a.Ranking != b.Ranking {
			return a.Ranking < b.Ranking
		}
		return a.Score > b.Score
	})

	id := candidates[0].ID
	return &id
}
