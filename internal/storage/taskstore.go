// Package storage persists tasks, projects, and habits as YAML files in the
// tareas base directory. Each store keeps the whole file in memory between
// Load and Save; the managers in core drive the load/mutate/save cycle.
package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/gacsesystems/tareas/pkg/models"
	"gopkg.in/yaml.v3"
)

// TaskFile represents the top-level structure of tasks.yaml.
type TaskFile struct {
	Version string                `yaml:"version"`
	Tasks   map[int64]models.Task `yaml:"tasks"`
}

// TaskStore manages the central task registry.
type TaskStore interface {
	Add(t models.Task) error
	Update(t models.Task) error
	Get(id int64) (*models.Task, error)
	GetAll() ([]models.Task, error)
	Remove(id int64) error
	Load() error
	Save() error
}

type fileTaskStore struct {
	basePath string
	data     TaskFile
}

// NewTaskStore creates a TaskStore backed by a tasks.yaml file in the given
// base directory.
func NewTaskStore(basePath string) TaskStore {
	return &fileTaskStore{
		basePath: basePath,
		data: TaskFile{
			Version: "1.0",
			Tasks:   make(map[int64]models.Task),
		},
	}
}

func (s *fileTaskStore) filePath() string {
	return filepath.Join(s.basePath, "tasks.yaml")
}

func (s *fileTaskStore) Add(t models.Task) error {
	if t.ID == 0 {
		return fmt.Errorf("adding task: ID must not be zero")
	}
	if _, exists := s.data.Tasks[t.ID]; exists {
		return fmt.Errorf("adding task: task %d already exists", t.ID)
	}
	s.data.Tasks[t.ID] = t
	return nil
}

func (s *fileTaskStore) Update(t models.Task) error {
	if _, exists := s.data.Tasks[t.ID]; !exists {
		return fmt.Errorf("updating task: task %d not found", t.ID)
	}
	s.data.Tasks[t.ID] = t
	return nil
}

func (s *fileTaskStore) Get(id int64) (*models.Task, error) {
	t, exists := s.data.Tasks[id]
	if !exists {
		return nil, fmt.Errorf("task %d not found", id)
	}
	return &t, nil
}

func (s *fileTaskStore) GetAll() ([]models.Task, error) {
	tasks := make([]models.Task, 0, len(s.data.Tasks))
	for _, t := range s.data.Tasks {
		tasks = append(tasks, t)
	}
	sort.Slice(tasks, func(i, j int) bool {
		return tasks[i].ID < tasks[j].ID
	})
	return tasks, nil
}

func (s *fileTaskStore) Remove(id int64) error {
	if _, exists := s.data.Tasks[id]; !exists {
		return fmt.Errorf("removing task: task %d not found", id)
	}
	delete(s.data.Tasks, id)
	return nil
}

func (s *fileTaskStore) Load() error {
	data, err := os.ReadFile(s.filePath())
	if err != nil {
		if os.IsNotExist(err) {
			s.data = TaskFile{
				Version: "1.0",
				Tasks:   make(map[int64]models.Task),
			}
			return nil
		}
		return fmt.Errorf("loading tasks: %w", err)
	}

	var tf TaskFile
	if err := yaml.Unmarshal(data, &tf); err != nil {
		return fmt.Errorf("loading tasks: parsing YAML: %w", err)
	}
	if tf.Tasks == nil {
		tf.Tasks = make(map[int64]models.Task)
	}
	s.data = tf
	return nil
}

func (s *fileTaskStore) Save() error {
	if err := os.MkdirAll(s.basePath, 0o750); err != nil {
		return fmt.Errorf("saving tasks: creating directory: %w", err)
	}
	data, err := yaml.Marshal(&s.data)
	if err != nil {
		return fmt.Errorf("saving tasks: marshaling YAML: %w", err)
	}
	if err := os.WriteFile(s.filePath(), data, 0o600); err != nil {
		return fmt.Errorf("saving tasks: writing file: %w", err)
	}
	return nil
}
