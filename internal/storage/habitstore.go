package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/gacsesystems/tareas/pkg/models"
	"gopkg.in/yaml.v3"
)

// HabitFile represents the top-level structure of habits.yaml. Logs travel
// embedded in their habit record, keyed by date.
type HabitFile struct {
	Version string                 `yaml:"version"`
	Habits  map[int64]models.Habit `yaml:"habits"`
}

// HabitStore manages the habit registry.
type HabitStore interface {
	Add(h models.Habit) error
	Update(h models.Habit) error
	Get(id int64) (*models.Habit, error)
	GetAll() ([]models.Habit, error)
	Remove(id int64) error
	ClearTaskRefs(taskID int64) error
	Load() error
	Save() error
}

type fileHabitStore struct {
	basePath string
	data     HabitFile
}

// NewHabitStore creates a HabitStore backed by a habits.yaml file in the
// given base directory.
func NewHabitStore(basePath string) HabitStore {
	return &fileHabitStore{
		basePath: basePath,
		data: HabitFile{
			Version: "1.0",
			Habits:  make(map[int64]models.Habit),
		},
	}
}

func (s *fileHabitStore) filePath() string {
	return filepath.Join(s.basePath, "habits.yaml")
}

func (s *fileHabitStore) Add(h models.Habit) error {
	if h.ID == 0 {
		return fmt.Errorf("adding habit: ID must not be zero")
	}
	if _, exists := s.data.Habits[h.ID]; exists {
		return fmt.Errorf("adding habit: habit %d already exists", h.ID)
	}
	s.data.Habits[h.ID] = h
	return nil
}

func (s *fileHabitStore) Update(h models.Habit) error {
	if _, exists := s.data.Habits[h.ID]; !exists {
		return fmt.Errorf("updating habit: habit %d not found", h.ID)
	}
	s.data.Habits[h.ID] = h
	return nil
}

func (s *fileHabitStore) Get(id int64) (*models.Habit, error) {
	h, exists := s.data.Habits[id]
	if !exists {
		return nil, fmt.Errorf("habit %d not found", id)
	}
	return &h, nil
}

func (s *fileHabitStore) GetAll() ([]models.Habit, error) {
	habits := make([]models.Habit, 0, len(s.data.Habits))
	for _, h := range s.data.Habits {
		habits = append(habits, h)
	}
	sort.Slice(habits, func(i, j int) bool {
		return habits[i].ID < habits[j].ID
	})
	return habits, nil
}

func (s *fileHabitStore) Remove(id int64) error {
	if _, exists := s.data.Habits[id]; !exists {
		return fmt.Errorf("removing habit: habit %d not found", id)
	}
	delete(s.data.Habits, id)
	return nil
}

// ClearTaskRefs blanks the task reference on every log pointing at taskID.
// The logs themselves stay: deleting a task never loses habit history.
func (s *fileHabitStore) ClearTaskRefs(taskID int64) error {
	for id, h := range s.data.Habits {
		changed := false
		for key, log := range h.Logs {
			if log.TaskID == taskID {
				log.TaskID = 0
				h.Logs[key] = log
				changed = true
			}
		}
		if changed {
			s.data.Habits[id] = h
		}
	}
	return nil
}

func (s *fileHabitStore) Load() error {
	data, err := os.ReadFile(s.filePath())
	if err != nil {
		if os.IsNotExist(err) {
			s.data = HabitFile{
				Version: "1.0",
				Habits:  make(map[int64]models.Habit),
			}
			return nil
		}
		return fmt.Errorf("loading habits: %w", err)
	}

	var hf HabitFile
	if err := yaml.Unmarshal(data, &hf); err != nil {
		return fmt.Errorf("loading habits: parsing YAML: %w", err)
	}
	if hf.Habits == nil {
		hf.Habits = make(map[int64]models.Habit)
	}
	s.data = hf
	return nil
}

func (s *fileHabitStore) Save() error {
	if err := os.MkdirAll(s.basePath, 0o750); err != nil {
		return fmt.Errorf("saving habits: creating directory: %w", err)
	}
	data, err := yaml.Marshal(&s.data)
	if err != nil {
		return fmt.Errorf("saving habits: marshaling YAML: %w", err)
	}
	if err := os.WriteFile(s.filePath(), data, 0o600); err != nil {
		return fmt.Errorf("saving habits: writing file: %w", err)
	}
	return nil
}
