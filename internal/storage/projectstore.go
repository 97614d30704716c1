package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/gacsesystems/tareas/pkg/models"
	"gopkg.in/yaml.v3"
)

// ProjectFile represents the top-level structure of projects.yaml. Stages and
// objectives travel embedded in their project record.
type ProjectFile struct {
	Version  string                   `yaml:"version"`
	Projects map[int64]models.Project `yaml:"projects"`
}

// ProjectStore manages the project registry.
type ProjectStore interface {
	Add(p models.Project) error
	Update(p models.Project) error
	Get(id int64) (*models.Project, error)
	GetAll() ([]models.Project, error)
	Remove(id int64) error
	Load() error
	Save() error
}

type fileProjectStore struct {
	basePath string
	data     ProjectFile
}

// NewProjectStore creates a ProjectStore backed by a projects.yaml file in
// the given base directory.
func NewProjectStore(basePath string) ProjectStore {
	return &fileProjectStore{
		basePath: basePath,
		data: ProjectFile{
			Version:  "1.0",
			Projects: make(map[int64]models.Project),
		},
	}
}

func (s *fileProjectStore) filePath() string {
	return filepath.Join(s.basePath, "projects.yaml")
}

func (s *fileProjectStore) Add(p models.Project) error {
	if p.ID == 0 {
		return fmt.Errorf("adding project: ID must not be zero")
	}
	if _, exists := s.data.Projects[p.ID]; exists {
		return fmt.Errorf("adding project: project %d already exists", p.ID)
	}
	s.data.Projects[p.ID] = p
	return nil
}

func (s *fileProjectStore) Update(p models.Project) error {
	if _, exists := s.data.Projects[p.ID]; !exists {
		return fmt.Errorf("updating project: project %d not found", p.ID)
	}
	s.data.Projects[p.ID] = p
	return nil
}

func (s *fileProjectStore) Get(id int64) (*models.Project, error) {
	p, exists := s.data.Projects[id]
	if !exists {
		return nil, fmt.Errorf("project %d not found", id)
	}
	return &p, nil
}

func (s *fileProjectStore) GetAll() ([]models.Project, error) {
	projects := make([]models.Project, 0, len(s.data.Projects))
	for _, p := range s.data.Projects {
		projects = append(projects, p)
	}
	sort.Slice(projects, func(i, j int) bool {
		return projects[i].ID < projects[j].ID
	})
	return projects, nil
}

func (s *fileProjectStore) Remove(id int64) error {
	if _, exists := s.data.Projects[id]; !exists {
		return fmt.Errorf("removing project: project %d not found", id)
	}
	delete(s.data.Projects, id)
	return nil
}

func (s *fileProjectStore) Load() error {
	data, err := os.ReadFile(s.filePath())
	if err != nil {
		if os.IsNotExist(err) {
			s.data = ProjectFile{
				Version:  "1.0",
				Projects: make(map[int64]models.Project),
			}
			return nil
		}
		return fmt.Errorf("loading projects: %w", err)
	}

	var pf ProjectFile
	if err := yaml.Unmarshal(data, &pf); err != nil {
		return fmt.Errorf("loading projects: parsing YAML: %w", err)
	}
	if pf.Projects == nil {
		pf.Projects = make(map[int64]models.Project)
	}
	s.data = pf
	return nil
}

func (s *fileProjectStore) Save() error {
	if err := os.MkdirAll(s.basePath, 0o750); err != nil {
		return fmt.Errorf("saving projects: creating directory: %w", err)
	}
	data, err := yaml.Marshal(&s.data)
	if err != nil {
		return fmt.Errorf("saving projects: marshaling YAML: %w", err)
	}
	if err := os.WriteFile(s.filePath(), data, 0o600); err != nil {
		return fmt.Errorf("saving projects: writing file: %w", err)
	}
	return nil
}
