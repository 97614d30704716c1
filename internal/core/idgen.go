package core

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// IDGenerator hands out unique, monotonically increasing integer IDs for one
// entity kind (tasks, projects, habits each get their own sequence).
type IDGenerator interface {
	NextID() (int64, error)
}

// fileIDGenerator persists its counter in a .{kind}_counter file, guarded by
// an exclusive file lock so concurrent invocations never hand out the same ID.
type fileIDGenerator struct {
	basePath string
	kind     string
}

// NewIDGenerator creates an IDGenerator for the given entity kind, storing
// its counter inside basePath.
func NewIDGenerator(basePath, kind string) IDGenerator {
	return &fileIDGenerator{basePath: basePath, kind: kind}
}

// NextID reads the counter file, increments it, writes it back, and returns
// the new value. A missing counter file starts the sequence at 1.
func (g *fileIDGenerator) NextID() (int64, error) {
	if err := os.MkdirAll(g.basePath, 0o750); err != nil {
		return 0, fmt.Errorf("creating base path for %s counter: %w", g.kind, err)
	}

	counterPath := filepath.Join(g.basePath, "."+g.kind+"_counter")
	unlock, err := lockFile(counterPath + ".lock")
	if err != nil {
		return 0, fmt.Errorf("locking %s counter: %w", g.kind, err)
	}
	defer func() { _ = unlock() }()

	var counter int64
	data, err := os.ReadFile(counterPath)
	if err != nil && !os.IsNotExist(err) {
		return 0, fmt.Errorf("reading %s counter file: %w", g.kind, err)
	}
	if err == nil {
		trimmed := strings.TrimSpace(string(data))
		counter, err = strconv.ParseInt(trimmed, 10, 64)
		if err != nil {
			return 0, fmt.Errorf("parsing %s counter %q: %w", g.kind, trimmed, err)
		}
	}

	counter++

	if err := os.WriteFile(counterPath, []byte(strconv.FormatInt(counter, 10)), 0o600); err != nil {
		return 0, fmt.Errorf("writing %s counter file: %w", g.kind, err)
	}

	return counter, nil
}
