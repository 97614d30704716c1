package core

import (
	"os"
	"path/filepath"
	"strconv"
	"testing"

	"pgregory.net/rapid"
)

func TestNextID_Sequence(t *testing.T) {
	dir := t.TempDir()
	gen := NewIDGenerator(dir, "task")

	for want := int64(1); want <= 5; want++ {
		id, err := gen.NextID()
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if id != want {
			t.Errorf("expected ID %d, got %d", want, id)
		}
	}
}

func TestNextID_ResumesFromCounterFile(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, ".task_counter"), []byte("41"), 0o600); err != nil {
		t.Fatal(err)
	}

	gen := NewIDGenerator(dir, "task")
	id, err := gen.NextID()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if id != 42 {
		t.Errorf("expected ID 42, got %d", id)
	}
}

func TestNextID_KindsAreIndependent(t *testing.T) {
	dir := t.TempDir()
	tasks := NewIDGenerator(dir, "task")
	projects := NewIDGenerator(dir, "project")

	if _, err := tasks.NextID(); err != nil {
		t.Fatal(err)
	}
	if _, err := tasks.NextID(); err != nil {
		t.Fatal(err)
	}

	id, err := projects.NextID()
	if err != nil {
		t.Fatal(err)
	}
	if id != 1 {
		t.Errorf("expected independent project sequence starting at 1, got %d", id)
	}
}

func TestNextID_CorruptCounter(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, ".task_counter"), []byte("not a number"), 0o600); err != nil {
		t.Fatal(err)
	}

	gen := NewIDGenerator(dir, "task")
	if _, err := gen.NextID(); err == nil {
		t.Fatal("expected error for corrupt counter file")
	}
}

// Every generated ID is unique and the counter file tracks the total handed
// out.
func TestProperty_IDUniqueness(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		n := rapid.IntRange(2, 60).Draw(rt, "n")

		dir, err := os.MkdirTemp("", "idgen-property-*")
		if err != nil {
			t.Fatalf("failed to create temp dir: %v", err)
		}
		defer os.RemoveAll(dir)

		gen := NewIDGenerator(dir, "task")
		seen := make(map[int64]struct{}, n)
		for i := 0; i < n; i++ {
			id, err := gen.NextID()
			if err != nil {
				rt.Fatalf("NextID failed on call %d: %v", i+1, err)
			}
			if _, exists := seen[id]; exists {
				rt.Fatalf("duplicate ID %d on call %d", id, i+1)
			}
			seen[id] = struct{}{}
		}

		data, err := os.ReadFile(filepath.Join(dir, ".task_counter"))
		if err != nil {
			rt.Fatalf("failed to read counter file: %v", err)
		}
		if string(data) != strconv.Itoa(n) {
			rt.Fatalf("expected counter file to contain %d, got %s", n, string(data))
		}
	})
}
