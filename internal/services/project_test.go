package services

import (
	"errors"
	"fmt"
	"testing"
	"time"
)

func TestProjectNumberSequence(t *testing.T) {
	conn := setupTestDB(t)
	svc := NewProjectService(conn)
	year := time.Now().UTC().Year()

	first, err := svc.Create(CreateProjectInput{Name: "Projet un"}, 1)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if want := fmt.Sprintf("PRJ%d0001", year); first.Number != want {
		t.Fatalf("number = %q, expected %q", first.Number, want)
	}

	second, err := svc.Create(CreateProjectInput{Name: "Projet deux"}, 1)
	if err != nil {
		t.Fatalf("create second: %v", err)
	}
	if want := fmt.Sprintf("PRJ%d0002", year); second.Number != want {
		t.Fatalf("number = %q, expected %q", second.Number, want)
	}
}

func TestProjectCreateRequiresName(t *testing.T) {
	conn := setupTestDB(t)
	if _, err := NewProjectService(conn).Create(CreateProjectInput{}, 1); err == nil {
		t.Fatal("expected error for missing name")
	}
}

func TestProjectGetNotFound(t *testing.T) {
	conn := setupTestDB(t)
	if _, err := NewProjectService(conn).Get(42); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestProjectListFiltersByStatus(t *testing.T) {
	conn := setupTestDB(t)
	svc := NewProjectService(conn)
	if _, err := svc.Create(CreateProjectInput{Name: "A"}, 1); err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := svc.Create(CreateProjectInput{Name: "B", Status: "in_progress"}, 1); err != nil {
		t.Fatalf("create: %v", err)
	}

	projects, total, err := svc.List(ProjectListFilter{Status: "in_progress"})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if total != 1 || len(projects) != 1 || projects[0].Name != "B" {
		t.Fatalf("unexpected list result: total=%d projects=%+v", total, projects)
	}
}
