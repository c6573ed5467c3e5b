package repository_test

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/NamanBalaji/vidloader/internal/item"
	"github.com/NamanBalaji/vidloader/internal/repository"
	"github.com/NamanBalaji/vidloader/internal/state"
)

func newRepo(t *testing.T) *repository.BboltRepository {
	t.Helper()

	repo, err := repository.NewBboltRepository(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Failed to create repository: %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	return repo
}

func newRecord(t *testing.T, id string) item.Record {
	t.Helper()

	rec, err := item.New(id, "https://cdn.example/"+id+".m3u8", state.Of(state.Waiting))
	if err != nil {
		t.Fatalf("item.New failed: %v", err)
	}
	return rec
}

func TestNewBboltRepository_OpenError(t *testing.T) {
	dir := t.TempDir()
	_, err := repository.NewBboltRepository(dir)
	if err == nil {
		t.Errorf("Expected error when opening DB on directory path, got nil")
	}
}

func TestSaveFind(t *testing.T) {
	repo := newRepo(t)

	rec := newRecord(t, "x").WithTitle("Episode 1").WithHeader(map[string]string{"Cookie": "a=1"})
	if err := repo.Save(rec); err != nil {
		t.Fatalf("Save error: %v", err)
	}

	got, err := repo.Find("x")
	if err != nil {
		t.Fatalf("Find error: %v", err)
	}
	if got.Identifier() != "x" || got.MediaLink() != rec.MediaLink() || got.Header()["Cookie"] != "a=1" {
		t.Errorf("Find returned wrong record: %+v", got)
	}
	if title, _ := got.Title(); title != "Episode 1" {
		t.Errorf("Expected title to survive, got %q", title)
	}

	_, err = repo.Find("missing")
	if !errors.Is(err, repository.ErrItemNotFound) {
		t.Errorf("Expected ErrItemNotFound, got %v", err)
	}

	_, err = repo.Find("")
	if !errors.Is(err, repository.ErrEmptyIdentifier) {
		t.Errorf("Expected ErrEmptyIdentifier, got %v", err)
	}
}

func TestSaveReplacesRecord(t *testing.T) {
	repo := newRepo(t)

	rec := newRecord(t, "x")
	if err := repo.Save(rec); err != nil {
		t.Fatalf("Save error: %v", err)
	}

	running, err := rec.Transition(state.Of(state.Running))
	if err != nil {
		t.Fatalf("Transition error: %v", err)
	}
	if err := repo.Save(running.WithProgress(0.5)); err != nil {
		t.Fatalf("Save error: %v", err)
	}

	got, err := repo.Find("x")
	if err != nil {
		t.Fatalf("Find error: %v", err)
	}
	if got.State().Kind() != state.Running || got.Progress() != 0.5 {
		t.Errorf("Expected replaced record, got state=%s progress=%v", got.State(), got.Progress())
	}
}

func TestSaveEmptyIdentifier(t *testing.T) {
	repo := newRepo(t)

	if err := repo.Save(item.Record{}); !errors.Is(err, repository.ErrEmptyIdentifier) {
		t.Errorf("Expected ErrEmptyIdentifier, got %v", err)
	}
}

func TestSaveFindAllDelete(t *testing.T) {
	repo := newRepo(t)

	list, err := repo.FindAll()
	if err != nil {
		t.Fatalf("FindAll error: %v", err)
	}
	if len(list) != 0 {
		t.Errorf("Expected empty list, got %d items", len(list))
	}

	for _, id := range []string{"b", "a"} {
		if err := repo.Save(newRecord(t, id)); err != nil {
			t.Fatalf("Save error: %v", err)
		}
	}

	list, err = repo.FindAll()
	if err != nil {
		t.Fatalf("FindAll error: %v", err)
	}
	if len(list) != 2 || list[0].Identifier() != "a" || list[1].Identifier() != "b" {
		t.Errorf("FindAll returned wrong data: %+v", list)
	}

	if err := repo.Delete(""); err == nil {
		t.Errorf("Expected error deleting empty identifier, got nil")
	}

	if err := repo.Delete("missing"); !errors.Is(err, repository.ErrItemNotFound) {
		t.Errorf("Expected ErrItemNotFound deleting non-existent item, got %v", err)
	}

	if err := repo.Delete("a"); err != nil {
		t.Errorf("Delete error for existing item: %v", err)
	}

	list, err = repo.FindAll()
	if err != nil {
		t.Fatalf("FindAll error after delete: %v", err)
	}
	if len(list) != 1 || list[0].Identifier() != "b" {
		t.Errorf("Expected only b after delete, got %+v", list)
	}
}

func TestCloseBehavior(t *testing.T) {
	repo, err := repository.NewBboltRepository(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Failed to create repository: %v", err)
	}

	if err := repo.Close(); err != nil {
		t.Fatalf("Close error: %v", err)
	}

	if err := repo.Save(newRecord(t, "x")); err == nil {
		t.Errorf("Expected error Save after Close, got nil")
	}
	if _, err := repo.FindAll(); err == nil {
		t.Errorf("Expected error FindAll after Close, got nil")
	}
	if err := repo.Delete("x"); err == nil {
		t.Errorf("Expected error Delete after Close, got nil")
	}
}
