package repository

import (
	"strings"
	"testing"
	"time"

	"dollhouse/internal/logging"
)

func TestPrepareRepository_Local(t *testing.T) {
	logger, _ := logging.NewTestLogger()
	dir := t.TempDir()

	entry := RepositoryEntry{
		ID:        "local-mirror-1728756432",
		Name:      "Local Mirror",
		Type:      RepositoryTypeLocal,
		CreatedAt: time.Now().Unix(),
		Path:      dir,
	}

	localPath, err := PrepareRepository(entry, logger)
	if err != nil {
		t.Fatalf("PrepareRepository() unexpected error: %v", err)
	}
	if localPath == "" {
		t.Error("PrepareRepository() returned empty path")
	}
}

func TestPrepareRepository_LocalMissingDirectory(t *testing.T) {
	logger, _ := logging.NewTestLogger()

	entry := RepositoryEntry{
		ID:        "broken-mirror-1728756432",
		Name:      "Broken Mirror",
		Type:      RepositoryTypeLocal,
		CreatedAt: time.Now().Unix(),
		Path:      "/nonexistent/portfolio/dir",
	}

	_, err := PrepareRepository(entry, logger)
	if err == nil {
		t.Fatal("PrepareRepository() expected error for missing directory")
	}
	// Error should carry the repository identity for log readability
	if !strings.Contains(err.Error(), entry.ID) {
		t.Errorf("error = %q, want it to mention repository ID", err.Error())
	}
}

func TestPrepareAllRepositories_ValidationFailure(t *testing.T) {
	logger, _ := logging.NewTestLogger()

	a := validLocalEntry()
	b := validLocalEntry() // duplicate ID and name

	_, err := PrepareAllRepositories([]RepositoryEntry{a, b}, logger)
	if err == nil || !strings.Contains(err.Error(), "validation failed") {
		t.Errorf("PrepareAllRepositories() error = %v, want validation failure", err)
	}
}

func TestPrepareAllRepositories_LocalOnly(t *testing.T) {
	logger, _ := logging.NewTestLogger()
	dir := t.TempDir()

	entry := RepositoryEntry{
		ID:        "local-mirror-1728756432",
		Name:      "Local Mirror",
		Type:      RepositoryTypeLocal,
		CreatedAt: time.Now().Unix(),
		Path:      dir,
	}

	prepared, err := PrepareAllRepositories([]RepositoryEntry{entry}, logger)
	if err != nil {
		t.Fatalf("PrepareAllRepositories() unexpected error: %v", err)
	}
	if len(prepared) != 1 {
		t.Fatalf("expected 1 prepared repository, got %d", len(prepared))
	}

	prep := prepared[0]
	if prep.LocalPath == "" {
		t.Error("prepared repository has empty local path")
	}
	// Local repositories are never synced
	if prep.SyncResult.Status != SyncStatusSkipped {
		t.Errorf("sync status = %s, want Skipped", prep.SyncResult.Status)
	}
}

func TestPrepareAllRepositories_ContinuesOnFailure(t *testing.T) {
	logger, _ := logging.NewTestLogger()
	goodDir := t.TempDir()

	good := RepositoryEntry{
		ID:        "good-mirror-1728756432",
		Name:      "Good Mirror",
		Type:      RepositoryTypeLocal,
		CreatedAt: time.Now().Unix(),
		Path:      goodDir,
	}
	bad := RepositoryEntry{
		ID:        "bad-mirror-1728756433",
		Name:      "Bad Mirror",
		Type:      RepositoryTypeLocal,
		CreatedAt: time.Now().Unix(),
		Path:      "/nonexistent/portfolio/dir",
	}

	prepared, err := PrepareAllRepositories([]RepositoryEntry{good, bad}, logger)
	if err == nil {
		t.Fatal("PrepareAllRepositories() expected aggregated error")
	}
	if !strings.Contains(err.Error(), "bad-mirror-1728756433") {
		t.Errorf("error = %q, want it to mention the failed repository", err.Error())
	}

	// The good repository should still have been prepared
	if len(prepared) != 1 {
		t.Fatalf("expected 1 prepared repository, got %d", len(prepared))
	}
	if prepared[0].ID() != "good-mirror-1728756432" {
		t.Errorf("prepared repository ID = %q", prepared[0].ID())
	}
}
