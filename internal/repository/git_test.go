package repository

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"dollhouse/internal/logging"

	"github.com/go-git/go-git/v6"
	"github.com/go-git/go-git/v6/config"
	"github.com/go-git/go-git/v6/plumbing/object"
)

// initTestRepo creates a non-bare git repository with an origin remote
// pointing at the given URL.
func initTestRepo(t *testing.T, path, remoteURL string) *git.Repository {
	t.Helper()

	repo, err := git.PlainInit(path, false)
	if err != nil {
		t.Fatalf("failed to init repository: %v", err)
	}

	if remoteURL != "" {
		_, err = repo.CreateRemote(&config.RemoteConfig{
			Name: "origin",
			URLs: []string{remoteURL},
		})
		if err != nil {
			t.Fatalf("failed to create remote: %v", err)
		}
	}

	return repo
}

// commitTestFile writes a file into the repository worktree and commits it.
func commitTestFile(t *testing.T, repo *git.Repository, repoPath, name, content string) {
	t.Helper()

	if err := os.WriteFile(filepath.Join(repoPath, name), []byte(content), 0644); err != nil {
		t.Fatalf("failed to write file: %v", err)
	}

	worktree, err := repo.Worktree()
	if err != nil {
		t.Fatalf("failed to get worktree: %v", err)
	}
	if _, err := worktree.Add(name); err != nil {
		t.Fatalf("failed to add file: %v", err)
	}
	_, err = worktree.Commit("add "+name, &git.CommitOptions{
		Author: &object.Signature{
			Name:  "tester",
			Email: "tester@localhost",
			When:  time.Now(),
		},
	})
	if err != nil {
		t.Fatalf("failed to commit: %v", err)
	}
}

func TestParseGitURL(t *testing.T) {
	tests := []struct {
		name    string
		url     string
		want    GitURLInfo
		wantErr bool
	}{
		{
			name: "https with .git suffix",
			url:  "https://github.com/user/portfolio.git",
			want: GitURLInfo{Host: "github.com", Owner: "user", Repo: "portfolio"},
		},
		{
			name: "https without suffix",
			url:  "https://github.com/org/elements",
			want: GitURLInfo{Host: "github.com", Owner: "org", Repo: "elements"},
		},
		{
			name: "ssh format",
			url:  "git@github.com:user/portfolio.git",
			want: GitURLInfo{Host: "github.com", Owner: "user", Repo: "portfolio"},
		},
		{
			name: "ssh without suffix",
			url:  "git@git.company.com:team/project",
			want: GitURLInfo{Host: "git.company.com", Owner: "team", Repo: "project"},
		},
		{
			name: "surrounding whitespace",
			url:  "  https://github.com/user/portfolio.git  ",
			want: GitURLInfo{Host: "github.com", Owner: "user", Repo: "portfolio"},
		},
		{
			name:    "missing host",
			url:     "/just/a/path",
			wantErr: true,
		},
		{
			name:    "missing repo component",
			url:     "https://github.com/useronly",
			wantErr: true,
		},
		{
			name:    "empty",
			url:     "",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseGitURL(tt.url)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("ParseGitURL(%q) expected error, got %+v", tt.url, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseGitURL(%q) unexpected error: %v", tt.url, err)
			}
			if got != tt.want {
				t.Errorf("ParseGitURL(%q) = %+v, want %+v", tt.url, got, tt.want)
			}
		})
	}
}

func TestGitSource_NormalizeRemoteURL(t *testing.T) {
	tests := []struct {
		name    string
		url     string
		want    string
		wantErr bool
	}{
		{
			name: "ssh converted to https",
			url:  "git@github.com:user/portfolio.git",
			want: "https://github.com/user/portfolio.git",
		},
		{
			name: "https gets .git suffix",
			url:  "https://github.com/user/portfolio",
			want: "https://github.com/user/portfolio.git",
		},
		{
			name: "https unchanged",
			url:  "https://github.com/user/portfolio.git",
			want: "https://github.com/user/portfolio.git",
		},
		{
			name:    "invalid URL",
			url:     "not-a-url",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gs := NewGitSource(tt.url, nil, "/tmp/clone")
			got, err := gs.normalizeRemoteURL()
			if tt.wantErr {
				if err == nil {
					t.Fatalf("normalizeRemoteURL() expected error, got %q", got)
				}
				return
			}
			if err != nil {
				t.Fatalf("normalizeRemoteURL() unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("normalizeRemoteURL() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestGitSource_NormalizeGitURL_Equivalence(t *testing.T) {
	gs := GitSource{}

	// SSH and HTTPS forms of the same repository must compare equal
	ssh := gs.normalizeGitURL("git@github.com:user/portfolio.git")
	https := gs.normalizeGitURL("https://github.com/user/portfolio")
	if ssh != https {
		t.Errorf("normalized SSH %q != normalized HTTPS %q", ssh, https)
	}

	other := gs.normalizeGitURL("https://github.com/user/different.git")
	if ssh == other {
		t.Errorf("different repositories normalized to the same value: %q", other)
	}
}

func TestDeriveClonePath(t *testing.T) {
	path, err := DeriveClonePath("git@github.com:user/portfolio.git")
	if err != nil {
		t.Fatalf("DeriveClonePath() unexpected error: %v", err)
	}
	if !filepath.IsAbs(path) {
		t.Errorf("DeriveClonePath() = %q, want absolute path", path)
	}
	if filepath.Base(path) != "portfolio" {
		t.Errorf("DeriveClonePath() base = %q, want %q", filepath.Base(path), "portfolio")
	}

	// SSH and HTTPS URLs for the same repo derive the same path
	httpsPath, err := DeriveClonePath("https://github.com/user/portfolio.git")
	if err != nil {
		t.Fatalf("DeriveClonePath() unexpected error: %v", err)
	}
	if path != httpsPath {
		t.Errorf("SSH path %q != HTTPS path %q", path, httpsPath)
	}

	if _, err := DeriveClonePath("not-a-url"); err == nil {
		t.Error("DeriveClonePath() accepted invalid URL")
	}
}

func TestGitSource_ValidateInputs(t *testing.T) {
	tests := []struct {
		name    string
		source  GitSource
		wantErr bool
	}{
		{"valid", NewGitSource("https://github.com/u/r.git", nil, "/tmp/r"), false},
		{"empty URL", NewGitSource("", nil, "/tmp/r"), true},
		{"empty path", NewGitSource("https://github.com/u/r.git", nil, "  "), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.source.validateInputs()
			if (err != nil) != tt.wantErr {
				t.Errorf("validateInputs() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestIsWorktreeDirty(t *testing.T) {
	t.Run("clean after commit", func(t *testing.T) {
		repoPath := filepath.Join(t.TempDir(), "clean-repo")
		repo := initTestRepo(t, repoPath, "")
		commitTestFile(t, repo, repoPath, "persona.md", "content")

		dirty, err := IsWorktreeDirty(repoPath)
		if err != nil {
			t.Fatalf("IsWorktreeDirty() unexpected error: %v", err)
		}
		if dirty {
			t.Error("IsWorktreeDirty() = true for clean repository")
		}
	})

	t.Run("dirty with untracked file", func(t *testing.T) {
		repoPath := filepath.Join(t.TempDir(), "dirty-repo")
		repo := initTestRepo(t, repoPath, "")
		commitTestFile(t, repo, repoPath, "persona.md", "content")

		if err := os.WriteFile(filepath.Join(repoPath, "new.md"), []byte("x"), 0644); err != nil {
			t.Fatalf("failed to write file: %v", err)
		}

		dirty, err := IsWorktreeDirty(repoPath)
		if err != nil {
			t.Fatalf("IsWorktreeDirty() unexpected error: %v", err)
		}
		if !dirty {
			t.Error("IsWorktreeDirty() = false for repository with untracked file")
		}
	})

	t.Run("not a repository", func(t *testing.T) {
		if _, err := IsWorktreeDirty(t.TempDir()); err == nil {
			t.Error("IsWorktreeDirty() expected error for non-repository")
		}
	})
}

func TestGitSource_ValidateCloneDirectory(t *testing.T) {
	tempDir := t.TempDir()
	gs := GitSource{}
	expectedURL := "https://github.com/user/portfolio.git"

	t.Run("missing directory is empty", func(t *testing.T) {
		status, err := gs.validateCloneDirectory(filepath.Join(tempDir, "missing"), expectedURL)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if status != DirectoryStatusEmpty {
			t.Errorf("status = %s, want %s", status, DirectoryStatusEmpty)
		}
	})

	t.Run("empty directory", func(t *testing.T) {
		emptyDir := filepath.Join(tempDir, "empty")
		if err := os.MkdirAll(emptyDir, 0755); err != nil {
			t.Fatal(err)
		}

		status, err := gs.validateCloneDirectory(emptyDir, expectedURL)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if status != DirectoryStatusEmpty {
			t.Errorf("status = %s, want %s", status, DirectoryStatusEmpty)
		}
	})

	t.Run("non-git content is a conflict", func(t *testing.T) {
		conflictDir := filepath.Join(tempDir, "conflict")
		if err := os.MkdirAll(conflictDir, 0755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(filepath.Join(conflictDir, "notes.txt"), []byte("x"), 0644); err != nil {
			t.Fatal(err)
		}

		status, err := gs.validateCloneDirectory(conflictDir, expectedURL)
		if status != DirectoryStatusConflict {
			t.Errorf("status = %s, want %s", status, DirectoryStatusConflict)
		}
		if err == nil || !strings.Contains(err.Error(), "non-git content") {
			t.Errorf("error = %v, want non-git content error", err)
		}
	})

	t.Run("same repo via ssh remote", func(t *testing.T) {
		samePath := filepath.Join(tempDir, "same-repo")
		repo := initTestRepo(t, samePath, "git@github.com:user/portfolio.git")
		commitTestFile(t, repo, samePath, "README.md", "portfolio")

		status, err := gs.validateCloneDirectory(samePath, expectedURL)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if status != DirectoryStatusSameRepo {
			t.Errorf("status = %s, want %s", status, DirectoryStatusSameRepo)
		}
	})

	t.Run("different repo", func(t *testing.T) {
		diffPath := filepath.Join(tempDir, "diff-repo")
		repo := initTestRepo(t, diffPath, "https://github.com/other/project.git")
		commitTestFile(t, repo, diffPath, "README.md", "other")

		status, err := gs.validateCloneDirectory(diffPath, expectedURL)
		if status != DirectoryStatusDifferentRepo {
			t.Errorf("status = %s, want %s", status, DirectoryStatusDifferentRepo)
		}
		if err == nil {
			t.Error("expected error for different repository")
		}
	})

	t.Run("path is a file", func(t *testing.T) {
		filePath := filepath.Join(tempDir, "a-file")
		if err := os.WriteFile(filePath, []byte("x"), 0644); err != nil {
			t.Fatal(err)
		}

		status, err := gs.validateCloneDirectory(filePath, expectedURL)
		if status != DirectoryStatusError || err == nil {
			t.Errorf("status = %s, err = %v, want error status", status, err)
		}
	})
}

func TestGitSource_GetGitRemoteURL(t *testing.T) {
	t.Run("returns first origin URL", func(t *testing.T) {
		repoPath := filepath.Join(t.TempDir(), "repo")
		initTestRepo(t, repoPath, "git@github.com:user/primary.git")

		gs := GitSource{}
		url, err := gs.getGitRemoteURL(repoPath)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if url != "git@github.com:user/primary.git" {
			t.Errorf("url = %q", url)
		}
	})

	t.Run("no origin remote", func(t *testing.T) {
		repoPath := filepath.Join(t.TempDir(), "no-origin")
		initTestRepo(t, repoPath, "")

		gs := GitSource{}
		if _, err := gs.getGitRemoteURL(repoPath); err == nil {
			t.Error("expected error for missing origin remote")
		}
	})
}

func TestGitSource_Prepare_ConflictingDirectory(t *testing.T) {
	tempDir := t.TempDir()
	conflictDir := filepath.Join(tempDir, "existing")
	if err := os.MkdirAll(conflictDir, 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(conflictDir, "data.txt"), []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}

	logger, _ := logging.NewTestLogger()
	gs := NewGitSource("https://github.com/user/portfolio.git", nil, conflictDir)

	_, err := gs.Prepare(logger)
	if err == nil || !strings.Contains(err.Error(), "directory conflict") {
		t.Errorf("Prepare() error = %v, want directory conflict", err)
	}
}

func TestGitSource_FetchUpdates_MissingRepository(t *testing.T) {
	logger, _ := logging.NewTestLogger()
	gs := NewGitSource("https://github.com/user/portfolio.git", nil, filepath.Join(t.TempDir(), "missing"))

	err := gs.FetchUpdates(logger)
	if err == nil || !strings.Contains(err.Error(), "does not exist") {
		t.Errorf("FetchUpdates() error = %v, want missing repository error", err)
	}
}

func TestGitSource_CommitAndPush_LocalRemote(t *testing.T) {
	tempDir := t.TempDir()
	logger, _ := logging.NewTestLogger()

	// Bare repository standing in for the GitHub remote
	barePath := filepath.Join(tempDir, "origin.git")
	if _, err := git.PlainInit(barePath, true); err != nil {
		t.Fatalf("failed to init bare repo: %v", err)
	}

	workPath := filepath.Join(tempDir, "work")
	repo := initTestRepo(t, workPath, barePath)
	commitTestFile(t, repo, workPath, "persona.md", "original")

	// New uncommitted change to commit and push
	if err := os.WriteFile(filepath.Join(workPath, "skill.md"), []byte("new skill"), 0644); err != nil {
		t.Fatal(err)
	}

	gs := NewGitSource(barePath, nil, workPath)
	committed, err := gs.CommitAndPush("add skill", "tester", logger)
	if err != nil {
		t.Fatalf("CommitAndPush() unexpected error: %v", err)
	}
	if !committed {
		t.Error("CommitAndPush() committed = false, want true")
	}

	// Worktree must be clean afterwards
	dirty, err := IsWorktreeDirty(workPath)
	if err != nil {
		t.Fatalf("IsWorktreeDirty() error: %v", err)
	}
	if dirty {
		t.Error("worktree still dirty after CommitAndPush")
	}

	// Clean worktree: no new commit, push still succeeds as up to date
	committed, err = gs.CommitAndPush("nothing to do", "tester", logger)
	if err != nil {
		t.Fatalf("second CommitAndPush() unexpected error: %v", err)
	}
	if committed {
		t.Error("second CommitAndPush() committed = true, want false")
	}
}

func TestGitSource_FetchResetsToRemoteHead(t *testing.T) {
	tempDir := t.TempDir()
	logger, _ := logging.NewTestLogger()

	// Bare repository standing in for the GitHub remote
	barePath := filepath.Join(tempDir, "origin.git")
	if _, err := git.PlainInit(barePath, true); err != nil {
		t.Fatalf("failed to init bare repo: %v", err)
	}

	writerPath := filepath.Join(tempDir, "writer")
	initTestRepo(t, writerPath, barePath)
	if err := os.WriteFile(filepath.Join(writerPath, "persona.md"), []byte("original"), 0644); err != nil {
		t.Fatal(err)
	}
	writerGS := NewGitSource(barePath, nil, writerPath)
	if _, err := writerGS.CommitAndPush("add persona", "tester", logger); err != nil {
		t.Fatalf("CommitAndPush() unexpected error: %v", err)
	}

	// Second clone that will pull the writer's later changes
	readerPath := filepath.Join(tempDir, "reader")
	if _, err := git.PlainClone(readerPath, &git.CloneOptions{URL: barePath}); err != nil {
		t.Fatalf("failed to clone reader repo: %v", err)
	}

	if err := os.WriteFile(filepath.Join(writerPath, "persona.md"), []byte("updated"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := writerGS.CommitAndPush("update persona", "tester", logger); err != nil {
		t.Fatalf("second CommitAndPush() unexpected error: %v", err)
	}

	readerGS := NewGitSource(barePath, nil, readerPath)
	if err := readerGS.performFetch(readerPath, nil, logger); err != nil {
		t.Fatalf("performFetch() unexpected error: %v", err)
	}

	content, err := os.ReadFile(filepath.Join(readerPath, "persona.md"))
	if err != nil {
		t.Fatalf("failed to read pulled file: %v", err)
	}
	if string(content) != "updated" {
		t.Errorf("worktree content = %q, want %q after fetch", content, "updated")
	}

	t.Run("dirty worktree untouched", func(t *testing.T) {
		if err := os.WriteFile(filepath.Join(readerPath, "persona.md"), []byte("local edit"), 0644); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(filepath.Join(writerPath, "persona.md"), []byte("newer"), 0644); err != nil {
			t.Fatal(err)
		}
		if _, err := writerGS.CommitAndPush("newer persona", "tester", logger); err != nil {
			t.Fatalf("CommitAndPush() unexpected error: %v", err)
		}

		if err := readerGS.performFetch(readerPath, nil, logger); err != nil {
			t.Fatalf("performFetch() unexpected error: %v", err)
		}
		content, err := os.ReadFile(filepath.Join(readerPath, "persona.md"))
		if err != nil {
			t.Fatal(err)
		}
		if string(content) != "local edit" {
			t.Errorf("dirty worktree content = %q, want local edit preserved", content)
		}
	})
}

func TestGitSource_CommitAndPush_MissingRepository(t *testing.T) {
	logger, _ := logging.NewTestLogger()
	gs := NewGitSource("https://github.com/user/portfolio.git", nil, filepath.Join(t.TempDir(), "missing"))

	if _, err := gs.CommitAndPush("msg", "tester", logger); err == nil {
		t.Error("CommitAndPush() expected error for missing repository")
	}
}

func TestGitSource_AuthErrorDetection(t *testing.T) {
	gs := GitSource{}

	tests := []struct {
		msg  string
		want bool
	}{
		{"authentication required", true},
		{"server returned 401 Unauthorized", true},
		{"HTTP 403 Forbidden", true},
		{"repository not found", false},
		{"network timeout", false},
	}

	for _, tt := range tests {
		if got := gs.containsAuthErrorPatterns(tt.msg); got != tt.want {
			t.Errorf("containsAuthErrorPatterns(%q) = %v, want %v", tt.msg, got, tt.want)
		}
	}

	if gs.isAuthenticationError(nil) {
		t.Error("isAuthenticationError(nil) = true, want false")
	}
}

func TestDirectoryStatus_String(t *testing.T) {
	tests := []struct {
		status DirectoryStatus
		want   string
	}{
		{DirectoryStatusEmpty, "empty or doesn't exist"},
		{DirectoryStatusSameRepo, "same git repository"},
		{DirectoryStatusDifferentRepo, "different git repository"},
		{DirectoryStatusConflict, "contains non-git content"},
		{DirectoryStatusError, "validation error"},
		{DirectoryStatus(99), "unknown status"},
	}

	for _, tt := range tests {
		if got := tt.status.String(); got != tt.want {
			t.Errorf("DirectoryStatus(%d).String() = %q, want %q", tt.status, got, tt.want)
		}
	}
}
