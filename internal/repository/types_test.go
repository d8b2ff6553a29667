package repository

import (
	"strings"
	"testing"
	"time"
)

func strPtr(s string) *string { return &s }

func int64Ptr(i int64) *int64 { return &i }

func validGitHubEntry() RepositoryEntry {
	return RepositoryEntry{
		ID:        "personal-portfolio-1728756432",
		Name:      "Personal Portfolio",
		Type:      RepositoryTypeGitHub,
		CreatedAt: 1728756432,
		Path:      "/home/user/.local/share/dollhouse/repos/portfolio",
		RemoteURL: strPtr("https://github.com/user/portfolio.git"),
	}
}

func validLocalEntry() RepositoryEntry {
	return RepositoryEntry{
		ID:        "backup-mirror-1728756433",
		Name:      "Backup Mirror",
		Type:      RepositoryTypeLocal,
		CreatedAt: 1728756433,
		Path:      "/home/user/portfolio-backup",
	}
}

func TestRepositoryType_IsValid(t *testing.T) {
	tests := []struct {
		rt   RepositoryType
		want bool
	}{
		{RepositoryTypeLocal, true},
		{RepositoryTypeGitHub, true},
		{RepositoryType("svn"), false},
		{RepositoryType(""), false},
	}

	for _, tt := range tests {
		if got := tt.rt.IsValid(); got != tt.want {
			t.Errorf("RepositoryType(%q).IsValid() = %v, want %v", tt.rt, got, tt.want)
		}
	}
}

func TestNewRepositoryEntry(t *testing.T) {
	entry := NewRepositoryEntry("My Portfolio", RepositoryTypeLocal, "/tmp/portfolio")

	if entry.Name != "My Portfolio" {
		t.Errorf("Name = %q, want %q", entry.Name, "My Portfolio")
	}
	if entry.Type != RepositoryTypeLocal {
		t.Errorf("Type = %q, want %q", entry.Type, RepositoryTypeLocal)
	}
	if entry.Path != "/tmp/portfolio" {
		t.Errorf("Path = %q, want %q", entry.Path, "/tmp/portfolio")
	}
	if entry.CreatedAt <= 0 {
		t.Errorf("CreatedAt = %d, want positive timestamp", entry.CreatedAt)
	}

	// ID should be a lowercase slug joined with the creation timestamp
	if !strings.HasPrefix(entry.ID, "my-portfolio-") {
		t.Errorf("ID = %q, want prefix %q", entry.ID, "my-portfolio-")
	}
	if entry.ID != strings.ToLower(entry.ID) {
		t.Errorf("ID = %q, want lowercase", entry.ID)
	}

	// Generated entries must pass their own validation
	if err := ValidateRepositoryEntry(entry); err != nil {
		t.Errorf("generated entry failed validation: %v", err)
	}
}

func TestRepositoryEntry_Getters(t *testing.T) {
	github := validGitHubEntry()
	local := validLocalEntry()

	if !github.IsRemote() || github.IsLocal() {
		t.Error("github entry should be remote, not local")
	}
	if !local.IsLocal() || local.IsRemote() {
		t.Error("local entry should be local, not remote")
	}

	if got := github.GetRemoteURL(); got != "https://github.com/user/portfolio.git" {
		t.Errorf("GetRemoteURL() = %q", got)
	}
	if got := local.GetRemoteURL(); got != "" {
		t.Errorf("GetRemoteURL() on local entry = %q, want empty", got)
	}

	if got := github.GetBranch(); got != "" {
		t.Errorf("GetBranch() with nil branch = %q, want empty", got)
	}
	github.Branch = strPtr("main")
	if got := github.GetBranch(); got != "main" {
		t.Errorf("GetBranch() = %q, want %q", got, "main")
	}
}

func TestValidateRepositoryEntry(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(*RepositoryEntry)
		entry   RepositoryEntry
		wantErr string
	}{
		{
			name:  "valid github entry",
			entry: validGitHubEntry(),
		},
		{
			name:  "valid local entry",
			entry: validLocalEntry(),
		},
		{
			name:    "empty ID",
			entry:   validLocalEntry(),
			modify:  func(r *RepositoryEntry) { r.ID = "" },
			wantErr: "ID cannot be empty",
		},
		{
			name:    "ID without timestamp",
			entry:   validLocalEntry(),
			modify:  func(r *RepositoryEntry) { r.ID = "justname" },
			wantErr: "invalid repository ID format",
		},
		{
			name:    "ID with non-numeric timestamp",
			entry:   validLocalEntry(),
			modify:  func(r *RepositoryEntry) { r.ID = "name-notdigits" },
			wantErr: "timestamp must be numeric",
		},
		{
			name:    "empty name",
			entry:   validLocalEntry(),
			modify:  func(r *RepositoryEntry) { r.Name = "   " },
			wantErr: "name cannot be empty",
		},
		{
			name:    "name too long",
			entry:   validLocalEntry(),
			modify:  func(r *RepositoryEntry) { r.Name = strings.Repeat("x", 101) },
			wantErr: "name too long",
		},
		{
			name:    "invalid type",
			entry:   validLocalEntry(),
			modify:  func(r *RepositoryEntry) { r.Type = "svn" },
			wantErr: "invalid repository type",
		},
		{
			name:    "zero created_at",
			entry:   validLocalEntry(),
			modify:  func(r *RepositoryEntry) { r.CreatedAt = 0 },
			wantErr: "created_at",
		},
		{
			name:    "empty path",
			entry:   validLocalEntry(),
			modify:  func(r *RepositoryEntry) { r.Path = "" },
			wantErr: "path cannot be empty",
		},
		{
			name:    "github without remote URL",
			entry:   validGitHubEntry(),
			modify:  func(r *RepositoryEntry) { r.RemoteURL = nil },
			wantErr: "must have a remote URL",
		},
		{
			name:    "github with empty branch string",
			entry:   validGitHubEntry(),
			modify:  func(r *RepositoryEntry) { r.Branch = strPtr("  ") },
			wantErr: "branch cannot be empty string",
		},
		{
			name:    "github with invalid last sync time",
			entry:   validGitHubEntry(),
			modify:  func(r *RepositoryEntry) { r.LastSyncTime = int64Ptr(-5) },
			wantErr: "last_sync_time",
		},
		{
			name:    "local with remote URL",
			entry:   validLocalEntry(),
			modify:  func(r *RepositoryEntry) { r.RemoteURL = strPtr("https://github.com/x/y.git") },
			wantErr: "should not have a remote URL",
		},
		{
			name:    "local with branch",
			entry:   validLocalEntry(),
			modify:  func(r *RepositoryEntry) { r.Branch = strPtr("main") },
			wantErr: "should not have a branch",
		},
		{
			name:    "local with last sync time",
			entry:   validLocalEntry(),
			modify:  func(r *RepositoryEntry) { r.LastSyncTime = int64Ptr(time.Now().Unix()) },
			wantErr: "should not have a last_sync_time",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			entry := tt.entry
			if tt.modify != nil {
				tt.modify(&entry)
			}

			err := ValidateRepositoryEntry(entry)
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("ValidateRepositoryEntry() unexpected error: %v", err)
				}
				return
			}
			if err == nil {
				t.Fatal("ValidateRepositoryEntry() expected error, got nil")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error = %q, want substring %q", err.Error(), tt.wantErr)
			}
		})
	}
}

func TestValidateAllRepositories(t *testing.T) {
	t.Run("empty list is valid", func(t *testing.T) {
		if err := ValidateAllRepositories(nil); err != nil {
			t.Errorf("ValidateAllRepositories(nil) = %v, want nil", err)
		}
	})

	t.Run("distinct entries are valid", func(t *testing.T) {
		repos := []RepositoryEntry{validGitHubEntry(), validLocalEntry()}
		if err := ValidateAllRepositories(repos); err != nil {
			t.Errorf("ValidateAllRepositories() = %v, want nil", err)
		}
	})

	t.Run("duplicate IDs rejected", func(t *testing.T) {
		a := validGitHubEntry()
		b := validLocalEntry()
		b.ID = a.ID

		err := ValidateAllRepositories([]RepositoryEntry{a, b})
		if err == nil || !strings.Contains(err.Error(), "duplicate repository ID") {
			t.Errorf("expected duplicate ID error, got %v", err)
		}
	})

	t.Run("duplicate names rejected case-insensitively", func(t *testing.T) {
		a := validGitHubEntry()
		b := validLocalEntry()
		b.Name = strings.ToUpper(a.Name)

		err := ValidateAllRepositories([]RepositoryEntry{a, b})
		if err == nil || !strings.Contains(err.Error(), "duplicate repository name") {
			t.Errorf("expected duplicate name error, got %v", err)
		}
	})

	t.Run("invalid entry reported with index", func(t *testing.T) {
		bad := validLocalEntry()
		bad.Path = ""

		err := ValidateAllRepositories([]RepositoryEntry{validGitHubEntry(), bad})
		if err == nil || !strings.Contains(err.Error(), "repository[1]") {
			t.Errorf("expected indexed validation error, got %v", err)
		}
	})
}

func TestValidateRepositoryName(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"valid name", "My Portfolio", false},
		{"empty", "", true},
		{"whitespace only", "   ", true},
		{"too long", strings.Repeat("a", 101), true},
		{"control characters", "bad\x01name", true},
		{"exactly max length", strings.Repeat("a", 100), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateRepositoryName(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateRepositoryName(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
		})
	}
}

func TestValidateRepositoryPath(t *testing.T) {
	if err := ValidateRepositoryPath("/home/user/portfolio"); err != nil {
		t.Errorf("valid path rejected: %v", err)
	}
	if err := ValidateRepositoryPath(""); err == nil {
		t.Error("empty path accepted")
	}
	if err := ValidateRepositoryPath("bad\x00path"); err == nil {
		t.Error("path with null byte accepted")
	}
}

func TestPreparedRepository_Helpers(t *testing.T) {
	pr := PreparedRepository{
		Entry:     validGitHubEntry(),
		LocalPath: "/tmp/clone",
		SyncResult: RepositorySyncResult{
			RepositoryID:   "personal-portfolio-1728756432",
			RepositoryName: "Personal Portfolio",
			Status:         SyncStatusSuccess,
			Duration:       time.Second,
		},
	}

	if pr.ID() != "personal-portfolio-1728756432" {
		t.Errorf("ID() = %q", pr.ID())
	}
	if pr.Name() != "Personal Portfolio" {
		t.Errorf("Name() = %q", pr.Name())
	}
	if !pr.IsRemote() {
		t.Error("IsRemote() = false, want true")
	}
	if !pr.WasSynced() {
		t.Error("WasSynced() = false, want true")
	}
	if msg := pr.GetStatusMessage(); !strings.Contains(msg, "Synced successfully") {
		t.Errorf("GetStatusMessage() = %q", msg)
	}
}
