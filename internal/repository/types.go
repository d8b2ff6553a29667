package repository

import (
	"fmt"
	"strings"
	"time"

	"dollhouse/internal/logging"
	"dollhouse/pkg/fileops"
)

// Source abstracts the different backing stores a portfolio can sync with.
// Implementations resolve their configuration to an absolute local filesystem
// path that the portfolio layer can read and write.
//
// Implementations:
//   - LocalSource: validates an existing local directory (see local.go)
//   - GitSource: clones or fetches a GitHub repository (see git.go)
type Source interface {
	// Prepare validates and prepares the source for use, returning the
	// absolute path to the local repository root.
	//
	// For LocalSource this is pure validation. For GitSource it clones the
	// repository when missing, fetches updates when present and clean, and
	// skips the update when the worktree has uncommitted changes.
	//
	// Parameters:
	//   - logger: Structured logger for operation logging (can be nil)
	//
	// Returns:
	//   - localPath: Absolute filesystem path to the prepared repository
	//   - error: Validation, network, or authentication failures
	Prepare(logger *logging.AppLogger) (localPath string, err error)
}

// RepositoryType represents the storage backend of a configured repository.
type RepositoryType string

const (
	// RepositoryTypeLocal indicates a plain local directory
	RepositoryTypeLocal RepositoryType = "local"

	// RepositoryTypeGitHub indicates a GitHub-hosted Git repository
	RepositoryTypeGitHub RepositoryType = "github"
)

// String returns the string representation of the repository type.
func (rt RepositoryType) String() string {
	return string(rt)
}

// IsValid checks if the repository type is a known type.
func (rt RepositoryType) IsValid() bool {
	return rt == RepositoryTypeLocal || rt == RepositoryTypeGitHub
}

// RepositoryEntry represents a single configured portfolio repository.
//
// Fields:
//   - ID: Unique identifier in format "sanitized-name-timestamp"
//     (e.g., "personal-portfolio-1728756432")
//   - Name: User-provided display name (e.g., "Personal Portfolio")
//   - Type: Repository type ("local" or "github")
//   - CreatedAt: Unix timestamp when the repository was added
//   - Path: Local directory for local repos, clone path for GitHub repos
//   - RemoteURL: GitHub repository URL (only for Type == RepositoryTypeGitHub)
//   - Branch: Git branch name (optional, only for GitHub repos)
//   - LastSyncTime: Unix timestamp of the last successful sync (GitHub only)
type RepositoryEntry struct {
	ID        string         `yaml:"id"`
	Name      string         `yaml:"name"`
	Type      RepositoryType `yaml:"type"`
	CreatedAt int64          `yaml:"created_at"`

	Path string `yaml:"path"`

	RemoteURL    *string `yaml:"remote_url,omitempty"`
	Branch       *string `yaml:"branch,omitempty"`
	LastSyncTime *int64  `yaml:"last_sync_time,omitempty"`
}

// NewRepositoryEntry builds an entry with a generated ID and creation
// timestamp. The ID is the sanitized, lowercased name joined with the Unix
// timestamp, which keeps IDs stable, unique, and readable in config files.
//
// Parameters:
//   - name: User-provided display name
//   - repoType: Repository type ("local" or "github")
//   - path: Local directory or clone path
//
// Returns:
//   - RepositoryEntry: Entry ready for type-specific fields and validation
func NewRepositoryEntry(name string, repoType RepositoryType, path string) RepositoryEntry {
	now := time.Now().Unix()
	slug, err := fileops.SanitizeIdentifier(strings.TrimSpace(name), 50)
	if err != nil || slug == "" {
		slug = "repository"
	}
	slug = strings.ReplaceAll(strings.ToLower(slug), " ", "-")

	return RepositoryEntry{
		ID:        fmt.Sprintf("%s-%d", slug, now),
		Name:      strings.TrimSpace(name),
		Type:      repoType,
		CreatedAt: now,
		Path:      path,
	}
}

// IsRemote returns true if this repository is a remote Git repository.
func (r RepositoryEntry) IsRemote() bool {
	return r.Type == RepositoryTypeGitHub
}

// IsLocal returns true if this repository is a local directory repository.
func (r RepositoryEntry) IsLocal() bool {
	return r.Type == RepositoryTypeLocal
}

// GetRemoteURL returns the remote URL if this is a GitHub repository.
// Returns empty string for local repositories or if RemoteURL is nil.
func (r RepositoryEntry) GetRemoteURL() string {
	if r.RemoteURL != nil {
		return *r.RemoteURL
	}
	return ""
}

// GetBranch returns the branch name if specified, or empty string for the
// remote's default branch.
func (r RepositoryEntry) GetBranch() string {
	if r.Branch != nil {
		return *r.Branch
	}
	return ""
}

// String returns a string representation of the repository entry for logging.
func (r RepositoryEntry) String() string {
	if r.IsRemote() {
		return fmt.Sprintf("Repository{ID: %s, Name: %s, Type: %s, RemoteURL: %s}",
			r.ID, r.Name, r.Type, r.GetRemoteURL())
	}
	return fmt.Sprintf("Repository{ID: %s, Name: %s, Type: %s, Path: %s}",
		r.ID, r.Name, r.Type, r.Path)
}

// ValidateBasicFields validates the fields shared by all repository types.
func (r RepositoryEntry) ValidateBasicFields() error {
	if r.ID == "" {
		return fmt.Errorf("repository ID cannot be empty")
	}

	// ID should contain at least one dash and end with a numeric timestamp
	parts := strings.Split(r.ID, "-")
	if len(parts) < 2 {
		return fmt.Errorf("invalid repository ID format %q (expected: name-timestamp)", r.ID)
	}
	lastPart := parts[len(parts)-1]
	if len(lastPart) == 0 {
		return fmt.Errorf("invalid repository ID format %q (missing timestamp)", r.ID)
	}
	for _, ch := range lastPart {
		if ch < '0' || ch > '9' {
			return fmt.Errorf("invalid repository ID format %q (timestamp must be numeric)", r.ID)
		}
	}

	trimmedName := strings.TrimSpace(r.Name)
	if trimmedName == "" {
		return fmt.Errorf("repository name cannot be empty")
	}
	if len(trimmedName) > 100 {
		return fmt.Errorf("repository name too long (%d characters, maximum 100)", len(trimmedName))
	}

	if !r.Type.IsValid() {
		return fmt.Errorf("invalid repository type %q (must be %q or %q)",
			r.Type, RepositoryTypeLocal, RepositoryTypeGitHub)
	}

	if r.CreatedAt <= 0 {
		return fmt.Errorf("invalid created_at timestamp: %d (must be positive Unix timestamp)", r.CreatedAt)
	}

	if strings.TrimSpace(r.Path) == "" {
		return fmt.Errorf("repository path cannot be empty")
	}

	return nil
}

// ValidateTypeSpecificFields validates constraints that depend on the
// repository type.
func (r RepositoryEntry) ValidateTypeSpecificFields() error {
	if r.Type == RepositoryTypeGitHub {
		if r.RemoteURL == nil || strings.TrimSpace(*r.RemoteURL) == "" {
			return fmt.Errorf("github repository must have a remote URL")
		}
		if r.Branch != nil && strings.TrimSpace(*r.Branch) == "" {
			return fmt.Errorf("branch cannot be empty string (use nil for default branch)")
		}
		if r.LastSyncTime != nil && *r.LastSyncTime <= 0 {
			return fmt.Errorf("last_sync_time must be positive Unix timestamp, got: %d", *r.LastSyncTime)
		}
	} else if r.Type == RepositoryTypeLocal {
		if r.RemoteURL != nil && *r.RemoteURL != "" {
			return fmt.Errorf("local repository should not have a remote URL")
		}
		if r.Branch != nil && *r.Branch != "" {
			return fmt.Errorf("local repository should not have a branch")
		}
		if r.LastSyncTime != nil {
			return fmt.Errorf("local repository should not have a last_sync_time")
		}
	}

	return nil
}

// PreparedRepository bundles a repository entry with its resolved local path
// and the result of its most recent sync. It is returned by
// PrepareAllRepositories and consumed by the MCP and CLI layers.
type PreparedRepository struct {
	// Entry contains the original repository configuration
	Entry RepositoryEntry

	// LocalPath is the absolute local path where the repository is accessible
	LocalPath string

	// SyncResult holds the outcome of the last sync operation.
	// Local repositories always report SyncStatusSkipped.
	SyncResult RepositorySyncResult
}

// ID returns the repository ID for convenience.
func (pr PreparedRepository) ID() string {
	return pr.Entry.ID
}

// Name returns the repository name for convenience.
func (pr PreparedRepository) Name() string {
	return pr.Entry.Name
}

// IsRemote returns true if this is a remote repository.
func (pr PreparedRepository) IsRemote() bool {
	return pr.Entry.IsRemote()
}

// WasSynced returns true if the repository was successfully synchronized.
func (pr PreparedRepository) WasSynced() bool {
	return pr.SyncResult.Status == SyncStatusSuccess
}

// GetStatusMessage returns a user-friendly status message for this repository.
func (pr PreparedRepository) GetStatusMessage() string {
	return pr.SyncResult.GetMessage()
}

// String returns a string representation of the prepared repository for logging.
func (pr PreparedRepository) String() string {
	return fmt.Sprintf("PreparedRepository{ID: %s, Name: %s, LocalPath: %s, Status: %s}",
		pr.ID(), pr.Name(), pr.LocalPath, pr.SyncResult.Status.String())
}
