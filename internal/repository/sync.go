package repository

import (
	"fmt"
	"time"

	"dollhouse/internal/logging"
)

// SyncDirection selects whether a sync pulls remote changes into the local
// clone or pushes local portfolio changes to the remote.
type SyncDirection string

const (
	// SyncDirectionPull fetches remote updates into the local clone
	SyncDirectionPull SyncDirection = "pull"

	// SyncDirectionPush commits local changes and pushes them to the remote
	SyncDirectionPush SyncDirection = "push"
)

// IsValid checks if the sync direction is a known direction.
func (d SyncDirection) IsValid() bool {
	return d == SyncDirectionPull || d == SyncDirectionPush
}

// ParseSyncDirection parses a direction string, defaulting to pull for the
// empty string.
func ParseSyncDirection(s string) (SyncDirection, error) {
	switch SyncDirection(s) {
	case "":
		return SyncDirectionPull, nil
	case SyncDirectionPull:
		return SyncDirectionPull, nil
	case SyncDirectionPush:
		return SyncDirectionPush, nil
	default:
		return "", fmt.Errorf("invalid sync direction %q (must be %q or %q)", s, SyncDirectionPull, SyncDirectionPush)
	}
}

// SyncStatus represents the outcome of a repository synchronization
// operation.
type SyncStatus int

const (
	// SyncStatusSuccess indicates the repository was successfully synchronized
	SyncStatusSuccess SyncStatus = iota

	// SyncStatusFailed indicates the synchronization failed
	// (network issues, authentication failures, etc.)
	SyncStatusFailed

	// SyncStatusSkipped indicates the synchronization was intentionally
	// skipped (dirty working tree on pull, local repository, etc.)
	SyncStatusSkipped
)

// String returns a human-readable representation of the sync status.
func (s SyncStatus) String() string {
	switch s {
	case SyncStatusSuccess:
		return "Success"
	case SyncStatusFailed:
		return "Failed"
	case SyncStatusSkipped:
		return "Skipped"
	default:
		return "Unknown"
	}
}

// RepositorySyncResult contains the outcome of synchronizing a single
// repository, for CLI and MCP tool output.
type RepositorySyncResult struct {
	// RepositoryID is the unique identifier of the repository
	RepositoryID string

	// RepositoryName is the user-friendly display name
	RepositoryName string

	// Direction is the direction the sync ran in
	Direction SyncDirection

	// Status indicates the outcome of the sync operation
	Status SyncStatus

	// Error contains the error if Status is SyncStatusFailed
	Error error

	// SkipReason contains the reason if Status is SyncStatusSkipped
	SkipReason string

	// Duration is the time taken for the sync operation
	Duration time.Duration
}

// GetMessage returns a user-facing message describing the sync result.
// The format varies by status:
//   - Success: "Synced successfully in 1.2s"
//   - Failed: "Sync failed: network timeout"
//   - Skipped: "Skipped: uncommitted changes"
func (r *RepositorySyncResult) GetMessage() string {
	switch r.Status {
	case SyncStatusSuccess:
		return fmt.Sprintf("Synced successfully in %s", r.Duration.Round(100*time.Millisecond))
	case SyncStatusFailed:
		if r.Error != nil {
			return fmt.Sprintf("Sync failed: %v", r.Error)
		}
		return "Sync failed: unknown error"
	case SyncStatusSkipped:
		if r.SkipReason != "" {
			return fmt.Sprintf("Skipped: %s", r.SkipReason)
		}
		return "Skipped"
	default:
		return "Unknown status"
	}
}

// SyncAllRepositories synchronizes all GitHub repositories in the provided
// list in the given direction. Each repository is handled independently so
// a failure in one does not prevent the others from syncing. Local
// repositories are skipped.
//
// For pull, a repository with uncommitted changes is skipped. For push, the
// current worktree state is committed with the given message before pushing.
//
// Parameters:
//   - repos: List of repository entries to synchronize
//   - direction: SyncDirectionPull or SyncDirectionPush
//   - commitMessage: Commit message used for push syncs (ignored for pull)
//   - logger: Logger for structured logging (can be nil)
//
// Returns:
//   - []RepositorySyncResult: Results for all repositories, in input order
//
// Usage:
//
//	results := repository.SyncAllRepositories(cfg.Repositories, repository.SyncDirectionPull, "", logger)
//	for _, result := range results {
//	    fmt.Printf("%s: %s\n", result.RepositoryName, result.GetMessage())
//	}
func SyncAllRepositories(repos []RepositoryEntry, direction SyncDirection, commitMessage string, logger *logging.AppLogger) []RepositorySyncResult {
	if logger != nil {
		logger.Info("Starting multi-repository sync",
			"repository_count", len(repos),
			"direction", string(direction),
		)
	}

	results := make([]RepositorySyncResult, 0, len(repos))

	for _, repo := range repos {
		result := syncSingleRepository(repo, direction, commitMessage, logger)
		results = append(results, result)

		if logger != nil {
			logger.Info("Repository sync completed",
				"repository_id", result.RepositoryID,
				"repository_name", result.RepositoryName,
				"status", result.Status.String(),
				"duration", result.Duration,
			)
		}
	}

	if logger != nil {
		successCount := 0
		failedCount := 0
		skippedCount := 0
		for _, r := range results {
			switch r.Status {
			case SyncStatusSuccess:
				successCount++
			case SyncStatusFailed:
				failedCount++
			case SyncStatusSkipped:
				skippedCount++
			}
		}
		logger.Info("Multi-repository sync completed",
			"total", len(results),
			"success", successCount,
			"failed", failedCount,
			"skipped", skippedCount,
		)
	}

	return results
}

// syncSingleRepository synchronizes a single repository and returns the result.
func syncSingleRepository(repo RepositoryEntry, direction SyncDirection, commitMessage string, logger *logging.AppLogger) RepositorySyncResult {
	startTime := time.Now()

	result := RepositorySyncResult{
		RepositoryID:   repo.ID,
		RepositoryName: repo.Name,
		Direction:      direction,
	}

	if !repo.IsRemote() {
		result.Status = SyncStatusSkipped
		result.SkipReason = "not a GitHub repository"
		result.Duration = time.Since(startTime)
		return result
	}

	gitSource := NewGitSource(repo.GetRemoteURL(), repo.Branch, repo.Path)

	switch direction {
	case SyncDirectionPush:
		committed, err := gitSource.CommitAndPush(commitMessage, "", logger)
		if err != nil {
			result.Status = SyncStatusFailed
			result.Error = fmt.Errorf("push failed: %w", err)
			result.Duration = time.Since(startTime)
			return result
		}
		if !committed {
			// Nothing new to commit; the push still ran to flush any
			// earlier unpushed commits
			result.SkipReason = ""
		}

	default:
		isDirty, err := IsWorktreeDirty(repo.Path)
		if err != nil {
			result.Status = SyncStatusFailed
			result.Error = fmt.Errorf("failed to check repository status: %w", err)
			result.Duration = time.Since(startTime)
			return result
		}

		if isDirty {
			result.Status = SyncStatusSkipped
			result.SkipReason = "uncommitted changes"
			result.Duration = time.Since(startTime)
			return result
		}

		if err := gitSource.FetchUpdates(logger); err != nil {
			result.Status = SyncStatusFailed
			result.Error = fmt.Errorf("fetch updates failed: %w", err)
			result.Duration = time.Since(startTime)
			return result
		}
	}

	result.Status = SyncStatusSuccess
	result.Duration = time.Since(startTime)
	return result
}
