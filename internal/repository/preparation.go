package repository

import (
	"fmt"
	"strings"

	"dollhouse/internal/logging"
)

// PrepareRepository creates the appropriate source for a repository entry
// and prepares it for use, returning the absolute local path.
//
// For local repositories the configured directory is validated. For GitHub
// repositories the repository is cloned when missing or fetched when
// present and clean, with authentication handled through the credential
// store.
//
// Parameters:
//   - repo: Repository entry with type and configuration
//   - logger: Logger for structured logging (can be nil)
//
// Returns:
//   - string: Absolute path to the prepared local repository
//   - error: Preparation errors (validation, network, authentication)
func PrepareRepository(repo RepositoryEntry, logger *logging.AppLogger) (string, error) {
	if logger != nil {
		if repo.IsRemote() {
			logger.Info("Preparing Git repository source",
				"repository_id", repo.ID,
				"repository_name", repo.Name,
				"remote_url", repo.GetRemoteURL(),
				"path", repo.Path,
			)
		} else {
			logger.Info("Preparing local repository source",
				"repository_id", repo.ID,
				"repository_name", repo.Name,
				"path", repo.Path,
			)
		}
	}

	var source Source
	if repo.IsLocal() {
		source = NewLocalSource(repo.Path)
	} else {
		source = NewGitSource(repo.GetRemoteURL(), repo.Branch, repo.Path)
	}

	localPath, err := source.Prepare(logger)
	if err != nil {
		return "", fmt.Errorf("failed to prepare repository %s (%s): %w",
			repo.ID, repo.Name, err)
	}

	if logger != nil {
		logger.Info("Repository prepared successfully",
			"repository_id", repo.ID,
			"repository_name", repo.Name,
			"local_path", localPath,
		)
	}

	return localPath, nil
}

// PrepareAllRepositories prepares every configured repository and pulls
// updates for the GitHub-backed ones. It returns PreparedRepository values
// bundling the entry, the resolved local path, and the sync outcome.
//
// The preparation process:
//  1. Validate all repositories (duplicates, structure)
//  2. Prepare each repository (clone if needed, validate paths)
//  3. Pull updates for all GitHub repositories that are clean
//
// Failures in one repository do not stop the others; errors are aggregated
// and returned together.
//
// Parameters:
//   - repos: List of repository entries to prepare
//   - logger: Logger for structured logging (can be nil)
//
// Returns:
//   - []PreparedRepository: Prepared repositories with paths and sync status
//   - error: Aggregated preparation errors, nil if all successful
//
// Usage:
//
//	prepared, err := repository.PrepareAllRepositories(cfg.Repositories, logger)
//	if err != nil {
//	    return fmt.Errorf("repository preparation failed: %w", err)
//	}
//	for _, prep := range prepared {
//	    fmt.Printf("Repository %s ready at: %s\n", prep.ID(), prep.LocalPath)
//	}
func PrepareAllRepositories(repos []RepositoryEntry, logger *logging.AppLogger) ([]PreparedRepository, error) {
	if logger != nil {
		logger.Info("Starting multi-repository preparation", "repository_count", len(repos))
	}

	if err := ValidateAllRepositories(repos); err != nil {
		return nil, fmt.Errorf("repository validation failed: %w", err)
	}

	prepared := make([]PreparedRepository, 0, len(repos))
	var preparationErrors []string

	for _, repo := range repos {
		localPath, err := PrepareRepository(repo, logger)
		if err != nil {
			preparationErrors = append(preparationErrors,
				fmt.Sprintf("repository %s (%s): %v", repo.ID, repo.Name, err))
			if logger != nil {
				logger.Error("Repository preparation failed",
					"repository_id", repo.ID,
					"repository_name", repo.Name,
					"error", err,
				)
			}
			// Keep going so one broken repository does not take down the rest
			continue
		}

		prepared = append(prepared, PreparedRepository{
			Entry:     repo,
			LocalPath: localPath,
			SyncResult: RepositorySyncResult{
				RepositoryID:   repo.ID,
				RepositoryName: repo.Name,
				Status:         SyncStatusSkipped,
				SkipReason:     "not synced yet",
			},
		})
	}

	if len(preparationErrors) > 0 {
		return prepared, fmt.Errorf("failed to prepare %d repositories:\n  - %s",
			len(preparationErrors),
			strings.Join(preparationErrors, "\n  - "),
		)
	}

	if len(prepared) > 0 {
		if logger != nil {
			logger.Info("Starting repository synchronization")
		}

		repoEntries := make([]RepositoryEntry, len(prepared))
		for i, p := range prepared {
			repoEntries[i] = p.Entry
		}

		syncResults := SyncAllRepositories(repoEntries, SyncDirectionPull, "", logger)

		syncResultMap := make(map[string]RepositorySyncResult, len(syncResults))
		for _, result := range syncResults {
			syncResultMap[result.RepositoryID] = result
		}

		for i := range prepared {
			if result, exists := syncResultMap[prepared[i].Entry.ID]; exists {
				prepared[i].SyncResult = result
			}
		}
	}

	if logger != nil {
		logger.Info("Multi-repository preparation completed",
			"total_repositories", len(repos),
			"prepared_successfully", len(prepared),
		)
	}

	return prepared, nil
}
