package repository

import (
	"fmt"
	"strings"
)

// ValidateRepositoryEntry validates a single repository entry for structural
// correctness. Both the shared fields (ID, name, type, timestamps, path) and
// the type-specific constraints (GitHub repos need a remote URL, local repos
// must not carry Git fields) are checked.
//
// Parameters:
//   - repo: Repository entry to validate
//
// Returns:
//   - error: Validation error with a detailed description, nil if valid
func ValidateRepositoryEntry(repo RepositoryEntry) error {
	if err := repo.ValidateBasicFields(); err != nil {
		return err
	}
	if err := repo.ValidateTypeSpecificFields(); err != nil {
		return err
	}
	return nil
}

// ValidateAllRepositories validates a list of repository entries for
// structural correctness and uniqueness. Call this before preparing or
// syncing the configured repositories.
//
// Validation checks:
//   - No duplicate repository IDs
//   - No duplicate repository names (case-insensitive)
//   - Each entry passes ValidateRepositoryEntry
//
// Parameters:
//   - repos: List of repository entries to validate
//
// Returns:
//   - error: Detailed validation error, nil if all valid
func ValidateAllRepositories(repos []RepositoryEntry) error {
	if len(repos) == 0 {
		// No configured repositories is a valid state
		return nil
	}

	seenIDs := make(map[string]string, len(repos))
	for _, repo := range repos {
		if existingName, exists := seenIDs[repo.ID]; exists {
			return fmt.Errorf("duplicate repository ID %q found in repositories %q and %q",
				repo.ID, existingName, repo.Name)
		}
		seenIDs[repo.ID] = repo.Name
	}

	seenNames := make(map[string]string, len(repos))
	for _, repo := range repos {
		lowerName := strings.ToLower(strings.TrimSpace(repo.Name))
		if existingName, exists := seenNames[lowerName]; exists {
			return fmt.Errorf("duplicate repository name found: %q and %q (names must be unique, case-insensitive)",
				existingName, repo.Name)
		}
		seenNames[lowerName] = repo.Name
	}

	var validationErrors []string
	for i, repo := range repos {
		if err := ValidateRepositoryEntry(repo); err != nil {
			validationErrors = append(validationErrors,
				fmt.Sprintf("repository[%d] (%s): %v", i, repo.Name, err))
		}
	}

	if len(validationErrors) > 0 {
		return fmt.Errorf("repository validation failed:\n  - %s",
			strings.Join(validationErrors, "\n  - "))
	}

	return nil
}

// ValidateRepositoryName validates a display name before an entry is created.
//
// Validation rules:
//   - Non-empty after trimming whitespace
//   - Maximum 100 characters
//   - No control characters
func ValidateRepositoryName(name string) error {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return fmt.Errorf("repository name cannot be empty")
	}
	if len(trimmed) > 100 {
		return fmt.Errorf("repository name too long (%d characters, maximum 100)", len(trimmed))
	}

	for _, ch := range trimmed {
		if ch < 32 || ch == 127 {
			return fmt.Errorf("repository name contains invalid control characters")
		}
	}

	return nil
}

// ValidateRepositoryPath performs a lightweight path check without touching
// the filesystem. Full validation happens in LocalSource.Prepare and
// GitSource.Prepare.
func ValidateRepositoryPath(path string) error {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return fmt.Errorf("repository path cannot be empty")
	}
	if strings.Contains(trimmed, "\x00") {
		return fmt.Errorf("repository path contains null bytes")
	}
	return nil
}
