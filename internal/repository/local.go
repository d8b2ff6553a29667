package repository

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"dollhouse/internal/logging"
	"dollhouse/pkg/fileops"
)

// LocalSource represents a local directory used directly as a portfolio
// repository. No network operations are performed; Prepare only validates
// the configured path.
type LocalSource struct {
	// Path is the local directory backing the repository.
	// It should be an absolute path or home-relative (~/...).
	Path string
}

// NewLocalSource creates a new LocalSource instance with the specified path.
//
// Usage:
//
//	source := repository.NewLocalSource("~/portfolio-mirror")
//	localPath, err := source.Prepare(logger)
//	if err != nil {
//	    return fmt.Errorf("local source preparation failed: %w", err)
//	}
func NewLocalSource(path string) LocalSource {
	return LocalSource{
		Path: path,
	}
}

// Prepare validates the local path and returns it for use as the repository
// root.
//
// Validation performed:
//   - Non-empty path
//   - "~/" expanded to the user's home directory
//   - Security validation via fileops.ValidateStoragePath (traversal,
//     reserved and system directories)
//   - Directory must exist and be a directory
//
// The directory is not created here; creation is part of repository setup.
func (ls LocalSource) Prepare(logger *logging.AppLogger) (string, error) {
	if logger != nil {
		logger.Info("Preparing local repository source", "path", ls.Path)
	}

	trimmed := strings.TrimSpace(ls.Path)
	if trimmed == "" {
		return "", fmt.Errorf("local source path cannot be empty")
	}

	expanded := fileops.ExpandPath(trimmed)
	clean := filepath.Clean(expanded)

	if err := fileops.ValidateStoragePath(clean); err != nil {
		return "", fmt.Errorf("invalid local source path: %w", err)
	}

	info, err := os.Stat(clean)
	if err != nil {
		if os.IsNotExist(err) {
			return "", fmt.Errorf("local source directory does not exist: %s", clean)
		}
		return "", fmt.Errorf("cannot access local source directory: %w", err)
	}
	if !info.IsDir() {
		return "", fmt.Errorf("local source path is not a directory: %s", clean)
	}

	abs, err := filepath.Abs(clean)
	if err != nil {
		// Fall back to the cleaned path, which is already absolute after
		// expansion and validation
		abs = clean
	}

	if logger != nil {
		logger.Debug("Local repository source validated", "resolved_path", abs)
	}

	return abs, nil
}

// ValidatePath performs validation on the configured path without accessing
// the filesystem. Useful for pre-flight checks before preparation.
func (ls LocalSource) ValidatePath() error {
	return ValidateRepositoryPath(ls.Path)
}

// String returns a string representation of the LocalSource for logging.
func (ls LocalSource) String() string {
	return fmt.Sprintf("LocalSource{Path: %s}", ls.Path)
}
