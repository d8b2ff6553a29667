package repository

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"dollhouse/internal/logging"
	"dollhouse/pkg/fileops"

	"github.com/adrg/xdg"
	"github.com/go-git/go-git/v6"
	"github.com/go-git/go-git/v6/plumbing"
	"github.com/go-git/go-git/v6/plumbing/object"
	"github.com/go-git/go-git/v6/plumbing/transport/http"
)

// DirectoryStatus represents the state of a target clone directory
type DirectoryStatus int

const (
	// DirectoryStatusEmpty indicates the directory doesn't exist or is empty - safe to clone
	DirectoryStatusEmpty DirectoryStatus = iota
	// DirectoryStatusSameRepo indicates the directory contains the same git repository - safe to fetch/pull
	DirectoryStatusSameRepo
	// DirectoryStatusDifferentRepo indicates the directory contains a different git repository - user intervention needed
	DirectoryStatusDifferentRepo
	// DirectoryStatusConflict indicates the directory contains non-git content - user intervention needed
	DirectoryStatusConflict
	// DirectoryStatusError indicates an error occurred during validation
	DirectoryStatusError
)

// String returns a human-readable description of the directory status
func (ds DirectoryStatus) String() string {
	switch ds {
	case DirectoryStatusEmpty:
		return "empty or doesn't exist"
	case DirectoryStatusSameRepo:
		return "same git repository"
	case DirectoryStatusDifferentRepo:
		return "different git repository"
	case DirectoryStatusConflict:
		return "contains non-git content"
	case DirectoryStatusError:
		return "validation error"
	default:
		return "unknown status"
	}
}

// GitSource represents a GitHub repository used as a portfolio mirror.
// It handles cloning, fetching, committing, and pushing using Personal
// Access Tokens for private repositories.
//
// Behavior:
//   - SSH URLs are normalized to HTTPS before any network operation
//   - Directory conflicts are detected explicitly, never overwritten
//   - Authentication is tried public-first with PAT fallback
//   - A dirty worktree blocks pulls (local work is never discarded)
//   - Pushes always commit the full current worktree state first
type GitSource struct {
	RemoteURL string  // Git repository URL (HTTPS format, SSH URLs auto-converted)
	Branch    *string // Optional branch name (nil defaults to the remote's HEAD branch)
	Path      string  // Local path where the repository is cloned/cached
}

// NewGitSource creates a new GitSource instance with the specified parameters.
//
// The constructor accepts flexible URL formats and defers validation to
// Prepare(): SSH URLs (git@github.com:user/repo.git) are converted to HTTPS,
// and a nil branch uses the remote's default branch.
//
// Parameters:
//   - remoteURL: Git repository URL (HTTPS or SSH format)
//   - branch: Optional branch name (nil uses the remote default)
//   - localPath: Local directory path for the clone
//
// Returns:
//   - GitSource: Configured source ready for Prepare() calls
func NewGitSource(remoteURL string, branch *string, localPath string) GitSource {
	return GitSource{
		RemoteURL: remoteURL,
		Branch:    branch,
		Path:      localPath,
	}
}

// Prepare clones or fetches the repository and returns the local path.
//
// Depending on what the target directory contains, Prepare either performs
// an initial shallow clone (empty directory), fetches updates (directory
// holds the same repository), or fails with guidance (directory holds a
// different repository or non-git content).
//
// Authentication is attempted without credentials first so public
// repositories work with no setup; on an auth error the stored PAT is used.
//
// Returns:
//   - localPath: Absolute path to the prepared repository
//   - error: Preparation failures with actionable messages
func (gs GitSource) Prepare(logger *logging.AppLogger) (string, error) {
	if logger != nil {
		logger.Info("Preparing Git repository source",
			"remoteURL", gs.RemoteURL,
			"branch", gs.Branch,
			"localPath", gs.Path)
	}

	if err := gs.validateInputs(); err != nil {
		return "", err
	}

	normalizedURL, err := gs.normalizeRemoteURL()
	if err != nil {
		return "", fmt.Errorf("invalid remote URL: %w", err)
	}

	cleanPath, err := gs.validateLocalPath()
	if err != nil {
		return "", err
	}

	dirStatus, err := gs.validateCloneDirectory(cleanPath, normalizedURL)
	if err != nil && dirStatus != DirectoryStatusConflict && dirStatus != DirectoryStatusDifferentRepo {
		return "", err
	}

	if dirStatus == DirectoryStatusConflict || dirStatus == DirectoryStatusDifferentRepo {
		return "", fmt.Errorf("directory conflict at %s (%s): please resolve manually by removing or relocating the existing directory",
			cleanPath, dirStatus.String())
	}

	// Try without authentication first, fall back to PAT if needed
	switch dirStatus {
	case DirectoryStatusEmpty:
		err = gs.performCloneWithAuth(cleanPath, normalizedURL, logger)
		if err != nil {
			return "", err
		}

	case DirectoryStatusSameRepo:
		err = gs.performFetchWithAuth(cleanPath, logger)
		if err != nil {
			return "", err
		}

	default:
		return "", fmt.Errorf("unexpected directory status: %s", dirStatus.String())
	}

	if logger != nil {
		logger.Info("Git repository prepared successfully", "localPath", cleanPath)
	}

	return cleanPath, nil
}

// validateInputs validates the GitSource configuration
func (gs GitSource) validateInputs() error {
	if strings.TrimSpace(gs.RemoteURL) == "" {
		return fmt.Errorf("remote URL cannot be empty")
	}
	if strings.TrimSpace(gs.Path) == "" {
		return fmt.Errorf("local path cannot be empty")
	}
	return nil
}

// normalizeRemoteURL converts SSH URLs to HTTPS and validates the URL format.
func (gs GitSource) normalizeRemoteURL() (string, error) {
	raw := strings.TrimSpace(gs.RemoteURL)

	info, err := ParseGitURL(raw)
	if err != nil {
		return "", fmt.Errorf("invalid Git URL format: %w", err)
	}

	// Reconstruct as HTTPS URL with .git suffix for consistency
	return fmt.Sprintf("https://%s/%s/%s.git", info.Host, info.Owner, info.Repo), nil
}

// FetchUpdates performs a fetch on an existing repository.
// This is the public API for user-initiated refresh operations.
//
// Unlike Prepare(), this function only fetches updates and does not clone
// a missing repository. A dirty worktree causes the fetch to be skipped
// without error so local changes survive.
func (gs GitSource) FetchUpdates(logger *logging.AppLogger) error {
	if logger != nil {
		logger.Info("Manual fetch requested", "url", gs.RemoteURL, "path", gs.Path)
	}

	if _, err := os.Stat(gs.Path); os.IsNotExist(err) {
		return fmt.Errorf("repository does not exist at %s - cannot fetch updates", gs.Path)
	}

	return gs.performFetchWithAuth(gs.Path, logger)
}

// CommitAndPush stages every change in the worktree, commits it with the
// given message and author, and pushes the current branch to origin. This
// backs the push direction of portfolio sync.
//
// When the worktree is clean the commit is skipped and only the push runs,
// covering the case of earlier commits that never left the machine.
// git.NoErrAlreadyUpToDate from the remote is treated as success.
//
// Parameters:
//   - message: Commit message for the staged changes
//   - author: Author name recorded in the commit (email derived from it)
//   - logger: Logger for operation tracking (can be nil)
//
// Returns:
//   - bool: true if a new commit was created
//   - error: Commit or push failures with actionable messages
func (gs GitSource) CommitAndPush(message, author string, logger *logging.AppLogger) (bool, error) {
	if _, err := os.Stat(gs.Path); os.IsNotExist(err) {
		return false, fmt.Errorf("repository does not exist at %s - cannot push", gs.Path)
	}

	repo, err := git.PlainOpen(gs.Path)
	if err != nil {
		return false, fmt.Errorf("failed to open repository: %w", err)
	}

	worktree, err := repo.Worktree()
	if err != nil {
		return false, fmt.Errorf("failed to get working tree: %w", err)
	}

	status, err := worktree.Status()
	if err != nil {
		return false, fmt.Errorf("failed to get working tree status: %w", err)
	}

	committed := false
	if !status.IsClean() {
		if err := worktree.AddWithOptions(&git.AddOptions{All: true}); err != nil {
			return false, fmt.Errorf("failed to stage changes: %w", err)
		}

		if strings.TrimSpace(message) == "" {
			message = "Update portfolio"
		}
		if strings.TrimSpace(author) == "" {
			author = "dollhouse"
		}

		_, err = worktree.Commit(message, &git.CommitOptions{
			Author: &object.Signature{
				Name:  author,
				Email: fmt.Sprintf("%s@localhost", strings.ReplaceAll(strings.ToLower(author), " ", "-")),
				When:  time.Now(),
			},
		})
		if err != nil {
			return false, fmt.Errorf("failed to commit changes: %w", err)
		}
		committed = true

		if logger != nil {
			logger.Info("Committed portfolio changes", "path", gs.Path, "message", message)
		}
	}

	if err := gs.performPushWithAuth(repo, logger); err != nil {
		return committed, err
	}

	return committed, nil
}

// performPushWithAuth pushes to origin, trying public access first and
// falling back to the stored PAT on authentication errors. Pushes to GitHub
// virtually always need credentials, but the fallback keeps the flow
// identical to clone and fetch.
func (gs GitSource) performPushWithAuth(repo *git.Repository, logger *logging.AppLogger) error {
	err := gs.performPush(repo, nil, logger)
	if err == nil {
		return nil
	}

	if gs.isAuthenticationError(err) {
		if logger != nil {
			logger.Debug("Unauthenticated push failed, trying with authentication")
		}

		auth, authErr := gs.getAuthentication(logger)
		if authErr != nil {
			return fmt.Errorf("GitHub authentication failed: %w", authErr)
		}
		if auth == nil {
			return fmt.Errorf("GitHub authentication required for push - store a Personal Access Token with 'dollhouse auth login'")
		}

		return gs.performPush(repo, auth, logger)
	}

	return err
}

// performPush pushes the current branch to origin with the given credentials.
func (gs GitSource) performPush(repo *git.Repository, auth *http.BasicAuth, logger *logging.AppLogger) error {
	pushOpts := &git.PushOptions{
		RemoteName: "origin",
	}
	if auth != nil {
		pushOpts.Auth = auth
	}

	err := repo.Push(pushOpts)
	if err != nil && err != git.NoErrAlreadyUpToDate {
		return gs.translatePushError(err)
	}

	if logger != nil {
		if err == git.NoErrAlreadyUpToDate {
			logger.Debug("Remote already up to date")
		} else {
			logger.Info("Pushed portfolio changes to remote")
		}
	}

	return nil
}

// IsWorktreeDirty reports whether the repository at the given path has
// uncommitted changes.
//
// Parameters:
//   - repoPath: Local filesystem path to the git repository
//
// Returns:
//   - bool: true if the repository has uncommitted changes
//   - error: error if the repository cannot be opened or status determined
func IsWorktreeDirty(repoPath string) (bool, error) {
	repo, err := git.PlainOpen(repoPath)
	if err != nil {
		return false, fmt.Errorf("failed to open repository: %w", err)
	}

	worktree, err := repo.Worktree()
	if err != nil {
		return false, fmt.Errorf("failed to get working tree: %w", err)
	}

	status, err := worktree.Status()
	if err != nil {
		return false, fmt.Errorf("failed to get repository status: %w", err)
	}

	return !status.IsClean(), nil
}

// validateLocalPath validates and cleans the local clone path.
//
// This is security validation (path traversal, reserved directories) and is
// complementary to validateCloneDirectory, which handles Git-specific
// conflict detection. Both run before any clone.
func (gs GitSource) validateLocalPath() (string, error) {
	expanded := fileops.ExpandPath(gs.Path)
	clean := filepath.Clean(expanded)

	if err := fileops.ValidatePathSecurity(clean); err != nil {
		return "", fmt.Errorf("invalid local path: %w", err)
	}

	abs, err := filepath.Abs(clean)
	if err != nil {
		return "", fmt.Errorf("cannot resolve absolute path: %w", err)
	}

	return abs, nil
}

// getAuthentication retrieves the PAT from the credential manager.
//
// Returns nil auth with nil error when no token is stored, which lets
// callers fall through to public repository access. GitHub PAT
// authentication uses "token" as the username.
func (gs GitSource) getAuthentication(logger *logging.AppLogger) (*http.BasicAuth, error) {
	credMgr := NewCredentialManager()

	if !credMgr.HasGitHubToken() {
		return nil, nil
	}

	token, err := credMgr.GetGitHubToken()
	if err != nil {
		return nil, err
	}

	if logger != nil {
		logger.Debug("Using GitHub Personal Access Token for authentication")
	}

	return &http.BasicAuth{
		Username: "token",
		Password: token,
	}, nil
}

// performCloneWithAuth performs the initial clone, trying public access
// first and retrying with the stored PAT on authentication errors.
func (gs GitSource) performCloneWithAuth(localPath, remoteURL string, logger *logging.AppLogger) error {
	err := gs.performClone(localPath, remoteURL, nil, logger)
	if err == nil {
		return nil
	}

	if gs.isAuthenticationError(err) {
		if logger != nil {
			logger.Debug("Public access failed, trying with authentication")
		}

		auth, authErr := gs.getAuthentication(logger)
		if authErr != nil {
			return fmt.Errorf("GitHub authentication failed: %w", authErr)
		}
		if auth == nil {
			return fmt.Errorf("GitHub authentication required - store a Personal Access Token with 'dollhouse auth login'")
		}

		return gs.performClone(localPath, remoteURL, auth, logger)
	}

	return err
}

// performClone performs the initial repository clone with the given
// authentication. The parent directory is created with security validation,
// and a branch-specific single-branch clone is used when a branch is
// configured.
func (gs GitSource) performClone(localPath, remoteURL string, auth *http.BasicAuth, logger *logging.AppLogger) error {
	if logger != nil {
		logger.Info("Cloning repository", "remoteURL", remoteURL, "localPath", localPath)
	}

	parentDir := filepath.Dir(localPath)
	if err := fileops.ValidatePathSecurity(parentDir); err != nil {
		return fmt.Errorf("parent directory failed security validation: %w", err)
	}
	if err := os.MkdirAll(parentDir, 0755); err != nil {
		return fmt.Errorf("failed to create parent directory: %w", err)
	}

	cloneOpts := &git.CloneOptions{
		URL:      remoteURL,
		Progress: nil,
	}
	if auth != nil {
		cloneOpts.Auth = auth
	}
	if gs.Branch != nil && *gs.Branch != "" {
		cloneOpts.ReferenceName = plumbing.NewBranchReferenceName(*gs.Branch)
		cloneOpts.SingleBranch = true
	}

	_, err := git.PlainClone(localPath, cloneOpts)
	if err != nil {
		return gs.translateCloneError(err)
	}

	if logger != nil {
		logger.Info("Repository cloned successfully", "localPath", localPath)
	}

	return nil
}

// performFetchWithAuth performs fetch operations with authentication
// fallback, mirroring the clone strategy.
func (gs GitSource) performFetchWithAuth(localPath string, logger *logging.AppLogger) error {
	err := gs.performFetch(localPath, nil, logger)
	if err == nil {
		return nil
	}

	if gs.isAuthenticationError(err) {
		if logger != nil {
			logger.Debug("Public fetch failed, trying with authentication")
		}

		auth, authErr := gs.getAuthentication(logger)
		if authErr != nil {
			return fmt.Errorf("GitHub authentication failed: %w", authErr)
		}
		if auth == nil {
			return fmt.Errorf("GitHub authentication required - store a Personal Access Token with 'dollhouse auth login'")
		}

		return gs.performFetch(localPath, auth, logger)
	}

	return err
}

// performFetch fetches remote updates for an existing repository.
//
// A dirty worktree skips the fetch entirely so uncommitted portfolio edits
// are never disturbed. When a branch is configured, a checkout failure is
// logged but does not fail the fetch; the repository stays usable and the
// branch configuration can be fixed afterwards.
func (gs GitSource) performFetch(localPath string, auth *http.BasicAuth, logger *logging.AppLogger) error {
	if logger != nil {
		logger.Info("Fetching repository updates", "localPath", localPath)
	}

	repo, err := git.PlainOpen(localPath)
	if err != nil {
		return fmt.Errorf("failed to open existing repository: %w", err)
	}

	worktree, err := repo.Worktree()
	if err != nil {
		return fmt.Errorf("failed to get working tree: %w", err)
	}

	status, err := worktree.Status()
	if err != nil {
		return fmt.Errorf("failed to get working tree status: %w", err)
	}

	if !status.IsClean() {
		if logger != nil {
			logger.Warn("Working tree has uncommitted changes, skipping sync")
		}
		return nil
	}

	remote, err := repo.Remote("origin")
	if err != nil {
		return fmt.Errorf("failed to get origin remote: %w", err)
	}

	fetchOpts := &git.FetchOptions{
		Auth:  auth,
		Force: true, // handle force-pushed remotes
	}

	err = remote.Fetch(fetchOpts)
	if err != nil && err != git.NoErrAlreadyUpToDate {
		return gs.translateFetchError(err)
	}

	if logger != nil {
		if err == git.NoErrAlreadyUpToDate {
			logger.Debug("Repository already up to date")
		} else {
			logger.Info("Repository updated successfully")
		}
	}

	if gs.Branch != nil && *gs.Branch != "" {
		if err := gs.checkoutBranch(repo, worktree, *gs.Branch, logger); err != nil {
			if logger != nil {
				logger.Warn("Failed to checkout configured branch, repository may be in inconsistent state",
					"branch", *gs.Branch,
					"error", err)
			}
		}
	}

	return gs.resetToRemoteHead(repo, worktree, logger)
}

// resetToRemoteHead hard-resets the current branch to its fetched remote
// head so pulled commits land in the worktree. Runs only after the clean
// worktree check in performFetch, so no local work is overwritten.
func (gs GitSource) resetToRemoteHead(repo *git.Repository, worktree *git.Worktree, logger *logging.AppLogger) error {
	head, err := repo.Head()
	if err != nil {
		return fmt.Errorf("failed to resolve HEAD: %w", err)
	}
	if !head.Name().IsBranch() {
		return nil
	}
	branch := head.Name().Short()

	remoteRef, err := repo.Reference(plumbing.NewRemoteReferenceName("origin", branch), true)
	if err != nil {
		// No remote tracking ref for this branch, nothing to reset to
		return nil
	}
	if head.Hash() == remoteRef.Hash() {
		return nil
	}

	if err := worktree.Reset(&git.ResetOptions{
		Mode:   git.HardReset,
		Commit: remoteRef.Hash(),
	}); err != nil {
		return fmt.Errorf("failed to reset branch to remote head: %w", err)
	}

	if logger != nil {
		logger.Info("Branch reset to remote head", "branch", branch, "commit", remoteRef.Hash().String())
	}
	return nil
}

// translateCloneError provides user-friendly error messages for clone
// failures, with specific next steps for authentication, access, and
// network problems.
func (gs GitSource) translateCloneError(err error) error {
	errMsg := err.Error()
	errStr := strings.ToLower(errMsg)

	if gs.containsAuthErrorPatterns(errMsg) {
		if strings.Contains(errStr, "403") || strings.Contains(errStr, "forbidden") {
			return fmt.Errorf("GitHub token lacks required permissions - ensure the 'repo' scope is enabled and update it with 'dollhouse auth login'")
		}
		return fmt.Errorf("GitHub authentication failed - update your Personal Access Token with 'dollhouse auth login'")
	}

	if strings.Contains(errStr, "404") || strings.Contains(errStr, "not found") {
		return fmt.Errorf("repository not found - check the URL or ensure you have access: %s", gs.RemoteURL)
	}

	if strings.Contains(errStr, "network") || strings.Contains(errStr, "connection") || strings.Contains(errStr, "timeout") {
		return fmt.Errorf("network error during clone - check your internet connection and try again: %w", err)
	}

	return fmt.Errorf("failed to clone repository: %w", err)
}

// translateFetchError provides user-friendly error messages for fetch
// failures. Fetch errors are less critical than clone errors since the
// local repository keeps working with cached content.
func (gs GitSource) translateFetchError(err error) error {
	errMsg := err.Error()
	errStr := strings.ToLower(errMsg)

	if gs.containsAuthErrorPatterns(errMsg) {
		return fmt.Errorf("GitHub token has expired or is invalid - update it with 'dollhouse auth login'")
	}

	if strings.Contains(errStr, "network") || strings.Contains(errStr, "connection") || strings.Contains(errStr, "timeout") {
		return fmt.Errorf("network error during fetch - repository will use cached version: %w", err)
	}

	return fmt.Errorf("failed to fetch repository updates: %w", err)
}

// translatePushError provides user-friendly error messages for push failures.
func (gs GitSource) translatePushError(err error) error {
	errMsg := err.Error()
	errStr := strings.ToLower(errMsg)

	if gs.containsAuthErrorPatterns(errMsg) {
		return fmt.Errorf("GitHub authentication failed during push - update your Personal Access Token with 'dollhouse auth login'")
	}

	if strings.Contains(errStr, "non-fast-forward") || strings.Contains(errStr, "fetch first") {
		return fmt.Errorf("remote has changes that are not local - pull first, then push again: %w", err)
	}

	if strings.Contains(errStr, "network") || strings.Contains(errStr, "connection") || strings.Contains(errStr, "timeout") {
		return fmt.Errorf("network error during push - changes remain committed locally: %w", err)
	}

	return fmt.Errorf("failed to push repository changes: %w", err)
}

// isAuthenticationError checks if an error is related to authentication.
func (gs GitSource) isAuthenticationError(err error) bool {
	if err == nil {
		return false
	}
	return gs.containsAuthErrorPatterns(err.Error())
}

// containsAuthErrorPatterns checks if an error message contains
// authentication-related patterns
func (gs GitSource) containsAuthErrorPatterns(errMsg string) bool {
	errStr := strings.ToLower(errMsg)
	authPatterns := []string{
		"authentication required",
		"401",
		"unauthorized",
		"403",
		"forbidden",
	}

	for _, pattern := range authPatterns {
		if strings.Contains(errStr, pattern) {
			return true
		}
	}
	return false
}

// GitURLInfo contains the parsed components of a Git repository URL.
type GitURLInfo struct {
	Host  string // Host (e.g., "github.com")
	Owner string // Repository owner/organization
	Repo  string // Repository name (without .git suffix)
}

// ParseGitURL parses a Git repository URL and extracts its components.
// It supports both SSH (git@host:owner/repo.git) and HTTPS
// (https://host/owner/repo.git) formats; the .git suffix is optional.
//
// Example:
//
//	info, err := repository.ParseGitURL("https://github.com/user/portfolio.git")
//	// info.Host = "github.com", info.Owner = "user", info.Repo = "portfolio"
func ParseGitURL(gitURL string) (GitURLInfo, error) {
	gitURL = strings.TrimSpace(gitURL)

	// SSH URLs like git@github.com:owner/repo.git
	sshPattern := regexp.MustCompile(`^git@([^:]+):([^/]+)/(.+?)(?:\.git)?$`)
	if matches := sshPattern.FindStringSubmatch(gitURL); matches != nil {
		return GitURLInfo{
			Host:  matches[1],
			Owner: matches[2],
			Repo:  matches[3],
		}, nil
	}

	parsedURL, err := url.Parse(gitURL)
	if err != nil {
		return GitURLInfo{}, fmt.Errorf("invalid URL format: %w", err)
	}

	if parsedURL.Host == "" {
		return GitURLInfo{}, fmt.Errorf("URL missing host component")
	}

	pathParts := strings.Split(strings.Trim(parsedURL.Path, "/"), "/")
	if len(pathParts) < 2 {
		return GitURLInfo{}, fmt.Errorf("URL path should contain owner/repo: %s", parsedURL.Path)
	}

	owner := pathParts[0]
	repo := strings.TrimSuffix(pathParts[1], ".git")

	if owner == "" || repo == "" {
		return GitURLInfo{}, fmt.Errorf("could not extract owner/repo from URL path: %s", parsedURL.Path)
	}

	return GitURLInfo{
		Host:  parsedURL.Host,
		Owner: owner,
		Repo:  repo,
	}, nil
}

// DefaultCloneDir returns the base directory under which remote portfolio
// repositories are cloned (e.g., ~/.local/share/dollhouse/repos).
func DefaultCloneDir() string {
	return filepath.Join(xdg.DataHome, "dollhouse", "repos")
}

// DeriveClonePath derives a user-friendly local clone path from a Git
// remote URL, in the format <DefaultCloneDir>/<repo>. SSH and HTTPS URLs
// for the same repository derive the same path.
//
// Parameters:
//   - remoteURL: Git repository URL (SSH or HTTPS format)
//
// Returns:
//   - string: Absolute path where the repository should be cloned
//   - error: Validation or parsing errors
func DeriveClonePath(remoteURL string) (string, error) {
	info, err := ParseGitURL(remoteURL)
	if err != nil {
		return "", err
	}

	clonePath := filepath.Join(DefaultCloneDir(), info.Repo)

	cleanPath := filepath.Clean(clonePath)
	if err := fileops.ValidatePathSecurity(cleanPath); err != nil {
		return "", fmt.Errorf("derived path failed security validation: %w", err)
	}
	if !filepath.IsAbs(cleanPath) {
		return "", fmt.Errorf("derived clone path must be absolute: %s", cleanPath)
	}

	return cleanPath, nil
}

// validateCloneDirectory checks if a target clone directory can be used
// safely for the given repository.
//
// Resolution strategy:
//   - Directory missing or empty: safe to clone
//   - Same git repository: safe to fetch
//   - Different git repository or non-git content: user intervention needed
//
// Parameters:
//   - clonePath: Target directory path where the repository would be cloned
//   - expectedRemoteURL: The remote URL we want to clone/sync
//
// Returns:
//   - DirectoryStatus: Status indicating what was found in the directory
//   - error: Validation errors or file system access issues
func (gs GitSource) validateCloneDirectory(clonePath, expectedRemoteURL string) (DirectoryStatus, error) {
	info, err := os.Stat(clonePath)
	if os.IsNotExist(err) {
		return DirectoryStatusEmpty, nil
	}
	if err != nil {
		return DirectoryStatusError, fmt.Errorf("cannot access directory %s: %w", clonePath, err)
	}

	if !info.IsDir() {
		return DirectoryStatusError, fmt.Errorf("path exists but is not a directory: %s", clonePath)
	}

	isEmpty, err := fileops.IsDirEmpty(clonePath)
	if err != nil {
		return DirectoryStatusError, fmt.Errorf("cannot check if directory is empty: %w", err)
	}
	if isEmpty {
		return DirectoryStatusEmpty, nil
	}

	// getGitRemoteURL uses git.PlainOpen which reliably detects Git repositories
	currentRemote, err := gs.getGitRemoteURL(clonePath)
	if err != nil {
		if strings.Contains(err.Error(), "not a git repository") {
			return DirectoryStatusConflict, fmt.Errorf("directory contains non-git content: %s", clonePath)
		}
		return DirectoryStatusError, fmt.Errorf("cannot get current git remote URL: %w", err)
	}

	// Normalize URLs so SSH and HTTPS forms of the same repo compare equal
	if gs.normalizeGitURL(currentRemote) == gs.normalizeGitURL(expectedRemoteURL) {
		return DirectoryStatusSameRepo, nil
	}

	return DirectoryStatusDifferentRepo, fmt.Errorf("directory contains different git repository (current: %s, expected: %s)", currentRemote, expectedRemoteURL)
}

// getGitRemoteURL gets the origin remote URL of a git repository.
// Returns an error wrapping "not a git repository" when the path does not
// contain one, which validateCloneDirectory relies on.
func (gs GitSource) getGitRemoteURL(repoPath string) (string, error) {
	repo, err := git.PlainOpen(repoPath)
	if err != nil {
		if err == git.ErrRepositoryNotExists {
			return "", fmt.Errorf("directory is not a git repository: %s", repoPath)
		}
		return "", fmt.Errorf("cannot open git repository: %w", err)
	}

	remote, err := repo.Remote("origin")
	if err != nil {
		return "", fmt.Errorf("cannot get origin remote: %w", err)
	}

	config := remote.Config()
	if config == nil || len(config.URLs) == 0 {
		return "", fmt.Errorf("no URLs configured for origin remote")
	}

	return config.URLs[0], nil
}

// normalizeGitURL normalizes git URLs for comparison so SSH and HTTPS URLs
// for the same repository are considered equivalent.
func (gs GitSource) normalizeGitURL(gitURL string) string {
	gitURL = strings.TrimSpace(gitURL)
	gitURL = strings.TrimSuffix(gitURL, ".git")

	// git@github.com:owner/repo -> github.com/owner/repo
	sshPattern := regexp.MustCompile(`^git@([^:]+):(.+)$`)
	if matches := sshPattern.FindStringSubmatch(gitURL); matches != nil {
		return matches[1] + "/" + matches[2]
	}

	if after, found := strings.CutPrefix(gitURL, "https://"); found {
		return after
	}
	if after, found := strings.CutPrefix(gitURL, "http://"); found {
		return after
	}

	return gitURL
}

// checkoutBranch checks out a specific branch, creating a local branch
// tracking the remote one when it does not exist yet.
func (gs GitSource) checkoutBranch(repo *git.Repository, worktree *git.Worktree, branchName string, logger *logging.AppLogger) error {
	if logger != nil {
		logger.Debug("Checking out branch", "branch", branchName)
	}

	head, err := repo.Head()
	if err != nil && err != plumbing.ErrReferenceNotFound {
		return fmt.Errorf("failed to get current branch: %w", err)
	}

	if head != nil && head.Name().Short() == branchName {
		if logger != nil {
			logger.Debug("Already on target branch", "branch", branchName)
		}
		return nil
	}

	localBranchRef := plumbing.NewBranchReferenceName(branchName)
	remoteBranchRef := plumbing.NewRemoteReferenceName("origin", branchName)

	_, err = repo.Reference(remoteBranchRef, true)
	if err != nil {
		return fmt.Errorf("branch '%s' does not exist on remote 'origin'", branchName)
	}

	_, err = repo.Reference(localBranchRef, true)
	if err == plumbing.ErrReferenceNotFound {
		if logger != nil {
			logger.Debug("Creating local branch", "branch", branchName)
		}

		remoteRef, err := repo.Reference(remoteBranchRef, true)
		if err != nil {
			return fmt.Errorf("failed to get remote branch reference: %w", err)
		}

		newRef := plumbing.NewHashReference(localBranchRef, remoteRef.Hash())
		if err := repo.Storer.SetReference(newRef); err != nil {
			return fmt.Errorf("failed to create local branch: %w", err)
		}
	} else if err != nil {
		return fmt.Errorf("failed to get local branch reference: %w", err)
	}

	checkoutOpts := &git.CheckoutOptions{
		Branch: localBranchRef,
		Force:  false, // never discard local changes
	}

	if err := worktree.Checkout(checkoutOpts); err != nil {
		return fmt.Errorf("failed to checkout branch: %w", err)
	}

	if logger != nil {
		logger.Info("Successfully checked out branch", "branch", branchName)
	}

	return nil
}

// ValidateRemoteBranchExists validates that a branch exists on the remote
// before branch configuration is saved.
//
// Parameters:
//   - repoPath: Local path to the git repository
//   - branchName: Branch to validate (empty means default branch, always valid)
//   - logger: Logger for operation tracking
func ValidateRemoteBranchExists(repoPath string, branchName string, logger *logging.AppLogger) error {
	if strings.TrimSpace(branchName) == "" {
		return nil
	}

	if logger != nil {
		logger.Debug("Validating remote branch exists", "path", repoPath, "branch", branchName)
	}

	repo, err := git.PlainOpen(repoPath)
	if err != nil {
		return fmt.Errorf("failed to open repository: %w", err)
	}

	remoteBranchRef := plumbing.NewRemoteReferenceName("origin", branchName)
	_, err = repo.Reference(remoteBranchRef, true)
	if err != nil {
		if err == plumbing.ErrReferenceNotFound {
			return fmt.Errorf("branch '%s' does not exist on remote 'origin' - fetch the repository first or use a valid branch name", branchName)
		}
		return fmt.Errorf("failed to check remote branch: %w", err)
	}

	if logger != nil {
		logger.Debug("Remote branch validated successfully", "branch", branchName)
	}

	return nil
}
