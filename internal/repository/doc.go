// Package repository manages the portfolio's backing repositories.
//
// A portfolio can be mirrored to one or more repositories, each either a
// plain local directory or a GitHub-hosted Git repository. The package
// provides:
//
//   - RepositoryEntry: the configured description of a single repository
//   - Source: abstraction that resolves an entry to a usable local path
//   - LocalSource / GitSource: the two Source implementations
//   - CredentialManager: GitHub token storage in the OS keyring
//   - Sync helpers that pull or push all configured repositories
//
// Git operations never destroy local work. A worktree with uncommitted
// changes is skipped during pull, and push always commits the current
// state before contacting the remote.
package repository
