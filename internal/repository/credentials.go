package repository

import (
	"fmt"
	"strings"

	"github.com/zalando/go-keyring"
)

const (
	// Service name for the OS credential store
	credentialService = "dollhouse"
	// Key for the GitHub Personal Access Token
	githubTokenKey = "github_pat"
)

// CredentialManager handles secure storage and retrieval of the GitHub
// Personal Access Token used for private repository access and pushes.
// Tokens live in the OS credential store (macOS Keychain, Windows Credential
// Manager, Linux Secret Service), never in config files.
type CredentialManager struct {
	service string
}

// NewCredentialManager creates a new credential manager instance.
func NewCredentialManager() *CredentialManager {
	return &CredentialManager{
		service: credentialService,
	}
}

// StoreGitHubToken securely stores a GitHub Personal Access Token in the OS
// credential store. The token is format-validated before storage.
//
// Parameters:
//   - token: GitHub Personal Access Token to store
//
// Returns:
//   - error: Storage errors or validation failures
func (cm *CredentialManager) StoreGitHubToken(token string) error {
	if strings.TrimSpace(token) == "" {
		return fmt.Errorf("token cannot be empty")
	}

	if err := validateTokenFormat(token); err != nil {
		return fmt.Errorf("invalid token format: %w", err)
	}

	if err := keyring.Set(cm.service, githubTokenKey, token); err != nil {
		return fmt.Errorf("failed to store token in credential store: %w", err)
	}

	return nil
}

// GetGitHubToken retrieves the stored GitHub Personal Access Token.
//
// Returns:
//   - string: The stored Personal Access Token
//   - error: Retrieval errors or if no token is stored
func (cm *CredentialManager) GetGitHubToken() (string, error) {
	token, err := keyring.Get(cm.service, githubTokenKey)
	if err != nil {
		if err == keyring.ErrNotFound {
			return "", fmt.Errorf("no GitHub token found - store one with 'dollhouse auth login'")
		}
		return "", fmt.Errorf("failed to retrieve token from credential store: %w", err)
	}

	if strings.TrimSpace(token) == "" {
		return "", fmt.Errorf("stored token is empty - store a new one with 'dollhouse auth login'")
	}

	return token, nil
}

// DeleteGitHubToken removes the stored token from the OS credential store.
// Returns nil if no token is stored.
func (cm *CredentialManager) DeleteGitHubToken() error {
	err := keyring.Delete(cm.service, githubTokenKey)
	if err != nil && err != keyring.ErrNotFound {
		return fmt.Errorf("failed to delete token from credential store: %w", err)
	}
	return nil
}

// HasGitHubToken checks if a token is stored without retrieving it.
// Useful for CLI status output and sync flow decisions.
func (cm *CredentialManager) HasGitHubToken() bool {
	_, err := keyring.Get(cm.service, githubTokenKey)
	return err == nil
}

// validateTokenFormat validates that the token matches GitHub PAT format
// expectations. GitHub Personal Access Tokens carry type-specific prefixes:
//   - Classic PATs: ghp_*
//   - Fine-grained PATs: github_pat_*
//   - OAuth tokens: gho_*
//   - User-to-server tokens: ghu_*
//   - Server-to-server tokens: ghs_*
func validateTokenFormat(token string) error {
	token = strings.TrimSpace(token)

	// GitHub PATs are typically 40+ characters
	if len(token) < 20 {
		return fmt.Errorf("token too short (minimum 20 characters)")
	}

	validPrefixes := []string{
		"ghp_",
		"github_pat_",
		"gho_",
		"ghu_",
		"ghs_",
	}

	for _, prefix := range validPrefixes {
		if strings.HasPrefix(token, prefix) {
			return nil
		}
	}

	return fmt.Errorf("token does not match expected GitHub PAT format (should start with ghp_ or github_pat_)")
}

// CredentialStoreStatus returns information about credential store
// availability by writing and reading back a probe value. Useful for
// troubleshooting keyring problems on Linux setups.
//
// Returns:
//   - map[string]any: Status information including availability and any errors
func (cm *CredentialManager) CredentialStoreStatus() map[string]any {
	status := make(map[string]any)

	testKey := "dollhouse_probe"
	testValue := "probe_value"

	setErr := keyring.Set(cm.service, testKey, testValue)
	if setErr != nil {
		status["available"] = false
		status["error"] = setErr.Error()
		return status
	}

	retrieved, getErr := keyring.Get(cm.service, testKey)
	if getErr != nil {
		status["available"] = false
		status["error"] = getErr.Error()
		keyring.Delete(cm.service, testKey)
		return status
	}

	if retrieved != testValue {
		status["available"] = false
		status["error"] = "credential store corrupted - values don't match"
		keyring.Delete(cm.service, testKey)
		return status
	}

	if deleteErr := keyring.Delete(cm.service, testKey); deleteErr != nil {
		status["available"] = true
		status["warning"] = "credential store works but cleanup failed: " + deleteErr.Error()
		return status
	}

	status["available"] = true
	status["error"] = nil
	return status
}
