package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"dollhouse/internal/logging"
	"dollhouse/internal/repository"
	"dollhouse/pkg/fileops"

	"github.com/adrg/xdg"
	"gopkg.in/yaml.v3"
)

const AppName = "dollhouse" // application name used for config directory

// Config holds user configuration for dollhouse.
type Config struct {
	// PortfolioDir is the directory where element files live, organized
	// into per-type subdirectories (personas/, skills/, ...).
	PortfolioDir string `yaml:"portfolio_dir"`

	// NotesDir is the directory containing session note files.
	NotesDir string `yaml:"notes_dir"`

	// DefaultAuthor is recorded on elements and session notes created
	// through this installation. Optional.
	DefaultAuthor string `yaml:"default_author,omitempty"`

	// IndexPath is the location of the search index database. Empty means
	// the default location under the data directory.
	IndexPath string `yaml:"index_path,omitempty"`

	Version  string `yaml:"version"`
	InitTime int64  `yaml:"init_time"` // Unix timestamp of first setup

	// Repositories are the configured sync targets for the portfolio.
	Repositories []repository.RepositoryEntry `yaml:"repositories,omitempty"`
}

// ConfigPath returns the standard config file path for the current platform.
func ConfigPath() string {
	configPath := filepath.Join(xdg.ConfigHome, AppName, "config.yaml")
	logging.Debug("Determined config path", "path", configPath)
	return configPath
}

// DefaultPortfolioDir returns the default portfolio directory,
// ~/.dollhouse/portfolio.
func DefaultPortfolioDir() string {
	return filepath.Join(xdg.Home, ".dollhouse", "portfolio")
}

// DefaultNotesDir returns the default session notes directory under the
// user's data directory.
func DefaultNotesDir() string {
	return filepath.Join(xdg.DataHome, AppName, "session-notes")
}

// DefaultIndexPath returns the default search index database location.
func DefaultIndexPath() string {
	return filepath.Join(xdg.DataHome, AppName, "index.db")
}

// FindConfigFile returns the path to the config file and whether it exists.
func FindConfigFile() (string, bool) {
	path := ConfigPath()
	if _, err := os.Stat(path); err == nil {
		logging.Debug("Config found", "path", path)
		return path, true
	}
	return path, false
}

// IsFirstRun checks if this is the first time the application is run.
func IsFirstRun() bool {
	_, exists := FindConfigFile()
	return !exists
}

// Load loads the config from the standard location.
// If no config exists, it returns an error indicating first run is needed.
func Load() (*Config, error) {
	configPath, exists := FindConfigFile()
	logging.Debug("Loading config from", "path", configPath)
	if !exists {
		return nil, fmt.Errorf("no configuration found, first-time setup required")
	}
	return LoadFrom(configPath)
}

// LoadFrom loads config from a specific path.
func LoadFrom(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}
	defer f.Close()

	var cfg Config
	dec := yaml.NewDecoder(f)
	if err := dec.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	cfg.applyDefaults()
	return &cfg, nil
}

// applyDefaults fills in unset optional fields after load.
func (c *Config) applyDefaults() {
	if c.IndexPath == "" {
		c.IndexPath = DefaultIndexPath()
	}
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		PortfolioDir: DefaultPortfolioDir(),
		NotesDir:     DefaultNotesDir(),
		IndexPath:    DefaultIndexPath(),
		Version:      "1.0",
		InitTime:     0, // Set during first save
	}
}

// Save writes the config to the standard location.
func (c *Config) Save() error {
	return c.SaveTo(ConfigPath())
}

// SaveTo writes the config to a specific path.
func (c *Config) SaveTo(path string) error {
	if c.InitTime == 0 {
		c.InitTime = time.Now().Unix()
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	// Restrictive permissions, the config may reference private repositories
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}
	defer f.Close()

	enc := yaml.NewEncoder(f)
	defer enc.Close()

	if err := enc.Encode(c); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	return nil
}

// Validate checks the configured directories for structural problems.
func (c *Config) Validate() error {
	if err := fileops.ValidateStoragePath(c.PortfolioDir); err != nil {
		return fmt.Errorf("invalid portfolio directory: %w", err)
	}
	if err := fileops.ValidateStoragePath(c.NotesDir); err != nil {
		return fmt.Errorf("invalid notes directory: %w", err)
	}
	for _, repo := range c.Repositories {
		if err := repository.ValidateRepositoryEntry(repo); err != nil {
			return fmt.Errorf("invalid repository %q: %w", repo.Name, err)
		}
	}
	return nil
}

// CreateNewConfig initializes a new configuration with the given portfolio
// and notes directories, creating both on disk.
func CreateNewConfig(portfolioDir, notesDir string) (*Config, error) {
	cfg := DefaultConfig()
	if portfolioDir != "" {
		cfg.PortfolioDir = fileops.ExpandPath(portfolioDir)
	}
	if notesDir != "" {
		cfg.NotesDir = fileops.ExpandPath(notesDir)
	}

	if err := fileops.EnsureDirectoryExists(cfg.PortfolioDir); err != nil {
		return nil, fmt.Errorf("failed to create portfolio directory: %w", err)
	}
	if err := fileops.EnsureDirectoryExists(cfg.NotesDir); err != nil {
		return nil, fmt.Errorf("failed to create notes directory: %w", err)
	}

	if err := cfg.Save(); err != nil {
		return nil, fmt.Errorf("failed to save configuration: %w", err)
	}

	logging.Info("Configuration created", "portfolio_dir", cfg.PortfolioDir, "notes_dir", cfg.NotesDir)
	return &cfg, nil
}

// AddRepository appends a repository entry and saves the config.
func (c *Config) AddRepository(repo repository.RepositoryEntry) error {
	if err := repository.ValidateRepositoryEntry(repo); err != nil {
		return fmt.Errorf("invalid repository entry: %w", err)
	}
	for _, existing := range c.Repositories {
		if existing.ID == repo.ID {
			return fmt.Errorf("repository %q already configured", repo.ID)
		}
	}
	c.Repositories = append(c.Repositories, repo)
	return c.Save()
}

// RemoveRepository removes a repository entry by ID and saves the config.
func (c *Config) RemoveRepository(id string) error {
	for i, repo := range c.Repositories {
		if repo.ID == id {
			c.Repositories = append(c.Repositories[:i], c.Repositories[i+1:]...)
			return c.Save()
		}
	}
	return fmt.Errorf("repository %q not found", id)
}

// FindRepository returns the repository entry with the given ID or name.
func (c *Config) FindRepository(idOrName string) (repository.RepositoryEntry, bool) {
	for _, repo := range c.Repositories {
		if repo.ID == idOrName || repo.Name == idOrName {
			return repo, true
		}
	}
	return repository.RepositoryEntry{}, false
}
