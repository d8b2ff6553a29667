package notes

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"dollhouse/internal/logging"
	"dollhouse/pkg/fileops"
)

// MaxNoteFileSize bounds how large a single session note may be.
const MaxNoteFileSize = 2 * 1024 * 1024 // 2 MiB

// Collection provides read access to a directory of session notes.
type Collection struct {
	dir    string
	logger *logging.AppLogger
}

// NewCollection creates a collection over the given notes directory.
func NewCollection(dir string, logger *logging.AppLogger) (*Collection, error) {
	if strings.TrimSpace(dir) == "" {
		return nil, fmt.Errorf("notes directory cannot be empty")
	}
	expanded := fileops.ExpandPath(dir)
	if logger == nil {
		logger = logging.GetDefault()
	}
	return &Collection{dir: expanded, logger: logger}, nil
}

// Dir returns the notes directory path.
func (c *Collection) Dir() string {
	return c.dir
}

// List scans the notes directory and parses every session note file,
// sorted by date descending (newest first). Files that do not follow the
// naming convention are skipped, not errors.
func (c *Collection) List() ([]SessionNote, error) {
	files, err := fileops.ScanMarkdownFiles(c.dir, 3)
	if err != nil {
		return nil, fmt.Errorf("failed to scan notes directory: %w", err)
	}

	var result []SessionNote
	var skipped int

	for _, f := range files {
		if !IsSessionNoteFile(f.Name) {
			skipped++
			continue
		}

		fullPath := filepath.Join(c.dir, f.Path)
		if err := fileops.ValidateFileSizeLimit(fullPath, MaxNoteFileSize); err != nil {
			c.logger.Warn("Skipping oversized session note", "file", f.Name, "error", err)
			skipped++
			continue
		}

		raw, err := os.ReadFile(fullPath)
		if err != nil {
			c.logger.Warn("Skipping unreadable session note", "file", f.Name, "error", err)
			skipped++
			continue
		}

		note, err := Parse(f.Name, raw)
		if err != nil {
			c.logger.Warn("Skipping malformed session note", "file", f.Name, "error", err)
			skipped++
			continue
		}
		note.Path = f.Path

		result = append(result, *note)
	}

	sort.Slice(result, func(i, j int) bool {
		if !result[i].Date.Equal(result[j].Date) {
			return result[i].Date.After(result[j].Date)
		}
		return result[i].FileName < result[j].FileName
	})

	c.logger.Debug("Session notes listed", "count", len(result), "skipped", skipped)
	return result, nil
}

// ListRange returns notes with dates in [from, to], inclusive. Zero
// time values leave the corresponding bound open.
func (c *Collection) ListRange(from, to time.Time) ([]SessionNote, error) {
	all, err := c.List()
	if err != nil {
		return nil, err
	}

	var result []SessionNote
	for _, note := range all {
		if !from.IsZero() && note.Date.Before(from) {
			continue
		}
		if !to.IsZero() && note.Date.After(to) {
			continue
		}
		result = append(result, note)
	}
	return result, nil
}

// Get returns the note with the given filename.
func (c *Collection) Get(filename string) (*SessionNote, error) {
	clean, err := fileops.SanitizeFilename(filename)
	if err != nil {
		return nil, fmt.Errorf("invalid note filename: %w", err)
	}
	if !IsSessionNoteFile(clean) {
		return nil, fmt.Errorf("not a session note filename: %q", clean)
	}

	fullPath := filepath.Join(c.dir, clean)
	if err := fileops.ValidateFileInDirectory(fullPath, c.dir); err != nil {
		return nil, fmt.Errorf("note lookup failed: %w", err)
	}

	raw, err := os.ReadFile(fullPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read note: %w", err)
	}

	note, err := Parse(clean, raw)
	if err != nil {
		return nil, err
	}
	note.Path = clean
	return note, nil
}

// FindByIssue returns all notes referencing the given issue or PR number.
func (c *Collection) FindByIssue(number int) ([]SessionNote, error) {
	all, err := c.List()
	if err != nil {
		return nil, err
	}

	var result []SessionNote
	for _, note := range all {
		if note.ReferencesIssue(number) {
			result = append(result, note)
		}
	}
	return result, nil
}

// FindByElement returns all notes mentioning the given element name.
func (c *Collection) FindByElement(name string) ([]SessionNote, error) {
	all, err := c.List()
	if err != nil {
		return nil, err
	}

	var result []SessionNote
	for _, note := range all {
		if note.ReferencesElement(name) {
			result = append(result, note)
		}
	}
	return result, nil
}

// Search returns notes whose title or body contains the query,
// case-insensitively, newest first.
func (c *Collection) Search(query string) ([]SessionNote, error) {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return nil, fmt.Errorf("search query cannot be empty")
	}

	all, err := c.List()
	if err != nil {
		return nil, err
	}

	var result []SessionNote
	for _, note := range all {
		if strings.Contains(strings.ToLower(note.Title), q) ||
			strings.Contains(strings.ToLower(note.Content), q) {
			result = append(result, note)
		}
	}
	return result, nil
}
