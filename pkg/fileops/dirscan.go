package fileops

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"
)

// ScanOptions configures directory scanning behavior.
type ScanOptions struct {
	// SkipUnreadable determines whether unreadable directories are skipped
	// silently or cause the scan to fail.
	SkipUnreadable bool

	// MaxDepth limits recursion depth. This prevents runaway traversal of
	// deep or looping directory structures.
	MaxDepth int

	// IncludeHidden determines whether entries starting with '.' are scanned.
	IncludeHidden bool

	// SkipDirs contains directory names (not full paths) that are never
	// descended into.
	SkipDirs []string

	// FileFilter, when non-nil, decides whether a discovered file is
	// included in the results.
	FileFilter func(filename string) bool
}

// ScannedFile describes a file discovered during a directory scan.
type ScannedFile struct {
	// Name is the base filename without path components
	Name string

	// Path is the path relative to the scan root
	Path string

	// Size is the file size in bytes
	Size int64

	// ModTime is the last modification time
	ModTime time.Time
}

// DirScanner walks a directory tree inside a secure root boundary.
//
// All filesystem access happens through an os.Root opened at the scan
// path, so symlinks cannot escape the scanned area. Visited-directory
// tracking guards against symlink loops.
type DirScanner struct {
	root     *os.Root
	opts     *ScanOptions
	scanRoot string
	visited  map[string]bool
	results  []ScannedFile
}

// NewDirScanner creates a scanner rooted at scanPath.
//
// The path is expanded, validated against reserved system directories,
// and must exist as a directory. Pass nil opts for defaults.
//
// Usage example:
//
//	scanner, err := fileops.NewDirScanner(portfolioDir, &fileops.ScanOptions{
//	    MaxDepth:   4,
//	    FileFilter: fileops.IsMarkdownFile,
//	})
//	if err != nil {
//	    return err
//	}
//	defer scanner.Close()
func NewDirScanner(scanPath string, opts *ScanOptions) (*DirScanner, error) {
	if opts == nil {
		opts = defaultScanOptions()
	}

	if strings.TrimSpace(scanPath) == "" {
		return nil, fmt.Errorf("scan path cannot be empty")
	}

	expandedPath := ExpandPath(scanPath)
	absPath, err := filepath.Abs(expandedPath)
	if err != nil {
		return nil, fmt.Errorf("cannot resolve scan path: %w", err)
	}

	if err := ValidatePathSecurity(absPath); err != nil {
		return nil, fmt.Errorf("scan path security validation failed: %w", err)
	}

	if IsReservedDirectory(absPath) {
		return nil, fmt.Errorf("cannot scan reserved/system directory: %s", absPath)
	}

	info, err := os.Stat(absPath)
	if err != nil {
		return nil, fmt.Errorf("cannot access scan path: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("scan path is not a directory: %s", absPath)
	}

	root, err := os.OpenRoot(absPath)
	if err != nil {
		return nil, fmt.Errorf("cannot create secure scan root: %w", err)
	}

	return &DirScanner{
		root:     root,
		opts:     opts,
		scanRoot: absPath,
		visited:  make(map[string]bool),
		results:  []ScannedFile{},
	}, nil
}

func defaultScanOptions() *ScanOptions {
	return &ScanOptions{
		SkipUnreadable: true,
		MaxDepth:       10,
		IncludeHidden:  false,
		SkipDirs:       defaultSkipDirs(),
		FileFilter:     nil,
	}
}

func defaultSkipDirs() []string {
	return []string{
		".git",
		"node_modules",
		".cache",
		".obsidian",
		".vscode",
		".idea",
	}
}

// IsMarkdownFile reports whether the filename has a markdown extension.
// Suitable as a ScanOptions.FileFilter.
func IsMarkdownFile(filename string) bool {
	ext := strings.ToLower(filepath.Ext(filename))
	return ext == ".md" || ext == ".markdown"
}

// Close releases the secure root held by the scanner.
func (s *DirScanner) Close() error {
	if s.root != nil {
		err := s.root.Close()
		s.root = nil
		return err
	}
	return nil
}

// Scan walks the directory tree and returns all files matching the
// configured filter. The scan can be repeated; state is reset each call.
func (s *DirScanner) Scan() ([]ScannedFile, error) {
	if s.root == nil {
		return nil, fmt.Errorf("scanner has been closed")
	}

	s.results = []ScannedFile{}
	s.visited = make(map[string]bool)

	if err := s.scanRecursive(".", 1); err != nil {
		return nil, fmt.Errorf("directory scan failed: %w", err)
	}

	resultsCopy := make([]ScannedFile, len(s.results))
	copy(resultsCopy, s.results)
	return resultsCopy, nil
}

func (s *DirScanner) scanRecursive(relativePath string, depth int) error {
	if depth > s.opts.MaxDepth {
		return nil
	}

	cleanPath := filepath.Clean(relativePath)
	if s.visited[cleanPath] {
		return nil // already seen, prevents symlink loops
	}
	s.visited[cleanPath] = true

	if s.shouldSkipDirectory(filepath.Base(relativePath)) {
		return nil
	}

	dir, err := s.root.Open(relativePath)
	if err != nil {
		if s.opts.SkipUnreadable {
			return nil
		}
		return fmt.Errorf("failed to open directory %s: %w", relativePath, err)
	}
	defer dir.Close()

	entries, err := dir.ReadDir(-1)
	if err != nil {
		if s.opts.SkipUnreadable {
			return nil
		}
		return fmt.Errorf("failed to read directory %s: %w", relativePath, err)
	}

	for _, entry := range entries {
		entryPath := filepath.Join(relativePath, entry.Name())

		if entry.IsDir() {
			// Symlinked directories must stay within the scan root
			fullEntryPath := filepath.Join(s.scanRoot, entryPath)
			if isLink, err := IsSymlink(fullEntryPath); err == nil && isLink {
				if err := ValidateSymlinkSecurity(fullEntryPath, []string{s.scanRoot}); err != nil {
					if s.opts.SkipUnreadable {
						continue
					}
					return fmt.Errorf("symlink security check failed for %s: %w", entryPath, err)
				}
			}

			if err := s.scanRecursive(entryPath, depth+1); err != nil {
				return err
			}
			continue
		}

		if !s.shouldIncludeFile(entry.Name()) {
			continue
		}

		info, err := entry.Info()
		if err != nil {
			if s.opts.SkipUnreadable {
				continue
			}
			return fmt.Errorf("failed to get file info for %s: %w", entryPath, err)
		}

		s.results = append(s.results, ScannedFile{
			Name:    entry.Name(),
			Path:    entryPath,
			Size:    info.Size(),
			ModTime: info.ModTime(),
		})
	}

	return nil
}

func (s *DirScanner) shouldSkipDirectory(dirName string) bool {
	if dirName == "." || dirName == ".." {
		return false
	}

	if !s.opts.IncludeHidden && strings.HasPrefix(dirName, ".") {
		return true
	}

	return slices.Contains(s.opts.SkipDirs, dirName)
}

func (s *DirScanner) shouldIncludeFile(fileName string) bool {
	if !s.opts.IncludeHidden && strings.HasPrefix(fileName, ".") {
		return false
	}

	if s.opts.FileFilter != nil {
		return s.opts.FileFilter(fileName)
	}

	return true
}

// ScanMarkdownFiles scans a directory tree for markdown files up to
// maxDepth levels deep. This is the common case for portfolio and
// session-note directories.
func ScanMarkdownFiles(scanPath string, maxDepth int) ([]ScannedFile, error) {
	scanner, err := NewDirScanner(scanPath, &ScanOptions{
		SkipUnreadable: true,
		MaxDepth:       maxDepth,
		IncludeHidden:  false,
		SkipDirs:       defaultSkipDirs(),
		FileFilter:     IsMarkdownFile,
	})
	if err != nil {
		return nil, err
	}
	defer scanner.Close()

	return scanner.Scan()
}
