// Package portfolio implements element storage on the local filesystem.
//
// A portfolio is a directory with one subdirectory per element type
// (personas/, skills/, templates/, agents/, memories/, ensembles/), each
// holding markdown element files with YAML frontmatter. All access is
// confined to the portfolio directory through an os.Root.
package portfolio

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"dollhouse/internal/elements"
	"dollhouse/internal/logging"
	"dollhouse/pkg/fileops"
)

// ElementInfo summarizes a stored element for listings, without carrying
// the full body.
type ElementInfo struct {
	Identifier  string
	FileName    string
	Type        elements.ElementType
	Name        string
	Description string
	Author      string
	Version     string
	TrustLevel  string
}

// ListOptions controls element listing behavior.
type ListOptions struct {
	// IncludeQuarantined includes quarantined memories in listings.
	// They are hidden by default.
	IncludeQuarantined bool
}

// Portfolio provides element storage rooted at a validated directory.
type Portfolio struct {
	dir    string
	root   *os.Root
	logger *logging.AppLogger
}

// Open validates the portfolio directory, creates it and its per-type
// subdirectories if missing, and returns a Portfolio confined to it.
//
// Usage example:
//
//	p, err := portfolio.Open(cfg.PortfolioDir, logger)
//	if err != nil {
//	    return err
//	}
//	defer p.Close()
func Open(dir string, logger *logging.AppLogger) (*Portfolio, error) {
	if strings.TrimSpace(dir) == "" {
		return nil, fmt.Errorf("portfolio directory cannot be empty")
	}
	if logger == nil {
		logger = logging.GetDefault()
	}

	expanded := fileops.ExpandPath(dir)
	if err := fileops.ValidateStoragePath(expanded); err != nil {
		return nil, fmt.Errorf("invalid portfolio directory: %w", err)
	}

	if err := fileops.EnsureDirectoryExists(expanded); err != nil {
		return nil, fmt.Errorf("cannot create portfolio directory: %w", err)
	}
	for _, typ := range elements.AllElementTypes() {
		if err := fileops.EnsureDirectoryExists(filepath.Join(expanded, typ.DirName())); err != nil {
			return nil, fmt.Errorf("cannot create %s directory: %w", typ.DirName(), err)
		}
	}

	// Verify write permissions before handing out the portfolio
	testFile := filepath.Join(expanded, ".dollhouse-write-test")
	if f, err := os.OpenFile(testFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644); err != nil {
		return nil, fmt.Errorf("portfolio directory is not writable: %w", err)
	} else {
		f.Close()
		os.Remove(testFile)
	}

	root, err := os.OpenRoot(expanded)
	if err != nil {
		return nil, fmt.Errorf("cannot create secure portfolio root: %w", err)
	}

	absDir, err := filepath.Abs(expanded)
	if err != nil {
		root.Close()
		return nil, fmt.Errorf("cannot resolve portfolio directory: %w", err)
	}

	logger.Debug("Portfolio opened", "dir", absDir)

	return &Portfolio{
		dir:    absDir,
		root:   root,
		logger: logger,
	}, nil
}

// Close releases the secure root held by the portfolio.
func (p *Portfolio) Close() error {
	if p.root != nil {
		err := p.root.Close()
		p.root = nil
		return err
	}
	return nil
}

// Dir returns the absolute portfolio directory path.
func (p *Portfolio) Dir() string {
	return p.dir
}

// elementPath returns the relative path of an element file inside the
// portfolio, validating the identifier first.
func (p *Portfolio) elementPath(typ elements.ElementType, identifier string) (string, error) {
	if !typ.IsValid() {
		return "", fmt.Errorf("unknown element type %q", typ)
	}
	clean, err := fileops.SanitizeFilename(identifier)
	if err != nil {
		return "", fmt.Errorf("invalid element identifier: %w", err)
	}
	if clean != identifier {
		return "", fmt.Errorf("invalid element identifier %q", identifier)
	}
	return filepath.Join(typ.DirName(), elements.FileNameFor(identifier)), nil
}

// Exists reports whether an element with the given type and identifier is
// stored in the portfolio.
func (p *Portfolio) Exists(typ elements.ElementType, identifier string) bool {
	relPath, err := p.elementPath(typ, identifier)
	if err != nil {
		return false
	}
	_, err = p.root.Stat(relPath)
	return err == nil
}

// Load reads and parses a stored element.
func (p *Portfolio) Load(typ elements.ElementType, identifier string) (*elements.Element, error) {
	relPath, err := p.elementPath(typ, identifier)
	if err != nil {
		return nil, err
	}

	f, err := p.root.Open(relPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("element %s/%s not found", typ, identifier)
		}
		return nil, fmt.Errorf("cannot open element: %w", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("cannot stat element: %w", err)
	}
	if info.Size() > elements.MaxElementFileSize {
		return nil, fmt.Errorf("element file exceeds %d byte limit", elements.MaxElementFileSize)
	}

	raw, err := io.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("cannot read element: %w", err)
	}

	elem, err := elements.Parse(raw, typ)
	if err != nil {
		return nil, fmt.Errorf("element %s/%s is malformed: %w", typ, identifier, err)
	}
	elem.FileName = filepath.Base(relPath)

	return elem, nil
}

// takenIdentifiers returns the set of identifiers already used for a type.
func (p *Portfolio) takenIdentifiers(typ elements.ElementType) (map[string]bool, error) {
	dir, err := p.root.Open(typ.DirName())
	if err != nil {
		return nil, fmt.Errorf("cannot open %s directory: %w", typ.DirName(), err)
	}
	defer dir.Close()

	entries, err := dir.ReadDir(-1)
	if err != nil {
		return nil, fmt.Errorf("cannot read %s directory: %w", typ.DirName(), err)
	}

	taken := make(map[string]bool)
	for _, entry := range entries {
		if entry.IsDir() || !fileops.IsMarkdownFile(entry.Name()) {
			continue
		}
		taken[strings.TrimSuffix(entry.Name(), filepath.Ext(entry.Name()))] = true
	}
	return taken, nil
}

// Create stores a new element, deriving a unique identifier from its name.
// Returns the identifier the element was stored under.
func (p *Portfolio) Create(elem *elements.Element) (string, error) {
	if err := elem.Validate(); err != nil {
		return "", err
	}

	// Memory content that fails validation is quarantined, not refused.
	if err := elem.ValidateTrust(); err != nil {
		p.logger.Warn("Memory content failed validation, quarantining",
			"name", elem.Metadata.Name, "reason", err)
	}

	taken, err := p.takenIdentifiers(elem.Type)
	if err != nil {
		return "", err
	}

	identifier, err := elements.UniqueIdentifier(elem.Metadata.Name, taken)
	if err != nil {
		return "", err
	}

	if err := p.write(elem, identifier); err != nil {
		return "", err
	}

	p.logger.Info("Element created", "type", elem.Type, "identifier", identifier)
	return identifier, nil
}

// Update overwrites an existing element in place.
func (p *Portfolio) Update(identifier string, elem *elements.Element) error {
	if err := elem.Validate(); err != nil {
		return err
	}
	if err := elem.ValidateTrust(); err != nil {
		p.logger.Warn("Memory content failed validation, quarantining",
			"name", elem.Metadata.Name, "reason", err)
	}
	if !p.Exists(elem.Type, identifier) {
		return fmt.Errorf("element %s/%s not found", elem.Type, identifier)
	}

	if err := p.write(elem, identifier); err != nil {
		return err
	}

	p.logger.Info("Element updated", "type", elem.Type, "identifier", identifier)
	return nil
}

// write serializes the element and writes it atomically.
func (p *Portfolio) write(elem *elements.Element, identifier string) error {
	relPath, err := p.elementPath(elem.Type, identifier)
	if err != nil {
		return err
	}

	raw, err := elem.Serialize()
	if err != nil {
		return err
	}
	if len(raw) > elements.MaxElementFileSize {
		return fmt.Errorf("element exceeds %d byte limit", elements.MaxElementFileSize)
	}

	if err := fileops.AtomicWrite(filepath.Join(p.dir, relPath), raw); err != nil {
		return fmt.Errorf("failed to write element: %w", err)
	}
	elem.FileName = filepath.Base(relPath)
	return nil
}

// Rename moves an element to a new identifier derived from newName and
// updates its metadata name. Returns the new identifier.
func (p *Portfolio) Rename(typ elements.ElementType, identifier, newName string) (string, error) {
	elem, err := p.Load(typ, identifier)
	if err != nil {
		return "", err
	}

	taken, err := p.takenIdentifiers(typ)
	if err != nil {
		return "", err
	}
	delete(taken, identifier)

	newID, err := elements.UniqueIdentifier(newName, taken)
	if err != nil {
		return "", err
	}

	elem.Metadata.Name = newName
	if err := elem.Validate(); err != nil {
		return "", err
	}

	if err := p.write(elem, newID); err != nil {
		return "", err
	}

	if newID != identifier {
		oldPath, _ := p.elementPath(typ, identifier)
		if err := p.root.Remove(oldPath); err != nil {
			return "", fmt.Errorf("failed to remove old element file: %w", err)
		}
	}

	p.logger.Info("Element renamed", "type", typ, "from", identifier, "to", newID)
	return newID, nil
}

// Delete removes a stored element.
func (p *Portfolio) Delete(typ elements.ElementType, identifier string) error {
	relPath, err := p.elementPath(typ, identifier)
	if err != nil {
		return err
	}

	if err := p.root.Remove(relPath); err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("element %s/%s not found", typ, identifier)
		}
		return fmt.Errorf("failed to delete element: %w", err)
	}

	p.logger.Info("Element deleted", "type", typ, "identifier", identifier)
	return nil
}

// List returns summaries of stored elements of the given type, sorted by
// identifier. Quarantined memories are hidden unless opts requests them.
func (p *Portfolio) List(typ elements.ElementType, opts ListOptions) ([]ElementInfo, error) {
	if !typ.IsValid() {
		return nil, fmt.Errorf("unknown element type %q", typ)
	}

	taken, err := p.takenIdentifiers(typ)
	if err != nil {
		return nil, err
	}

	identifiers := make([]string, 0, len(taken))
	for id := range taken {
		identifiers = append(identifiers, id)
	}
	sort.Strings(identifiers)

	var result []ElementInfo
	for _, id := range identifiers {
		elem, err := p.Load(typ, id)
		if err != nil {
			p.logger.Warn("Skipping malformed element", "type", typ, "identifier", id, "error", err)
			continue
		}

		if elem.IsQuarantined() && !opts.IncludeQuarantined {
			continue
		}

		result = append(result, ElementInfo{
			Identifier:  id,
			FileName:    elem.FileName,
			Type:        typ,
			Name:        elem.Metadata.Name,
			Description: elem.Metadata.Description,
			Author:      elem.Metadata.Author,
			Version:     elem.Metadata.Version,
			TrustLevel:  elem.Metadata.TrustLevel.String(),
		})
	}

	return result, nil
}

// ListAll returns summaries for every element type.
func (p *Portfolio) ListAll(opts ListOptions) ([]ElementInfo, error) {
	var result []ElementInfo
	for _, typ := range elements.AllElementTypes() {
		infos, err := p.List(typ, opts)
		if err != nil {
			return nil, err
		}
		result = append(result, infos...)
	}
	return result, nil
}
