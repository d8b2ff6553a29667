package notes

import (
	"bytes"
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/adrg/frontmatter"
)

// SessionNote file naming convention: SESSION_NOTES_<YYYY-MM-DD>.md with an
// optional suffix for multiple sessions on the same day, e.g.
// SESSION_NOTES_2025-08-09_EVENING.md.
var noteFileNamePattern = regexp.MustCompile(`^SESSION_NOTES_(\d{4}-\d{2}-\d{2})(?:_([A-Za-z0-9-]+))?\.md$`)

var (
	issueRefPattern   = regexp.MustCompile(`#(\d+)`)
	elementRefPattern = regexp.MustCompile("`([a-zA-Z][a-zA-Z0-9 _.-]{1,99})`")
	headingPattern    = regexp.MustCompile(`(?m)^#\s+(.+)$`)
)

// NoteMetadata is the optional YAML frontmatter of a session note.
type NoteMetadata struct {
	Title  string   `yaml:"title,omitempty"`
	Author string   `yaml:"author,omitempty"`
	Tags   []string `yaml:"tags,omitempty"`
}

// SessionNote is a parsed session note file.
type SessionNote struct {
	// FileName is the base filename the note was loaded from.
	FileName string

	// Path is the path relative to the notes directory.
	Path string

	// Date is taken from the filename, never from file modification time.
	Date time.Time

	// Suffix distinguishes multiple sessions on the same day, e.g.
	// "EVENING". Empty for the day's primary note.
	Suffix string

	// Title is the frontmatter title, or the first markdown heading when
	// no frontmatter title exists.
	Title string

	// Author is taken from frontmatter when present.
	Author string

	Tags []string

	// Content is the markdown body without frontmatter.
	Content string

	// IssueRefs are GitHub issue and PR numbers referenced as #N.
	IssueRefs []int

	// ElementRefs are backticked element names mentioned in the body.
	ElementRefs []string
}

// IsSessionNoteFile reports whether a filename follows the session note
// naming convention.
func IsSessionNoteFile(filename string) bool {
	return noteFileNamePattern.MatchString(filename)
}

// ParseFileName extracts the date and optional suffix from a session note
// filename.
func ParseFileName(filename string) (time.Time, string, error) {
	m := noteFileNamePattern.FindStringSubmatch(filename)
	if m == nil {
		return time.Time{}, "", fmt.Errorf("not a session note filename: %q", filename)
	}

	date, err := time.Parse("2006-01-02", m[1])
	if err != nil {
		return time.Time{}, "", fmt.Errorf("invalid date in filename %q: %w", filename, err)
	}

	return date, m[2], nil
}

// Parse parses a session note from its filename and raw content.
//
// The date always comes from the filename. The title comes from
// frontmatter when present, otherwise the first markdown heading.
func Parse(filename string, raw []byte) (*SessionNote, error) {
	date, suffix, err := ParseFileName(filename)
	if err != nil {
		return nil, err
	}

	var meta NoteMetadata
	body, err := frontmatter.Parse(bytes.NewReader(raw), &meta)
	if err != nil {
		// Notes without frontmatter are valid, treat the whole file as body
		body = raw
	}

	content := string(body)

	note := &SessionNote{
		FileName:    filename,
		Date:        date,
		Suffix:      suffix,
		Title:       meta.Title,
		Author:      meta.Author,
		Tags:        meta.Tags,
		Content:     content,
		IssueRefs:   extractIssueRefs(content),
		ElementRefs: extractElementRefs(content),
	}

	if note.Title == "" {
		if m := headingPattern.FindStringSubmatch(content); m != nil {
			note.Title = strings.TrimSpace(m[1])
		}
	}
	if note.Title == "" {
		note.Title = "Session " + date.Format("2006-01-02")
	}

	return note, nil
}

// extractIssueRefs collects unique #N issue and PR references in
// ascending order.
func extractIssueRefs(content string) []int {
	seen := make(map[int]bool)
	var refs []int

	for _, m := range issueRefPattern.FindAllStringSubmatch(content, -1) {
		n, err := strconv.Atoi(m[1])
		if err != nil || n == 0 {
			continue
		}
		if !seen[n] {
			seen[n] = true
			refs = append(refs, n)
		}
	}

	sort.Ints(refs)
	return refs
}

// extractElementRefs collects unique backticked names mentioned in the
// body. Code spans containing characters that cannot appear in element
// names are ignored.
func extractElementRefs(content string) []string {
	seen := make(map[string]bool)
	var refs []string

	for _, m := range elementRefPattern.FindAllStringSubmatch(content, -1) {
		name := strings.TrimSpace(m[1])
		if name == "" {
			continue
		}
		key := strings.ToLower(name)
		if !seen[key] {
			seen[key] = true
			refs = append(refs, name)
		}
	}

	sort.Strings(refs)
	return refs
}

// ReferencesIssue reports whether the note mentions the given issue or PR
// number.
func (n *SessionNote) ReferencesIssue(number int) bool {
	for _, ref := range n.IssueRefs {
		if ref == number {
			return true
		}
	}
	return false
}

// ReferencesElement reports whether the note mentions the given element
// name, case-insensitively.
func (n *SessionNote) ReferencesElement(name string) bool {
	for _, ref := range n.ElementRefs {
		if strings.EqualFold(ref, name) {
			return true
		}
	}
	return false
}
