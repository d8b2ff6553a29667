package notes

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"dollhouse/internal/logging"
)

func setupNotesDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()

	files := map[string]string{
		"SESSION_NOTES_2025-08-09.md": "# Memory debugging\n\nFixed #610 with `conversation-history`.\n",
		"SESSION_NOTES_2025-08-09_EVENING.md": "# Evening session\n\nContinued #610.\n",
		"SESSION_NOTES_2025-08-01.md": "# Portfolio sync\n\nShipped PR #598.\n",
		"SESSION_NOTES_2025-07-15.md": "# Planning\n\nRoadmap discussion.\n",
		"README.md":                   "# Not a session note\n",
		"scratch.txt":                 "ignore me",
	}
	for name, content := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0644); err != nil {
			t.Fatalf("Failed to write %s: %v", name, err)
		}
	}

	return dir
}

func newTestCollection(t *testing.T) *Collection {
	t.Helper()
	logger, _ := logging.NewTestLogger()
	c, err := NewCollection(setupNotesDir(t), logger)
	if err != nil {
		t.Fatalf("NewCollection failed: %v", err)
	}
	return c
}

func TestCollectionList(t *testing.T) {
	c := newTestCollection(t)

	all, err := c.List()
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}

	if len(all) != 4 {
		t.Fatalf("Expected 4 notes, got %d", len(all))
	}

	// Newest first
	if all[0].Date.Before(all[len(all)-1].Date) {
		t.Error("Expected notes sorted newest first")
	}
	for _, note := range all {
		if note.FileName == "README.md" {
			t.Error("Non-conventional file included in listing")
		}
	}
}

func TestCollectionListRange(t *testing.T) {
	c := newTestCollection(t)

	from := time.Date(2025, 8, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2025, 8, 5, 0, 0, 0, 0, time.UTC)

	ranged, err := c.ListRange(from, to)
	if err != nil {
		t.Fatalf("ListRange failed: %v", err)
	}

	if len(ranged) != 1 {
		t.Fatalf("Expected 1 note in range, got %d", len(ranged))
	}
	if ranged[0].FileName != "SESSION_NOTES_2025-08-01.md" {
		t.Errorf("Unexpected note in range: %s", ranged[0].FileName)
	}

	t.Run("open bounds", func(t *testing.T) {
		allAfter, err := c.ListRange(from, time.Time{})
		if err != nil {
			t.Fatalf("ListRange failed: %v", err)
		}
		if len(allAfter) != 3 {
			t.Errorf("Expected 3 notes from August on, got %d", len(allAfter))
		}
	})
}

func TestCollectionGet(t *testing.T) {
	c := newTestCollection(t)

	t.Run("existing note", func(t *testing.T) {
		note, err := c.Get("SESSION_NOTES_2025-08-09.md")
		if err != nil {
			t.Fatalf("Get failed: %v", err)
		}
		if note.Title != "Memory debugging" {
			t.Errorf("Title = %q", note.Title)
		}
	})

	t.Run("missing note", func(t *testing.T) {
		if _, err := c.Get("SESSION_NOTES_2030-01-01.md"); err == nil {
			t.Error("Expected error for missing note")
		}
	})

	t.Run("non-note filename", func(t *testing.T) {
		if _, err := c.Get("README.md"); err == nil {
			t.Error("Expected error for non-note filename")
		}
	})

	t.Run("traversal attempt", func(t *testing.T) {
		if _, err := c.Get("../../etc/passwd"); err == nil {
			t.Error("Expected error for traversal in filename")
		}
	})

	t.Run("path components stripped", func(t *testing.T) {
		// Sanitization reduces the path to its base name, which still
		// resolves inside the notes directory
		note, err := c.Get("../" + "SESSION_NOTES_2025-08-09.md")
		if err != nil {
			t.Fatalf("Get failed: %v", err)
		}
		if note.FileName != "SESSION_NOTES_2025-08-09.md" {
			t.Errorf("FileName = %q", note.FileName)
		}
	})
}

func TestCollectionFindByIssue(t *testing.T) {
	c := newTestCollection(t)

	found, err := c.FindByIssue(610)
	if err != nil {
		t.Fatalf("FindByIssue failed: %v", err)
	}
	if len(found) != 2 {
		t.Errorf("Expected 2 notes referencing #610, got %d", len(found))
	}

	none, err := c.FindByIssue(9999)
	if err != nil {
		t.Fatalf("FindByIssue failed: %v", err)
	}
	if len(none) != 0 {
		t.Errorf("Expected no notes referencing #9999, got %d", len(none))
	}
}

func TestCollectionFindByElement(t *testing.T) {
	c := newTestCollection(t)

	found, err := c.FindByElement("conversation-history")
	if err != nil {
		t.Fatalf("FindByElement failed: %v", err)
	}
	if len(found) != 1 {
		t.Errorf("Expected 1 note referencing conversation-history, got %d", len(found))
	}
}

func TestCollectionSearch(t *testing.T) {
	c := newTestCollection(t)

	t.Run("matches body text", func(t *testing.T) {
		found, err := c.Search("roadmap")
		if err != nil {
			t.Fatalf("Search failed: %v", err)
		}
		if len(found) != 1 || found[0].FileName != "SESSION_NOTES_2025-07-15.md" {
			t.Errorf("Unexpected search results: %v", found)
		}
	})

	t.Run("empty query rejected", func(t *testing.T) {
		if _, err := c.Search("  "); err == nil {
			t.Error("Expected error for empty query")
		}
	})
}

func TestNewCollectionValidation(t *testing.T) {
	logger, _ := logging.NewTestLogger()
	if _, err := NewCollection("", logger); err == nil {
		t.Error("Expected error for empty notes directory")
	}
}
