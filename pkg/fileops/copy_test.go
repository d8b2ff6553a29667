package fileops

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// Test helpers

func createTestFile(t *testing.T, dir, filename, content string) string {
	t.Helper()
	path := filepath.Join(dir, filename)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to create test file %s: %v", path, err)
	}
	return path
}

func readFileContent(t *testing.T, path string) string {
	t.Helper()
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read file %s: %v", path, err)
	}
	return string(content)
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func TestAtomicWrite(t *testing.T) {
	destDir := t.TempDir()

	t.Run("basic write operation", func(t *testing.T) {
		destPath := filepath.Join(destDir, "element.md")
		content := "---\nname: creative-writer\n---\nbody"

		if err := AtomicWrite(destPath, []byte(content)); err != nil {
			t.Fatalf("AtomicWrite failed: %v", err)
		}

		if readFileContent(t, destPath) != content {
			t.Errorf("Content mismatch after write")
		}
	})

	t.Run("overwrite existing file", func(t *testing.T) {
		destPath := createTestFile(t, destDir, "existing.md", "old content")

		if err := AtomicWrite(destPath, []byte("new content")); err != nil {
			t.Fatalf("AtomicWrite failed: %v", err)
		}

		if got := readFileContent(t, destPath); got != "new content" {
			t.Errorf("Content not overwritten. Got %q", got)
		}
	})

	t.Run("no temp file left behind", func(t *testing.T) {
		destPath := filepath.Join(destDir, "clean.md")

		if err := AtomicWrite(destPath, []byte("data")); err != nil {
			t.Fatalf("AtomicWrite failed: %v", err)
		}

		entries, err := os.ReadDir(destDir)
		if err != nil {
			t.Fatalf("Failed to read dest dir: %v", err)
		}
		for _, e := range entries {
			if strings.Contains(e.Name(), ".tmp") {
				t.Errorf("Temp file left behind: %s", e.Name())
			}
		}
	})

	t.Run("write to nonexistent directory fails", func(t *testing.T) {
		destPath := filepath.Join(destDir, "missing", "file.md")

		if err := AtomicWrite(destPath, []byte("data")); err == nil {
			t.Error("Expected error writing into nonexistent directory")
		}
	})
}

func TestAtomicCopy(t *testing.T) {
	srcDir := t.TempDir()
	destDir := t.TempDir()

	t.Run("basic copy operation", func(t *testing.T) {
		content := "session note content"
		srcPath := createTestFile(t, srcDir, "source.md", content)
		destPath := filepath.Join(destDir, "dest.md")

		if err := AtomicCopy(srcPath, destPath); err != nil {
			t.Fatalf("AtomicCopy failed: %v", err)
		}

		if !fileExists(destPath) {
			t.Fatal("Destination file was not created")
		}
		if readFileContent(t, destPath) != content {
			t.Error("Content mismatch after copy")
		}
	})

	t.Run("large file copy", func(t *testing.T) {
		largeContent := strings.Repeat("note line\n", 20000)
		srcPath := createTestFile(t, srcDir, "large.md", largeContent)
		destPath := filepath.Join(destDir, "large_copy.md")

		if err := AtomicCopy(srcPath, destPath); err != nil {
			t.Fatalf("AtomicCopy failed: %v", err)
		}

		if readFileContent(t, destPath) != largeContent {
			t.Error("Large file content mismatch")
		}
	})

	t.Run("missing source fails", func(t *testing.T) {
		if err := AtomicCopy(filepath.Join(srcDir, "nope.md"), filepath.Join(destDir, "x.md")); err == nil {
			t.Error("Expected error for missing source file")
		}
	})
}

func TestEnsureDirectoryExists(t *testing.T) {
	base := t.TempDir()

	t.Run("creates nested directories", func(t *testing.T) {
		nested := filepath.Join(base, "portfolio", "personas")
		if err := EnsureDirectoryExists(nested); err != nil {
			t.Fatalf("EnsureDirectoryExists failed: %v", err)
		}

		info, err := os.Stat(nested)
		if err != nil {
			t.Fatalf("Directory not created: %v", err)
		}
		if !info.IsDir() {
			t.Error("Created path is not a directory")
		}
	})

	t.Run("idempotent for existing directory", func(t *testing.T) {
		if err := EnsureDirectoryExists(base); err != nil {
			t.Errorf("EnsureDirectoryExists on existing dir failed: %v", err)
		}
	})
}
