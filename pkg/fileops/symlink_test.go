package fileops

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"
)

func createSymlink(t *testing.T, target, linkPath string) {
	t.Helper()
	if err := os.Symlink(target, linkPath); err != nil {
		if runtime.GOOS == "windows" {
			t.Skipf("Cannot create symlinks on this system: %v", err)
		}
		t.Fatalf("Failed to create symlink: %v", err)
	}
}

func TestIsSymlink(t *testing.T) {
	dir := t.TempDir()
	regular := createTestFile(t, dir, "regular.md", "content")
	link := filepath.Join(dir, "link.md")
	createSymlink(t, regular, link)

	t.Run("symlink detected", func(t *testing.T) {
		isLink, err := IsSymlink(link)
		if err != nil {
			t.Fatalf("IsSymlink failed: %v", err)
		}
		if !isLink {
			t.Error("Expected symlink to be detected")
		}
	})

	t.Run("regular file is not symlink", func(t *testing.T) {
		isLink, err := IsSymlink(regular)
		if err != nil {
			t.Fatalf("IsSymlink failed: %v", err)
		}
		if isLink {
			t.Error("Regular file reported as symlink")
		}
	})

	t.Run("missing path errors", func(t *testing.T) {
		if _, err := IsSymlink(filepath.Join(dir, "missing")); err == nil {
			t.Error("Expected error for missing path")
		}
	})
}

func TestResolveSymlink(t *testing.T) {
	dir := t.TempDir()
	target := createTestFile(t, dir, "target.md", "content")
	link := filepath.Join(dir, "link.md")
	createSymlink(t, target, link)

	t.Run("resolves to target", func(t *testing.T) {
		resolved, err := ResolveSymlink(link)
		if err != nil {
			t.Fatalf("ResolveSymlink failed: %v", err)
		}

		wantResolved, err := filepath.EvalSymlinks(target)
		if err != nil {
			t.Fatalf("Failed to canonicalize target: %v", err)
		}
		if resolved != wantResolved {
			t.Errorf("ResolveSymlink = %q, want %q", resolved, wantResolved)
		}
	})

	t.Run("broken symlink errors", func(t *testing.T) {
		broken := filepath.Join(dir, "broken.md")
		createSymlink(t, filepath.Join(dir, "gone.md"), broken)

		if _, err := ResolveSymlink(broken); err == nil {
			t.Error("Expected error for broken symlink")
		}
	})
}

func TestValidateSymlinkSecurity(t *testing.T) {
	allowedDir := t.TempDir()
	outsideDir := t.TempDir()

	insideTarget := createTestFile(t, allowedDir, "inside.md", "content")
	outsideTarget := createTestFile(t, outsideDir, "outside.md", "content")

	safeLink := filepath.Join(allowedDir, "safe-link.md")
	createSymlink(t, insideTarget, safeLink)

	escapeLink := filepath.Join(allowedDir, "escape-link.md")
	createSymlink(t, outsideTarget, escapeLink)

	t.Run("link inside allowed path", func(t *testing.T) {
		if err := ValidateSymlinkSecurity(safeLink, []string{allowedDir}); err != nil {
			t.Errorf("Expected safe symlink to pass: %v", err)
		}
	})

	t.Run("link escaping allowed path", func(t *testing.T) {
		if err := ValidateSymlinkSecurity(escapeLink, []string{allowedDir}); err == nil {
			t.Error("Expected error for symlink escaping allowed paths")
		}
	})

	t.Run("multiple allowed paths", func(t *testing.T) {
		if err := ValidateSymlinkSecurity(escapeLink, []string{allowedDir, outsideDir}); err != nil {
			t.Errorf("Expected symlink within second allowed path to pass: %v", err)
		}
	})

	t.Run("non-symlink path errors", func(t *testing.T) {
		if err := ValidateSymlinkSecurity(insideTarget, []string{allowedDir}); err == nil {
			t.Error("Expected error for non-symlink path")
		}
	})
}
