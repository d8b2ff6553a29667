package repository

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"dollhouse/internal/logging"
)

func TestLocalSource_Prepare(t *testing.T) {
	logger, _ := logging.NewTestLogger()

	t.Run("valid directory", func(t *testing.T) {
		dir := t.TempDir()
		ls := NewLocalSource(dir)

		got, err := ls.Prepare(logger)
		if err != nil {
			t.Fatalf("Prepare() unexpected error: %v", err)
		}
		if !filepath.IsAbs(got) {
			t.Errorf("Prepare() = %q, want absolute path", got)
		}
	})

	t.Run("empty path", func(t *testing.T) {
		ls := NewLocalSource("   ")
		if _, err := ls.Prepare(logger); err == nil {
			t.Error("Prepare() accepted empty path")
		}
	})

	t.Run("missing directory", func(t *testing.T) {
		ls := NewLocalSource(filepath.Join(t.TempDir(), "missing"))
		_, err := ls.Prepare(logger)
		if err == nil || !strings.Contains(err.Error(), "does not exist") {
			t.Errorf("Prepare() error = %v, want missing directory error", err)
		}
	})

	t.Run("path is a file", func(t *testing.T) {
		dir := t.TempDir()
		filePath := filepath.Join(dir, "file.txt")
		if err := os.WriteFile(filePath, []byte("x"), 0644); err != nil {
			t.Fatal(err)
		}

		ls := NewLocalSource(filePath)
		_, err := ls.Prepare(logger)
		if err == nil || !strings.Contains(err.Error(), "not a directory") {
			t.Errorf("Prepare() error = %v, want not-a-directory error", err)
		}
	})

	t.Run("reserved system directory", func(t *testing.T) {
		ls := NewLocalSource("/etc")
		if _, err := ls.Prepare(logger); err == nil {
			t.Error("Prepare() accepted reserved system directory")
		}
	})
}

func TestLocalSource_ValidatePath(t *testing.T) {
	if err := NewLocalSource("/home/user/portfolio").ValidatePath(); err != nil {
		t.Errorf("ValidatePath() unexpected error: %v", err)
	}
	if err := NewLocalSource("").ValidatePath(); err == nil {
		t.Error("ValidatePath() accepted empty path")
	}
}
