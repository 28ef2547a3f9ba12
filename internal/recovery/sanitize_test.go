package recovery

import (
	"os"
	"path/filepath"
	"testing"
)

func TestSanitizeReplacesControlAndSeparators(t *testing.T) {
	got := sanitize("a/b\x00c\x01d")
	if got != "a_b_c_d" {
		t.Fatalf("sanitize = %q, want %q", got, "a_b_c_d")
	}
}

func TestSanitizeRejectsDotNames(t *testing.T) {
	for _, name := range []string{"", ".", ".."} {
		if got := sanitize(name); got != "_" {
			t.Fatalf("sanitize(%q) = %q, want %q", name, got, "_")
		}
	}
}

func TestSanitizePathPreservesSeparators(t *testing.T) {
	got := sanitizePath(filepath.Join("home", "us\x00er", "file.txt"))
	want := filepath.Join("home", "us_er", "file.txt")
	if got != want {
		t.Fatalf("sanitizePath = %q, want %q", got, want)
	}
}

func TestUniquePathAvoidsCollision(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "note.txt"), []byte("x"), 0o644); err != nil {
		t.Fatalf("seed file: %v", err)
	}
	got := uniquePath(dir, "note.txt")
	want := filepath.Join(dir, "note (1).txt")
	if got != want {
		t.Fatalf("uniquePath = %q, want %q", got, want)
	}
}

func TestUniquePathReturnsAsIsWhenFree(t *testing.T) {
	dir := t.TempDir()
	got := uniquePath(dir, "fresh.txt")
	want := filepath.Join(dir, "fresh.txt")
	if got != want {
		t.Fatalf("uniquePath = %q, want %q", got, want)
	}
}

func TestCreateFileWritesIntoNewDir(t *testing.T) {
	root := t.TempDir()
	dir := filepath.Join(root, "nested", "dirs")
	f, path, err := createFile(dir, "hello.txt")
	if err != nil {
		t.Fatalf("createFile: %v", err)
	}
	defer f.Close()
	if path != filepath.Join(dir, "hello.txt") {
		t.Fatalf("path = %q, want %q", path, filepath.Join(dir, "hello.txt"))
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("file not created: %v", err)
	}
}

func TestCreateFileDedupesExisting(t *testing.T) {
	dir := t.TempDir()
	f1, path1, err := createFile(dir, "dup.txt")
	if err != nil {
		t.Fatalf("createFile 1: %v", err)
	}
	f1.Close()

	f2, path2, err := createFile(dir, "dup.txt")
	if err != nil {
		t.Fatalf("createFile 2: %v", err)
	}
	defer f2.Close()

	if path1 == path2 {
		t.Fatalf("expected distinct paths, got %q twice", path1)
	}
	if path2 != filepath.Join(dir, "dup (1).txt") {
		t.Fatalf("path2 = %q, want %q", path2, filepath.Join(dir, "dup (1).txt"))
	}
}
