package fileutil

import (
	"os"
	"path/filepath"
	"testing"
)

func TestMoveFile(t *testing.T) {
	srcDir := t.TempDir()
	destDir := filepath.Join(t.TempDir(), "dest")

	src := filepath.Join(srcDir, "photo.jpg")
	if err := os.WriteFile(src, []byte("data"), 0644); err != nil {
		t.Fatal(err)
	}

	if err := MoveFile(src, destDir); err != nil {
		t.Fatalf("MoveFile failed: %v", err)
	}

	if _, err := os.Stat(src); !os.IsNotExist(err) {
		t.Error("source file still exists")
	}
	moved, err := os.ReadFile(filepath.Join(destDir, "photo.jpg"))
	if err != nil {
		t.Fatalf("moved file missing: %v", err)
	}
	if string(moved) != "data" {
		t.Error("moved file content mismatch")
	}
}

func TestMoveFile_NameCollision(t *testing.T) {
	srcDir := t.TempDir()
	destDir := t.TempDir()

	// Occupy the destination name.
	if err := os.WriteFile(filepath.Join(destDir, "photo.jpg"), []byte("old"), 0644); err != nil {
		t.Fatal(err)
	}

	src := filepath.Join(srcDir, "photo.jpg")
	os.WriteFile(src, []byte("new"), 0644)

	if err := MoveFile(src, destDir); err != nil {
		t.Fatalf("MoveFile failed: %v", err)
	}

	renamed, err := os.ReadFile(filepath.Join(destDir, "photo_1.jpg"))
	if err != nil {
		t.Fatalf("collision copy missing: %v", err)
	}
	if string(renamed) != "new" {
		t.Error("collision copy content mismatch")
	}

	original, _ := os.ReadFile(filepath.Join(destDir, "photo.jpg"))
	if string(original) != "old" {
		t.Error("existing file was overwritten")
	}
}

func TestFindUniqueName(t *testing.T) {
	taken := map[string]bool{
		"a.jpg":   true,
		"a_1.jpg": true,
	}
	isAvailable := func(name string) bool { return !taken[name] }

	if got := findUniqueName("a.jpg", isAvailable); got != "a_2.jpg" {
		t.Errorf("findUniqueName = %q, want a_2.jpg", got)
	}
	if got := findUniqueName("free.png", isAvailable); got != "free.png" {
		t.Errorf("findUniqueName = %q, want free.png", got)
	}
}
