package fs

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatalf("creating dir: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("writing file: %v", err)
	}
}

func TestOSFilesystemManager_Resolve(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "GARMIN", "DEVICE.FIT"), "marker")
	m := NewOSFilesystemManager(nil)

	t.Run("directory", func(t *testing.T) {
		p, err := m.Resolve(dir)
		if err != nil {
			t.Fatalf("Resolve() error = %v", err)
		}
		if !p.IsDir() {
			t.Error("expected a directory")
		}
	})

	t.Run("file", func(t *testing.T) {
		p, err := m.Resolve(filepath.Join(dir, "GARMIN", "DEVICE.FIT"))
		if err != nil {
			t.Fatalf("Resolve() error = %v", err)
		}
		if p.IsDir() {
			t.Error("expected a regular file")
		}
		if p.Info().Size() != 6 {
			t.Errorf("Size() = %d, want 6", p.Info().Size())
		}
	})

	t.Run("missing", func(t *testing.T) {
		if _, err := m.Resolve(filepath.Join(dir, "nope")); err == nil {
			t.Error("expected error for missing path")
		}
	})
}

func TestOSFilesystemManager_FindFiles(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "ACTIVITY", "B.FIT"), "b")
	writeFile(t, filepath.Join(dir, "ACTIVITY", "A.FIT"), "a")
	writeFile(t, filepath.Join(dir, "ACTIVITY", ".DS_Store"), "x")
	writeFile(t, filepath.Join(dir, "DEVICE.FIT"), "d")
	writeFile(t, filepath.Join(dir, "NEWFILES", "COURSE.FIT"), "c")

	m := NewOSFilesystemManager([]string{"NEWFILES"})
	root, err := m.Resolve(dir)
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}

	paths, skipped, err := m.FindFiles(root)
	if err != nil {
		t.Fatalf("FindFiles() error = %v", err)
	}
	if len(skipped) != 0 {
		t.Errorf("FindFiles() skipped = %v, want none", skipped)
	}

	var got []string
	for _, p := range paths {
		rel, _ := filepath.Rel(dir, p.String())
		got = append(got, filepath.ToSlash(rel))
	}
	want := []string{"ACTIVITY/A.FIT", "ACTIVITY/B.FIT", "DEVICE.FIT"}
	if len(got) != len(want) {
		t.Fatalf("FindFiles() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("FindFiles()[%d] = %s, want %s", i, got[i], want[i])
		}
	}

	t.Run("rejects a file root", func(t *testing.T) {
		if _, _, err := m.FindFiles(paths[0]); err == nil {
			t.Error("expected error for file root")
		}
	})
}

func TestOSFilesystemManager_FindFilesSkipsUnreadable(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "GOOD", "A.FIT"), "a")
	writeFile(t, filepath.Join(dir, "LOCKED", "B.FIT"), "b")
	locked := filepath.Join(dir, "LOCKED")
	if err := os.Chmod(locked, 0); err != nil {
		t.Fatalf("Chmod() error = %v", err)
	}
	t.Cleanup(func() { os.Chmod(locked, 0755) })
	if _, err := os.ReadDir(locked); err == nil {
		t.Skip("directory permissions are not enforced for this user")
	}

	m := NewOSFilesystemManager(nil)
	root, err := m.Resolve(dir)
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}

	paths, skipped, err := m.FindFiles(root)
	if err != nil {
		t.Fatalf("FindFiles() error = %v", err)
	}
	if len(paths) != 1 || filepath.Base(paths[0].String()) != "A.FIT" {
		t.Errorf("FindFiles() paths = %v, want [GOOD/A.FIT]", paths)
	}
	if len(skipped) != 1 || skipped[0] != "LOCKED" {
		t.Errorf("FindFiles() skipped = %v, want [LOCKED]", skipped)
	}
}

func TestOSFilesystemManager_ReadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "A.FIT")
	writeFile(t, path, "payload")
	m := NewOSFilesystemManager(nil)

	p, err := m.Resolve(path)
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	data, err := m.ReadFile(p)
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	if string(data) != "payload" {
		t.Errorf("ReadFile() = %q, want payload", data)
	}

	root, _ := m.Resolve(dir)
	if _, err := m.ReadFile(root); err == nil {
		t.Error("expected error reading a directory")
	}
}

func TestOSFilesystemManager_FileTimes(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "A.FIT")
	writeFile(t, path, "payload")
	mtime := time.Date(2024, 6, 2, 6, 0, 0, 0, time.UTC)
	if err := os.Chtimes(path, mtime, mtime); err != nil {
		t.Fatalf("Chtimes() error = %v", err)
	}

	m := NewOSFilesystemManager(nil)
	p, err := m.Resolve(path)
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	created, modified, err := m.FileTimes(p.Info())
	if err != nil {
		t.Fatalf("FileTimes() error = %v", err)
	}
	if !modified.Equal(mtime) {
		t.Errorf("modified = %v, want %v", modified, mtime)
	}
	if created.IsZero() {
		t.Error("created should be set")
	}
}
