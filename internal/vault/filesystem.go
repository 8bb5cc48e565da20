package vault

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"fitlog/internal/fitlog"
)

// FileSystemVault stores snapshots as files, typically on a mounted backup
// disk:
//
//	<root>/
//	  snapshots/
//	    <libraryID>.snapshot   (latest snapshot, possibly encrypted)
//	    <libraryID>.version    (run id that produced it)
type FileSystemVault struct {
	name        string
	root        string
	snapshotDir string
}

// NewFileSystemVault creates a new filesystem vault rooted at the given path.
func NewFileSystemVault(name, root string) (*FileSystemVault, error) {
	snapshotDir := filepath.Join(root, "snapshots")
	if err := os.MkdirAll(snapshotDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create snapshot directory: %w", err)
	}

	return &FileSystemVault{
		name:        name,
		root:        root,
		snapshotDir: snapshotDir,
	}, nil
}

// PutSnapshot replaces the library's snapshot, then records its version.
// A reader never sees a version newer than the snapshot beside it.
func (v *FileSystemVault) PutSnapshot(libraryID string, r io.Reader, size int64, version int64) error {
	if err := v.writeFile(v.snapshotPath(libraryID), r, size); err != nil {
		return err
	}
	versionData := strconv.FormatInt(version, 10)
	if err := v.writeFile(v.versionPath(libraryID), strings.NewReader(versionData), int64(len(versionData))); err != nil {
		return fmt.Errorf("writing version: %w", err)
	}
	return nil
}

// GetSnapshot writes the library's snapshot to w.
func (v *FileSystemVault) GetSnapshot(libraryID string, w io.Writer) error {
	f, err := os.Open(v.snapshotPath(libraryID))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("library %s: %w", libraryID, ErrNoSnapshot)
		}
		return fmt.Errorf("failed to open snapshot: %w", err)
	}
	defer f.Close()

	if _, err := io.Copy(w, f); err != nil {
		return fmt.Errorf("failed to read snapshot: %w", err)
	}
	return nil
}

// SnapshotVersion returns 0 if no version file exists.
func (v *FileSystemVault) SnapshotVersion(libraryID string) (int64, error) {
	data, err := os.ReadFile(v.versionPath(libraryID))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return 0, nil
		}
		return 0, fmt.Errorf("reading version file: %w", err)
	}

	version, err := strconv.ParseInt(strings.TrimSpace(string(data)), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parsing version: %w", err)
	}
	return version, nil
}

// ValidateSetup verifies that the snapshot directory is accessible.
func (v *FileSystemVault) ValidateSetup() error {
	for _, dir := range []string{v.root, v.snapshotDir} {
		info, err := os.Stat(dir)
		if err != nil {
			return fmt.Errorf("vault directory not accessible: %w", err)
		}
		if !info.IsDir() {
			return fmt.Errorf("vault path is not a directory: %s", dir)
		}
	}
	return nil
}

func (v *FileSystemVault) snapshotPath(libraryID string) string {
	return filepath.Join(v.snapshotDir, libraryID+".snapshot")
}

func (v *FileSystemVault) versionPath(libraryID string) string {
	return filepath.Join(v.snapshotDir, libraryID+".version")
}

// writeFile writes r to destPath through a temp file and rename.
func (v *FileSystemVault) writeFile(destPath string, r io.Reader, expectedSize int64) error {
	tmpFile, err := os.CreateTemp(filepath.Dir(destPath), ".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmpFile.Name()

	success := false
	defer func() {
		if !success {
			os.Remove(tmpPath)
		}
	}()

	written, err := io.Copy(tmpFile, r)
	if err != nil {
		tmpFile.Close()
		return fmt.Errorf("failed to write data: %w", err)
	}
	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if written != expectedSize {
		return fmt.Errorf("size mismatch: expected %d bytes, got %d", expectedSize, written)
	}

	if err := os.Rename(tmpPath, destPath); err != nil {
		return fmt.Errorf("failed to rename temp file: %w", err)
	}

	success = true
	return nil
}

var _ fitlog.Vault = (*FileSystemVault)(nil)
