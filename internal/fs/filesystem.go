package fs

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"fitlog/internal/fitlog"
)

// OSFilesystemManager is the real filesystem implementation of FilesystemManager.
// It only ever reads from the device tree.
type OSFilesystemManager struct {
	ignore *IgnoreMatcher
}

// NewOSFilesystemManager creates a filesystem manager that skips files
// matching ignorePatterns during discovery.
func NewOSFilesystemManager(ignorePatterns []string) *OSFilesystemManager {
	return &OSFilesystemManager{ignore: NewIgnoreMatcher(ignorePatterns)}
}

// Resolve validates a raw path and returns a Path object.
func (m *OSFilesystemManager) Resolve(rawPath string) (*fitlog.Path, error) {
	absPath, err := filepath.Abs(rawPath)
	if err != nil {
		return nil, fmt.Errorf("resolving absolute path: %w", err)
	}

	info, err := os.Stat(absPath)
	if err != nil {
		return nil, fmt.Errorf("stat path: %w", err)
	}

	mode := info.Mode()
	if !mode.IsRegular() && !mode.IsDir() {
		return nil, fmt.Errorf("unsupported file type %s: %s", mode.Type(), absPath)
	}

	return fitlog.NewPath(absPath, info.IsDir(), info), nil
}

// FindFiles walks root recursively and returns its regular files in
// lexical order, leaving out ignored paths. Ignored directories are not
// descended into. Entries that cannot be read are reported in skipped,
// relative to root with forward slashes, and the walk continues; only an
// unreadable root fails.
func (m *OSFilesystemManager) FindFiles(root *fitlog.Path) ([]*fitlog.Path, []string, error) {
	if !root.IsDir() {
		return nil, nil, fmt.Errorf("path is not a directory: %s", root.String())
	}

	var (
		paths   []*fitlog.Path
		skipped []string
	)
	skip := func(p string, d fs.DirEntry) error {
		rel, err := filepath.Rel(root.String(), p)
		if err != nil {
			return err
		}
		skipped = append(skipped, filepath.ToSlash(rel))
		if d != nil && d.IsDir() {
			return filepath.SkipDir
		}
		return nil
	}

	err := filepath.WalkDir(root.String(), func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			if p == root.String() {
				return err
			}
			return skip(p, d)
		}
		if p == root.String() {
			return nil
		}

		rel, err := filepath.Rel(root.String(), p)
		if err != nil {
			return err
		}
		if m.ignore.Match(rel, d.IsDir()) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		if d.IsDir() || !d.Type().IsRegular() {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return skip(p, d)
		}
		paths = append(paths, fitlog.NewPath(p, false, info))
		return nil
	})
	if err != nil {
		return nil, nil, fmt.Errorf("walking directory: %w", err)
	}

	return paths, skipped, nil
}

// ReadFile reads a whole file; device files are small.
func (m *OSFilesystemManager) ReadFile(path *fitlog.Path) ([]byte, error) {
	if path.IsDir() {
		return nil, fmt.Errorf("cannot read directory as file: %s", path.String())
	}
	return os.ReadFile(path.String())
}

// Compile-time check that OSFilesystemManager implements fitlog.FilesystemManager interface
var _ fitlog.FilesystemManager = (*OSFilesystemManager)(nil)
