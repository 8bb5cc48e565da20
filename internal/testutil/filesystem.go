package testutil

import (
	"fmt"
	"io/fs"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"fitlog/internal/fitlog"
)

// MockFile represents a file in the mock filesystem.
type MockFile struct {
	Content     []byte
	Permissions fs.FileMode
	ModTime     time.Time
	IsDirectory bool
	// Ctime is reported as the creation time.
	Ctime time.Time
	// ReadErr makes ReadFile fail for this file.
	ReadErr error
	// WalkErr makes FindFiles report this entry as skipped. For a
	// directory, nothing below it is listed.
	WalkErr error
}

// MockFilesystemManager is an in-memory filesystem for testing.
type MockFilesystemManager struct {
	files map[string]*MockFile
}

// NewMockFilesystemManager creates a new mock filesystem.
func NewMockFilesystemManager() *MockFilesystemManager {
	return &MockFilesystemManager{
		files: make(map[string]*MockFile),
	}
}

// AddFile adds a file to the mock filesystem. Parent directories are
// created as needed.
func (m *MockFilesystemManager) AddFile(path string, content []byte) *MockFile {
	now := time.Now()
	return m.AddFileWithTimes(path, content, now, now)
}

// AddFileWithTimes adds a file with explicit creation and modification times.
func (m *MockFilesystemManager) AddFileWithTimes(path string, content []byte, ctime, mtime time.Time) *MockFile {
	file := &MockFile{
		Content:     content,
		Permissions: 0644,
		ModTime:     mtime,
		Ctime:       ctime,
	}
	m.files[path] = file
	for dir := filepath.Dir(path); dir != "/" && dir != "."; dir = filepath.Dir(dir) {
		if _, ok := m.files[dir]; !ok {
			m.AddDirectory(dir)
		}
	}
	return file
}

// AddDirectory adds a directory to the mock filesystem.
func (m *MockFilesystemManager) AddDirectory(path string) *MockFile {
	now := time.Now()
	dir := &MockFile{
		Permissions: 0755,
		ModTime:     now,
		IsDirectory: true,
		Ctime:       now,
	}
	m.files[path] = dir
	return dir
}

// Remove deletes a file or directory entry.
func (m *MockFilesystemManager) Remove(path string) {
	delete(m.files, path)
}

func (m *MockFilesystemManager) Resolve(rawPath string) (*fitlog.Path, error) {
	absPath, err := filepath.Abs(rawPath)
	if err != nil {
		return nil, err
	}

	file, ok := m.files[absPath]
	if !ok {
		return nil, fmt.Errorf("file not found: %s", absPath)
	}

	return fitlog.NewPath(absPath, file.IsDirectory, m.info(absPath, file)), nil
}

func (m *MockFilesystemManager) FindFiles(root *fitlog.Path) ([]*fitlog.Path, []string, error) {
	rootFile, ok := m.files[root.String()]
	if !ok {
		return nil, nil, fmt.Errorf("directory not found: %s", root.String())
	}
	if rootFile.WalkErr != nil {
		return nil, nil, rootFile.WalkErr
	}

	prefix := root.String() + "/"
	var unreadable []string
	for p, file := range m.files {
		if file.WalkErr != nil && strings.HasPrefix(p, prefix) {
			unreadable = append(unreadable, p)
		}
	}
	slices.Sort(unreadable)

	var paths []string
	for p, file := range m.files {
		if file.IsDirectory || file.WalkErr != nil || !strings.HasPrefix(p, prefix) {
			continue
		}
		if slices.ContainsFunc(unreadable, func(u string) bool { return strings.HasPrefix(p, u+"/") }) {
			continue
		}
		paths = append(paths, p)
	}
	slices.Sort(paths)

	var skipped []string
	for _, u := range unreadable {
		if slices.ContainsFunc(unreadable, func(o string) bool { return strings.HasPrefix(u, o+"/") }) {
			continue
		}
		skipped = append(skipped, strings.TrimPrefix(u, prefix))
	}

	result := make([]*fitlog.Path, len(paths))
	for i, p := range paths {
		result[i] = fitlog.NewPath(p, false, m.info(p, m.files[p]))
	}
	return result, skipped, nil
}

func (m *MockFilesystemManager) ReadFile(path *fitlog.Path) ([]byte, error) {
	file, ok := m.files[path.String()]
	if !ok {
		return nil, fmt.Errorf("file not found: %s", path.String())
	}
	if file.IsDirectory {
		return nil, fmt.Errorf("cannot read directory: %s", path.String())
	}
	if file.ReadErr != nil {
		return nil, file.ReadErr
	}
	return file.Content, nil
}

func (m *MockFilesystemManager) FileTimes(info fs.FileInfo) (time.Time, time.Time, error) {
	mockFile, ok := info.Sys().(*MockFile)
	if !ok {
		return time.Time{}, time.Time{}, fmt.Errorf("cannot extract stat data: expected *MockFile, got %T", info.Sys())
	}
	return mockFile.Ctime, mockFile.ModTime, nil
}

func (m *MockFilesystemManager) info(absPath string, file *MockFile) *mockFileInfo {
	return &mockFileInfo{
		name:     filepath.Base(absPath),
		size:     int64(len(file.Content)),
		mode:     file.Permissions,
		modTime:  file.ModTime,
		isDir:    file.IsDirectory,
		mockFile: file,
	}
}

// mockFileInfo implements fs.FileInfo
type mockFileInfo struct {
	name     string
	size     int64
	mode     fs.FileMode
	modTime  time.Time
	isDir    bool
	mockFile *MockFile // reference to get stat data
}

func (m *mockFileInfo) Name() string       { return m.name }
func (m *mockFileInfo) Size() int64        { return m.size }
func (m *mockFileInfo) Mode() fs.FileMode  { return m.mode }
func (m *mockFileInfo) ModTime() time.Time { return m.modTime }
func (m *mockFileInfo) IsDir() bool        { return m.isDir }
func (m *mockFileInfo) Sys() any           { return m.mockFile }

// Compile-time check
var _ fitlog.FilesystemManager = (*MockFilesystemManager)(nil)
