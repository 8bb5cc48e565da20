package fitlog

import "io/fs"

// Path is a resolved filesystem path with the stat info captured at
// resolution time. FilesystemManager implementations create them.
type Path struct {
	absPath string
	isDir   bool
	info    fs.FileInfo
}

func NewPath(absPath string, isDir bool, info fs.FileInfo) *Path {
	return &Path{
		absPath: absPath,
		isDir:   isDir,
		info:    info,
	}
}

// String returns the absolute path.
func (p *Path) String() string {
	return p.absPath
}

func (p *Path) IsDir() bool {
	return p.isDir
}

// Info returns the cached file info.
func (p *Path) Info() fs.FileInfo {
	return p.info
}
