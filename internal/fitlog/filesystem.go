package fitlog

import (
	"io/fs"
	"time"
)

// FilesystemManager is the read-only view of the device tree used by discovery.
type FilesystemManager interface {
	// Resolve makes rawPath absolute, stats it and rejects anything that is
	// neither a regular file nor a directory.
	Resolve(rawPath string) (*Path, error)

	// FindFiles returns every regular file below root, recursively, in
	// lexical order. Configured ignore patterns are applied relative to root.
	// Entries below root that cannot be read are returned in skipped as
	// slash-separated paths relative to root; only an unreadable root is an
	// error.
	FindFiles(root *Path) (paths []*Path, skipped []string, err error)

	// ReadFile returns the full content of a regular file.
	ReadFile(path *Path) ([]byte, error)

	// FileTimes extracts the source-reported creation (ctime) and
	// modification times.
	FileTimes(info fs.FileInfo) (created time.Time, modified time.Time, err error)
}
