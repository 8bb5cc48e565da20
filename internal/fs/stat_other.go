//go:build !linux

package fs

import (
	"io/fs"
	"time"
)

// FileTimes falls back to mtime for both times where ctime is not read.
func (m *OSFilesystemManager) FileTimes(info fs.FileInfo) (time.Time, time.Time, error) {
	return info.ModTime(), info.ModTime(), nil
}
