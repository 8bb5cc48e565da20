//go:build linux

package fs

import (
	"fmt"
	"io/fs"
	"syscall"
	"time"
)

// FileTimes reports ctime as the creation time, the closest a Linux stat
// offers, and mtime as the modification time.
func (m *OSFilesystemManager) FileTimes(info fs.FileInfo) (time.Time, time.Time, error) {
	stat, ok := info.Sys().(*syscall.Stat_t)
	if !ok {
		return time.Time{}, time.Time{}, fmt.Errorf("cannot extract stat data: expected *syscall.Stat_t, got %T", info.Sys())
	}
	return time.Unix(stat.Ctim.Sec, stat.Ctim.Nsec), info.ModTime(), nil
}
