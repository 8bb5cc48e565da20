// Package vault stores snapshots of the archive database away from the
// machine that ingests device files.
package vault

import "errors"

// ErrNoSnapshot is returned by GetSnapshot when nothing has been stored for
// the library yet.
var ErrNoSnapshot = errors.New("no snapshot in vault")
