package fitlog

import "io"

// Vault stores encrypted snapshots of the archive database off-machine.
type Vault interface {
	// PutSnapshot stores a snapshot for the library, tagged with version.
	PutSnapshot(libraryID string, r io.Reader, size int64, version int64) error

	// GetSnapshot writes the latest snapshot to w.
	GetSnapshot(libraryID string, w io.Writer) error

	// SnapshotVersion returns the version of the latest snapshot,
	// or 0 when none exists.
	SnapshotVersion(libraryID string) (int64, error)

	// ValidateSetup checks that the vault is reachable and writable.
	ValidateSetup() error
}
