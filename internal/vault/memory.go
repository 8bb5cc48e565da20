package vault

import (
	"bytes"
	"fmt"
	"io"
	"sync"

	"fitlog/internal/fitlog"
)

type memorySnapshot struct {
	data    []byte
	version int64
}

// MemoryVault keeps snapshots in memory. It is used by tests and by
// `type = "memory"` configurations. Safe for concurrent use.
type MemoryVault struct {
	name      string
	snapshots map[string]memorySnapshot // libraryID -> latest snapshot
	mu        sync.RWMutex
}

// NewMemoryVault creates a new in-memory vault with the given name.
func NewMemoryVault(name string) *MemoryVault {
	return &MemoryVault{
		name:      name,
		snapshots: make(map[string]memorySnapshot),
	}
}

// PutSnapshot replaces the library's snapshot.
func (m *MemoryVault) PutSnapshot(libraryID string, r io.Reader, size int64, version int64) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return fmt.Errorf("failed to read snapshot: %w", err)
	}
	if int64(len(data)) != size {
		return fmt.Errorf("size mismatch: expected %d bytes, got %d", size, len(data))
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.snapshots[libraryID] = memorySnapshot{data: data, version: version}
	return nil
}

// GetSnapshot writes the library's snapshot to w.
func (m *MemoryVault) GetSnapshot(libraryID string, w io.Writer) error {
	m.mu.RLock()
	defer m.mu.RUnlock()

	snap, ok := m.snapshots[libraryID]
	if !ok {
		return fmt.Errorf("library %s: %w", libraryID, ErrNoSnapshot)
	}
	if _, err := io.Copy(w, bytes.NewReader(snap.data)); err != nil {
		return fmt.Errorf("failed to write snapshot: %w", err)
	}
	return nil
}

// SnapshotVersion returns 0 if no snapshot has been stored.
func (m *MemoryVault) SnapshotVersion(libraryID string) (int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.snapshots[libraryID].version, nil
}

// ValidateSetup always succeeds for in-memory vault.
func (m *MemoryVault) ValidateSetup() error {
	return nil
}

var _ fitlog.Vault = (*MemoryVault)(nil)
