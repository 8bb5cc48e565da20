package vault

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"fitlog/internal/fitlog"
)

// vaultConstructors builds each implementation for the shared behaviour tests.
func vaultConstructors(t *testing.T) map[string]func() fitlog.Vault {
	t.Helper()
	return map[string]func() fitlog.Vault{
		"memory": func() fitlog.Vault { return NewMemoryVault("test") },
		"filesystem": func() fitlog.Vault {
			v, err := NewFileSystemVault("test", t.TempDir())
			if err != nil {
				t.Fatalf("NewFileSystemVault() error = %v", err)
			}
			return v
		},
		"s3": func() fitlog.Vault {
			return NewS3VaultWithClient("test", "bucket", "fitlog", newFakeS3())
		},
	}
}

func TestVault_SnapshotLifecycle(t *testing.T) {
	for name, newVault := range vaultConstructors(t) {
		t.Run(name, func(t *testing.T) {
			v := newVault()

			version, err := v.SnapshotVersion("lib-1")
			if err != nil {
				t.Fatalf("SnapshotVersion() error = %v", err)
			}
			if version != 0 {
				t.Errorf("SnapshotVersion() = %d before any put, want 0", version)
			}

			var buf bytes.Buffer
			if err := v.GetSnapshot("lib-1", &buf); !errors.Is(err, ErrNoSnapshot) {
				t.Errorf("GetSnapshot() error = %v, want ErrNoSnapshot", err)
			}

			if err := v.PutSnapshot("lib-1", strings.NewReader("first"), 5, 3); err != nil {
				t.Fatalf("PutSnapshot() error = %v", err)
			}
			if err := v.PutSnapshot("lib-1", strings.NewReader("second"), 6, 7); err != nil {
				t.Fatalf("PutSnapshot() error = %v", err)
			}

			version, err = v.SnapshotVersion("lib-1")
			if err != nil {
				t.Fatalf("SnapshotVersion() error = %v", err)
			}
			if version != 7 {
				t.Errorf("SnapshotVersion() = %d, want 7", version)
			}

			buf.Reset()
			if err := v.GetSnapshot("lib-1", &buf); err != nil {
				t.Fatalf("GetSnapshot() error = %v", err)
			}
			if buf.String() != "second" {
				t.Errorf("GetSnapshot() = %q, want %q", buf.String(), "second")
			}

			if version, _ := v.SnapshotVersion("lib-2"); version != 0 {
				t.Errorf("SnapshotVersion(lib-2) = %d, want 0", version)
			}
		})
	}
}

func TestVault_SizeMismatch(t *testing.T) {
	for name, newVault := range vaultConstructors(t) {
		t.Run(name, func(t *testing.T) {
			v := newVault()
			if err := v.PutSnapshot("lib-1", strings.NewReader("short"), 100, 1); err == nil {
				t.Error("PutSnapshot() expected size mismatch error")
			}
		})
	}
}

func TestFileSystemVault_FailedPutKeepsPrevious(t *testing.T) {
	v, err := NewFileSystemVault("test", t.TempDir())
	if err != nil {
		t.Fatalf("NewFileSystemVault() error = %v", err)
	}
	if err := v.PutSnapshot("lib-1", strings.NewReader("good"), 4, 1); err != nil {
		t.Fatalf("PutSnapshot() error = %v", err)
	}
	if err := v.PutSnapshot("lib-1", strings.NewReader("bad"), 99, 2); err == nil {
		t.Fatal("PutSnapshot() expected error")
	}

	var buf bytes.Buffer
	if err := v.GetSnapshot("lib-1", &buf); err != nil {
		t.Fatalf("GetSnapshot() error = %v", err)
	}
	if buf.String() != "good" {
		t.Errorf("GetSnapshot() = %q, want previous snapshot", buf.String())
	}
	if version, _ := v.SnapshotVersion("lib-1"); version != 1 {
		t.Errorf("SnapshotVersion() = %d, want 1", version)
	}
	if err := v.ValidateSetup(); err != nil {
		t.Errorf("ValidateSetup() error = %v", err)
	}
}

func TestS3Vault_ObjectLayout(t *testing.T) {
	fake := newFakeS3()
	v := NewS3VaultWithClient("offsite", "bucket", "backups", fake)

	if err := v.PutSnapshot("lib-1", strings.NewReader("data"), 4, 12); err != nil {
		t.Fatalf("PutSnapshot() error = %v", err)
	}
	obj, ok := fake.objects["bucket/backups/snapshots/lib-1.snapshot"]
	if !ok {
		t.Fatalf("object keys = %v, want backups/snapshots/lib-1.snapshot", fake.keys())
	}
	if obj.metadata[versionMetadataKey] != "12" {
		t.Errorf("version metadata = %q, want 12", obj.metadata[versionMetadataKey])
	}

	if err := v.ValidateSetup(); err != nil {
		t.Errorf("ValidateSetup() error = %v", err)
	}
	if err := NewS3VaultWithClient("offsite", "missing", "", fake).ValidateSetup(); err == nil {
		t.Error("ValidateSetup() expected error for missing bucket")
	}
}
