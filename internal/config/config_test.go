package config

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestManager_ReadWrite_RoundTrip(t *testing.T) {
	original := &Config{
		LibraryID: "library-abc",
		BaseDir:   "/home/user/.local/share/fitlog",
		LogDir:    "/home/user/.local/share/fitlog/log",
		Device: DeviceConfig{
			Root:   "/home/user/.local/share/fitlog/device",
			Suffix: ".fit",
			Ignore: []string{"*.BAK", "NEWFILES"},
		},
		Transport: TransportConfig{Type: "rsync", Source: "/media/watch", Args: []string{"--delete"}},
		Vaults: []VaultConfig{
			{Type: "filesystem", Name: "local", FSVaultRoot: "/backup/vault"},
			{Type: "s3", Name: "offsite", S3Bucket: "snapshots", S3Region: "eu-west-1"},
		},
		Encryption: EncryptionConfig{
			Type:           "age",
			PublicKeyPath:  "/home/user/.local/share/fitlog/keys/fitlog.pub",
			PrivateKeyPath: "/home/user/.local/share/fitlog/keys/fitlog.key",
		},
		Database: DatabaseConfig{Type: "sqlite", DataDir: "/home/user/.local/share/fitlog/db"},
		Views: []ViewConfig{{
			Name:               "course",
			DesignatingType:    "file_id",
			DiscriminatorField: "type",
			DiscriminatorValue: "course",
			Contributing:       []string{"file_id", "course"},
		}},
	}

	var buf bytes.Buffer
	m := &Manager{}

	if err := m.Write(&buf, original); err != nil {
		t.Fatalf("Write() error = %v", err)
	}

	got, err := m.Read(&buf)
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}

	if got.LibraryID != original.LibraryID {
		t.Errorf("LibraryID = %q, want %q", got.LibraryID, original.LibraryID)
	}
	if got.BaseDir != original.BaseDir {
		t.Errorf("BaseDir = %q, want %q", got.BaseDir, original.BaseDir)
	}
	if got.Device.Root != original.Device.Root {
		t.Errorf("Device.Root = %q, want %q", got.Device.Root, original.Device.Root)
	}
	if len(got.Device.Ignore) != 2 {
		t.Errorf("len(Device.Ignore) = %d, want 2", len(got.Device.Ignore))
	}
	if got.Transport.Type != "rsync" || got.Transport.Source != "/media/watch" {
		t.Errorf("Transport = %+v, want rsync from /media/watch", got.Transport)
	}
	if len(got.Vaults) != 2 {
		t.Fatalf("len(Vaults) = %d, want 2", len(got.Vaults))
	}
	if got.Vaults[0].FSVaultRoot != "/backup/vault" {
		t.Errorf("Vault.FSVaultRoot = %q, want %q", got.Vaults[0].FSVaultRoot, "/backup/vault")
	}
	if got.Vaults[1].S3Bucket != "snapshots" {
		t.Errorf("Vault.S3Bucket = %q, want %q", got.Vaults[1].S3Bucket, "snapshots")
	}
	if got.Encryption.PrivateKeyPath != original.Encryption.PrivateKeyPath {
		t.Errorf("Encryption.PrivateKeyPath = %q, want %q", got.Encryption.PrivateKeyPath, original.Encryption.PrivateKeyPath)
	}
	if got.Database.Type != "sqlite" {
		t.Errorf("Database.Type = %q, want %q", got.Database.Type, "sqlite")
	}
	if len(got.Views) != 1 || got.Views[0].DiscriminatorValue != "course" || len(got.Views[0].Contributing) != 2 {
		t.Errorf("Views = %+v, want one course view", got.Views)
	}
}

func TestManager_Read_HandWritten(t *testing.T) {
	input := `
library_id = "lib-1"
base_dir = "/data/fitlog"

[device]
root = "/media/watch"

[database]
type = "memory"

[[views]]
name = "course"
designating_type = "file_id"
discriminator_field = "type"
discriminator_value = "course"
contributing = ["file_id", "course", "record"]
`
	m := &Manager{}
	cfg, err := m.Read(strings.NewReader(input))
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	if cfg.Device.Root != "/media/watch" {
		t.Errorf("Device.Root = %q, want /media/watch", cfg.Device.Root)
	}
	if cfg.Device.Subdir != "" {
		t.Errorf("Device.Subdir = %q, want empty", cfg.Device.Subdir)
	}
	if len(cfg.Views) != 1 || len(cfg.Views[0].Contributing) != 3 {
		t.Errorf("Views = %+v, want one view with three contributing types", cfg.Views)
	}

	if _, err := m.Read(strings.NewReader("library_id = ")); err == nil {
		t.Error("Read() expected error for invalid TOML")
	}
}

func TestNewConfig(t *testing.T) {
	cfg := NewConfig("lib-1", "/data/fitlog")

	if cfg.LibraryID != "lib-1" {
		t.Errorf("LibraryID = %q, want %q", cfg.LibraryID, "lib-1")
	}
	if cfg.LogDir != "/data/fitlog/log" {
		t.Errorf("LogDir = %q, want %q", cfg.LogDir, "/data/fitlog/log")
	}
	if cfg.Device.Root != "/data/fitlog/device" {
		t.Errorf("Device.Root = %q, want %q", cfg.Device.Root, "/data/fitlog/device")
	}
	if cfg.Transport.Type != "none" {
		t.Errorf("Transport.Type = %q, want none", cfg.Transport.Type)
	}
	if cfg.Database.DataDir != "/data/fitlog/db" {
		t.Errorf("Database.DataDir = %q, want %q", cfg.Database.DataDir, "/data/fitlog/db")
	}
	if cfg.Encryption.PublicKeyPath != "/data/fitlog/keys/fitlog.pub" {
		t.Errorf("Encryption.PublicKeyPath = %q, want %q", cfg.Encryption.PublicKeyPath, "/data/fitlog/keys/fitlog.pub")
	}
	if cfg.Encryption.PrivateKeyPath != "/data/fitlog/keys/fitlog.key" {
		t.Errorf("Encryption.PrivateKeyPath = %q, want %q", cfg.Encryption.PrivateKeyPath, "/data/fitlog/keys/fitlog.key")
	}
}

func TestInit(t *testing.T) {
	t.Run("creates config file", func(t *testing.T) {
		dir := t.TempDir()
		path := filepath.Join(dir, "fitlog.toml")
		cfg := NewConfig("l1", dir)

		if err := Init(path, cfg); err != nil {
			t.Fatalf("Init() error = %v", err)
		}

		if _, err := os.Stat(path); err != nil {
			t.Fatalf("config file not created: %v", err)
		}
	})

	t.Run("fails if file already exists", func(t *testing.T) {
		dir := t.TempDir()
		path := filepath.Join(dir, "fitlog.toml")
		cfg := NewConfig("l1", dir)

		if err := Init(path, cfg); err != nil {
			t.Fatalf("first Init() error = %v", err)
		}

		if err := Init(path, cfg); err == nil {
			t.Fatal("second Init() expected error")
		}
	})
}

func TestReadFromFile(t *testing.T) {
	t.Run("reads valid config", func(t *testing.T) {
		dir := t.TempDir()
		path := filepath.Join(dir, "fitlog.toml")
		cfg := NewConfig("read-test", dir)
		cfg.Database = DatabaseConfig{Type: "memory"}

		if err := Init(path, cfg); err != nil {
			t.Fatalf("Init() error = %v", err)
		}

		got, err := ReadFromFile(path)
		if err != nil {
			t.Fatalf("ReadFromFile() error = %v", err)
		}
		if got.LibraryID != "read-test" {
			t.Errorf("LibraryID = %q, want %q", got.LibraryID, "read-test")
		}
		if got.Database.Type != "memory" {
			t.Errorf("Database.Type = %q, want memory", got.Database.Type)
		}
	})

	t.Run("returns error for missing file", func(t *testing.T) {
		if _, err := ReadFromFile("/nonexistent/path/fitlog.toml"); err == nil {
			t.Fatal("ReadFromFile() expected error for missing file")
		}
	})
}
