package app

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"fitlog/internal/config"
	"fitlog/internal/database"
	"fitlog/internal/fitlog"
	"fitlog/internal/testutil"
	"fitlog/internal/vault"
)

const libraryID = "lib-test"

var t0 = time.Date(2024, 6, 2, 6, 0, 0, 0, time.UTC)

// newTestConfig lays out a library in a temp dir with a sqlite database,
// a filesystem vault and a device tree holding two files.
func newTestConfig(t *testing.T) *config.Config {
	t.Helper()
	base := t.TempDir()
	cfg := config.NewConfig(libraryID, base)
	cfg.Encryption = config.EncryptionConfig{Type: "test"}
	cfg.Vaults = []config.VaultConfig{{Type: "filesystem", Name: "local", FSVaultRoot: filepath.Join(base, "vault")}}

	writeDeviceFile(t, cfg, "GARMIN/DEVICE.FIT", "device-marker")
	writeDeviceFile(t, cfg, "GARMIN/ACTIVITY/A.FIT", "activity-a")

	if err := MigrateDatabase(cfg); err != nil {
		t.Fatalf("MigrateDatabase() error = %v", err)
	}
	return cfg
}

func writeDeviceFile(t *testing.T, cfg *config.Config, rel, content string) {
	t.Helper()
	path := filepath.Join(cfg.Device.Root, filepath.FromSlash(rel))
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatalf("creating dir: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("writing %s: %v", rel, err)
	}
}

func stubDecoder() *testutil.StubDecoder {
	dec := testutil.NewStubDecoder()
	dec.RegisterMessages([]byte("device-marker"),
		testutil.Msg("file_id", "type", "device", "manufacturer", "garmin", "serial_number", uint32(3998877665)),
	)
	dec.RegisterMessages([]byte("activity-a"),
		testutil.Msg("file_id", "type", "activity", "manufacturer", "garmin", "serial_number", uint32(3998877665), "time_created", t0),
		testutil.Msg("sport", "sport", "running"),
		testutil.Msg("record", "timestamp", t0.Add(time.Minute), "position_lat", int32(1<<30), "position_long", int32(-(1 << 29))),
		testutil.Msg("record", "timestamp", t0, "position_lat", int32(0), "position_long", int32(0)),
	)
	return dec
}

func openTestApp(t *testing.T, cfg *config.Config, operation string) *App {
	t.Helper()
	a, err := newApp(cfg, operation, stubDecoder(), fitlog.NewNopLogger())
	if err != nil {
		t.Fatalf("newApp() error = %v", err)
	}
	return a
}

func vaultVersion(t *testing.T, cfg *config.Config) int64 {
	t.Helper()
	v, err := vault.NewFileSystemVault("check", cfg.Vaults[0].FSVaultRoot)
	if err != nil {
		t.Fatalf("NewFileSystemVault() error = %v", err)
	}
	version, err := v.SnapshotVersion(libraryID)
	if err != nil {
		t.Fatalf("SnapshotVersion() error = %v", err)
	}
	return version
}

func fileIDByName(t *testing.T, a *App, name string) int64 {
	t.Helper()
	files, err := a.ListFiles()
	if err != nil {
		t.Fatalf("ListFiles() error = %v", err)
	}
	for _, f := range files {
		if f.Name == name {
			return f.ID
		}
	}
	t.Fatalf("file %s not archived", name)
	return 0
}

func TestApp_SyncUploadsSnapshot(t *testing.T) {
	cfg := newTestConfig(t)

	a := openTestApp(t, cfg, "Sync")
	result, err := a.Sync(context.Background())
	if err != nil {
		t.Fatalf("Sync() error = %v", err)
	}
	if result.Discover.Added != 2 {
		t.Errorf("Discover.Added = %d, want 2", result.Discover.Added)
	}
	if len(result.Import.Imported) != 2 {
		t.Errorf("Import.Imported = %d files, want 2", len(result.Import.Imported))
	}
	if err := a.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	if got := vaultVersion(t, cfg); got != 1 {
		t.Errorf("vault snapshot version = %d, want 1", got)
	}

	reader := openTestApp(t, cfg, "History")
	runs, err := reader.GetHistory(10)
	if err != nil {
		t.Fatalf("GetHistory() error = %v", err)
	}
	if len(runs) != 1 {
		t.Fatalf("GetHistory() = %d runs, want 1", len(runs))
	}
	if runs[0].Operation != "Sync" || runs[0].Status != "success" || !runs[0].FinishedAt.Valid {
		t.Errorf("run = %+v, want finished successful Sync", runs[0])
	}
	if err := reader.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	if got := vaultVersion(t, cfg); got != 1 {
		t.Errorf("read-only run changed the vault version to %d", got)
	}
}

func TestApp_RefusesWhenBehindVault(t *testing.T) {
	cfg := newTestConfig(t)

	v, err := vault.NewFileSystemVault("local", cfg.Vaults[0].FSVaultRoot)
	if err != nil {
		t.Fatalf("NewFileSystemVault() error = %v", err)
	}
	if err := v.PutSnapshot(libraryID, strings.NewReader("x"), 1, 5); err != nil {
		t.Fatalf("PutSnapshot() error = %v", err)
	}

	_, err = newApp(cfg, "Sync", stubDecoder(), fitlog.NewNopLogger())
	if err == nil || !strings.Contains(err.Error(), "behind") {
		t.Errorf("newApp() error = %v, want local database is behind", err)
	}
}

func TestApp_RequiresMigratedDatabase(t *testing.T) {
	cfg := config.NewConfig(libraryID, t.TempDir())
	cfg.Encryption = config.EncryptionConfig{Type: "test"}

	if _, err := newApp(cfg, "Files", stubDecoder(), fitlog.NewNopLogger()); err == nil {
		t.Error("newApp() expected error for an unmigrated database")
	}
}

func TestApp_DiscoverImportExport(t *testing.T) {
	cfg := newTestConfig(t)
	a := openTestApp(t, cfg, "Discover")
	defer a.Close()

	discovered, err := a.Discover("")
	if err != nil {
		t.Fatalf("Discover() error = %v", err)
	}
	if discovered.Added != 2 || len(discovered.Failed) != 0 {
		t.Errorf("Discover() = %+v, want 2 added", discovered)
	}

	imported, err := a.Import()
	if err != nil {
		t.Fatalf("Import() error = %v", err)
	}
	if len(imported.Imported) != 2 || len(imported.Failed) != 0 {
		t.Fatalf("Import() = %+v, want 2 imported", imported)
	}
	if a.run.ID != 1 {
		t.Errorf("run id = %d, want one run for both operations", a.run.ID)
	}

	activityID := fileIDByName(t, a, "ACTIVITY/A.FIT")

	table, err := a.Export(activityID, "record", []string{"degrees"})
	if err != nil {
		t.Fatalf("Export() error = %v", err)
	}
	if len(table.Rows) != 2 {
		t.Fatalf("Export() = %d rows, want 2", len(table.Rows))
	}
	lat := table.Column("position_lat")
	if !lat[1].Equal(fitlog.FloatValue(90)) {
		t.Errorf("position_lat[1] = %s, want 90", lat[1])
	}
	long := table.Column("position_long")
	if !long[1].Equal(fitlog.FloatValue(-45)) {
		t.Errorf("position_long[1] = %s, want -45", long[1])
	}

	if _, err := a.Export(activityID, "record", []string{"furlongs"}); err == nil {
		t.Error("Export() expected error for unknown converter")
	}

	sport, err := a.SingleRecord(activityID, "sport")
	if err != nil {
		t.Fatalf("SingleRecord() error = %v", err)
	}
	if v, _ := sport.Payload.Get("sport"); v.String() != "running" {
		t.Errorf("sport = %s, want running", v)
	}
	if _, err := a.SingleRecord(activityID, "record"); !errors.Is(err, fitlog.ErrPrecondition) {
		t.Errorf("SingleRecord(record) error = %v, want ErrPrecondition", err)
	}

	all, err := a.RecordsByFile(activityID)
	if err != nil {
		t.Fatalf("RecordsByFile() error = %v", err)
	}
	if len(all) != 4 || all[0].Type != "file_id" || all[1].Type != "sport" {
		t.Errorf("RecordsByFile() = %d records, want file_id, sport and two records", len(all))
	}

	if view, err := a.ViewForFile("device", activityID); err != nil || view != nil {
		t.Errorf("ViewForFile(device) = %v, %v; want nil", view, err)
	}
	if view, err := a.ViewForFile("activity", activityID); err != nil || view == nil {
		t.Errorf("ViewForFile(activity) = %v, %v; want the activity", view, err)
	}

	records, err := a.RecordsAcrossFiles("file_id", fitlog.TimeRange{})
	if err != nil {
		t.Fatalf("RecordsAcrossFiles() error = %v", err)
	}
	if len(records) != 2 {
		t.Errorf("RecordsAcrossFiles(file_id) = %d records, want 2", len(records))
	}
}

func TestApp_Views(t *testing.T) {
	cfg := newTestConfig(t)
	cfg.Views = []config.ViewConfig{{
		Name:               "garmin",
		DesignatingType:    "file_id",
		DiscriminatorField: "manufacturer",
		DiscriminatorValue: "garmin",
		Contributing:       []string{"file_id"},
	}}

	a := openTestApp(t, cfg, "Sync")
	defer a.Close()
	if _, err := a.Sync(context.Background()); err != nil {
		t.Fatalf("Sync() error = %v", err)
	}

	if got := a.ViewNames(); len(got) != 3 || got[2] != "garmin" {
		t.Errorf("ViewNames() = %v, want built-ins plus garmin", got)
	}

	tests := []struct {
		view string
		want int
	}{
		{view: "device", want: 1},
		{view: "activity", want: 1},
		{view: "garmin", want: 2},
	}
	for _, tt := range tests {
		t.Run(tt.view, func(t *testing.T) {
			entries, err := a.View(tt.view)
			if err != nil {
				t.Fatalf("View() error = %v", err)
			}
			if len(entries) != tt.want {
				t.Errorf("View(%s) = %d entries, want %d", tt.view, len(entries), tt.want)
			}
		})
	}

	if _, err := a.View("course"); err == nil {
		t.Error("View() expected error for unknown view")
	}
}

func TestApp_WithoutVaultOrKeys(t *testing.T) {
	t.Run("no vault", func(t *testing.T) {
		cfg := newTestConfig(t)
		cfg.Vaults = nil

		a := openTestApp(t, cfg, "Import")
		if _, err := a.Import(); err != nil {
			t.Fatalf("Import() error = %v", err)
		}
		if err := a.Close(); err != nil {
			t.Fatalf("Close() error = %v", err)
		}
	})

	t.Run("keys not initialized", func(t *testing.T) {
		cfg := newTestConfig(t)
		cfg.Encryption = config.EncryptionConfig{
			Type:           "age",
			PublicKeyPath:  filepath.Join(cfg.BaseDir, "keys", "fitlog.pub"),
			PrivateKeyPath: filepath.Join(cfg.BaseDir, "keys", "fitlog.key"),
		}

		a := openTestApp(t, cfg, "Import")
		if _, err := a.Import(); err != nil {
			t.Fatalf("Import() error = %v", err)
		}
		if err := a.Close(); err != nil {
			t.Fatalf("Close() error = %v", err)
		}
		if got := vaultVersion(t, cfg); got != 0 {
			t.Errorf("vault snapshot version = %d, want nothing uploaded", got)
		}
	})
}

func TestRestoreSnapshot(t *testing.T) {
	ctx := context.Background()
	cfg := newTestConfig(t)

	if _, err := RestoreSnapshot(ctx, cfg, "", true); !errors.Is(err, vault.ErrNoSnapshot) {
		t.Fatalf("RestoreSnapshot() error = %v, want ErrNoSnapshot", err)
	}

	a := openTestApp(t, cfg, "Sync")
	if _, err := a.Sync(ctx); err != nil {
		t.Fatalf("Sync() error = %v", err)
	}
	if err := a.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	if _, err := RestoreSnapshot(ctx, cfg, "", false); err == nil {
		t.Fatal("RestoreSnapshot() should refuse to replace an existing database")
	}

	if err := os.Remove(database.FilePath(cfg.Database, libraryID)); err != nil {
		t.Fatalf("removing database: %v", err)
	}

	version, err := RestoreSnapshot(ctx, cfg, "", false)
	if err != nil {
		t.Fatalf("RestoreSnapshot() error = %v", err)
	}
	if version != 1 {
		t.Errorf("RestoreSnapshot() version = %d, want 1", version)
	}

	restored := openTestApp(t, cfg, "Files")
	defer restored.Close()
	files, err := restored.ListFiles()
	if err != nil {
		t.Fatalf("ListFiles() error = %v", err)
	}
	if len(files) != 2 {
		t.Errorf("ListFiles() = %d files after restore, want 2", len(files))
	}
}

func TestKeysInit(t *testing.T) {
	cfg := config.NewConfig(libraryID, t.TempDir())

	if err := KeysInit(cfg, "correct horse"); err != nil {
		t.Fatalf("KeysInit() error = %v", err)
	}
	if _, err := os.Stat(cfg.Encryption.PrivateKeyPath); err != nil {
		t.Errorf("private key not written: %v", err)
	}
	if err := KeysInit(cfg, "correct horse"); err == nil {
		t.Error("second KeysInit() should refuse to replace keys")
	}
}

func TestViewSpecs(t *testing.T) {
	tests := []struct {
		name    string
		extra   []config.ViewConfig
		want    int
		wantErr bool
	}{
		{name: "built-ins only", want: 2},
		{
			name:  "extra view",
			extra: []config.ViewConfig{{Name: "course", DesignatingType: "file_id", DiscriminatorField: "type", DiscriminatorValue: "course", Contributing: []string{"course"}}},
			want:  3,
		},
		{
			name:    "shadows a built-in",
			extra:   []config.ViewConfig{{Name: "device", DesignatingType: "file_id", DiscriminatorField: "type", Contributing: []string{"file_id"}}},
			wantErr: true,
		},
		{
			name:    "missing contributing types",
			extra:   []config.ViewConfig{{Name: "course", DesignatingType: "file_id", DiscriminatorField: "type"}},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			specs, err := viewSpecs(tt.extra)
			if (err != nil) != tt.wantErr {
				t.Fatalf("viewSpecs() error = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && len(specs) != tt.want {
				t.Errorf("viewSpecs() = %d specs, want %d", len(specs), tt.want)
			}
		})
	}
}

func TestDeviceSettings(t *testing.T) {
	defaults := deviceSettings(config.DeviceConfig{})
	if defaults != fitlog.DefaultSettings() {
		t.Errorf("deviceSettings({}) = %+v, want defaults", defaults)
	}

	custom := deviceSettings(config.DeviceConfig{Suffix: ".fit", Subdir: "Garmin", Marker: "Garmin/Device.fit"})
	if custom.ImportSuffix != ".fit" || custom.DeviceSubdir != "Garmin" || custom.DeviceMarker != "Garmin/Device.fit" {
		t.Errorf("deviceSettings() = %+v", custom)
	}
}
