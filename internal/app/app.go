package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/google/uuid"

	"fitlog/internal/config"
	"fitlog/internal/database"
	"fitlog/internal/database/sqlc"
	"fitlog/internal/decoder"
	"fitlog/internal/encryption"
	"fitlog/internal/fitlog"
	"fitlog/internal/fs"
	"fitlog/internal/transport"
	"fitlog/internal/vault"
)

// App is the application layer between the CLI and fitlog.Service.
// It constructs all dependencies from config, exposes the operations the
// CLI needs and, for runs that changed the archive, pushes a database
// snapshot to the vault on Close.
type App struct {
	cfg       *config.Config
	db        *database.SQLiteDatabase
	vault     fitlog.Vault // nil when no vault is configured
	encryptor fitlog.Encryptor
	fsmgr     fitlog.FilesystemManager
	service   *fitlog.Service
	settings  fitlog.Settings
	views     []fitlog.ViewSpec
	logger    fitlog.Logger
	run       *Run
	logFile   *os.File
}

// NewApp creates a fully wired App from the given config.
// operation names the CLI command being run (e.g. "Sync", "Import").
// The caller must call Close when done.
func NewApp(cfg *config.Config, operation string, verbose bool) (*App, error) {
	runID := time.Now().UTC().Format("20060102T150405Z")
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	logger, logFile, err := newLogger(cfg.LogDir, runID, level)
	if err != nil {
		return nil, fmt.Errorf("creating logger: %w", err)
	}

	a, err := newApp(cfg, operation, decoder.NewFITDecoder(), &slogAdapter{l: logger})
	if err != nil {
		logFile.Close()
		return nil, err
	}
	a.logFile = logFile
	return a, nil
}

func newApp(cfg *config.Config, operation string, dec fitlog.Decoder, logger fitlog.Logger) (*App, error) {
	ignore, err := ignorePatterns(cfg.Device)
	if err != nil {
		return nil, err
	}
	fsmgr := fs.NewOSFilesystemManager(ignore)

	views, err := viewSpecs(cfg.Views)
	if err != nil {
		return nil, err
	}

	var v fitlog.Vault
	if len(cfg.Vaults) > 0 {
		v, err = vault.NewVaultFromConfig(context.Background(), cfg.Vaults[0])
		if err != nil {
			return nil, fmt.Errorf("creating vault: %w", err)
		}
	}

	enc, err := encryption.NewEncryptorFromConfig(cfg.Encryption)
	if err != nil {
		return nil, fmt.Errorf("creating encryptor: %w", err)
	}

	tr, err := transport.NewTransportFromConfig(cfg.Transport, cfg.Device.Root, logger)
	if err != nil {
		return nil, fmt.Errorf("creating transport: %w", err)
	}

	db, err := openDatabase(cfg)
	if err != nil {
		return nil, err
	}

	if v != nil {
		if err := checkVersion(db, v, cfg.LibraryID); err != nil {
			db.Close()
			return nil, err
		}
	}

	settings := deviceSettings(cfg.Device)
	svc := fitlog.NewService(db, dec, fsmgr, tr, logger, fitlog.RealClock{}, settings)

	return &App{
		cfg:       cfg,
		db:        db,
		vault:     v,
		encryptor: enc,
		fsmgr:     fsmgr,
		service:   svc,
		settings:  settings,
		views:     views,
		logger:    logger,
		run:       NewRun(operation, ""),
	}, nil
}

// openDatabase opens the library database. An in-memory database is
// migrated on the spot; a file database must already be at the latest
// schema (`fitlog db migrate`).
func openDatabase(cfg *config.Config) (*database.SQLiteDatabase, error) {
	db, err := database.NewDatabaseFromConfig(cfg.Database, cfg.LibraryID)
	if err != nil {
		return nil, fmt.Errorf("creating database: %w", err)
	}

	if cfg.Database.Type == "memory" {
		err = db.Migrate()
	} else {
		err = db.CheckMigrations()
	}
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("database schema out of date: %w", err)
	}
	return db, nil
}

// checkVersion refuses to work on a local database older than the
// newest snapshot in the vault; syncing from it would overwrite newer runs.
func checkVersion(db *database.SQLiteDatabase, v fitlog.Vault, libraryID string) error {
	remote, err := v.SnapshotVersion(libraryID)
	if err != nil {
		return fmt.Errorf("checking remote snapshot version: %w", err)
	}
	local, err := db.MaxImportRunID()
	if err != nil {
		return fmt.Errorf("checking local database version: %w", err)
	}
	if remote > local {
		return fmt.Errorf("local database is behind vault snapshot (local=%d, remote=%d): run `fitlog snapshot restore`", local, remote)
	}
	return nil
}

func ignorePatterns(cfg config.DeviceConfig) ([]string, error) {
	patterns := append([]string{}, cfg.Ignore...)
	if cfg.IgnoreFile != "" {
		fromFile, err := fs.ParseIgnoreFile(cfg.IgnoreFile)
		if err != nil {
			return nil, err
		}
		patterns = append(patterns, fromFile...)
	}
	return patterns, nil
}

func viewSpecs(extra []config.ViewConfig) ([]fitlog.ViewSpec, error) {
	specs := fitlog.BuiltinViews()
	for _, vc := range extra {
		spec := fitlog.ViewSpec{
			Name:               vc.Name,
			DesignatingType:    vc.DesignatingType,
			DiscriminatorField: vc.DiscriminatorField,
			DiscriminatorValue: vc.DiscriminatorValue,
			Contributing:       vc.Contributing,
		}
		if err := spec.Validate(); err != nil {
			return nil, fmt.Errorf("invalid view in config: %w", err)
		}
		if _, dup := fitlog.ViewByName(specs, spec.Name); dup {
			return nil, fmt.Errorf("view %s is defined twice", spec.Name)
		}
		specs = append(specs, spec)
	}
	return specs, nil
}

func deviceSettings(cfg config.DeviceConfig) fitlog.Settings {
	s := fitlog.DefaultSettings()
	if cfg.Suffix != "" {
		s.ImportSuffix = cfg.Suffix
	}
	if cfg.Subdir != "" {
		s.DeviceSubdir = cfg.Subdir
	}
	if cfg.Marker != "" {
		s.DeviceMarker = cfg.Marker
	}
	return s
}

// persistRun saves the run to the database, giving it an id. Only
// commands that change the archive call it.
func (a *App) persistRun(parameters string) error {
	if a.run.Persisted() {
		return nil
	}
	a.run.Parameters = parameters
	dbRun, err := a.db.CreateImportRun(a.run.Operation, a.run.Parameters)
	if err != nil {
		return fmt.Errorf("persisting import run: %w", err)
	}
	a.run.ID = dbRun.ID
	return nil
}

// Sync mirrors the device, archives new files and imports everything pending.
func (a *App) Sync(ctx context.Context) (*fitlog.SyncResult, error) {
	if err := a.persistRun(a.cfg.Device.Root); err != nil {
		return nil, err
	}
	result, err := a.service.Sync(ctx, a.cfg.Device.Root)
	return result, a.run.Observe(err)
}

// Discover archives new files below rawPath, or below the device directory
// when rawPath is empty.
func (a *App) Discover(rawPath string) (*fitlog.DiscoverResult, error) {
	if rawPath == "" {
		rawPath = filepath.Join(a.cfg.Device.Root, a.settings.DeviceSubdir)
	}
	if err := a.persistRun(rawPath); err != nil {
		return nil, err
	}
	root, err := a.fsmgr.Resolve(rawPath)
	if err != nil {
		return nil, a.run.Observe(fmt.Errorf("resolving path: %w", err))
	}
	result, err := a.service.Discover(root)
	return result, a.run.Observe(err)
}

// Import decodes every pending file.
func (a *App) Import() (*fitlog.ImportResult, error) {
	if err := a.persistRun(""); err != nil {
		return nil, err
	}
	result, err := a.service.ImportPending()
	return result, a.run.Observe(err)
}

// ImportFile decodes one pending file by id and returns its record count.
func (a *App) ImportFile(id int64) (int, error) {
	if err := a.persistRun(strconv.FormatInt(id, 10)); err != nil {
		return 0, err
	}
	n, err := a.service.ImportFileByID(id)
	return n, a.run.Observe(err)
}

// ListFiles summarizes every archived file.
func (a *App) ListFiles() ([]*fitlog.FileSummary, error) {
	return a.service.ListFiles()
}

// ViewNames lists the built-in and configured views.
func (a *App) ViewNames() []string {
	names := make([]string, len(a.views))
	for i, spec := range a.views {
		names[i] = spec.Name
	}
	return names
}

// View evaluates the named view over all imported files.
func (a *App) View(name string) ([]*fitlog.DomainView, error) {
	spec, ok := fitlog.ViewByName(a.views, name)
	if !ok {
		return nil, fmt.Errorf("unknown view %q", name)
	}
	return a.service.Views(spec)
}

// ViewForFile evaluates the named view for one file; nil means the file is
// not part of the view.
func (a *App) ViewForFile(name string, fileID int64) (*fitlog.DomainView, error) {
	spec, ok := fitlog.ViewByName(a.views, name)
	if !ok {
		return nil, fmt.Errorf("unknown view %q", name)
	}
	return a.service.ViewForFile(spec, fileID)
}

// RecordsByFile returns every record of a file in import order.
func (a *App) RecordsByFile(fileID int64) ([]*fitlog.Record, error) {
	return a.service.QueryByFile(fileID)
}

// Records returns a file's records of one type in import order.
func (a *App) Records(fileID int64, recordType string) ([]*fitlog.Record, error) {
	return a.service.QueryByType(fileID, recordType)
}

// SingleRecord returns the only record of a type in a file.
func (a *App) SingleRecord(fileID int64, recordType string) (*fitlog.Record, error) {
	return a.service.SingleRecord(fileID, recordType)
}

// RecordsAcrossFiles returns records of one type from all imported files.
func (a *App) RecordsAcrossFiles(recordType string, r fitlog.TimeRange) ([]*fitlog.Record, error) {
	return a.service.QueryByTypeAcrossFiles(recordType, r)
}

// Export builds the time series for one file and type, applying the named
// converters in order.
func (a *App) Export(fileID int64, recordType string, converterNames []string) (*fitlog.Table, error) {
	converters := make([]fitlog.Converter, 0, len(converterNames))
	for _, name := range converterNames {
		c, err := fitlog.ParseConverter(name)
		if err != nil {
			return nil, err
		}
		converters = append(converters, c)
	}
	return a.service.TimeSeries(fileID, recordType, converters...)
}

// GetHistory returns the most recent runs.
func (a *App) GetHistory(limit int) ([]*sqlc.ImportRun, error) {
	return a.service.GetHistory(limit)
}

// Close finalizes the run and closes all resources. A persisted run is
// finished, the database is snapshotted and the snapshot is uploaded with
// the run id as its version.
func (a *App) Close() error {
	var firstErr error
	keep := func(err error) {
		if err != nil && firstErr == nil {
			firstErr = err
		}
	}

	if a.run.Persisted() {
		if err := a.db.FinishImportRun(a.run.ID, a.run.Status); err != nil {
			keep(fmt.Errorf("finishing import run: %w", err))
		}

		var snapshot string
		if a.vault != nil {
			snapshot = filepath.Join(os.TempDir(), "fitlog-snapshot-"+uuid.NewString()+".db")
			if err := a.db.SnapshotTo(snapshot); err != nil {
				keep(err)
				snapshot = ""
			}
		}

		if err := a.db.Close(); err != nil {
			keep(fmt.Errorf("closing database: %w", err))
		}

		if snapshot != "" {
			keep(a.uploadSnapshot(snapshot, a.run.ID))
			os.Remove(snapshot)
		}
	} else if err := a.db.Close(); err != nil {
		keep(fmt.Errorf("closing database: %w", err))
	}

	if a.logFile != nil {
		a.logFile.Close()
	}
	return firstErr
}

// uploadSnapshot encrypts the snapshot at path and stores it in the vault.
func (a *App) uploadSnapshot(path string, version int64) error {
	if !a.encryptor.IsConfigured() {
		a.logger.Warn("encryption keys not configured, snapshot not uploaded", "hint", "fitlog keys init")
		return nil
	}

	src, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("opening snapshot: %w", err)
	}
	defer src.Close()

	sealed, err := os.CreateTemp("", "fitlog-snapshot-*.enc")
	if err != nil {
		return fmt.Errorf("creating temp file for snapshot: %w", err)
	}
	defer os.Remove(sealed.Name())
	defer sealed.Close()

	if err := a.encryptor.Encrypt(src, sealed); err != nil {
		return fmt.Errorf("encrypting snapshot: %w", err)
	}
	size, err := sealed.Seek(0, io.SeekCurrent)
	if err != nil {
		return fmt.Errorf("sizing snapshot: %w", err)
	}
	if _, err := sealed.Seek(0, io.SeekStart); err != nil {
		return fmt.Errorf("rewinding snapshot: %w", err)
	}

	if err := a.vault.PutSnapshot(a.cfg.LibraryID, sealed, size, version); err != nil {
		return fmt.Errorf("uploading snapshot to vault: %w", err)
	}
	a.logger.Info("uploaded snapshot", "version", version, "bytes", size)
	return nil
}

// MigrateDatabase creates or upgrades the library database schema.
func MigrateDatabase(cfg *config.Config) error {
	db, err := database.NewDatabaseFromConfig(cfg.Database, cfg.LibraryID)
	if err != nil {
		return fmt.Errorf("creating database: %w", err)
	}
	defer db.Close()

	if err := db.Migrate(); err != nil {
		return fmt.Errorf("migrating database: %w", err)
	}
	return nil
}

// KeysInit generates the snapshot encryption key pair.
func KeysInit(cfg *config.Config, passphrase string) error {
	enc, err := encryption.NewEncryptorFromConfig(cfg.Encryption)
	if err != nil {
		return fmt.Errorf("creating encryptor: %w", err)
	}
	if err := enc.Setup(passphrase); err != nil {
		return fmt.Errorf("setting up keys: %w", err)
	}
	return nil
}

// CheckVault verifies the first configured vault is reachable and reports
// the version of its latest snapshot.
func CheckVault(ctx context.Context, cfg *config.Config) (int64, error) {
	if len(cfg.Vaults) == 0 {
		return 0, fmt.Errorf("no vaults configured")
	}
	v, err := vault.NewVaultFromConfig(ctx, cfg.Vaults[0])
	if err != nil {
		return 0, fmt.Errorf("creating vault: %w", err)
	}
	if err := v.ValidateSetup(); err != nil {
		return 0, err
	}
	return v.SnapshotVersion(cfg.LibraryID)
}

// RestoreSnapshot replaces the local sqlite database with the latest
// snapshot from the first vault and returns the snapshot's version. An
// existing database is only replaced when force is set.
func RestoreSnapshot(ctx context.Context, cfg *config.Config, passphrase string, force bool) (int64, error) {
	if cfg.Database.Type != "sqlite" {
		return 0, fmt.Errorf("snapshots can only be restored into a sqlite database")
	}
	if len(cfg.Vaults) == 0 {
		return 0, fmt.Errorf("no vaults configured")
	}

	dbPath := database.FilePath(cfg.Database, cfg.LibraryID)
	if _, err := os.Stat(dbPath); err == nil && !force {
		return 0, fmt.Errorf("database %s already exists (use --force to replace it)", dbPath)
	}

	v, err := vault.NewVaultFromConfig(ctx, cfg.Vaults[0])
	if err != nil {
		return 0, fmt.Errorf("creating vault: %w", err)
	}
	version, err := v.SnapshotVersion(cfg.LibraryID)
	if err != nil {
		return 0, fmt.Errorf("checking snapshot version: %w", err)
	}
	if version == 0 {
		return 0, fmt.Errorf("library %s: %w", cfg.LibraryID, vault.ErrNoSnapshot)
	}

	enc, err := encryption.NewEncryptorFromConfig(cfg.Encryption)
	if err != nil {
		return 0, fmt.Errorf("creating encryptor: %w", err)
	}
	dec, err := enc.Unlock(passphrase)
	if err != nil {
		return 0, fmt.Errorf("unlocking private key: %w", err)
	}

	if err := os.MkdirAll(cfg.Database.DataDir, 0755); err != nil {
		return 0, fmt.Errorf("creating data directory: %w", err)
	}

	sealed, err := os.CreateTemp(cfg.Database.DataDir, ".restore-*.enc")
	if err != nil {
		return 0, fmt.Errorf("creating temp file: %w", err)
	}
	defer os.Remove(sealed.Name())
	defer sealed.Close()

	if err := v.GetSnapshot(cfg.LibraryID, sealed); err != nil {
		return 0, fmt.Errorf("downloading snapshot: %w", err)
	}
	if _, err := sealed.Seek(0, io.SeekStart); err != nil {
		return 0, fmt.Errorf("rewinding snapshot: %w", err)
	}

	plainPath := filepath.Join(cfg.Database.DataDir, ".restore-"+uuid.NewString()+".db")
	defer os.Remove(plainPath)
	if err := decryptTo(dec, sealed, plainPath); err != nil {
		return 0, err
	}

	if err := verifySnapshot(plainPath, version); err != nil {
		return 0, err
	}

	if err := os.Rename(plainPath, dbPath); err != nil {
		return 0, fmt.Errorf("replacing database: %w", err)
	}
	return version, nil
}

func decryptTo(dec fitlog.DecryptionContext, src *os.File, path string) error {
	dst, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_EXCL, 0644)
	if err != nil {
		return fmt.Errorf("creating restored database: %w", err)
	}
	if err := dec.Decrypt(src, dst); err != nil {
		dst.Close()
		return fmt.Errorf("decrypting snapshot: %w", err)
	}
	if err := dst.Close(); err != nil {
		return fmt.Errorf("writing restored database: %w", err)
	}
	return nil
}

// verifySnapshot opens a restored database and checks it is a current
// schema holding the run its version names.
func verifySnapshot(path string, version int64) error {
	db, err := database.NewSQLiteDatabase(path)
	if err != nil {
		return fmt.Errorf("opening restored database: %w", err)
	}
	defer db.Close()

	if err := db.CheckMigrations(); err != nil {
		return fmt.Errorf("restored database: %w", err)
	}
	maxID, err := db.MaxImportRunID()
	if err != nil {
		return fmt.Errorf("reading restored database: %w", err)
	}
	if maxID < version {
		return errors.New("restored database is older than its snapshot version")
	}
	return nil
}
