package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"iter"
	"strings"
	"time"

	"fitlog/internal/database/migrations"
	"fitlog/internal/database/sqlc"
	"fitlog/internal/fitlog"

	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

// SQLiteDatabase implements the archive and record store using SQLite.
type SQLiteDatabase struct {
	db      *sql.DB
	queries *sqlc.Queries
	path    string
}

// NewSQLiteDatabase creates a new SQLite database connection.
// path can be a file path or ":memory:" for in-memory database.
func NewSQLiteDatabase(path string) (*SQLiteDatabase, error) {
	db, err := OpenConnection(path)
	if err != nil {
		return nil, err
	}

	return &SQLiteDatabase{
		db:      db,
		queries: sqlc.New(db),
		path:    path,
	}, nil
}

// NewSQLiteDatabaseFromDB wraps an existing database connection.
// The caller is responsible for ensuring the connection is properly configured.
func NewSQLiteDatabaseFromDB(db *sql.DB) *SQLiteDatabase {
	return &SQLiteDatabase{
		db:      db,
		queries: sqlc.New(db),
		path:    "",
	}
}

// OpenConnection opens and configures a SQLite database connection with appropriate PRAGMAs.
// This is exported for use in tools and tests that need a properly configured SQLite connection.
// path can be a file path or ":memory:" for in-memory database.
func OpenConnection(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// One connection: every ":memory:" connection is its own database, and
	// the pragma below is per connection.
	db.SetMaxOpenConns(1)

	// Enable foreign key constraints (SQLite default is OFF for backward compatibility)
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	return db, nil
}

// File operations

func (s *SQLiteDatabase) FindFile(path, hash string) (*sqlc.File, error) {
	file, err := s.queries.GetFileByPathAndHash(context.Background(), sqlc.GetFileByPathAndHashParams{
		Path:       path,
		HashSha256: hash,
	})
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil // Not found
		}
		return nil, fmt.Errorf("finding file by path and hash: %w", err)
	}
	return &file, nil
}

func (s *SQLiteDatabase) FindFileByID(id int64) (*sqlc.File, error) {
	file, err := s.queries.GetFileByID(context.Background(), id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil // Not found
		}
		return nil, fmt.Errorf("finding file by id: %w", err)
	}
	return &file, nil
}

func (s *SQLiteDatabase) PutFile(params sqlc.InsertFileParams) (*sqlc.File, bool, error) {
	ctx := context.Background()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, false, fmt.Errorf("starting transaction: %w", err)
	}
	defer tx.Rollback()

	qtx := s.queries.WithTx(tx)

	existing, err := qtx.GetFileByPathAndHash(ctx, sqlc.GetFileByPathAndHashParams{
		Path:       params.Path,
		HashSha256: params.HashSha256,
	})
	if err == nil {
		return &existing, false, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, false, fmt.Errorf("checking for existing file: %w", err)
	}

	maxSeq, err := qtx.GetMaxDownloadSeq(ctx)
	if err != nil {
		return nil, false, fmt.Errorf("reading download sequence: %w", err)
	}

	params.DownloadSeq = maxSeq + 1
	params.Downloaded = params.Downloaded.UTC()
	params.Created = params.Created.UTC()
	params.Modified = params.Modified.UTC()

	file, err := qtx.InsertFile(ctx, params)
	if err != nil {
		return nil, false, fmt.Errorf("inserting file: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, false, fmt.Errorf("committing transaction: %w", err)
	}
	return &file, true, nil
}

func (s *SQLiteDatabase) ListFiles() ([]*sqlc.ListFileHeadersRow, error) {
	rows, err := s.queries.ListFileHeaders(context.Background())
	if err != nil {
		return nil, fmt.Errorf("listing files: %w", err)
	}

	result := make([]*sqlc.ListFileHeadersRow, len(rows))
	for i := range rows {
		result[i] = &rows[i]
	}
	return result, nil
}

// likeEscaper quotes LIKE wildcards for the ESCAPE '\' clause.
var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func (s *SQLiteDatabase) ListPendingFiles(suffix string) ([]*sqlc.ListPendingFileHeadersRow, error) {
	rows, err := s.queries.ListPendingFileHeaders(context.Background(), "%"+likeEscaper.Replace(suffix))
	if err != nil {
		return nil, fmt.Errorf("listing pending files: %w", err)
	}

	result := make([]*sqlc.ListPendingFileHeadersRow, len(rows))
	for i := range rows {
		result[i] = &rows[i]
	}
	return result, nil
}

// Record operations

func (s *SQLiteDatabase) ImportFile(fileID int64, fn func(tx fitlog.ImportTx) error) error {
	ctx := context.Background()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("starting transaction: %w", err)
	}
	defer tx.Rollback()

	qtx := s.queries.WithTx(tx)

	if _, err := qtx.GetFileByID(ctx, fileID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("file %d not found", fileID)
		}
		return fmt.Errorf("loading file %d: %w", fileID, err)
	}

	if err := fn(&sqliteImportTx{ctx: ctx, qtx: qtx, fileID: fileID}); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// sqliteImportTx writes one file's records inside the transaction opened
// by ImportFile.
type sqliteImportTx struct {
	ctx    context.Context
	qtx    *sqlc.Queries
	fileID int64
}

func (t *sqliteImportTx) AppendBatch(records iter.Seq2[fitlog.Record, error]) (int, error) {
	n := 0
	for rec, err := range records {
		if err != nil {
			return n, err
		}

		data, err := rec.Payload.MarshalJSON()
		if err != nil {
			return n, fmt.Errorf("%w: encoding %s record %d: %w", fitlog.ErrUnencodable, rec.Type, n, err)
		}

		var ts sql.NullTime
		if rec.Timestamp != nil {
			ts = sql.NullTime{Time: rec.Timestamp.UTC(), Valid: true}
		}

		err = t.qtx.InsertRecord(t.ctx, sqlc.InsertRecordParams{
			FileID:    t.fileID,
			Type:      rec.Type,
			Timestamp: ts,
			DataJson:  string(data),
		})
		if err != nil {
			return n, fmt.Errorf("inserting %s record: %w", rec.Type, err)
		}
		n++
	}
	return n, nil
}

func (t *sqliteImportTx) MarkImported() error {
	affected, err := t.qtx.MarkFileImported(t.ctx, t.fileID)
	if err != nil {
		return fmt.Errorf("marking file imported: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: file %d is already imported", fitlog.ErrPrecondition, t.fileID)
	}
	return nil
}

func (s *SQLiteDatabase) ListRecordsByFile(fileID int64) ([]*sqlc.Record, error) {
	records, err := s.queries.ListRecordsByFile(context.Background(), fileID)
	if err != nil {
		return nil, fmt.Errorf("listing records of file %d: %w", fileID, err)
	}
	return recordPointers(records), nil
}

func (s *SQLiteDatabase) ListRecordsByType(fileID int64, recordType string) ([]*sqlc.Record, error) {
	records, err := s.queries.ListRecordsByFileAndType(context.Background(), sqlc.ListRecordsByFileAndTypeParams{
		FileID: fileID,
		Type:   recordType,
	})
	if err != nil {
		return nil, fmt.Errorf("listing %s records of file %d: %w", recordType, fileID, err)
	}
	return recordPointers(records), nil
}

func (s *SQLiteDatabase) ListRecordsByTypeByTime(fileID int64, recordType string) ([]*sqlc.Record, error) {
	records, err := s.queries.ListRecordsByFileAndTypeByTime(context.Background(), sqlc.ListRecordsByFileAndTypeByTimeParams{
		FileID: fileID,
		Type:   recordType,
	})
	if err != nil {
		return nil, fmt.Errorf("listing %s records of file %d by time: %w", recordType, fileID, err)
	}
	return recordPointers(records), nil
}

func (s *SQLiteDatabase) ListImportedRecordsByType(recordType string) ([]*sqlc.Record, error) {
	records, err := s.queries.ListImportedRecordsByType(context.Background(), recordType)
	if err != nil {
		return nil, fmt.Errorf("listing imported %s records: %w", recordType, err)
	}
	return recordPointers(records), nil
}

func (s *SQLiteDatabase) ListImportedRecordsInRange(recordType string, from, to *time.Time) ([]*sqlc.Record, error) {
	records, err := s.queries.ListImportedRecordsByTypeInRange(context.Background(), sqlc.ListImportedRecordsByTypeInRangeParams{
		Type: recordType,
		From: nullTime(from),
		To:   nullTime(to),
	})
	if err != nil {
		return nil, fmt.Errorf("listing imported %s records in range: %w", recordType, err)
	}
	return recordPointers(records), nil
}

func (s *SQLiteDatabase) CountRecords(fileID int64) (int64, error) {
	n, err := s.queries.CountRecordsByFile(context.Background(), fileID)
	if err != nil {
		return 0, fmt.Errorf("counting records of file %d: %w", fileID, err)
	}
	return n, nil
}

func recordPointers(records []sqlc.Record) []*sqlc.Record {
	result := make([]*sqlc.Record, len(records))
	for i := range records {
		result[i] = &records[i]
	}
	return result
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: t.UTC(), Valid: true}
}

// Import run tracking

func (s *SQLiteDatabase) CreateImportRun(operation string, parameters string) (*sqlc.ImportRun, error) {
	run, err := s.queries.InsertImportRun(context.Background(), sqlc.InsertImportRunParams{
		StartedAt:  time.Now().UTC(),
		Operation:  operation,
		Parameters: parameters,
	})
	if err != nil {
		return nil, fmt.Errorf("creating import run: %w", err)
	}
	return &run, nil
}

func (s *SQLiteDatabase) FinishImportRun(id int64, status string) error {
	err := s.queries.FinishImportRun(context.Background(), sqlc.FinishImportRunParams{
		FinishedAt: sql.NullTime{Time: time.Now().UTC(), Valid: true},
		Status:     status,
		ID:         id,
	})
	if err != nil {
		return fmt.Errorf("finishing import run: %w", err)
	}
	return nil
}

func (s *SQLiteDatabase) ListImportRuns(limit int) ([]*sqlc.ImportRun, error) {
	runs, err := s.queries.ListImportRuns(context.Background(), int64(limit))
	if err != nil {
		return nil, fmt.Errorf("listing import runs: %w", err)
	}

	result := make([]*sqlc.ImportRun, len(runs))
	for i := range runs {
		result[i] = &runs[i]
	}
	return result, nil
}

func (s *SQLiteDatabase) MaxImportRunID() (int64, error) {
	id, err := s.queries.GetMaxImportRunID(context.Background())
	if err != nil {
		return 0, fmt.Errorf("getting max import run ID: %w", err)
	}
	return id, nil
}

// Path returns the database file path (or ":memory:" for in-memory databases).
func (s *SQLiteDatabase) Path() string {
	return s.path
}

// Migrate applies any pending schema migrations.
func (s *SQLiteDatabase) Migrate() error {
	return migrations.MigrateUp(s.db)
}

// CheckMigrations verifies the database schema is up-to-date.
func (s *SQLiteDatabase) CheckMigrations() error {
	return migrations.CheckDBMigrationStatus(s.db)
}

// SnapshotTo writes a complete copy of the database at destPath using VACUUM INTO.
func (s *SQLiteDatabase) SnapshotTo(destPath string) error {
	_, err := s.db.Exec("VACUUM INTO ?", destPath)
	if err != nil {
		return fmt.Errorf("snapshotting database: %w", err)
	}
	return nil
}

// Close closes the database connection.
func (s *SQLiteDatabase) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Compile-time check that SQLiteDatabase implements fitlog.Database interface
var _ fitlog.Database = (*SQLiteDatabase)(nil)
