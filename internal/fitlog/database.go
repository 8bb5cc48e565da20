package fitlog

import (
	"iter"
	"time"

	"fitlog/internal/database/sqlc"
)

// Database is the archive and record store behind the service.
type Database interface {
	// FindFile returns the archived file with exactly this path and hash,
	// or (nil, nil) when there is none.
	FindFile(path, hash string) (*sqlc.File, error)

	// FindFileByID returns (nil, nil) when no file has the id.
	FindFileByID(id int64) (*sqlc.File, error)

	// PutFile archives a file unless a file with the same path and hash
	// exists. The download sequence is assigned inside the same transaction
	// as max+1; params.DownloadSeq is ignored. created reports whether a new
	// row was written.
	PutFile(params sqlc.InsertFileParams) (file *sqlc.File, created bool, err error)

	// ListFiles returns every archived file without its content, in id order.
	ListFiles() ([]*sqlc.ListFileHeadersRow, error)

	// ListPendingFiles returns files not yet imported whose path ends in
	// suffix, ignoring case, in download sequence order. Content is not
	// loaded.
	ListPendingFiles(suffix string) ([]*sqlc.ListPendingFileHeadersRow, error)

	// ImportFile runs fn in a single transaction scoped to one file. The
	// transaction commits only when fn returns nil.
	ImportFile(fileID int64, fn func(tx ImportTx) error) error

	ListRecordsByFile(fileID int64) ([]*sqlc.Record, error)
	ListRecordsByType(fileID int64, recordType string) ([]*sqlc.Record, error)
	ListRecordsByTypeByTime(fileID int64, recordType string) ([]*sqlc.Record, error)
	ListImportedRecordsByType(recordType string) ([]*sqlc.Record, error)
	ListImportedRecordsInRange(recordType string, from, to *time.Time) ([]*sqlc.Record, error)
	CountRecords(fileID int64) (int64, error)

	CreateImportRun(operation, parameters string) (*sqlc.ImportRun, error)
	FinishImportRun(id int64, status string) error
	ListImportRuns(limit int) ([]*sqlc.ImportRun, error)
	MaxImportRunID() (int64, error)

	Close() error
}

// ImportTx is the write side of a single-file import.
type ImportTx interface {
	// AppendBatch writes records for the file in sequence order and returns
	// how many were written. The first error from records aborts the batch.
	AppendBatch(records iter.Seq2[Record, error]) (int, error)

	// MarkImported flags the file as imported. It fails if the file was
	// already imported.
	MarkImported() error
}
