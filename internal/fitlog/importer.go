package fitlog

import (
	"fmt"
	"iter"

	"fitlog/internal/database/sqlc"
)

// ImportResult summarizes one import pass over pending files.
type ImportResult struct {
	Imported []ImportedFile
	Failed   []FailedFile
}

type ImportedFile struct {
	FileID  int64
	Path    string
	Records int
}

type FailedFile struct {
	FileID int64
	Path   string
	Err    error
}

// ImportPending decodes every pending file in download order, loading each
// file's content only when its turn comes. A file whose content is malformed
// or unencodable is logged and left pending; the pass continues. A store
// failure stops the pass.
func (s *Service) ImportPending() (*ImportResult, error) {
	files, err := s.database.ListPendingFiles(s.settings.ImportSuffix)
	if err != nil {
		return nil, fmt.Errorf("listing pending files: %w", err)
	}

	result := &ImportResult{}
	for _, file := range files {
		n, err := s.ImportFileByID(file.ID)
		if err != nil {
			if !IsFileError(err) {
				return result, err
			}
			s.logger.Error("failed to import file", "path", file.Path, "id", file.ID, "error", err)
			result.Failed = append(result.Failed, FailedFile{FileID: file.ID, Path: file.Path, Err: err})
			continue
		}
		result.Imported = append(result.Imported, ImportedFile{FileID: file.ID, Path: file.Path, Records: n})
	}

	s.logger.Info("import finished", "imported", len(result.Imported), "failed", len(result.Failed))
	return result, nil
}

// ImportFile decodes one archived file and stores its records. Records and
// the imported flag are written in one transaction: either all records land
// and the file is marked, or nothing changes. Importing a file that is
// already imported fails with ErrPrecondition.
func (s *Service) ImportFile(file *sqlc.File) (int, error) {
	if file.Imported {
		return 0, fmt.Errorf("%w: file %d is already imported", ErrPrecondition, file.ID)
	}

	s.logger.Info("parsing file", "path", file.Path, "id", file.ID)

	var count int
	err := s.database.ImportFile(file.ID, func(tx ImportTx) error {
		n, err := tx.AppendBatch(s.decodeRecords(file.Data))
		if err != nil {
			return err
		}
		count = n
		return tx.MarkImported()
	})
	if err != nil {
		return 0, fmt.Errorf("importing %s: %w", file.Path, err)
	}

	s.logger.Debug("file imported", "path", file.Path, "records", count)
	return count, nil
}

// ImportFileByID loads a file and imports it.
func (s *Service) ImportFileByID(id int64) (int, error) {
	file, err := s.database.FindFileByID(id)
	if err != nil {
		return 0, err
	}
	if file == nil {
		return 0, fmt.Errorf("file %d not found", id)
	}
	return s.ImportFile(file)
}

// decodeRecords flattens the decoder's messages lazily so records stream
// into the store while the file is decoded.
func (s *Service) decodeRecords(data []byte) iter.Seq2[Record, error] {
	return func(yield func(Record, error) bool) {
		for msg, err := range s.decoder.Decode(data) {
			if err != nil {
				yield(Record{}, fmt.Errorf("%w: %w", ErrMalformedContent, err))
				return
			}
			rec, ok, err := Flatten(msg)
			if err != nil {
				yield(Record{}, err)
				return
			}
			if !ok {
				continue
			}
			if !yield(rec, nil) {
				return
			}
		}
	}
}
