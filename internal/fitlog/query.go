package fitlog

import (
	"fmt"
	"time"
)

// TimeRange bounds a query by record timestamp. From is inclusive, To is
// exclusive; a nil bound is open.
type TimeRange struct {
	From *time.Time
	To   *time.Time
}

// QueryByType returns a file's records of one type in import order.
func (s *Service) QueryByType(fileID int64, recordType string) ([]*Record, error) {
	rows, err := s.database.ListRecordsByType(fileID, recordType)
	if err != nil {
		return nil, err
	}
	return recordsFromRows(rows)
}

// QueryByFile returns all records of a file in import order.
func (s *Service) QueryByFile(fileID int64) ([]*Record, error) {
	rows, err := s.database.ListRecordsByFile(fileID)
	if err != nil {
		return nil, err
	}
	return recordsFromRows(rows)
}

// QueryByTypeAcrossFiles returns records of one type from every imported
// file, ordered by timestamp. Records without a timestamp sort first and
// are excluded when either bound is set.
func (s *Service) QueryByTypeAcrossFiles(recordType string, r TimeRange) ([]*Record, error) {
	rows, err := s.database.ListImportedRecordsInRange(recordType, r.From, r.To)
	if err != nil {
		return nil, err
	}
	return recordsFromRows(rows)
}

// SingleRecord returns the only record of a type in a file. Zero or several
// records fail with ErrPrecondition.
func (s *Service) SingleRecord(fileID int64, recordType string) (*Record, error) {
	recs, err := s.QueryByType(fileID, recordType)
	if err != nil {
		return nil, err
	}
	if len(recs) != 1 {
		return nil, fmt.Errorf("%w: expected exactly one %s record in file %d, found %d",
			ErrPrecondition, recordType, fileID, len(recs))
	}
	return recs[0], nil
}
