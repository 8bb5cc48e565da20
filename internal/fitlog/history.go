package fitlog

import (
	"fmt"

	"fitlog/internal/database/sqlc"
)

// GetHistory returns the most recent import runs, ordered newest first.
func (s *Service) GetHistory(limit int) ([]*sqlc.ImportRun, error) {
	runs, err := s.database.ListImportRuns(limit)
	if err != nil {
		return nil, fmt.Errorf("listing import runs: %w", err)
	}
	return runs, nil
}
