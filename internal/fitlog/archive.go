package fitlog

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"path/filepath"
	"time"

	"fitlog/internal/database/sqlc"
)

// ContentHash returns the lowercase hex SHA-256 of data.
func ContentHash(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// Put archives one file under its device-relative path. Identical content
// at the same path is recorded once; created reports whether a row was added.
func (s *Service) Put(relativePath string, data []byte, created, modified time.Time) (*sqlc.File, bool, error) {
	file, isNew, err := s.database.PutFile(sqlc.InsertFileParams{
		Path:       relativePath,
		Downloaded: s.clock.Now(),
		Created:    created,
		Modified:   modified,
		HashSha256: ContentHash(data),
		Data:       data,
	})
	if err != nil {
		return nil, false, fmt.Errorf("archiving %s: %w", relativePath, err)
	}
	return file, isNew, nil
}

// DiscoverResult summarizes one discovery pass.
type DiscoverResult struct {
	Added     int
	Unchanged int
	Failed    []string
}

// Discover walks root and archives every regular file found. Paths are
// stored relative to root with forward slashes. A file or directory that
// cannot be read is logged and reported in Failed; a store failure stops the
// pass.
func (s *Service) Discover(root *Path) (*DiscoverResult, error) {
	if !root.IsDir() {
		return nil, fmt.Errorf("discovery root is not a directory: %s", root.String())
	}

	s.logger.Info("discovering files", "root", root.String())

	paths, skipped, err := s.fsmgr.FindFiles(root)
	if err != nil {
		return nil, fmt.Errorf("walking %s: %w", root.String(), err)
	}

	result := &DiscoverResult{}
	for _, rel := range skipped {
		s.logger.Error("failed to walk path", "path", rel)
		result.Failed = append(result.Failed, rel)
	}
	for _, path := range paths {
		rel, err := filepath.Rel(root.String(), path.String())
		if err != nil {
			return result, fmt.Errorf("computing relative path: %w", err)
		}
		rel = filepath.ToSlash(rel)

		data, err := s.fsmgr.ReadFile(path)
		if err != nil {
			s.logger.Error("failed to read file", "path", rel, "error", err)
			result.Failed = append(result.Failed, rel)
			continue
		}

		created, modified, err := s.fsmgr.FileTimes(path.Info())
		if err != nil {
			s.logger.Error("failed to stat file", "path", rel, "error", err)
			result.Failed = append(result.Failed, rel)
			continue
		}

		file, isNew, err := s.Put(rel, data, created, modified)
		if err != nil {
			return result, err
		}
		if !isNew {
			result.Unchanged++
			continue
		}
		result.Added++
		s.logger.Info("found new file", "path", rel, "modified", modified, "id", file.ID)
	}

	s.logger.Info("discovery finished", "added", result.Added, "unchanged", result.Unchanged, "failed", len(result.Failed))
	return result, nil
}
