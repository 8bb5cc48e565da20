package database

import (
	"fmt"
	"os"
	"path/filepath"

	"fitlog/internal/config"
)

// FilePath returns where a sqlite library database lives: one file per
// library in the data directory.
func FilePath(cfg config.DatabaseConfig, libraryID string) string {
	return filepath.Join(cfg.DataDir, libraryID+".db")
}

// NewDatabaseFromConfig creates a SQLiteDatabase based on the database config type.
func NewDatabaseFromConfig(cfg config.DatabaseConfig, libraryID string) (*SQLiteDatabase, error) {
	switch cfg.Type {
	case "sqlite":
		if cfg.DataDir == "" {
			return nil, fmt.Errorf("data_dir required for sqlite database")
		}
		if libraryID == "" {
			return nil, fmt.Errorf("library_id required for sqlite database")
		}
		if err := os.MkdirAll(cfg.DataDir, 0755); err != nil {
			return nil, fmt.Errorf("creating data directory: %w", err)
		}
		return NewSQLiteDatabase(FilePath(cfg, libraryID))
	case "memory":
		return NewSQLiteDatabase(":memory:")
	default:
		return nil, fmt.Errorf("unknown database type: %s", cfg.Type)
	}
}
