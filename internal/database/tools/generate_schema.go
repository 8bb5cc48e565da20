//go:build ignore

// generate_schema migrates an in-memory archive database to the latest
// version and writes the resulting DDL to sqlc/schema.sql, which sqlc and
// the in-memory test databases consume.
package main

import (
	"database/sql"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"fitlog/internal/database"
	"fitlog/internal/database/migrations"
)

const header = `-- Generated from internal/database/migrations/files/*.sql.
-- DO NOT EDIT MANUALLY. Run 'go generate ./internal/database' to regenerate.

`

func main() {
	out := flag.String("out", filepath.Join("internal", "database", "sqlc", "schema.sql"), "schema output path")
	flag.Parse()

	if err := run(*out); err != nil {
		fmt.Fprintf(os.Stderr, "generate_schema: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("generated %s from migrations\n", *out)
}

func run(outPath string) error {
	db, err := database.OpenConnection(":memory:")
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer db.Close()

	if err := migrations.MigrateUp(db); err != nil {
		return fmt.Errorf("migrating: %w", err)
	}

	schema, err := dumpSchema(db)
	if err != nil {
		return err
	}
	return os.WriteFile(outPath, []byte(header+schema), 0644)
}

// dumpSchema returns every table, index, view and trigger the migrations
// created, tables first. SQLite internals and the migration bookkeeping
// table are left out.
func dumpSchema(db *sql.DB) (string, error) {
	rows, err := db.Query(`
		SELECT sql
		FROM sqlite_master
		WHERE sql IS NOT NULL
		  AND name NOT LIKE 'sqlite_%'
		  AND tbl_name != 'schema_migrations'
		ORDER BY
		  CASE type WHEN 'table' THEN 1 WHEN 'index' THEN 2 WHEN 'view' THEN 3 ELSE 4 END,
		  name
	`)
	if err != nil {
		return "", fmt.Errorf("reading sqlite_master: %w", err)
	}
	defer rows.Close()

	var b strings.Builder
	for rows.Next() {
		var stmt string
		if err := rows.Scan(&stmt); err != nil {
			return "", fmt.Errorf("scanning statement: %w", err)
		}
		b.WriteString(stmt)
		b.WriteString(";\n\n")
	}
	if err := rows.Err(); err != nil {
		return "", fmt.Errorf("reading sqlite_master: %w", err)
	}
	return b.String(), nil
}
