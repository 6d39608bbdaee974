// Package catalog provides a SQLite-backed catalog of library files and the
// genomes they contain, with optional FTS5 search over genome names.
package catalog

import (
	"database/sql"
	"fmt"
	"strings"

	_ "github.com/mattn/go-sqlite3"
)

const coreSchemaSQL = `
CREATE TABLE IF NOT EXISTS files (
	path         TEXT PRIMARY KEY,
	checksum     TEXT NOT NULL DEFAULT '',
	genome_count INTEGER NOT NULL DEFAULT 0,
	total_bases  INTEGER NOT NULL DEFAULT 0,
	updated_at   DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS genomes (
	path    TEXT NOT NULL REFERENCES files(path) ON DELETE CASCADE,
	ordinal INTEGER NOT NULL,
	name    TEXT NOT NULL,
	length  INTEGER NOT NULL,
	PRIMARY KEY (path, ordinal)
);

CREATE INDEX IF NOT EXISTS idx_genomes_name ON genomes(name);
`

// DB wraps a sql.DB with catalog-specific operations.
type DB struct {
	conn *sql.DB
}

// Open opens (or creates) the SQLite database and applies the schema.
// The special DSN ":memory:" yields a private in-memory catalog.
func Open(dsn string) (*DB, error) {
	memory := dsn == ":memory:"
	params := "_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on"
	if memory {
		params = "_foreign_keys=on"
	}
	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	conn, err := sql.Open("sqlite3", dsn+sep+params)
	if err != nil {
		return nil, fmt.Errorf("catalog: open db: %w", err)
	}
	if memory {
		// Every connection to :memory: is a separate database.
		conn.SetMaxOpenConns(1)
	}
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("catalog: ping: %w", err)
	}
	if _, err := conn.Exec(coreSchemaSQL); err != nil {
		conn.Close()
		return nil, fmt.Errorf("catalog: apply core schema: %w", err)
	}
	if err := initFTS(conn); err != nil {
		conn.Close()
		return nil, fmt.Errorf("catalog: apply fts schema: %w", err)
	}
	return &DB{conn: conn}, nil
}

// Close closes the underlying database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}
