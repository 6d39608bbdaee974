//go:build sqlite_fts5

package catalog

import (
	"database/sql"
	"fmt"
	"strings"
)

func initFTS(conn *sql.DB) error {
	_, err := conn.Exec(`
		CREATE VIRTUAL TABLE IF NOT EXISTS genomes_fts USING fts5(
			path UNINDEXED,
			ordinal UNINDEXED,
			name,
			tokenize = 'unicode61 remove_diacritics 2'
		);
	`)
	return err
}

func ftsInsert(tx *sql.Tx, path string, ordinal int, name string) error {
	_, err := tx.Exec(`INSERT INTO genomes_fts (path, ordinal, name) VALUES (?, ?, ?)`, path, ordinal, name)
	if err != nil {
		return fmt.Errorf("catalog: insert fts: %w", err)
	}
	return nil
}

func ftsDelete(tx *sql.Tx, path string) error {
	if _, err := tx.Exec(`DELETE FROM genomes_fts WHERE path = ?`, path); err != nil {
		return fmt.Errorf("catalog: delete fts: %w", err)
	}
	return nil
}

// SearchNames runs an FTS5 prefix query over genome names, best matches first.
func (db *DB) SearchNames(query string, limit int) ([]GenomeRow, error) {
	if limit <= 0 {
		limit = 20
	}
	phrase := `"` + strings.ReplaceAll(query, `"`, `""`) + `"*`
	rows, err := db.conn.Query(`
		SELECT g.path, g.ordinal, g.name, g.length
		FROM genomes_fts f
		JOIN genomes g ON g.path = f.path AND g.ordinal = f.ordinal
		WHERE genomes_fts MATCH ?
		ORDER BY rank
		LIMIT ?
	`, phrase, limit)
	if err != nil {
		return nil, fmt.Errorf("catalog: search: %w", err)
	}
	defer rows.Close()
	return scanGenomes(rows)
}
