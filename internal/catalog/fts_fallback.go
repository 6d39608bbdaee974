//go:build !sqlite_fts5

package catalog

import (
	"database/sql"
	"fmt"
)

func initFTS(_ *sql.DB) error {
	// FTS5 not available; name search uses LIKE on genomes.name.
	return nil
}

func ftsInsert(_ *sql.Tx, _ string, _ int, _ string) error { return nil }

func ftsDelete(_ *sql.Tx, _ string) error { return nil }

// SearchNames performs a case-insensitive substring search over genome names
// (fallback when FTS5 is not compiled in).
func (db *DB) SearchNames(query string, limit int) ([]GenomeRow, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := db.conn.Query(`
		SELECT path, ordinal, name, length
		FROM genomes
		WHERE name LIKE ? ESCAPE '\'
		ORDER BY path, ordinal
		LIMIT ?
	`, "%"+escapeLike(query)+"%", limit)
	if err != nil {
		return nil, fmt.Errorf("catalog: search: %w", err)
	}
	defer rows.Close()
	return scanGenomes(rows)
}
