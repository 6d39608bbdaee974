package catalog

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/starford/genomatch/internal/apperr"
)

// FileRow represents a row in the files table.
type FileRow struct {
	Path        string
	Checksum    string
	GenomeCount int
	TotalBases  int
	UpdatedAt   time.Time
}

// GenomeRow represents a row in the genomes table.
type GenomeRow struct {
	Path    string
	Ordinal int
	Name    string
	Length  int
}

// UpsertFile replaces a file row and all of its genome rows within a transaction.
func (db *DB) UpsertFile(f FileRow, genomes []GenomeRow) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("catalog: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // best-effort on failure path

	total := 0
	for _, g := range genomes {
		total += g.Length
	}

	_, err = tx.Exec(`
		INSERT INTO files (path, checksum, genome_count, total_bases, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(path) DO UPDATE SET
			checksum     = excluded.checksum,
			genome_count = excluded.genome_count,
			total_bases  = excluded.total_bases,
			updated_at   = excluded.updated_at
	`, f.Path, f.Checksum, len(genomes), total, f.UpdatedAt)
	if err != nil {
		return fmt.Errorf("catalog: upsert file: %w", err)
	}

	if _, err := tx.Exec(`DELETE FROM genomes WHERE path = ?`, f.Path); err != nil {
		return fmt.Errorf("catalog: clear genomes: %w", err)
	}
	if err := ftsDelete(tx, f.Path); err != nil {
		return err
	}
	if len(genomes) > 0 {
		stmt, err := tx.Prepare(`INSERT INTO genomes (path, ordinal, name, length) VALUES (?, ?, ?, ?)`)
		if err != nil {
			return fmt.Errorf("catalog: prepare genome insert: %w", err)
		}
		defer stmt.Close()
		for i, g := range genomes {
			if _, err := stmt.Exec(f.Path, i, g.Name, g.Length); err != nil {
				return fmt.Errorf("catalog: insert genome: %w", err)
			}
			if err := ftsInsert(tx, f.Path, i, g.Name); err != nil {
				return err
			}
		}
	}

	return tx.Commit()
}

// DeleteFile removes a file and its genomes.
func (db *DB) DeleteFile(path string) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("catalog: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if err := ftsDelete(tx, path); err != nil {
		return err
	}
	_, _ = tx.Exec(`DELETE FROM genomes WHERE path = ?`, path)
	_, _ = tx.Exec(`DELETE FROM files WHERE path = ?`, path)

	return tx.Commit()
}

// GetChecksum returns the stored checksum for a file, or empty string if not found.
func (db *DB) GetChecksum(path string) (string, error) {
	var cs string
	err := db.conn.QueryRow(`SELECT checksum FROM files WHERE path = ?`, path).Scan(&cs)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("catalog: get checksum: %w", err)
	}
	return cs, nil
}

// AllChecksums returns the checksum of every catalogued file keyed by path.
func (db *DB) AllChecksums() (map[string]string, error) {
	rows, err := db.conn.Query(`SELECT path, checksum FROM files`)
	if err != nil {
		return nil, fmt.Errorf("catalog: all checksums: %w", err)
	}
	defer rows.Close()
	out := make(map[string]string)
	for rows.Next() {
		var p, cs string
		if err := rows.Scan(&p, &cs); err != nil {
			return nil, err
		}
		out[p] = cs
	}
	return out, rows.Err()
}

// ListFiles returns every catalogued file ordered by path.
func (db *DB) ListFiles() ([]FileRow, error) {
	rows, err := db.conn.Query(`
		SELECT path, checksum, genome_count, total_bases, updated_at
		FROM files ORDER BY path
	`)
	if err != nil {
		return nil, fmt.Errorf("catalog: list files: %w", err)
	}
	defer rows.Close()

	var out []FileRow
	for rows.Next() {
		var f FileRow
		if err := rows.Scan(&f.Path, &f.Checksum, &f.GenomeCount, &f.TotalBases, &f.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, f)
	}
	return out, rows.Err()
}

// ListGenomes returns a page of genomes in library order and the total count.
func (db *DB) ListGenomes(limit, offset int) ([]GenomeRow, int, error) {
	if limit <= 0 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}
	var total int
	if err := db.conn.QueryRow(`SELECT count(*) FROM genomes`).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("catalog: count genomes: %w", err)
	}
	rows, err := db.conn.Query(`
		SELECT path, ordinal, name, length
		FROM genomes
		ORDER BY path, ordinal
		LIMIT ? OFFSET ?
	`, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("catalog: list genomes: %w", err)
	}
	defer rows.Close()

	out, err := scanGenomes(rows)
	return out, total, err
}

// GetGenome returns the first genome (in library order) with the given name.
func (db *DB) GetGenome(name string) (*GenomeRow, error) {
	var g GenomeRow
	err := db.conn.QueryRow(`
		SELECT path, ordinal, name, length
		FROM genomes WHERE name = ?
		ORDER BY path, ordinal LIMIT 1
	`, name).Scan(&g.Path, &g.Ordinal, &g.Name, &g.Length)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("catalog: genome %q: %w", name, apperr.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("catalog: get genome: %w", err)
	}
	return &g, nil
}

func scanGenomes(rows *sql.Rows) ([]GenomeRow, error) {
	var out []GenomeRow
	for rows.Next() {
		var g GenomeRow
		if err := rows.Scan(&g.Path, &g.Ordinal, &g.Name, &g.Length); err != nil {
			return nil, err
		}
		out = append(out, g)
	}
	return out, rows.Err()
}

func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}
