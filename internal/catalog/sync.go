package catalog

import (
	"bytes"
	"log/slog"
	"time"

	"github.com/starford/genomatch/internal/checksum"
	"github.com/starford/genomatch/internal/genome"
	"github.com/starford/genomatch/internal/storage"
)

// Sync walks the library and brings the catalog up to date:
//   - new/changed files are parsed and upserted
//   - files removed from disk are deleted from the catalog
func Sync(db *DB, store storage.Provider, logger *slog.Logger) error {
	metas, err := store.List("")
	if err != nil {
		return err
	}

	checksums, err := db.AllChecksums()
	if err != nil {
		return err
	}

	disk := make(map[string]struct{}, len(metas))
	for _, m := range metas {
		disk[m.Path] = struct{}{}

		if checksums[m.Path] == m.Checksum {
			continue
		}

		data, err := store.Read(m.Path)
		if err != nil {
			logger.Warn("sync: read failed", slog.String("path", m.Path), slog.String("error", err.Error()))
			continue
		}
		if err := indexFile(db, m.Path, data); err != nil {
			logger.Warn("sync: catalog failed", slog.String("path", m.Path), slog.String("error", err.Error()))
		} else {
			logger.Debug("sync: catalogued", slog.String("path", m.Path))
		}
	}

	for p := range checksums {
		if _, ok := disk[p]; !ok {
			if err := db.DeleteFile(p); err != nil {
				logger.Warn("sync: delete failed", slog.String("path", p), slog.String("error", err.Error()))
			} else {
				logger.Debug("sync: removed stale", slog.String("path", p))
			}
		}
	}

	return nil
}

// GenomeRows converts parsed genomes of one file into catalog rows.
func GenomeRows(path string, genomes []*genome.Genome) []GenomeRow {
	rows := make([]GenomeRow, len(genomes))
	for i, g := range genomes {
		rows[i] = GenomeRow{Path: path, Ordinal: i, Name: g.Name(), Length: g.Len()}
	}
	return rows
}

// indexFile decompresses and parses data and upserts it into the DB.
func indexFile(db *DB, path string, data []byte) error {
	plain, err := storage.Decompress(path, data)
	if err != nil {
		return err
	}
	genomes, err := genome.Load(bytes.NewReader(plain))
	if err != nil {
		return err
	}
	file := FileRow{Path: path, Checksum: checksum.Sum(data), UpdatedAt: time.Now().UTC()}
	return db.UpsertFile(file, GenomeRows(path, genomes))
}
