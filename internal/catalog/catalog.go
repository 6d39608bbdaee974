package catalog

// GenomeCatalog defines the catalog operations used by the library service.
// Consumers should depend on this interface rather than the concrete *DB type
// to facilitate testing with mocks.
type GenomeCatalog interface {
	UpsertFile(f FileRow, genomes []GenomeRow) error
	DeleteFile(path string) error
	GetChecksum(path string) (string, error)
	AllChecksums() (map[string]string, error)
	ListFiles() ([]FileRow, error)
	ListGenomes(limit, offset int) ([]GenomeRow, int, error)
	GetGenome(name string) (*GenomeRow, error)
	SearchNames(query string, limit int) ([]GenomeRow, error)
	Close() error
}

// Verify *DB satisfies GenomeCatalog at compile time.
var _ GenomeCatalog = (*DB)(nil)
