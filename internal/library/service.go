// Package library ties the FASTA library on disk, its SQLite catalog and the
// in-memory matcher together.
package library

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/starford/genomatch/internal/apperr"
	"github.com/starford/genomatch/internal/catalog"
	"github.com/starford/genomatch/internal/checksum"
	"github.com/starford/genomatch/internal/genome"
	"github.com/starford/genomatch/internal/matcher"
	"github.com/starford/genomatch/internal/models"
	"github.com/starford/genomatch/internal/storage"
)

// queryName labels ad-hoc sequences passed to FindRelated.
const queryName = "query"

// FileError records a library file that could not be loaded.
type FileError struct {
	Path  string `json:"path"`
	Error string `json:"error"`
}

// Status describes the most recent rebuild of the in-memory index.
type Status struct {
	Generation          string      `json:"generation"`
	Genomes             int         `json:"genomes"`
	Keys                int         `json:"keys"`
	MinimumSearchLength int         `json:"minimum_search_length"`
	BuiltAt             time.Time   `json:"built_at"`
	Errors              []FileError `json:"errors"`
}

// Option configures a Service.
type Option func(*Service)

// WithLogger sets the logger used for rebuild progress.
func WithLogger(l *slog.Logger) Option {
	return func(s *Service) { s.logger = l }
}

// WithWorkers bounds concurrent chunk evaluation in related-genome queries.
func WithWorkers(n int) Option {
	return func(s *Service) { s.workers = n }
}

// WithRebuildHook registers fn to run after every successful rebuild.
func WithRebuildHook(fn func(Status)) Option {
	return func(s *Service) { s.onRebuild = fn }
}

// Service coordinates storage, catalog and matcher operations.
//
// Rebuilds take the write lock while genomes are registered; every query
// holds the read lock, so registration and queries never interleave.
type Service struct {
	store     storage.Provider
	db        catalog.GenomeCatalog
	logger    *slog.Logger
	workers   int
	onRebuild func(Status)

	rebuildMu sync.Mutex
	// filesMu serialises AddFile and DeleteFile library writes.
	filesMu sync.Mutex
	requests  chan struct{}

	mu     sync.RWMutex
	m      *matcher.Matcher
	status Status
}

// NewService creates a library service whose matcher uses windows of
// length k. The index is empty until Rebuild is called.
func NewService(store storage.Provider, db catalog.GenomeCatalog, k int, opts ...Option) *Service {
	s := &Service{
		store:    store,
		db:       db,
		logger:   slog.Default(),
		workers:  1,
		requests: make(chan struct{}, 1),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.m = matcher.New(k, matcher.WithWorkers(s.workers))
	s.status = Status{MinimumSearchLength: k, Errors: []FileError{}}
	return s
}

// Rebuild loads every library file and re-registers all genomes in path
// order. Files that fail to load are skipped and reported in Status.Errors.
func (s *Service) Rebuild(ctx context.Context) (Status, error) {
	s.rebuildMu.Lock()
	defer s.rebuildMu.Unlock()

	start := time.Now()
	metas, err := s.store.List("")
	if err != nil {
		return Status{}, err
	}

	var loaded []*genome.Genome
	fileErrs := []FileError{}
	for _, meta := range metas {
		if err := ctx.Err(); err != nil {
			return Status{}, err
		}
		gs, err := s.loadFile(meta.Path)
		if err != nil {
			s.logger.Warn("rebuild: skipped file", slog.String("path", meta.Path), slog.String("error", err.Error()))
			fileErrs = append(fileErrs, FileError{Path: meta.Path, Error: err.Error()})
			continue
		}
		loaded = append(loaded, gs...)
	}

	s.mu.Lock()
	s.m.Reset()
	for _, g := range loaded {
		s.m.AddGenome(g)
	}
	s.status = Status{
		Generation:          uuid.NewString(),
		Genomes:             len(loaded),
		Keys:                s.m.Keys(),
		MinimumSearchLength: s.m.MinimumSearchLength(),
		BuiltAt:             time.Now().UTC(),
		Errors:              fileErrs,
	}
	st := s.status
	s.mu.Unlock()

	s.logger.Info("rebuild: finished",
		slog.String("generation", st.Generation),
		slog.Int("files", len(metas)),
		slog.Int("genomes", st.Genomes),
		slog.Int("keys", st.Keys),
		slog.Duration("took", time.Since(start)))
	if s.onRebuild != nil {
		s.onRebuild(st)
	}
	return st, nil
}

// RequestRebuild asks RunRebuilder for a rebuild without blocking.
// Requests that arrive while one is pending are merged.
func (s *Service) RequestRebuild() {
	select {
	case s.requests <- struct{}{}:
	default:
	}
}

// RunRebuilder serves RequestRebuild calls until ctx is cancelled, waiting
// for debounce of quiet before each rebuild.
func (s *Service) RunRebuilder(ctx context.Context, debounce time.Duration) error {
	var timer *time.Timer
	var fire <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			return nil
		case <-s.requests:
			if timer == nil {
				timer = time.NewTimer(debounce)
				fire = timer.C
			} else {
				timer.Reset(debounce)
			}
		case <-fire:
			if _, err := s.Rebuild(ctx); err != nil && ctx.Err() == nil {
				s.logger.Error("rebuild failed", slog.String("error", err.Error()))
			}
		}
	}
}

// Status returns a copy of the latest rebuild status.
func (s *Service) Status() Status {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st := s.status
	st.Errors = append([]FileError{}, s.status.Errors...)
	return st
}

// FindFragment reports where fragment (or its longest accepted prefix)
// occurs in each registered genome.
func (s *Service) FindFragment(_ context.Context, fragment string, minimumLength int, exactOnly bool) ([]matcher.DNAMatch, error) {
	norm, err := genome.Normalize(fragment)
	if err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.m.FindGenomesWithThisDNA(norm, minimumLength, exactOnly)
}

// FindRelated ranks registered genomes by how many fragmentLength chunks of
// sequence they contain.
func (s *Service) FindRelated(_ context.Context, sequence string, fragmentLength int, exactOnly bool, threshold float64) ([]matcher.GenomeMatch, error) {
	norm, err := genome.Normalize(sequence)
	if err != nil {
		return nil, err
	}
	q := genome.New(queryName, []byte(norm))
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.m.FindRelatedGenomes(q, fragmentLength, exactOnly, threshold)
}

// FindRelatedByName is FindRelated with a registered genome as the query.
// The query genome itself is part of the result.
func (s *Service) FindRelatedByName(_ context.Context, name string, fragmentLength int, exactOnly bool, threshold float64) ([]matcher.GenomeMatch, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	g, err := s.lookup(name)
	if err != nil {
		return nil, err
	}
	return s.m.FindRelatedGenomes(g, fragmentLength, exactOnly, threshold)
}

// Extract returns n bases of the named genome starting at pos.
func (s *Service) Extract(_ context.Context, name string, pos, n int) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	g, err := s.lookup(name)
	if err != nil {
		return "", err
	}
	return g.Extract(pos, n)
}

// lookup returns the first registered genome called name. Callers hold mu.
func (s *Service) lookup(name string) (*genome.Genome, error) {
	for _, g := range s.m.Genomes() {
		if g.Name() == name {
			return g, nil
		}
	}
	return nil, fmt.Errorf("library: genome %q: %w", name, apperr.ErrNotFound)
}

// ListGenomes returns a page of catalogued genomes and the total count.
func (s *Service) ListGenomes(_ context.Context, limit, offset int) ([]models.GenomeInfo, int, error) {
	rows, total, err := s.db.ListGenomes(limit, offset)
	if err != nil {
		return nil, 0, err
	}
	return toInfos(rows), total, nil
}

// GetGenome returns catalog information for a genome.
func (s *Service) GetGenome(_ context.Context, name string) (*models.GenomeInfo, error) {
	row, err := s.db.GetGenome(name)
	if err != nil {
		return nil, err
	}
	info := toInfo(*row)
	return &info, nil
}

// SearchNames delegates genome name search to the catalog.
func (s *Service) SearchNames(_ context.Context, query string, limit int) ([]models.GenomeInfo, error) {
	rows, err := s.db.SearchNames(query, limit)
	if err != nil {
		return nil, err
	}
	return toInfos(rows), nil
}

// ListFiles returns every catalogued library file.
func (s *Service) ListFiles(_ context.Context) ([]models.LibraryFile, error) {
	rows, err := s.db.ListFiles()
	if err != nil {
		return nil, err
	}
	out := make([]models.LibraryFile, len(rows))
	for i, r := range rows {
		out[i] = models.LibraryFile{
			Path:        r.Path,
			Checksum:    r.Checksum,
			GenomeCount: r.GenomeCount,
			TotalBases:  r.TotalBases,
			UpdatedAt:   r.UpdatedAt,
		}
	}
	return out, nil
}

// AddFile validates data as FASTA, writes it to the library under path,
// catalogs it and rebuilds the index.
func (s *Service) AddFile(ctx context.Context, path string, data []byte) (*models.LibraryFile, error) {
	if !storage.IsLibraryFile(path) {
		return nil, fmt.Errorf("library: %q is not a FASTA file name: %w", path, apperr.ErrInvalidArgument)
	}
	gs, err := parse(path, data)
	if err != nil {
		return nil, err
	}
	file, err := s.storeNew(path, data, gs)
	if err != nil {
		return nil, err
	}
	if _, err := s.Rebuild(ctx); err != nil {
		return nil, err
	}

	total := 0
	for _, g := range gs {
		total += g.Len()
	}
	return &models.LibraryFile{
		Path:        path,
		Checksum:    file.Checksum,
		GenomeCount: len(gs),
		TotalBases:  total,
		UpdatedAt:   file.UpdatedAt,
	}, nil
}

// storeNew writes a file that must not exist yet and catalogs its genomes.
func (s *Service) storeNew(path string, data []byte, gs []*genome.Genome) (catalog.FileRow, error) {
	s.filesMu.Lock()
	defer s.filesMu.Unlock()

	exists, err := s.store.Exists(path)
	if err != nil {
		return catalog.FileRow{}, err
	}
	if exists {
		return catalog.FileRow{}, fmt.Errorf("library: %s: %w", path, apperr.ErrAlreadyExists)
	}
	if err := s.store.Write(path, data); err != nil {
		return catalog.FileRow{}, err
	}

	file := catalog.FileRow{Path: path, Checksum: checksum.Sum(data), UpdatedAt: time.Now().UTC()}
	if err := s.db.UpsertFile(file, catalog.GenomeRows(path, gs)); err != nil {
		return catalog.FileRow{}, err
	}
	return file, nil
}

// DeleteFile removes a file from the library and catalog and rebuilds the index.
func (s *Service) DeleteFile(ctx context.Context, path string) error {
	if err := s.removeFile(path); err != nil {
		return err
	}
	_, err := s.Rebuild(ctx)
	return err
}

func (s *Service) removeFile(path string) error {
	s.filesMu.Lock()
	defer s.filesMu.Unlock()

	if err := s.store.Delete(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("library: %s: %w", path, apperr.ErrNotFound)
		}
		return err
	}
	return s.db.DeleteFile(path)
}

func (s *Service) loadFile(path string) ([]*genome.Genome, error) {
	data, err := s.store.Read(path)
	if err != nil {
		return nil, err
	}
	return parse(path, data)
}

// parse decompresses data according to path and loads its genomes.
func parse(path string, data []byte) ([]*genome.Genome, error) {
	plain, err := storage.Decompress(path, data)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", apperr.ErrInvalidFormat, err)
	}
	return genome.Load(bytes.NewReader(plain))
}

func toInfo(r catalog.GenomeRow) models.GenomeInfo {
	return models.GenomeInfo{Name: r.Name, Path: r.Path, Ordinal: r.Ordinal, Length: r.Length}
}

func toInfos(rows []catalog.GenomeRow) []models.GenomeInfo {
	out := make([]models.GenomeInfo, len(rows))
	for i, r := range rows {
		out[i] = toInfo(r)
	}
	return out
}
