// Package matcher answers fragment and whole-genome similarity queries over a
// set of registered genomes, anchored on a trie of fixed-length windows.
package matcher

import (
	"fmt"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/starford/genomatch/internal/apperr"
	"github.com/starford/genomatch/internal/genome"
	"github.com/starford/genomatch/internal/trie"
)

// DNAMatch is the longest accepted extension of a fragment inside one genome.
type DNAMatch struct {
	GenomeName string `json:"genome_name"`
	Position   int    `json:"position"`
	Length     int    `json:"length"`
}

// GenomeMatch is the share of query chunks found in one genome.
type GenomeMatch struct {
	GenomeName   string  `json:"genome_name"`
	PercentMatch float64 `json:"percent_match"`
}

// record locates one k-length window: which genome and where it starts.
type record struct {
	genome int
	pos    int
}

// Matcher indexes genomes by every window of its minimum search length.
//
// Registration and queries are separate phases: AddGenome and Reset must not
// run concurrently with each other or with any query. Queries may run
// concurrently with one another.
type Matcher struct {
	k       int
	workers int
	genomes []*genome.Genome
	index   *trie.Trie[record]
}

// Option configures a Matcher.
type Option func(*Matcher)

// WithWorkers bounds the number of chunks FindRelatedGenomes evaluates at once.
func WithWorkers(n int) Option {
	return func(m *Matcher) {
		if n > 0 {
			m.workers = n
		}
	}
}

// New returns an empty Matcher whose windows are minSearchLength long.
// Values below 1 are raised to 1.
func New(minSearchLength int, opts ...Option) *Matcher {
	if minSearchLength < 1 {
		minSearchLength = 1
	}
	m := &Matcher{
		k:       minSearchLength,
		workers: 1,
		index:   trie.New[record](),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// MinimumSearchLength returns k.
func (m *Matcher) MinimumSearchLength() int { return m.k }

// Genomes returns the registered genomes in registration order.
func (m *Matcher) Genomes() []*genome.Genome { return m.genomes }

// Keys returns the number of indexed windows.
func (m *Matcher) Keys() int { return m.index.Len() }

// Reset forgets every registered genome.
func (m *Matcher) Reset() {
	m.genomes = nil
	m.index.Reset()
}

// AddGenome registers g and indexes each of its k-length windows. Genomes
// shorter than k are registered without windows.
func (m *Matcher) AddGenome(g *genome.Genome) {
	id := len(m.genomes)
	bases := g.Bases()
	for i := 0; i+m.k <= len(bases); i++ {
		m.index.Insert(string(bases[i:i+m.k]), record{genome: id, pos: i})
	}
	m.genomes = append(m.genomes, genome.New(g.Name(), bases))
}

// FindGenomesWithThisDNA reports, per genome, the longest prefix of fragment
// (at least minimumLength long) found in that genome. With exactOnly false a
// single substitution is tolerated anywhere but the first symbol.
func (m *Matcher) FindGenomesWithThisDNA(fragment string, minimumLength int, exactOnly bool) ([]DNAMatch, error) {
	if len(fragment) < minimumLength || minimumLength < m.k {
		return nil, fmt.Errorf("matcher: fragment length %d, minimum length %d, k %d: %w",
			len(fragment), minimumLength, m.k, apperr.ErrInvalidArgument)
	}

	anchors := m.index.Find(fragment[:m.k], exactOnly)
	if len(anchors) == 0 {
		return nil, fmt.Errorf("matcher: no anchor for %q: %w", fragment[:m.k], apperr.ErrNotFound)
	}

	var out []DNAMatch
	best := make(map[string]int) // genome name -> index into out
	for _, rec := range anchors {
		g := m.genomes[rec.genome]
		n, ok := extend(g, rec.pos, fragment, minimumLength, exactOnly)
		if !ok {
			continue
		}
		cand := DNAMatch{GenomeName: g.Name(), Position: rec.pos, Length: n}
		i, seen := best[cand.GenomeName]
		if !seen {
			best[cand.GenomeName] = len(out)
			out = append(out, cand)
			continue
		}
		if better(cand, out[i]) {
			out[i] = cand
		}
	}

	if len(out) == 0 {
		return nil, fmt.Errorf("matcher: no genome holds %d bases of fragment: %w", minimumLength, apperr.ErrNotFound)
	}
	return out, nil
}

func better(a, b DNAMatch) bool {
	if a.Length != b.Length {
		return a.Length > b.Length
	}
	return a.Position < b.Position
}

// FindRelatedGenomes splits query into disjoint fragmentLength chunks, searches
// each one, and returns every genome holding at least matchPercentThreshold
// percent of the chunks, best first and then by name.
func (m *Matcher) FindRelatedGenomes(query *genome.Genome, fragmentLength int, exactOnly bool, matchPercentThreshold float64) ([]GenomeMatch, error) {
	if fragmentLength < m.k {
		return nil, fmt.Errorf("matcher: fragment length %d below k %d: %w", fragmentLength, m.k, apperr.ErrInvalidArgument)
	}
	chunks := query.Len() / fragmentLength
	if chunks == 0 {
		return nil, fmt.Errorf("matcher: query of %d bases has no %d-base chunk: %w",
			query.Len(), fragmentLength, apperr.ErrInvalidArgument)
	}

	perChunk := make([][]DNAMatch, chunks)
	var g errgroup.Group
	g.SetLimit(m.workers)
	for i := 0; i < chunks; i++ {
		g.Go(func() error {
			frag, err := query.Extract(i*fragmentLength, fragmentLength)
			if err != nil {
				return err
			}
			// A chunk without hits simply counts as unmatched.
			matches, _ := m.FindGenomesWithThisDNA(frag, fragmentLength, exactOnly)
			perChunk[i] = matches
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("matcher: chunk query: %w", err)
	}

	hits := make(map[string]int)
	for _, ms := range perChunk {
		for _, dm := range ms {
			hits[dm.GenomeName]++
		}
	}

	var out []GenomeMatch
	for _, gen := range m.genomes {
		pct := float64(hits[gen.Name()]) * 100 / float64(chunks)
		if pct >= matchPercentThreshold {
			out = append(out, GenomeMatch{GenomeName: gen.Name(), PercentMatch: pct})
		}
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("matcher: no genome reaches %.2f%%: %w", matchPercentThreshold, apperr.ErrNotFound)
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].PercentMatch != out[j].PercentMatch {
			return out[i].PercentMatch > out[j].PercentMatch
		}
		return out[i].GenomeName < out[j].GenomeName
	})
	return out, nil
}
