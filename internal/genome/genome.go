// Package genome holds named DNA sequences and the FASTA loader that produces them.
package genome

import (
	"fmt"

	"github.com/starford/genomatch/internal/apperr"
)

// Genome is an immutable named sequence over the A/C/G/T/N alphabet.
type Genome struct {
	name  string
	bases []byte
}

// New returns a Genome holding its own copy of bases.
func New(name string, bases []byte) *Genome {
	b := make([]byte, len(bases))
	copy(b, bases)
	return &Genome{name: name, bases: b}
}

// Name returns the genome name.
func (g *Genome) Name() string { return g.name }

// Len returns the number of bases.
func (g *Genome) Len() int { return len(g.bases) }

// Bases returns the underlying bases. Callers must not modify the result.
func (g *Genome) Bases() []byte { return g.bases }

// Extract returns n bases starting at pos. It fails with apperr.ErrOutOfRange
// when the window does not lie entirely within the genome.
func (g *Genome) Extract(pos, n int) (string, error) {
	if pos < 0 || n < 0 || pos+n > len(g.bases) {
		return "", fmt.Errorf("genome: extract %s[%d:+%d] of %d: %w", g.name, pos, n, len(g.bases), apperr.ErrOutOfRange)
	}
	return string(g.bases[pos : pos+n]), nil
}

// IsBase reports whether c is one of the upper-case symbols A, C, G, T, N.
func IsBase(c byte) bool {
	switch c {
	case 'A', 'C', 'G', 'T', 'N':
		return true
	}
	return false
}

// Normalize upper-cases s and checks every symbol against the alphabet.
func Normalize(s string) (string, error) {
	out := make([]byte, len(s))
	for i := 0; i < len(s); i++ {
		c := upper(s[i])
		if !IsBase(c) {
			return "", fmt.Errorf("genome: symbol %q at offset %d: %w", s[i], i, apperr.ErrInvalidArgument)
		}
		out[i] = c
	}
	return string(out), nil
}

func upper(c byte) byte {
	if c >= 'a' && c <= 'z' {
		return c - ('a' - 'A')
	}
	return c
}
