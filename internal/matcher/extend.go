package matcher

import "github.com/starford/genomatch/internal/genome"

// extend tries lengths from len(fragment) down to minimumLength and returns
// the first one at which the genome window starting at pos agrees with the
// fragment prefix. Windows running past the end of the genome are skipped.
func extend(g *genome.Genome, pos int, fragment string, minimumLength int, exactOnly bool) (int, bool) {
	for n := len(fragment); n >= minimumLength; n-- {
		window, err := g.Extract(pos, n)
		if err != nil {
			continue
		}
		want := fragment[:n]
		if window == want {
			return n, true
		}
		if exactOnly {
			continue
		}
		if window[0] != want[0] {
			// Same start for every length, so no shorter window can qualify.
			return 0, false
		}
		if hamming(window, want) <= 1 {
			return n, true
		}
	}
	return 0, false
}

// hamming counts differing positions of two equal-length strings.
func hamming(a, b string) int {
	d := 0
	for i := 0; i < len(a); i++ {
		if a[i] != b[i] {
			d++
		}
	}
	return d
}
