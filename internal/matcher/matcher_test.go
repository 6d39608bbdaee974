package matcher

import (
	"errors"
	"testing"

	"github.com/starford/genomatch/internal/apperr"
	"github.com/starford/genomatch/internal/genome"
)

func newMatcher(t *testing.T, k int, seqs map[string]string, order ...string) *Matcher {
	t.Helper()
	m := New(k)
	for _, name := range order {
		m.AddGenome(genome.New(name, []byte(seqs[name])))
	}
	return m
}

func TestMinimumSearchLength(t *testing.T) {
	if got := New(7).MinimumSearchLength(); got != 7 {
		t.Errorf("MinimumSearchLength = %d, want 7", got)
	}
}

func TestNew_ClampsMinimumSearchLength(t *testing.T) {
	for _, k := range []int{0, -3} {
		m := New(k)
		if got := m.MinimumSearchLength(); got != 1 {
			t.Errorf("New(%d).MinimumSearchLength = %d, want 1", k, got)
		}
		m.AddGenome(genome.New("Rose", []byte("ACGT")))
		got, err := m.FindGenomesWithThisDNA("CG", 1, true)
		if err != nil {
			t.Fatalf("New(%d): FindGenomesWithThisDNA: %v", k, err)
		}
		if got[0] != (DNAMatch{GenomeName: "Rose", Position: 1, Length: 2}) {
			t.Errorf("New(%d): match = %+v", k, got[0])
		}
	}
}

func TestAddGenome_IndexesEveryWindow(t *testing.T) {
	m := New(4)
	m.AddGenome(genome.New("Rose", []byte("ACGTACGTTT")))
	if m.Keys() != 7 {
		t.Errorf("Keys = %d, want 7", m.Keys())
	}
	m.AddGenome(genome.New("Tiny", []byte("ACG")))
	if m.Keys() != 7 {
		t.Errorf("short genome added windows: Keys = %d", m.Keys())
	}
	if len(m.Genomes()) != 2 {
		t.Errorf("short genome not registered: %d genomes", len(m.Genomes()))
	}
}

func TestFindFragment_ExactScenario(t *testing.T) {
	m := newMatcher(t, 4, map[string]string{"Rose": "ACGTACGTTT"}, "Rose")

	got, err := m.FindGenomesWithThisDNA("ACGT", 4, true)
	if err != nil {
		t.Fatalf("FindGenomesWithThisDNA: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("len = %d, want 1: %+v", len(got), got)
	}
	if got[0].GenomeName != "Rose" || got[0].Length < 4 || got[0].Position != 0 {
		t.Errorf("match = %+v, want Rose at 0 with length >= 4", got[0])
	}
}

func TestFindFragment_SNPScenario(t *testing.T) {
	m := newMatcher(t, 4, map[string]string{"Rose": "ACGTACGTTT"}, "Rose")

	got, err := m.FindGenomesWithThisDNA("ACTT", 4, false)
	if err != nil {
		t.Fatalf("tolerant search: %v", err)
	}
	if len(got) != 1 || got[0].GenomeName != "Rose" || got[0].Length != 4 {
		t.Errorf("tolerant match = %+v", got)
	}

	_, err = m.FindGenomesWithThisDNA("ACTT", 4, true)
	if !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("exact search err = %v, want ErrNotFound", err)
	}
}

func TestFindFragment_FirstSymbolNeverSubstituted(t *testing.T) {
	m := newMatcher(t, 4, map[string]string{"Rose": "ACGTACGTTT"}, "Rose")
	if _, err := m.FindGenomesWithThisDNA("TCGT", 4, false); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestFindFragment_KeepsLongestThenLeftmost(t *testing.T) {
	m := newMatcher(t, 4, map[string]string{
		"X": "ACGTGGACGTAC",
		"Y": "ACGTCCACGTCC",
	}, "X", "Y")

	got, err := m.FindGenomesWithThisDNA("ACGTAC", 4, true)
	if err != nil {
		t.Fatalf("FindGenomesWithThisDNA: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("want one entry per genome, got %+v", got)
	}
	// X: anchor at 0 extends to 4, anchor at 6 extends to 6.
	if got[0] != (DNAMatch{GenomeName: "X", Position: 6, Length: 6}) {
		t.Errorf("X = %+v", got[0])
	}
	// Y: both anchors extend to 4; the leftmost wins.
	if got[1] != (DNAMatch{GenomeName: "Y", Position: 0, Length: 4}) {
		t.Errorf("Y = %+v", got[1])
	}
}

func TestFindFragment_LongestLengthCheckedFirst(t *testing.T) {
	m := newMatcher(t, 3, map[string]string{"G": "ACGTAAT"}, "G")

	// Length 6 differs only at index 5 so it wins over the exact length 5.
	got, err := m.FindGenomesWithThisDNA("ACGTAC", 3, false)
	if err != nil {
		t.Fatalf("FindGenomesWithThisDNA: %v", err)
	}
	if got[0].Length != 6 {
		t.Errorf("length = %d, want 6", got[0].Length)
	}

	got, err = m.FindGenomesWithThisDNA("ACGTAC", 3, true)
	if err != nil {
		t.Fatalf("exact: %v", err)
	}
	if got[0].Length != 5 {
		t.Errorf("exact length = %d, want 5", got[0].Length)
	}
}

func TestFindFragment_SkipsWindowsPastEnd(t *testing.T) {
	m := newMatcher(t, 4, map[string]string{"Short": "TTACGT"}, "Short")

	got, err := m.FindGenomesWithThisDNA("ACGTAA", 4, true)
	if err != nil {
		t.Fatalf("FindGenomesWithThisDNA: %v", err)
	}
	if got[0] != (DNAMatch{GenomeName: "Short", Position: 2, Length: 4}) {
		t.Errorf("match = %+v", got[0])
	}

	if _, err := m.FindGenomesWithThisDNA("ACGTAA", 5, true); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("minimum beyond genome end: err = %v, want ErrNotFound", err)
	}
}

func TestFindFragment_InvalidArguments(t *testing.T) {
	m := newMatcher(t, 4, map[string]string{"Rose": "ACGTACGTTT"}, "Rose")
	cases := []struct {
		frag string
		min  int
	}{
		{"ACGT", 3},  // minimum below k
		{"ACG", 4},   // fragment shorter than minimum
		{"ACGTA", 6}, // fragment shorter than minimum
	}
	for _, c := range cases {
		if _, err := m.FindGenomesWithThisDNA(c.frag, c.min, true); !errors.Is(err, apperr.ErrInvalidArgument) {
			t.Errorf("(%q, %d): err = %v, want ErrInvalidArgument", c.frag, c.min, err)
		}
	}
}

func TestFindRelated_Scenario(t *testing.T) {
	m := newMatcher(t, 4, map[string]string{"A": "ACGTACGT", "B": "TTTTTTTT"}, "A", "B")

	got, err := m.FindRelatedGenomes(genome.New("q", []byte("ACGTACGT")), 4, true, 50)
	if err != nil {
		t.Fatalf("FindRelatedGenomes: %v", err)
	}
	if len(got) != 1 || got[0] != (GenomeMatch{GenomeName: "A", PercentMatch: 100}) {
		t.Errorf("got %+v, want [{A 100}]", got)
	}
}

func TestFindRelated_RankingAndPercent(t *testing.T) {
	seqs := map[string]string{
		"g1": "AAAACCCC",
		"b2": "CCCCGGGG",
		"a3": "GGGGTTTT",
		"z":  "AAAACCCCGGGG",
	}
	query := genome.New("q", []byte("AAAACCCCGGGGTT")) // three chunks, remainder dropped

	for _, workers := range []int{1, 4} {
		m := New(4, WithWorkers(workers))
		for _, n := range []string{"g1", "b2", "a3", "z"} {
			m.AddGenome(genome.New(n, []byte(seqs[n])))
		}
		got, err := m.FindRelatedGenomes(query, 4, true, 30)
		if err != nil {
			t.Fatalf("workers=%d: %v", workers, err)
		}
		want := []GenomeMatch{
			{"z", 100},
			{"b2", float64(2) * 100 / 3},
			{"g1", float64(2) * 100 / 3},
			{"a3", float64(1) * 100 / 3},
		}
		if len(got) != len(want) {
			t.Fatalf("workers=%d: got %+v", workers, got)
		}
		for i := range want {
			if got[i] != want[i] {
				t.Errorf("workers=%d: [%d] = %+v, want %+v", workers, i, got[i], want[i])
			}
		}
	}
}

func TestFindRelated_ZeroThresholdIncludesUnindexed(t *testing.T) {
	m := newMatcher(t, 4, map[string]string{"A": "ACGTACGT", "Tiny": "AC"}, "A", "Tiny")
	got, err := m.FindRelatedGenomes(genome.New("q", []byte("ACGT")), 4, true, 0)
	if err != nil {
		t.Fatalf("FindRelatedGenomes: %v", err)
	}
	if len(got) != 2 || got[1] != (GenomeMatch{GenomeName: "Tiny", PercentMatch: 0}) {
		t.Errorf("got %+v", got)
	}
}

func TestFindRelated_Failures(t *testing.T) {
	m := newMatcher(t, 4, map[string]string{"A": "ACGTACGT"}, "A")

	if _, err := m.FindRelatedGenomes(genome.New("q", []byte("ACGTACGT")), 3, true, 0); !errors.Is(err, apperr.ErrInvalidArgument) {
		t.Errorf("fragment length below k: err = %v", err)
	}
	if _, err := m.FindRelatedGenomes(genome.New("q", []byte("ACG")), 4, true, 0); !errors.Is(err, apperr.ErrInvalidArgument) {
		t.Errorf("no chunks: err = %v", err)
	}
	if _, err := m.FindRelatedGenomes(genome.New("q", []byte("TTTTTTTT")), 4, true, 10); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("nothing above threshold: err = %v", err)
	}
}

func TestReset(t *testing.T) {
	m := newMatcher(t, 4, map[string]string{"Rose": "ACGTACGTTT"}, "Rose")
	m.Reset()
	if len(m.Genomes()) != 0 || m.Keys() != 0 {
		t.Fatalf("Reset left %d genomes, %d keys", len(m.Genomes()), m.Keys())
	}
	if _, err := m.FindGenomesWithThisDNA("ACGT", 4, true); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("err after Reset = %v", err)
	}
}
