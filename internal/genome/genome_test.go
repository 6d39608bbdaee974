package genome

import (
	"errors"
	"strings"
	"testing"

	"github.com/starford/genomatch/internal/apperr"
)

func TestNew_CopiesInput(t *testing.T) {
	src := []byte("ACGT")
	g := New("Rose", src)
	src[0] = 'T'
	if got, _ := g.Extract(0, 4); got != "ACGT" {
		t.Errorf("genome mutated through caller slice: %q", got)
	}
	if g.Name() != "Rose" || g.Len() != 4 {
		t.Errorf("name/len = %q/%d", g.Name(), g.Len())
	}
}

func TestExtract(t *testing.T) {
	g := New("Rose", []byte("ACGTACGTTT"))
	cases := []struct {
		pos, n int
		want   string
		ok     bool
	}{
		{0, 4, "ACGT", true},
		{6, 4, "GTTT", true},
		{10, 0, "", true},
		{7, 4, "", false},
		{-1, 2, "", false},
		{0, -1, "", false},
	}
	for _, c := range cases {
		got, err := g.Extract(c.pos, c.n)
		if c.ok {
			if err != nil || got != c.want {
				t.Errorf("Extract(%d,%d) = %q, %v; want %q", c.pos, c.n, got, err, c.want)
			}
			continue
		}
		if !errors.Is(err, apperr.ErrOutOfRange) {
			t.Errorf("Extract(%d,%d) err = %v, want ErrOutOfRange", c.pos, c.n, err)
		}
	}
}

func TestNormalize(t *testing.T) {
	got, err := Normalize("acgtN")
	if err != nil || got != "ACGTN" {
		t.Fatalf("Normalize = %q, %v", got, err)
	}
	if _, err := Normalize("ACXT"); !errors.Is(err, apperr.ErrInvalidArgument) {
		t.Errorf("expected ErrInvalidArgument, got %v", err)
	}
}

func TestLoad_MultipleRecords(t *testing.T) {
	in := ">Rose\nACGTacgt\nNN\n>Tulip  flower\nTTTT\n"
	gs, err := Load(strings.NewReader(in))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(gs) != 2 {
		t.Fatalf("len = %d, want 2", len(gs))
	}
	if gs[0].Name() != "Rose" || string(gs[0].Bases()) != "ACGTACGTNN" {
		t.Errorf("first = %q %q", gs[0].Name(), gs[0].Bases())
	}
	if gs[1].Name() != "Tulip  flower" || string(gs[1].Bases()) != "TTTT" {
		t.Errorf("second = %q %q", gs[1].Name(), gs[1].Bases())
	}
}

func TestLoad_NoTrailingNewlineAndCRLF(t *testing.T) {
	gs, err := Load(strings.NewReader(">a\r\nAC\r\nGT"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(gs) != 1 || string(gs[0].Bases()) != "ACGT" || gs[0].Name() != "a" {
		t.Errorf("got %+v", gs)
	}
}

func TestLoad_Empty(t *testing.T) {
	gs, err := Load(strings.NewReader(""))
	if err != nil || len(gs) != 0 {
		t.Errorf("empty input = %v, %v", gs, err)
	}
}

func TestLoad_FormatViolations(t *testing.T) {
	cases := map[string]string{
		"blank line":        ">a\nACGT\n\n>b\nAC\n",
		"empty name":        ">\nACGT\n",
		"data first":        "ACGT\n>a\nAC\n",
		"record no data":    ">a\n>b\nACGT\n",
		"trailing no data":  ">a\nACGT\n>b\n",
		"bad symbol":        ">a\nACGU\n",
		"whitespace in seq": ">a\nAC GT\n",
	}
	for name, in := range cases {
		gs, err := Load(strings.NewReader(in))
		if !errors.Is(err, apperr.ErrInvalidFormat) {
			t.Errorf("%s: err = %v, want ErrInvalidFormat", name, err)
		}
		if gs != nil {
			t.Errorf("%s: partial result returned", name)
		}
	}
}
