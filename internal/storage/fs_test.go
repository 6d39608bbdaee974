package storage

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"

	"github.com/starford/genomatch/internal/apperr"
)

const sampleFASTA = ">Rose\nACGTACGTTT\n"

func tempLibrary(t *testing.T) *FS {
	t.Helper()
	dir := t.TempDir()
	fs, err := NewFS(dir)
	if err != nil {
		t.Fatalf("NewFS: %v", err)
	}
	return fs
}

func TestWriteAndRead(t *testing.T) {
	s := tempLibrary(t)
	if err := s.Write("rose.fa", []byte(sampleFASTA)); err != nil {
		t.Fatalf("Write: %v", err)
	}
	got, err := s.Read("rose.fa")
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if string(got) != sampleFASTA {
		t.Errorf("content mismatch: got %q", got)
	}
}

func TestWriteCreatesSubdirs(t *testing.T) {
	s := tempLibrary(t)
	if err := s.Write("plants/flowers/rose.fasta", []byte(sampleFASTA)); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if _, err := s.Read("plants/flowers/rose.fasta"); err != nil {
		t.Fatalf("Read: %v", err)
	}
}

func TestDelete(t *testing.T) {
	s := tempLibrary(t)
	_ = s.Write("del.fa", []byte(sampleFASTA))
	if err := s.Delete("del.fa"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := s.Read("del.fa"); err == nil {
		t.Error("expected error reading deleted file")
	}
}

func TestList_OnlyFASTASorted(t *testing.T) {
	s := tempLibrary(t)
	_ = s.Write("b.fa", []byte(sampleFASTA))
	_ = s.Write("sub/a.fna.gz", []byte("x"))
	_ = s.Write("readme.txt", []byte("not fasta"))
	_ = s.Write("notes.md", []byte("# no"))

	items, err := s.List("")
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("len = %d, want 2: %+v", len(items), items)
	}
	if items[0].Path != "b.fa" || items[1].Path != "sub/a.fna.gz" {
		t.Errorf("paths = %q, %q", items[0].Path, items[1].Path)
	}
	if items[0].Checksum == "" {
		t.Error("missing checksum")
	}
}

func TestTraversalBlocked(t *testing.T) {
	s := tempLibrary(t)
	for _, p := range []string{"../../etc/passwd", "../outside.fa", "/etc/shadow"} {
		if _, err := s.Read(p); err == nil {
			t.Errorf("expected error for path %q", p)
		}
		if err := s.Write(p, []byte("x")); err == nil {
			t.Errorf("expected error for write to %q", p)
		}
	}
}

func TestAtomicWriteLeavesNoTempFiles(t *testing.T) {
	s := tempLibrary(t)
	_ = s.Write("atomic.fa", []byte(">a\nAC\n"))
	if err := s.Write("atomic.fa", []byte(sampleFASTA)); err != nil {
		t.Fatalf("Write: %v", err)
	}
	got, _ := s.Read("atomic.fa")
	if string(got) != sampleFASTA {
		t.Errorf("expected updated content, got %q", got)
	}
	matches, _ := filepath.Glob(filepath.Join(s.Root(), ".genomatch-tmp-*"))
	if len(matches) != 0 {
		t.Errorf("leftover temp files: %v", matches)
	}
}

func TestNewFS_Errors(t *testing.T) {
	if _, err := NewFS("/tmp/genomatch-does-not-exist-" + t.Name()); err == nil {
		t.Error("expected error for non-existent dir")
	}
	f, _ := os.CreateTemp("", "genomatch-test-*")
	_ = f.Close()
	defer os.Remove(f.Name())
	if _, err := NewFS(f.Name()); err == nil {
		t.Error("expected error when root is a file")
	}
}

func TestIsLibraryFile(t *testing.T) {
	yes := []string{"a.fa", "A.FASTA", "x/y.fna", "g.ffn.gz", "g.fas.zst", "g.fa.lz4"}
	no := []string{"a.txt", "a.gz", "fa", "a.fa.bz2", "a.md"}
	for _, n := range yes {
		if !IsLibraryFile(n) {
			t.Errorf("IsLibraryFile(%q) = false", n)
		}
	}
	for _, n := range no {
		if IsLibraryFile(n) {
			t.Errorf("IsLibraryFile(%q) = true", n)
		}
	}
}

func TestDecompress(t *testing.T) {
	var gz bytes.Buffer
	gw := gzip.NewWriter(&gz)
	_, _ = gw.Write([]byte(sampleFASTA))
	_ = gw.Close()

	enc, err := zstd.NewWriter(nil)
	if err != nil {
		t.Fatal(err)
	}
	zst := enc.EncodeAll([]byte(sampleFASTA), nil)
	_ = enc.Close()

	var lz bytes.Buffer
	lw := lz4.NewWriter(&lz)
	_, _ = lw.Write([]byte(sampleFASTA))
	_ = lw.Close()

	cases := map[string][]byte{
		"plain.fa":    []byte(sampleFASTA),
		"g.fa.gz":     gz.Bytes(),
		"z.fasta.zst": zst,
		"l.fna.lz4":   lz.Bytes(),
	}
	for name, data := range cases {
		got, err := Decompress(name, data)
		if err != nil {
			t.Errorf("%s: %v", name, err)
			continue
		}
		if string(got) != sampleFASTA {
			t.Errorf("%s: got %q", name, got)
		}
	}

	if _, err := Decompress("broken.fa.gz", []byte("not gzip")); err == nil {
		t.Error("expected error for corrupt gzip")
	}
}

func TestList_SkipsHiddenDirs(t *testing.T) {
	s := tempLibrary(t)
	_ = s.Write("a.fa", []byte(sampleFASTA))
	_ = s.Write(".trash/b.fa", []byte(sampleFASTA))

	items, err := s.List("")
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(items) != 1 || items[0].Path != "a.fa" {
		t.Errorf("items = %+v", items)
	}
}

func TestExists(t *testing.T) {
	s := tempLibrary(t)
	_ = s.Write("plants/rose.fa", []byte(sampleFASTA))

	if ok, err := s.Exists("plants/rose.fa"); err != nil || !ok {
		t.Errorf("Exists(rose) = %v, %v", ok, err)
	}
	if ok, err := s.Exists("plants/tulip.fa"); err != nil || ok {
		t.Errorf("Exists(tulip) = %v, %v", ok, err)
	}
	if _, err := s.Exists("plants"); !errors.Is(err, apperr.ErrConflict) {
		t.Errorf("Exists(dir) err = %v, want ErrConflict", err)
	}
	if _, err := s.Exists("../x.fa"); !errors.Is(err, apperr.ErrInvalidArgument) {
		t.Errorf("Exists(traversal) err = %v, want ErrInvalidArgument", err)
	}
}

func TestDecompress_RejectsOversizedOutput(t *testing.T) {
	plain := append([]byte(">Poly\n"), bytes.Repeat([]byte("A"), 4<<20)...)

	var gz bytes.Buffer
	gw := gzip.NewWriter(&gz)
	_, _ = gw.Write(plain)
	_ = gw.Close()

	enc, err := zstd.NewWriter(nil)
	if err != nil {
		t.Fatal(err)
	}
	zst := enc.EncodeAll(plain, nil)
	_ = enc.Close()

	var lz bytes.Buffer
	lw := lz4.NewWriter(&lz)
	_, _ = lw.Write(plain)
	_ = lw.Close()

	cases := map[string][]byte{
		"poly.fa.gz":     gz.Bytes(),
		"poly.fasta.zst": zst,
		"poly.fna.lz4":   lz.Bytes(),
	}
	for name, data := range cases {
		if len(data) > len(plain)/10 {
			t.Fatalf("%s: %d compressed bytes, expected a high ratio", name, len(data))
		}
		if _, err := DecompressLimit(name, data, 1<<20); !errors.Is(err, apperr.ErrInvalidFormat) {
			t.Errorf("%s: err = %v, want ErrInvalidFormat", name, err)
		}
		got, err := DecompressLimit(name, data, int64(len(plain)))
		if err != nil {
			t.Errorf("%s at exact limit: %v", name, err)
			continue
		}
		if len(got) != len(plain) {
			t.Errorf("%s: got %d bytes, want %d", name, len(got), len(plain))
		}
	}
}

func TestDecompress_PlainIgnoresLimit(t *testing.T) {
	got, err := DecompressLimit("big.fa", []byte(sampleFASTA), 1)
	if err != nil || string(got) != sampleFASTA {
		t.Errorf("got %q, %v", got, err)
	}
}
