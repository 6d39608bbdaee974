package storage

import (
	"bytes"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"

	"github.com/starford/genomatch/internal/apperr"
)

var fastaExtensions = map[string]bool{
	".fa": true, ".fasta": true, ".fna": true, ".ffn": true, ".fas": true,
}

// compression suffixes recognised after a FASTA extension.
const (
	extGzip = ".gz"
	extZstd = ".zst"
	extLZ4  = ".lz4"
)

// MaxPlainSize bounds the decompressed size of a library file.
const MaxPlainSize int64 = 256 << 20

func splitCompression(name string) (base, comp string) {
	lower := strings.ToLower(name)
	for _, c := range []string{extGzip, extZstd, extLZ4} {
		if strings.HasSuffix(lower, c) {
			return lower[:len(lower)-len(c)], c
		}
	}
	return lower, ""
}

// IsLibraryFile reports whether name looks like a FASTA file, optionally
// compressed with gzip, zstd or lz4.
func IsLibraryFile(name string) bool {
	base, _ := splitCompression(path.Base(name))
	return fastaExtensions[path.Ext(base)]
}

// Decompress returns the plain FASTA text of a library file, choosing the
// codec from the file name. Compressed input expanding past MaxPlainSize is
// rejected.
func Decompress(name string, data []byte) ([]byte, error) {
	return DecompressLimit(name, data, MaxPlainSize)
}

// DecompressLimit is Decompress with an explicit bound on the decompressed
// size. Uncompressed data is returned as is. Corrupt or oversized input
// yields apperr.ErrInvalidFormat.
func DecompressLimit(name string, data []byte, limit int64) ([]byte, error) {
	_, comp := splitCompression(path.Base(name))
	var r io.Reader
	switch comp {
	case "":
		return data, nil
	case extGzip:
		zr, err := gzip.NewReader(bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("storage: gzip %s: %w: %w", name, apperr.ErrInvalidFormat, err)
		}
		defer zr.Close()
		r = zr
	case extZstd:
		zr, err := zstd.NewReader(bytes.NewReader(data),
			zstd.WithDecoderConcurrency(1),
			zstd.WithDecoderMaxMemory(uint64(limit)+1),
		)
		if err != nil {
			return nil, fmt.Errorf("storage: zstd %s: %w: %w", name, apperr.ErrInvalidFormat, err)
		}
		defer zr.Close()
		r = zr
	case extLZ4:
		r = lz4.NewReader(bytes.NewReader(data))
	default:
		return nil, fmt.Errorf("storage: unsupported compression %q", comp)
	}

	out, err := io.ReadAll(io.LimitReader(r, limit+1))
	if err != nil {
		return nil, fmt.Errorf("storage: %s %s: %w: %w", strings.TrimPrefix(comp, "."), name, apperr.ErrInvalidFormat, err)
	}
	if int64(len(out)) > limit {
		return nil, fmt.Errorf("storage: %s expands past %d bytes: %w", name, limit, apperr.ErrInvalidFormat)
	}
	return out, nil
}
