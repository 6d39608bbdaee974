package genome

import (
	"bufio"
	"bytes"
	"fmt"
	"io"

	"github.com/starford/genomatch/internal/apperr"
)

const headerMarker = '>'

// Load parses FASTA records from r. Every record is a '>' name line followed
// by one or more data lines of A/C/G/T/N (any case). Blank lines, empty names,
// records without data, data before the first name line and foreign symbols
// are rejected with apperr.ErrInvalidFormat; nothing is returned on failure.
func Load(r io.Reader) ([]*Genome, error) {
	br := bufio.NewReader(r)

	var (
		out     []*Genome
		name    string
		seq     []byte
		inRec   bool
		hasData bool
		lineNo  int
	)

	flush := func() {
		out = append(out, New(name, seq))
		seq = seq[:0]
	}

	for {
		line, err := br.ReadBytes('\n')
		if err != nil && err != io.EOF {
			return nil, fmt.Errorf("genome: read: %w", err)
		}
		eof := err == io.EOF
		if eof && len(line) == 0 {
			break
		}
		lineNo++
		line = bytes.TrimSuffix(line, []byte("\n"))
		line = bytes.TrimSuffix(line, []byte("\r"))

		switch {
		case len(line) == 0:
			return nil, formatErr(lineNo, "blank line")

		case line[0] == headerMarker:
			if len(line) == 1 {
				return nil, formatErr(lineNo, "empty name")
			}
			if inRec {
				if !hasData {
					return nil, formatErr(lineNo, "record %q has no sequence", name)
				}
				flush()
			}
			name = string(line[1:])
			inRec, hasData = true, false

		default:
			if !inRec {
				return nil, formatErr(lineNo, "sequence data before first name line")
			}
			for i, c := range line {
				u := upper(c)
				if !IsBase(u) {
					return nil, formatErr(lineNo, "invalid symbol %q at column %d", c, i+1)
				}
				seq = append(seq, u)
			}
			hasData = true
		}

		if eof {
			break
		}
	}

	if inRec {
		if !hasData {
			return nil, formatErr(lineNo, "record %q has no sequence", name)
		}
		flush()
	}
	return out, nil
}

func formatErr(line int, format string, args ...any) error {
	return fmt.Errorf("genome: line %d: %s: %w", line, fmt.Sprintf(format, args...), apperr.ErrInvalidFormat)
}
