package mcpserver

// FASTAFormatContract describes the FASTA dialect accepted by the genome
// library. LLM consumers should follow it when adding genome files.
const FASTAFormatContract = `# genomatch FASTA Format Contract

Every genome file in the library MUST be strict FASTA as described here.
Files that break a rule are skipped when the index is rebuilt and reported
by the get_status tool.

## Structure

` + "```" + `
>Rosa canina
ACGTACGTTTGACA
GGCATN
>Rosa gallica
TTGACAGGCA
` + "```" + `

## Rules

1. **Name lines** start with ` + "`" + `>` + "`" + ` followed by a non-empty genome name. The name is
   the rest of the line, spaces included.
2. **Sequence lines** follow their name line. Consecutive lines are concatenated.
3. **Alphabet** is A, C, G, T and N. Lower case is accepted and stored upper case.
   Any other symbol (gaps, IUPAC ambiguity codes, digits) rejects the file.
4. **Every record has sequence data.** A name line directly followed by another
   name line, or a name line at the end of the file, rejects the file.
5. **No blank lines** anywhere, and no sequence data before the first name line.
6. **Line endings** may be LF or CRLF. A final newline is optional.
7. **Names should be unique** across the library. Lookups by name return the
   first genome in path order.

## Files

- Extensions: ` + "`" + `.fa` + "`" + `, ` + "`" + `.fasta` + "`" + `, ` + "`" + `.fna` + "`" + `, ` + "`" + `.ffn` + "`" + `, ` + "`" + `.fas` + "`" + `.
- Optionally compressed, with the codec suffix after the FASTA extension:
  ` + "`" + `.fa.gz` + "`" + ` (gzip), ` + "`" + `.fa.zst` + "`" + ` (zstd), ` + "`" + `.fa.lz4` + "`" + ` (lz4 frame).
- Paths are relative to the library root and use forward slashes.
- Add files with the ` + "`" + `add_genome_file` + "`" + ` tool, from an http(s) URL or a base64
  ` + "`" + `data:` + "`" + ` URI. Existing files are never overwritten.

## Searching

- Fragments shorter than the index minimum search length cannot be searched.
- With ` + "`" + `exact_only` + "`" + ` false a single substitution is tolerated anywhere except the
  first base of the fragment.
`
