package mcpserver

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/starford/genomatch/internal/catalog"
	"github.com/starford/genomatch/internal/library"
	"github.com/starford/genomatch/internal/matcher"
	"github.com/starford/genomatch/internal/testutil"
)

func testServer(t *testing.T) (*Server, *library.Service) {
	t.Helper()

	dir, store := testutil.TestLibrary(t)
	testutil.WriteFASTA(t, dir, "seed.fa", ">Rosa canina\nACGTACGTTT\n>Lily\nTTTTGGGGCCCC\n")
	db := testutil.TestDB(t)

	logger := slog.New(slog.NewJSONHandler(io.Discard, nil))
	if err := catalog.Sync(db, store, logger); err != nil {
		t.Fatal(err)
	}
	svc := library.NewService(store, db, 4, library.WithLogger(logger))
	if _, err := svc.Rebuild(context.Background()); err != nil {
		t.Fatal(err)
	}
	return New(svc), svc
}

func callTool(t *testing.T, srv *Server, name string, args map[string]any) *mcp.CallToolResult {
	t.Helper()
	ctx := context.Background()
	req := mcp.CallToolRequest{}
	req.Method = "tools/call"
	req.Params.Name = name
	req.Params.Arguments = args

	handlers := map[string]func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error){
		"find_fragment":        srv.findFragment,
		"find_related_genomes": srv.findRelatedGenomes,
		"list_genomes":         srv.listGenomes,
		"extract_sequence":     srv.extractSequence,
		"get_status":           srv.getStatus,
		"get_fasta_contract":   srv.getFASTAContract,
		"add_genome_file":      srv.addGenomeFile,
	}
	h, ok := handlers[name]
	if !ok {
		t.Fatalf("unknown tool: %s", name)
	}
	result, err := h(ctx, req)
	if err != nil {
		t.Fatalf("tool %s error: %v", name, err)
	}
	return result
}

func resultText(r *mcp.CallToolResult) string {
	if len(r.Content) > 0 {
		if tc, ok := r.Content[0].(mcp.TextContent); ok {
			return tc.Text
		}
	}
	return ""
}

func TestFindFragment(t *testing.T) {
	srv, _ := testServer(t)

	r := callTool(t, srv, "find_fragment", map[string]any{"fragment": "ACTT"})
	if r.IsError {
		t.Fatalf("find_fragment error: %s", resultText(r))
	}
	var matches []matcher.DNAMatch
	if err := json.Unmarshal([]byte(resultText(r)), &matches); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(matches) != 1 || matches[0].GenomeName != "Rosa canina" {
		t.Errorf("matches = %+v", matches)
	}

	r = callTool(t, srv, "find_fragment", map[string]any{"fragment": "ACTT", "exact_only": true})
	if !r.IsError {
		t.Error("expected not-found error for exact search")
	}
	r = callTool(t, srv, "find_fragment", map[string]any{})
	if !r.IsError {
		t.Error("expected error for missing fragment")
	}
}

func TestFindRelatedGenomes(t *testing.T) {
	srv, _ := testServer(t)

	r := callTool(t, srv, "find_related_genomes", map[string]any{
		"genome":     "Lily",
		"exact_only": true,
		"threshold":  float64(50),
	})
	if r.IsError {
		t.Fatalf("error: %s", resultText(r))
	}
	var matches []matcher.GenomeMatch
	_ = json.Unmarshal([]byte(resultText(r)), &matches)
	if len(matches) != 1 || matches[0].GenomeName != "Lily" || matches[0].PercentMatch != 100 {
		t.Errorf("matches = %+v", matches)
	}

	for _, args := range []map[string]any{
		{},
		{"sequence": "ACGT", "genome": "Lily"},
		{"sequence": "ACGTACGT", "threshold": float64(150)},
	} {
		if r := callTool(t, srv, "find_related_genomes", args); !r.IsError {
			t.Errorf("args %v: expected error", args)
		}
	}
}

func TestListGenomes(t *testing.T) {
	srv, _ := testServer(t)

	r := callTool(t, srv, "list_genomes", map[string]any{})
	if !strings.Contains(resultText(r), `"total": 2`) {
		t.Errorf("list = %s", resultText(r))
	}

	r = callTool(t, srv, "list_genomes", map[string]any{"query": "Lily"})
	if !strings.Contains(resultText(r), `"Lily"`) || strings.Contains(resultText(r), "Rosa") {
		t.Errorf("search = %s", resultText(r))
	}
}

func TestExtractSequence(t *testing.T) {
	srv, _ := testServer(t)

	r := callTool(t, srv, "extract_sequence", map[string]any{
		"genome": "Lily", "position": float64(4), "length": float64(4),
	})
	if got := resultText(r); got != "GGGG" {
		t.Errorf("extract = %q, want GGGG", got)
	}

	r = callTool(t, srv, "extract_sequence", map[string]any{
		"genome": "Lily", "position": float64(10), "length": float64(4),
	})
	if !r.IsError {
		t.Error("expected range error")
	}
}

func TestGetStatusAndContract(t *testing.T) {
	srv, _ := testServer(t)

	r := callTool(t, srv, "get_status", nil)
	var st library.Status
	_ = json.Unmarshal([]byte(resultText(r)), &st)
	if st.Genomes != 2 || st.MinimumSearchLength != 4 {
		t.Errorf("status = %+v", st)
	}

	r = callTool(t, srv, "get_fasta_contract", nil)
	if !strings.Contains(resultText(r), "FASTA Format Contract") {
		t.Error("contract text missing")
	}
}

func TestAddGenomeFile_DataURI(t *testing.T) {
	srv, svc := testServer(t)

	uri := "data:text/x-fasta;base64," + base64.StdEncoding.EncodeToString([]byte(">Pine\nGGGGCCCCAAAA\n"))
	r := callTool(t, srv, "add_genome_file", map[string]any{"url": uri, "filename": "pine.fa", "dir": "conifers"})
	if r.IsError {
		t.Fatalf("add error: %s", resultText(r))
	}
	if !strings.Contains(resultText(r), "conifers/pine.fa") {
		t.Errorf("result = %s", resultText(r))
	}
	if svc.Status().Genomes != 3 {
		t.Errorf("genomes = %d, want 3", svc.Status().Genomes)
	}

	// Same file again is refused.
	r = callTool(t, srv, "add_genome_file", map[string]any{"url": uri, "filename": "pine.fa", "dir": "conifers"})
	if !r.IsError {
		t.Error("expected error for existing file")
	}
}

func TestAddGenomeFile_Rejections(t *testing.T) {
	srv, _ := testServer(t)

	notFASTA := "data:text/plain;base64," + base64.StdEncoding.EncodeToString([]byte("hello"))
	gzName := "data:text/plain;base64," + base64.StdEncoding.EncodeToString([]byte(">X\nAC\n"))
	cases := []map[string]any{
		{"url": notFASTA},
		{"url": gzName, "filename": "x.fa.gz"},
		{"url": gzName, "filename": "x.txt"},
		{"url": "data:image/png;base64,AAAA"},
		{"url": "ftp://example.com/x.fa"},
		{"url": "http://127.0.0.1/x.fa"},
		{"url": "http://169.254.169.254/latest/x.fa"},
	}
	for _, args := range cases {
		if r := callTool(t, srv, "add_genome_file", args); !r.IsError {
			t.Errorf("args %v: expected error, got %s", args, resultText(r))
		}
	}
}

func TestDecodeDataURI(t *testing.T) {
	data, ext, err := decodeDataURI("data:application/gzip;base64," + base64.StdEncoding.EncodeToString([]byte{0x1f, 0x8b}))
	if err != nil {
		t.Fatalf("decodeDataURI: %v", err)
	}
	if ext != ".fa.gz" || len(data) != 2 {
		t.Errorf("ext = %q, len = %d", ext, len(data))
	}
	if _, _, err := decodeDataURI("data:text/plain,ACGT"); err == nil {
		t.Error("expected error for non-base64 URI")
	}
}

func TestFilenameHelpers(t *testing.T) {
	if got := filenameFromURL("https://example.org/data/rose.fasta.gz", ".fa.gz"); got != "rose.fasta.gz" {
		t.Errorf("filenameFromURL = %q", got)
	}
	if got := filenameFromURL("https://example.org/download?id=7", ".fa.zst"); !strings.HasSuffix(got, ".fa.zst") {
		t.Errorf("fallback name = %q", got)
	}
	if got := sanitizeFilename(`..\evil dir/ro se.fa`); got != "ro_se.fa" {
		t.Errorf("sanitizeFilename = %q", got)
	}
}
