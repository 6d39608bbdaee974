// Package mcpserver provides an MCP (Model Context Protocol) server
// that exposes genomatch tools for LLM integration via stdio transport.
package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/starford/genomatch/internal/library"
	"github.com/starford/genomatch/internal/matcher"
)

const contractURI = "genomatch://fasta-format"

// Server wraps the MCP server with genomatch tools.
type Server struct {
	mcp *server.MCPServer
	svc *library.Service
}

// New creates a new MCP server with all genomatch tools registered.
func New(svc *library.Service) *Server {
	s := &Server{svc: svc}

	s.mcp = server.NewMCPServer(
		"genomatch",
		"1.0.0",
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("find_fragment",
		mcp.WithDescription("Find where a DNA fragment occurs in every genome of the library. "+
			"Reports, per genome, the longest prefix of the fragment that is found, "+
			"optionally tolerating one substitution after the first base."),
		mcp.WithString("fragment", mcp.Required(), mcp.Description("DNA fragment (A, C, G, T, N)")),
		mcp.WithNumber("minimum_length", mcp.Description("Shortest accepted match; defaults to the index minimum search length")),
		mcp.WithBoolean("exact_only", mcp.Description("Reject matches with a substitution (default false)")),
	), s.findFragment)

	s.mcp.AddTool(mcp.NewTool("find_related_genomes",
		mcp.WithDescription("Rank library genomes by the share of fixed-length chunks of a query they contain. "+
			"Pass either a raw sequence or the name of a library genome."),
		mcp.WithString("sequence", mcp.Description("Query DNA sequence")),
		mcp.WithString("genome", mcp.Description("Name of a library genome to use as the query")),
		mcp.WithNumber("fragment_length", mcp.Description("Chunk length; defaults to the index minimum search length")),
		mcp.WithBoolean("exact_only", mcp.Description("Reject chunk matches with a substitution (default false)")),
		mcp.WithNumber("threshold", mcp.Description("Minimum percent of chunks found, 0-100 (default 0)")),
	), s.findRelatedGenomes)

	s.mcp.AddTool(mcp.NewTool("list_genomes",
		mcp.WithDescription("List catalogued genomes with their file and length."),
		mcp.WithNumber("limit", mcp.Description("Page size (default 100)")),
		mcp.WithNumber("offset", mcp.Description("Page offset")),
		mcp.WithString("query", mcp.Description("Optional name search instead of a plain listing")),
	), s.listGenomes)

	s.mcp.AddTool(mcp.NewTool("extract_sequence",
		mcp.WithDescription("Return a substring of a library genome."),
		mcp.WithString("genome", mcp.Required(), mcp.Description("Genome name")),
		mcp.WithNumber("position", mcp.Required(), mcp.Description("0-based start position")),
		mcp.WithNumber("length", mcp.Required(), mcp.Description("Number of bases")),
	), s.extractSequence)

	s.mcp.AddTool(mcp.NewTool("get_status",
		mcp.WithDescription("Index status: generation, genome and key counts, minimum search length, files that failed to load."),
	), s.getStatus)

	s.mcp.AddTool(mcp.NewTool("get_fasta_contract",
		mcp.WithDescription("Returns the FASTA format contract for library files. "+
			"Call this before adding genome files."),
	), s.getFASTAContract)

	s.mcp.AddTool(mcp.NewTool("add_genome_file",
		mcp.WithDescription("Add a FASTA file to the library from an http(s) URL or a base64 data URI, "+
			"then rebuild the index. The file MUST follow the contract from get_fasta_contract or the "+
			contractURI+" resource."),
		mcp.WithString("url", mcp.Required(), mcp.Description("http(s) URL or data:<mime>;base64,<data> URI")),
		mcp.WithString("filename", mcp.Description("Target file name (e.g. rose.fa, rose.fa.gz); derived from the URL when omitted")),
		mcp.WithString("dir", mcp.Description("Optional subdirectory of the library")),
	), s.addGenomeFile)

	s.mcp.AddResource(
		mcp.NewResource(contractURI, "FASTA Format Contract",
			mcp.WithResourceDescription("FASTA dialect that every library file must follow."),
			mcp.WithMIMEType("text/markdown"),
		),
		s.readFASTAFormatResource,
	)

	return s
}

// ServeStdio starts the MCP server on stdin/stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcp)
}

// MCPServer returns the underlying server for testing.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcp
}

func jsonResult(v any) *mcp.CallToolResult {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(err.Error())
	}
	return mcp.NewToolResultText(string(out))
}

func (s *Server) findFragment(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	fragment, err := req.RequireString("fragment")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	minLen := req.GetInt("minimum_length", s.svc.Status().MinimumSearchLength)
	matches, err := s.svc.FindFragment(ctx, fragment, minLen, req.GetBool("exact_only", false))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(matches), nil
}

func (s *Server) findRelatedGenomes(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sequence := req.GetString("sequence", "")
	name := req.GetString("genome", "")
	if (sequence == "") == (name == "") {
		return mcp.NewToolResultError("exactly one of sequence and genome is required"), nil
	}
	fragLen := req.GetInt("fragment_length", s.svc.Status().MinimumSearchLength)
	exact := req.GetBool("exact_only", false)
	threshold := req.GetFloat("threshold", 0)
	if threshold < 0 || threshold > 100 {
		return mcp.NewToolResultError(fmt.Sprintf("threshold %v outside 0-100", threshold)), nil
	}

	var (
		result []matcher.GenomeMatch
		err    error
	)
	if name != "" {
		result, err = s.svc.FindRelatedByName(ctx, name, fragLen, exact, threshold)
	} else {
		result, err = s.svc.FindRelated(ctx, sequence, fragLen, exact, threshold)
	}
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(result), nil
}

func (s *Server) listGenomes(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	limit := req.GetInt("limit", 100)
	if q := req.GetString("query", ""); q != "" {
		hits, err := s.svc.SearchNames(ctx, q, limit)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return jsonResult(hits), nil
	}
	items, total, err := s.svc.ListGenomes(ctx, limit, req.GetInt("offset", 0))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(map[string]any{"genomes": items, "total": total}), nil
}

func (s *Server) extractSequence(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name, err := req.RequireString("genome")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	pos, err := req.RequireInt("position")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	n, err := req.RequireInt("length")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	bases, err := s.svc.Extract(ctx, name, pos, n)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(bases), nil
}

func (s *Server) getStatus(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return jsonResult(s.svc.Status()), nil
}

func (s *Server) getFASTAContract(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(FASTAFormatContract), nil
}

func (s *Server) readFASTAFormatResource(_ context.Context, _ mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      contractURI,
			MIMEType: "text/markdown",
			Text:     FASTAFormatContract,
		},
	}, nil
}
