// internal/mcpserver/server.go

// Package mcpserver exposes quote verification, duplicate counting and
// diversity analysis as MCP tools over stdio.
package mcpserver

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/mwiater/thematic/internal/appconfig"
	"github.com/mwiater/thematic/internal/diversity"
	"github.com/mwiater/thematic/internal/duplicates"
	"github.com/mwiater/thematic/internal/export"
	"github.com/mwiater/thematic/internal/logging"
	"github.com/mwiater/thematic/internal/quotematch"
	"github.com/mwiater/thematic/internal/records"
)

// Tool names.
const (
	MatchQuotesName     = "match_quotes"
	UnmatchedName       = "unmatched_quotes"
	CountDuplicatesName = "count_duplicates"
	DiversityName       = "analyze_diversity"
)

// Version is reported to MCP clients during initialization.
const Version = "1.0.0"

var readOnlyAnnotation = mcp.ToolAnnotation{
	ReadOnlyHint:    mcp.ToBoolPtr(true),
	DestructiveHint: mcp.ToBoolPtr(false),
	IdempotentHint:  mcp.ToBoolPtr(true),
	OpenWorldHint:   mcp.ToBoolPtr(false),
}

// Server holds the defaults tool calls fall back on.
type Server struct {
	cfg appconfig.Config
}

// New returns a Server using cfg for default thresholds and columns.
func New(cfg appconfig.Config) *Server {
	return &Server{cfg: cfg}
}

// MCPServer builds the mcp-go server with every tool registered.
func (s *Server) MCPServer() *mcpserver.MCPServer {
	srv := mcpserver.NewMCPServer("thematic", Version, mcpserver.WithToolCapabilities(false))
	srv.AddTool(matchQuotesTool(), s.handleMatchQuotes)
	srv.AddTool(unmatchedTool(), s.handleUnmatched)
	srv.AddTool(countDuplicatesTool(), s.handleCountDuplicates)
	srv.AddTool(diversityTool(), s.handleDiversity)
	return srv
}

// ServeStdio blocks serving MCP requests on stdin/stdout.
func (s *Server) ServeStdio() error {
	logging.LogEvent("[MCP] serving thematic tools over stdio")
	return mcpserver.ServeStdio(s.MCPServer())
}

func matchQuotesTool() mcp.Tool {
	return mcp.NewTool(MatchQuotesName,
		mcp.WithDescription("Find the transcript sentence each candidate quote was taken from. Returns accepted matches with their similarity score (0-100)."),
		mcp.WithToolAnnotation(readOnlyAnnotation),
		mcp.WithString("transcript",
			mcp.Required(),
			mcp.Description("Full transcript text; it is split into sentences before matching"),
		),
		mcp.WithString("candidates",
			mcp.Required(),
			mcp.Description("JSON array of quote strings, or JSON records carrying the quote in `column`"),
		),
		mcp.WithString("column",
			mcp.Description("Record field holding the quote when candidates are records (default excerpt)"),
		),
		mcp.WithNumber("threshold",
			mcp.Description("Acceptance threshold; a match needs a score above it (default 80)"),
		),
		mcp.WithString("policy",
			mcp.Description("best (scan every sentence) or first (stop at the first qualifying sentence)"),
		),
	)
}

func unmatchedTool() mcp.Tool {
	return mcp.NewTool(UnmatchedName,
		mcp.WithDescription("Check quotes against the passage they claim to come from and list the ones scoring below the threshold."),
		mcp.WithToolAnnotation(readOnlyAnnotation),
		mcp.WithString("reference",
			mcp.Required(),
			mcp.Description("Passage the quotes were generated from"),
		),
		mcp.WithString("candidates",
			mcp.Required(),
			mcp.Description("JSON array of quote strings, or JSON records carrying the quote in `column`"),
		),
		mcp.WithString("column",
			mcp.Description("Record field holding the quote when candidates are records (default excerpt)"),
		),
		mcp.WithNumber("threshold",
			mcp.Description("Scores below this value are reported (default 80)"),
		),
	)
}

func countDuplicatesTool() mcp.Tool {
	return mcp.NewTool(CountDuplicatesName,
		mcp.WithDescription("Count how often each value of a field occurs across JSON records."),
		mcp.WithToolAnnotation(readOnlyAnnotation),
		mcp.WithString("records",
			mcp.Required(),
			mcp.Description("JSON object or array of objects"),
		),
		mcp.WithString("key",
			mcp.Required(),
			mcp.Description("Field to count, e.g. code or theme"),
		),
		mcp.WithNumber("top",
			mcp.Description("Return only the N most common values (default all; 0 returns none)"),
		),
		mcp.WithBoolean("only_duplicates",
			mcp.Description("Drop values that occur once"),
		),
	)
}

func diversityTool() mcp.Tool {
	return mcp.NewTool(DiversityName,
		mcp.WithDescription("Measure lexical diversity across repeated generation runs: tokens, unique bigrams and trigrams per run plus summary statistics."),
		mcp.WithToolAnnotation(readOnlyAnnotation),
		mcp.WithString("runs",
			mcp.Required(),
			mcp.Description("JSON array with one element per run; each element is the run's code records"),
		),
	)
}

func (s *Server) handleMatchQuotes(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	transcript := req.GetString("transcript", "")
	if strings.TrimSpace(transcript) == "" {
		return mcp.NewToolResultError("transcript is required"), nil
	}
	candidates, err := parseCandidates(req.GetString("candidates", ""), req.GetString("column", s.cfg.MatchColumn()))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	policy, err := quotematch.ParsePolicy(req.GetString("policy", s.cfg.Match.Policy))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	matcher, err := quotematch.New(quotematch.Options{
		Threshold: req.GetInt("threshold", s.cfg.MatchThreshold()),
		Policy:    policy,
		Parallel:  s.cfg.Match.Parallel,
		Workers:   s.cfg.MatchWorkers(),
	})
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	matches, err := matcher.Match(ctx, candidates, quotematch.SentenceSegments("transcript", transcript))
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("match failed: %v", err)), nil
	}
	logging.LogRequest("LLM->THEMATIC", "mcp", "", MatchQuotesName, map[string]int{"candidates": len(candidates), "matches": len(matches)})
	return tableResult(quotematch.MatchTable(matches))
}

func (s *Server) handleUnmatched(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	reference := req.GetString("reference", "")
	if strings.TrimSpace(reference) == "" {
		return mcp.NewToolResultError("reference is required"), nil
	}
	candidates, err := parseCandidates(req.GetString("candidates", ""), req.GetString("column", s.cfg.MatchColumn()))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	origin := records.TextSegment{ID: "reference", Text: reference}
	pairs := make([]quotematch.Pair, len(candidates))
	for i, c := range candidates {
		pairs[i] = quotematch.Pair{Candidate: c, Origin: origin}
	}
	out, err := quotematch.Unmatched(pairs, req.GetInt("threshold", s.cfg.MatchThreshold()))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	logging.LogRequest("LLM->THEMATIC", "mcp", "", UnmatchedName, map[string]int{"candidates": len(candidates), "unmatched": len(out)})
	return tableResult(quotematch.UnmatchedTable(out))
}

func (s *Server) handleCountDuplicates(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	key := req.GetString("key", "")
	if key == "" {
		return mcp.NewToolResultError("key is required"), nil
	}
	rows, err := records.ParseRows([]byte(req.GetString("records", "")))
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invalid records: %v", err)), nil
	}

	counts := duplicates.Count(rows, key)
	if req.GetBool("only_duplicates", false) {
		counts = duplicates.FilterDuplicates(counts)
	}
	return tableResult(duplicates.Table(key, duplicates.TopN(counts, req.GetInt("top", duplicates.All))))
}

func (s *Server) handleDiversity(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	res, err := diversity.ParseRuns([]byte(req.GetString("runs", "")))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	rep, err := diversity.Analyze(res.Texts())
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var buf bytes.Buffer
	for _, t := range []records.Table{rep.Table(), rep.StatsTable()} {
		buf.WriteString(t.Name + ":\n")
		if err := export.Encode(&buf, export.FormatJSON, t); err != nil {
			return nil, err
		}
	}
	return mcp.NewToolResultText(buf.String()), nil
}

// parseCandidates accepts a JSON array of strings or JSON records holding the
// quote under column.
func parseCandidates(raw, column string) ([]records.Candidate, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, fmt.Errorf("candidates is required")
	}
	var texts []string
	if err := json.Unmarshal([]byte(raw), &texts); err == nil {
		return records.CandidatesFromStrings(texts), nil
	}
	rows, err := records.ParseRows([]byte(raw))
	if err != nil {
		return nil, fmt.Errorf("invalid candidates: %w", err)
	}
	return rows.Candidates(column)
}

func tableResult(t records.Table) (*mcp.CallToolResult, error) {
	var buf bytes.Buffer
	if err := export.Encode(&buf, export.FormatJSON, t); err != nil {
		return nil, err
	}
	return mcp.NewToolResultText(buf.String()), nil
}
