package mcpserver

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/mwiater/thematic/internal/appconfig"
)

const transcript = "Honestly, we never felt heard by the council. the bus only comes twice a day. My neighbour helps with shopping."

func callRequest(name string, args map[string]any) mcp.CallToolRequest {
	req := mcp.CallToolRequest{}
	req.Params.Name = name
	req.Params.Arguments = args
	return req
}

func resultText(t *testing.T, res *mcp.CallToolResult) string {
	t.Helper()
	if res == nil || len(res.Content) == 0 {
		t.Fatalf("empty tool result")
	}
	text, ok := res.Content[0].(mcp.TextContent)
	if !ok {
		t.Fatalf("expected text content, got %T", res.Content[0])
	}
	return text.Text
}

func decodeRows(t *testing.T, text string) []map[string]any {
	t.Helper()
	var rows []map[string]any
	if err := json.Unmarshal([]byte(text), &rows); err != nil {
		t.Fatalf("result is not a JSON array: %v\n%s", err, text)
	}
	return rows
}

func TestMatchQuotesWithStrings(t *testing.T) {
	t.Parallel()

	s := New(appconfig.Config{})
	res, err := s.handleMatchQuotes(context.Background(), callRequest(MatchQuotesName, map[string]any{
		"transcript": transcript,
		"candidates": `["we never felt heard", "quarterly revenue exceeded projections"]`,
	}))
	if err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if res.IsError {
		t.Fatalf("unexpected tool error: %s", resultText(t, res))
	}
	rows := decodeRows(t, resultText(t, res))
	if len(rows) != 1 {
		t.Fatalf("expected one match, got %v", rows)
	}
	if rows[0]["candidate"] != "we never felt heard" || rows[0]["score"] != float64(100) || rows[0]["segment_index"] != float64(0) {
		t.Fatalf("unexpected match row: %v", rows[0])
	}
}

func TestMatchQuotesWithRecords(t *testing.T) {
	t.Parallel()

	s := New(appconfig.Config{})
	res, err := s.handleMatchQuotes(context.Background(), callRequest(MatchQuotesName, map[string]any{
		"transcript": transcript,
		"candidates": `[{"code": "transport", "quote": "the bus only comes twice a day"}]`,
		"column":     "quote",
		"threshold":  float64(90),
		"policy":     "first",
	}))
	if err != nil {
		t.Fatalf("handler error: %v", err)
	}
	rows := decodeRows(t, resultText(t, res))
	if len(rows) != 1 || rows[0]["segment_id"] != "transcript#1" {
		t.Fatalf("unexpected rows: %v", rows)
	}
}

func TestMatchQuotesErrors(t *testing.T) {
	t.Parallel()

	s := New(appconfig.Config{})
	cases := []struct {
		name string
		args map[string]any
		want string
	}{
		{name: "no transcript", args: map[string]any{"candidates": `["x"]`}, want: "transcript is required"},
		{name: "no candidates", args: map[string]any{"transcript": transcript}, want: "candidates is required"},
		{name: "missing column", args: map[string]any{"transcript": transcript, "candidates": `[{"code": "a"}]`}, want: "column not found"},
		{name: "bad threshold", args: map[string]any{"transcript": transcript, "candidates": `["x"]`, "threshold": float64(150)}, want: "threshold"},
		{name: "bad policy", args: map[string]any{"transcript": transcript, "candidates": `["x"]`, "policy": "sometimes"}, want: "unknown policy"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			res, err := s.handleMatchQuotes(context.Background(), callRequest(MatchQuotesName, tc.args))
			if err != nil {
				t.Fatalf("handler error: %v", err)
			}
			if !res.IsError {
				t.Fatalf("expected tool error")
			}
			if text := resultText(t, res); !strings.Contains(text, tc.want) {
				t.Fatalf("expected %q in %q", tc.want, text)
			}
		})
	}
}

func TestUnmatchedQuotes(t *testing.T) {
	t.Parallel()

	s := New(appconfig.Config{})
	res, err := s.handleUnmatched(context.Background(), callRequest(UnmatchedName, map[string]any{
		"reference":  transcript,
		"candidates": `["we never felt heard", "the council funded a new library"]`,
	}))
	if err != nil {
		t.Fatalf("handler error: %v", err)
	}
	rows := decodeRows(t, resultText(t, res))
	if len(rows) != 1 || rows[0]["candidate"] != "the council funded a new library" || rows[0]["index"] != float64(1) {
		t.Fatalf("unexpected unmatched rows: %v", rows)
	}
}

func TestCountDuplicates(t *testing.T) {
	t.Parallel()

	s := New(appconfig.Config{})
	res, err := s.handleCountDuplicates(context.Background(), callRequest(CountDuplicatesName, map[string]any{
		"records":         `[{"code": "A"}, {"code": "B"}, {"code": "A"}]`,
		"key":             "code",
		"only_duplicates": true,
	}))
	if err != nil {
		t.Fatalf("handler error: %v", err)
	}
	rows := decodeRows(t, resultText(t, res))
	if len(rows) != 1 || rows[0]["value"] != "A" || rows[0]["count"] != float64(2) {
		t.Fatalf("unexpected counts: %v", rows)
	}

	res, err = s.handleCountDuplicates(context.Background(), callRequest(CountDuplicatesName, map[string]any{
		"records": `[{"code": "A"}, {"code": "B"}, {"code": "A"}]`,
		"key":     "code",
	}))
	if err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rows := decodeRows(t, resultText(t, res)); len(rows) != 2 {
		t.Fatalf("expected every value without top, got %v", rows)
	}

	res, _ = s.handleCountDuplicates(context.Background(), callRequest(CountDuplicatesName, map[string]any{"records": `[]`}))
	if !res.IsError {
		t.Fatalf("expected error when key is missing")
	}
}

func TestAnalyzeDiversity(t *testing.T) {
	t.Parallel()

	s := New(appconfig.Config{})
	runs := `[[{"code": "lack of trust in council"}], [{"code": "transport"}, {"code": "access to care"}]]`
	res, err := s.handleDiversity(context.Background(), callRequest(DiversityName, map[string]any{"runs": runs}))
	if err != nil {
		t.Fatalf("handler error: %v", err)
	}
	text := resultText(t, res)
	for _, want := range []string{"diversity_runs:", "diversity_stats:", `"token_count": 5`, `"stat": "mean"`} {
		if !strings.Contains(text, want) {
			t.Fatalf("expected %q in result:\n%s", want, text)
		}
	}

	res, _ = s.handleDiversity(context.Background(), callRequest(DiversityName, map[string]any{"runs": `{"code": "x"}`}))
	if !res.IsError {
		t.Fatalf("expected error for non-array runs")
	}
}

func TestMCPServerRegistersTools(t *testing.T) {
	t.Parallel()

	if srv := New(appconfig.Config{}).MCPServer(); srv == nil {
		t.Fatal("expected server")
	}
}
