package diversity

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"testing"

	"github.com/mwiater/thematic/internal/records"
)

func TestTokenize(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   string
		want []string
	}{
		{"simple", "the cat sat on the mat", []string{"the", "cat", "sat", "on", "the", "mat"}},
		{"punctuation", "Trust, access.", []string{"Trust", ",", "access", "."}},
		{"extra whitespace", "  lack   of\tsupport \n", []string{"lack", "of", "support"}},
		{"empty", "", []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := Tokenize(tt.in); !reflect.DeepEqual(got, tt.want) {
				t.Fatalf("Tokenize(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestNGramCounts(t *testing.T) {
	t.Parallel()

	s := NewSession([]string{"the cat sat on the mat", "the the the"}).Tokenize()
	_, counts, err := s.Tokens()
	if err != nil {
		t.Fatalf("Tokens error: %v", err)
	}
	if !reflect.DeepEqual(counts, []int{6, 3}) {
		t.Fatalf("token counts = %v", counts)
	}

	s, err = s.NGrams(2)
	if err != nil {
		t.Fatalf("NGrams error: %v", err)
	}
	runs := s.Runs()
	if len(runs[0].NGrams) != 5 || runs[0].UniqueNGrams != 5 {
		t.Fatalf("run 0 bigrams: total %d unique %d", len(runs[0].NGrams), runs[0].UniqueNGrams)
	}
	if len(runs[1].NGrams) != 2 || runs[1].UniqueNGrams != 1 {
		t.Fatalf("run 1 bigrams: total %d unique %d", len(runs[1].NGrams), runs[1].UniqueNGrams)
	}
}

func TestNGramsShortInput(t *testing.T) {
	t.Parallel()

	if got := NGrams([]string{"solo"}, 2); len(got) != 0 {
		t.Fatalf("expected no bigrams for one token, got %v", got)
	}
	if got := UniqueCount(NGrams([]string{"a", "b", "a", "b"}, 2)); got != 2 {
		t.Fatalf("expected 2 unique bigrams, got %d", got)
	}
}

func TestSessionStepsDoNotMutate(t *testing.T) {
	t.Parallel()

	base := NewSession([]string{"a b c"}).Tokenize()
	withBigrams, err := base.NGrams(2)
	if err != nil {
		t.Fatalf("NGrams error: %v", err)
	}
	if _, err := base.UniqueCounts(2); err == nil {
		t.Fatalf("expected base session to remain without bigrams")
	}
	if got, _ := withBigrams.UniqueCounts(2); !reflect.DeepEqual(got, []int{2}) {
		t.Fatalf("unexpected bigram counts %v", got)
	}
}

func TestSessionAccessorsReturnCopies(t *testing.T) {
	t.Parallel()

	sess, err := NewSession([]string{"a b c"}).Tokenize().NGrams(2)
	if err != nil {
		t.Fatalf("NGrams error: %v", err)
	}

	tokens, _, err := sess.Tokens()
	if err != nil {
		t.Fatalf("Tokens error: %v", err)
	}
	tokens[0][0] = "changed"
	sess.Texts()[0] = "changed"
	runs := sess.Runs()
	runs[0].Tokens[1] = "changed"
	runs[0].NGrams[0][0] = "changed"
	counts, _ := sess.UniqueCounts(2)
	counts[0] = 99

	again, _, _ := sess.Tokens()
	if !reflect.DeepEqual(again, [][]string{{"a", "b", "c"}}) {
		t.Fatalf("session tokens were mutated: %v", again)
	}
	if got := sess.Texts(); got[0] != "a b c" {
		t.Fatalf("session texts were mutated: %v", got)
	}
	if got := sess.Runs()[0].NGrams; !reflect.DeepEqual(got, [][]string{{"a", "b"}, {"b", "c"}}) {
		t.Fatalf("session n-grams were mutated: %v", got)
	}
	if got, _ := sess.UniqueCounts(2); got[0] != 2 {
		t.Fatalf("session unique counts were mutated: %v", got)
	}
}

func TestSummarizeRequiresAnalysis(t *testing.T) {
	t.Parallel()

	sessions := map[string]Session{
		"fresh":        NewSession([]string{"a b c"}),
		"tokens only":  NewSession([]string{"a b c"}).Tokenize(),
		"bigrams only": mustNGrams(t, NewSession([]string{"a b c"}).Tokenize(), 2),
	}
	for name, s := range sessions {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			_, err := s.Summarize()
			var stateErr *records.StateError
			if !errors.As(err, &stateErr) || !errors.Is(err, records.ErrNotAnalyzed) {
				t.Fatalf("expected StateError wrapping ErrNotAnalyzed, got %v", err)
			}
		})
	}

	if _, err := NewSession(nil).NGrams(2); !errors.Is(err, records.ErrNotAnalyzed) {
		t.Fatalf("expected n-grams before tokenize to fail, got %v", err)
	}
	var inputErr *records.InputError
	if _, err := NewSession(nil).Tokenize().NGrams(0); !errors.As(err, &inputErr) {
		t.Fatalf("expected InputError for n=0, got %v", err)
	}
}

func mustNGrams(t *testing.T, s Session, n int) Session {
	t.Helper()
	next, err := s.NGrams(n)
	if err != nil {
		t.Fatalf("NGrams(%d) error: %v", n, err)
	}
	return next
}

func TestAnalyze(t *testing.T) {
	t.Parallel()

	rep, err := Analyze([]string{"the cat sat on the mat", "the the the"})
	if err != nil {
		t.Fatalf("Analyze error: %v", err)
	}
	want := []Row{
		{Run: 1, TokenCount: 6, UniqueBigrams: 5, UniqueTrigrams: 4},
		{Run: 2, TokenCount: 3, UniqueBigrams: 1, UniqueTrigrams: 1},
	}
	if !reflect.DeepEqual(rep.Rows, want) {
		t.Fatalf("rows = %+v, want %+v", rep.Rows, want)
	}
	tok := rep.Stats[ColTokenCount]
	if tok.Count != 2 || tok.Mean != 4.5 || tok.Min != 3 || tok.Max != 6 {
		t.Fatalf("unexpected token stats %+v", tok)
	}

	st := rep.StatsTable()
	if len(st.Rows) != 8 || st.Rows[1][0] != "mean" || st.Rows[1][1] != 4.5 {
		t.Fatalf("unexpected stats table %+v", st.Rows)
	}
	if tbl := rep.Table(); len(tbl.Rows) != 2 || len(tbl.Columns) != 4 {
		t.Fatalf("unexpected runs table %+v", tbl)
	}
}

func TestRunBestEffort(t *testing.T) {
	t.Parallel()

	calls := 0
	var seen []int
	gen := func(ctx context.Context) ([]records.CodeRecord, error) {
		calls++
		if calls == 2 {
			return nil, errors.New("model timed out")
		}
		return []records.CodeRecord{{Code: "trust"}, {Code: "access to care"}}, nil
	}

	res, err := Run(context.Background(), gen, Options{Runs: 3, OnRun: func(run int, err error) { seen = append(seen, run) }})
	if err != nil {
		t.Fatalf("Run error: %v", err)
	}
	if calls != 3 || !reflect.DeepEqual(seen, []int{0, 1, 2}) {
		t.Fatalf("expected 3 sequential calls, got %d (%v)", calls, seen)
	}
	if len(res.Runs) != 2 || res.Runs[1].Index != 2 {
		t.Fatalf("unexpected runs %+v", res.Runs)
	}
	if len(res.Failures) != 1 || res.Failures[0].Run != 1 {
		t.Fatalf("unexpected failures %+v", res.Failures)
	}
	if texts := res.Texts(); texts[0] != "trust access to care" {
		t.Fatalf("unexpected joined text %q", texts[0])
	}
}

func TestRunFailFast(t *testing.T) {
	t.Parallel()

	boom := errors.New("boom")
	calls := 0
	gen := func(ctx context.Context) ([]records.CodeRecord, error) {
		calls++
		if calls == 2 {
			return nil, boom
		}
		return []records.CodeRecord{{Code: "x"}}, nil
	}
	res, err := Run(context.Background(), gen, Options{Runs: 5, FailFast: true})
	var runErr *RunError
	if !errors.As(err, &runErr) || runErr.Run != 1 || !errors.Is(err, boom) {
		t.Fatalf("expected RunError for run 1, got %v", err)
	}
	if calls != 2 || len(res.Runs) != 1 {
		t.Fatalf("expected stop after second call, calls=%d runs=%d", calls, len(res.Runs))
	}
}

func TestRunAllFailAndInvalidOptions(t *testing.T) {
	t.Parallel()

	gen := func(ctx context.Context) ([]records.CodeRecord, error) { return nil, errors.New("down") }
	res, err := Run(context.Background(), gen, Options{Runs: 2})
	var stateErr *records.StateError
	if !errors.As(err, &stateErr) || len(res.Failures) != 2 {
		t.Fatalf("expected StateError with 2 failures, got %v (%+v)", err, res)
	}

	var inputErr *records.InputError
	if _, err := Run(context.Background(), gen, Options{Runs: 0}); !errors.As(err, &inputErr) {
		t.Fatalf("expected InputError for zero runs, got %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := Run(ctx, gen, Options{Runs: 1}); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestParseAndMarshalRuns(t *testing.T) {
	t.Parallel()

	raw := `[
		[{"code": "trust", "excerpt": "we never felt heard"}],
		{"codes": [{"code": "access"}, {"code": "transport"}]}
	]`
	res, err := ParseRuns([]byte(raw))
	if err != nil {
		t.Fatalf("ParseRuns error: %v", err)
	}
	if got := res.Texts(); !reflect.DeepEqual(got, []string{"trust", "access transport"}) {
		t.Fatalf("unexpected texts %q", got)
	}

	out, err := MarshalRuns(res)
	if err != nil {
		t.Fatalf("MarshalRuns error: %v", err)
	}
	again, err := ParseRuns(out)
	if err != nil || len(again.Runs) != 2 {
		t.Fatalf("re-parse failed: %v", err)
	}

	_, err = ParseRuns([]byte(`[[{"code": "ok"}], [{"excerpt": "no code"}]]`))
	var runErr *RunError
	if !errors.As(err, &runErr) || runErr.Run != 1 {
		t.Fatalf("expected RunError for run 1, got %v", err)
	}
	if _, err := ParseRuns([]byte(`{"not": "runs"}`)); err == nil || !strings.Contains(err.Error(), "array of runs") {
		t.Fatalf("expected array error, got %v", err)
	}
}
