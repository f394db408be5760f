package metrics

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/mwiater/thematic/internal/providers"
)

type stubProvider struct {
	err    error
	closed bool
}

func (s *stubProvider) Chat(ctx context.Context, req providers.ChatRequest) (providers.ChatResponse, error) {
	if s.err != nil {
		return providers.ChatResponse{}, s.err
	}
	return providers.ChatResponse{Model: req.Model, PromptEvalCount: 120, EvalCount: 40}, nil
}

func (s *stubProvider) Close() error {
	s.closed = true
	return nil
}

// steppingClock advances by step on every call.
func steppingClock(step time.Duration) func() time.Time {
	t := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	return func() time.Time {
		t = t.Add(step)
		return t
	}
}

func TestProviderRecordsSuccessAndFailure(t *testing.T) {
	t.Parallel()

	agg := NewAggregator()
	ok := NewProvider(&stubProvider{}, agg)
	ok.now = steppingClock(100 * time.Millisecond)
	bad := NewProvider(&stubProvider{err: errors.New("connection refused")}, agg)
	bad.now = steppingClock(300 * time.Millisecond)

	for i := 0; i < 2; i++ {
		if _, err := ok.Chat(context.Background(), providers.ChatRequest{Model: "llama3.2:3b"}); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if _, err := bad.Chat(context.Background(), providers.ChatRequest{Model: "llama3.2:3b"}); err == nil {
		t.Fatal("expected error to pass through")
	}

	snap := agg.Snapshot()
	if len(snap) != 1 {
		t.Fatalf("expected one model, got %d", len(snap))
	}
	m := snap[0]
	if m.Calls != 3 || m.Failures != 1 || m.PromptTokens != 240 || m.EvalTokens != 80 {
		t.Fatalf("unexpected metrics: %+v", m)
	}
	if len(m.LatenciesMs) != 3 || m.LatenciesMs[0] != 100 || m.LatenciesMs[2] != 300 {
		t.Fatalf("unexpected latencies: %v", m.LatenciesMs)
	}
}

func TestAggregatorTable(t *testing.T) {
	t.Parallel()

	agg := NewAggregator()
	agg.Record("b-model", 200*time.Millisecond, 10, 5, nil)
	agg.Record("a-model", 100*time.Millisecond, 10, 5, nil)
	agg.Record("a-model", 300*time.Millisecond, 10, 5, nil)

	tbl := agg.Table()
	if tbl.Name != "model_usage" || len(tbl.Rows) != 2 {
		t.Fatalf("unexpected table: %+v", tbl)
	}
	first := tbl.Rows[0]
	if first[0] != "a-model" || first[1] != 2 || first[5] != float64(200) || first[7] != float64(300) {
		t.Fatalf("unexpected first row: %v", first)
	}
}

func TestProviderCloseAndWrapped(t *testing.T) {
	t.Parallel()

	inner := &stubProvider{}
	p := NewProvider(inner, nil)
	if p.Wrapped() != inner {
		t.Fatal("expected Wrapped to return the inner provider")
	}
	if _, err := p.Chat(context.Background(), providers.ChatRequest{Model: "m"}); err != nil {
		t.Fatalf("nil aggregator should be tolerated: %v", err)
	}
	if err := p.Close(); err != nil || !inner.closed {
		t.Fatal("expected Close to reach the inner provider")
	}
}
