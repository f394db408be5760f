// internal/metrics/aggregator.go

// Package metrics records per-model call counts, token usage and latency for
// the model calls made during code generation.
package metrics

import (
	"sort"
	"sync"
	"time"

	"github.com/mwiater/thematic/internal/logging"
	"github.com/mwiater/thematic/internal/records"
	"github.com/mwiater/thematic/internal/stats"
)

// ModelMetrics is the running tally for one model.
type ModelMetrics struct {
	Model        string    `json:"model"`
	Calls        int       `json:"calls"`
	Failures     int       `json:"failures"`
	PromptTokens int       `json:"prompt_tokens"`
	EvalTokens   int       `json:"eval_tokens"`
	LatenciesMs  []float64 `json:"latencies_ms"`
	LastUpdated  time.Time `json:"last_updated"`
}

// Aggregator collects metrics across models. It is safe for concurrent use.
type Aggregator struct {
	mutex   sync.Mutex
	metrics map[string]*ModelMetrics
	now     func() time.Time
}

// NewAggregator returns an empty Aggregator.
func NewAggregator() *Aggregator {
	return &Aggregator{
		metrics: make(map[string]*ModelMetrics),
		now:     time.Now,
	}
}

// Record adds one call. err marks the call as failed; token counts are only
// taken from successful calls.
func (a *Aggregator) Record(model string, latency time.Duration, promptTokens, evalTokens int, err error) {
	a.mutex.Lock()
	defer a.mutex.Unlock()

	m, ok := a.metrics[model]
	if !ok {
		m = &ModelMetrics{Model: model}
		a.metrics[model] = m
	}
	m.Calls++
	m.LastUpdated = a.now().UTC()
	m.LatenciesMs = append(m.LatenciesMs, float64(latency.Milliseconds()))
	if err != nil {
		m.Failures++
		logging.LogEvent("[METRICS] %s call failed after %s: %v", model, latency, err)
		return
	}
	m.PromptTokens += promptTokens
	m.EvalTokens += evalTokens
}

// Snapshot returns a copy of every model's metrics, sorted by model name.
func (a *Aggregator) Snapshot() []ModelMetrics {
	a.mutex.Lock()
	defer a.mutex.Unlock()

	out := make([]ModelMetrics, 0, len(a.metrics))
	for _, m := range a.metrics {
		cp := *m
		cp.LatenciesMs = append([]float64(nil), m.LatenciesMs...)
		out = append(out, cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Model < out[j].Model })
	return out
}

// Table summarizes the snapshot with latency percentiles.
func (a *Aggregator) Table() records.Table {
	t := records.Table{
		Name:    "model_usage",
		Columns: []string{"model", "calls", "failures", "prompt_tokens", "eval_tokens", "p50_ms", "p90_ms", "max_ms"},
	}
	for _, m := range a.Snapshot() {
		s := stats.Describe(m.LatenciesMs)
		t.Rows = append(t.Rows, []any{
			m.Model, m.Calls, m.Failures, m.PromptTokens, m.EvalTokens,
			s.Median, stats.Percentile(m.LatenciesMs, 90), s.Max,
		})
	}
	return t
}
