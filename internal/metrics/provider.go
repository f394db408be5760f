// internal/metrics/provider.go
package metrics

import (
	"context"
	"time"

	"github.com/mwiater/thematic/internal/providers"
)

// Provider is a decorator that wraps a ChatProvider to record metrics.
type Provider struct {
	wrapped    providers.ChatProvider
	aggregator *Aggregator
	now        func() time.Time
}

// NewProvider wraps an existing ChatProvider.
func NewProvider(wrapped providers.ChatProvider, aggregator *Aggregator) *Provider {
	return &Provider{wrapped: wrapped, aggregator: aggregator, now: time.Now}
}

// Chat forwards the request and records its latency and token usage.
func (p *Provider) Chat(ctx context.Context, req providers.ChatRequest) (providers.ChatResponse, error) {
	start := p.now()
	resp, err := p.wrapped.Chat(ctx, req)
	if p.aggregator != nil {
		p.aggregator.Record(req.Model, p.now().Sub(start), resp.PromptEvalCount, resp.EvalCount, err)
	}
	return resp, err
}

// Wrapped returns the decorated provider.
func (p *Provider) Wrapped() providers.ChatProvider { return p.wrapped }

// Close passes the call through to the wrapped provider.
func (p *Provider) Close() error {
	return p.wrapped.Close()
}
