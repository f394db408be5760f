// internal/providers/multiplex/provider.go
// Package multiplex routes provider calls based on host type.
package multiplex

import (
	"context"
	"fmt"
	"strings"

	"github.com/mwiater/thematic/internal/appconfig"
	"github.com/mwiater/thematic/internal/providers"
)

// Provider delegates calls to an underlying provider based on host type.
type Provider struct {
	providers map[string]providers.ChatProvider
}

// New constructs a Provider from a map of host type to provider implementation.
func New(providerMap map[string]providers.ChatProvider) *Provider {
	normalized := make(map[string]providers.ChatProvider, len(providerMap))
	for key, provider := range providerMap {
		normalized[NormalizeType(key)] = provider
	}
	return &Provider{providers: normalized}
}

// Chat forwards the request to the provider registered for req.Host.Type.
func (p *Provider) Chat(ctx context.Context, req providers.ChatRequest) (providers.ChatResponse, error) {
	provider, err := p.providerForHost(req.Host)
	if err != nil {
		return providers.ChatResponse{}, err
	}
	return provider.Chat(ctx, req)
}

// Close cleans up any resources used by the provider.
func (p *Provider) Close() error {
	var firstErr error
	seen := map[providers.ChatProvider]struct{}{}
	for _, provider := range p.providers {
		if _, ok := seen[provider]; ok {
			continue
		}
		seen[provider] = struct{}{}
		if err := provider.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func (p *Provider) providerForHost(host appconfig.Host) (providers.ChatProvider, error) {
	if provider, ok := p.providers[NormalizeType(host.Type)]; ok {
		return provider, nil
	}
	return nil, fmt.Errorf("no provider registered for host type %q", host.Type)
}

// NormalizeType maps host type spellings to a canonical key. Empty means ollama.
func NormalizeType(hostType string) string {
	normalized := strings.ToLower(strings.TrimSpace(hostType))
	switch normalized {
	case "", "ollama":
		return "ollama"
	case "llama.cpp", "llamacpp", "llama-cpp":
		return "llama.cpp"
	default:
		return normalized
	}
}
