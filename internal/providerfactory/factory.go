// internal/providerfactory/factory.go
package providerfactory

import (
	"fmt"

	"github.com/mwiater/thematic/internal/appconfig"
	"github.com/mwiater/thematic/internal/logging"
	"github.com/mwiater/thematic/internal/providers"
	"github.com/mwiater/thematic/internal/providers/llamacpp"
	"github.com/mwiater/thematic/internal/providers/multiplex"
	"github.com/mwiater/thematic/internal/providers/ollama"
)

// NewChatProvider builds a provider that routes each request to the Ollama
// or llama.cpp client according to the request's host type.
func NewChatProvider(cfg *appconfig.Config) (providers.ChatProvider, error) {
	if cfg == nil {
		return nil, fmt.Errorf("nil config provided to provider factory")
	}

	registered := map[string]providers.ChatProvider{}
	for _, hostType := range collectHostTypes(cfg.Hosts) {
		switch hostType {
		case "ollama":
			registered[hostType] = ollama.New(cfg)
		case "llama.cpp":
			registered[hostType] = llamacpp.New(cfg)
		default:
			return nil, fmt.Errorf("unsupported host type %q", hostType)
		}
	}
	if len(registered) == 0 {
		registered["ollama"] = ollama.New(cfg)
	}
	logging.LogEvent("Chat provider ready for host types: %v", collectHostTypes(cfg.Hosts))
	return multiplex.New(registered), nil
}

// collectHostTypes returns the distinct normalized host types in config order.
func collectHostTypes(hosts []appconfig.Host) []string {
	seen := map[string]bool{}
	var out []string
	for _, h := range hosts {
		t := multiplex.NormalizeType(h.Type)
		if seen[t] {
			continue
		}
		seen[t] = true
		out = append(out, t)
	}
	return out
}
