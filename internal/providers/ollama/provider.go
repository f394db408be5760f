// internal/providers/ollama/provider.go
// Package ollama provides a ChatProvider backed by Ollama-compatible HTTP endpoints.
package ollama

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/mwiater/thematic/internal/appconfig"
	"github.com/mwiater/thematic/internal/logging"
	"github.com/mwiater/thematic/internal/providers"
)

// Provider implements the providers.ChatProvider interface using Ollama HTTP APIs.
type Provider struct {
	client  *http.Client
	timeout time.Duration
	debug   bool
}

// New constructs a Provider configured with the application's request timeout.
func New(cfg *appconfig.Config) *Provider {
	timeout := cfg.RequestTimeout()
	return &Provider{
		client: &http.Client{
			Timeout:   timeout,
			Transport: &http.Transport{ForceAttemptHTTP2: false},
		},
		timeout: timeout,
		debug:   cfg.Debug,
	}
}

// chatResponse defines the structure of a non-streaming /api/chat reply.
type chatResponse struct {
	Model   string `json:"model"`
	Message struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	} `json:"message"`
	Done            bool  `json:"done"`
	TotalDuration   int64 `json:"total_duration"`
	PromptEvalCount int   `json:"prompt_eval_count"`
	EvalCount       int   `json:"eval_count"`
}

// Chat issues a non-streaming /api/chat request.
func (p *Provider) Chat(ctx context.Context, req providers.ChatRequest) (providers.ChatResponse, error) {
	messages := providers.WithSystemPrompt(req)
	if len(messages) == 0 {
		messages = []providers.ChatMessage{}
	}
	hostID := hostIdentifier(req.Host)

	payload := map[string]any{
		"model":    req.Model,
		"messages": messages,
		"options":  buildOptions(req.Host.Parameters),
		"stream":   false,
	}
	if req.JSONMode {
		payload["format"] = "json"
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return providers.ChatResponse{}, err
	}
	if p.debug {
		if pretty, perr := json.MarshalIndent(payload, "", "  "); perr == nil {
			logging.LogRequest("THEMATIC->LLM", hostID, req.Model, "", pretty)
		}
	} else {
		logging.LogRequest("THEMATIC->LLM", hostID, req.Model, "", body)
	}

	chatCtx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	httpReq, err := http.NewRequestWithContext(chatCtx, http.MethodPost, strings.TrimRight(req.Host.URL, "/")+"/api/chat", bytes.NewReader(body))
	if err != nil {
		return providers.ChatResponse{}, err
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(httpReq)
	if err != nil {
		return providers.ChatResponse{}, err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return providers.ChatResponse{}, err
	}
	logging.LogRequest("LLM->THEMATIC", hostID, req.Model, "", respBody)

	if resp.StatusCode != http.StatusOK {
		return providers.ChatResponse{}, fmt.Errorf("ollama: /api/chat returned %s: %s", resp.Status, strings.TrimSpace(string(respBody)))
	}

	var result chatResponse
	if err := json.Unmarshal(respBody, &result); err != nil {
		return providers.ChatResponse{}, fmt.Errorf("ollama: decode /api/chat response: %w", err)
	}
	role := result.Message.Role
	if role == "" {
		role = "assistant"
	}
	model := result.Model
	if model == "" {
		model = req.Model
	}
	return providers.ChatResponse{
		Model:           model,
		Message:         providers.ChatMessage{Role: role, Content: result.Message.Content},
		TotalDuration:   result.TotalDuration,
		PromptEvalCount: result.PromptEvalCount,
		EvalCount:       result.EvalCount,
	}, nil
}

func buildOptions(params appconfig.Parameters) map[string]any {
	options := map[string]any{}
	if params.TopK != nil {
		options["top_k"] = *params.TopK
	}
	if params.TopP != nil {
		options["top_p"] = *params.TopP
	}
	if params.MinP != nil {
		options["min_p"] = *params.MinP
	}
	if params.RepeatLastN != nil {
		options["repeat_last_n"] = *params.RepeatLastN
	}
	if params.Temperature != nil {
		options["temperature"] = *params.Temperature
	}
	if params.RepeatPenalty != nil {
		options["repeat_penalty"] = *params.RepeatPenalty
	}
	if params.PresencePenalty != nil {
		options["presence_penalty"] = *params.PresencePenalty
	}
	if params.FrequencyPenalty != nil {
		options["frequency_penalty"] = *params.FrequencyPenalty
	}
	if params.Seed != nil {
		options["seed"] = *params.Seed
	}
	return options
}

// hostIdentifier returns a string identifier for a given host, preferring the name over the URL.
func hostIdentifier(host appconfig.Host) string {
	name := strings.TrimSpace(host.Name)
	if name != "" {
		return name
	}
	if url := strings.TrimSpace(host.URL); url != "" {
		return url
	}
	return "ollama-host"
}

// Close releases any resources held by the provider.
func (p *Provider) Close() error {
	return nil
}
