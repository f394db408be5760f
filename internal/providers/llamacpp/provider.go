// internal/providers/llamacpp/provider.go
// Package llamacpp provides a ChatProvider backed by llama.cpp's OpenAI-compatible HTTP API.
package llamacpp

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

// Provider implements the providers.ChatProvider interface using llama.cpp HTTP APIs.
type Provider struct {
	client  *http.Client
	timeout time.Duration
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
	}
}

type chatResponse struct {
	Model   string `json:"model"`
	Choices []struct {
		Message struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
	} `json:"usage"`
}

// Chat issues a non-streaming /v1/chat/completions request.
func (p *Provider) Chat(ctx context.Context, req providers.ChatRequest) (providers.ChatResponse, error) {
	messages := sanitizeMessages(providers.WithSystemPrompt(req))

	payload := map[string]any{
		"model":    req.Model,
		"messages": messages,
		"stream":   false,
	}
	applyParameters(payload, req.Host.Parameters)
	if req.JSONMode {
		payload["response_format"] = map[string]any{"type": "json_object"}
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return providers.ChatResponse{}, err
	}
	hostID := hostIdentifier(req.Host)
	logging.LogRequest("THEMATIC->LLM", hostID, req.Model, "", body)

	chatCtx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	endpoint := strings.TrimRight(req.Host.URL, "/") + "/v1/chat/completions"
	httpReq, err := http.NewRequestWithContext(chatCtx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return providers.ChatResponse{}, err
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(httpReq)
	if err != nil {
		return providers.ChatResponse{}, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return providers.ChatResponse{}, err
	}
	logging.LogRequest("LLM->THEMATIC", hostID, req.Model, "", raw)
	if resp.StatusCode != http.StatusOK {
		return providers.ChatResponse{}, fmt.Errorf("llama.cpp: /v1/chat/completions returned %s: %s", resp.Status, strings.TrimSpace(string(raw)))
	}

	var parsed chatResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return providers.ChatResponse{}, fmt.Errorf("llama.cpp: decode chat response: %w", err)
	}
	if len(parsed.Choices) == 0 {
		return providers.ChatResponse{}, fmt.Errorf("llama.cpp: chat response contained no choices")
	}

	msg := parsed.Choices[0].Message
	if msg.Role == "" {
		msg.Role = "assistant"
	}
	model := parsed.Model
	if model == "" {
		model = req.Model
	}
	return providers.ChatResponse{
		Model:           model,
		Message:         providers.ChatMessage{Role: msg.Role, Content: msg.Content},
		PromptEvalCount: parsed.Usage.PromptTokens,
		EvalCount:       parsed.Usage.CompletionTokens,
	}, nil
}

// Close releases any resources held by the provider.
func (p *Provider) Close() error {
	return nil
}

func applyParameters(payload map[string]any, params appconfig.Parameters) {
	if params.TopK != nil {
		payload["top_k"] = *params.TopK
	}
	if params.TopP != nil {
		payload["top_p"] = *params.TopP
	}
	if params.MinP != nil {
		payload["min_p"] = *params.MinP
	}
	if params.RepeatLastN != nil {
		payload["repeat_last_n"] = *params.RepeatLastN
	}
	if params.Temperature != nil {
		payload["temperature"] = *params.Temperature
	}
	if params.RepeatPenalty != nil {
		payload["repeat_penalty"] = *params.RepeatPenalty
	}
	if params.PresencePenalty != nil {
		payload["presence_penalty"] = *params.PresencePenalty
	}
	if params.FrequencyPenalty != nil {
		payload["frequency_penalty"] = *params.FrequencyPenalty
	}
	if params.Seed != nil {
		payload["seed"] = *params.Seed
	}
}

// sanitizeMessages trims content, defaults empty roles to user and drops
// empty non-assistant turns.
func sanitizeMessages(messages []providers.ChatMessage) []providers.ChatMessage {
	sanitized := make([]providers.ChatMessage, 0, len(messages))
	for _, msg := range messages {
		role := strings.TrimSpace(msg.Role)
		content := strings.TrimSpace(msg.Content)
		if role == "" {
			role = "user"
		}
		if role != "assistant" && content == "" {
			continue
		}
		sanitized = append(sanitized, providers.ChatMessage{Role: role, Content: content})
	}
	return sanitized
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
	return "llama.cpp-host"
}
