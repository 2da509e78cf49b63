package interpret

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"mathviz/internal/domain"
	"mathviz/internal/domain/scenecfg"
)

const (
	anthropicDefaultTimeout = 15 * time.Second
	anthropicDefaultBaseURL = "https://api.anthropic.com/v1"
	anthropicVersion        = "2023-06-01"
	defaultAnthropicModel   = "claude-3-haiku-20240307"
	anthropicMaxTokens      = 500
)

// AnthropicOptions configures the Anthropic-backed interpreter.
type AnthropicOptions struct {
	APIKey     string
	Model      string
	BaseURL    string
	HTTPClient *http.Client
}

// AnthropicInterpreter translates visualization requests into scene
// parameters via the Anthropic messages API.
type AnthropicInterpreter struct {
	apiKey  string
	model   string
	baseURL string
	client  *http.Client
}

type anthropicRequest struct {
	Model     string             `json:"model"`
	MaxTokens int                `json:"max_tokens"`
	System    string             `json:"system"`
	Messages  []anthropicMessage `json:"messages"`
}

type anthropicMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type anthropicResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
}

// NewAnthropicInterpreter validates the options and builds an interpreter.
func NewAnthropicInterpreter(opts AnthropicOptions) (*AnthropicInterpreter, error) {
	if strings.TrimSpace(opts.APIKey) == "" {
		return nil, errors.New("anthropic api key is required")
	}
	baseURL := strings.TrimRight(opts.BaseURL, "/")
	if baseURL == "" {
		baseURL = anthropicDefaultBaseURL
	}
	model := strings.TrimSpace(opts.Model)
	if model == "" {
		model = defaultAnthropicModel
	}
	client := opts.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: anthropicDefaultTimeout}
	}
	return &AnthropicInterpreter{
		apiKey:  strings.TrimSpace(opts.APIKey),
		model:   model,
		baseURL: baseURL,
		client:  client,
	}, nil
}

func (a *AnthropicInterpreter) Interpret(ctx context.Context, description string) (*scenecfg.Params, error) {
	description = strings.TrimSpace(description)
	if description == "" {
		return nil, fmt.Errorf("%w: description is required", domain.ErrValidation)
	}
	return a.complete(ctx, generateSystemPrompt, description)
}

func (a *AnthropicInterpreter) InterpretEdit(ctx context.Context, original *scenecfg.Params, editDescription string) (*scenecfg.Params, error) {
	editDescription = strings.TrimSpace(editDescription)
	if editDescription == "" {
		return nil, fmt.Errorf("%w: edit description is required", domain.ErrValidation)
	}
	originalJSON, err := json.Marshal(original)
	if err != nil {
		return nil, fmt.Errorf("encode original parameters: %w", err)
	}
	user := fmt.Sprintf("Original parameters: %s\n\nEdit request: %s", originalJSON, editDescription)
	return a.complete(ctx, editSystemPrompt, user)
}

func (a *AnthropicInterpreter) complete(ctx context.Context, system, user string) (*scenecfg.Params, error) {
	payload := anthropicRequest{
		Model:     a.model,
		MaxTokens: anthropicMaxTokens,
		System:    system,
		Messages:  []anthropicMessage{{Role: "user", Content: user}},
	}
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(payload); err != nil {
		return nil, fmt.Errorf("%w: encode request: %v", domain.ErrInterpretation, err)
	}
	endpoint := fmt.Sprintf("%s/messages", a.baseURL)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, &buf)
	if err != nil {
		return nil, fmt.Errorf("%w: build request: %v", domain.ErrInterpretation, err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-api-key", a.apiKey)
	httpReq.Header.Set("anthropic-version", anthropicVersion)

	resp, err := a.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInterpretation, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	if resp.StatusCode >= 300 {
		return nil, fmt.Errorf("%w: anthropic status %d", domain.ErrInterpretation, resp.StatusCode)
	}
	var out anthropicResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("%w: decode response: %v", domain.ErrInterpretation, err)
	}
	text := ""
	for _, block := range out.Content {
		if block.Type == "" || block.Type == "text" {
			text += block.Text
		}
	}
	params, err := parseParamsPayload(text)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInterpretation, err)
	}
	return params, nil
}

func parseParamsPayload(raw string) (*scenecfg.Params, error) {
	cleaned := extractJSONFragment(raw)
	if cleaned == "" {
		return nil, errors.New("empty model payload")
	}
	var params scenecfg.Params
	if err := json.Unmarshal([]byte(cleaned), &params); err != nil {
		return nil, fmt.Errorf("parse model payload: %v", err)
	}
	return &params, nil
}

func extractJSONFragment(raw string) string {
	text := strings.TrimSpace(raw)
	if text == "" {
		return ""
	}
	text = trimCodeFence(text)
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start >= 0 && end >= start {
		text = text[start : end+1]
	}
	return strings.TrimSpace(text)
}

func trimCodeFence(text string) string {
	trimmed := strings.TrimSpace(text)
	if !strings.HasPrefix(trimmed, "```") {
		return trimmed
	}
	trimmed = strings.TrimPrefix(trimmed, "```json")
	trimmed = strings.TrimPrefix(trimmed, "```JSON")
	trimmed = strings.TrimPrefix(trimmed, "```")
	trimmed = strings.TrimSpace(trimmed)
	if idx := strings.LastIndex(trimmed, "```"); idx >= 0 {
		trimmed = trimmed[:idx]
	}
	return strings.TrimSpace(trimmed)
}

var _ Interpreter = (*AnthropicInterpreter)(nil)
