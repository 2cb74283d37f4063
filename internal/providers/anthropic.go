package providers

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"go.uber.org/zap"
)

const (
	AnthropicName           = "anthropic"
	DefaultAnthropicBaseURL = "https://api.anthropic.com/v1"
	DefaultAnthropicModel   = "claude-3-sonnet-20240229"
	anthropicVersion        = "2023-06-01"
)

type AnthropicConfig struct {
	APIKey      string
	BaseURL     string
	HTTPClient  *http.Client
	FramePolicy FramePolicy
	Logger      *zap.Logger
}

// AnthropicProvider talks to the messages API.
type AnthropicProvider struct {
	apiKey  string
	baseURL string
	client  *http.Client
	policy  FramePolicy
	logger  *zap.Logger
}

func NewAnthropicProvider(cfg AnthropicConfig) *AnthropicProvider {
	baseURL := strings.TrimSpace(cfg.BaseURL)
	if baseURL == "" {
		baseURL = DefaultAnthropicBaseURL
	}
	client := cfg.HTTPClient
	if client == nil {
		client = defaultHTTPClient()
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AnthropicProvider{
		apiKey:  cfg.APIKey,
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  client,
		policy:  cfg.FramePolicy,
		logger:  logger,
	}
}

func (a *AnthropicProvider) Name() string { return AnthropicName }

type anthropicMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type anthropicRequest struct {
	Model       string             `json:"model"`
	MaxTokens   int                `json:"max_tokens"`
	Temperature float64            `json:"temperature"`
	System      string             `json:"system,omitempty"`
	Messages    []anthropicMessage `json:"messages"`
	Stream      bool               `json:"stream,omitempty"`
}

func (a *AnthropicProvider) buildRequest(prompt string, opts GenerateOptions, stream bool) anthropicRequest {
	return anthropicRequest{
		Model:       opts.modelOr(DefaultAnthropicModel),
		MaxTokens:   opts.MaxTokensValue(),
		Temperature: opts.TemperatureValue(),
		System:      opts.SystemPrompt,
		Messages:    []anthropicMessage{{Role: "user", Content: prompt}},
		Stream:      stream,
	}
}

func (a *AnthropicProvider) headers() map[string]string {
	return map[string]string{
		"x-api-key":         a.apiKey,
		"anthropic-version": anthropicVersion,
	}
}

func (a *AnthropicProvider) GenerateText(ctx context.Context, prompt string, opts GenerateOptions) (string, error) {
	resp, err := postJSON(ctx, a.client, AnthropicName, a.baseURL+"/messages", a.headers(), a.buildRequest(prompt, opts, false))
	if err != nil {
		return "", err
	}
	var parsed struct {
		Content []struct {
			Type string `json:"type"`
			Text string `json:"text"`
		} `json:"content"`
	}
	if err := decodeBody(AnthropicName, resp.Body, &parsed); err != nil {
		return "", err
	}
	if len(parsed.Content) == 0 {
		return "", nil
	}
	return parsed.Content[0].Text, nil
}

func (a *AnthropicProvider) GenerateStream(ctx context.Context, prompt string, opts GenerateOptions) (Stream, error) {
	resp, err := postJSON(ctx, a.client, AnthropicName, a.baseURL+"/messages", a.headers(), a.buildRequest(prompt, opts, true))
	if err != nil {
		return nil, err
	}
	return newSSEStream(AnthropicName, resp.Body, decodeAnthropicFrame, a.policy, a.logger), nil
}

func decodeAnthropicFrame(payload string) (string, bool, error) {
	var frame struct {
		Type  string `json:"type"`
		Delta struct {
			Text string `json:"text"`
		} `json:"delta"`
	}
	if err := json.Unmarshal([]byte(payload), &frame); err != nil {
		return "", false, err
	}
	switch frame.Type {
	case "content_block_delta":
		return frame.Delta.Text, false, nil
	case "message_stop":
		return "", true, nil
	default:
		return "", false, nil
	}
}
