package providers

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"go.uber.org/zap"
)

const (
	OpenAIName           = "openai"
	DefaultOpenAIBaseURL = "https://api.openai.com/v1"
	DefaultOpenAIModel   = "gpt-4"

	openAIDoneSentinel = "[DONE]"
)

type OpenAIConfig struct {
	APIKey      string
	BaseURL     string
	HTTPClient  *http.Client
	FramePolicy FramePolicy
	Logger      *zap.Logger
}

// OpenAIProvider talks to the chat-completions API. Compatible vendors reuse
// it under their own name and default model.
type OpenAIProvider struct {
	name    string
	model   string
	apiKey  string
	baseURL string
	client  *http.Client
	policy  FramePolicy
	logger  *zap.Logger
}

func NewOpenAIProvider(cfg OpenAIConfig) *OpenAIProvider {
	baseURL := strings.TrimSpace(cfg.BaseURL)
	if baseURL == "" {
		baseURL = DefaultOpenAIBaseURL
	}
	client := cfg.HTTPClient
	if client == nil {
		client = defaultHTTPClient()
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &OpenAIProvider{
		name:    OpenAIName,
		model:   DefaultOpenAIModel,
		apiKey:  cfg.APIKey,
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  client,
		policy:  cfg.FramePolicy,
		logger:  logger,
	}
}

func (o *OpenAIProvider) Name() string { return o.name }

type openAIMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type openAIRequest struct {
	Model       string          `json:"model"`
	Messages    []openAIMessage `json:"messages"`
	Temperature float64         `json:"temperature"`
	MaxTokens   int             `json:"max_tokens"`
	Stream      bool            `json:"stream,omitempty"`
}

func (o *OpenAIProvider) buildRequest(prompt string, opts GenerateOptions, stream bool) openAIRequest {
	messages := make([]openAIMessage, 0, 2)
	if opts.SystemPrompt != "" {
		messages = append(messages, openAIMessage{Role: "system", Content: opts.SystemPrompt})
	}
	messages = append(messages, openAIMessage{Role: "user", Content: prompt})
	return openAIRequest{
		Model:       opts.modelOr(o.model),
		Messages:    messages,
		Temperature: opts.TemperatureValue(),
		MaxTokens:   opts.MaxTokensValue(),
		Stream:      stream,
	}
}

func (o *OpenAIProvider) headers() map[string]string {
	return map[string]string{"Authorization": "Bearer " + o.apiKey}
}

func (o *OpenAIProvider) GenerateText(ctx context.Context, prompt string, opts GenerateOptions) (string, error) {
	resp, err := postJSON(ctx, o.client, o.name, o.baseURL+"/chat/completions", o.headers(), o.buildRequest(prompt, opts, false))
	if err != nil {
		return "", err
	}
	var parsed struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := decodeBody(o.name, resp.Body, &parsed); err != nil {
		return "", err
	}
	if len(parsed.Choices) == 0 {
		return "", nil
	}
	return parsed.Choices[0].Message.Content, nil
}

func (o *OpenAIProvider) GenerateStream(ctx context.Context, prompt string, opts GenerateOptions) (Stream, error) {
	resp, err := postJSON(ctx, o.client, o.name, o.baseURL+"/chat/completions", o.headers(), o.buildRequest(prompt, opts, true))
	if err != nil {
		return nil, err
	}
	return newSSEStream(o.name, resp.Body, decodeOpenAIFrame, o.policy, o.logger), nil
}

func decodeOpenAIFrame(payload string) (string, bool, error) {
	if strings.TrimSpace(payload) == openAIDoneSentinel {
		return "", true, nil
	}
	var frame struct {
		Choices []struct {
			Delta struct {
				Content string `json:"content"`
			} `json:"delta"`
		} `json:"choices"`
	}
	if err := json.Unmarshal([]byte(payload), &frame); err != nil {
		return "", false, err
	}
	if len(frame.Choices) == 0 {
		return "", false, nil
	}
	return frame.Choices[0].Delta.Content, false, nil
}
