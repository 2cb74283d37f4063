package providers

import (
	"net/http"
	"strings"

	"go.uber.org/zap"
)

const (
	GroqName           = "groq"
	DefaultGroqBaseURL = "https://api.groq.com/openai/v1"
	DefaultGroqModel   = "llama-3.1-8b-instant"
)

type GroqConfig struct {
	APIKey      string
	BaseURL     string
	Model       string
	HTTPClient  *http.Client
	FramePolicy FramePolicy
	Logger      *zap.Logger
}

// NewGroqProvider returns a chat-completions adapter pointed at Groq's
// OpenAI-compatible endpoint.
func NewGroqProvider(cfg GroqConfig) *OpenAIProvider {
	baseURL := strings.TrimSpace(cfg.BaseURL)
	if baseURL == "" {
		baseURL = DefaultGroqBaseURL
	}
	p := NewOpenAIProvider(OpenAIConfig{
		APIKey:      cfg.APIKey,
		BaseURL:     baseURL,
		HTTPClient:  cfg.HTTPClient,
		FramePolicy: cfg.FramePolicy,
		Logger:      cfg.Logger,
	})
	p.name = GroqName
	if m := strings.TrimSpace(cfg.Model); m != "" {
		p.model = m
	} else {
		p.model = DefaultGroqModel
	}
	return p
}
