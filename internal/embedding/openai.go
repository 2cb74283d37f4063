package embedding

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	openai "github.com/sashabaranov/go-openai"
)

const (
	DefaultModel         = "embedding-2"
	DefaultDimension     = 1024
	DefaultMaxInputChars = 2000
)

type OpenAIConfig struct {
	APIKey        string
	BaseURL       string
	Model         string
	Dimension     int
	MaxInputChars int
	HTTPClient    *http.Client
}

// OpenAIEmbedder calls any OpenAI-compatible /embeddings endpoint.
type OpenAIEmbedder struct {
	client   *openai.Client
	model    string
	dim      int
	maxChars int
}

func NewOpenAIEmbedder(cfg OpenAIConfig) (*OpenAIEmbedder, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, errors.New("embedding api key is required")
	}
	oc := openai.DefaultConfig(cfg.APIKey)
	if base := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/"); base != "" {
		oc.BaseURL = base
	}
	if cfg.HTTPClient != nil {
		oc.HTTPClient = cfg.HTTPClient
	}
	e := &OpenAIEmbedder{
		client:   openai.NewClientWithConfig(oc),
		model:    cfg.Model,
		dim:      cfg.Dimension,
		maxChars: cfg.MaxInputChars,
	}
	if e.model == "" {
		e.model = DefaultModel
	}
	if e.dim <= 0 {
		e.dim = DefaultDimension
	}
	if e.maxChars <= 0 {
		e.maxChars = DefaultMaxInputChars
	}
	return e, nil
}

func (e *OpenAIEmbedder) Dimension() int { return e.dim }

func (e *OpenAIEmbedder) Model() string { return e.model }

func (e *OpenAIEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	resp, err := e.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Input: []string{truncateRunes(text, e.maxChars)},
		Model: openai.EmbeddingModel(e.model),
	})
	if err != nil {
		return nil, fmt.Errorf("create embedding: %w", err)
	}
	if len(resp.Data) == 0 {
		return nil, &EmbeddingFormatError{Expected: e.dim, Got: 0}
	}
	vec := resp.Data[0].Embedding
	if err := CheckDimension(vec, e.dim); err != nil {
		return nil, err
	}
	return vec, nil
}
