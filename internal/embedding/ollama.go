package embedding

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const (
	DefaultOllamaBaseURL = "http://localhost:11434"
	DefaultOllamaModel   = "nomic-embed-text"
)

type OllamaConfig struct {
	BaseURL       string
	Model         string
	Dimension     int
	MaxInputChars int
	HTTPClient    *http.Client
}

// OllamaEmbedder embeds locally through an Ollama server.
type OllamaEmbedder struct {
	baseURL  string
	model    string
	dim      int
	maxChars int
	client   *http.Client
}

func NewOllamaEmbedder(cfg OllamaConfig) *OllamaEmbedder {
	e := &OllamaEmbedder{
		baseURL:  strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/"),
		model:    strings.TrimSpace(cfg.Model),
		dim:      cfg.Dimension,
		maxChars: cfg.MaxInputChars,
		client:   cfg.HTTPClient,
	}
	if e.baseURL == "" {
		e.baseURL = DefaultOllamaBaseURL
	}
	if e.model == "" {
		e.model = DefaultOllamaModel
	}
	if e.dim <= 0 {
		e.dim = DefaultDimension
	}
	if e.maxChars <= 0 {
		e.maxChars = DefaultMaxInputChars
	}
	if e.client == nil {
		e.client = &http.Client{Timeout: 90 * time.Second}
	}
	return e
}

func (o *OllamaEmbedder) Dimension() int { return o.dim }

func (o *OllamaEmbedder) Model() string { return o.model }

// Embed never pads or truncates the returned vector; a model whose output
// length differs from Dimension yields an EmbeddingFormatError.
func (o *OllamaEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	payload, err := json.Marshal(map[string]any{
		"model":  o.model,
		"prompt": truncateRunes(text, o.maxChars),
	})
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, o.baseURL+"/api/embeddings", bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := o.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("ollama embedding request failed: %w", err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 8<<20))
	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("ollama embedding error %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	var parsed struct {
		Embedding []float32 `json:"embedding"`
	}
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("decode ollama embedding response: %w", err)
	}
	if err := CheckDimension(parsed.Embedding, o.dim); err != nil {
		return nil, err
	}
	return parsed.Embedding, nil
}
