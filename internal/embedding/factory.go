package embedding

import (
	"strings"

	"litnotes/internal/config"
)

// FromConfig picks the embedding backend named by cfg.EmbedProvider.
func FromConfig(cfg config.Config) (Embedder, error) {
	switch cfg.EmbedProvider {
	case config.EmbedProviderOllama:
		return NewOllamaEmbedder(OllamaConfig{
			BaseURL:       cfg.OllamaBaseURL,
			Model:         ollamaModel(cfg.EmbedModel),
			Dimension:     cfg.EmbedDim,
			MaxInputChars: cfg.EmbedMaxChars,
		}), nil
	case config.EmbedProviderHash:
		return NewHashEmbedder(cfg.EmbedDim), nil
	case config.EmbedProviderOpenAI:
		return newOpenAIFromConfig(cfg)
	default:
		if strings.TrimSpace(cfg.EmbedAPIKey) == "" {
			return NewHashEmbedder(cfg.EmbedDim), nil
		}
		return newOpenAIFromConfig(cfg)
	}
}

func newOpenAIFromConfig(cfg config.Config) (Embedder, error) {
	return NewOpenAIEmbedder(OpenAIConfig{
		APIKey:        cfg.EmbedAPIKey,
		BaseURL:       cfg.EmbedBaseURL,
		Model:         cfg.EmbedModel,
		Dimension:     cfg.EmbedDim,
		MaxInputChars: cfg.EmbedMaxChars,
	})
}

// ollamaModel ignores the hosted default so a bare ollama setup works.
func ollamaModel(m string) string {
	if m == DefaultModel {
		return ""
	}
	return m
}
