package providers

import (
	"strings"

	"litnotes/internal/config"

	"go.uber.org/zap"
)

// FromConfig builds every provider that has credentials configured. Order is
// stable: openai, anthropic, groq, then mock when enabled.
func FromConfig(cfg config.Config, logger *zap.Logger) ([]Provider, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	policy, err := ParseFramePolicy(cfg.StreamFramePolicy)
	if err != nil {
		return nil, err
	}
	out := make([]Provider, 0, 4)
	if strings.TrimSpace(cfg.OpenAIKey) != "" {
		out = append(out, NewOpenAIProvider(OpenAIConfig{
			APIKey:      cfg.OpenAIKey,
			BaseURL:     cfg.OpenAIBaseURL,
			FramePolicy: policy,
			Logger:      logger.Named(OpenAIName),
		}))
	}
	if strings.TrimSpace(cfg.AnthropicKey) != "" {
		out = append(out, NewAnthropicProvider(AnthropicConfig{
			APIKey:      cfg.AnthropicKey,
			BaseURL:     cfg.AnthropicBaseURL,
			FramePolicy: policy,
			Logger:      logger.Named(AnthropicName),
		}))
	}
	if strings.TrimSpace(cfg.GroqKey) != "" {
		out = append(out, NewGroqProvider(GroqConfig{
			APIKey:      cfg.GroqKey,
			BaseURL:     cfg.GroqBaseURL,
			Model:       cfg.GroqModel,
			FramePolicy: policy,
			Logger:      logger.Named(GroqName),
		}))
	}
	if cfg.EnableMockProvider {
		out = append(out, NewMockProvider())
	}
	return out, nil
}

// Names returns the provider names in input order.
func Names(ps []Provider) []string {
	out := make([]string, 0, len(ps))
	for _, p := range ps {
		out = append(out, p.Name())
	}
	return out
}
